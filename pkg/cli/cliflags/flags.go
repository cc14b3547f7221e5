// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package cliflags

// Flags shared by every command.
var (
	LogVerbosity = FlagInfo{
		Name:        "verbosity",
		Shorthand:   "v",
		EnvVar:      "ROWSCAN_VERBOSITY",
		Description: `Verbosity of V-level logging. Higher levels log more detail.`,
	}

	LogFormat = FlagInfo{
		Name:        "log-format",
		EnvVar:      "ROWSCAN_LOG_FORMAT",
		Description: `Format of log entries written to stderr: "text" or "json".`,
	}

	LogRedact = FlagInfo{
		Name:   "log-redact",
		EnvVar: "ROWSCAN_LOG_REDACT",
		Description: `
Redact unsafe values, such as row contents and handles, from log
messages.`,
	}

	MetricsAddr = FlagInfo{
		Name:   "metrics-addr",
		EnvVar: "ROWSCAN_METRICS_ADDR",
		Description: `
If set, serve Prometheus metrics at /metrics on this address while the
command runs.`,
	}

	Compression = FlagInfo{
		Name:        "compression",
		EnvVar:      "ROWSCAN_COMPRESSION",
		Description: `Compress RPC traffic to stores with snappy.`,
	}

	ConnectTimeout = FlagInfo{
		Name:        "connect-timeout",
		EnvVar:      "ROWSCAN_CONNECT_TIMEOUT",
		Description: `Maximum time to wait for a connection to a store.`,
	}
)

// Flags of the scan and demo commands.
var (
	Topology = FlagInfo{
		Name:      "topology",
		Shorthand: "t",
		EnvVar:    "ROWSCAN_TOPOLOGY",
		Description: `
Path to a YAML file describing the stores and the regions of the scanned
table. For example:
<PRE>

  stores:
    - id: 1
      address: localhost:20160
  regions:
    - id: 1
      end_handle: 1000
      store_id: 1
    - id: 2
      start_handle: 1000
      store_id: 1

</PRE>
A region without start_handle (end_handle) extends to the start (end) of the
key space.`,
	}

	TableID = FlagInfo{
		Name:        "table",
		Description: `ID of the table to scan.`,
	}

	Columns = FlagInfo{
		Name: "columns",
		Description: `
Comma-separated types of the table columns stored in row values, in order.
The integer row handle is always returned as the first column. Supported
types: varchar, string, char, bytes, binary, int, bigint.`,
	}

	IndexScan = FlagInfo{
		Name:        "index-scan",
		Description: `Return only the row handles, read through the table's index.`,
	}

	StartHandle = FlagInfo{
		Name:        "start-handle",
		Description: `If set, the first row handle to scan (inclusive).`,
	}

	EndHandle = FlagInfo{
		Name:        "end-handle",
		Description: `If set, the last row handle to scan (inclusive).`,
	}

	Descending = FlagInfo{
		Name:        "desc",
		Description: `Scan every region in descending handle order.`,
	}

	TableDisplayFormat = FlagInfo{
		Name:   "format",
		EnvVar: "ROWSCAN_FORMAT",
		Description: `
Selects how to display rows. Possible values: table, tsv, csv, records.`,
	}
)

// Flags of the demo command.
var (
	DemoRows = FlagInfo{
		Name:        "rows",
		Description: `Number of rows loaded into the demo store.`,
	}

	DemoRegions = FlagInfo{
		Name:        "regions",
		Description: `Number of regions the demo table is split into.`,
	}

	DemoRowsPerChunk = FlagInfo{
		Name:        "rows-per-chunk",
		Description: `Maximum number of rows the demo store puts in a chunk.`,
	}

	DemoDropRegion = FlagInfo{
		Name: "drop-region",
		Description: `
If non-zero, the demo store returns no response stream for this region,
which ends the scan early.`,
	}
)
