// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package cli

import (
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/rowscan/pkg/util/log"
	"github.com/spf13/pflag"
)

// cliContext captures the command-line parameters shared by every command.
var cliCtx struct {
	logVerbosity   int
	logFormat      string
	logRedact      bool
	metricsAddr    string
	compression    bool
	connectTimeout time.Duration
}

// scanCtx captures the command-line parameters of the scan and demo
// commands.
var scanCtx struct {
	topologyFile string
	tableID      int
	columns      string
	indexScan    bool
	desc         bool
	startHandle  handleBound
	endHandle    handleBound
	format       tableDisplayFormat
}

// demoCtx captures the command-line parameters of the demo command.
var demoCtx struct {
	rows         int
	regions      int
	rowsPerChunk int
	dropRegion   int
}

// initCLIDefaults sets the default values of every parameter. Tests call
// it to undo the effect of previous command lines.
func initCLIDefaults() {
	cliCtx.logVerbosity = 0
	cliCtx.logFormat = "text"
	cliCtx.logRedact = false
	cliCtx.metricsAddr = ""
	cliCtx.compression = false
	cliCtx.connectTimeout = 5 * time.Second

	scanCtx.topologyFile = ""
	scanCtx.tableID = 0
	scanCtx.columns = ""
	scanCtx.indexScan = false
	scanCtx.desc = false
	scanCtx.startHandle = handleBound{}
	scanCtx.endHandle = handleBound{}
	scanCtx.format = tableDisplayTable

	demoCtx.rows = 100
	demoCtx.regions = 4
	demoCtx.rowsPerChunk = 16
	demoCtx.dropRegion = 0
}

func logConfig() log.Config {
	return log.Config{
		Verbosity: log.Level(cliCtx.logVerbosity),
		Format:    cliCtx.logFormat,
		Redact:    cliCtx.logRedact,
		Output:    stderr,
	}
}

// handleBound is an optional row handle given on the command line.
type handleBound struct {
	set bool
	val int64
}

var _ pflag.Value = (*handleBound)(nil)

// Type implements the pflag.Value interface.
func (h *handleBound) Type() string { return "int" }

// String implements the pflag.Value interface.
func (h *handleBound) String() string {
	if !h.set {
		return ""
	}
	return strconv.FormatInt(h.val, 10)
}

// Set implements the pflag.Value interface.
func (h *handleBound) Set(s string) error {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return errors.Wrapf(err, "invalid row handle %q", s)
	}
	h.set, h.val = true, v
	return nil
}
