// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package distsqlrun

import "github.com/cockroachdb/rowscan/pkg/util/metric"

var (
	metaTasks = metric.Metadata{
		Name:        "distsql.iterator.tasks",
		Help:        "Number of region tasks started by DAG iterators",
		Measurement: "Tasks",
		Unit:        metric.Unit_COUNT,
	}
	metaResponses = metric.Metadata{
		Name:        "distsql.iterator.responses",
		Help:        "Number of coprocessor responses received by DAG iterators",
		Measurement: "Responses",
		Unit:        metric.Unit_COUNT,
	}
	metaChunks = metric.Metadata{
		Name:        "distsql.iterator.chunks",
		Help:        "Number of chunks decoded by DAG iterators",
		Measurement: "Chunks",
		Unit:        metric.Unit_COUNT,
	}
	metaRows = metric.Metadata{
		Name:        "distsql.iterator.rows",
		Help:        "Number of rows returned by DAG iterators",
		Measurement: "Rows",
		Unit:        metric.Unit_COUNT,
	}
	metaAbsentStreams = metric.Metadata{
		Name:        "distsql.iterator.absent_streams",
		Help:        "Number of region tasks whose store returned no response stream, ending the scan",
		Measurement: "Tasks",
		Unit:        metric.Unit_COUNT,
	}
	metaErrors = metric.Metadata{
		Name:        "distsql.iterator.errors",
		Help:        "Number of DAG iterators that failed",
		Measurement: "Iterators",
		Unit:        metric.Unit_COUNT,
	}
)

// DAGIteratorMetrics holds the metrics shared by DAG iterators.
// Field X is documented in metaX.
type DAGIteratorMetrics struct {
	Tasks         *metric.Counter
	Responses     *metric.Counter
	Chunks        *metric.Counter
	Rows          *metric.Counter
	AbsentStreams *metric.Counter
	Errors        *metric.Counter
}

// MakeDAGIteratorMetrics instantiates the metrics.
func MakeDAGIteratorMetrics() DAGIteratorMetrics {
	return DAGIteratorMetrics{
		Tasks:         metric.NewCounter(metaTasks),
		Responses:     metric.NewCounter(metaResponses),
		Chunks:        metric.NewCounter(metaChunks),
		Rows:          metric.NewCounter(metaRows),
		AbsentStreams: metric.NewCounter(metaAbsentStreams),
		Errors:        metric.NewCounter(metaErrors),
	}
}
