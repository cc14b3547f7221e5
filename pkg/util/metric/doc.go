// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

/*
Package metric provides process metrics backed by the prometheus client.

# Adding a new metric

First, describe the metric with a Metadata:

	var metaRowsRead = metric.Metadata{
		Name:        "distsql.iterator.rows",
		Help:        "Number of rows returned by DAG iterators",
		Measurement: "Rows",
		Unit:        metric.Unit_COUNT,
	}

Next, create the metric and keep it in a struct of related metrics:

	type Metrics struct {
		RowsRead *metric.Counter
	}

	func MakeMetrics() Metrics {
		return Metrics{RowsRead: metric.NewCounter(metaRowsRead)}
	}

Finally, add the struct to a Registry so that its metrics are exported:

	registry.AddMetricStruct(metrics)

Metric names use dots as separators. When exported, every character that is
not valid in a prometheus name becomes an underscore and the name gets the
"rowscan_" prefix, so the metric above is scraped as
rowscan_distsql_iterator_rows.
*/
package metric
