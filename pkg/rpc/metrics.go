// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package rpc

import "github.com/cockroachdb/rowscan/pkg/util/metric"

var (
	metaDials = metric.Metadata{
		Name:        "rpc.dials",
		Help:        "Counter of connection attempts to stores",
		Measurement: "Connections",
		Unit:        metric.Unit_COUNT,
	}
	metaDialFailures = metric.Metadata{
		Name: "rpc.dial_failures",
		Help: `Counter of failed connection attempts.

Attempts abandoned because the caller's context was canceled are included.
`,
		Measurement: "Connections",
		Unit:        metric.Unit_COUNT,
	}
	metaConnections = metric.Metadata{
		Name:        "rpc.connections",
		Help:        "Gauge of cached connections to stores",
		Measurement: "Connections",
		Unit:        metric.Unit_COUNT,
	}
	metaDialLatency = metric.Metadata{
		Name:        "rpc.dial.latency",
		Help:        "Latency of successful connection attempts",
		Measurement: "Latency",
		Unit:        metric.Unit_NANOSECONDS,
	}
)

func makeMetrics() Metrics {
	return Metrics{
		Dials:        metric.NewCounter(metaDials),
		DialFailures: metric.NewCounter(metaDialFailures),
		Connections:  metric.NewGauge(metaConnections),
		DialLatency:  metric.NewHistogram(metaDialLatency, metric.LatencyBuckets),
	}
}

// Metrics is a metrics struct for Context metrics.
// Field X is documented in metaX.
type Metrics struct {
	Dials        *metric.Counter
	DialFailures *metric.Counter
	Connections  *metric.Gauge
	DialLatency  *metric.Histogram
}
