// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package metric

import (
	"regexp"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	prometheusgo "github.com/prometheus/client_model/go"
)

// Unit describes the unit of a metric's values.
type Unit int

// Units.
const (
	Unit_UNSET Unit = iota
	Unit_COUNT
	Unit_BYTES
	Unit_NANOSECONDS
)

func (u Unit) String() string {
	switch u {
	case Unit_COUNT:
		return "COUNT"
	case Unit_BYTES:
		return "BYTES"
	case Unit_NANOSECONDS:
		return "NANOSECONDS"
	default:
		return "UNSET"
	}
}

// Metadata holds metadata about a metric.
type Metadata struct {
	Name        string
	Help        string
	Measurement string
	Unit        Unit
}

// GetName returns the metric's name.
func (m *Metadata) GetName() string { return m.Name }

// GetHelp returns the metric's help string.
func (m *Metadata) GetHelp() string { return m.Help }

// Iterable is implemented by every metric in this package.
type Iterable interface {
	GetName() string
	GetHelp() string
	collector() prometheus.Collector
}

var nameRE = regexp.MustCompile("[^a-zA-Z0-9_:]")

// exportedName converts a metric name into its prometheus form.
func exportedName(name string) string {
	return "rowscan_" + nameRE.ReplaceAllString(name, "_")
}

// Counter is a monotonically increasing value.
type Counter struct {
	Metadata
	c prometheus.Counter
}

// NewCounter creates a counter.
func NewCounter(metadata Metadata) *Counter {
	return &Counter{
		Metadata: metadata,
		c: prometheus.NewCounter(prometheus.CounterOpts{
			Name: exportedName(metadata.Name),
			Help: metadata.Help,
		}),
	}
}

// Inc increments the counter by v. Negative values are ignored.
func (c *Counter) Inc(v int64) {
	if v <= 0 {
		return
	}
	c.c.Add(float64(v))
}

// Count returns the current value of the counter.
func (c *Counter) Count() int64 {
	var m prometheusgo.Metric
	if err := c.c.Write(&m); err != nil {
		panic(err)
	}
	return int64(m.GetCounter().GetValue())
}

func (c *Counter) collector() prometheus.Collector { return c.c }

// Gauge is a value that can go up and down.
type Gauge struct {
	Metadata
	g prometheus.Gauge
}

// NewGauge creates a gauge.
func NewGauge(metadata Metadata) *Gauge {
	return &Gauge{
		Metadata: metadata,
		g: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: exportedName(metadata.Name),
			Help: metadata.Help,
		}),
	}
}

// Update sets the gauge's value.
func (g *Gauge) Update(v int64) { g.g.Set(float64(v)) }

// Inc adds v to the gauge's value.
func (g *Gauge) Inc(v int64) { g.g.Add(float64(v)) }

// Dec subtracts v from the gauge's value.
func (g *Gauge) Dec(v int64) { g.g.Sub(float64(v)) }

// Value returns the gauge's current value.
func (g *Gauge) Value() int64 {
	var m prometheusgo.Metric
	if err := g.g.Write(&m); err != nil {
		panic(err)
	}
	return int64(m.GetGauge().GetValue())
}

func (g *Gauge) collector() prometheus.Collector { return g.g }

// LatencyBuckets are histogram buckets, in nanoseconds, suitable for RPC
// and stream latencies between 100µs and roughly 100s.
var LatencyBuckets = prometheus.ExponentialBuckets(float64(100*time.Microsecond), 2, 20)

// Histogram collects observations into buckets.
type Histogram struct {
	Metadata
	h prometheus.Histogram
}

// NewHistogram creates a histogram with the given bucket boundaries.
func NewHistogram(metadata Metadata, buckets []float64) *Histogram {
	return &Histogram{
		Metadata: metadata,
		h: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    exportedName(metadata.Name),
			Help:    metadata.Help,
			Buckets: buckets,
		}),
	}
}

// RecordValue adds v to the histogram.
func (h *Histogram) RecordValue(v int64) { h.h.Observe(float64(v)) }

// TotalCount returns the number of recorded values.
func (h *Histogram) TotalCount() int64 {
	var m prometheusgo.Metric
	if err := h.h.Write(&m); err != nil {
		panic(err)
	}
	return int64(m.GetHistogram().GetSampleCount())
}

func (h *Histogram) collector() prometheus.Collector { return h.h }
