// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package metric

import (
	"net/http"
	"reflect"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/rowscan/pkg/util/syncutil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// A Registry is a list of metrics. It provides a simple way of iterating
// over them and of exporting them to prometheus.
type Registry struct {
	prom *prometheus.Registry

	mu struct {
		syncutil.Mutex
		tracked map[string]Iterable
	}
}

// NewRegistry creates a new Registry.
func NewRegistry() *Registry {
	r := &Registry{prom: prometheus.NewRegistry()}
	r.mu.tracked = map[string]Iterable{}
	return r
}

// AddMetric adds the passed-in metric to the registry.
func (r *Registry) AddMetric(metric Iterable) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.mu.tracked[metric.GetName()]; ok {
		return errors.Newf("metric %q already registered", metric.GetName())
	}
	if err := r.prom.Register(metric.collector()); err != nil {
		return errors.Wrapf(err, "registering metric %q", metric.GetName())
	}
	r.mu.tracked[metric.GetName()] = metric
	return nil
}

// AddMetricStruct examines all fields of metricStruct and adds all Iterable
// values to the registry. Fields that are nil or not metrics are skipped.
func (r *Registry) AddMetricStruct(metricStruct interface{}) error {
	v := reflect.ValueOf(metricStruct)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return errors.AssertionFailedf("expected a struct of metrics, got %T", metricStruct)
	}
	for i := 0; i < v.NumField(); i++ {
		vfield := v.Field(i)
		if !vfield.CanInterface() {
			continue
		}
		if vfield.Kind() == reflect.Ptr && vfield.IsNil() {
			continue
		}
		if m, ok := vfield.Interface().(Iterable); ok {
			if err := r.AddMetric(m); err != nil {
				return err
			}
		}
	}
	return nil
}

// Contains returns whether a metric with the given name was added.
func (r *Registry) Contains(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.mu.tracked[name]
	return ok
}

// Gatherer exposes the registry to prometheus consumers.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.prom
}

// Handler returns an HTTP handler serving the registry in the prometheus
// text exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.prom, promhttp.HandlerOpts{})
}
