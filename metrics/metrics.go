// Copyright (c) 2026 The objrt Authors

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package metrics provides lazily-initialized counters, gauges, and
// histograms for seq and leafstore. Before InitializePrometheusMetrics
// is called, every metric is a noop; this lets the two core packages
// record metrics unconditionally without forcing every caller of a
// library to stand up a Prometheus registry first.
package metrics

import (
	"net/http"
	"sync"
)

const namespace = "objrt"

// CountMeter records monotonically increasing counts.
type CountMeter interface {
	Add(v int64)
}

// GaugeMeter records a value that can go up or down.
type GaugeMeter interface {
	Add(v int64)
}

// HistogramMeter records a distribution of observed values.
type HistogramMeter interface {
	Observe(v int64)
}

// CountVecMeter is a CountMeter keyed by label values.
type CountVecMeter interface {
	AddWithLabel(v int64, labels map[string]string)
}

// GaugeVecMeter is a GaugeMeter keyed by label values.
type GaugeVecMeter interface {
	AddWithLabel(v int64, labels map[string]string)
}

// HistogramVecMeter is a HistogramMeter keyed by label values.
type HistogramVecMeter interface {
	ObserveWithLabels(v int64, labels map[string]string)
}

type meterSet interface {
	counter(name string) CountMeter
	counterVec(name string, labels []string) CountVecMeter
	gauge(name string) GaugeMeter
	gaugeVec(name string, labels []string) GaugeVecMeter
	histogram(name string, buckets []float64) HistogramMeter
	histogramVec(name string, labels []string, buckets []float64) HistogramVecMeter
	httpHandler() http.Handler
}

var (
	mu      sync.Mutex
	metrics meterSet = defaultNoopMetrics()
)

// InitializePrometheusMetrics switches the package over to a real
// Prometheus-backed registry. Safe to call more than once; idempotent.
func InitializePrometheusMetrics() {
	mu.Lock()
	defer mu.Unlock()
	if _, ok := metrics.(*promMetrics); ok {
		return
	}
	metrics = newPromMetrics()
}

// HTTPHandler returns the handler that serves /metrics once
// InitializePrometheusMetrics has been called; before that it serves a
// 404, matching the teacher's noop behavior.
func HTTPHandler() http.Handler {
	mu.Lock()
	defer mu.Unlock()
	return metrics.httpHandler()
}

func current() meterSet {
	mu.Lock()
	defer mu.Unlock()
	return metrics
}

// Counter returns a named counter, creating it on first use.
func Counter(name string) CountMeter { return current().counter(name) }

// CounterVec returns a named, label-partitioned counter.
func CounterVec(name string, labels []string) CountVecMeter { return current().counterVec(name, labels) }

// Gauge returns a named gauge, creating it on first use.
func Gauge(name string) GaugeMeter { return current().gauge(name) }

// GaugeVec returns a named, label-partitioned gauge.
func GaugeVec(name string, labels []string) GaugeVecMeter { return current().gaugeVec(name, labels) }

// Histogram returns a named histogram, creating it on first use. A nil
// buckets slice uses prometheus.DefBuckets.
func Histogram(name string, buckets []float64) HistogramMeter {
	return current().histogram(name, buckets)
}

// HistogramVec returns a named, label-partitioned histogram.
func HistogramVec(name string, labels []string, buckets []float64) HistogramVecMeter {
	return current().histogramVec(name, labels, buckets)
}

// lazy wraps a factory so a meter can be obtained before
// InitializePrometheusMetrics runs; the underlying meter is resolved on
// every call, so it transparently upgrades from noop to Prometheus.
type lazy[M any] func() M

// LazyLoadCounter defers Counter resolution to call time.
func LazyLoadCounter(name string) lazy[CountMeter] {
	return func() CountMeter { return Counter(name) }
}

// LazyLoadCounterVec defers CounterVec resolution to call time.
func LazyLoadCounterVec(name string, labels []string) lazy[CountVecMeter] {
	return func() CountVecMeter { return CounterVec(name, labels) }
}

// LazyLoadGauge defers Gauge resolution to call time.
func LazyLoadGauge(name string) lazy[GaugeMeter] {
	return func() GaugeMeter { return Gauge(name) }
}

// LazyLoadGaugeVec defers GaugeVec resolution to call time.
func LazyLoadGaugeVec(name string, labels []string) lazy[GaugeVecMeter] {
	return func() GaugeVecMeter { return GaugeVec(name, labels) }
}

// LazyLoadHistogram defers Histogram resolution to call time.
func LazyLoadHistogram(name string, buckets []float64) lazy[HistogramMeter] {
	return func() HistogramMeter { return Histogram(name, buckets) }
}

// LazyLoadHistogramVec defers HistogramVec resolution to call time.
func LazyLoadHistogramVec(name string, labels []string, buckets []float64) lazy[HistogramVecMeter] {
	return func() HistogramVecMeter { return HistogramVec(name, labels, buckets) }
}
