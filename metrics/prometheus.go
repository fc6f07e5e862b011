// Copyright (c) 2026 The objrt Authors

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type promMetrics struct {
	mu            sync.Mutex
	counters      map[string]*promCountMeter
	counterVecs   map[string]*promCountVecMeter
	gauges        map[string]*promGaugeMeter
	gaugeVecs     map[string]*promGaugeVecMeter
	histograms    map[string]*promHistogramMeter
	histogramVecs map[string]*promHistogramVecMeter
}

func newPromMetrics() *promMetrics {
	return &promMetrics{
		counters:      make(map[string]*promCountMeter),
		counterVecs:   make(map[string]*promCountVecMeter),
		gauges:        make(map[string]*promGaugeMeter),
		gaugeVecs:     make(map[string]*promGaugeVecMeter),
		histograms:    make(map[string]*promHistogramMeter),
		histogramVecs: make(map[string]*promHistogramVecMeter),
	}
}

func metricName(name string) string {
	return namespace + "_metrics_" + name
}

type promCountMeter struct{ c prometheus.Counter }

func (m *promCountMeter) Add(v int64) { m.c.Add(float64(v)) }

func (pm *promMetrics) counter(name string) CountMeter {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	if m, ok := pm.counters[name]; ok {
		return m
	}
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: metricName(name)})
	prometheus.MustRegister(c)
	m := &promCountMeter{c}
	pm.counters[name] = m
	return m
}

type promCountVecMeter struct{ v *prometheus.CounterVec }

func (m *promCountVecMeter) AddWithLabel(v int64, labels map[string]string) {
	m.v.With(labels).Add(float64(v))
}

func (pm *promMetrics) counterVec(name string, labels []string) CountVecMeter {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	if m, ok := pm.counterVecs[name]; ok {
		return m
	}
	v := prometheus.NewCounterVec(prometheus.CounterOpts{Name: metricName(name)}, labels)
	prometheus.MustRegister(v)
	m := &promCountVecMeter{v}
	pm.counterVecs[name] = m
	return m
}

type promGaugeMeter struct{ g prometheus.Gauge }

func (m *promGaugeMeter) Add(v int64) { m.g.Add(float64(v)) }

func (pm *promMetrics) gauge(name string) GaugeMeter {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	if m, ok := pm.gauges[name]; ok {
		return m
	}
	g := prometheus.NewGauge(prometheus.GaugeOpts{Name: metricName(name)})
	prometheus.MustRegister(g)
	m := &promGaugeMeter{g}
	pm.gauges[name] = m
	return m
}

type promGaugeVecMeter struct{ v *prometheus.GaugeVec }

func (m *promGaugeVecMeter) AddWithLabel(v int64, labels map[string]string) {
	m.v.With(labels).Add(float64(v))
}

func (pm *promMetrics) gaugeVec(name string, labels []string) GaugeVecMeter {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	if m, ok := pm.gaugeVecs[name]; ok {
		return m
	}
	v := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: metricName(name)}, labels)
	prometheus.MustRegister(v)
	m := &promGaugeVecMeter{v}
	pm.gaugeVecs[name] = m
	return m
}

type promHistogramMeter struct{ h prometheus.Histogram }

func (m *promHistogramMeter) Observe(v int64) { m.h.Observe(float64(v)) }

func (pm *promMetrics) histogram(name string, buckets []float64) HistogramMeter {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	if m, ok := pm.histograms[name]; ok {
		return m
	}
	if buckets == nil {
		buckets = prometheus.DefBuckets
	}
	h := prometheus.NewHistogram(prometheus.HistogramOpts{Name: metricName(name), Buckets: buckets})
	prometheus.MustRegister(h)
	m := &promHistogramMeter{h}
	pm.histograms[name] = m
	return m
}

type promHistogramVecMeter struct{ v *prometheus.HistogramVec }

func (m *promHistogramVecMeter) ObserveWithLabels(v int64, labels map[string]string) {
	m.v.With(labels).Observe(float64(v))
}

func (pm *promMetrics) histogramVec(name string, labels []string, buckets []float64) HistogramVecMeter {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	if m, ok := pm.histogramVecs[name]; ok {
		return m
	}
	if buckets == nil {
		buckets = prometheus.DefBuckets
	}
	v := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: metricName(name), Buckets: buckets}, labels)
	prometheus.MustRegister(v)
	m := &promHistogramVecMeter{v}
	pm.histogramVecs[name] = m
	return m
}

func (pm *promMetrics) httpHandler() http.Handler {
	return promhttp.Handler()
}
