// Copyright (c) 2026 The objrt Authors

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import "net/http"

// noopMeters implements every meter interface as a discard.
type noopMeters struct{}

func (noopMeters) Add(int64)                                {}
func (noopMeters) Observe(int64)                            {}
func (noopMeters) AddWithLabel(int64, map[string]string)    {}
func (noopMeters) ObserveWithLabels(int64, map[string]string) {}

var noopSingleton = &noopMeters{}

type noopMetrics struct{}

func defaultNoopMetrics() *noopMetrics { return &noopMetrics{} }

func (*noopMetrics) counter(string) CountMeter                          { return noopSingleton }
func (*noopMetrics) counterVec(string, []string) CountVecMeter          { return noopSingleton }
func (*noopMetrics) gauge(string) GaugeMeter                            { return noopSingleton }
func (*noopMetrics) gaugeVec(string, []string) GaugeVecMeter            { return noopSingleton }
func (*noopMetrics) histogram(string, []float64) HistogramMeter         { return noopSingleton }
func (*noopMetrics) histogramVec(string, []string, []float64) HistogramVecMeter {
	return noopSingleton
}

// httpHandler serves 404 for every request, the same as there being no
// metrics endpoint registered at all.
func (*noopMetrics) httpHandler() http.Handler {
	return http.NotFoundHandler()
}
