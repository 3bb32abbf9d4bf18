// Package observability exposes prometheus metrics for the recognition
// pipeline.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Cycle outcomes reported on CyclesTotal.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected"
)

// Metrics holds the pipeline collectors, registered on a private registry so
// tests can run in parallel without collisions.
type Metrics struct {
	registry *prometheus.Registry

	CyclesTotal    *prometheus.CounterVec
	FallbacksTotal *prometheus.CounterVec
	UploadDuration prometheus.Histogram
	HistorySize    prometheus.Gauge
}

// NewMetrics creates and registers the pipeline collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		CyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recognition_cycles_total",
			Help: "Recognition cycles by outcome.",
		}, []string{"outcome"}),
		FallbacksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recognition_fallbacks_total",
			Help: "Synthetic fallback results by failure reason.",
		}, []string{"reason"}),
		UploadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "recognition_upload_duration_seconds",
			Help:    "Time spent uploading a recording to the remote classifier.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40},
		}),
		HistorySize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "recognition_history_entries",
			Help: "Number of entries currently held by the history ledger.",
		}),
	}

	registry.MustRegister(m.CyclesTotal, m.FallbacksTotal, m.UploadDuration, m.HistorySize)
	return m
}

// Handler returns an HTTP handler serving the metrics registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for test assertions.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
