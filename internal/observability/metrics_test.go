package observability

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCollectors(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	m.CyclesTotal.WithLabelValues(OutcomeCompleted).Inc()
	m.CyclesTotal.WithLabelValues(OutcomeCompleted).Inc()
	m.CyclesTotal.WithLabelValues(OutcomeFailed).Inc()
	m.FallbacksTotal.WithLabelValues("timeout").Inc()
	m.HistorySize.Set(12)

	assert.InDelta(t, 2, testutil.ToFloat64(m.CyclesTotal.WithLabelValues(OutcomeCompleted)), 0.001)
	assert.InDelta(t, 1, testutil.ToFloat64(m.CyclesTotal.WithLabelValues(OutcomeFailed)), 0.001)
	assert.InDelta(t, 1, testutil.ToFloat64(m.FallbacksTotal.WithLabelValues("timeout")), 0.001)
	assert.InDelta(t, 12, testutil.ToFloat64(m.HistorySize), 0.001)
}

func TestMetricsHandlerServesRegistry(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	m.CyclesTotal.WithLabelValues(OutcomeCompleted).Inc()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "recognition_cycles_total")
}
