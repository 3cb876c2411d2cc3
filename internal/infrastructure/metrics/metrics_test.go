package metrics_test

import (
	"io"
	"net/http/httptest"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/infrastructure/metrics"
)

func counterValue(t *testing.T, m *metrics.Metrics, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, metric := range f.GetMetric() {
			if matches(metric, labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func matches(metric *dto.Metric, labels map[string]string) bool {
	found := 0
	for _, lp := range metric.GetLabel() {
		if v, ok := labels[lp.GetName()]; ok && v == lp.GetValue() {
			found++
		}
	}
	return found == len(labels)
}

func TestMetrics_RegistraUnidades(t *testing.T) {
	m := metrics.New()
	m.ObserveCommit("commit", 2)
	m.ObserveCommit("commit", 1)
	m.ObserveRetry("commit", "concurrent_modification")
	m.ObserveFailure("send", "insufficient_stock")

	assert.Equal(t, 2.0, counterValue(t, m, "inventario_unit_commits_total", map[string]string{"operation": "commit"}))
	assert.Equal(t, 1.0, counterValue(t, m, "inventario_unit_retries_total", map[string]string{"operation": "commit", "reason": "concurrent_modification"}))
	assert.Equal(t, 1.0, counterValue(t, m, "inventario_unit_failures_total", map[string]string{"operation": "send", "class": "insufficient_stock"}))
}

func TestMetrics_Handler(t *testing.T) {
	m := metrics.New()
	m.ObserveRequest("POST", "/api/movements", 201)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), `inventario_http_requests_total{method="POST",route="/api/movements",status="201"} 1`)
}

func TestMetrics_NilEsNoop(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.ObserveCommit("commit", 1)
		m.ObserveFailure("commit", "internal")
	})
}
