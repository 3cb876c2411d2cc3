// Package metrics expone colectores Prometheus del motor de inventario.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appinv "github.com/jhoicas/inventario-ledger/internal/application/inventory"
)

var _ appinv.CoordinatorMetrics = (*Metrics)(nil)

// Metrics colectores de unidades atómicas y peticiones HTTP.
type Metrics struct {
	registry *prometheus.Registry
	commits  *prometheus.CounterVec
	attempts *prometheus.HistogramVec
	retries  *prometheus.CounterVec
	failures *prometheus.CounterVec
	requests *prometheus.CounterVec
}

// New registra los colectores en un registro propio (más los de proceso y runtime).
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inventario_unit_commits_total",
			Help: "Unidades atómicas confirmadas por operación.",
		}, []string{"operation"}),
		attempts: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "inventario_unit_attempts",
			Help:    "Intentos necesarios para confirmar una unidad atómica.",
			Buckets: []float64{1, 2, 3, 4, 5},
		}, []string{"operation"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inventario_unit_retries_total",
			Help: "Reintentos por conflicto optimista o timeout de almacenamiento.",
		}, []string{"operation", "reason"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inventario_unit_failures_total",
			Help: "Unidades atómicas fallidas por clase de error.",
		}, []string{"operation", "class"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inventario_http_requests_total",
			Help: "Peticiones HTTP por ruta y código de estado.",
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(m.commits, m.attempts, m.retries, m.failures, m.requests,
		collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return m
}

// ObserveCommit registra una unidad confirmada y sus intentos.
func (m *Metrics) ObserveCommit(operation string, attempts int) {
	if m == nil {
		return
	}
	m.commits.WithLabelValues(operation).Inc()
	m.attempts.WithLabelValues(operation).Observe(float64(attempts))
}

// ObserveRetry registra un reintento.
func (m *Metrics) ObserveRetry(operation, reason string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(operation, reason).Inc()
}

// ObserveFailure registra una unidad fallida.
func (m *Metrics) ObserveFailure(operation, class string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(operation, class).Inc()
}

// ObserveRequest registra una petición HTTP.
func (m *Metrics) ObserveRequest(method, route string, status int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// Registry registro usado por los colectores.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler handler HTTP de exposición (formato texto de Prometheus).
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
