// Package metrics exposes Prometheus counters for the session operations.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result label values.
const (
	ResultOK           = "ok"
	ResultInvalid      = "invalid_input"
	ResultConflict     = "conflict"
	ResultUnauthorized = "unauthorized"
	ResultError        = "error"
)

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	reg        *prometheus.Registry
	operations *prometheus.CounterVec
	reuse      prometheus.Counter
}

// New registers the auth counters plus the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		operations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_operations_total",
			Help: "Session operations by operation and outcome.",
		}, []string{"op", "result"}),
		reuse: f.NewCounter(prometheus.CounterOpts{
			Name: "auth_refresh_reuse_detected_total",
			Help: "Replays of already rotated refresh tokens.",
		}),
	}
}

// Operation counts one call of op finishing with result.
func (m *Metrics) Operation(op, result string) {
	m.operations.WithLabelValues(op, result).Inc()
}

// ReuseDetected counts one replayed refresh token.
func (m *Metrics) ReuseDetected() { m.reuse.Inc() }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
