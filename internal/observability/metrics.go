// Package observability holds the Prometheus collectors of the credit gateway.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics counts provider operations. A nil *Metrics records nothing.
type Metrics struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "creditgw_provider_operations_total",
				Help: "Credit provider operations by provider, operation and outcome",
			},
			[]string{"provider", "operation", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "creditgw_provider_operation_duration_seconds",
				Help:    "Duration of credit provider operations",
				Buckets: []float64{0.05, 0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
			},
			[]string{"provider", "operation"},
		),
	}
	m.registry.MustRegister(m.operations, m.duration)
	return m
}

// Outcomes
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeRejected = "rejected" // unknown provider or unsupported operation
)

// UnknownProvider labels lookups of ids missing from the registry.
const UnknownProvider = "unknown"

func (m *Metrics) Observe(providerID, operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(providerID, operation, outcome).Inc()
	if outcome != OutcomeRejected {
		m.duration.WithLabelValues(providerID, operation).Observe(elapsed.Seconds())
	}
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
