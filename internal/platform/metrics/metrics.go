package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the gateway.
type Metrics struct {
	Logins          *prometheus.CounterVec
	TokensIssued    *prometheus.CounterVec
	VaultOperations *prometheus.CounterVec
	RequestLatency  *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics with the given registerer.
// Pass prometheus.DefaultRegisterer in main; tests use a fresh registry so
// repeated construction does not panic on duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "keygate_logins_total",
			Help: "Login and registration attempts by operation and outcome",
		}, []string{"operation", "outcome"}),
		TokensIssued: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "keygate_tokens_issued_total",
			Help: "Tokens minted by type (access, refresh)",
		}, []string{"type"}),
		VaultOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "keygate_vault_operations_total",
			Help: "Vault operations by operation and outcome",
		}, []string{"operation", "outcome"}),
		RequestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "keygate_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status class",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// ObserveLogin records a login or registration attempt.
func (m *Metrics) ObserveLogin(operation, outcome string) {
	m.Logins.WithLabelValues(operation, outcome).Inc()
}

// ObserveTokenIssued records a minted token by type.
func (m *Metrics) ObserveTokenIssued(tokenType string) {
	m.TokensIssued.WithLabelValues(tokenType).Inc()
}

// ObserveVaultOperation records a vault operation outcome.
func (m *Metrics) ObserveVaultOperation(op, outcome string) {
	m.VaultOperations.WithLabelValues(op, outcome).Inc()
}

// ObserveRequest records one HTTP request's latency.
func (m *Metrics) ObserveRequest(route, status string, elapsed time.Duration) {
	m.RequestLatency.WithLabelValues(route, status).Observe(elapsed.Seconds())
}
