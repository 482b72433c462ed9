package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ProviderErrors  *prometheus.CounterVec
	TokenRefreshes  *prometheus.CounterVec
	RateQuotes      *prometheus.CounterVec
}

// NewMetrics creates Prometheus metrics registered on the default registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates Prometheus metrics registered on reg. Tests pass
// their own registry so fixtures do not collide.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courier_requests_total",
				Help: "Total number of requests by operation, provider, and status",
			},
			[]string{"operation", "provider", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "courier_request_duration_seconds",
				Help:    "Request duration in seconds by operation and provider",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "provider"},
		),
		ProviderErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courier_provider_errors_total",
				Help: "Total provider API errors by provider and error type",
			},
			[]string{"provider", "error_type"},
		),
		TokenRefreshes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courier_token_refreshes_total",
				Help: "Total credential refresh exchanges by provider and status",
			},
			[]string{"provider", "status"},
		),
		RateQuotes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courier_rate_quotes_total",
				Help: "Total rate quotes collected by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
	}
}

// RecordRequest records a request metric.
func (m *Metrics) RecordRequest(operation, provider, status string, duration float64) {
	m.RequestsTotal.WithLabelValues(operation, provider, status).Inc()
	m.RequestDuration.WithLabelValues(operation, provider).Observe(duration)
}

// RecordError records a provider error metric.
func (m *Metrics) RecordError(provider, errorType string) {
	m.ProviderErrors.WithLabelValues(provider, errorType).Inc()
}

// RecordTokenRefresh records one credential exchange.
func (m *Metrics) RecordTokenRefresh(provider, status string) {
	m.TokenRefreshes.WithLabelValues(provider, status).Inc()
}

// RecordRateQuote records one collected quote.
func (m *Metrics) RecordRateQuote(provider, outcome string) {
	m.RateQuotes.WithLabelValues(provider, outcome).Inc()
}
