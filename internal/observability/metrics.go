package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors shared by the HTTP layer and use cases.
type Metrics struct {
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	UsecaseRequests  *prometheus.CounterVec
	UsecaseDuration  *prometheus.HistogramVec
	StockUnitsSold   prometheus.Counter
	AuthStateChanges *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		UsecaseRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "usecase_requests_total",
				Help: "Total number of use case invocations.",
			},
			[]string{"use_case", "outcome"},
		),
		UsecaseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "usecase_duration_seconds",
				Help:    "Duration of use case execution in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"use_case"},
		),
		StockUnitsSold: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "checkout_stock_units_total",
				Help: "Units of stock deducted by committed checkouts.",
			},
		),
		AuthStateChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_state_changes_total",
				Help: "Sign-up, sign-in and sign-out events by outcome.",
			},
			[]string{"event", "outcome"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.HTTPRequests, m.HTTPDuration, m.UsecaseRequests, m.UsecaseDuration, m.StockUnitsSold, m.AuthStateChanges)
	}
	return m
}

// ObserveUsecase records one use-case invocation. Safe on a nil receiver.
func (m *Metrics) ObserveUsecase(useCase, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.UsecaseRequests.WithLabelValues(useCase, outcome).Inc()
	m.UsecaseDuration.WithLabelValues(useCase).Observe(seconds)
}

// AuthEvent counts an auth state change. Safe on a nil receiver.
func (m *Metrics) AuthEvent(event, outcome string) {
	if m == nil {
		return
	}
	m.AuthStateChanges.WithLabelValues(event, outcome).Inc()
}
