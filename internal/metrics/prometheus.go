package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the rental service
type Metrics struct {
	// Rental state machine
	TogglesTotal    *prometheus.CounterVec
	RentalsAdded    prometheus.Counter
	RentalsRemoved  prometheus.Counter
	LogsCleared     prometheus.Counter
	OperationErrors *prometheus.CounterVec
	ToggleDuration  prometheus.Histogram

	// Tenants and identity
	LinksTotal *prometheus.CounterVec

	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates all metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		TogglesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rental",
			Name:      "toggles_total",
			Help:      "Total number of committed check-in/check-out toggles",
		}, []string{"action"}),
		RentalsAdded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "rental",
			Name:      "rentals_added_total",
			Help:      "Total number of rentals registered",
		}),
		RentalsRemoved: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "rental",
			Name:      "rentals_removed_total",
			Help:      "Total number of rentals removed",
		}),
		LogsCleared: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "rental",
			Name:      "log_clears_total",
			Help:      "Total number of log resets",
		}),
		OperationErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rental",
			Name:      "operation_errors_total",
			Help:      "Total number of failed operations by operation and error kind",
		}, []string{"operation", "kind"}),
		ToggleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rental",
			Name:      "toggle_duration_seconds",
			Help:      "Duration of toggle transactions",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		LinksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rental",
			Name:      "links_total",
			Help:      "Total number of access key exchanges by result",
		}, []string{"result"}),
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rental",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rental",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}
