// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const prefix = "aurora"

var (
	// HTTP request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Order lifecycle metrics
	OrdersCreatedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_orders_created_total",
			Help: "Orders placed, by kind (direct or custom)",
		},
		[]string{"kind"},
	)

	OrderTransitionsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_order_transitions_total",
			Help: "Order status transitions applied, by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	PaymentsCapturedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: prefix + "_payments_captured_total",
		Help: "Payments captured through checkout sessions",
	})

	// Shipping provider metrics
	ShippoRequestsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_shippo_requests_total",
			Help: "Calls to the shipping provider, by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	// Email metrics
	EmailsSentCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_emails_sent_total",
			Help: "Order notification emails sent, by event",
		},
		[]string{"event"},
	)
)
