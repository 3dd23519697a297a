package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	BackendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_requests_total",
			Help: "Total number of calls made to the hosted backend",
		},
		[]string{"operation", "outcome"},
	)

	BackendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backend_request_duration_seconds",
			Help:    "Duration of calls made to the hosted backend",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	SignInsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_sign_ins_total",
			Help: "Admin sign-in attempts by outcome",
		},
		[]string{"outcome"},
	)

	StaleLoadsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dashboard_stale_loads_total",
			Help: "Dashboard loads discarded because a newer load was issued",
		},
	)
)

// Register registers all collectors with reg.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		BackendRequestsTotal,
		BackendRequestDuration,
		HTTPRequestsTotal,
		HTTPRequestDuration,
		SignInsTotal,
		StaleLoadsTotal,
	)
}

// ObserveBackend records one backend call that started at start.
func ObserveBackend(operation string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	BackendRequestsTotal.WithLabelValues(operation, outcome).Inc()
	BackendRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
