// Package metrics holds the Prometheus collectors of the feedback board.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cfb_http_requests_total",
			Help: "Total HTTP requests handled",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cfb_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// AccessDenied counts Access Gate denials by reason code.
	AccessDenied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cfb_access_denied_total",
			Help: "Requests denied by the access gate, by reason",
		},
		[]string{"reason"},
	)

	FlagsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cfb_flags_created_total",
			Help: "Flags raised against posts",
		},
	)

	// ModerationActions counts flag resolutions: dismissed, suspended, banned.
	ModerationActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cfb_moderation_actions_total",
			Help: "Flag resolutions by admin action",
		},
		[]string{"action"},
	)

	NotificationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cfb_notifications_failed_total",
			Help: "Notifications that could not be recorded, by type",
		},
		[]string{"type"},
	)
)
