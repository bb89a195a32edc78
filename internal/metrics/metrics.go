package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kumpul_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kumpul_http_request_duration_seconds",
			Help:    "Histogram of response durations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	// ActiveConnections counts open realtime channels, not distinct users.
	ActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "kumpul_ws_connections",
			Help: "Number of open websocket connections",
		},
	)

	NotificationsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kumpul_notifications_created_total",
			Help: "Notifications persisted by type and priority",
		},
		[]string{"type", "priority"},
	)

	NotificationPushes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kumpul_notification_pushes_total",
			Help: "Realtime notification pushes by kind and result",
		},
		[]string{"kind", "result"},
	)

	BatchPassDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kumpul_notification_batch_pass_duration_seconds",
			Help:    "Duration of low priority notification batching passes",
			Buckets: prometheus.DefBuckets,
		},
	)

	BatchPassSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kumpul_notification_batch_pass_skipped_total",
			Help: "Batching passes skipped because another pass was running",
		},
	)
)

var initOnce sync.Once

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			RequestCount,
			RequestDuration,
			ActiveConnections,
			NotificationsCreated,
			NotificationPushes,
			BatchPassDuration,
			BatchPassSkipped,
		)
	})
}
