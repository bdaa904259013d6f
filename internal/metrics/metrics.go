// Package metrics provides Prometheus metrics for the nirala services.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesSent counts persisted chat messages.
	MessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nirala_messages_sent_total",
			Help: "Total number of chat messages persisted",
		},
	)

	// NotificationsEmitted counts emit calls by outcome (stored, suppressed, failed).
	NotificationsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nirala_notifications_emitted_total",
			Help: "Total number of notification emits by category and outcome",
		},
		[]string{"category", "outcome"},
	)

	// ChannelDeliveries counts per-channel fan-out attempts.
	ChannelDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nirala_channel_deliveries_total",
			Help: "Total number of notification channel deliveries by channel and status",
		},
		[]string{"channel", "status"},
	)

	EmailsQueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nirala_email_digest_queued_total",
			Help: "Total number of notifications queued for an email digest",
		},
		[]string{"frequency"},
	)

	DigestRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nirala_email_digest_run_duration_seconds",
			Help:    "Duration of email digest runs",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"frequency"},
	)

	// LiveConnections tracks registered websocket clients on this instance.
	LiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nirala_live_connections",
			Help: "Number of currently registered live connections",
		},
	)

	LiveEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nirala_live_events_dropped_total",
			Help: "Total number of live events dropped because a client buffer was full",
		},
	)

	EventQueueDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nirala_event_queue_dropped_total",
			Help: "Total number of async notification events dropped because the queue was full",
		},
	)
)

// RecordEmit increments the emit counter for a category and outcome.
func RecordEmit(category, outcome string) {
	NotificationsEmitted.WithLabelValues(category, outcome).Inc()
}

// RecordDelivery increments the delivery counter for a channel.
func RecordDelivery(channel string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	ChannelDeliveries.WithLabelValues(channel, status).Inc()
}
