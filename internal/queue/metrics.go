package queue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Queue metrics for Prometheus monitoring.
var (
	MessagesEnqueuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notify_queue_messages_enqueued_total",
			Help: "Total number of event messages enqueued",
		},
	)

	MessagesProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_queue_messages_processed_total",
			Help: "Total number of event messages processed by status",
		},
		[]string{"status"}, // processed, failed, dlq
	)

	MessageProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "notify_queue_message_processing_duration_seconds",
			Help:    "Duration of event message processing operations",
			Buckets: prometheus.DefBuckets,
		},
	)

	DLQMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_queue_dlq_messages_total",
			Help: "Total number of event messages moved to DLQ by reason",
		},
		[]string{"reason"},
	)
)
