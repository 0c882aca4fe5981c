package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline metrics for Prometheus monitoring.
var (
	EventsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_events_processed_total",
			Help: "Total number of events processed by kind and outcome",
		},
		[]string{"kind", "outcome"}, // processed, skipped, failed
	)

	EventProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notify_event_processing_duration_seconds",
			Help:    "Duration of single event processing by kind",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	RecipientsNotifiedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notify_recipients_notified_total",
			Help: "Total number of recipients included in dispatched messages",
		},
	)

	RecipientsSkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notify_recipients_skipped_total",
			Help: "Total number of recipients excluded for missing contact identity",
		},
	)
)
