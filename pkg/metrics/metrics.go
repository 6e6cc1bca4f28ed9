// Package metrics provides Prometheus metrics for the rentals service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SyncRunsTotal tracks sync runs by trigger and status
	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rentals",
			Subsystem: "sync",
			Name:      "runs_total",
			Help:      "Total number of sync runs by trigger and status",
		},
		[]string{"trigger", "status"},
	)

	// SyncDuration tracks end to end sync duration in seconds
	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "rentals",
			Subsystem: "sync",
			Name:      "duration_seconds",
			Help:      "Duration of sync runs in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	// PagesFetched tracks search result pages fetched per location
	PagesFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rentals",
			Subsystem: "fetch",
			Name:      "pages_total",
			Help:      "Total number of search result pages fetched",
		},
		[]string{"location", "status"},
	)

	// RecordsCollected tracks raw listing records collected per location
	RecordsCollected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rentals",
			Subsystem: "fetch",
			Name:      "records_total",
			Help:      "Total number of listing records collected",
		},
		[]string{"location"},
	)

	// RateLimitRetries tracks retries caused by upstream rate limiting
	RateLimitRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rentals",
			Subsystem: "fetch",
			Name:      "rate_limit_retries_total",
			Help:      "Total number of retries caused by upstream rate limiting",
		},
	)

	// RecordsUpserted tracks rows written to the rentals table
	RecordsUpserted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rentals",
			Subsystem: "store",
			Name:      "records_upserted_total",
			Help:      "Total number of rental rows upserted",
		},
		[]string{"status"},
	)

	// OutboundRequests tracks outbound HTTP requests
	OutboundRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rentals",
			Subsystem: "http_client",
			Name:      "requests_total",
			Help:      "Total number of outbound HTTP requests",
		},
		[]string{"method", "host", "status_code"},
	)

	// OutboundRequestDuration tracks outbound HTTP request duration
	OutboundRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rentals",
			Subsystem: "http_client",
			Name:      "request_duration_seconds",
			Help:      "Duration of outbound HTTP requests in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "host"},
	)

	// DatabaseQueryDuration tracks database query duration
	DatabaseQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rentals",
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Duration of database queries in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)

	// KafkaMessagesPublished tracks Kafka messages published
	KafkaMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rentals",
			Subsystem: "kafka",
			Name:      "messages_published_total",
			Help:      "Total number of messages published to Kafka",
		},
		[]string{"topic", "status"},
	)
)

// RecordSyncRun records a completed sync run
func RecordSyncRun(trigger, status string, durationSeconds float64) {
	SyncRunsTotal.WithLabelValues(trigger, status).Inc()
	SyncDuration.Observe(durationSeconds)
}

// RecordPageFetch records a fetched search result page
func RecordPageFetch(location, status string, records int) {
	PagesFetched.WithLabelValues(location, status).Inc()
	if records > 0 {
		RecordsCollected.WithLabelValues(location).Add(float64(records))
	}
}

// RecordKafkaPublish records a Kafka publish operation
func RecordKafkaPublish(topic, status string) {
	KafkaMessagesPublished.WithLabelValues(topic, status).Inc()
}
