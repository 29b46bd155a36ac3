// Package metrics provides Prometheus metrics for the news server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueriesTotal counts grounded queries by response mode and outcome.
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smartnews",
			Name:      "grounded_queries_total",
			Help:      "Total number of grounded queries sent to the AI service",
		},
		[]string{"mode", "outcome"},
	)

	// QueryDuration measures grounded query latency, retries included.
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "smartnews",
			Name:      "grounded_query_duration_seconds",
			Help:      "Duration of grounded queries in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		},
		[]string{"mode"},
	)

	// QueryRetries counts retried grounded query attempts.
	QueryRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smartnews",
			Name:      "grounded_query_retries_total",
			Help:      "Total number of grounded query retry attempts",
		},
		[]string{"mode"},
	)

	// FallbacksTotal counts operations that resolved to their fallback value.
	FallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smartnews",
			Name:      "fallbacks_total",
			Help:      "Total number of operations that returned a fallback value",
		},
		[]string{"operation"},
	)

	// FeedArticles observes feed batch sizes.
	FeedArticles = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "smartnews",
			Name:      "feed_batch_size",
			Help:      "Distribution of personalized feed batch sizes",
			Buckets:   []float64{0, 1, 2, 4, 6, 8, 10, 15, 20},
		},
	)

	// VerificationsTotal counts verification outcomes by status.
	VerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smartnews",
			Name:      "verifications_total",
			Help:      "Total number of article verifications by status",
		},
		[]string{"status"},
	)

	// HeadlineFetchesTotal counts wire headline fetches by source and status.
	HeadlineFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smartnews",
			Name:      "headline_fetches_total",
			Help:      "Total number of headline feed fetches",
		},
		[]string{"source", "status"},
	)

	// ChatSessions tracks open chat sessions.
	ChatSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "smartnews",
			Name:      "chat_sessions_open",
			Help:      "Number of open chat sessions",
		},
	)
)

// RecordQuery records a finished grounded query.
func RecordQuery(mode, outcome string, duration float64) {
	QueriesTotal.WithLabelValues(mode, outcome).Inc()
	QueryDuration.WithLabelValues(mode).Observe(duration)
}

// RecordRetry records a retried grounded query attempt.
func RecordRetry(mode string) {
	QueryRetries.WithLabelValues(mode).Inc()
}

// RecordFallback records an operation that returned its fallback value.
func RecordFallback(operation string) {
	FallbacksTotal.WithLabelValues(operation).Inc()
}

// RecordFeed records the size of a normalized feed batch.
func RecordFeed(size int) {
	FeedArticles.Observe(float64(size))
}

// RecordVerification records a verification outcome.
func RecordVerification(status string) {
	VerificationsTotal.WithLabelValues(status).Inc()
}

// RecordHeadlineFetch records a headline feed fetch.
func RecordHeadlineFetch(source, status string) {
	HeadlineFetchesTotal.WithLabelValues(source, status).Inc()
}

// SetChatSessions sets the number of open chat sessions.
func SetChatSessions(n int) {
	ChatSessions.Set(float64(n))
}
