// Package metrics provides Prometheus metrics for the fern service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MatchOutcomesTotal tracks match results by matching path (name, address) and status
	MatchOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "matching",
			Name:      "outcomes_total",
			Help:      "Total number of match outcomes by path and status",
		},
		[]string{"path", "status"},
	)

	// VetoesTotal tracks records rejected because every candidate was vetoed, by the first veto kind
	VetoesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "matching",
			Name:      "vetoes_total",
			Help:      "Total number of fully vetoed records by first veto kind",
		},
		[]string{"kind"},
	)

	// MatchDuration tracks time spent matching one record, candidate fetch included
	MatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "matching",
			Name:      "duration_seconds",
			Help:      "Duration of matching one transaction record in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"path"},
	)

	// MatchedScore tracks the score of accepted matches
	MatchedScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "matching",
			Name:      "matched_score",
			Help:      "Score of accepted matches",
			Buckets:   []float64{85, 87.5, 90, 92.5, 95, 97.5, 100},
		},
	)

	// CandidateCacheRequests tracks region candidate cache lookups
	CandidateCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "candidate_cache",
			Name:      "requests_total",
			Help:      "Total number of candidate cache lookups by result",
		},
		[]string{"result"},
	)

	// NameCacheEntries tracks the size of the in-process name caches
	NameCacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "fern",
			Subsystem: "name_cache",
			Name:      "entries",
			Help:      "Number of memoized names per cache",
		},
		[]string{"cache"},
	)

	// KafkaMessagesConsumed tracks consumed transaction messages by handling status
	KafkaMessagesConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "kafka",
			Name:      "messages_consumed_total",
			Help:      "Total number of Kafka messages consumed by status",
		},
		[]string{"status"},
	)

	// KafkaMessagesPublished tracks messages published to Kafka
	KafkaMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "kafka",
			Name:      "messages_published_total",
			Help:      "Total number of messages published to Kafka",
		},
		[]string{"topic", "status"},
	)

	// KafkaPublishDuration tracks Kafka publish latency
	KafkaPublishDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "kafka",
			Name:      "publish_duration_seconds",
			Help:      "Duration of Kafka publish operations in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)
)

// RecordMatch records one match outcome. vetoKind is empty unless the record was vetoed.
func RecordMatch(path, status, vetoKind string, score, durationSeconds float64) {
	MatchOutcomesTotal.WithLabelValues(path, status).Inc()
	MatchDuration.WithLabelValues(path).Observe(durationSeconds)
	if vetoKind != "" {
		VetoesTotal.WithLabelValues(vetoKind).Inc()
	}
	if status == "matched" {
		MatchedScore.Observe(score)
	}
}

// RecordCandidateCache records a candidate cache lookup (hit, miss, error)
func RecordCandidateCache(result string) {
	CandidateCacheRequests.WithLabelValues(result).Inc()
}

// SetNameCacheEntries reports the current size of a name cache
func SetNameCacheEntries(cache string, entries int) {
	NameCacheEntries.WithLabelValues(cache).Set(float64(entries))
}

// RecordKafkaConsume records a consumed message and how it was handled
func RecordKafkaConsume(status string) {
	KafkaMessagesConsumed.WithLabelValues(status).Inc()
}

// RecordKafkaPublish records a Kafka publish operation
func RecordKafkaPublish(topic, status string, durationSeconds float64) {
	KafkaMessagesPublished.WithLabelValues(topic, status).Inc()
	KafkaPublishDuration.Observe(durationSeconds)
}
