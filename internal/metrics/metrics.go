// Package metrics provides Prometheus metrics for the reader pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "khobor"

var (
	// ArchiveFetchTotal counts archive month fetches by strategy and outcome.
	ArchiveFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_fetch_total",
			Help:      "Total number of archive month fetches",
		},
		[]string{"strategy", "outcome"},
	)

	// ArchiveFetchDuration measures archive fetch latency.
	ArchiveFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "archive_fetch_duration_seconds",
			Help:      "Duration of archive month fetches in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"strategy"},
	)

	// ArchiveFallbackTotal counts remote failures answered with synthetic data.
	ArchiveFallbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_fallback_total",
			Help:      "Total number of remote failures served by the synthetic strategy",
		},
		[]string{"reason"},
	)

	// PageLoadTotal counts controller page loads.
	PageLoadTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "page_load_total",
			Help:      "Total number of page loads by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	// PollTotal counts freshness polls by outcome.
	PollTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_total",
			Help:      "Total number of freshness polls",
		},
		[]string{"outcome"},
	)

	// PollInsertedTotal counts articles merged by the poller.
	PollInsertedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_inserted_total",
			Help:      "Total number of fresh articles merged by the poller",
		},
	)

	// StoreArticles tracks the number of articles held in the aggregation store.
	StoreArticles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_articles",
			Help:      "Number of articles in the aggregation store",
		},
	)

	// AnnounceTotal counts fresh-article announcements by outcome.
	AnnounceTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "announce_total",
			Help:      "Total number of fresh-article announcements",
		},
		[]string{"outcome"},
	)
)

// RecordFetch records an archive fetch.
func RecordFetch(strategy, outcome string, elapsed time.Duration) {
	ArchiveFetchTotal.WithLabelValues(strategy, outcome).Inc()
	ArchiveFetchDuration.WithLabelValues(strategy).Observe(elapsed.Seconds())
}

// RecordFallback records a remote failure served by synthetic data.
func RecordFallback(reason string) {
	ArchiveFallbackTotal.WithLabelValues(reason).Inc()
}

// RecordPageLoad records a controller page load.
func RecordPageLoad(kind, outcome string) {
	PageLoadTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordPoll records a poll and how many articles it merged.
func RecordPoll(outcome string, inserted int) {
	PollTotal.WithLabelValues(outcome).Inc()
	if inserted > 0 {
		PollInsertedTotal.Add(float64(inserted))
	}
}

// SetStoreArticles updates the store size gauge.
func SetStoreArticles(n int) {
	StoreArticles.Set(float64(n))
}

// RecordAnnounce records an announcement outcome.
func RecordAnnounce(outcome string) {
	AnnounceTotal.WithLabelValues(outcome).Inc()
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
