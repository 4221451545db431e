// Package observability provides Prometheus metrics and logging setup.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Engine metrics
	AnalysesTotal         *prometheus.CounterVec
	SignalsTotal          *prometheus.CounterVec
	AnalysesNotFound      prometheus.Counter
	AnalysisDuration      prometheus.Histogram
	SentimentReportsTotal *prometheus.CounterVec
	PostsFiltered         *prometheus.CounterVec

	// Cache metrics
	CacheLookups *prometheus.CounterVec

	// Upstream metrics
	UpstreamRequests *prometheus.CounterVec
	UpstreamLatency  *prometheus.HistogramVec
	BreakerState     *prometheus.GaugeVec

	// Watcher metrics
	WatcherMintsSeen  prometheus.Counter
	WatcherQueueDepth prometheus.Gauge

	// Journal and reporting metrics
	JournalWrites      *prometheus.CounterVec
	ReportsGenerated   prometheus.Counter
	LastReportUnixTime prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "token_sentinel"
	}

	return &Metrics{
		AnalysesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "risk",
			Name:      "analyses_total",
			Help:      "Total number of computed token analyses by risk level",
		}, []string{"risk_level"}),
		SignalsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "risk",
			Name:      "signals_total",
			Help:      "Total number of emitted trade signals by value",
		}, []string{"signal"}),
		AnalysesNotFound: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "risk",
			Name:      "analyses_not_found_total",
			Help:      "Total number of analyses for mints without trading pairs",
		}),
		AnalysisDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "risk",
			Name:      "analysis_duration_seconds",
			Help:      "Time spent fetching and scoring one mint",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		SentimentReportsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sentiment",
			Name:      "reports_total",
			Help:      "Total number of sentiment reports by status",
		}, []string{"status"}),
		PostsFiltered: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sentiment",
			Name:      "posts_filtered_total",
			Help:      "Total number of posts excluded from human aggregates by reason",
		}, []string{"reason"}),

		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups by cache name and result",
		}, []string{"cache", "result"}),

		UpstreamRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Upstream HTTP requests by source and outcome",
		}, []string{"source", "outcome"}),
		UpstreamLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Upstream request latency by source",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		BreakerState: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "breaker_state",
			Help:      "Circuit breaker state by source (0 closed, 1 half-open, 2 open)",
		}, []string{"source"}),

		WatcherMintsSeen: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "watch",
			Name:      "mints_seen_total",
			Help:      "Total number of newly created mints observed",
		}),
		WatcherQueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "watch",
			Name:      "queue_depth",
			Help:      "Mints waiting for analysis",
		}),

		JournalWrites: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "journal",
			Name:      "writes_total",
			Help:      "Journal writes by store and outcome",
		}, []string{"store", "outcome"}),
		ReportsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "generated_total",
			Help:      "Total number of reports generated",
		}),
		LastReportUnixTime: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "last_generated_timestamp",
			Help:      "Unix timestamp of the last generated report",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordAnalysis records one computed analysis.
func RecordAnalysis(riskLevel, signal string, d time.Duration) {
	DefaultMetrics.AnalysesTotal.WithLabelValues(riskLevel).Inc()
	DefaultMetrics.SignalsTotal.WithLabelValues(signal).Inc()
	DefaultMetrics.AnalysisDuration.Observe(d.Seconds())
}

// RecordAnalysisNotFound increments the not-found counter.
func RecordAnalysisNotFound() {
	DefaultMetrics.AnalysesNotFound.Inc()
}

// RecordSentimentReport records a sentiment report and its filtered post counts.
func RecordSentimentReport(status string, bots, duplicates int) {
	DefaultMetrics.SentimentReportsTotal.WithLabelValues(status).Inc()
	if bots > 0 {
		DefaultMetrics.PostsFiltered.WithLabelValues("bot").Add(float64(bots))
	}
	if duplicates > 0 {
		DefaultMetrics.PostsFiltered.WithLabelValues("duplicate").Add(float64(duplicates))
	}
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	DefaultMetrics.CacheLookups.WithLabelValues(cache, result).Inc()
}

// RecordUpstream records an upstream request outcome and latency.
func RecordUpstream(source, outcome string, d time.Duration) {
	DefaultMetrics.UpstreamRequests.WithLabelValues(source, outcome).Inc()
	DefaultMetrics.UpstreamLatency.WithLabelValues(source).Observe(d.Seconds())
}

// UpdateBreakerState sets the breaker gauge for a source.
func UpdateBreakerState(source string, state int) {
	DefaultMetrics.BreakerState.WithLabelValues(source).Set(float64(state))
}

// RecordMintSeen increments the watcher counter.
func RecordMintSeen() {
	DefaultMetrics.WatcherMintsSeen.Inc()
}

// UpdateWatcherQueue sets the watcher queue depth gauge.
func UpdateWatcherQueue(depth int) {
	DefaultMetrics.WatcherQueueDepth.Set(float64(depth))
}

// RecordJournalWrite records a journal write.
func RecordJournalWrite(store string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	DefaultMetrics.JournalWrites.WithLabelValues(store, outcome).Inc()
}

// RecordReportGenerated records a generated report.
func RecordReportGenerated(at time.Time) {
	DefaultMetrics.ReportsGenerated.Inc()
	DefaultMetrics.LastReportUnixTime.Set(float64(at.Unix()))
}
