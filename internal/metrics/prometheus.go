package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpulse_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"}, // status: success|error
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marketpulse_worker_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"worker"},
	)

	WorkerLastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "marketpulse_worker_last_run_timestamp",
			Help: "Unix timestamp of last worker execution",
		},
		[]string{"worker"},
	)

	// Scoring metrics
	PostsScored = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpulse_posts_scored_total",
			Help: "Posts run through the sentiment aggregator",
		},
		[]string{"status"}, // status: success|error
	)

	ScorerCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpulse_scorer_calls_total",
			Help: "Text polarity scorer invocations",
		},
		[]string{"provider", "status"},
	)

	ScorerLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marketpulse_scorer_latency_seconds",
			Help:    "Text polarity scorer latency in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"provider"},
	)

	CacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpulse_cache_requests_total",
			Help: "Cache lookups by result",
		},
		[]string{"cache", "result"}, // result: hit|miss|error
	)

	// Analysis metrics
	AnalysisRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpulse_analysis_runs_total",
			Help: "Completed fusion analyses",
		},
		[]string{"ticker", "status"},
	)

	AnalysisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marketpulse_analysis_duration_seconds",
			Help:    "End-to-end analysis latency in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"ticker"},
	)

	SignalsEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpulse_signals_emitted_total",
			Help: "Actionable fused records by action",
		},
		[]string{"ticker", "action"},
	)

	CompositeScore = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "marketpulse_composite_fear_greed",
			Help: "Latest composite fear/greed score (0 fear, 100 greed)",
		},
	)

	// Database metrics
	DBQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpulse_db_queries_total",
			Help: "Total database queries",
		},
		[]string{"database", "operation", "status"},
	)

	DBQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marketpulse_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"database", "operation"},
	)

	KafkaMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpulse_kafka_messages_total",
			Help: "Kafka messages produced",
		},
		[]string{"topic", "status"},
	)
)

var registerOnce sync.Once

// Init registers all metrics with Prometheus. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			WorkerExecutions, WorkerDuration, WorkerLastRun,
			PostsScored, ScorerCalls, ScorerLatency, CacheRequests,
			AnalysisRuns, AnalysisDuration, SignalsEmitted, CompositeScore,
			DBQueries, DBQueryDuration, KafkaMessages,
		)
	})
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordWorkerExecution records a worker execution
func RecordWorkerExecution(worker string, duration time.Duration, err error) {
	WorkerExecutions.WithLabelValues(worker, status(err)).Inc()
	WorkerDuration.WithLabelValues(worker).Observe(duration.Seconds())
	WorkerLastRun.WithLabelValues(worker).SetToCurrentTime()
}

// RecordPostScored records one aggregator outcome
func RecordPostScored(err error) {
	PostsScored.WithLabelValues(status(err)).Inc()
}

// RecordScorerCall records a polarity scorer call
func RecordScorerCall(provider string, latency time.Duration, err error) {
	ScorerCalls.WithLabelValues(provider, status(err)).Inc()
	ScorerLatency.WithLabelValues(provider).Observe(latency.Seconds())
}

// RecordCache records a cache lookup result (hit|miss|error)
func RecordCache(cache, result string) {
	CacheRequests.WithLabelValues(cache, result).Inc()
}

// RecordAnalysis records a finished analysis
func RecordAnalysis(ticker string, duration time.Duration, err error) {
	AnalysisRuns.WithLabelValues(ticker, status(err)).Inc()
	if err == nil {
		AnalysisDuration.WithLabelValues(ticker).Observe(duration.Seconds())
	}
}

// RecordSignal counts an actionable record
func RecordSignal(ticker, action string) {
	SignalsEmitted.WithLabelValues(ticker, action).Inc()
}

// RecordDBQuery records a database query
func RecordDBQuery(database, operation string, duration time.Duration, err error) {
	DBQueries.WithLabelValues(database, operation, status(err)).Inc()
	DBQueryDuration.WithLabelValues(database, operation).Observe(duration.Seconds())
}

// RecordKafkaMessages records produced messages
func RecordKafkaMessages(topic string, n int, err error) {
	KafkaMessages.WithLabelValues(topic, status(err)).Add(float64(n))
}
