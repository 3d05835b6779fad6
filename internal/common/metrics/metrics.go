package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	// StageFallbacks counts switches from the model tier to the rule tier.
	StageFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askbot_stage_fallbacks_total",
			Help: "Pipeline stages answered by the deterministic rule tier",
		},
		[]string{"stage", "reason"},
	)

	SynthesisOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askbot_synthesis_outcomes_total",
			Help: "Query synthesis results by outcome and source",
		},
		[]string{"outcome", "source"},
	)

	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askbot_cache_requests_total",
			Help: "Cache lookups by cache name and result",
		},
		[]string{"cache", "result"},
	)

	DictionaryRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askbot_dictionary_refreshes_total",
			Help: "Per-dictionary refresh results",
		},
		[]string{"dictionary", "status"},
	)

	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "askbot_llm_request_duration_seconds",
			Help:    "Language model call latency by template",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"template", "status"},
	)

	TrackerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askbot_tracker_requests_total",
			Help: "Tracker REST calls by operation and status",
		},
		[]string{"operation", "status"},
	)
)

// Cache result labels.
const (
	ResultHit   = "hit"
	ResultMiss  = "miss"
	ResultError = "error"
)
