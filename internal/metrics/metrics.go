// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Training Metrics
	TrainingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brew_training_runs_total",
			Help: "Total number of training runs by outcome",
		},
		[]string{"status"}, // "trained", "insufficient_data", "failed"
	)

	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "brew_training_duration_seconds",
			Help:    "Duration of training runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	TrainingSamples = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "brew_training_samples",
			Help: "Number of samples used by the last completed training run",
		},
	)

	TargetCVScore = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "brew_target_cv_score",
			Help: "Best cross-validation score (negative MSE) per target",
		},
		[]string{"target", "family"},
	)

	TargetTestR2 = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "brew_target_test_r2",
			Help: "Held-out R squared per target",
		},
		[]string{"target"},
	)

	RegistryVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "brew_registry_version",
			Help: "Version of the model registry currently serving predictions",
		},
	)

	RegistrySwaps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brew_registry_swaps_total",
			Help: "Total number of registry swaps by source",
		},
		[]string{"source"}, // "train", "reload"
	)

	// Prediction Metrics
	PredictRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brew_predict_requests_total",
			Help: "Total number of flavor predictions by policy and outcome",
		},
		[]string{"policy", "outcome"},
	)

	// Optimizer Metrics
	SuggestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "brew_suggest_duration_seconds",
			Help:    "Duration of brewing parameter suggestions in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"stage"},
	)

	SuggestDegraded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brew_suggest_degraded_total",
			Help: "Total number of suggestions that fell back to defaults",
		},
		[]string{"reason"},
	)

	CandidateEvaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brew_candidate_evaluations_total",
			Help: "Total number of global search candidates scored",
		},
		[]string{"outcome"}, // "ok", "failed"
	)

	BlendFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "brew_blend_fallbacks_total",
			Help: "Total number of blend optimizations that fell back to an equal split",
		},
	)

	// Feedback Metrics
	FeedbackRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brew_feedback_recorded_total",
			Help: "Total number of brewing ratings recorded",
		},
		[]string{"source"}, // "suggestion", "parameters"
	)

	// Cache Metrics
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "brew_suggestion_cache_hits_total",
			Help: "Total number of suggestion cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "brew_suggestion_cache_misses_total",
			Help: "Total number of suggestion cache misses",
		},
	)

	// Sample Store Metrics
	SampleQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	SampleQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "error_type"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)
)

// RecordTraining records a completed training run.
func RecordTraining(status string, samples int, duration time.Duration) {
	TrainingRuns.WithLabelValues(status).Inc()
	TrainingDuration.Observe(duration.Seconds())
	if status == "trained" {
		TrainingSamples.Set(float64(samples))
	}
}

// RecordTargetMetrics records per-target quality of a trained model.
func RecordTargetMetrics(target, family string, cvScore, r2 float64) {
	TargetCVScore.WithLabelValues(target, family).Set(cvScore)
	TargetTestR2.WithLabelValues(target).Set(r2)
}

// RecordRegistrySwap records a new registry version going live.
func RecordRegistrySwap(source string, version int) {
	RegistrySwaps.WithLabelValues(source).Inc()
	RegistryVersion.Set(float64(version))
}

// RecordPredict records a prediction call.
func RecordPredict(policy string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	PredictRequests.WithLabelValues(policy, outcome).Inc()
}

// RecordSuggestion records a finished suggestion.
func RecordSuggestion(stage string, degradedReason string, evaluated, failed int, duration time.Duration) {
	SuggestDuration.WithLabelValues(stage).Observe(duration.Seconds())
	if degradedReason != "" {
		SuggestDegraded.WithLabelValues(degradedReason).Inc()
	}
	CandidateEvaluations.WithLabelValues("ok").Add(float64(evaluated))
	CandidateEvaluations.WithLabelValues("failed").Add(float64(failed))
}

// RecordCacheLookup records a suggestion cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		CacheHits.Inc()
	} else {
		CacheMisses.Inc()
	}
}

// RecordSampleQuery records a DuckDB sample store query.
func RecordSampleQuery(operation string, duration time.Duration, err error) {
	SampleQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		SampleQueryErrors.WithLabelValues(operation, errorType).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// ErrorType buckets an error message into a low-cardinality label.
func ErrorType(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "duckdb"), strings.Contains(msg, "database"):
		return "database"
	case strings.Contains(msg, "circuit breaker"):
		return "circuit_open"
	case strings.Contains(msg, "context deadline"):
		return "timeout"
	default:
		return "other"
	}
}
