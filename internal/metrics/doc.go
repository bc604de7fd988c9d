// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

/*
Package metrics provides Prometheus metrics for the brewing service.

Collectors are package-level promauto values registered with the default
registry and exposed at /metrics:

	curl http://localhost:8080/metrics

# Available Metrics

Training:
  - brew_training_runs_total{status}
  - brew_training_duration_seconds
  - brew_training_samples
  - brew_target_cv_score{target,family}, brew_target_test_r2{target}
  - brew_registry_version, brew_registry_swaps_total{source}

Prediction and optimization:
  - brew_predict_requests_total{policy,outcome}
  - brew_suggest_duration_seconds{stage}
  - brew_suggest_degraded_total{reason}
  - brew_candidate_evaluations_total{outcome}
  - brew_blend_fallbacks_total
  - brew_suggestion_cache_hits_total, brew_suggestion_cache_misses_total

Storage and API:
  - duckdb_query_duration_seconds{operation}, duckdb_query_errors_total
  - circuit_breaker_state{name}
  - api_requests_total, api_request_duration_seconds, api_active_requests

Record* helpers keep label values consistent across call sites:

	metrics.RecordSuggestion(string(res.Stage), res.DegradedReason, res.Evaluated, res.Failed, res.Elapsed)
*/
package metrics
