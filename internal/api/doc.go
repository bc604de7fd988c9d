// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

/*
Package api provides the HTTP surface of the brewing engine.

Routes (chi):

	POST /api/v1/brew/train            train on uploaded samples, or on the sample log when none are given
	POST /api/v1/brew/retrain          queue a background retrain (202, rate limited)
	POST /api/v1/brew/predict          predict the flavor profile of brewing parameters
	POST /api/v1/brew/suggest          suggest parameters for a desired flavor
	POST /api/v1/brew/blend            optimize a bean blend
	GET  /api/v1/brew/impact           sweep one feature against one target
	POST /api/v1/brew/feedback         record a rated brew (201)
	GET  /api/v1/brew/clusters/{id}    quality cluster insights
	GET  /api/v1/brew/status           engine status
	GET  /api/v1/brew/samples[/{id}]   stored samples
	GET  /api/v1/brew/suggestions[/{id}] issued suggestions
	GET  /api/v1/health/live           liveness
	GET  /api/v1/health/ready          readiness
	GET  /metrics                      Prometheus

Every JSON response uses the APIResponse envelope:

	{
	  "success": true,
	  "data": {...},
	  "meta": {"request_id": "...", "timestamp": "...", "duration_ms": 3}
	}

Errors carry a machine-readable code:

	400 VALIDATION_FAILED     malformed input, with per-field details
	404 NOT_FOUND             unknown suggestion, sample or route
	409 TRAINING_IN_PROGRESS  a training run is already active
	409 ALREADY_RATED         feedback for a suggestion that was rated
	422 INSUFFICIENT_DATA     too few samples to train
	429 TOO_MANY_REQUESTS     per-IP rate limit or retrain trigger limit
	503 MODEL_NOT_TRAINED     prediction before any model was published
*/
package api
