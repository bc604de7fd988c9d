// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

// Package brew defines the shared vocabulary of the brewing core.
//
// Every other package speaks in terms of the types declared here: flavor
// profiles on the 0-10 scale, complete and partial brewing parameter sets,
// bean blends expressed as integer percentages, and the raw feature rows that
// flow into the encoder.
//
// # Canonical Constants
//
// Cup sizes, the coffee-to-water ratio, the grind size and the physical
// parameter bounds live in this package so that training, prediction and
// optimization agree on them. They are recorded in the artifact manifest at
// training time.
//
// # Errors
//
// The typed errors ([ValidationError], [InsufficientDataError],
// [ModelNotTrainedError], [EncodingError]) each match a sentinel via
// errors.Is so callers can branch on the failure class without type
// assertions:
//
//	if errors.Is(err, brew.ErrModelNotTrained) {
//	    // surface 503 to the caller
//	}
package brew
