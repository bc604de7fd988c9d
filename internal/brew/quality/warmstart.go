// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package quality

import (
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew"
)

// warmStartMove is the largest move from the midpoint, as a fraction of
// the parameter range.
const warmStartMove = 0.4

// flavorCorrelations are hand-tuned signs and strengths linking each
// tunable parameter to the flavor targets.
var flavorCorrelations = map[string]map[string]float64{
	brew.ColPressure: {
		brew.Acidity:    0.7,
		brew.Strength:   0.8,
		brew.Sweetness:  -0.3,
		brew.Fruitiness: 0.2,
	},
	brew.ColTemperature: {
		brew.Acidity:    0.8,
		brew.Fruitiness: 0.6,
		brew.Sweetness:  -0.5,
		brew.Strength:   0.4,
		brew.Bitterness: 0.7,
	},
	brew.ColExtractionTime: {
		brew.Strength:   0.7,
		brew.Bitterness: 0.6,
		brew.Acidity:    -0.4,
		brew.Fruitiness: -0.3,
	},
	brew.ColDoseSize: {
		brew.Strength:   0.8,
		brew.Bitterness: 0.5,
		brew.Sweetness:  -0.3,
		brew.Fruitiness: -0.2,
	},
}

// warmStartMidpoints are the starting values before adjustment.
var warmStartMidpoints = map[string]float64{
	brew.ColPressure:       5.5,
	brew.ColTemperature:    90.5,
	brew.ColExtractionTime: 30,
	brew.ColDoseSize:       20,
}

// SuggestWarmStart derives a starting point for the optimizer from the
// desired flavor alone. Each free parameter starts at its midpoint and
// moves by the average correlation-weighted deviation of the desired
// ratings from 5, up to 40% of its range. Ratings below 2 or above 8 count
// double. Fixed parameters are omitted from the result.
//
//nolint:gocritic // fixed passed by value is read-only
func SuggestWarmStart(desired brew.FlavorProfile, fixed brew.PartialBrewingParameters) map[string]float64 {
	desired = desired.Normalize()
	held := fixed.Fixed()

	out := make(map[string]float64, len(warmStartMidpoints))
	for _, param := range []string{brew.ColPressure, brew.ColTemperature, brew.ColExtractionTime, brew.ColDoseSize} {
		if _, ok := held[param]; ok {
			continue
		}
		value := warmStartMidpoints[param]

		var adjustment float64
		count := 0
		for _, flavor := range brew.Targets() {
			corr, ok := flavorCorrelations[param][flavor]
			if !ok {
				continue
			}
			v, ok := desired[flavor]
			if !ok {
				continue
			}
			norm := v / 10
			weight := 1.0
			if norm < 0.2 || norm > 0.8 {
				weight = 2
			}
			adjustment += corr * (norm - 0.5) * weight
			count++
		}

		bound, _ := brew.Bound(param)
		if count > 0 {
			adjustment /= float64(count)
			value = bound.Clamp(value + adjustment*bound.Width()*warmStartMove)
		}

		decimals := 2
		if param == brew.ColTemperature {
			decimals = 1
		}
		out[param] = brew.RoundHalfEven(value, decimals)
	}
	return out
}
