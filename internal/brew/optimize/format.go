// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package optimize

import (
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew"
)

// Format prepares parameters for output: every tunable is clamped to its
// bound and rounded (temperature to 1 decimal, the rest to 2), the cup is
// snapped to a canonical volume and the grind size is reset to the
// machine constant.
//
//nolint:gocritic // value receiver keeps parameters immutable
func Format(p brew.BrewingParameters) brew.BrewingParameters {
	out := p
	out.Pressure = clampRound(brew.ColPressure, p.Pressure, 2)
	out.Temperature = clampRound(brew.ColTemperature, p.Temperature, 1)
	out.ExtractionTime = clampRound(brew.ColExtractionTime, p.ExtractionTime, 2)
	out.DoseSize = clampRound(brew.ColDoseSize, p.DoseSize, 2)
	out.CupSize = brew.SnapCupSize(p.CupSize)
	out.GroundSize = brew.GrindSize
	out.BeanBlend = p.BeanBlend.Clone()
	return out
}

// clampRound clamps, rounds and clamps again so rounding can never push a
// value past its bound.
func clampRound(col string, v float64, decimals int) float64 {
	b, _ := brew.Bound(col)
	return b.Clamp(brew.RoundHalfEven(b.Clamp(v), decimals))
}
