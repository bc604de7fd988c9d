// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

// Package brewtest generates deterministic synthetic brewing data for tests.
//
// Ratings come from a known smooth function of the parameters so trained
// models have a learnable signal and optimizer tests have a reachable
// optimum.
package brewtest

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/NaomiGonz/AICoffee-Machine/internal/brew"
)

// Epoch is the timestamp of the first generated sample.
var Epoch = time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)

var processingMethods = []string{"washed", "natural", "honey"}

// Truth returns the noiseless flavor profile for a parameter set.
//
//nolint:gocritic // value receiver mirrors brew.BrewingParameters usage
func Truth(p brew.BrewingParameters) brew.FlavorProfile {
	tempN := (p.Temperature - 85) / 11
	pressN := (p.Pressure - 1) / 9
	timeN := (p.ExtractionTime - 20) / 20
	doseN := (p.DoseSize - 15) / 10

	var robusta, ethiopian float64
	switch p.BeanType {
	case "robusta":
		robusta = 1
	case "ethiopian":
		ethiopian = 1
	}

	clip := func(v float64) float64 { return math.Max(0, math.Min(10, v)) }
	return brew.FlavorProfile{
		brew.Acidity:    clip(2 + 5*tempN - 2*timeN + 1.5*ethiopian - robusta),
		brew.Strength:   clip(2 + 3*pressN + 3*doseN + 2*timeN + 1.5*robusta),
		brew.Sweetness:  clip(6 - 3*tempN + timeN - 1.5*robusta + 0.5*ethiopian),
		brew.Fruitiness: clip(3 + 2*tempN - 1.5*pressN + 2.5*ethiopian),
		brew.Bitterness: clip(1 + 9*(p.Temperature-brew.TempPriorLow)/(brew.TempPriorHigh-brew.TempPriorLow) + robusta),
	}
}

// RandomParameters draws a parameter set uniformly within the physical bounds.
func RandomParameters(rng *rand.Rand) brew.BrewingParameters {
	draw := func(col string) float64 {
		b, _ := brew.Bound(col)
		return b.Min + rng.Float64()*b.Width()
	}
	beans := brew.AvailableBeans()
	cups := []string{brew.CupSmall, brew.CupMedium, brew.CupLarge}
	cup, _ := brew.CupVolume(cups[rng.Intn(len(cups))])

	return brew.BrewingParameters{
		Pressure:         draw(brew.ColPressure),
		Temperature:      draw(brew.ColTemperature),
		GroundSize:       brew.GrindSize,
		ExtractionTime:   draw(brew.ColExtractionTime),
		DoseSize:         draw(brew.ColDoseSize),
		CupSize:          cup,
		BeanType:         beans[rng.Intn(len(beans))],
		ProcessingMethod: processingMethods[rng.Intn(len(processingMethods))],
	}
}

// Samples returns n rated samples. Ratings carry Gaussian noise with the
// given standard deviation and are clipped to the rating scale.
func Samples(n int, seed int64, noise float64) []brew.BrewingSample {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic test data
	out := make([]brew.BrewingSample, n)
	for i := range out {
		p := RandomParameters(rng)
		ratings := Truth(p)
		for k, v := range ratings {
			ratings[k] = math.Max(0, math.Min(10, v+rng.NormFloat64()*noise))
		}
		out[i] = brew.BrewingSample{
			ID:         fmt.Sprintf("sample-%04d", i),
			Parameters: p,
			Ratings:    ratings,
			RecordedAt: Epoch.Add(time.Duration(i) * time.Minute),
		}
	}
	return out
}

// Rows converts samples into raw feature rows.
func Rows(samples []brew.BrewingSample) []brew.Row {
	rows := make([]brew.Row, len(samples))
	for i := range samples {
		rows[i] = samples[i].Row()
	}
	return rows
}
