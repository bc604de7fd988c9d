// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package brew

import (
	"math"
	"sort"
)

// Flavor target names.
const (
	Acidity    = "acidity"
	Strength   = "strength"
	Sweetness  = "sweetness"
	Fruitiness = "fruitiness"
	Bitterness = "bitterness"

	// Maltiness is the legacy name for Bitterness. It is accepted on input
	// and rewritten by FlavorProfile.Normalize.
	Maltiness = "maltiness"
)

// Raw feature column names.
const (
	ColPressure         = "extraction_pressure"
	ColTemperature      = "temperature"
	ColGroundSize       = "ground_size"
	ColExtractionTime   = "extraction_time"
	ColDoseSize         = "dose_size"
	ColCupSize          = "cup_size"
	ColBeanType         = "bean_type"
	ColProcessingMethod = "processing_method"
	ColColor            = "color"
	ColCountry          = "country_of_origin"
	ColRegion           = "region"
	ColQualityCluster   = "quality_cluster"
)

// Cup size names.
const (
	CupSmall  = "small"
	CupMedium = "medium"
	CupLarge  = "large"
)

const (
	// DefaultRatio is the coffee-to-water ratio (grams of water per gram of coffee).
	DefaultRatio = 15.0

	// GrindSize is the grind size in microns. The machine cannot vary it.
	GrindSize = 400.0

	// DefaultBean is used whenever no bean type is fixed or searched.
	DefaultBean = "arabica"

	// FlavorMin and FlavorMax bound every flavor rating.
	FlavorMin = 0.0
	FlavorMax = 10.0

	// NeutralFlavor is substituted for a target without a trained model
	// when predictions run under the neutral policy.
	NeutralFlavor = 5.0

	// UnknownCategory is the bucket for explicitly unknown categorical values.
	UnknownCategory = "unknown"
)

// Degraded defaults returned when the optimizer cannot produce a candidate.
const (
	FallbackPressure       = 7.0
	FallbackTemperature    = 93.0
	FallbackExtractionTime = 30.0
)

// Temperature prior endpoints: bitterness 1 maps to TempPriorLow and
// bitterness 10 maps to TempPriorHigh.
const (
	TempPriorLow  = 87.0
	TempPriorHigh = 95.0
)

// Interval is a closed numeric range.
type Interval struct {
	Min float64 `json:"min" koanf:"min"`
	Max float64 `json:"max" koanf:"max"`
}

// Width returns Max-Min.
func (i Interval) Width() float64 {
	return i.Max - i.Min
}

// Clamp limits v to the interval.
func (i Interval) Clamp(v float64) float64 {
	return math.Max(i.Min, math.Min(i.Max, v))
}

// Contains reports whether v lies within the interval.
func (i Interval) Contains(v float64) bool {
	return v >= i.Min && v <= i.Max
}

// Intersect returns the overlap of two intervals and whether it is non-empty.
func (i Interval) Intersect(o Interval) (Interval, bool) {
	out := Interval{Min: math.Max(i.Min, o.Min), Max: math.Min(i.Max, o.Max)}
	return out, out.Min <= out.Max
}

var (
	targets = []string{Acidity, Strength, Sweetness, Fruitiness, Bitterness}

	numericColumns = []string{
		ColPressure, ColTemperature, ColGroundSize,
		ColExtractionTime, ColDoseSize, ColCupSize,
	}

	categoricalColumns = []string{
		ColBeanType, ColProcessingMethod, ColColor, ColCountry, ColRegion,
	}

	// Physical bounds enforced on every emitted recommendation.
	bounds = map[string]Interval{
		ColPressure:       {Min: 1, Max: 10},
		ColTemperature:    {Min: 85, Max: 96},
		ColExtractionTime: {Min: 20, Max: 40},
		ColDoseSize:       {Min: 15, Max: 25},
	}

	// Sweep ranges for feature impact analysis. Ground size is included
	// here even though the optimizer holds it constant.
	impactRanges = map[string]Interval{
		ColPressure:       {Min: 1, Max: 10},
		ColTemperature:    {Min: 85, Max: 96},
		ColGroundSize:     {Min: 100, Max: 1000},
		ColExtractionTime: {Min: 20, Max: 40},
		ColDoseSize:       {Min: 15, Max: 25},
		ColCupSize:        {Min: 89, Max: 354.882},
	}

	cupSizes = map[string]float64{
		CupSmall:  89.0,
		CupMedium: 236.588,
		CupLarge:  354.882,
	}

	availableBeans = []string{"arabica", "robusta", "ethiopian"}
)

// Targets returns the flavor targets in canonical order.
func Targets() []string {
	return append([]string(nil), targets...)
}

// IsTarget reports whether name is a canonical flavor target.
func IsTarget(name string) bool {
	for _, t := range targets {
		if t == name {
			return true
		}
	}
	return false
}

// NumericColumns returns the raw numeric feature columns in canonical order.
func NumericColumns() []string {
	return append([]string(nil), numericColumns...)
}

// CategoricalColumns returns the raw categorical feature columns in
// canonical order. The quality cluster column is not included; callers add
// it when cluster enrichment is enabled.
func CategoricalColumns() []string {
	return append([]string(nil), categoricalColumns...)
}

// Bound returns the physical bound for a tunable parameter.
func Bound(column string) (Interval, bool) {
	b, ok := bounds[column]
	return b, ok
}

// ImpactRange returns the default sweep range for a numeric feature.
func ImpactRange(column string) (Interval, bool) {
	r, ok := impactRanges[column]
	return r, ok
}

// CupSizes returns a copy of the canonical cup volumes in milliliters.
func CupSizes() map[string]float64 {
	out := make(map[string]float64, len(cupSizes))
	for k, v := range cupSizes {
		out[k] = v
	}
	return out
}

// CupVolume returns the volume for a named cup size.
func CupVolume(name string) (float64, bool) {
	v, ok := cupSizes[name]
	return v, ok
}

// CupName returns the cup size name whose volume is closest to v.
func CupName(v float64) string {
	names := make([]string, 0, len(cupSizes))
	for name := range cupSizes {
		names = append(names, name)
	}
	sort.Strings(names)

	best, bestDiff := CupMedium, math.Inf(1)
	for _, name := range names {
		if d := math.Abs(cupSizes[name] - v); d < bestDiff {
			best, bestDiff = name, d
		}
	}
	return best
}

// SnapCupSize returns the canonical cup volume nearest to v.
func SnapCupSize(v float64) float64 {
	return cupSizes[CupName(v)]
}

// AvailableBeans returns the bean types the machine can load.
func AvailableBeans() []string {
	return append([]string(nil), availableBeans...)
}

// TemperaturePrior maps a desired bitterness rating onto a brew temperature
// along the line through (1, 87) and (10, 95). Ratings below 1 extend the
// line; callers intersect the result with the temperature bound.
func TemperaturePrior(bitterness float64) float64 {
	return TempPriorLow + (bitterness-1)*(TempPriorHigh-TempPriorLow)/9
}

// DoseForCup returns the dose implied by a cup volume and ratio, clamped to
// the dose bound.
func DoseForCup(cupVolume, ratio float64) float64 {
	if ratio <= 0 {
		ratio = DefaultRatio
	}
	return bounds[ColDoseSize].Clamp(cupVolume / ratio)
}

// DoseWindow returns the dose range that follows the cup size: 0.8 to 1.2
// times the ratio-implied dose, intersected with the dose bound.
func DoseWindow(cupVolume, ratio float64) Interval {
	if ratio <= 0 {
		ratio = DefaultRatio
	}
	base := cupVolume / ratio
	w, ok := Interval{Min: base * 0.8, Max: base * 1.2}.Intersect(bounds[ColDoseSize])
	if !ok {
		d := DoseForCup(cupVolume, ratio)
		return Interval{Min: d, Max: d}
	}
	return w
}
