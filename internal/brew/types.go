// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package brew

import (
	"math"
	"sort"
	"strings"
	"time"
)

// FlavorProfile maps flavor target names to ratings on the 0-10 scale.
type FlavorProfile map[string]float64

// Normalize returns a copy with lower-cased, trimmed keys and the legacy
// maltiness key rewritten to bitterness. An explicit bitterness value wins
// over maltiness when both are present.
func (p FlavorProfile) Normalize() FlavorProfile {
	out := make(FlavorProfile, len(p))
	var malt *float64
	for k, v := range p {
		key := strings.ToLower(strings.TrimSpace(k))
		if key == Maltiness {
			v := v
			malt = &v
			continue
		}
		out[key] = v
	}
	if _, ok := out[Bitterness]; !ok && malt != nil {
		out[Bitterness] = *malt
	}
	return out
}

// Keys returns the profile keys in sorted order.
func (p FlavorProfile) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Distance returns the Euclidean distance between p and predicted over the
// keys of p that predicted also carries. It returns +Inf when no key is
// shared.
func (p FlavorProfile) Distance(predicted FlavorProfile) float64 {
	var sum float64
	shared := 0
	for _, k := range p.Keys() {
		want := p[k]
		got, ok := predicted[k]
		if !ok {
			continue
		}
		d := got - want
		sum += d * d
		shared++
	}
	if shared == 0 {
		return math.Inf(1)
	}
	return math.Sqrt(sum)
}

// Clone returns a copy of the profile.
func (p FlavorProfile) Clone() FlavorProfile {
	if p == nil {
		return nil
	}
	out := make(FlavorProfile, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// BeanBlend maps bean type names to integer percentages summing to 100.
type BeanBlend map[string]int

// Sum returns the total percentage.
func (b BeanBlend) Sum() int {
	total := 0
	for _, pct := range b {
		total += pct
	}
	return total
}

// Valid reports whether the blend has at least one bean, every entry is
// positive and the entries sum to exactly 100.
func (b BeanBlend) Valid() bool {
	if len(b) == 0 {
		return false
	}
	for _, pct := range b {
		if pct <= 0 {
			return false
		}
	}
	return b.Sum() == 100
}

// Primary returns the bean with the highest share. Ties resolve to the
// lexically smallest name.
func (b BeanBlend) Primary() string {
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	sort.Strings(names)

	best, bestPct := "", -1
	for _, name := range names {
		if b[name] > bestPct {
			best, bestPct = name, b[name]
		}
	}
	return best
}

// Clone returns a copy of the blend.
func (b BeanBlend) Clone() BeanBlend {
	if b == nil {
		return nil
	}
	out := make(BeanBlend, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// EqualSplit divides 100 percent evenly across beans. The remainder of the
// integer division goes to the first bean.
func EqualSplit(beans []string) BeanBlend {
	if len(beans) == 0 {
		return nil
	}
	share := 100 / len(beans)
	out := make(BeanBlend, len(beans))
	for _, bean := range beans {
		out[bean] = share
	}
	out[beans[0]] += 100 - share*len(beans)
	return out
}

// PrimaryInOrder returns the bean with the highest share, resolving ties
// by position in beans.
func PrimaryInOrder(beans []string, blend BeanBlend) string {
	best, bestPct := "", 0
	for _, bean := range beans {
		if pct := blend[bean]; pct > bestPct {
			best, bestPct = bean, pct
		}
	}
	return best
}

// BrewingParameters is a complete parameter set for one brew.
//
// The optional metadata fields describe the beans and feed categorical
// features. They are never produced by the optimizer.
type BrewingParameters struct {
	Pressure       float64   `json:"extraction_pressure"`
	Temperature    float64   `json:"temperature"`
	GroundSize     float64   `json:"ground_size"`
	ExtractionTime float64   `json:"extraction_time"`
	DoseSize       float64   `json:"dose_size"`
	CupSize        float64   `json:"cup_size"`
	BeanType       string    `json:"bean_type"`
	BeanBlend      BeanBlend `json:"bean_blend,omitempty"`

	ProcessingMethod string `json:"processing_method,omitempty"`
	Color            string `json:"color,omitempty"`
	Country          string `json:"country_of_origin,omitempty"`
	Region           string `json:"region,omitempty"`
}

// Row converts the parameters into a raw feature row. Zero numeric fields
// and empty strings are treated as absent.
//
//nolint:gocritic // value receiver keeps parameters immutable
func (p BrewingParameters) Row() Row {
	r := NewRow()
	setNum := func(col string, v float64) {
		if v != 0 {
			r.Numeric[col] = v
		}
	}
	setNum(ColPressure, p.Pressure)
	setNum(ColTemperature, p.Temperature)
	setNum(ColGroundSize, p.GroundSize)
	setNum(ColExtractionTime, p.ExtractionTime)
	setNum(ColDoseSize, p.DoseSize)
	setNum(ColCupSize, p.CupSize)

	beanType := p.BeanType
	if beanType == "" && len(p.BeanBlend) > 0 {
		beanType = p.BeanBlend.Primary()
	}
	r.SetCategory(ColBeanType, beanType)
	r.SetCategory(ColProcessingMethod, p.ProcessingMethod)
	r.SetCategory(ColColor, p.Color)
	r.SetCategory(ColCountry, p.Country)
	r.SetCategory(ColRegion, p.Region)
	return r
}

// ParametersFromRow is the inverse of BrewingParameters.Row.
func ParametersFromRow(r Row) BrewingParameters {
	return BrewingParameters{
		Pressure:         r.Numeric[ColPressure],
		Temperature:      r.Numeric[ColTemperature],
		GroundSize:       r.Numeric[ColGroundSize],
		ExtractionTime:   r.Numeric[ColExtractionTime],
		DoseSize:         r.Numeric[ColDoseSize],
		CupSize:          r.Numeric[ColCupSize],
		BeanType:         r.Categorical[ColBeanType],
		ProcessingMethod: r.Categorical[ColProcessingMethod],
		Color:            r.Categorical[ColColor],
		Country:          r.Categorical[ColCountry],
		Region:           r.Categorical[ColRegion],
	}
}

// PartialBrewingParameters carries the parameters a caller wants held fixed
// during optimization. Nil pointers and empty strings are free.
type PartialBrewingParameters struct {
	Pressure       *float64  `json:"extraction_pressure,omitempty" validate:"omitempty,gte=1,lte=10"`
	Temperature    *float64  `json:"temperature,omitempty" validate:"omitempty,gte=85,lte=96"`
	ExtractionTime *float64  `json:"extraction_time,omitempty" validate:"omitempty,gte=20,lte=40"`
	DoseSize       *float64  `json:"dose_size,omitempty" validate:"omitempty,gte=15,lte=25"`
	CupSize        string    `json:"cup_size,omitempty" validate:"omitempty,oneof=small medium large"`
	BeanType       string    `json:"bean_type,omitempty" validate:"omitempty,max=64"`
	BeanBlend      BeanBlend `json:"bean_blend,omitempty"`

	ProcessingMethod string `json:"processing_method,omitempty" validate:"omitempty,max=64"`
	Color            string `json:"color,omitempty" validate:"omitempty,max=64"`
	Country          string `json:"country_of_origin,omitempty" validate:"omitempty,max=64"`
	Region           string `json:"region,omitempty" validate:"omitempty,max=128"`
}

// Fixed returns the numeric parameters held fixed, keyed by column name.
//
//nolint:gocritic // value receiver keeps parameters immutable
func (p PartialBrewingParameters) Fixed() map[string]float64 {
	out := make(map[string]float64, 4)
	if p.Pressure != nil {
		out[ColPressure] = *p.Pressure
	}
	if p.Temperature != nil {
		out[ColTemperature] = *p.Temperature
	}
	if p.ExtractionTime != nil {
		out[ColExtractionTime] = *p.ExtractionTime
	}
	if p.DoseSize != nil {
		out[ColDoseSize] = *p.DoseSize
	}
	return out
}

// CupVolume returns the fixed cup volume, or the medium cup when unset.
//
//nolint:gocritic // value receiver keeps parameters immutable
func (p PartialBrewingParameters) CupVolume() float64 {
	if v, ok := CupVolume(p.CupSize); ok {
		return v
	}
	return cupSizes[CupMedium]
}

// Metadata returns the fixed categorical bean metadata as a raw row.
//
//nolint:gocritic // value receiver keeps parameters immutable
func (p PartialBrewingParameters) Metadata() map[string]string {
	out := make(map[string]string, 4)
	set := func(col, v string) {
		if v = NormalizeCategory(v); v != "" {
			out[col] = v
		}
	}
	set(ColProcessingMethod, p.ProcessingMethod)
	set(ColColor, p.Color)
	set(ColCountry, p.Country)
	set(ColRegion, p.Region)
	return out
}

// BrewingSample is one recorded brew with its rated flavor outcome.
type BrewingSample struct {
	ID           string            `json:"id"`
	Parameters   BrewingParameters `json:"parameters"`
	Ratings      FlavorProfile     `json:"ratings"`
	SuggestionID string            `json:"suggestion_id,omitempty"`
	RecordedAt   time.Time         `json:"recorded_at"`
}

// Row converts the sample into a raw feature row carrying its ratings as
// targets. The legacy maltiness rating is mapped onto bitterness.
//
//nolint:gocritic // value receiver keeps samples immutable
func (s BrewingSample) Row() Row {
	r := s.Parameters.Row()
	for k, v := range s.Ratings.Normalize() {
		if IsTarget(k) && !math.IsNaN(v) {
			r.Targets[k] = v
		}
	}
	return r
}

// Row is a raw, unencoded feature row. Absent keys are missing values.
type Row struct {
	Numeric     map[string]float64
	Categorical map[string]string
	Targets     map[string]float64
}

// NewRow returns an empty row with allocated maps.
func NewRow() Row {
	return Row{
		Numeric:     make(map[string]float64),
		Categorical: make(map[string]string),
		Targets:     make(map[string]float64),
	}
}

// SetCategory stores a normalized categorical value. Empty values are
// skipped so they stay missing.
func (r Row) SetCategory(col, v string) {
	if v = NormalizeCategory(v); v != "" {
		r.Categorical[col] = v
	}
}

// Clone returns a deep copy of the row.
func (r Row) Clone() Row {
	out := Row{
		Numeric:     make(map[string]float64, len(r.Numeric)),
		Categorical: make(map[string]string, len(r.Categorical)),
		Targets:     make(map[string]float64, len(r.Targets)),
	}
	for k, v := range r.Numeric {
		out.Numeric[k] = v
	}
	for k, v := range r.Categorical {
		out.Categorical[k] = v
	}
	for k, v := range r.Targets {
		out.Targets[k] = v
	}
	return out
}

// NormalizeCategory lower-cases and trims a categorical value.
func NormalizeCategory(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// RoundHalfEven rounds v to the given number of decimals, resolving ties
// to the even neighbour.
func RoundHalfEven(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.RoundToEven(v*scale) / scale
}
