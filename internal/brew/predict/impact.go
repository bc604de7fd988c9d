// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package predict

import (
	"context"

	"github.com/NaomiGonz/AICoffee-Machine/internal/brew"
)

// DefaultImpactPoints is the number of values in a numeric sweep.
const DefaultImpactPoints = 20

// ImpactPoint is one step of a feature sweep. Category is set for
// categorical features, Value for numeric ones.
type ImpactPoint struct {
	Value      float64 `json:"value"`
	Category   string  `json:"category,omitempty"`
	Prediction float64 `json:"prediction"`
}

// ImpactRequest describes a sweep.
type ImpactRequest struct {
	Feature string
	Target  string

	// Range overrides the default sweep range of a numeric feature.
	Range *brew.Interval

	// Points is the number of numeric sweep values. Zero means
	// DefaultImpactPoints.
	Points int
}

// AnalyzeFeatureImpact sweeps one feature while every other feature is
// held at the training baseline (numeric means and categorical modes) and
// returns the predicted target at each step. Numeric features sweep Points
// evenly spaced values; categorical features sweep the fitted vocabulary
// without the unknown bucket. Predictions use the strict policy.
//
//nolint:gocritic // request passed by value is copied before use
func (p *Predictor) AnalyzeFeatureImpact(ctx context.Context, req ImpactRequest) ([]ImpactPoint, error) {
	target := brew.NormalizeCategory(req.Target)
	if target == brew.Maltiness {
		target = brew.Bitterness
	}
	if !brew.IsTarget(target) {
		return nil, brew.NewValidationError("target", "unknown flavor target %q", req.Target)
	}
	if p.snap == nil {
		return nil, &brew.ModelNotTrainedError{Target: target}
	}
	spec := p.snap.Encoder().Spec()
	feature := brew.NormalizeCategory(req.Feature)

	base := p.snap.Baseline()
	var rows []brew.Row
	var points []ImpactPoint

	switch {
	case contains(spec.Numeric, feature):
		values, err := sweepValues(feature, req.Range, req.Points)
		if err != nil {
			return nil, err
		}
		for _, v := range values {
			r := base.Clone()
			r.Numeric[feature] = v
			rows = append(rows, r)
			points = append(points, ImpactPoint{Value: v})
		}
	case contains(spec.Categorical, feature):
		if req.Range != nil {
			return nil, brew.NewValidationError("range", "range applies only to numeric features")
		}
		for _, cat := range p.snap.Encoder().Vocabulary(feature) {
			if cat == brew.UnknownCategory {
				continue
			}
			r := base.Clone()
			r.Categorical[feature] = cat
			rows = append(rows, r)
			points = append(points, ImpactPoint{Category: cat})
		}
		if len(rows) == 0 {
			return nil, &brew.EncodingError{Column: feature, Reason: "no fitted vocabulary"}
		}
	default:
		return nil, brew.NewValidationError("feature", "unknown feature %q", req.Feature)
	}

	outcomes, err := p.PredictTargets(ctx, rows, []string{target}, Strict)
	if err != nil {
		return nil, err
	}
	for i, o := range outcomes {
		if o.Err != nil {
			return nil, o.Err
		}
		points[i].Prediction = o.Profile[target]
	}
	return points, nil
}

// sweepValues returns n evenly spaced values over the requested or default
// range, endpoints included.
func sweepValues(feature string, rng *brew.Interval, n int) ([]float64, error) {
	if n <= 0 {
		n = DefaultImpactPoints
	}
	var r brew.Interval
	switch {
	case rng != nil:
		if rng.Min > rng.Max {
			return nil, brew.NewValidationError("range", "range min %v exceeds max %v", rng.Min, rng.Max)
		}
		r = *rng
	default:
		var ok bool
		if r, ok = brew.ImpactRange(feature); !ok {
			return nil, brew.NewValidationError("range", "no default range for %q; supply one", feature)
		}
	}
	if n == 1 || r.Width() == 0 {
		return []float64{r.Min}, nil
	}
	out := make([]float64, n)
	step := r.Width() / float64(n-1)
	for i := range out {
		out[i] = r.Min + float64(i)*step
	}
	out[n-1] = r.Max
	return out, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
