// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package optimize

import (
	"context"
	"math"

	"github.com/NaomiGonz/AICoffee-Machine/internal/brew"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/predict"
)

// Forward predicts flavor targets for raw rows. *predict.Predictor
// implements it.
type Forward interface {
	PredictTargets(ctx context.Context, rows []brew.Row, targets []string, policy predict.Policy) ([]predict.Outcome, error)
}

var _ Forward = (*predict.Predictor)(nil)

// Objective scores rows by the Euclidean distance of their predicted
// profile from the desired one, over the desired keys only. Predictions
// run under the neutral policy, so a target without a model counts as 5.
type Objective struct {
	desired brew.FlavorProfile
	targets []string
	forward Forward
}

// NewObjective creates an objective. desired must already be normalized.
func NewObjective(desired brew.FlavorProfile, forward Forward) *Objective {
	return &Objective{
		desired: desired.Clone(),
		targets: desired.Keys(),
		forward: forward,
	}
}

// Desired returns a copy of the desired profile.
func (o *Objective) Desired() brew.FlavorProfile {
	return o.desired.Clone()
}

// Distance scores a predicted profile.
func (o *Objective) Distance(predicted brew.FlavorProfile) float64 {
	return o.desired.Distance(predicted)
}

// Evaluate returns one distance per row. A row whose prediction failed
// scores NaN. The error reports failure of the whole batch.
func (o *Objective) Evaluate(ctx context.Context, rows []brew.Row) ([]float64, error) {
	out := make([]float64, len(rows))
	outcomes, err := o.forward.PredictTargets(ctx, rows, o.targets, predict.Neutral)
	if err != nil {
		for i := range out {
			out[i] = math.NaN()
		}
		return out, err
	}
	for i, oc := range outcomes {
		if oc.Err != nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = o.Distance(oc.Profile)
	}
	return out, nil
}

// EvaluateOne scores a single row, NaN on any failure.
//
//nolint:gocritic // row maps are shared, not copied
func (o *Objective) EvaluateOne(ctx context.Context, row brew.Row) float64 {
	d, err := o.Evaluate(ctx, []brew.Row{row})
	if err != nil {
		return math.NaN()
	}
	return d[0]
}
