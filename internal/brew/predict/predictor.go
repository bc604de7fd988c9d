// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

// Package predict implements the forward model: brewing parameters in,
// predicted flavor profile out.
//
// A Predictor reads from one immutable registry snapshot. Every call
// selects a [Policy]. Strict fails with *brew.ModelNotTrainedError when a
// requested target has no model. Neutral substitutes brew.NeutralFlavor
// for that target so a search over many candidates is not aborted by one
// missing model. A non-finite prediction is a per-row failure under both
// policies and is reported in that row's [Outcome].
package predict

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/NaomiGonz/AICoffee-Machine/internal/brew"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/encoding"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/registry"
)

// Policy selects how a missing target model is handled.
type Policy int

const (
	// Strict propagates *brew.ModelNotTrainedError.
	Strict Policy = iota

	// Neutral substitutes brew.NeutralFlavor for the missing target.
	Neutral
)

func (p Policy) String() string {
	switch p {
	case Strict:
		return "strict"
	case Neutral:
		return "neutral"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// Outcome is the prediction for one row of a batch.
type Outcome struct {
	Profile brew.FlavorProfile
	Err     error
}

// Predictor predicts flavor profiles from a registry snapshot.
type Predictor struct {
	snap   *registry.Snapshot
	logger zerolog.Logger
}

// New creates a predictor over snap. A nil snapshot yields a predictor
// that reports every target as untrained.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(snap *registry.Snapshot, logger zerolog.Logger) *Predictor {
	return &Predictor{
		snap:   snap,
		logger: logger.With().Str("component", "predictor").Logger(),
	}
}

// Snapshot returns the snapshot the predictor reads from.
func (p *Predictor) Snapshot() *registry.Snapshot {
	return p.snap
}

// Predict returns the full flavor profile for one parameter set under the
// strict policy.
//
//nolint:gocritic // value receiver keeps parameters immutable
func (p *Predictor) Predict(ctx context.Context, params brew.BrewingParameters) (brew.FlavorProfile, error) {
	return p.PredictRow(ctx, params.Row(), Strict)
}

// PredictRow predicts every canonical target for one raw row.
//
//nolint:gocritic // row maps are shared, not copied
func (p *Predictor) PredictRow(ctx context.Context, row brew.Row, policy Policy) (brew.FlavorProfile, error) {
	out, err := p.PredictTargets(ctx, []brew.Row{row}, brew.Targets(), policy)
	if err != nil {
		return nil, err
	}
	return out[0].Profile, out[0].Err
}

// PredictBatch predicts every canonical target for each row.
func (p *Predictor) PredictBatch(ctx context.Context, rows []brew.Row, policy Policy) ([]Outcome, error) {
	return p.PredictTargets(ctx, rows, brew.Targets(), policy)
}

// PredictTargets predicts the named targets for each row. Rows are encoded
// once; each target's model then sees the batch aligned to its own feature
// order. The returned error covers failures of the whole batch: no
// snapshot, an encoding failure, a strict-policy missing model or a
// cancelled context.
func (p *Predictor) PredictTargets(ctx context.Context, rows []brew.Row, targets []string, policy Policy) ([]Outcome, error) {
	if p.snap == nil {
		target := brew.Acidity
		if len(targets) > 0 {
			target = targets[0]
		}
		return nil, &brew.ModelNotTrainedError{Target: target}
	}
	if len(rows) == 0 {
		return nil, nil
	}

	enc := p.snap.Encoder()
	if enc == nil {
		return nil, &brew.EncodingError{Column: "encoder", Reason: "snapshot has no encoder"}
	}
	encoded, err := enc.Encode(rows, encoding.ModeInference)
	if err != nil {
		return nil, err
	}

	out := make([]Outcome, len(rows))
	for i := range out {
		out[i].Profile = make(brew.FlavorProfile, len(targets))
	}

	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		model, err := p.snap.Get(ctx, target)
		if err != nil {
			if policy == Strict {
				return nil, err
			}
			p.logger.Debug().Err(err).Str("target", target).Msg("substituting neutral rating")
			for i := range out {
				out[i].Profile[target] = brew.NeutralFlavor
			}
			continue
		}

		X := encoding.NewAligner(encoded.Columns, model.Features).ApplyAll(encoded.X)
		for i, vec := range X {
			v := model.Regressor.Predict(vec)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				if out[i].Err == nil {
					out[i].Err = fmt.Errorf("%s prediction is not finite", target)
				}
				continue
			}
			out[i].Profile[target] = math.Max(brew.FlavorMin, math.Min(brew.FlavorMax, v))
		}
	}
	return out, nil
}
