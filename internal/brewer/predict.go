// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package brewer

import (
	"context"

	"github.com/NaomiGonz/AICoffee-Machine/internal/brew"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/predict"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/quality"
	"github.com/NaomiGonz/AICoffee-Machine/internal/metrics"
)

// predictor binds a predictor to the serving snapshot. The snapshot is
// read once so every model used by one request comes from the same
// training run.
func (e *Engine) predictor() *predict.Predictor {
	return predict.New(e.holder.Load(), e.logger)
}

// enrichRow adds the quality_cluster feature when the serving snapshot
// was trained with it.
//
//nolint:gocritic // row maps are shared, the caller owns them
func (e *Engine) enrichRow(p *predict.Predictor, row brew.Row) brew.Row {
	snap := p.Snapshot()
	if snap == nil || !snap.ClusterEnrichment() {
		return row
	}
	if c := e.clustering.Load(); c != nil {
		return c.EnrichRow(row)
	}
	row.Categorical[brew.ColQualityCluster] = quality.Label(0)
	return row
}

// PredictFlavorProfile predicts every flavor target for params. It fails
// with *brew.ModelNotTrainedError when any target has no model.
//
//nolint:gocritic // parameters passed by value are not mutated
func (e *Engine) PredictFlavorProfile(ctx context.Context, params brew.BrewingParameters) (brew.FlavorProfile, error) {
	p := e.predictor()
	profile, err := p.PredictRow(ctx, e.enrichRow(p, params.Row()), predict.Strict)
	metrics.RecordPredict(predict.Strict.String(), err)
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// ImpactRequest describes a feature impact sweep.
type ImpactRequest struct {
	Feature string
	Target  string
	Range   *brew.Interval
	Points  int
}

// ImpactResult is a feature impact sweep with the model version it came
// from.
type ImpactResult struct {
	Feature      string                `json:"feature"`
	Target       string                `json:"target"`
	ModelVersion int                   `json:"model_version"`
	Points       []predict.ImpactPoint `json:"points"`
}

// AnalyzeFeatureImpact sweeps one feature with every other feature held
// at the training baseline.
//
//nolint:gocritic // request passed by value is not mutated
func (e *Engine) AnalyzeFeatureImpact(ctx context.Context, req ImpactRequest) (*ImpactResult, error) {
	p := e.predictor()
	points, err := p.AnalyzeFeatureImpact(ctx, predict.ImpactRequest{
		Feature: req.Feature,
		Target:  req.Target,
		Range:   req.Range,
		Points:  req.Points,
	})
	metrics.RecordPredict("impact", err)
	if err != nil {
		return nil, err
	}
	target := brew.NormalizeCategory(req.Target)
	if target == brew.Maltiness {
		target = brew.Bitterness
	}
	return &ImpactResult{
		Feature:      brew.NormalizeCategory(req.Feature),
		Target:       target,
		ModelVersion: p.Snapshot().Version(),
		Points:       points,
	}, nil
}
