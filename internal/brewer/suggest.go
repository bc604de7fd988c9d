// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package brewer

import (
	"context"
	"math"
	"time"

	"github.com/NaomiGonz/AICoffee-Machine/internal/brew"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/optimize"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/predict"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/quality"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/registry"
	"github.com/NaomiGonz/AICoffee-Machine/internal/cache"
	"github.com/NaomiGonz/AICoffee-Machine/internal/logging"
	"github.com/NaomiGonz/AICoffee-Machine/internal/metrics"
	"github.com/NaomiGonz/AICoffee-Machine/internal/suggestions"
)

// SuggestRequest asks for brewing parameters that produce a flavor.
type SuggestRequest struct {
	Desired  brew.FlavorProfile
	Fixed    brew.PartialBrewingParameters
	BeanList []string

	// WarmStart centres the sampling window of free parameters. When nil
	// and cluster enrichment is on, the flavor heuristic supplies one.
	WarmStart map[string]float64

	// Seed overrides the configured search seed when non-zero.
	Seed int64

	// Candidates overrides the global search budget.
	Candidates *int
}

// BlendSummary is the bean blend chosen for a suggestion.
type BlendSummary struct {
	Blend    brew.BeanBlend `json:"bean_blend"`
	Primary  string         `json:"primary_bean"`
	Distance *float64       `json:"distance,omitempty"`
	Fallback bool           `json:"fallback"`
	Reason   string         `json:"reason,omitempty"`
}

// Suggestion is the answer to a SuggestRequest. Degraded suggestions carry
// the default parameters, a reason and no distance.
type Suggestion struct {
	ID         string                 `json:"suggestion_id"`
	Parameters brew.BrewingParameters `json:"parameters"`
	Predicted  brew.FlavorProfile     `json:"predicted_flavor,omitempty"`

	Distance       *float64 `json:"distance,omitempty"`
	Degraded       bool     `json:"degraded"`
	DegradedReason string   `json:"degraded_reason,omitempty"`
	Stage          string   `json:"stage"`
	TimedOut       bool     `json:"timed_out"`
	Evaluated      int      `json:"evaluated"`
	Failed         int      `json:"failed"`

	Blend *BlendSummary `json:"blend,omitempty"`

	ModelVersion int   `json:"model_version"`
	Seed         int64 `json:"seed"`
	ElapsedMS    int64 `json:"elapsed_ms"`
	Cached       bool  `json:"cached"`
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func summarizeBlend(b *optimize.BlendResult) *BlendSummary {
	if b == nil {
		return nil
	}
	return &BlendSummary{
		Blend:    b.Blend,
		Primary:  b.Primary,
		Distance: finite(b.Distance),
		Fallback: b.Fallback,
		Reason:   b.Reason,
	}
}

// forward returns the snapshot's predictor as an optimizer forward model,
// or a nil interface when nothing is published.
func (e *Engine) forward(snap *registry.Snapshot) optimize.Forward {
	if snap == nil {
		return nil
	}
	return predict.New(snap, e.logger)
}

// clusterContext returns the quality_cluster value the optimizer should
// hold fixed, or nil when the snapshot does not use the feature.
//
//nolint:gocritic // request passed by value is not mutated
func (e *Engine) clusterContext(snap *registry.Snapshot, req SuggestRequest) map[string]string {
	if snap == nil || !snap.ClusterEnrichment() {
		return nil
	}
	id := 0
	if c := e.clustering.Load(); c != nil {
		meta := req.Fixed.Metadata()
		switch beans := brew.NormalizeBeans(req.BeanList); {
		case len(req.Fixed.BeanBlend) > 0:
			meta[brew.ColBeanType] = req.Fixed.BeanBlend.Primary()
		case len(beans) > 0:
			meta[brew.ColBeanType] = beans[0]
		case req.Fixed.BeanType != "":
			meta[brew.ColBeanType] = req.Fixed.BeanType
		}
		id = c.AssignOrDefault(meta)
	}
	return map[string]string{brew.ColQualityCluster: quality.Label(id)}
}

// SuggestBrewingParameters solves for parameters whose predicted flavor is
// closest to the desired one. An invalid request fails with
// *brew.ValidationError before any search runs. Every other outcome is a
// suggestion, degraded to the defaults when no model is published or no
// candidate could be evaluated. A bean list of two or more beans yields a
// blend whose percentages sum to 100.
//
//nolint:gocritic // request passed by value is not mutated
func (e *Engine) SuggestBrewingParameters(ctx context.Context, req SuggestRequest) (*Suggestion, error) {
	snap := e.holder.Load()

	desired := req.Desired.Normalize()
	warm := req.WarmStart
	if warm == nil && e.cfg.ClusterEnrichment {
		warm = quality.SuggestWarmStart(desired, req.Fixed)
	}
	oreq := optimize.Request{
		Desired:     desired,
		Fixed:       req.Fixed,
		BeanList:    req.BeanList,
		WarmStart:   warm,
		Context:     e.clusterContext(snap, req),
		BeanChoices: brew.AvailableBeans(),
		Seed:        req.Seed,
		Candidates:  req.Candidates,
	}

	version := 0
	if snap != nil {
		version = snap.Version()
	}

	var key string
	var res *optimize.Result
	cached := false
	if e.cache != nil && snap != nil {
		key = cache.GenerateKey("suggest", struct {
			Version int
			Request optimize.Request
		}{version, oreq})
		res, cached = e.cache.Get(key)
		metrics.RecordCacheLookup(cached)
	}

	if !cached {
		opt, err := optimize.New(e.cfg.Optimizer, e.forward(snap), e.logger)
		if err != nil {
			return nil, err
		}
		res, err = opt.Suggest(ctx, oreq)
		if err != nil {
			return nil, err
		}
		metrics.RecordSuggestion(string(res.Stage), res.DegradedReason, res.Evaluated, res.Failed, res.Elapsed)
		if key != "" && !res.Degraded && !res.TimedOut {
			e.cache.Set(key, res)
		}
	}

	s := &Suggestion{
		ID:             logging.NewID(),
		Parameters:     res.Parameters,
		Predicted:      res.Predicted,
		Distance:       finite(res.Distance),
		Degraded:       res.Degraded,
		DegradedReason: res.DegradedReason,
		Stage:          string(res.Stage),
		TimedOut:       res.TimedOut,
		Evaluated:      res.Evaluated,
		Failed:         res.Failed,
		Blend:          summarizeBlend(res.Blend),
		ModelVersion:   version,
		Seed:           res.Seed,
		ElapsedMS:      res.Elapsed.Milliseconds(),
		Cached:         cached,
	}
	if s.Degraded {
		s.Distance = nil
	}

	if e.suggestions != nil {
		rec := &suggestions.Record{
			ID:             s.ID,
			Desired:        desired,
			Fixed:          req.Fixed,
			BeanList:       brew.NormalizeBeans(req.BeanList),
			Parameters:     s.Parameters,
			Predicted:      s.Predicted,
			Distance:       s.Distance,
			Degraded:       s.Degraded,
			DegradedReason: s.DegradedReason,
			Stage:          s.Stage,
			ModelVersion:   version,
			IssuedAt:       time.Now().UTC(),
		}
		if err := e.suggestions.Put(ctx, rec); err != nil {
			e.logger.Warn().Err(err).Str("suggestion_id", s.ID).Msg("failed to record suggestion")
		}
	}
	return s, nil
}

// BlendRequest asks for the best blend of beans for a flavor.
type BlendRequest struct {
	Beans   []string
	Desired brew.FlavorProfile

	// Base holds the other parameters. Zero fields use the training
	// baseline; an empty cup size means the medium cup.
	Base brew.BrewingParameters
}

// OptimizeBlend solves for blend percentages over the given beans. A single
// bean is the whole blend. It needs a published model.
//
//nolint:gocritic // request passed by value is not mutated
func (e *Engine) OptimizeBlend(ctx context.Context, req BlendRequest) (*BlendSummary, error) {
	desired := req.Desired.Normalize()
	if err := brew.ValidateDesired(desired); err != nil {
		return nil, err
	}
	beans := brew.NormalizeBeans(req.Beans)
	if err := brew.ValidateBeanList(beans, 1); err != nil {
		return nil, err
	}
	snap := e.holder.Load()
	if snap == nil {
		return nil, &brew.ModelNotTrainedError{}
	}

	base := snap.Baseline()
	for col, v := range req.Base.Row().Numeric {
		base.Numeric[col] = v
	}
	for col, v := range req.Base.Row().Categorical {
		base.Categorical[col] = v
	}
	if req.Base.CupSize == 0 {
		base.Numeric[brew.ColCupSize] = brew.PartialBrewingParameters{}.CupVolume()
	}
	base.Numeric[brew.ColGroundSize] = brew.GrindSize

	p := predict.New(snap, e.logger)
	base = e.enrichRow(p, base)
	obj := optimize.NewObjective(desired, p)
	res := optimize.NewBlendOptimizer(e.cfg.Optimizer.Blend).Optimize(ctx, obj, beans, base)
	return summarizeBlend(&res), nil
}
