// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

// Package optimize solves the inverse problem: given a desired flavor
// profile, find brewing parameters whose predicted profile is closest.
//
// A suggestion runs three stages. Global search draws candidates from the
// free parameters' sampling intervals through a [Sampler] and scores them
// in parallel batches with an [Objective]. Local refinement hands the best
// candidate to a [Refiner] and keeps the refined point only if it is not
// worse. Formatting clamps, rounds and snaps the result. When a bean list
// of two or more is given, the [BlendOptimizer] runs first and its primary
// bean is held fixed for the search.
//
// Failure never surfaces as an error: a search that cannot score a single
// candidate returns the safe defaults with Degraded set. Errors are
// reserved for invalid requests.
package optimize

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/NaomiGonz/AICoffee-Machine/internal/brew"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/predict"
)

// Stage names the step that produced a result.
type Stage string

// Stages.
const (
	StageDefaults     Stage = "defaults"
	StageGlobalSearch Stage = "global_search"
	StageRefined      Stage = "local_refinement"
)

// Degraded reasons.
const (
	ReasonNotTrained  = "models not trained"
	ReasonZeroBudget  = "candidate budget is zero"
	ReasonNoCandidate = "no candidate could be evaluated"
	ReasonTimedOut    = "timed out before any candidate was evaluated"
)

// tunables are the numeric parameters the optimizer may search, in order.
var tunables = []string{brew.ColPressure, brew.ColTemperature, brew.ColExtractionTime, brew.ColDoseSize}

// Request is one suggestion request.
type Request struct {
	Desired  brew.FlavorProfile
	Fixed    brew.PartialBrewingParameters
	BeanList []string

	// WarmStart biases sampling toward these values, keyed by column.
	WarmStart map[string]float64

	// Context holds categorical features that are not searched, such as
	// quality_cluster.
	Context map[string]string

	// BeanChoices are the bean types the search may pick when no bean is
	// fixed and no bean list is given. Empty means brew.DefaultBean.
	BeanChoices []string

	// Seed overrides the configured seed when non-zero.
	Seed int64

	// Candidates overrides the configured budget when non-nil.
	Candidates *int
}

// Result is a suggestion.
type Result struct {
	Parameters brew.BrewingParameters
	Predicted  brew.FlavorProfile

	// Distance is the distance of Predicted from the desired profile, or
	// +Inf for degraded results.
	Distance float64

	Degraded       bool
	DegradedReason string
	Stage          Stage
	TimedOut       bool

	// Evaluated and Failed count global search candidates.
	Evaluated int
	Failed    int

	Blend   *BlendResult
	Seed    int64
	Elapsed time.Duration
}

// Option customises an Optimizer.
type Option func(*Optimizer)

// WithSampler replaces the global search sampler.
func WithSampler(s Sampler) Option {
	return func(o *Optimizer) { o.sampler = s }
}

// WithRefiner replaces the local refiner.
func WithRefiner(r Refiner) Option {
	return func(o *Optimizer) { o.refiner = r }
}

// Optimizer suggests brewing parameters. It is stateless across calls and
// safe for concurrent use.
type Optimizer struct {
	cfg     Config
	forward Forward
	sampler Sampler
	refiner Refiner
	blend   *BlendOptimizer
	logger  zerolog.Logger
}

// New creates an optimizer over forward. A nil forward yields an optimizer
// that always returns degraded defaults.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(cfg Config, forward Forward, logger zerolog.Logger, opts ...Option) (*Optimizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	o := &Optimizer{
		cfg:     cfg,
		forward: forward,
		sampler: UniformSampler{},
		refiner: &LBFGSRefiner{Iterations: cfg.RefineIterations, Step: cfg.RefineStep},
		blend:   NewBlendOptimizer(cfg.Blend),
		logger:  logger.With().Str("component", "optimizer").Logger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Config returns the optimizer configuration.
func (o *Optimizer) Config() Config {
	return o.cfg
}

// Suggest runs the optimization. It returns *brew.ValidationError for an
// invalid request and otherwise always returns a result.
//
//nolint:gocritic // request passed by value is not mutated
func (o *Optimizer) Suggest(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	desired := req.Desired.Normalize()
	p, err := o.newPlan(desired, req)
	if err != nil {
		return nil, err
	}

	seed := req.Seed
	if seed == 0 {
		seed = o.cfg.Seed
	}
	res := &Result{Seed: seed}
	finish := func(r *Result) (*Result, error) {
		r.Elapsed = time.Since(start)
		o.logger.Debug().
			Str("stage", string(r.Stage)).
			Bool("degraded", r.Degraded).
			Int("evaluated", r.Evaluated).
			Dur("elapsed", r.Elapsed).
			Msg("suggestion complete")
		return r, nil
	}

	if o.forward == nil {
		return finish(o.degrade(p, res, ReasonNotTrained))
	}

	if o.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.Timeout)
		defer cancel()
	}

	obj := NewObjective(desired, o.forward)

	if len(p.blend) == 0 && len(p.beans) >= 2 {
		br := o.blend.Optimize(ctx, obj, p.beans, p.blendBase())
		res.Blend = &br
		p.blend = br.Blend
		p.space.Beans = []string{br.Primary}
		if br.Fallback {
			o.logger.Debug().Str("reason", br.Reason).Msg("blend optimizer fell back to equal split")
		}
	}

	budget := o.cfg.Candidates
	if req.Candidates != nil {
		budget = max(0, *req.Candidates)
	}
	if budget == 0 {
		return finish(o.degrade(p, res, ReasonZeroBudget))
	}

	// Global search.
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible search
	cands := o.sampler.Sample(p.space, budget, rng)
	rows := make([]brew.Row, len(cands))
	for i := range cands {
		rows[i] = p.row(cands[i])
	}
	dists := o.evaluate(ctx, obj, rows)

	best := -1
	for i, d := range dists {
		if math.IsNaN(d) {
			res.Failed++
			continue
		}
		res.Evaluated++
		if best < 0 || d < dists[best] {
			best = i
		}
	}
	if best < 0 {
		reason := ReasonNoCandidate
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			reason = ReasonTimedOut
			res.TimedOut = true
		}
		return finish(o.degrade(p, res, reason))
	}
	bestCand := Candidate{X: append([]float64(nil), cands[best].X...), Bean: cands[best].Bean}
	bestDist := dists[best]
	res.Stage = StageGlobalSearch

	// Local refinement over the continuous free parameters.
	if o.cfg.RefineIterations > 0 && len(p.space.Dims) > 0 && ctx.Err() == nil {
		f := func(x []float64) float64 {
			return obj.EvaluateOne(ctx, p.row(Candidate{X: x, Bean: bestCand.Bean}))
		}
		x, d, err := o.refiner.Refine(ctx, f, bestCand.X, p.space.Intervals())
		switch {
		case err != nil:
			o.logger.Debug().Err(err).Msg("refinement failed, keeping global search result")
		case d <= bestDist:
			bestCand.X, bestDist = x, d
			res.Stage = StageRefined
		}
	}
	res.TimedOut = errors.Is(ctx.Err(), context.DeadlineExceeded)

	// Formatting.
	res.Parameters = p.params(bestCand)
	res.Distance = bestDist
	finalCtx := context.WithoutCancel(ctx)
	if out, err := o.forward.PredictTargets(finalCtx, []brew.Row{p.paramsRow(res.Parameters)}, brew.Targets(), predict.Neutral); err == nil && out[0].Err == nil {
		res.Predicted = out[0].Profile
		if d := obj.Distance(res.Predicted); !math.IsNaN(d) {
			res.Distance = d
		}
	}
	return finish(res)
}

// evaluate scores rows in parallel batches. Failed rows and batches not
// started before the context ends stay NaN.
func (o *Optimizer) evaluate(ctx context.Context, obj *Objective, rows []brew.Row) []float64 {
	dists := make([]float64, len(rows))
	for i := range dists {
		dists[i] = math.NaN()
	}

	var g errgroup.Group
	g.SetLimit(o.cfg.Workers)
	for lo := 0; lo < len(rows); lo += o.cfg.BatchSize {
		hi := min(lo+o.cfg.BatchSize, len(rows))
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			d, err := obj.Evaluate(ctx, rows[lo:hi])
			if err != nil {
				o.logger.Debug().Err(err).Int("from", lo).Int("to", hi).Msg("candidate batch failed")
				return nil
			}
			copy(dists[lo:hi], d)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // batch goroutines never return errors
	return dists
}

// degrade fills res with the safe defaults. Fixed values still apply.
func (o *Optimizer) degrade(p *plan, res *Result, reason string) *Result {
	params := brew.BrewingParameters{
		Pressure:       brew.FallbackPressure,
		Temperature:    brew.FallbackTemperature,
		ExtractionTime: brew.FallbackExtractionTime,
		DoseSize:       brew.DoseForCup(p.cup, o.cfg.Ratio),
		CupSize:        p.cup,
		BeanType:       brew.DefaultBean,
	}
	for col, v := range p.fixed {
		switch col {
		case brew.ColPressure:
			params.Pressure = v
		case brew.ColTemperature:
			params.Temperature = v
		case brew.ColExtractionTime:
			params.ExtractionTime = v
		case brew.ColDoseSize:
			params.DoseSize = v
		}
	}

	blend := p.blend
	if len(blend) == 0 && len(p.beans) >= 2 {
		blend = brew.EqualSplit(p.beans)
	}
	switch {
	case len(blend) > 0:
		params.BeanType = brew.PrimaryInOrder(p.beans, blend)
		if params.BeanType == "" {
			params.BeanType = blend.Primary()
		}
		params.BeanBlend = blend
	case len(p.space.Beans) == 1:
		params.BeanType = p.space.Beans[0]
	}
	meta := p.metadata
	params.ProcessingMethod = meta[brew.ColProcessingMethod]
	params.Color = meta[brew.ColColor]
	params.Country = meta[brew.ColCountry]
	params.Region = meta[brew.ColRegion]

	res.Parameters = Format(params)
	res.Distance = math.Inf(1)
	res.Degraded = true
	res.DegradedReason = reason
	res.Stage = StageDefaults
	res.Predicted = nil
	return res
}
