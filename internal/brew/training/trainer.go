// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

// Package training fits one regressor per flavor target.
//
// For each target the trainer shuffles the usable rows with the configured
// seed, holds out a test split, cross-validates every configured family on
// the remaining rows, refits the family with the best mean negative MSE and
// reports held-out MSE, MAE and R². Targets train independently; a target
// with too few rated samples is skipped without failing the run.
package training

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/NaomiGonz/AICoffee-Machine/internal/brew"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/encoding"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/registry"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/regressors"
)

// Report statuses.
const (
	StatusTrained          = "trained"
	StatusInsufficientData = "insufficient_data"
	StatusFailed           = "failed"
)

// Options override configuration for a single run. Zero values fall back
// to the trainer's configuration.
type Options struct {
	TestSize float64
	Seed     int64
	Version  int
	RunID    string
}

// TargetReport describes the outcome for one target.
type TargetReport struct {
	Status  string           `json:"status"`
	Family  string           `json:"family,omitempty"`
	Samples int              `json:"samples"`
	Metrics registry.Metrics `json:"metrics"`
	Reason  string           `json:"reason,omitempty"`
}

// Report is the result of a training run.
type Report struct {
	RunID       string                  `json:"run_id"`
	Status      string                  `json:"status"`
	Version     int                     `json:"version"`
	SampleCount int                     `json:"sample_count"`
	Targets     map[string]TargetReport `json:"targets"`
	Summary     *Summary                `json:"summary,omitempty"`
	TrainedAt   time.Time               `json:"trained_at"`
	DurationMS  int64                   `json:"duration_ms"`
}

// Result bundles the report with the snapshot ready to publish.
type Result struct {
	Report   *Report
	Snapshot *registry.Snapshot
}

// Trainer fits per-target models.
type Trainer struct {
	cfg    Config
	logger zerolog.Logger
}

// New creates a trainer.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(cfg Config, logger zerolog.Logger) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid training config: %w", err)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Trainer{
		cfg:    cfg,
		logger: logger.With().Str("component", "trainer").Logger(),
	}, nil
}

// Config returns the trainer configuration.
func (t *Trainer) Config() Config {
	return t.cfg
}

// Train encodes rows, fits every target and returns the snapshot. When
// fewer than MinSamples rows exist, or no target has enough ratings, it
// returns a report with status insufficient_data together with a
// *brew.InsufficientDataError and no snapshot.
//
//nolint:gocritic // spec and opts passed by value are copied into the run
func (t *Trainer) Train(ctx context.Context, rows []brew.Row, spec encoding.Spec, opts Options) (*Result, error) {
	start := time.Now()
	opts = t.resolveOptions(opts)
	logger := t.logger.With().Str("run_id", opts.RunID).Int("version", opts.Version).Logger()

	report := &Report{
		RunID:       opts.RunID,
		Version:     opts.Version,
		SampleCount: len(rows),
		Targets:     make(map[string]TargetReport, len(spec.Targets)),
	}

	if len(rows) < t.cfg.MinSamples {
		report.Status = StatusInsufficientData
		logger.Warn().Int("samples", len(rows)).Int("need", t.cfg.MinSamples).Msg("not enough samples to train")
		return &Result{Report: report}, &brew.InsufficientDataError{Scope: "training", Have: len(rows), Need: t.cfg.MinSamples}
	}

	enc := encoding.New(spec)
	encoded, err := enc.Encode(rows, encoding.ModeTraining)
	if err != nil {
		return nil, fmt.Errorf("encode training rows: %w", err)
	}
	logger.Info().Int("samples", len(rows)).Int("features", len(encoded.Columns)).Msg("encoded training data")

	models := make(map[string]*registry.Model, len(spec.Targets))
	for _, target := range spec.Targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		model, tr, err := t.trainTarget(ctx, target, encoded, opts)
		if err != nil {
			return nil, fmt.Errorf("train %s: %w", target, err)
		}
		report.Targets[target] = tr
		if model == nil {
			logger.Warn().Str("target", target).Str("reason", tr.Reason).Msg("skipped target")
			continue
		}
		models[target] = model
		logger.Info().
			Str("target", target).
			Str("family", model.Family).
			Float64("test_mse", model.Metrics.MSE).
			Float64("test_r2", model.Metrics.R2).
			Msg("trained target model")
	}

	report.TrainedAt = time.Now()
	report.DurationMS = time.Since(start).Milliseconds()

	if len(models) == 0 {
		report.Status = StatusInsufficientData
		return &Result{Report: report}, &brew.InsufficientDataError{Scope: "every target", Have: maxRated(encoded), Need: t.cfg.MinSamples}
	}

	report.Status = StatusTrained
	report.Summary = Summarize(report.Targets, models)

	snap := registry.NewSnapshot(registry.SnapshotOptions{
		Version:           opts.Version,
		RunID:             opts.RunID,
		TrainedAt:         report.TrainedAt,
		SampleCount:       len(rows),
		Encoder:           enc,
		Repository:        registry.NewMemoryRepository(models),
		Baseline:          baselineRow(rows, spec, enc),
		ClusterEnrichment: hasColumn(spec.Categorical, brew.ColQualityCluster),
	})
	return &Result{Report: report, Snapshot: snap}, nil
}

func (t *Trainer) resolveOptions(opts Options) Options {
	if opts.TestSize <= 0 || opts.TestSize >= 1 {
		opts.TestSize = t.cfg.TestSize
	}
	if opts.Seed == 0 {
		opts.Seed = t.cfg.Seed
	}
	if opts.RunID == "" {
		opts.RunID = uuid.New().String()
	}
	return opts
}

// trainTarget fits the best family for one target. A nil model with a
// report means the target was skipped.
func (t *Trainer) trainTarget(ctx context.Context, target string, encoded *encoding.Encoded, opts Options) (*registry.Model, TargetReport, error) {
	ys := encoded.Targets[target]
	var usable []int
	for i, v := range ys {
		if !math.IsNaN(v) {
			usable = append(usable, i)
		}
	}
	if len(usable) < t.cfg.MinSamples {
		return nil, TargetReport{
			Status:  StatusInsufficientData,
			Samples: len(usable),
			Reason:  fmt.Sprintf("have %d rated samples, need %d", len(usable), t.cfg.MinSamples),
		}, nil
	}

	trainIdx, testIdx := split(usable, opts.TestSize, opts.Seed)
	Xtr, ytr := gather(encoded.X, ys, trainIdx)
	Xte, yte := gather(encoded.X, ys, testIdx)

	scores, err := t.crossValidate(ctx, Xtr, ytr, opts.Seed)
	if err != nil {
		return nil, TargetReport{}, err
	}
	best := t.cfg.Families[0]
	for _, f := range t.cfg.Families[1:] {
		if scores[f] > scores[best] {
			best = f
		}
	}

	reg, err := regressors.New(best, opts.Seed, t.cfg.Regressors)
	if err != nil {
		return nil, TargetReport{}, err
	}
	if err := reg.Fit(ctx, Xtr, ytr); err != nil {
		return nil, TargetReport{}, fmt.Errorf("refit %s: %w", best, err)
	}

	metrics := Evaluate(reg.PredictBatch(Xte), yte)
	metrics.TrainSize = len(trainIdx)
	metrics.TestSize = len(testIdx)
	metrics.CVScores = scores
	if imp := reg.FeatureImportances(); imp != nil {
		metrics.FeatureImportance = make(map[string]float64, len(imp))
		for j, v := range imp {
			metrics.FeatureImportance[encoded.Columns[j]] = v
		}
	}

	model := &registry.Model{
		Target:    target,
		Family:    best,
		Features:  append([]string(nil), encoded.Columns...),
		Regressor: reg,
		Metrics:   metrics,
	}
	return model, TargetReport{
		Status:  StatusTrained,
		Family:  best,
		Samples: len(usable),
		Metrics: metrics,
	}, nil
}

// crossValidate returns the mean negative MSE of every family over
// unshuffled K folds. Fits run concurrently; each writes its own slot.
func (t *Trainer) crossValidate(ctx context.Context, X [][]float64, y []float64, seed int64) (map[string]float64, error) {
	folds := kFolds(len(y), t.cfg.Folds)
	families := t.cfg.Families
	mse := make([][]float64, len(families))
	for i := range mse {
		mse[i] = make([]float64, len(folds))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.cfg.Workers)
	for fi, family := range families {
		for k, fold := range folds {
			g.Go(func() error {
				reg, err := regressors.New(family, seed, t.cfg.Regressors)
				if err != nil {
					return err
				}
				trX, trY, vaX, vaY := foldData(X, y, fold)
				if err := reg.Fit(gctx, trX, trY); err != nil {
					return fmt.Errorf("cv %s fold %d: %w", family, k, err)
				}
				mse[fi][k] = Evaluate(reg.PredictBatch(vaX), vaY).MSE
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	scores := make(map[string]float64, len(families))
	for fi, family := range families {
		var sum float64
		for _, v := range mse[fi] {
			sum += v
		}
		scores[family] = -sum / float64(len(mse[fi]))
	}
	return scores, nil
}

// split shuffles idx with seed and holds out ceil(testSize*n) rows.
func split(idx []int, testSize float64, seed int64) (train, test []int) {
	n := len(idx)
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic split
	perm := rng.Perm(n)
	nTest := int(math.Ceil(testSize * float64(n)))
	if nTest < 1 {
		nTest = 1
	}
	if nTest > n-2 {
		nTest = n - 2
	}
	test = make([]int, 0, nTest)
	train = make([]int, 0, n-nTest)
	for i, p := range perm {
		if i < nTest {
			test = append(test, idx[p])
		} else {
			train = append(train, idx[p])
		}
	}
	return train, test
}

// fold is a validation range [lo, hi) over the training rows.
type fold struct{ lo, hi int }

// kFolds partitions n rows into k contiguous folds; the first n%k folds
// get one extra row.
func kFolds(n, k int) []fold {
	if k > n {
		k = n
	}
	out := make([]fold, k)
	lo := 0
	for i := 0; i < k; i++ {
		size := n / k
		if i < n%k {
			size++
		}
		out[i] = fold{lo: lo, hi: lo + size}
		lo += size
	}
	return out
}

func foldData(X [][]float64, y []float64, f fold) (trX [][]float64, trY []float64, vaX [][]float64, vaY []float64) {
	for i := range X {
		if i >= f.lo && i < f.hi {
			vaX = append(vaX, X[i])
			vaY = append(vaY, y[i])
		} else {
			trX = append(trX, X[i])
			trY = append(trY, y[i])
		}
	}
	return trX, trY, vaX, vaY
}

func gather(X [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	outX := make([][]float64, len(idx))
	outY := make([]float64, len(idx))
	for i, j := range idx {
		outX[i] = X[j]
		outY[i] = y[j]
	}
	return outX, outY
}

// Evaluate computes MSE, MAE and R² of predictions against truth. R² is 1
// for a perfect fit of a constant target and 0 otherwise.
func Evaluate(pred, truth []float64) registry.Metrics {
	n := len(truth)
	if n == 0 {
		return registry.Metrics{}
	}
	var mean float64
	for _, v := range truth {
		mean += v
	}
	mean /= float64(n)

	var sse, sae, sst float64
	for i, v := range truth {
		d := pred[i] - v
		sse += d * d
		sae += math.Abs(d)
		sst += (v - mean) * (v - mean)
	}

	r2 := 0.0
	switch {
	case sst > 0:
		r2 = 1 - sse/sst
	case sse == 0:
		r2 = 1
	}
	return registry.Metrics{
		MSE: sse / float64(n),
		MAE: sae / float64(n),
		R2:  r2,
	}
}

// baselineRow holds numeric means and categorical modes of the training rows.
func baselineRow(rows []brew.Row, spec encoding.Spec, enc *encoding.Encoder) brew.Row {
	out := brew.NewRow()
	for _, col := range spec.Numeric {
		var sum float64
		n := 0
		for i := range rows {
			if v, ok := rows[i].Numeric[col]; ok && !math.IsNaN(v) {
				sum += v
				n++
			}
		}
		if n > 0 {
			out.Numeric[col] = sum / float64(n)
		} else {
			out.Numeric[col] = enc.Fill().Numeric[col]
		}
	}
	for _, col := range spec.Categorical {
		out.Categorical[col] = enc.Fill().Categorical[col]
	}
	return out
}

func maxRated(encoded *encoding.Encoded) int {
	best := 0
	for _, ys := range encoded.Targets {
		n := 0
		for _, v := range ys {
			if !math.IsNaN(v) {
				n++
			}
		}
		if n > best {
			best = n
		}
	}
	return best
}

func hasColumn(cols []string, name string) bool {
	for _, c := range cols {
		if c == name {
			return true
		}
	}
	return false
}
