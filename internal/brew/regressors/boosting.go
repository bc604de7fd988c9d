// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package regressors

import (
	"context"
	"math"
	"math/rand"
)

// BoostingConfig contains parameters for the gradient boosting family.
type BoostingConfig struct {
	// Trees is the number of boosting stages.
	// Default: 100.
	Trees int `koanf:"trees"`

	// LearningRate shrinks each stage's contribution.
	// Default: 0.1.
	LearningRate float64 `koanf:"learning_rate"`

	// MaxDepth limits each stage's tree depth.
	// Default: 3.
	MaxDepth int `koanf:"max_depth"`

	// MinSamplesSplit is the minimum node size eligible for a split.
	// Default: 2.
	MinSamplesSplit int `koanf:"min_samples_split"`

	// MinSamplesLeaf is the minimum number of samples in each child.
	// Default: 1.
	MinSamplesLeaf int `koanf:"min_samples_leaf"`

	// Subsample is the fraction of rows drawn without replacement per stage.
	// Default: 1.0.
	Subsample float64 `koanf:"subsample"`
}

// DefaultBoostingConfig returns default boosting configuration.
func DefaultBoostingConfig() BoostingConfig {
	return BoostingConfig{
		Trees:           100,
		LearningRate:    0.1,
		MaxDepth:        3,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Subsample:       1.0,
	}
}

// Boosting is squared-loss gradient boosting over regression trees.
type Boosting struct {
	Config      BoostingConfig
	Seed        int64
	Init        float64
	Trees       []Tree
	Importances []float64
	Fitted      bool
}

var _ Regressor = (*Boosting)(nil)

// NewBoosting creates an unfitted boosting model.
func NewBoosting(cfg BoostingConfig, seed int64) *Boosting {
	def := DefaultBoostingConfig()
	if cfg.Trees <= 0 {
		cfg.Trees = def.Trees
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = def.LearningRate
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = def.MaxDepth
	}
	if cfg.Subsample <= 0 || cfg.Subsample > 1 {
		cfg.Subsample = 1
	}
	return &Boosting{Config: cfg, Seed: seed}
}

// Family returns "gradient_boosting".
func (m *Boosting) Family() string { return FamilyGradientBoosting }

// Fit starts from the target mean and fits each stage to the residuals.
func (m *Boosting) Fit(ctx context.Context, X [][]float64, y []float64) error {
	n, p, err := checkFitInput(X, y)
	if err != nil {
		return err
	}

	var mean float64
	for _, v := range y {
		mean += v
	}
	mean /= float64(n)

	pred := make([]float64, n)
	for i := range pred {
		pred[i] = mean
	}
	resid := make([]float64, n)

	params := treeParams{
		maxDepth:        m.Config.MaxDepth,
		minSamplesSplit: m.Config.MinSamplesSplit,
		minSamplesLeaf:  m.Config.MinSamplesLeaf,
	}
	rng := rand.New(rand.NewSource(m.Seed)) //nolint:gosec // deterministic subsampling
	importance := make([]float64, p)
	trees := make([]Tree, 0, m.Config.Trees)

	all := make([]int, n)
	for i := range all {
		all[i] = i
	}
	sampleSize := int(math.Max(1, math.Round(m.Config.Subsample*float64(n))))

	for stage := 0; stage < m.Config.Trees; stage++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for i := range resid {
			resid[i] = y[i] - pred[i]
		}

		idx := all
		if sampleSize < n {
			idx = rng.Perm(n)[:sampleSize]
		}

		b := newTreeBuilder(X, resid, params, rng)
		tree := b.grow(idx)
		for j, v := range b.importance {
			importance[j] += v
		}
		for i := range pred {
			pred[i] += m.Config.LearningRate * tree.Predict(X[i])
		}
		trees = append(trees, tree)
	}

	m.Init = mean
	m.Trees = trees
	m.Importances = normalize(importance)
	m.Fitted = true
	return nil
}

// Predict sums the shrunken stage outputs onto the initial mean.
func (m *Boosting) Predict(x []float64) float64 {
	if !m.Fitted {
		return math.NaN()
	}
	out := m.Init
	for i := range m.Trees {
		out += m.Config.LearningRate * m.Trees[i].Predict(x)
	}
	return out
}

// PredictBatch predicts every row.
func (m *Boosting) PredictBatch(X [][]float64) []float64 {
	return predictAll(X, m.Predict)
}

// FeatureImportances returns the total impurity decrease per feature.
func (m *Boosting) FeatureImportances() []float64 {
	return append([]float64(nil), m.Importances...)
}
