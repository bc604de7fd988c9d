// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package regressors

import (
	"context"
	"math"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ForestConfig contains parameters for the random forest family.
type ForestConfig struct {
	// Trees is the number of trees in the ensemble.
	// Default: 100.
	Trees int `koanf:"trees"`

	// MaxDepth limits tree depth. Zero grows until leaves are pure.
	// Default: 0.
	MaxDepth int `koanf:"max_depth"`

	// MinSamplesSplit is the minimum node size eligible for a split.
	// Default: 2.
	MinSamplesSplit int `koanf:"min_samples_split"`

	// MinSamplesLeaf is the minimum number of samples in each child.
	// Default: 1.
	MinSamplesLeaf int `koanf:"min_samples_leaf"`

	// MaxFeatures is the fraction of features examined per split.
	// Default: 1.0.
	MaxFeatures float64 `koanf:"max_features"`

	// Bootstrap resamples the training set for every tree.
	// Default: true.
	Bootstrap bool `koanf:"bootstrap"`
}

// DefaultForestConfig returns default forest configuration.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		Trees:           100,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		MaxFeatures:     1.0,
		Bootstrap:       true,
	}
}

// Forest is a bagged ensemble of regression trees.
type Forest struct {
	Config      ForestConfig
	Seed        int64
	Trees       []Tree
	Importances []float64
	Fitted      bool
}

var _ Regressor = (*Forest)(nil)

// NewForest creates an unfitted forest.
func NewForest(cfg ForestConfig, seed int64) *Forest {
	if cfg.Trees <= 0 {
		cfg.Trees = DefaultForestConfig().Trees
	}
	return &Forest{Config: cfg, Seed: seed}
}

// Family returns "random_forest".
func (f *Forest) Family() string { return FamilyRandomForest }

// Fit grows the trees concurrently. Tree i draws from its own source
// seeded with Seed+i, so results do not depend on scheduling.
func (f *Forest) Fit(ctx context.Context, X [][]float64, y []float64) error {
	n, p, err := checkFitInput(X, y)
	if err != nil {
		return err
	}

	maxFeatures := 0
	if f.Config.MaxFeatures > 0 && f.Config.MaxFeatures < 1 {
		maxFeatures = int(math.Max(1, math.Round(f.Config.MaxFeatures*float64(p))))
	}
	params := treeParams{
		maxDepth:        f.Config.MaxDepth,
		minSamplesSplit: f.Config.MinSamplesSplit,
		minSamplesLeaf:  f.Config.MinSamplesLeaf,
		maxFeatures:     maxFeatures,
	}

	trees := make([]Tree, f.Config.Trees)
	importances := make([][]float64, f.Config.Trees)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for t := 0; t < f.Config.Trees; t++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(f.Seed + int64(t))) //nolint:gosec // deterministic bagging
			idx := make([]int, n)
			for i := range idx {
				if f.Config.Bootstrap {
					idx[i] = rng.Intn(n)
				} else {
					idx[i] = i
				}
			}
			b := newTreeBuilder(X, y, params, rng)
			trees[t] = b.grow(idx)
			importances[t] = normalize(b.importance)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	avg := make([]float64, p)
	for _, imp := range importances {
		for j, v := range imp {
			avg[j] += v
		}
	}
	f.Trees = trees
	f.Importances = normalize(avg)
	f.Fitted = true
	return nil
}

// Predict averages the tree predictions.
func (f *Forest) Predict(x []float64) float64 {
	if len(f.Trees) == 0 {
		return math.NaN()
	}
	var sum float64
	for i := range f.Trees {
		sum += f.Trees[i].Predict(x)
	}
	return sum / float64(len(f.Trees))
}

// PredictBatch predicts every row.
func (f *Forest) PredictBatch(X [][]float64) []float64 {
	return predictAll(X, f.Predict)
}

// FeatureImportances returns the mean impurity decrease per feature.
func (f *Forest) FeatureImportances() []float64 {
	return append([]float64(nil), f.Importances...)
}
