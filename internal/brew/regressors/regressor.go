// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

// Package regressors implements the model families the trainer selects from.
//
// # Families
//
//   - linear: ridge-stabilised ordinary least squares with an intercept
//   - random_forest: bagged CART regression trees
//   - gradient_boosting: squared-loss boosting over shallow CART trees
//
// Every family satisfies [Regressor]. A fitted regressor is read-only and
// safe for concurrent Predict calls.
//
// # Persistence
//
// [Snapshot] captures a fitted regressor as a gob-encodable [State] and
// [Restore] rebuilds it.
package regressors

import (
	"context"
	"errors"
	"fmt"
)

// Family names.
const (
	FamilyLinear           = "linear"
	FamilyRandomForest     = "random_forest"
	FamilyGradientBoosting = "gradient_boosting"
)

// ErrNotFitted is returned when a regressor is used before Fit.
var ErrNotFitted = errors.New("regressor not fitted")

// Regressor is a single-output regression model.
type Regressor interface {
	// Family returns the model family name.
	Family() string

	// Fit trains the model. X is row-major.
	Fit(ctx context.Context, X [][]float64, y []float64) error

	// Predict returns the prediction for one feature vector.
	Predict(x []float64) float64

	// PredictBatch returns predictions for every row of X.
	PredictBatch(X [][]float64) []float64

	// FeatureImportances returns one non-negative weight per feature summing
	// to 1, or nil for families without a notion of importance.
	FeatureImportances() []float64
}

// Config holds hyperparameters for every family.
type Config struct {
	Linear   LinearConfig   `koanf:"linear"`
	Forest   ForestConfig   `koanf:"forest"`
	Boosting BoostingConfig `koanf:"boosting"`
}

// DefaultConfig returns the default hyperparameters.
func DefaultConfig() Config {
	return Config{
		Linear:   DefaultLinearConfig(),
		Forest:   DefaultForestConfig(),
		Boosting: DefaultBoostingConfig(),
	}
}

// Families returns the supported family names in evaluation order.
func Families() []string {
	return []string{FamilyLinear, FamilyRandomForest, FamilyGradientBoosting}
}

// New constructs an unfitted regressor of the given family.
//
//nolint:gocritic // config passed by value is copied into the model
func New(family string, seed int64, cfg Config) (Regressor, error) {
	switch family {
	case FamilyLinear:
		return NewLinear(cfg.Linear), nil
	case FamilyRandomForest:
		return NewForest(cfg.Forest, seed), nil
	case FamilyGradientBoosting:
		return NewBoosting(cfg.Boosting, seed), nil
	default:
		return nil, fmt.Errorf("unknown model family %q", family)
	}
}

// State is the serializable form of a fitted regressor. Exactly one of
// the family fields is set.
type State struct {
	Family   string
	Linear   *Linear
	Forest   *Forest
	Boosting *Boosting
}

// Snapshot captures a fitted regressor.
func Snapshot(r Regressor) (State, error) {
	switch m := r.(type) {
	case *Linear:
		return State{Family: FamilyLinear, Linear: m}, nil
	case *Forest:
		return State{Family: FamilyRandomForest, Forest: m}, nil
	case *Boosting:
		return State{Family: FamilyGradientBoosting, Boosting: m}, nil
	default:
		return State{}, fmt.Errorf("cannot snapshot regressor of type %T", r)
	}
}

// Restore rebuilds a regressor from its state.
//
//nolint:gocritic // state passed by value mirrors gob decoding
func Restore(s State) (Regressor, error) {
	switch s.Family {
	case FamilyLinear:
		if s.Linear != nil {
			return s.Linear, nil
		}
	case FamilyRandomForest:
		if s.Forest != nil {
			return s.Forest, nil
		}
	case FamilyGradientBoosting:
		if s.Boosting != nil {
			return s.Boosting, nil
		}
	default:
		return nil, fmt.Errorf("unknown model family %q", s.Family)
	}
	return nil, fmt.Errorf("state for %s carries no model", s.Family)
}

// predictAll applies predict to every row.
func predictAll(X [][]float64, predict func([]float64) float64) []float64 {
	out := make([]float64, len(X))
	for i, x := range X {
		out[i] = predict(x)
	}
	return out
}

// checkFitInput validates the shape of a training set.
func checkFitInput(X [][]float64, y []float64) (n, p int, err error) {
	n = len(X)
	if n == 0 {
		return 0, 0, errors.New("empty training set")
	}
	if len(y) != n {
		return 0, 0, fmt.Errorf("X has %d rows but y has %d values", n, len(y))
	}
	p = len(X[0])
	for i, row := range X {
		if len(row) != p {
			return 0, 0, fmt.Errorf("row %d has %d features, want %d", i, len(row), p)
		}
	}
	return n, p, nil
}

// normalize scales non-negative weights to sum to 1.
func normalize(w []float64) []float64 {
	var sum float64
	for _, v := range w {
		sum += v
	}
	out := make([]float64, len(w))
	if sum <= 0 {
		return out
	}
	for i, v := range w {
		out[i] = v / sum
	}
	return out
}
