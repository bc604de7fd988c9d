// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package training

import (
	"fmt"
	"runtime"

	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/regressors"
)

// Config contains parameters for model training.
type Config struct {
	// MinSamples is the minimum number of usable samples per target.
	// Default: 10.
	MinSamples int `koanf:"min_samples"`

	// TestSize is the held-out fraction used for evaluation.
	// Default: 0.2.
	TestSize float64 `koanf:"test_size"`

	// Folds is the number of cross-validation folds.
	// Default: 5.
	Folds int `koanf:"folds"`

	// Seed drives the train/test split and every stochastic family.
	// Default: 42.
	Seed int64 `koanf:"seed"`

	// Families lists the model families evaluated per target, in
	// tie-breaking order.
	// Default: linear, random_forest, gradient_boosting.
	Families []string `koanf:"families"`

	// Workers bounds concurrent cross-validation fits.
	// Default: GOMAXPROCS.
	Workers int `koanf:"workers"`

	// Regressors holds per-family hyperparameters.
	Regressors regressors.Config `koanf:"regressors"`
}

// DefaultConfig returns the default training configuration.
func DefaultConfig() Config {
	return Config{
		MinSamples: 10,
		TestSize:   0.2,
		Folds:      5,
		Seed:       42,
		Families:   regressors.Families(),
		Workers:    runtime.GOMAXPROCS(0),
		Regressors: regressors.DefaultConfig(),
	}
}

// Validate checks the configuration.
//
//nolint:gocritic // value receiver keeps config immutable
func (c Config) Validate() error {
	if c.MinSamples < 2 {
		return fmt.Errorf("min_samples must be at least 2, got %d", c.MinSamples)
	}
	if c.TestSize <= 0 || c.TestSize >= 1 {
		return fmt.Errorf("test_size must be in (0, 1), got %v", c.TestSize)
	}
	if c.Folds < 2 {
		return fmt.Errorf("folds must be at least 2, got %d", c.Folds)
	}
	if len(c.Families) == 0 {
		return fmt.Errorf("at least one model family is required")
	}
	for _, f := range c.Families {
		if _, err := regressors.New(f, 0, c.Regressors); err != nil {
			return err
		}
	}
	return nil
}
