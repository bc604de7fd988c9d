// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package optimize

import (
	"fmt"
	"runtime"
	"time"
)

// Config contains parameters for the parameter optimizer.
type Config struct {
	// Candidates is the global search budget. Zero skips the search and
	// returns degraded defaults.
	// Default: 1000.
	Candidates int `koanf:"candidates"`

	// BatchSize is the number of candidates predicted per forward call.
	// Default: 250.
	BatchSize int `koanf:"batch_size"`

	// Workers bounds concurrent candidate batches.
	// Default: GOMAXPROCS.
	Workers int `koanf:"workers"`

	// WarmStartFraction is the half-width of a warm-started sampling
	// interval, as a fraction of the parameter's bound width.
	// Default: 0.25.
	WarmStartFraction float64 `koanf:"warm_start_fraction"`

	// TemperaturePriorWidth is the half-width in degrees of the
	// temperature window seeded from desired bitterness.
	// Default: 1.0.
	TemperaturePriorWidth float64 `koanf:"temperature_prior_width"`

	// DoseFollowsCup narrows the dose window to 0.8-1.2 times the
	// ratio-implied dose of the cup.
	// Default: true.
	DoseFollowsCup bool `koanf:"dose_follows_cup"`

	// Ratio is the coffee-to-water ratio used for cup-derived doses.
	// Default: 15.
	Ratio float64 `koanf:"ratio"`

	// RefineIterations bounds local refinement. Zero disables it.
	// Default: 100.
	RefineIterations int `koanf:"refine_iterations"`

	// RefineStep is the finite-difference step of the refinement gradient.
	// Default: 1e-3.
	RefineStep float64 `koanf:"refine_step"`

	// Timeout bounds a whole Suggest call. On expiry the best candidate
	// found so far is returned.
	// Default: 10s.
	Timeout time.Duration `koanf:"timeout"`

	// Seed makes suggestions reproducible.
	// Default: 42.
	Seed int64 `koanf:"seed"`

	// Blend configures the bean blend optimizer.
	Blend BlendConfig `koanf:"blend"`
}

// BlendConfig contains parameters for the bean blend optimizer.
type BlendConfig struct {
	// MaxIterations bounds Nelder-Mead iterations.
	// Default: 50.
	MaxIterations int `koanf:"max_iterations"`

	// SimplexSize is the initial simplex edge in percentage points.
	// Default: 10.
	SimplexSize float64 `koanf:"simplex_size"`

	// Tolerance is the absolute objective change treated as converged.
	// Default: 1e-6.
	Tolerance float64 `koanf:"tolerance"`
}

// DefaultConfig returns the default optimizer configuration.
func DefaultConfig() Config {
	return Config{
		Candidates:            1000,
		BatchSize:             250,
		Workers:               runtime.GOMAXPROCS(0),
		WarmStartFraction:     0.25,
		TemperaturePriorWidth: 1.0,
		DoseFollowsCup:        true,
		Ratio:                 15,
		RefineIterations:      100,
		RefineStep:            1e-3,
		Timeout:               10 * time.Second,
		Seed:                  42,
		Blend: BlendConfig{
			MaxIterations: 50,
			SimplexSize:   10,
			Tolerance:     1e-6,
		},
	}
}

// Validate checks the configuration.
//
//nolint:gocritic // value receiver keeps config immutable
func (c Config) Validate() error {
	if c.Candidates < 0 {
		return fmt.Errorf("optimizer.candidates must be non-negative, got %d", c.Candidates)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("optimizer.batch_size must be at least 1, got %d", c.BatchSize)
	}
	if c.WarmStartFraction <= 0 || c.WarmStartFraction > 1 {
		return fmt.Errorf("optimizer.warm_start_fraction must be in (0, 1], got %v", c.WarmStartFraction)
	}
	if c.TemperaturePriorWidth < 0 {
		return fmt.Errorf("optimizer.temperature_prior_width must be non-negative, got %v", c.TemperaturePriorWidth)
	}
	if c.Ratio <= 0 {
		return fmt.Errorf("optimizer.ratio must be positive, got %v", c.Ratio)
	}
	if c.RefineIterations < 0 {
		return fmt.Errorf("optimizer.refine_iterations must be non-negative, got %d", c.RefineIterations)
	}
	if c.RefineStep <= 0 {
		return fmt.Errorf("optimizer.refine_step must be positive, got %v", c.RefineStep)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("optimizer.timeout must be non-negative, got %v", c.Timeout)
	}
	if c.Blend.MaxIterations < 1 {
		return fmt.Errorf("optimizer.blend.max_iterations must be at least 1, got %d", c.Blend.MaxIterations)
	}
	if c.Blend.SimplexSize <= 0 {
		return fmt.Errorf("optimizer.blend.simplex_size must be positive, got %v", c.Blend.SimplexSize)
	}
	return nil
}
