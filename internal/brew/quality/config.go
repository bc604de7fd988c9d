// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package quality

import "fmt"

// Config contains parameters for the quality cluster enricher.
type Config struct {
	// Enabled adds the quality_cluster feature to training and inference
	// and turns on the warm-start heuristic.
	// Default: false.
	Enabled bool `koanf:"enabled"`

	// ArabicaPath and RobustaPath locate the reference CSV files. Either
	// may be empty.
	ArabicaPath string `koanf:"arabica_path"`
	RobustaPath string `koanf:"robusta_path"`

	// MaxClusters caps k. The effective k is min(MaxClusters, rows/10).
	// Default: 8.
	MaxClusters int `koanf:"max_clusters"`

	// MinRows is the smallest reference dataset that will be clustered.
	// Default: 10.
	MinRows int `koanf:"min_rows"`

	// MinQualityColumns is the number of quality attributes required.
	// Default: 3.
	MinQualityColumns int `koanf:"min_quality_columns"`

	// Seed makes clustering reproducible.
	// Default: 42.
	Seed int64 `koanf:"seed"`

	// Restarts is the number of k-means++ initialisations; the run with
	// the lowest inertia wins.
	// Default: 10.
	Restarts int `koanf:"restarts"`

	// MaxIterations bounds Lloyd iterations per restart.
	// Default: 300.
	MaxIterations int `koanf:"max_iterations"`

	// Tolerance is the convergence threshold on centroid movement,
	// relative to the mean feature variance.
	// Default: 1e-4.
	Tolerance float64 `koanf:"tolerance"`

	// BaselineCluster is assigned to beans that match no reference record.
	// Default: 0.
	BaselineCluster int `koanf:"baseline_cluster"`
}

// DefaultConfig returns the default enricher configuration.
func DefaultConfig() Config {
	return Config{
		MaxClusters:       8,
		MinRows:           10,
		MinQualityColumns: 3,
		Seed:              42,
		Restarts:          10,
		MaxIterations:     300,
		Tolerance:         1e-4,
	}
}

// Validate checks the configuration.
//
//nolint:gocritic // value receiver keeps config immutable
func (c Config) Validate() error {
	if c.MaxClusters < 1 {
		return fmt.Errorf("max_clusters must be at least 1, got %d", c.MaxClusters)
	}
	if c.MinRows < 1 {
		return fmt.Errorf("min_rows must be at least 1, got %d", c.MinRows)
	}
	if c.MinQualityColumns < 1 {
		return fmt.Errorf("min_quality_columns must be at least 1, got %d", c.MinQualityColumns)
	}
	if c.Restarts < 1 {
		return fmt.Errorf("restarts must be at least 1, got %d", c.Restarts)
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("max_iterations must be at least 1, got %d", c.MaxIterations)
	}
	if c.Tolerance < 0 {
		return fmt.Errorf("tolerance must be non-negative, got %v", c.Tolerance)
	}
	if c.BaselineCluster < 0 {
		return fmt.Errorf("baseline_cluster must be non-negative, got %d", c.BaselineCluster)
	}
	if c.Enabled && c.ArabicaPath == "" && c.RobustaPath == "" {
		return fmt.Errorf("enabled quality enrichment needs arabica_path or robusta_path")
	}
	return nil
}
