// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package brewer

import (
	"fmt"
	"time"

	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/optimize"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/training"
	"github.com/NaomiGonz/AICoffee-Machine/internal/config"
)

// Config holds engine configuration.
type Config struct {
	Training  training.Config
	Optimizer optimize.Config

	// TrainingTimeout bounds one training run. Zero means no limit.
	TrainingTimeout time.Duration

	// KeepVersions is the number of artifact versions kept after a
	// successful training run. Zero keeps everything.
	KeepVersions int

	// ClusterEnrichment trains with the quality_cluster feature and warm
	// starts suggestions from the flavor heuristic. It needs a clustering
	// set with SetClustering.
	ClusterEnrichment bool

	CacheEnabled  bool
	CacheTTL      time.Duration
	CacheCapacity int
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		Training:        training.DefaultConfig(),
		Optimizer:       optimize.DefaultConfig(),
		TrainingTimeout: 10 * time.Minute,
		KeepVersions:    5,
		CacheEnabled:    true,
		CacheTTL:        5 * time.Minute,
		CacheCapacity:   1000,
	}
}

// FromAppConfig builds the engine configuration from the application
// configuration.
func FromAppConfig(c *config.Config) *Config {
	return &Config{
		Training:          c.Training.Trainer(),
		Optimizer:         c.Optimizer,
		TrainingTimeout:   c.Training.Timeout,
		KeepVersions:      c.Artifacts.KeepVersions,
		ClusterEnrichment: c.Quality.Enabled,
		CacheEnabled:      c.Cache.Enabled,
		CacheTTL:          c.Cache.TTL,
		CacheCapacity:     c.Cache.Capacity,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := c.Training.Validate(); err != nil {
		return fmt.Errorf("training: %w", err)
	}
	if err := c.Optimizer.Validate(); err != nil {
		return err
	}
	if c.TrainingTimeout < 0 {
		return fmt.Errorf("training timeout must be non-negative, got %v", c.TrainingTimeout)
	}
	if c.KeepVersions < 0 {
		return fmt.Errorf("keep_versions must be non-negative, got %d", c.KeepVersions)
	}
	if c.CacheEnabled && (c.CacheTTL <= 0 || c.CacheCapacity < 1) {
		return fmt.Errorf("cache ttl and capacity must be positive when caching is enabled")
	}
	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Training.Families = append([]string(nil), c.Training.Families...)
	return &cp
}
