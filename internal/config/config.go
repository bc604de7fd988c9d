// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/optimize"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/quality"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/training"
	"github.com/NaomiGonz/AICoffee-Machine/internal/logging"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Logging     logging.Config    `koanf:"logging"`
	Samples     SamplesConfig     `koanf:"samples"`
	Artifacts   ArtifactsConfig   `koanf:"artifacts"`
	Suggestions SuggestionsConfig `koanf:"suggestions"`
	Training    TrainingConfig    `koanf:"training"`
	Optimizer   optimize.Config   `koanf:"optimizer"`
	Quality     quality.Config    `koanf:"quality"`
	Cache       CacheConfig       `koanf:"cache"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`

	// RateLimitRequests per RateLimitWindow per client IP. Zero disables
	// the limiter.
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SamplesConfig holds the DuckDB brewing sample log settings.
type SamplesConfig struct {
	// Path of the database file. Empty opens an in-memory database.
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"`

	// BreakerFailures consecutive failed reads open the circuit breaker
	// for BreakerTimeout.
	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
}

// ArtifactsConfig holds the model artifact directory settings.
type ArtifactsConfig struct {
	Dir string `koanf:"dir"`

	// KeepVersions is the number of training runs retained on disk.
	// Zero keeps everything.
	KeepVersions int `koanf:"keep_versions"`

	// Watch reloads the registry when another process publishes a new
	// manifest into Dir.
	Watch         bool          `koanf:"watch"`
	WatchDebounce time.Duration `koanf:"watch_debounce"`
}

// SuggestionsConfig holds the issued-suggestion store settings.
type SuggestionsConfig struct {
	// Dir of the Badger database. Empty keeps suggestions in memory.
	Dir string        `koanf:"dir"`
	TTL time.Duration `koanf:"ttl"`

	// GCInterval is how often Badger value-log GC runs.
	GCInterval time.Duration `koanf:"gc_interval"`
}

// TrainingConfig holds model training and retraining settings.
type TrainingConfig struct {
	MinSamples int      `koanf:"min_samples"`
	TestSize   float64  `koanf:"test_size"`
	Folds      int      `koanf:"folds"`
	Seed       int64    `koanf:"seed"`
	Families   []string `koanf:"families"`
	Workers    int      `koanf:"workers"`

	// Interval between scheduled retrains from the sample log. Zero
	// disables scheduled retraining.
	Interval time.Duration `koanf:"interval"`

	// OnStartup retrains once when the service starts and no artifacts
	// exist yet.
	OnStartup bool `koanf:"on_startup"`

	// Timeout bounds a single training run.
	Timeout time.Duration `koanf:"timeout"`

	// TriggersPerHour limits manual retrain requests.
	TriggersPerHour int `koanf:"triggers_per_hour"`
}

// Trainer converts the section to a trainer configuration. Per-family
// hyperparameters keep their defaults.
func (t TrainingConfig) Trainer() training.Config {
	cfg := training.DefaultConfig()
	cfg.MinSamples = t.MinSamples
	cfg.TestSize = t.TestSize
	cfg.Folds = t.Folds
	cfg.Seed = t.Seed
	if len(t.Families) > 0 {
		cfg.Families = append([]string(nil), t.Families...)
	}
	if t.Workers > 0 {
		cfg.Workers = t.Workers
	}
	return cfg
}

// CacheConfig holds suggestion response cache settings.
type CacheConfig struct {
	Enabled  bool          `koanf:"enabled"`
	TTL      time.Duration `koanf:"ttl"`
	Capacity int           `koanf:"capacity"`
}

// Validate checks every section and joins the failures.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.RateLimitRequests < 0 {
		errs = append(errs, fmt.Errorf("server.rate_limit_requests must be non-negative, got %d", c.Server.RateLimitRequests))
	}
	if c.Server.RateLimitRequests > 0 && c.Server.RateLimitWindow <= 0 {
		errs = append(errs, fmt.Errorf("server.rate_limit_window must be positive when rate limiting is enabled"))
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format))
	}
	if c.Samples.BreakerFailures == 0 {
		errs = append(errs, fmt.Errorf("samples.breaker_failures must be at least 1"))
	}
	if c.Artifacts.Dir == "" {
		errs = append(errs, fmt.Errorf("artifacts.dir is required"))
	}
	if c.Artifacts.KeepVersions < 0 {
		errs = append(errs, fmt.Errorf("artifacts.keep_versions must be non-negative, got %d", c.Artifacts.KeepVersions))
	}
	if c.Suggestions.TTL <= 0 {
		errs = append(errs, fmt.Errorf("suggestions.ttl must be positive, got %v", c.Suggestions.TTL))
	}
	if c.Training.Interval < 0 {
		errs = append(errs, fmt.Errorf("training.interval must be non-negative, got %v", c.Training.Interval))
	}
	if c.Training.TriggersPerHour < 1 {
		errs = append(errs, fmt.Errorf("training.triggers_per_hour must be at least 1, got %d", c.Training.TriggersPerHour))
	}
	if err := c.Training.Trainer().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("training.%w", err))
	}
	if err := c.Optimizer.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Quality.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("quality.%w", err))
	}
	if c.Cache.Enabled && (c.Cache.TTL <= 0 || c.Cache.Capacity < 1) {
		errs = append(errs, fmt.Errorf("cache.ttl and cache.capacity must be positive when the cache is enabled"))
	}
	return errors.Join(errs...)
}
