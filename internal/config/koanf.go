// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/optimize"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/quality"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/training"
	"github.com/NaomiGonz/AICoffee-Machine/internal/logging"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/aicoffee/config.yaml",
	"/etc/aicoffee/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	tc := training.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8080,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      60 * time.Second, // suggestions may run up to optimizer.timeout
			ShutdownTimeout:   30 * time.Second,
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
		},
		Logging: logging.DefaultConfig(),
		Samples: SamplesConfig{
			Path:            "/data/brewing.duckdb",
			MaxMemory:       "512MB",
			Threads:         2,
			BreakerFailures: 3,
			BreakerTimeout:  time.Minute,
		},
		Artifacts: ArtifactsConfig{
			Dir:           "/data/models",
			KeepVersions:  5,
			Watch:         true,
			WatchDebounce: 500 * time.Millisecond,
		},
		Suggestions: SuggestionsConfig{
			Dir:        "/data/suggestions",
			TTL:        7 * 24 * time.Hour,
			GCInterval: 10 * time.Minute,
		},
		Training: TrainingConfig{
			MinSamples:      tc.MinSamples,
			TestSize:        tc.TestSize,
			Folds:           tc.Folds,
			Seed:            tc.Seed,
			Families:        tc.Families,
			Workers:         tc.Workers,
			Interval:        24 * time.Hour,
			OnStartup:       true,
			Timeout:         10 * time.Minute,
			TriggersPerHour: 6,
		},
		Optimizer: optimize.DefaultConfig(),
		Quality:   quality.DefaultConfig(),
		Cache: CacheConfig{
			Enabled:  true,
			TTL:      5 * time.Minute,
			Capacity: 1000,
		},
	}
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return defaultConfig()
}

// Load loads configuration with layered sources:
//  1. Defaults: Built-in defaults
//  2. .env: Loaded into the process environment if present
//  3. Config File: Optional YAML config file (if exists)
//  4. Environment Variables: Override any setting
func Load() (*Config, error) {
	// A missing .env is the normal case outside development.
	_ = godotenv.Load()

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.Logging.Output = os.Stderr

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first config file found, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed as comma-separated lists when they arrive
// from the environment.
var sliceConfigPaths = []string{
	"server.cors_origins",
	"training.families",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to config paths.
var envMappings = map[string]string{
	// Server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"cors_origins":          "server.cors_origins",
	"rate_limit_requests":   "server.rate_limit_requests",
	"rate_limit_window":     "server.rate_limit_window",

	// Logging
	"log_level":     "logging.level",
	"log_format":    "logging.format",
	"log_caller":    "logging.caller",
	"log_timestamp": "logging.timestamp",

	// Sample log
	"duckdb_path":              "samples.path",
	"duckdb_max_memory":        "samples.max_memory",
	"duckdb_threads":           "samples.threads",
	"samples_breaker_failures": "samples.breaker_failures",
	"samples_breaker_timeout":  "samples.breaker_timeout",

	// Artifacts
	"artifacts_dir":            "artifacts.dir",
	"artifacts_keep_versions":  "artifacts.keep_versions",
	"artifacts_watch":          "artifacts.watch",
	"artifacts_watch_debounce": "artifacts.watch_debounce",

	// Suggestions
	"suggestions_dir":         "suggestions.dir",
	"suggestions_ttl":         "suggestions.ttl",
	"suggestions_gc_interval": "suggestions.gc_interval",

	// Training
	"training_min_samples":       "training.min_samples",
	"training_test_size":         "training.test_size",
	"training_folds":             "training.folds",
	"training_seed":              "training.seed",
	"training_families":          "training.families",
	"training_workers":           "training.workers",
	"training_interval":          "training.interval",
	"training_on_startup":        "training.on_startup",
	"training_timeout":           "training.timeout",
	"training_triggers_per_hour": "training.triggers_per_hour",

	// Optimizer
	"optimizer_candidates":              "optimizer.candidates",
	"optimizer_batch_size":              "optimizer.batch_size",
	"optimizer_workers":                 "optimizer.workers",
	"optimizer_warm_start_fraction":     "optimizer.warm_start_fraction",
	"optimizer_temperature_prior_width": "optimizer.temperature_prior_width",
	"optimizer_dose_follows_cup":        "optimizer.dose_follows_cup",
	"optimizer_ratio":                   "optimizer.ratio",
	"optimizer_refine_iterations":       "optimizer.refine_iterations",
	"optimizer_timeout":                 "optimizer.timeout",
	"optimizer_seed":                    "optimizer.seed",

	// Quality clusters
	"quality_enabled":      "quality.enabled",
	"quality_arabica_path": "quality.arabica_path",
	"quality_robusta_path": "quality.robusta_path",
	"quality_max_clusters": "quality.max_clusters",
	"quality_seed":         "quality.seed",

	// Cache
	"cache_enabled":  "cache.enabled",
	"cache_ttl":      "cache.ttl",
	"cache_capacity": "cache.capacity",
}

// envTransformFunc maps environment variable names to koanf paths.
// Unknown variables return "" and are ignored.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - OPTIMIZER_CANDIDATES -> optimizer.candidates
//   - DUCKDB_PATH -> samples.path
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
