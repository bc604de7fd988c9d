// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

/*
Package config loads the brewing service configuration.

# Configuration Sources

Sources are layered, later ones winning:
  - Built-in defaults (defaultConfig)
  - A .env file in the working directory, loaded into the environment
  - An optional YAML file: $CONFIG_PATH, ./config.yaml or /etc/aicoffee/config.yaml
  - Environment variables listed in envMappings

# Sections

  - server: bind address, timeouts, CORS origins, per-IP rate limit
  - logging: level and format (see package logging)
  - samples: DuckDB sample log path and circuit breaker
  - artifacts: model artifact directory, retention, watcher
  - suggestions: Badger store for issued suggestions
  - training: trainer settings plus retrain schedule and trigger limit
  - optimizer: parameter and blend optimizer (see package optimize)
  - quality: reference datasets and clustering (see package quality)
  - cache: suggestion response cache

# Environment Variables

A few examples:

	HTTP_PORT=9090
	LOG_LEVEL=debug
	DUCKDB_PATH=/var/lib/aicoffee/brewing.duckdb
	ARTIFACTS_DIR=/var/lib/aicoffee/models
	OPTIMIZER_CANDIDATES=2000
	TRAINING_FAMILIES=linear,random_forest
	QUALITY_ENABLED=true
	QUALITY_ARABICA_PATH=/data/arabica.csv

Comma-separated values are split for server.cors_origins and
training.families.
*/
package config
