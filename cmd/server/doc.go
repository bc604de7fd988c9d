// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

/*
Package main is the entry point for the AICoffee-Machine brewing server.

The server predicts the flavor profile of brewing parameters, suggests
parameters and bean blends for a desired flavor, and learns from rated
brews recorded through the feedback endpoint.

# Application Architecture

Services run under a Suture v4 supervisor tree:

	RootSupervisor ("aicoffee")
	├── DataSupervisor ("data-layer")
	│   ├── Artifact watcher (fsnotify, reloads models published by brewctl)
	│   ├── Suggestion GC (Badger value-log GC)
	│   └── Cache sweep (drops expired cached suggestions)
	├── TrainingSupervisor ("training-layer")
	│   └── Retrain service (startup, schedule, rate-limited triggers)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (chi router)

Component initialization order:

 1. Configuration: Koanf v2 with .env, config file and environment variables
 2. Logging: zerolog with JSON/console output modes
 3. Sample log: DuckDB, read through a gobreaker circuit breaker
 4. Suggestion store: BadgerDB with TTL
 5. Artifact store: versioned gob+gzip model files and a JSON manifest
 6. Quality clusters: fitted from the reference CSVs when enabled
 7. Engine: publishes the newest models found on disk
 8. Supervisor Tree and HTTP server

# Configuration

Priority: Environment variables > Config file > Defaults

	HTTP_PORT=8080
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console
	DUCKDB_PATH=/data/brewing.duckdb
	ARTIFACTS_DIR=/data/models
	SUGGESTIONS_DIR=/data/suggestions
	TRAINING_INTERVAL=24h
	TRAINING_FAMILIES=linear,tree,forest,boosting
	QUALITY_ENABLED=true
	QUALITY_ARABICA_PATH=/data/arabica.csv
	QUALITY_ROBUSTA_PATH=/data/robusta.csv

See internal/config for the full list.

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains
in-flight requests for up to HTTP_SHUTDOWN_TIMEOUT, then the stores are
closed.
*/
package main
