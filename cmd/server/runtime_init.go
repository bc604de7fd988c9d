// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/storage"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brewer"
	"github.com/NaomiGonz/AICoffee-Machine/internal/config"
	"github.com/NaomiGonz/AICoffee-Machine/internal/samples"
	"github.com/NaomiGonz/AICoffee-Machine/internal/suggestions"
)

// runtime holds the stores and the engine built on them.
type runtime struct {
	samples     *samples.Store
	suggestions *suggestions.Store
	artifacts   *storage.Store
	engine      *brewer.Engine
	logger      zerolog.Logger
}

// openRuntime opens the sample log, suggestion store and artifact
// directory, builds the engine and publishes the newest models on disk.
// Quality clustering and model reload failures are logged, not fatal: the
// server starts degraded and recovers on the next retrain.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func openRuntime(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (_ *runtime, err error) {
	rt := &runtime{logger: logger}
	defer func() {
		if err != nil {
			rt.Close()
		}
	}()

	if rt.samples, err = samples.Open(cfg.Samples, logger); err != nil {
		return nil, fmt.Errorf("open sample store: %w", err)
	}
	if rt.suggestions, err = suggestions.Open(cfg.Suggestions, logger); err != nil {
		return nil, fmt.Errorf("open suggestion store: %w", err)
	}
	if rt.artifacts, err = storage.NewStore(cfg.Artifacts.Dir); err != nil {
		return nil, fmt.Errorf("open artifact store: %w", err)
	}

	source := samples.NewGuardedSource(rt.samples, samples.BreakerConfig{
		Name:             "samples",
		FailureThreshold: cfg.Samples.BreakerFailures,
		Timeout:          cfg.Samples.BreakerTimeout,
	}, logger)

	rt.engine, err = brewer.New(brewer.FromAppConfig(cfg), logger,
		brewer.WithArtifactStore(rt.artifacts),
		brewer.WithSampleSource(source),
		brewer.WithSampleSink(rt.samples),
		brewer.WithSuggestionStore(rt.suggestions),
	)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	clustering, err := brewer.LoadClustering(ctx, cfg.Quality, rt.samples)
	switch {
	case err != nil:
		logger.Warn().Err(err).Msg("Quality clustering unavailable, continuing without cluster enrichment")
	case clustering != nil:
		rt.engine.SetClustering(clustering)
	}

	swapped, err := rt.engine.Reload(ctx)
	switch {
	case err != nil:
		logger.Warn().Err(err).Str("dir", cfg.Artifacts.Dir).Msg("Failed to load published models")
	case swapped:
		logger.Info().Int("version", rt.engine.Snapshot().Version()).Msg("Published models loaded")
	default:
		logger.Info().Msg("No published models yet; suggestions degrade until the first training run")
	}
	return rt, nil
}

// Close releases the stores. It is safe on a partially opened runtime.
func (rt *runtime) Close() {
	var errs []error
	if rt.suggestions != nil {
		errs = append(errs, rt.suggestions.Close())
	}
	if rt.samples != nil {
		errs = append(errs, rt.samples.Close())
	}
	if err := errors.Join(errs...); err != nil {
		rt.logger.Error().Err(err).Msg("Error closing stores")
	}
}
