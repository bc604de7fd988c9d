// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NaomiGonz/AICoffee-Machine/internal/api"
	"github.com/NaomiGonz/AICoffee-Machine/internal/config"
	"github.com/NaomiGonz/AICoffee-Machine/internal/logging"
	"github.com/NaomiGonz/AICoffee-Machine/internal/supervisor"
	"github.com/NaomiGonz/AICoffee-Machine/internal/supervisor/services"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(cfg.Logging)
	logger := logging.Logger()

	logger.Info().
		Str("addr", cfg.Server.Addr()).
		Str("samples", cfg.Samples.Path).
		Str("artifacts", cfg.Artifacts.Dir).
		Str("suggestions", cfg.Suggestions.Dir).
		Bool("cluster_enrichment", cfg.Quality.Enabled).
		Msg("Starting AICoffee-Machine with supervisor tree")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt, err := openRuntime(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize brewing runtime")
	}
	defer rt.Close()

	treeCfg := supervisor.DefaultTreeConfig()
	if cfg.Server.ShutdownTimeout > 0 {
		treeCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout + 5*time.Second
	}
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), treeCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// === ADD SERVICES TO SUPERVISOR TREE ===

	// Training layer. The startup run only happens when nothing was
	// published yet, so a restart does not refit unchanged data.
	retrainSvc := services.NewRetrainService(rt.engine, services.RetrainServiceConfig{
		TrainOnStartup:  cfg.Training.OnStartup && rt.engine.Snapshot() == nil,
		TrainInterval:   cfg.Training.Interval,
		TriggersPerHour: cfg.Training.TriggersPerHour,
	}, logger)
	tree.AddTrainingService(retrainSvc)

	// Data layer
	if cfg.Artifacts.Watch {
		tree.AddDataService(services.NewArtifactWatcherService(rt.engine, cfg.Artifacts.Dir, cfg.Artifacts.WatchDebounce, logger))
		logger.Info().Str("dir", cfg.Artifacts.Dir).Msg("Artifact watcher added to supervisor tree")
	}
	if cfg.Cache.Enabled {
		tree.AddDataService(services.NewCacheSweepService(rt.engine, cfg.Cache.TTL, logger))
	}
	if cfg.Suggestions.Dir != "" {
		tree.AddDataService(services.NewSuggestionGCService(rt.suggestions, cfg.Suggestions.GCInterval))
	}

	// API layer
	handler := api.NewHandler(rt.engine,
		api.WithRetrainTrigger(retrainSvc),
		api.WithSampleReader(rt.samples),
		api.WithSuggestionReader(rt.suggestions),
	)
	server := &http.Server{
		Addr: cfg.Server.Addr(),
		Handler: api.NewRouter(handler, api.RouterConfig{
			Middleware:     api.ChiMiddlewareConfigFromServer(cfg.Server),
			RequestTimeout: cfg.Server.WriteTimeout,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logger.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// === START SUPERVISOR TREE ===

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logger.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// Wait for supervisor to finish (either from signal or error). The
	// channel delivers exactly one value.
	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("Context canceled, waiting for supervisor to finish...")
		serveErr = <-errCh
	case serveErr = <-errCh:
	}
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		logger.Error().Err(serveErr).Msg("Supervisor tree error")
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logger.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logger.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logger.Info().Msg("Application stopped gracefully")
}
