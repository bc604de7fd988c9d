// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package services

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/storage"
)

// Reloader publishes models found on disk. *brewer.Engine implements it.
type Reloader interface {
	Reload(ctx context.Context) (bool, error)
}

// ArtifactWatcherService reloads models whenever the manifest in the
// artifact directory changes, so models trained by another process (such
// as brewctl train) are served without a restart. Bursts of events are
// debounced.
type ArtifactWatcherService struct {
	engine   Reloader
	dir      string
	debounce time.Duration
	logger   zerolog.Logger
	name     string
}

// NewArtifactWatcherService creates a watcher over dir.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewArtifactWatcherService(engine Reloader, dir string, debounce time.Duration, logger zerolog.Logger) *ArtifactWatcherService {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &ArtifactWatcherService{
		engine:   engine,
		dir:      dir,
		debounce: debounce,
		logger:   logger.With().Str("service", "artifact-watcher").Logger(),
		name:     "artifact-watcher",
	}
}

// Serve implements suture.Service. It reloads once on start so a manifest
// written while the service was down is not missed.
func (w *ArtifactWatcherService) Serve(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.logger.Info().Str("dir", w.dir).Msg("watching artifact directory")
	w.reload(ctx)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher event channel closed")
			}
			if filepath.Base(event.Name) != storage.ManifestFile {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
				continue
			}
			timer.Reset(w.debounce)

		case <-timer.C:
			w.reload(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			w.logger.Warn().Err(err).Msg("artifact watcher error")
		}
	}
}

func (w *ArtifactWatcherService) reload(ctx context.Context) {
	swapped, err := w.engine.Reload(ctx)
	if err != nil {
		w.logger.Warn().Err(err).Msg("model reload failed")
		return
	}
	if swapped {
		w.logger.Info().Msg("published models reloaded from disk")
	}
}

// String returns the service name for logging.
func (w *ArtifactWatcherService) String() string {
	return w.name
}
