// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

/*
Package services provides the suture.Service implementations run by the
supervisor tree.

# Available Services

HTTP Server (HTTPServerService):
  - Runs the brewing API with graceful shutdown

Retraining (RetrainService):
  - Retrains from the sample log on startup and on a fixed interval
  - Accepts manual triggers, rate limited with golang.org/x/time/rate
  - Logs insufficient data and concurrent runs without failing

Artifact Watcher (ArtifactWatcherService):
  - Watches the artifact directory with fsnotify
  - Reloads models when another process commits a new manifest

Suggestion GC (SuggestionGCService):
  - Periodically reclaims space in the Badger suggestion store

Each service returns ctx.Err() on shutdown and a wrapped error on failure,
so suture can decide whether to restart it.
*/
package services
