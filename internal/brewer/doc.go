// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

/*
Package brewer is the service facade over the brewing core.

An Engine owns the published model snapshot and exposes the operations the
HTTP server and the brewctl CLI call:

  - Train and Retrain fit new models and publish them atomically
  - PredictFlavorProfile and AnalyzeFeatureImpact run the forward model
  - SuggestBrewingParameters and OptimizeBlend solve the inverse problem
  - RecordFeedback appends a rated brew to the sample log
  - Status, Reload and Artifacts report and refresh the model state

Training is serialized by a non-blocking lock; a second concurrent call
fails with ErrTrainingInProgress. Prediction and suggestion requests read
the snapshot once and never wait for training.

# Persistence

With WithArtifactStore every successful run is written to disk before it
is published, old versions are pruned, and Reload picks up versions
written by another process. Sample and suggestion storage are injected
through the SampleSource, SampleSink and SuggestionStore interfaces.

# Caching

Suggestions are cached per model version and request. Degraded and
timed-out results are never cached, and the cache is cleared on every
publish.
*/
package brewer
