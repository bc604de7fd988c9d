// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/NaomiGonz/AICoffee-Machine/internal/brew"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/encoding"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/regressors"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/storage"
)

// modelArtifact is the payload of a model_{target} artifact.
type modelArtifact struct {
	Target   string
	Family   string
	Features []string
	State    regressors.State
	Metrics  Metrics
}

// Save writes every artifact of snap under snap.Version() and then commits
// the manifest. The store's writer lock is held for the whole sequence.
func Save(ctx context.Context, store *storage.Store, snap *Snapshot, durationMS int64) (*storage.Manifest, error) {
	unlock, err := store.Lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	enc := snap.Encoder()
	if enc == nil || enc.Scaler() == nil {
		return nil, errors.New("snapshot has no fitted encoder")
	}
	version := snap.Version()
	base := storage.ArtifactMetadata{
		Version:            version,
		RunID:              snap.RunID(),
		TrainedAt:          snap.TrainedAt(),
		SampleCount:        snap.SampleCount(),
		TrainingDurationMS: durationMS,
	}

	spec := enc.Spec()
	manifest := &storage.Manifest{
		Version:                 version,
		RunID:                   snap.RunID(),
		TrainedAt:               snap.TrainedAt(),
		SampleCount:             snap.SampleCount(),
		FeatureColumns:          enc.Columns(),
		NumericColumns:          append([]string(nil), spec.Numeric...),
		CategoricalColumns:      append([]string(nil), spec.Categorical...),
		TargetColumns:           append([]string(nil), spec.Targets...),
		CategoricalVocabularies: make(map[string][]string, len(spec.Categorical)),
		Encoders:                make(map[string]string, len(spec.Categorical)),
		Models:                  make(map[string]storage.ManifestModel),
		CupSizes:                brew.CupSizes(),
		DefaultRatio:            brew.DefaultRatio,
		GrindSize:               brew.GrindSize,
		ClusterEnrichment:       snap.ClusterEnrichment(),
		Baseline: storage.Baseline{
			Numeric:     snap.baseline.Numeric,
			Categorical: snap.baseline.Categorical,
		},
	}

	for _, col := range spec.Categorical {
		oh, ok := enc.OneHot(col)
		if !ok {
			return nil, &brew.EncodingError{Column: col, Reason: "no fitted encoder to persist"}
		}
		name := storage.EncoderName(col)
		meta := base
		meta.Kind = storage.KindEncoder
		if err := store.Save(ctx, name, version, *oh, meta); err != nil {
			return nil, fmt.Errorf("save %s: %w", name, err)
		}
		manifest.Encoders[col] = name
		manifest.CategoricalVocabularies[col] = append([]string(nil), oh.Categories...)
	}

	for _, target := range snap.Targets() {
		model, err := snap.Get(ctx, target)
		if err != nil {
			return nil, err
		}
		state, err := regressors.Snapshot(model.Regressor)
		if err != nil {
			return nil, fmt.Errorf("snapshot %s model: %w", target, err)
		}

		modelName := storage.ModelName(target)
		meta := base
		meta.Kind = storage.KindModel
		payload := modelArtifact{
			Target:   target,
			Family:   model.Family,
			Features: model.Features,
			State:    state,
			Metrics:  model.Metrics,
		}
		if err := store.Save(ctx, modelName, version, payload, meta); err != nil {
			return nil, fmt.Errorf("save %s: %w", modelName, err)
		}

		scalerName := storage.ScalerName(target)
		meta.Kind = storage.KindScaler
		if err := store.Save(ctx, scalerName, version, *enc.Scaler(), meta); err != nil {
			return nil, fmt.Errorf("save %s: %w", scalerName, err)
		}

		manifest.Models[target] = storage.ManifestModel{
			Family:   model.Family,
			Artifact: modelName,
			Scaler:   scalerName,
			TestMSE:  model.Metrics.MSE,
			TestMAE:  model.Metrics.MAE,
			TestR2:   model.Metrics.R2,
		}
	}

	if err := store.WriteManifest(ctx, manifest); err != nil {
		return nil, err
	}
	return manifest, nil
}

// Load restores the committed snapshot. Models load lazily on first use.
// Missing encoder or scaler artifacts are logged and surface later as
// *brew.EncodingError when inference needs them.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Load(ctx context.Context, store *storage.Store, logger zerolog.Logger) (*Snapshot, error) {
	manifest, err := store.ReadManifest(ctx)
	if err != nil {
		return nil, err
	}

	spec := encoding.Spec{
		Numeric:     manifest.NumericColumns,
		Categorical: manifest.CategoricalColumns,
		Targets:     manifest.TargetColumns,
	}

	onehots := make(map[string]*encoding.OneHot, len(spec.Categorical))
	for _, col := range spec.Categorical {
		name, ok := manifest.Encoders[col]
		if !ok {
			logger.Warn().Str("column", col).Msg("manifest lists no encoder for categorical column")
			continue
		}
		var oh encoding.OneHot
		if _, err := store.Load(ctx, name, manifest.Version, &oh); err != nil {
			logger.Warn().Err(err).Str("artifact", name).Msg("encoder artifact unavailable")
			continue
		}
		onehots[col] = &oh
	}

	targets := make([]string, 0, len(manifest.Models))
	for t := range manifest.Models {
		targets = append(targets, t)
	}
	sort.Strings(targets)

	var scaler *encoding.Scaler
	for _, t := range targets {
		var s encoding.Scaler
		name := manifest.Models[t].Scaler
		if _, err := store.Load(ctx, name, manifest.Version, &s); err != nil {
			logger.Warn().Err(err).Str("artifact", name).Msg("scaler artifact unavailable")
			continue
		}
		scaler = &s
		break
	}

	baseline := brew.NewRow()
	for k, v := range manifest.Baseline.Numeric {
		baseline.Numeric[k] = v
	}
	for k, v := range manifest.Baseline.Categorical {
		baseline.Categorical[k] = v
	}

	return NewSnapshot(SnapshotOptions{
		Version:           manifest.Version,
		RunID:             manifest.RunID,
		TrainedAt:         manifest.TrainedAt,
		SampleCount:       manifest.SampleCount,
		Encoder:           encoding.FromState(spec, manifest.FeatureColumns, onehots, scaler),
		Repository:        NewLazyRepository(store, manifest, logger),
		Baseline:          baseline,
		ClusterEnrichment: manifest.ClusterEnrichment,
	}), nil
}

// LazyRepository loads model artifacts on first access and caches them.
type LazyRepository struct {
	store   *storage.Store
	version int
	logger  zerolog.Logger
	entries map[string]*lazyEntry
}

type lazyEntry struct {
	mu       sync.Mutex
	artifact string
	model    *Model
}

var _ ModelRepository = (*LazyRepository)(nil)

// NewLazyRepository serves the models listed in manifest.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewLazyRepository(store *storage.Store, manifest *storage.Manifest, logger zerolog.Logger) *LazyRepository {
	entries := make(map[string]*lazyEntry, len(manifest.Models))
	for target, m := range manifest.Models {
		entries[target] = &lazyEntry{artifact: m.Artifact}
	}
	return &LazyRepository{
		store:   store,
		version: manifest.Version,
		logger:  logger,
		entries: entries,
	}
}

// Get loads the model for target on first use. Load failures are not
// cached, so a transient read error can succeed on a later call.
func (r *LazyRepository) Get(ctx context.Context, target string) (*Model, error) {
	e, ok := r.entries[target]
	if !ok {
		return nil, &brew.ModelNotTrainedError{Target: target}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.model != nil {
		return e.model, nil
	}

	var payload modelArtifact
	if _, err := r.store.Load(ctx, e.artifact, r.version, &payload); err != nil {
		r.logger.Warn().Err(err).Str("artifact", e.artifact).Msg("model artifact unavailable")
		return nil, fmt.Errorf("%w: %w", &brew.ModelNotTrainedError{Target: target}, err)
	}
	reg, err := regressors.Restore(payload.State)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", &brew.ModelNotTrainedError{Target: target}, err)
	}

	e.model = &Model{
		Target:    target,
		Family:    payload.Family,
		Features:  payload.Features,
		Regressor: reg,
		Metrics:   payload.Metrics,
	}
	return e.model, nil
}

// Targets returns the targets listed in the manifest.
func (r *LazyRepository) Targets() []string {
	out := make([]string, 0, len(r.entries))
	for t := range r.entries {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
