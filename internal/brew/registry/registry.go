// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

// Package registry holds the trained model set that predictions read from.
//
// A [Snapshot] is an immutable bundle of one training version: the fitted
// encoder, one model per target and the manifest schema. Readers take a
// snapshot once per request and never observe a half-updated registry.
// Retraining builds a new snapshot and publishes it through [Holder].
package registry

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/NaomiGonz/AICoffee-Machine/internal/brew"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/encoding"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/regressors"
)

// Metrics are the held-out evaluation results for one target.
type Metrics struct {
	MSE       float64 `json:"mse"`
	MAE       float64 `json:"mae"`
	R2        float64 `json:"r2"`
	TrainSize int     `json:"train_size"`
	TestSize  int     `json:"test_size"`

	// CVScores is the mean negative MSE per family from cross-validation.
	CVScores map[string]float64 `json:"cv_scores,omitempty"`

	// FeatureImportance maps feature name to importance. Nil for linear models.
	FeatureImportance map[string]float64 `json:"feature_importance,omitempty"`
}

// Model is a fitted regressor for one target together with the feature
// names it was fitted on.
type Model struct {
	Target    string
	Family    string
	Features  []string
	Regressor regressors.Regressor
	Metrics   Metrics
}

// ModelRepository resolves the model for a target.
type ModelRepository interface {
	// Get returns the model for target or *brew.ModelNotTrainedError.
	Get(ctx context.Context, target string) (*Model, error)

	// Targets returns the targets with a committed model, sorted.
	Targets() []string
}

// MemoryRepository serves models held in memory.
type MemoryRepository struct {
	models map[string]*Model
}

var _ ModelRepository = (*MemoryRepository)(nil)

// NewMemoryRepository wraps a target-to-model map.
func NewMemoryRepository(models map[string]*Model) *MemoryRepository {
	cp := make(map[string]*Model, len(models))
	for k, v := range models {
		cp[k] = v
	}
	return &MemoryRepository{models: cp}
}

// Get returns the model for target.
func (r *MemoryRepository) Get(_ context.Context, target string) (*Model, error) {
	if m, ok := r.models[target]; ok {
		return m, nil
	}
	return nil, &brew.ModelNotTrainedError{Target: target}
}

// Targets returns the targets with a model.
func (r *MemoryRepository) Targets() []string {
	out := make([]string, 0, len(r.models))
	for t := range r.models {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Snapshot is one immutable training version.
type Snapshot struct {
	version           int
	runID             string
	trainedAt         time.Time
	sampleCount       int
	encoder           *encoding.Encoder
	repo              ModelRepository
	baseline          brew.Row
	clusterEnrichment bool
}

// SnapshotOptions configures NewSnapshot.
type SnapshotOptions struct {
	Version           int
	RunID             string
	TrainedAt         time.Time
	SampleCount       int
	Encoder           *encoding.Encoder
	Repository        ModelRepository
	Baseline          brew.Row
	ClusterEnrichment bool
}

// NewSnapshot builds a snapshot.
//
//nolint:gocritic // options passed by value are copied into the snapshot
func NewSnapshot(opts SnapshotOptions) *Snapshot {
	return &Snapshot{
		version:           opts.Version,
		runID:             opts.RunID,
		trainedAt:         opts.TrainedAt,
		sampleCount:       opts.SampleCount,
		encoder:           opts.Encoder,
		repo:              opts.Repository,
		baseline:          opts.Baseline.Clone(),
		clusterEnrichment: opts.ClusterEnrichment,
	}
}

// Version returns the training version.
func (s *Snapshot) Version() int { return s.version }

// RunID returns the training run identifier.
func (s *Snapshot) RunID() string { return s.runID }

// TrainedAt returns when training finished.
func (s *Snapshot) TrainedAt() time.Time { return s.trainedAt }

// SampleCount returns the number of training samples.
func (s *Snapshot) SampleCount() int { return s.sampleCount }

// Encoder returns the fitted encoder.
func (s *Snapshot) Encoder() *encoding.Encoder { return s.encoder }

// ClusterEnrichment reports whether models were trained with the quality
// cluster feature.
func (s *Snapshot) ClusterEnrichment() bool { return s.clusterEnrichment }

// Baseline returns a copy of the impact-sweep reference row.
func (s *Snapshot) Baseline() brew.Row { return s.baseline.Clone() }

// Get returns the model for target.
func (s *Snapshot) Get(ctx context.Context, target string) (*Model, error) {
	if s == nil || s.repo == nil {
		return nil, &brew.ModelNotTrainedError{Target: target}
	}
	return s.repo.Get(ctx, target)
}

// Targets returns the targets with a committed model.
func (s *Snapshot) Targets() []string {
	if s == nil || s.repo == nil {
		return nil
	}
	return s.repo.Targets()
}

// Holder publishes the current snapshot. Loads never block on a swap.
type Holder struct {
	current atomic.Pointer[Snapshot]
	mu      sync.Mutex
}

// Load returns the current snapshot, or nil before the first publish.
func (h *Holder) Load() *Snapshot {
	return h.current.Load()
}

// Swap publishes next and returns the previous snapshot.
func (h *Holder) Swap(next *Snapshot) *Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.current.Swap(next)
}

// SwapIfNewer publishes next only if its version exceeds the current one.
func (h *Holder) SwapIfNewer(next *Snapshot) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if cur := h.current.Load(); cur != nil && cur.Version() >= next.Version() {
		return false
	}
	h.current.Store(next)
	return true
}
