// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package brewer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/NaomiGonz/AICoffee-Machine/internal/brew"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/encoding"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/optimize"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/quality"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/registry"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/storage"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/training"
	"github.com/NaomiGonz/AICoffee-Machine/internal/cache"
	"github.com/NaomiGonz/AICoffee-Machine/internal/logging"
	"github.com/NaomiGonz/AICoffee-Machine/internal/metrics"
	"github.com/NaomiGonz/AICoffee-Machine/internal/suggestions"
)

var (
	// ErrTrainingInProgress is returned when a training run is already active.
	ErrTrainingInProgress = errors.New("training already in progress")

	// ErrNoSampleSource is returned by Retrain without a sample source.
	ErrNoSampleSource = errors.New("no sample source configured")

	// ErrNoArtifactStore is returned by Reload without an artifact store.
	ErrNoArtifactStore = errors.New("no artifact store configured")

	// ErrClusteringUnavailable is returned when quality clusters are not loaded.
	ErrClusteringUnavailable = errors.New("quality clustering is not available")

	// ErrNoSuggestionStore is returned when feedback names a suggestion but
	// suggestions are not recorded.
	ErrNoSuggestionStore = errors.New("no suggestion store configured")
)

// SampleSource supplies training samples. *samples.Store and
// *samples.GuardedSource implement it.
type SampleSource interface {
	LoadSamples(ctx context.Context) ([]brew.BrewingSample, error)
}

// SampleSink appends rated brews. *samples.Store implements it.
type SampleSink interface {
	Append(ctx context.Context, sample brew.BrewingSample) (brew.BrewingSample, error)
}

// SuggestionStore records issued suggestions. *suggestions.Store
// implements it.
type SuggestionStore interface {
	Put(ctx context.Context, rec *suggestions.Record) error
	Get(ctx context.Context, id string) (*suggestions.Record, error)
	MarkRated(ctx context.Context, id, sampleID string) error
}

// Option configures an Engine.
type Option func(*Engine)

// WithArtifactStore persists trained models and enables Reload.
func WithArtifactStore(s *storage.Store) Option {
	return func(e *Engine) { e.artifacts = s }
}

// WithSampleSource sets where Retrain reads samples from.
func WithSampleSource(src SampleSource) Option {
	return func(e *Engine) { e.source = src }
}

// WithSampleSink sets where RecordFeedback appends samples.
func WithSampleSink(sink SampleSink) Option {
	return func(e *Engine) { e.sink = sink }
}

// WithSuggestionStore records issued suggestions for later feedback.
func WithSuggestionStore(s SuggestionStore) Option {
	return func(e *Engine) { e.suggestions = s }
}

// TrainingStatus describes the current and last training run.
type TrainingStatus struct {
	IsTraining     bool             `json:"is_training"`
	RunID          string           `json:"run_id,omitempty"`
	LastRun        *training.Report `json:"last_run,omitempty"`
	LastError      string           `json:"last_error,omitempty"`
	LastFinishedAt time.Time        `json:"last_finished_at,omitempty"`
	LastDurationMS int64            `json:"last_duration_ms"`
}

// TargetStatus is the model serving one target.
type TargetStatus struct {
	Family  string           `json:"family"`
	Metrics registry.Metrics `json:"metrics"`
}

// Status is a point-in-time view of the engine.
type Status struct {
	Training          TrainingStatus          `json:"training"`
	ModelVersion      int                     `json:"model_version"`
	ModelRunID        string                  `json:"model_run_id,omitempty"`
	TrainedAt         time.Time               `json:"trained_at,omitempty"`
	SampleCount       int                     `json:"sample_count"`
	Targets           map[string]TargetStatus `json:"targets"`
	ClusterEnrichment bool                    `json:"cluster_enrichment"`
	Clusters          int                     `json:"clusters"`
	CacheStats        *cache.Stats            `json:"cache,omitempty"`
}

// Engine is the brewing service facade. It owns the published model
// snapshot and coordinates training, prediction, suggestion and feedback.
// It is safe for concurrent use; readers never block on training.
type Engine struct {
	cfg    *Config
	logger zerolog.Logger

	trainer *training.Trainer
	holder  registry.Holder

	clustering atomic.Pointer[quality.Clustering]

	artifacts   *storage.Store
	source      SampleSource
	sink        SampleSink
	suggestions SuggestionStore

	cache *cache.Cache[*optimize.Result]

	trainMu     sync.Mutex
	statusMu    sync.RWMutex
	trainStatus TrainingStatus
}

// New creates an engine with no published model.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(cfg *Config, logger zerolog.Logger, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	cfg = cfg.Clone()
	logger = logger.With().Str("component", "brewer").Logger()

	trainer, err := training.New(cfg.Training, logger)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:     cfg,
		logger:  logger,
		trainer: trainer,
	}
	if cfg.CacheEnabled {
		e.cache = cache.New[*optimize.Result](cfg.CacheCapacity, cfg.CacheTTL)
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() *Config {
	return e.cfg.Clone()
}

// SetClustering installs the quality clustering used for enrichment and
// cluster insights. A nil clustering disables both.
func (e *Engine) SetClustering(c *quality.Clustering) {
	e.clustering.Store(c)
	if c != nil {
		e.logger.Info().Int("clusters", c.K()).Float64("inertia", c.Inertia()).Msg("quality clustering installed")
	}
}

// Snapshot returns the published model snapshot, or nil.
func (e *Engine) Snapshot() *registry.Snapshot {
	return e.holder.Load()
}

// Publish makes snap the serving snapshot regardless of version.
func (e *Engine) Publish(snap *registry.Snapshot, source string) {
	e.holder.Swap(snap)
	e.invalidateCache()
	if snap != nil {
		metrics.RecordRegistrySwap(source, snap.Version())
	}
}

func (e *Engine) enrichmentActive() bool {
	return e.cfg.ClusterEnrichment && e.clustering.Load() != nil
}

// TrainOptions override the trainer configuration for one run.
type TrainOptions struct {
	TestSize float64
	Seed     int64
}

// Train fits new models from samples and publishes them. The previous
// snapshot keeps serving until the new one is fully built and persisted.
// Too few samples return the report with status insufficient_data and a
// *brew.InsufficientDataError; the serving snapshot is left unchanged.
func (e *Engine) Train(ctx context.Context, samples []brew.BrewingSample, opts TrainOptions) (*training.Report, error) {
	if !e.trainMu.TryLock() {
		return nil, ErrTrainingInProgress
	}
	defer e.trainMu.Unlock()

	runID := logging.NewID()
	// The run logger also carries the request ID of an HTTP-triggered run.
	ctx = logging.ContextWithLogger(logging.ContextWithRunID(ctx, runID), e.logger)
	logger := *logging.Ctx(ctx)

	start := time.Now()
	e.setTraining(runID)

	if e.cfg.TrainingTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.TrainingTimeout)
		defer cancel()
	}

	report, err := e.train(ctx, samples, opts, runID, logger)
	e.finishTraining(report, err, start)

	status := training.StatusFailed
	if report != nil {
		status = report.Status
	}
	metrics.RecordTraining(status, len(samples), time.Since(start))
	return report, err
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) train(ctx context.Context, samples []brew.BrewingSample, opts TrainOptions, runID string, logger zerolog.Logger) (*training.Report, error) {
	rows := make([]brew.Row, len(samples))
	for i := range samples {
		rows[i] = samples[i].Row()
	}
	enrich := e.enrichmentActive()
	if enrich {
		rows = e.clustering.Load().Enrich(rows)
	} else if e.cfg.ClusterEnrichment {
		logger.Warn().Msg("cluster enrichment enabled but no clustering loaded, training without quality_cluster")
	}

	version := e.nextVersion()
	logger.Info().Int("samples", len(rows)).Int("version", version).Bool("cluster_enrichment", enrich).Msg("starting model training")

	res, err := e.trainer.Train(ctx, rows, encoding.DefaultSpec(enrich), training.Options{
		TestSize: opts.TestSize,
		Seed:     opts.Seed,
		Version:  version,
		RunID:    runID,
	})
	if err != nil {
		if res != nil {
			return res.Report, err
		}
		return nil, err
	}

	if e.artifacts != nil {
		if _, err := registry.Save(ctx, e.artifacts, res.Snapshot, res.Report.DurationMS); err != nil {
			res.Report.Status = training.StatusFailed
			return res.Report, fmt.Errorf("persist models: %w", err)
		}
		if e.cfg.KeepVersions > 0 {
			if removed, err := e.artifacts.Prune(ctx, e.cfg.KeepVersions, version); err != nil {
				logger.Warn().Err(err).Msg("artifact pruning failed")
			} else if removed > 0 {
				logger.Info().Int("removed", removed).Msg("pruned old artifacts")
			}
		}
	}

	e.Publish(res.Snapshot, "train")
	for target, tr := range res.Report.Targets {
		if tr.Status == training.StatusTrained {
			metrics.RecordTargetMetrics(target, tr.Family, tr.Metrics.CVScores[tr.Family], tr.Metrics.R2)
		}
	}
	event := logger.Info().Int("version", version).Int64("duration_ms", res.Report.DurationMS)
	if sum := res.Report.Summary; sum != nil {
		event = event.Int("trained_targets", sum.TrainedTargets).Float64("mean_r2", sum.MeanR2)
	}
	event.Msg("model training complete")
	return res.Report, nil
}

// Retrain trains on every sample in the configured source.
func (e *Engine) Retrain(ctx context.Context) (*training.Report, error) {
	if e.source == nil {
		return nil, ErrNoSampleSource
	}
	samples, err := e.source.LoadSamples(ctx)
	if err != nil {
		e.statusMu.Lock()
		e.trainStatus.LastError = err.Error()
		e.statusMu.Unlock()
		metrics.RecordTraining(training.StatusFailed, 0, 0)
		return nil, fmt.Errorf("load samples: %w", err)
	}
	return e.Train(ctx, samples, TrainOptions{})
}

// nextVersion is one past the highest version published or on disk.
func (e *Engine) nextVersion() int {
	v := 0
	if snap := e.holder.Load(); snap != nil {
		v = snap.Version()
	}
	if e.artifacts != nil {
		if disk := e.artifacts.MaxVersion(); disk > v {
			v = disk
		}
	}
	return v + 1
}

func (e *Engine) setTraining(runID string) {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()
	e.trainStatus.IsTraining = true
	e.trainStatus.RunID = runID
	e.trainStatus.LastError = ""
}

func (e *Engine) finishTraining(report *training.Report, err error, start time.Time) {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()
	e.trainStatus.IsTraining = false
	e.trainStatus.LastFinishedAt = time.Now()
	e.trainStatus.LastDurationMS = time.Since(start).Milliseconds()
	if report != nil {
		e.trainStatus.LastRun = report
	}
	if err != nil {
		e.trainStatus.LastError = err.Error()
	}
}

// Reload publishes the artifacts on disk if they are newer than the
// serving snapshot. It reports whether a swap happened.
func (e *Engine) Reload(ctx context.Context) (bool, error) {
	if e.artifacts == nil {
		return false, ErrNoArtifactStore
	}
	snap, err := registry.Load(ctx, e.artifacts, e.logger)
	if errors.Is(err, storage.ErrNoManifest) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load models: %w", err)
	}
	if !e.holder.SwapIfNewer(snap) {
		return false, nil
	}
	e.invalidateCache()
	metrics.RecordRegistrySwap("reload", snap.Version())
	e.logger.Info().Int("version", snap.Version()).Str("run_id", snap.RunID()).Msg("models reloaded from disk")
	return true, nil
}

// Artifacts lists the stored artifact versions.
func (e *Engine) Artifacts(ctx context.Context) ([]storage.ArtifactMetadata, error) {
	if e.artifacts == nil {
		return nil, ErrNoArtifactStore
	}
	return e.artifacts.ListArtifacts(ctx)
}

// Status returns the engine status. Model metrics come from the serving
// snapshot; targets without a model are absent from Targets.
func (e *Engine) Status(ctx context.Context) Status {
	e.statusMu.RLock()
	st := Status{Training: e.trainStatus, Targets: make(map[string]TargetStatus)}
	e.statusMu.RUnlock()

	if snap := e.holder.Load(); snap != nil {
		st.ModelVersion = snap.Version()
		st.ModelRunID = snap.RunID()
		st.TrainedAt = snap.TrainedAt()
		st.SampleCount = snap.SampleCount()
		st.ClusterEnrichment = snap.ClusterEnrichment()
		for _, target := range snap.Targets() {
			m, err := snap.Get(ctx, target)
			if err != nil {
				continue
			}
			st.Targets[target] = TargetStatus{Family: m.Family, Metrics: m.Metrics}
		}
	}
	if c := e.clustering.Load(); c != nil {
		st.Clusters = c.K()
	}
	if e.cache != nil {
		stats := e.cache.Stats()
		st.CacheStats = &stats
	}
	return st
}

// PruneCache drops expired entries from the suggestion cache and returns
// how many were removed. It is a no-op when caching is off.
func (e *Engine) PruneCache() int {
	if e.cache == nil {
		return 0
	}
	return e.cache.CleanupExpired()
}

func (e *Engine) invalidateCache() {
	if e.cache != nil {
		e.cache.Clear()
	}
}
