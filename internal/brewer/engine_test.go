// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package brewer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/NaomiGonz/AICoffee-Machine/internal/brew"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/brewtest"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/storage"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/training"
	"github.com/NaomiGonz/AICoffee-Machine/internal/config"
	"github.com/NaomiGonz/AICoffee-Machine/internal/logging"
	"github.com/NaomiGonz/AICoffee-Machine/internal/suggestions"
)

// memSamples is an in-memory sample log.
type memSamples struct {
	mu      sync.Mutex
	samples []brew.BrewingSample
	loads   int
	err     error
}

func (m *memSamples) Append(_ context.Context, s brew.BrewingSample) (brew.BrewingSample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == "" {
		s.ID = fmt.Sprintf("sample-%d", len(m.samples)+1)
	}
	m.samples = append(m.samples, s)
	return s, nil
}

func (m *memSamples) LoadSamples(context.Context) ([]brew.BrewingSample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.err != nil {
		return nil, m.err
	}
	return append([]brew.BrewingSample(nil), m.samples...), nil
}

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.Training.Families = []string{"linear"}
	cfg.Training.Workers = 2
	cfg.Optimizer.Candidates = 200
	cfg.Optimizer.BatchSize = 50
	cfg.Optimizer.RefineIterations = 10
	cfg.Optimizer.Timeout = 0
	return cfg
}

func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := New(testConfig(), zerolog.Nop(), opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e
}

func newArtifactStore(t *testing.T, dir string) *storage.Store {
	t.Helper()
	s, err := storage.NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return s
}

func newSuggestionStore(t *testing.T) *suggestions.Store {
	t.Helper()
	s, err := suggestions.Open(config.SuggestionsConfig{TTL: time.Hour}, zerolog.Nop())
	if err != nil {
		t.Fatalf("suggestions.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func trainedEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e := newEngine(t, opts...)
	if _, err := e.Train(context.Background(), brewtest.Samples(120, 7, 0.2), TrainOptions{}); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	return e
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.KeepVersions = -1
	if _, err := New(cfg, zerolog.Nop()); err == nil {
		t.Error("New() with negative keep_versions should fail")
	}
}

func TestEngine_PredictBeforeTraining(t *testing.T) {
	e := newEngine(t)
	_, err := e.PredictFlavorProfile(context.Background(), brew.BrewingParameters{Temperature: 92})
	if !errors.Is(err, brew.ErrModelNotTrained) {
		t.Errorf("PredictFlavorProfile() error = %v, want ErrModelNotTrained", err)
	}
}

func TestEngine_TrainInsufficientData(t *testing.T) {
	dir := t.TempDir()
	e := newEngine(t, WithArtifactStore(newArtifactStore(t, dir)))

	report, err := e.Train(context.Background(), brewtest.Samples(5, 1, 0), TrainOptions{})
	if !errors.Is(err, brew.ErrInsufficientData) {
		t.Fatalf("Train() error = %v, want ErrInsufficientData", err)
	}
	if report == nil || report.Status != training.StatusInsufficientData {
		t.Fatalf("report = %+v, want insufficient_data status", report)
	}
	if e.Snapshot() != nil {
		t.Error("no snapshot should be published")
	}

	swapped, err := e.Reload(context.Background())
	if err != nil || swapped {
		t.Errorf("Reload() = %v, %v; want false, nil with nothing persisted", swapped, err)
	}
	st := e.Status(context.Background())
	if st.Training.IsTraining || st.Training.LastError == "" {
		t.Errorf("status = %+v, want finished run with error", st.Training)
	}
}

func TestEngine_TrainPublishesAndPersists(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	e := trainedEngine(t, WithArtifactStore(newArtifactStore(t, dir)))

	snap := e.Snapshot()
	if snap == nil || snap.Version() != 1 {
		t.Fatalf("Snapshot() = %v, want version 1", snap)
	}

	profile, err := e.PredictFlavorProfile(ctx, brew.BrewingParameters{
		Pressure: 9, Temperature: 92, ExtractionTime: 30, DoseSize: 18, CupSize: 236.588, BeanType: "arabica",
	})
	if err != nil {
		t.Fatalf("PredictFlavorProfile() error = %v", err)
	}
	for _, target := range brew.Targets() {
		if _, ok := profile[target]; !ok {
			t.Errorf("profile missing %s", target)
		}
	}

	st := e.Status(ctx)
	if st.ModelVersion != 1 || len(st.Targets) != len(brew.Targets()) {
		t.Errorf("Status() version = %d targets = %d", st.ModelVersion, len(st.Targets))
	}
	if st.Training.LastRun == nil || st.Training.LastRun.Status != training.StatusTrained {
		t.Errorf("LastRun = %+v", st.Training.LastRun)
	}

	arts, err := e.Artifacts(ctx)
	if err != nil || len(arts) == 0 {
		t.Errorf("Artifacts() = %d, %v", len(arts), err)
	}

	// A second process sharing the directory picks the models up.
	other := newEngine(t, WithArtifactStore(newArtifactStore(t, dir)))
	swapped, err := other.Reload(ctx)
	if err != nil || !swapped {
		t.Fatalf("Reload() = %v, %v; want true, nil", swapped, err)
	}
	if other.Snapshot().Version() != 1 {
		t.Errorf("reloaded version = %d, want 1", other.Snapshot().Version())
	}
	if swapped, _ := other.Reload(ctx); swapped {
		t.Error("second Reload() should not swap the same version")
	}

	// Retraining bumps the version past what is on disk.
	if _, err := other.Train(ctx, brewtest.Samples(60, 9, 0.2), TrainOptions{}); err != nil {
		t.Fatal(err)
	}
	if other.Snapshot().Version() != 2 {
		t.Errorf("version after retrain = %d, want 2", other.Snapshot().Version())
	}
}

func TestEngine_TrainInProgress(t *testing.T) {
	e := newEngine(t)
	e.trainMu.Lock()
	defer e.trainMu.Unlock()

	if _, err := e.Train(context.Background(), brewtest.Samples(20, 1, 0), TrainOptions{}); !errors.Is(err, ErrTrainingInProgress) {
		t.Errorf("Train() error = %v, want ErrTrainingInProgress", err)
	}
}

func TestEngine_Retrain(t *testing.T) {
	ctx := context.Background()
	if _, err := newEngine(t).Retrain(ctx); !errors.Is(err, ErrNoSampleSource) {
		t.Errorf("Retrain() error = %v, want ErrNoSampleSource", err)
	}

	src := &memSamples{samples: brewtest.Samples(80, 3, 0.2)}
	e := newEngine(t, WithSampleSource(src))
	report, err := e.Retrain(ctx)
	if err != nil {
		t.Fatalf("Retrain() error = %v", err)
	}
	if report.SampleCount != 80 || src.loads != 1 {
		t.Errorf("SampleCount = %d loads = %d", report.SampleCount, src.loads)
	}

	src.err = errors.New("database is locked")
	if _, err := e.Retrain(ctx); err == nil {
		t.Error("Retrain() should surface the source error")
	}
	if e.Snapshot().Version() != 1 {
		t.Error("failed retrain must keep the serving snapshot")
	}
}

func TestEngine_SuggestBeforeTraining(t *testing.T) {
	sugs := newSuggestionStore(t)
	e := newEngine(t, WithSuggestionStore(sugs))
	ctx := context.Background()

	s, err := e.SuggestBrewingParameters(ctx, SuggestRequest{Desired: brew.FlavorProfile{brew.Acidity: 7}})
	if err != nil {
		t.Fatalf("SuggestBrewingParameters() error = %v", err)
	}
	if !s.Degraded || s.Distance != nil {
		t.Errorf("suggestion = %+v, want degraded without distance", s)
	}
	rec, err := sugs.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("suggestion not recorded: %v", err)
	}
	if !rec.Degraded {
		t.Error("recorded suggestion lost its degraded flag")
	}

	if _, err := e.SuggestBrewingParameters(ctx, SuggestRequest{Desired: brew.FlavorProfile{brew.Acidity: 12}}); !errors.Is(err, brew.ErrValidation) {
		t.Errorf("out-of-range desired error = %v, want ErrValidation", err)
	}
}

func TestEngine_SuggestBlendAndCache(t *testing.T) {
	e := trainedEngine(t)
	ctx := context.Background()

	req := SuggestRequest{
		Desired:  brew.FlavorProfile{brew.Acidity: 8, brew.Strength: 6, brew.Sweetness: 7.5, brew.Fruitiness: 9, brew.Bitterness: 3},
		Fixed:    brew.PartialBrewingParameters{CupSize: "medium"},
		BeanList: []string{"arabica", "robusta"},
		Seed:     11,
	}
	first, err := e.SuggestBrewingParameters(ctx, req)
	if err != nil {
		t.Fatalf("SuggestBrewingParameters() error = %v", err)
	}
	if first.Degraded {
		t.Fatalf("suggestion degraded: %s", first.DegradedReason)
	}
	p := first.Parameters
	if p.DoseSize < 15 || p.DoseSize > 25 || p.Temperature < 85 || p.Temperature > 96 {
		t.Errorf("parameters out of bounds: %+v", p)
	}
	if p.CupSize != 236.588 {
		t.Errorf("CupSize = %v, want 236.588", p.CupSize)
	}
	if first.Blend == nil || first.Blend.Blend.Sum() != 100 {
		t.Fatalf("Blend = %+v, want percentages summing to 100", first.Blend)
	}
	if first.Cached {
		t.Error("first suggestion should not be cached")
	}

	second, err := e.SuggestBrewingParameters(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if !second.Cached {
		t.Error("identical request should be served from the cache")
	}
	if second.ID == first.ID {
		t.Error("cached suggestion must get a fresh ID")
	}
	if second.Parameters.Temperature != first.Parameters.Temperature || second.Parameters.DoseSize != first.Parameters.DoseSize {
		t.Errorf("cached parameters differ: %+v vs %+v", second.Parameters, first.Parameters)
	}

	if st := e.Status(ctx); st.CacheStats == nil || st.CacheStats.Hits != 1 || st.CacheStats.HitRatePct != 50 {
		t.Errorf("CacheStats = %+v, want one hit at 50%%", st.CacheStats)
	}
	if n := e.PruneCache(); n != 0 {
		t.Errorf("PruneCache() = %d, want 0 before the TTL", n)
	}
}

func TestEngine_OptimizeBlend(t *testing.T) {
	ctx := context.Background()
	desired := brew.FlavorProfile{brew.Bitterness: 7}

	if _, err := newEngine(t).OptimizeBlend(ctx, BlendRequest{Beans: []string{"arabica", "robusta"}, Desired: desired}); !errors.Is(err, brew.ErrModelNotTrained) {
		t.Errorf("OptimizeBlend() before training error = %v, want ErrModelNotTrained", err)
	}

	e := trainedEngine(t)
	single, err := e.OptimizeBlend(ctx, BlendRequest{Beans: []string{"Arabica"}, Desired: desired})
	if err != nil {
		t.Fatalf("OptimizeBlend(single bean) error = %v", err)
	}
	if len(single.Blend) != 1 || single.Blend["arabica"] != 100 || single.Primary != "arabica" {
		t.Errorf("single bean blend = %v (primary %q), want {arabica:100}", single.Blend, single.Primary)
	}
	if _, err := e.OptimizeBlend(ctx, BlendRequest{Desired: desired}); !errors.Is(err, brew.ErrValidation) {
		t.Errorf("empty bean list error = %v, want ErrValidation", err)
	}
	res, err := e.OptimizeBlend(ctx, BlendRequest{Beans: []string{"Arabica", "robusta", "ethiopian"}, Desired: desired})
	if err != nil {
		t.Fatalf("OptimizeBlend() error = %v", err)
	}
	if res.Blend.Sum() != 100 {
		t.Errorf("blend %v sums to %d", res.Blend, res.Blend.Sum())
	}
	for bean, pct := range res.Blend {
		if pct < 0 {
			t.Errorf("%s has negative share %d", bean, pct)
		}
	}
}

func TestEngine_AnalyzeFeatureImpact(t *testing.T) {
	e := trainedEngine(t)
	res, err := e.AnalyzeFeatureImpact(context.Background(), ImpactRequest{
		Feature: "temperature",
		Target:  "maltiness",
		Range:   &brew.Interval{Min: 86, Max: 95},
		Points:  4,
	})
	if err != nil {
		t.Fatalf("AnalyzeFeatureImpact() error = %v", err)
	}
	if res.Target != brew.Bitterness || len(res.Points) != 4 || res.ModelVersion != 1 {
		t.Errorf("result = %+v", res)
	}
	if res.Points[0].Value != 86 || res.Points[3].Value != 95 {
		t.Errorf("sweep endpoints = %v..%v", res.Points[0].Value, res.Points[3].Value)
	}
}

func TestEngine_RecordFeedback(t *testing.T) {
	ctx := context.Background()
	sink := &memSamples{}
	sugs := newSuggestionStore(t)
	e := newEngine(t, WithSampleSink(sink), WithSuggestionStore(sugs))

	s, err := e.SuggestBrewingParameters(ctx, SuggestRequest{Desired: brew.FlavorProfile{brew.Sweetness: 6}})
	if err != nil {
		t.Fatal(err)
	}

	ratings := brew.FlavorProfile{brew.Sweetness: 5, brew.Acidity: 4}
	stored, err := e.RecordFeedback(ctx, Feedback{SuggestionID: s.ID, Ratings: ratings})
	if err != nil {
		t.Fatalf("RecordFeedback() error = %v", err)
	}
	if stored.SuggestionID != s.ID || stored.Parameters.Temperature != s.Parameters.Temperature {
		t.Errorf("stored sample = %+v, want parameters of suggestion %s", stored, s.ID)
	}
	rec, err := sugs.Get(ctx, s.ID)
	if err != nil || rec.RatedSampleID != stored.ID {
		t.Errorf("suggestion RatedSampleID = %q, %v; want %q", rec.RatedSampleID, err, stored.ID)
	}

	tests := []struct {
		name string
		fb   Feedback
		want error
	}{
		{"already rated", Feedback{SuggestionID: s.ID, Ratings: ratings}, suggestions.ErrAlreadyRated},
		{"unknown suggestion", Feedback{SuggestionID: "nope", Ratings: ratings}, suggestions.ErrNotFound},
		{"nothing to rate", Feedback{Ratings: ratings}, brew.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.RecordFeedback(ctx, tt.fb); !errors.Is(err, tt.want) {
				t.Errorf("RecordFeedback() error = %v, want %v", err, tt.want)
			}
		})
	}

	params := brew.BrewingParameters{Temperature: 90, BeanType: "robusta"}
	if _, err := e.RecordFeedback(ctx, Feedback{Parameters: &params, Ratings: ratings}); err != nil {
		t.Errorf("RecordFeedback(explicit parameters) error = %v", err)
	}
	if len(sink.samples) != 2 {
		t.Errorf("sink holds %d samples, want 2", len(sink.samples))
	}

	if _, err := newEngine(t).RecordFeedback(ctx, Feedback{Parameters: &params, Ratings: ratings}); !errors.Is(err, ErrNoSampleSink) {
		t.Errorf("RecordFeedback() without sink error = %v, want ErrNoSampleSink", err)
	}
}

func TestEngine_ClusterInsightsUnavailable(t *testing.T) {
	e := newEngine(t)
	if _, err := e.ClusterInsights(0); !errors.Is(err, ErrClusteringUnavailable) {
		t.Errorf("ClusterInsights() error = %v, want ErrClusteringUnavailable", err)
	}
	if e.Clusters() != 0 {
		t.Errorf("Clusters() = %d, want 0", e.Clusters())
	}
}

func TestConfig_CloneIsIndependent(t *testing.T) {
	cfg := DefaultConfig()
	cp := cfg.Clone()
	cp.Training.Families[0] = "changed"
	if cfg.Training.Families[0] == "changed" {
		t.Error("Clone() shares the families slice")
	}
}

// lockedBuffer is a bytes.Buffer safe for the trainer's worker goroutines.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestEngine_TrainLogsCarryRequestAndRunIDs(t *testing.T) {
	var out lockedBuffer
	e, err := New(testConfig(), logging.NewTestLogger(&out))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := logging.ContextWithRequestID(context.Background(), "req-retrain")
	report, err := e.Train(ctx, brewtest.Samples(120, 7, 0.2), TrainOptions{})
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	logs := out.String()
	if !strings.Contains(logs, `"request_id":"req-retrain"`) {
		t.Errorf("training logs lack the request ID:\n%s", logs)
	}
	if !strings.Contains(logs, `"run_id":"`+report.RunID+`"`) {
		t.Errorf("training logs lack run ID %s:\n%s", report.RunID, logs)
	}
}
