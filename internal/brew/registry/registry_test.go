// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package registry

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/NaomiGonz/AICoffee-Machine/internal/brew"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/brewtest"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/encoding"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/regressors"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/storage"
)

// buildSnapshot fits one linear model per target on synthetic data.
func buildSnapshot(t *testing.T, version int) (*Snapshot, []brew.Row) {
	t.Helper()
	rows := brewtest.Rows(brewtest.Samples(30, 1, 0.05))
	enc := encoding.New(encoding.DefaultSpec(false))
	out, err := enc.Encode(rows, encoding.ModeTraining)
	if err != nil {
		t.Fatal(err)
	}

	models := make(map[string]*Model)
	for _, target := range brew.Targets() {
		reg := regressors.NewLinear(regressors.DefaultLinearConfig())
		if err := reg.Fit(context.Background(), out.X, out.Targets[target]); err != nil {
			t.Fatal(err)
		}
		models[target] = &Model{
			Target:    target,
			Family:    reg.Family(),
			Features:  out.Columns,
			Regressor: reg,
			Metrics:   Metrics{MSE: 0.1, TrainSize: 24, TestSize: 6},
		}
	}

	baseline := brew.NewRow()
	baseline.Numeric[brew.ColTemperature] = 90
	baseline.Categorical[brew.ColBeanType] = "arabica"

	return NewSnapshot(SnapshotOptions{
		Version:     version,
		RunID:       "run-test",
		TrainedAt:   time.Now(),
		SampleCount: len(rows),
		Encoder:     enc,
		Repository:  NewMemoryRepository(models),
		Baseline:    baseline,
	}), rows
}

func predictAll(t *testing.T, snap *Snapshot, rows []brew.Row) map[string][]float64 {
	t.Helper()
	enc, err := snap.Encoder().Encode(rows, encoding.ModeInference)
	if err != nil {
		t.Fatal(err)
	}
	out := make(map[string][]float64)
	for _, target := range snap.Targets() {
		m, err := snap.Get(context.Background(), target)
		if err != nil {
			t.Fatal(err)
		}
		X := encoding.NewAligner(enc.Columns, m.Features).ApplyAll(enc.X)
		out[target] = m.Regressor.PredictBatch(X)
	}
	return out
}

func TestMemoryRepository_Missing(t *testing.T) {
	repo := NewMemoryRepository(nil)
	_, err := repo.Get(context.Background(), brew.Acidity)
	var notTrained *brew.ModelNotTrainedError
	if !errors.As(err, &notTrained) || notTrained.Target != brew.Acidity {
		t.Errorf("Get() error = %v", err)
	}
}

func TestSnapshot_NilSafe(t *testing.T) {
	var snap *Snapshot
	if _, err := snap.Get(context.Background(), brew.Acidity); !errors.Is(err, brew.ErrModelNotTrained) {
		t.Errorf("nil snapshot Get() error = %v", err)
	}
	if snap.Targets() != nil {
		t.Error("nil snapshot should have no targets")
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	snap, rows := buildSnapshot(t, 1)

	manifest, err := Save(ctx, store, snap, 12)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if manifest.Version != 1 || len(manifest.Models) != len(brew.Targets()) {
		t.Errorf("manifest = %+v", manifest)
	}
	if manifest.GrindSize != brew.GrindSize || manifest.DefaultRatio != brew.DefaultRatio {
		t.Error("manifest should record the canonical constants")
	}
	if got := manifest.CategoricalVocabularies[brew.ColBeanType]; len(got) == 0 {
		t.Error("manifest should record bean vocabulary")
	}

	loaded, err := Load(ctx, store, zerolog.Nop())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Version() != 1 || loaded.RunID() != "run-test" {
		t.Errorf("loaded version/run = %d/%s", loaded.Version(), loaded.RunID())
	}
	if loaded.Baseline().Numeric[brew.ColTemperature] != 90 {
		t.Error("baseline not restored")
	}

	want := predictAll(t, snap, rows[:5])
	got := predictAll(t, loaded, rows[:5])
	for target, w := range want {
		for i := range w {
			if math.Abs(w[i]-got[target][i]) > 1e-9 {
				t.Fatalf("%s prediction %d: loaded %v, original %v", target, i, got[target][i], w[i])
			}
		}
	}
}

func TestLoad_NoManifest(t *testing.T) {
	store, _ := storage.NewStore(t.TempDir())
	if _, err := Load(context.Background(), store, zerolog.Nop()); !errors.Is(err, storage.ErrNoManifest) {
		t.Errorf("Load() error = %v, want ErrNoManifest", err)
	}
}

func TestLoad_MissingEncoderSurfacesAtInference(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, _ := storage.NewStore(dir)
	snap, rows := buildSnapshot(t, 1)
	if _, err := Save(ctx, store, snap, 0); err != nil {
		t.Fatal(err)
	}

	if err := os.Remove(filepath.Join(dir, "encoder_bean_type_v1.gob.gz")); err != nil {
		t.Fatal(err)
	}
	store, _ = storage.NewStore(dir)

	loaded, err := Load(ctx, store, zerolog.Nop())
	if err != nil {
		t.Fatalf("Load should tolerate a missing encoder: %v", err)
	}
	_, err = loaded.Encoder().Encode(rows[:1], encoding.ModeInference)
	var encErr *brew.EncodingError
	if !errors.As(err, &encErr) || encErr.Column != brew.ColBeanType {
		t.Errorf("Encode() error = %v, want EncodingError for bean_type", err)
	}
}

func TestLazyRepository_MissingModelFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, _ := storage.NewStore(dir)
	snap, _ := buildSnapshot(t, 1)
	if _, err := Save(ctx, store, snap, 0); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(dir, "model_fruitiness_v1.gob.gz")); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(ctx, store, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := loaded.Get(ctx, brew.Fruitiness); !errors.Is(err, brew.ErrModelNotTrained) {
		t.Errorf("Get(fruitiness) error = %v", err)
	}
	if _, err := loaded.Get(ctx, brew.Acidity); err != nil {
		t.Errorf("Get(acidity) error = %v", err)
	}
}

func TestLazyRepository_ConcurrentGet(t *testing.T) {
	ctx := context.Background()
	store, _ := storage.NewStore(t.TempDir())
	snap, _ := buildSnapshot(t, 1)
	if _, err := Save(ctx, store, snap, 0); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(ctx, store, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	models := make([]*Model, 8)
	for i := range models {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := loaded.Get(ctx, brew.Strength)
			if err != nil {
				t.Error(err)
				return
			}
			models[i] = m
		}(i)
	}
	wg.Wait()
	for i := 1; i < len(models); i++ {
		if models[i] != models[0] {
			t.Fatal("concurrent Get should return the same cached model")
		}
	}
}

func TestHolder_SwapIfNewer(t *testing.T) {
	var h Holder
	if h.Load() != nil {
		t.Fatal("empty holder should load nil")
	}

	v2, _ := buildSnapshot(t, 2)
	v1, _ := buildSnapshot(t, 1)

	if !h.SwapIfNewer(v2) {
		t.Error("first publish should succeed")
	}
	if h.SwapIfNewer(v1) {
		t.Error("older snapshot should not replace newer one")
	}
	if h.Load().Version() != 2 {
		t.Errorf("current version = %d", h.Load().Version())
	}
	if prev := h.Swap(v1); prev.Version() != 2 {
		t.Error("Swap should return the previous snapshot")
	}
}

func TestHolder_ConcurrentReadersSeeWholeSnapshots(t *testing.T) {
	var h Holder
	a, _ := buildSnapshot(t, 1)
	b, _ := buildSnapshot(t, 2)
	h.Swap(a)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap := h.Load()
				if snap != a && snap != b {
					t.Error("reader observed an unknown snapshot")
					return
				}
				if len(snap.Targets()) != len(brew.Targets()) {
					t.Error("reader observed a partial snapshot")
					return
				}
			}
		}()
	}
	for i := 0; i < 100; i++ {
		if i%2 == 0 {
			h.Swap(b)
		} else {
			h.Swap(a)
		}
	}
	close(stop)
	wg.Wait()
}
