// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testPayload struct {
	Weights []float64
	Labels  map[string]int
}

func TestNewStore(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
	}{
		{
			name: "creates directory if not exists",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "new_dir")
			},
		},
		{
			name: "uses existing directory",
			setup: func(t *testing.T) string {
				return t.TempDir()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewStore(tt.setup(t))
			if err != nil {
				t.Fatalf("NewStore() error = %v", err)
			}
			if store == nil {
				t.Error("NewStore() returned nil store without error")
			}
		})
	}
}

func TestStore_SaveAndLoad(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	ctx := context.Background()

	payload := testPayload{Weights: []float64{0.5, 1.5}, Labels: map[string]int{"a": 1}}
	meta := ArtifactMetadata{Kind: KindModel, RunID: "run-1", TrainedAt: time.Now(), SampleCount: 40}

	if err := store.Save(ctx, ModelName("acidity"), 1, payload, meta); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	var loaded testPayload
	loadedMeta, err := store.Load(ctx, "model_acidity", 1, &loaded)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loadedMeta.Name != "model_acidity" || loadedMeta.Version != 1 {
		t.Errorf("metadata = %+v", loadedMeta)
	}
	if loadedMeta.Checksum == "" || loadedMeta.SizeBytes == 0 {
		t.Error("checksum and size should be recorded")
	}
	if loadedMeta.SampleCount != 40 || loadedMeta.RunID != "run-1" {
		t.Errorf("caller metadata lost: %+v", loadedMeta)
	}
	if len(loaded.Weights) != 2 || loaded.Labels["a"] != 1 {
		t.Errorf("payload = %+v", loaded)
	}
}

func TestStore_LoadLatestAndMissing(t *testing.T) {
	store, _ := NewStore(t.TempDir())
	ctx := context.Background()

	for v := 1; v <= 3; v++ {
		if err := store.Save(ctx, "scaler_acidity", v, testPayload{Weights: []float64{float64(v)}}, ArtifactMetadata{}); err != nil {
			t.Fatal(err)
		}
	}

	var latest testPayload
	meta, err := store.Load(ctx, "scaler_acidity", 0, &latest)
	if err != nil {
		t.Fatal(err)
	}
	if meta.Version != 3 || latest.Weights[0] != 3 {
		t.Errorf("latest = v%d %v", meta.Version, latest.Weights)
	}

	var missing testPayload
	if _, err := store.Load(ctx, "scaler_acidity", 9, &missing); !errors.Is(err, ErrArtifactNotFound) {
		t.Errorf("missing version error = %v", err)
	}
	if _, err := store.Load(ctx, "model_unknown", 0, &missing); !errors.Is(err, ErrArtifactNotFound) {
		t.Errorf("unknown artifact error = %v", err)
	}
}

func TestStore_ScanOnOpen(t *testing.T) {
	dir := t.TempDir()
	store, _ := NewStore(dir)
	ctx := context.Background()
	_ = store.Save(ctx, "encoder_country_of_origin", 2, testPayload{}, ArtifactMetadata{})
	_ = store.Save(ctx, "model_bitterness", 5, testPayload{}, ArtifactMetadata{})

	reopened, err := NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := reopened.LatestVersion("encoder_country_of_origin"); !ok || v != 2 {
		t.Errorf("LatestVersion(encoder) = %d, %v", v, ok)
	}
	if got := reopened.MaxVersion(); got != 5 {
		t.Errorf("MaxVersion() = %d, want 5", got)
	}
}

func TestStore_ChecksumMismatch(t *testing.T) {
	dir := t.TempDir()
	store, _ := NewStore(dir)
	ctx := context.Background()
	if err := store.Save(ctx, "model_acidity", 1, testPayload{Weights: []float64{1}}, ArtifactMetadata{}); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "model_acidity_v1.gob.gz")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	// Truncate to corrupt the stored payload.
	if err := os.WriteFile(path, data[:len(data)/2], 0o600); err != nil {
		t.Fatal(err)
	}

	var out testPayload
	if _, err := store.Load(ctx, "model_acidity", 1, &out); err == nil {
		t.Error("corrupt artifact should fail to load")
	}
}

func TestStore_Prune(t *testing.T) {
	store, _ := NewStore(t.TempDir())
	ctx := context.Background()
	for v := 1; v <= 4; v++ {
		_ = store.Save(ctx, "model_acidity", v, testPayload{}, ArtifactMetadata{})
		_ = store.Save(ctx, "scaler_acidity", v, testPayload{}, ArtifactMetadata{})
	}

	removed, err := store.Prune(ctx, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2 (version 2 of both artifacts)", removed)
	}

	var out testPayload
	if _, err := store.Load(ctx, "model_acidity", 1, &out); err != nil {
		t.Errorf("protected version 1 should survive: %v", err)
	}
	if _, err := store.Load(ctx, "model_acidity", 2, &out); err == nil {
		t.Error("version 2 should be pruned")
	}
	if v, _ := store.LatestVersion("model_acidity"); v != 4 {
		t.Errorf("latest after prune = %d", v)
	}
}

func TestStore_Delete(t *testing.T) {
	store, _ := NewStore(t.TempDir())
	ctx := context.Background()
	_ = store.Save(ctx, "model_acidity", 1, testPayload{}, ArtifactMetadata{})
	_ = store.Save(ctx, "model_acidity", 2, testPayload{}, ArtifactMetadata{})

	if err := store.Delete(ctx, "model_acidity", 2); err != nil {
		t.Fatal(err)
	}
	if v, ok := store.LatestVersion("model_acidity"); !ok || v != 1 {
		t.Errorf("LatestVersion after delete = %d, %v", v, ok)
	}
}

func TestStore_ListArtifacts(t *testing.T) {
	store, _ := NewStore(t.TempDir())
	ctx := context.Background()
	_ = store.Save(ctx, "scaler_acidity", 1, testPayload{}, ArtifactMetadata{Kind: KindScaler})
	_ = store.Save(ctx, "model_acidity", 1, testPayload{}, ArtifactMetadata{Kind: KindModel})

	list, err := store.ListArtifacts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Name != "model_acidity" {
		t.Errorf("ListArtifacts() = %+v", list)
	}
}

func TestManifest_RoundTrip(t *testing.T) {
	store, _ := NewStore(t.TempDir())
	ctx := context.Background()

	if _, err := store.ReadManifest(ctx); !errors.Is(err, ErrNoManifest) {
		t.Fatalf("empty directory should report ErrNoManifest, got %v", err)
	}

	m := &Manifest{
		Version:        3,
		RunID:          "run-3",
		FeatureColumns: []string{"temperature", "bean_type_arabica"},
		Models:         map[string]ManifestModel{"acidity": {Family: "linear", Artifact: "model_acidity"}},
		CupSizes:       map[string]float64{"small": 89},
		DefaultRatio:   15,
		GrindSize:      400,
	}
	if err := store.WriteManifest(ctx, m); err != nil {
		t.Fatal(err)
	}
	got, err := store.ReadManifest(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.Version != 3 || got.Models["acidity"].Family != "linear" || got.GrindSize != 400 {
		t.Errorf("ReadManifest() = %+v", got)
	}
	if _, err := os.Stat(store.ManifestPath() + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary manifest should not remain")
	}
}

func TestStore_Lock(t *testing.T) {
	dir := t.TempDir()
	a, _ := NewStore(dir)
	b, _ := NewStore(dir)

	unlock, err := a.Lock(context.Background())
	if err != nil {
		t.Fatalf("first Lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	if _, err := b.Lock(ctx); !errors.Is(err, ErrLocked) {
		t.Errorf("second Lock should fail with ErrLocked, got %v", err)
	}

	unlock()
	unlock2, err := b.Lock(context.Background())
	if err != nil {
		t.Fatalf("Lock after release: %v", err)
	}
	unlock2()
}

func TestParseArtifactFilename(t *testing.T) {
	tests := []struct {
		in      string
		name    string
		version int
	}{
		{"model_acidity_v3", "model_acidity", 3},
		{"encoder_country_of_origin_v12", "encoder_country_of_origin", 12},
		{"noversion", "", 0},
		{"model_acidity_vx", "", 0},
	}
	for _, tt := range tests {
		name, version := parseArtifactFilename(tt.in)
		if name != tt.name || version != tt.version {
			t.Errorf("parseArtifactFilename(%q) = (%q, %d)", tt.in, name, version)
		}
	}
}
