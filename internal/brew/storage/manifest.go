// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
)

// ManifestFile is the manifest filename inside the artifact directory.
const ManifestFile = "manifest.json"

// ErrNoManifest is returned when no training run has been committed.
var ErrNoManifest = errors.New("no manifest committed")

// ManifestModel records the artifact chosen for one target.
type ManifestModel struct {
	Family   string  `json:"family"`
	Artifact string  `json:"artifact"`
	Scaler   string  `json:"scaler"`
	TestMSE  float64 `json:"test_mse"`
	TestMAE  float64 `json:"test_mae"`
	TestR2   float64 `json:"test_r2"`
}

// Baseline is the reference row used for feature impact sweeps: numeric
// means and categorical modes of the training data.
type Baseline struct {
	Numeric     map[string]float64 `json:"numeric"`
	Categorical map[string]string  `json:"categorical"`
}

// Manifest commits one training version and records the schema that all of
// its artifacts share.
type Manifest struct {
	Version     int       `json:"version"`
	RunID       string    `json:"run_id"`
	TrainedAt   time.Time `json:"trained_at"`
	SampleCount int       `json:"sample_count"`

	FeatureColumns     []string `json:"feature_columns"`
	NumericColumns     []string `json:"numeric_columns"`
	CategoricalColumns []string `json:"categorical_columns"`
	TargetColumns      []string `json:"target_columns"`

	// CategoricalVocabularies lists the fitted categories per column.
	CategoricalVocabularies map[string][]string `json:"categorical_vocabularies"`

	// Encoders maps categorical column to encoder artifact name.
	Encoders map[string]string `json:"encoders"`

	// Models maps target to its committed model.
	Models map[string]ManifestModel `json:"models"`

	CupSizes          map[string]float64 `json:"cup_sizes"`
	DefaultRatio      float64            `json:"default_ratio"`
	GrindSize         float64            `json:"grind_size"`
	ClusterEnrichment bool               `json:"cluster_enrichment"`

	Baseline Baseline `json:"baseline"`
}

// WriteManifest atomically replaces the committed manifest.
func (s *Store) WriteManifest(ctx context.Context, m *Manifest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	path := filepath.Join(s.baseDir, ManifestFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o640); err != nil { //nolint:gosec // path is inside the artifact directory
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("commit manifest: %w", err)
	}
	return nil
}

// ReadManifest loads the committed manifest. It returns ErrNoManifest when
// nothing has been committed yet.
func (s *Store) ReadManifest(ctx context.Context) (*Manifest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.baseDir, ManifestFile)) //nolint:gosec // path is inside the artifact directory
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoManifest
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &m, nil
}

// ManifestPath returns the manifest's absolute location.
func (s *Store) ManifestPath() string {
	return filepath.Join(s.baseDir, ManifestFile)
}
