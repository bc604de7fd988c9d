// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Artifact kinds.
const (
	KindModel   = "model"
	KindEncoder = "encoder"
	KindScaler  = "scaler"
)

const artifactSuffix = ".gob.gz"

// ErrArtifactNotFound is returned when an artifact version does not exist.
var ErrArtifactNotFound = errors.New("artifact not found")

// ModelName returns the artifact name for a target's model.
func ModelName(target string) string { return KindModel + "_" + target }

// EncoderName returns the artifact name for a categorical column's encoder.
func EncoderName(column string) string { return KindEncoder + "_" + column }

// ScalerName returns the artifact name for a target's scaler.
func ScalerName(target string) string { return KindScaler + "_" + target }

// ArtifactMetadata contains information about a stored artifact.
type ArtifactMetadata struct {
	// Name is the artifact name (e.g., "model_acidity").
	Name string `json:"name"`

	// Kind is one of model, encoder, scaler.
	Kind string `json:"kind"`

	// Version is the training version the artifact belongs to.
	Version int `json:"version"`

	// RunID identifies the training run that produced the artifact.
	RunID string `json:"run_id"`

	// TrainedAt is when training finished.
	TrainedAt time.Time `json:"trained_at"`

	// SavedAt is when the artifact was written.
	SavedAt time.Time `json:"saved_at"`

	// SampleCount is the number of samples used for training.
	SampleCount int `json:"sample_count"`

	// Checksum is the SHA-256 checksum of the uncompressed payload.
	Checksum string `json:"checksum"`

	// SizeBytes is the compressed payload size in bytes.
	SizeBytes int64 `json:"size_bytes"`

	// TrainingDurationMS is how long training took.
	TrainingDurationMS int64 `json:"training_duration_ms"`
}

// storedFile is the on-disk format for artifact files.
type storedFile struct {
	Metadata       ArtifactMetadata
	CompressedData []byte
}

// Store manages artifact persistence in one directory.
type Store struct {
	baseDir string
	mu      sync.RWMutex

	// Latest version per artifact name
	versions map[string]int
}

// NewStore creates a store at the given directory, creating it if needed.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil { //nolint:gosec // 0750 is acceptable for artifact storage
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}

	s := &Store{
		baseDir:  baseDir,
		versions: make(map[string]int),
	}

	if err := s.scan(); err != nil {
		return nil, fmt.Errorf("scan existing artifacts: %w", err)
	}

	return s, nil
}

// Dir returns the artifact directory.
func (s *Store) Dir() string {
	return s.baseDir
}

// scan records the latest version of every artifact on disk.
func (s *Store) scan() error {
	entries, err := s.listFiles()
	if err != nil {
		return err
	}
	for _, e := range entries {
		if current, ok := s.versions[e.name]; !ok || e.version > current {
			s.versions[e.name] = e.version
		}
	}
	return nil
}

type fileEntry struct {
	name    string
	version int
}

// listFiles parses every artifact filename in the directory.
func (s *Store) listFiles() ([]fileEntry, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, err
	}
	var out []fileEntry
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), artifactSuffix) {
			continue
		}
		name, version := parseArtifactFilename(strings.TrimSuffix(entry.Name(), artifactSuffix))
		if name == "" {
			continue
		}
		out = append(out, fileEntry{name: name, version: version})
	}
	return out, nil
}

// parseArtifactFilename splits "model_acidity_v3" into ("model_acidity", 3).
func parseArtifactFilename(base string) (name string, version int) {
	i := strings.LastIndex(base, "_v")
	if i <= 0 {
		return "", 0
	}
	v, err := strconv.Atoi(base[i+2:])
	if err != nil || v <= 0 {
		return "", 0
	}
	return base[:i], v
}

// Save writes an artifact under the given name and version.
//
//nolint:gocritic // meta passed by value is acceptable for this write operation
func (s *Store) Save(ctx context.Context, name string, version int, data interface{}, meta ArtifactMetadata) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(data); err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	rawData := buf.Bytes()

	hash := sha256.Sum256(rawData)
	meta.Checksum = hex.EncodeToString(hash[:])

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(rawData); err != nil {
		return fmt.Errorf("compress artifact: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return fmt.Errorf("finalize compression: %w", err)
	}

	meta.SizeBytes = int64(compressed.Len())
	meta.SavedAt = time.Now()
	meta.Name = name
	meta.Version = version

	filename := s.artifactPath(name, version)
	tmp := filename + ".tmp"
	f, err := os.Create(tmp) //nolint:gosec // filename is constructed from trusted name parameter
	if err != nil {
		return fmt.Errorf("create artifact file: %w", err)
	}

	sf := storedFile{Metadata: meta, CompressedData: compressed.Bytes()}
	if err := gob.NewEncoder(f).Encode(sf); err != nil {
		_ = f.Close()      //nolint:errcheck // already failing
		_ = os.Remove(tmp) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("write artifact file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("close artifact file: %w", err)
	}
	if err := os.Rename(tmp, filename); err != nil {
		return fmt.Errorf("commit artifact file: %w", err)
	}

	if current, ok := s.versions[name]; !ok || version > current {
		s.versions[name] = version
	}
	return nil
}

// Load reads an artifact into target. A version of 0 loads the latest.
func (s *Store) Load(ctx context.Context, name string, version int, target interface{}) (*ArtifactMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if version == 0 {
		var ok bool
		version, ok = s.versions[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, name)
		}
	}

	f, err := os.Open(s.artifactPath(name, version)) //nolint:gosec // filename is constructed from trusted name parameter
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s v%d", ErrArtifactNotFound, name, version)
		}
		return nil, fmt.Errorf("open artifact file: %w", err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // error on close after read is not actionable

	var sf storedFile
	if err := gob.NewDecoder(f).Decode(&sf); err != nil {
		return nil, fmt.Errorf("read artifact file: %w", err)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(sf.CompressedData))
	if err != nil {
		return nil, fmt.Errorf("decompress artifact: %w", err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // error on gzip close after read is not actionable

	rawData, err := io.ReadAll(gzr)
	if err != nil {
		return nil, fmt.Errorf("read decompressed data: %w", err)
	}

	hash := sha256.Sum256(rawData)
	if checksum := hex.EncodeToString(hash[:]); checksum != sf.Metadata.Checksum {
		return nil, fmt.Errorf("checksum mismatch for %s v%d: expected %s, got %s", name, version, sf.Metadata.Checksum, checksum)
	}

	if err := gob.NewDecoder(bytes.NewReader(rawData)).Decode(target); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}

	return &sf.Metadata, nil
}

// LatestVersion returns the latest version number for an artifact.
func (s *Store) LatestVersion(name string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	version, ok := s.versions[name]
	return version, ok
}

// MaxVersion returns the highest version of any artifact, or 0.
func (s *Store) MaxVersion() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	highest := 0
	for _, v := range s.versions {
		if v > highest {
			highest = v
		}
	}
	return highest
}

// ListArtifacts returns metadata for the latest version of every artifact,
// sorted by name.
func (s *Store) ListArtifacts(ctx context.Context) ([]ArtifactMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.versions))
	for name := range s.versions {
		names = append(names, name)
	}
	sort.Strings(names)

	artifacts := make([]ArtifactMetadata, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		meta, err := s.readMetadata(name, s.versions[name])
		if err != nil {
			continue
		}
		artifacts = append(artifacts, *meta)
	}
	return artifacts, nil
}

// readMetadata decodes only the outer file struct.
func (s *Store) readMetadata(name string, version int) (*ArtifactMetadata, error) {
	f, err := os.Open(s.artifactPath(name, version)) //nolint:gosec // filename is constructed from trusted name parameter
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // read-only handle

	var sf storedFile
	if err := gob.NewDecoder(f).Decode(&sf); err != nil {
		return nil, err
	}
	return &sf.Metadata, nil
}

// Delete removes a specific artifact version.
func (s *Store) Delete(ctx context.Context, name string, version int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.artifactPath(name, version)); err != nil {
		return fmt.Errorf("delete artifact: %w", err)
	}

	if s.versions[name] != version {
		return nil
	}

	delete(s.versions, name)
	entries, err := s.listFiles()
	if err != nil {
		return fmt.Errorf("read directory: %w", err)
	}
	for _, e := range entries {
		if e.name == name && e.version > s.versions[name] {
			s.versions[name] = e.version
		}
	}
	return nil
}

// Prune removes artifact versions older than the newest keepVersions
// distinct versions present in the directory. Versions listed in protect
// are never removed.
func (s *Store) Prune(ctx context.Context, keepVersions int, protect ...int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if keepVersions < 1 {
		keepVersions = 1
	}

	entries, err := s.listFiles()
	if err != nil {
		return 0, fmt.Errorf("read directory: %w", err)
	}

	distinct := make(map[int]struct{})
	for _, e := range entries {
		distinct[e.version] = struct{}{}
	}
	versions := make([]int, 0, len(distinct))
	for v := range distinct {
		versions = append(versions, v)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(versions)))

	keep := make(map[int]struct{}, keepVersions+len(protect))
	for i := 0; i < keepVersions && i < len(versions); i++ {
		keep[versions[i]] = struct{}{}
	}
	for _, v := range protect {
		keep[v] = struct{}{}
	}

	removed := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if _, ok := keep[e.version]; ok {
			continue
		}
		if err := os.Remove(s.artifactPath(e.name, e.version)); err == nil {
			removed++
		}
	}

	s.versions = make(map[string]int)
	if err := s.scan(); err != nil {
		return removed, fmt.Errorf("rescan after prune: %w", err)
	}
	return removed, nil
}

// artifactPath returns the file path for an artifact.
func (s *Store) artifactPath(name string, version int) string {
	return filepath.Join(s.baseDir, fmt.Sprintf("%s_v%d%s", name, version, artifactSuffix))
}

// Register gob types for serialization.
//
//nolint:gochecknoinits // gob.Register must be called in init for type registration
func init() {
	gob.Register(ArtifactMetadata{})
	gob.Register(storedFile{})
}
