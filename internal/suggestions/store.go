// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

// Package suggestions keeps a record of every issued brewing suggestion in
// BadgerDB, so a rating submitted later can be linked back to the
// parameters that produced it. Records expire after a configurable TTL.
package suggestions

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/NaomiGonz/AICoffee-Machine/internal/brew"
	"github.com/NaomiGonz/AICoffee-Machine/internal/config"
)

const keyPrefix = "suggestion:"

var (
	// ErrNotFound is returned for unknown or expired suggestion IDs.
	ErrNotFound = errors.New("suggestion not found")

	// ErrAlreadyRated is returned when a suggestion already has a rating.
	ErrAlreadyRated = errors.New("suggestion already rated")
)

// Record is one issued suggestion.
type Record struct {
	ID       string                        `json:"id"`
	Desired  brew.FlavorProfile            `json:"desired_flavor"`
	Fixed    brew.PartialBrewingParameters `json:"fixed_params"`
	BeanList []string                      `json:"bean_list,omitempty"`

	Parameters brew.BrewingParameters `json:"parameters"`
	Predicted  brew.FlavorProfile     `json:"predicted_flavor"`

	// Distance is nil for degraded suggestions.
	Distance       *float64 `json:"distance,omitempty"`
	Degraded       bool     `json:"degraded"`
	DegradedReason string   `json:"degraded_reason,omitempty"`
	Stage          string   `json:"stage"`

	ModelVersion  int       `json:"model_version"`
	IssuedAt      time.Time `json:"issued_at"`
	RatedSampleID string    `json:"rated_sample_id,omitempty"`
}

// Store is a BadgerDB-backed suggestion store.
type Store struct {
	db     *badger.DB
	ttl    time.Duration
	logger zerolog.Logger
}

// Open opens the store. An empty cfg.Dir keeps records in memory.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(cfg config.SuggestionsConfig, logger zerolog.Logger) (*Store, error) {
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("suggestion ttl must be positive, got %v", cfg.TTL)
	}
	logger = logger.With().Str("component", "suggestions").Logger()

	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.Dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = badgerLogger{logger: logger}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}
	logger.Info().Str("dir", cfg.Dir).Dur("ttl", cfg.TTL).Msg("Suggestion store opened")
	return &Store{db: db, ttl: cfg.TTL, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores a record with the store TTL.
func (s *Store) Put(_ context.Context, rec *Record) error {
	if rec.ID == "" {
		return fmt.Errorf("suggestion record needs an ID")
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return s.set(txn, rec, s.ttl)
	})
}

func (s *Store) set(txn *badger.Txn, rec *Record, ttl time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal suggestion: %w", err)
	}
	e := badger.NewEntry([]byte(keyPrefix+rec.ID), data).WithTTL(ttl)
	if err := txn.SetEntry(e); err != nil {
		return fmt.Errorf("set suggestion: %w", err)
	}
	return nil
}

// Get returns a record by ID.
func (s *Store) Get(_ context.Context, id string) (*Record, error) {
	var rec *Record
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		rec, _, err = get(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func get(txn *badger.Txn, id string) (*Record, *badger.Item, error) {
	item, err := txn.Get([]byte(keyPrefix + id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil, fmt.Errorf("suggestion %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get suggestion: %w", err)
	}
	var rec Record
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	}); err != nil {
		return nil, nil, fmt.Errorf("decode suggestion %s: %w", id, err)
	}
	return &rec, item, nil
}

// MarkRated links a suggestion to the sample that rated it. The record
// keeps its remaining TTL. A suggestion can be rated once.
func (s *Store) MarkRated(_ context.Context, id, sampleID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		rec, item, err := get(txn, id)
		if err != nil {
			return err
		}
		if rec.RatedSampleID != "" {
			return fmt.Errorf("suggestion %s: %w", id, ErrAlreadyRated)
		}
		rec.RatedSampleID = sampleID

		ttl := s.ttl
		if exp := item.ExpiresAt(); exp > 0 {
			ttl = time.Until(time.Unix(int64(exp), 0))
			if ttl <= 0 {
				return fmt.Errorf("suggestion %s: %w", id, ErrNotFound)
			}
		}
		return s.set(txn, rec, ttl)
	})
}

// List returns up to limit live records, newest first. A limit of zero
// returns everything.
func (s *Store) List(_ context.Context, limit int) ([]*Record, error) {
	var out []*Record
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec Record
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("decode suggestion: %w", err)
			}
			out = append(out, &rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].IssuedAt.Equal(out[j].IssuedAt) {
			return out[i].IssuedAt.After(out[j].IssuedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// RunGC reclaims value-log space. It is a no-op for in-memory stores.
func (s *Store) RunGC() error {
	for {
		err := s.db.RunValueLogGC(0.5)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run GC: %w", err)
		}
	}
}

// RunGCLoop runs RunGC every interval until ctx is done.
func (s *Store) RunGCLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.RunGC(); err != nil {
				s.logger.Warn().Err(err).Msg("Suggestion store GC failed")
			}
		}
	}
}

// badgerLogger routes Badger's internal logging through zerolog, with
// info and debug chatter demoted to debug.
type badgerLogger struct {
	logger zerolog.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error().Msgf(format, args...)
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn().Msgf(format, args...)
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug().Msgf(format, args...)
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug().Msgf(format, args...)
}
