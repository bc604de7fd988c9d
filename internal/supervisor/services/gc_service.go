// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// GCRunner runs a GC loop until its context ends. *suggestions.Store
// implements it.
type GCRunner interface {
	RunGCLoop(ctx context.Context, interval time.Duration)
}

// SuggestionGCService runs value-log GC on the suggestion store.
type SuggestionGCService struct {
	store    GCRunner
	interval time.Duration
	name     string
}

// NewSuggestionGCService creates the GC service.
func NewSuggestionGCService(store GCRunner, interval time.Duration) *SuggestionGCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &SuggestionGCService{store: store, interval: interval, name: "suggestion-gc"}
}

// Serve implements suture.Service.
func (s *SuggestionGCService) Serve(ctx context.Context) error {
	s.store.RunGCLoop(ctx, s.interval)
	return ctx.Err()
}

// String returns the service name for logging.
func (s *SuggestionGCService) String() string {
	return s.name
}

// CachePruner drops expired entries from an in-memory cache and reports
// how many it removed. *brewer.Engine implements it.
type CachePruner interface {
	PruneCache() int
}

// CacheSweepService removes expired suggestion cache entries on a ticker.
// Expired entries are otherwise only dropped when looked up again or
// pushed out by capacity.
type CacheSweepService struct {
	cache    CachePruner
	interval time.Duration
	logger   zerolog.Logger
}

// NewCacheSweepService creates the sweep service. A non-positive interval
// means 5m.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCacheSweepService(cache CachePruner, interval time.Duration, logger zerolog.Logger) *CacheSweepService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &CacheSweepService{
		cache:    cache,
		interval: interval,
		logger:   logger.With().Str("service", "cache-sweep").Logger(),
	}
}

// Serve implements suture.Service.
func (s *CacheSweepService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := s.cache.PruneCache(); n > 0 {
				s.logger.Debug().Int("removed", n).Msg("Expired suggestions dropped from cache")
			}
		}
	}
}

func (s *CacheSweepService) String() string {
	return "cache-sweep"
}
