// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/NaomiGonz/AICoffee-Machine/internal/brew"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/storage"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/training"
)

// mockEngine counts retrains and reloads.
type mockEngine struct {
	mu         sync.Mutex
	retrains   int
	reloads    int
	retrainErr error
	reloaded   chan struct{}
}

func newMockEngine() *mockEngine {
	return &mockEngine{reloaded: make(chan struct{}, 16)}
}

func (m *mockEngine) Retrain(context.Context) (*training.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retrains++
	if m.retrainErr != nil {
		return nil, m.retrainErr
	}
	return &training.Report{Status: training.StatusTrained, Version: m.retrains}, nil
}

func (m *mockEngine) Reload(context.Context) (bool, error) {
	m.mu.Lock()
	m.reloads++
	m.mu.Unlock()
	m.reloaded <- struct{}{}
	return true, nil
}

func (m *mockEngine) counts() (retrains, reloads int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.retrains, m.reloads
}

func runFor(svc interface{ Serve(context.Context) error }, d time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return svc.Serve(ctx)
}

func TestRetrainService_Schedule(t *testing.T) {
	tests := []struct {
		name      string
		cfg       RetrainServiceConfig
		wantAtMin int
		wantAtMax int
	}{
		{"startup only", RetrainServiceConfig{TrainOnStartup: true, TrainInterval: time.Hour}, 1, 1},
		{"no startup", RetrainServiceConfig{TrainInterval: time.Hour}, 0, 0},
		{"ticker", RetrainServiceConfig{TrainInterval: 40 * time.Millisecond}, 2, 10},
		{"disabled schedule", RetrainServiceConfig{}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newMockEngine()
			svc := NewRetrainService(engine, tt.cfg, zerolog.Nop())
			if err := runFor(svc, 200*time.Millisecond); !errors.Is(err, context.DeadlineExceeded) {
				t.Errorf("Serve() error = %v, want DeadlineExceeded", err)
			}
			got, _ := engine.counts()
			if got < tt.wantAtMin || got > tt.wantAtMax {
				t.Errorf("Retrain() called %d times, want [%d, %d]", got, tt.wantAtMin, tt.wantAtMax)
			}
		})
	}
}

func TestRetrainService_FailuresDoNotStopService(t *testing.T) {
	engine := newMockEngine()
	engine.retrainErr = &brew.InsufficientDataError{Scope: "training", Have: 3, Need: 10}
	svc := NewRetrainService(engine, RetrainServiceConfig{TrainOnStartup: true, TrainInterval: 30 * time.Millisecond}, zerolog.Nop())

	if err := runFor(svc, 150*time.Millisecond); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() error = %v", err)
	}
	if got, _ := engine.counts(); got < 2 {
		t.Errorf("Retrain() called %d times, want the service to keep trying", got)
	}
}

func TestRetrainService_Trigger(t *testing.T) {
	engine := newMockEngine()
	svc := NewRetrainService(engine, RetrainServiceConfig{TrainInterval: time.Hour, TriggersPerHour: 2}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = svc.Serve(ctx)
		close(done)
	}()

	if err := svc.Trigger(); err != nil {
		t.Fatalf("first Trigger() error = %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if err := svc.Trigger(); err != nil {
		t.Fatalf("second Trigger() error = %v", err)
	}
	if err := svc.Trigger(); !errors.Is(err, ErrRetrainRateLimited) {
		t.Errorf("third Trigger() error = %v, want ErrRetrainRateLimited", err)
	}
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	if got, _ := engine.counts(); got != 2 {
		t.Errorf("Retrain() called %d times, want 2", got)
	}
	if svc.String() != "retrain-service" {
		t.Errorf("String() = %q", svc.String())
	}
}

func TestArtifactWatcherService_ReloadsOnManifest(t *testing.T) {
	dir := t.TempDir()
	engine := newMockEngine()
	svc := NewArtifactWatcherService(engine, dir, 20*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = svc.Serve(ctx) }()

	wait := func(what string) {
		t.Helper()
		select {
		case <-engine.reloaded:
		case <-time.After(2 * time.Second):
			t.Fatalf("no reload after %s", what)
		}
	}
	wait("start")

	// Unrelated files are ignored.
	if err := os.WriteFile(filepath.Join(dir, "model_acidity_v1.gob.gz"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	select {
	case <-engine.reloaded:
		t.Fatal("reloaded on an artifact write")
	case <-time.After(150 * time.Millisecond):
	}

	// A burst of manifest writes collapses into one reload.
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(filepath.Join(dir, storage.ManifestFile), []byte("{}"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	wait("manifest write")
	time.Sleep(100 * time.Millisecond)
	if _, reloads := engine.counts(); reloads != 2 {
		t.Errorf("Reload() called %d times, want 2", reloads)
	}
}

func TestArtifactWatcherService_MissingDirectory(t *testing.T) {
	svc := NewArtifactWatcherService(newMockEngine(), filepath.Join(t.TempDir(), "missing"), 0, zerolog.Nop())
	if err := runFor(svc, time.Second); err == nil || errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() error = %v, want watch failure", err)
	}
}

type countingGC struct {
	mu       sync.Mutex
	interval time.Duration
}

func (c *countingGC) RunGCLoop(ctx context.Context, interval time.Duration) {
	c.mu.Lock()
	c.interval = interval
	c.mu.Unlock()
	<-ctx.Done()
}

func TestSuggestionGCService(t *testing.T) {
	gc := &countingGC{}
	svc := NewSuggestionGCService(gc, 0)
	if err := runFor(svc, 50*time.Millisecond); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() error = %v", err)
	}
	gc.mu.Lock()
	defer gc.mu.Unlock()
	if gc.interval != 10*time.Minute {
		t.Errorf("interval = %v, want default 10m", gc.interval)
	}
}

type countingPruner struct {
	calls atomic.Int32
}

func (p *countingPruner) PruneCache() int {
	p.calls.Add(1)
	return 1
}

func TestCacheSweepService(t *testing.T) {
	if got := NewCacheSweepService(&countingPruner{}, 0, zerolog.Nop()).interval; got != 5*time.Minute {
		t.Errorf("default interval = %v, want 5m", got)
	}

	pruner := &countingPruner{}
	svc := NewCacheSweepService(pruner, 10*time.Millisecond, zerolog.Nop())
	if err := runFor(svc, 100*time.Millisecond); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() error = %v", err)
	}
	if pruner.calls.Load() < 2 {
		t.Errorf("PruneCache called %d times, want at least 2", pruner.calls.Load())
	}
	if svc.String() != "cache-sweep" {
		t.Errorf("String() = %q", svc.String())
	}
}
