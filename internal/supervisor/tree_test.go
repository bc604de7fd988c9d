// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/NaomiGonz/AICoffee-Machine/internal/logging"
)

// stubService counts starts and fails a fixed number of times before
// running until cancelled.
type stubService struct {
	name     string
	starts   atomic.Int32
	failures atomic.Int32
	maxFails int32
}

func (s *stubService) Serve(ctx context.Context) error {
	s.starts.Add(1)
	if s.failures.Add(1) <= s.maxFails {
		return errors.New("simulated failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *stubService) String() string { return s.name }

func testLogger() *slog.Logger {
	return slog.New(logging.NewSlogHandler(zerolog.Nop()))
}

func TestNewSupervisorTree_Defaults(t *testing.T) {
	tree, err := NewSupervisorTree(testLogger(), TreeConfig{})
	if err != nil {
		t.Fatalf("NewSupervisorTree() error = %v", err)
	}
	if tree.Root() == nil {
		t.Fatal("root supervisor should not be nil")
	}
	if tree.config != DefaultTreeConfig() {
		t.Errorf("config = %+v, want %+v", tree.config, DefaultTreeConfig())
	}
}

func TestSupervisorTree_StartsEveryLayer(t *testing.T) {
	tests := []struct {
		name string
		add  func(*SupervisorTree, suture.Service) suture.ServiceToken
	}{
		{"data", (*SupervisorTree).AddDataService},
		{"training", (*SupervisorTree).AddTrainingService},
		{"api", (*SupervisorTree).AddAPIService},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, _ := NewSupervisorTree(testLogger(), TreeConfig{ShutdownTimeout: time.Second})
			svc := &stubService{name: tt.name}
			tt.add(tree, svc)

			ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			defer cancel()
			errCh := tree.ServeBackground(ctx)
			time.Sleep(100 * time.Millisecond)

			if svc.starts.Load() < 1 {
				t.Errorf("%s service was not started", tt.name)
			}
			cancel()
			select {
			case <-errCh:
			case <-time.After(2 * time.Second):
				t.Error("tree did not shut down in time")
			}
		})
	}
}

func TestSupervisorTree_RestartsFailingService(t *testing.T) {
	tree, _ := NewSupervisorTree(testLogger(), TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})
	failing := &stubService{name: "retrain", maxFails: 2}
	stable := &stubService{name: "http"}
	tree.AddTrainingService(failing)
	tree.AddAPIService(stable)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	go func() { _ = tree.Serve(ctx) }()
	time.Sleep(200 * time.Millisecond)

	if got := failing.starts.Load(); got < 3 {
		t.Errorf("failing service started %d times, want at least 3", got)
	}
	if got := stable.starts.Load(); got != 1 {
		t.Errorf("stable service started %d times, want 1", got)
	}
}
