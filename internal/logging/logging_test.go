// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{" error ", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInit_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	logger := WithComponent("trainer")
	logger.Info().Int("samples", 12).Msg("training started")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if entry["component"] != "trainer" || entry["message"] != "training started" {
		t.Errorf("entry = %v", entry)
	}
}

func TestCtx_AddsIDs(t *testing.T) {
	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), NewTestLogger(&buf))
	ctx = ContextWithRequestID(ctx, "req-1")
	ctx = ContextWithRunID(ctx, "run-9")

	Ctx(ctx).Info().Msg("hello")

	out := buf.String()
	for _, want := range []string{`"request_id":"req-1"`, `"run_id":"run-9"`, `"hello"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %s missing %s", out, want)
		}
	}
	if RequestIDFromContext(context.Background()) != "" {
		t.Error("RequestIDFromContext on empty context is not empty")
	}
}

func TestNewID_Unique(t *testing.T) {
	if NewID() == NewID() {
		t.Error("NewID returned the same value twice")
	}
}

func TestSlogHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewSlogHandler(NewTestLogger(&buf))).
		With("service", "retrain").
		WithGroup("event")

	logger.Warn("service restarted", "attempt", 2, "backoff", time.Second)

	out := buf.String()
	for _, want := range []string{`"level":"warn"`, `"service":"retrain"`, `"event.attempt":2`, `"service restarted"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %s missing %s", out, want)
		}
	}
}
