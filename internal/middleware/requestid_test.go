// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		wantKeep bool
	}{
		{"generates when missing", "", false},
		{"preserves upstream id", "existing-request-id-12345", true},
		{"replaces overlong id", strings.Repeat("a", 200), false},
		{"replaces id with control characters", "abc\ndef", false},
		{"replaces id with spaces", "abc def", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var capturedID string
			handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				capturedID = GetRequestID(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			responseID := rec.Header().Get(RequestIDHeader)
			if responseID == "" {
				t.Fatal("Expected X-Request-ID header in response")
			}
			if capturedID != responseID {
				t.Errorf("Context ID (%s) doesn't match response header ID (%s)", capturedID, responseID)
			}
			if tt.wantKeep {
				if responseID != tt.incoming {
					t.Errorf("X-Request-ID = %q, want %q", responseID, tt.incoming)
				}
				return
			}
			if _, err := uuid.Parse(responseID); err != nil {
				t.Errorf("Response X-Request-ID is not a valid UUID: %v", err)
			}
		})
	}
}

func TestRequestID_UniquePerRequest(t *testing.T) {
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))
		id := rec.Header().Get(RequestIDHeader)
		if seen[id] {
			t.Fatalf("duplicate request id %s", id)
		}
		seen[id] = true
	}
}
