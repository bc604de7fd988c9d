// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/NaomiGonz/AICoffee-Machine/internal/metrics"
)

func TestPrometheusMetrics_RoutePatternLabel(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics)
	r.Get("/api/v1/test/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	counter := metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/test/{id}", "418")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"1", "2", "3"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/test/"+id, nil))
		if rec.Code != http.StatusTeapot {
			t.Fatalf("status = %d, want 418", rec.Code)
		}
	}

	if got := testutil.ToFloat64(counter) - before; got != 3 {
		t.Errorf("requests recorded under route pattern = %v, want 3", got)
	}
}

func TestPrometheusMetrics_Unmatched(t *testing.T) {
	tests := []struct {
		name    string
		handler http.Handler
		status  string
	}{
		{
			name: "outside chi",
			handler: PrometheusMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.WriteHeader(http.StatusOK)
			})),
			status: "500",
		},
		{
			name: "implicit 200",
			handler: PrometheusMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("ok"))
			})),
			status: "200",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := metrics.APIRequestsTotal.WithLabelValues(http.MethodPost, unmatchedRoute, tt.status)
			before := testutil.ToFloat64(counter)

			tt.handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/anything", nil))

			if got := testutil.ToFloat64(counter) - before; got != 1 {
				t.Errorf("recorded %v requests with status %s, want 1", got, tt.status)
			}
		})
	}
}

func TestPrometheusMetrics_ActiveRequestsReturnToBaseline(t *testing.T) {
	before := testutil.ToFloat64(metrics.APIActiveRequests)
	var during float64
	handler := PrometheusMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		during = testutil.ToFloat64(metrics.APIActiveRequests)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if during != before+1 {
		t.Errorf("active requests during handler = %v, want %v", during, before+1)
	}
	if after := testutil.ToFloat64(metrics.APIActiveRequests); after != before {
		t.Errorf("active requests after handler = %v, want %v", after, before)
	}
}
