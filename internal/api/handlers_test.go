// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/NaomiGonz/AICoffee-Machine/internal/brew"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/quality"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/training"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brewer"
	"github.com/NaomiGonz/AICoffee-Machine/internal/samples"
	"github.com/NaomiGonz/AICoffee-Machine/internal/suggestions"
	"github.com/NaomiGonz/AICoffee-Machine/internal/supervisor/services"
)

// fakeEngine returns canned results and records the last request of each
// kind.
type fakeEngine struct {
	mu sync.Mutex

	err error

	trained     []brew.BrewingSample
	trainOpts   brewer.TrainOptions
	retrained   int
	lastSuggest brewer.SuggestRequest
	lastImpact  brewer.ImpactRequest
	lastFB      brewer.Feedback
	lastBlend   brewer.BlendRequest
}

func (f *fakeEngine) Train(_ context.Context, s []brew.BrewingSample, opts brewer.TrainOptions) (*training.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trained, f.trainOpts = s, opts
	if f.err != nil {
		return nil, f.err
	}
	return &training.Report{Status: training.StatusTrained, Version: 1, SampleCount: len(s)}, nil
}

func (f *fakeEngine) Retrain(context.Context) (*training.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retrained++
	if f.err != nil {
		return nil, f.err
	}
	return &training.Report{Status: training.StatusTrained, Version: 2}, nil
}

func (f *fakeEngine) PredictFlavorProfile(context.Context, brew.BrewingParameters) (brew.FlavorProfile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return brew.FlavorProfile{brew.Acidity: 6, brew.Strength: 7}, nil
}

func (f *fakeEngine) SuggestBrewingParameters(_ context.Context, req brewer.SuggestRequest) (*brewer.Suggestion, error) {
	f.mu.Lock()
	f.lastSuggest = req
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &brewer.Suggestion{ID: "s-1", Stage: "refined", ModelVersion: 3}, nil
}

func (f *fakeEngine) OptimizeBlend(_ context.Context, req brewer.BlendRequest) (*brewer.BlendSummary, error) {
	f.mu.Lock()
	f.lastBlend = req
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &brewer.BlendSummary{Blend: brew.BeanBlend{"ethiopia": 60, "brazil": 40}, Primary: "ethiopia"}, nil
}

func (f *fakeEngine) AnalyzeFeatureImpact(_ context.Context, req brewer.ImpactRequest) (*brewer.ImpactResult, error) {
	f.mu.Lock()
	f.lastImpact = req
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &brewer.ImpactResult{Feature: req.Feature, Target: req.Target, ModelVersion: 1}, nil
}

func (f *fakeEngine) RecordFeedback(_ context.Context, fb brewer.Feedback) (brew.BrewingSample, error) {
	f.mu.Lock()
	f.lastFB = fb
	f.mu.Unlock()
	if f.err != nil {
		return brew.BrewingSample{}, f.err
	}
	return brew.BrewingSample{ID: "sample-1", Ratings: fb.Ratings, SuggestionID: fb.SuggestionID}, nil
}

func (f *fakeEngine) ClusterInsights(id int) (*quality.Insights, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &quality.Insights{ClusterID: id, Size: 4}, nil
}

func (f *fakeEngine) Status(context.Context) brewer.Status {
	return brewer.Status{ModelVersion: 3, SampleCount: 120}
}

type fakeTrigger struct{ err error }

func (t fakeTrigger) Trigger() error { return t.err }

type fakeSamples struct {
	pingErr error
	filter  samples.Filter
}

func (s *fakeSamples) Query(_ context.Context, f samples.Filter) ([]brew.BrewingSample, error) {
	s.filter = f
	return []brew.BrewingSample{{ID: "a"}, {ID: "b"}}, nil
}

func (s *fakeSamples) Get(_ context.Context, id string) (*brew.BrewingSample, error) {
	if id != "a" {
		return nil, fmt.Errorf("sample %s: %w", id, samples.ErrNotFound)
	}
	return &brew.BrewingSample{ID: "a"}, nil
}

func (s *fakeSamples) Ping(context.Context) error { return s.pingErr }

func newTestServer(engine *fakeEngine, opts ...HandlerOption) http.Handler {
	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitDisabled = true
	return NewRouter(NewHandler(engine, opts...), RouterConfig{Middleware: cfg, RequestTimeout: 5 * time.Second})
}

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp APIResponse
	if rec.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Failed to unmarshal response: %v\n%s", err, rec.Body.String())
		}
	}
	return rec, resp
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"validation", brew.NewValidationError("temperature", "temperature out of range"), http.StatusBadRequest, ErrCodeValidationFailed},
		{"model not trained", &brew.ModelNotTrainedError{Target: "acidity"}, http.StatusServiceUnavailable, ErrCodeModelNotTrained},
		{"encoding", &brew.EncodingError{Column: "bean_type", Reason: "no encoder"}, http.StatusUnprocessableEntity, ErrCodeEncoding},
		{"breaker open", fmt.Errorf("load samples: %w", gobreaker.ErrOpenState), http.StatusServiceUnavailable, ErrCodeServiceUnavailable},
		{"timeout", context.DeadlineExceeded, http.StatusServiceUnavailable, ErrCodeServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, ErrCodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&fakeEngine{err: tt.err})
			rec, resp := do(t, srv, http.MethodPost, "/api/v1/brew/predict", `{"temperature": 93}`)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if resp.Success || resp.Error == nil || resp.Error.Code != tt.wantErr {
				t.Errorf("error = %+v, want code %s", resp.Error, tt.wantErr)
			}
			if resp.Error != nil && resp.Error.RequestID == "" {
				t.Error("error response has no request id")
			}
			if tt.name == "unknown" && strings.Contains(rec.Body.String(), "boom") {
				t.Error("internal error message leaked to the client")
			}
		})
	}
}

func TestPredict(t *testing.T) {
	srv := newTestServer(&fakeEngine{})
	rec, resp := do(t, srv, http.MethodPost, "/api/v1/brew/predict",
		`{"extraction_pressure": 9, "temperature": 93, "extraction_time": 30, "dose_size": 18, "cup_size": 150, "bean_type": "Ethiopia"}`)
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	data, ok := resp.Data.(map[string]interface{})
	if !ok || data["predicted_flavor"] == nil {
		t.Errorf("data = %v, want predicted_flavor", resp.Data)
	}
	if rec.Header().Get("X-Request-ID") != resp.Meta.RequestID {
		t.Errorf("meta request id %q does not match header %q", resp.Meta.RequestID, rec.Header().Get("X-Request-ID"))
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"malformed", `{"temperature":`},
		{"unknown field", `{"temprature": 93}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := do(t, newTestServer(&fakeEngine{}), http.MethodPost, "/api/v1/brew/predict", tt.body)
			if rec.Code != http.StatusBadRequest || resp.Error == nil || resp.Error.Code != ErrCodeBadRequest {
				t.Errorf("status = %d, error = %+v, want 400 BAD_REQUEST", rec.Code, resp.Error)
			}
		})
	}
}

func TestDecodeBodyTooLarge(t *testing.T) {
	srv := NewRouter(NewHandler(&fakeEngine{}, WithMaxBodyBytes(32)), RouterConfig{})
	body := `{"bean_type": "` + strings.Repeat("x", 100) + `"}`
	if rec, _ := do(t, srv, http.MethodPost, "/api/v1/brew/predict", body); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestTrain(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		err           error
		wantCode      int
		wantRetrained int
		wantTrained   int
	}{
		{"empty body retrains from log", "", nil, http.StatusOK, 1, 0},
		{"uploaded samples", `{"samples": [{"id": "a"}, {"id": "b"}], "test_size": 0.25, "seed": 7}`, nil, http.StatusOK, 0, 2},
		{"bad test size", `{"samples": [{"id": "a"}], "test_size": 1.5}`, nil, http.StatusBadRequest, 0, 0},
		{"insufficient data", "", &brew.InsufficientDataError{Scope: "training", Have: 3, Need: 10}, http.StatusUnprocessableEntity, 1, 0},
		{"already training", "", brewer.ErrTrainingInProgress, http.StatusConflict, 1, 0},
		{"no sample source", "", brewer.ErrNoSampleSource, http.StatusServiceUnavailable, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{err: tt.err}
			rec, _ := do(t, newTestServer(engine), http.MethodPost, "/api/v1/brew/train", tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if engine.retrained != tt.wantRetrained || len(engine.trained) != tt.wantTrained {
				t.Errorf("retrained = %d, trained = %d; want %d, %d", engine.retrained, len(engine.trained), tt.wantRetrained, tt.wantTrained)
			}
			if tt.wantTrained > 0 && (engine.trainOpts.TestSize != 0.25 || engine.trainOpts.Seed != 7) {
				t.Errorf("train options = %+v", engine.trainOpts)
			}
		})
	}
}

func TestRetrain(t *testing.T) {
	tests := []struct {
		name     string
		opts     []HandlerOption
		wantCode int
	}{
		{"not enabled", nil, http.StatusServiceUnavailable},
		{"queued", []HandlerOption{WithRetrainTrigger(fakeTrigger{})}, http.StatusAccepted},
		{"rate limited", []HandlerOption{WithRetrainTrigger(fakeTrigger{err: services.ErrRetrainRateLimited})}, http.StatusTooManyRequests},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := do(t, newTestServer(&fakeEngine{}, tt.opts...), http.MethodPost, "/api/v1/brew/retrain", "")
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
		})
	}
}

func TestSuggest(t *testing.T) {
	engine := &fakeEngine{}
	srv := newTestServer(engine)

	rec, resp := do(t, srv, http.MethodPost, "/api/v1/brew/suggest",
		`{"desired_flavor": {"acidity": 7, "strength": 6}, "fixed_params": {"cup_size": "large"}, "bean_list": ["Ethiopia", "Brazil"], "candidates": 500}`)
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if engine.lastSuggest.Fixed.CupSize != "large" || len(engine.lastSuggest.BeanList) != 2 {
		t.Errorf("request = %+v", engine.lastSuggest)
	}
	if engine.lastSuggest.Candidates == nil || *engine.lastSuggest.Candidates != 500 {
		t.Errorf("candidates = %v, want 500", engine.lastSuggest.Candidates)
	}

	invalid := []string{
		`{"bean_list": ["Ethiopia"]}`,
		`{"desired_flavor": {"acidity": 7}, "fixed_params": {"cup_size": "huge"}}`,
		`{"desired_flavor": {"acidity": 7}, "fixed_params": {"temperature": 120}}`,
		`{"desired_flavor": {"acidity": 7}, "candidates": 0}`,
		`{"desired_flavor": {"acidity": 7}, "bean_list": [""]}`,
	}
	for _, body := range invalid {
		rec, resp := do(t, srv, http.MethodPost, "/api/v1/brew/suggest", body)
		if rec.Code != http.StatusBadRequest || resp.Error == nil || resp.Error.Code != ErrCodeValidationFailed {
			t.Errorf("body %s: status = %d, error = %+v, want 400 VALIDATION_FAILED", body, rec.Code, resp.Error)
		}
	}
}

func TestBlend(t *testing.T) {
	engine := &fakeEngine{}
	srv := newTestServer(engine)

	rec, _ := do(t, srv, http.MethodPost, "/api/v1/brew/blend",
		`{"bean_list": ["Ethiopia", "Brazil"], "desired_flavor": {"sweetness": 8}, "base_params": {"temperature": 92}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if engine.lastBlend.Base.Temperature != 92 || len(engine.lastBlend.Beans) != 2 {
		t.Errorf("request = %+v", engine.lastBlend)
	}

	if rec, _ := do(t, srv, http.MethodPost, "/api/v1/brew/blend", `{"bean_list": ["Ethiopia"], "desired_flavor": {"sweetness": 8}}`); rec.Code != http.StatusOK {
		t.Errorf("single bean: status = %d, want 200", rec.Code)
	}
	if rec, _ := do(t, srv, http.MethodPost, "/api/v1/brew/blend", `{"bean_list": [], "desired_flavor": {"sweetness": 8}}`); rec.Code != http.StatusBadRequest {
		t.Errorf("empty bean list: status = %d, want 400", rec.Code)
	}
}

func TestImpact(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantCode  int
		wantRange *brew.Interval
		wantPts   int
	}{
		{"default range", "feature=temperature&target=acidity", http.StatusOK, nil, 0},
		{"explicit range", "feature=temperature&target=Bitterness&min=88&max=95&points=8", http.StatusOK, &brew.Interval{Min: 88, Max: 95}, 8},
		{"missing target", "feature=temperature", http.StatusBadRequest, nil, 0},
		{"unknown target", "feature=temperature&target=saltiness", http.StatusBadRequest, nil, 0},
		{"min without max", "feature=temperature&target=acidity&min=88", http.StatusBadRequest, nil, 0},
		{"non numeric bound", "feature=temperature&target=acidity&min=hot&max=95", http.StatusBadRequest, nil, 0},
		{"too few points", "feature=temperature&target=acidity&points=1", http.StatusBadRequest, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{}
			rec, _ := do(t, newTestServer(engine), http.MethodGet, "/api/v1/brew/impact?"+tt.query, "")
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			got := engine.lastImpact
			if (got.Range == nil) != (tt.wantRange == nil) || (got.Range != nil && *got.Range != *tt.wantRange) {
				t.Errorf("range = %v, want %v", got.Range, tt.wantRange)
			}
			if got.Points != tt.wantPts {
				t.Errorf("points = %d, want %d", got.Points, tt.wantPts)
			}
		})
	}
}

func TestFeedback(t *testing.T) {
	const id = "0b9f2c4e-8f33-4c59-9d0e-3f6f5e1f2a10"
	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
	}{
		{"by suggestion", `{"suggestion_id": "` + id + `", "ratings": {"acidity": 6}}`, nil, http.StatusCreated},
		{"by parameters", `{"parameters": {"temperature": 93, "bean_type": "Kenya"}, "ratings": {"acidity": 6}}`, nil, http.StatusCreated},
		{"missing ratings", `{"suggestion_id": "` + id + `"}`, nil, http.StatusBadRequest},
		{"malformed id", `{"suggestion_id": "nope", "ratings": {"acidity": 6}}`, nil, http.StatusBadRequest},
		{"unknown suggestion", `{"suggestion_id": "` + id + `", "ratings": {"acidity": 6}}`, suggestions.ErrNotFound, http.StatusNotFound},
		{"already rated", `{"suggestion_id": "` + id + `", "ratings": {"acidity": 6}}`, fmt.Errorf("suggestion %s: %w", id, suggestions.ErrAlreadyRated), http.StatusConflict},
		{"no sink", `{"parameters": {"temperature": 93}, "ratings": {"acidity": 6}}`, brewer.ErrNoSampleSink, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{err: tt.err}
			rec, resp := do(t, newTestServer(engine), http.MethodPost, "/api/v1/brew/feedback", tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode == http.StatusCreated && !resp.Success {
				t.Error("expected success envelope")
			}
		})
	}
}

func TestClusterInsights(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		err      error
		wantCode int
	}{
		{"found", "/api/v1/brew/clusters/2", nil, http.StatusOK},
		{"not an integer", "/api/v1/brew/clusters/two", nil, http.StatusBadRequest},
		{"out of range", "/api/v1/brew/clusters/9", brew.NewValidationError("cluster_id", "cluster id 9 out of range"), http.StatusBadRequest},
		{"not loaded", "/api/v1/brew/clusters/1", brewer.ErrClusteringUnavailable, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := do(t, newTestServer(&fakeEngine{err: tt.err}), http.MethodGet, tt.path, "")
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
		})
	}
}

func TestSamplesAndSuggestionsEndpoints(t *testing.T) {
	store := &fakeSamples{}
	srv := newTestServer(&fakeEngine{}, WithSampleReader(store))

	rec, resp := do(t, srv, http.MethodGet, "/api/v1/brew/samples?bean_type=Kenya&limit=5&since=2026-01-02T00:00:00Z", "")
	if rec.Code != http.StatusOK || resp.Meta == nil || resp.Meta.Count == nil || *resp.Meta.Count != 2 {
		t.Fatalf("status = %d, meta = %+v", rec.Code, resp.Meta)
	}
	if store.filter.BeanType != "Kenya" || store.filter.Limit != 5 || store.filter.Since.IsZero() {
		t.Errorf("filter = %+v", store.filter)
	}

	for path, want := range map[string]int{
		"/api/v1/brew/samples?since=yesterday": http.StatusBadRequest,
		"/api/v1/brew/samples?limit=0":         http.StatusBadRequest,
		"/api/v1/brew/samples/a":               http.StatusOK,
		"/api/v1/brew/samples/zzz":             http.StatusNotFound,
		"/api/v1/brew/suggestions":             http.StatusServiceUnavailable,
		"/api/v1/brew/suggestions/abc":         http.StatusServiceUnavailable,
	} {
		if rec, _ := do(t, srv, http.MethodGet, path, ""); rec.Code != want {
			t.Errorf("%s: status = %d, want %d", path, rec.Code, want)
		}
	}
}

func TestHealth(t *testing.T) {
	rec, resp := do(t, newTestServer(&fakeEngine{}), http.MethodGet, "/api/v1/health/live", "")
	if rec.Code != http.StatusOK || !resp.Success {
		t.Errorf("live: status = %d", rec.Code)
	}

	tests := []struct {
		name     string
		pingErr  error
		wantCode int
	}{
		{"ready", nil, http.StatusOK},
		{"sample store down", errors.New("database is locked"), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&fakeEngine{}, WithSampleReader(&fakeSamples{pingErr: tt.pingErr}))
			if rec, _ := do(t, srv, http.MethodGet, "/api/v1/health/ready", ""); rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
		})
	}
}

func TestStatus(t *testing.T) {
	rec, resp := do(t, newTestServer(&fakeEngine{}), http.MethodGet, "/api/v1/brew/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	data, _ := resp.Data.(map[string]interface{})
	if data["model_version"] != float64(3) {
		t.Errorf("model_version = %v, want 3", data["model_version"])
	}
}

func TestRouting(t *testing.T) {
	srv := newTestServer(&fakeEngine{})

	rec, resp := do(t, srv, http.MethodGet, "/api/v1/brew/nope", "")
	if rec.Code != http.StatusNotFound || resp.Error == nil || resp.Error.Code != ErrCodeNotFound {
		t.Errorf("unknown route: status = %d, error = %+v", rec.Code, resp.Error)
	}
	rec, resp = do(t, srv, http.MethodGet, "/api/v1/brew/predict", "")
	if rec.Code != http.StatusMethodNotAllowed || resp.Error == nil || resp.Error.Code != ErrCodeMethodNotAllowed {
		t.Errorf("wrong method: status = %d, error = %+v", rec.Code, resp.Error)
	}
	if rec, _ := do(t, srv, http.MethodGet, "/metrics", ""); rec.Code != http.StatusOK {
		t.Errorf("metrics: status = %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitRequests = 2
	cfg.RateLimitWindow = time.Minute
	srv := NewRouter(NewHandler(&fakeEngine{}), RouterConfig{Middleware: cfg})

	for i := 0; i < 2; i++ {
		if rec, _ := do(t, srv, http.MethodGet, "/api/v1/brew/status", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i+1, rec.Code)
		}
	}
	rec, resp := do(t, srv, http.MethodGet, "/api/v1/brew/status", "")
	if rec.Code != http.StatusTooManyRequests || resp.Error == nil || resp.Error.Code != ErrCodeTooManyRequests {
		t.Errorf("third request: status = %d, error = %+v", rec.Code, resp.Error)
	}

	// Probes are outside the limited group.
	if rec, _ := do(t, srv, http.MethodGet, "/api/v1/health/live", ""); rec.Code != http.StatusOK {
		t.Errorf("live probe throttled: status = %d", rec.Code)
	}
}
