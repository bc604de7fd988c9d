// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/NaomiGonz/AICoffee-Machine/internal/brew"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/quality"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/training"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brewer"
	"github.com/NaomiGonz/AICoffee-Machine/internal/samples"
	"github.com/NaomiGonz/AICoffee-Machine/internal/suggestions"
	"github.com/NaomiGonz/AICoffee-Machine/internal/validation"
)

// DefaultMaxBodyBytes bounds request bodies. Training uploads are the
// largest legitimate payload.
const DefaultMaxBodyBytes = 8 << 20

// Engine is the brewing engine as seen by the HTTP layer. *brewer.Engine
// implements it.
type Engine interface {
	Train(ctx context.Context, samples []brew.BrewingSample, opts brewer.TrainOptions) (*training.Report, error)
	Retrain(ctx context.Context) (*training.Report, error)
	PredictFlavorProfile(ctx context.Context, params brew.BrewingParameters) (brew.FlavorProfile, error)
	SuggestBrewingParameters(ctx context.Context, req brewer.SuggestRequest) (*brewer.Suggestion, error)
	OptimizeBlend(ctx context.Context, req brewer.BlendRequest) (*brewer.BlendSummary, error)
	AnalyzeFeatureImpact(ctx context.Context, req brewer.ImpactRequest) (*brewer.ImpactResult, error)
	RecordFeedback(ctx context.Context, fb brewer.Feedback) (brew.BrewingSample, error)
	ClusterInsights(id int) (*quality.Insights, error)
	Status(ctx context.Context) brewer.Status
}

// RetrainTrigger queues an asynchronous retrain. The retrain service
// implements it.
type RetrainTrigger interface {
	Trigger() error
}

// SampleReader reads the stored sample log.
type SampleReader interface {
	Query(ctx context.Context, f samples.Filter) ([]brew.BrewingSample, error)
	Get(ctx context.Context, id string) (*brew.BrewingSample, error)
	Ping(ctx context.Context) error
}

// SuggestionReader reads issued suggestions.
type SuggestionReader interface {
	List(ctx context.Context, limit int) ([]*suggestions.Record, error)
	Get(ctx context.Context, id string) (*suggestions.Record, error)
}

// Handler serves the brewing API.
type Handler struct {
	engine      Engine
	trigger     RetrainTrigger
	samples     SampleReader
	suggestions SuggestionReader
	maxBody     int64
	startTime   time.Time
}

// HandlerOption configures optional collaborators.
type HandlerOption func(*Handler)

// WithRetrainTrigger enables POST /api/v1/brew/retrain.
func WithRetrainTrigger(t RetrainTrigger) HandlerOption {
	return func(h *Handler) { h.trigger = t }
}

// WithSampleReader enables the sample listing endpoints and the
// readiness check.
func WithSampleReader(s SampleReader) HandlerOption {
	return func(h *Handler) { h.samples = s }
}

// WithSuggestionReader enables the suggestion listing endpoints.
func WithSuggestionReader(s SuggestionReader) HandlerOption {
	return func(h *Handler) { h.suggestions = s }
}

// WithMaxBodyBytes overrides DefaultMaxBodyBytes.
func WithMaxBodyBytes(n int64) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.maxBody = n
		}
	}
}

// NewHandler creates the API handler.
func NewHandler(engine Engine, opts ...HandlerOption) *Handler {
	h := &Handler{
		engine:    engine,
		maxBody:   DefaultMaxBodyBytes,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// decodeJSON reads a size-limited JSON body into dst. Unknown fields are
// rejected. An empty body leaves dst unchanged when allowEmpty is set.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, allowEmpty bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) && allowEmpty {
			return nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		}
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// decodeAndValidate decodes a body and runs its validate tags. It writes
// the error response itself and reports whether the handler may continue.
func (h *Handler) decodeAndValidate(rw *ResponseWriter, w http.ResponseWriter, r *http.Request, dst interface{}, allowEmpty bool) bool {
	if err := h.decodeJSON(w, r, dst, allowEmpty); err != nil {
		rw.BadRequest(err.Error())
		return false
	}
	if verr := validation.ValidateStruct(dst); verr != nil {
		writeRequestValidation(rw, verr)
		return false
	}
	return true
}

// Train handles POST /api/v1/brew/train. Training runs synchronously and
// is detached from the client connection, so a disconnect does not throw
// away a finished fit.
func (h *Handler) Train(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var req TrainRequest
	if !h.decodeAndValidate(rw, w, r, &req, true) {
		return
	}

	// Fitting can outlast the server write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	ctx := context.WithoutCancel(r.Context())
	var (
		report *training.Report
		err    error
	)
	if len(req.Samples) == 0 {
		report, err = h.engine.Retrain(ctx)
	} else {
		report, err = h.engine.Train(ctx, req.Samples, brewer.TrainOptions{TestSize: req.TestSize, Seed: req.Seed})
	}
	if err != nil {
		writeEngineError(rw, r, err)
		return
	}
	rw.Success(report)
}

// Retrain handles POST /api/v1/brew/retrain by queueing a background run.
func (h *Handler) Retrain(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.trigger == nil {
		rw.ServiceUnavailable(ErrCodeServiceUnavailable, "background retraining is not enabled")
		return
	}
	if err := h.trigger.Trigger(); err != nil {
		writeEngineError(rw, r, err)
		return
	}
	rw.Accepted(map[string]string{"message": "retraining queued"})
}

// Predict handles POST /api/v1/brew/predict. The body is a full set of
// brewing parameters.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var params brew.BrewingParameters
	if !h.decodeAndValidate(rw, w, r, &params, false) {
		return
	}
	profile, err := h.engine.PredictFlavorProfile(r.Context(), params)
	if err != nil {
		writeEngineError(rw, r, err)
		return
	}
	rw.Success(map[string]interface{}{"predicted_flavor": profile})
}

// Suggest handles POST /api/v1/brew/suggest. Degraded suggestions are
// still 200 responses; clients inspect the degraded flag.
func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var req SuggestRequest
	if !h.decodeAndValidate(rw, w, r, &req, false) {
		return
	}
	s, err := h.engine.SuggestBrewingParameters(r.Context(), brewer.SuggestRequest{
		Desired:    req.Desired,
		Fixed:      req.Fixed,
		BeanList:   req.BeanList,
		WarmStart:  req.WarmStart,
		Seed:       req.Seed,
		Candidates: req.Candidates,
	})
	if err != nil {
		writeEngineError(rw, r, err)
		return
	}
	rw.Success(s)
}

// Blend handles POST /api/v1/brew/blend.
func (h *Handler) Blend(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var req BlendRequest
	if !h.decodeAndValidate(rw, w, r, &req, false) {
		return
	}
	res, err := h.engine.OptimizeBlend(r.Context(), brewer.BlendRequest{
		Beans:   req.Beans,
		Desired: req.Desired,
		Base:    req.Base,
	})
	if err != nil {
		writeEngineError(rw, r, err)
		return
	}
	rw.Success(res)
}

// Impact handles GET /api/v1/brew/impact?feature=&target=&min=&max=&points=.
func (h *Handler) Impact(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	q := r.URL.Query()
	req := ImpactQuery{
		Feature: q.Get("feature"),
		Target:  q.Get("target"),
		Points:  getIntParam(r, "points", 0),
	}
	var err error
	if req.Min, err = getFloatParam(r, "min"); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if req.Max, err = getFloatParam(r, "max"); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		writeRequestValidation(rw, verr)
		return
	}

	var rng *brew.Interval
	switch {
	case req.Min != nil && req.Max != nil:
		rng = &brew.Interval{Min: *req.Min, Max: *req.Max}
	case req.Min != nil || req.Max != nil:
		rw.BadRequest("min and max must be given together")
		return
	}

	res, err := h.engine.AnalyzeFeatureImpact(r.Context(), brewer.ImpactRequest{
		Feature: req.Feature,
		Target:  req.Target,
		Range:   rng,
		Points:  req.Points,
	})
	if err != nil {
		writeEngineError(rw, r, err)
		return
	}
	rw.Success(res)
}

// Feedback handles POST /api/v1/brew/feedback and returns the stored
// sample.
func (h *Handler) Feedback(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var req FeedbackRequest
	if !h.decodeAndValidate(rw, w, r, &req, false) {
		return
	}
	sample, err := h.engine.RecordFeedback(r.Context(), brewer.Feedback{
		SuggestionID: req.SuggestionID,
		Parameters:   req.Parameters,
		Ratings:      req.Ratings,
	})
	if err != nil {
		writeEngineError(rw, r, err)
		return
	}
	rw.Created(sample)
}

// ClusterInsights handles GET /api/v1/brew/clusters/{id}.
func (h *Handler) ClusterInsights(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, err := strconv.Atoi(urlParam(r, "id"))
	if err != nil {
		rw.BadRequest("cluster id must be an integer")
		return
	}
	ins, err := h.engine.ClusterInsights(id)
	if err != nil {
		writeEngineError(rw, r, err)
		return
	}
	rw.Success(ins)
}

// Status handles GET /api/v1/brew/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.engine.Status(r.Context()))
}
