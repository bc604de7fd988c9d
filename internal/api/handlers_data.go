// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/NaomiGonz/AICoffee-Machine/internal/samples"
	"github.com/NaomiGonz/AICoffee-Machine/internal/validation"
)

// ListSamples handles GET /api/v1/brew/samples?bean_type=&since=&limit=.
func (h *Handler) ListSamples(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.samples == nil {
		rw.ServiceUnavailable(ErrCodeServiceUnavailable, "the sample store is not configured")
		return
	}
	q := r.URL.Query()
	req := SamplesQuery{
		BeanType: strings.TrimSpace(q.Get("bean_type")),
		Since:    q.Get("since"),
		Limit:    getIntParam(r, "limit", 100),
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		writeRequestValidation(rw, verr)
		return
	}

	filter := samples.Filter{BeanType: req.BeanType, Limit: req.Limit}
	if req.Since != "" {
		// Already checked by the datetime tag.
		filter.Since, _ = time.Parse(time.RFC3339, req.Since)
	}
	out, err := h.samples.Query(r.Context(), filter)
	if err != nil {
		writeStoreError(rw, r, err)
		return
	}
	rw.SuccessList(out, len(out))
}

// GetSample handles GET /api/v1/brew/samples/{id}.
func (h *Handler) GetSample(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.samples == nil {
		rw.ServiceUnavailable(ErrCodeServiceUnavailable, "the sample store is not configured")
		return
	}
	sample, err := h.samples.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeStoreError(rw, r, err)
		return
	}
	rw.Success(sample)
}

// ListSuggestions handles GET /api/v1/brew/suggestions?limit=.
func (h *Handler) ListSuggestions(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.suggestions == nil {
		rw.ServiceUnavailable(ErrCodeServiceUnavailable, "the suggestion store is not configured")
		return
	}
	req := ListQuery{Limit: getIntParam(r, "limit", 50)}
	if verr := validation.ValidateStruct(&req); verr != nil {
		writeRequestValidation(rw, verr)
		return
	}
	out, err := h.suggestions.List(r.Context(), req.Limit)
	if err != nil {
		writeStoreError(rw, r, err)
		return
	}
	rw.SuccessList(out, len(out))
}

// GetSuggestion handles GET /api/v1/brew/suggestions/{id}.
func (h *Handler) GetSuggestion(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.suggestions == nil {
		rw.ServiceUnavailable(ErrCodeServiceUnavailable, "the suggestion store is not configured")
		return
	}
	rec, err := h.suggestions.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeStoreError(rw, r, err)
		return
	}
	rw.Success(rec)
}

// HealthLive handles GET /api/v1/health/live. It reports that the process
// is up, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles GET /api/v1/health/ready. The service is ready when
// the sample store answers; a missing model is reported but does not fail
// readiness, since suggestions degrade gracefully without one.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	status := h.engine.Status(r.Context())
	data := map[string]interface{}{
		"ready":         true,
		"model_version": status.ModelVersion,
		"model_loaded":  status.ModelVersion > 0,
	}

	if h.samples != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.samples.Ping(ctx); err != nil {
			rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "sample store unreachable", map[string]string{
				"samples": err.Error(),
			})
			return
		}
		data["samples"] = "ok"
	}
	rw.Success(data)
}

// writeStoreError reports a sample or suggestion store failure. Known
// errors such as not-found go through writeEngineError.
func writeStoreError(rw *ResponseWriter, r *http.Request, err error) {
	if isKnownError(err) {
		writeEngineError(rw, r, err)
		return
	}
	rw.DatabaseError(err)
}

// getIntParam extracts an integer query parameter with a default value
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

// getFloatParam returns nil for an absent parameter.
func getFloatParam(r *http.Request, key string) (*float64, error) {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", key)
	}
	return &f, nil
}

func urlParam(r *http.Request, key string) string {
	return strings.TrimSpace(chi.URLParam(r, key))
}
