// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/NaomiGonz/AICoffee-Machine/internal/logging"
)

// APIResponse is the envelope every endpoint answers with. Exactly one of
// Data and Error is set.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *APIMeta    `json:"meta,omitempty"`
}

// APIError is the machine-readable half of a failed response. Code is one
// of the ErrCode constants; Details carries per-error context such as the
// failing fields of a validation error.
type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// APIMeta is attached to every response. Count is only set for lists.
type APIMeta struct {
	RequestID  string    `json:"request_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	DurationMs int64     `json:"duration_ms,omitempty"`
	Count      *int      `json:"count,omitempty"`
}

// Generic error codes.
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	ErrCodeTooManyRequests    = "TOO_MANY_REQUESTS"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeDatabaseError      = "DATABASE_ERROR"
)

// Brewing error codes.
const (
	ErrCodeInsufficientData = "INSUFFICIENT_DATA"
	ErrCodeModelNotTrained  = "MODEL_NOT_TRAINED"
	ErrCodeEncoding         = "ENCODING_FAILED"
	ErrCodeTrainingActive   = "TRAINING_IN_PROGRESS"
	ErrCodeAlreadyRated     = "ALREADY_RATED"
)

// ResponseWriter writes APIResponse envelopes for one request. The request
// duration in the metadata is measured from construction.
type ResponseWriter struct {
	w         http.ResponseWriter
	r         *http.Request
	startTime time.Time
}

func NewResponseWriter(w http.ResponseWriter, r *http.Request) *ResponseWriter {
	return &ResponseWriter{w: w, r: r, startTime: time.Now()}
}

// Success answers 200 with data.
func (rw *ResponseWriter) Success(data interface{}) {
	rw.SuccessWithMeta(data, nil)
}

// SuccessWithMeta answers 200 with data. Request ID, timestamp and
// duration are filled into meta.
func (rw *ResponseWriter) SuccessWithMeta(data interface{}, meta *APIMeta) {
	rw.ok(http.StatusOK, data, meta)
}

// SuccessList answers 200 with a list and its length.
func (rw *ResponseWriter) SuccessList(data interface{}, count int) {
	rw.ok(http.StatusOK, data, &APIMeta{Count: &count})
}

func (rw *ResponseWriter) Created(data interface{}) {
	rw.ok(http.StatusCreated, data, nil)
}

// Accepted answers 202 for work that continues after the response.
func (rw *ResponseWriter) Accepted(data interface{}) {
	rw.ok(http.StatusAccepted, data, nil)
}

// Error answers statusCode with an error envelope.
func (rw *ResponseWriter) Error(statusCode int, code, message string) {
	rw.ErrorWithDetails(statusCode, code, message, nil)
}

// ErrorWithDetails answers statusCode with an error envelope carrying
// details.
func (rw *ResponseWriter) ErrorWithDetails(statusCode int, code, message string, details interface{}) {
	meta := rw.stamp(nil)
	rw.send(statusCode, APIResponse{
		Error: &APIError{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: meta.RequestID,
		},
		Meta: meta,
	})
}

func (rw *ResponseWriter) BadRequest(message string) {
	rw.Error(http.StatusBadRequest, ErrCodeBadRequest, message)
}

func (rw *ResponseWriter) NotFound(message string) {
	rw.Error(http.StatusNotFound, ErrCodeNotFound, message)
}

// Conflict answers 409. The code tells clients which state clashed.
func (rw *ResponseWriter) Conflict(code, message string) {
	rw.Error(http.StatusConflict, code, message)
}

func (rw *ResponseWriter) TooManyRequests(message string) {
	rw.Error(http.StatusTooManyRequests, ErrCodeTooManyRequests, message)
}

func (rw *ResponseWriter) InternalError(message string) {
	rw.Error(http.StatusInternalServerError, ErrCodeInternalError, message)
}

// ServiceUnavailable answers 503, e.g. before the first model is
// published or while the sample store breaker is open.
func (rw *ResponseWriter) ServiceUnavailable(code, message string) {
	rw.Error(http.StatusServiceUnavailable, code, message)
}

// ValidationError answers 400 with the failing fields as details.
func (rw *ResponseWriter) ValidationError(message string, details interface{}) {
	rw.ErrorWithDetails(http.StatusBadRequest, ErrCodeValidationFailed, message, details)
}

// DatabaseError logs err and answers 500 without exposing it.
func (rw *ResponseWriter) DatabaseError(err error) {
	logging.Ctx(rw.r.Context()).Error().Err(err).Msg("Database error")
	rw.Error(http.StatusInternalServerError, ErrCodeDatabaseError, "A database error occurred")
}

func (rw *ResponseWriter) ok(statusCode int, data interface{}, meta *APIMeta) {
	rw.send(statusCode, APIResponse{Success: true, Data: data, Meta: rw.stamp(meta)})
}

func (rw *ResponseWriter) stamp(meta *APIMeta) *APIMeta {
	if meta == nil {
		meta = &APIMeta{}
	}
	meta.RequestID = logging.RequestIDFromContext(rw.r.Context())
	meta.Timestamp = time.Now()
	meta.DurationMs = time.Since(rw.startTime).Milliseconds()
	return meta
}

// send writes the envelope. Responses carry model output and store
// reads, so nothing is cacheable.
func (rw *ResponseWriter) send(statusCode int, body APIResponse) {
	h := rw.w.Header()
	h.Set("Content-Type", "application/json; charset=utf-8")
	h.Set("Cache-Control", "no-store")
	rw.w.WriteHeader(statusCode)

	if err := json.NewEncoder(rw.w).Encode(body); err != nil {
		logging.Ctx(rw.r.Context()).Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// WriteError writes an error envelope outside a handler, e.g. from the
// router's 404 and 405 handlers.
func WriteError(w http.ResponseWriter, r *http.Request, statusCode int, code, message string) {
	NewResponseWriter(w, r).Error(statusCode, code, message)
}
