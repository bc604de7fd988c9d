// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/sony/gobreaker/v2"

	"github.com/NaomiGonz/AICoffee-Machine/internal/brew"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brewer"
	"github.com/NaomiGonz/AICoffee-Machine/internal/logging"
	"github.com/NaomiGonz/AICoffee-Machine/internal/samples"
	"github.com/NaomiGonz/AICoffee-Machine/internal/suggestions"
	"github.com/NaomiGonz/AICoffee-Machine/internal/supervisor/services"
	"github.com/NaomiGonz/AICoffee-Machine/internal/validation"
)

// writeEngineError maps an error from the brewing engine or its stores to
// a status code and error code. Unknown errors are logged and reported as
// 500 without their message.
func writeEngineError(rw *ResponseWriter, r *http.Request, err error) {
	var (
		verr *brew.ValidationError
		ierr *brew.InsufficientDataError
		merr *brew.ModelNotTrainedError
		eerr *brew.EncodingError
	)

	switch {
	case errors.As(err, &verr):
		rw.ValidationError(verr.Error(), verr.Fields)
	case errors.As(err, &ierr):
		rw.ErrorWithDetails(http.StatusUnprocessableEntity, ErrCodeInsufficientData, ierr.Error(), map[string]interface{}{
			"scope": ierr.Scope,
			"have":  ierr.Have,
			"need":  ierr.Need,
		})
	case errors.As(err, &merr):
		rw.ServiceUnavailable(ErrCodeModelNotTrained, merr.Error())
	case errors.As(err, &eerr):
		rw.Error(http.StatusUnprocessableEntity, ErrCodeEncoding, eerr.Error())

	case errors.Is(err, brewer.ErrTrainingInProgress):
		rw.Conflict(ErrCodeTrainingActive, "a training run is already in progress")
	case errors.Is(err, services.ErrRetrainRateLimited):
		rw.TooManyRequests("retraining was triggered too often; try again later")
	case errors.Is(err, suggestions.ErrAlreadyRated):
		rw.Conflict(ErrCodeAlreadyRated, "this suggestion has already been rated")
	case errors.Is(err, suggestions.ErrNotFound):
		rw.NotFound("suggestion not found")
	case errors.Is(err, samples.ErrNotFound):
		rw.NotFound("sample not found")
	case errors.Is(err, brewer.ErrClusteringUnavailable):
		rw.ServiceUnavailable(ErrCodeServiceUnavailable, "quality clusters are not loaded")
	case errors.Is(err, brewer.ErrNoSampleSource),
		errors.Is(err, brewer.ErrNoSampleSink),
		errors.Is(err, brewer.ErrNoSuggestionStore),
		errors.Is(err, brewer.ErrNoArtifactStore):
		rw.ServiceUnavailable(ErrCodeServiceUnavailable, err.Error())
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		rw.ServiceUnavailable(ErrCodeServiceUnavailable, "the sample store is temporarily unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		rw.ServiceUnavailable(ErrCodeServiceUnavailable, "the operation timed out")
	case errors.Is(err, context.Canceled):
		// The client went away; nothing useful can be written.
		logging.Ctx(r.Context()).Debug().Err(err).Msg("request canceled")
	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		rw.InternalError("an internal error occurred")
	}
}

// isKnownError reports whether writeEngineError maps err to something
// better than a generic 500.
func isKnownError(err error) bool {
	for _, target := range []error{
		samples.ErrNotFound,
		suggestions.ErrNotFound,
		gobreaker.ErrOpenState,
		gobreaker.ErrTooManyRequests,
		context.DeadlineExceeded,
		context.Canceled,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// writeRequestValidation reports struct tag validation failures.
func writeRequestValidation(rw *ResponseWriter, verr *validation.RequestValidationError) {
	msg, details := verr.Summary()
	rw.ValidationError(msg, details)
}
