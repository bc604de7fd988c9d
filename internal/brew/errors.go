// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package brew

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors matched by the typed errors below.
var (
	ErrValidation       = errors.New("validation failed")
	ErrInsufficientData = errors.New("insufficient data")
	ErrModelNotTrained  = errors.New("model not trained")
	ErrEncoding         = errors.New("encoding failed")
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag,omitempty"`
	Message string `json:"message"`
}

// ValidationError reports malformed caller input. It is always raised
// before any computation starts.
type ValidationError struct {
	Fields []FieldError
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Fields: []FieldError{{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}}}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Add appends a field error.
func (e *ValidationError) Add(field, format string, args ...interface{}) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// OrNil returns nil when no field errors were collected.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// InsufficientDataError reports that fewer usable samples exist than a
// stage requires.
type InsufficientDataError struct {
	Scope string
	Have  int
	Need  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s: have %d samples, need %d", e.Scope, e.Have, e.Need)
}

// Is matches ErrInsufficientData.
func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}

// ModelNotTrainedError reports a prediction requested for a target with no
// committed model.
type ModelNotTrainedError struct {
	Target string
}

func (e *ModelNotTrainedError) Error() string {
	if e.Target == "" {
		return "no trained models available"
	}
	return fmt.Sprintf("no trained model for target %q", e.Target)
}

// Is matches ErrModelNotTrained.
func (e *ModelNotTrainedError) Is(target error) bool {
	return target == ErrModelNotTrained
}

// EncodingError reports that a required encoder or scaler is unavailable
// at inference time.
type EncodingError struct {
	Column string
	Reason string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding column %q: %s", e.Column, e.Reason)
}

// Is matches ErrEncoding.
func (e *EncodingError) Is(target error) bool {
	return target == ErrEncoding
}
