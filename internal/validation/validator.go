// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// flavorTargets is the closed set accepted by the flavor_target tag. The
// legacy "maltiness" key is accepted and rewritten downstream.
var flavorTargets = map[string]struct{}{
	"acidity":    {},
	"strength":   {},
	"sweetness":  {},
	"fruitiness": {},
	"bitterness": {},
	"maltiness":  {},
}

// FieldError is one failed rule, named by the JSON field the caller sent.
type FieldError struct {
	Field   string      `json:"field"`
	Tag     string      `json:"tag"`
	Param   string      `json:"param,omitempty"`
	Value   interface{} `json:"value,omitempty"`
	Message string      `json:"message"`
}

func (e FieldError) Error() string {
	return e.Message
}

// RequestValidationError collects every failed rule of one struct.
type RequestValidationError struct {
	Fields []FieldError
}

func (ve *RequestValidationError) Error() string {
	if len(ve.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(ve.Fields))
	for i := range ve.Fields {
		msgs[i] = ve.Fields[i].Message
	}
	return strings.Join(msgs, "; ")
}

// Summary returns the envelope message and error details. A single
// failure reports its field, tag and value; several are listed under
// "fields".
func (ve *RequestValidationError) Summary() (string, map[string]interface{}) {
	switch len(ve.Fields) {
	case 0:
		return "Validation failed", nil
	case 1:
		fe := ve.Fields[0]
		return fe.Message, map[string]interface{}{
			"field": fe.Field,
			"tag":   fe.Tag,
			"value": fe.Value,
		}
	}

	fields := make([]map[string]interface{}, len(ve.Fields))
	msgs := make([]string, len(ve.Fields))
	for i, fe := range ve.Fields {
		fields[i] = map[string]interface{}{
			"field":   fe.Field,
			"tag":     fe.Tag,
			"message": fe.Message,
		}
		msgs[i] = fe.Field + ": " + fe.Message
	}
	return strings.Join(msgs, "; "), map[string]interface{}{"fields": fields}
}

// GetValidator returns the shared validator. Field names in errors are the
// json tag names.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})

		//nolint:errcheck // registration only fails on empty tag names
		_ = validate.RegisterValidation("flavor_target", func(fl validator.FieldLevel) bool {
			_, ok := flavorTargets[strings.ToLower(strings.TrimSpace(fl.Field().String()))]
			return ok
		})
	})
	return validate
}

// ValidateStruct runs the validate tags of s. It returns nil when every
// rule passes.
func ValidateStruct(s interface{}) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &RequestValidationError{Fields: []FieldError{{
			Field:   "unknown",
			Tag:     "unknown",
			Message: err.Error(),
		}}}
	}

	out := &RequestValidationError{Fields: make([]FieldError, len(fieldErrs))}
	for i, fe := range fieldErrs {
		out.Fields[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Value:   fe.Value(),
			Message: message(fe),
		}
	}
	return out
}

// plainMessages take only the field name.
var plainMessages = map[string]string{
	"required":      "%s is required",
	"unique":        "%s must not contain duplicates",
	"uuid":          "%s must be a UUID",
	"flavor_target": "%s must be one of acidity, strength, sweetness, fruitiness, bitterness",
	"dive":          "%s contains an invalid entry",
}

// paramMessages take the field name and the tag parameter.
var paramMessages = map[string]string{
	"oneof":    "%s must be one of: %s",
	"gte":      "%s must be greater than or equal to %s",
	"lte":      "%s must be less than or equal to %s",
	"gt":       "%s must be greater than %s",
	"lt":       "%s must be less than %s",
	"datetime": "%s must match the layout %s",
}

func message(fe validator.FieldError) string {
	field, tag, param := fe.Field(), fe.Tag(), fe.Param()
	if tmpl, ok := plainMessages[tag]; ok {
		return fmt.Sprintf(tmpl, field)
	}
	if tmpl, ok := paramMessages[tag]; ok {
		return fmt.Sprintf(tmpl, field, param)
	}
	if tag != "min" && tag != "max" {
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}

	bound := "at least"
	if tag == "max" {
		bound = "at most"
	}
	switch fe.Kind() {
	case reflect.String:
		return fmt.Sprintf("%s must be %s %s characters", field, bound, param)
	case reflect.Slice, reflect.Map:
		return fmt.Sprintf("%s must contain %s %s entries", field, bound, param)
	default:
		return fmt.Sprintf("%s must be %s %s", field, bound, param)
	}
}
