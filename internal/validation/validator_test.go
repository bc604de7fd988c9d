// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package validation

import (
	"strings"
	"testing"
)

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}

	if v1 == nil {
		t.Error("GetValidator() should not return nil")
	}
}

type suggestLike struct {
	DesiredFlavor map[string]float64 `json:"desired_flavor" validate:"required,min=1,dive,keys,flavor_target,endkeys,gte=0,lte=10"`
	BeanList      []string           `json:"bean_list" validate:"omitempty,unique,dive,required"`
	CupSize       string             `json:"cup_size" validate:"omitempty,oneof=small medium large"`
	Temperature   *float64           `json:"temperature" validate:"omitempty,gte=85,lte=96"`
	Name          string             `json:"name" validate:"omitempty,max=4"`
}

func TestValidateStruct(t *testing.T) {
	hot := 99.0
	ok := 90.0

	tests := []struct {
		name      string
		input     suggestLike
		wantErr   bool
		wantField string
		wantTag   string
	}{
		{
			name:  "valid",
			input: suggestLike{DesiredFlavor: map[string]float64{"acidity": 3}, Temperature: &ok},
		},
		{
			name:  "legacy maltiness accepted",
			input: suggestLike{DesiredFlavor: map[string]float64{"maltiness": 3}},
		},
		{
			name:      "empty desired",
			input:     suggestLike{DesiredFlavor: map[string]float64{}},
			wantErr:   true,
			wantField: "desired_flavor",
			wantTag:   "min",
		},
		{
			name:    "unknown flavor",
			input:   suggestLike{DesiredFlavor: map[string]float64{"smokiness": 3}},
			wantErr: true,
			wantTag: "flavor_target",
		},
		{
			name:    "flavor out of range",
			input:   suggestLike{DesiredFlavor: map[string]float64{"acidity": 11}},
			wantErr: true,
			wantTag: "lte",
		},
		{
			name:      "duplicate beans",
			input:     suggestLike{DesiredFlavor: map[string]float64{"acidity": 3}, BeanList: []string{"a", "a"}},
			wantErr:   true,
			wantField: "bean_list",
			wantTag:   "unique",
		},
		{
			name:      "bad cup size",
			input:     suggestLike{DesiredFlavor: map[string]float64{"acidity": 3}, CupSize: "huge"},
			wantErr:   true,
			wantField: "cup_size",
			wantTag:   "oneof",
		},
		{
			name:      "temperature too hot",
			input:     suggestLike{DesiredFlavor: map[string]float64{"acidity": 3}, Temperature: &hot},
			wantErr:   true,
			wantField: "temperature",
			wantTag:   "lte",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateStruct() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			first := err.Fields[0]
			if tt.wantField != "" && first.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", first.Field, tt.wantField)
			}
			if tt.wantTag != "" && first.Tag != tt.wantTag {
				t.Errorf("Tag = %q, want %q", first.Tag, tt.wantTag)
			}
		})
	}
}

func TestTranslateError_Messages(t *testing.T) {
	err := ValidateStruct(&suggestLike{DesiredFlavor: map[string]float64{"acidity": 3}, Name: "espresso"})
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := err.Error(); got != "name must be at most 4 characters" {
		t.Errorf("Error() = %q", got)
	}
}

func TestSummary(t *testing.T) {
	t.Run("single error", func(t *testing.T) {
		err := ValidateStruct(&suggestLike{DesiredFlavor: map[string]float64{"acidity": 3}, CupSize: "huge"})
		msg, details := err.Summary()
		if msg != "cup_size must be one of: small medium large" {
			t.Errorf("message = %q", msg)
		}
		if details["field"] != "cup_size" || details["value"] != "huge" {
			t.Errorf("details = %v", details)
		}
	})

	t.Run("multiple errors", func(t *testing.T) {
		hot := 99.0
		err := ValidateStruct(&suggestLike{DesiredFlavor: map[string]float64{"acidity": 3}, CupSize: "huge", Temperature: &hot})
		msg, details := err.Summary()
		if !strings.Contains(msg, "cup_size: ") || !strings.Contains(msg, "temperature: ") {
			t.Errorf("message = %q", msg)
		}
		fields, ok := details["fields"].([]map[string]interface{})
		if !ok || len(fields) != 2 {
			t.Errorf("details[fields] = %v", details["fields"])
		}
	})

	t.Run("empty", func(t *testing.T) {
		msg, details := (&RequestValidationError{}).Summary()
		if msg != "Validation failed" || details != nil {
			t.Errorf("Summary() = %q, %v", msg, details)
		}
	})
}
