// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package encoding

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Scaler standardizes numeric columns to zero mean and unit variance.
// Its fields are exported so the state can be gob-encoded.
type Scaler struct {
	Columns []string
	Mean    []float64
	Scale   []float64
}

// FitScaler fits a scaler on the given column-major values. Columns with
// zero variance get a scale of 1.
func FitScaler(columns []string, values [][]float64) *Scaler {
	s := &Scaler{
		Columns: append([]string(nil), columns...),
		Mean:    make([]float64, len(columns)),
		Scale:   make([]float64, len(columns)),
	}
	for j := range columns {
		col := values[j]
		if len(col) == 0 {
			s.Scale[j] = 1
			continue
		}
		mean, variance := stat.PopMeanVariance(col, nil)
		s.Mean[j] = mean
		std := math.Sqrt(variance)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		s.Scale[j] = std
	}
	return s
}

// index returns the position of column, or -1.
func (s *Scaler) index(column string) int {
	for i, c := range s.Columns {
		if c == column {
			return i
		}
	}
	return -1
}

// Transform scales v for the given column. Unknown columns pass through.
func (s *Scaler) Transform(column string, v float64) float64 {
	i := s.index(column)
	if i < 0 {
		return v
	}
	return (v - s.Mean[i]) / s.Scale[i]
}

// Inverse reverses Transform.
func (s *Scaler) Inverse(column string, v float64) float64 {
	i := s.index(column)
	if i < 0 {
		return v
	}
	return v*s.Scale[i] + s.Mean[i]
}

// Clone returns a deep copy.
func (s *Scaler) Clone() *Scaler {
	if s == nil {
		return nil
	}
	return &Scaler{
		Columns: append([]string(nil), s.Columns...),
		Mean:    append([]float64(nil), s.Mean...),
		Scale:   append([]float64(nil), s.Scale...),
	}
}
