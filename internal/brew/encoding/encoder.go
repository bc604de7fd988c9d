// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package encoding

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/NaomiGonz/AICoffee-Machine/internal/brew"
)

// Mode selects whether Encode fits the encoder or reuses fitted state.
type Mode int

const (
	// ModeTraining fits fill values, vocabularies and the scaler.
	ModeTraining Mode = iota
	// ModeInference reuses fitted state and never fills.
	ModeInference
)

// String returns the mode name.
func (m Mode) String() string {
	if m == ModeTraining {
		return "training"
	}
	return "inference"
}

// ErrNoRows is returned when training mode receives no rows.
var ErrNoRows = errors.New("no rows to encode")

// Spec names the raw columns the encoder consumes.
type Spec struct {
	Numeric     []string
	Categorical []string
	Targets     []string
}

// DefaultSpec returns the canonical column set, optionally with the
// quality cluster column appended to the categoricals.
func DefaultSpec(withCluster bool) Spec {
	cat := brew.CategoricalColumns()
	if withCluster {
		cat = append(cat, brew.ColQualityCluster)
	}
	return Spec{
		Numeric:     brew.NumericColumns(),
		Categorical: cat,
		Targets:     brew.Targets(),
	}
}

// FillValues are the per-column substitutes used for missing training values.
type FillValues struct {
	Numeric     map[string]float64
	Categorical map[string]string
}

// Encoded is the output of Encode.
type Encoded struct {
	Columns []string
	X       [][]float64

	// Targets holds one value per row for every spec target; NaN marks a
	// missing rating. It is nil in inference mode.
	Targets map[string][]float64
}

// Encoder converts raw rows into feature vectors. A fitted encoder is
// read-only and safe for concurrent Encode calls in inference mode.
type Encoder struct {
	spec     Spec
	fill     FillValues
	onehots  map[string]*OneHot
	scaler   *Scaler
	columns  []string
	colIndex map[string]int
	fitted   bool
}

// New creates an unfitted encoder.
func New(spec Spec) *Encoder {
	return &Encoder{
		spec:    spec,
		onehots: make(map[string]*OneHot),
	}
}

// FromState restores a fitted encoder from persisted pieces. Missing
// one-hot encoders or a nil scaler are tolerated here and reported as
// *brew.EncodingError when inference needs them.
func FromState(spec Spec, columns []string, onehots map[string]*OneHot, scaler *Scaler) *Encoder {
	e := &Encoder{
		spec:    spec,
		onehots: make(map[string]*OneHot, len(onehots)),
		scaler:  scaler.Clone(),
		fitted:  true,
	}
	for col, oh := range onehots {
		if oh != nil {
			e.onehots[col] = oh.Clone()
		}
	}
	e.setColumns(append([]string(nil), columns...))
	return e
}

// Spec returns the column specification.
func (e *Encoder) Spec() Spec {
	return e.spec
}

// Fitted reports whether the encoder holds fitted state.
func (e *Encoder) Fitted() bool {
	return e.fitted
}

// Columns returns the encoded feature names in order.
func (e *Encoder) Columns() []string {
	return append([]string(nil), e.columns...)
}

// OneHot returns the one-hot encoder for a categorical column.
func (e *Encoder) OneHot(column string) (*OneHot, bool) {
	oh, ok := e.onehots[column]
	return oh, ok
}

// Vocabulary returns the known categories for a column.
func (e *Encoder) Vocabulary(column string) []string {
	if oh, ok := e.onehots[column]; ok {
		return append([]string(nil), oh.Categories...)
	}
	return nil
}

// Scaler returns the fitted numeric scaler.
func (e *Encoder) Scaler() *Scaler {
	return e.scaler
}

// Fill returns the training fill values.
func (e *Encoder) Fill() FillValues {
	return e.fill
}

// Encode converts rows into a feature matrix. Training mode refits the
// encoder before transforming.
func (e *Encoder) Encode(rows []brew.Row, mode Mode) (*Encoded, error) {
	switch mode {
	case ModeTraining:
		if len(rows) == 0 {
			return nil, ErrNoRows
		}
		e.fit(rows)
		filled := make([]brew.Row, len(rows))
		for i := range rows {
			filled[i] = e.applyFill(rows[i])
		}
		out, err := e.transform(filled)
		if err != nil {
			return nil, err
		}
		out.Targets = e.targets(rows)
		return out, nil
	case ModeInference:
		if !e.fitted {
			return nil, &brew.EncodingError{Column: "*", Reason: "encoder has not been fitted"}
		}
		return e.transform(rows)
	default:
		return nil, fmt.Errorf("unknown encoding mode %d", mode)
	}
}

// fit computes fill values, vocabularies and the scaler.
func (e *Encoder) fit(rows []brew.Row) {
	e.fill = FillValues{
		Numeric:     make(map[string]float64, len(e.spec.Numeric)),
		Categorical: make(map[string]string, len(e.spec.Categorical)),
	}
	for _, col := range e.spec.Numeric {
		var vals []float64
		for i := range rows {
			if v, ok := rows[i].Numeric[col]; ok && !math.IsNaN(v) {
				vals = append(vals, v)
			}
		}
		e.fill.Numeric[col] = median(vals)
	}

	e.onehots = make(map[string]*OneHot, len(e.spec.Categorical))
	for _, col := range e.spec.Categorical {
		var vals []string
		for i := range rows {
			if v, ok := rows[i].Categorical[col]; ok && v != "" {
				vals = append(vals, v)
			}
		}
		e.fill.Categorical[col] = mode(vals)
		e.onehots[col] = FitOneHot(col, vals)
	}

	colValues := make([][]float64, len(e.spec.Numeric))
	for j, col := range e.spec.Numeric {
		colValues[j] = make([]float64, len(rows))
		for i := range rows {
			v, ok := rows[i].Numeric[col]
			if !ok || math.IsNaN(v) {
				v = e.fill.Numeric[col]
			}
			colValues[j][i] = v
		}
	}
	e.scaler = FitScaler(e.spec.Numeric, colValues)

	columns := append([]string(nil), e.spec.Numeric...)
	for _, col := range e.spec.Categorical {
		columns = append(columns, e.onehots[col].FeatureNames()...)
	}
	e.setColumns(columns)
	e.fitted = true
}

func (e *Encoder) setColumns(columns []string) {
	e.columns = columns
	e.colIndex = make(map[string]int, len(columns))
	for i, c := range columns {
		e.colIndex[c] = i
	}
}

// applyFill substitutes fill values for missing entries.
func (e *Encoder) applyFill(r brew.Row) brew.Row {
	out := r.Clone()
	for _, col := range e.spec.Numeric {
		if v, ok := out.Numeric[col]; !ok || math.IsNaN(v) {
			out.Numeric[col] = e.fill.Numeric[col]
		}
	}
	for _, col := range e.spec.Categorical {
		if v, ok := out.Categorical[col]; !ok || v == "" {
			out.Categorical[col] = e.fill.Categorical[col]
		}
	}
	return out
}

// transform encodes rows with the current fitted state.
func (e *Encoder) transform(rows []brew.Row) (*Encoded, error) {
	if e.scaler == nil && len(e.spec.Numeric) > 0 {
		return nil, &brew.EncodingError{Column: "scaler", Reason: "no fitted scaler available"}
	}
	for _, col := range e.spec.Categorical {
		if _, ok := e.onehots[col]; !ok {
			return nil, &brew.EncodingError{Column: col, Reason: "no fitted encoder available"}
		}
	}

	X := make([][]float64, len(rows))
	for i := range rows {
		vec := make([]float64, len(e.columns))
		for _, col := range e.spec.Numeric {
			j, ok := e.colIndex[col]
			if !ok {
				continue
			}
			if v, present := rows[i].Numeric[col]; present && !math.IsNaN(v) {
				vec[j] = e.scaler.Transform(col, v)
			}
		}
		for _, col := range e.spec.Categorical {
			v, present := rows[i].Categorical[col]
			if !present || v == "" {
				continue
			}
			if e.onehots[col].Index(v) < 0 {
				continue
			}
			if j, ok := e.colIndex[FeatureName(col, v)]; ok {
				vec[j] = 1
			}
		}
		X[i] = vec
	}

	return &Encoded{Columns: e.Columns(), X: X}, nil
}

// targets extracts the target columns, NaN for missing ratings.
func (e *Encoder) targets(rows []brew.Row) map[string][]float64 {
	out := make(map[string][]float64, len(e.spec.Targets))
	for _, t := range e.spec.Targets {
		ys := make([]float64, len(rows))
		for i := range rows {
			if v, ok := rows[i].Targets[t]; ok {
				ys[i] = v
			} else {
				ys[i] = math.NaN()
			}
		}
		out[t] = ys
	}
	return out
}

// Decode maps an encoded vector back to a raw row. Numeric values are
// unscaled; each one-hot block yields its active category, or nothing when
// the block is all zeros.
func (e *Encoder) Decode(vec []float64) (brew.Row, error) {
	if len(vec) != len(e.columns) {
		return brew.Row{}, fmt.Errorf("decode: vector has %d values, encoder has %d columns", len(vec), len(e.columns))
	}
	r := brew.NewRow()
	for _, col := range e.spec.Numeric {
		if j, ok := e.colIndex[col]; ok && e.scaler != nil {
			r.Numeric[col] = e.scaler.Inverse(col, vec[j])
		}
	}
	for _, col := range e.spec.Categorical {
		oh, ok := e.onehots[col]
		if !ok {
			continue
		}
		best, bestVal := "", 0.5
		for _, cat := range oh.Categories {
			if j, ok := e.colIndex[FeatureName(col, cat)]; ok && vec[j] > bestVal {
				best, bestVal = cat, vec[j]
			}
		}
		if best != "" {
			r.Categorical[col] = best
		}
	}
	return r, nil
}

// median returns the median of vals, or 0 when empty.
func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	s := append([]float64(nil), vals...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// mode returns the most frequent value, ties to the lexically smallest,
// or the unknown bucket when empty.
func mode(vals []string) string {
	if len(vals) == 0 {
		return brew.UnknownCategory
	}
	counts := make(map[string]int)
	for _, v := range vals {
		counts[v]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	best := keys[0]
	for _, k := range keys[1:] {
		if counts[k] > counts[best] {
			best = k
		}
	}
	return best
}
