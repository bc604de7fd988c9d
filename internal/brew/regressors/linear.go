// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package regressors

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// LinearConfig contains parameters for the linear family.
type LinearConfig struct {
	// Ridge is the relative L2 penalty added to the normal equations. It
	// keeps the system solvable when one-hot blocks are collinear with the
	// intercept. Scaled by the mean diagonal of XᵀX.
	// Default: 1e-8.
	Ridge float64 `koanf:"ridge"`
}

// DefaultLinearConfig returns default linear configuration.
func DefaultLinearConfig() LinearConfig {
	return LinearConfig{Ridge: 1e-8}
}

// Linear is least-squares regression with an intercept.
type Linear struct {
	Config    LinearConfig
	Coef      []float64
	Intercept float64
	Fitted    bool
}

var _ Regressor = (*Linear)(nil)

// NewLinear creates an unfitted linear model.
func NewLinear(cfg LinearConfig) *Linear {
	return &Linear{Config: cfg}
}

// Family returns "linear".
func (m *Linear) Family() string { return FamilyLinear }

// Fit solves the centred normal equations (XᵀX + λI)β = Xᵀy.
func (m *Linear) Fit(ctx context.Context, X [][]float64, y []float64) error {
	n, p, err := checkFitInput(X, y)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	xMean := make([]float64, p)
	var yMean float64
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			xMean[j] += X[i][j]
		}
		yMean += y[i]
	}
	for j := range xMean {
		xMean[j] /= float64(n)
	}
	yMean /= float64(n)

	if p == 0 {
		m.Coef = nil
		m.Intercept = yMean
		m.Fitted = true
		return nil
	}

	xc := mat.NewDense(n, p, nil)
	yc := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			xc.Set(i, j, X[i][j]-xMean[j])
		}
		yc.SetVec(i, y[i]-yMean)
	}

	var gram mat.SymDense
	gram.SymOuterK(1, xc.T())

	var trace float64
	for j := 0; j < p; j++ {
		trace += gram.At(j, j)
	}
	lambda := m.Config.Ridge * trace / float64(p)
	if lambda <= 0 {
		lambda = 1e-12
	}
	for j := 0; j < p; j++ {
		gram.SetSym(j, j, gram.At(j, j)+lambda)
	}

	var rhs mat.VecDense
	rhs.MulVec(xc.T(), yc)

	var beta mat.VecDense
	var chol mat.Cholesky
	if ok := chol.Factorize(&gram); ok {
		if err := chol.SolveVecTo(&beta, &rhs); err != nil {
			return fmt.Errorf("solve normal equations: %w", err)
		}
	} else if err := beta.SolveVec(&gram, &rhs); err != nil {
		return fmt.Errorf("solve normal equations: %w", err)
	}

	m.Coef = make([]float64, p)
	m.Intercept = yMean
	for j := 0; j < p; j++ {
		m.Coef[j] = beta.AtVec(j)
		m.Intercept -= m.Coef[j] * xMean[j]
	}
	m.Fitted = true
	return nil
}

// Predict returns β·x + intercept.
func (m *Linear) Predict(x []float64) float64 {
	out := m.Intercept
	for j, c := range m.Coef {
		if j < len(x) {
			out += c * x[j]
		}
	}
	return out
}

// PredictBatch predicts every row.
func (m *Linear) PredictBatch(X [][]float64) []float64 {
	return predictAll(X, m.Predict)
}

// FeatureImportances returns nil; linear models report no importances.
func (m *Linear) FeatureImportances() []float64 { return nil }
