package ml

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// LinearRegression is an ordinary least squares model with intercept.
type LinearRegression struct {
	Intercept float64   `json:"intercept"`
	Coef      []float64 `json:"coef"`
}

// FitLinearRegression solves min ||y - b - Xw||² with a QR decomposition.
func FitLinearRegression(X [][]float64, y []float64) (*LinearRegression, error) {
	p, err := checkMatrix(X)
	if err != nil {
		return nil, err
	}
	n := len(X)
	if len(y) != n {
		return nil, fmt.Errorf("%w: %d rows, %d targets", ErrDimension, n, len(y))
	}
	if !finite(y...) {
		return nil, ErrNotFinite
	}
	if n < p+1 {
		return nil, fmt.Errorf("%w: %d samples for %d parameters", ErrTooFewSamples, n, p+1)
	}

	a := mat.NewDense(n, p+1, nil)
	for i, row := range X {
		a.Set(i, 0, 1)
		for j, v := range row {
			a.Set(i, j+1, v)
		}
	}
	var beta mat.VecDense
	if err := beta.SolveVec(a, mat.NewVecDense(n, append([]float64(nil), y...))); err != nil {
		var cond mat.Condition
		if errors.As(err, &cond) {
			return nil, fmt.Errorf("%w: condition number %g", ErrIllConditioned, float64(cond))
		}
		return nil, err
	}

	m := &LinearRegression{Intercept: beta.AtVec(0), Coef: make([]float64, p)}
	for j := 0; j < p; j++ {
		m.Coef[j] = beta.AtVec(j + 1)
	}
	if err := m.Validate(p); err != nil {
		return nil, err
	}
	return m, nil
}

// Predict returns the regression estimate for x. Any finite x is accepted.
func (m *LinearRegression) Predict(x []float64) float64 {
	return m.Intercept + floats.Dot(m.Coef, x)
}

// Validate checks the model has p finite coefficients.
func (m *LinearRegression) Validate(p int) error {
	if len(m.Coef) != p {
		return fmt.Errorf("%w: %d coefficients, expected %d", ErrDimension, len(m.Coef), p)
	}
	if !finite(m.Intercept) || !finite(m.Coef...) {
		return ErrNotFinite
	}
	return nil
}
