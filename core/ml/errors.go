package ml

import (
	"errors"
	"math"
)

var (
	// ErrNoSamples is returned when a model is fitted on an empty dataset.
	ErrNoSamples = errors.New("no samples")
	// ErrTooFewSamples is returned when there are fewer samples than parameters.
	ErrTooFewSamples = errors.New("too few samples")
	// ErrDimension is returned when rows, targets or parameters disagree in size.
	ErrDimension = errors.New("dimension mismatch")
	// ErrSingleClass is returned when a classifier target holds a single class.
	ErrSingleClass = errors.New("target has a single class")
	// ErrNotFinite is returned when inputs or fitted parameters contain NaN or Inf.
	ErrNotFinite = errors.New("non finite value")
	// ErrIllConditioned is returned when the normal equations cannot be solved.
	ErrIllConditioned = errors.New("ill conditioned system")
)

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// checkMatrix verifies X is non empty, rectangular and finite and returns its width.
func checkMatrix(X [][]float64) (int, error) {
	if len(X) == 0 {
		return 0, ErrNoSamples
	}
	p := len(X[0])
	if p == 0 {
		return 0, ErrDimension
	}
	for _, row := range X {
		if len(row) != p {
			return 0, ErrDimension
		}
		if !finite(row...) {
			return 0, ErrNotFinite
		}
	}
	return p, nil
}
