package ml

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// LogisticOptions tunes FitLogisticRegression.
type LogisticOptions struct {
	// C is the inverse L2 regularisation strength.
	C         float64
	MaxIter   int
	Tolerance float64
	Threshold float64
}

func (o *LogisticOptions) setDefaults() {
	if o.C <= 0 {
		o.C = 1
	}
	if o.MaxIter <= 0 {
		o.MaxIter = 100
	}
	if o.Tolerance <= 0 {
		o.Tolerance = 1e-8
	}
	if o.Threshold <= 0 || o.Threshold >= 1 {
		o.Threshold = 0.5
	}
}

// LogisticRegression is a binary classifier over standardised features.
// Coef applies to (x - Mean) / Scale.
type LogisticRegression struct {
	Intercept float64   `json:"intercept"`
	Coef      []float64 `json:"coef"`
	Mean      []float64 `json:"mean"`
	Scale     []float64 `json:"scale"`
	Threshold float64   `json:"threshold"`
}

// FitLogisticRegression fits a penalised logistic model with Newton steps.
// The penalty 1/(2C)·||w||² excludes the intercept.
func FitLogisticRegression(X [][]float64, y []bool, opts LogisticOptions) (*LogisticRegression, error) {
	opts.setDefaults()
	p, err := checkMatrix(X)
	if err != nil {
		return nil, err
	}
	n := len(X)
	if len(y) != n {
		return nil, fmt.Errorf("%w: %d rows, %d labels", ErrDimension, n, len(y))
	}
	var pos int
	for _, v := range y {
		if v {
			pos++
		}
	}
	if pos == 0 || pos == n {
		return nil, ErrSingleClass
	}

	m := &LogisticRegression{
		Mean:      make([]float64, p),
		Scale:     make([]float64, p),
		Threshold: opts.Threshold,
	}
	col := make([]float64, n)
	for j := 0; j < p; j++ {
		for i := range X {
			col[i] = X[i][j]
		}
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		m.Mean[j], m.Scale[j] = mean, std
	}

	d := p + 1
	z := mat.NewDense(n, d, nil)
	target := mat.NewVecDense(n, nil)
	for i, row := range X {
		z.Set(i, 0, 1)
		for j, v := range row {
			z.Set(i, j+1, (v-m.Mean[j])/m.Scale[j])
		}
		if y[i] {
			target.SetVec(i, 1)
		}
	}

	lambda := 1 / opts.C
	w := mat.NewVecDense(d, nil)
	loss := penalisedLoss(z, target, w, lambda)
	for iter := 0; iter < opts.MaxIter; iter++ {
		step, err := newtonStep(z, target, w, lambda)
		if err != nil {
			return nil, err
		}
		next, nextLoss := lineSearch(z, target, w, step, lambda, loss)
		shift := floats.Distance(next.RawVector().Data, w.RawVector().Data, math.Inf(1))
		w, loss = next, nextLoss
		if shift < opts.Tolerance {
			break
		}
	}

	m.Intercept = w.AtVec(0)
	m.Coef = make([]float64, p)
	for j := 0; j < p; j++ {
		m.Coef[j] = w.AtVec(j + 1)
	}
	if err := m.Validate(p); err != nil {
		return nil, err
	}
	return m, nil
}

// newtonStep solves (ZᵀSZ + λĨ) Δ = Zᵀ(μ - y) + λw̃.
func newtonStep(z *mat.Dense, y, w *mat.VecDense, lambda float64) (*mat.VecDense, error) {
	n, d := z.Dims()
	var eta mat.VecDense
	eta.MulVec(z, w)

	resid := mat.NewVecDense(n, nil)
	weighted := mat.NewDense(n, d, nil)
	for i := 0; i < n; i++ {
		mu := sigmoid(eta.AtVec(i))
		resid.SetVec(i, mu-y.AtVec(i))
		s := math.Sqrt(math.Max(mu*(1-mu), 1e-12))
		for j := 0; j < d; j++ {
			weighted.Set(i, j, s*z.At(i, j))
		}
	}

	var grad mat.VecDense
	grad.MulVec(z.T(), resid)
	var hess mat.SymDense
	hess.SymOuterK(1, weighted.T())
	for j := 1; j < d; j++ {
		grad.SetVec(j, grad.AtVec(j)+lambda*w.AtVec(j))
		hess.SetSym(j, j, hess.At(j, j)+lambda)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(&hess); !ok {
		return nil, fmt.Errorf("%w: hessian not positive definite", ErrIllConditioned)
	}
	var step mat.VecDense
	if err := chol.SolveVecTo(&step, &grad); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIllConditioned, err)
	}
	return &step, nil
}

// lineSearch halves the Newton step until the penalised loss does not increase.
func lineSearch(z *mat.Dense, y, w, step *mat.VecDense, lambda, loss float64) (*mat.VecDense, float64) {
	t := 1.0
	for k := 0; k < 30; k++ {
		var next mat.VecDense
		next.AddScaledVec(w, -t, step)
		if l := penalisedLoss(z, y, &next, lambda); l <= loss {
			return &next, l
		}
		t /= 2
	}
	return w, loss
}

func penalisedLoss(z *mat.Dense, y, w *mat.VecDense, lambda float64) float64 {
	var eta mat.VecDense
	eta.MulVec(z, w)
	var loss float64
	for i := 0; i < eta.Len(); i++ {
		e := eta.AtVec(i)
		// log(1+exp(e)) - y·e, computed without overflow
		loss += softplus(e) - y.AtVec(i)*e
	}
	var reg float64
	for j := 1; j < w.Len(); j++ {
		reg += w.AtVec(j) * w.AtVec(j)
	}
	return loss + lambda*reg/2
}

// PredictProba returns the probability that x belongs to the positive class.
func (m *LogisticRegression) PredictProba(x []float64) float64 {
	eta := m.Intercept
	for j, v := range x {
		eta += m.Coef[j] * (v - m.Mean[j]) / m.Scale[j]
	}
	return sigmoid(eta)
}

// Predict reports whether the probability reaches the decision threshold.
func (m *LogisticRegression) Predict(x []float64) bool {
	return m.PredictProba(x) >= m.Threshold
}

// Validate checks the model has p finite, consistent parameters.
func (m *LogisticRegression) Validate(p int) error {
	if len(m.Coef) != p || len(m.Mean) != p || len(m.Scale) != p {
		return fmt.Errorf("%w: coef/mean/scale lengths %d/%d/%d, expected %d",
			ErrDimension, len(m.Coef), len(m.Mean), len(m.Scale), p)
	}
	if !finite(m.Intercept, m.Threshold) || !finite(m.Coef...) || !finite(m.Mean...) || !finite(m.Scale...) {
		return ErrNotFinite
	}
	for _, s := range m.Scale {
		if s <= 0 {
			return fmt.Errorf("non positive scale %g", s)
		}
	}
	if m.Threshold <= 0 || m.Threshold >= 1 {
		return fmt.Errorf("threshold %g outside (0,1)", m.Threshold)
	}
	return nil
}

func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

func softplus(x float64) float64 {
	if x > 0 {
		return x + math.Log1p(math.Exp(-x))
	}
	return math.Log1p(math.Exp(x))
}
