package models

import (
	"github.com/juju/errors"
	"gonum.org/v1/gonum/mat"

	"comparador/internal/data"
	"comparador/internal/features"
)

// LinearRegression solves ridge least squares through the normal equations.
// The intercept is not penalized.
type LinearRegression struct {
	Ridge float64
}

func NewLinearRegression() *LinearRegression {
	return &LinearRegression{Ridge: 1e-8}
}

func (lr *LinearRegression) Name() string { return "LinearRegression" }

func (lr *LinearRegression) Kind() data.Kind { return data.Numeric }

func (lr *LinearRegression) Fit(train *data.Dataset) (Fitted, error) {
	train, err := prepare(lr, train)
	if err != nil {
		return nil, err
	}
	enc := features.NewEncoder(train, true)
	X := enc.Transform(train)
	y := train.Targets()
	n, dim := len(X), enc.Dim()+1

	A := mat.NewDense(n, dim, nil)
	for i, x := range X {
		A.Set(i, 0, 1)
		for d, v := range x {
			A.Set(i, d+1, v)
		}
	}
	b := mat.NewVecDense(n, y)

	var ata mat.Dense
	ata.Mul(A.T(), A)
	for d := 1; d < dim; d++ {
		ata.Set(d, d, ata.At(d, d)+lr.Ridge*float64(n))
	}
	var atb mat.VecDense
	atb.MulVec(A.T(), b)

	var w mat.VecDense
	if err := w.SolveVec(&ata, &atb); err != nil {
		// Singular systems fall back to a stronger penalty.
		for d := 1; d < dim; d++ {
			ata.Set(d, d, ata.At(d, d)+1e-3*float64(n))
		}
		if err := w.SolveVec(&ata, &atb); err != nil {
			return nil, NewTrainingError(lr.Name(), errors.Annotate(err, "sistema normal singular"))
		}
	}
	m := &LinearModel{Encoder: enc, Intercept: w.AtVec(0), Coef: make([]float64, dim-1)}
	for d := range m.Coef {
		m.Coef[d] = w.AtVec(d + 1)
	}
	return m, nil
}

// LinearModel is a fitted LinearRegression over standardized features.
type LinearModel struct {
	Encoder   *features.Encoder
	Intercept float64
	Coef      []float64
}

func (m *LinearModel) Predict(rows *data.Dataset) ([]float64, error) {
	out := make([]float64, rows.Len())
	for i := range out {
		x := m.Encoder.Encode(rows.Row(i))
		v := m.Intercept
		for d, c := range m.Coef {
			v += c * x[d]
		}
		out[i] = v
	}
	return out, nil
}
