package models

import (
	"math"

	"github.com/juju/errors"

	"comparador/internal/data"
	"comparador/internal/features"
)

// Logistic is multinomial logistic regression with an L2 penalty, trained by
// full-batch gradient descent on standardized features.
type Logistic struct {
	Ridge        float64
	LearningRate float64
	Epochs       int
}

func NewLogistic() *Logistic {
	return &Logistic{Ridge: 1e-4, LearningRate: 0.5, Epochs: 300}
}

func (lg *Logistic) Name() string { return "Logistic" }

func (lg *Logistic) Kind() data.Kind { return data.Categorical }

func (lg *Logistic) Fit(train *data.Dataset) (Fitted, error) {
	train, err := prepare(lg, train)
	if err != nil {
		return nil, err
	}
	enc := features.NewEncoder(train, true)
	X := enc.Transform(train)
	y := train.Targets()
	n, dim, k := len(X), enc.Dim(), train.NumClasses()

	m := &SoftmaxModel{Encoder: enc, Weights: make([][]float64, k), Bias: make([]float64, k)}
	for c := range m.Weights {
		m.Weights[c] = make([]float64, dim)
	}
	gradW := make([][]float64, k)
	for c := range gradW {
		gradW[c] = make([]float64, dim)
	}
	gradB := make([]float64, k)
	probs := make([]float64, k)

	for epoch := 0; epoch < lg.Epochs; epoch++ {
		for c := range gradW {
			for d := range gradW[c] {
				gradW[c][d] = 0
			}
			gradB[c] = 0
		}
		for i := 0; i < n; i++ {
			m.probabilities(X[i], probs)
			for c := 0; c < k; c++ {
				diff := probs[c]
				if int(y[i]) == c {
					diff -= 1
				}
				gradB[c] += diff
				for d, x := range X[i] {
					gradW[c][d] += diff * x
				}
			}
		}
		for c := 0; c < k; c++ {
			m.Bias[c] -= lg.LearningRate * gradB[c] / float64(n)
			for d := 0; d < dim; d++ {
				g := gradW[c][d]/float64(n) + lg.Ridge*m.Weights[c][d]
				m.Weights[c][d] -= lg.LearningRate * g
			}
		}
	}
	for c := range m.Bias {
		if math.IsNaN(m.Bias[c]) || math.IsInf(m.Bias[c], 0) {
			return nil, NewTrainingError(lg.Name(), errors.New("gradiente divergiu"))
		}
	}
	return m, nil
}

// SoftmaxModel is a fitted Logistic.
type SoftmaxModel struct {
	Encoder *features.Encoder
	Weights [][]float64
	Bias    []float64
}

func (m *SoftmaxModel) probabilities(x []float64, out []float64) {
	maxZ := math.Inf(-1)
	for c := range m.Weights {
		z := m.Bias[c]
		for d, w := range m.Weights[c] {
			z += w * x[d]
		}
		out[c] = z
		if z > maxZ {
			maxZ = z
		}
	}
	sum := 0.0
	for c := range out {
		out[c] = math.Exp(out[c] - maxZ)
		sum += out[c]
	}
	for c := range out {
		out[c] /= sum
	}
}

func (m *SoftmaxModel) Predict(rows *data.Dataset) ([]float64, error) {
	out := make([]float64, rows.Len())
	probs := make([]float64, len(m.Bias))
	for i := range out {
		m.probabilities(m.Encoder.Encode(rows.Row(i)), probs)
		out[i] = float64(argmax(probs))
	}
	return out, nil
}
