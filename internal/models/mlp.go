package models

import (
	"math"
	"math/rand"

	"github.com/juju/errors"

	"comparador/internal/data"
	"comparador/internal/features"
)

// MLP is a one-hidden-layer perceptron with sigmoid units and a linear
// output, trained by stochastic gradient descent on standardized inputs and
// target.
type MLP struct {
	Hidden       int
	LearningRate float64
	Momentum     float64
	Epochs       int
	Seed         int64
}

func NewMLP() *MLP {
	return &MLP{Hidden: 0, LearningRate: 0.05, Momentum: 0.2, Epochs: 200, Seed: 1}
}

func (nn *MLP) Name() string { return "MultilayerPerceptron" }

func (nn *MLP) Kind() data.Kind { return data.Numeric }

func (nn *MLP) Fit(train *data.Dataset) (Fitted, error) {
	train, err := prepare(nn, train)
	if err != nil {
		return nil, err
	}
	enc := features.NewEncoder(train, true)
	X := enc.Transform(train)
	y := train.Targets()
	n, dim := len(X), enc.Dim()

	hidden := nn.Hidden
	if hidden <= 0 {
		// (attributes + classes) / 2, with one output for numeric targets.
		hidden = (dim + 1) / 2
		if hidden < 1 {
			hidden = 1
		}
	}

	m := &PerceptronModel{Encoder: enc, YMean: 0, YStd: 1}
	for _, v := range y {
		m.YMean += v
	}
	m.YMean /= float64(n)
	if n > 1 {
		ss := 0.0
		for _, v := range y {
			ss += (v - m.YMean) * (v - m.YMean)
		}
		if s := math.Sqrt(ss / float64(n-1)); s > 0 {
			m.YStd = s
		}
	}

	rng := rand.New(rand.NewSource(nn.Seed))
	m.W1 = make([][]float64, hidden)
	m.B1 = make([]float64, hidden)
	m.W2 = make([]float64, hidden)
	dW1 := make([][]float64, hidden)
	dW2 := make([]float64, hidden)
	dB1 := make([]float64, hidden)
	for h := 0; h < hidden; h++ {
		m.W1[h] = make([]float64, dim)
		dW1[h] = make([]float64, dim)
		for d := range m.W1[h] {
			m.W1[h][d] = rng.Float64() - 0.5
		}
		m.B1[h] = rng.Float64() - 0.5
		m.W2[h] = rng.Float64() - 0.5
	}
	m.B2 = rng.Float64() - 0.5
	dB2 := 0.0

	act := make([]float64, hidden)
	order := allIndices(n)
	for epoch := 0; epoch < nn.Epochs; epoch++ {
		rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
		for _, i := range order {
			out := m.forward(X[i], act)
			errOut := out - (y[i]-m.YMean)/m.YStd
			for h := 0; h < hidden; h++ {
				gradHidden := errOut * m.W2[h] * act[h] * (1 - act[h])
				dW2[h] = -nn.LearningRate*errOut*act[h] + nn.Momentum*dW2[h]
				m.W2[h] += dW2[h]
				for d, x := range X[i] {
					dW1[h][d] = -nn.LearningRate*gradHidden*x + nn.Momentum*dW1[h][d]
					m.W1[h][d] += dW1[h][d]
				}
				dB1[h] = -nn.LearningRate*gradHidden + nn.Momentum*dB1[h]
				m.B1[h] += dB1[h]
			}
			dB2 = -nn.LearningRate*errOut + nn.Momentum*dB2
			m.B2 += dB2
		}
		if math.IsNaN(m.B2) || math.IsInf(m.B2, 0) {
			return nil, NewTrainingError(nn.Name(), errors.Errorf("treino divergiu na época %d", epoch))
		}
	}
	return m, nil
}

// PerceptronModel is a fitted MLP.
type PerceptronModel struct {
	Encoder *features.Encoder
	W1      [][]float64
	B1      []float64
	W2      []float64
	B2      float64
	YMean   float64
	YStd    float64
}

func (m *PerceptronModel) forward(x []float64, act []float64) float64 {
	out := m.B2
	for h := range m.W1 {
		z := m.B1[h]
		for d, w := range m.W1[h] {
			z += w * x[d]
		}
		act[h] = sigmoid(z)
		out += m.W2[h] * act[h]
	}
	return out
}

func (m *PerceptronModel) Predict(rows *data.Dataset) ([]float64, error) {
	out := make([]float64, rows.Len())
	act := make([]float64, len(m.W1))
	for i := range out {
		out[i] = m.forward(m.Encoder.Encode(rows.Row(i)), act)*m.YStd + m.YMean
	}
	return out, nil
}
