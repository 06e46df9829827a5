package models

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"comparador/internal/data"
)

const minStdDev = 1e-6

// NaiveBayes models numeric features as per-class gaussians and categorical
// features as Laplace-smoothed frequencies. Missing feature values are
// skipped during both fit and predict.
type NaiveBayes struct {
	Laplace float64
}

func NewNaiveBayes() *NaiveBayes {
	return &NaiveBayes{Laplace: 1}
}

func (nb *NaiveBayes) Name() string { return "NaiveBayes" }

func (nb *NaiveBayes) Kind() data.Kind { return data.Categorical }

func (nb *NaiveBayes) Fit(train *data.Dataset) (Fitted, error) {
	train, err := prepare(nb, train)
	if err != nil {
		return nil, err
	}
	k := train.NumClasses()
	cols := train.FeatureIndices()
	m := &BayesModel{
		Columns:  cols,
		Kinds:    make([]data.Kind, len(cols)),
		Prior:    make([]float64, k),
		Mean:     make([][]float64, len(cols)),
		Std:      make([][]float64, len(cols)),
		LogProbs: make([][][]float64, len(cols)),
	}

	byClass := make([][]int, k)
	for i := 0; i < train.Len(); i++ {
		c := int(train.TargetValue(i))
		byClass[c] = append(byClass[c], i)
	}
	for c := range byClass {
		m.Prior[c] = math.Log((float64(len(byClass[c])) + nb.Laplace) / (float64(train.Len()) + nb.Laplace*float64(k)))
	}

	for f, j := range cols {
		a := train.Attribute(j)
		m.Kinds[f] = a.Kind
		if a.Kind == data.Categorical {
			m.LogProbs[f] = make([][]float64, k)
			for c, rows := range byClass {
				counts := make([]float64, len(a.Values))
				total := 0.0
				for _, i := range rows {
					v := train.Value(i, j)
					if data.IsMissing(v) {
						continue
					}
					counts[int(v)]++
					total++
				}
				lp := make([]float64, len(a.Values))
				for v := range counts {
					lp[v] = math.Log((counts[v] + nb.Laplace) / (total + nb.Laplace*float64(len(a.Values))))
				}
				m.LogProbs[f][c] = lp
			}
			continue
		}
		m.Mean[f] = make([]float64, k)
		m.Std[f] = make([]float64, k)
		for c, rows := range byClass {
			vals := make([]float64, 0, len(rows))
			for _, i := range rows {
				if v := train.Value(i, j); !data.IsMissing(v) {
					vals = append(vals, v)
				}
			}
			switch {
			case len(vals) > 1:
				m.Mean[f][c], m.Std[f][c] = stat.MeanStdDev(vals, nil)
			case len(vals) == 1:
				m.Mean[f][c] = vals[0]
			}
			if m.Std[f][c] < minStdDev || math.IsNaN(m.Std[f][c]) {
				m.Std[f][c] = minStdDev
			}
		}
	}
	return m, nil
}

// BayesModel is a fitted NaiveBayes.
type BayesModel struct {
	Columns  []int
	Kinds    []data.Kind
	Prior    []float64
	Mean     [][]float64
	Std      [][]float64
	LogProbs [][][]float64
}

func (m *BayesModel) Predict(rows *data.Dataset) ([]float64, error) {
	out := make([]float64, rows.Len())
	post := make([]float64, len(m.Prior))
	for i := range out {
		row := rows.Row(i)
		copy(post, m.Prior)
		for f, j := range m.Columns {
			v := row[j]
			if data.IsMissing(v) {
				continue
			}
			for c := range post {
				if m.Kinds[f] == data.Categorical {
					post[c] += m.LogProbs[f][c][int(v)]
					continue
				}
				post[c] += logGaussian(v, m.Mean[f][c], m.Std[f][c])
			}
		}
		out[i] = float64(argmax(post))
	}
	return out, nil
}

func logGaussian(x, mean, std float64) float64 {
	z := (x - mean) / std
	return -0.5*z*z - math.Log(std) - 0.5*math.Log(2*math.Pi)
}
