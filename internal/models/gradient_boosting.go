package models

import (
	"math"
	"sort"

	"github.com/juju/errors"

	"comparador/internal/data"
	"comparador/internal/features"
)

// Stump is one boosting round: a single threshold on one encoded feature.
type Stump struct {
	Feature   int
	Threshold float64
	LeftVal   float64
	RightVal  float64
}

// GradientBoosting fits additive decision stumps: squared loss on numeric
// targets, logistic loss on binary categorical targets.
type GradientBoosting struct {
	Task               data.Kind
	NEstimators        int
	LearningRate       float64
	MinSamples         int
	MaxThresholdsPerFe int
}

func NewGradientBoosting() *GradientBoosting {
	return &GradientBoosting{Task: data.Numeric, NEstimators: 100, LearningRate: 0.1, MinSamples: 1, MaxThresholdsPerFe: 32}
}

func (gb *GradientBoosting) Name() string { return "GradientBoosting" }

func (gb *GradientBoosting) Kind() data.Kind { return gb.Task }

func sigmoid(z float64) float64 { return 1.0 / (1.0 + math.Exp(-z)) }

func (gb *GradientBoosting) Fit(train *data.Dataset) (Fitted, error) {
	train, err := prepare(gb, train)
	if err != nil {
		return nil, err
	}
	if gb.Task == data.Categorical && train.NumClasses() != 2 {
		return nil, NewTrainingError(gb.Name(), errors.Annotatef(ErrNotImplemented,
			"boosting logístico requer alvo binário, encontradas %d classes", train.NumClasses()))
	}
	enc := features.NewEncoder(train, false)
	X := enc.Transform(train)
	y := train.Targets()
	n := len(X)

	m := &BoostedModel{Encoder: enc, LearningRate: gb.LearningRate, Logistic: gb.Task == data.Categorical}
	if m.Logistic {
		pos := 0.0
		for i := 0; i < n; i++ {
			pos += y[i]
		}
		base := math.Min(math.Max(pos/float64(n), 1e-3), 1-1e-3)
		m.Init = math.Log(base / (1.0 - base))
	} else {
		for i := 0; i < n; i++ {
			m.Init += y[i]
		}
		m.Init /= float64(n)
	}
	F := make([]float64, n)
	for i := range F {
		F[i] = m.Init
	}

	r := make([]float64, n)
	for s := 0; s < gb.NEstimators; s++ {
		for i := 0; i < n; i++ {
			if m.Logistic {
				r[i] = y[i] - sigmoid(F[i])
			} else {
				r[i] = y[i] - F[i]
			}
		}
		best, ok := gb.bestStump(X, r)
		if !ok {
			break
		}
		m.Trees = append(m.Trees, best)
		for i := 0; i < n; i++ {
			F[i] += gb.LearningRate * best.eval(X[i])
		}
	}
	return m, nil
}

func (gb *GradientBoosting) bestStump(X [][]float64, r []float64) (Stump, bool) {
	n := len(X)
	best := Stump{Feature: -1}
	bestSSE := math.MaxFloat64
	if n == 0 {
		return best, false
	}
	for j := 0; j < len(X[0]); j++ {
		for _, thr := range gbCandidateThresholds(X, j, gb.MaxThresholdsPerFe) {
			leftSum, leftCount := 0.0, 0.0
			rightSum, rightCount := 0.0, 0.0
			for i := 0; i < n; i++ {
				if X[i][j] <= thr {
					leftSum += r[i]
					leftCount++
				} else {
					rightSum += r[i]
					rightCount++
				}
			}
			if leftCount == 0 || rightCount == 0 {
				continue
			}
			if int(leftCount) < gb.MinSamples || int(rightCount) < gb.MinSamples {
				continue
			}
			leftAvg := leftSum / leftCount
			rightAvg := rightSum / rightCount
			sse := 0.0
			for i := 0; i < n; i++ {
				d := r[i] - rightAvg
				if X[i][j] <= thr {
					d = r[i] - leftAvg
				}
				sse += d * d
			}
			if sse < bestSSE {
				bestSSE = sse
				best = Stump{Feature: j, Threshold: thr, LeftVal: leftAvg, RightVal: rightAvg}
			}
		}
	}
	return best, best.Feature != -1
}

func (t Stump) eval(x []float64) float64 {
	if x[t.Feature] > t.Threshold {
		return t.RightVal
	}
	return t.LeftVal
}

// BoostedModel is a fitted GradientBoosting.
type BoostedModel struct {
	Encoder      *features.Encoder
	Init         float64
	LearningRate float64
	Logistic     bool
	Trees        []Stump
}

func (m *BoostedModel) Predict(rows *data.Dataset) ([]float64, error) {
	out := make([]float64, rows.Len())
	for i := range out {
		x := m.Encoder.Encode(rows.Row(i))
		f := m.Init
		for _, t := range m.Trees {
			f += m.LearningRate * t.eval(x)
		}
		if m.Logistic {
			out[i] = boolToFloat(sigmoid(f) >= 0.5)
		} else {
			out[i] = f
		}
	}
	return out, nil
}

func gbCandidateThresholds(X [][]float64, j int, nCand int) []float64 {
	if nCand <= 0 {
		nCand = 16
	}
	n := len(X)
	vals := make([]float64, n)
	for i := 0; i < n; i++ {
		vals[i] = X[i][j]
	}
	sort.Float64s(vals)
	out := make([]float64, 0, nCand)
	for k := 1; k < nCand; k++ {
		idx := int(math.Round(float64(k) / float64(nCand) * float64(n-1)))
		if idx < 0 || idx >= n-1 {
			continue
		}
		thr := vals[idx]
		if len(out) == 0 || thr != out[len(out)-1] {
			out = append(out, thr)
		}
	}
	return out
}
