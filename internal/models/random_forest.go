package models

import (
	"math"
	"math/rand"

	"comparador/internal/data"
	"comparador/internal/features"
)

type RandomForest struct {
	Task               data.Kind
	NEstimators        int
	MaxDepth           int
	MinSamples         int
	MaxThresholdsPerFe int
	MaxFeatures        int
	Seed               int64
}

func NewRandomForest() *RandomForest {
	return &RandomForest{Task: data.Categorical, NEstimators: 30, MaxDepth: 10, MinSamples: 2, MaxThresholdsPerFe: 32, Seed: 1}
}

func (rf *RandomForest) Name() string { return "RandomForest" }

func (rf *RandomForest) Kind() data.Kind { return rf.Task }

func (rf *RandomForest) Fit(train *data.Dataset) (Fitted, error) {
	train, err := prepare(rf, train)
	if err != nil {
		return nil, err
	}
	enc := features.NewEncoder(train, false)
	maxFeatures := rf.MaxFeatures
	if maxFeatures <= 0 {
		dim := float64(enc.Dim())
		if rf.Task == data.Numeric {
			maxFeatures = int(math.Max(1, dim/3))
		} else {
			maxFeatures = int(math.Max(1, math.Min(dim, math.Sqrt(dim))))
		}
	}
	return fitEnsemble(train, enc, ensembleParams{
		estimators: rf.NEstimators, maxDepth: rf.MaxDepth, minSplit: rf.MinSamples,
		maxThresholds: rf.MaxThresholdsPerFe, maxFeatures: maxFeatures, seed: rf.Seed,
	}), nil
}

type ensembleParams struct {
	estimators    int
	maxDepth      int
	minSplit      int
	maxThresholds int
	maxFeatures   int
	seed          int64
}

// fitEnsemble grows bootstrap-sampled trees. Each tree draws its own seed
// from the ensemble's source so results only depend on params.seed.
func fitEnsemble(train *data.Dataset, enc *features.Encoder, p ensembleParams) *EnsembleModel {
	if p.estimators <= 0 {
		p.estimators = 30
	}
	X := enc.Transform(train)
	y := train.Targets()
	n := len(X)
	rng := rand.New(rand.NewSource(p.seed))
	m := &EnsembleModel{Encoder: enc, Classes: train.NumClasses(), Trees: make([]*DTNode, 0, p.estimators)}
	for k := 0; k < p.estimators; k++ {
		idx := make([]int, n)
		for i := 0; i < n; i++ {
			idx[i] = rng.Intn(n)
		}
		g := &grower{
			X: X, y: y, classes: m.Classes,
			maxDepth: p.maxDepth, minSplit: p.minSplit,
			maxThresholds: p.maxThresholds, maxFeatures: p.maxFeatures,
			rng: rand.New(rand.NewSource(rng.Int63())),
		}
		m.Trees = append(m.Trees, g.grow(idx))
	}
	return m
}

// EnsembleModel averages class distributions (or values) over its trees.
type EnsembleModel struct {
	Encoder *features.Encoder
	Trees   []*DTNode
	Classes int
}

func (m *EnsembleModel) Predict(rows *data.Dataset) ([]float64, error) {
	out := make([]float64, rows.Len())
	for i := range out {
		x := m.Encoder.Encode(rows.Row(i))
		if m.Classes > 0 {
			dist := make([]float64, m.Classes)
			for _, t := range m.Trees {
				for k, p := range t.leaf(x).Dist {
					dist[k] += p
				}
			}
			out[i] = float64(argmax(dist))
			continue
		}
		for _, t := range m.Trees {
			out[i] += t.leaf(x).Value
		}
		out[i] /= float64(len(m.Trees))
	}
	return out, nil
}
