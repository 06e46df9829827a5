package models

import (
	"math"
	"math/rand"
	"sort"

	"comparador/internal/data"
	"comparador/internal/features"
)

type DTNode struct {
	Feature   int
	Threshold float64
	Left      *DTNode
	Right     *DTNode
	IsLeaf    bool
	Dist      []float64
	Value     float64
}

// DecisionTree is a CART learner: gini splits for categorical targets,
// squared-error splits for numeric ones.
type DecisionTree struct {
	Task               data.Kind
	MaxDepth           int
	MinSamplesSplit    int
	MaxThresholdsPerFe int
	MaxFeatures        int
	Seed               int64
}

func NewDecisionTree() *DecisionTree {
	return &DecisionTree{Task: data.Categorical, MaxDepth: 8, MinSamplesSplit: 2, MaxThresholdsPerFe: 64, Seed: 1}
}

func NewRegressionTree() *DecisionTree {
	return &DecisionTree{Task: data.Numeric, MaxDepth: 6, MinSamplesSplit: 4, MaxThresholdsPerFe: 64, Seed: 1}
}

func (dt *DecisionTree) Name() string {
	if dt.Task == data.Numeric {
		return "RegressionTree"
	}
	return "DecisionTree"
}

func (dt *DecisionTree) Kind() data.Kind { return dt.Task }

func (dt *DecisionTree) Fit(train *data.Dataset) (Fitted, error) {
	train, err := prepare(dt, train)
	if err != nil {
		return nil, err
	}
	enc := features.NewEncoder(train, false)
	X := enc.Transform(train)
	g := &grower{
		X: X, y: train.Targets(), classes: train.NumClasses(),
		maxDepth: dt.MaxDepth, minSplit: dt.MinSamplesSplit,
		maxThresholds: dt.MaxThresholdsPerFe, maxFeatures: dt.MaxFeatures,
		rng: rand.New(rand.NewSource(dt.Seed)),
	}
	return &TreeModel{Encoder: enc, Root: g.grow(allIndices(len(X))), Classes: train.NumClasses()}, nil
}

// TreeModel is a fitted DecisionTree.
type TreeModel struct {
	Encoder *features.Encoder
	Root    *DTNode
	Classes int
}

func (m *TreeModel) Predict(rows *data.Dataset) ([]float64, error) {
	out := make([]float64, rows.Len())
	for i := range out {
		leaf := m.Root.leaf(m.Encoder.Encode(rows.Row(i)))
		if m.Classes > 0 {
			out[i] = float64(argmax(leaf.Dist))
		} else {
			out[i] = leaf.Value
		}
	}
	return out, nil
}

func (n *DTNode) leaf(x []float64) *DTNode {
	for !n.IsLeaf {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n
}

type grower struct {
	X             [][]float64
	y             []float64
	classes       int
	maxDepth      int
	minSplit      int
	maxThresholds int
	maxFeatures   int
	rng           *rand.Rand
}

func (g *grower) grow(idx []int) *DTNode {
	return g.build(idx, 0)
}

func (g *grower) build(idx []int, depth int) *DTNode {
	node := g.leafNode(idx)
	if len(idx) < g.minSplit || depth >= g.maxDepth || g.pure(idx) {
		return node
	}
	bestFeature := -1
	bestThr := 0.0
	bestImp := math.MaxFloat64
	var leftIdxBest, rightIdxBest []int

	for _, f := range g.pickFeatures(len(g.X[0])) {
		for _, thr := range g.candidateThresholds(idx, f) {
			lIdx, rIdx := splitIdx(g.X, idx, f, thr)
			if len(lIdx) == 0 || len(rIdx) == 0 {
				continue
			}
			imp := g.impurity(lIdx, rIdx)
			if imp < bestImp {
				bestImp = imp
				bestFeature = f
				bestThr = thr
				leftIdxBest = lIdx
				rightIdxBest = rIdx
			}
		}
	}
	if bestFeature == -1 {
		return node
	}
	node.IsLeaf = false
	node.Feature = bestFeature
	node.Threshold = bestThr
	node.Left = g.build(leftIdxBest, depth+1)
	node.Right = g.build(rightIdxBest, depth+1)
	return node
}

func (g *grower) leafNode(idx []int) *DTNode {
	node := &DTNode{IsLeaf: true}
	if g.classes > 0 {
		node.Dist = make([]float64, g.classes)
		for _, i := range idx {
			node.Dist[int(g.y[i])]++
		}
		for k := range node.Dist {
			node.Dist[k] /= float64(len(idx))
		}
		return node
	}
	for _, i := range idx {
		node.Value += g.y[i]
	}
	node.Value /= float64(len(idx))
	return node
}

func (g *grower) pure(idx []int) bool {
	for _, i := range idx[1:] {
		if g.y[i] != g.y[idx[0]] {
			return false
		}
	}
	return true
}

func (g *grower) impurity(lIdx, rIdx []int) float64 {
	wl := float64(len(lIdx))
	wr := float64(len(rIdx))
	n := wl + wr
	if g.classes > 0 {
		return (wl/n)*gini(g.y, lIdx, g.classes) + (wr/n)*gini(g.y, rIdx, g.classes)
	}
	return sse(g.y, lIdx) + sse(g.y, rIdx)
}

func gini(y []float64, ids []int, classes int) float64 {
	counts := make([]float64, classes)
	for _, i := range ids {
		counts[int(y[i])]++
	}
	g := 1.0
	for _, c := range counts {
		p := c / float64(len(ids))
		g -= p * p
	}
	return g
}

func sse(y []float64, ids []int) float64 {
	mean := 0.0
	for _, i := range ids {
		mean += y[i]
	}
	mean /= float64(len(ids))
	s := 0.0
	for _, i := range ids {
		d := y[i] - mean
		s += d * d
	}
	return s
}

func splitIdx(X [][]float64, idx []int, f int, thr float64) ([]int, []int) {
	l := make([]int, 0, len(idx))
	r := make([]int, 0, len(idx))
	for _, i := range idx {
		if X[i][f] <= thr {
			l = append(l, i)
		} else {
			r = append(r, i)
		}
	}
	return l, r
}

// candidateThresholds uses every distinct value when there are few of them
// and a seeded random sample otherwise.
func (g *grower) candidateThresholds(idx []int, f int) []float64 {
	seen := make(map[float64]struct{}, len(idx))
	values := make([]float64, 0, len(idx))
	for _, i := range idx {
		v := g.X[i][f]
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			values = append(values, v)
		}
	}
	sort.Float64s(values)
	if len(values) > 0 {
		values = values[:len(values)-1]
	}
	if g.maxThresholds <= 0 || len(values) <= g.maxThresholds {
		return values
	}
	g.rng.Shuffle(len(values), func(i, j int) { values[i], values[j] = values[j], values[i] })
	out := values[:g.maxThresholds]
	sort.Float64s(out)
	return out
}

func (g *grower) pickFeatures(nFeats int) []int {
	if g.maxFeatures <= 0 || g.maxFeatures >= nFeats {
		return allIndices(nFeats)
	}
	idx := g.rng.Perm(nFeats)[:g.maxFeatures]
	sort.Ints(idx)
	return idx
}

func allIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
