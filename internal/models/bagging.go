package models

import (
	"comparador/internal/data"
	"comparador/internal/features"
)

// Bagging is a bootstrap ensemble of full-feature trees.
type Bagging struct {
	Task               data.Kind
	NEstimators        int
	MaxDepth           int
	MinSamples         int
	MaxThresholdsPerFe int
	Seed               int64
}

func NewBagging() *Bagging {
	return &Bagging{Task: data.Categorical, NEstimators: 30, MaxDepth: 8, MinSamples: 2, MaxThresholdsPerFe: 32, Seed: 1}
}

func (bg *Bagging) Name() string { return "Bagging" }

func (bg *Bagging) Kind() data.Kind { return bg.Task }

func (bg *Bagging) Fit(train *data.Dataset) (Fitted, error) {
	train, err := prepare(bg, train)
	if err != nil {
		return nil, err
	}
	enc := features.NewEncoder(train, false)
	return fitEnsemble(train, enc, ensembleParams{
		estimators: bg.NEstimators, maxDepth: bg.MaxDepth, minSplit: bg.MinSamples,
		maxThresholds: bg.MaxThresholdsPerFe, seed: bg.Seed,
	}), nil
}
