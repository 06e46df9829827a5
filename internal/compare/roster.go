package compare

import (
	"strings"

	"github.com/juju/errors"

	"comparador/internal/config"
	"comparador/internal/data"
	"comparador/internal/models"
)

type Mode string

const (
	Classification Mode = "classification"
	Regression     Mode = "regression"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case Classification:
		return Classification, nil
	case Regression:
		return Regression, nil
	}
	return "", errors.NotValidf("modo %q", s)
}

// Kind is the target kind a mode's models expect.
func (m Mode) Kind() data.Kind {
	if m == Regression {
		return data.Numeric
	}
	return data.Categorical
}

// Rosters are the ordered adapter lists run for each mode.
type Rosters map[Mode][]models.Adapter

// DefaultRosters builds the classification roster (naive Bayes, decision
// tree, random forest, logistic regression) and the regression roster
// (linear regression, regression tree, gradient boosting, multilayer
// perceptron). Randomized models are seeded with seed.
func DefaultRosters(cfg config.Models, seed int64) Rosters {
	nb := models.NewNaiveBayes()
	nb.Laplace = cfg.Laplace

	dt := models.NewDecisionTree()
	dt.MaxDepth = cfg.TreeMaxDepth
	dt.MinSamplesSplit = cfg.TreeMinSamples
	dt.Seed = seed

	rf := models.NewRandomForest()
	rf.NEstimators = cfg.ForestTrees
	rf.MaxDepth = cfg.ForestMaxDepth
	rf.MinSamples = cfg.TreeMinSamples
	rf.Seed = seed

	lg := models.NewLogistic()
	lg.Epochs = cfg.LogisticEpochs
	lg.LearningRate = cfg.LogisticLearningRate
	lg.Ridge = cfg.LogisticRidge

	lr := models.NewLinearRegression()
	lr.Ridge = cfg.LinearRidge

	rt := models.NewRegressionTree()
	rt.MaxDepth = cfg.TreeMaxDepth
	rt.MinSamplesSplit = cfg.TreeMinSamples
	rt.Seed = seed

	gb := models.NewGradientBoosting()
	gb.NEstimators = cfg.BoostingRounds
	gb.LearningRate = cfg.BoostingLearningRate

	nn := models.NewMLP()
	nn.Hidden = cfg.MLPHidden
	nn.Epochs = cfg.MLPEpochs
	nn.LearningRate = cfg.MLPLearningRate
	nn.Seed = seed

	return Rosters{
		Classification: {nb, dt, rf, lg},
		Regression:     {lr, rt, gb, nn},
	}
}
