// Package evaluation runs one model adapter over a split plan.
package evaluation

import (
	"github.com/juju/errors"

	"comparador/internal/data"
	"comparador/internal/metrics"
	"comparador/internal/models"
	"comparador/internal/split"
)

// Prediction pairs a pooled prediction with the row it was computed for.
// Row indexes the planned dataset.
type Prediction struct {
	Fold      int     `json:"fold" yaml:"fold"`
	Row       int     `json:"row" yaml:"row"`
	Actual    float64 `json:"actual" yaml:"actual"`
	Predicted float64 `json:"predicted" yaml:"predicted"`
}

// Result is the outcome of evaluating one model over one plan. Exactly one of
// Classification and Regression is set.
type Result struct {
	Model          string                  `json:"model" yaml:"model"`
	Kind           data.Kind               `json:"kind" yaml:"kind"`
	Strategy       split.Strategy          `json:"strategy" yaml:"strategy"`
	Folds          int                     `json:"folds" yaml:"folds"`
	Predictions    []Prediction            `json:"predictions" yaml:"predictions"`
	Classification *metrics.Classification `json:"classification,omitempty" yaml:"classification,omitempty"`
	Regression     *metrics.Regression     `json:"regression,omitempty" yaml:"regression,omitempty"`
}

// Summary is accuracy in percent for classifiers and RMSE for regressors.
func (r *Result) Summary() float64 {
	switch {
	case r.Classification != nil:
		return r.Classification.Accuracy
	case r.Regression != nil:
		return r.Regression.RMSE
	}
	return 0
}

// Evaluate fits a on every fold's train rows and predicts its test rows. The
// predictions of all folds are pooled and scored once. A last fit over the
// whole dataset gives the returned model, which is not scored.
//
// Every failure is reported as a *models.TrainingError naming a.
func Evaluate(a models.Adapter, plan *split.Plan) (*Result, models.Fitted, error) {
	name := a.Name()
	ds := plan.Dataset()
	res := &Result{
		Model:       name,
		Kind:        a.Kind(),
		Strategy:    plan.Strategy,
		Folds:       len(plan.Folds),
		Predictions: make([]Prediction, 0, plan.TestRows()),
	}
	for f, fold := range plan.Folds {
		m, err := a.Fit(plan.TrainSet(f))
		if err != nil {
			return nil, nil, models.NewTrainingError(name, err)
		}
		pred, err := m.Predict(plan.TestSet(f))
		if err != nil {
			return nil, nil, models.NewTrainingError(name, err)
		}
		if len(pred) != len(fold.Test) {
			return nil, nil, models.NewTrainingError(name, errors.Errorf(
				"partição %d: %d previsões para %d linhas", f, len(pred), len(fold.Test)))
		}
		for k, row := range fold.Test {
			actual := ds.TargetValue(row)
			if data.IsMissing(actual) {
				continue
			}
			res.Predictions = append(res.Predictions, Prediction{Fold: f, Row: row, Actual: actual, Predicted: pred[k]})
		}
	}
	if err := res.score(ds); err != nil {
		return nil, nil, models.NewTrainingError(name, err)
	}
	fitted, err := a.Fit(ds)
	if err != nil {
		return nil, nil, models.NewTrainingError(name, errors.Annotate(err, "ajuste final"))
	}
	return res, fitted, nil
}

func (r *Result) score(ds *data.Dataset) error {
	actual := make([]float64, len(r.Predictions))
	predicted := make([]float64, len(r.Predictions))
	for i, p := range r.Predictions {
		actual[i] = p.Actual
		predicted[i] = p.Predicted
	}
	var err error
	if ds.TargetKind() == data.Categorical {
		r.Classification, err = metrics.Classify(ds.Classes(), actual, predicted)
	} else {
		r.Regression, err = metrics.Regress(actual, predicted)
	}
	return errors.Trace(err)
}
