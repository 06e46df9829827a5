package evaluation

import (
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"comparador/internal/data"
	"comparador/internal/models"
	"comparador/internal/models/mock"
	"comparador/internal/split"
)

func twoClasses(t *testing.T, n int) *data.Dataset {
	attrs := []data.Attribute{
		{Name: "x", Kind: data.Numeric},
		{Name: "y", Kind: data.Categorical, Values: []string{"a", "b"}},
	}
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = []float64{float64(i), float64(i % 2)}
	}
	d, err := data.New("classes", attrs, rows, 1)
	require.NoError(t, err)
	return d
}

func numeric(t *testing.T, rows [][]float64) *data.Dataset {
	attrs := []data.Attribute{{Name: "x", Kind: data.Numeric}, {Name: "y", Kind: data.Numeric}}
	d, err := data.New("numeric", attrs, rows, 1)
	require.NoError(t, err)
	return d
}

// echo predicts each row's own target.
type echo struct{}

func (echo) Predict(rows *data.Dataset) ([]float64, error) { return rows.Targets(), nil }

func TestEvaluatePoolsEveryRowOnce(t *testing.T) {
	d := twoClasses(t, 20)
	plan, err := split.Split(d, 1, split.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, plan.Folds, 10)

	res, fitted, err := Evaluate(models.NewDecisionTree(), plan)
	require.NoError(t, err)
	require.NotNil(t, fitted)
	assert.Equal(t, "DecisionTree", res.Model)
	assert.Equal(t, split.KFold, res.Strategy)
	assert.Equal(t, 10, res.Folds)
	require.Len(t, res.Predictions, 20)
	seen := map[int]bool{}
	for _, p := range res.Predictions {
		assert.False(t, seen[p.Row])
		seen[p.Row] = true
		assert.Equal(t, d.TargetValue(p.Row), p.Actual)
	}
	require.NotNil(t, res.Classification)
	assert.Nil(t, res.Regression)
	assert.Equal(t, 20, res.Classification.Total)
	assert.Equal(t, res.Classification.Accuracy, res.Summary())
}

func TestEvaluateFitsOnTrainRowsOnly(t *testing.T) {
	ctrl := gomock.NewController(t)
	d := numeric(t, [][]float64{{0, 1}, {1, 2}, {2, 3}, {3, 4}, {4, 5}})
	plan, err := split.Split(d, 1, split.DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, split.Holdout, plan.Strategy)

	adapter := mock.NewMockAdapter(ctrl)
	adapter.EXPECT().Name().Return("echo").AnyTimes()
	adapter.EXPECT().Kind().Return(data.Numeric).AnyTimes()
	gomock.InOrder(
		adapter.EXPECT().Fit(gomock.Any()).DoAndReturn(func(train *data.Dataset) (models.Fitted, error) {
			assert.Equal(t, len(plan.Folds[0].Train), train.Len())
			return echo{}, nil
		}),
		adapter.EXPECT().Fit(d).Return(echo{}, nil),
	)

	res, fitted, err := Evaluate(adapter, plan)
	require.NoError(t, err)
	assert.Equal(t, echo{}, fitted)
	require.NotNil(t, res.Regression)
	assert.Equal(t, 0.0, res.Summary())
	assert.Len(t, res.Predictions, 1)
}

func TestEvaluatePredictionCountMismatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	plan, err := split.Split(twoClasses(t, 20), 1, split.DefaultOptions())
	require.NoError(t, err)

	fitted := mock.NewMockFitted(ctrl)
	fitted.EXPECT().Predict(gomock.Any()).Return([]float64{0}, nil)
	adapter := mock.NewMockAdapter(ctrl)
	adapter.EXPECT().Name().Return("short").AnyTimes()
	adapter.EXPECT().Kind().Return(data.Categorical).AnyTimes()
	adapter.EXPECT().Fit(gomock.Any()).Return(fitted, nil)

	_, _, err = Evaluate(adapter, plan)
	var te *models.TrainingError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "short", te.Model)
}

func TestEvaluatePropagatesTrainingError(t *testing.T) {
	plan, err := split.Split(twoClasses(t, 20), 1, split.DefaultOptions())
	require.NoError(t, err)
	_, _, err = Evaluate(models.NewLinearRegression(), plan)
	var te *models.TrainingError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "LinearRegression", te.Model)
	assert.True(t, errors.Is(err, models.ErrIncompatible))
}

func TestEvaluateWrapsForeignErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	plan, err := split.Split(twoClasses(t, 20), 1, split.DefaultOptions())
	require.NoError(t, err)
	boom := errors.New("boom")
	adapter := mock.NewMockAdapter(ctrl)
	adapter.EXPECT().Name().Return("boom").AnyTimes()
	adapter.EXPECT().Kind().Return(data.Categorical).AnyTimes()
	adapter.EXPECT().Fit(gomock.Any()).Return(nil, boom)

	_, _, err = Evaluate(adapter, plan)
	var te *models.TrainingError
	require.True(t, errors.As(err, &te))
	assert.Same(t, boom, te.Err)
}

func TestEvaluateSmallNumericDataset(t *testing.T) {
	d := numeric(t, [][]float64{{0, 1}, {1, 3}, {2, 5}})
	plan, err := split.Split(d, 1, split.DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, split.Holdout, plan.Strategy)
	assert.Len(t, plan.Folds[0].Train, 2)
	assert.Len(t, plan.Folds[0].Test, 1)

	res, _, err := Evaluate(models.NewLinearRegression(), plan)
	require.NoError(t, err)
	require.Len(t, res.Predictions, 1)
	assert.InDelta(t, 0, res.Regression.RMSE, 1e-3)
	assert.GreaterOrEqual(t, res.Regression.MAE, 0.0)
}

func TestEvaluateLeaveOneOutTestsWholeDataset(t *testing.T) {
	d := numeric(t, [][]float64{{0, 1}, {1, 3}})
	plan, err := split.Split(d, 1, split.DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, split.LeaveOneOut, plan.Strategy)

	res, _, err := Evaluate(models.NewRegressionTree(), plan)
	require.NoError(t, err)
	assert.Len(t, res.Predictions, 4)
	assert.Equal(t, 2, res.Folds)
}

func TestEvaluateSkipsMissingActuals(t *testing.T) {
	rows := make([][]float64, 12)
	for i := range rows {
		rows[i] = []float64{float64(i), 2 * float64(i)}
	}
	rows[4][1] = data.Missing
	d := numeric(t, rows)
	plan, err := split.Split(d, 1, split.DefaultOptions())
	require.NoError(t, err)
	res, _, err := Evaluate(models.NewLinearRegression(), plan)
	require.NoError(t, err)
	assert.Len(t, res.Predictions, 11)
	assert.Equal(t, 11, res.Regression.N)
}
