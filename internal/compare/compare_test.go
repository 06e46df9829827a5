package compare

import (
	"context"
	"testing"

	"github.com/goccy/go-json"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/multierr"

	"comparador/internal/config"
	"comparador/internal/data"
	"comparador/internal/models"
	"comparador/internal/models/mock"
	"comparador/internal/split"
)

func expenses(t *testing.T, n int) *data.Dataset {
	d, err := data.GenerateExpenses(n, 0.3, 11)
	require.NoError(t, err)
	return d
}

func costs(t *testing.T, n int) *data.Dataset {
	d, err := data.GenerateCosts(n, 0.1, 11)
	require.NoError(t, err)
	return d
}

func failing(ctrl *gomock.Controller, name string, kind data.Kind, err error) *mock.MockAdapter {
	a := mock.NewMockAdapter(ctrl)
	a.EXPECT().Name().Return(name).AnyTimes()
	a.EXPECT().Kind().Return(kind).AnyTimes()
	a.EXPECT().Fit(gomock.Any()).Return(nil, err).AnyTimes()
	return a
}

func rosters() Rosters {
	cfg := config.Default().Models
	cfg.ForestTrees = 5
	cfg.LogisticEpochs = 50
	cfg.BoostingRounds = 20
	cfg.MLPEpochs = 20
	return DefaultRosters(cfg, 1)
}

func TestDefaultRosters(t *testing.T) {
	r := DefaultRosters(config.Default().Models, 1)
	names := func(m Mode) []string {
		out := []string{}
		for _, a := range r[m] {
			assert.Equal(t, m.Kind(), a.Kind())
			out = append(out, a.Name())
		}
		return out
	}
	assert.Equal(t, []string{"NaiveBayes", "DecisionTree", "RandomForest", "Logistic"}, names(Classification))
	assert.Equal(t, []string{"LinearRegression", "RegressionTree", "GradientBoosting", "MultilayerPerceptron"}, names(Regression))
}

func TestDefaultRostersShareTreeSettings(t *testing.T) {
	cfg := config.Default().Models
	cfg.TreeMaxDepth = 5
	cfg.TreeMinSamples = 7
	r := DefaultRosters(cfg, 3)
	dt := r[Classification][1].(*models.DecisionTree)
	rt := r[Regression][1].(*models.DecisionTree)
	for _, tree := range []*models.DecisionTree{dt, rt} {
		assert.Equal(t, 5, tree.MaxDepth)
		assert.Equal(t, 7, tree.MinSamplesSplit)
		assert.Equal(t, int64(3), tree.Seed)
	}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" Regression ")
	require.NoError(t, err)
	assert.Equal(t, Regression, m)
	_, err = ParseMode("clustering")
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestCompareModeClassification(t *testing.T) {
	c := New(DefaultOptions(), rosters(), nil)
	r, err := c.CompareMode(context.Background(), expenses(t, 60), Classification, 1)
	require.NoError(t, err)
	assert.Equal(t, Classification, r.Mode)
	assert.Equal(t, split.KFold, r.Strategy)
	assert.Equal(t, 10, r.Folds)
	require.Len(t, r.Entries, 4)
	for _, e := range r.Entries {
		require.NoError(t, e.Err, e.Name)
		require.NotNil(t, e.Fitted)
		assert.Len(t, e.Result.Predictions, 60)
		assert.GreaterOrEqual(t, e.Summary(), 0.0)
		assert.LessOrEqual(t, e.Summary(), 100.0)
	}
	assert.NoError(t, r.Err())
	best, ok := r.Best()
	require.True(t, ok)
	for _, e := range r.Entries {
		assert.GreaterOrEqual(t, best.Summary(), e.Summary())
	}
}

func TestCompareModeRegression(t *testing.T) {
	c := New(DefaultOptions(), rosters(), nil)
	r, err := c.CompareMode(context.Background(), costs(t, 40), Regression, 1)
	require.NoError(t, err)
	require.Len(t, r.Entries, 4)
	for _, e := range r.Entries {
		require.NoError(t, e.Err, e.Name)
		require.NotNil(t, e.Result.Regression)
		assert.GreaterOrEqual(t, e.Result.Regression.RMSE, 0.0)
		assert.GreaterOrEqual(t, e.Result.Regression.MAE, 0.0)
	}
	best, ok := r.Best()
	require.True(t, ok)
	for _, e := range r.Entries {
		assert.LessOrEqual(t, best.Summary(), e.Summary())
	}
}

func TestFailingModelIsIsolated(t *testing.T) {
	ctrl := gomock.NewController(t)
	boom := errors.New("boom")
	roster := []models.Adapter{
		models.NewDecisionTree(),
		failing(ctrl, "Broken", data.Categorical, boom),
		models.NewNaiveBayes(),
	}
	for _, workers := range []int{1, 3} {
		opts := DefaultOptions()
		opts.Workers = workers
		r, err := New(opts, nil, nil).Compare(context.Background(), expenses(t, 30), roster, 1)
		require.NoError(t, err)
		require.Len(t, r.Entries, 3)
		assert.Equal(t, []string{"DecisionTree", "Broken", "NaiveBayes"}, []string{r.Entries[0].Name, r.Entries[1].Name, r.Entries[2].Name})

		assert.False(t, r.Entries[0].Failed())
		assert.False(t, r.Entries[2].Failed())
		assert.NotNil(t, r.Entries[0].Result)
		assert.NotNil(t, r.Entries[2].Result)

		failed := r.Entries[1]
		require.True(t, failed.Failed())
		assert.Nil(t, failed.Result)
		var te *models.TrainingError
		require.True(t, errors.As(failed.Err, &te))
		assert.Equal(t, "Broken", te.Model)
		assert.Contains(t, failed.Error, "boom")
		assert.Len(t, multierr.Errors(r.Err()), 1)
	}
}

func TestFailFastAbortsOnFirstFailureInRosterOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	roster := []models.Adapter{
		models.NewNaiveBayes(),
		failing(ctrl, "First", data.Categorical, errors.New("first")),
		failing(ctrl, "Second", data.Categorical, errors.New("second")),
	}
	for _, workers := range []int{1, 3} {
		opts := DefaultOptions()
		opts.Workers = workers
		opts.ContinueOnModelFailure = false
		r, err := New(opts, nil, nil).Compare(context.Background(), expenses(t, 30), roster, 1)
		assert.Nil(t, r)
		var te *models.TrainingError
		require.True(t, errors.As(err, &te))
		assert.Equal(t, "First", te.Model)
	}
}

func TestPanicIsRecovered(t *testing.T) {
	ctrl := gomock.NewController(t)
	a := mock.NewMockAdapter(ctrl)
	a.EXPECT().Name().Return("Panicky").AnyTimes()
	a.EXPECT().Kind().Return(data.Categorical).AnyTimes()
	a.EXPECT().Fit(gomock.Any()).DoAndReturn(func(*data.Dataset) (models.Fitted, error) {
		panic("índice fora do intervalo")
	})
	r, err := New(DefaultOptions(), nil, nil).Compare(context.Background(), expenses(t, 20), []models.Adapter{a}, 1)
	require.NoError(t, err)
	var te *models.TrainingError
	require.True(t, errors.As(r.Entries[0].Err, &te))
	assert.Contains(t, te.Error(), "índice fora do intervalo")
}

func TestFatalErrorsGiveNoReport(t *testing.T) {
	c := New(DefaultOptions(), rosters(), nil)

	attrs := []data.Attribute{{Name: "x", Kind: data.Numeric}, {Name: "y", Kind: data.Numeric}}
	empty, err := data.New("empty", attrs, nil, 1)
	require.NoError(t, err)
	r, err := c.CompareMode(context.Background(), empty, Regression, 1)
	assert.Nil(t, r)
	var invalid *data.InvalidDatasetError
	assert.True(t, errors.As(err, &invalid))

	opts := DefaultOptions()
	opts.Split.Folds = 1
	r, err = New(opts, rosters(), nil).CompareMode(context.Background(), costs(t, 20), Regression, 1)
	assert.Nil(t, r)
	var splitErr *split.SplitError
	assert.True(t, errors.As(err, &splitErr))

	_, err = c.CompareMode(context.Background(), costs(t, 20), Mode("clustering"), 1)
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestCancelledContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	a := mock.NewMockAdapter(ctrl)
	a.EXPECT().Name().Return("Unused").AnyTimes()
	a.EXPECT().Kind().Return(data.Categorical).AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r, err := New(DefaultOptions(), nil, nil).Compare(ctx, expenses(t, 20), []models.Adapter{a}, 1)
	assert.Nil(t, r)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestMismatchedTargetFailsEveryModel(t *testing.T) {
	r, err := New(DefaultOptions(), rosters(), nil).CompareMode(context.Background(), costs(t, 20), Classification, 1)
	require.NoError(t, err)
	for _, e := range r.Entries {
		assert.True(t, errors.Is(e.Err, models.ErrIncompatible), e.Name)
	}
	_, ok := r.Best()
	assert.False(t, ok)
}

func TestRepeatedComparisonsAreIdentical(t *testing.T) {
	ds := expenses(t, 50)
	var first []byte
	for i, workers := range []int{1, 1, 4} {
		opts := DefaultOptions()
		opts.Workers = workers
		r, err := New(opts, rosters(), nil).CompareMode(context.Background(), ds, Classification, 1)
		require.NoError(t, err)
		b, err := json.Marshal(r)
		require.NoError(t, err)
		if i == 0 {
			first = b
			continue
		}
		assert.Equal(t, string(first), string(b))
	}
}

func TestOnEntryIsCalledPerModel(t *testing.T) {
	opts := DefaultOptions()
	opts.Workers = 2
	c := New(opts, rosters(), nil)
	seen := make(chan string, 4)
	c.OnEntry = func(e Entry) { seen <- e.Name }
	_, err := c.CompareMode(context.Background(), expenses(t, 20), Classification, 1)
	require.NoError(t, err)
	close(seen)
	names := []string{}
	for n := range seen {
		names = append(names, n)
	}
	assert.ElementsMatch(t, []string{"NaiveBayes", "DecisionTree", "RandomForest", "Logistic"}, names)
}
