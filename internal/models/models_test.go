package models

import (
	"bytes"
	"math"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comparador/internal/data"
)

// separable has a numeric feature that decides the class and a categorical
// feature that agrees with it on most rows.
func separable(t *testing.T) *data.Dataset {
	attrs := []data.Attribute{
		{Name: "x", Kind: data.Numeric},
		{Name: "color", Kind: data.Categorical, Values: []string{"red", "blue"}},
		{Name: "label", Kind: data.Categorical, Values: []string{"low", "high"}},
	}
	rows := make([][]float64, 0, 40)
	for i := 0; i < 40; i++ {
		x := float64(i % 20)
		label := boolToFloat(x >= 10)
		color := label
		if i%7 == 0 {
			color = 1 - color
		}
		rows = append(rows, []float64{x, color, label})
	}
	d, err := data.New("separable", attrs, rows, 2)
	require.NoError(t, err)
	return d
}

func threeClasses(t *testing.T) *data.Dataset {
	attrs := []data.Attribute{
		{Name: "x", Kind: data.Numeric},
		{Name: "y", Kind: data.Categorical, Values: []string{"a", "b", "c"}},
	}
	rows := make([][]float64, 0, 30)
	for i := 0; i < 30; i++ {
		rows = append(rows, []float64{float64(i), float64(i / 10)})
	}
	d, err := data.New("three", attrs, rows, 1)
	require.NoError(t, err)
	return d
}

func linear(t *testing.T) *data.Dataset {
	attrs := []data.Attribute{
		{Name: "x", Kind: data.Numeric},
		{Name: "y", Kind: data.Numeric},
	}
	rows := make([][]float64, 0, 30)
	for i := 0; i < 30; i++ {
		rows = append(rows, []float64{float64(i), 3*float64(i) + 2})
	}
	d, err := data.New("linear", attrs, rows, 1)
	require.NoError(t, err)
	return d
}

func accuracyOn(t *testing.T, a Adapter, d *data.Dataset) float64 {
	m, err := a.Fit(d)
	require.NoError(t, err)
	pred, err := m.Predict(d)
	require.NoError(t, err)
	require.Len(t, pred, d.Len())
	correct := 0
	for i, p := range pred {
		if p == d.TargetValue(i) {
			correct++
		}
	}
	return float64(correct) / float64(d.Len())
}

func rmseOn(t *testing.T, a Adapter, d *data.Dataset) (rmse, std float64) {
	m, err := a.Fit(d)
	require.NoError(t, err)
	pred, err := m.Predict(d)
	require.NoError(t, err)
	require.Len(t, pred, d.Len())
	y := d.Targets()
	mean := 0.0
	for _, v := range y {
		mean += v
	}
	mean /= float64(len(y))
	for i, p := range pred {
		rmse += (p - y[i]) * (p - y[i])
		std += (y[i] - mean) * (y[i] - mean)
	}
	return math.Sqrt(rmse / float64(len(y))), math.Sqrt(std / float64(len(y)))
}

func TestClassifiers(t *testing.T) {
	d := separable(t)
	for _, a := range []Adapter{
		NewNaiveBayes(),
		NewDecisionTree(),
		NewRandomForest(),
		NewLogistic(),
		NewBagging(),
		&GradientBoosting{Task: data.Categorical, NEstimators: 50, LearningRate: 0.3, MinSamples: 1, MaxThresholdsPerFe: 32},
	} {
		t.Run(a.Name(), func(t *testing.T) {
			assert.Equal(t, data.Categorical, a.Kind())
			assert.GreaterOrEqual(t, accuracyOn(t, a, d), 0.9)
		})
	}
}

func TestMultiClass(t *testing.T) {
	d := threeClasses(t)
	for _, a := range []Adapter{NewNaiveBayes(), NewDecisionTree(), NewRandomForest()} {
		t.Run(a.Name(), func(t *testing.T) {
			assert.GreaterOrEqual(t, accuracyOn(t, a, d), 0.8)
		})
	}
	// one feature leaves the middle class to the biases
	assert.GreaterOrEqual(t, accuracyOn(t, NewLogistic(), d), 0.6)
}

func TestRegressors(t *testing.T) {
	d := linear(t)

	rmse, _ := rmseOn(t, NewLinearRegression(), d)
	assert.InDelta(t, 0, rmse, 1e-3)

	for _, a := range []Adapter{NewRegressionTree(), NewGradientBoosting(), NewMLP(), &RandomForest{Task: data.Numeric, NEstimators: 10, MaxDepth: 6, MinSamples: 2, Seed: 1}} {
		t.Run(a.Name(), func(t *testing.T) {
			assert.Equal(t, data.Numeric, a.Kind())
			rmse, std := rmseOn(t, a, d)
			assert.Less(t, rmse, 0.5*std)
		})
	}
}

func TestLinearRegressionCoefficients(t *testing.T) {
	m, err := NewLinearRegression().Fit(linear(t))
	require.NoError(t, err)
	lm := m.(*LinearModel)
	// Features are standardized, so the raw slope is Coef / std(x).
	assert.InDelta(t, 3, lm.Coef[0]/lm.Encoder.Std[0], 1e-4)
}

func TestIncompatibleTarget(t *testing.T) {
	var te *TrainingError
	_, err := NewLinearRegression().Fit(separable(t))
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "LinearRegression", te.Model)
	assert.True(t, errors.Is(err, ErrIncompatible))

	_, err = NewNaiveBayes().Fit(linear(t))
	require.True(t, errors.As(err, &te))
	assert.True(t, errors.Is(err, ErrIncompatible))
}

func TestEmptyTrain(t *testing.T) {
	d := separable(t)
	var te *TrainingError
	_, err := NewDecisionTree().Fit(d.Subset(nil))
	require.True(t, errors.As(err, &te))
	assert.True(t, errors.Is(err, ErrEmptyTrain))
}

func TestMissingTargetsAreDropped(t *testing.T) {
	attrs := []data.Attribute{{Name: "x", Kind: data.Numeric}, {Name: "y", Kind: data.Numeric}}
	d, err := data.New("gaps", attrs, [][]float64{{0, 1}, {1, data.Missing}, {2, 5}}, 1)
	require.NoError(t, err)
	m, err := NewLinearRegression().Fit(d)
	require.NoError(t, err)
	pred, err := m.Predict(d)
	require.NoError(t, err)
	assert.InDelta(t, 3, pred[1], 1e-3)

	allMissing, err := data.New("gaps", attrs, [][]float64{{0, data.Missing}}, 1)
	require.NoError(t, err)
	_, err = NewLinearRegression().Fit(allMissing)
	assert.True(t, errors.Is(err, ErrEmptyTrain))
}

func TestGradientBoostingRejectsMultiClass(t *testing.T) {
	gb := NewGradientBoosting()
	gb.Task = data.Categorical
	var te *TrainingError
	_, err := gb.Fit(threeClasses(t))
	require.True(t, errors.As(err, &te))
	assert.True(t, errors.Is(err, ErrNotImplemented))
}

func TestSeededModelsAreDeterministic(t *testing.T) {
	d := separable(t)
	for _, a := range []Adapter{NewRandomForest(), NewBagging(), NewMLP()} {
		if a.Kind() == data.Numeric {
			d = linear(t)
		}
		m1, err := a.Fit(d)
		require.NoError(t, err)
		m2, err := a.Fit(d)
		require.NoError(t, err)
		p1, _ := m1.Predict(d)
		p2, _ := m2.Predict(d)
		assert.Equal(t, p1, p2, a.Name())
	}
}

func TestSaveLoad(t *testing.T) {
	for _, tc := range []struct {
		adapter Adapter
		data    *data.Dataset
	}{
		{NewDecisionTree(), separable(t)},
		{NewRandomForest(), separable(t)},
		{NewNaiveBayes(), separable(t)},
		{NewLogistic(), separable(t)},
		{NewLinearRegression(), linear(t)},
		{NewGradientBoosting(), linear(t)},
		{NewMLP(), linear(t)},
	} {
		t.Run(tc.adapter.Name(), func(t *testing.T) {
			m, err := tc.adapter.Fit(tc.data)
			require.NoError(t, err)
			var buf bytes.Buffer
			require.NoError(t, Save(&buf, m))
			loaded, err := Load(&buf)
			require.NoError(t, err)
			want, err := m.Predict(tc.data)
			require.NoError(t, err)
			got, err := loaded.Predict(tc.data)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestTrainingErrorIsNotWrappedTwice(t *testing.T) {
	inner := &TrainingError{Model: "A", Err: ErrEmptyTrain}
	err := NewTrainingError("B", inner)
	assert.Same(t, inner, err)
	assert.Equal(t, `modelo "A" falhou: conjunto de treino vazio`, err.Error())
}
