// Package metrics scores pooled predictions. Undefined ratios (a zero
// denominator) are reported as 0 so results always serialize.
package metrics

import (
	"math"

	"github.com/juju/errors"
	"gonum.org/v1/gonum/stat"
)

// ClassStats holds one-vs-rest figures for a class. Rates are fractions in
// [0,1].
type ClassStats struct {
	Class     string  `json:"class" yaml:"class"`
	TPRate    float64 `json:"tp_rate" yaml:"tp_rate"`
	FPRate    float64 `json:"fp_rate" yaml:"fp_rate"`
	Precision float64 `json:"precision" yaml:"precision"`
	Recall    float64 `json:"recall" yaml:"recall"`
	F1        float64 `json:"f1" yaml:"f1"`
	Support   int     `json:"support" yaml:"support"`
}

type Classification struct {
	Classes []string `json:"classes" yaml:"classes"`
	// Confusion is indexed [actual][predicted].
	Confusion [][]int      `json:"confusion" yaml:"confusion"`
	Total     int          `json:"total" yaml:"total"`
	Correct   int          `json:"correct" yaml:"correct"`
	Incorrect int          `json:"incorrect" yaml:"incorrect"`
	Accuracy  float64      `json:"accuracy" yaml:"accuracy"`
	Kappa     float64      `json:"kappa" yaml:"kappa"`
	PerClass  []ClassStats `json:"per_class" yaml:"per_class"`
	Weighted  ClassStats   `json:"weighted" yaml:"weighted"`
}

type Regression struct {
	N           int     `json:"n" yaml:"n"`
	RMSE        float64 `json:"rmse" yaml:"rmse"`
	MAE         float64 `json:"mae" yaml:"mae"`
	R2          float64 `json:"r2" yaml:"r2"`
	Correlation float64 `json:"correlation" yaml:"correlation"`
	// RAE and RRSE are percentages relative to predicting the mean actual.
	RAE  float64 `json:"rae" yaml:"rae"`
	RRSE float64 `json:"rrse" yaml:"rrse"`
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func validIndex(v float64, n int) bool {
	return !math.IsNaN(v) && v == math.Trunc(v) && v >= 0 && int(v) < n
}

// Classify scores predicted class indices against actual ones. Accuracy is a
// percentage.
func Classify(classes []string, actual, predicted []float64) (*Classification, error) {
	if len(actual) != len(predicted) {
		return nil, errors.Errorf("%d valores reais para %d previsões", len(actual), len(predicted))
	}
	k := len(classes)
	if k == 0 {
		return nil, errors.New("nenhuma classe")
	}
	c := &Classification{Classes: classes, Confusion: make([][]int, k), Total: len(actual)}
	for i := range c.Confusion {
		c.Confusion[i] = make([]int, k)
	}
	for i := range actual {
		if !validIndex(actual[i], k) {
			return nil, errors.Errorf("classe real inválida %v na posição %d", actual[i], i)
		}
		if !validIndex(predicted[i], k) {
			return nil, errors.Errorf("classe prevista inválida %v na posição %d", predicted[i], i)
		}
		a, p := int(actual[i]), int(predicted[i])
		c.Confusion[a][p]++
		if a == p {
			c.Correct++
		}
	}
	c.Incorrect = c.Total - c.Correct
	c.Accuracy = 100 * ratio(float64(c.Correct), float64(c.Total))

	rowSum := make([]int, k)
	colSum := make([]int, k)
	for a := range c.Confusion {
		for p, n := range c.Confusion[a] {
			rowSum[a] += n
			colSum[p] += n
		}
	}
	total := float64(c.Total)

	expected := 0.0
	for j := 0; j < k; j++ {
		expected += ratio(float64(rowSum[j]), total) * ratio(float64(colSum[j]), total)
	}
	observed := ratio(float64(c.Correct), total)
	switch {
	case expected < 1:
		c.Kappa = (observed - expected) / (1 - expected)
	case observed == 1:
		c.Kappa = 1
	}

	c.PerClass = make([]ClassStats, k)
	c.Weighted.Class = "weighted"
	for j := 0; j < k; j++ {
		tp := float64(c.Confusion[j][j])
		fn := float64(rowSum[j]) - tp
		fp := float64(colSum[j]) - tp
		tn := total - tp - fn - fp
		s := ClassStats{
			Class:     classes[j],
			TPRate:    ratio(tp, tp+fn),
			FPRate:    ratio(fp, fp+tn),
			Precision: ratio(tp, tp+fp),
			Recall:    ratio(tp, tp+fn),
			Support:   rowSum[j],
		}
		s.F1 = ratio(2*s.Precision*s.Recall, s.Precision+s.Recall)
		c.PerClass[j] = s

		w := ratio(float64(rowSum[j]), total)
		c.Weighted.TPRate += w * s.TPRate
		c.Weighted.FPRate += w * s.FPRate
		c.Weighted.Precision += w * s.Precision
		c.Weighted.Recall += w * s.Recall
		c.Weighted.F1 += w * s.F1
		c.Weighted.Support += s.Support
	}
	return c, nil
}

// Regress scores numeric predictions.
func Regress(actual, predicted []float64) (*Regression, error) {
	if len(actual) != len(predicted) {
		return nil, errors.Errorf("%d valores reais para %d previsões", len(actual), len(predicted))
	}
	r := &Regression{N: len(actual)}
	if r.N == 0 {
		return r, nil
	}
	for i := range predicted {
		if math.IsNaN(actual[i]) || math.IsInf(actual[i], 0) {
			return nil, errors.Errorf("valor real não finito %v na posição %d", actual[i], i)
		}
		if math.IsNaN(predicted[i]) || math.IsInf(predicted[i], 0) {
			return nil, errors.Errorf("previsão não finita %v na posição %d", predicted[i], i)
		}
	}
	mean := stat.Mean(actual, nil)
	var sse, sae, sst, sat float64
	for i := range actual {
		d := predicted[i] - actual[i]
		sse += d * d
		sae += math.Abs(d)
		m := actual[i] - mean
		sst += m * m
		sat += math.Abs(m)
	}
	n := float64(r.N)
	r.RMSE = math.Sqrt(sse / n)
	r.MAE = sae / n
	if sst > 0 {
		r.R2 = 1 - sse/sst
	}
	r.RAE = 100 * ratio(sae, sat)
	r.RRSE = 100 * math.Sqrt(ratio(sse, sst))
	if r.N > 1 {
		if corr := stat.Correlation(actual, predicted, nil); !math.IsNaN(corr) {
			r.Correlation = corr
		}
	}
	return r, nil
}
