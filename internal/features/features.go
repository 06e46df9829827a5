package features

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"comparador/internal/data"
)

// Encoder maps the feature columns of a dataset to a dense numeric vector.
// Numeric columns pass through with missing values replaced by the training
// mean; categorical columns are one-hot encoded, a missing category encodes
// as all zeros. The encoder is learned from training rows only.
type Encoder struct {
	Columns []int
	Kinds   []data.Kind
	Widths  []int
	Fill    []float64
	Names   []string

	Standardize bool
	Mean        []float64
	Std         []float64
}

func NewEncoder(train *data.Dataset, standardize bool) *Encoder {
	e := &Encoder{Standardize: standardize}
	for _, j := range train.FeatureIndices() {
		a := train.Attribute(j)
		e.Columns = append(e.Columns, j)
		e.Kinds = append(e.Kinds, a.Kind)
		if a.Kind == data.Categorical {
			e.Widths = append(e.Widths, len(a.Values))
			e.Fill = append(e.Fill, 0)
			for _, v := range a.Values {
				e.Names = append(e.Names, a.Name+"_"+v)
			}
			continue
		}
		e.Widths = append(e.Widths, 1)
		e.Names = append(e.Names, a.Name)
		present := make([]float64, 0, train.Len())
		for i := 0; i < train.Len(); i++ {
			if v := train.Value(i, j); !data.IsMissing(v) {
				present = append(present, v)
			}
		}
		fill := 0.0
		if len(present) > 0 {
			fill = stat.Mean(present, nil)
		}
		e.Fill = append(e.Fill, fill)
	}
	if standardize {
		X := e.raw(train)
		dim := e.Dim()
		e.Mean = make([]float64, dim)
		e.Std = make([]float64, dim)
		col := make([]float64, len(X))
		for k := 0; k < dim; k++ {
			for i := range X {
				col[i] = X[i][k]
			}
			if len(col) > 1 {
				e.Mean[k], e.Std[k] = stat.MeanStdDev(col, nil)
			} else if len(col) == 1 {
				e.Mean[k] = col[0]
			}
			if e.Std[k] == 0 || math.IsNaN(e.Std[k]) {
				e.Std[k] = 1
			}
		}
	}
	return e
}

func (e *Encoder) Dim() int {
	n := 0
	for _, w := range e.Widths {
		n += w
	}
	return n
}

func (e *Encoder) Encode(row []float64) []float64 {
	vec := make([]float64, 0, e.Dim())
	for c, j := range e.Columns {
		v := row[j]
		if e.Kinds[c] == data.Categorical {
			for k := 0; k < e.Widths[c]; k++ {
				vec = append(vec, boolToFloat(!data.IsMissing(v) && int(v) == k))
			}
			continue
		}
		if data.IsMissing(v) {
			v = e.Fill[c]
		}
		vec = append(vec, v)
	}
	if e.Standardize {
		for k := range vec {
			vec[k] = (vec[k] - e.Mean[k]) / e.Std[k]
		}
	}
	return vec
}

// Transform encodes every row of d.
func (e *Encoder) Transform(d *data.Dataset) [][]float64 {
	X := make([][]float64, d.Len())
	for i := range X {
		X[i] = e.Encode(d.Row(i))
	}
	return X
}

func (e *Encoder) raw(d *data.Dataset) [][]float64 {
	std := e.Standardize
	e.Standardize = false
	defer func() { e.Standardize = std }()
	return e.Transform(d)
}

func boolToFloat(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}
