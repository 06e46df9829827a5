// Package split builds reproducible train/test plans over a dataset.
//
// Datasets with fewer than SmallThreshold rows get a single shuffled holdout
// cut, falling back to leave-one-out when either side of the cut would be
// empty. Larger datasets get k-fold cross-validation, stratified by class for
// categorical targets.
package split

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/juju/errors"

	"comparador/internal/data"
)

type Strategy string

const (
	Holdout     Strategy = "holdout"
	KFold       Strategy = "kfold"
	LeaveOneOut Strategy = "leave-one-out"
)

// Fold holds row indices into the planned dataset. Train and Test are sorted.
type Fold struct {
	Train []int `json:"train" yaml:"train"`
	Test  []int `json:"test" yaml:"test"`
}

type Plan struct {
	Strategy Strategy `json:"strategy" yaml:"strategy"`
	Seed     int64    `json:"seed" yaml:"seed"`
	Folds    []Fold   `json:"folds" yaml:"folds"`

	dataset *data.Dataset
}

func (p *Plan) Dataset() *data.Dataset { return p.dataset }

func (p *Plan) TrainSet(fold int) *data.Dataset { return p.dataset.Subset(p.Folds[fold].Train) }

func (p *Plan) TestSet(fold int) *data.Dataset { return p.dataset.Subset(p.Folds[fold].Test) }

// TestRows counts the rows evaluated over all folds. Rows are counted again
// for every fold that tests them.
func (p *Plan) TestRows() int {
	n := 0
	for _, f := range p.Folds {
		n += len(f.Test)
	}
	return n
}

type Options struct {
	// Folds is the fold count for cross-validation, capped at the row count.
	Folds int `mapstructure:"folds" toml:"folds" validate:"gte=2"`
	// SmallThreshold is the row count below which a holdout cut is used.
	SmallThreshold int `mapstructure:"small_threshold" toml:"small_threshold" validate:"gte=1"`
	// TrainRatio is the share of rows given to training in a holdout cut.
	TrainRatio float64 `mapstructure:"train_ratio" toml:"train_ratio" validate:"gt=0,lt=1"`
	// Stratify deals folds class by class when the target is categorical.
	Stratify bool `mapstructure:"stratify" toml:"stratify"`
	// StrictLeaveOneOut tests each leave-one-out fold on its held-out row
	// only. When false every fold is tested on the whole dataset.
	StrictLeaveOneOut bool `mapstructure:"strict_leave_one_out" toml:"strict_leave_one_out"`
}

func DefaultOptions() Options {
	return Options{Folds: 10, SmallThreshold: 10, TrainRatio: 0.8, Stratify: true}
}

// SplitError reports unusable split options.
type SplitError struct {
	Reason string
}

func (e *SplitError) Error() string {
	return fmt.Sprintf("divisão inválida: %s", e.Reason)
}

func (o Options) check() error {
	switch {
	case o.Folds < 2:
		return &SplitError{Reason: fmt.Sprintf("número de partições %d menor que 2", o.Folds)}
	case o.SmallThreshold < 1:
		return &SplitError{Reason: fmt.Sprintf("limite de dataset pequeno %d menor que 1", o.SmallThreshold)}
	case !(o.TrainRatio > 0 && o.TrainRatio < 1):
		return &SplitError{Reason: fmt.Sprintf("proporção de treino %v fora de (0,1)", o.TrainRatio)}
	}
	return nil
}

// Split plans the evaluation of ds. The same dataset, seed and options always
// yield the same plan.
func Split(ds *data.Dataset, seed int64, opts Options) (*Plan, error) {
	if err := ds.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	if err := opts.check(); err != nil {
		return nil, errors.Trace(err)
	}
	rng := rand.New(rand.NewSource(seed))
	n := ds.Len()
	plan := &Plan{Seed: seed, dataset: ds}
	if n < opts.SmallThreshold {
		perm := rng.Perm(n)
		cut := round(float64(n) * opts.TrainRatio)
		if cut == 0 || cut == n {
			plan.Strategy = LeaveOneOut
			plan.Folds = leaveOneOut(n, opts.StrictLeaveOneOut)
			return plan, nil
		}
		plan.Strategy = Holdout
		plan.Folds = []Fold{{Train: sorted(perm[:cut]), Test: sorted(perm[cut:])}}
		return plan, nil
	}
	k := opts.Folds
	if k > n {
		k = n
	}
	plan.Strategy = KFold
	if opts.Stratify && ds.TargetKind() == data.Categorical {
		plan.Folds = folds(n, deal(stratified(ds, rng.Perm(n)), k))
	} else {
		plan.Folds = folds(n, chunk(rng.Perm(n), k))
	}
	return plan, nil
}

// round rounds half up.
func round(x float64) int {
	return int(math.Floor(x + 0.5))
}

func leaveOneOut(n int, strict bool) []Fold {
	out := make([]Fold, n)
	for i := range out {
		train := make([]int, 0, n-1)
		for j := 0; j < n; j++ {
			if j != i {
				train = append(train, j)
			}
		}
		out[i].Train = train
		if strict {
			out[i].Test = []int{i}
		} else {
			out[i].Test = allRows(n)
		}
	}
	return out
}

// stratified reorders perm so rows of the same class are adjacent, keeping
// the shuffled order within each class. Rows with a missing target go last.
func stratified(ds *data.Dataset, perm []int) []int {
	buckets := make([][]int, ds.NumClasses()+1)
	for _, i := range perm {
		v := ds.TargetValue(i)
		b := len(buckets) - 1
		if !data.IsMissing(v) {
			b = int(v)
		}
		buckets[b] = append(buckets[b], i)
	}
	out := make([]int, 0, len(perm))
	for _, b := range buckets {
		out = append(out, b...)
	}
	return out
}

// deal assigns rows to k test sets round-robin.
func deal(order []int, k int) [][]int {
	tests := make([][]int, k)
	for j, i := range order {
		tests[j%k] = append(tests[j%k], i)
	}
	return tests
}

// chunk cuts order into k contiguous test sets whose sizes differ by at most
// one.
func chunk(order []int, k int) [][]int {
	tests := make([][]int, k)
	size := len(order) / k
	begin, end := 0, 0
	for i := 0; i < k; i++ {
		end += size
		if i < len(order)%k {
			end++
		}
		tests[i] = order[begin:end]
		begin = end
	}
	return tests
}

func folds(n int, tests [][]int) []Fold {
	out := make([]Fold, len(tests))
	inTest := make([]bool, n)
	for f, test := range tests {
		for i := range inTest {
			inTest[i] = false
		}
		for _, i := range test {
			inTest[i] = true
		}
		train := make([]int, 0, n-len(test))
		for i := 0; i < n; i++ {
			if !inTest[i] {
				train = append(train, i)
			}
		}
		out[f] = Fold{Train: train, Test: sorted(test)}
	}
	return out
}

func sorted(idx []int) []int {
	out := make([]int, len(idx))
	copy(out, idx)
	sort.Ints(out)
	return out
}

func allRows(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
