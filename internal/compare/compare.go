// Package compare evaluates a roster of models against one shared split of a
// dataset and collects their results in roster order.
package compare

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"comparador/internal/data"
	"comparador/internal/evaluation"
	"comparador/internal/models"
	"comparador/internal/split"
)

type Options struct {
	Split split.Options
	// Workers bounds how many models are evaluated at once.
	Workers int
	// ContinueOnModelFailure records a failed model and goes on. When false
	// the first failing model in roster order aborts the comparison.
	ContinueOnModelFailure bool
}

func DefaultOptions() Options {
	return Options{Split: split.DefaultOptions(), Workers: 1, ContinueOnModelFailure: true}
}

// Entry is one model's line in a report. A failed entry has Err set and no
// Result. Fitted is the model trained on the whole dataset.
type Entry struct {
	Name     string             `json:"name" yaml:"name"`
	Result   *evaluation.Result `json:"result,omitempty" yaml:"result,omitempty"`
	Error    string             `json:"error,omitempty" yaml:"error,omitempty"`
	Fitted   models.Fitted      `json:"-" yaml:"-"`
	Err      error              `json:"-" yaml:"-"`
	Duration time.Duration      `json:"-" yaml:"-"`
}

func (e Entry) Failed() bool { return e.Err != nil }

// Summary is accuracy in percent or RMSE, NaN for failed entries.
func (e Entry) Summary() float64 {
	if e.Result == nil {
		return math.NaN()
	}
	return e.Result.Summary()
}

type Report struct {
	Dataset  string         `json:"dataset" yaml:"dataset"`
	Mode     Mode           `json:"mode,omitempty" yaml:"mode,omitempty"`
	Seed     int64          `json:"seed" yaml:"seed"`
	Rows     int            `json:"rows" yaml:"rows"`
	Strategy split.Strategy `json:"strategy" yaml:"strategy"`
	Folds    int            `json:"folds" yaml:"folds"`
	Entries  []Entry        `json:"entries" yaml:"entries"`
}

// Err combines the errors of every failed entry.
func (r *Report) Err() error {
	return multierr.Combine(lo.Map(r.Entries, func(e Entry, _ int) error { return e.Err })...)
}

// Best returns the successful entry with the highest accuracy, or the lowest
// RMSE for regression. Ties go to the earlier entry.
func (r *Report) Best() (Entry, bool) {
	ok := lo.Filter(r.Entries, func(e Entry, _ int) bool { return !e.Failed() && e.Result != nil })
	if len(ok) == 0 {
		return Entry{}, false
	}
	return lo.Reduce(ok[1:], func(best Entry, e Entry, _ int) Entry {
		if e.Result.Regression != nil {
			if e.Summary() < best.Summary() {
				return e
			}
			return best
		}
		if e.Summary() > best.Summary() {
			return e
		}
		return best
	}, ok[0]), true
}

type Comparator struct {
	opts    Options
	rosters Rosters
	logger  *zap.Logger
	// OnEntry, when set, is called as each model finishes. It may be called
	// from several goroutines.
	OnEntry func(Entry)
}

func New(opts Options, rosters Rosters, logger *zap.Logger) *Comparator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Comparator{opts: opts, rosters: rosters, logger: logger}
}

// Roster returns the adapters run for mode.
func (c *Comparator) Roster(mode Mode) []models.Adapter {
	return c.rosters[mode]
}

// CompareMode runs the roster configured for mode.
func (c *Comparator) CompareMode(ctx context.Context, ds *data.Dataset, mode Mode, seed int64) (*Report, error) {
	roster, ok := c.rosters[mode]
	if !ok || len(roster) == 0 {
		return nil, errors.NotFoundf("roster do modo %q", mode)
	}
	if ds != nil && ds.TargetKind() != mode.Kind() {
		c.logger.Warn("Tipo do alvo não corresponde ao modo",
			zap.String("mode", string(mode)), zap.Stringer("target_kind", ds.TargetKind()))
	}
	r, err := c.Compare(ctx, ds, roster, seed)
	if err != nil {
		return nil, err
	}
	r.Mode = mode
	return r, nil
}

// Compare splits ds once and evaluates every adapter of roster against that
// split. Invalid datasets, unusable split options and a cancelled context
// abort with no report. Model failures are recorded in their entries unless
// ContinueOnModelFailure is false.
func (c *Comparator) Compare(ctx context.Context, ds *data.Dataset, roster []models.Adapter, seed int64) (*Report, error) {
	if ds == nil {
		return nil, errors.Trace(&data.InvalidDatasetError{Reason: "nenhum dataset"})
	}
	plan, err := split.Split(ds, seed, c.opts.Split)
	if err != nil {
		return nil, errors.Trace(err)
	}
	c.logger.Info("Comparação iniciada",
		zap.String("dataset", ds.Name()),
		zap.Int("rows", ds.Len()),
		zap.Int64("seed", seed),
		zap.String("strategy", string(plan.Strategy)),
		zap.Int("folds", len(plan.Folds)),
		zap.Int("models", len(roster)))

	entries := make([]Entry, len(roster))
	var firstFailed atomic.Int64
	firstFailed.Store(int64(len(roster)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Workers)
	for i, a := range roster {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// models after a known failure are skipped when failing fast
			if !c.opts.ContinueOnModelFailure && int64(i) > firstFailed.Load() {
				return nil
			}
			entry := c.run(a, plan)
			entries[i] = entry
			if entry.Failed() {
				for {
					cur := firstFailed.Load()
					if int64(i) >= cur || firstFailed.CompareAndSwap(cur, int64(i)) {
						break
					}
				}
			}
			if c.OnEntry != nil {
				c.OnEntry(entry)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Trace(err)
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Trace(err)
	}
	if i := firstFailed.Load(); !c.opts.ContinueOnModelFailure && i < int64(len(roster)) {
		c.logger.Error("Comparação abortada", zap.String("model", entries[i].Name), zap.Error(entries[i].Err))
		return nil, entries[i].Err
	}

	report := &Report{
		Dataset:  ds.Name(),
		Seed:     seed,
		Rows:     ds.Len(),
		Strategy: plan.Strategy,
		Folds:    len(plan.Folds),
		Entries:  entries,
	}
	if err := report.Err(); err != nil {
		c.logger.Warn("Comparação concluída com falhas", zap.Int("failed", len(multierr.Errors(err))))
	} else {
		c.logger.Info("Comparação concluída")
	}
	return report, nil
}

// run evaluates one adapter. Panics are reported as training errors.
func (c *Comparator) run(a models.Adapter, plan *split.Plan) (entry Entry) {
	name := a.Name()
	entry.Name = name
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			entry.Result, entry.Fitted = nil, nil
			entry.Err = &models.TrainingError{Model: name, Err: errors.Errorf("panic: %v", r)}
		}
		entry.Duration = time.Since(start)
		if entry.Err != nil {
			entry.Error = entry.Err.Error()
			c.logger.Warn("Falha ao avaliar modelo", zap.String("model", name), zap.Error(entry.Err),
				zap.Duration("duration", entry.Duration))
			return
		}
		c.logger.Info("Modelo avaliado", zap.String("model", name),
			zap.Float64("summary", entry.Summary()), zap.Duration("duration", entry.Duration))
	}()
	c.logger.Debug("Avaliando modelo", zap.String("model", name))
	res, fitted, err := evaluation.Evaluate(a, plan)
	if err != nil {
		entry.Err = err
		return entry
	}
	entry.Result, entry.Fitted = res, fitted
	return entry
}
