package models

import (
	"fmt"

	"github.com/juju/errors"

	"comparador/internal/data"
)

//go:generate mockgen -source=model.go -destination=mock/model.go -package=mock

// Adapter wraps a modeling algorithm. Adapters only carry configuration:
// every Fit returns a new Fitted, so one adapter can serve many folds.
type Adapter interface {
	Name() string
	Kind() data.Kind
	Fit(train *data.Dataset) (Fitted, error)
}

// Fitted predicts one value per row, in row order. Categorical predictions
// are indices into the target's class list.
type Fitted interface {
	Predict(rows *data.Dataset) ([]float64, error)
}

var (
	ErrEmptyTrain     = errors.New("conjunto de treino vazio")
	ErrIncompatible   = errors.New("tipo do alvo incompatível com o modelo")
	ErrNotImplemented = errors.New("configuração não suportada")
)

// TrainingError reports that one model failed to fit or predict.
type TrainingError struct {
	Model string
	Err   error
}

func (e *TrainingError) Error() string {
	return fmt.Sprintf("modelo %q falhou: %v", e.Model, e.Err)
}

func (e *TrainingError) Unwrap() error { return e.Err }

// NewTrainingError attributes err to model. Errors that already are a
// TrainingError are returned unchanged.
func NewTrainingError(model string, err error) error {
	if err == nil {
		return nil
	}
	var te *TrainingError
	if errors.As(err, &te) {
		return err
	}
	return &TrainingError{Model: model, Err: err}
}

// prepare validates train for adapter a and drops rows whose target is
// missing.
func prepare(a Adapter, train *data.Dataset) (*data.Dataset, error) {
	if train == nil || train.Len() == 0 {
		return nil, NewTrainingError(a.Name(), ErrEmptyTrain)
	}
	if train.TargetKind() != a.Kind() {
		return nil, NewTrainingError(a.Name(), errors.Annotatef(ErrIncompatible,
			"alvo %q é %s, modelo espera %s", train.Target().Name, train.TargetKind(), a.Kind()))
	}
	keep := make([]int, 0, train.Len())
	for i := 0; i < train.Len(); i++ {
		if !data.IsMissing(train.TargetValue(i)) {
			keep = append(keep, i)
		}
	}
	if len(keep) == 0 {
		return nil, NewTrainingError(a.Name(), ErrEmptyTrain)
	}
	if len(keep) == train.Len() {
		return train, nil
	}
	return train.Subset(keep), nil
}

func argmax(xs []float64) int {
	best := 0
	for i := 1; i < len(xs); i++ {
		if xs[i] > xs[best] {
			best = i
		}
	}
	return best
}

func boolToFloat(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}
