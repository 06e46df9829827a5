package models

import (
	"encoding/gob"
	"io"

	"github.com/juju/errors"
)

func init() {
	gob.Register(&TreeModel{})
	gob.Register(&EnsembleModel{})
	gob.Register(&BoostedModel{})
	gob.Register(&BayesModel{})
	gob.Register(&SoftmaxModel{})
	gob.Register(&LinearModel{})
	gob.Register(&PerceptronModel{})
}

// Save writes a fitted model with gob. Load reads it back.
func Save(w io.Writer, m Fitted) error {
	if m == nil {
		return errors.New("modelo nulo")
	}
	if err := gob.NewEncoder(w).Encode(&m); err != nil {
		return errors.Annotate(err, "serializar modelo")
	}
	return nil
}

func Load(r io.Reader) (Fitted, error) {
	var m Fitted
	if err := gob.NewDecoder(r).Decode(&m); err != nil {
		return nil, errors.Annotate(err, "carregar modelo")
	}
	return m, nil
}
