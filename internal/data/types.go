package data

import (
	"fmt"
	"math"
	"strconv"
)

type Kind int

const (
	Numeric Kind = iota
	Categorical
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	default:
		return "unknown"
	}
}

// Attribute describes one column. Values is the categorical domain; a
// categorical cell stores the index of its value in Values.
type Attribute struct {
	Name   string   `json:"name"`
	Kind   Kind     `json:"kind"`
	Values []string `json:"values,omitempty"`
}

func (a Attribute) IndexOf(value string) int {
	for i, v := range a.Values {
		if v == value {
			return i
		}
	}
	return -1
}

// Missing marks an absent cell.
var Missing = math.NaN()

func IsMissing(v float64) bool { return math.IsNaN(v) }

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "numeric":
		*k = Numeric
	case "categorical":
		*k = Categorical
	default:
		return fmt.Errorf("tipo de atributo desconhecido: %q", text)
	}
	return nil
}

// Format renders v as it would appear in a source file.
func (a Attribute) Format(v float64) string {
	if IsMissing(v) {
		return "?"
	}
	if a.Kind == Categorical {
		return a.Values[int(v)]
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
