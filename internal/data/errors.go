package data

import "fmt"

// InvalidDatasetError reports malformed or empty input. It is fatal to a
// whole comparison.
type InvalidDatasetError struct {
	Reason string
}

func (e *InvalidDatasetError) Error() string {
	return fmt.Sprintf("dataset inválido: %s", e.Reason)
}

func invalidf(format string, args ...any) error {
	return &InvalidDatasetError{Reason: fmt.Sprintf(format, args...)}
}
