package report

import (
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
	"github.com/juju/errors"

	"comparador/internal/compare"
)

type Format string

const (
	Text Format = "text"
	JSON Format = "json"
	YAML Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case Text, JSON, YAML:
		return f, nil
	}
	return "", errors.NotValidf("formato %q", s)
}

func WriteJSON(w io.Writer, r *compare.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Trace(enc.Encode(r))
}

func WriteYAML(w io.Writer, r *compare.Report) error {
	b, err := yaml.Marshal(r)
	if err != nil {
		return errors.Trace(err)
	}
	_, err = w.Write(b)
	return errors.Trace(err)
}

// Write renders r in format. Text output uses opts.
func Write(w io.Writer, r *compare.Report, format Format, opts TextOptions) error {
	switch format {
	case JSON:
		return WriteJSON(w, r)
	case YAML:
		return WriteYAML(w, r)
	case Text, "":
		return WriteText(w, r, opts)
	}
	return errors.NotValidf("formato %q", format)
}
