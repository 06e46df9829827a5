package data

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/juju/errors"
	"github.com/samber/lo"
)

type CSVOptions struct {
	// Target names the target column; the last column when empty.
	Target string
	// Nominal forces columns to be read as categorical even when every value
	// parses as a number.
	Nominal []string
	// MissingTokens are read as missing cells. Defaults to "?" and "".
	MissingTokens []string
}

func ReadCSVFile(path string, opts CSVOptions) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer f.Close()
	return ReadCSV(f, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), opts)
}

// ReadCSV reads a header row followed by data rows. Column kinds are inferred:
// a column is numeric when every present value parses as a float. Categorical
// domains keep the order of first appearance.
func ReadCSV(r io.Reader, name string, opts CSVOptions) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Annotate(err, "falha ao ler CSV")
	}
	if len(records) == 0 {
		return nil, invalidf("CSV sem cabeçalho")
	}
	header := records[0]
	rows := records[1:]
	missing := opts.MissingTokens
	if len(missing) == 0 {
		missing = []string{"?", ""}
	}
	isMissing := func(s string) bool { return lo.Contains(missing, strings.TrimSpace(s)) }

	names := lo.Map(header, func(h string, _ int) string { return strings.TrimSpace(h) })
	target := len(header) - 1
	if opts.Target != "" {
		target = lo.IndexOf(names, strings.TrimSpace(opts.Target))
		if target < 0 {
			return nil, invalidf("coluna alvo %q não encontrada", opts.Target)
		}
	}

	attrs := make([]Attribute, len(header))
	for j, h := range names {
		attrs[j] = Attribute{Name: h, Kind: Numeric}
		if lo.Contains(opts.Nominal, attrs[j].Name) {
			attrs[j].Kind = Categorical
			continue
		}
		for _, row := range rows {
			if j >= len(row) || isMissing(row[j]) {
				continue
			}
			if _, err := strconv.ParseFloat(strings.TrimSpace(row[j]), 64); err != nil {
				attrs[j].Kind = Categorical
				break
			}
		}
	}

	cells := make([][]float64, len(rows))
	for i, row := range rows {
		if len(row) != len(header) {
			return nil, invalidf("linha %d tem %d colunas, esperado %d", i+1, len(row), len(header))
		}
		cells[i] = make([]float64, len(header))
		for j, raw := range row {
			s := strings.TrimSpace(raw)
			switch {
			case isMissing(s):
				cells[i][j] = Missing
			case attrs[j].Kind == Numeric:
				v, _ := strconv.ParseFloat(s, 64)
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return nil, invalidf("valor não finito %q na linha %d, coluna %q", s, i+1, attrs[j].Name)
				}
				cells[i][j] = v
			default:
				k := attrs[j].IndexOf(s)
				if k < 0 {
					attrs[j].Values = append(attrs[j].Values, s)
					k = len(attrs[j].Values) - 1
				}
				cells[i][j] = float64(k)
			}
		}
	}
	return New(name, attrs, cells, target)
}

func WriteCSV(w io.Writer, d *Dataset) error {
	cw := csv.NewWriter(w)
	header := lo.Map(d.Attributes(), func(a Attribute, _ int) string { return a.Name })
	if err := cw.Write(header); err != nil {
		return errors.Trace(err)
	}
	for i := 0; i < d.Len(); i++ {
		rec := make([]string, d.ColumnCount())
		for j := range rec {
			rec[j] = d.Label(i, j)
		}
		if err := cw.Write(rec); err != nil {
			return errors.Trace(err)
		}
	}
	cw.Flush()
	return errors.Trace(cw.Error())
}
