// Package report renders comparison reports as text tables, JSON, YAML or a
// PNG bar chart.
package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"comparador/internal/compare"
	"comparador/internal/metrics"
)

type TextOptions struct {
	// Color enables ANSI colors.
	Color bool
	// Details adds per-class figures and confusion matrices.
	Details bool
	// Language formats numbers. Brazilian Portuguese when unset.
	Language language.Tag
}

type textWriter struct {
	w      io.Writer
	p      *message.Printer
	opts   TextOptions
	title  *color.Color
	good   *color.Color
	failed *color.Color
	err    error
}

func (t *textWriter) printf(format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = t.p.Fprintf(t.w, format, args...)
}

func (t *textWriter) paint(c *color.Color, s string) string {
	if !t.opts.Color {
		return s
	}
	return c.Sprint(s)
}

func (t *textWriter) num(v float64, digits int) string {
	return t.p.Sprintf("%.*f", digits, v)
}

// WriteText writes a summary table of r followed, when requested, by the
// details of every model.
func WriteText(w io.Writer, r *compare.Report, opts TextOptions) error {
	lang := opts.Language
	if lang == language.Und {
		lang = language.BrazilianPortuguese
	}
	t := &textWriter{
		w:      w,
		p:      message.NewPrinter(lang),
		opts:   opts,
		title:  color.New(color.FgCyan, color.Bold),
		good:   color.New(color.FgGreen),
		failed: color.New(color.FgRed),
	}
	mode := "modelos"
	switch r.Mode {
	case compare.Classification:
		mode = "classificadores"
	case compare.Regression:
		mode = "regressores"
	}
	t.printf("%s\n", t.paint(t.title, fmt.Sprintf("=== Comparação de %s: %s ===", mode, r.Dataset)))
	t.printf("Linhas: %d  Estratégia: %s  Partições: %d  Semente: %d\n\n", r.Rows, r.Strategy, r.Folds, r.Seed)
	if t.err != nil {
		return errors.Trace(t.err)
	}

	t.summary(r)
	if best, ok := r.Best(); ok {
		t.printf("\n%s Melhor modelo: %s (%s)\n", t.paint(t.good, "★"), best.Name, t.describe(best))
	}
	if opts.Details {
		for _, e := range r.Entries {
			t.details(e)
		}
	}
	return errors.Trace(t.err)
}

func (t *textWriter) describe(e compare.Entry) string {
	if e.Result.Regression != nil {
		return "RMSE " + t.num(e.Result.Regression.RMSE, 4)
	}
	return "acurácia " + t.num(e.Result.Classification.Accuracy, 2) + "%"
}

func (t *textWriter) summary(r *compare.Report) {
	if t.err != nil {
		return
	}
	table := tablewriter.NewWriter(t.w)
	table.SetAutoFormatHeaders(false)
	regression := isRegression(r)
	if regression {
		table.SetHeader([]string{"Modelo", "RMSE", "MAE", "R²", "Correlação", "Tempo"})
	} else {
		table.SetHeader([]string{"Modelo", "Acurácia (%)", "Kappa", "F1 ponderado", "Tempo"})
	}
	for _, e := range r.Entries {
		if e.Failed() {
			row := []string{e.Name, t.paint(t.failed, "falhou"), "-", "-", "-"}
			if regression {
				row = append(row, "-")
			}
			table.Append(row)
			continue
		}
		elapsed := e.Duration.Round(time.Millisecond).String()
		if m := e.Result.Regression; m != nil {
			table.Append([]string{e.Name, t.num(m.RMSE, 4), t.num(m.MAE, 4), t.num(m.R2, 4), t.num(m.Correlation, 4), elapsed})
			continue
		}
		m := e.Result.Classification
		table.Append([]string{e.Name, t.num(m.Accuracy, 2), t.num(m.Kappa, 4), t.num(m.Weighted.F1, 4), elapsed})
	}
	table.Render()
}

func isRegression(r *compare.Report) bool {
	if r.Mode != "" {
		return r.Mode == compare.Regression
	}
	for _, e := range r.Entries {
		if e.Result != nil {
			return e.Result.Regression != nil
		}
	}
	return false
}

func (t *textWriter) details(e compare.Entry) {
	t.printf("\n%s\n", t.paint(t.title, "=== "+e.Name+" ==="))
	if e.Failed() {
		t.printf("%s %s\n", t.paint(t.failed, "FALHOU:"), e.Error)
		return
	}
	if m := e.Result.Regression; m != nil {
		t.regression(m)
		return
	}
	t.classification(e.Result.Classification)
}

func (t *textWriter) regression(m *metrics.Regression) {
	t.printf("Coeficiente de correlação        %s\n", t.num(m.Correlation, 4))
	t.printf("Erro absoluto médio              %s\n", t.num(m.MAE, 4))
	t.printf("Raiz do erro quadrático médio    %s\n", t.num(m.RMSE, 4))
	t.printf("Erro absoluto relativo           %s %%\n", t.num(m.RAE, 4))
	t.printf("Raiz do erro quadrático relativo %s %%\n", t.num(m.RRSE, 4))
	t.printf("R²                               %s\n", t.num(m.R2, 4))
	t.printf("Total de instâncias              %d\n", m.N)
}

func (t *textWriter) classification(m *metrics.Classification) {
	t.printf("Instâncias corretas    %d  %s %%\n", m.Correct, t.num(m.Accuracy, 4))
	t.printf("Instâncias incorretas  %d  %s %%\n", m.Incorrect, t.num(100-m.Accuracy, 4))
	t.printf("Estatística Kappa      %s\n", t.num(m.Kappa, 4))
	t.printf("Total de instâncias    %d\n\n", m.Total)
	if t.err != nil {
		return
	}

	table := tablewriter.NewWriter(t.w)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Classe", "Taxa VP", "Taxa FP", "Precisão", "Revocação", "F1", "Suporte"})
	for _, s := range append(m.PerClass, m.Weighted) {
		name := s.Class
		if name == "weighted" {
			name = "média ponderada"
		}
		table.Append([]string{name, t.num(s.TPRate, 3), t.num(s.FPRate, 3), t.num(s.Precision, 3),
			t.num(s.Recall, 3), t.num(s.F1, 3), strconv.Itoa(s.Support)})
	}
	table.Render()

	t.printf("\nMatriz de confusão (linhas: real, colunas: previsto)\n")
	if t.err != nil {
		return
	}
	cm := tablewriter.NewWriter(t.w)
	cm.SetAutoFormatHeaders(false)
	cm.SetHeader(append([]string{""}, m.Classes...))
	for a, row := range m.Confusion {
		line := []string{m.Classes[a]}
		for _, n := range row {
			line = append(line, strconv.Itoa(n))
		}
		cm.Append(line)
	}
	cm.Render()
}
