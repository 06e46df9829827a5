package report

import (
	"io"

	"github.com/juju/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"comparador/internal/compare"
)

// ChartSize is the size of rendered charts.
var ChartSize = struct{ Width, Height vg.Length }{8 * vg.Inch, 6 * vg.Inch}

// WriteChart draws one bar per successful model: accuracy for classification,
// RMSE for regression. format is an image format understood by gonum/plot,
// such as "png" or "svg".
func WriteChart(w io.Writer, r *compare.Report, format string) error {
	p, err := Chart(r)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(ChartSize.Width, ChartSize.Height, format)
	if err != nil {
		return errors.Annotatef(err, "formato %q", format)
	}
	_, err = wt.WriteTo(w)
	return errors.Trace(err)
}

// SaveChart writes the chart to path; the format follows the extension.
func SaveChart(path string, r *compare.Report) error {
	p, err := Chart(r)
	if err != nil {
		return err
	}
	return errors.Trace(p.Save(ChartSize.Width, ChartSize.Height, path))
}

func Chart(r *compare.Report) (*plot.Plot, error) {
	var names []string
	var values plotter.Values
	for _, e := range r.Entries {
		if e.Failed() || e.Result == nil {
			continue
		}
		names = append(names, e.Name)
		values = append(values, e.Summary())
	}
	if len(values) == 0 {
		return nil, errors.New("nenhum modelo avaliado com sucesso")
	}

	p := plot.New()
	if isRegression(r) {
		p.Title.Text = "Comparação de regressores (menor RMSE é melhor)"
		p.X.Label.Text = "Regressor"
		p.Y.Label.Text = "RMSE"
	} else {
		p.Title.Text = "Comparação de classificadores"
		p.X.Label.Text = "Classificador"
		p.Y.Label.Text = "Acurácia (%)"
		p.Y.Max = 100
	}
	p.Y.Min = 0

	bars, err := plotter.NewBarChart(values, vg.Points(40))
	if err != nil {
		return nil, errors.Trace(err)
	}
	bars.LineStyle.Width = vg.Length(0)
	bars.Color = plotutil.Color(0)
	p.Add(bars)
	p.NominalX(names...)
	return p, nil
}
