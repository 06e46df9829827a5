package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/juju/errors"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"comparador/internal/compare"
	"comparador/internal/config"
	"comparador/internal/data"
	"comparador/internal/models"
	"comparador/internal/report"
	"comparador/pkg/utils"
)

var compareCommand = &cobra.Command{
	Use:          "compare",
	Short:        "Compara classificadores ou regressores sobre um dataset CSV.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		if err := utils.SetLoggerFromFlags(flags); err != nil {
			return err
		}
		logger := utils.Logger()
		defer logger.Sync()

		configPath, _ := flags.GetString("config")
		cfg, err := config.Load(configPath, flags)
		if err != nil {
			return err
		}
		mode, err := compare.ParseMode(cfg.Mode)
		if err != nil {
			return err
		}
		format, _ := flags.GetString("format")
		outFormat, err := report.ParseFormat(format)
		if err != nil {
			return err
		}

		dataPath, _ := flags.GetString("data")
		target, _ := flags.GetString("target")
		nominal, _ := flags.GetStringSlice("nominal")
		logger.Info("Carregando dataset", zap.String("path", dataPath))
		ds, err := data.ReadCSVFile(dataPath, data.CSVOptions{Target: target, Nominal: nominal})
		if err != nil {
			return errors.Annotatef(err, "dataset %s", dataPath)
		}

		opts := compare.Options{Split: cfg.Split, Workers: cfg.Workers, ContinueOnModelFailure: cfg.ContinueOnModelFailure}
		comparator := compare.New(opts, compare.DefaultRosters(cfg.Models, cfg.Seed), logger)

		tty := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
		if quiet, _ := flags.GetBool("quiet"); tty && !quiet {
			bar := progressbar.NewOptions(len(comparator.Roster(mode)),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionSetDescription("avaliando"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish())
			comparator.OnEntry = func(e compare.Entry) {
				bar.Describe(e.Name)
				_ = bar.Add(1)
			}
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		r, err := comparator.CompareMode(ctx, ds, mode, cfg.Seed)
		if err != nil {
			return err
		}

		details, _ := flags.GetBool("details")
		noColor, _ := flags.GetBool("no-color")
		useColor := !noColor && (isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()))
		color.NoColor = !useColor
		if err := report.Write(os.Stdout, r, outFormat, report.TextOptions{Color: useColor, Details: details}); err != nil {
			return err
		}

		if chart, _ := flags.GetString("chart"); chart != "" {
			if err := report.SaveChart(chart, r); err != nil {
				logger.Error("Falha ao gerar gráfico", zap.String("path", chart), zap.Error(err))
			} else {
				logger.Info("Gráfico salvo", zap.String("path", chart))
			}
		}
		if dir, _ := flags.GetString("save-models"); dir != "" {
			if err := saveModels(dir, r); err != nil {
				return err
			}
			logger.Info("Modelos salvos", zap.String("dir", dir))
		}
		if dump, _ := flags.GetString("dump-config"); dump != "" {
			if err := dumpConfig(dump, cfg); err != nil {
				return err
			}
		}
		return nil
	},
}

func saveModels(dir string, r *compare.Report) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Trace(err)
	}
	for _, e := range r.Entries {
		if e.Fitted == nil {
			continue
		}
		path := filepath.Join(dir, strings.ToLower(e.Name)+".gob")
		f, err := os.Create(path)
		if err != nil {
			return errors.Trace(err)
		}
		if err := models.Save(f, e.Fitted); err != nil {
			f.Close()
			return errors.Annotatef(err, "salvar %s", e.Name)
		}
		if err := f.Close(); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

func dumpConfig(path string, cfg *config.Config) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Trace(err)
	}
	if err := cfg.Encode(f); err != nil {
		f.Close()
		return err
	}
	return errors.Trace(f.Close())
}

func init() {
	flags := compareCommand.Flags()
	utils.AddLogFlags(flags)
	flags.StringP("data", "d", "", "CSV de entrada")
	flags.StringP("config", "c", "", "arquivo de configuração TOML")
	flags.StringP("mode", "m", "classification", "modo: classification|regression")
	flags.Int64("seed", 1, "semente da divisão e dos modelos aleatórios")
	flags.String("target", "", "coluna alvo (padrão: última coluna)")
	flags.StringSlice("nominal", nil, "colunas lidas como categóricas")
	flags.Int("workers", 1, "modelos avaliados em paralelo")
	flags.Int("folds", 10, "partições da validação cruzada")
	flags.Bool("strict", false, "leave-one-out avalia só a linha retirada")
	flags.Bool("fail-fast", false, "aborta na primeira falha de modelo")
	flags.StringP("format", "f", "text", "formato do relatório: text|json|yaml")
	flags.Bool("details", false, "detalhes por classe e matriz de confusão")
	flags.Bool("no-color", false, "desativa cores")
	flags.BoolP("quiet", "q", false, "sem barra de progresso")
	flags.String("chart", "", "salva gráfico de barras (png, svg, pdf)")
	flags.String("save-models", "", "diretório para os modelos treinados (gob)")
	flags.String("dump-config", "", "grava a configuração efetiva em TOML")
	_ = compareCommand.MarkFlagRequired("data")
}

func main() {
	if err := compareCommand.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
