package main

import (
	"os"

	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"comparador/internal/data"
	"comparador/pkg/utils"
)

var generateCommand = &cobra.Command{
	Use:   "generate",
	Short: "Gera datasets sintéticos de despesas de viagem.",
	Long: "Gera datasets sintéticos de despesas de viagem: expenses (alvo categórico fraud)\n" +
		"para classificação e costs (alvo numérico amount) para regressão.",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		if err := utils.SetLoggerFromFlags(flags); err != nil {
			return err
		}
		logger := utils.Logger()
		defer logger.Sync()

		kind, _ := flags.GetString("kind")
		n, _ := flags.GetInt("n")
		seed, _ := flags.GetInt64("seed")
		out, _ := flags.GetString("out")

		var ds *data.Dataset
		var err error
		switch kind {
		case "expenses":
			rate, _ := flags.GetFloat64("fraud-rate")
			ds, err = data.GenerateExpenses(n, rate, seed)
		case "costs":
			noise, _ := flags.GetFloat64("noise")
			ds, err = data.GenerateCosts(n, noise, seed)
		default:
			return errors.NotValidf("tipo de dataset %q", kind)
		}
		if err != nil {
			return err
		}
		if out == "" || out == "-" {
			return data.WriteCSV(os.Stdout, ds)
		}
		logger.Info("Gerando dataset sintético", zap.String("kind", kind), zap.Int("n", n), zap.String("out", out))
		return data.WriteCSVFile(out, ds)
	},
}

func init() {
	flags := generateCommand.Flags()
	utils.AddLogFlags(flags)
	flags.StringP("kind", "k", "expenses", "tipo de dataset: expenses|costs")
	flags.IntP("n", "n", 1000, "número de registros")
	flags.Int64("seed", 1, "semente do gerador")
	flags.Float64("fraud-rate", 0.08, "taxa base de fraude (expenses)")
	flags.Float64("noise", 25, "desvio padrão do ruído (costs)")
	flags.StringP("out", "o", "", "CSV de saída (padrão: stdout)")
}

func main() {
	if err := generateCommand.Execute(); err != nil {
		os.Exit(1)
	}
}
