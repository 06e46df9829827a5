package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"comparador/internal/api"
	"comparador/internal/compare"
	"comparador/internal/config"
	"comparador/internal/jobs"
	"comparador/pkg/utils"
)

var apiCommand = &cobra.Command{
	Use:          "api",
	Short:        "Servidor HTTP de comparação de modelos.",
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
		// API_KEY is still honoured for existing deployments
		if cfg.Server.APIKey == "" {
			cfg.Server.APIKey = os.Getenv("API_KEY")
		}
		if debug, _ := flags.GetBool("debug"); !debug {
			gin.SetMode(gin.ReleaseMode)
		}

		opts := compare.Options{Split: cfg.Split, Workers: cfg.Workers, ContinueOnModelFailure: cfg.ContinueOnModelFailure}
		comparator := compare.New(opts, compare.DefaultRosters(cfg.Models, cfg.Seed), logger)
		manager := jobs.NewManager(cfg.Server.JobTTL, logger)
		defer manager.Close()

		srv := &http.Server{
			Addr:              ":" + cfg.Server.Port,
			Handler:           api.New(cfg, comparator, manager, logger).Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		go func() {
			<-ctx.Done()
			shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdown); err != nil {
				logger.Error("Falha ao encerrar servidor", zap.Error(err))
			}
		}()

		logger.Info("Servidor iniciado", zap.String("port", cfg.Server.Port), zap.Bool("api_key", cfg.Server.APIKey != ""))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		logger.Info("Servidor encerrado")
		return nil
	},
}

func init() {
	flags := apiCommand.Flags()
	utils.AddLogFlags(flags)
	flags.StringP("config", "c", "", "arquivo de configuração TOML")
	flags.String("port", "8080", "porta HTTP")
	flags.Int64("seed", 1, "semente padrão das comparações")
	flags.Int("workers", 1, "modelos avaliados em paralelo por comparação")
	flags.Bool("debug", false, "modo debug do gin")
}

func main() {
	if err := apiCommand.Execute(); err != nil {
		utils.Logger().Fatal("Falha ao executar", zap.Error(err))
	}
}
