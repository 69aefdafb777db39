package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/vzahanych/novacast/internal/aggregator"
	"github.com/vzahanych/novacast/internal/config"
	"github.com/vzahanych/novacast/internal/metrics"
	"github.com/vzahanych/novacast/internal/server"
	"go.uber.org/zap"
)

func serverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Start the prediction backend",
		Long:  `Start the HTTP server that answers POST /api/predict by merging daily forecasts from the configured weather services, and serves the static frontend.`,
		RunE:  runServer,
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg := config.GetConfig()

	log.Info("Starting prediction backend",
		zap.String("config_path", configPath),
		zap.Bool("telemetry_enabled", tele.IsEnabled()),
		zap.Int("server_port", cfg.Server.Port))

	provider := metrics.New(cfg.Version)

	agg := aggregator.NewAggregator(&cfg.Weather, log.Logger, tele)
	agg.SetMetricsRecorder(provider)

	srv := server.NewServer(cfg, agg, provider, log.Logger, tele)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		log.Error("Server error", zap.Error(err))
		return err
	case <-cmd.Context().Done():
		log.Info("Shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Error during server shutdown", zap.Error(err))
			return err
		}

		log.Info("Server shutdown complete")
		return nil
	}
}
