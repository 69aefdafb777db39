package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vzahanych/novacast/internal/config"
	"github.com/vzahanych/novacast/pkg/logger"
	"github.com/vzahanych/novacast/pkg/telemetry"
	"go.uber.org/zap"
)

var (
	configPath string
	debug      bool
	log        = logger.NewNop()
	tele       *telemetry.Telemetry
)

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "novacast",
		Short:        "Long-range weather forecasts for any city",
		Long:         `NovaCast looks up daily forecasts up to 540 days ahead. It runs the prediction backend (server) and a command-line client with caching, favorites and periodic refresh.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initializeServices(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			shutdownServices()
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to configuration file (default: ./config.yaml)")
	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "human-readable debug logging, overrides the logging config")

	cmd.AddCommand(serverCmd())
	cmd.AddCommand(searchCmd())
	cmd.AddCommand(shellCmd())
	cmd.AddCommand(favoritesCmd())
	cmd.AddCommand(plannerCmd())
	cmd.AddCommand(themeCmd())
	cmd.AddCommand(watchCmd())

	return cmd
}

func Execute() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info("Received shutdown signal", zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()

	return rootCmd().ExecuteContext(ctx)
}

func initializeServices(ctx context.Context) error {
	// 1. Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Set config
	// Having config in atomic allows changing it during runtime
	config.SetConfig(cfg)

	// 3. Initialize logger
	if debug {
		log = logger.NewDevelopment()
	} else {
		l, err := logger.New(cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		log = l
	}

	// 4. Tracing is optional; a failed exporter leaves a no-op tracer.
	tele, err = telemetry.New(ctx, cfg.Telemetry, cfg.Version)
	if err != nil {
		log.Warn("Failed to initialize telemetry", zap.Error(err))
	}

	return nil
}

func shutdownServices() {
	if tele != nil {
		if err := tele.Shutdown(context.Background()); err != nil {
			log.Warn("Failed to shut down telemetry", zap.Error(err))
		}
	}
	_ = log.Sync()
}
