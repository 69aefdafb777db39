package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/vzahanych/novacast/internal/config"
	"github.com/vzahanych/novacast/internal/ui"
	"github.com/vzahanych/novacast/internal/watch"
	"go.uber.org/zap"
)

func watchCmd() *cobra.Command {
	var (
		every       time.Duration
		date        string
		metricsAddr string
		force       bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Periodically refresh the forecast of every favorite city",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.GetConfig()

			terminal := ui.NewTerminal(os.Stdout, false)
			deps, err := newClientDeps(ctx, cfg, terminal)
			if err != nil {
				return err
			}
			defer deps.Close()

			if on, err := deps.preferences.PlannerMode(ctx); err == nil {
				terminal.SetPlanner(on)
			}

			if metricsAddr != "" {
				srv := &http.Server{
					Addr:              metricsAddr,
					Handler:           deps.metrics.Handler(),
					ReadHeaderTimeout: 10 * time.Second,
				}
				go func() {
					log.Info("Serving client metrics", zap.String("addr", metricsAddr))
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						log.Error("Metrics server failed", zap.Error(err))
					}
				}()
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					stopServer(shutdownCtx, srv, log.Logger)
				}()
			}

			w := watch.New(deps.orchestrator, deps.preferences, every, date, force, log.Logger)
			if err := w.Start(ctx); err != nil {
				return err
			}
			defer w.Stop()

			<-ctx.Done()
			log.Info("Stopping favorites watch")
			return nil
		},
	}

	cmd.Flags().DurationVarP(&every, "every", "e", 30*time.Minute, "refresh interval")
	cmd.Flags().StringVarP(&date, "date", "d", "", "forecast date as YYYY-MM-DD (default: today)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "refetch every favorite even when its cached forecast is fresh")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9091")

	return cmd
}

func stopServer(ctx context.Context, srv *http.Server, logger *zap.Logger) {
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("Failed to shut down metrics server", zap.String("addr", srv.Addr), zap.Error(err))
	}
}
