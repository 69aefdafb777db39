package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vzahanych/novacast/internal/config"
	"github.com/vzahanych/novacast/internal/ui"
	"go.uber.org/zap"
)

func searchCmd() *cobra.Command {
	var (
		date    string
		refresh bool
		planner bool
	)

	cmd := &cobra.Command{
		Use:   "search <city>",
		Short: "Show the forecast of a city for a date",
		Example: `  novacast search Paris
  novacast search "New York" --date 2027-03-14 --planner`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.GetConfig()

			terminal := ui.NewTerminal(os.Stdout, planner)
			deps, err := newClientDeps(ctx, cfg, terminal)
			if err != nil {
				return err
			}
			defer deps.Close()

			// The stored preference applies unless --planner was given.
			if !cmd.Flags().Changed("planner") {
				stored, err := deps.preferences.PlannerMode(ctx)
				if err != nil {
					log.Warn("Failed to read planner preference", zap.Error(err))
				}
				terminal.SetPlanner(stored)
			}

			city := strings.Join(args, " ")
			if _, err := deps.orchestrator.Search(ctx, city, date, refresh); err != nil {
				// Already reported by the terminal presenter.
				cmd.SilenceErrors = true
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "forecast date as YYYY-MM-DD (default: today)")
	cmd.Flags().BoolVarP(&refresh, "refresh", "r", false, "bypass the forecast cache")
	cmd.Flags().BoolVarP(&planner, "planner", "p", false, "show planner warnings")

	return cmd
}
