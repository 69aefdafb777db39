package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/vzahanych/novacast/internal/client"
	"github.com/vzahanych/novacast/internal/config"
	"github.com/vzahanych/novacast/internal/forecast"
	"github.com/vzahanych/novacast/internal/ui"
	"go.uber.org/zap"
)

const shellPrompt = "novacast> "

type searcher interface {
	Search(ctx context.Context, city, date string, forceRefresh bool) (client.Result, error)
}

func shellCmd() *cobra.Command {
	var planner bool

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Look up forecasts interactively with a shared cache",
		Long: `Reads one "city [YYYY-MM-DD]" query per line. All queries share one forecast
cache, so repeating a city within its freshness window does not touch the
network. Prefix a line with "!" to force a refresh; "exit" or EOF quits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			terminal := ui.NewTerminal(cmd.OutOrStdout(), planner)
			deps, err := newClientDeps(ctx, config.GetConfig(), terminal)
			if err != nil {
				return err
			}
			defer deps.Close()

			if !cmd.Flags().Changed("planner") {
				stored, err := deps.preferences.PlannerMode(ctx)
				if err != nil {
					log.Warn("Failed to read planner preference", zap.Error(err))
				}
				terminal.SetPlanner(stored)
			}

			return runShell(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), deps.orchestrator)
		},
	}

	cmd.Flags().BoolVarP(&planner, "planner", "p", false, "show planner warnings")

	return cmd
}

// runShell feeds queries from in to s until EOF, "exit" or ctx is done.
// Search failures are already reported by the presenter and do not stop
// the loop.
func runShell(ctx context.Context, in io.Reader, out io.Writer, s searcher) error {
	scanner := bufio.NewScanner(in)
	lines := make(chan string)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Fprint(out, shellPrompt)

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				return scanner.Err()
			}
			line = strings.TrimSpace(l)
		}

		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		force := strings.HasPrefix(line, "!")
		city, date := parseQuery(strings.TrimPrefix(line, "!"))

		if _, err := s.Search(ctx, city, date, force); err != nil && !errors.Is(err, client.ErrSuperseded) {
			log.Debug("Shell query failed", zap.String("city", city), zap.Error(err))
		}
	}
}

// parseQuery splits "New York 2027-03-14" into city and date. Without a
// trailing date the date is empty, meaning today.
func parseQuery(line string) (city, date string) {
	fields := strings.Fields(line)
	if n := len(fields); n > 1 {
		if _, err := time.Parse(forecast.DateLayout, fields[n-1]); err == nil {
			return strings.Join(fields[:n-1], " "), fields[n-1]
		}
	}
	return strings.Join(fields, " "), ""
}
