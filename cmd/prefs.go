package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vzahanych/novacast/internal/config"
	"github.com/vzahanych/novacast/internal/store"
)

func plannerCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "planner [on|off]",
		Short:     "Show or set planner mode",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, prefs, err := openPreferences(ctx, config.GetConfig())
			if err != nil {
				return err
			}
			defer s.Close()

			if len(args) == 1 {
				var on bool
				switch args[0] {
				case "on":
					on = true
				case "off":
				default:
					return fmt.Errorf("expected on or off, got %q", args[0])
				}
				if err := prefs.SetPlannerMode(ctx, on); err != nil {
					return err
				}
			}

			on, err := prefs.PlannerMode(ctx)
			if err != nil {
				return err
			}
			state := "off"
			if on {
				state = "on"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Planner mode: %s\n", state)
			return nil
		},
	}
}

func themeCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "theme [light|dark]",
		Short:     "Show or set the frontend theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(store.ThemeLight), string(store.ThemeDark)},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, prefs, err := openPreferences(ctx, config.GetConfig())
			if err != nil {
				return err
			}
			defer s.Close()

			if len(args) == 1 {
				if err := prefs.SetTheme(ctx, store.Theme(args[0])); err != nil {
					return err
				}
			}

			theme, err := prefs.Theme(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Theme: %s\n", theme)
			return nil
		},
	}
}
