package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vzahanych/novacast/internal/client"
	"github.com/vzahanych/novacast/internal/config"
	"github.com/vzahanych/novacast/internal/ui"
)

func favoritesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"fav"},
		Short:   "Manage favorite cities",
		RunE:    listFavorites,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List favorite cities",
		Args:  cobra.NoArgs,
		RunE:  listFavorites,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "add <city>",
		Short: "Add a city to favorites",
		Args:  cobra.MinimumNArgs(1),
		RunE:  addFavorite,
	})
	cmd.AddCommand(&cobra.Command{
		Use:     "remove <city>",
		Aliases: []string{"rm"},
		Short:   "Remove a city from favorites",
		Args:    cobra.MinimumNArgs(1),
		RunE:    removeFavorite,
	})

	return cmd
}

func listFavorites(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, prefs, err := openPreferences(ctx, config.GetConfig())
	if err != nil {
		return err
	}
	defer s.Close()

	favorites, err := prefs.Favorites(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(favorites) == 0 {
		fmt.Fprintln(out, "No favorites yet")
		return nil
	}
	for _, city := range favorites {
		fmt.Fprintln(out, city)
	}
	return nil
}

func addFavorite(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, prefs, err := openPreferences(ctx, config.GetConfig())
	if err != nil {
		return err
	}
	defer s.Close()

	city := strings.TrimSpace(strings.Join(args, " "))
	if city == "" {
		return errors.New("city name is empty")
	}

	added, err := prefs.AddFavorite(ctx, city)
	if err != nil {
		return err
	}

	term := ui.NewTerminal(os.Stdout, false)
	if added {
		term.Notify(fmt.Sprintf("%s added to favorites!", city), client.SeveritySuccess)
	} else {
		term.Notify(fmt.Sprintf("%s already in favorites", city), client.SeverityInfo)
	}
	return nil
}

func removeFavorite(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, prefs, err := openPreferences(ctx, config.GetConfig())
	if err != nil {
		return err
	}
	defer s.Close()

	city := strings.TrimSpace(strings.Join(args, " "))
	if err := prefs.RemoveFavorite(ctx, city); err != nil {
		return err
	}

	ui.NewTerminal(os.Stdout, false).Notify(fmt.Sprintf("%s removed from favorites", city), client.SeverityInfo)
	return nil
}
