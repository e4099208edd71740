package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobplus/internal/app"
)

var favoriteFrom string

var favoriteCmd = &cobra.Command{
	Use:   "favorite <item-id>",
	Short: "Add or remove a job from your favorites",
	Long: "Loads the list named by --from and flips the favorite flag of the given item. " +
		"The item must be in that list.",
	Args: cobra.ExactArgs(1),
	RunE: runFavorite,
}

func init() {
	favoriteCmd.Flags().StringVar(&favoriteFrom, "from", "nearby", "List holding the item: nearby, favorites or recommend")
	rootCmd.AddCommand(favoriteCmd)
}

func runFavorite(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var load func(*cli)
	switch favoriteFrom {
	case "nearby":
	case "favorites":
		load = func(c *cli) { c.ctl.LoadFavorites(ctx, c.state) }
	case "recommend":
		load = func(c *cli) { c.ctl.LoadRecommended(ctx, c.state) }
	default:
		return fmt.Errorf("invalid --from %q: must be nearby, favorites or recommend", favoriteFrom)
	}

	c, err := newCLI(cmd)
	if err != nil {
		return err
	}
	if err := c.login(ctx); err != nil {
		return err
	}
	if load != nil {
		load(c)
	}

	item, err := c.ctl.ToggleFavorite(ctx, c.state, args[0])
	if c.cfg.Verbose && !errors.Is(err, app.ErrUnknownItem) {
		c.printer.PrintFavoriteChange(item, err)
	}
	if errors.Is(err, app.ErrUnknownItem) {
		return fmt.Errorf("item %s is not in the %s list", args[0], favoriteFrom)
	}
	if err != nil {
		return fmt.Errorf("failed to change favorite: %w", err)
	}

	if jsonOutput {
		return c.writeJSON(item)
	}
	if item.Favorite {
		c.term.Success(fmt.Sprintf("Added %s (%s) to favorites", item.Name, item.ItemID))
	} else {
		c.term.Success(fmt.Sprintf("Removed %s (%s) from favorites", item.Name, item.ItemID))
	}
	return nil
}
