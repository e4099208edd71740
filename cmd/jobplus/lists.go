package main

import (
	"context"

	"github.com/spf13/cobra"
)

var nearbyCmd = &cobra.Command{
	Use:   "nearby",
	Short: "List jobs near your position",
	Long:  "Signs in, resolves your position (--lat/--lon, else an IP lookup) and lists nearby jobs.",
	RunE:  listRunner("nearby jobs", nil),
}

var favoritesCmd = &cobra.Command{
	Use:   "favorites",
	Short: "List your favorite jobs",
	RunE: listRunner("favorites", func(ctx context.Context, c *cli) {
		c.ctl.LoadFavorites(ctx, c.state)
	}),
}

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "List jobs recommended from your favorites",
	RunE: listRunner("recommended jobs", func(ctx context.Context, c *cli) {
		c.ctl.LoadRecommended(ctx, c.state)
	}),
}

func init() {
	rootCmd.AddCommand(nearbyCmd, favoritesCmd, recommendCmd)
}

// listRunner signs in and prints one list. Signing in loads nearby jobs, so
// load is nil for that list.
func listRunner(title string, load func(ctx context.Context, c *cli)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		c, err := newCLI(cmd)
		if err != nil {
			return err
		}
		if err := c.login(cmd.Context()); err != nil {
			return err
		}

		if load != nil {
			stop := c.spin("Loading " + title + "...")
			load(cmd.Context(), c)
			stop()
		}
		return c.report(title)
	}
}
