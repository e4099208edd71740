package main

import (
	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Check credentials against the backend",
	RunE:  runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, _ []string) error {
	c, err := newCLI(cmd)
	if err != nil {
		return err
	}
	if err := c.login(cmd.Context()); err != nil {
		return err
	}

	if jsonOutput {
		return c.writeJSON(c.state.Session)
	}
	c.term.Success(c.state.Welcome())
	return nil
}
