package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobplus/internal/app"
	"github.com/jonathan/jobplus/internal/types"
)

var (
	firstName string
	lastName  string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account",
	Long:  "Registers --username with --password and the given name. Usernames use lowercase letters, digits and underscores.",
	RunE:  runRegister,
}

func init() {
	registerCmd.Flags().StringVar(&firstName, "first", "", "First name")
	registerCmd.Flags().StringVar(&lastName, "last", "", "Last name")
	rootCmd.AddCommand(registerCmd)
}

func runRegister(cmd *cobra.Command, _ []string) error {
	c, err := newCLI(cmd)
	if err != nil {
		return err
	}

	creds := credentials()
	req := types.RegisterRequest{
		Username:  creds.Username,
		Password:  creds.Password,
		FirstName: firstName,
		LastName:  lastName,
	}

	stop := c.spin("Registering...")
	c.ctl.Register(cmd.Context(), c.state, req)
	stop()

	result := c.state.RegisterResult
	if jsonOutput {
		if err := c.writeJSON(map[string]any{
			"registered": result == app.MsgRegistered,
			"message":    result,
		}); err != nil {
			return err
		}
	} else if result == app.MsgRegistered {
		c.term.Success(result)
	}

	if result != app.MsgRegistered {
		return errors.New(result)
	}
	return nil
}
