// Package main provides the jobplus command: a terminal client for the JobPlus
// backend and the server for its web front end.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	backendURL string
	username   string
	password   string
	deviceLat  float64
	deviceLon  float64
	jsonOutput bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "jobplus",
	Short: "JobPlus job search client",
	Long: "jobplus signs in to a JobPlus backend and lists nearby, favorite and recommended jobs, " +
		"or serves the JobPlus web page with `jobplus serve`.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to a JSON config file")
	flags.StringVar(&backendURL, "backend", "", "JobPlus backend base URL (overrides config)")
	flags.StringVarP(&username, "username", "u", "", "Username (default $JOBPLUS_USERNAME)")
	flags.StringVarP(&password, "password", "p", "", "Password (default $JOBPLUS_PASSWORD)")
	flags.Float64Var(&deviceLat, "lat", 0, "Device latitude; use with --lon")
	flags.Float64Var(&deviceLon, "lon", 0, "Device longitude; use with --lat")
	flags.BoolVar(&jsonOutput, "json", false, "Print results as JSON")
	flags.BoolVar(&verbose, "verbose", false, "Print configuration, session and list details")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
