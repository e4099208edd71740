package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/jobplus/internal/geo"
	"github.com/jonathan/jobplus/internal/session"
	"github.com/jonathan/jobplus/internal/types"
)

var locateCmd = &cobra.Command{
	Use:   "locate",
	Short: "Show the position searches would use",
	Long:  "Resolves the position from --lat/--lon or the configured device position, else an IP lookup. No sign in is needed.",
	RunE:  runLocate,
}

func init() {
	rootCmd.AddCommand(locateCmd)
}

type locateOutput struct {
	Source      geo.Source        `json:"source"`
	Coordinates types.Coordinates `json:"coordinates"`
	Error       string            `json:"error,omitempty"`
}

func runLocate(cmd *cobra.Command, _ []string) error {
	c, err := newCLI(cmd)
	if err != nil {
		return err
	}

	stop := c.spin("Retrieving your location...")
	res := c.resolver.Resolve(cmd.Context(), c.state.Coordinates, "")
	stop()

	if jsonOutput {
		out := locateOutput{Source: res.Source, Coordinates: res.Coordinates}
		if res.Err != nil {
			out.Error = res.Err.Error()
		}
		return c.writeJSON(out)
	}

	if c.cfg.Verbose {
		c.printer.PrintLocation(res)
	}
	if res.Source == geo.SourcePrevious {
		c.term.Notice(session.Notice{
			Kind:    session.NoticeWarning,
			Message: "Location unavailable, using default " + res.Coordinates.String(),
		})
		return nil
	}
	c.term.Success(res.Coordinates.String() + " (from " + string(res.Source) + ")")
	return nil
}
