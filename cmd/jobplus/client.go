package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobplus/internal/app"
	"github.com/jonathan/jobplus/internal/backend"
	"github.com/jonathan/jobplus/internal/config"
	"github.com/jonathan/jobplus/internal/geo"
	"github.com/jonathan/jobplus/internal/observability"
	"github.com/jonathan/jobplus/internal/rendering"
	"github.com/jonathan/jobplus/internal/session"
	"github.com/jonathan/jobplus/internal/types"
)

// cli wires one command invocation: a single session against the backend.
type cli struct {
	cfg      *config.Config
	out      io.Writer
	resolver *geo.Resolver
	ctl      *app.Controller
	state    *session.State
	term     *rendering.Terminal
	printer  *observability.Printer
}

// loadConfig merges the config file, the environment and the global flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if backendURL != "" {
		cfg.BackendURL = backendURL
	}

	flags := cmd.Flags()
	if flags.Changed("lat") != flags.Changed("lon") {
		return nil, fmt.Errorf("--lat and --lon must be given together")
	}
	if flags.Changed("lat") {
		if !(types.Coordinates{Latitude: deviceLat, Longitude: deviceLon}).Valid() {
			return nil, fmt.Errorf("--lat/--lon out of range: %v,%v", deviceLat, deviceLon)
		}
		lat, lon := deviceLat, deviceLon
		cfg.DeviceLatitude, cfg.DeviceLongitude = &lat, &lon
	}

	cfg.Verbose = cfg.Verbose || verbose
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newCLI(cmd *cobra.Command) (*cli, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	b, err := backend.New(cfg.BackendURL, time.Duration(cfg.Timeout))
	if err != nil {
		return nil, err
	}

	var device geo.DeviceLocator
	if cfg.HasDevicePosition() {
		position := types.Coordinates{Latitude: *cfg.DeviceLatitude, Longitude: *cfg.DeviceLongitude}
		device = geo.NewCachedDevice(&geo.StaticDevice{Position: &position}, time.Duration(cfg.LocationAge))
	}
	resolver := geo.NewResolver(device, geo.NewIPInfo(cfg.IPLookupURL, time.Duration(cfg.Timeout)))

	state := session.NewState("cli")
	state.Coordinates = types.Coordinates{Latitude: cfg.DefaultLatitude, Longitude: cfg.DefaultLongitude}

	c := &cli{
		cfg:      cfg,
		out:      cmd.OutOrStdout(),
		resolver: resolver,
		ctl:      app.New(b, resolver, app.Options{MaxAge: time.Duration(cfg.LocationAge)}),
		state:    state,
		term:     rendering.NewTerminal(cmd.OutOrStdout()),
		printer:  observability.NewPrinter(cmd.ErrOrStderr()),
	}
	if cfg.Verbose {
		c.printer.PrintConfig(cfg)
	}
	return c, nil
}

// spin shows a spinner on an interactive stdout.
func (c *cli) spin(message string) func() {
	if jsonOutput || c.out != os.Stdout {
		return func() {}
	}
	return c.term.Spin(message)
}

func credentials() types.LoginRequest {
	req := types.LoginRequest{Username: username, Password: password}
	if req.Username == "" {
		req.Username = os.Getenv("JOBPLUS_USERNAME")
	}
	if req.Password == "" {
		req.Password = os.Getenv("JOBPLUS_PASSWORD")
	}
	return req
}

// login signs in, which also locates the user and loads nearby jobs.
func (c *cli) login(ctx context.Context) error {
	req := credentials()
	if err := req.Validate(); err != nil {
		return fmt.Errorf("--username and --password are required")
	}

	stop := c.spin("Signing in...")
	c.ctl.Login(ctx, c.state, req, "")
	stop()

	if c.state.LoginError != "" {
		return errors.New(c.state.LoginError)
	}
	if c.cfg.Verbose {
		c.printer.PrintSession(c.state.Session)
	}
	return nil
}

type noticeOutput struct {
	Kind    session.NoticeKind `json:"kind"`
	Message string             `json:"message"`
}

type listOutput struct {
	UserID      string            `json:"user_id"`
	List        string            `json:"list"`
	Coordinates types.Coordinates `json:"coordinates"`
	Notice      *noticeOutput     `json:"notice,omitempty"`
	Items       []types.JobItem   `json:"items"`
}

func (c *cli) writeJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// report prints the current list. A failed load is returned as an error after printing.
func (c *cli) report(title string) error {
	st := c.state

	if jsonOutput {
		out := listOutput{
			UserID:      st.UserID(),
			List:        title,
			Coordinates: st.Coordinates,
			Items:       st.Items,
		}
		if out.Items == nil {
			out.Items = []types.JobItem{}
		}
		if st.Notice != nil {
			out.Notice = &noticeOutput{Kind: st.Notice.Kind, Message: st.Notice.Message}
		}
		if err := c.writeJSON(out); err != nil {
			return err
		}
	} else {
		if c.cfg.Verbose {
			c.printer.PrintItems(title, st.Items)
		}
		c.term.State(st)
	}

	if st.Notice != nil && st.Notice.Kind == session.NoticeError {
		return errors.New(st.Notice.Message)
	}
	return nil
}
