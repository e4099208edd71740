// Package config provides configuration loading and validation for the JobPlus client.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Default values applied when neither the environment nor a config file sets a field.
const (
	DefaultBackendURL  = "http://localhost:8080/jobplus"
	DefaultIPLookupURL = "https://ipinfo.io"
	DefaultPort        = 8081
	DefaultTimeout     = 30 * time.Second
	DefaultLocationAge = 60 * time.Second
	DefaultSessionIdle = 2 * time.Hour
	DefaultLatitude    = 37.38
	DefaultLongitude   = -122.08
)

// Config represents the client configuration.
// Values come from JOBPLUS_* environment variables and may be overridden by a JSON file.
type Config struct {
	// Endpoints
	BackendURL  string `json:"backend_url,omitempty" env:"JOBPLUS_BACKEND_URL"`     // Base URL of the JobPlus backend
	IPLookupURL string `json:"ip_lookup_url,omitempty" env:"JOBPLUS_IP_LOOKUP_URL"` // Base URL of the IP geolocation service

	// Web front end
	Port        int      `json:"port,omitempty" env:"JOBPLUS_PORT"`                 // Port for `serve`
	SessionIdle Duration `json:"session_idle,omitempty" env:"JOBPLUS_SESSION_IDLE"` // Idle time before a browser session is dropped

	// Behavior
	Timeout     Duration `json:"timeout,omitempty" env:"JOBPLUS_TIMEOUT"`           // Per-request timeout
	LocationAge Duration `json:"location_age,omitempty" env:"JOBPLUS_LOCATION_AGE"` // Maximum age of a reusable device fix
	Verbose     bool     `json:"verbose,omitempty" env:"JOBPLUS_VERBOSE"`           // Print detailed output

	// Fallback location used until geolocation succeeds
	DefaultLatitude  float64 `json:"default_lat,omitempty" env:"JOBPLUS_DEFAULT_LAT"`
	DefaultLongitude float64 `json:"default_lon,omitempty" env:"JOBPLUS_DEFAULT_LON"`

	// Device position for the command line client (the browser reports its own)
	DeviceLatitude  *float64 `json:"device_lat,omitempty" env:"JOBPLUS_DEVICE_LAT"`
	DeviceLongitude *float64 `json:"device_lon,omitempty" env:"JOBPLUS_DEVICE_LON"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		BackendURL:       DefaultBackendURL,
		IPLookupURL:      DefaultIPLookupURL,
		Port:             DefaultPort,
		SessionIdle:      Duration(DefaultSessionIdle),
		Timeout:          Duration(DefaultTimeout),
		LocationAge:      Duration(DefaultLocationAge),
		DefaultLatitude:  DefaultLatitude,
		DefaultLongitude: DefaultLongitude,
	}
}

// FromEnv reads the configuration from environment variables.
// Unset variables leave the zero value so MergeWithDefaults can fill them.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return &cfg, nil
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Load builds the effective configuration: file values win over the environment,
// and anything still unset falls back to Defaults.
func Load(path string) (*Config, error) {
	fromEnv, err := FromEnv()
	if err != nil {
		return nil, err
	}

	cfg := fromEnv.MergeWithDefaults(Defaults())
	if path != "" {
		fromFile, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = fromFile.MergeWithDefaults(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if err := validateBaseURL("backend_url", c.BackendURL); err != nil {
		return err
	}
	if err := validateBaseURL("ip_lookup_url", c.IPLookupURL); err != nil {
		return err
	}

	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' out of range: %d", c.Port)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("config error: 'timeout' must be non-negative")
	}
	if c.LocationAge < 0 {
		return fmt.Errorf("config error: 'location_age' must be non-negative")
	}

	// Device position must be given as a pair
	if (c.DeviceLatitude == nil) != (c.DeviceLongitude == nil) {
		return fmt.Errorf("config error: 'device_lat' and 'device_lon' must be set together")
	}

	return nil
}

// HasDevicePosition reports whether a device position was configured.
func (c *Config) HasDevicePosition() bool {
	return c.DeviceLatitude != nil && c.DeviceLongitude != nil
}

// MergeWithDefaults returns a new Config with unset fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.BackendURL == "" {
		result.BackendURL = defaults.BackendURL
	}
	if result.IPLookupURL == "" {
		result.IPLookupURL = defaults.IPLookupURL
	}

	// Numeric fields: use default if zero
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.SessionIdle == 0 {
		result.SessionIdle = defaults.SessionIdle
	}
	if result.Timeout == 0 {
		result.Timeout = defaults.Timeout
	}
	if result.LocationAge == 0 {
		result.LocationAge = defaults.LocationAge
	}
	if result.DefaultLatitude == 0 && result.DefaultLongitude == 0 {
		result.DefaultLatitude = defaults.DefaultLatitude
		result.DefaultLongitude = defaults.DefaultLongitude
	}

	// Pointer fields
	if result.DeviceLatitude == nil && result.DeviceLongitude == nil {
		result.DeviceLatitude = defaults.DeviceLatitude
		result.DeviceLongitude = defaults.DeviceLongitude
	}

	// Bool fields: cannot distinguish unset from false, so true wins
	result.Verbose = result.Verbose || defaults.Verbose

	return result
}

func validateBaseURL(field, raw string) error {
	if raw == "" {
		return fmt.Errorf("config error: '%s' is required", field)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config error: '%s' is not an absolute URL: %s", field, raw)
	}
	return nil
}

// Duration is a time.Duration that reads as "90s"/"2h" from both JSON and the environment.
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText formats the duration as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}
