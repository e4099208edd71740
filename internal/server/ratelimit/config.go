package ratelimit

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern; a trailing "/" matches by prefix
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Whitelist       []string // client IPs never limited
	Blacklist       []string // client IPs always rejected
	EndpointConfigs []EndpointConfig
}

type envConfig struct {
	Enabled         bool          `env:"ENABLED" envDefault:"true"`
	DefaultLimit    int           `env:"DEFAULT_LIMIT" envDefault:"300"`
	DefaultWindow   time.Duration `env:"DEFAULT_WINDOW" envDefault:"1m"`
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"5m"`
	Whitelist       []string      `env:"WHITELIST" envSeparator:","`
	Blacklist       []string      `env:"BLACKLIST" envSeparator:","`
}

// EnvPrefix is prepended to every variable LoadConfig reads.
const EnvPrefix = "JOBPLUS_RATE_LIMIT_"

// LoadConfig loads rate limiting configuration from JOBPLUS_RATE_LIMIT_* variables.
func LoadConfig() (*Config, error) {
	var e envConfig
	if err := env.ParseWithOptions(&e, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse rate limit environment: %w", err)
	}
	return &Config{
		Enabled:         e.Enabled,
		DefaultLimit:    e.DefaultLimit,
		DefaultWindow:   e.DefaultWindow,
		CleanupInterval: e.CleanupInterval,
		Whitelist:       trimList(e.Whitelist),
		Blacklist:       trimList(e.Blacklist),
		EndpointConfigs: DefaultEndpointConfigs(),
	}, nil
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Credential endpoints
		{Path: "/ui/login", Method: "POST", Limit: 10, Window: time.Minute, Burst: 5},
		{Path: "/ui/register", Method: "POST", Limit: 5, Window: time.Minute, Burst: 2},

		// Favorite toggles
		{Path: "/ui/items/", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},

		// List reloads
		{Path: "/ui/nearby", Method: "GET", Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/ui/favorites", Method: "GET", Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/ui/recommend", Method: "GET", Limit: 60, Window: time.Minute, Burst: 10},
	}
}

func trimList(list []string) []string {
	out := list[:0]
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func toSet(list []string) map[string]bool {
	set := make(map[string]bool, len(list))
	for _, s := range list {
		set[s] = true
	}
	return set
}
