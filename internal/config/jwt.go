package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"

	"github.com/caarlos0/env/v11"
)

// SessionConfig holds configuration for signing the browser session cookie.
type SessionConfig struct {
	Secret        string `env:"SESSION_SECRET"`
	LifetimeHours int    `env:"SESSION_TTL_HOURS" envDefault:"12"`
	Secure        bool   `env:"SESSION_COOKIE_SECURE"`
}

// NewSessionConfig creates a new session configuration from environment variables.
// It reads SESSION_SECRET, SESSION_TTL_HOURS (default: 12) and SESSION_COOKIE_SECURE.
// Without a secret a random one is generated, which invalidates cookies on restart.
func NewSessionConfig() (*SessionConfig, error) {
	config, err := env.ParseAs[SessionConfig]()
	if err != nil {
		return nil, fmt.Errorf("invalid session config: %w", err)
	}

	if config.Secret == "" {
		generated, err := randomSecret()
		if err != nil {
			return nil, err
		}
		log.Printf("[config] SESSION_SECRET not set, using a per-process secret")
		config.Secret = generated
	}

	if err := config.normalize(); err != nil {
		return nil, err
	}

	return &config, nil
}

// normalize validates the configuration.
func (c *SessionConfig) normalize() error {
	if len(c.Secret) < 16 {
		return fmt.Errorf("SESSION_SECRET must be at least 16 bytes, got: %d", len(c.Secret))
	}
	if c.LifetimeHours < 1 {
		return fmt.Errorf("SESSION_TTL_HOURS must be at least 1 hour, got: %d", c.LifetimeHours)
	}
	return nil
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
