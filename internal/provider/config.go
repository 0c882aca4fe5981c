package provider

import (
	"errors"
	"time"
)

// Config holds configuration for the notification provider.
type Config struct {
	// Type identifies the provider: "courier" or "stdout".
	Type string `mapstructure:"type"`

	// APIKey is the authentication credential for the provider.
	APIKey string `mapstructure:"api_key"`

	// Endpoint overrides the default API URL (useful for testing).
	Endpoint string `mapstructure:"endpoint"`

	// Timeout is the maximum duration for API calls.
	Timeout time.Duration `mapstructure:"timeout"`
}

const defaultTimeout = 30 * time.Second

// Validate checks that required fields are set based on provider type.
func (c *Config) Validate() error {
	if c.Type == "" {
		return errors.New("provider type is required")
	}

	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}

	switch c.Type {
	case "courier":
		if c.APIKey == "" {
			return errors.New("courier: api_key is required")
		}
	case "stdout":
		// No configuration required.
	default:
		return errors.New("unknown provider type: " + c.Type)
	}

	return nil
}

// New creates a provider instance from the given config and HTTP client.
func New(cfg Config, client HTTPClient) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case "courier":
		return NewCourier(cfg, client), nil
	default:
		return NewStdout(cfg), nil
	}
}
