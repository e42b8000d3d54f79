package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/gubbhockey/clubhouse/internal/errors"
)

type Config interface {
	EnvConfig
	OAuthConfig
	SecurityConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetDatabaseDriver() string
	GetDatabaseURL() string
	GetRedisURL() string
}

type mainConfig struct {
	EnvVars
	OAuth
	Security
}

// Load parses and validates the process environment. Every required
// variable is checked here so a misconfigured process fails at startup
// instead of on the first login.
func Load() (Config, error) {
	var c mainConfig
	if err := env.Parse(&c); err != nil {
		return nil, errors.Join(errors.ErrConfiguration, err)
	}
	if err := c.validate(); err != nil {
		return nil, errors.Join(errors.ErrConfiguration, err)
	}
	return c, nil
}

func (c mainConfig) validate() error {
	if err := c.EnvVars.validate(); err != nil {
		return err
	}
	if err := c.OAuth.validate(); err != nil {
		return err
	}
	return c.Security.validate()
}
