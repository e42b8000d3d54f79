package config

import (
	"fmt"
	"os"
	"strings"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type EnvVars struct {
	Port           string `env:"PORT" envDefault:"8080"`
	AppName        string `env:"APP_NAME" envDefault:"Gubbhockey"`
	Env            string `env:"ENV" envDefault:"DEV"`
	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"postgres"`
	DatabaseURL    string `env:"DATABASE_URL,required,notEmpty"`
	RedisURL       string `env:"REDIS_URL"`
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := e.Port
	if port == "" {
		port = "8080"
	}
	if port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	if e.Env == "" {
		return "DEV"
	}
	return e.Env
}

func (e EnvVars) GetDatabaseDriver() string {
	return strings.ToLower(e.DatabaseDriver)
}

func (e EnvVars) GetDatabaseURL() string {
	return e.DatabaseURL
}

// GetRedisURL returns the optional Redis URL. When set, pending PKCE
// entries are kept in Redis instead of the SQL database.
func (e EnvVars) GetRedisURL() string {
	return e.RedisURL
}

func (e EnvVars) validate() error {
	switch e.GetDatabaseDriver() {
	case DriverPostgres, DriverSQLite:
		return nil
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", e.DatabaseDriver)
	}
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
