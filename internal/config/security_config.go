package config

import (
	"fmt"
	"time"
)

type SecurityConfig interface {
	GetSessionTTL() time.Duration
	GetCookieSecret() string
	GetCookieInsecure() bool
	GetSweepAt() (hour, minute int)
}

type Security struct {
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	CookieSecret   string        `env:"SESSION_COOKIE_SECRET"`
	CookieInsecure bool          `env:"SESSION_COOKIE_INSECURE" envDefault:"false"`
	SweepAt        string        `env:"SWEEP_AT" envDefault:"03:00"`
}

var _ SecurityConfig = Security{}

// GetSessionTTL matches the session cookie Max-Age (one day).
func (s Security) GetSessionTTL() time.Duration {
	if s.SessionTTL <= 0 {
		return 24 * time.Hour
	}
	return s.SessionTTL
}

// GetCookieSecret returns the secret used to sign session cookies; empty
// means the cookie carries the bare session id.
func (s Security) GetCookieSecret() string {
	return s.CookieSecret
}

// GetCookieInsecure drops the Secure flag, for plain http local development only.
func (s Security) GetCookieInsecure() bool {
	return s.CookieInsecure
}

func (s Security) GetSweepAt() (hour, minute int) {
	hour, minute, err := parseClock(s.SweepAt)
	if err != nil {
		return 3, 0
	}
	return hour, minute
}

func (s Security) validate() error {
	if _, _, err := parseClock(s.SweepAt); err != nil {
		return err
	}
	return nil
}

func parseClock(value string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, 0, fmt.Errorf("SWEEP_AT must be HH:MM, got %q", value)
	}
	return t.Hour(), t.Minute(), nil
}
