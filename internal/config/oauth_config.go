package config

import (
	"fmt"
	"net/url"
	"time"
)

type OAuthConfig interface {
	GetClientID() string
	GetClientSecret() string
	GetAuthURL() string
	GetTokenURL() string
	GetUserInfoURL() string
	GetRedirectURL() string
	GetLogoutURL() string
	GetScopes() []string
	GetPKCETimeout() time.Duration
}

type OAuth struct {
	ClientID     string        `env:"OAUTH_CLIENT_ID,required,notEmpty"`
	ClientSecret string        `env:"OAUTH_CLIENT_SECRET,required,notEmpty"`
	AuthURL      string        `env:"OAUTH_AUTH_URL,required,notEmpty"`
	TokenURL     string        `env:"OAUTH_TOKEN_URL,required,notEmpty"`
	UserInfoURL  string        `env:"OAUTH_USERINFO_URL,required,notEmpty"`
	RedirectURL  string        `env:"OAUTH_REDIRECT_URL,required,notEmpty"`
	LogoutURL    string        `env:"OAUTH_LOGOUT_URL,required,notEmpty"`
	Scopes       []string      `env:"OAUTH_SCOPES" envSeparator:"," envDefault:"openid,profile,email"`
	PKCETimeout  time.Duration `env:"OAUTH_PKCE_TTL" envDefault:"15m"`
}

var _ OAuthConfig = OAuth{}

func (o OAuth) GetClientID() string     { return o.ClientID }
func (o OAuth) GetClientSecret() string { return o.ClientSecret }
func (o OAuth) GetAuthURL() string      { return o.AuthURL }
func (o OAuth) GetTokenURL() string     { return o.TokenURL }
func (o OAuth) GetUserInfoURL() string  { return o.UserInfoURL }
func (o OAuth) GetRedirectURL() string  { return o.RedirectURL }
func (o OAuth) GetLogoutURL() string    { return o.LogoutURL }

func (o OAuth) GetScopes() []string {
	if len(o.Scopes) == 0 {
		return []string{"openid", "profile", "email"}
	}
	return o.Scopes
}

// GetPKCETimeout is how long a pending login (csrf token + verifier) stays usable.
func (o OAuth) GetPKCETimeout() time.Duration {
	if o.PKCETimeout <= 0 {
		return 15 * time.Minute
	}
	return o.PKCETimeout
}

func (o OAuth) validate() error {
	for name, raw := range map[string]string{
		"OAUTH_AUTH_URL":     o.AuthURL,
		"OAUTH_TOKEN_URL":    o.TokenURL,
		"OAUTH_USERINFO_URL": o.UserInfoURL,
		"OAUTH_REDIRECT_URL": o.RedirectURL,
		"OAUTH_LOGOUT_URL":   o.LogoutURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", name, raw)
		}
	}
	return nil
}
