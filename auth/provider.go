package auth

import (
	"context"
	"fmt"
	"net/url"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gubbhockey/clubhouse/internal/config"
	"github.com/gubbhockey/clubhouse/internal/errors"
	"github.com/gubbhockey/clubhouse/players"
	"golang.org/x/oauth2"
)

// Provider is the upstream OAuth2 authorization server.
type Provider interface {
	// AuthCodeURL returns the authorization URL carrying state and the S256
	// challenge derived from verifier.
	AuthCodeURL(state, verifier string) string
	// Exchange trades an authorization code and its PKCE verifier for a token.
	Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error)
	// UserInfo fetches the profile of the token's owner.
	UserInfo(ctx context.Context, token *oauth2.Token) (players.Profile, error)
}

var _ Provider = (*OIDCProvider)(nil)

// OIDCProvider talks to an authorization server whose endpoints are
// configured explicitly rather than discovered.
type OIDCProvider struct {
	oauth2Config *oauth2.Config
	oidcProvider *oidc.Provider
}

func NewOIDCProvider(ctx context.Context, c config.OAuthConfig) (*OIDCProvider, error) {
	issuer, err := issuerFromURL(c.GetAuthURL())
	if err != nil {
		return nil, errors.Wrapf(errors.Join(errors.ErrConfiguration, err), "[NewOIDCProvider]")
	}

	providerConfig := oidc.ProviderConfig{
		IssuerURL:   issuer,
		AuthURL:     c.GetAuthURL(),
		TokenURL:    c.GetTokenURL(),
		UserInfoURL: c.GetUserInfoURL(),
	}
	provider := providerConfig.NewProvider(ctx)

	return &OIDCProvider{
		oidcProvider: provider,
		oauth2Config: &oauth2.Config{
			ClientID:     c.GetClientID(),
			ClientSecret: c.GetClientSecret(),
			Endpoint:     provider.Endpoint(),
			RedirectURL:  c.GetRedirectURL(),
			Scopes:       c.GetScopes(),
		},
	}, nil
}

func issuerFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid authorization URL %q", raw)
	}
	return u.Scheme + "://" + u.Host, nil
}

func (p *OIDCProvider) AuthCodeURL(state, verifier string) string {
	return p.oauth2Config.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

func (p *OIDCProvider) Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	token, err := p.oauth2Config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, errors.Wrapf(errors.Join(errors.ErrUpstream, err), "[OIDCProvider Exchange]")
	}
	return token, nil
}

func (p *OIDCProvider) UserInfo(ctx context.Context, token *oauth2.Token) (players.Profile, error) {
	info, err := p.oidcProvider.UserInfo(ctx, oauth2.StaticTokenSource(token))
	if err != nil {
		return players.Profile{}, errors.Wrapf(errors.Join(errors.ErrUpstream, err), "[OIDCProvider UserInfo]")
	}

	var profile players.Profile
	if err := info.Claims(&profile); err != nil {
		return players.Profile{}, errors.Wrapf(errors.Join(errors.ErrUpstream, err), "[OIDCProvider UserInfo] decode claims")
	}
	return profile, nil
}
