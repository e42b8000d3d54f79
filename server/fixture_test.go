package server_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gubbhockey/clubhouse/auth"
	"github.com/gubbhockey/clubhouse/internal/config"
	"github.com/gubbhockey/clubhouse/internal/errors"
	"github.com/gubbhockey/clubhouse/pkce"
	"github.com/gubbhockey/clubhouse/players"
	fakeplayerrepo "github.com/gubbhockey/clubhouse/players/repofake"
	"github.com/gubbhockey/clubhouse/server"
	"github.com/gubbhockey/clubhouse/sessions"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

var baseTime = time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC)

const (
	playerCode = "code-player"
	adminCode  = "code-admin"
	logoutURL  = "https://idp.example.com/v2/logout"
)

type fakeProvider struct {
	mu          sync.Mutex
	profiles    map[string]players.Profile
	userInfoErr error
}

func (p *fakeProvider) AuthCodeURL(state, verifier string) string {
	return "https://idp.example.com/authorize?" + url.Values{
		"state":                 {state},
		"code_challenge":        {oauth2.S256ChallengeFromVerifier(verifier)},
		"code_challenge_method": {"S256"},
	}.Encode()
}

func (p *fakeProvider) Exchange(_ context.Context, code, _ string) (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: code, TokenType: "Bearer"}, nil
}

func (p *fakeProvider) UserInfo(_ context.Context, token *oauth2.Token) (players.Profile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.userInfoErr != nil {
		return players.Profile{}, p.userInfoErr
	}
	profile, ok := p.profiles[token.AccessToken]
	if !ok {
		return players.Profile{}, errors.Wrapf(errors.ErrUpstream, "unknown code %s", token.AccessToken)
	}
	return profile, nil
}

// brokenSessions fails every lookup the way an unreachable database would.
type brokenSessions struct {
	sessions.Repo
}

func (brokenSessions) GetPlayer(context.Context, uuid.UUID, time.Time) (*players.Player, error) {
	return nil, errors.ErrPersistence
}

// undeletableSessions serves lookups but fails every delete.
type undeletableSessions struct {
	sessions.Repo
}

func (undeletableSessions) Delete(context.Context, uuid.UUID) error {
	return errors.ErrPersistence
}

type serverFixture struct {
	now      time.Time
	provider *fakeProvider
	players  *fakeplayerrepo.FakePlayerRepo
	sessions sessions.Repo
	service  *auth.Service
	server   *server.Server
	healthy  error
}

func testConfig(t *testing.T) config.Config {
	t.Helper()

	t.Setenv("ENV", "TEST")
	t.Setenv("APP_NAME", "Gubbhockey")
	t.Setenv("OAUTH_CLIENT_ID", "club")
	t.Setenv("OAUTH_CLIENT_SECRET", "secret")
	t.Setenv("OAUTH_AUTH_URL", "https://idp.example.com/authorize")
	t.Setenv("OAUTH_TOKEN_URL", "https://idp.example.com/oauth/token")
	t.Setenv("OAUTH_USERINFO_URL", "https://idp.example.com/userinfo")
	t.Setenv("OAUTH_REDIRECT_URL", "https://club.example.com/auth")
	t.Setenv("OAUTH_LOGOUT_URL", logoutURL)
	t.Setenv("DATABASE_URL", "file::memory:")
	t.Setenv("DATABASE_DRIVER", "sqlite")

	c, err := config.Load()
	require.NoError(t, err)
	return c
}

type fixtureOption func(*serverFixture)

func withSessions(repo sessions.Repo) fixtureOption {
	return func(f *serverFixture) {
		f.sessions = repo
	}
}

// wrapSessions decorates the fixture's own session repo, which shares its
// player repo with the fixture.
func wrapSessions(wrap func(sessions.Repo) sessions.Repo) fixtureOption {
	return func(f *serverFixture) {
		f.sessions = wrap(f.sessions)
	}
}

func setupServerFixture(t *testing.T, opts ...fixtureOption) *serverFixture {
	t.Helper()

	pr := fakeplayerrepo.NewFakePlayerRepo()
	f := &serverFixture{
		now: baseTime,
		provider: &fakeProvider{profiles: map[string]players.Profile{
			playerCode: {Name: "Sam Keeper", GivenName: "Sam", FamilyName: "Keeper", Email: "sam.keeper@example.com"},
			adminCode:  {Name: "Alex Admin", GivenName: "Alex", FamilyName: "Admin", Email: "alex.admin@example.com"},
		}},
		players:  pr,
		sessions: sessions.NewInMemoryRepo(pr),
	}
	for _, opt := range opts {
		opt(f)
	}
	pr.Put(&players.Player{
		Name:        "Alex Admin",
		Email:       "alex.admin@example.com",
		AccessGroup: players.Group(players.AccessGroupAdmin),
	})

	c := testConfig(t)
	codec, err := auth.NewCookieCodec("server-test-secret", true, c.GetSessionTTL())
	require.NoError(t, err)

	f.service, err = auth.NewService(auth.Repos{
		PKCE:     pkce.NewInMemoryRepo(),
		Sessions: f.sessions,
		Players:  f.players,
	}, f.provider,
		auth.WithNowTime(func() time.Time { return f.now }),
		auth.WithCookieCodec(codec),
		auth.WithPKCETimeout(c.GetPKCETimeout()),
		auth.WithSessionTTL(c.GetSessionTTL()),
	)
	require.NoError(t, err)

	f.server, err = server.New(c, f.service, f.players,
		server.WithHealthCheck(func(context.Context) error { return f.healthy }))
	require.NoError(t, err)
	return f
}

func (f *serverFixture) do(t *testing.T, method, target string, body io.Reader, cookie *http.Cookie, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	r := httptest.NewRequest(method, target, body)
	if cookie != nil {
		r.AddCookie(cookie)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		r.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, r)
	return w
}

// startLogin hits /login and returns the state the provider would echo back.
func (f *serverFixture) startLogin(t *testing.T) string {
	t.Helper()

	w := f.do(t, http.MethodGet, "/login", nil, nil)
	require.Equal(t, http.StatusFound, w.Code)

	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	state := location.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

// login completes the whole browser flow for code and returns the session cookie.
func (f *serverFixture) login(t *testing.T, code string) *http.Cookie {
	t.Helper()

	state := f.startLogin(t)
	w := f.do(t, http.MethodGet, "/auth?"+url.Values{"state": {state}, "code": {code}}.Encode(), nil, nil)
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	require.Equal(t, "/", w.Header().Get("Location"))

	return sessionCookie(t, w)
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, c := range w.Result().Cookies() {
		if c.Name == auth.SessionCookieName {
			return c
		}
	}
	require.FailNow(t, "no session cookie in response")
	return nil
}

func jsonBody(s string) io.Reader {
	return strings.NewReader(s)
}
