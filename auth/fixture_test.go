package auth_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gubbhockey/clubhouse/auth"
	"github.com/gubbhockey/clubhouse/internal/errors"
	"github.com/gubbhockey/clubhouse/pkce"
	"github.com/gubbhockey/clubhouse/players"
	fakeplayerrepo "github.com/gubbhockey/clubhouse/players/repofake"
	"github.com/gubbhockey/clubhouse/sessions"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

var baseTime = time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC)

const (
	testEmail = "sam.keeper@example.com"
	testCode  = "auth-code-1"
)

// fakeProvider records what the service sends upstream and answers with
// canned profiles keyed by authorization code.
type fakeProvider struct {
	mu            sync.Mutex
	verifiers     map[string]string // state -> verifier seen by AuthCodeURL
	profiles      map[string]players.Profile
	exchangeErr   error
	userInfoErr   error
	exchangeCalls int
	lastVerifier  string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		verifiers: make(map[string]string),
		profiles:  make(map[string]players.Profile),
	}
}

func (p *fakeProvider) AuthCodeURL(state, verifier string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.verifiers[state] = verifier
	return "https://idp.example.com/authorize?state=" + state +
		"&code_challenge=" + oauth2.S256ChallengeFromVerifier(verifier) +
		"&code_challenge_method=S256"
}

func (p *fakeProvider) Exchange(_ context.Context, code, verifier string) (*oauth2.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exchangeCalls++
	p.lastVerifier = verifier
	if p.exchangeErr != nil {
		return nil, p.exchangeErr
	}
	return &oauth2.Token{AccessToken: "at-" + code, TokenType: "Bearer"}, nil
}

func (p *fakeProvider) UserInfo(_ context.Context, token *oauth2.Token) (players.Profile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.userInfoErr != nil {
		return players.Profile{}, p.userInfoErr
	}
	profile, ok := p.profiles[strings.TrimPrefix(token.AccessToken, "at-")]
	if !ok {
		return players.Profile{}, errors.Wrapf(errors.ErrUpstream, "unknown token")
	}
	return profile, nil
}

func (p *fakeProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exchangeCalls
}

// countingSessions counts lookups that reach the store.
type countingSessions struct {
	sessions.Repo
	mu      sync.Mutex
	lookups int
}

func (c *countingSessions) GetPlayer(ctx context.Context, id uuid.UUID, now time.Time) (*players.Player, error) {
	c.mu.Lock()
	c.lookups++
	c.mu.Unlock()
	return c.Repo.GetPlayer(ctx, id, now)
}

func (c *countingSessions) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookups
}

// testFixture holds all test dependencies
type testFixture struct {
	now       time.Time
	states    int
	lastState string
	provider  *fakeProvider
	pkce      *pkce.InMemoryRepo
	players   *fakeplayerrepo.FakePlayerRepo
	sessions  *countingSessions
	service   *auth.Service
}

// setupTestFixture creates a new test fixture with all dependencies
func setupTestFixture(t *testing.T, options ...auth.ServiceOption) *testFixture {
	t.Helper()

	pr := fakeplayerrepo.NewFakePlayerRepo()
	f := &testFixture{
		now:      baseTime,
		provider: newFakeProvider(),
		pkce:     pkce.NewInMemoryRepo(),
		players:  pr,
		sessions: &countingSessions{Repo: sessions.NewInMemoryRepo(pr)},
	}
	f.provider.profiles[testCode] = players.Profile{
		Name:       "Sam Keeper",
		GivenName:  "Sam",
		FamilyName: "Keeper",
		Email:      testEmail,
	}

	opts := append([]auth.ServiceOption{
		auth.WithNowTime(func() time.Time { return f.now }),
		auth.WithCSRFTokenGenerator(func() string {
			f.states++
			f.lastState = fmt.Sprintf("state-%d", f.states)
			return f.lastState
		}),
	}, options...)
	service, err := auth.NewService(auth.Repos{
		PKCE:     f.pkce,
		Sessions: f.sessions,
		Players:  f.players,
	}, f.provider, opts...)
	require.NoError(t, err)
	f.service = service
	return f
}

func (f *testFixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

// beginLogin starts a login and returns the state sent to the provider.
func (f *testFixture) beginLogin(t *testing.T) string {
	t.Helper()

	_, err := f.service.BeginLogin(context.Background())
	require.NoError(t, err)
	return f.lastState
}

// login runs a full login for the given code and returns the cookie.
func (f *testFixture) login(t *testing.T, code string) *auth.LoginResult {
	t.Helper()

	state := f.beginLogin(t)
	result, err := f.service.CompleteLogin(context.Background(), state, code)
	require.NoError(t, err)
	return result
}

func requestWithCookie(cookie *http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	if cookie != nil {
		r.AddCookie(cookie)
	}
	return r
}
