package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gubbhockey/clubhouse/internal/errors"
	"github.com/gubbhockey/clubhouse/pkce"
	"github.com/gubbhockey/clubhouse/players"
	"github.com/gubbhockey/clubhouse/sessions"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	csrfTokenLength   = 32
	defaultPKCETTL    = 15 * time.Minute
	defaultSessionTTL = 24 * time.Hour
)

// Repos holds all repository dependencies for the Service
type Repos struct {
	PKCE     pkce.Repo     // Pending logins keyed by csrf token
	Sessions sessions.Repo // Session id to player bindings
	Players  players.Repo  // Club members
}

// Service drives the authorization code + PKCE login and resolves session
// cookies into players.
type Service struct {
	repos      Repos
	provider   Provider
	cookies    *CookieCodec
	pkceTTL    time.Duration
	sessionTTL time.Duration

	nowTime      func() time.Time
	newSessionID func() uuid.UUID
	newCSRFToken func() string
	newVerifier  func() string
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

func WithPKCETimeout(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.pkceTTL = ttl
		}
	}
}

// WithSessionTTL sets how long a session stays valid. The cookie codec's
// max age should match.
func WithSessionTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

func WithCookieCodec(codec *CookieCodec) ServiceOption {
	return func(s *Service) {
		if codec != nil {
			s.cookies = codec
		}
	}
}

// WithCSRFTokenGenerator replaces the random state generator (primarily for testing)
func WithCSRFTokenGenerator(gen func() string) ServiceOption {
	return func(s *Service) {
		s.newCSRFToken = gen
	}
}

// NewService initializes a Service with required dependencies.
// Without WithCookieCodec the cookie is unsigned, Secure and lives for the session TTL.
func NewService(repos Repos, provider Provider, options ...ServiceOption) (*Service, error) {
	if repos.PKCE == nil {
		return nil, errors.Wrapf(errors.ErrConfiguration, "[NewService] PKCE repo is required")
	}
	if repos.Sessions == nil {
		return nil, errors.Wrapf(errors.ErrConfiguration, "[NewService] Sessions repo is required")
	}
	if repos.Players == nil {
		return nil, errors.Wrapf(errors.ErrConfiguration, "[NewService] Players repo is required")
	}
	if provider == nil {
		return nil, errors.Wrapf(errors.ErrConfiguration, "[NewService] provider is required")
	}

	s := &Service{
		repos:        repos,
		provider:     provider,
		pkceTTL:      defaultPKCETTL,
		sessionTTL:   defaultSessionTTL,
		nowTime:      time.Now,
		newSessionID: uuid.New,
		newCSRFToken: func() string { return generateRandomString(csrfTokenLength) },
		newVerifier:  oauth2.GenerateVerifier,
	}

	for _, opt := range options {
		opt(s)
	}

	if s.cookies == nil {
		codec, err := NewCookieCodec("", true, s.sessionTTL)
		if err != nil {
			return nil, err
		}
		s.cookies = codec
	}
	return s, nil
}

// Cookies returns the codec used for the session cookie.
func (s *Service) Cookies() *CookieCodec {
	return s.cookies
}

// generateRandomString creates a random base64url string
func generateRandomString(length int) string {
	b := make([]byte, length)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// BeginLogin stores a fresh csrf token and PKCE verifier and returns the
// provider URL the browser should be redirected to.
func (s *Service) BeginLogin(ctx context.Context) (string, error) {
	now := s.nowTime()
	state := s.newCSRFToken()
	verifier := s.newVerifier()

	err := s.repos.PKCE.Put(ctx, pkce.PendingAuth{
		CSRFToken:    state,
		PKCEVerifier: verifier,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.pkceTTL),
	})
	if err != nil {
		return "", errors.Wrapf(err, "[Service BeginLogin] store pending login")
	}
	return s.provider.AuthCodeURL(state, verifier), nil
}

// LoginResult is the outcome of a completed login.
type LoginResult struct {
	Player  *players.Player
	Session sessions.Session
	Cookie  *http.Cookie
}

// CompleteLogin handles the provider callback. An unknown or expired state
// returns ErrLoginExpired before any provider call, so no player or session
// is created.
func (s *Service) CompleteLogin(ctx context.Context, state, code string) (*LoginResult, error) {
	if state == "" || code == "" {
		return nil, errors.Wrapf(errors.ErrLoginExpired, "[Service CompleteLogin] missing state or code")
	}

	pending, err := s.repos.PKCE.Get(ctx, state, s.nowTime())
	if errors.Is(err, errors.ErrNotFound) {
		return nil, errors.ErrLoginExpired
	}
	if err != nil {
		return nil, errors.Wrapf(err, "[Service CompleteLogin] load pending login")
	}

	token, err := s.provider.Exchange(ctx, code, pending.PKCEVerifier)
	if err != nil {
		return nil, errors.Wrapf(err, "[Service CompleteLogin] exchange code")
	}

	profile, err := s.provider.UserInfo(ctx, token)
	if err != nil {
		return nil, errors.Wrapf(err, "[Service CompleteLogin] fetch userinfo")
	}
	profile.Email = players.NormalizeEmail(profile.Email)
	if profile.Email == "" {
		return nil, errors.Wrapf(errors.ErrUpstream, "[Service CompleteLogin] userinfo has no email")
	}

	player, err := s.repos.Players.UpsertByEmail(ctx, profile)
	if err != nil {
		return nil, errors.Wrapf(err, "[Service CompleteLogin] upsert player")
	}

	now := s.nowTime()
	session := sessions.Session{
		ID:        s.newSessionID(),
		PlayerID:  player.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.repos.Sessions.Create(ctx, session); err != nil {
		return nil, errors.Wrapf(err, "[Service CompleteLogin] create session")
	}

	cookie, err := s.cookies.Build(session.ID, now)
	if err != nil {
		return nil, errors.Wrapf(err, "[Service CompleteLogin] build cookie")
	}

	log.Info().Int64("player_id", player.ID).Msg("Player logged in")
	return &LoginResult{Player: player, Session: session, Cookie: cookie}, nil
}

// Logout deletes the session named by the cookie value. Values that do not
// parse have no session to delete and are ignored.
func (s *Service) Logout(ctx context.Context, cookieValue string) error {
	if cookieValue == "" {
		return nil
	}
	id, err := s.cookies.Parse(cookieValue, s.nowTime())
	if err != nil {
		return nil
	}
	if err := s.repos.Sessions.Delete(ctx, id); err != nil {
		return errors.Wrapf(err, "[Service Logout] delete session")
	}
	return nil
}

// SweepExpired removes expired pending logins and sessions. It is safe to
// run concurrently with live traffic.
func (s *Service) SweepExpired(ctx context.Context) (pkceRemoved, sessionsRemoved int64, err error) {
	now := s.nowTime()
	pkceRemoved, err = s.repos.PKCE.DeleteExpired(ctx, now)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "[Service SweepExpired] pkce")
	}
	sessionsRemoved, err = s.repos.Sessions.DeleteExpired(ctx, now)
	if err != nil {
		return pkceRemoved, 0, errors.Wrapf(err, "[Service SweepExpired] sessions")
	}
	return pkceRemoved, sessionsRemoved, nil
}
