package auth

import (
	"context"
	"net/http"

	"github.com/gubbhockey/clubhouse/internal/errors"
	"github.com/gubbhockey/clubhouse/players"
)

// IdentityKind is the authorization level of a request.
type IdentityKind string

const (
	IdentityAnonymous IdentityKind = "anonymous"
	IdentityPlayer    IdentityKind = "player"
	IdentityAdmin     IdentityKind = "admin"
)

// Identity is derived fresh for every request and never cached.
type Identity struct {
	Kind   IdentityKind
	Player *players.Player
}

// ResolveSession returns the raw session cookie value.
func (s *Service) ResolveSession(r *http.Request) (string, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", errors.ErrNoCookie
	}
	return cookie.Value, nil
}

// CurrentPlayer resolves the request's session cookie to a player. A value
// that is not a session id fails with ErrInvalidSessionFormat without
// touching the store; unknown or expired sessions fail with ErrUnauthorized.
func (s *Service) CurrentPlayer(ctx context.Context, r *http.Request) (*players.Player, error) {
	value, err := s.ResolveSession(r)
	if err != nil {
		return nil, err
	}

	now := s.nowTime()
	id, err := s.cookies.Parse(value, now)
	if err != nil {
		return nil, err
	}

	player, err := s.repos.Sessions.GetPlayer(ctx, id, now)
	if errors.Is(err, errors.ErrNotFound) {
		return nil, errors.Wrapf(errors.ErrUnauthorized, "[Service CurrentPlayer] no live session")
	}
	if err != nil {
		return nil, errors.Wrapf(err, "[Service CurrentPlayer]")
	}
	return player, nil
}

// RequireAdmin succeeds only for players whose access group is exactly
// "admin".
func (s *Service) RequireAdmin(ctx context.Context, r *http.Request) (*players.Player, error) {
	player, err := s.CurrentPlayer(ctx, r)
	if err != nil {
		return nil, err
	}
	if !player.IsAdmin() {
		return nil, errors.ErrNotAdmin
	}
	return player, nil
}

// Identify classifies the request. Authorization failures yield an
// anonymous identity; only store failures are returned as errors.
func (s *Service) Identify(ctx context.Context, r *http.Request) (Identity, error) {
	player, err := s.CurrentPlayer(ctx, r)
	switch {
	case errors.Is(err, errors.ErrUnauthorized):
		return Identity{Kind: IdentityAnonymous}, nil
	case err != nil:
		return Identity{Kind: IdentityAnonymous}, err
	case player.IsAdmin():
		return Identity{Kind: IdentityAdmin, Player: player}, nil
	default:
		return Identity{Kind: IdentityPlayer, Player: player}, nil
	}
}
