package server

import (
	"context"
	"net/http"

	"github.com/gubbhockey/clubhouse/internal/errors"
	"github.com/gubbhockey/clubhouse/players"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyPlayer stores the authenticated *players.Player
	ContextKeyPlayer ContextKey = "player"
)

// PlayerFromContext returns the player stored by RequireSessionAuth or RequireAdmin.
func PlayerFromContext(ctx context.Context) (*players.Player, bool) {
	player, ok := ctx.Value(ContextKeyPlayer).(*players.Player)
	return player, ok && player != nil
}

// RequireSessionAuth resolves the session cookie into a player.
// Requests without a live session get 401.
func (s *Server) RequireSessionAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			player, err := s.auth.CurrentPlayer(r.Context(), r)
			if err != nil {
				s.writeAuthFailure(w, r, err, false)
				return
			}
			ctx := context.WithValue(r.Context(), ContextKeyPlayer, player)
			next(w, r.WithContext(ctx))
		}
	}
}

// RequireAdmin only lets players in the "admin" access group through.
// Browsers are sent back to the index page; API clients get 401.
func (s *Server) RequireAdmin() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			player, err := s.auth.RequireAdmin(r.Context(), r)
			if err != nil {
				s.writeAuthFailure(w, r, err, true)
				return
			}
			ctx := context.WithValue(r.Context(), ContextKeyPlayer, player)
			next(w, r.WithContext(ctx))
		}
	}
}

func (s *Server) writeAuthFailure(w http.ResponseWriter, r *http.Request, err error, redirectBrowsers bool) {
	if !errors.Is(err, errors.ErrUnauthorized) {
		log.Err(err).Str("path", r.URL.Path).Msg("Failed to resolve session")
		writeJSONError(w, "server_error", "Internal server error", http.StatusInternalServerError)
		return
	}
	if redirectBrowsers && wantsHTML(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	writeJSONError(w, "unauthorized", unauthorizedDescription(err), http.StatusUnauthorized)
}

func unauthorizedDescription(err error) string {
	switch {
	case errors.Is(err, errors.ErrNotAdmin):
		return "Admin access required"
	case errors.Is(err, errors.ErrNoCookie):
		return "Not logged in"
	default:
		return "Session is invalid or has expired"
	}
}
