package server

import (
	"net/http"

	"github.com/gubbhockey/clubhouse/auth"
	"github.com/gubbhockey/clubhouse/players"
	"github.com/rs/zerolog/log"
)

type indexPage struct {
	AppName string
	Player  *players.Player
	IsAdmin bool
}

// IndexHandler renders the landing page for anonymous and logged in players
func (s *Server) IndexHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("index.html")

	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := s.auth.Identify(r.Context(), r)
		if err != nil {
			log.Err(err).Msg("Failed to identify request")
		}
		renderPage(w, tmpl, indexPage{
			AppName: s.config.GetAppName(),
			Player:  identity.Player,
			IsAdmin: identity.Kind == auth.IdentityAdmin,
		}, http.StatusOK)
	}
}

// LoginHandler starts the authorization code + PKCE flow
func (s *Server) LoginHandler() http.HandlerFunc {
	failed := mustParseTemplate("login_failed.html")

	return func(w http.ResponseWriter, r *http.Request) {
		authURL, err := s.auth.BeginLogin(r.Context())
		if err != nil {
			logError(r.Method, r.URL.Path, err)
			s.renderLoginFailed(w, failed, "Login is unavailable", "Please try again in a moment.", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, authURL, http.StatusFound)
	}
}

// LogoutHandler removes the session, clears the cookie and hands the
// browser to the provider's logout endpoint. When the session cannot be
// deleted the cookie is kept so the player can retry.
func (s *Server) LogoutHandler() http.HandlerFunc {
	failed := mustParseTemplate("login_failed.html")

	return func(w http.ResponseWriter, r *http.Request) {
		if value, err := s.auth.ResolveSession(r); err == nil {
			if err := s.auth.Logout(r.Context(), value); err != nil {
				logError(r.Method, r.URL.Path, err)
				renderPage(w, failed, loginFailedPage{
					AppName:    s.config.GetAppName(),
					Title:      "Logout failed",
					Message:    "Your session could not be ended. Please try again in a moment.",
					RetryURL:   "/",
					RetryLabel: "Back to the start page",
				}, http.StatusInternalServerError)
				return
			}
		}
		http.SetCookie(w, s.auth.Cookies().Clear())
		http.Redirect(w, r, s.config.GetLogoutURL(), http.StatusFound)
	}
}
