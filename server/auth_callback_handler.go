package server

import (
	"html/template"
	"net/http"

	"github.com/gubbhockey/clubhouse/internal/errors"
	"github.com/rs/zerolog/log"
)

type loginFailedPage struct {
	AppName    string
	Title      string
	Message    string
	RetryURL   string
	RetryLabel string
}

func (s *Server) OAuthCallbackHandler() http.HandlerFunc {
	failed := mustParseTemplate("login_failed.html")

	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		state := query.Get("state")
		code := query.Get("code")

		// Provider refused or the user cancelled
		if errorParam := query.Get("error"); errorParam != "" {
			log.Warn().
				Str("error", errorParam).
				Str("error_description", query.Get("error_description")).
				Msg("Provider returned an authorization error")
			s.renderLoginFailed(w, failed, "Login was not completed", "The login provider did not authorize this request.", http.StatusBadRequest)
			return
		}

		result, err := s.auth.CompleteLogin(r.Context(), state, code)
		if err != nil {
			switch {
			case errors.Is(err, errors.ErrLoginExpired):
				s.renderLoginFailed(w, failed, "Login expired", "Your login took too long or the link is no longer valid.", http.StatusBadRequest)
			case errors.Is(err, errors.ErrUpstream):
				logError(r.Method, r.URL.Path, err)
				s.renderLoginFailed(w, failed, "Login provider unavailable", "We could not reach the login provider.", http.StatusBadGateway)
			default:
				logError(r.Method, r.URL.Path, err)
				s.renderLoginFailed(w, failed, "Login failed", "Something went wrong while logging you in.", http.StatusInternalServerError)
			}
			return
		}

		http.SetCookie(w, result.Cookie)
		http.Redirect(w, r, "/", http.StatusFound)
	}
}

func (s *Server) renderLoginFailed(w http.ResponseWriter, tmpl *template.Template, title, message string, statusCode int) {
	renderPage(w, tmpl, loginFailedPage{
		AppName:    s.config.GetAppName(),
		Title:      title,
		Message:    message,
		RetryURL:   RouteLogin,
		RetryLabel: "Try logging in again",
	}, statusCode)
}
