package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gubbhockey/clubhouse/internal/errors"
	"github.com/rs/zerolog/log"
)

const contentTypeJSON = "application/json; charset=utf-8"

// wantsHTML is true for browser navigations
func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// statusForError maps the error families onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, errors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, errors.ErrLoginExpired):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, v any, statusCode int) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("Failed to encode JSON response")
	}
}

func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             errorCode,
		"error_description": description,
	})
}

// writeStoreError reports a repository failure without leaking its detail.
func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status == http.StatusNotFound {
		writeJSONError(w, "not_found", "Player not found", status)
		return
	}
	logError(r.Method, r.URL.Path, err)
	writeJSONError(w, "server_error", "Internal server error", http.StatusInternalServerError)
}

func logError(method, path string, err error) {
	log.Error().Msg(fmt.Sprintf("[%-19s] %s %s", colourMethod(method), path, colourRed+err.Error()+colourReset))
}
