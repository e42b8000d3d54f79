package server

import (
	"encoding/json"
	"net/http"

	"github.com/gubbhockey/clubhouse/auth"
	"github.com/gubbhockey/clubhouse/players"
	"github.com/rs/zerolog/log"
)

type whoAmIResponse struct {
	Identity auth.IdentityKind `json:"identity"`
	Player   *players.Player   `json:"player,omitempty"`
}

type goalkeeperRequest struct {
	IsGoalkeeper *bool `json:"is_goalkeeper"`
}

// WhoAmIHandler reports the identity of the caller; it never fails with 401.
func (s *Server) WhoAmIHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := s.auth.Identify(r.Context(), r)
		if err != nil {
			logError(r.Method, r.URL.Path, err)
			writeJSONError(w, "server_error", "Internal server error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, whoAmIResponse{Identity: identity.Kind, Player: identity.Player}, http.StatusOK)
	}
}

func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player, ok := PlayerFromContext(r.Context())
		if !ok {
			writeJSONError(w, "unauthorized", "Not logged in", http.StatusUnauthorized)
			return
		}
		writeJSON(w, player, http.StatusOK)
	}
}

// SetGoalkeeperHandler lets a player flag themselves as a goalkeeper
func (s *Server) SetGoalkeeperHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player, ok := PlayerFromContext(r.Context())
		if !ok {
			writeJSONError(w, "unauthorized", "Not logged in", http.StatusUnauthorized)
			return
		}

		var req goalkeeperRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10)).Decode(&req); err != nil || req.IsGoalkeeper == nil {
			writeJSONError(w, "invalid_request", `Body must be {"is_goalkeeper": true|false}`, http.StatusBadRequest)
			return
		}

		if err := s.players.SetGoalkeeper(r.Context(), player.ID, *req.IsGoalkeeper); err != nil {
			writeStoreError(w, r, err)
			return
		}
		updated, err := s.players.GetByID(r.Context(), player.ID)
		if err != nil {
			writeStoreError(w, r, err)
			return
		}
		log.Info().Int64("player_id", player.ID).Bool("is_goalkeeper", updated.IsGoalkeeper).Msg("Goalkeeper flag updated")
		writeJSON(w, updated, http.StatusOK)
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.healthCheck(r.Context()); err != nil {
			log.Err(err).Msg("Health check failed")
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	}
}
