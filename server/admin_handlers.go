package server

import (
	"net/http"
	"strconv"

	"github.com/gubbhockey/clubhouse/players"
	"github.com/rs/zerolog/log"
)

const (
	defaultPageSize = 100
	maxPageSize     = 500
)

type playerListResponse struct {
	Players []*players.Player `json:"players"`
	Offset  int               `json:"offset"`
	Limit   int               `json:"limit"`
}

// AdminListPlayersHandler lists players ordered by id, paged with
// ?offset= and ?limit=.
func (s *Server) AdminListPlayersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, err := queryInt(r, "offset", 0)
		if err != nil || offset < 0 {
			writeJSONError(w, "invalid_request", "offset must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit, err := queryInt(r, "limit", defaultPageSize)
		if err != nil || limit <= 0 || limit > maxPageSize {
			writeJSONError(w, "invalid_request", "limit must be between 1 and 500", http.StatusBadRequest)
			return
		}

		list, err := s.players.List(r.Context(), offset, limit)
		if err != nil {
			writeStoreError(w, r, err)
			return
		}
		if list == nil {
			list = []*players.Player{}
		}
		writeJSON(w, playerListResponse{Players: list, Offset: offset, Limit: limit}, http.StatusOK)
	}
}

// AdminSetAccessGroupHandler moves the player named by {id} into group
func (s *Server) AdminSetAccessGroupHandler(group players.AccessGroup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil || id <= 0 {
			writeJSONError(w, "invalid_request", "Player id must be a positive integer", http.StatusBadRequest)
			return
		}

		if err := s.players.SetAccessGroup(r.Context(), id, group); err != nil {
			writeStoreError(w, r, err)
			return
		}
		updated, err := s.players.GetByID(r.Context(), id)
		if err != nil {
			writeStoreError(w, r, err)
			return
		}

		var byPlayerID int64
		if admin, ok := PlayerFromContext(r.Context()); ok {
			byPlayerID = admin.ID
		}
		log.Info().
			Int64("player_id", id).
			Int64("by_player_id", byPlayerID).
			Str("access_group", string(group)).
			Msg("Access group changed")
		writeJSON(w, updated, http.StatusOK)
	}
}

func queryInt(r *http.Request, name string, defaultValue int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(raw)
}
