// File: server/handlers.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/lguibr/keypass/bollywood"
	"github.com/lguibr/keypass/game"
	"github.com/lguibr/keypass/utils"
	"github.com/rs/zerolog/log"
)

type ctxRoomKey struct{}

type roomRef struct {
	id     string
	handle *game.Handle
}

// roomCtx resolves {roomID} to a running game, answering 404 for unknown rooms.
func (s *Server) roomCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		roomID := chi.URLParam(r, "roomID")
		h, err := s.rooms.Get(roomID)
		if err != nil {
			writeGameError(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), ctxRoomKey{}, roomRef{id: roomID, handle: h})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func roomFrom(r *http.Request) roomRef {
	ref, _ := r.Context().Value(ctxRoomKey{}).(roomRef)
	return ref
}

type createRoomReq struct {
	ID string `json:"id"`
}

type joinReq struct {
	Name string `json:"name"`
}

type moveReq struct {
	Direction string `json:"direction"`
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.rooms.List()
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

// handleCreateRoom accepts an optional {"id": "..."} body.
func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	id, err := s.rooms.Create(strings.TrimSpace(req.ID))
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	if err := s.rooms.Remove(roomFrom(r).id); err != nil {
		writeGameError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	state, err := roomFrom(r).handle.State()
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	player, err := roomFrom(r).handle.Join(name)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, player)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := roomFrom(r).handle.SetReady(chi.URLParam(r, "playerID")); err != nil {
		writeGameError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req moveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	// an unknown direction maps to "" and leaves the player where it is
	dir := game.Direction(utils.DirectionFromString(req.Direction))
	if err := roomFrom(r).handle.Move(chi.URLParam(r, "playerID"), dir); err != nil {
		writeGameError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ----------------------------- responses -----------------------------------

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeGameError maps room and actor errors onto HTTP statuses.
func writeGameError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrRoomNotFound), errors.Is(err, bollywood.ErrActorNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, game.ErrRoomExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrTooManyRooms):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		log.Error().Err(err).Msg("game request failed")
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
