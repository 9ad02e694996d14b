package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"fullmetal-planet/internal/game"
	"fullmetal-planet/internal/protocol"
	"fullmetal-planet/internal/room"
	"fullmetal-planet/pkg/maps"
)

// ==================== Request/Response Bodies ====================

// CreateGameRequest opens a room. MapID and Seed are optional.
type CreateGameRequest struct {
	PlayerName string `json:"playerName"`
	MapID      string `json:"mapId,omitempty"`
	Seed       int64  `json:"seed,omitempty"`
}

// CreateGameResponse is returned to the host.
type CreateGameResponse struct {
	GameID      string `json:"gameId"`
	PlayerID    string `json:"playerId"`
	PlayerToken string `json:"playerToken"`
}

// JoinGameRequest seats a player.
type JoinGameRequest struct {
	PlayerName string `json:"playerName"`
}

// JoinGameResponse is returned to a joining player.
type JoinGameResponse struct {
	GameID      string        `json:"gameId"`
	PlayerID    string        `json:"playerId"`
	PlayerToken string        `json:"playerToken"`
	Players     []game.Player `json:"players"`
}

// SpectateRequest adds a spectator. The name is optional.
type SpectateRequest struct {
	SpectatorName string `json:"spectatorName,omitempty"`
}

// SpectateResponse is returned to a spectator.
type SpectateResponse struct {
	GameID         string               `json:"gameId"`
	SpectatorID    string               `json:"spectatorId"`
	SpectatorToken string               `json:"spectatorToken"`
	Players        []game.Player        `json:"players"`
	Spectators     []protocol.Spectator `json:"spectators"`
	GameState      *game.GameState      `json:"gameState,omitempty"`
}

const maxBodySize = 1 << 16

// ==================== Handlers ====================

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req CreateGameRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.PlayerName == "" {
		writeError(w, http.StatusBadRequest, protocol.ErrCodeBadMessage, "playerName is required")
		return
	}

	rm, host, err := s.rooms.Create(req.PlayerName, req.MapID, req.Seed)
	if err != nil {
		s.writeRoomError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateGameResponse{
		GameID:      rm.ID(),
		PlayerID:    host.ID,
		PlayerToken: room.Token(rm.ID(), host.ID, false),
	})
}

func (s *Server) handleJoinGame(w http.ResponseWriter, r *http.Request) {
	var req JoinGameRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.PlayerName == "" {
		writeError(w, http.StatusBadRequest, protocol.ErrCodeBadMessage, "playerName is required")
		return
	}

	rm, p, err := s.rooms.Join(r.PathValue("id"), req.PlayerName)
	if err != nil {
		s.writeRoomError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, JoinGameResponse{
		GameID:      rm.ID(),
		PlayerID:    p.ID,
		PlayerToken: room.Token(rm.ID(), p.ID, false),
		Players:     rm.View().Players,
	})
}

func (s *Server) handleSpectateGame(w http.ResponseWriter, r *http.Request) {
	var req SpectateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	rm, id, err := s.rooms.Spectate(r.PathValue("id"), req.SpectatorName)
	if err != nil {
		s.writeRoomError(w, err)
		return
	}
	v := rm.View()
	writeJSON(w, http.StatusOK, SpectateResponse{
		GameID:         rm.ID(),
		SpectatorID:    id,
		SpectatorToken: room.Token(rm.ID(), id, true),
		Players:        v.Players,
		Spectators:     v.Spectators,
		GameState:      v.GameState,
	})
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	rm, err := s.rooms.Get(r.PathValue("id"))
	if err != nil {
		s.writeRoomError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rm.View())
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.rooms.List())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	after := 0
	if v := r.URL.Query().Get("after"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, protocol.ErrCodeBadMessage, "after must be a sequence number")
			return
		}
		after = n
	}

	recs, err := s.rooms.History(r.PathValue("id"), after)
	if err != nil {
		s.writeRoomError(w, err)
		return
	}
	out := make([]historyEntry, 0, len(recs))
	for _, rec := range recs {
		out = append(out, historyEntry{
			Seq:       rec.Seq,
			PlayerID:  rec.PlayerID,
			Kind:      rec.Kind,
			Turn:      rec.Turn,
			Action:    json.RawMessage(rec.ActionJSON),
			Outcome:   rawOrNil(rec.ResultJSON),
			CreatedAt: rec.CreatedAt.UnixMilli(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// historyEntry is one logged action as served over HTTP.
type historyEntry struct {
	Seq       int             `json:"seq"`
	PlayerID  string          `json:"playerId"`
	Kind      string          `json:"kind"`
	Turn      int             `json:"turn"`
	Action    json.RawMessage `json:"action"`
	Outcome   json.RawMessage `json:"outcome,omitempty"`
	CreatedAt int64           `json:"createdAt"`
}

func rawOrNil(s string) json.RawMessage {
	if s == "" {
		return nil
	}
	return json.RawMessage(s)
}

func (s *Server) handleListMaps(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, maps.List())
}

// ==================== Helpers ====================

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	// An empty body leaves every optional field unset.
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, protocol.ErrCodeBadMessage, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code protocol.ErrorCode, message string) {
	writeJSON(w, status, protocol.ErrorPayload{Code: code, Message: message})
}

// writeRoomError maps a room error to its HTTP status: unknown rooms are
// 404, bad credentials 403, capacity and state conflicts 400.
func (s *Server) writeRoomError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, room.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, room.ErrInvalidToken), errors.Is(err, room.ErrNotMember):
		status = http.StatusForbidden
	case errors.Is(err, room.ErrRoomFull), errors.Is(err, room.ErrAlreadyJoined),
		errors.Is(err, room.ErrWrongState), errors.Is(err, room.ErrUnknownMap):
		status = http.StatusBadRequest
	default:
		s.logger.Error("request failed", zap.Error(err))
	}
	writeError(w, status, room.ErrorCode(err), err.Error())
}
