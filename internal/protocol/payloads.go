package protocol

import (
	"fullmetal-planet/internal/game"
)

// ==================== Inbound Payloads ====================

// ReadyPayload flags the sender ready or not ready.
type ReadyPayload struct {
	Ready bool `json:"ready"`
}

// EndTurnPayload ends the sender's turn, banking up to SavedAP points.
type EndTurnPayload struct {
	SavedAP int `json:"savedAP"`
}

// LiftOffDecisionPayload is the sender's secret turn 21 choice.
type LiftOffDecisionPayload struct {
	Decision bool `json:"decision"` // true = leave now
}

// The ACTION payload is the action itself; see DecodeAction.

// ==================== Room Payloads ====================

// Spectator is a read-only member of a room.
type Spectator struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IsConnected bool   `json:"isConnected"`
}

// RoomStatePayload describes room membership. Sent to a connection when it
// attaches and on every membership change.
type RoomStatePayload struct {
	GameID     string        `json:"gameId"`
	State      string        `json:"state"`
	HostID     string        `json:"hostId"`
	Players    []game.Player `json:"players"`
	Spectators []Spectator   `json:"spectators"`
}

// PlayerEventPayload is sent for PLAYER_JOINED, PLAYER_LEFT,
// PLAYER_RECONNECTED and PLAYER_DISCONNECTED.
type PlayerEventPayload struct {
	PlayerID string           `json:"playerId"`
	Name     string           `json:"name"`
	Color    game.PlayerColor `json:"color,omitempty"`
}

// PlayerReadyPayload indicates player ready state.
type PlayerReadyPayload struct {
	PlayerID  string `json:"playerId"`
	Ready     bool   `json:"ready"`
	RoomState string `json:"roomState"`
}

// ==================== Game Flow Payloads ====================

// GameStatePayload carries a full snapshot. Used by GAME_START and
// STATE_UPDATE. Digest lets a client check a resync against what others see.
type GameStatePayload struct {
	GameState *game.GameState `json:"gameState"`
	Digest    string          `json:"digest"`
}

// NewGameStatePayload snapshots the public view of g.
func NewGameStatePayload(g *game.GameState) GameStatePayload {
	view := g.PublicView()
	return GameStatePayload{GameState: view, Digest: view.Digest()}
}

// ActionPayload echoes an applied action to every member of the room.
type ActionPayload struct {
	Type    game.ActionKind `json:"type"`
	Action  game.Action     `json:"action"`
	Outcome game.Outcome    `json:"outcome"`
}

// TurnEndPayload is sent when a player's turn ends.
type TurnEndPayload struct {
	PlayerID string `json:"playerId"`
	SavedAP  int    `json:"savedAP"`
	TimedOut bool   `json:"timedOut,omitempty"`
}

// LiftOffAckPayload acknowledges a lift-off decision without revealing it.
type LiftOffAckPayload struct {
	PendingPlayers int `json:"pendingPlayers"`
}

// LiftOffRevealedPayload reveals every decision at once.
type LiftOffRevealedPayload struct {
	Decisions map[string]bool `json:"decisions"`
	LiftedOff []string        `json:"liftedOff,omitempty"`
	Stranded  []string        `json:"stranded,omitempty"`
	GameState *game.GameState `json:"gameState"`
	Digest    string          `json:"digest"`
}

// GameEndPayload is sent when the game concludes.
type GameEndPayload struct {
	Scores  map[string]int `json:"scores"`
	Winners []string       `json:"winners"`
}

// NewGameEndPayload collects the final scores of g. Winners holds every
// player sharing the top score.
func NewGameEndPayload(g *game.GameState) GameEndPayload {
	scores := g.Scores()
	best := -1
	var winners []string
	for _, p := range g.Players {
		switch s := scores[p.ID]; {
		case s > best:
			best = s
			winners = []string{p.ID}
		case s == best:
			winners = append(winners, p.ID)
		}
	}
	return GameEndPayload{Scores: scores, Winners: winners}
}
