// Package client implements a headless Full Metal Planète client: the
// bootstrap API, a reconnecting realtime session and a local mirror of the
// room it is seated in.
package client

import (
	"sync"

	"go.uber.org/zap"

	"fullmetal-planet/internal/game"
	"fullmetal-planet/internal/protocol"
)

// Game mirrors one room as seen by a member. It applies every broadcast it
// receives and wraps the inbound message types.
type Game struct {
	config  *Config
	session *Session
	logger  *zap.Logger

	mu        sync.Mutex
	roomState *protocol.RoomStatePayload
	state     *game.GameState
	digest    string
	pending   int
	decisions map[string]bool
	scores    *protocol.GameEndPayload
	lastError *protocol.ErrorPayload

	// OnEvent is called after a message has been applied.
	OnEvent func(*protocol.Message)
}

// NewGame binds a mirror to a session.
func NewGame(config *Config, session *Session, logger *zap.Logger) *Game {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Game{
		config:  config,
		session: session,
		logger:  logger,
	}
	session.OnMessage = g.handleMessage
	session.OnConnect = g.handleConnect
	session.OnDisconnect = g.handleDisconnect
	return g
}

// SetReady sets the player's ready status.
func (g *Game) SetReady(ready bool) error {
	_, err := g.session.SendPayload(protocol.TypeReady, protocol.ReadyPayload{Ready: ready})
	return err
}

// Act sends a game action. The reply, if any, is an ERROR with the same id.
func (g *Game) Act(a game.Action) (*protocol.Message, error) {
	payload, err := protocol.EncodeAction(a)
	if err != nil {
		return nil, err
	}
	return g.session.SendPayload(protocol.TypeAction, payload)
}

// EndTurn ends the player's turn, banking up to savedAP points.
func (g *Game) EndTurn(savedAP int) error {
	_, err := g.session.SendPayload(protocol.TypeEndTurn, protocol.EndTurnPayload{SavedAP: savedAP})
	return err
}

// DecideLiftOff records the turn 21 choice: leave now or stay.
func (g *Game) DecideLiftOff(leave bool) error {
	_, err := g.session.SendPayload(protocol.TypeLiftOffDecision, protocol.LiftOffDecisionPayload{Decision: leave})
	return err
}

// Sync asks for a full snapshot.
func (g *Game) Sync() error {
	_, err := g.session.SendPayload(protocol.TypeSyncRequest, struct{}{})
	return err
}

// State returns the last game snapshot and its digest.
func (g *Game) State() (*game.GameState, string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state, g.digest
}

// Room returns the last membership snapshot.
func (g *Game) Room() *protocol.RoomStatePayload {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.roomState
}

// IsMyTurn reports whether the mirrored game waits on this player.
func (g *Game) IsMyTurn() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state != nil && g.state.CurrentPlayer == g.config.PlayerID
}

// Result returns the final scores once the game has ended.
func (g *Game) Result() *protocol.GameEndPayload {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.scores
}

// LastError returns the last rejection received.
func (g *Game) LastError() *protocol.ErrorPayload {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastError
}

// handleMessage applies a broadcast to the mirror.
func (g *Game) handleMessage(msg *protocol.Message) {
	g.mu.Lock()
	switch msg.Type {
	case protocol.TypeRoomState:
		var payload protocol.RoomStatePayload
		if err := msg.ParsePayload(&payload); err != nil {
			g.parseFailed(msg, err)
			break
		}
		g.roomState = &payload

	case protocol.TypeGameStart, protocol.TypeStateUpdate:
		var payload protocol.GameStatePayload
		if err := msg.ParsePayload(&payload); err != nil {
			g.parseFailed(msg, err)
			break
		}
		g.setState(payload.GameState, payload.Digest)

	case protocol.TypeLiftOffDecisionAck:
		var payload protocol.LiftOffAckPayload
		if err := msg.ParsePayload(&payload); err != nil {
			g.parseFailed(msg, err)
			break
		}
		g.pending = payload.PendingPlayers

	case protocol.TypeLiftOffDecisionsRevealed:
		var payload protocol.LiftOffRevealedPayload
		if err := msg.ParsePayload(&payload); err != nil {
			g.parseFailed(msg, err)
			break
		}
		g.pending = 0
		g.decisions = payload.Decisions
		g.setState(payload.GameState, payload.Digest)

	case protocol.TypeGameEnd:
		var payload protocol.GameEndPayload
		if err := msg.ParsePayload(&payload); err != nil {
			g.parseFailed(msg, err)
			break
		}
		g.scores = &payload

	case protocol.TypeError:
		var payload protocol.ErrorPayload
		if err := msg.ParsePayload(&payload); err != nil {
			g.parseFailed(msg, err)
			break
		}
		g.lastError = &payload
		g.logger.Info("request rejected",
			zap.String("request_id", msg.ID),
			zap.String("code", string(payload.Code)),
			zap.String("message", payload.Message))

	default:
		// ACTION, TURN_END and membership events are followed by a
		// snapshot; nothing to apply.
	}
	g.mu.Unlock()

	if g.OnEvent != nil {
		g.OnEvent(msg)
	}
}

func (g *Game) setState(gs *game.GameState, digest string) {
	if gs == nil {
		return
	}
	if digest != "" && gs.Digest() != digest {
		g.logger.Warn("snapshot digest mismatch", zap.Int("turn", gs.Turn))
	}
	g.state = gs
	g.digest = digest
}

func (g *Game) parseFailed(msg *protocol.Message, err error) {
	g.logger.Warn("failed to parse payload", zap.String("type", string(msg.Type)), zap.Error(err))
}

func (g *Game) handleConnect() {
	g.logger.Info("connected to room", zap.String("game_id", g.config.GameID))
}

func (g *Game) handleDisconnect(err error) {
	g.logger.Info("disconnected from room", zap.String("game_id", g.config.GameID), zap.Error(err))
}
