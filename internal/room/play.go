package room

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"fullmetal-planet/internal/database"
	"fullmetal-planet/internal/game"
	"fullmetal-planet/internal/protocol"
	"fullmetal-planet/pkg/maps"
)

// start builds the game from the ready players and broadcasts it.
func (r *Room) start() error {
	mapData, err := r.buildMap()
	if err != nil {
		r.state = StateWaiting
		return err
	}

	players := r.playersCopy()
	gs, err := game.InitializeGame(mapData, players, game.Settings{
		GameID:        r.id,
		Seed:          r.seed,
		TurnTimeLimit: r.opts.TurnTimeLimit,
	}, r.now())
	if err != nil {
		r.state = StateWaiting
		return fmt.Errorf("failed to initialize game: %w", err)
	}

	r.gs = gs
	r.state = StatePlaying
	r.touch()

	r.logger.Info("game started",
		zap.String("map_id", mapData.ID),
		zap.Int64("seed", r.seed),
		zap.Strings("turn_order", gs.TurnOrder))
	r.broadcast(protocol.TypeGameStart, protocol.NewGameStatePayload(gs), "")
	r.armTimer()
	return nil
}

// buildMap picks the room's official map, the manager default, or a
// generated one seeded with the room seed.
func (r *Room) buildMap() (game.MapData, error) {
	id := r.mapID
	if id == "" {
		id = r.opts.DefaultMapID
	}
	if id != "" {
		m := maps.Get(id)
		if m == nil {
			return game.MapData{}, fmt.Errorf("%w: %s", ErrUnknownMap, id)
		}
		return m.GameData(), nil
	}

	opts := r.opts.Generator
	if opts.Width == 0 {
		opts = maps.DefaultOptions()
	}
	opts.Seed = r.seed
	return maps.NewGenerator(opts).Generate().GameData(), nil
}

// requirePlayer checks that id may act in the running game.
func (r *Room) requirePlayer(id string) error {
	if r.spectatorIndex(id) >= 0 {
		return ErrSpectator
	}
	if r.playerIndex(id) < 0 {
		return ErrNotMember
	}
	if r.gs == nil {
		return ErrWrongState
	}
	return nil
}

// HandleAction validates and applies one action. On success every member
// receives the action and the new state; on failure nothing changes and
// the error is only returned to the caller.
func (r *Room) HandleAction(playerID string, action game.Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requirePlayer(playerID); err != nil {
		return err
	}
	next, out, err := game.Apply(r.gs, playerID, action, r.now())
	if err != nil {
		return err
	}

	r.commit(next)
	r.seq++
	r.broadcast(protocol.TypeAction, protocol.ActionPayload{Type: action.Kind(), Action: action, Outcome: out}, playerID)
	if out.TurnAdvanced && !out.GameFinished {
		r.broadcast(protocol.TypeTurnEnd, protocol.TurnEndPayload{PlayerID: playerID}, playerID)
	}
	r.broadcastState()
	r.settle()
	r.logAction(playerID, action, out)
	return nil
}

// EndTurn ends the player's turn, banking up to savedAP points.
func (r *Room) EndTurn(playerID string, savedAP int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requirePlayer(playerID); err != nil {
		return err
	}
	next, saved, err := game.EndTurn(r.gs, playerID, savedAP, r.now())
	if err != nil {
		return err
	}

	r.commit(next)
	r.broadcast(protocol.TypeTurnEnd, protocol.TurnEndPayload{PlayerID: playerID, SavedAP: saved}, playerID)
	r.broadcastState()
	r.settle()
	return nil
}

// LiftOffDecision records a secret turn 21 decision. Until every player
// has decided only the number of missing decisions is broadcast; the last
// decision reveals them all in a single message.
func (r *Room) LiftOffDecision(playerID string, leave bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requirePlayer(playerID); err != nil {
		return err
	}
	next, res, err := game.RecordLiftOffDecision(r.gs, playerID, leave, r.now())
	if err != nil {
		return err
	}

	r.commit(next)
	if !res.Revealed {
		r.broadcast(protocol.TypeLiftOffDecisionAck, protocol.LiftOffAckPayload{PendingPlayers: len(res.Pending)}, playerID)
		r.persist()
		return nil
	}

	r.reveal(res.Decisions, res.LiftedOff, res.Stranded)
	r.settle()
	return nil
}

func (r *Room) reveal(decisions map[string]bool, lifted, stranded []string) {
	view := r.gs.PublicView()
	r.logger.Info("lift-off decisions revealed", zap.Strings("lifted_off", lifted), zap.Strings("stranded", stranded))
	r.broadcast(protocol.TypeLiftOffDecisionsRevealed, protocol.LiftOffRevealedPayload{
		Decisions: decisions,
		LiftedOff: lifted,
		Stranded:  stranded,
		GameState: view,
		Digest:    view.Digest(),
	}, "")
}

// ==================== Turn timer ====================

// turnKey identifies the turn a timer was armed for.
type turnKey struct {
	turn   int
	player string
	phase  game.Phase
}

// armTimer schedules the timeout of the current turn unless one is already
// pending for it.
func (r *Room) armTimer() {
	if r.closed || r.gs == nil || r.gs.Phase == game.PhaseFinished {
		r.stopTimer()
		return
	}
	key := turnKey{turn: r.gs.Turn, player: r.gs.CurrentPlayer, phase: r.gs.Phase}
	if r.timer != nil && key == r.timerKey {
		return
	}
	r.stopTimer()

	d := r.gs.Deadline().Sub(r.now())
	if d < 0 {
		d = 0
	}
	r.timerKey = key
	r.timer = time.AfterFunc(d, func() {
		if err := r.Timeout(key.turn, key.player); err != nil {
			r.logger.Debug("turn timer ignored", zap.Int("turn", key.turn), zap.Error(err))
		}
	})
}

func (r *Room) stopTimer() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

// Timeout ends the given turn if it is still current. It fires from the
// turn timer whether or not the player is connected; a turn that already
// ended makes it a no-op returning game.ErrStaleTimeout.
func (r *Room) Timeout(turn int, playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.gs == nil {
		return ErrWrongState
	}
	prev := r.gs
	next, err := game.TimeoutTurn(prev, turn, playerID, r.now())
	if err != nil {
		return err
	}

	r.logger.Info("turn timed out", zap.Int("turn", turn), zap.String("player_id", playerID))
	r.commit(next)
	if prev.Phase == game.PhaseEndgame {
		lifted, stranded := newlyDone(prev, next)
		r.reveal(next.LiftOffDecisions, lifted, stranded)
	} else {
		r.broadcast(protocol.TypeTurnEnd, protocol.TurnEndPayload{PlayerID: playerID, TimedOut: true}, playerID)
		r.broadcastState()
	}
	r.settle()
	return nil
}

// ==================== Commit ====================

func (r *Room) commit(next *game.GameState) {
	r.gs = next
	r.touch()
}

// settle finishes the room once the game is over, re-arms the turn timer
// and saves the room.
func (r *Room) settle() {
	if r.gs.Phase == game.PhaseFinished && r.state != StateFinished {
		r.state = StateFinished
		now := r.now()
		r.finishedAt = &now
		end := protocol.NewGameEndPayload(r.gs)
		r.logger.Info("game finished", zap.Any("scores", end.Scores))
		r.broadcast(protocol.TypeGameEnd, end, "")
	}
	r.armTimer()
	r.persist()
}

// persist saves the room. Failures are logged and play goes on in memory.
func (r *Room) persist() {
	if r.store == nil {
		return
	}
	if err := r.store.SaveRoom(r.snapshotLocked()); err != nil {
		r.logger.Warn("failed to save room", zap.Error(err))
	}
}

func (r *Room) logAction(playerID string, action game.Action, out game.Outcome) {
	if r.store == nil {
		return
	}
	data, err := protocol.EncodeAction(action)
	if err != nil {
		return
	}
	result, _ := json.Marshal(out)
	err = r.store.LogAction(&database.ActionRecord{
		RoomID:     r.id,
		Seq:        r.seq,
		PlayerID:   playerID,
		Kind:       string(action.Kind()),
		Turn:       r.gs.Turn,
		ActionJSON: string(data),
		ResultJSON: string(result),
		CreatedAt:  r.now(),
	})
	if err != nil {
		r.logger.Warn("failed to log action", zap.Error(err))
	}
}

// newlyDone lists the players who lifted off or got stranded between two
// snapshots.
func newlyDone(prev, next *game.GameState) (lifted, stranded []string) {
	for _, p := range next.Players {
		before := prev.Player(p.ID)
		if before == nil || before.Done() {
			continue
		}
		switch {
		case p.HasLiftedOff:
			lifted = append(lifted, p.ID)
		case p.Stranded:
			stranded = append(stranded, p.ID)
		}
	}
	sort.Strings(lifted)
	sort.Strings(stranded)
	return lifted, stranded
}
