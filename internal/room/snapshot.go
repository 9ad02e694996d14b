package room

import (
	"time"

	"go.uber.org/zap"

	"fullmetal-planet/internal/game"
	"fullmetal-planet/internal/protocol"
)

// Snapshot is the persisted form of a room. Connections and timers are not
// part of it; restoring re-arms the timer from the game's turn start.
type Snapshot struct {
	ID         string               `json:"id"`
	HostID     string               `json:"hostId"`
	State      State                `json:"state"`
	MapID      string               `json:"mapId,omitempty"`
	Seed       int64                `json:"seed"`
	Players    []game.Player        `json:"players"`
	Spectators []protocol.Spectator `json:"spectators"`
	CreatedAt  time.Time            `json:"createdAt"`
	UpdatedAt  time.Time            `json:"updatedAt"`
	FinishedAt *time.Time           `json:"finishedAt,omitempty"`
	Seq        int                  `json:"seq"`
	GameState  *game.GameState      `json:"gameState,omitempty"`
}

// Snapshot captures the room's current state.
func (r *Room) Snapshot() *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Room) snapshotLocked() *Snapshot {
	s := &Snapshot{
		ID:         r.id,
		HostID:     r.hostID,
		State:      r.state,
		MapID:      r.mapID,
		Seed:       r.seed,
		Players:    r.playersCopy(),
		Spectators: append([]protocol.Spectator{}, r.spectators...),
		CreatedAt:  r.createdAt,
		UpdatedAt:  r.updatedAt,
		Seq:        r.seq,
	}
	if r.finishedAt != nil {
		t := *r.finishedAt
		s.FinishedAt = &t
	}
	if r.gs != nil {
		s.GameState = r.gs.Clone()
	}
	return s
}

// Restore rebuilds a room from a snapshot. Every member counts as seen, so
// their next connection is reported as a reconnection. No connection is
// live until members attach again.
func Restore(snap *Snapshot, opts Options, store Store, logger *zap.Logger) (*Room, error) {
	if snap == nil || snap.ID == "" {
		return nil, ErrNotFound
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Room{
		id:         snap.ID,
		hostID:     snap.HostID,
		state:      snap.State,
		mapID:      snap.MapID,
		seed:       snap.Seed,
		createdAt:  snap.CreatedAt,
		updatedAt:  snap.UpdatedAt,
		seq:        snap.Seq,
		spectators: append([]protocol.Spectator{}, snap.Spectators...),
		conns:      make(map[string]Conn),
		seen:       make(map[string]bool),
		opts:       opts,
		store:      store,
		logger:     logger.With(zap.String("room_id", snap.ID)),
	}
	r.players = make([]game.Player, len(snap.Players))
	copy(r.players, snap.Players)
	r.players = r.playersCopy()
	if snap.FinishedAt != nil {
		t := *snap.FinishedAt
		r.finishedAt = &t
	}
	if snap.GameState != nil {
		r.gs = snap.GameState.Clone()
	}

	for _, p := range r.players {
		r.seen[p.ID] = true
	}
	for _, s := range r.spectators {
		r.seen[s.ID] = true
	}

	r.mu.Lock()
	r.armTimer()
	r.mu.Unlock()

	r.logger.Info("room restored", zap.String("state", string(r.state)), zap.Int("seq", r.seq))
	return r, nil
}
