// Package room owns the live games. A Room wraps one GameState together with
// its membership and connections; every operation on a room runs under the
// room's lock, so actions are applied one at a time in a total order and
// every connection sees the same sequence of broadcasts.
package room

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"fullmetal-planet/internal/game"
	"fullmetal-planet/internal/protocol"
	"fullmetal-planet/pkg/maps"
)

// State is the lifecycle stage of a room.
type State string

const (
	StateWaiting  State = "waiting"
	StateReady    State = "ready"
	StatePlaying  State = "playing"
	StateFinished State = "finished"
)

// Conn is one live connection of a member. Send must not block.
type Conn interface {
	Send(msg *protocol.Message) error
	Close()
}

// Options holds the settings shared by every room of a manager.
type Options struct {
	TurnTimeLimit time.Duration
	// Generator shapes procedural maps; its Seed is replaced by the room's.
	Generator maps.GeneratorOptions
	// DefaultMapID names an official map used when a room asks for none.
	DefaultMapID string
	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

// Room is one game session.
type Room struct {
	mu sync.Mutex

	id         string
	hostID     string
	state      State
	mapID      string
	seed       int64
	createdAt  time.Time
	updatedAt  time.Time
	finishedAt *time.Time
	seq        int

	players    []game.Player
	spectators []protocol.Spectator
	gs         *game.GameState

	conns map[string]Conn
	seen  map[string]bool

	timer    *time.Timer
	timerKey turnKey
	closed   bool

	opts   Options
	store  Store
	logger *zap.Logger
}

// New creates an empty room. The first player to join becomes the host.
func New(id, mapID string, seed int64, opts Options, store Store, logger *zap.Logger) *Room {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Room{
		id:     id,
		state:  StateWaiting,
		mapID:  mapID,
		seed:   seed,
		conns:  make(map[string]Conn),
		seen:   make(map[string]bool),
		opts:   opts,
		store:  store,
		logger: logger.With(zap.String("room_id", id)),
	}
	r.createdAt = r.now()
	r.updatedAt = r.createdAt
	return r
}

// ID returns the room id.
func (r *Room) ID() string {
	return r.id
}

func (r *Room) now() time.Time {
	if r.opts.Now != nil {
		return r.opts.Now().UTC()
	}
	return time.Now().UTC()
}

// Info summarizes the room for listings.
type Info struct {
	ID         string     `json:"gameId"`
	State      State      `json:"state"`
	HostID     string     `json:"hostId"`
	Players    int        `json:"players"`
	Spectators int        `json:"spectators"`
	Turn       int        `json:"turn"`
	Phase      game.Phase `json:"phase,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// Info returns the listing entry of the room.
func (r *Room) Info() Info {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.infoLocked()
}

func (r *Room) infoLocked() Info {
	info := Info{
		ID:         r.id,
		State:      r.state,
		HostID:     r.hostID,
		Players:    len(r.players),
		Spectators: len(r.spectators),
		CreatedAt:  r.createdAt,
		UpdatedAt:  r.updatedAt,
	}
	if r.gs != nil {
		info.Turn = r.gs.Turn
		info.Phase = r.gs.Phase
	}
	return info
}

// View is the public description of a room.
type View struct {
	GameID        string               `json:"gameId"`
	State         State                `json:"state"`
	HostID        string               `json:"hostId"`
	Turn          int                  `json:"turn"`
	CurrentPlayer string               `json:"currentPlayer,omitempty"`
	Players       []game.Player        `json:"players"`
	Spectators    []protocol.Spectator `json:"spectators"`
	GameState     *game.GameState      `json:"gameState,omitempty"`
}

// View returns the room as any member may see it.
func (r *Room) View() View {
	r.mu.Lock()
	defer r.mu.Unlock()

	v := View{
		GameID:     r.id,
		State:      r.state,
		HostID:     r.hostID,
		Players:    r.playersCopy(),
		Spectators: append([]protocol.Spectator{}, r.spectators...),
	}
	if r.gs != nil {
		v.Turn = r.gs.Turn
		v.CurrentPlayer = r.gs.CurrentPlayer
		v.GameState = r.gs.PublicView()
	}
	return v
}

// GameState returns a copy of the current game, or nil before the start.
func (r *Room) GameState() *game.GameState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gs == nil {
		return nil
	}
	return r.gs.Clone()
}

// ==================== Membership ====================

// Join adds a player. Players may only join before the game starts; each
// gets the first free color of the palette.
func (r *Room) Join(id, name string) (game.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateWaiting && r.state != StateReady {
		return game.Player{}, ErrWrongState
	}
	if r.isMember(id) {
		return game.Player{}, ErrAlreadyJoined
	}
	if len(r.players) >= game.MaxPlayers {
		return game.Player{}, ErrRoomFull
	}

	p := game.NewPlayer(id, name, r.freeColor())
	p.IsConnected = false
	r.players = append(r.players, p)
	if r.hostID == "" {
		r.hostID = id
	}
	// A newcomer is never ready.
	r.state = StateWaiting
	r.touch()

	r.logger.Info("player joined", zap.String("player_id", id), zap.String("color", string(p.Color)))
	r.broadcast(protocol.TypePlayerJoined, protocol.PlayerEventPayload{PlayerID: id, Name: name, Color: p.Color}, id)
	r.persist()
	return p, nil
}

// Spectate adds a read-only member. Spectators may join at any time.
func (r *Room) Spectate(id, name string) (protocol.Spectator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isMember(id) {
		return protocol.Spectator{}, ErrAlreadyJoined
	}
	if name == "" {
		name = "Spectator"
	}
	s := protocol.Spectator{ID: id, Name: name}
	r.spectators = append(r.spectators, s)
	r.touch()

	r.broadcast(protocol.TypeSpectatorJoined, protocol.PlayerEventPayload{PlayerID: id, Name: name}, id)
	r.persist()
	return s, nil
}

// Leave removes a member. Players can only leave before the game starts;
// afterwards their seat is kept for reconnection.
func (r *Room) Leave(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i := r.spectatorIndex(id); i >= 0 {
		r.spectators = append(r.spectators[:i], r.spectators[i+1:]...)
		r.dropConn(id)
		r.touch()
		r.persist()
		return nil
	}

	i := r.playerIndex(id)
	if i < 0 {
		return ErrNotMember
	}
	if r.state != StateWaiting && r.state != StateReady {
		return ErrWrongState
	}

	p := r.players[i]
	r.players = append(r.players[:i], r.players[i+1:]...)
	r.dropConn(id)
	if r.hostID == id {
		r.hostID = ""
		if len(r.players) > 0 {
			r.hostID = r.players[0].ID
		}
	}
	r.touch()

	r.logger.Info("player left", zap.String("player_id", id))
	r.broadcast(protocol.TypePlayerLeft, protocol.PlayerEventPayload{PlayerID: id, Name: p.Name, Color: p.Color}, id)
	r.checkReady()
	r.persist()
	return nil
}

// SetReady flags a player ready or not. Once at least two players are
// present and all are ready the game starts.
func (r *Room) SetReady(id string, ready bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.spectatorIndex(id) >= 0 {
		return ErrSpectator
	}
	i := r.playerIndex(id)
	if i < 0 {
		return ErrNotMember
	}
	if r.state != StateWaiting && r.state != StateReady {
		return ErrWrongState
	}

	r.players[i].IsReady = ready
	r.touch()
	r.checkReady()
	r.broadcast(protocol.TypePlayerReady, protocol.PlayerReadyPayload{PlayerID: id, Ready: ready, RoomState: string(r.state)}, id)

	if r.state == StateReady {
		if err := r.start(); err != nil {
			r.logger.Error("failed to start game", zap.Error(err))
			return err
		}
	}
	r.persist()
	return nil
}

// checkReady moves the room between waiting and ready.
func (r *Room) checkReady() {
	if r.state != StateWaiting && r.state != StateReady {
		return
	}
	all := len(r.players) >= game.MinPlayers
	for _, p := range r.players {
		if !p.IsReady {
			all = false
			break
		}
	}
	if all {
		r.state = StateReady
	} else {
		r.state = StateWaiting
	}
}

// ==================== Connections ====================

// Attach binds a live connection to a member, replacing any previous one.
// The connection immediately receives the room state and, once the game is
// running, a full snapshot.
func (r *Room) Attach(memberID string, conn Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.isMember(memberID) {
		return ErrNotMember
	}
	if old := r.conns[memberID]; old != nil && old != conn {
		old.Close()
	}
	r.conns[memberID] = conn
	reconnect := r.seen[memberID]
	r.seen[memberID] = true

	r.setConnected(memberID, true)
	if reconnect {
		r.logger.Info("member reconnected", zap.String("player_id", memberID))
		r.broadcast(protocol.TypePlayerReconnected, r.memberEvent(memberID), memberID)
	}
	r.sendTo(memberID, protocol.TypeRoomState, r.roomState())
	if r.gs != nil {
		r.broadcastState()
	}
	r.persist()
	return nil
}

// Detach unbinds conn from a member. A connection that has already been
// replaced is ignored. A player keeps their seat and their turn; only the
// turn timer ends a turn.
func (r *Room) Detach(memberID string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.conns[memberID]; !ok || cur != conn {
		return
	}
	delete(r.conns, memberID)

	r.setConnected(memberID, false)
	if i := r.playerIndex(memberID); i >= 0 && r.gs == nil {
		// Connection churn in the lobby clears readiness.
		r.players[i].IsReady = false
		r.checkReady()
	}
	r.touch()

	r.logger.Info("member disconnected", zap.String("player_id", memberID))
	r.broadcast(protocol.TypePlayerDisconnected, r.memberEvent(memberID), memberID)
	if r.gs != nil {
		r.broadcastState()
	}
	r.persist()
}

// Connected returns how many members have a live connection.
func (r *Room) Connected() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

// Role reports whether id is a player or a spectator of the room.
func (r *Room) Role(id string) (player, spectator bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playerIndex(id) >= 0, r.spectatorIndex(id) >= 0
}

// Sync resends the current state to one member.
func (r *Room) Sync(memberID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.isMember(memberID) {
		return ErrNotMember
	}
	if r.gs == nil {
		r.sendTo(memberID, protocol.TypeRoomState, r.roomState())
		return nil
	}
	r.sendTo(memberID, protocol.TypeStateUpdate, protocol.NewGameStatePayload(r.gs))
	return nil
}

// Close stops the turn timer and drops every connection.
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.stopTimer()
	for id := range r.conns {
		r.dropConn(id)
	}
}

// setConnected updates the connection flag of a member, in the game state
// too once the game runs.
func (r *Room) setConnected(id string, connected bool) {
	if i := r.spectatorIndex(id); i >= 0 {
		r.spectators[i].IsConnected = connected
		return
	}
	i := r.playerIndex(id)
	if i < 0 {
		return
	}
	r.players[i].IsConnected = connected
	if r.gs == nil {
		return
	}
	if p := r.gs.Player(id); p != nil && p.IsConnected != connected {
		next := r.gs.Clone()
		next.Player(id).IsConnected = connected
		r.gs = next
	}
}

func (r *Room) dropConn(id string) {
	if c := r.conns[id]; c != nil {
		c.Close()
		delete(r.conns, id)
	}
}

// ==================== Broadcasting ====================

// broadcast sends one message to every connected member.
func (r *Room) broadcast(msgType protocol.MessageType, payload interface{}, from string) {
	msg, err := protocol.NewMessage(msgType, payload)
	if err != nil {
		r.logger.Error("failed to encode message", zap.String("type", string(msgType)), zap.Error(err))
		return
	}
	msg.From(from)

	ids := make([]string, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := r.conns[id].Send(msg); err != nil {
			r.logger.Debug("send failed", zap.String("player_id", id), zap.Error(err))
		}
	}
}

func (r *Room) sendTo(id string, msgType protocol.MessageType, payload interface{}) {
	conn := r.conns[id]
	if conn == nil {
		return
	}
	msg, err := protocol.NewMessage(msgType, payload)
	if err != nil {
		r.logger.Error("failed to encode message", zap.String("type", string(msgType)), zap.Error(err))
		return
	}
	if err := conn.Send(msg); err != nil {
		r.logger.Debug("send failed", zap.String("player_id", id), zap.Error(err))
	}
}

func (r *Room) broadcastState() {
	r.broadcast(protocol.TypeStateUpdate, protocol.NewGameStatePayload(r.gs), "")
}

func (r *Room) roomState() protocol.RoomStatePayload {
	return protocol.RoomStatePayload{
		GameID:     r.id,
		State:      string(r.state),
		HostID:     r.hostID,
		Players:    r.playersCopy(),
		Spectators: append([]protocol.Spectator{}, r.spectators...),
	}
}

func (r *Room) memberEvent(id string) protocol.PlayerEventPayload {
	if i := r.playerIndex(id); i >= 0 {
		p := r.players[i]
		return protocol.PlayerEventPayload{PlayerID: id, Name: p.Name, Color: p.Color}
	}
	if i := r.spectatorIndex(id); i >= 0 {
		return protocol.PlayerEventPayload{PlayerID: id, Name: r.spectators[i].Name}
	}
	return protocol.PlayerEventPayload{PlayerID: id}
}

// ==================== Helpers ====================

func (r *Room) touch() {
	r.updatedAt = r.now()
}

func (r *Room) isMember(id string) bool {
	return r.playerIndex(id) >= 0 || r.spectatorIndex(id) >= 0
}

func (r *Room) playerIndex(id string) int {
	for i := range r.players {
		if r.players[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *Room) spectatorIndex(id string) int {
	for i := range r.spectators {
		if r.spectators[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *Room) freeColor() game.PlayerColor {
	taken := make(map[game.PlayerColor]bool)
	for _, p := range r.players {
		taken[p.Color] = true
	}
	for _, c := range game.AllColors() {
		if !taken[c] {
			return c
		}
	}
	return ""
}

func (r *Room) playersCopy() []game.Player {
	out := make([]game.Player, len(r.players))
	for i, p := range r.players {
		out[i] = p
		out[i].CapturedAstronefs = append([]game.UnitID(nil), p.CapturedAstronefs...)
		if p.AstronefPosition != nil {
			pos := *p.AstronefPosition
			out[i].AstronefPosition = &pos
		}
	}
	return out
}
