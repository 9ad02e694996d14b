package room

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fullmetal-planet/internal/database"
	"fullmetal-planet/internal/game"
	"fullmetal-planet/pkg/maps"
)

// ReapPolicy bounds how long rooms stay in memory.
type ReapPolicy struct {
	// IdleTTL removes rooms nobody is connected to and that have not
	// changed for this long.
	IdleTTL time.Duration
	// FinishedGrace keeps finished rooms around for clients to fetch the
	// final results.
	FinishedGrace time.Duration
}

// Manager holds the live rooms of a server.
type Manager struct {
	mu     sync.RWMutex
	rooms  map[string]*Room
	opts   Options
	policy ReapPolicy
	store  Store
	logger *zap.Logger
}

// NewManager creates a manager. store may be nil to keep rooms in memory only.
func NewManager(opts Options, policy ReapPolicy, store Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		rooms:  make(map[string]*Room),
		opts:   opts,
		policy: policy,
		store:  store,
		logger: logger,
	}
}

// Create opens a room and seats the host in it. A zero seed picks one from
// the clock; an empty mapID uses the manager default.
func (m *Manager) Create(hostName, mapID string, seed int64) (*Room, game.Player, error) {
	if mapID != "" && maps.Get(mapID) == nil {
		return nil, game.Player{}, ErrUnknownMap
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	r := New(uuid.New().String(), mapID, seed, m.opts, m.store, m.logger)
	host, err := r.Join(uuid.New().String(), hostName)
	if err != nil {
		return nil, game.Player{}, err
	}

	m.mu.Lock()
	m.rooms[r.ID()] = r
	m.mu.Unlock()

	m.logger.Info("room created",
		zap.String("room_id", r.ID()),
		zap.String("host_id", host.ID),
		zap.String("map_id", mapID),
		zap.Int64("seed", seed))
	return r, host, nil
}

// Get returns a live room, restoring it from the store if needed.
func (m *Manager) Get(id string) (*Room, error) {
	m.mu.RLock()
	r, ok := m.rooms[id]
	m.mu.RUnlock()
	if ok {
		return r, nil
	}
	if m.store == nil {
		return nil, ErrNotFound
	}

	snap, err := m.store.LoadRoom(id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.logger.Warn("failed to load room", zap.String("room_id", id), zap.Error(err))
		}
		return nil, ErrNotFound
	}
	restored, err := Restore(snap, m.opts, m.store, m.logger)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[id]; ok {
		// Lost a race with another restore.
		restored.Close()
		return r, nil
	}
	m.rooms[id] = restored
	return restored, nil
}

// Join seats a new player in room id.
func (m *Manager) Join(id, name string) (*Room, game.Player, error) {
	r, err := m.Get(id)
	if err != nil {
		return nil, game.Player{}, err
	}
	p, err := r.Join(uuid.New().String(), name)
	if err != nil {
		return nil, game.Player{}, err
	}
	return r, p, nil
}

// Spectate adds a spectator to room id.
func (m *Manager) Spectate(id, name string) (*Room, string, error) {
	r, err := m.Get(id)
	if err != nil {
		return nil, "", err
	}
	s, err := r.Spectate(uuid.New().String(), name)
	if err != nil {
		return nil, "", err
	}
	return r, s.ID, nil
}

// Resolve checks a token and returns the room and member it names.
func (m *Manager) Resolve(token string) (*Room, string, bool, error) {
	roomID, memberID, spectator, err := ParseToken(token)
	if err != nil {
		return nil, "", false, err
	}
	r, err := m.Get(roomID)
	if err != nil {
		return nil, "", false, err
	}
	player, spec := r.Role(memberID)
	if spectator && !spec || !spectator && !player {
		return nil, "", false, ErrInvalidToken
	}
	return r, memberID, spectator, nil
}

// List returns every room, live or stored, newest first.
func (m *Manager) List() []Info {
	seen := make(map[string]bool)
	var out []Info

	m.mu.RLock()
	for id, r := range m.rooms {
		seen[id] = true
		out = append(out, r.Info())
	}
	m.mu.RUnlock()

	if m.store != nil {
		stored, err := m.store.ListRooms()
		if err != nil {
			m.logger.Warn("failed to list stored rooms", zap.Error(err))
		}
		for _, info := range stored {
			if !seen[info.ID] {
				out = append(out, info)
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// History returns the logged actions of room id after seq.
func (m *Manager) History(id string, afterSeq int) ([]*database.ActionRecord, error) {
	if _, err := m.Get(id); err != nil {
		return nil, err
	}
	if m.store == nil {
		return nil, nil
	}
	return m.store.History(id, afterSeq)
}

// RestoreAll loads every unfinished stored room so its turn timer runs
// again after a restart.
func (m *Manager) RestoreAll() int {
	if m.store == nil {
		return 0
	}
	infos, err := m.store.ListRooms()
	if err != nil {
		m.logger.Warn("failed to list stored rooms", zap.Error(err))
		return 0
	}
	n := 0
	for _, info := range infos {
		if info.State == StateFinished {
			continue
		}
		if _, err := m.Get(info.ID); err != nil {
			m.logger.Warn("failed to restore room", zap.String("room_id", info.ID), zap.Error(err))
			continue
		}
		n++
	}
	return n
}

// Reap removes finished rooms past their grace period and idle rooms past
// the TTL. It returns the ids removed.
func (m *Manager) Reap(now time.Time) []string {
	m.mu.Lock()
	var doomed []*Room
	for id, r := range m.rooms {
		if m.expired(r, now) {
			doomed = append(doomed, r)
			delete(m.rooms, id)
		}
	}
	m.mu.Unlock()

	ids := make([]string, 0, len(doomed))
	for _, r := range doomed {
		r.Close()
		if m.store != nil {
			if err := m.store.DeleteRoom(r.ID()); err != nil && !errors.Is(err, ErrNotFound) {
				m.logger.Warn("failed to delete room", zap.String("room_id", r.ID()), zap.Error(err))
			}
		}
		ids = append(ids, r.ID())
	}
	sort.Strings(ids)
	if len(ids) > 0 {
		m.logger.Info("reaped rooms", zap.Strings("room_ids", ids))
	}
	return ids
}

func (m *Manager) expired(r *Room, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateFinished && r.finishedAt != nil && m.policy.FinishedGrace > 0 {
		return now.Sub(*r.finishedAt) >= m.policy.FinishedGrace
	}
	if len(r.conns) > 0 || m.policy.IdleTTL <= 0 {
		return false
	}
	return now.Sub(r.updatedAt) >= m.policy.IdleTTL
}

// Run reaps rooms every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.Reap(now)
		}
	}
}

// Close stops every room. Rooms stay in the store.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.rooms {
		r.Close()
		delete(m.rooms, id)
	}
}
