package room

import (
	"encoding/json"
	"errors"
	"fmt"

	"fullmetal-planet/internal/database"
	"fullmetal-planet/internal/game"
)

// Store persists rooms between server restarts.
type Store interface {
	SaveRoom(snap *Snapshot) error
	LoadRoom(id string) (*Snapshot, error)
	ListRooms() ([]Info, error)
	DeleteRoom(id string) error
	LogAction(rec *database.ActionRecord) error
	History(roomID string, afterSeq int) ([]*database.ActionRecord, error)
}

// DBStore keeps rooms in the SQLite database as JSON snapshots.
type DBStore struct {
	db *database.DB
}

// NewDBStore wraps db.
func NewDBStore(db *database.DB) *DBStore {
	return &DBStore{db: db}
}

func (s *DBStore) SaveRoom(snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode room: %w", err)
	}
	rec := &database.Room{
		RoomInfo: database.RoomInfo{
			ID:          snap.ID,
			State:       string(snap.State),
			HostID:      snap.HostID,
			PlayerCount: len(snap.Players),
			CreatedAt:   snap.CreatedAt,
			UpdatedAt:   snap.UpdatedAt,
		},
		Snapshot: data,
	}
	if snap.GameState != nil {
		rec.Turn = snap.GameState.Turn
		rec.Phase = string(snap.GameState.Phase)
	}
	return s.db.SaveRoom(rec)
}

func (s *DBStore) LoadRoom(id string) (*Snapshot, error) {
	rec, err := s.db.GetRoom(id)
	if errors.Is(err, database.ErrRoomNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(rec.Snapshot, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode room %s: %w", id, err)
	}
	return &snap, nil
}

func (s *DBStore) ListRooms() ([]Info, error) {
	recs, err := s.db.ListRooms()
	if err != nil {
		return nil, err
	}
	out := make([]Info, 0, len(recs))
	for _, rec := range recs {
		out = append(out, Info{
			ID:        rec.ID,
			State:     State(rec.State),
			HostID:    rec.HostID,
			Players:   rec.PlayerCount,
			Turn:      rec.Turn,
			Phase:     game.Phase(rec.Phase),
			CreatedAt: rec.CreatedAt,
			UpdatedAt: rec.UpdatedAt,
		})
	}
	return out, nil
}

func (s *DBStore) DeleteRoom(id string) error {
	err := s.db.DeleteRoom(id)
	if errors.Is(err, database.ErrRoomNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *DBStore) LogAction(rec *database.ActionRecord) error {
	return s.db.LogAction(rec)
}

func (s *DBStore) History(roomID string, afterSeq int) ([]*database.ActionRecord, error) {
	return s.db.GetHistorySince(roomID, afterSeq)
}
