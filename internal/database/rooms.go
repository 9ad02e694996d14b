package database

import (
	"database/sql"
	"errors"
	"time"
)

// ErrRoomNotFound is returned when a room is not stored.
var ErrRoomNotFound = errors.New("room not found")

// RoomInfo contains basic room information for listings.
type RoomInfo struct {
	ID          string    `json:"id"`
	State       string    `json:"state"`
	HostID      string    `json:"hostId"`
	PlayerCount int       `json:"playerCount"`
	Turn        int       `json:"turn"`
	Phase       string    `json:"phase,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Room is a stored room: listing columns plus the raw snapshot.
type Room struct {
	RoomInfo
	Snapshot []byte
}

// SaveRoom inserts or replaces a room. The snapshot is stored lz4
// compressed alongside the blake3 checksum of the raw bytes.
func (db *DB) SaveRoom(r *Room) error {
	data, err := compress(r.Snapshot)
	if err != nil {
		return err
	}

	_, err = db.conn.Exec(`
		INSERT INTO rooms (id, state, host_id, player_count, turn, phase, snapshot, snapshot_size, checksum, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state = excluded.state,
			host_id = excluded.host_id,
			player_count = excluded.player_count,
			turn = excluded.turn,
			phase = excluded.phase,
			snapshot = excluded.snapshot,
			snapshot_size = excluded.snapshot_size,
			checksum = excluded.checksum,
			updated_at = excluded.updated_at
	`, r.ID, r.State, r.HostID, r.PlayerCount, r.Turn, r.Phase, data, len(r.Snapshot),
		Checksum(r.Snapshot), r.CreatedAt.UTC(), r.UpdatedAt.UTC())
	return err
}

// GetRoom retrieves a room by ID and verifies its snapshot.
func (db *DB) GetRoom(id string) (*Room, error) {
	var r Room
	var phase sql.NullString
	var data []byte
	var checksum string

	err := db.conn.QueryRow(`
		SELECT id, state, host_id, player_count, turn, phase, snapshot, checksum, created_at, updated_at
		FROM rooms WHERE id = ?
	`, id).Scan(&r.ID, &r.State, &r.HostID, &r.PlayerCount, &r.Turn, &phase, &data, &checksum,
		&r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	r.Phase = phase.String

	r.Snapshot, err = decompress(data)
	if err != nil {
		return nil, err
	}
	if Checksum(r.Snapshot) != checksum {
		return nil, ErrChecksumMismatch
	}
	return &r, nil
}

// ListRooms returns every stored room, newest first.
func (db *DB) ListRooms() ([]*RoomInfo, error) {
	rows, err := db.conn.Query(`
		SELECT id, state, host_id, player_count, turn, phase, created_at, updated_at
		FROM rooms
		ORDER BY created_at DESC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []*RoomInfo
	for rows.Next() {
		var r RoomInfo
		var phase sql.NullString
		if err := rows.Scan(&r.ID, &r.State, &r.HostID, &r.PlayerCount, &r.Turn, &phase,
			&r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		r.Phase = phase.String
		rooms = append(rooms, &r)
	}
	return rooms, rows.Err()
}

// DeleteRoom deletes a room and its action log.
func (db *DB) DeleteRoom(id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM room_actions WHERE room_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.Exec(`DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRoomNotFound
	}
	return tx.Commit()
}
