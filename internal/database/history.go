package database

import (
	"database/sql"
	"time"
)

// ActionRecord is one applied action in a room's log.
type ActionRecord struct {
	ID         int64     `json:"id"`
	RoomID     string    `json:"roomId"`
	Seq        int       `json:"seq"`
	PlayerID   string    `json:"playerId"`
	Kind       string    `json:"kind"`
	Turn       int       `json:"turn"`
	ActionJSON string    `json:"action"`
	ResultJSON string    `json:"result,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// LogAction appends an action to a room's log. The room row must exist.
func (db *DB) LogAction(a *ActionRecord) error {
	_, err := db.conn.Exec(`
		INSERT INTO room_actions (room_id, seq, player_id, kind, turn, action_json, result_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, a.RoomID, a.Seq, a.PlayerID, a.Kind, a.Turn, a.ActionJSON, a.ResultJSON, a.CreatedAt.UTC())
	return err
}

// GetHistory retrieves a room's actions in the order they were applied.
func (db *DB) GetHistory(roomID string) ([]*ActionRecord, error) {
	return db.GetHistorySince(roomID, 0)
}

// GetHistorySince retrieves actions with a sequence number above afterSeq
// (for incremental updates).
func (db *DB) GetHistorySince(roomID string, afterSeq int) ([]*ActionRecord, error) {
	rows, err := db.conn.Query(`
		SELECT id, room_id, seq, player_id, kind, turn, action_json, result_json, created_at
		FROM room_actions
		WHERE room_id = ? AND seq > ?
		ORDER BY seq ASC
	`, roomID, afterSeq)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actions []*ActionRecord
	for rows.Next() {
		a := &ActionRecord{}
		var playerID, result sql.NullString
		if err := rows.Scan(&a.ID, &a.RoomID, &a.Seq, &playerID, &a.Kind, &a.Turn, &a.ActionJSON, &result, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.PlayerID = playerID.String
		a.ResultJSON = result.String
		actions = append(actions, a)
	}
	return actions, rows.Err()
}
