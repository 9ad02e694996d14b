package database

type migration struct {
	id   int
	name string
	sql  string
}

var migrations = []migration{
	{
		id:   1,
		name: "initial_schema",
		sql: `
			-- Rooms: one row per room, the full snapshot compressed
			CREATE TABLE rooms (
				id TEXT PRIMARY KEY,
				state TEXT NOT NULL DEFAULT 'waiting',
				host_id TEXT NOT NULL,
				player_count INTEGER NOT NULL DEFAULT 0,
				turn INTEGER NOT NULL DEFAULT 0,
				phase TEXT,
				snapshot BLOB NOT NULL,
				snapshot_size INTEGER NOT NULL,
				checksum TEXT NOT NULL,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			);
			CREATE INDEX idx_rooms_state ON rooms(state);

			-- Room actions: log of every applied action for replay/debugging
			CREATE TABLE room_actions (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				room_id TEXT NOT NULL,
				seq INTEGER NOT NULL,
				player_id TEXT,
				kind TEXT NOT NULL,
				turn INTEGER NOT NULL,
				action_json TEXT NOT NULL,
				result_json TEXT,
				created_at DATETIME NOT NULL,
				FOREIGN KEY (room_id) REFERENCES rooms(id) ON DELETE CASCADE
			);
			CREATE INDEX idx_room_actions_room ON room_actions(room_id, seq);
		`,
	},
}
