package database

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testRoom(id string, created time.Time) *Room {
	return &Room{
		RoomInfo: RoomInfo{
			ID:          id,
			State:       "playing",
			HostID:      "host",
			PlayerCount: 2,
			Turn:        4,
			Phase:       "playing",
			CreatedAt:   created,
			UpdatedAt:   created,
		},
		Snapshot: bytes.Repeat([]byte(`{"units":[1,2,3]}`), 50),
	}
}

func TestSaveAndGetRoom(t *testing.T) {
	db := openTestDB(t)
	created := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	r := testRoom("r1", created)
	if err := db.SaveRoom(r); err != nil {
		t.Fatalf("SaveRoom failed: %v", err)
	}

	got, err := db.GetRoom("r1")
	if err != nil {
		t.Fatalf("GetRoom failed: %v", err)
	}
	if !bytes.Equal(got.Snapshot, r.Snapshot) {
		t.Error("Expected snapshot bytes to round trip")
	}
	if got.HostID != "host" || got.Turn != 4 || got.Phase != "playing" {
		t.Errorf("Unexpected columns: %+v", got.RoomInfo)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("Expected created %v, got %v", created, got.CreatedAt)
	}

	// Upsert keeps the creation time.
	r.State = "finished"
	r.Snapshot = []byte(`{}`)
	r.UpdatedAt = created.Add(time.Hour)
	if err := db.SaveRoom(r); err != nil {
		t.Fatalf("SaveRoom update failed: %v", err)
	}
	got, _ = db.GetRoom("r1")
	if got.State != "finished" || string(got.Snapshot) != `{}` {
		t.Errorf("Expected updated room, got %s / %s", got.State, got.Snapshot)
	}
}

func TestGetRoom_NotFound(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.GetRoom("nope"); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("Expected ErrRoomNotFound, got %v", err)
	}
	if err := db.DeleteRoom("nope"); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("Expected ErrRoomNotFound on delete, got %v", err)
	}
}

func TestGetRoom_Corrupt(t *testing.T) {
	db := openTestDB(t)
	r := testRoom("r1", time.Now())
	if err := db.SaveRoom(r); err != nil {
		t.Fatal(err)
	}
	if _, err := db.conn.Exec(`UPDATE rooms SET checksum = 'bad' WHERE id = 'r1'`); err != nil {
		t.Fatal(err)
	}
	if _, err := db.GetRoom("r1"); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("Expected ErrChecksumMismatch, got %v", err)
	}
}

func TestListAndDeleteRooms(t *testing.T) {
	db := openTestDB(t)
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	db.SaveRoom(testRoom("old", base))
	db.SaveRoom(testRoom("new", base.Add(time.Minute)))

	rooms, err := db.ListRooms()
	if err != nil {
		t.Fatalf("ListRooms failed: %v", err)
	}
	if len(rooms) != 2 || rooms[0].ID != "new" {
		t.Fatalf("Expected newest first, got %v", rooms)
	}

	if err := db.LogAction(&ActionRecord{RoomID: "old", Seq: 1, Kind: "MOVE", ActionJSON: "{}", CreatedAt: base}); err != nil {
		t.Fatalf("LogAction failed: %v", err)
	}
	if err := db.DeleteRoom("old"); err != nil {
		t.Fatalf("DeleteRoom failed: %v", err)
	}
	rooms, _ = db.ListRooms()
	if len(rooms) != 1 {
		t.Errorf("Expected 1 room left, got %d", len(rooms))
	}
	if h, _ := db.GetHistory("old"); len(h) != 0 {
		t.Errorf("Expected history deleted with the room, got %d", len(h))
	}
}

func TestActionHistory(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	db.SaveRoom(testRoom("r1", now))

	for seq, kind := range []string{"LAND_ASTRONEF", "DEPLOY", "MOVE"} {
		err := db.LogAction(&ActionRecord{
			RoomID:     "r1",
			Seq:        seq + 1,
			PlayerID:   "p1",
			Kind:       kind,
			Turn:       seq + 1,
			ActionJSON: `{"type":"` + kind + `"}`,
			CreatedAt:  now,
		})
		if err != nil {
			t.Fatalf("LogAction failed: %v", err)
		}
	}

	all, err := db.GetHistory("r1")
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if len(all) != 3 || all[2].Kind != "MOVE" || all[0].PlayerID != "p1" {
		t.Errorf("Unexpected history: %+v", all)
	}

	since, _ := db.GetHistorySince("r1", 2)
	if len(since) != 1 || since[0].Seq != 3 {
		t.Errorf("Expected only seq 3, got %+v", since)
	}
}

func TestCompressRoundTrip(t *testing.T) {
	src := bytes.Repeat([]byte("tide "), 1000)
	packed, err := compress(src)
	if err != nil {
		t.Fatal(err)
	}
	if len(packed) >= len(src) {
		t.Errorf("Expected compression, got %d >= %d", len(packed), len(src))
	}
	back, err := decompress(packed)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(back, src) {
		t.Error("Expected bytes to round trip")
	}
	if Checksum(src) == Checksum(packed) || len(Checksum(src)) != 64 {
		t.Error("Expected a 256-bit hex checksum of the raw bytes")
	}
}

func TestMigrateOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fmp.db")
	db, err := New(path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	want := migrations[len(migrations)-1].id
	if v, err := db.SchemaVersion(); err != nil || v != want {
		t.Errorf("Expected schema version %d, got %d (%v)", want, v, err)
	}
	if err := db.SaveRoom(testRoom("r1", time.Now().UTC())); err != nil {
		t.Fatalf("SaveRoom failed: %v", err)
	}
	db.Close()

	// Reopening must not replay migrations over existing tables.
	db, err = New(path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer db.Close()
	if _, err := db.GetRoom("r1"); err != nil {
		t.Errorf("Expected the room to survive a reopen, got %v", err)
	}
}

func TestMemoryDB(t *testing.T) {
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer db.Close()
	if _, err := db.GetRoom("missing"); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("Expected ErrRoomNotFound, got %v", err)
	}
}
