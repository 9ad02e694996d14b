package room

import (
	"encoding/json"
	"errors"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"fullmetal-planet/internal/database"
	"fullmetal-planet/internal/game"
	"fullmetal-planet/internal/protocol"
	"fullmetal-planet/pkg/hex"
	"fullmetal-planet/pkg/maps"
)

const testMapID = "test-land"

func TestMain(m *testing.M) {
	terrain := make(game.Terrain)
	for _, c := range hex.InRange(hex.Coord{}, 8) {
		terrain[c] = game.TerrainLand
	}
	maps.Register(&maps.Map{ID: testMapID, Name: "Test Land", Width: 17, Height: 17, Terrain: terrain})
	os.Exit(m.Run())
}

// ==================== Fixtures ====================

type fakeConn struct {
	msgs chan *protocol.Message

	mu     sync.Mutex
	closed bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{msgs: make(chan *protocol.Message, 256)}
}

func (c *fakeConn) Send(msg *protocol.Message) error {
	select {
	case c.msgs <- msg:
		return nil
	default:
		return errors.New("send buffer full")
	}
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// drain returns every message received so far.
func (c *fakeConn) drain() []*protocol.Message {
	var out []*protocol.Message
	for {
		select {
		case m := <-c.msgs:
			out = append(out, m)
		default:
			return out
		}
	}
}

func types(msgs []*protocol.Message) []protocol.MessageType {
	out := make([]protocol.MessageType, len(msgs))
	for i, m := range msgs {
		out[i] = m.Type
	}
	return out
}

func find(msgs []*protocol.Message, typ protocol.MessageType) *protocol.Message {
	for _, m := range msgs {
		if m.Type == typ {
			return m
		}
	}
	return nil
}

// waitFor blocks until c receives a message of the given type.
func waitFor(t *testing.T, c *fakeConn, typ protocol.MessageType) *protocol.Message {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case m := <-c.msgs:
			if m.Type == typ {
				return m
			}
		case <-deadline:
			t.Fatalf("Timed out waiting for %s", typ)
			return nil
		}
	}
}

func digestOf(t *testing.T, m *protocol.Message) string {
	t.Helper()
	var p protocol.GameStatePayload
	if err := m.ParsePayload(&p); err != nil {
		t.Fatalf("ParsePayload failed: %v", err)
	}
	return p.Digest
}

// memStore keeps snapshots in memory, encoded the way DBStore does.
type memStore struct {
	mu      sync.Mutex
	rooms   map[string][]byte
	actions []*database.ActionRecord
	fail    bool
}

func newMemStore() *memStore {
	return &memStore{rooms: make(map[string][]byte)}
}

func (s *memStore) SaveRoom(snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("disk full")
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	s.rooms[snap.ID] = data
	return nil
}

func (s *memStore) LoadRoom(id string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.rooms[id]
	if !ok {
		return nil, ErrNotFound
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *memStore) ListRooms() ([]Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Info
	for _, data := range s.rooms {
		var snap Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return nil, err
		}
		out = append(out, Info{ID: snap.ID, State: snap.State, HostID: snap.HostID, Players: len(snap.Players), CreatedAt: snap.CreatedAt})
	}
	return out, nil
}

func (s *memStore) DeleteRoom(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[id]; !ok {
		return ErrNotFound
	}
	delete(s.rooms, id)
	return nil
}

func (s *memStore) LogAction(rec *database.ActionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("disk full")
	}
	s.actions = append(s.actions, rec)
	return nil
}

func (s *memStore) History(roomID string, afterSeq int) ([]*database.ActionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*database.ActionRecord
	for _, a := range s.actions {
		if a.RoomID == roomID && a.Seq > afterSeq {
			out = append(out, a)
		}
	}
	return out, nil
}

func testOptions() Options {
	return Options{TurnTimeLimit: time.Hour, DefaultMapID: testMapID}
}

// startGame seats the given players, connects them and readies everyone.
// The returned connections have been drained.
func startGame(t *testing.T, r *Room, ids ...string) map[string]*fakeConn {
	t.Helper()
	conns := make(map[string]*fakeConn)
	for _, id := range ids {
		if _, err := r.Join(id, "Player "+id); err != nil {
			t.Fatalf("Join(%s) failed: %v", id, err)
		}
		conns[id] = newFakeConn()
		if err := r.Attach(id, conns[id]); err != nil {
			t.Fatalf("Attach(%s) failed: %v", id, err)
		}
	}
	for _, id := range ids {
		if err := r.SetReady(id, true); err != nil {
			t.Fatalf("SetReady(%s) failed: %v", id, err)
		}
	}
	if r.GameState() == nil {
		t.Fatal("Expected game started")
	}
	for _, c := range conns {
		c.drain()
	}
	t.Cleanup(r.Close)
	return conns
}

// ==================== Membership ====================

func TestJoin(t *testing.T) {
	r := New("r1", "", 1, testOptions(), nil, nil)

	want := game.AllColors()
	for i, id := range []string{"a", "b", "c", "d"} {
		p, err := r.Join(id, "Player "+id)
		if err != nil {
			t.Fatalf("Join(%s) failed: %v", id, err)
		}
		if p.Color != want[i] {
			t.Errorf("Expected %s to get %s, got %s", id, want[i], p.Color)
		}
	}

	if _, err := r.Join("e", "Eve"); !errors.Is(err, ErrRoomFull) {
		t.Errorf("Expected ErrRoomFull, got %v", err)
	}
	if _, err := r.Join("a", "Again"); !errors.Is(err, ErrAlreadyJoined) {
		t.Errorf("Expected ErrAlreadyJoined, got %v", err)
	}
	if v := r.View(); v.HostID != "a" || len(v.Players) != 4 {
		t.Errorf("Expected host a with 4 players, got %s with %d", v.HostID, len(v.Players))
	}
}

func TestJoin_ColorFreedByLeave(t *testing.T) {
	r := New("r1", "", 1, testOptions(), nil, nil)
	r.Join("a", "A")
	r.Join("b", "B")

	if err := r.Leave("a"); err != nil {
		t.Fatalf("Leave failed: %v", err)
	}
	if v := r.View(); v.HostID != "b" {
		t.Errorf("Expected host passed to b, got %s", v.HostID)
	}
	p, _ := r.Join("c", "C")
	if p.Color != game.ColorRed {
		t.Errorf("Expected the freed color red, got %s", p.Color)
	}
}

func TestSetReady(t *testing.T) {
	r := New("r1", "", 1, testOptions(), nil, nil)
	t.Cleanup(r.Close)
	r.Join("a", "A")
	conn := newFakeConn()
	r.Attach("a", conn)

	if err := r.SetReady("a", true); err != nil {
		t.Fatalf("SetReady failed: %v", err)
	}
	if r.Info().State != StateWaiting {
		t.Errorf("Expected a lone ready player to keep waiting, got %s", r.Info().State)
	}

	r.Join("b", "B")
	r.Attach("b", newFakeConn())
	if err := r.SetReady("b", true); err != nil {
		t.Fatalf("SetReady failed: %v", err)
	}
	if r.Info().State != StatePlaying {
		t.Fatalf("Expected game started, got %s", r.Info().State)
	}

	msgs := conn.drain()
	start := find(msgs, protocol.TypeGameStart)
	if start == nil {
		t.Fatalf("Expected GAME_START, got %v", types(msgs))
	}
	if digestOf(t, start) != r.GameState().PublicView().Digest() {
		t.Error("Expected GAME_START to carry the current state")
	}

	if _, err := r.Join("c", "C"); !errors.Is(err, ErrWrongState) {
		t.Errorf("Expected ErrWrongState joining a running game, got %v", err)
	}
	if err := r.Leave("a"); !errors.Is(err, ErrWrongState) {
		t.Errorf("Expected players kept once the game runs, got %v", err)
	}
}

func TestSpectatorCannotAct(t *testing.T) {
	r := New("r1", "", 1, testOptions(), nil, nil)
	startGame(t, r, "a", "b")

	if _, err := r.Spectate("s", ""); err != nil {
		t.Fatalf("Spectate failed: %v", err)
	}
	err := r.HandleAction("s", game.LiftOff{})
	if !errors.Is(err, ErrSpectator) {
		t.Errorf("Expected ErrSpectator, got %v", err)
	}
	if ErrorCode(err) != protocol.ErrCodeSpectator {
		t.Errorf("Expected code spectator, got %s", ErrorCode(err))
	}
	if err := r.SetReady("s", true); !errors.Is(err, ErrSpectator) {
		t.Errorf("Expected ErrSpectator, got %v", err)
	}
}

// ==================== Play ====================

func TestHandleAction(t *testing.T) {
	r := New("r1", "", 1, testOptions(), nil, nil)
	conns := startGame(t, r, "a", "b")
	gs := r.GameState()
	first, second := gs.TurnOrder[0], gs.TurnOrder[1]

	t.Run("rejected action reaches nobody", func(t *testing.T) {
		err := r.HandleAction(second, game.LandAstronef{Anchor: hex.Coord{Q: 3, R: 0}})
		if game.CodeOf(err) != game.CodeNotYourTurn {
			t.Errorf("Expected not_your_turn, got %v", err)
		}
		if ErrorCode(err) != protocol.ErrCodeNotYourTurn {
			t.Errorf("Expected protocol code not_your_turn, got %s", ErrorCode(err))
		}
		for id, c := range conns {
			if msgs := c.drain(); len(msgs) != 0 {
				t.Errorf("Expected nothing sent to %s, got %v", id, types(msgs))
			}
		}
		if r.GameState().Digest() != gs.Digest() {
			t.Error("Expected state untouched")
		}
	})

	t.Run("applied action reaches everyone in order", func(t *testing.T) {
		if err := r.HandleAction(first, game.LandAstronef{Anchor: hex.Coord{Q: -3, R: 0}}); err != nil {
			t.Fatalf("HandleAction failed: %v", err)
		}
		want := []protocol.MessageType{protocol.TypeAction, protocol.TypeTurnEnd, protocol.TypeStateUpdate}
		var digests []string
		for id, c := range conns {
			msgs := c.drain()
			got := types(msgs)
			if len(got) != len(want) {
				t.Fatalf("Expected %v for %s, got %v", want, id, got)
			}
			for i := range want {
				if got[i] != want[i] {
					t.Errorf("Expected %v for %s, got %v", want, id, got)
					break
				}
			}
			digests = append(digests, digestOf(t, msgs[2]))
		}
		if digests[0] != digests[1] {
			t.Error("Expected every member to see the same state")
		}
		if cur := r.GameState().CurrentPlayer; cur != second {
			t.Errorf("Expected %s to land next, got %s", second, cur)
		}
	})
}

func TestEndTurn(t *testing.T) {
	r := New("r1", "", 1, testOptions(), nil, nil)
	conns := startGame(t, r, "a", "b")
	gs := r.GameState()
	first := gs.TurnOrder[0]

	if err := r.EndTurn(first, 0); game.CodeOf(err) != game.CodeWrongPhase {
		t.Errorf("Expected wrong_phase during landing, got %v", err)
	}

	next := gs.Clone()
	next.Phase = game.PhasePlaying
	next.Turn = 5
	next.ActionPoints = 15
	r.gs = next

	if err := r.EndTurn(first, 4); err != nil {
		t.Fatalf("EndTurn failed: %v", err)
	}
	msgs := conns["a"].drain()
	end := find(msgs, protocol.TypeTurnEnd)
	if end == nil {
		t.Fatalf("Expected TURN_END, got %v", types(msgs))
	}
	var p protocol.TurnEndPayload
	end.ParsePayload(&p)
	if p.PlayerID != first || p.SavedAP != 4 || p.TimedOut {
		t.Errorf("Expected %s saving 4 AP, got %+v", first, p)
	}
}

func TestLiftOffDecisionsRevealedTogether(t *testing.T) {
	r := New("r1", "", 1, testOptions(), nil, nil)
	conns := startGame(t, r, "a", "b", "c")

	next := r.GameState()
	next.Phase = game.PhaseEndgame
	next.Turn = game.TurnLiftOffChoice
	next.ActionPoints = 0
	next.LiftOffDecisions = map[string]bool{}
	r.gs = next

	decisions := []struct {
		id      string
		leave   bool
		pending int
	}{
		{"a", true, 2},
		{"b", false, 1},
	}
	for _, d := range decisions {
		if err := r.LiftOffDecision(d.id, d.leave); err != nil {
			t.Fatalf("LiftOffDecision(%s) failed: %v", d.id, err)
		}
		for id, c := range conns {
			msgs := c.drain()
			if len(msgs) != 1 || msgs[0].Type != protocol.TypeLiftOffDecisionAck {
				t.Fatalf("Expected a single ack for %s, got %v", id, types(msgs))
			}
			var ack protocol.LiftOffAckPayload
			msgs[0].ParsePayload(&ack)
			if ack.PendingPlayers != d.pending {
				t.Errorf("Expected %d pending, got %d", d.pending, ack.PendingPlayers)
			}
		}
		if v := r.View(); len(v.GameState.LiftOffDecisions) != 0 {
			t.Error("Expected decisions hidden from the public view")
		}
	}

	if err := r.LiftOffDecision("a", false); game.CodeOf(err) != game.CodeAlreadyDecided {
		t.Errorf("Expected already_decided, got %v", err)
	}

	if err := r.LiftOffDecision("c", true); err != nil {
		t.Fatalf("LiftOffDecision(c) failed: %v", err)
	}
	for id, c := range conns {
		msgs := c.drain()
		var revealed []*protocol.Message
		for _, m := range msgs {
			if m.Type == protocol.TypeLiftOffDecisionsRevealed {
				revealed = append(revealed, m)
			}
		}
		if len(revealed) != 1 {
			t.Fatalf("Expected exactly one reveal for %s, got %v", id, types(msgs))
		}
		var p protocol.LiftOffRevealedPayload
		revealed[0].ParsePayload(&p)
		if len(p.Decisions) != 3 || !p.Decisions["a"] || p.Decisions["b"] || !p.Decisions["c"] {
			t.Errorf("Expected all three decisions, got %v", p.Decisions)
		}
	}

	gs := r.GameState()
	if gs.Turn != game.TurnLiftOffChoice+1 || gs.CurrentPlayer != "b" {
		t.Errorf("Expected b alone on turn 22, got %s on turn %d", gs.CurrentPlayer, gs.Turn)
	}
}

func TestGameEnd(t *testing.T) {
	store := newMemStore()
	r := New("r1", "", 1, testOptions(), store, nil)
	conns := startGame(t, r, "a", "b")

	next := r.GameState()
	next.Phase = game.PhasePlaying
	next.Turn = game.TurnLastPlaying
	r.gs = next
	first, second := next.TurnOrder[0], next.TurnOrder[1]

	if err := r.EndTurn(first, 0); err != nil {
		t.Fatalf("EndTurn(%s) failed: %v", first, err)
	}
	if err := r.EndTurn(second, 0); err != nil {
		t.Fatalf("EndTurn(%s) failed: %v", second, err)
	}

	msgs := conns["a"].drain()
	end := find(msgs, protocol.TypeGameEnd)
	if end == nil {
		t.Fatalf("Expected GAME_END, got %v", types(msgs))
	}
	var p protocol.GameEndPayload
	end.ParsePayload(&p)
	if len(p.Scores) != 2 {
		t.Errorf("Expected 2 scores, got %v", p.Scores)
	}

	if r.Info().State != StateFinished {
		t.Errorf("Expected room finished, got %s", r.Info().State)
	}
	snap := r.Snapshot()
	if snap.FinishedAt == nil {
		t.Error("Expected finish time recorded")
	}
	if err := r.EndTurn(first, 0); game.CodeOf(err) != game.CodeGameOver {
		t.Errorf("Expected game_over, got %v", err)
	}
}

// ==================== Timer ====================

func TestTimeout_Stale(t *testing.T) {
	r := New("r1", "", 1, testOptions(), nil, nil)
	conns := startGame(t, r, "a", "b")
	gs := r.GameState()

	err := r.Timeout(gs.Turn, gs.TurnOrder[1])
	if !errors.Is(err, game.ErrStaleTimeout) {
		t.Errorf("Expected ErrStaleTimeout, got %v", err)
	}
	for id, c := range conns {
		if msgs := c.drain(); len(msgs) != 0 {
			t.Errorf("Expected nothing sent to %s, got %v", id, types(msgs))
		}
	}
	if r.GameState().Digest() != gs.Digest() {
		t.Error("Expected state untouched")
	}
}

func TestTurnTimerFires(t *testing.T) {
	opts := testOptions()
	opts.TurnTimeLimit = 20 * time.Millisecond
	r := New("r1", "", 1, opts, nil, nil)
	conns := startGame(t, r, "a", "b", "c")
	late := r.GameState().TurnOrder[0]

	// The timer runs whether or not the player is connected.
	r.Detach(late, conns[late])

	var observer *fakeConn
	for id, c := range conns {
		if id != late {
			observer = c
			break
		}
	}
	m := waitFor(t, observer, protocol.TypeTurnEnd)
	var p protocol.TurnEndPayload
	m.ParsePayload(&p)
	if p.PlayerID != late || !p.TimedOut {
		t.Errorf("Expected %s timed out, got %+v", late, p)
	}
}

// ==================== Connections ====================

func TestReconnectResync(t *testing.T) {
	r := New("r1", "", 1, testOptions(), nil, nil)
	conns := startGame(t, r, "a", "b")
	first := r.GameState().TurnOrder[0]
	r.HandleAction(first, game.LandAstronef{Anchor: hex.Coord{Q: -3, R: 0}})
	conns["a"].drain()

	r.Detach("b", conns["b"])
	msgs := conns["a"].drain()
	if find(msgs, protocol.TypePlayerDisconnected) == nil {
		t.Errorf("Expected PLAYER_DISCONNECTED, got %v", types(msgs))
	}
	if p := r.GameState().Player("b"); p.IsConnected {
		t.Error("Expected b flagged disconnected")
	}

	fresh := newFakeConn()
	if err := r.Attach("b", fresh); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	observed := conns["a"].drain()
	if find(observed, protocol.TypePlayerReconnected) == nil {
		t.Errorf("Expected PLAYER_RECONNECTED, got %v", types(observed))
	}
	got := fresh.drain()
	if find(got, protocol.TypeRoomState) == nil {
		t.Errorf("Expected ROOM_STATE on reconnect, got %v", types(got))
	}

	a := find(observed, protocol.TypeStateUpdate)
	b := find(got, protocol.TypeStateUpdate)
	if a == nil || b == nil {
		t.Fatal("Expected STATE_UPDATE on both connections")
	}
	if digestOf(t, a) != digestOf(t, b) {
		t.Error("Expected the reconnected player to see what the others see")
	}

	// A stale connection dropping later changes nothing.
	r.Detach("b", conns["b"])
	if r.Connected() != 2 {
		t.Errorf("Expected 2 connections, got %d", r.Connected())
	}
}

func TestAttachReplacesConnection(t *testing.T) {
	r := New("r1", "", 1, testOptions(), nil, nil)
	r.Join("a", "A")
	old := newFakeConn()
	r.Attach("a", old)
	r.Attach("a", newFakeConn())

	if !old.isClosed() {
		t.Error("Expected the replaced connection closed")
	}
	if r.Connected() != 1 {
		t.Errorf("Expected 1 connection, got %d", r.Connected())
	}
	if err := r.Attach("zed", newFakeConn()); !errors.Is(err, ErrNotMember) {
		t.Errorf("Expected ErrNotMember, got %v", err)
	}
}

// ==================== Persistence ====================

func TestSnapshotRestore(t *testing.T) {
	store := newMemStore()
	r := New("r1", "", 1, testOptions(), store, nil)
	startGame(t, r, "a", "b")
	r.Spectate("s", "Sam")
	first := r.GameState().TurnOrder[0]
	if err := r.HandleAction(first, game.LandAstronef{Anchor: hex.Coord{Q: -3, R: 0}}); err != nil {
		t.Fatalf("HandleAction failed: %v", err)
	}

	want, _ := json.Marshal(r.Snapshot())
	snap, err := store.LoadRoom("r1")
	if err != nil {
		t.Fatalf("LoadRoom failed: %v", err)
	}
	restored, err := Restore(snap, testOptions(), store, nil)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	defer restored.Close()

	got, _ := json.Marshal(restored.Snapshot())
	if string(got) != string(want) {
		t.Errorf("Expected restored snapshot identical\nwant %s\ngot  %s", want, got)
	}
	if restored.GameState().Digest() != r.GameState().Digest() {
		t.Error("Expected identical game digests")
	}

	conn := newFakeConn()
	if err := restored.Attach("a", conn); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	msgs := conn.drain()
	if len(msgs) == 0 || msgs[0].Type != protocol.TypePlayerReconnected {
		t.Errorf("Expected a restored member to count as reconnecting, got %v", types(msgs))
	}

	if len(store.actions) != 1 || store.actions[0].Seq != 1 || store.actions[0].Kind != string(game.ActionLandAstronef) {
		t.Errorf("Expected one logged landing, got %+v", store.actions)
	}
}

func TestPersistenceFailureKeepsPlaying(t *testing.T) {
	store := newMemStore()
	r := New("r1", "", 1, testOptions(), store, nil)
	startGame(t, r, "a", "b")
	store.fail = true

	first := r.GameState().TurnOrder[0]
	if err := r.HandleAction(first, game.LandAstronef{Anchor: hex.Coord{Q: -3, R: 0}}); err != nil {
		t.Fatalf("Expected play to go on without storage, got %v", err)
	}
	if r.GameState().CurrentPlayer == first {
		t.Error("Expected the turn to pass")
	}
}

// ==================== Tokens and errors ====================

func TestToken(t *testing.T) {
	tests := []struct {
		token     string
		room      string
		member    string
		spectator bool
		ok        bool
	}{
		{Token("r1", "p1", false), "r1", "p1", false, true},
		{Token("r1", "s1", true), "r1", "s1", true, true},
		{"r1", "", "", false, false},
		{"r1:p1:player", "", "", false, false},
		{":p1", "", "", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			room, member, spectator, err := ParseToken(tt.token)
			if (err == nil) != tt.ok {
				t.Fatalf("Expected ok=%v, got %v", tt.ok, err)
			}
			if room != tt.room || member != tt.member || spectator != tt.spectator {
				t.Errorf("Expected %s/%s/%v, got %s/%s/%v", tt.room, tt.member, tt.spectator, room, member, spectator)
			}
		})
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want protocol.ErrorCode
	}{
		{ErrNotFound, protocol.ErrCodeGameNotFound},
		{ErrRoomFull, protocol.ErrCodeRoomFull},
		{ErrWrongState, protocol.ErrCodeWrongState},
		{ErrInvalidToken, protocol.ErrCodeNotMember},
		{&game.ValidationError{Code: game.CodeUnderFire, Err: game.ErrUnderFire}, protocol.ErrorCode(game.CodeUnderFire)},
		{errors.New("boom"), protocol.ErrCodeInternalError},
	}
	for _, tt := range tests {
		if got := ErrorCode(tt.err); got != tt.want {
			t.Errorf("%v: expected %s, got %s", tt.err, tt.want, got)
		}
	}
}

func sortedIDs(infos []Info) []string {
	ids := make([]string, len(infos))
	for i, info := range infos {
		ids[i] = info.ID
	}
	sort.Strings(ids)
	return ids
}
