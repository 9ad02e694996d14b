package client

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"

	"fullmetal-planet/internal/game"
	"fullmetal-planet/internal/protocol"
	"fullmetal-planet/internal/room"
	"fullmetal-planet/internal/server"
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

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	rooms := room.NewManager(room.Options{TurnTimeLimit: time.Hour, DefaultMapID: testMapID}, room.ReapPolicy{}, nil, nil)
	s := server.New(server.Config{}, rooms, nil)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Stop(context.Background())
		rooms.Close()
	})
	return ts
}

// events collects the message types a mirror has applied.
type events struct {
	mu    sync.Mutex
	types []protocol.MessageType
	ch    chan protocol.MessageType
}

func newEvents() *events {
	return &events{ch: make(chan protocol.MessageType, 256)}
}

func (e *events) record(msg *protocol.Message) {
	e.mu.Lock()
	e.types = append(e.types, msg.Type)
	e.mu.Unlock()
	e.ch <- msg.Type
}

func (e *events) waitFor(t *testing.T, typ protocol.MessageType) {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case got := <-e.ch:
			if got == typ {
				return
			}
		case <-timeout:
			t.Fatalf("Timed out waiting for %s", typ)
		}
	}
}

func startSession(t *testing.T, cfg SessionConfig) (*Session, <-chan error) {
	t.Helper()
	s := NewSession(cfg, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	t.Cleanup(cancel)
	return s, done
}

// ==================== Backoff ====================

func TestBackoff(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	base, max := 100*time.Millisecond, time.Second

	tests := []struct {
		attempt int
		ceiling time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, time.Second},
		{40, time.Second},
	}
	for _, tt := range tests {
		for i := 0; i < 50; i++ {
			d := Backoff(tt.attempt, base, max, rnd)
			if d < tt.ceiling/2 || d > tt.ceiling {
				t.Fatalf("Expected attempt %d in [%v, %v], got %v", tt.attempt, tt.ceiling/2, tt.ceiling, d)
			}
		}
	}
}

func TestBackoff_Jitters(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	seen := map[time.Duration]bool{}
	for i := 0; i < 20; i++ {
		seen[Backoff(3, 100*time.Millisecond, time.Second, rnd)] = true
	}
	if len(seen) < 2 {
		t.Error("Expected jittered delays to differ")
	}
}

// ==================== Addresses ====================

func TestURLs(t *testing.T) {
	tests := []struct {
		addr   string
		ws     string
		httpTo string
	}{
		{"localhost:30000", "ws://localhost:30000/ws", "http://localhost:30000"},
		{"http://127.0.0.1:8080/", "ws://127.0.0.1:8080/ws", "http://127.0.0.1:8080"},
		{"fmp.fly.dev:443", "wss://fmp.fly.dev/ws", "https://fmp.fly.dev"},
		{"wss://planet.example.com", "wss://planet.example.com/ws", "https://planet.example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			if got := WebSocketURL(tt.addr); got != tt.ws {
				t.Errorf("Expected %s, got %s", tt.ws, got)
			}
			if got := HTTPURL(tt.addr); got != tt.httpTo {
				t.Errorf("Expected %s, got %s", tt.httpTo, got)
			}
		})
	}
}

// ==================== Config ====================

func TestConfigSaveLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	t.Setenv("AppData", dir)
	SetProfile("test")
	defer SetProfile("")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.LastServer != "localhost:30000" {
		t.Errorf("Expected default server, got %s", cfg.LastServer)
	}

	cfg.PlayerName = "Ann"
	cfg.Remember("g1", "p1", "g1:p1", false)
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	back, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if back.GameID != "g1" || back.PlayerToken != "g1:p1" || back.PlayerName != "Ann" {
		t.Errorf("Expected the seat remembered, got %+v", back)
	}
	if back.Encoding != protocol.EncodingJSON {
		t.Errorf("Expected default encoding kept, got %q", back.Encoding)
	}
}

// ==================== API ====================

func TestAPI(t *testing.T) {
	ts := newTestServer(t)
	api := NewAPI(ts.URL)
	ctx := context.Background()

	created, err := api.CreateGame(ctx, "Ann", "", 0)
	if err != nil {
		t.Fatalf("CreateGame failed: %v", err)
	}
	joined, err := api.JoinGame(ctx, created.GameID, "Bo")
	if err != nil {
		t.Fatalf("JoinGame failed: %v", err)
	}
	if len(joined.Players) != 2 {
		t.Errorf("Expected 2 players, got %d", len(joined.Players))
	}

	view, err := api.GetGame(ctx, created.GameID)
	if err != nil {
		t.Fatalf("GetGame failed: %v", err)
	}
	if view.HostID != created.PlayerID || view.State != room.StateWaiting {
		t.Errorf("Expected waiting room hosted by %s, got %+v", created.PlayerID, view)
	}

	list, err := api.ListGames(ctx)
	if err != nil || len(list) != 1 {
		t.Errorf("Expected one listed room, got %v (%v)", list, err)
	}

	_, err = api.JoinGame(ctx, "missing", "Cy")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Errorf("Expected a 404 APIError, got %v", err)
	}
}

// ==================== Session ====================

func TestSessionPlaysAgainstServer(t *testing.T) {
	ts := newTestServer(t)
	api := NewAPI(ts.URL)
	ctx := context.Background()

	created, err := api.CreateGame(ctx, "Ann", "", 0)
	if err != nil {
		t.Fatalf("CreateGame failed: %v", err)
	}
	joined, err := api.JoinGame(ctx, created.GameID, "Bo")
	if err != nil {
		t.Fatalf("JoinGame failed: %v", err)
	}

	seats := []struct{ id, token string }{
		{created.PlayerID, created.PlayerToken},
		{joined.PlayerID, joined.PlayerToken},
	}
	var games []*Game
	var evs []*events
	for i, seat := range seats {
		enc := protocol.EncodingJSON
		if i == 1 {
			enc = protocol.EncodingMsgpack
		}
		cfg := DefaultConfig()
		cfg.Remember(created.GameID, seat.id, seat.token, false)
		session, _ := startSession(t, SessionConfig{URL: WebSocketURL(ts.URL), Token: seat.token, Encoding: enc})
		g := NewGame(cfg, session, nil)
		ev := newEvents()
		g.OnEvent = ev.record
		games = append(games, g)
		evs = append(evs, ev)
		ev.waitFor(t, protocol.TypeRoomState)
	}

	for _, g := range games {
		if err := g.SetReady(true); err != nil {
			t.Fatalf("SetReady failed: %v", err)
		}
	}
	for _, ev := range evs {
		ev.waitFor(t, protocol.TypeGameStart)
	}

	first, d0 := games[0].State()
	_, d1 := games[1].State()
	if first == nil || d0 == "" || d0 != d1 {
		t.Fatalf("Expected both mirrors on the same start state, got %q and %q", d0, d1)
	}

	current, waiting := games[0], games[1]
	if !current.IsMyTurn() {
		current, waiting = games[1], games[0]
	}
	if waiting.IsMyTurn() {
		t.Fatal("Expected exactly one player on turn")
	}

	t.Run("rejection", func(t *testing.T) {
		req, err := waiting.Act(game.LandAstronef{Anchor: hex.Coord{Q: 3, R: 0}})
		if err != nil {
			t.Fatalf("Act failed: %v", err)
		}
		ev := evs[0]
		if waiting == games[1] {
			ev = evs[1]
		}
		ev.waitFor(t, protocol.TypeError)
		if e := waiting.LastError(); e == nil || e.Code != protocol.ErrCodeNotYourTurn {
			t.Errorf("Expected not_your_turn for %s, got %+v", req.ID, e)
		}
	})

	if _, err := current.Act(game.LandAstronef{Anchor: hex.Coord{Q: -3, R: 0}}); err != nil {
		t.Fatalf("Act failed: %v", err)
	}
	for _, ev := range evs {
		ev.waitFor(t, protocol.TypeStateUpdate)
	}
	if !waiting.IsMyTurn() {
		t.Error("Expected the turn to pass after landing")
	}
	_, d0 = games[0].State()
	_, d1 = games[1].State()
	if d0 != d1 {
		t.Error("Expected both mirrors to agree after the landing")
	}
}

func TestSessionReconnects(t *testing.T) {
	var conns int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "g:p" {
			http.Error(w, "bad token", http.StatusForbidden)
			return
		}
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		n := atomic.AddInt32(&conns, 1)
		if n == 1 {
			conn.Close(websocket.StatusInternalError, "drop")
			return
		}
		msg, _ := protocol.NewMessage(protocol.TypeRoomState, protocol.RoomStatePayload{GameID: "g"})
		data, _ := protocol.Marshal(protocol.EncodingJSON, msg)
		conn.Write(r.Context(), websocket.MessageText, data)
		// Hold the connection until the client leaves.
		conn.Read(r.Context())
	}))
	defer ts.Close()

	got := make(chan *protocol.Message, 1)
	var disconnects int32
	s := NewSession(SessionConfig{
		URL:       WebSocketURL(ts.URL),
		Token:     "g:p",
		BaseDelay: time.Millisecond,
		MaxDelay:  5 * time.Millisecond,
	}, nil)
	s.OnMessage = func(msg *protocol.Message) { got <- msg }
	s.OnDisconnect = func(error) { atomic.AddInt32(&disconnects, 1) }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case msg := <-got:
		if msg.Type != protocol.TypeRoomState {
			t.Errorf("Expected ROOM_STATE, got %s", msg.Type)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Timed out waiting for the second connection")
	}
	if atomic.LoadInt32(&disconnects) < 1 {
		t.Error("Expected the dropped connection to be reported")
	}
	if !s.IsConnected() {
		t.Error("Expected the session to be connected")
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestSessionRejected(t *testing.T) {
	ts := newTestServer(t)
	_, done := startSession(t, SessionConfig{URL: WebSocketURL(ts.URL), Token: "nope", BaseDelay: time.Millisecond})

	select {
	case err := <-done:
		if !errors.Is(err, ErrRejected) {
			t.Errorf("Expected ErrRejected, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Expected Run to stop on a rejected token")
	}
}

func TestSessionGivesUp(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	addr := strings.TrimPrefix(ts.URL, "http://")
	ts.Close()

	_, done := startSession(t, SessionConfig{
		URL:         WebSocketURL(addr),
		Token:       "g:p",
		MaxAttempts: 2,
		BaseDelay:   time.Millisecond,
		MaxDelay:    2 * time.Millisecond,
	})

	select {
	case err := <-done:
		if !errors.Is(err, ErrGaveUp) {
			t.Errorf("Expected ErrGaveUp, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Expected Run to give up")
	}
}
