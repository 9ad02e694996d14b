// Package server implements the Full Metal Planète game server: the HTTP
// bootstrap API and the realtime websocket transport in front of the rooms.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"fullmetal-planet/internal/protocol"
	"fullmetal-planet/internal/room"
)

// Server is the main game server.
type Server struct {
	rooms    *room.Manager
	hub      *Hub
	upgrader websocket.Upgrader
	cfg      Config
	server   *http.Server
	logger   *zap.Logger
}

// Config holds server configuration.
type Config struct {
	Addr string

	// PongWait is how long a connection may stay silent; PingPeriod must be
	// shorter.
	PongWait   time.Duration
	PingPeriod time.Duration

	// Inbound messages per second and burst, per connection.
	RateLimit rate.Limit
	Burst     int
}

func (c *Config) setDefaults() {
	if c.PongWait <= 0 {
		c.PongWait = 60 * time.Second
	}
	if c.PingPeriod <= 0 || c.PingPeriod >= c.PongWait {
		c.PingPeriod = (c.PongWait * 9) / 10
	}
	if c.RateLimit <= 0 {
		c.RateLimit = 20
	}
	if c.Burst <= 0 {
		c.Burst = 40
	}
}

// New creates a new server over a room manager.
func New(cfg Config, rooms *room.Manager, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.setDefaults()

	s := &Server{
		rooms:  rooms,
		cfg:    cfg,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for now
			},
		},
	}
	s.hub = NewHub(logger)
	go s.hub.Run()
	return s
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// WebSocket endpoint
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Bootstrap API
	mux.HandleFunc("POST /games", s.handleCreateGame)
	mux.HandleFunc("GET /games", s.handleListGames)
	mux.HandleFunc("GET /games/{id}", s.handleGetGame)
	mux.HandleFunc("POST /games/{id}/join", s.handleJoinGame)
	mux.HandleFunc("POST /games/{id}/spectate", s.handleSpectateGame)
	mux.HandleFunc("GET /games/{id}/history", s.handleHistory)
	mux.HandleFunc("GET /maps", s.handleListMaps)

	return mux
}

// Start starts the server.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("Full Metal Planète server listening",
		zap.String("addr", s.cfg.Addr),
		zap.String("websocket", "ws://localhost"+s.cfg.Addr+"/ws"))

	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server and drops every connection.
func (s *Server) Stop(ctx context.Context) error {
	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}
	s.hub.Close()
	return err
}

// handleWebSocket checks the member token and upgrades the connection.
// The query carries token and, optionally, encoding=msgpack.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusUnauthorized, protocol.ErrCodeNotAuthenticated, "token required")
		return
	}
	rm, memberID, spectator, err := s.rooms.Resolve(token)
	if err != nil {
		s.writeRoomError(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(s, conn, protocol.ParseEncoding(r.URL.Query().Get("encoding")))
	client.room = rm
	client.MemberID = memberID
	client.Spectator = spectator

	// Attach before the pumps run so a connection dropping right away is
	// detached again by the read pump.
	if err := rm.Attach(memberID, client); err != nil {
		s.logger.Warn("attach failed", zap.String("room_id", rm.ID()), zap.Error(err))
		conn.Close()
		return
	}
	s.hub.Register(client)

	// Start client goroutines
	go client.WritePump()
	go client.ReadPump()

	s.logger.Info("client connected",
		zap.String("room_id", rm.ID()),
		zap.String("player_id", memberID),
		zap.Bool("spectator", spectator),
		zap.String("encoding", string(client.encoding)))
}
