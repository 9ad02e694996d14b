package server

import (
	"sync"

	"go.uber.org/zap"
)

// Hub maintains the set of active clients.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Register requests
	register chan *Client

	// Unregister requests
	unregister chan *Client

	done      chan struct{}
	closeOnce sync.Once

	mu     sync.RWMutex
	logger *zap.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run starts the hub's main loop. It returns after Close, once every
// client has been dropped.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.handleDisconnect(client)

		case <-h.done:
			h.mu.Lock()
			clients := h.clients
			h.clients = make(map[*Client]bool)
			h.mu.Unlock()
			for client := range clients {
				client.Close()
			}
			return
		}
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Close stops the hub and closes every client.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// Count returns the number of registered clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// handleDisconnect handles a client disconnecting. The room keeps the
// member's seat; only the connection goes away.
func (h *Hub) handleDisconnect(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	delete(h.clients, client)
	h.mu.Unlock()
	if !ok {
		return
	}

	if client.room != nil {
		client.room.Detach(client.MemberID, client)
		h.logger.Info("client disconnected",
			zap.String("room_id", client.room.ID()),
			zap.String("player_id", client.MemberID))
	}
	client.Close()
}
