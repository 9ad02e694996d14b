package server

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"fullmetal-planet/internal/protocol"
	"fullmetal-planet/internal/room"
)

var errClientGone = errors.New("client connection closed")

// Client represents a connected WebSocket client. It is the room.Conn of
// one member.
type Client struct {
	server   *Server
	conn     *websocket.Conn
	send     chan *protocol.Message
	done     chan struct{}
	once     sync.Once
	encoding protocol.Encoding
	limiter  *rate.Limiter

	room      *room.Room
	MemberID  string
	Spectator bool
}

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 65536
	sendBuffer     = 256
)

// NewClient creates a new client.
func NewClient(s *Server, conn *websocket.Conn, enc protocol.Encoding) *Client {
	return &Client{
		server:   s,
		conn:     conn,
		send:     make(chan *protocol.Message, sendBuffer),
		done:     make(chan struct{}),
		encoding: enc,
		limiter:  rate.NewLimiter(s.cfg.RateLimit, s.cfg.Burst),
	}
}

// Send queues a message to be sent to the client. It never blocks: a client
// too slow to drain its queue is disconnected.
func (c *Client) Send(msg *protocol.Message) error {
	select {
	case <-c.done:
		return errClientGone
	default:
	}
	select {
	case c.send <- msg:
		return nil
	default:
		// Channel full, client too slow
		c.Close()
		return errClientGone
	}
}

// Close drops the connection. The read pump then unregisters the client.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// ReadPump pumps messages from the WebSocket to the room.
func (c *Client) ReadPump() {
	defer func() {
		c.server.hub.Unregister(c)
		c.Close()
	}()

	pongWait := c.server.cfg.PongWait
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	handlers := NewHandlers(c.server)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.server.logger.Debug("websocket error", zap.String("player_id", c.MemberID), zap.Error(err))
			}
			break
		}
		// Any traffic proves the peer is alive.
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		msg, err := protocol.Unmarshal(c.encoding, data)
		if err != nil {
			c.Send(protocol.NewError(protocol.ErrCodeBadMessage, "invalid message"))
			continue
		}
		if !c.limiter.Allow() {
			reply := protocol.NewError(protocol.ErrCodeRateLimited, "too many messages")
			reply.ID = msg.ID
			c.Send(reply)
			continue
		}

		handlers.Handle(c, msg)
	}
}

// WritePump pumps queued messages to the WebSocket and keeps the heartbeat:
// a websocket ping plus a PING message every ping period.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.server.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	frameType := websocket.TextMessage
	if c.encoding.Binary() {
		frameType = websocket.BinaryMessage
	}

	write := func(msg *protocol.Message) error {
		data, err := protocol.Marshal(c.encoding, msg)
		if err != nil {
			c.server.logger.Error("failed to marshal message", zap.String("type", string(msg.Type)), zap.Error(err))
			return nil
		}
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		return c.conn.WriteMessage(frameType, data)
	}

	for {
		select {
		case msg := <-c.send:
			if err := write(msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			ping, _ := protocol.NewMessage(protocol.TypePing, struct{}{})
			if err := write(ping); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
