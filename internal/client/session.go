package client

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"fullmetal-planet/internal/protocol"
)

var (
	// ErrSendBufferFull is returned when too many messages wait for a
	// connection.
	ErrSendBufferFull = errors.New("send buffer full")

	// ErrGaveUp is returned by Run once MaxAttempts reconnects have failed.
	ErrGaveUp = errors.New("gave up reconnecting")

	// ErrRejected is returned by Run when the server refuses the token.
	ErrRejected = errors.New("server rejected the session")
)

// SessionConfig describes one member's realtime connection.
type SessionConfig struct {
	// URL is the websocket endpoint, e.g. ws://localhost:30000/ws.
	URL      string
	Token    string
	Encoding protocol.Encoding

	// Reconnect policy. Attempts count consecutive failures and reset after
	// every successful connection.
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration

	PingPeriod  time.Duration
	DialTimeout time.Duration
}

func (c *SessionConfig) setDefaults() {
	if c.Encoding == "" {
		c.Encoding = protocol.EncodingJSON
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 8
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = 500 * time.Millisecond
	}
	if c.MaxDelay < c.BaseDelay {
		c.MaxDelay = 30 * time.Second
	}
	if c.PingPeriod <= 0 {
		c.PingPeriod = 30 * time.Second
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 10 * time.Second
	}
}

// Session keeps a websocket connection to a room open, reconnecting with
// exponential backoff when it drops. Messages sent while disconnected wait
// in the send buffer.
type Session struct {
	cfg    SessionConfig
	logger *zap.Logger
	send   chan *protocol.Message
	rnd    *rand.Rand

	mu        sync.Mutex
	connected bool

	// Callbacks. They run on the read goroutine.
	OnMessage    func(*protocol.Message)
	OnConnect    func()
	OnDisconnect func(error)
}

// NewSession creates a session. Nothing is dialed until Run.
func NewSession(cfg SessionConfig, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.setDefaults()
	return &Session{
		cfg:    cfg,
		logger: logger,
		send:   make(chan *protocol.Message, 64),
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// IsConnected returns true while a connection is up.
func (s *Session) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Send queues a message to be sent to the server.
func (s *Session) Send(msg *protocol.Message) error {
	select {
	case s.send <- msg:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// SendPayload creates and sends a message with the given type and payload.
// It returns the message so callers can match the reply id.
func (s *Session) SendPayload(msgType protocol.MessageType, payload interface{}) (*protocol.Message, error) {
	msg, err := protocol.NewMessage(msgType, payload)
	if err != nil {
		return nil, err
	}
	return msg, s.Send(msg)
}

// Run connects and serves until ctx is done, the server rejects the token,
// or MaxAttempts consecutive reconnects fail.
func (s *Session) Run(ctx context.Context) error {
	attempt := 0
	for {
		established, err := s.serve(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, ErrRejected) {
			return err
		}
		if established {
			attempt = 0
		}
		attempt++
		if attempt > s.cfg.MaxAttempts {
			return fmt.Errorf("%w after %d attempts: %v", ErrGaveUp, s.cfg.MaxAttempts, err)
		}

		delay := Backoff(attempt, s.cfg.BaseDelay, s.cfg.MaxDelay, s.rnd)
		s.logger.Info("reconnecting",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// serve runs one connection. It reports whether the connection was
// established before it ended.
func (s *Session) serve(ctx context.Context) (bool, error) {
	target, err := s.dialURL()
	if err != nil {
		return false, err
	}

	dialCtx, cancel := context.WithTimeout(ctx, s.cfg.DialTimeout)
	conn, resp, err := websocket.Dial(dialCtx, target, nil)
	cancel()
	if err != nil {
		if resp != nil {
			switch resp.StatusCode {
			case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
				return false, fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
			}
		}
		return false, err
	}
	conn.SetReadLimit(1 << 20)

	s.setConnected(true)
	s.logger.Debug("websocket connected", zap.String("url", s.cfg.URL))
	if s.OnConnect != nil {
		s.OnConnect()
	}

	connCtx, stop := context.WithCancel(ctx)
	writeErr := make(chan error, 1)
	go func() {
		err := s.writePump(connCtx, conn)
		stop()
		writeErr <- err
	}()

	err = s.readPump(connCtx, conn)
	stop()
	if werr := <-writeErr; err == nil {
		err = werr
	}
	conn.Close(websocket.StatusNormalClosure, "")

	s.setConnected(false)
	if s.OnDisconnect != nil {
		s.OnDisconnect(err)
	}
	return true, err
}

func (s *Session) setConnected(v bool) {
	s.mu.Lock()
	s.connected = v
	s.mu.Unlock()
}

// dialURL adds the token and encoding to the endpoint.
func (s *Session) dialURL() (string, error) {
	u, err := url.Parse(s.cfg.URL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", s.cfg.Token)
	if s.cfg.Encoding != protocol.EncodingJSON {
		q.Set("encoding", string(s.cfg.Encoding))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// readPump reads messages from the WebSocket. A PING is answered here.
func (s *Session) readPump(ctx context.Context, conn *websocket.Conn) error {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				return nil
			}
			return err
		}

		msg, err := protocol.Unmarshal(s.cfg.Encoding, data)
		if err != nil {
			s.logger.Warn("failed to unmarshal message", zap.Error(err))
			continue
		}
		if msg.Type == protocol.TypePing {
			s.SendPayload(protocol.TypePong, struct{}{})
			continue
		}
		if s.OnMessage != nil {
			s.OnMessage(msg)
		}
	}
}

// writePump writes queued messages and pings the server.
func (s *Session) writePump(ctx context.Context, conn *websocket.Conn) error {
	ticker := time.NewTicker(s.cfg.PingPeriod)
	defer ticker.Stop()

	frameType := websocket.MessageText
	if s.cfg.Encoding.Binary() {
		frameType = websocket.MessageBinary
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case msg := <-s.send:
			data, err := protocol.Marshal(s.cfg.Encoding, msg)
			if err != nil {
				s.logger.Error("failed to marshal message", zap.String("type", string(msg.Type)), zap.Error(err))
				continue
			}
			wctx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err = conn.Write(wctx, frameType, data)
			cancel()
			if err != nil {
				// Keep the message for the next connection.
				s.requeue(msg)
				return err
			}

		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err := conn.Ping(pctx)
			cancel()
			if err != nil {
				return err
			}
		}
	}
}

func (s *Session) requeue(msg *protocol.Message) {
	select {
	case s.send <- msg:
	default:
		s.logger.Warn("dropping message after write failure", zap.String("type", string(msg.Type)))
	}
}

// Backoff returns the delay before reconnect attempt n (from 1): base
// doubled per attempt, capped at max, then jittered into [d/2, d].
func Backoff(attempt int, base, max time.Duration, rnd *rand.Rand) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := base
	for i := 1; i < attempt && d < max; i++ {
		d *= 2
	}
	if d > max {
		d = max
	}
	half := d / 2
	if half <= 0 {
		return d
	}
	var jitter int64
	if rnd != nil {
		jitter = rnd.Int63n(int64(half) + 1)
	} else {
		jitter = rand.Int63n(int64(half) + 1)
	}
	return half + time.Duration(jitter)
}

// WebSocketURL maps a server address to its websocket endpoint. Cloud hosts
// and explicit wss:// addresses use a secure socket on the default port.
func WebSocketURL(serverAddr string) string {
	if secureHost(serverAddr) {
		return "wss://" + stripPort(trimScheme(serverAddr)) + "/ws"
	}
	return "ws://" + trimScheme(serverAddr) + "/ws"
}

// HTTPURL maps a server address to the base of its HTTP API.
func HTTPURL(serverAddr string) string {
	if secureHost(serverAddr) {
		return "https://" + stripPort(trimScheme(serverAddr))
	}
	return "http://" + trimScheme(serverAddr)
}

func secureHost(addr string) bool {
	return strings.Contains(addr, ".onrender.com") ||
		strings.Contains(addr, ".herokuapp.com") ||
		strings.Contains(addr, ".fly.dev") ||
		strings.HasPrefix(addr, "wss://") ||
		strings.HasPrefix(addr, "https://")
}

func trimScheme(addr string) string {
	for _, p := range []string{"wss://", "ws://", "https://", "http://"} {
		addr = strings.TrimPrefix(addr, p)
	}
	return strings.TrimSuffix(addr, "/")
}

func stripPort(host string) string {
	if i := strings.LastIndex(host, ":"); i != -1 {
		return host[:i]
	}
	return host
}
