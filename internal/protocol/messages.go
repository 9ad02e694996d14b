// Package protocol defines the network message types for client-server communication.
package protocol

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// MessageType identifies the type of message.
type MessageType string

// Inbound message types (client to server)
const (
	TypeReady           MessageType = "READY"
	TypeAction          MessageType = "ACTION"
	TypeEndTurn         MessageType = "END_TURN"
	TypeLiftOffDecision MessageType = "LIFTOFF_DECISION"
	TypeSyncRequest     MessageType = "SYNC_REQUEST"
	TypePong            MessageType = "PONG"
)

// Room membership message types
const (
	TypePlayerJoined       MessageType = "PLAYER_JOINED"
	TypePlayerLeft         MessageType = "PLAYER_LEFT"
	TypePlayerReconnected  MessageType = "PLAYER_RECONNECTED"
	TypePlayerDisconnected MessageType = "PLAYER_DISCONNECTED"
	TypePlayerReady        MessageType = "PLAYER_READY"
	TypeSpectatorJoined    MessageType = "SPECTATOR_JOINED"
	TypeRoomState          MessageType = "ROOM_STATE"
)

// Game flow message types
const (
	TypeGameStart                MessageType = "GAME_START"
	TypeStateUpdate              MessageType = "STATE_UPDATE"
	TypeTurnEnd                  MessageType = "TURN_END"
	TypeLiftOffDecisionAck       MessageType = "LIFTOFF_DECISION_ACK"
	TypeLiftOffDecisionsRevealed MessageType = "LIFTOFF_DECISIONS_REVEALED"
	TypeGameEnd                  MessageType = "GAME_END"
)

// System message types
const (
	TypeError MessageType = "ERROR"
	TypePing  MessageType = "PING"
)

// Message is the envelope for all messages.
type Message struct {
	Type      MessageType     `json:"type"`
	ID        string          `json:"id"`
	Timestamp int64           `json:"timestamp"`
	PlayerID  string          `json:"playerId,omitempty"`
	Payload   json.RawMessage `json:"payload"`

	// value is the payload before encoding, kept for binary framing.
	value interface{}
}

// NewMessage creates a new message with the given type and payload.
func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      msgType,
		ID:        uuid.New().String(),
		Timestamp: time.Now().UnixMilli(),
		Payload:   data,
		value:     payload,
	}, nil
}

// From sets the player the message is about and returns the message.
func (m *Message) From(playerID string) *Message {
	m.PlayerID = playerID
	return m
}

// ParsePayload unmarshals the payload into the given type.
func (m *Message) ParsePayload(v interface{}) error {
	if len(m.Payload) == 0 {
		return json.Unmarshal([]byte("{}"), v)
	}
	return json.Unmarshal(m.Payload, v)
}

// ErrorCode represents an error type. Game rejections reuse the engine's
// codes (see game.Code); the rest come from the room and transport layers.
type ErrorCode string

const (
	ErrCodeInvalidAction    ErrorCode = "invalid_action"
	ErrCodeNotYourTurn      ErrorCode = "not_your_turn"
	ErrCodeBadMessage       ErrorCode = "bad_message"
	ErrCodeUnknownType      ErrorCode = "unknown_type"
	ErrCodeGameNotFound     ErrorCode = "game_not_found"
	ErrCodeRoomFull         ErrorCode = "room_full"
	ErrCodeAlreadyJoined    ErrorCode = "already_joined"
	ErrCodeWrongState       ErrorCode = "wrong_state"
	ErrCodeNotMember        ErrorCode = "not_member"
	ErrCodeSpectator        ErrorCode = "spectator"
	ErrCodeRateLimited      ErrorCode = "rate_limited"
	ErrCodeNotAuthenticated ErrorCode = "not_authenticated"
	ErrCodeInternalError    ErrorCode = "internal_error"
)

// ErrorPayload is the payload for error messages.
type ErrorPayload struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// NewError builds an ERROR message.
func NewError(code ErrorCode, message string) *Message {
	msg, _ := NewMessage(TypeError, ErrorPayload{Code: code, Message: message})
	return msg
}
