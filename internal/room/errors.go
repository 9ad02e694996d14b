package room

import (
	"errors"

	"fullmetal-planet/internal/game"
	"fullmetal-planet/internal/protocol"
)

// Room errors
var (
	ErrNotFound      = errors.New("room not found")
	ErrRoomFull      = errors.New("room is full")
	ErrAlreadyJoined = errors.New("already in room")
	ErrWrongState    = errors.New("not allowed in current room state")
	ErrNotMember     = errors.New("not a member of this room")
	ErrSpectator     = errors.New("spectators cannot act")
	ErrInvalidToken  = errors.New("invalid token")
	ErrUnknownMap    = errors.New("unknown map")
)

// ErrorCode maps an error from a room operation to the code sent to the
// client in an ERROR message.
func ErrorCode(err error) protocol.ErrorCode {
	var ve *game.ValidationError
	switch {
	case errors.As(err, &ve):
		return protocol.ErrorCode(ve.Code)
	case errors.Is(err, ErrNotFound):
		return protocol.ErrCodeGameNotFound
	case errors.Is(err, ErrRoomFull):
		return protocol.ErrCodeRoomFull
	case errors.Is(err, ErrAlreadyJoined):
		return protocol.ErrCodeAlreadyJoined
	case errors.Is(err, ErrWrongState):
		return protocol.ErrCodeWrongState
	case errors.Is(err, ErrNotMember), errors.Is(err, ErrInvalidToken):
		return protocol.ErrCodeNotMember
	case errors.Is(err, ErrSpectator):
		return protocol.ErrCodeSpectator
	case errors.Is(err, ErrUnknownMap):
		return protocol.ErrCodeBadMessage
	}
	return protocol.ErrCodeInternalError
}
