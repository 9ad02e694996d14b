package server

import (
	"errors"

	"go.uber.org/zap"

	"fullmetal-planet/internal/protocol"
	"fullmetal-planet/internal/room"
)

var errUnknownType = errors.New("unknown message type")

// Handlers processes incoming realtime messages.
type Handlers struct {
	server *Server
}

// NewHandlers creates a new handler set.
func NewHandlers(s *Server) *Handlers {
	return &Handlers{server: s}
}

// Handle routes a message to the client's room. A rejected message is
// answered with an ERROR to this client only.
func (h *Handlers) Handle(client *Client, msg *protocol.Message) {
	var err error

	switch msg.Type {
	case protocol.TypeReady:
		err = h.handleReady(client, msg)
	case protocol.TypeAction:
		err = h.handleAction(client, msg)
	case protocol.TypeEndTurn:
		err = h.handleEndTurn(client, msg)
	case protocol.TypeLiftOffDecision:
		err = h.handleLiftOffDecision(client, msg)
	case protocol.TypeSyncRequest:
		err = client.room.Sync(client.MemberID)
	case protocol.TypePong:
		// Heartbeat reply; the read deadline has already moved.
	default:
		err = errUnknownType
	}

	if err != nil {
		h.sendError(client, msg.ID, err)
	}
}

func (h *Handlers) handleReady(client *Client, msg *protocol.Message) error {
	var payload protocol.ReadyPayload
	if err := msg.ParsePayload(&payload); err != nil {
		return badMessage{err}
	}
	return client.room.SetReady(client.MemberID, payload.Ready)
}

func (h *Handlers) handleAction(client *Client, msg *protocol.Message) error {
	if client.Spectator {
		return room.ErrSpectator
	}
	action, err := protocol.DecodeAction(msg.Payload)
	if err != nil {
		return err
	}
	return client.room.HandleAction(client.MemberID, action)
}

func (h *Handlers) handleEndTurn(client *Client, msg *protocol.Message) error {
	var payload protocol.EndTurnPayload
	if err := msg.ParsePayload(&payload); err != nil {
		return badMessage{err}
	}
	return client.room.EndTurn(client.MemberID, payload.SavedAP)
}

func (h *Handlers) handleLiftOffDecision(client *Client, msg *protocol.Message) error {
	var payload protocol.LiftOffDecisionPayload
	if err := msg.ParsePayload(&payload); err != nil {
		return badMessage{err}
	}
	return client.room.LiftOffDecision(client.MemberID, payload.Decision)
}

// sendError answers a request with an ERROR carrying the request id.
func (h *Handlers) sendError(client *Client, requestID string, err error) {
	code := errorCode(err)
	if code == protocol.ErrCodeInternalError {
		h.server.logger.Error("message failed",
			zap.String("room_id", client.room.ID()),
			zap.String("player_id", client.MemberID),
			zap.Error(err))
	}
	msg := protocol.NewError(code, err.Error())
	msg.ID = requestID
	client.Send(msg)
}

// badMessage marks a payload that could not be parsed.
type badMessage struct{ err error }

func (e badMessage) Error() string { return "bad payload: " + e.err.Error() }
func (e badMessage) Unwrap() error { return e.err }

// errorCode extends room.ErrorCode with the transport's own failures.
func errorCode(err error) protocol.ErrorCode {
	var bad badMessage
	switch {
	case errors.Is(err, errUnknownType):
		return protocol.ErrCodeUnknownType
	case errors.As(err, &bad):
		return protocol.ErrCodeBadMessage
	}
	return room.ErrorCode(err)
}
