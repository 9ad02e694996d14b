package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"fullmetal-planet/internal/game"
)

// ==================== Actions ====================

var actionDecoders = map[game.ActionKind]func([]byte) (game.Action, error){
	game.ActionLandAstronef: decodeAs[game.LandAstronef],
	game.ActionDeploy:       decodeAs[game.Deploy],
	game.ActionMove:         decodeAs[game.Move],
	game.ActionFire:         decodeAs[game.Fire],
	game.ActionCapture:      decodeAs[game.Capture],
	game.ActionLoad:         decodeAs[game.Load],
	game.ActionUnload:       decodeAs[game.Unload],
	game.ActionRebuildTower: decodeAs[game.RebuildTower],
	game.ActionLiftOff:      decodeAs[game.LiftOff],
}

func decodeAs[T game.Action](data []byte) (game.Action, error) {
	var a T
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	return a, nil
}

// DecodeAction reads an ACTION payload: the action's fields plus a "type"
// tag naming its kind. Unknown kinds are rejected with invalid_action.
func DecodeAction(data []byte) (game.Action, error) {
	var head struct {
		Type game.ActionKind `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, invalidAction(err.Error())
	}
	decode, ok := actionDecoders[head.Type]
	if !ok {
		return nil, invalidAction(fmt.Sprintf("unknown action type %q", head.Type))
	}
	a, err := decode(data)
	if err != nil {
		return nil, invalidAction(err.Error())
	}
	return a, nil
}

// EncodeAction writes a as an ACTION payload.
func EncodeAction(a game.Action) (json.RawMessage, error) {
	if a == nil {
		return nil, invalidAction("nil action")
	}
	fields, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	tag, _ := json.Marshal(a.Kind())

	var buf bytes.Buffer
	buf.WriteString(`{"type":`)
	buf.Write(tag)
	if len(fields) > 2 {
		buf.WriteByte(',')
		buf.Write(fields[1:])
	} else {
		buf.WriteByte('}')
	}
	return buf.Bytes(), nil
}

func invalidAction(detail string) error {
	return &game.ValidationError{Code: game.CodeInvalidAction, Err: game.ErrInvalidAction, Detail: detail}
}

// ==================== Framing ====================

// Encoding is the frame format of one connection.
type Encoding string

const (
	EncodingJSON    Encoding = "json"
	EncodingMsgpack Encoding = "msgpack"
)

// ParseEncoding maps a query value to an Encoding, defaulting to JSON.
func ParseEncoding(s string) Encoding {
	if s == string(EncodingMsgpack) {
		return EncodingMsgpack
	}
	return EncodingJSON
}

// Binary reports whether frames go out as binary websocket messages.
func (e Encoding) Binary() bool {
	return e == EncodingMsgpack
}

// frame is the msgpack form of Message. The payload is a native msgpack
// value rather than embedded JSON; struct fields use their json names.
type frame struct {
	Type      MessageType `msgpack:"type"`
	ID        string      `msgpack:"id"`
	Timestamp int64       `msgpack:"timestamp"`
	PlayerID  string      `msgpack:"playerId,omitempty"`
	Payload   interface{} `msgpack:"payload"`
}

// Marshal encodes a message for the wire.
func Marshal(enc Encoding, m *Message) ([]byte, error) {
	if enc != EncodingMsgpack {
		return json.Marshal(m)
	}

	payload := m.value
	if _, raw := payload.(json.RawMessage); raw {
		payload = nil
	}
	if payload == nil && len(m.Payload) > 0 {
		if err := json.Unmarshal(m.Payload, &payload); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	e := msgpack.NewEncoder(&buf)
	e.SetCustomStructTag("json")
	e.UseCompactInts(true)
	err := e.Encode(&frame{
		Type:      m.Type,
		ID:        m.ID,
		Timestamp: m.Timestamp,
		PlayerID:  m.PlayerID,
		Payload:   payload,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a message from the wire. A msgpack payload is converted
// to JSON so ParsePayload works the same for both encodings.
func Unmarshal(enc Encoding, data []byte) (*Message, error) {
	if enc != EncodingMsgpack {
		var m Message
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		return &m, nil
	}

	d := msgpack.NewDecoder(bytes.NewReader(data))
	d.SetCustomStructTag("json")
	var f frame
	if err := d.Decode(&f); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(f.Payload)
	if err != nil {
		return nil, fmt.Errorf("payload not representable as JSON: %w", err)
	}
	return &Message{
		Type:      f.Type,
		ID:        f.ID,
		Timestamp: f.Timestamp,
		PlayerID:  f.PlayerID,
		Payload:   raw,
	}, nil
}
