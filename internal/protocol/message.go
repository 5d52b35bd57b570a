// Package protocol defines the JSON messages exchanged between board clients
// and the room server.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformed is wrapped by every decode failure of a wire message or of a
// shape envelope.
var ErrMalformed = errors.New("malformed message")

// Type is the discriminator of a wire message.
type Type string

const (
	TypeJoinRoom  Type = "join_room"
	TypeLeaveRoom Type = "leave_room"
	TypeChat      Type = "chat"
	// TypeError is sent by the server to a publisher whose shape could not be
	// stored. It is never fanned out.
	TypeError Type = "error"
)

// Message is one frame on the connection. Message carries a shape envelope
// for chat frames and a reason for error frames.
type Message struct {
	Type    Type   `json:"type"`
	RoomID  string `json:"roomId"`
	Message string `json:"message,omitempty"`
}

func Join(roomID string) Message  { return Message{Type: TypeJoinRoom, RoomID: roomID} }
func Leave(roomID string) Message { return Message{Type: TypeLeaveRoom, RoomID: roomID} }

func Chat(roomID, envelope string) Message {
	return Message{Type: TypeChat, RoomID: roomID, Message: envelope}
}

func Error(roomID, reason string) Message {
	return Message{Type: TypeError, RoomID: roomID, Message: reason}
}

// Encode returns the JSON form of m.
func (m Message) Encode() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding %s message: %w", m.Type, err)
	}
	return data, nil
}

// wireMessage accepts a numeric roomId as older clients send one.
type wireMessage struct {
	Type    Type            `json:"type"`
	RoomID  json.RawMessage `json:"roomId"`
	Message *string         `json:"message"`
}

// Parse decodes and checks a frame. Unknown types, a missing room id and a
// chat frame without a payload are all malformed.
func Parse(data []byte) (Message, error) {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	room, err := roomID(w.RoomID)
	if err != nil {
		return Message{}, err
	}
	m := Message{Type: w.Type, RoomID: room}
	if w.Message != nil {
		m.Message = *w.Message
	}

	switch m.Type {
	case TypeJoinRoom, TypeLeaveRoom:
	case TypeChat, TypeError:
		if w.Message == nil {
			return Message{}, fmt.Errorf("%w: %s without message", ErrMalformed, m.Type)
		}
	case "":
		return Message{}, fmt.Errorf("%w: missing type", ErrMalformed)
	default:
		return Message{}, fmt.Errorf("%w: unknown type %q", ErrMalformed, m.Type)
	}
	return m, nil
}

func roomID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", fmt.Errorf("%w: missing roomId", ErrMalformed)
	}
	var id string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &id); err != nil {
			return "", fmt.Errorf("%w: roomId: %v", ErrMalformed, err)
		}
	} else {
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", fmt.Errorf("%w: roomId must be a string or number", ErrMalformed)
		}
		id = n.String()
	}
	if id == "" {
		return "", fmt.Errorf("%w: empty roomId", ErrMalformed)
	}
	return id, nil
}
