package protocol

import (
	"encoding/json"
	"fmt"

	"RoomBoard/internal/shape"
)

// Envelope is the payload of a chat message. ID lets a client recognise a
// shape it already holds when the server echoes it back; it is optional.
type Envelope struct {
	Shape json.RawMessage `json:"shape"`
	ID    string          `json:"id,omitempty"`
}

// EncodeShape builds the chat payload for s.
func EncodeShape(id string, s shape.Shape) (string, error) {
	raw, err := shape.Marshal(s)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(Envelope{Shape: raw, ID: id})
	if err != nil {
		return "", fmt.Errorf("encoding envelope: %w", err)
	}
	return string(data), nil
}

// DecodeShape parses a chat payload. Invalid shapes are reported as both
// ErrMalformed and shape.ErrInvalidShape.
func DecodeShape(payload string) (string, shape.Shape, error) {
	var env Envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return "", nil, fmt.Errorf("%w: envelope: %v", ErrMalformed, err)
	}
	if len(env.Shape) == 0 {
		return "", nil, fmt.Errorf("%w: envelope has no shape", ErrMalformed)
	}
	s, err := shape.Unmarshal(env.Shape)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return env.ID, s, nil
}
