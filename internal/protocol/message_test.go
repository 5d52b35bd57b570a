package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RoomBoard/internal/shape"
)

func TestParseValidMessages(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Message
	}{
		{"join", `{"type":"join_room","roomId":"R1"}`, Join("R1")},
		{"leave", `{"type":"leave_room","roomId":"R1"}`, Leave("R1")},
		{"numeric room", `{"type":"join_room","roomId":42}`, Join("42")},
		{"chat", `{"type":"chat","roomId":"R1","message":"{}"}`, Chat("R1", "{}")},
		{"empty chat payload", `{"type":"chat","roomId":"R1","message":""}`, Chat("R1", "")},
		{"error", `{"type":"error","roomId":"R1","message":"store down"}`, Error("R1", "store down")},
		{"extra fields", `{"type":"join_room","roomId":"R1","userId":"u"}`, Join("R1")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, in := range []string{
		``,
		`not json`,
		`[]`,
		`{"roomId":"R1"}`,
		`{"type":"shout","roomId":"R1"}`,
		`{"type":"join_room"}`,
		`{"type":"join_room","roomId":null}`,
		`{"type":"join_room","roomId":""}`,
		`{"type":"join_room","roomId":true}`,
		`{"type":"chat","roomId":"R1"}`,
		`{"type":"chat","roomId":"R1","message":7}`,
	} {
		_, err := Parse([]byte(in))
		assert.ErrorIs(t, err, ErrMalformed, in)
	}
}

func TestEncodeUsesWireNames(t *testing.T) {
	data, err := Chat("R1", `{"shape":{}}`).Encode()
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, map[string]any{"type": "chat", "roomId": "R1", "message": `{"shape":{}}`}, raw)

	data, err = Join("R2").Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"join_room","roomId":"R2"}`, string(data))
}

func TestShapeEnvelope(t *testing.T) {
	r := shape.Rect{X: 10, Y: 10, Width: 100, Height: 50}
	payload, err := EncodeShape("abc", r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"abc","shape":{"type":"rect","x":10,"y":10,"width":100,"height":50}}`, payload)

	id, got, err := DecodeShape(payload)
	require.NoError(t, err)
	assert.Equal(t, "abc", id)
	assert.Equal(t, r, got)
}

func TestShapeEnvelopeWithoutID(t *testing.T) {
	id, got, err := DecodeShape(`{"shape":{"type":"line","fromX":0,"fromY":0,"toX":3,"toY":4}}`)
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.Equal(t, shape.Line{ToX: 3, ToY: 4}, got)
}

func TestDecodeShapeRejectsBadPayloads(t *testing.T) {
	for _, in := range []string{
		``,
		`{}`,
		`{"shape":null}`,
		`{"shape":{"type":"hexagon"}}`,
		`{"shape":{"type":"rect","x":1,"y":1,"width":5}}`,
		`{"shape":{"type":"freehand","points":[]}}`,
		`"just a string"`,
	} {
		_, _, err := DecodeShape(in)
		assert.ErrorIs(t, err, ErrMalformed, in)
	}

	_, _, err := DecodeShape(`{"shape":{"type":"ellipse","centerX":0,"centerY":0,"radiusX":1e300,"radiusY":1}}`)
	assert.ErrorIs(t, err, shape.ErrInvalidShape)
}

func TestEncodeShapeRejectsNil(t *testing.T) {
	_, err := EncodeShape("x", nil)
	assert.ErrorIs(t, err, shape.ErrInvalidShape)
}
