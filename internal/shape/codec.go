package shape

import (
	"encoding/json"
	"fmt"
)

// Legacy tags written by earlier clients; they decode into current variants.
const (
	legacyCircle Kind = "circle"
	legacyPencil Kind = "pencil"
)

func (v Rect) MarshalJSON() ([]byte, error) {
	type plain Rect
	return json.Marshal(struct {
		Type Kind `json:"type"`
		plain
	}{KindRect, plain(v)})
}

func (v Ellipse) MarshalJSON() ([]byte, error) {
	type plain Ellipse
	return json.Marshal(struct {
		Type Kind `json:"type"`
		plain
	}{KindEllipse, plain(v)})
}

func (v Line) MarshalJSON() ([]byte, error) {
	type plain Line
	return json.Marshal(struct {
		Type Kind `json:"type"`
		plain
	}{KindLine, plain(v)})
}

func (v Arrow) MarshalJSON() ([]byte, error) {
	type plain Arrow
	return json.Marshal(struct {
		Type Kind `json:"type"`
		plain
	}{KindArrow, plain(v)})
}

func (v Diamond) MarshalJSON() ([]byte, error) {
	type plain Diamond
	return json.Marshal(struct {
		Type Kind `json:"type"`
		plain
	}{KindDiamond, plain(v)})
}

func (v Freehand) MarshalJSON() ([]byte, error) {
	type plain Freehand
	if v.Points == nil {
		v.Points = []Point{}
	}
	return json.Marshal(struct {
		Type Kind `json:"type"`
		plain
	}{KindFreehand, plain(v)})
}

// Marshal encodes s with its type tag.
func Marshal(s Shape) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil", ErrInvalidShape)
	}
	return json.Marshal(s)
}

// Unmarshal decodes a tagged shape and validates it, so malformed or
// non-finite input is rejected here rather than during hit-testing or
// rendering. Every geometry field of the variant must be present. Negative
// extents are folded into the position.
func Unmarshal(data []byte) (Shape, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShape, err)
	}
	var kind Kind
	if raw, ok := fields["type"]; ok {
		if err := json.Unmarshal(raw, &kind); err != nil {
			return nil, fmt.Errorf("%w: type: %v", ErrInvalidShape, err)
		}
	}

	var (
		s   Shape
		err error
	)
	switch kind {
	case KindRect:
		s, err = decodeAs[Rect](data, fields, "x", "y", "width", "height")
	case KindEllipse:
		s, err = decodeAs[Ellipse](data, fields, "centerX", "centerY", "radiusX", "radiusY")
	case KindLine, KindArrow:
		s, err = decodeSegment(kind, data, fields)
	case KindDiamond:
		s, err = decodeAs[Diamond](data, fields, "x", "y", "width", "height")
	case KindFreehand, legacyPencil:
		s, err = decodeAs[Freehand](data, fields, "points")
	case legacyCircle:
		s, err = decodeCircle(data, fields)
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidShape, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidShape, kind, err)
	}
	s = Normalize(s)
	if err := Validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

// requireFields reports the first of keys that is absent or null.
func requireFields(fields map[string]json.RawMessage, keys ...string) error {
	for _, k := range keys {
		raw, ok := fields[k]
		if !ok || string(raw) == "null" {
			return fmt.Errorf("missing field %q", k)
		}
	}
	return nil
}

func decodeAs[T Shape](data []byte, fields map[string]json.RawMessage, keys ...string) (Shape, error) {
	if err := requireFields(fields, keys...); err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// decodeSegment reads a line or arrow. Older clients wrote the endpoints as
// startX/startY/endX/endY.
func decodeSegment(kind Kind, data []byte, fields map[string]json.RawMessage) (Shape, error) {
	_, current := fields["fromX"]
	_, legacy := fields["startX"]
	if current || !legacy {
		if kind == KindArrow {
			return decodeAs[Arrow](data, fields, "fromX", "fromY", "toX", "toY")
		}
		return decodeAs[Line](data, fields, "fromX", "fromY", "toX", "toY")
	}

	if err := requireFields(fields, "startX", "startY", "endX", "endY"); err != nil {
		return nil, err
	}
	var v struct {
		StartX float64 `json:"startX"`
		StartY float64 `json:"startY"`
		EndX   float64 `json:"endX"`
		EndY   float64 `json:"endY"`
		Style
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	if kind == KindArrow {
		return Arrow{FromX: v.StartX, FromY: v.StartY, ToX: v.EndX, ToY: v.EndY, Style: v.Style}, nil
	}
	return Line{FromX: v.StartX, FromY: v.StartY, ToX: v.EndX, ToY: v.EndY, Style: v.Style}, nil
}

func decodeCircle(data []byte, fields map[string]json.RawMessage) (Shape, error) {
	if err := requireFields(fields, "centerX", "centerY", "radius"); err != nil {
		return nil, err
	}
	var c struct {
		CenterX float64 `json:"centerX"`
		CenterY float64 `json:"centerY"`
		Radius  float64 `json:"radius"`
		Style
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return Ellipse{CenterX: c.CenterX, CenterY: c.CenterY, RadiusX: c.Radius, RadiusY: c.Radius, Style: c.Style}, nil
}
