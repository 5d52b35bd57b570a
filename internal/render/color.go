package render

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"RoomBoard/internal/shape"
)

// Background is the board color behind every shape.
var Background = color.NRGBA{R: 0x12, G: 0x12, B: 0x12, A: 0xff}

// Named colors accepted in styles besides hex notation.
var named = map[string]color.NRGBA{
	"black":       {A: 0xff},
	"white":       {R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	"red":         {R: 0xff, A: 0xff},
	"green":       {G: 0xff, A: 0xff},
	"blue":        {B: 0xff, A: 0xff},
	"yellow":      {R: 0xff, G: 0xff, A: 0xff},
	"gray":        {R: 0x80, G: 0x80, B: 0x80, A: 0xff},
	"transparent": {},
}

// ParseColor accepts #rgb, #rrggbb, #rrggbbaa and the named colors.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := named[s]; ok {
		return c, nil
	}
	hex, ok := strings.CutPrefix(s, "#")
	if !ok {
		return color.NRGBA{}, fmt.Errorf("unknown color %q", s)
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("bad hex color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("bad hex color %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// StrokeColor resolves the stroke of st, falling back to the default stroke
// when it is empty or unparsable. Dimmed ops get half the alpha.
func StrokeColor(st shape.Style, dim bool) color.NRGBA {
	c, err := ParseColor(st.StrokeColor)
	if err != nil {
		c, _ = ParseColor(shape.DefaultStyle.StrokeColor)
	}
	return dimmed(c, dim)
}

// FillColor resolves the fill of st. It reports false when the shape is not
// filled.
func FillColor(st shape.Style, dim bool) (color.NRGBA, bool) {
	if st.FillColor == "" {
		return color.NRGBA{}, false
	}
	c, err := ParseColor(st.FillColor)
	if err != nil || c.A == 0 {
		return color.NRGBA{}, false
	}
	return dimmed(c, dim), true
}

func dimmed(c color.NRGBA, dim bool) color.NRGBA {
	if dim {
		c.A /= 2
	}
	return c
}
