// Package shape holds the drawing primitives shared by every viewer of a room
// and the pure geometry used to build, hit-test and move them.
package shape

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidShape is wrapped by every validation failure.
var ErrInvalidShape = errors.New("invalid shape")

// Kind is the wire tag of a shape variant.
type Kind string

const (
	KindRect     Kind = "rect"
	KindEllipse  Kind = "ellipse"
	KindLine     Kind = "line"
	KindArrow    Kind = "arrow"
	KindDiamond  Kind = "diamond"
	KindFreehand Kind = "freehand"
)

// Point is a position in world (or screen) coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p shifted by (dx, dy).
func (p Point) Add(dx, dy float64) Point { return Point{X: p.X + dx, Y: p.Y + dy} }

// Style carries the rendering attributes common to all shapes.
type Style struct {
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
	StrokeColor string  `json:"strokeColor,omitempty"`
	FillColor   string  `json:"fillColor,omitempty"`
}

// DefaultStyle matches the stroke the board used before styles were synced.
var DefaultStyle = Style{StrokeWidth: 2, StrokeColor: "#e0dfff"}

// Shape is a closed set of variants: Rect, Ellipse, Line, Arrow, Diamond and
// Freehand. Code consuming a Shape switches over all of them.
type Shape interface {
	Kind() Kind
	shape()
}

type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Style
}

type Ellipse struct {
	CenterX float64 `json:"centerX"`
	CenterY float64 `json:"centerY"`
	RadiusX float64 `json:"radiusX"`
	RadiusY float64 `json:"radiusY"`
	Style
}

type Line struct {
	FromX float64 `json:"fromX"`
	FromY float64 `json:"fromY"`
	ToX   float64 `json:"toX"`
	ToY   float64 `json:"toY"`
	Style
}

// Arrow is a line rendered with a head at its To end.
type Arrow struct {
	FromX float64 `json:"fromX"`
	FromY float64 `json:"fromY"`
	ToX   float64 `json:"toX"`
	ToY   float64 `json:"toY"`
	Style
}

// Diamond is the rhombus inscribed in its bounding box.
type Diamond struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Style
}

type Freehand struct {
	Points []Point `json:"points"`
	Style
}

func (Rect) Kind() Kind     { return KindRect }
func (Ellipse) Kind() Kind  { return KindEllipse }
func (Line) Kind() Kind     { return KindLine }
func (Arrow) Kind() Kind    { return KindArrow }
func (Diamond) Kind() Kind  { return KindDiamond }
func (Freehand) Kind() Kind { return KindFreehand }

func (Rect) shape()     {}
func (Ellipse) shape()  {}
func (Line) shape()     {}
func (Arrow) shape()    {}
func (Diamond) shape()  {}
func (Freehand) shape() {}

func unknown(s Shape) string { return fmt.Sprintf("shape: unhandled variant %T", s) }

// StyleOf returns the style of any variant.
func StyleOf(s Shape) Style {
	switch v := s.(type) {
	case Rect:
		return v.Style
	case Ellipse:
		return v.Style
	case Line:
		return v.Style
	case Arrow:
		return v.Style
	case Diamond:
		return v.Style
	case Freehand:
		return v.Style
	}
	panic(unknown(s))
}

// WithStyle returns a copy of s carrying st.
func WithStyle(s Shape, st Style) Shape {
	switch v := s.(type) {
	case Rect:
		v.Style = st
		return v
	case Ellipse:
		v.Style = st
		return v
	case Line:
		v.Style = st
		return v
	case Arrow:
		v.Style = st
		return v
	case Diamond:
		v.Style = st
		return v
	case Freehand:
		v.Points = clonePoints(v.Points)
		v.Style = st
		return v
	}
	panic(unknown(s))
}

// MaxCoord bounds every coordinate, extent and stroke width. Larger values
// cannot be rasterized.
const MaxCoord = 1e9

// Validate reports whether s satisfies the model invariants: finite numbers
// within MaxCoord, non-negative extents and a non-empty freehand stroke.
func Validate(s Shape) error {
	if s == nil {
		return fmt.Errorf("%w: nil", ErrInvalidShape)
	}
	var nums []float64
	switch v := s.(type) {
	case Rect:
		nums = []float64{v.X, v.Y, v.Width, v.Height}
		if v.Width < 0 || v.Height < 0 {
			return fmt.Errorf("%w: rect has negative extent", ErrInvalidShape)
		}
	case Ellipse:
		nums = []float64{v.CenterX, v.CenterY, v.RadiusX, v.RadiusY}
		if v.RadiusX < 0 || v.RadiusY < 0 {
			return fmt.Errorf("%w: ellipse has negative radius", ErrInvalidShape)
		}
	case Line:
		nums = []float64{v.FromX, v.FromY, v.ToX, v.ToY}
	case Arrow:
		nums = []float64{v.FromX, v.FromY, v.ToX, v.ToY}
	case Diamond:
		nums = []float64{v.X, v.Y, v.Width, v.Height}
		if v.Width < 0 || v.Height < 0 {
			return fmt.Errorf("%w: diamond has negative extent", ErrInvalidShape)
		}
	case Freehand:
		if len(v.Points) == 0 {
			return fmt.Errorf("%w: freehand has no points", ErrInvalidShape)
		}
		for _, p := range v.Points {
			nums = append(nums, p.X, p.Y)
		}
	default:
		panic(unknown(s))
	}
	st := StyleOf(s)
	nums = append(nums, st.StrokeWidth)
	for _, n := range nums {
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return fmt.Errorf("%w: %s has a non-finite value", ErrInvalidShape, s.Kind())
		}
		if math.Abs(n) > MaxCoord {
			return fmt.Errorf("%w: %s has a value out of range", ErrInvalidShape, s.Kind())
		}
	}
	if st.StrokeWidth < 0 {
		return fmt.Errorf("%w: negative stroke width", ErrInvalidShape)
	}
	return nil
}

func clonePoints(pts []Point) []Point {
	out := make([]Point, len(pts))
	copy(out, pts)
	return out
}
