package shape

import (
	"fmt"
	"math"
)

// DefaultTolerance is the hit distance, in pixels, for line-like shapes.
const DefaultTolerance = 5.0

// boundaryEps absorbs floating error for points lying exactly on an outline.
const boundaryEps = 1e-9

// Tool is the active interaction mode of a client.
type Tool string

const (
	ToolCursor   Tool = "cursor"
	ToolHand     Tool = "hand"
	ToolRect     Tool = "rect"
	ToolEllipse  Tool = "ellipse"
	ToolLine     Tool = "line"
	ToolArrow    Tool = "arrow"
	ToolDiamond  Tool = "diamond"
	ToolFreehand Tool = "freehand"
)

// Tools lists every tool in toolbar order.
var Tools = []Tool{ToolCursor, ToolHand, ToolRect, ToolEllipse, ToolLine, ToolArrow, ToolDiamond, ToolFreehand}

// ParseTool maps a tool name to a Tool.
func ParseTool(name string) (Tool, error) {
	for _, t := range Tools {
		if string(t) == name {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tool %q", name)
}

// Draws reports whether the tool produces shapes.
func (t Tool) Draws() bool { return t != ToolCursor && t != ToolHand && t != "" }

// Box is an axis-aligned bounding box.
type Box struct {
	MinX, MinY, MaxX, MaxY float64
}

// Union returns the smallest box holding b and o.
func (b Box) Union(o Box) Box {
	return Box{
		MinX: math.Min(b.MinX, o.MinX),
		MinY: math.Min(b.MinY, o.MinY),
		MaxX: math.Max(b.MaxX, o.MaxX),
		MaxY: math.Max(b.MaxY, o.MaxY),
	}
}

func (b Box) Width() float64  { return b.MaxX - b.MinX }
func (b Box) Height() float64 { return b.MaxY - b.MinY }

// Construct builds the shape a drag from start to end produces with tool.
// It returns false for tools that do not draw. Zero-length drags still yield
// a valid zero-extent shape.
func Construct(tool Tool, start, end Point, style Style) (Shape, bool) {
	dx, dy := end.X-start.X, end.Y-start.Y
	switch tool {
	case ToolRect:
		return Normalize(Rect{X: start.X, Y: start.Y, Width: dx, Height: dy, Style: style}), true
	case ToolDiamond:
		return Normalize(Diamond{X: start.X, Y: start.Y, Width: dx, Height: dy, Style: style}), true
	case ToolEllipse:
		return Ellipse{CenterX: start.X, CenterY: start.Y, RadiusX: math.Abs(dx), RadiusY: math.Abs(dy), Style: style}, true
	case ToolLine:
		return Line{FromX: start.X, FromY: start.Y, ToX: end.X, ToY: end.Y, Style: style}, true
	case ToolArrow:
		return Arrow{FromX: start.X, FromY: start.Y, ToX: end.X, ToY: end.Y, Style: style}, true
	case ToolFreehand:
		return Freehand{Points: []Point{start, end}, Style: style}, true
	}
	return nil, false
}

// NewFreehand builds a stroke from sampled points. The slice is copied.
func NewFreehand(points []Point, style Style) Freehand {
	return Freehand{Points: clonePoints(points), Style: style}
}

// Normalize folds negative extents into the position and makes radii
// non-negative.
func Normalize(s Shape) Shape {
	switch v := s.(type) {
	case Rect:
		v.X, v.Width = fold(v.X, v.Width)
		v.Y, v.Height = fold(v.Y, v.Height)
		return v
	case Diamond:
		v.X, v.Width = fold(v.X, v.Width)
		v.Y, v.Height = fold(v.Y, v.Height)
		return v
	case Ellipse:
		v.RadiusX, v.RadiusY = math.Abs(v.RadiusX), math.Abs(v.RadiusY)
		return v
	case Line, Arrow:
		return v
	case Freehand:
		v.Points = clonePoints(v.Points)
		return v
	}
	panic(unknown(s))
}

func fold(pos, extent float64) (float64, float64) {
	if extent < 0 {
		return pos + extent, -extent
	}
	return pos, extent
}

// HitTest reports whether p lies on or within s. tolerance applies to the
// line-like variants (line, arrow, freehand).
func HitTest(p Point, s Shape, tolerance float64) bool {
	switch v := s.(type) {
	case Rect:
		return p.X >= v.X-boundaryEps && p.X <= v.X+v.Width+boundaryEps &&
			p.Y >= v.Y-boundaryEps && p.Y <= v.Y+v.Height+boundaryEps
	case Diamond:
		hw, hh := v.Width/2, v.Height/2
		return inNormalized(math.Abs(p.X-(v.X+hw)), math.Abs(p.Y-(v.Y+hh)), hw, hh, false)
	case Ellipse:
		return inNormalized(p.X-v.CenterX, p.Y-v.CenterY, v.RadiusX, v.RadiusY, true)
	case Line:
		return segmentDistance(p, Point{v.FromX, v.FromY}, Point{v.ToX, v.ToY}) <= tolerance+boundaryEps
	case Arrow:
		return segmentDistance(p, Point{v.FromX, v.FromY}, Point{v.ToX, v.ToY}) <= tolerance+boundaryEps
	case Freehand:
		if len(v.Points) == 1 {
			return math.Hypot(p.X-v.Points[0].X, p.Y-v.Points[0].Y) <= tolerance+boundaryEps
		}
		for i := 1; i < len(v.Points); i++ {
			if segmentDistance(p, v.Points[i-1], v.Points[i]) <= tolerance+boundaryEps {
				return true
			}
		}
		return false
	}
	panic(unknown(s))
}

// inNormalized evaluates |dx|/a + |dy|/b <= 1 (or the squared form for
// ellipses) without dividing by a zero semi-axis. A zero semi-axis collapses
// the shape onto a segment along the other axis.
func inNormalized(dx, dy, a, b float64, squared bool) bool {
	switch {
	case a == 0 && b == 0:
		return math.Abs(dx) <= boundaryEps && math.Abs(dy) <= boundaryEps
	case a == 0:
		return math.Abs(dx) <= boundaryEps && math.Abs(dy) <= b+boundaryEps
	case b == 0:
		return math.Abs(dy) <= boundaryEps && math.Abs(dx) <= a+boundaryEps
	}
	nx, ny := math.Abs(dx)/a, math.Abs(dy)/b
	if squared {
		return nx*nx+ny*ny <= 1+boundaryEps
	}
	return nx+ny <= 1+boundaryEps
}

// segmentDistance is the distance from p to the segment ab using the clamped
// projection of p onto ab.
func segmentDistance(p, a, b Point) float64 {
	abx, aby := b.X-a.X, b.Y-a.Y
	lenSq := abx*abx + aby*aby
	if lenSq == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*abx + (p.Y-a.Y)*aby) / lenSq
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(p.X-(a.X+t*abx), p.Y-(a.Y+t*aby))
}

// Find returns the index of the first shape in list order that p hits, or -1.
func Find(p Point, shapes []Shape, tolerance float64) int {
	for i, s := range shapes {
		if HitTest(p, s, tolerance) {
			return i
		}
	}
	return -1
}

// FindTopmost is Find searching from the most recently added shape.
func FindTopmost(p Point, shapes []Shape, tolerance float64) int {
	for i := len(shapes) - 1; i >= 0; i-- {
		if HitTest(p, shapes[i], tolerance) {
			return i
		}
	}
	return -1
}

// Translate returns s moved by (dx, dy). The result never aliases s.
func Translate(s Shape, dx, dy float64) Shape {
	switch v := s.(type) {
	case Rect:
		v.X += dx
		v.Y += dy
		return v
	case Diamond:
		v.X += dx
		v.Y += dy
		return v
	case Ellipse:
		v.CenterX += dx
		v.CenterY += dy
		return v
	case Line:
		v.FromX, v.FromY, v.ToX, v.ToY = v.FromX+dx, v.FromY+dy, v.ToX+dx, v.ToY+dy
		return v
	case Arrow:
		v.FromX, v.FromY, v.ToX, v.ToY = v.FromX+dx, v.FromY+dy, v.ToX+dx, v.ToY+dy
		return v
	case Freehand:
		pts := make([]Point, len(v.Points))
		for i, p := range v.Points {
			pts[i] = p.Add(dx, dy)
		}
		v.Points = pts
		return v
	}
	panic(unknown(s))
}

// Anchor is the reference point a drag moves: the top-left corner for boxed
// shapes, the center for ellipses and the first point otherwise.
func Anchor(s Shape) Point {
	switch v := s.(type) {
	case Rect:
		return Point{v.X, v.Y}
	case Diamond:
		return Point{v.X, v.Y}
	case Ellipse:
		return Point{v.CenterX, v.CenterY}
	case Line:
		return Point{v.FromX, v.FromY}
	case Arrow:
		return Point{v.FromX, v.FromY}
	case Freehand:
		if len(v.Points) == 0 {
			return Point{}
		}
		return v.Points[0]
	}
	panic(unknown(s))
}

// Bounds returns the axis-aligned bounding box of s.
func Bounds(s Shape) Box {
	switch v := s.(type) {
	case Rect:
		return Box{v.X, v.Y, v.X + v.Width, v.Y + v.Height}
	case Diamond:
		return Box{v.X, v.Y, v.X + v.Width, v.Y + v.Height}
	case Ellipse:
		return Box{v.CenterX - v.RadiusX, v.CenterY - v.RadiusY, v.CenterX + v.RadiusX, v.CenterY + v.RadiusY}
	case Line:
		return boxOf(Point{v.FromX, v.FromY}, Point{v.ToX, v.ToY})
	case Arrow:
		return boxOf(Point{v.FromX, v.FromY}, Point{v.ToX, v.ToY})
	case Freehand:
		return boxOf(v.Points...)
	}
	panic(unknown(s))
}

func boxOf(pts ...Point) Box {
	if len(pts) == 0 {
		return Box{}
	}
	b := Box{pts[0].X, pts[0].Y, pts[0].X, pts[0].Y}
	for _, p := range pts[1:] {
		b = b.Union(Box{p.X, p.Y, p.X, p.Y})
	}
	return b
}
