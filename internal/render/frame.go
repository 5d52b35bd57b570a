// Package render turns a board into a screen-space display list and paints it.
//
// Frame is pure: it reads shapes and a viewport and returns ops. Surfaces (the
// desktop widget, the raster snapshot) only ever see ops, so every variant is
// laid out in one place.
package render

import (
	"fmt"
	"math"

	"RoomBoard/internal/shape"
	"RoomBoard/internal/viewport"
)

const (
	// ArrowHeadLength is the length of each arrowhead segment in pixels.
	ArrowHeadLength = 10.0
	// ArrowHeadAngle is the angle between the shaft and each head segment.
	ArrowHeadAngle = math.Pi / 6
)

// Op is one drawing instruction in screen coordinates.
type Op interface{ op() }

// Path is a polyline; Closed joins the last point back to the first and
// allows a fill.
type Path struct {
	Points []shape.Point
	Closed bool
	Style  shape.Style
	Dim    bool
}

// Oval is an axis-aligned ellipse.
type Oval struct {
	Center           shape.Point
	RadiusX, RadiusY float64
	Style            shape.Style
	Dim              bool
}

func (Path) op() {}
func (Oval) op() {}

// Frame builds the display list for shapes in list order, followed by the
// dimmed preview when it is non-nil.
func Frame(shapes []shape.Shape, preview shape.Shape, vp viewport.Viewport) []Op {
	ops := make([]Op, 0, len(shapes)+3)
	for _, s := range shapes {
		ops = appendShape(ops, s, vp, false)
	}
	if preview != nil {
		ops = appendShape(ops, preview, vp, true)
	}
	return ops
}

func appendShape(ops []Op, s shape.Shape, vp viewport.Viewport, dim bool) []Op {
	st := shape.StyleOf(s)
	st.StrokeWidth *= vp.Scale
	at := func(x, y float64) shape.Point { return vp.WorldToScreen(shape.Point{X: x, Y: y}) }

	switch v := s.(type) {
	case shape.Rect:
		return append(ops, Path{
			Points: []shape.Point{
				at(v.X, v.Y),
				at(v.X+v.Width, v.Y),
				at(v.X+v.Width, v.Y+v.Height),
				at(v.X, v.Y+v.Height),
			},
			Closed: true, Style: st, Dim: dim,
		})
	case shape.Diamond:
		cx, cy := v.X+v.Width/2, v.Y+v.Height/2
		return append(ops, Path{
			Points: []shape.Point{
				at(cx, v.Y),
				at(v.X+v.Width, cy),
				at(cx, v.Y+v.Height),
				at(v.X, cy),
			},
			Closed: true, Style: st, Dim: dim,
		})
	case shape.Ellipse:
		return append(ops, Oval{
			Center:  at(v.CenterX, v.CenterY),
			RadiusX: v.RadiusX * vp.Scale,
			RadiusY: v.RadiusY * vp.Scale,
			Style:   st,
			Dim:     dim,
		})
	case shape.Line:
		return append(ops, Path{Points: []shape.Point{at(v.FromX, v.FromY), at(v.ToX, v.ToY)}, Style: st, Dim: dim})
	case shape.Arrow:
		from, to := at(v.FromX, v.FromY), at(v.ToX, v.ToY)
		left, right := ArrowHead(from, to)
		return append(ops,
			Path{Points: []shape.Point{from, to}, Style: st, Dim: dim},
			Path{Points: []shape.Point{to, left}, Style: st, Dim: dim},
			Path{Points: []shape.Point{to, right}, Style: st, Dim: dim},
		)
	case shape.Freehand:
		if len(v.Points) < 2 {
			return ops
		}
		pts := make([]shape.Point, len(v.Points))
		for i, p := range v.Points {
			pts[i] = vp.WorldToScreen(p)
		}
		return append(ops, Path{Points: pts, Style: st, Dim: dim})
	}
	panic("render: unhandled shape " + string(s.Kind()))
}

// ArrowHead returns the outer ends of the two head segments of an arrow
// pointing from from to to.
func ArrowHead(from, to shape.Point) (shape.Point, shape.Point) {
	angle := math.Atan2(to.Y-from.Y, to.X-from.X)
	left := shape.Point{
		X: to.X - ArrowHeadLength*math.Cos(angle-ArrowHeadAngle),
		Y: to.Y - ArrowHeadLength*math.Sin(angle-ArrowHeadAngle),
	}
	right := shape.Point{
		X: to.X - ArrowHeadLength*math.Cos(angle+ArrowHeadAngle),
		Y: to.Y - ArrowHeadLength*math.Sin(angle+ArrowHeadAngle),
	}
	return left, right
}

// OvalPoints approximates o with n points, walking clockwise on screen.
func OvalPoints(o Oval, n int) []shape.Point {
	if n < 3 {
		n = 3
	}
	pts := make([]shape.Point, n)
	for i := range pts {
		t := -2 * math.Pi * float64(i) / float64(n)
		pts[i] = shape.Point{X: o.Center.X + o.RadiusX*math.Cos(t), Y: o.Center.Y + o.RadiusY*math.Sin(t)}
	}
	return pts
}

// Scale multiplies every coordinate and stroke width in ops by k, mapping a
// frame laid out in device-independent units onto pixels.
func Scale(ops []Op, k float64) []Op {
	out := make([]Op, len(ops))
	for i, op := range ops {
		switch v := op.(type) {
		case Path:
			pts := make([]shape.Point, len(v.Points))
			for j, p := range v.Points {
				pts[j] = shape.Point{X: p.X * k, Y: p.Y * k}
			}
			v.Points = pts
			v.Style.StrokeWidth *= k
			out[i] = v
		case Oval:
			v.Center = shape.Point{X: v.Center.X * k, Y: v.Center.Y * k}
			v.RadiusX *= k
			v.RadiusY *= k
			v.Style.StrokeWidth *= k
			out[i] = v
		default:
			panic(fmt.Sprintf("render: unhandled op %T", op))
		}
	}
	return out
}
