package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RoomBoard/internal/shape"
	"RoomBoard/internal/viewport"
)

func TestFrameRectAtIdentity(t *testing.T) {
	st := shape.Style{StrokeWidth: 2, StrokeColor: "red"}
	ops := Frame([]shape.Shape{shape.Rect{X: 10, Y: 10, Width: 100, Height: 50, Style: st}}, nil, viewport.Default())

	require.Len(t, ops, 1)
	assert.Equal(t, Path{
		Points: []shape.Point{{X: 10, Y: 10}, {X: 110, Y: 10}, {X: 110, Y: 60}, {X: 10, Y: 60}},
		Closed: true,
		Style:  st,
	}, ops[0])
}

func TestFrameAppliesViewport(t *testing.T) {
	vp := viewport.Default().Pan(5, 5).Zoom(shape.Point{X: 5, Y: 5}, 1)
	ops := Frame([]shape.Shape{
		shape.Ellipse{CenterX: 10, CenterY: 10, RadiusX: 3, RadiusY: 4, Style: shape.Style{StrokeWidth: 2}},
	}, nil, vp)

	require.Len(t, ops, 1)
	o := ops[0].(Oval)
	assert.Equal(t, shape.Point{X: 25, Y: 25}, o.Center)
	assert.Equal(t, 6.0, o.RadiusX)
	assert.Equal(t, 8.0, o.RadiusY)
	assert.Equal(t, 4.0, o.Style.StrokeWidth)
}

func TestFrameDiamondVertices(t *testing.T) {
	ops := Frame([]shape.Shape{shape.Diamond{X: 0, Y: 0, Width: 20, Height: 10}}, nil, viewport.Default())
	require.Len(t, ops, 1)
	assert.Equal(t, []shape.Point{{X: 10, Y: 0}, {X: 20, Y: 5}, {X: 10, Y: 10}, {X: 0, Y: 5}}, ops[0].(Path).Points)
}

func TestFrameArrowHead(t *testing.T) {
	ops := Frame([]shape.Shape{shape.Arrow{FromX: 0, FromY: 0, ToX: 100, ToY: 0}}, nil, viewport.Default())
	require.Len(t, ops, 3)

	shaft := ops[0].(Path)
	assert.Equal(t, []shape.Point{{X: 0, Y: 0}, {X: 100, Y: 0}}, shaft.Points)

	for i, wantY := range map[int]float64{1: 5, 2: -5} {
		head := ops[i].(Path)
		require.Len(t, head.Points, 2)
		assert.Equal(t, shape.Point{X: 100, Y: 0}, head.Points[0])
		assert.InDelta(t, 91.34, head.Points[1].X, 0.01)
		assert.InDelta(t, wantY, head.Points[1].Y, 1e-9)
	}
}

func TestFrameHeadLengthIgnoresZoom(t *testing.T) {
	vp := viewport.Default().Zoom(shape.Point{}, 2) // scale 3
	left, _ := ArrowHead(shape.Point{}, shape.Point{X: 0, Y: 75})
	ops := Frame([]shape.Shape{shape.Arrow{ToY: 25}}, nil, vp)
	require.Len(t, ops, 3)
	assert.Equal(t, left, ops[1].(Path).Points[1])
}

func TestFrameSkipsShortFreehand(t *testing.T) {
	ops := Frame([]shape.Shape{
		shape.Freehand{Points: []shape.Point{{X: 1, Y: 1}}},
		shape.Freehand{Points: []shape.Point{{X: 1, Y: 1}, {X: 2, Y: 2}}},
	}, nil, viewport.Default())
	require.Len(t, ops, 1)
	assert.Len(t, ops[0].(Path).Points, 2)
}

func TestFramePreviewIsLastAndDimmed(t *testing.T) {
	shapes := []shape.Shape{shape.Line{ToX: 1}, shape.Rect{Width: 1, Height: 1}}
	ops := Frame(shapes, shape.Line{ToX: 9}, viewport.Default())

	require.Len(t, ops, 3)
	assert.False(t, ops[0].(Path).Dim)
	assert.False(t, ops[1].(Path).Dim)
	last := ops[2].(Path)
	assert.True(t, last.Dim)
	assert.Equal(t, shape.Point{X: 9}, last.Points[1])
}

func TestOvalPointsStayOnEllipse(t *testing.T) {
	o := Oval{Center: shape.Point{X: 10, Y: 10}, RadiusX: 4, RadiusY: 2}
	for _, p := range OvalPoints(o, 16) {
		nx, ny := (p.X-10)/4, (p.Y-10)/2
		assert.InDelta(t, 1, nx*nx+ny*ny, 1e-9)
	}
	assert.Len(t, OvalPoints(o, 1), 3)
}

func TestScaleOps(t *testing.T) {
	in := []Op{
		Path{Points: []shape.Point{{X: 1, Y: 2}, {X: 3, Y: 4}}, Style: shape.Style{StrokeWidth: 2}},
		Oval{Center: shape.Point{X: 5, Y: 5}, RadiusX: 1, RadiusY: 2, Style: shape.Style{StrokeWidth: 1}, Dim: true},
	}
	out := Scale(in, 2)

	require.Len(t, out, 2)
	assert.Equal(t, Path{Points: []shape.Point{{X: 2, Y: 4}, {X: 6, Y: 8}}, Style: shape.Style{StrokeWidth: 4}}, out[0])
	assert.Equal(t, Oval{Center: shape.Point{X: 10, Y: 10}, RadiusX: 2, RadiusY: 4, Style: shape.Style{StrokeWidth: 2}, Dim: true}, out[1])
	assert.Equal(t, shape.Point{X: 1, Y: 2}, in[0].(Path).Points[0], "input untouched")
}
