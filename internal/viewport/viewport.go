// Package viewport maps between screen and world coordinates of a board.
package viewport

import (
	"fmt"
	"math"

	"RoomBoard/internal/shape"
)

const (
	DefaultScaleMin = 0.1
	DefaultScaleMax = 3.0
)

// Viewport is the pan/scale affine map world = (screen - pan) / scale.
// The zero value is not usable; build one with New or Default.
type Viewport struct {
	PanX, PanY float64
	Scale      float64
	ScaleMin   float64
	ScaleMax   float64
}

// New returns an identity viewport clamped to [min, max].
func New(min, max float64) (Viewport, error) {
	if !(min > 0) || max < min || math.IsInf(max, 0) {
		return Viewport{}, fmt.Errorf("invalid scale range [%v, %v]", min, max)
	}
	return Viewport{Scale: clamp(1, min, max), ScaleMin: min, ScaleMax: max}, nil
}

// Default returns an identity viewport with the default scale range.
func Default() Viewport {
	return Viewport{Scale: 1, ScaleMin: DefaultScaleMin, ScaleMax: DefaultScaleMax}
}

// ScreenToWorld converts a screen position to world coordinates.
func (v Viewport) ScreenToWorld(p shape.Point) shape.Point {
	return shape.Point{X: (p.X - v.PanX) / v.Scale, Y: (p.Y - v.PanY) / v.Scale}
}

// WorldToScreen is the inverse of ScreenToWorld.
func (v Viewport) WorldToScreen(p shape.Point) shape.Point {
	return shape.Point{X: p.X*v.Scale + v.PanX, Y: p.Y*v.Scale + v.PanY}
}

// Zoom scales by (1 + delta) around the screen pivot, clamped to the range.
// The world point under the pivot stays under the pivot.
func (v Viewport) Zoom(pivot shape.Point, delta float64) Viewport {
	world := v.ScreenToWorld(pivot)
	next := clamp(v.Scale*(1+delta), v.ScaleMin, v.ScaleMax)
	v.PanX -= world.X * (next - v.Scale)
	v.PanY -= world.Y * (next - v.Scale)
	v.Scale = next
	return v
}

// Pan shifts the view by a screen-space delta.
func (v Viewport) Pan(dx, dy float64) Viewport {
	v.PanX += dx
	v.PanY += dy
	return v
}

// Reset restores the identity transform, keeping the scale range.
func (v Viewport) Reset() Viewport {
	v.PanX, v.PanY = 0, 0
	v.Scale = clamp(1, v.ScaleMin, v.ScaleMax)
	return v
}

// Percent is the zoom level for display, e.g. 150 for 1.5x.
func (v Viewport) Percent() int { return int(math.Round(v.Scale * 100)) }

func clamp(x, lo, hi float64) float64 {
	if math.IsNaN(x) || x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
