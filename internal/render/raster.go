package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"

	"RoomBoard/internal/shape"
)

const (
	ovalSegments = 64
	jointSides   = 12

	// rasterLimit is the largest device coordinate handed to the rasterizer.
	// Its fixed-point math breaks down well before the float32 range ends.
	rasterLimit = 1 << 24
)

// Rasterize paints ops onto a width x height image filled with bg.
func Rasterize(ops []Op, width, height int, bg color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	if width <= 0 || height <= 0 {
		return img
	}

	z := vector.NewRasterizer(width, height)
	for _, op := range ops {
		switch o := op.(type) {
		case Path:
			paint(z, img, o.Points, o.Closed, o.Style, o.Dim)
		case Oval:
			paint(z, img, OvalPoints(o, ovalSegments), true, o.Style, o.Dim)
		}
	}
	return img
}

func paint(z *vector.Rasterizer, img *image.RGBA, pts []shape.Point, closed bool, st shape.Style, dim bool) {
	if len(pts) == 0 || !inRange(pts) {
		return
	}
	b := img.Bounds()

	if fill, ok := FillColor(st, dim); ok && closed && len(pts) >= 3 {
		z.Reset(b.Dx(), b.Dy())
		polygon(z, pts)
		z.Draw(img, b, image.NewUniform(fill), image.Point{})
	}

	half := st.StrokeWidth / 2
	if half < 0.5 {
		half = 0.5
	}
	if half > rasterLimit {
		return
	}
	z.Reset(b.Dx(), b.Dy())
	for i := 1; i < len(pts); i++ {
		segment(z, pts[i-1], pts[i], half)
	}
	if closed && len(pts) > 2 {
		segment(z, pts[len(pts)-1], pts[0], half)
	}
	for _, p := range pts {
		joint(z, p, half)
	}
	z.Draw(img, b, image.NewUniform(StrokeColor(st, dim)), image.Point{})
}

// inRange reports whether every point can be rasterized. Paths reaching
// further out are culled whole.
func inRange(pts []shape.Point) bool {
	for _, p := range pts {
		if !(math.Abs(p.X) <= rasterLimit && math.Abs(p.Y) <= rasterLimit) {
			return false
		}
	}
	return true
}

func polygon(z *vector.Rasterizer, pts []shape.Point) {
	z.MoveTo(float32(pts[0].X), float32(pts[0].Y))
	for _, p := range pts[1:] {
		z.LineTo(float32(p.X), float32(p.Y))
	}
	z.ClosePath()
}

// segment adds the rectangle covering ab at the given half width. Every
// rectangle and joint winds the same way so overlapping pieces union instead
// of cancelling.
func segment(z *vector.Rasterizer, a, b shape.Point, half float64) {
	dx, dy := b.X-a.X, b.Y-a.Y
	l := math.Hypot(dx, dy)
	if l == 0 {
		return
	}
	nx, ny := -dy/l*half, dx/l*half
	polygon(z, []shape.Point{
		{X: a.X + nx, Y: a.Y + ny},
		{X: b.X + nx, Y: b.Y + ny},
		{X: b.X - nx, Y: b.Y - ny},
		{X: a.X - nx, Y: a.Y - ny},
	})
}

func joint(z *vector.Rasterizer, c shape.Point, r float64) {
	polygon(z, OvalPoints(Oval{Center: c, RadiusX: r, RadiusY: r}, jointSides))
}
