// Package export writes a board to printable formats.
package export

import (
	"fmt"
	"io"
	"math"

	"github.com/jung-kurt/gofpdf"

	"RoomBoard/internal/render"
	"RoomBoard/internal/shape"
	"RoomBoard/internal/viewport"
)

const (
	pageMargin   = 36.0 // pt
	minLineWidth = 0.5
)

// PDF renders shapes on a single A4 landscape page, scaled down to fit.
func PDF(w io.Writer, title string, shapes []shape.Shape) error {
	p := gofpdf.New("L", "pt", "A4", "")
	p.SetTitle(title, true)
	p.SetCreator("RoomBoard", true)
	p.SetLineCapStyle("round")
	p.SetLineJoinStyle("round")
	p.AddPage()

	pw, ph := p.GetPageSize()
	p.SetFillColor(int(render.Background.R), int(render.Background.G), int(render.Background.B))
	p.Rect(0, 0, pw, ph, "F")

	vp := fit(shapes, pw, ph)
	for _, op := range render.Frame(shapes, nil, vp) {
		switch o := op.(type) {
		case render.Path:
			drawPath(p, o)
		case render.Oval:
			style := setColors(p, o.Style)
			p.Ellipse(o.Center.X, o.Center.Y, o.RadiusX, o.RadiusY, 0, style)
		}
	}

	if err := p.Output(w); err != nil {
		return fmt.Errorf("writing pdf: %w", err)
	}
	return nil
}

// fit returns the view that centers the bounds of shapes on the page without
// enlarging them.
func fit(shapes []shape.Shape, pw, ph float64) viewport.Viewport {
	vp := viewport.Viewport{Scale: 1, ScaleMin: 0, ScaleMax: 1}
	if len(shapes) == 0 {
		return vp
	}
	box := shape.Bounds(shapes[0])
	for _, s := range shapes[1:] {
		box = box.Union(shape.Bounds(s))
	}

	availW, availH := pw-2*pageMargin, ph-2*pageMargin
	scale := 1.0
	if box.Width() > 0 {
		scale = math.Min(scale, availW/box.Width())
	}
	if box.Height() > 0 {
		scale = math.Min(scale, availH/box.Height())
	}
	vp.Scale = scale
	vp.PanX = pageMargin + (availW-box.Width()*scale)/2 - box.MinX*scale
	vp.PanY = pageMargin + (availH-box.Height()*scale)/2 - box.MinY*scale
	return vp
}

func drawPath(p *gofpdf.Fpdf, o render.Path) {
	style := setColors(p, o.Style)
	if o.Closed && len(o.Points) >= 3 {
		pts := make([]gofpdf.PointType, len(o.Points))
		for i, pt := range o.Points {
			pts[i] = gofpdf.PointType{X: pt.X, Y: pt.Y}
		}
		p.Polygon(pts, style)
		return
	}
	for i := 1; i < len(o.Points); i++ {
		a, b := o.Points[i-1], o.Points[i]
		p.Line(a.X, a.Y, b.X, b.Y)
	}
}

// setColors applies the stroke and fill of st and returns the gofpdf draw
// style for closed shapes.
func setColors(p *gofpdf.Fpdf, st shape.Style) string {
	c := render.StrokeColor(st, false)
	p.SetDrawColor(int(c.R), int(c.G), int(c.B))
	p.SetLineWidth(math.Max(st.StrokeWidth, minLineWidth))

	fill, ok := render.FillColor(st, false)
	if !ok {
		return "D"
	}
	p.SetFillColor(int(fill.R), int(fill.G), int(fill.B))
	return "DF"
}
