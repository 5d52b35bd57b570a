package ui

import (
	"fmt"
	"image"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"RoomBoard/internal/render"
	"RoomBoard/internal/shape"
	"RoomBoard/internal/state"
	"RoomBoard/internal/viewport"
)

// wheelStep converts scroll distance into a zoom delta.
const wheelStep = 0.01

// Poster accepts input events for a session.
type Poster interface {
	Post(ev state.Event) bool
}

// BoardWidget shows the frames of a session and feeds pointer input back to
// it. It implements render.Surface.
type BoardWidget struct {
	widget.BaseWidget

	mu     sync.Mutex
	ops    []render.Op
	poster Poster
	last   fyne.Position

	statusBar *widget.Label
	zoomLabel *widget.Label
}

var _ fyne.Widget = (*BoardWidget)(nil)
var _ fyne.Draggable = (*BoardWidget)(nil)
var _ fyne.Scrollable = (*BoardWidget)(nil)
var _ desktop.Mouseable = (*BoardWidget)(nil)
var _ render.Surface = (*BoardWidget)(nil)

func NewBoardWidget() *BoardWidget {
	b := &BoardWidget{
		statusBar: widget.NewLabel("Ready"),
		zoomLabel: widget.NewLabel("100%"),
	}
	b.ExtendBaseWidget(b)
	return b
}

// Bind routes input to p. Events before Bind are dropped.
func (b *BoardWidget) Bind(p Poster) {
	b.mu.Lock()
	b.poster = p
	b.mu.Unlock()
}

func (b *BoardWidget) post(ev state.Event) {
	b.mu.Lock()
	p := b.poster
	b.mu.Unlock()
	if p != nil {
		p.Post(ev)
	}
}

// Paint stores a frame and schedules a redraw on the UI goroutine.
func (b *BoardWidget) Paint(ops []render.Op, vp viewport.Viewport) {
	b.mu.Lock()
	b.ops = ops
	b.mu.Unlock()
	fyne.Do(func() {
		b.zoomLabel.SetText(fmt.Sprintf("%d%%", vp.Percent()))
		b.Refresh()
	})
}

// SetStatus may be called from any goroutine.
func (b *BoardWidget) SetStatus(text string) {
	fyne.Do(func() { b.statusBar.SetText(text) })
}

// StatusBar is the label showing connection state and zoom.
func (b *BoardWidget) StatusBar() fyne.CanvasObject {
	return container.NewBorder(nil, nil, nil, b.zoomLabel, b.statusBar)
}

func toPoint(p fyne.Position) shape.Point {
	return shape.Point{X: float64(p.X), Y: float64(p.Y)}
}

func (b *BoardWidget) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	b.last = e.Position
	b.post(state.PointerDown{Pos: toPoint(e.Position)})
}

func (b *BoardWidget) MouseUp(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	b.post(state.PointerUp{Pos: toPoint(e.Position)})
}

func (b *BoardWidget) Dragged(e *fyne.DragEvent) {
	b.last = e.Position
	b.post(state.PointerMove{Pos: toPoint(e.Position)})
}

// DragEnd finishes the gesture in case the release lands outside the widget;
// a second pointer-up is ignored by the machine.
func (b *BoardWidget) DragEnd() {
	b.post(state.PointerUp{Pos: toPoint(b.last)})
}

func (b *BoardWidget) Scrolled(e *fyne.ScrollEvent) {
	b.post(state.Wheel{Pos: toPoint(e.Position), Delta: float64(e.Scrolled.DY) * wheelStep})
}

// draw rasterizes the latest frame at the pixel size fyne asks for.
func (b *BoardWidget) draw(w, h int) image.Image {
	b.mu.Lock()
	ops := b.ops
	b.mu.Unlock()

	if size := b.Size(); size.Width > 0 {
		if k := float64(w) / float64(size.Width); k != 1 {
			ops = render.Scale(ops, k)
		}
	}
	return render.Rasterize(ops, w, h, render.Background)
}

func (b *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	return &boardWidgetRenderer{raster: canvas.NewRaster(b.draw)}
}

type boardWidgetRenderer struct {
	raster *canvas.Raster
}

func (r *boardWidgetRenderer) Objects() []fyne.CanvasObject { return []fyne.CanvasObject{r.raster} }
func (r *boardWidgetRenderer) Refresh()                     { r.raster.Refresh() }
func (r *boardWidgetRenderer) Destroy()                     {}
func (r *boardWidgetRenderer) Layout(size fyne.Size)        { r.raster.Resize(size) }
func (r *boardWidgetRenderer) MinSize() fyne.Size           { return fyne.NewSize(300, 300) }
