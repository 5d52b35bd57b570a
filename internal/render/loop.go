package render

import (
	"context"
	"log/slog"

	"RoomBoard/internal/shape"
	"RoomBoard/internal/viewport"
)

// Scene is a consistent snapshot of what a client shows.
type Scene struct {
	Shapes   []shape.Shape
	Preview  shape.Shape
	Viewport viewport.Viewport
}

// SceneSource hands out the current scene. It is called from the loop
// goroutine only.
type SceneSource interface {
	Scene() Scene
}

// Surface receives a finished frame.
type Surface interface {
	Paint(ops []Op, vp viewport.Viewport)
}

// Loop repaints a surface whenever it is invalidated. Invalidations that
// arrive while a frame is pending collapse into that frame.
type Loop struct {
	source  SceneSource
	surface Surface
	dirty   chan struct{}
	frames  int
}

func NewLoop(source SceneSource, surface Surface) *Loop {
	return &Loop{
		source:  source,
		surface: surface,
		dirty:   make(chan struct{}, 1),
	}
}

// Invalidate schedules a repaint. It never blocks.
func (l *Loop) Invalidate() {
	select {
	case l.dirty <- struct{}{}:
	default:
	}
}

// Run paints frames until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			slog.Debug("render loop stopped", "frames", l.frames)
			return ctx.Err()
		case <-l.dirty:
			sc := l.source.Scene()
			l.surface.Paint(Frame(sc.Shapes, sc.Preview, sc.Viewport), sc.Viewport)
			l.frames++
		}
	}
}
