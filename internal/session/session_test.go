package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RoomBoard/internal/render"
	"RoomBoard/internal/roomsync"
	"RoomBoard/internal/shape"
	"RoomBoard/internal/state"
	"RoomBoard/internal/viewport"
)

type published struct {
	room, id string
	shape    shape.Shape
}

type fakeLink struct {
	mu      sync.Mutex
	sent    []published
	inbound chan roomsync.Inbound
	done    chan struct{}
}

func newFakeLink() *fakeLink {
	return &fakeLink{inbound: make(chan roomsync.Inbound, 8), done: make(chan struct{})}
}

func (l *fakeLink) Publish(room, id string, s shape.Shape) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sent = append(l.sent, published{room, id, s})
	return nil
}

func (l *fakeLink) Inbound() <-chan roomsync.Inbound { return l.inbound }
func (l *fakeLink) Done() <-chan struct{}           { return l.done }

func (l *fakeLink) Sent() []published {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]published(nil), l.sent...)
}

type surface struct {
	mu     sync.Mutex
	frames int
	last   []render.Op
}

func (s *surface) Paint(ops []render.Op, _ viewport.Viewport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames++
	s.last = ops
}

func (s *surface) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

func start(t *testing.T, s *Session) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.ErrorIs(t, <-errc, context.Canceled)
	})
}

func pt(x, y float64) shape.Point { return shape.Point{X: x, Y: y} }

func drag(s *Session, from, to shape.Point) {
	s.Post(state.PointerDown{Pos: from})
	s.Post(state.PointerMove{Pos: to})
	s.Post(state.PointerUp{Pos: to})
}

func waitShapes(t *testing.T, s *Session, n int) []shape.Shape {
	t.Helper()
	require.Eventually(t, func() bool { return len(s.Scene().Shapes) == n }, 2*time.Second, 5*time.Millisecond)
	return s.Scene().Shapes
}

func TestRectDragCommitsAndPublishes(t *testing.T) {
	link := newFakeLink()
	surf := &surface{}
	s := New(surf, Options{Room: "R1", Link: link})
	start(t, s)

	drag(s, pt(10, 10), pt(110, 60))
	shapes := waitShapes(t, s, 1)

	want := shape.Rect{X: 10, Y: 10, Width: 100, Height: 50, Style: shape.DefaultStyle}
	assert.Equal(t, want, shapes[0])
	require.Eventually(t, func() bool { return len(link.Sent()) == 1 }, time.Second, 5*time.Millisecond)
	sent := link.Sent()[0]
	assert.Equal(t, "R1", sent.room)
	assert.Equal(t, want, sent.shape)
	assert.Equal(t, s.Entries()[0].ID, sent.id)
	assert.Eventually(t, func() bool { return surf.Frames() > 0 }, time.Second, 5*time.Millisecond)
}

func TestEchoedShapeIsNotDuplicated(t *testing.T) {
	link := newFakeLink()
	s := New(&surface{}, Options{Room: "R1", Link: link})
	start(t, s)

	drag(s, pt(0, 0), pt(20, 20))
	waitShapes(t, s, 1)
	require.Eventually(t, func() bool { return len(link.Sent()) == 1 }, time.Second, 5*time.Millisecond)
	echo := link.Sent()[0]

	link.inbound <- roomsync.Inbound{RoomID: "R1", ID: echo.id, Shape: echo.shape}
	link.inbound <- roomsync.Inbound{RoomID: "R1", ID: "remote", Shape: shape.Line{ToX: 5}}
	link.inbound <- roomsync.Inbound{RoomID: "R9", ID: "elsewhere", Shape: shape.Line{ToX: 9}}

	shapes := waitShapes(t, s, 2)
	assert.Equal(t, shape.Line{ToX: 5}, shapes[1])
	assert.Never(t, func() bool { return len(s.Scene().Shapes) != 2 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestHistoryIsLoadedFirst(t *testing.T) {
	history := []roomsync.Inbound{
		{RoomID: "R1", ID: "a", Shape: shape.Rect{Width: 1, Height: 1}},
		{RoomID: "R1", ID: "a", Shape: shape.Rect{Width: 9, Height: 9}},
		{RoomID: "R1", ID: "b", Shape: shape.Line{ToX: 1}},
	}
	s := New(&surface{}, Options{Room: "R1", History: history})

	shapes := s.Scene().Shapes
	require.Len(t, shapes, 2)
	assert.Equal(t, shape.Rect{Width: 1, Height: 1}, shapes[0])
}

func TestOfflineSessionDoesNotPublish(t *testing.T) {
	s := New(&surface{}, Options{Room: "R1"})
	assert.False(t, s.Online())
	start(t, s)

	drag(s, pt(0, 0), pt(5, 5))
	waitShapes(t, s, 1)
}

func TestConnectionLossStopsPublishing(t *testing.T) {
	link := newFakeLink()
	s := New(&surface{}, Options{Room: "R1", Link: link})
	assert.True(t, s.Online())
	start(t, s)

	close(link.done)
	require.Eventually(t, func() bool { return !s.Online() }, time.Second, 5*time.Millisecond)

	drag(s, pt(0, 0), pt(5, 5))
	waitShapes(t, s, 1)
	assert.Empty(t, link.Sent())
}

func TestPreviewVisibleDuringDrag(t *testing.T) {
	s := New(&surface{}, Options{Room: "R1", Tool: shape.ToolEllipse})
	start(t, s)

	s.Post(state.PointerDown{Pos: pt(50, 50)})
	s.Post(state.PointerMove{Pos: pt(60, 70)})
	require.Eventually(t, func() bool { return s.Scene().Preview != nil }, time.Second, 5*time.Millisecond)
	assert.Equal(t, shape.Ellipse{CenterX: 50, CenterY: 50, RadiusX: 10, RadiusY: 20, Style: shape.DefaultStyle}, s.Scene().Preview)
	assert.Empty(t, s.Scene().Shapes)

	s.Post(state.SelectTool{Tool: shape.ToolHand})
	require.Eventually(t, func() bool { return s.Scene().Preview == nil }, time.Second, 5*time.Millisecond)
	assert.Equal(t, shape.ToolHand, s.Tool())
}

func TestWheelAndPanUpdateViewport(t *testing.T) {
	s := New(&surface{}, Options{Room: "R1", Tool: shape.ToolHand})
	start(t, s)

	drag(s, pt(0, 0), pt(30, -10))
	require.Eventually(t, func() bool { return s.Viewport().PanX == 30 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, -10.0, s.Viewport().PanY)

	s.Post(state.Wheel{Pos: pt(0, 0), Delta: 0.5})
	require.Eventually(t, func() bool { return s.Viewport().Scale == 1.5 }, time.Second, 5*time.Millisecond)
	assert.Empty(t, s.Scene().Shapes)
}

func TestPostAfterStop(t *testing.T) {
	s := New(&surface{}, Options{Room: "R1"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, s.Run(ctx), context.Canceled)
	assert.False(t, s.Post(state.PointerDown{}))
}
