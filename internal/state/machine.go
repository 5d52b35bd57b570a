// Package state holds a client's view of a room: the ordered shape list and
// the interaction state machine that turns pointer input into shapes.
package state

import (
	"RoomBoard/internal/shape"
	"RoomBoard/internal/viewport"
)

// Mode is the phase of the pointer interaction.
type Mode int

const (
	Idle Mode = iota
	Drawing
	Moving
	Panning
)

func (m Mode) String() string {
	switch m {
	case Drawing:
		return "drawing"
	case Moving:
		return "moving"
	case Panning:
		return "panning"
	}
	return "idle"
}

// Event is an input to the machine. Positions are screen coordinates.
type Event interface{ event() }

type PointerDown struct{ Pos shape.Point }
type PointerMove struct{ Pos shape.Point }
type PointerUp struct{ Pos shape.Point }

// Wheel zooms by Delta around Pos.
type Wheel struct {
	Pos   shape.Point
	Delta float64
}

type SelectTool struct{ Tool shape.Tool }
type SetStyle struct{ Style shape.Style }

// ConnectionChanged tells the machine whether commits can be published.
type ConnectionChanged struct{ Online bool }

func (PointerDown) event()       {}
func (PointerMove) event()       {}
func (PointerUp) event()         {}
func (Wheel) event()             {}
func (SelectTool) event()        {}
func (SetStyle) event()          {}
func (ConnectionChanged) event() {}

// Command is a side effect requested by a transition. The machine never
// performs I/O itself.
type Command interface{ command() }

// Redraw asks for a repaint; Preview is the in-progress shape or nil.
type Redraw struct{ Preview shape.Shape }

// Commit appends a finished shape to the local list.
type Commit struct {
	ID    string
	Shape shape.Shape
}

// Publish sends a committed shape to the room.
type Publish struct {
	ID    string
	Shape shape.Shape
}

// Replace swaps the shape at Index in the local list.
type Replace struct {
	Index int
	Shape shape.Shape
}

// SetViewport installs a new view transform.
type SetViewport struct{ Viewport viewport.Viewport }

func (Redraw) command()      {}
func (Commit) command()      {}
func (Publish) command()     {}
func (Replace) command()     {}
func (SetViewport) command() {}

// Machine is the per-client interaction controller. It is a value: Handle
// returns the next machine and leaves the receiver untouched.
type Machine struct {
	Tool   shape.Tool
	Style  shape.Style
	Online bool

	// Tolerance is the hit distance in screen pixels.
	Tolerance float64

	// NewID names committed shapes; NewID from this package when nil.
	NewID func() string

	mode     Mode
	start    shape.Point
	last     shape.Point
	points   []shape.Point
	preview  shape.Shape
	selected int
	moving   shape.Shape
	grab     shape.Point
}

// NewMachine returns an idle machine with the given tool and default style.
func NewMachine(tool shape.Tool) Machine {
	return Machine{
		Tool:      tool,
		Style:     shape.DefaultStyle,
		Tolerance: shape.DefaultTolerance,
		selected:  -1,
	}
}

func (m Machine) Mode() Mode              { return m.mode }
func (m Machine) Preview() shape.Shape    { return m.preview }
func (m Machine) Selected() int           { return m.selected }
func (m Machine) GrabOffset() shape.Point { return m.grab }
func (m Machine) Samples() []shape.Point  { return m.points[:len(m.points):len(m.points)] }

// Handle applies ev given the current shape list and viewport.
func (m Machine) Handle(ev Event, shapes []shape.Shape, vp viewport.Viewport) (Machine, []Command) {
	switch e := ev.(type) {
	case PointerDown:
		return m.pointerDown(e.Pos, shapes, vp)
	case PointerMove:
		return m.pointerMove(e.Pos, vp)
	case PointerUp:
		return m.pointerUp(e.Pos, vp)
	case Wheel:
		return m, []Command{SetViewport{Viewport: vp.Zoom(e.Pos, e.Delta)}}
	case SelectTool:
		var cmds []Command
		if m.mode != Idle {
			m = m.reset()
			cmds = append(cmds, Redraw{})
		}
		m.Tool = e.Tool
		return m, cmds
	case SetStyle:
		m.Style = e.Style
		return m, nil
	case ConnectionChanged:
		m.Online = e.Online
		return m, nil
	}
	return m, nil
}

func (m Machine) pointerDown(pos shape.Point, shapes []shape.Shape, vp viewport.Viewport) (Machine, []Command) {
	if m.mode != Idle {
		return m, nil
	}
	world := vp.ScreenToWorld(pos)

	switch {
	case m.Tool == shape.ToolCursor:
		tol := m.tolerance() / vp.Scale
		idx := shape.FindTopmost(world, shapes, tol)
		if idx < 0 {
			return m, nil
		}
		anchor := shape.Anchor(shapes[idx])
		m.mode = Moving
		m.selected = idx
		m.moving = shapes[idx]
		m.grab = shape.Point{X: world.X - anchor.X, Y: world.Y - anchor.Y}
		m.start, m.last = world, world
		return m, nil

	case m.Tool == shape.ToolHand:
		m.mode = Panning
		m.start, m.last = pos, pos
		return m, nil

	case m.Tool.Draws():
		m.mode = Drawing
		m.start, m.last = world, world
		m.points = nil
		if m.Tool == shape.ToolFreehand {
			m.points = []shape.Point{world}
			m.preview = shape.NewFreehand(m.points, m.Style)
		} else {
			m.preview, _ = shape.Construct(m.Tool, world, world, m.Style)
		}
		return m, []Command{Redraw{Preview: m.preview}}
	}
	return m, nil
}

func (m Machine) pointerMove(pos shape.Point, vp viewport.Viewport) (Machine, []Command) {
	switch m.mode {
	case Drawing:
		world := vp.ScreenToWorld(pos)
		if m.Tool == shape.ToolFreehand {
			m.points = appendPoint(m.points, world)
			m.preview = shape.NewFreehand(m.points, m.Style)
		} else {
			m.preview, _ = shape.Construct(m.Tool, m.start, world, m.Style)
		}
		m.last = world
		return m, []Command{Redraw{Preview: m.preview}}

	case Moving:
		// The grabbed point stays under the pointer.
		world := vp.ScreenToWorld(pos)
		at := shape.Anchor(m.moving)
		m.moving = shape.Translate(m.moving, world.X-m.grab.X-at.X, world.Y-m.grab.Y-at.Y)
		m.last = world
		return m, []Command{Replace{Index: m.selected, Shape: m.moving}, Redraw{}}

	case Panning:
		next := vp.Pan(pos.X-m.last.X, pos.Y-m.last.Y)
		m.last = pos
		return m, []Command{SetViewport{Viewport: next}}
	}
	return m, nil
}

func (m Machine) pointerUp(pos shape.Point, vp viewport.Viewport) (Machine, []Command) {
	switch m.mode {
	case Drawing:
		world := vp.ScreenToWorld(pos)
		var (
			final shape.Shape
			ok    bool
		)
		if m.Tool == shape.ToolFreehand {
			pts := m.points
			if len(pts) == 0 || pts[len(pts)-1] != world {
				pts = appendPoint(pts, world)
			}
			if len(pts) >= 2 {
				final, ok = shape.NewFreehand(pts, m.Style), true
			}
		} else {
			final, ok = shape.Construct(m.Tool, m.start, world, m.Style)
		}
		m = m.reset()
		cmds := []Command{}
		if ok {
			id := m.newID()
			cmds = append(cmds, Commit{ID: id, Shape: final})
			if m.Online {
				cmds = append(cmds, Publish{ID: id, Shape: final})
			}
		}
		return m, append(cmds, Redraw{})

	case Moving, Panning:
		return m.reset(), []Command{Redraw{}}
	}
	return m, nil
}

func (m Machine) reset() Machine {
	m.mode = Idle
	m.points = nil
	m.preview = nil
	m.moving = nil
	m.selected = -1
	m.grab = shape.Point{}
	return m
}

func (m Machine) tolerance() float64 {
	if m.Tolerance > 0 {
		return m.Tolerance
	}
	return shape.DefaultTolerance
}

func (m Machine) newID() string {
	if m.NewID != nil {
		return m.NewID()
	}
	return NewID()
}

// appendPoint never writes into a backing array shared with an earlier
// machine value.
func appendPoint(pts []shape.Point, p shape.Point) []shape.Point {
	return append(pts[:len(pts):len(pts)], p)
}
