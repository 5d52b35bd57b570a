// Package session runs one client's view of a room: it owns the interaction
// machine, the board and the viewport, and applies local input and remote
// shapes on a single goroutine.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"RoomBoard/internal/render"
	"RoomBoard/internal/roomsync"
	"RoomBoard/internal/shape"
	"RoomBoard/internal/state"
	"RoomBoard/internal/viewport"
)

// Link is the room connection a session publishes to and receives from.
type Link interface {
	Publish(room, id string, s shape.Shape) error
	Inbound() <-chan roomsync.Inbound
	Done() <-chan struct{}
}

type Options struct {
	Room string

	// Link is nil for an offline board.
	Link Link

	Tool     shape.Tool
	Viewport viewport.Viewport
	History  []roomsync.Inbound

	// Buffer is the capacity of the input queue.
	Buffer int
}

// Session is safe for concurrent use: Post and Scene may be called from any
// goroutine while Run is active.
type Session struct {
	room  string
	link  Link
	board *state.Board
	loop  *render.Loop
	in    chan state.Event
	done  chan struct{}

	mu      sync.Mutex
	machine state.Machine
	vp      viewport.Viewport
}

// New builds a session that paints onto surface.
func New(surface render.Surface, opts Options) *Session {
	if opts.Tool == "" {
		opts.Tool = shape.ToolRect
	}
	if opts.Viewport.Scale == 0 {
		opts.Viewport = viewport.Default()
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 256
	}

	m := state.NewMachine(opts.Tool)
	m.Online = opts.Link != nil

	s := &Session{
		room:    opts.Room,
		link:    opts.Link,
		board:   state.NewBoard(),
		in:      make(chan state.Event, opts.Buffer),
		done:    make(chan struct{}),
		machine: m,
		vp:      opts.Viewport,
	}
	s.loop = render.NewLoop(s, surface)

	entries := make([]state.Entry, 0, len(opts.History))
	for _, h := range opts.History {
		entries = append(entries, state.Entry{ID: h.ID, Shape: h.Shape})
	}
	s.board.Load(entries)
	return s
}

// Post queues a local input event. It blocks only while the queue is full
// and returns false once the session has stopped.
func (s *Session) Post(ev state.Event) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.in <- ev:
		return true
	case <-s.done:
		return false
	}
}

// Scene implements render.SceneSource.
func (s *Session) Scene() render.Scene {
	s.mu.Lock()
	preview, vp := s.machine.Preview(), s.vp
	s.mu.Unlock()
	return render.Scene{Shapes: s.board.Shapes(), Preview: preview, Viewport: vp}
}

// Entries returns the committed shapes with their ids.
func (s *Session) Entries() []state.Entry { return s.board.Entries() }

func (s *Session) Tool() shape.Tool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Tool
}

func (s *Session) Online() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Online
}

func (s *Session) Viewport() viewport.Viewport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vp
}

// Run processes input until ctx is done. The render loop runs alongside it.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.loop.Run(ctx)
	}()
	defer func() {
		cancel()
		wg.Wait()
	}()

	var inbound <-chan roomsync.Inbound
	var lost <-chan struct{}
	if s.link != nil {
		inbound, lost = s.link.Inbound(), s.link.Done()
	}

	s.loop.Invalidate()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-s.in:
			s.apply(ev)
		case in, ok := <-inbound:
			if !ok {
				inbound = nil
				continue
			}
			s.receive(in)
		case <-lost:
			lost = nil
			slog.Warn("room connection lost, continuing offline", "room_id", s.room)
			s.apply(state.ConnectionChanged{Online: false})
		}
	}
}

func (s *Session) apply(ev state.Event) {
	s.mu.Lock()
	next, cmds := s.machine.Handle(ev, s.board.Shapes(), s.vp)
	s.machine = next
	s.mu.Unlock()

	for _, cmd := range cmds {
		s.execute(cmd)
	}
}

func (s *Session) execute(cmd state.Command) {
	switch c := cmd.(type) {
	case state.Redraw:
		s.loop.Invalidate()
	case state.Commit:
		s.board.Append(c.ID, c.Shape)
		s.loop.Invalidate()
	case state.Publish:
		if s.link == nil {
			return
		}
		if err := s.link.Publish(s.room, c.ID, c.Shape); err != nil {
			slog.Warn("publishing shape failed", "room_id", s.room, "shape_id", c.ID, "error", err)
		}
	case state.Replace:
		s.board.Replace(c.Index, c.Shape)
		s.loop.Invalidate()
	case state.SetViewport:
		s.mu.Lock()
		s.vp = c.Viewport
		s.mu.Unlock()
		s.loop.Invalidate()
	default:
		panic(fmt.Sprintf("session: unhandled command %T", cmd))
	}
}

func (s *Session) receive(in roomsync.Inbound) {
	if in.RoomID != "" && in.RoomID != s.room {
		slog.Debug("ignoring shape for another room", "room_id", in.RoomID)
		return
	}
	id := in.ID
	if id == "" {
		id = state.NewID()
	}
	if s.board.Append(id, in.Shape) {
		s.loop.Invalidate()
	}
}
