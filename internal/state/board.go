package state

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"RoomBoard/internal/shape"
)

// Entry is one committed shape in a board's ordered list.
type Entry struct {
	ID    string
	Shape shape.Shape
}

// NewID returns a fresh shape id.
func NewID() string { return uuid.NewString() }

// Board is the local, append-only list of committed shapes of one room.
// Entries keep their insertion order; the same id is never appended twice, so
// a shape echoed back by the server is ignored.
type Board struct {
	mu      sync.RWMutex
	entries []Entry
	index   map[string]int
}

func NewBoard() *Board {
	return &Board{index: make(map[string]int)}
}

// Append adds a shape and reports whether it was new. An empty id is always
// accepted since it cannot be deduplicated.
func (b *Board) Append(id string, s shape.Shape) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if id != "" {
		if _, exists := b.index[id]; exists {
			slog.Debug("duplicate shape ignored", "shape_id", id)
			return false
		}
		b.index[id] = len(b.entries)
	}
	b.entries = append(b.entries, Entry{ID: id, Shape: s})
	return true
}

// Replace swaps the shape at index i, keeping its id. Out of range is a no-op.
func (b *Board) Replace(i int, s shape.Shape) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if i < 0 || i >= len(b.entries) {
		return false
	}
	b.entries[i].Shape = s
	return true
}

// Load replaces the board contents, dropping duplicate ids.
func (b *Board) Load(entries []Entry) {
	b.mu.Lock()
	b.entries = make([]Entry, 0, len(entries))
	b.index = make(map[string]int, len(entries))
	b.mu.Unlock()

	for _, e := range entries {
		b.Append(e.ID, e.Shape)
	}
}

// Shapes returns the shapes in list order.
func (b *Board) Shapes() []shape.Shape {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]shape.Shape, len(b.entries))
	for i, e := range b.entries {
		out[i] = e.Shape
	}
	return out
}

// Entries returns a copy of the list.
func (b *Board) Entries() []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}
