package store

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Memory keeps every room log in process memory.
type Memory struct {
	mu     sync.RWMutex
	rooms  map[string][]Chat
	nextID int64
	now    func() time.Time
}

func NewMemory() *Memory {
	return &Memory{rooms: make(map[string][]Chat), now: time.Now}
}

func (m *Memory) Append(ctx context.Context, c Chat) (Chat, error) {
	if err := ctx.Err(); err != nil {
		return Chat{}, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	if err := validate(c); err != nil {
		return Chat{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	c.ID = m.nextID
	c.CreatedAt = m.now().UTC()
	m.rooms[c.RoomID] = append(m.rooms[c.RoomID], c)
	return c, nil
}

func (m *Memory) List(ctx context.Context, roomID string) ([]Chat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Chat, len(m.rooms[roomID]))
	copy(out, m.rooms[roomID])
	return out, nil
}

func (m *Memory) Close() error { return nil }
