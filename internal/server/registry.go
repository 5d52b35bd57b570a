package server

import (
	"log/slog"
	"sort"
	"sync"
)

// Registry tracks which connections are joined to which rooms. One lock
// guards both directions of the mapping, so a room's member set is never
// mutated while it is being copied for a fan-out.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[*Conn]struct{}
	conns map[*Conn]map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]map[*Conn]struct{}),
		conns: make(map[*Conn]map[string]struct{}),
	}
}

// Join adds c to room. It reports false when c was already a member.
func (r *Registry) Join(room string, c *Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[room][c]; ok {
		return false
	}
	if r.rooms[room] == nil {
		r.rooms[room] = make(map[*Conn]struct{})
	}
	if r.conns[c] == nil {
		r.conns[c] = make(map[string]struct{})
	}
	r.rooms[room][c] = struct{}{}
	r.conns[c][room] = struct{}{}
	return true
}

// Leave removes c from room. It reports false when c was not a member.
func (r *Registry) Leave(room string, c *Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leave(room, c)
}

func (r *Registry) leave(room string, c *Conn) bool {
	if _, ok := r.rooms[room][c]; !ok {
		return false
	}
	delete(r.rooms[room], c)
	if len(r.rooms[room]) == 0 {
		delete(r.rooms, room)
	}
	delete(r.conns[c], room)
	if len(r.conns[c]) == 0 {
		delete(r.conns, c)
	}
	return true
}

// Remove takes c out of every room and returns the rooms it left.
func (r *Registry) Remove(c *Conn) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	left := make([]string, 0, len(r.conns[c]))
	for room := range r.conns[c] {
		left = append(left, room)
	}
	for _, room := range left {
		r.leave(room, c)
	}
	sort.Strings(left)
	if len(left) > 0 {
		slog.Debug("connection removed from rooms", "conn_id", c.ID(), "rooms", left)
	}
	return left
}

// Members returns a snapshot of the connections joined to room.
func (r *Registry) Members(room string) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make([]*Conn, 0, len(r.rooms[room]))
	for c := range r.rooms[room] {
		members = append(members, c)
	}
	return members
}

// Rooms returns the rooms c is joined to, sorted.
func (r *Registry) Rooms(c *Conn) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]string, 0, len(r.conns[c]))
	for room := range r.conns[c] {
		rooms = append(rooms, room)
	}
	sort.Strings(rooms)
	return rooms
}

// Count returns the number of non-empty rooms and of joined connections.
func (r *Registry) Count() (rooms, conns int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms), len(r.conns)
}
