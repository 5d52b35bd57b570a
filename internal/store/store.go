/*
Package store persists the shape messages published to rooms.

A Store keeps, per room, the append-ordered log of chat payloads the server
accepted. The server calls Append before fanning a message out; clients
replay List to seed a board when they join.

# Backends

  - Memory: process-local, for development and tests
  - SQL: database/sql over SQLite (modernc.org/sqlite) or PostgreSQL (lib/pq)

Open picks a backend from the configured database type:

	st, err := store.Open(ctx, "sqlite", "file:board.db")
	if err != nil {
		log.Fatal(err)
	}
	defer st.Close()
*/
package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrPersist is wrapped by every failed write.
var ErrPersist = errors.New("persisting chat failed")

// Chat is one stored message of a room.
type Chat struct {
	ID        int64     `json:"id"`
	RoomID    string    `json:"roomId"`
	UserID    string    `json:"userId"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store is an append-only, per-room message log.
type Store interface {
	// Append stores c and returns it with ID and CreatedAt filled in.
	Append(ctx context.Context, c Chat) (Chat, error)
	// List returns the chats of a room in append order.
	List(ctx context.Context, roomID string) ([]Chat, error)
	Close() error
}

// Database types accepted by Open.
const (
	TypeMemory   = "memory"
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
)

// Open returns the store for dbType. SQL stores are pinged and have their
// schema created before Open returns.
func Open(ctx context.Context, dbType, url string) (Store, error) {
	switch dbType {
	case TypeMemory, "":
		return NewMemory(), nil
	case TypeSQLite, TypePostgres:
		return OpenSQL(ctx, Dialect(dbType), url)
	}
	return nil, fmt.Errorf("unknown database type %q (want memory, sqlite or postgres)", dbType)
}

func validate(c Chat) error {
	if c.RoomID == "" {
		return fmt.Errorf("%w: empty room id", ErrPersist)
	}
	return nil
}
