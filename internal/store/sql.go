package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect is the SQL flavour of a database; it doubles as the driver name.
type Dialect string

const (
	SQLite   Dialect = TypeSQLite
	Postgres Dialect = TypePostgres
)

// SQL stores chats in a single table of a relational database.
type SQL struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// OpenSQL connects to url, verifies the connection and creates the schema.
func OpenSQL(ctx context.Context, dialect Dialect, url string) (*SQL, error) {
	if url == "" {
		return nil, fmt.Errorf("%s store needs a database URL", dialect)
	}
	db, err := sql.Open(string(dialect), url)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	if dialect == SQLite {
		// A ":memory:" database exists per connection.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	s := NewSQL(db, dialect)
	if err := s.CreateSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	slog.Info("database schema ready", "dialect", dialect)
	return s, nil
}

// NewSQL wraps an open database. The schema is not touched.
func NewSQL(db *sql.DB, dialect Dialect) *SQL {
	return &SQL{db: db, dialect: dialect, now: time.Now}
}

// CreateSchema creates the chat table and its index.
// Safe to call multiple times - uses IF NOT EXISTS.
func (s *SQL) CreateSchema(ctx context.Context) error {
	stmts := sqliteSchema
	if s.dialect == Postgres {
		stmts = postgresSchema
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS chat (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    room_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    message TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_chat_room_id ON chat(room_id, id)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS chat (
    id BIGSERIAL PRIMARY KEY,
    room_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    message TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS idx_chat_room_id ON chat(room_id, id)`,
}

func (s *SQL) Append(ctx context.Context, c Chat) (Chat, error) {
	if err := validate(c); err != nil {
		return Chat{}, err
	}
	c.CreatedAt = s.now().UTC()

	q := s.rebind(`INSERT INTO chat (room_id, user_id, message, created_at) VALUES (?, ?, ?, ?) RETURNING id`)
	if err := s.db.QueryRowContext(ctx, q, c.RoomID, c.UserID, c.Message, c.CreatedAt).Scan(&c.ID); err != nil {
		return Chat{}, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return c, nil
}

func (s *SQL) List(ctx context.Context, roomID string) ([]Chat, error) {
	q := s.rebind(`SELECT id, room_id, user_id, message, created_at FROM chat WHERE room_id = ? ORDER BY id`)
	rows, err := s.db.QueryContext(ctx, q, roomID)
	if err != nil {
		return nil, fmt.Errorf("listing chats of room %s: %w", roomID, err)
	}
	defer rows.Close()

	chats := []Chat{}
	for rows.Next() {
		var (
			c  Chat
			ts timestamp
		)
		if err := rows.Scan(&c.ID, &c.RoomID, &c.UserID, &c.Message, &ts); err != nil {
			return nil, fmt.Errorf("scanning chat: %w", err)
		}
		c.CreatedAt = time.Time(ts)
		chats = append(chats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing chats of room %s: %w", roomID, err)
	}
	return chats, nil
}

func (s *SQL) Close() error { return s.db.Close() }

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *SQL) rebind(q string) string {
	if s.dialect != Postgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// timestamp scans the textual and native time representations drivers
// return for a TIMESTAMP column.
type timestamp time.Time

var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func (t *timestamp) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*t = timestamp(v.UTC())
		return nil
	case int64:
		*t = timestamp(time.Unix(v, 0).UTC())
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	case nil:
		*t = timestamp(time.Time{})
		return nil
	}
	return fmt.Errorf("unsupported timestamp type %T", src)
}

func (t *timestamp) parse(s string) error {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			*t = timestamp(ts.UTC())
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", s)
}
