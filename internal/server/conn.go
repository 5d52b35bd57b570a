package server

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
)

// Conn is one authenticated client connection. Outgoing frames go through a
// bounded queue drained by a single writer goroutine.
type Conn struct {
	id     string
	userID string
	ws     *websocket.Conn
	send   chan []byte

	done      chan struct{}
	closeOnce sync.Once
	dropped   atomic.Int64
}

func newConn(ws *websocket.Conn, userID string, queue int) *Conn {
	return &Conn{
		id:     uuid.NewString(),
		userID: userID,
		ws:     ws,
		send:   make(chan []byte, queue),
		done:   make(chan struct{}),
	}
}

func (c *Conn) ID() string     { return c.id }
func (c *Conn) UserID() string { return c.userID }

// Dropped is the number of frames discarded because the queue was full.
func (c *Conn) Dropped() int64 { return c.dropped.Load() }

// Send queues msg without blocking. It reports false when the frame was
// dropped, either because the queue is full or the connection is closing.
func (c *Conn) Send(msg []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		n := c.dropped.Add(1)
		slog.Warn("send queue full, dropping message", "conn_id", c.id, "user_id", c.userID, "dropped", n)
		return false
	}
}

// close stops the writer. Safe to call more than once.
func (c *Conn) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// writePump sends queued frames and keepalive pings until the connection is
// closed, then closes the socket.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				slog.Debug("write failed", "conn_id", c.id, "error", err)
				c.close()
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				slog.Debug("ping failed", "conn_id", c.id, "error", err)
				c.close()
				return
			}
		case <-c.done:
			c.flush()
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// flush writes whatever is still queued when the connection is closed
// locally.
func (c *Conn) flush() {
	for {
		select {
		case msg := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		default:
			return
		}
	}
}
