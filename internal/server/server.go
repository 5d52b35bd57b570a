/*
Package server is the room broadcast server.

Clients connect over a websocket with an access token in the query string,
join rooms, and publish shapes as chat messages. Each chat message is stored
first and then forwarded to every connection joined to its room:

	client A ── chat R1 ──▶ server ── Append ──▶ store
	                          │
	                          ├──▶ client A (unless echo is off)
	                          └──▶ client B (joined to R1)

A message whose shape cannot be stored is not forwarded; its sender gets an
error message for the room instead.
*/
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/websocket"

	"RoomBoard/internal/protocol"
	"RoomBoard/internal/store"
)

const persistTimeout = 5 * time.Second

// Verifier resolves an access token to a user id.
type Verifier interface {
	Verify(token string) (string, error)
}

type Options struct {
	// Echo forwards chat messages back to their sender as well.
	Echo bool

	// SendQueue is the number of frames buffered per connection.
	SendQueue int
}

type Server struct {
	rooms    *Registry
	store    store.Store
	auth     Verifier
	echo     bool
	queue    int
	upgrader websocket.Upgrader
}

func New(st store.Store, auth Verifier, opts Options) *Server {
	if opts.SendQueue <= 0 {
		opts.SendQueue = 64
	}
	return &Server{
		rooms: NewRegistry(),
		store: st,
		auth:  auth,
		echo:  opts.Echo,
		queue: opts.SendQueue,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Registry exposes room membership, mainly for tests and health output.
func (s *Server) Registry() *Registry { return s.rooms }

// ServeWS authenticates the request and runs the connection until it closes.
// A missing or invalid token is answered with 401 before any upgrade.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	user, err := s.auth.Verify(r.URL.Query().Get("token"))
	if err != nil {
		slog.Warn("rejecting connection", "remote", r.RemoteAddr, "error", err)
		ErrorResponse(w, http.StatusUnauthorized, "missing or invalid token")
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the request.
		slog.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := newConn(ws, user, s.queue)
	slog.Info("client connected", "conn_id", c.id, "user_id", user, "remote", r.RemoteAddr)

	go c.writePump()
	s.readLoop(r.Context(), c)
}

func (s *Server) readLoop(ctx context.Context, c *Conn) {
	defer s.disconnect(c)

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("connection lost", "conn_id", c.id, "error", err)
			}
			return
		}
		s.handle(ctx, c, data)
	}
}

func (s *Server) disconnect(c *Conn) {
	left := s.rooms.Remove(c)
	c.close()
	slog.Info("client disconnected", "conn_id", c.id, "user_id", c.userID, "rooms", len(left), "dropped", c.Dropped())
}

// handle processes one inbound frame. Malformed frames are logged and
// skipped; the connection stays open.
func (s *Server) handle(ctx context.Context, c *Conn, data []byte) {
	msg, err := protocol.Parse(data)
	if err != nil {
		slog.Warn("dropping malformed message", "conn_id", c.id, "size", humanize.Bytes(uint64(len(data))), "error", err)
		return
	}

	switch msg.Type {
	case protocol.TypeJoinRoom:
		if s.rooms.Join(msg.RoomID, c) {
			slog.Info("joined room", "conn_id", c.id, "room_id", msg.RoomID)
		}
	case protocol.TypeLeaveRoom:
		if s.rooms.Leave(msg.RoomID, c) {
			slog.Info("left room", "conn_id", c.id, "room_id", msg.RoomID)
		}
	case protocol.TypeChat:
		s.publish(ctx, c, msg, data)
	default:
		slog.Warn("ignoring message type from client", "conn_id", c.id, "type", msg.Type)
	}
}

// publish stores a chat message and then forwards the frame to the room as
// it was received.
func (s *Server) publish(ctx context.Context, c *Conn, msg protocol.Message, frame []byte) {
	if _, _, err := protocol.DecodeShape(msg.Message); err != nil {
		slog.Warn("dropping chat with invalid shape", "conn_id", c.id, "room_id", msg.RoomID, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()
	chat, err := s.store.Append(ctx, store.Chat{RoomID: msg.RoomID, UserID: c.userID, Message: msg.Message})
	if err != nil {
		slog.Error("persisting chat failed, not forwarding", "conn_id", c.id, "room_id", msg.RoomID, "error", err)
		reason := "shape was not saved"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "shape was not saved: storage timed out"
		}
		if out, err := protocol.Error(msg.RoomID, reason).Encode(); err == nil {
			c.Send(out)
		}
		return
	}

	delivered := 0
	for _, m := range s.rooms.Members(msg.RoomID) {
		if m == c && !s.echo {
			continue
		}
		if m.Send(frame) {
			delivered++
		}
	}
	slog.Debug("chat forwarded",
		"chat_id", chat.ID,
		"room_id", msg.RoomID,
		"size", humanize.Bytes(uint64(len(frame))),
		"delivered", delivered,
	)
}
