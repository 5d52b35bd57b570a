// Package roomsync connects a drawing client to a room broadcast server.
package roomsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/websocket"

	"RoomBoard/internal/protocol"
	"RoomBoard/internal/shape"
)

var (
	ErrUnauthorized = errors.New("server rejected credentials")
	ErrClosed       = errors.New("connection closed")
	ErrQueueFull    = errors.New("send queue full")
)

const (
	writeWait = 10 * time.Second

	// DefaultQueue is the number of outgoing frames buffered before sends
	// start to drop.
	DefaultQueue = 64
)

type Options struct {
	// Server is host:port or a ws://, wss://, http:// or https:// URL.
	Server string
	Token  string
	Queue  int
	Dialer *websocket.Dialer
}

// Inbound is a shape received for a joined room.
type Inbound struct {
	RoomID string
	ID     string
	Shape  shape.Shape
}

// Client is one websocket link to the server. Join, Leave and Publish only
// enqueue; a writer goroutine sends, a reader goroutine decodes.
type Client struct {
	ws      *websocket.Conn
	send    chan []byte
	inbound chan Inbound

	done      chan struct{}
	closeOnce sync.Once
	mu        sync.Mutex
	err       error
}

// Dial connects and authenticates with opts.Token.
func Dial(ctx context.Context, opts Options) (*Client, error) {
	endpoint, err := SocketURL(opts.Server, opts.Token)
	if err != nil {
		return nil, err
	}
	dialer := opts.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	if opts.Queue <= 0 {
		opts.Queue = DefaultQueue
	}

	ws, resp, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("dialing %s: %w", opts.Server, ErrUnauthorized)
		}
		return nil, fmt.Errorf("dialing %s: %w", opts.Server, err)
	}

	c := &Client{
		ws:      ws,
		send:    make(chan []byte, opts.Queue),
		inbound: make(chan Inbound, opts.Queue),
		done:    make(chan struct{}),
	}
	go c.writeLoop()
	go c.readLoop()

	slog.Info("connected to room server", "server", opts.Server)
	return c, nil
}

func (c *Client) Join(room string) error  { return c.enqueue(protocol.Join(room)) }
func (c *Client) Leave(room string) error { return c.enqueue(protocol.Leave(room)) }

// Publish sends s to room under id.
func (c *Client) Publish(room, id string, s shape.Shape) error {
	payload, err := protocol.EncodeShape(id, s)
	if err != nil {
		return err
	}
	return c.enqueue(protocol.Chat(room, payload))
}

// Inbound delivers shapes from joined rooms. It is closed once the
// connection is gone.
func (c *Client) Inbound() <-chan Inbound { return c.inbound }

// Done is closed when the connection is lost or closed.
func (c *Client) Done() <-chan struct{} { return c.done }

// Err reports why the connection ended; nil while it is open or after Close.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close flushes queued frames and closes the connection.
func (c *Client) Close() error {
	c.shutdown(nil)
	return nil
}

func (c *Client) shutdown(err error) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		close(c.done)
	})
}

func (c *Client) enqueue(msg protocol.Message) error {
	data, err := msg.Encode()
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.send <- data:
		return nil
	default:
		slog.Warn("send queue full, dropping message", "type", msg.Type, "room_id", msg.RoomID)
		return ErrQueueFull
	}
}

func (c *Client) writeLoop() {
	defer c.ws.Close()
	for {
		select {
		case data := <-c.send:
			if err := c.write(data); err != nil {
				c.shutdown(fmt.Errorf("writing: %w", err))
				return
			}
		case <-c.done:
			for {
				select {
				case data := <-c.send:
					if c.write(data) != nil {
						return
					}
				default:
					c.ws.SetWriteDeadline(time.Now().Add(writeWait))
					c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					return
				}
			}
		}
	}
}

func (c *Client) write(data []byte) error {
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) readLoop() {
	defer close(c.inbound)
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				err = nil
			}
			select {
			case <-c.done:
			default:
				if err == nil {
					err = ErrClosed
				}
				slog.Warn("connection to room server lost", "error", err)
			}
			c.shutdown(err)
			return
		}

		msg, err := protocol.Parse(data)
		if err != nil {
			slog.Warn("dropping malformed frame", "size", humanize.Bytes(uint64(len(data))), "error", err)
			continue
		}
		switch msg.Type {
		case protocol.TypeChat:
			id, s, err := protocol.DecodeShape(msg.Message)
			if err != nil {
				slog.Warn("dropping chat with invalid shape", "room_id", msg.RoomID, "error", err)
				continue
			}
			select {
			case c.inbound <- Inbound{RoomID: msg.RoomID, ID: id, Shape: s}:
			case <-c.done:
				return
			}
		case protocol.TypeError:
			slog.Error("server reported a failure", "room_id", msg.RoomID, "message", msg.Message)
		default:
			slog.Debug("ignoring frame", "type", msg.Type)
		}
	}
}

// SocketURL builds the websocket endpoint for server with token attached.
func SocketURL(server, token string) (string, error) {
	u, err := parseServer(server)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	if u.Path == "" {
		u.Path = "/"
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// BaseURL is the HTTP origin of server, used for history requests.
func BaseURL(server string) (string, error) {
	u, err := parseServer(server)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	}
	u.Path, u.RawQuery = "", ""
	return u.String(), nil
}

func parseServer(server string) (*url.URL, error) {
	if server == "" {
		return nil, errors.New("no server address")
	}
	if !strings.Contains(server, "://") {
		server = "ws://" + server
	}
	u, err := url.Parse(server)
	if err != nil {
		return nil, fmt.Errorf("parsing server address: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss", "http", "https":
	default:
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("server address %q has no host", server)
	}
	return u, nil
}
