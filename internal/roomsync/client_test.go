package roomsync

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RoomBoard/internal/auth"
	"RoomBoard/internal/protocol"
	"RoomBoard/internal/server"
	"RoomBoard/internal/shape"
	"RoomBoard/internal/store"
)

var testSecret = strings.Repeat("roomsync-test-", 4)

func startServer(t *testing.T) (*server.Server, *httptest.Server) {
	t.Helper()
	v, err := auth.NewVerifier(testSecret)
	require.NoError(t, err)
	srv := server.New(store.NewMemory(), v, server.Options{Echo: true})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func token(t *testing.T, user string) string {
	t.Helper()
	tok, err := auth.Issue(testSecret, user, time.Hour)
	require.NoError(t, err)
	return tok
}

func dial(t *testing.T, ts *httptest.Server, user string) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, err := Dial(ctx, Options{Server: ts.URL, Token: token(t, user)})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func receive(t *testing.T, c *Client) Inbound {
	t.Helper()
	select {
	case in, ok := <-c.Inbound():
		require.True(t, ok, "inbound closed")
		return in
	case <-time.After(2 * time.Second):
		t.Fatal("no shape received")
		return Inbound{}
	}
}

func waitMembers(t *testing.T, srv *server.Server, room string, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(srv.Registry().Members(room)) == n
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSocketURL(t *testing.T) {
	tests := []struct {
		server string
		want   string
	}{
		{"localhost:8080", "ws://localhost:8080/?token=abc"},
		{"http://10.0.0.2:8080", "ws://10.0.0.2:8080/?token=abc"},
		{"https://board.example", "wss://board.example/?token=abc"},
		{"wss://board.example/ws", "wss://board.example/ws?token=abc"},
	}
	for _, tt := range tests {
		got, err := SocketURL(tt.server, "abc")
		require.NoError(t, err, tt.server)
		assert.Equal(t, tt.want, got)
	}

	for _, bad := range []string{"", "ftp://host", "ws://"} {
		_, err := SocketURL(bad, "abc")
		assert.Error(t, err, bad)
	}
}

func TestBaseURL(t *testing.T) {
	got, err := BaseURL("localhost:8080")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", got)

	got, err = BaseURL("wss://board.example/ws?token=x")
	require.NoError(t, err)
	assert.Equal(t, "https://board.example", got)
}

func TestPublishReachesRoomMembers(t *testing.T) {
	srv, ts := startServer(t)
	a, b := dial(t, ts, "alice"), dial(t, ts, "bob")
	require.NoError(t, a.Join("R1"))
	require.NoError(t, b.Join("R1"))
	waitMembers(t, srv, "R1", 2)

	rect := shape.Rect{X: 10, Y: 10, Width: 100, Height: 50, Style: shape.DefaultStyle}
	require.NoError(t, a.Publish("R1", "s1", rect))

	for _, c := range []*Client{b, a} {
		in := receive(t, c)
		assert.Equal(t, "R1", in.RoomID)
		assert.Equal(t, "s1", in.ID)
		assert.Equal(t, rect, in.Shape)
	}
}

func TestLeaveStopsDelivery(t *testing.T) {
	srv, ts := startServer(t)
	a, b := dial(t, ts, "alice"), dial(t, ts, "bob")
	require.NoError(t, a.Join("R1"))
	require.NoError(t, b.Join("R1"))
	waitMembers(t, srv, "R1", 2)
	require.NoError(t, b.Leave("R1"))
	waitMembers(t, srv, "R1", 1)

	require.NoError(t, a.Publish("R1", "s1", shape.Line{ToX: 3}))
	receive(t, a)

	select {
	case in := <-b.Inbound():
		t.Fatalf("unexpected delivery %+v", in)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestDialRejectsBadToken(t *testing.T) {
	_, ts := startServer(t)
	_, err := Dial(context.Background(), Options{Server: ts.URL, Token: "nope"})
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestCloseEndsStreams(t *testing.T) {
	_, ts := startServer(t)
	c := dial(t, ts, "alice")
	require.NoError(t, c.Close())

	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("done not closed")
	}
	require.Eventually(t, func() bool {
		_, ok := <-c.Inbound()
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
	assert.NoError(t, c.Err())
	assert.ErrorIs(t, c.Join("R1"), ErrClosed)
	assert.ErrorIs(t, c.Publish("R1", "x", shape.Line{}), ErrClosed)
}

// scriptedServer upgrades, writes frames, then closes normally.
func scriptedServer(t *testing.T, frames ...string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		up := websocket.Upgrader{}
		ws, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		for _, f := range frames {
			ws.WriteMessage(websocket.TextMessage, []byte(f))
		}
		ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
		time.Sleep(50 * time.Millisecond)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestReaderSkipsBadFramesAndReportsLoss(t *testing.T) {
	payload, err := protocol.EncodeShape("good", shape.Ellipse{RadiusX: 2, RadiusY: 3})
	require.NoError(t, err)
	good, err := protocol.Chat("R1", payload).Encode()
	require.NoError(t, err)
	failed, err := protocol.Error("R1", "shape was not saved").Encode()
	require.NoError(t, err)

	ts := scriptedServer(t,
		"not json",
		string(failed),
		`{"type":"chat","roomId":"R1","message":"{\"shape\":{\"type\":\"blob\"}}"}`,
		string(good),
	)
	c, err := Dial(context.Background(), Options{Server: ts.URL, Token: "t"})
	require.NoError(t, err)
	defer c.Close()

	in := receive(t, c)
	assert.Equal(t, "good", in.ID)
	assert.Equal(t, shape.Ellipse{RadiusX: 2, RadiusY: 3}, in.Shape)

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("done not closed after server went away")
	}
	assert.ErrorIs(t, c.Err(), ErrClosed)
}
