// websocket_test.go - Tests for layout change notifications
package api

import (
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialEvents(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/layouts"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestEventHub_BroadcastsLayoutChanges(t *testing.T) {
	ts := newTestServer(t)
	srv := httptest.NewServer(ts.e)
	defer srv.Close()

	conn := dialEvents(t, srv)
	assert.Equal(t, MsgTypeConnected, readEvent(t, conn).Type)

	// Registration happens right after the welcome message is queued.
	require.Eventually(t, func() bool { return ts.events.Clients() == 1 }, 5*time.Second, 10*time.Millisecond)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/layouts", strings.NewReader(`{"name":"Live"}`))
	require.NoError(t, err)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAuthorization, ts.fx.BearerFor(t, "maintainer"))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	msg := readEvent(t, conn)
	assert.Equal(t, MsgTypeLayoutCreated, msg.Type)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, msg.ID, msg.LayoutID)
	assert.NotZero(t, msg.Timestamp)
}

func TestEventHub_PingPong(t *testing.T) {
	ts := newTestServer(t)
	srv := httptest.NewServer(ts.e)
	defer srv.Close()

	conn := dialEvents(t, srv)
	readEvent(t, conn)

	require.NoError(t, conn.WriteJSON(WSMessage{Type: MsgTypePing}))
	assert.Equal(t, MsgTypePong, readEvent(t, conn).Type)

	conn.Close()
	require.Eventually(t, func() bool { return ts.events.Clients() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestEventHub_SlowClientIsDisconnected(t *testing.T) {
	hub := NewEventHub(nil)

	serverConns := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := hub.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serverConns <- ws
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	// An unbuffered queue with no writer draining it is always full.
	cl := &wsClient{conn: <-serverConns, send: make(chan WSMessage)}
	hub.register(cl)
	require.Equal(t, 1, hub.Clients())

	hub.Publish(WSMessage{Type: MsgTypeLayoutUpdated, ID: "l1", LayoutID: "l1"})
	assert.Equal(t, 0, hub.Clients())

	_, open := <-cl.send
	assert.False(t, open, "send queue is closed")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	var netErr net.Error
	if errors.As(err, &netErr) {
		assert.False(t, netErr.Timeout(), "client sees the disconnect instead of waiting")
	}
}
