// websocket.go - Layout change notifications over WebSocket
package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// WebSocket message types
const (
	// Client -> Server messages
	MsgTypePing = "ping"

	// Server -> Client messages
	MsgTypeConnected        = "connected"
	MsgTypePong             = "pong"
	MsgTypeLayoutCreated    = "layout:created"
	MsgTypeLayoutUpdated    = "layout:updated"
	MsgTypeLayoutDeleted    = "layout:deleted"
	MsgTypeComponentCreated = "component:created"
	MsgTypeComponentUpdated = "component:updated"
	MsgTypeComponentDeleted = "component:deleted"
)

const (
	wsSendBuffer   = 32
	wsWriteTimeout = 10 * time.Second
)

// WSMessage is a notification sent to editors watching layouts.
type WSMessage struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	LayoutID  string `json:"layoutId,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Publisher receives layout change notifications.
type Publisher interface {
	Publish(msg WSMessage)
}

type wsClient struct {
	conn *websocket.Conn
	send chan WSMessage
}

// EventHub fans layout change notifications out to connected WebSocket clients.
// Clients that fall behind are disconnected.
type EventHub struct {
	upgrader websocket.Upgrader
	log      *log.Logger

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

// NewEventHub creates an EventHub with no clients.
func NewEventHub(logger *log.Logger) *EventHub {
	if logger == nil {
		logger = log.Default()
	}
	return &EventHub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Editors are served from a separate dev origin.
				return true
			},
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
		},
		log:     logger.WithPrefix("ws"),
		clients: make(map[*wsClient]struct{}),
	}
}

// Publish queues msg for every connected client.
func (h *EventHub) Publish(msg WSMessage) {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixMilli()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for cl := range h.clients {
		select {
		case cl.send <- msg:
		default:
			h.log.Warn("dropping slow client", "remote", cl.conn.RemoteAddr())
			delete(h.clients, cl)
			close(cl.send)
			// Closing the socket ends the client's read loop so it sees the disconnect.
			cl.conn.Close()
		}
	}
}

// Clients returns the number of connected clients.
func (h *EventHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *EventHub) register(cl *wsClient) {
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()
}

func (h *EventHub) unregister(cl *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		close(cl.send)
	}
}

// HandleWebSocket upgrades the connection and streams notifications until
// the client disconnects.
func (h *EventHub) HandleWebSocket(c echo.Context) error {
	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	cl := &wsClient{conn: ws, send: make(chan WSMessage, wsSendBuffer)}
	cl.send <- WSMessage{Type: MsgTypeConnected, Timestamp: time.Now().UnixMilli()}
	h.register(cl)
	h.log.Debug("client connected", "remote", ws.RemoteAddr(), "clients", h.Clients())

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer ws.Close()
		for msg := range cl.send {
			ws.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := ws.WriteJSON(msg); err != nil {
				return
			}
		}
	}()

	for {
		var msg WSMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("connection error", "err", err)
			}
			break
		}
		if msg.Type == MsgTypePing {
			h.reply(cl, WSMessage{Type: MsgTypePong, Timestamp: time.Now().UnixMilli()})
		}
	}

	h.unregister(cl)
	<-done
	h.log.Debug("client disconnected", "remote", ws.RemoteAddr())
	return nil
}

// reply queues msg for a single client.
func (h *EventHub) reply(cl *wsClient, msg WSMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[cl]; !ok {
		return
	}
	select {
	case cl.send <- msg:
	default:
	}
}

type noopPublisher struct{}

func (noopPublisher) Publish(WSMessage) {}
