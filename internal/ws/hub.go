// Package ws implements the Subscription Fabric: a persistent bidirectional
// WebSocket channel clients use to subscribe to a workspace's Log Bus.
// Clients send `join-app`/`leave-app` control messages; the Hub forwards Log
// Bus events for joined workspaces as `terminal:log` messages.
package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/samansalari/seenovate-appforge/internal/logbus"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 256
)

// Upgrader negotiates the WebSocket handshake. CheckOrigin is left to the
// caller to tighten (e.g. against config.CORS.AllowedOrigins); the zero
// value here accepts same-origin requests only, matching gorilla's default.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// clientMessage is the shape of control messages a connection sends.
type clientMessage struct {
	Type        string `json:"type"` // "join-app" | "leave-app"
	WorkspaceID string `json:"workspaceId"`
}

// serverMessage is the shape of messages the Hub forwards to a connection.
type serverMessage struct {
	Type        string        `json:"type"` // "terminal:log"
	WorkspaceID string        `json:"workspaceId"`
	Event       logbus.LogEvent `json:"event"`
}

// connection wraps one upgraded socket and its active Log Bus subscriptions.
type connection struct {
	conn   *websocket.Conn
	sendCh chan []byte
	done   chan struct{}
	once   sync.Once

	mu   sync.Mutex
	subs map[string]*logbus.Subscription // workspaceID -> subscription
}

// Hub upgrades incoming HTTP requests to WebSocket connections and relays
// Log Bus events to the connections that have joined a given workspace.
type Hub struct {
	Bus *logbus.Bus
}

// NewHub binds a Hub to bus.
func NewHub(bus *logbus.Bus) *Hub {
	return &Hub{Bus: bus}
}

// ServeHTTP upgrades the request and runs the connection's read/write pumps
// until it disconnects, at which point every joined subscription is closed.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rawConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws: upgrade failed")
		return
	}

	c := &connection{
		conn:   rawConn,
		sendCh: make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
		subs:   make(map[string]*logbus.Subscription),
	}

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) readPump(c *connection) {
	defer h.detachAll(c)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case "join-app":
			h.join(c, msg.WorkspaceID)
		case "leave-app":
			h.leave(c, msg.WorkspaceID)
		}
	}
}

func (h *Hub) writePump(c *connection) {
	defer func() {
		c.once.Do(func() { close(c.done) })
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.sendCh:
			if !ok {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (h *Hub) join(c *connection, workspaceID string) {
	if workspaceID == "" {
		return
	}
	c.mu.Lock()
	if _, already := c.subs[workspaceID]; already {
		c.mu.Unlock()
		return
	}
	sub := h.Bus.Subscribe(workspaceID)
	c.subs[workspaceID] = sub
	c.mu.Unlock()

	go h.forward(c, workspaceID, sub)
}

func (h *Hub) leave(c *connection, workspaceID string) {
	c.mu.Lock()
	sub, ok := c.subs[workspaceID]
	if ok {
		delete(c.subs, workspaceID)
	}
	c.mu.Unlock()
	if ok {
		sub.Close()
	}
}

func (h *Hub) detachAll(c *connection) {
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()
	for _, sub := range subs {
		sub.Close()
	}
	c.once.Do(func() { close(c.done) })
}

// forward relays one subscription's events onto the connection's send
// channel, dropping silently on a full buffer (the connection is slow or
// dead; the write pump's deadline will eventually close it).
func (h *Hub) forward(c *connection, workspaceID string, sub *logbus.Subscription) {
	for ev := range sub.C {
		b, err := json.Marshal(serverMessage{Type: "terminal:log", WorkspaceID: workspaceID, Event: ev})
		if err != nil {
			continue
		}
		select {
		case c.sendCh <- b:
		default:
		}
	}
}
