package chart

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	clientQueue  = 256
	writeTimeout = 10 * time.Second
)

// Event is one message on the chart stream.
type Event struct {
	Type   string   `json:"type"`
	Names  []string `json:"names,omitempty"`
	Batch  *Batch   `json:"batch,omitempty"`
	Traces []Trace  `json:"traces,omitempty"`
}

const (
	EventInit     = "init"
	EventClear    = "clear"
	EventAppend   = "append"
	EventSnapshot = "snapshot"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type hubClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub is a Sink that mirrors every call to connected websocket clients.
// Late joiners receive the full buffered chart as a snapshot event. A
// client that falls clientQueue messages behind is disconnected.
type Hub struct {
	mu      sync.Mutex
	buf     *Buffer
	names   []string
	clients map[*hubClient]struct{}
}

func NewHub() *Hub {
	return &Hub{
		buf:     NewBuffer(),
		clients: make(map[*hubClient]struct{}),
	}
}

func (h *Hub) Init(names []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.names = append([]string(nil), names...)
	h.buf.Init(names)
	h.broadcast(Event{Type: EventInit, Names: h.names})
}

func (h *Hub) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buf.Clear()
	h.broadcast(Event{Type: EventClear})
}

func (h *Hub) Append(b Batch) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buf.Append(b)
	h.broadcast(Event{Type: EventAppend, Batch: &b})
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) broadcast(ev Event) {
	if len(h.clients) == 0 {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Warn("chart event encode failed", "type", ev.Type, "error", err)
		return
	}
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slog.Warn("chart client too slow, dropping", "remote", c.conn.RemoteAddr().String())
			h.drop(c)
		}
	}
}

func (h *Hub) drop(c *hubClient) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// ServeHTTP upgrades the request and streams chart events until the client
// disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("chart websocket upgrade failed", "error", err)
		return
	}
	c := &hubClient{conn: conn, send: make(chan []byte, clientQueue)}

	h.mu.Lock()
	for _, ev := range []Event{
		{Type: EventInit, Names: h.names},
		{Type: EventSnapshot, Traces: h.buf.Snapshot()},
	} {
		if data, err := json.Marshal(ev); err == nil {
			c.send <- data
		}
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	slog.Info("chart client connected", "remote", conn.RemoteAddr().String())
	go h.writeLoop(c)
	h.readLoop(c)
}

func (h *Hub) writeLoop(c *hubClient) {
	defer c.conn.Close()
	for data := range c.send {
		if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			return
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			slog.Debug("chart client write failed", "error", err)
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// readLoop discards client messages; it exists to notice disconnects.
func (h *Hub) readLoop(c *hubClient) {
	defer func() {
		h.mu.Lock()
		h.drop(c)
		h.mu.Unlock()
		slog.Info("chart client disconnected", "remote", c.conn.RemoteAddr().String())
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Snapshot returns the buffered chart contents.
func (h *Hub) Snapshot() []Trace {
	return h.buf.Snapshot()
}
