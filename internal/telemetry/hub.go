package telemetry

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/appengine-ltd/reactor/internal/logging"
	"github.com/appengine-ltd/reactor/internal/reactor"
)

const (
	writeWait      = 10 * time.Second
	clientBuffer   = 32
	maxInboundSize = 512
)

// Message is the envelope pushed to websocket clients.
type Message struct {
	Type     string            `json:"type"`
	Snapshot *reactor.Snapshot `json:"snapshot,omitempty"`
	GameOver *reactor.GameOver `json:"game_over,omitempty"`
}

const (
	MessageSnapshot = "snapshot"
	MessageGameOver = "game_over"
)

type client struct {
	id   uuid.UUID
	conn *websocket.Conn
	send chan []byte
}

// Hub fans messages out to websocket clients. Slow clients miss messages
// rather than blocking the simulation.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*client]bool
	upgrader websocket.Upgrader
	log      *slog.Logger
	closed   bool
	wg       sync.WaitGroup
}

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = logging.Discard()
	}
	return &Hub{
		clients: make(map[*client]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log: log,
	}
}

// Serve upgrades the request and streams messages to the client until it
// disconnects. The greeting is the first message the client receives.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, greeting Message) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "err", err)
		return
	}
	c := &client{id: uuid.New(), conn: conn, send: make(chan []byte, clientBuffer)}

	first, err := json.Marshal(greeting)
	if err != nil {
		h.log.Error("encode websocket greeting", "err", err)
		conn.Close()
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = true
	c.send <- first
	h.mu.Unlock()
	h.log.Debug("websocket client connected", "client", c.id)

	h.wg.Add(1)
	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) writePump(c *client) {
	defer h.wg.Done()
	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.Debug("websocket write failed", "client", c.id, "err", err)
			h.remove(c)
			break
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	c.conn.Close()
}

// readPump discards inbound frames; it exists to notice disconnects.
func (h *Hub) readPump(c *client) {
	c.conn.SetReadLimit(maxInboundSize)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
	h.log.Debug("websocket client disconnected", "client", c.id)
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Broadcast queues msg for every client and reports how many accepted it.
func (h *Hub) Broadcast(msg Message) int {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("encode websocket message", "type", msg.Type, "err", err)
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	sent := 0
	for c := range h.clients {
		select {
		case c.send <- data:
			sent++
		default:
			h.log.Debug("websocket client lagging, dropping message", "client", c.id, "type", msg.Type)
		}
	}
	return sent
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and waits for their writers to finish.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	h.wg.Wait()
	return nil
}
