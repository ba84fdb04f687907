package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 2 * time.Second
	sendBuffer = 32
)

// client owns one connection. Only its writer goroutine writes to ws.
type client struct {
	ws   *websocket.Conn
	send chan []byte
}

// Hub keeps the connected websocket clients. Publish never blocks on a
// connection: each client has a buffered queue drained by its own writer,
// and a client whose queue is full is dropped.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]*client
	logger  *zap.Logger
}

type Stats struct {
	WSClients int `json:"ws_clients"`
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[*websocket.Conn]*client),
		logger:  logger,
	}
}

// Add registers ws, queues the welcome event and starts its writer.
func (h *Hub) Add(ws *websocket.Conn) {
	cl := &client{ws: ws, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	h.clients[ws] = cl
	welcome, _ := json.Marshal(Event{
		Type: TypeWelcome,
		Data: map[string]int{"clients": len(h.clients)},
		At:   time.Now().UTC(),
	})
	// queued before any publish can reach this client
	cl.send <- welcome
	h.mu.Unlock()

	go h.writeLoop(cl)
}

func (h *Hub) Remove(ws *websocket.Conn) {
	h.mu.Lock()
	h.dropLocked(ws)
	h.mu.Unlock()
	_ = ws.Close()
}

// Publish implements Publisher.
func (h *Hub) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	b, err := json.Marshal(e)
	if err != nil {
		h.logger.Warn("event marshal failed", zap.String("type", e.Type), zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ws, cl := range h.clients {
		select {
		case cl.send <- b:
		default:
			h.logger.Debug("ws client too slow, dropping", zap.String("remote", ws.RemoteAddr().String()))
			h.dropLocked(ws)
			_ = ws.Close()
		}
	}
}

func (h *Hub) writeLoop(cl *client) {
	defer cl.ws.Close()
	for b := range cl.send {
		_ = cl.ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := cl.ws.WriteMessage(websocket.TextMessage, b); err != nil {
			h.logger.Debug("dropping ws client", zap.Error(err))
			h.mu.Lock()
			h.dropLocked(cl.ws)
			h.mu.Unlock()
			return
		}
	}
}

// dropLocked forgets ws and stops its writer. Safe to call twice.
func (h *Hub) dropLocked(ws *websocket.Conn) {
	cl, ok := h.clients[ws]
	if !ok {
		return
	}
	delete(h.clients, ws)
	close(cl.send)
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{WSClients: len(h.clients)}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ws := range h.clients {
		h.dropLocked(ws)
		_ = ws.Close()
	}
}
