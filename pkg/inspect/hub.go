package inspect

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/incr-dev/incr/pkg/incr"
)

// EventMessage is the wire form of a graph event sent to inspector
// clients.
type EventMessage struct {
	Type       string      `json:"type"`
	Node       incr.NodeID `json:"node,omitempty"`
	Kind       string      `json:"kind,omitempty"`
	Name       string      `json:"name,omitempty"`
	Version    uint64      `json:"version,omitempty"`
	Changed    bool        `json:"changed,omitempty"`
	DurationUS int64       `json:"duration_us,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Hub broadcasts graph events to WebSocket clients. It implements
// incr.Observer; events are handed off to a buffered queue so the
// graph's evaluation never blocks on a slow client, and are dropped if
// the queue is full.
type Hub struct {
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex

	upgrader websocket.Upgrader

	queue chan EventMessage
	done  chan struct{}
	once  sync.Once
}

// NewHub creates a hub and starts its broadcast loop.
func NewHub() *Hub {
	h := &Hub{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // debug tooling
			},
		},
		queue: make(chan EventMessage, 1024),
		done:  make(chan struct{}),
	}
	go h.run()
	return h
}

// Observe implements incr.Observer. Never blocks.
func (h *Hub) Observe(e incr.Event) {
	msg, ok := toMessage(e)
	if !ok {
		return
	}
	select {
	case h.queue <- msg:
	default:
		// Queue full; inspector traffic is best-effort.
	}
}

func toMessage(e incr.Event) (EventMessage, bool) {
	switch ev := e.(type) {
	case incr.NodeCreated:
		return EventMessage{Type: "node_created", Node: ev.ID, Kind: ev.Kind.String(), Name: ev.Name}, true
	case incr.SourceWrite:
		return EventMessage{Type: "source_write", Node: ev.ID, Version: ev.Version}, true
	case incr.NodeInvalidated:
		return EventMessage{Type: "invalidated", Node: ev.ID}, true
	case incr.PullStarted:
		return EventMessage{Type: "pull_started", Node: ev.ID}, true
	case incr.PullFinished:
		msg := EventMessage{Type: "pull_finished", Node: ev.ID, DurationUS: ev.Duration.Microseconds()}
		if ev.Err != nil {
			msg.Error = ev.Err.Error()
		}
		return msg, true
	case incr.Recomputed:
		return EventMessage{Type: "recomputed", Node: ev.ID, Changed: ev.Changed, DurationUS: ev.Duration.Microseconds()}, true
	case incr.ComputeFailed:
		return EventMessage{Type: "compute_failed", Node: ev.ID, Error: ev.Err.Error()}, true
	case incr.Validated:
		return EventMessage{Type: "validated", Node: ev.ID}, true
	default:
		return EventMessage{}, false
	}
}

// run drains the queue and fans messages out until Close.
func (h *Hub) run() {
	for {
		select {
		case msg := <-h.queue:
			h.broadcast(msg)
		case <-h.done:
			return
		}
	}
}

// HandleWebSocket upgrades the connection and keeps it registered until
// the client disconnects.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// broadcast sends a message to all connected clients, dropping clients
// whose connections fail.
func (h *Hub) broadcast(msg EventMessage) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(msg); err != nil {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			conn.Close()
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close stops the broadcast loop and disconnects all clients.
func (h *Hub) Close() {
	h.once.Do(func() {
		close(h.done)
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
	}
	h.clients = make(map[*websocket.Conn]bool)
}
