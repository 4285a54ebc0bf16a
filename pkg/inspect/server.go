// Package inspect is a debug HTTP server for incr graphs: node table and
// edge snapshots as JSON, activity counters, Prometheus metrics, and a
// live WebSocket stream of graph events.
//
// Not meant to face the public internet; mount it on a debug port.
//
//	hub := inspect.NewHub()
//	g := incr.NewGraph(incr.WithObserver(hub))
//	srv := inspect.NewServer(g, inspect.WithHub(hub))
//	http.ListenAndServe("localhost:6071", srv.Handler())
package inspect

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/incr-dev/incr/pkg/incr"
)

// Server serves graph introspection endpoints:
//
//	GET /graph    full node/edge snapshot (JSON)
//	GET /stats    size and activity counters (JSON)
//	GET /metrics  Prometheus exposition (default registry)
//	GET /ws       live event stream (requires a Hub)
type Server struct {
	graph  *incr.Graph
	hub    *Hub
	router chi.Router
}

// Option configures the server.
type Option func(*Server)

// WithHub wires a hub for the /ws event stream. The same hub must be
// attached to the graph as an observer for events to flow.
func WithHub(h *Hub) Option {
	return func(s *Server) {
		s.hub = h
	}
}

// NewServer creates an inspector for the given graph.
func NewServer(g *incr.Graph, opts ...Option) *Server {
	s := &Server{graph: g}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/graph", s.handleGraph)
	r.Get("/stats", s.handleStats)
	r.Handle("/metrics", promhttp.Handler())
	if s.hub != nil {
		r.Get("/ws", s.hub.HandleWebSocket)
	}
	s.router = r
	return s
}

// Handler returns the http.Handler, for mounting in an external router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.graph.Snapshot())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.graph.Stats())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
