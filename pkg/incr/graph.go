package incr

import (
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
)

// Graph is one incremental computation graph: an arena of nodes plus the
// single evaluation stack that attributes reads to the node currently
// recomputing.
//
// A graph admits one evaluation at a time. Public entry points take the
// graph lock; reads performed by compute functions re-enter on the same
// goroutine and bypass it. Concurrent use from multiple goroutines is
// therefore safe in the coarse sense (operations serialize), but a
// compute function must never be made to wait on another goroutine that
// touches the same graph.
type Graph struct {
	mu sync.Mutex

	// heldBy is the ID of the goroutine currently holding mu, so that
	// nested reads from compute functions can recognize themselves.
	heldBy atomic.Uint64

	store nodeStore
	tr    tracker

	obs Observer
	log *slog.Logger

	batchDepth int
	pending    []NodeID // source writes awaiting invalidation (batch mode)

	edges int
	stats statsCounters
}

type statsCounters struct {
	writes        uint64
	invalidations uint64
	recomputes    uint64
	cacheHits     uint64
	validations   uint64
	failures      uint64
}

// Option configures a Graph.
type Option func(*Graph)

// WithObserver wires an observer that receives graph events (see Event).
// Use MultiObserver to attach more than one.
func WithObserver(o Observer) Option {
	return func(g *Graph) {
		g.obs = o
	}
}

// WithLogger enables debug logging of graph activity to the given
// structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Graph) {
		g.log = l
	}
}

// NewGraph creates an empty graph.
func NewGraph(opts ...Option) *Graph {
	g := &Graph{tr: newTracker()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// goroutineID returns a unique identifier for the current goroutine,
// parsed from the runtime stack header ("goroutine <id> ...").
// An implementation detail; never exposed.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	var id uint64
	for i := 10; i < n; i++ { // skip "goroutine "
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// lock acquires the graph unless the current goroutine already holds it
// (a nested read from inside a compute function). Reports whether the
// lock was actually taken; pass the result to unlock.
func (g *Graph) lock() bool {
	gid := goroutineID()
	if g.heldBy.Load() == gid {
		return false
	}
	g.mu.Lock()
	g.heldBy.Store(gid)
	return true
}

func (g *Graph) unlock(locked bool) {
	if !locked {
		return
	}
	g.heldBy.Store(0)
	g.mu.Unlock()
}

// observe emits an event if an observer is attached. Callers must hold
// the graph lock.
func (g *Graph) observe(e Event) {
	if g.obs != nil {
		g.obs.Observe(e)
	}
}

// setSource stores a new value into a source node and marks dependents
// stale. Equal values are a complete no-op: no version bump, no
// propagation, no events.
func (g *Graph) setSource(id NodeID, value any) {
	locked := g.lock()
	defer g.unlock(locked)

	if g.tr.depth() > 0 {
		// A write from inside a compute function would invalidate
		// nodes that are mid-recomputation and lose the staleness when
		// their evaluation completes.
		panic(ErrWriteDuringEval)
	}

	n := g.store.node(id)
	if n.eq(n.value, value) {
		return
	}
	n.value = value
	n.version++
	g.stats.writes++
	g.observe(SourceWrite{ID: id, Version: n.version})
	if g.log != nil {
		g.log.Debug("incr: source write", "node", id, "version", n.version)
	}

	if g.batchDepth > 0 {
		g.pending = append(g.pending, id)
		return
	}
	g.invalidateDependents(id)
}

// Batch groups several source writes into a single invalidation phase.
// Values and versions update immediately; the staleness walks run once,
// deduplicated, when the outermost batch completes. With pull-based
// evaluation this only coalesces the marking work, but for wide fan-out
// graphs that is exactly the expensive part of a write burst.
//
// Batches nest; only the outermost completion flushes.
func (g *Graph) Batch(fn func()) {
	locked := g.lock()
	defer g.unlock(locked)

	g.batchDepth++
	defer func() {
		g.batchDepth--
		if g.batchDepth == 0 {
			g.flushPending()
		}
	}()

	fn()
}

// flushPending runs the deferred invalidation walks, deduplicated by
// node ID. Callers must hold the graph lock.
func (g *Graph) flushPending() {
	pending := g.pending
	g.pending = nil
	if len(pending) == 0 {
		return
	}

	seen := make(map[NodeID]bool, len(pending))
	for _, id := range pending {
		if seen[id] {
			continue
		}
		seen[id] = true
		g.invalidateDependents(id)
	}
}

// Untracked runs fn with dependency recording suppressed. Reads inside
// fn return current values (recomputing if needed) but do not register
// as dependencies of the evaluation in progress.
//
// For a single read, the handle Peek methods are clearer.
func (g *Graph) Untracked(fn func()) {
	locked := g.lock()
	defer g.unlock(locked)

	g.tr.paused++
	defer func() { g.tr.paused-- }()
	fn()
}
