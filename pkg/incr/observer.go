package incr

import "time"

// Event is a notification about graph activity. Observers receive events
// synchronously while the graph lock is held, so implementations must be
// fast and must not call back into the graph.
type Event interface {
	event()
}

// NodeCreated is emitted when a source or derived node is constructed.
type NodeCreated struct {
	ID   NodeID
	Kind NodeKind
	Name string
}

// SourceWrite is emitted when a source write actually changed the stored
// value. No-op writes (equal value) emit nothing.
type SourceWrite struct {
	ID      NodeID
	Version uint64
}

// NodeInvalidated is emitted for each node newly marked stale during an
// invalidation walk.
type NodeInvalidated struct {
	ID NodeID
}

// PullStarted is emitted when host code demands a derived value at the
// top level (not from inside another evaluation).
type PullStarted struct {
	ID NodeID
}

// PullFinished closes a PullStarted.
type PullFinished struct {
	ID       NodeID
	Duration time.Duration
	Err      error
}

// Recomputed is emitted after a compute function ran successfully.
// Changed reports whether the result differed from the previous memoized
// value; when false the node's version was not bumped and its dependents
// will validate without recomputing (early cutoff).
type Recomputed struct {
	ID       NodeID
	Changed  bool
	Duration time.Duration
}

// ComputeFailed is emitted when a compute function returned an error.
// The node stays stale and retries on the next pull.
type ComputeFailed struct {
	ID  NodeID
	Err error
}

// CacheHit is emitted when a derived read was served from the memoized
// value with no work at all.
type CacheHit struct {
	ID NodeID
}

// Validated is emitted when a stale node was proven current by comparing
// dependency versions, skipping its compute function entirely.
type Validated struct {
	ID NodeID
}

func (NodeCreated) event()     {}
func (SourceWrite) event()     {}
func (NodeInvalidated) event() {}
func (PullStarted) event()     {}
func (PullFinished) event()    {}
func (Recomputed) event()      {}
func (ComputeFailed) event()   {}
func (CacheHit) event()        {}
func (Validated) event()       {}

// Observer receives graph events. Wire one up with WithObserver.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(Event)

// Observe implements Observer.
func (f ObserverFunc) Observe(e Event) { f(e) }

// MultiObserver fans events out to several observers in order.
func MultiObserver(obs ...Observer) Observer {
	return ObserverFunc(func(e Event) {
		for _, o := range obs {
			o.Observe(e)
		}
	})
}
