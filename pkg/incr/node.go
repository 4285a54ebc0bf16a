package incr

// NodeID identifies a node within its graph. IDs are opaque, stable for
// the node's lifetime, and never reused. The zero value is not a valid ID.
type NodeID uint64

// NodeKind distinguishes the two node variants.
type NodeKind uint8

const (
	// KindSource is a leaf node holding externally mutated data.
	KindSource NodeKind = iota + 1

	// KindDerived is a node computed from other nodes via a pure function.
	KindDerived
)

// String returns the kind name for logs and snapshots.
func (k NodeKind) String() string {
	switch k {
	case KindSource:
		return "source"
	case KindDerived:
		return "derived"
	default:
		return "unknown"
	}
}

// depEdge records one dependency together with the version of that
// dependency observed during the owning node's last successful evaluation.
// Comparing the recorded version against the dependency's current version
// is what lets a stale node be validated without rerunning its compute
// function when nothing upstream actually changed.
type depEdge struct {
	id      NodeID
	version uint64
}

// node is the type-erased storage for both variants. Strong typing lives
// entirely in the Source[T]/Derived[T] handle layer; the graph core only
// ever sees `any` values plus an equality function.
type node struct {
	id   NodeID
	kind NodeKind
	name string

	// value is the current (source) or memoized (derived) value.
	// For derived nodes it is absent until the first evaluation.
	value    any
	hasValue bool

	// version increases on every value change and never on a
	// recomputation that produced an equal value.
	version uint64

	// stale marks a derived node as possibly outdated. Sources are
	// never stale.
	stale bool

	// checking guards against re-entrant validation of the same node,
	// which can only happen when the recorded edges form a cycle.
	checking bool

	// compute is the user function for derived nodes, nil for sources.
	compute func() (any, error)

	// eq gates version bumps and invalidation (the early-cutoff check).
	eq func(a, b any) bool

	// deps lists what this node read during its last successful
	// evaluation, in read order. Replaced wholesale on every
	// recomputation so edges from branches no longer taken are dropped.
	deps []depEdge

	// subs is the inverse relation: the derived nodes that read this
	// node during their last evaluation.
	subs map[NodeID]struct{}
}
