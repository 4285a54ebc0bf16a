package incr

// Source is a typed handle to a leaf node holding externally mutated
// data. Reading a Source during a derived node's evaluation automatically
// records the dependency; nothing needs to be declared.
type Source[T any] struct {
	g  *Graph
	id NodeID
}

// NewSource creates a source node holding the given initial value.
func NewSource[T any](g *Graph, initial T, opts ...NodeOption) *Source[T] {
	cfg := applyNodeOptions(opts)

	locked := g.lock()
	defer g.unlock(locked)

	n := &node{
		kind:     KindSource,
		name:     cfg.name,
		value:    initial,
		hasValue: true,
		version:  1,
		eq:       equalAny,
		subs:     make(map[NodeID]struct{}),
	}
	id := g.store.add(n)
	g.observe(NodeCreated{ID: id, Kind: KindSource, Name: cfg.name})
	return &Source[T]{g: g, id: id}
}

// Get returns the current value, recording the read if an evaluation is
// in progress. Always succeeds on a valid handle.
func (s *Source[T]) Get() T {
	s.ensureValid()
	locked := s.g.lock()
	defer s.g.unlock(locked)

	v, _ := s.g.valueOf(s.id) // source reads cannot fail
	return v.(T)
}

// Peek returns the current value without recording a dependency.
func (s *Source[T]) Peek() T {
	s.ensureValid()
	locked := s.g.lock()
	defer s.g.unlock(locked)

	return s.g.store.node(s.id).value.(T)
}

// Set stores a new value. If the value compares equal to the current one
// this is a complete no-op; otherwise the version is bumped and all
// transitive dependents are marked stale. Nothing recomputes eagerly.
//
// Set must not be called from inside a compute function.
func (s *Source[T]) Set(value T) {
	s.ensureValid()
	s.g.setSource(s.id, value)
}

// Update atomically reads and replaces the value. The usual Set
// semantics apply to the result.
func (s *Source[T]) Update(fn func(T) T) {
	s.ensureValid()
	locked := s.g.lock()
	defer s.g.unlock(locked)

	cur := s.g.store.node(s.id).value.(T)
	s.g.setSource(s.id, fn(cur))
}

// WithEquals configures a custom equality function, replacing the
// default comparison. Returns the handle for chaining at construction:
//
//	pos := incr.NewSource(g, Point{}).WithEquals(Point.Eq)
func (s *Source[T]) WithEquals(fn func(T, T) bool) *Source[T] {
	s.ensureValid()
	locked := s.g.lock()
	defer s.g.unlock(locked)

	s.g.store.node(s.id).eq = wrapEquals(fn)
	return s
}

// Version returns the node's version counter. It increases on every
// change of value and is stable across no-op writes.
func (s *Source[T]) Version() uint64 {
	s.ensureValid()
	locked := s.g.lock()
	defer s.g.unlock(locked)

	return s.g.store.node(s.id).version
}

// ID returns the node's identifier within its graph.
func (s *Source[T]) ID() NodeID {
	s.ensureValid()
	return s.id
}

func (s *Source[T]) ensureValid() {
	if s == nil || s.g == nil {
		panic(ErrInvalidHandle)
	}
}
