package incr

// Derived is a typed handle to a node computed from other nodes via a
// pure function. The value is memoized; reading it recomputes only when
// some transitive input actually changed since the last evaluation.
//
// The compute function must derive its result exclusively from values
// read through handle Get calls on the same graph. Untracked external
// reads (globals, time, I/O) are invisible to invalidation and will not
// trigger recomputation. This is a caller contract, not enforced at
// runtime.
type Derived[T any] struct {
	g  *Graph
	id NodeID
}

// NewDerived creates a derived node from an infallible compute function.
// The function does not run here; the first Get evaluates it lazily.
func NewDerived[T any](g *Graph, compute func() T, opts ...NodeOption) *Derived[T] {
	return NewDerivedErr(g, func() (T, error) { return compute(), nil }, opts...)
}

// NewDerivedErr creates a derived node whose compute function can fail.
// A returned error surfaces from Get wrapped in a ComputeError; the node
// keeps its previous memoized value, stays stale, and reruns the
// function on the next Get. Failures are never cached as values.
func NewDerivedErr[T any](g *Graph, compute func() (T, error), opts ...NodeOption) *Derived[T] {
	cfg := applyNodeOptions(opts)

	locked := g.lock()
	defer g.unlock(locked)

	n := &node{
		kind: KindDerived,
		name: cfg.name,
		eq:   equalAny,
		subs: make(map[NodeID]struct{}),
		compute: func() (any, error) {
			v, err := compute()
			if err != nil {
				return nil, err
			}
			return v, nil
		},
	}
	id := g.store.add(n)
	g.observe(NodeCreated{ID: id, Kind: KindDerived, Name: cfg.name})
	return &Derived[T]{g: g, id: id}
}

// NewKeyedDerived creates a derived node that recomputes only when its
// key changes. The key function is evaluated like any compute body (its
// reads are tracked); when the key equals the previous one, the previous
// result is returned without calling compute.
//
// Dependencies read only inside compute (and not reflected in the key)
// will not cause recomputation while the key stays the same, so compute
// should not read graph values the key does not cover.
func NewKeyedDerived[K comparable, T any](g *Graph, key func() K, compute func(K) T, opts ...NodeOption) *Derived[T] {
	var (
		prevKey   K
		prevValue T
		have      bool
	)
	return NewDerived(g, func() T {
		k := key()
		if have && k == prevKey {
			return prevValue
		}
		v := compute(k)
		prevKey, prevValue, have = k, v, true
		return v
	}, opts...)
}

// Get returns the node's value, recomputing transparently if it is stale
// or has never been evaluated, and records the read against any
// evaluation in progress. Errors are either a CycleError (the node
// transitively demanded its own value) or a ComputeError from a failed
// compute function somewhere below.
func (d *Derived[T]) Get() (T, error) {
	d.ensureValid()
	locked := d.g.lock()
	defer d.g.unlock(locked)

	v, err := d.g.pull(d.id)
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// MustGet is Get, panicking on error. Convenient for graphs built purely
// from infallible compute functions where only a programming error (a
// cycle) could fail.
func (d *Derived[T]) MustGet() T {
	v, err := d.Get()
	if err != nil {
		panic(err)
	}
	return v
}

// Peek returns the node's value without recording a dependency. It still
// recomputes if the value is stale.
func (d *Derived[T]) Peek() (T, error) {
	d.ensureValid()
	locked := d.g.lock()
	defer d.g.unlock(locked)

	v, err := d.g.peekValue(d.id)
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// WithEquals configures a custom equality function for the early-cutoff
// comparison, replacing the default. Returns the handle for chaining.
func (d *Derived[T]) WithEquals(fn func(T, T) bool) *Derived[T] {
	d.ensureValid()
	locked := d.g.lock()
	defer d.g.unlock(locked)

	d.g.store.node(d.id).eq = wrapEquals(fn)
	return d
}

// Version returns the node's version counter: bumped on every
// recomputation that produced a changed value, untouched by
// recomputations that came out equal.
func (d *Derived[T]) Version() uint64 {
	d.ensureValid()
	locked := d.g.lock()
	defer d.g.unlock(locked)

	return d.g.store.node(d.id).version
}

// ID returns the node's identifier within its graph.
func (d *Derived[T]) ID() NodeID {
	d.ensureValid()
	return d.id
}

func (d *Derived[T]) ensureValid() {
	if d == nil || d.g == nil {
		panic(ErrInvalidHandle)
	}
}
