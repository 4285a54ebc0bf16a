// Package incr is a pull-based incremental computation engine: declare
// mutable sources and derived computations, and the graph recomputes
// only the derived values whose transitive inputs actually changed.
//
// Dependencies are tracked automatically at runtime. Reading a value
// during a derived node's evaluation records the edge; nothing is
// declared up front, and edges from branches no longer taken are dropped
// on the next evaluation.
//
// # Core Types
//
// Source[T] is a mutable input cell:
//
//	g := incr.NewGraph()
//	count := incr.NewSource(g, 0)
//	count.Set(5)       // marks dependents stale, recomputes nothing
//	v := count.Get()   // read (records a dependency during evaluation)
//
// Derived[T] is a memoized computation over other nodes:
//
//	doubled := incr.NewDerived(g, func() int { return count.Get() * 2 })
//	v, err := doubled.Get()  // recomputes only if inputs changed
//
// # Evaluation Model
//
// Writes mark; reads compute. A Set walks the dependent edges and flags
// transitively affected nodes as stale, without running anything. A Get
// on a stale node first checks whether its recorded dependencies really
// changed (by version), and reruns its function only if one did. A
// recomputation whose result equals the previous value keeps the old
// version, which stops the work from spreading further up: unchanged
// subgraphs are never recomputed.
//
// Equality is therefore load-bearing: it gates both no-op writes and the
// cutoff. The default comparison handles comparable kinds and falls back
// to reflect.DeepEqual; supply WithEquals for anything where that is
// wrong or slow.
//
// # Errors
//
// A computation that transitively demands its own value fails with a
// CycleError and leaves the graph structurally intact. A compute
// function returning an error surfaces it from Get wrapped in a
// ComputeError; the node keeps its previous value, stays stale, and
// retries on the next read.
//
// # Concurrency
//
// One evaluation runs at a time per graph. Public operations serialize
// on an internal lock; nested reads from compute functions re-enter on
// the evaluating goroutine. Compute functions must not spawn goroutines
// that touch the same graph and wait for them.
package incr
