package incr

import "time"

// The pull engine. A read of a derived node demands the values of its
// dependencies first, recursively, and recomputes bottom-up only where
// something actually changed. Three outcomes exist for a stale node, in
// increasing order of cost:
//
//  1. memo hit: not stale, value served as-is;
//  2. validated: stale, but every recorded dependency still has the
//     version observed last time, so the memo is provably current and
//     the compute function is skipped;
//  3. recomputed: some dependency's version moved, the compute function
//     reruns and the dependency set is re-recorded from scratch.
//
// Outcomes 2 and 3 compose: validating a node first brings each of its
// dependencies up to date, and a dependency that recomputes to an equal
// value keeps its old version, which lets the node above it validate.
// That is the early-cutoff optimization.

// pull is the entry point for a top-level demand of a derived value.
// Callers must hold the graph lock.
func (g *Graph) pull(id NodeID) (any, error) {
	if g.obs == nil || g.tr.depth() > 0 {
		return g.valueOf(id)
	}

	g.observe(PullStarted{ID: id})
	start := time.Now()
	v, err := g.valueOf(id)
	g.observe(PullFinished{ID: id, Duration: time.Since(start), Err: err})
	return v, err
}

// valueOf returns the current value of a node, recomputing it if needed,
// and records the read against the evaluation in progress (if any).
// Callers must hold the graph lock.
func (g *Graph) valueOf(id NodeID) (any, error) {
	n := g.store.node(id)
	if err := g.ensureClean(n); err != nil {
		return nil, err
	}
	// Record after the node is clean so the observed version is the one
	// the caller's value is actually built from.
	g.tr.recordRead(n.id, n.version)
	return n.value, nil
}

// peekValue returns the current value without recording a dependency.
// Callers must hold the graph lock.
func (g *Graph) peekValue(id NodeID) (any, error) {
	n := g.store.node(id)
	if err := g.ensureClean(n); err != nil {
		return nil, err
	}
	return n.value, nil
}

// ensureClean brings a node up to date. Sources are always clean; a
// derived node is validated or recomputed as needed.
func (g *Graph) ensureClean(n *node) error {
	if n.kind == KindSource {
		return nil
	}
	if !n.stale && n.hasValue {
		g.stats.cacheHits++
		g.observe(CacheHit{ID: n.id})
		return nil
	}

	// Re-entering a node that is already being validated means the
	// recorded edges loop back to it.
	if n.checking {
		return &CycleError{Path: g.tr.currentPath(n.id)}
	}
	n.checking = true
	defer func() { n.checking = false }()

	if n.hasValue {
		unchanged, err := g.depsUnchanged(n)
		if err != nil {
			return err
		}
		if unchanged {
			n.stale = false
			g.stats.validations++
			g.observe(Validated{ID: n.id})
			return nil
		}
	}

	return g.recompute(n)
}

// depsUnchanged brings each recorded dependency up to date and compares
// its current version against the version observed during this node's
// last evaluation. Dependencies are checked in the order they were read.
func (g *Graph) depsUnchanged(n *node) (bool, error) {
	for _, d := range n.deps {
		dep := g.store.node(d.id)
		if err := g.ensureClean(dep); err != nil {
			return false, err
		}
		if dep.version != d.version {
			return false, nil
		}
	}
	return true, nil
}

// recompute reruns a derived node's compute function, re-records its
// dependency set, and memoizes the result. The version is bumped only
// when the new value differs from the previous one under the node's
// equality function.
func (g *Graph) recompute(n *node) error {
	if err := g.tr.enter(n.id); err != nil {
		return err
	}

	// An Untracked pause belongs to the caller's scope, not to frames
	// opened beneath it: a node recomputing inside Untracked must still
	// record its own reads, or it would commit an empty dependency set
	// and never be invalidated again. Untracked calls made by the
	// compute body itself re-pause as usual.
	paused := g.tr.paused
	g.tr.paused = 0
	defer func() { g.tr.paused = paused }()

	// A panicking compute function must not leave its frame on the
	// stack or commit a partial dependency set.
	committed := false
	defer func() {
		if !committed {
			g.tr.abort()
		}
	}()

	start := time.Now()
	value, err := n.compute()
	if err != nil {
		// Frame discarded by the deferred abort: the previous edges
		// and memoized value stay as they were, and the node remains
		// stale for a retry on the next pull.
		g.stats.failures++
		g.observe(ComputeFailed{ID: n.id, Err: err})
		return &ComputeError{Node: n.id, Err: err}
	}

	fr := g.tr.exit()
	committed = true
	g.commitEdges(n, fr)

	changed := !n.hasValue || !n.eq(n.value, value)
	if changed {
		n.value = value
		n.version++
	}
	n.hasValue = true
	n.stale = false

	g.stats.recomputes++
	g.observe(Recomputed{ID: n.id, Changed: changed, Duration: time.Since(start)})
	if g.log != nil {
		g.log.Debug("incr: recomputed", "node", n.id, "changed", changed, "deps", len(n.deps))
	}
	return nil
}

// commitEdges replaces n's dependency set with the one accumulated in
// fr, keeping the dependent sets of the nodes on both sides in sync.
// Old edges that were not re-read are severed here, so a branch no
// longer taken cannot cause future invalidations.
func (g *Graph) commitEdges(n *node, fr frame) {
	for _, od := range n.deps {
		if _, ok := fr.seen[od.id]; !ok {
			delete(g.store.node(od.id).subs, n.id)
		}
	}

	old := make(map[NodeID]struct{}, len(n.deps))
	for _, od := range n.deps {
		old[od.id] = struct{}{}
	}
	for _, nd := range fr.deps {
		if _, ok := old[nd.id]; !ok {
			g.store.node(nd.id).subs[n.id] = struct{}{}
		}
	}

	g.edges += len(fr.deps) - len(n.deps)
	n.deps = fr.deps
}
