package incr

// invalidateDependents walks the dependents of a changed node and marks
// them stale. This is purely a marking pass: no compute function runs
// here, so it is safe even if the recorded edges happen to contain a
// cycle. A node that is already stale stops the walk, since its own
// dependents were covered when it was first marked; that bounds the
// work in diamond-shaped graphs and guarantees termination.
//
// Callers must hold the graph lock.
func (g *Graph) invalidateDependents(id NodeID) {
	n := g.store.node(id)
	stack := make([]NodeID, 0, len(n.subs))
	for d := range n.subs {
		stack = append(stack, d)
	}

	for len(stack) > 0 {
		d := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		dn := g.store.node(d)
		if dn.stale {
			continue
		}
		dn.stale = true
		g.stats.invalidations++
		g.observe(NodeInvalidated{ID: d})

		for s := range dn.subs {
			stack = append(stack, s)
		}
	}
}
