package incr

import "testing"

// Dependency sets must always reflect the most recent evaluation: edges
// from branches no longer taken are dropped, so stale inputs cannot leak
// invalidations into nodes that stopped reading them.

func TestBranchSwitchDropsOldEdges(t *testing.T) {
	g := NewGraph()

	flag := NewSource(g, true)
	x := NewSource(g, 1)
	y := NewSource(g, 100)

	runs := 0
	d := NewDerived(g, func() int {
		runs++
		if flag.Get() {
			return x.Get()
		}
		return y.Get()
	})

	if got := d.MustGet(); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}

	// While the true branch is taken, y is not a dependency.
	y.Set(200)
	d.MustGet()
	if runs != 1 {
		t.Fatalf("write to untaken branch recomputed (%d runs)", runs)
	}

	flag.Set(false)
	if got := d.MustGet(); got != 200 {
		t.Fatalf("expected 200, got %d", got)
	}
	if runs != 2 {
		t.Fatalf("expected 2 runs, got %d", runs)
	}

	// Now x must have been dropped.
	x.Set(999)
	d.MustGet()
	if runs != 2 {
		t.Fatalf("dependency leak: write to dropped input recomputed (%d runs)", runs)
	}

	// And y must invalidate.
	y.Set(300)
	if got := d.MustGet(); got != 300 {
		t.Fatalf("expected 300, got %d", got)
	}
}

func TestEdgeSetsAreMutualInverses(t *testing.T) {
	g := NewGraph()
	a := NewSource(g, 1)
	b := NewDerived(g, func() int { return a.Get() })
	c := NewDerived(g, func() int { return b.MustGet() })
	c.MustGet()

	byID := make(map[NodeID]SnapshotNode)
	for _, sn := range g.Snapshot() {
		byID[sn.ID] = sn
	}

	// Every dep edge must have a matching sub edge and vice versa.
	for _, sn := range byID {
		for _, dep := range sn.Deps {
			found := false
			for _, sub := range byID[dep].Subs {
				if sub == sn.ID {
					found = true
				}
			}
			if !found {
				t.Errorf("node %d depends on %d but is not in its dependents", sn.ID, dep)
			}
		}
		for _, sub := range sn.Subs {
			found := false
			for _, dep := range byID[sub].Deps {
				if dep == sn.ID {
					found = true
				}
			}
			if !found {
				t.Errorf("node %d lists dependent %d which does not depend on it", sn.ID, sub)
			}
		}
	}

	// Invariant must hold after recomputation too, not just at first
	// evaluation.
	a.Set(2)
	c.MustGet()
	snap := g.Snapshot()
	if got := len(snap); got != 3 {
		t.Fatalf("expected 3 nodes, got %d", got)
	}
	for _, sn := range snap {
		switch sn.ID {
		case a.ID():
			if len(sn.Subs) != 1 || sn.Subs[0] != b.ID() {
				t.Errorf("source dependents wrong: %v", sn.Subs)
			}
		case b.ID():
			if len(sn.Deps) != 1 || sn.Deps[0] != a.ID() {
				t.Errorf("b deps wrong: %v", sn.Deps)
			}
		}
	}
}

func TestDuplicateReadsRecordOneEdge(t *testing.T) {
	g := NewGraph()
	a := NewSource(g, 2)
	d := NewDerived(g, func() int { return a.Get() + a.Get() + a.Get() })

	if got := d.MustGet(); got != 6 {
		t.Fatalf("expected 6, got %d", got)
	}
	for _, sn := range g.Snapshot() {
		if sn.ID == d.ID() && len(sn.Deps) != 1 {
			t.Fatalf("expected 1 recorded dependency, got %v", sn.Deps)
		}
	}
}

func TestDynamicNodeCreationDuringEval(t *testing.T) {
	// Creating nodes while an evaluation is in flight must not corrupt
	// the store or the tracker.
	g := NewGraph()
	a := NewSource(g, 1)

	var inner *Derived[int]
	outer := NewDerived(g, func() int {
		if inner == nil {
			inner = NewDerived(g, func() int { return a.Get() * 2 })
		}
		return inner.MustGet() + 1
	})

	if got := outer.MustGet(); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
	a.Set(5)
	if got := outer.MustGet(); got != 11 {
		t.Fatalf("expected 11, got %d", got)
	}
}
