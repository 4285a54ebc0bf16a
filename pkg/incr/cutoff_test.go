package incr

import "testing"

// Early cutoff: a recomputation that produces an unchanged value keeps
// the node's version, which lets everything above it validate without
// running.

func TestEarlyCutoff(t *testing.T) {
	g := NewGraph()
	a := NewSource(g, 5)

	bRuns := 0
	b := NewDerived(g, func() int {
		bRuns++
		if v := a.Get(); v < 10 {
			return v
		}
		return 10
	})

	cRuns := 0
	c := NewDerived(g, func() int {
		cRuns++
		return b.MustGet() + 1
	})

	if got := c.MustGet(); got != 6 {
		t.Fatalf("expected 6, got %d", got)
	}

	// Below the threshold: b's value changes, c must follow.
	a.Set(3)
	if got := c.MustGet(); got != 4 {
		t.Fatalf("expected 4, got %d", got)
	}
	if bRuns != 2 || cRuns != 2 {
		t.Fatalf("expected b=2 c=2 runs, got b=%d c=%d", bRuns, cRuns)
	}

	// Past the threshold: b clamps to 10.
	a.Set(20)
	if got := c.MustGet(); got != 11 {
		t.Fatalf("expected 11, got %d", got)
	}
	if bRuns != 3 || cRuns != 3 {
		t.Fatalf("expected b=3 c=3 runs, got b=%d c=%d", bRuns, cRuns)
	}

	// Still past the threshold: b recomputes to the same 10, so c must
	// not recompute at all.
	a.Set(30)
	if got := c.MustGet(); got != 11 {
		t.Fatalf("expected 11, got %d", got)
	}
	if bRuns != 4 {
		t.Fatalf("expected b recomputed (4 runs), got %d", bRuns)
	}
	if cRuns != 3 {
		t.Fatalf("early cutoff failed: c recomputed (%d runs)", cRuns)
	}
}

func TestVersionStableAcrossUnchangedRecompute(t *testing.T) {
	g := NewGraph()
	a := NewSource(g, 20)
	b := NewDerived(g, func() int {
		if v := a.Get(); v < 10 {
			return v
		}
		return 10
	})

	b.MustGet()
	v1 := b.Version()

	a.Set(30) // b recomputes to the same 10
	b.MustGet()
	if b.Version() != v1 {
		t.Fatalf("unchanged recompute bumped version: %d -> %d", v1, b.Version())
	}

	a.Set(4) // b changes to 4
	b.MustGet()
	if b.Version() <= v1 {
		t.Fatalf("changed recompute kept version %d", b.Version())
	}
}

func TestCustomEquality(t *testing.T) {
	type point struct{ X, Y int }

	g := NewGraph()
	a := NewSource(g, point{1, 2}).WithEquals(func(p, q point) bool {
		// Only X matters.
		return p.X == q.X
	})

	runs := 0
	d := NewDerived(g, func() int {
		runs++
		return a.Get().X
	})
	d.MustGet()

	a.Set(point{1, 99}) // equal under the custom comparison
	d.MustGet()
	if runs != 1 {
		t.Fatalf("write considered equal still recomputed (%d runs)", runs)
	}

	a.Set(point{2, 99})
	if got := d.MustGet(); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
	if runs != 2 {
		t.Fatalf("expected 2 runs, got %d", runs)
	}
}

func TestDeepEqualFallback(t *testing.T) {
	g := NewGraph()
	a := NewSource(g, []int{1, 2, 3})

	runs := 0
	d := NewDerived(g, func() int {
		runs++
		return len(a.Get())
	})
	d.MustGet()

	// A fresh but equal slice must be a no-op write.
	a.Set([]int{1, 2, 3})
	d.MustGet()
	if runs != 1 {
		t.Fatalf("deep-equal write recomputed (%d runs)", runs)
	}

	a.Set([]int{1, 2, 3, 4})
	if got := d.MustGet(); got != 4 {
		t.Fatalf("expected 4, got %d", got)
	}
}

func TestCutoffOnDerivedEquals(t *testing.T) {
	// A derived node with a custom equality that ignores part of its
	// result also cuts off its dependents.
	type result struct {
		Key  int
		Junk int
	}

	g := NewGraph()
	a := NewSource(g, 1)

	junk := 0
	b := NewDerived(g, func() result {
		junk++
		return result{Key: a.Get() % 2, Junk: junk}
	}).WithEquals(func(x, y result) bool { return x.Key == y.Key })

	cRuns := 0
	c := NewDerived(g, func() int {
		cRuns++
		return b.MustGet().Key
	})
	c.MustGet()

	a.Set(3) // parity unchanged
	c.MustGet()
	if cRuns != 1 {
		t.Fatalf("dependent recomputed despite equal derived value (%d runs)", cRuns)
	}

	a.Set(4) // parity changed
	if got := c.MustGet(); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if cRuns != 2 {
		t.Fatalf("expected 2 runs, got %d", cRuns)
	}
}
