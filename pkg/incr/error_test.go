package incr

import (
	"errors"
	"fmt"
	"testing"
)

func TestComputeFailureRetries(t *testing.T) {
	g := NewGraph()
	a := NewSource(g, 1)
	boom := errors.New("boom")

	fail := true
	runs := 0
	d := NewDerivedErr(g, func() (int, error) {
		runs++
		if fail {
			return 0, boom
		}
		return a.Get() * 2, nil
	})

	for i := 0; i < 3; i++ {
		_, err := d.Get()
		if !errors.Is(err, boom) {
			t.Fatalf("get %d: expected boom, got %v", i, err)
		}
		var cerr *ComputeError
		if !errors.As(err, &cerr) || cerr.Node != d.ID() {
			t.Fatalf("get %d: expected ComputeError for node %d, got %v", i, d.ID(), err)
		}
	}
	if runs != 3 {
		t.Fatalf("expected a retry per read, got %d runs", runs)
	}

	fail = false
	if got, err := d.Get(); err != nil || got != 2 {
		t.Fatalf("expected 2 after recovery, got %d (%v)", got, err)
	}
}

func TestFailureKeepsPreviousMemo(t *testing.T) {
	g := NewGraph()
	a := NewSource(g, 1)
	boom := errors.New("boom")

	fail := false
	d := NewDerivedErr(g, func() (int, error) {
		if fail {
			return 0, boom
		}
		return a.Get(), nil
	})

	if got, _ := d.Get(); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	v := d.Version()

	fail = true
	a.Set(2)
	if _, err := d.Get(); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	// The failure must not bump the version or clear staleness.
	if d.Version() != v {
		t.Fatalf("failed recompute changed version: %d -> %d", v, d.Version())
	}

	fail = false
	if got, err := d.Get(); err != nil || got != 2 {
		t.Fatalf("expected 2 after retry, got %d (%v)", got, err)
	}
	if d.Version() <= v {
		t.Fatalf("successful recompute kept version %d", d.Version())
	}
}

func TestFailurePropagatesThroughDependents(t *testing.T) {
	g := NewGraph()
	boom := errors.New("boom")

	bottom := NewDerivedErr(g, func() (int, error) { return 0, boom })
	top := NewDerivedErr(g, func() (int, error) {
		v, err := bottom.Get()
		if err != nil {
			return 0, fmt.Errorf("bottom unavailable: %w", err)
		}
		return v + 1, nil
	})

	_, err := top.Get()
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom through the chain, got %v", err)
	}
}

func TestWriteDuringEvaluationPanics(t *testing.T) {
	g := NewGraph()
	a := NewSource(g, 1)

	d := NewDerived(g, func() int {
		a.Set(99) // forbidden
		return 0
	})

	func() {
		defer func() {
			r := recover()
			err, ok := r.(error)
			if !ok || !errors.Is(err, ErrWriteDuringEval) {
				t.Fatalf("expected ErrWriteDuringEval panic, got %v", r)
			}
		}()
		d.MustGet()
	}()

	// Graph stays usable.
	a.Set(2)
	if got := a.Get(); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
}

func TestInvalidHandlePanics(t *testing.T) {
	cases := []struct {
		name string
		op   func()
	}{
		{"source get", func() { var s Source[int]; s.Get() }},
		{"source set", func() { var s Source[int]; s.Set(1) }},
		{"derived get", func() { var d Derived[int]; d.Get() }},
		{"nil derived", func() { var d *Derived[int]; d.Get() }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			defer func() {
				r := recover()
				err, ok := r.(error)
				if !ok || !errors.Is(err, ErrInvalidHandle) {
					t.Fatalf("expected ErrInvalidHandle panic, got %v", r)
				}
			}()
			tc.op()
		})
	}
}
