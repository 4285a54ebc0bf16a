package incr

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCycle is reported when a node's evaluation transitively demands its
// own value. Use errors.Is(err, ErrCycle) to detect it regardless of how
// deeply the cycle surfaced through nested compute functions.
var ErrCycle = errors.New("incr: dependency cycle detected")

// ErrInvalidHandle is reported when an operation is attempted through a
// zero-value handle or an identifier the graph does not own. This is a
// caller bug and surfaces as a panic from handle methods.
var ErrInvalidHandle = errors.New("incr: invalid node handle")

// ErrWriteDuringEval is reported (as a panic) when a compute function
// writes to a source. Compute functions must be pure; a write from inside
// an evaluation would invalidate nodes that are mid-recomputation.
var ErrWriteDuringEval = errors.New("incr: source write during evaluation")

// CycleError carries the evaluation path that closed the cycle.
// The first and last elements are the same node.
type CycleError struct {
	Path []NodeID
}

func (e *CycleError) Error() string {
	var b strings.Builder
	b.WriteString("incr: dependency cycle: ")
	for i, id := range e.Path {
		if i > 0 {
			b.WriteString(" -> ")
		}
		fmt.Fprintf(&b, "%d", id)
	}
	return b.String()
}

// Unwrap allows errors.Is(err, ErrCycle).
func (e *CycleError) Unwrap() error { return ErrCycle }

// ComputeError wraps a failure from a user-supplied compute function.
// The node keeps its previous memoized value and stays stale, so the
// computation is re-attempted on the next read.
type ComputeError struct {
	Node NodeID
	Err  error
}

func (e *ComputeError) Error() string {
	return fmt.Sprintf("incr: compute for node %d failed: %v", e.Node, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ComputeError) Unwrap() error { return e.Err }
