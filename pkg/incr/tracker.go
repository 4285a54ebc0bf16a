package incr

// frame accumulates the dependencies read while one derived node is
// evaluating. Edges are committed to the graph only when the frame exits
// successfully; an aborted frame leaves the node's previous edges intact.
type frame struct {
	id   NodeID
	deps []depEdge
	seen map[NodeID]int // dep id -> index into deps
}

// tracker is the per-graph evaluation stack. The top frame is the node
// whose compute function is currently running; reads are attributed to it
// without the compute body declaring them. There is exactly one tracker
// per graph (single-evaluator model), so no locking happens here; the
// graph serializes access.
type tracker struct {
	stack   []frame
	onStack map[NodeID]int // node id -> stack index

	// paused suppresses dependency recording while > 0 (Untracked/Peek).
	paused int
}

func newTracker() tracker {
	return tracker{onStack: make(map[NodeID]int)}
}

// enter pushes id as the currently evaluating node. If id is already on
// the stack the evaluation transitively demanded its own value, which is
// fatal to this read; the returned CycleError carries the offending path.
func (t *tracker) enter(id NodeID) error {
	if idx, ok := t.onStack[id]; ok {
		path := make([]NodeID, 0, len(t.stack)-idx+1)
		for _, fr := range t.stack[idx:] {
			path = append(path, fr.id)
		}
		path = append(path, id)
		return &CycleError{Path: path}
	}
	t.stack = append(t.stack, frame{id: id, seen: make(map[NodeID]int)})
	t.onStack[id] = len(t.stack) - 1
	return nil
}

// exit pops the top frame and returns it so the graph can commit the
// accumulated dependency set.
func (t *tracker) exit() frame {
	fr := t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]
	delete(t.onStack, fr.id)
	return fr
}

// abort pops the top frame and discards everything it accumulated.
// Called on compute failure so the node's previous dependency set
// survives for the retry on the next pull.
func (t *tracker) abort() {
	fr := t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]
	delete(t.onStack, fr.id)
}

// recordRead attributes a read of id (at the given version) to the node
// currently evaluating. Reads with an empty stack are untracked: that is
// a top-level read by host code, not an error.
func (t *tracker) recordRead(id NodeID, version uint64) {
	if t.paused > 0 || len(t.stack) == 0 {
		return
	}
	top := &t.stack[len(t.stack)-1]
	if idx, ok := top.seen[id]; ok {
		top.deps[idx].version = version
		return
	}
	top.seen[id] = len(top.deps)
	top.deps = append(top.deps, depEdge{id: id, version: version})
}

// depth returns the number of evaluations in flight.
func (t *tracker) depth() int {
	return len(t.stack)
}

// currentPath returns the stack's node IDs with `to` appended, for cycle
// reports raised outside enter (validation re-entry).
func (t *tracker) currentPath(to NodeID) []NodeID {
	path := make([]NodeID, 0, len(t.stack)+1)
	for _, fr := range t.stack {
		path = append(path, fr.id)
	}
	return append(path, to)
}
