package incr

import "fmt"

// nodeStore owns all node storage for one graph. Every other component
// refers to nodes by NodeID only, so the store is free to grow its table
// without invalidating anything held by callers.
//
// Nodes live for the lifetime of the graph; there is no removal, so IDs
// are trivially never reused.
type nodeStore struct {
	nodes []*node
}

// add takes ownership of n and assigns its ID.
func (s *nodeStore) add(n *node) NodeID {
	s.nodes = append(s.nodes, n)
	n.id = NodeID(len(s.nodes))
	return n.id
}

// node resolves an ID to its storage. An ID this store never issued is a
// caller bug and panics with ErrInvalidHandle.
func (s *nodeStore) node(id NodeID) *node {
	if id == 0 || int(id) > len(s.nodes) {
		panic(fmt.Errorf("%w: node %d", ErrInvalidHandle, id))
	}
	return s.nodes[id-1]
}

// len returns the number of live nodes.
func (s *nodeStore) len() int {
	return len(s.nodes)
}
