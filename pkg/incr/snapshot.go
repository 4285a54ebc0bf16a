package incr

import (
	"fmt"
	"sort"
)

// Stats is a point-in-time summary of graph size and activity counters.
type Stats struct {
	Nodes    int `json:"nodes"`
	Sources  int `json:"sources"`
	Deriveds int `json:"deriveds"`
	Edges    int `json:"edges"`
	Stale    int `json:"stale"`

	Writes        uint64 `json:"writes"`
	Invalidations uint64 `json:"invalidations"`
	Recomputes    uint64 `json:"recomputes"`
	CacheHits     uint64 `json:"cache_hits"`
	Validations   uint64 `json:"validations"`
	Failures      uint64 `json:"failures"`
}

// Stats returns current counters. Cheap; safe to poll.
func (g *Graph) Stats() Stats {
	locked := g.lock()
	defer g.unlock(locked)

	st := Stats{
		Nodes:         g.store.len(),
		Edges:         g.edges,
		Writes:        g.stats.writes,
		Invalidations: g.stats.invalidations,
		Recomputes:    g.stats.recomputes,
		CacheHits:     g.stats.cacheHits,
		Validations:   g.stats.validations,
		Failures:      g.stats.failures,
	}
	for _, n := range g.store.nodes {
		switch n.kind {
		case KindSource:
			st.Sources++
		case KindDerived:
			st.Deriveds++
			if n.stale {
				st.Stale++
			}
		}
	}
	return st
}

// SnapshotNode describes one node for introspection tooling.
type SnapshotNode struct {
	ID      NodeID   `json:"id"`
	Kind    string   `json:"kind"`
	Name    string   `json:"name,omitempty"`
	Version uint64   `json:"version"`
	Stale   bool     `json:"stale"`
	Value   string   `json:"value,omitempty"`
	Deps    []NodeID `json:"deps,omitempty"`
	Subs    []NodeID `json:"subs,omitempty"`
}

// Snapshot returns the full node table with its edges, for debugging and
// the inspector. Values are rendered with %v; a node never evaluated has
// an empty Value.
func (g *Graph) Snapshot() []SnapshotNode {
	locked := g.lock()
	defer g.unlock(locked)

	out := make([]SnapshotNode, 0, g.store.len())
	for _, n := range g.store.nodes {
		sn := SnapshotNode{
			ID:      n.id,
			Kind:    n.kind.String(),
			Name:    n.name,
			Version: n.version,
			Stale:   n.stale,
		}
		if n.hasValue {
			sn.Value = fmt.Sprintf("%v", n.value)
		}
		for _, d := range n.deps {
			sn.Deps = append(sn.Deps, d.id)
		}
		for s := range n.subs {
			sn.Subs = append(sn.Subs, s)
		}
		sort.Slice(sn.Subs, func(i, j int) bool { return sn.Subs[i] < sn.Subs[j] })
		out = append(out, sn)
	}
	return out
}
