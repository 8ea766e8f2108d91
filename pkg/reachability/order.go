package reachability

import (
	"cmp"
	"slices"

	"github.com/SciGraph/SciGraph-sub002/pkg/graph"
)

// Visibility reports whether a node takes part in the index. Excluded
// nodes are never recorded and stop any traversal that reaches them.
// A nil Visibility admits every node.
type Visibility func(graph.NodeID) bool

func (v Visibility) visible(id graph.NodeID) bool {
	return v == nil || v(id)
}

// Hub is a node scheduled as a sweep root.
type Hub struct {
	ID     graph.NodeID
	Degree int
	// Rank is the position in the processing order, starting at 0.
	Rank int
}

// OrderHubs returns every visible node ordered by degree descending, ties
// broken by ascending id. High-degree nodes go first so that later sweeps
// prune more.
func OrderHubs(t graph.Topology, visible Visibility) []Hub {
	ids := t.Nodes()
	hubs := make([]Hub, 0, len(ids))
	for _, id := range ids {
		if !visible.visible(id) {
			continue
		}
		hubs = append(hubs, Hub{ID: id, Degree: t.Degree(id)})
	}

	slices.SortFunc(hubs, func(a, b Hub) int {
		if c := cmp.Compare(b.Degree, a.Degree); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	for i := range hubs {
		hubs[i].Rank = i
	}
	return hubs
}
