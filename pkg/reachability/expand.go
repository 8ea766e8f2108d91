package reachability

import "github.com/SciGraph/SciGraph-sub002/pkg/graph"

// expand yields the nodes directly adjacent to id in dir, whatever the
// relationship type. Forward follows outgoing edges, Backward incoming.
func expand(t graph.Topology, id graph.NodeID, dir graph.Direction) []graph.NodeID {
	return t.Neighbors(id, dir)
}
