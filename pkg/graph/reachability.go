package graph

// Reachable returns every node reachable from start by following forward
// edges, start included. Nodes for which visible returns false are neither
// reported nor traversed; a nil visible admits every node. An invisible
// start yields an empty set.
//
// This is a plain BFS over the full graph and is meant as a reference for
// small graphs, not as a query path.
func Reachable(t Topology, start NodeID, visible func(NodeID) bool) map[NodeID]bool {
	reached := make(map[NodeID]bool)
	if visible != nil && !visible(start) {
		return reached
	}

	reached[start] = true
	queue := []NodeID{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, next := range t.Neighbors(current, Forward) {
			if reached[next] {
				continue
			}
			if visible != nil && !visible(next) {
				continue
			}
			reached[next] = true
			queue = append(queue, next)
		}
	}

	return reached
}

// PathExists reports whether to is reachable from from under visible.
func PathExists(t Topology, from, to NodeID, visible func(NodeID) bool) bool {
	return Reachable(t, from, visible)[to]
}
