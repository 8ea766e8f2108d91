package reachability

import "github.com/SciGraph/SciGraph-sub002/pkg/graph"

type sweepStats struct {
	visited int
	pruned  int
}

type frontier struct {
	id    graph.NodeID
	depth int
}

// run walks the topology breadth-first from the hub, visiting each node at
// most once and asking evaluate whether to expand past it.
func (s *sweep) run(t graph.Topology) sweepStats {
	var stats sweepStats
	seen := map[graph.NodeID]struct{}{s.hub.ID: {}}
	queue := []frontier{{id: s.hub.ID}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		stats.visited++

		if s.evaluate(cur.id, cur.depth) == Prune {
			stats.pruned++
			continue
		}

		for _, next := range expand(t, cur.id, s.dir) {
			if _, ok := seen[next]; ok {
				continue
			}
			seen[next] = struct{}{}
			queue = append(queue, frontier{id: next, depth: cur.depth + 1})
		}
	}
	return stats
}
