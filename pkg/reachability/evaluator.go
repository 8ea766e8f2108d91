package reachability

import "github.com/SciGraph/SciGraph-sub002/pkg/graph"

// Decision tells the BFS driver what to do with a visited node.
type Decision int

const (
	// Continue expands past the node.
	Continue Decision = iota
	// Prune stops the traversal at the node.
	Prune
)

func (d Decision) String() string {
	if d == Prune {
		return "prune"
	}
	return "continue"
}

// sweep is the state of one BFS rooted at a hub in one direction.
type sweep struct {
	hub     Hub
	dir     graph.Direction
	lists   *listStore
	visible Visibility
	ranks   map[graph.NodeID]int

	// covered holds In(hub) for backward sweeps and Out(hub) for forward
	// sweeps, limited to hubs ranked no later than the root.
	covered []graph.NodeID
}

// evaluate decides whether the sweep continues past n, recording the root
// in n's list when n is not yet covered.
func (s *sweep) evaluate(n graph.NodeID, depth int) Decision {
	h := s.hub.ID
	if depth == 0 {
		s.lists.addIn(h, h)
		s.lists.addOut(h, h)
		s.covered = s.lists.snapshot(h, s.dir == graph.Backward, s.earlier)
		return Continue
	}

	if !s.visible.visible(n) {
		return Prune
	}

	if s.dir == graph.Backward {
		// n reaches h already if Out(n) meets In(h).
		if s.lists.containsAny(n, false, s.covered) {
			return Prune
		}
		s.lists.addOut(n, h)
		return Continue
	}

	// h reaches n already if Out(h) meets In(n).
	if s.lists.containsAny(n, true, s.covered) {
		return Prune
	}
	s.lists.addIn(n, h)
	return Continue
}

// earlier reports whether hub x was scheduled no later than the root.
// Under a sequential schedule every recorded hub qualifies.
func (s *sweep) earlier(x graph.NodeID) bool {
	r, ok := s.ranks[x]
	return ok && r <= s.hub.Rank
}
