package graph

import (
	"sync"
)

// UnionFind implements concurrent DSU over dense node ids.
type UnionFind struct {
	parent []NodeID
	rank   []uint8
	mu     sync.Mutex
}

// NewUnionFind initializes n singleton sets.
func NewUnionFind(n int) *UnionFind {
	parent := make([]NodeID, n)
	for i := range parent {
		parent[i] = NodeID(i)
	}
	return &UnionFind{parent: parent, rank: make([]uint8, n)}
}

// Find returns set representative, or -1 for ids out of range.
func (uf *UnionFind) Find(i NodeID) NodeID {
	uf.mu.Lock() // path compression writes
	defer uf.mu.Unlock()
	return uf.find(i)
}

func (uf *UnionFind) find(i NodeID) NodeID {
	if i < 0 || int(i) >= len(uf.parent) {
		return -1
	}
	root := i
	for uf.parent[root] != root {
		root = uf.parent[root]
	}
	for uf.parent[i] != root {
		next := uf.parent[i]
		uf.parent[i] = root
		i = next
	}
	return root
}

// Union merges the sets holding i and j.
func (uf *UnionFind) Union(i, j NodeID) {
	uf.mu.Lock()
	defer uf.mu.Unlock()

	ri, rj := uf.find(i), uf.find(j)
	if ri == -1 || rj == -1 || ri == rj {
		return
	}

	switch {
	case uf.rank[ri] < uf.rank[rj]:
		uf.parent[ri] = rj
	case uf.rank[ri] > uf.rank[rj]:
		uf.parent[rj] = ri
	default:
		uf.parent[rj] = ri
		uf.rank[ri]++
	}
}

// Connected checks connectivity.
func (uf *UnionFind) Connected(i, j NodeID) bool {
	uf.mu.Lock()
	defer uf.mu.Unlock()
	ri := uf.find(i)
	return ri != -1 && ri == uf.find(j)
}

// Components groups the nodes of t into weakly connected components, edge
// direction ignored. The result maps each node to its representative.
func Components(t Topology) (map[NodeID]NodeID, int) {
	ids := t.Nodes()
	if len(ids) == 0 {
		return map[NodeID]NodeID{}, 0
	}

	uf := NewUnionFind(int(ids[len(ids)-1]) + 1)
	for _, id := range ids {
		for _, next := range t.Neighbors(id, Forward) {
			uf.Union(id, next)
		}
	}

	rep := make(map[NodeID]NodeID, len(ids))
	roots := make(map[NodeID]struct{})
	for _, id := range ids {
		r := uf.Find(id)
		rep[id] = r
		roots[r] = struct{}{}
	}
	return rep, len(roots)
}
