package graph

import (
	"slices"
	"sync"
)

// MemoryStore is an in-memory graph storage.
type MemoryStore struct {
	mu           sync.RWMutex
	nodes        []*Node
	edges        [][]Edge
	reverseEdges [][]Edge
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nodes:        make([]*Node, 0, 1000),
		edges:        make([][]Edge, 0, 1000),
		reverseEdges: make([][]Edge, 0, 1000),
	}
}

// AddNode appends the node and assigns its ID.
func (s *MemoryStore) AddNode(node *Node) NodeID {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := NodeID(len(s.nodes))
	node.ID = id
	s.nodes = append(s.nodes, node)
	s.edges = append(s.edges, nil)
	s.reverseEdges = append(s.reverseEdges, nil)
	return id
}

func (s *MemoryStore) GetNode(id NodeID) *Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.valid(id) {
		return s.nodes[id]
	}
	return nil
}

func (s *MemoryStore) NodeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

func (s *MemoryStore) Nodes() []NodeID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]NodeID, len(s.nodes))
	for i := range s.nodes {
		ids[i] = NodeID(i)
	}
	return ids
}

// AddEdge records source -> edge.TargetID and its reverse. Duplicate
// (target, type) pairs are ignored.
func (s *MemoryStore) AddEdge(source NodeID, edge Edge) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.valid(source) || !s.valid(edge.TargetID) {
		return
	}

	for _, e := range s.edges[source] {
		if e.TargetID == edge.TargetID && e.Type == edge.Type {
			return
		}
	}

	s.edges[source] = append(s.edges[source], edge)
	s.reverseEdges[edge.TargetID] = append(s.reverseEdges[edge.TargetID], Edge{
		TargetID: source,
		Type:     edge.Type,
	})
}

func (s *MemoryStore) GetEdges(source NodeID) []Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.valid(source) {
		return slices.Clone(s.edges[source])
	}
	return nil
}

func (s *MemoryStore) GetReverseEdges(target NodeID) []Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.valid(target) {
		return slices.Clone(s.reverseEdges[target])
	}
	return nil
}

func (s *MemoryStore) Degree(id NodeID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.valid(id) {
		return 0
	}
	return len(s.edges[id]) + len(s.reverseEdges[id])
}

func (s *MemoryStore) Neighbors(id NodeID, dir Direction) []NodeID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.valid(id) {
		return nil
	}

	adj := s.edges[id]
	if dir == Backward {
		adj = s.reverseEdges[id]
	}
	if len(adj) == 0 {
		return nil
	}

	out := make([]NodeID, 0, len(adj))
	for _, e := range adj {
		out = append(out, e.TargetID)
	}
	// Parallel edges with different types collapse to one neighbor.
	slices.Sort(out)
	return slices.Compact(out)
}

func (s *MemoryStore) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(s.nodes)
}
