package reachability

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/SciGraph/SciGraph-sub002/pkg/graph"
	"github.com/SciGraph/SciGraph-sub002/pkg/storage"
)

type hubSet map[graph.NodeID]struct{}

// inOut is the pair of hub sets of one node.
type inOut struct {
	mu  sync.Mutex
	in  hubSet
	out hubSet
}

// listStore accumulates in/out lists during a build. Pairs are created on
// first access; each pair has its own lock and no operation holds two.
type listStore struct {
	pairs   sync.Map // graph.NodeID -> *inOut
	entries atomic.Int64
}

func newListStore() *listStore {
	return &listStore{}
}

func (s *listStore) pair(id graph.NodeID) *inOut {
	if p, ok := s.pairs.Load(id); ok {
		return p.(*inOut)
	}
	p, _ := s.pairs.LoadOrStore(id, &inOut{in: hubSet{}, out: hubSet{}})
	return p.(*inOut)
}

func (s *listStore) add(id, hub graph.NodeID, dir graph.Direction) {
	p := s.pair(id)
	p.mu.Lock()
	set := p.out
	if dir == graph.Forward {
		set = p.in
	}
	_, dup := set[hub]
	if !dup {
		set[hub] = struct{}{}
	}
	p.mu.Unlock()

	if !dup {
		s.entries.Add(1)
	}
}

// addIn records that hub reaches id.
func (s *listStore) addIn(id, hub graph.NodeID) { s.add(id, hub, graph.Forward) }

// addOut records that id reaches hub.
func (s *listStore) addOut(id, hub graph.NodeID) { s.add(id, hub, graph.Backward) }

// snapshot copies one side of id's pair, keeping only hubs accepted by keep.
func (s *listStore) snapshot(id graph.NodeID, in bool, keep func(graph.NodeID) bool) []graph.NodeID {
	p := s.pair(id)
	p.mu.Lock()
	defer p.mu.Unlock()

	set := p.out
	if in {
		set = p.in
	}
	hubs := make([]graph.NodeID, 0, len(set))
	for h := range set {
		if keep(h) {
			hubs = append(hubs, h)
		}
	}
	return hubs
}

// containsAny reports whether one side of id's pair holds any of hubs.
func (s *listStore) containsAny(id graph.NodeID, in bool, hubs []graph.NodeID) bool {
	if len(hubs) == 0 {
		return false
	}
	p := s.pair(id)
	p.mu.Lock()
	defer p.mu.Unlock()

	set := p.out
	if in {
		set = p.in
	}
	for _, h := range hubs {
		if _, ok := set[h]; ok {
			return true
		}
	}
	return false
}

// records returns every node with a non-empty pair, ascending by node id,
// with both lists sorted.
func (s *listStore) records() []storage.Record {
	var recs []storage.Record
	s.pairs.Range(func(k, v any) bool {
		p := v.(*inOut)
		p.mu.Lock()
		rec := storage.Record{Node: k.(graph.NodeID), Out: sortedHubs(p.out), In: sortedHubs(p.in)}
		p.mu.Unlock()

		if !rec.Empty() {
			recs = append(recs, rec)
		}
		return true
	})
	slices.SortFunc(recs, func(a, b storage.Record) int {
		switch {
		case a.Node < b.Node:
			return -1
		case a.Node > b.Node:
			return 1
		}
		return 0
	})
	return recs
}

func sortedHubs(set hubSet) []graph.NodeID {
	if len(set) == 0 {
		return nil
	}
	hubs := make([]graph.NodeID, 0, len(set))
	for h := range set {
		hubs = append(hubs, h)
	}
	slices.Sort(hubs)
	return hubs
}
