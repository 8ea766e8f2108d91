package reachability

import (
	"context"
	"fmt"
	"slices"

	"github.com/SciGraph/SciGraph-sub002/pkg/graph"
	"github.com/SciGraph/SciGraph-sub002/pkg/storage"
)

// Pair is a connected (source, destination) pair.
type Pair struct {
	Src graph.NodeID
	Dst graph.NodeID
}

// CanReach reports whether v is reachable from u.
func (x *Index) CanReach(ctx context.Context, u, v graph.NodeID) (bool, error) {
	if err := x.requirePresent(); err != nil {
		return false, err
	}
	QueriesTotal.WithLabelValues("can_reach").Inc()

	from, err := x.record(ctx, u)
	if err != nil {
		return false, err
	}
	to, err := x.record(ctx, v)
	if err != nil {
		return false, err
	}
	return intersects(from.Out, to.In), nil
}

// GetConnectedPairs returns every (s, d) in srcs × dests with d reachable
// from s, ordered by source then destination. Duplicate inputs are ignored.
func (x *Index) GetConnectedPairs(ctx context.Context, srcs, dests []graph.NodeID) ([]Pair, error) {
	if err := x.requirePresent(); err != nil {
		return nil, err
	}
	QueriesTotal.WithLabelValues("connected_pairs").Inc()

	from, to, err := x.loadSides(ctx, srcs, dests)
	if err != nil {
		return nil, err
	}

	var pairs []Pair
	for _, s := range from {
		for _, d := range to {
			if intersects(s.Out, d.In) {
				pairs = append(pairs, Pair{Src: s.Node, Dst: d.Node})
			}
		}
	}
	return pairs, nil
}

// AllReachable reports whether every destination is reachable from every
// source. Empty inputs are vacuously true.
func (x *Index) AllReachable(ctx context.Context, srcs, dests []graph.NodeID) (bool, error) {
	if err := x.requirePresent(); err != nil {
		return false, err
	}
	QueriesTotal.WithLabelValues("all_reachable").Inc()

	from, to, err := x.loadSides(ctx, srcs, dests)
	if err != nil {
		return false, err
	}
	for _, s := range from {
		for _, d := range to {
			if !intersects(s.Out, d.In) {
				return false, nil
			}
		}
	}
	return true, nil
}

func (x *Index) loadSides(ctx context.Context, srcs, dests []graph.NodeID) ([]storage.Record, []storage.Record, error) {
	from, err := x.records(ctx, srcs)
	if err != nil {
		return nil, nil, err
	}
	to, err := x.records(ctx, dests)
	if err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

// records reads the distinct ids in ascending order.
func (x *Index) records(ctx context.Context, ids []graph.NodeID) ([]storage.Record, error) {
	uniq := slices.Clone(ids)
	slices.Sort(uniq)
	uniq = slices.Compact(uniq)

	recs := make([]storage.Record, 0, len(uniq))
	for _, id := range uniq {
		rec, err := x.record(ctx, id)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// record returns the persisted lists of id. A node without a record has
// empty lists.
func (x *Index) record(ctx context.Context, id graph.NodeID) (storage.Record, error) {
	if x.cache != nil {
		if rec, ok := x.cache.Get(int64(id)); ok {
			RecordCacheHitsTotal.Inc()
			return rec, nil
		}
	}

	rec, ok, err := x.store.ReadRecord(ctx, id)
	if err != nil {
		return storage.Record{}, fmt.Errorf("read record %d: %w", id, err)
	}
	if !ok {
		rec = storage.Record{Node: id}
	}
	if x.cache != nil {
		x.cache.Set(int64(id), rec, 1)
	}
	return rec, nil
}

// intersects reports whether two ascending lists share an element.
func intersects(a, b []graph.NodeID) bool {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			return true
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return false
}
