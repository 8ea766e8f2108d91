package storage

import (
	"context"
	"slices"
	"sync"

	"github.com/SciGraph/SciGraph-sub002/pkg/graph"
)

// MemoryStore is a volatile ListStore. Records are copied on the way in
// and out so callers cannot alias stored slices.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[graph.NodeID]Record
	meta    Metadata
	// Commits counts WriteRecords calls.
	Commits int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[graph.NodeID]Record)}
}

func cloneRecord(r Record) Record {
	return Record{Node: r.Node, Out: slices.Clone(r.Out), In: slices.Clone(r.In)}
}

func (s *MemoryStore) WriteRecords(ctx context.Context, recs []Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range recs {
		s.records[rec.Node] = cloneRecord(rec)
	}
	s.Commits++
	return nil
}

func (s *MemoryStore) ReadRecord(ctx context.Context, id graph.NodeID) (Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return Record{}, false, nil
	}
	return cloneRecord(rec), true, nil
}

func (s *MemoryStore) ClearRecords(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.records)
	return nil
}

func (s *MemoryStore) ReadMetadata(ctx context.Context) (Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta, nil
}

func (s *MemoryStore) WriteMetadata(ctx context.Context, m Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta = m
	return nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *MemoryStore) Close() error { return nil }
