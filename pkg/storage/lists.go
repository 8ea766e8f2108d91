package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SciGraph/SciGraph-sub002/pkg/graph"
)

// Record is the persisted 2-hop label of one node. Out holds the hubs the
// node reaches, In the hubs that reach it. Both are sorted ascending.
type Record struct {
	Node graph.NodeID
	Out  []graph.NodeID
	In   []graph.NodeID
}

// Empty reports whether the record carries no hubs at all.
func (r Record) Empty() bool {
	return len(r.Out) == 0 && len(r.In) == 0
}

// Exclusion is one rule that hid nodes from the index at build time.
type Exclusion struct {
	ID        string `json:"id"`
	Condition string `json:"condition"`
}

// Metadata describes the persisted index as a whole. It is stored under a
// dedicated key, separate from any node record.
type Metadata struct {
	Exists    bool      `json:"exists"`
	BuiltAt   time.Time `json:"built_at,omitempty"`
	Hubs      int       `json:"hubs"`
	Records   int       `json:"records"`
	Entries   int64     `json:"entries"`
	BatchSize int       `json:"batch_size"`
	Workers   int       `json:"workers"`

	// Exclusions are the rules the build was run with; empty means every
	// node was visible.
	Exclusions []Exclusion `json:"exclusions,omitempty"`
}

// ListStore is the durable side of the graph adapter: per-node sorted hub
// arrays plus one metadata record.
type ListStore interface {
	// WriteRecords persists recs as one batch. Backends may apply a batch
	// in several steps, so a partially written index is only ever told
	// apart from a complete one by the metadata record.
	WriteRecords(ctx context.Context, recs []Record) error
	// ReadRecord returns the record for id; ok is false when none exists.
	ReadRecord(ctx context.Context, id graph.NodeID) (rec Record, ok bool, err error)
	// ClearRecords removes every node record. Metadata is untouched.
	ClearRecords(ctx context.Context) error
	// ReadMetadata returns the stored metadata, or the zero value.
	ReadMetadata(ctx context.Context) (Metadata, error)
	// WriteMetadata replaces the metadata record.
	WriteMetadata(ctx context.Context, m Metadata) error
	Close() error
}

func encodeMetadata(m Metadata) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return data, nil
}

func decodeMetadata(data []byte) (Metadata, error) {
	var m Metadata
	if len(data) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return Metadata{}, fmt.Errorf("decode metadata: %w", err)
	}
	return m, nil
}
