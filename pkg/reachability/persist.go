package reachability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/SciGraph/SciGraph-sub002/pkg/storage"
)

// persist writes every non-empty pair as sorted arrays, batchSize records
// per commit, then flips the metadata flag.
func (x *Index) persist(ctx context.Context, lists *listStore, hubs int, exclusions []storage.Exclusion) (storage.Metadata, error) {
	ctx, span := x.tracer.Start(ctx, "Index.persist")
	defer span.End()

	// Leftovers from an interrupted build or drop must not survive into
	// the new index.
	if err := x.store.ClearRecords(ctx); err != nil {
		return storage.Metadata{}, fmt.Errorf("clear stale records: %w", err)
	}

	recs := lists.records()
	batches := 0
	for start := 0; start < len(recs); start += x.batchSize {
		if err := ctx.Err(); err != nil {
			return storage.Metadata{}, err
		}
		batch := recs[start:min(start+x.batchSize, len(recs))]
		if err := x.store.WriteRecords(ctx, batch); err != nil {
			return storage.Metadata{}, fmt.Errorf("persist batch %d: %w", batches, err)
		}
		batches++
		RecordsPersistedTotal.Add(float64(len(batch)))
		x.logger.Debug("Persisted reachability batch", "batch", batches, "records", len(batch))
	}

	meta := storage.Metadata{
		Exists:    true,
		BuiltAt:   time.Now().UTC(),
		Hubs:      hubs,
		Records:   len(recs),
		Entries:   lists.entries.Load(),
		BatchSize: x.batchSize,
		Workers:   x.workers,

		Exclusions: exclusions,
	}
	if err := x.store.WriteMetadata(ctx, meta); err != nil {
		return storage.Metadata{}, fmt.Errorf("write index metadata: %w", err)
	}
	span.SetAttributes(
		attribute.Int("records", meta.Records),
		attribute.Int("batches", batches),
		attribute.Int64("entries", meta.Entries))
	return meta, nil
}
