// Package reachability builds and queries a 2-hop cover over a directed
// graph. Each node keeps the hubs it reaches (out) and the hubs reaching it
// (in); u reaches v exactly when out(u) and in(v) share a hub.
package reachability

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/SciGraph/SciGraph-sub002/internal/swarm"
	"github.com/SciGraph/SciGraph-sub002/pkg/config"
	"github.com/SciGraph/SciGraph-sub002/pkg/graph"
	"github.com/SciGraph/SciGraph-sub002/pkg/storage"
)

const (
	stateAbsent int32 = iota
	statePresent
)

// Index is the reachability index over one topology and one list store.
// Queries may run concurrently with each other but not with CreateIndex or
// DropIndex.
type Index struct {
	topo   graph.Topology
	store  storage.ListStore
	logger *slog.Logger
	tracer trace.Tracer

	batchSize    int
	workers      int
	cacheEntries int64
	cache        *ristretto.Cache[int64, storage.Record]

	state atomic.Int32
}

// Option defines a functional configuration override.
type Option func(*Index)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(x *Index) {
		if l != nil {
			x.logger = l
		}
	}
}

// WithBatchSize sets how many node records go into one storage commit.
func WithBatchSize(n int) Option {
	return func(x *Index) {
		if n > 0 {
			x.batchSize = n
		}
	}
}

// WithWorkers sets how many hub sweeps run at once. 1 is sequential.
func WithWorkers(n int) Option {
	return func(x *Index) {
		if n > 0 {
			x.workers = n
		}
	}
}

// WithCache bounds the decoded record cache. 0 disables it.
func WithCache(entries int64) Option {
	return func(x *Index) {
		x.cacheEntries = entries
	}
}

// WithTracer overrides the OpenTelemetry tracer.
func WithTracer(t trace.Tracer) Option {
	return func(x *Index) {
		if t != nil {
			x.tracer = t
		}
	}
}

// WithConfig applies index settings from configuration.
func WithConfig(cfg config.IndexConfig) Option {
	return func(x *Index) {
		WithBatchSize(cfg.BatchSize)(x)
		WithWorkers(cfg.Workers)(x)
		WithCache(cfg.CacheEntries)(x)
	}
}

// New opens the index stored in store for topo and loads its state.
func New(ctx context.Context, topo graph.Topology, store storage.ListStore, opts ...Option) (*Index, error) {
	x := &Index{
		topo:      topo,
		store:     store,
		logger:    slog.Default(),
		tracer:    otel.Tracer("scigraph/reachability"),
		batchSize: config.DefaultBatchSize,
		workers:   1,
	}
	for _, opt := range opts {
		opt(x)
	}

	if x.cacheEntries > 0 {
		cache, err := ristretto.NewCache(&ristretto.Config[int64, storage.Record]{
			NumCounters: x.cacheEntries * 10,
			MaxCost:     x.cacheEntries,
			BufferItems: 64,
			// Every record costs 1 so MaxCost counts entries.
			IgnoreInternalCost: true,
		})
		if err != nil {
			return nil, fmt.Errorf("create record cache: %w", err)
		}
		x.cache = cache
	}

	if _, err := x.IndexExists(ctx); err != nil {
		x.Close()
		return nil, err
	}
	return x, nil
}

// IndexExists reads the persisted metadata flag.
func (x *Index) IndexExists(ctx context.Context) (bool, error) {
	meta, err := x.store.ReadMetadata(ctx)
	if err != nil {
		return false, fmt.Errorf("read index metadata: %w", err)
	}
	x.setPresent(meta.Exists)
	return meta.Exists, nil
}

// Status returns the persisted metadata, including build statistics.
func (x *Index) Status(ctx context.Context) (storage.Metadata, error) {
	meta, err := x.store.ReadMetadata(ctx)
	if err != nil {
		return storage.Metadata{}, fmt.Errorf("read index metadata: %w", err)
	}
	x.setPresent(meta.Exists)
	return meta, nil
}

func (x *Index) setPresent(ok bool) {
	if ok {
		x.state.Store(statePresent)
	} else {
		x.state.Store(stateAbsent)
	}
}

func (x *Index) requirePresent() error {
	if x.state.Load() != statePresent {
		return ErrIndexNotBuilt
	}
	return nil
}

// BuildOption adjusts a single CreateIndex call.
type BuildOption func(*buildSettings)

type buildSettings struct {
	exclusions []storage.Exclusion
}

// WithExclusions stores the rules behind the visibility predicate in the
// index metadata, so readers can rebuild the predicate the index was built
// with.
func WithExclusions(rules []storage.Exclusion) BuildOption {
	return func(b *buildSettings) {
		b.exclusions = append(b.exclusions, rules...)
	}
}

// CreateIndex builds the index for every node accepted by visible and
// persists it. The metadata flag is set only after every record is
// written; a failed or cancelled build leaves the index absent.
func (x *Index) CreateIndex(ctx context.Context, visible Visibility, opts ...BuildOption) (err error) {
	ctx, span := x.tracer.Start(ctx, "Index.CreateIndex")
	defer span.End()
	built := false
	defer func() {
		result := "ok"
		if !built {
			result = "error"
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		BuildsTotal.WithLabelValues(result).Inc()
	}()

	exists, err := x.IndexExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return ErrIndexAlreadyExists
	}

	start := time.Now()
	hubs := OrderHubs(x.topo, visible)
	ranks := make(map[graph.NodeID]int, len(hubs))
	for _, h := range hubs {
		ranks[h.ID] = h.Rank
	}
	span.SetAttributes(attribute.Int("hubs", len(hubs)), attribute.Int("workers", x.workers))
	x.logger.Info("Building reachability index", "hubs", len(hubs), "workers", x.workers)

	lists := newListStore()
	if err := x.sweepAll(ctx, hubs, ranks, lists, visible); err != nil {
		return err
	}

	var settings buildSettings
	for _, opt := range opts {
		opt(&settings)
	}
	meta, err := x.persist(ctx, lists, len(hubs), settings.exclusions)
	if err != nil {
		return err
	}

	x.clearCache()
	x.state.Store(statePresent)
	built = true

	elapsed := time.Since(start)
	BuildDuration.Observe(elapsed.Seconds())
	x.logger.Info("Reachability index built",
		"hubs", meta.Hubs,
		"records", meta.Records,
		"entries", meta.Entries,
		"duration", elapsed)
	return nil
}

func (x *Index) sweepAll(ctx context.Context, hubs []Hub, ranks map[graph.NodeID]int, lists *listStore, visible Visibility) error {
	runHub := func(h Hub) {
		for _, dir := range []graph.Direction{graph.Backward, graph.Forward} {
			s := &sweep{hub: h, dir: dir, lists: lists, visible: visible, ranks: ranks}
			stats := s.run(x.topo)
			SweepsTotal.WithLabelValues(dir.String()).Inc()
			PrunedVisitsTotal.WithLabelValues(dir.String()).Add(float64(stats.pruned))
		}
	}

	if x.workers <= 1 {
		for _, h := range hubs {
			if err := ctx.Err(); err != nil {
				return err
			}
			runHub(h)
		}
		return nil
	}

	pool := swarm.NewEngine(ctx, x.workers)
	for _, h := range hubs {
		pool.Submit(func(ctx context.Context) error {
			runHub(h)
			return nil
		})
	}
	if err := pool.Wait(); err != nil {
		return err
	}
	// Wait reports task errors only; a cancellation between submissions
	// may leave hubs unswept.
	return ctx.Err()
}

// DropIndex removes the persisted index. Dropping an absent index logs a
// warning and succeeds.
func (x *Index) DropIndex(ctx context.Context) error {
	ctx, span := x.tracer.Start(ctx, "Index.DropIndex")
	defer span.End()

	exists, err := x.IndexExists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		x.logger.Warn("Drop requested but no reachability index exists")
		return nil
	}

	// Metadata goes first so a partial drop is observed as absent.
	if err := x.store.WriteMetadata(ctx, storage.Metadata{}); err != nil {
		return fmt.Errorf("reset index metadata: %w", err)
	}
	x.state.Store(stateAbsent)
	x.clearCache()

	if err := x.store.ClearRecords(ctx); err != nil {
		return fmt.Errorf("clear index records: %w", err)
	}
	x.logger.Info("Reachability index dropped")
	return nil
}

func (x *Index) clearCache() {
	if x.cache != nil {
		x.cache.Clear()
	}
}

// Close releases the record cache. The list store is owned by the caller.
func (x *Index) Close() {
	if x.cache != nil {
		x.cache.Close()
	}
}
