// Package engine wires configuration, the graph, the list store and the
// reachability index into one runtime.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"runtime/debug"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/SciGraph/SciGraph-sub002/pkg/config"
	"github.com/SciGraph/SciGraph-sub002/pkg/graph"
	"github.com/SciGraph/SciGraph-sub002/pkg/policy"
	"github.com/SciGraph/SciGraph-sub002/pkg/reachability"
	"github.com/SciGraph/SciGraph-sub002/pkg/storage"
	"github.com/SciGraph/SciGraph-sub002/pkg/telemetry"
)

// initTelemetry is swapped out by tests.
var initTelemetry = telemetry.Init

// ErrNoGraph is returned when neither a graph nor a graph file is configured.
var ErrNoGraph = errors.New("no graph configured")

// ErrUnknownNode is returned when an IRI does not name a node of the graph.
var ErrUnknownNode = errors.New("unknown node")

// Engine is the runtime core.
type Engine struct {
	Config config.Config
	Graph  *graph.Graph
	Store  storage.ListStore
	Index  *reachability.Index
	Policy *policy.Engine
	Logger *slog.Logger
	Tracer trace.Tracer

	rules     []policy.ExclusionRule
	ownsStore bool
	shutdown  telemetry.Shutdown
}

// Option defines a functional configuration override.
type Option func(*Engine)

// WithConfig sets raw config.
func WithConfig(cfg config.Config) Option {
	return func(e *Engine) {
		e.Config = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.Logger = l
	}
}

// WithGraph uses an already built graph instead of loading Config.Graph.
func WithGraph(g *graph.Graph) Option {
	return func(e *Engine) {
		e.Graph = g
	}
}

// WithStore uses store instead of opening Config.Store. The caller keeps
// ownership and closes it.
func WithStore(s storage.ListStore) Option {
	return func(e *Engine) {
		e.Store = s
	}
}

// WithRules adds exclusion rules on top of Config.Index.Exclude.
func WithRules(rules []policy.ExclusionRule) Option {
	return func(e *Engine) {
		e.rules = append(e.rules, rules...)
	}
}

// New initializes the Engine.
func New(ctx context.Context, opts ...Option) (*Engine, error) {
	e := &Engine{
		Config: config.Default(),
		Tracer: otel.Tracer("scigraph/engine"),
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := e.Config.Validate(); err != nil {
		return nil, err
	}
	if e.Logger == nil {
		e.Logger = NewLogger(os.Stderr, e.Config.Log)
	}
	slog.SetDefault(e.Logger)

	shutdown, err := initTelemetry(ctx, e.Config.Telemetry)
	if err != nil {
		e.Logger.Warn("Telemetry failed", "error", err)
		shutdown = nil
	}
	e.shutdown = shutdown

	if err := e.load(ctx); err != nil {
		e.Close(ctx)
		return nil, err
	}
	return e, nil
}

// load brings up everything after telemetry. On error the caller closes e.
func (e *Engine) load(ctx context.Context) error {
	if e.Graph == nil {
		if e.Config.Graph == "" {
			return ErrNoGraph
		}
		g, err := graph.LoadFile(e.Config.Graph)
		if err != nil {
			return err
		}
		e.Graph = g
	}
	e.Logger.Info("Graph loaded", "stats", e.Graph.DumpStats())

	var err error
	e.Policy, err = policy.CompileExclusion(e.Config.Index.Exclude, e.Logger)
	if err != nil {
		return fmt.Errorf("index.exclude: %w", err)
	}
	if err := e.Policy.Compile(e.rules); err != nil {
		return err
	}

	if e.Store == nil {
		store, err := storage.Open(ctx, e.Config.Store, e.Logger)
		if err != nil {
			return fmt.Errorf("open %s store: %w", e.Config.Store.Backend, err)
		}
		e.Store = store
		e.ownsStore = true
	}

	e.Index, err = reachability.New(ctx, e.Graph, e.Store,
		reachability.WithLogger(e.Logger),
		reachability.WithConfig(e.Config.Index),
	)
	return err
}

// Visibility returns the predicate derived from the exclusion rules.
func (e *Engine) Visibility() reachability.Visibility {
	return e.Policy.Visibility(e.Graph)
}

// Build creates the index. With rebuild set an existing index is dropped
// first; otherwise an existing index is an error.
func (e *Engine) Build(ctx context.Context, rebuild bool) (meta storage.Metadata, err error) {
	ctx, span := e.Tracer.Start(ctx, "Engine.Build")
	defer span.End()
	defer e.recoverPanic(ctx, &err)

	if rebuild {
		if err := e.Index.DropIndex(ctx); err != nil {
			return storage.Metadata{}, err
		}
	}
	if err := e.Index.CreateIndex(ctx, e.Visibility(), reachability.WithExclusions(e.exclusions())); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return storage.Metadata{}, err
	}
	return e.Index.Status(ctx)
}

func (e *Engine) exclusions() []storage.Exclusion {
	rules := e.Policy.Rules()
	out := make([]storage.Exclusion, len(rules))
	for i, r := range rules {
		out[i] = storage.Exclusion{ID: r.ID, Condition: r.Condition}
	}
	return out
}

// builtVisibility rebuilds the predicate the persisted index was built
// with. It can differ from Visibility when the configuration or the rule
// files changed since the build.
func (e *Engine) builtVisibility(meta storage.Metadata) (reachability.Visibility, error) {
	rules := make([]policy.ExclusionRule, len(meta.Exclusions))
	for i, x := range meta.Exclusions {
		rules[i] = policy.ExclusionRule{ID: x.ID, Condition: x.Condition}
	}
	p, err := policy.NewEngine(e.Logger)
	if err != nil {
		return nil, err
	}
	if err := p.Compile(rules); err != nil {
		return nil, fmt.Errorf("stored exclusions: %w", err)
	}
	return p.Visibility(e.Graph), nil
}

// Resolve maps IRIs to node ids.
func (e *Engine) Resolve(iris ...string) ([]graph.NodeID, error) {
	ids := make([]graph.NodeID, 0, len(iris))
	for _, iri := range iris {
		id, ok := e.Graph.Lookup(iri)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownNode, iri)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Mismatch is a pair on which the index and a direct traversal disagree.
type Mismatch struct {
	Src, Dst graph.NodeID
	Index    bool
	Traverse bool
}

// VerifyReport summarizes a Verify run.
type VerifyReport struct {
	Sources    int
	Checked    int
	Mismatches []Mismatch
}

// Verify compares index answers with a breadth-first traversal for up to
// samples source nodes picked with seed, checking every destination.
// samples <= 0 checks every node. The traversal hides the nodes the index
// was built without, as recorded in its metadata.
func (e *Engine) Verify(ctx context.Context, samples int, seed uint64) (VerifyReport, error) {
	ctx, span := e.Tracer.Start(ctx, "Engine.Verify")
	defer span.End()

	meta, err := e.Index.Status(ctx)
	if err != nil {
		return VerifyReport{}, err
	}
	if !meta.Exists {
		return VerifyReport{}, reachability.ErrIndexNotBuilt
	}
	vis, err := e.builtVisibility(meta)
	if err != nil {
		return VerifyReport{}, err
	}

	nodes := e.Graph.Nodes()
	sources := nodes
	if samples > 0 && samples < len(nodes) {
		r := rand.New(rand.NewPCG(seed, seed))
		sources = make([]graph.NodeID, samples)
		for i, p := range r.Perm(len(nodes))[:samples] {
			sources[i] = nodes[p]
		}
	}

	var report VerifyReport
	for _, u := range sources {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		reached := graph.Reachable(e.Graph, u, vis)
		for _, v := range nodes {
			got, err := e.Index.CanReach(ctx, u, v)
			if err != nil {
				return report, err
			}
			report.Checked++
			if got != reached[v] {
				report.Mismatches = append(report.Mismatches, Mismatch{Src: u, Dst: v, Index: got, Traverse: reached[v]})
			}
		}
		report.Sources++
	}

	span.SetAttributes(
		attribute.Int("verify.checked", report.Checked),
		attribute.Int("verify.mismatches", len(report.Mismatches)))
	if len(report.Mismatches) > 0 {
		e.Logger.Error("Index verification failed", "mismatches", len(report.Mismatches), "checked", report.Checked)
	}
	return report, nil
}

// Close releases the index cache, the store when the engine opened it, and
// flushes telemetry.
func (e *Engine) Close(ctx context.Context) error {
	var errs []error
	if e.Index != nil {
		e.Index.Close()
	}
	if e.ownsStore && e.Store != nil {
		errs = append(errs, e.Store.Close())
	}
	if e.shutdown != nil {
		errs = append(errs, e.shutdown(ctx))
	}
	return errors.Join(errs...)
}

// recoverPanic turns a panic during a build into an error on the span.
func (e *Engine) recoverPanic(ctx context.Context, err *error) {
	if r := recover(); r != nil {
		stack := debug.Stack()
		span := trace.SpanFromContext(ctx)
		span.RecordError(fmt.Errorf("%v", r), trace.WithStackTrace(true))
		span.SetStatus(codes.Error, "CRITICAL FAILURE")
		span.SetAttributes(
			attribute.String("crash.stack", string(stack)),
			attribute.String("crash.reason", fmt.Sprintf("%v", r)),
		)

		e.Logger.Error("CRITICAL FAILURE", "error", r, "stack", string(stack))
		*err = fmt.Errorf("index build panicked: %v", r)
	}
}
