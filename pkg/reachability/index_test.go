package reachability

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SciGraph/SciGraph-sub002/pkg/graph"
	"github.com/SciGraph/SciGraph-sub002/pkg/storage"
)

// scenario is a→b, a→c, c→a, a→e, e→f with d isolated.
func scenario(t *testing.T) (*graph.Graph, map[string]graph.NodeID) {
	t.Helper()
	g := graph.NewGraph()
	for _, n := range []string{"a", "b", "c", "d", "e", "f"} {
		g.AddNode(n, []string{"Class"}, nil)
	}
	g.AddTypedEdge("a", "b", graph.RelSubClassOf)
	g.AddTypedEdge("a", "c", graph.RelSubClassOf)
	g.AddTypedEdge("c", "a", graph.RelEquivalentTo)
	g.AddTypedEdge("a", "e", graph.RelPartOf)
	g.AddTypedEdge("e", "f", graph.RelPartOf)
	g.CloseAndWait()

	ids := make(map[string]graph.NodeID)
	for _, n := range []string{"a", "b", "c", "d", "e", "f"} {
		ids[n] = g.MustLookup(n)
	}
	return g, ids
}

func excluding(ids ...graph.NodeID) Visibility {
	hidden := make(map[graph.NodeID]bool)
	for _, id := range ids {
		hidden[id] = true
	}
	return func(id graph.NodeID) bool { return !hidden[id] }
}

func newIndex(t *testing.T, topo graph.Topology, store storage.ListStore, opts ...Option) *Index {
	t.Helper()
	x, err := New(context.Background(), topo, store, opts...)
	require.NoError(t, err)
	t.Cleanup(x.Close)
	return x
}

func TestScenario(t *testing.T) {
	ctx := context.Background()
	g, id := scenario(t)
	x := newIndex(t, g, storage.NewMemoryStore())
	require.NoError(t, x.CreateIndex(ctx, excluding(id["e"])))

	cases := []struct {
		from, to string
		want     bool
	}{
		{"a", "a", true},
		{"a", "b", true},
		{"b", "a", false},
		{"a", "c", true},
		{"c", "a", true},
		{"b", "c", false},
		{"a", "d", false},
		{"d", "a", false},
		{"a", "e", false},
		{"e", "f", false},
		{"a", "f", false},
		{"d", "d", true},
		{"f", "f", true},
		{"e", "e", false},
	}
	for _, tc := range cases {
		got, err := x.CanReach(ctx, id[tc.from], id[tc.to])
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "CanReach(%s, %s)", tc.from, tc.to)
	}

	pairs, err := x.GetConnectedPairs(ctx,
		[]graph.NodeID{id["a"], id["d"]},
		[]graph.NodeID{id["b"], id["c"]})
	require.NoError(t, err)
	assert.ElementsMatch(t, []Pair{{id["a"], id["b"]}, {id["a"], id["c"]}}, pairs)

	all := func(srcs, dests []graph.NodeID) bool {
		ok, err := x.AllReachable(ctx, srcs, dests)
		require.NoError(t, err)
		return ok
	}
	a, b, c, d := id["a"], id["b"], id["c"], id["d"]
	assert.True(t, all([]graph.NodeID{a}, []graph.NodeID{b, c}))
	assert.False(t, all([]graph.NodeID{a}, []graph.NodeID{b, c, d}))
	assert.True(t, all([]graph.NodeID{a, c}, []graph.NodeID{c}))
	assert.False(t, all([]graph.NodeID{a, b, c}, []graph.NodeID{c}))
	assert.True(t, all(nil, []graph.NodeID{d}))
	assert.True(t, all([]graph.NodeID{a, a}, []graph.NodeID{b, b}))
}

func TestCreateIndex_RecordsExclusions(t *testing.T) {
	ctx := context.Background()
	g, id := scenario(t)
	store := storage.NewMemoryStore()
	x := newIndex(t, g, store)

	rules := []storage.Exclusion{{ID: "hide-e", Condition: "iri == 'e'"}}
	require.NoError(t, x.CreateIndex(ctx, excluding(id["e"]), WithExclusions(rules)))

	meta, err := store.ReadMetadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, rules, meta.Exclusions)

	require.NoError(t, x.DropIndex(ctx))
	require.NoError(t, x.CreateIndex(ctx, nil))
	meta, err = store.ReadMetadata(ctx)
	require.NoError(t, err)
	assert.Empty(t, meta.Exclusions)
}

func TestScenario_PersistedLists(t *testing.T) {
	ctx := context.Background()
	g, id := scenario(t)
	store := storage.NewMemoryStore()
	x := newIndex(t, g, store)
	require.NoError(t, x.CreateIndex(ctx, excluding(id["e"])))

	// Hub order is a, c, b, f, d; e is hidden.
	want := map[string][2][]graph.NodeID{
		"a": {{id["a"]}, {id["a"]}},
		"b": {{id["b"]}, {id["a"], id["b"]}},
		"c": {{id["a"], id["c"]}, {id["a"], id["c"]}},
		"d": {{id["d"]}, {id["d"]}},
		"f": {{id["f"]}, {id["f"]}},
	}
	for name, lists := range want {
		rec, ok, err := store.ReadRecord(ctx, id[name])
		require.NoError(t, err)
		require.True(t, ok, name)
		assert.Equal(t, lists[0], rec.Out, "out(%s)", name)
		assert.Equal(t, lists[1], rec.In, "in(%s)", name)
	}

	_, ok, err := store.ReadRecord(ctx, id["e"])
	require.NoError(t, err)
	assert.False(t, ok, "excluded node must not be recorded")

	meta, err := x.Status(ctx)
	require.NoError(t, err)
	assert.True(t, meta.Exists)
	assert.Equal(t, 5, meta.Hubs)
	assert.Equal(t, 5, meta.Records)
	assert.EqualValues(t, 13, meta.Entries)
}

func TestFailFast(t *testing.T) {
	ctx := context.Background()
	g, id := scenario(t)
	x := newIndex(t, g, storage.NewMemoryStore())

	exists, err := x.IndexExists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = x.CanReach(ctx, id["a"], id["b"])
	assert.ErrorIs(t, err, ErrIndexNotBuilt)
	_, err = x.GetConnectedPairs(ctx, nil, nil)
	assert.ErrorIs(t, err, ErrIndexNotBuilt)
	_, err = x.AllReachable(ctx, nil, nil)
	assert.ErrorIs(t, err, ErrIndexNotBuilt)

	// Dropping an absent index is a logged no-op.
	require.NoError(t, x.DropIndex(ctx))

	require.NoError(t, x.CreateIndex(ctx, nil))
	assert.ErrorIs(t, x.CreateIndex(ctx, nil), ErrIndexAlreadyExists)

	require.NoError(t, x.DropIndex(ctx))
	_, err = x.CanReach(ctx, id["a"], id["b"])
	assert.ErrorIs(t, err, ErrIndexNotBuilt)
}

func TestRebuildIdempotence(t *testing.T) {
	ctx := context.Background()
	g, id := scenario(t)
	store := storage.NewMemoryStore()
	x := newIndex(t, g, store, WithCache(16))
	vis := excluding(id["e"])

	answers := func() map[[2]graph.NodeID]bool {
		out := make(map[[2]graph.NodeID]bool)
		for _, u := range g.Nodes() {
			for _, v := range g.Nodes() {
				ok, err := x.CanReach(ctx, u, v)
				require.NoError(t, err)
				out[[2]graph.NodeID{u, v}] = ok
			}
		}
		return out
	}

	require.NoError(t, x.CreateIndex(ctx, vis))
	first := answers()
	require.NoError(t, x.DropIndex(ctx))
	assert.Zero(t, store.Len())
	require.NoError(t, x.CreateIndex(ctx, vis))
	assert.Equal(t, first, answers())
}

func TestRebuildWithDifferentVisibility(t *testing.T) {
	ctx := context.Background()
	g, id := scenario(t)
	x := newIndex(t, g, storage.NewMemoryStore(), WithCache(16))

	require.NoError(t, x.CreateIndex(ctx, nil))
	ok, err := x.CanReach(ctx, id["a"], id["f"])
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, x.DropIndex(ctx))
	require.NoError(t, x.CreateIndex(ctx, excluding(id["e"])))
	ok, err = x.CanReach(ctx, id["a"], id["f"])
	require.NoError(t, err)
	assert.False(t, ok, "cached answer from the previous build leaked")
}

func TestReopenExistingIndex(t *testing.T) {
	ctx := context.Background()
	g, id := scenario(t)
	store := storage.NewMemoryStore()

	first := newIndex(t, g, store)
	require.NoError(t, first.CreateIndex(ctx, nil))

	second := newIndex(t, g, store)
	ok, err := second.CanReach(ctx, id["a"], id["f"])
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBatchedPersistence(t *testing.T) {
	ctx := context.Background()
	g, id := scenario(t)
	store := storage.NewMemoryStore()
	x := newIndex(t, g, store, WithBatchSize(2))

	before := testutil.ToFloat64(RecordsPersistedTotal)
	require.NoError(t, x.CreateIndex(ctx, excluding(id["e"])))

	assert.Equal(t, 3, store.Commits)
	assert.Equal(t, 5, store.Len())
	assert.Equal(t, 5.0, testutil.ToFloat64(RecordsPersistedTotal)-before)
}

// failingStore fails the nth WriteRecords call.
type failingStore struct {
	*storage.MemoryStore
	failAt int
	calls  int
}

func (s *failingStore) WriteRecords(ctx context.Context, recs []storage.Record) error {
	s.calls++
	if s.calls == s.failAt {
		return errors.New("disk full")
	}
	return s.MemoryStore.WriteRecords(ctx, recs)
}

func TestFailedPersistenceLeavesIndexAbsent(t *testing.T) {
	ctx := context.Background()
	g, id := scenario(t)
	store := &failingStore{MemoryStore: storage.NewMemoryStore(), failAt: 2}
	x := newIndex(t, g, store, WithBatchSize(2))

	before := testutil.ToFloat64(BuildsTotal.WithLabelValues("error"))
	err := x.CreateIndex(ctx, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 1.0, testutil.ToFloat64(BuildsTotal.WithLabelValues("error"))-before)

	exists, err := x.IndexExists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)
	_, err = x.CanReach(ctx, id["a"], id["b"])
	assert.ErrorIs(t, err, ErrIndexNotBuilt)

	// A retry clears the partial batch and succeeds.
	store.failAt = 0
	require.NoError(t, x.CreateIndex(ctx, nil))
}

func TestCancelledBuild(t *testing.T) {
	g, _ := scenario(t)
	x := newIndex(t, g, storage.NewMemoryStore())

	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			WithWorkers(workers)(x)
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			assert.ErrorIs(t, x.CreateIndex(ctx, nil), context.Canceled)
			exists, err := x.IndexExists(context.Background())
			require.NoError(t, err)
			assert.False(t, exists)
		})
	}
}

func randomGraph(seed uint64, nodes, edges int) *graph.MemoryStore {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	s := graph.NewMemoryStore()
	for i := 0; i < nodes; i++ {
		s.AddNode(&graph.Node{IRI: fmt.Sprintf("n%d", i)})
	}
	for i := 0; i < edges; i++ {
		src := graph.NodeID(r.IntN(nodes))
		dst := graph.NodeID(r.IntN(nodes))
		s.AddEdge(src, graph.Edge{TargetID: dst})
	}
	return s
}

func TestAgreesWithBFS(t *testing.T) {
	ctx := context.Background()

	for seed := uint64(1); seed <= 12; seed++ {
		for _, workers := range []int{1, 4} {
			t.Run(fmt.Sprintf("seed=%d/workers=%d", seed, workers), func(t *testing.T) {
				topo := randomGraph(seed, 40, 60+int(seed)*5)
				var hidden []graph.NodeID
				if seed%3 == 0 {
					hidden = []graph.NodeID{3, 17, 29}
				}
				vis := excluding(hidden...)

				x := newIndex(t, topo, storage.NewMemoryStore(), WithWorkers(workers), WithBatchSize(7))
				require.NoError(t, x.CreateIndex(ctx, vis))

				for _, u := range topo.Nodes() {
					reached := graph.Reachable(topo, u, vis)
					for _, v := range topo.Nodes() {
						got, err := x.CanReach(ctx, u, v)
						require.NoError(t, err)
						if got != reached[v] {
							t.Fatalf("CanReach(%d, %d) = %v, BFS says %v", u, v, got, reached[v])
						}
					}
				}
			})
		}
	}
}

func TestConnectedPairsMatchesCanReach(t *testing.T) {
	ctx := context.Background()
	topo := randomGraph(99, 30, 45)
	x := newIndex(t, topo, storage.NewMemoryStore())
	require.NoError(t, x.CreateIndex(ctx, nil))

	srcs := []graph.NodeID{0, 1, 2, 3, 4, 5, 5}
	dests := []graph.NodeID{10, 11, 12, 13, 0}

	pairs, err := x.GetConnectedPairs(ctx, srcs, dests)
	require.NoError(t, err)

	var want []Pair
	allOK := true
	for _, s := range []graph.NodeID{0, 1, 2, 3, 4, 5} {
		for _, d := range []graph.NodeID{0, 10, 11, 12, 13} {
			ok, err := x.CanReach(ctx, s, d)
			require.NoError(t, err)
			if ok {
				want = append(want, Pair{s, d})
			} else {
				allOK = false
			}
		}
	}
	assert.Equal(t, want, pairs)

	all, err := x.AllReachable(ctx, srcs, dests)
	require.NoError(t, err)
	assert.Equal(t, allOK, all)
}

func TestConcurrentQueries(t *testing.T) {
	ctx := context.Background()
	topo := randomGraph(7, 50, 90)
	x := newIndex(t, topo, storage.NewMemoryStore(), WithCache(64))
	require.NoError(t, x.CreateIndex(ctx, nil))

	errs := make(chan error, 8)
	for w := 0; w < 8; w++ {
		go func() {
			for u := graph.NodeID(0); u < 50; u++ {
				reached := graph.Reachable(topo, u, nil)
				for v := graph.NodeID(0); v < 50; v++ {
					ok, err := x.CanReach(ctx, u, v)
					if err != nil {
						errs <- err
						return
					}
					if ok != reached[v] {
						errs <- fmt.Errorf("CanReach(%d, %d) = %v", u, v, ok)
						return
					}
				}
			}
			errs <- nil
		}()
	}
	for w := 0; w < 8; w++ {
		require.NoError(t, <-errs)
	}
}
