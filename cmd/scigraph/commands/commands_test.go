package commands

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SciGraph/SciGraph-sub002/pkg/engine"
	"github.com/SciGraph/SciGraph-sub002/pkg/graph"
	"github.com/SciGraph/SciGraph-sub002/pkg/reachability"
	"github.com/SciGraph/SciGraph-sub002/pkg/storage"
)

const fixture = `
nodes:
  - iri: http://x/anatomy
    labels: [Class]
  - iri: http://x/organ
    labels: [Class]
  - iri: http://x/heart
    labels: [Class]
  - iri: http://x/old_heart
    labels: [Class, Deprecated]
  - iri: http://x/valve
    labels: [Class]
edges:
  - from: http://x/organ
    to: http://x/anatomy
    type: subClassOf
  - from: http://x/heart
    to: http://x/organ
    type: subClassOf
  - from: http://x/valve
    to: http://x/old_heart
    type: partOf
  - from: http://x/old_heart
    to: http://x/heart
    type: subClassOf
`

// workspace writes the graph and a config file pointing at a local store.
func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	graphPath := filepath.Join(dir, "graph.yaml")
	require.NoError(t, os.WriteFile(graphPath, []byte(fixture), 0600))

	cfg := fmt.Sprintf(`graph: %s
index:
  exclude: "'Deprecated' in labels"
  batch_size: 2
store:
  backend: local
  path: %s
telemetry:
  disabled: true
`, graphPath, filepath.Join(dir, "index"))
	cfgPath := filepath.Join(dir, "scigraph.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0600))
	return cfgPath
}

func run(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config", cfgPath, "--log-level", "error"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLI_Lifecycle(t *testing.T) {
	cfg := workspace(t)

	out, err := run(t, cfg, "index", "status")
	require.NoError(t, err)
	assert.Equal(t, "Index:    absent\n", out)

	_, err = run(t, cfg, "query", "reach", "http://x/heart", "http://x/anatomy")
	assert.ErrorIs(t, err, reachability.ErrIndexNotBuilt)

	out, err = run(t, cfg, "index", "build")
	require.NoError(t, err)
	assert.Contains(t, out, "Index built in")
	assert.Contains(t, out, "Index:    present")
	assert.Contains(t, out, "Hubs:     4")
	assert.Contains(t, out, "Batch:    2")

	_, err = run(t, cfg, "index", "build")
	assert.ErrorIs(t, err, reachability.ErrIndexAlreadyExists)

	// A fresh process sees the persisted index.
	out, err = run(t, cfg, "query", "reach", "http://x/heart", "http://x/anatomy")
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)

	out, err = run(t, cfg, "query", "reach", "http://x/valve", "http://x/anatomy")
	require.NoError(t, err)
	assert.Equal(t, "false\n", out, "excluded node must not carry reachability")

	out, err = run(t, cfg, "query", "pairs",
		"--from", "http://x/heart,http://x/organ",
		"--to", "http://x/anatomy,http://x/valve")
	require.NoError(t, err)
	assert.Equal(t, "http://x/organ -> http://x/anatomy\nhttp://x/heart -> http://x/anatomy\n2 connected pairs\n", out)

	out, err = run(t, cfg, "query", "all", "--from", "http://x/heart", "--to", "http://x/organ,http://x/anatomy")
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)

	out, err = run(t, cfg, "query", "all", "--from", "http://x/anatomy", "--to", "http://x/organ")
	require.NoError(t, err)
	assert.Equal(t, "false\n", out)

	out, err = run(t, cfg, "index", "verify", "--samples", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "Checked 25 pairs from 5 sources, 0 mismatches")

	out, err = run(t, cfg, "index", "build", "--rebuild")
	require.NoError(t, err)
	assert.Contains(t, out, "Index:    present")

	out, err = run(t, cfg, "index", "drop")
	require.NoError(t, err)
	assert.Equal(t, "Index dropped\n", out)

	out, err = run(t, cfg, "index", "status")
	require.NoError(t, err)
	assert.Equal(t, "Index:    absent\n", out)

	// Dropping an absent index is not an error.
	_, err = run(t, cfg, "index", "drop")
	assert.NoError(t, err)
}

func TestCLI_FlagsOverrideConfig(t *testing.T) {
	cfg := workspace(t)

	// Without the exclusion valve reaches anatomy through old_heart.
	out, err := run(t, cfg, "--exclude", "", "--store", "memory", "graph", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Excluded:    0")

	_, err = run(t, cfg, "--exclude", "", "index", "build")
	require.NoError(t, err)
	out, err = run(t, cfg, "query", "reach", "http://x/valve", "http://x/anatomy")
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)
}

func TestCLI_Errors(t *testing.T) {
	cfg := workspace(t)

	_, err := run(t, cfg, "--workers", "0", "index", "status")
	assert.ErrorContains(t, err, "index.workers")

	_, err = run(t, cfg, "--store", "neo4j", "index", "status")
	assert.ErrorContains(t, err, "unknown store.backend")

	_, err = run(t, cfg, "index", "build")
	require.NoError(t, err)
	_, err = run(t, cfg, "query", "reach", "http://x/heart", "http://x/nowhere")
	assert.ErrorIs(t, err, engine.ErrUnknownNode)

	_, err = run(t, cfg, "query", "reach", "http://x/heart")
	assert.Error(t, err)

	_, err = run(t, cfg, "index", "build", "--rebuild", "--rules", filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestCLI_BuildWithRulesFile(t *testing.T) {
	cfg := workspace(t)
	rules := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(rules, []byte(`rules:
  - id: hide-organ
    condition: iri == "http://x/organ"
`), 0600))

	out, err := run(t, cfg, "index", "build", "--rules", rules)
	require.NoError(t, err)
	assert.Contains(t, out, "Hubs:     3")
	assert.Contains(t, out, `Exclude:  hide-organ: iri == "http://x/organ"`)

	// Verify runs without --rules and must use the rules stored at build.
	out, err = run(t, cfg, "index", "verify", "--samples", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "Checked 25 pairs from 5 sources, 0 mismatches")

	out, err = run(t, cfg, "index", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Exclude:  exclude: 'Deprecated' in labels")
}

func TestCLI_Help(t *testing.T) {
	out, err := run(t, filepath.Join(t.TempDir(), "absent.yaml"), "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "COMMANDS")
	assert.Contains(t, out, "index")
	assert.Contains(t, out, "--store")
}

func TestCLI_GraphStats(t *testing.T) {
	cfg := workspace(t)
	out, err := run(t, cfg, "graph", "stats")
	require.NoError(t, err)

	g := goldie.New(t, goldie.WithFixtureDir("testdata"))
	g.Assert(t, "graph_stats", []byte(out))
}

func TestRenderStatus(t *testing.T) {
	g := goldie.New(t, goldie.WithFixtureDir("testdata"))

	var buf bytes.Buffer
	renderStatus(&buf, storage.Metadata{
		Exists:    true,
		BuiltAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Hubs:      5,
		Records:   5,
		Entries:   13,
		BatchSize: 500000,
		Workers:   1,
	})
	g.Assert(t, "status", buf.Bytes())

	buf.Reset()
	renderStatus(&buf, storage.Metadata{
		Exists:     true,
		Exclusions: []storage.Exclusion{{ID: "deprecated", Condition: "'Deprecated' in labels"}},
	})
	assert.Contains(t, buf.String(), "Exclude:  deprecated: 'Deprecated' in labels\n")

	buf.Reset()
	renderStatus(&buf, storage.Metadata{})
	g.Assert(t, "status_absent", buf.Bytes())
}

func TestRenderPairsAndVerify(t *testing.T) {
	gr, err := graph.Load(bytes.NewBufferString(fixture))
	require.NoError(t, err)
	organ, heart, anatomy := gr.MustLookup("http://x/organ"), gr.MustLookup("http://x/heart"), gr.MustLookup("http://x/anatomy")
	g := goldie.New(t, goldie.WithFixtureDir("testdata"))

	var buf bytes.Buffer
	renderPairs(&buf, gr, []reachability.Pair{{Src: heart, Dst: organ}, {Src: heart, Dst: anatomy}})
	g.Assert(t, "pairs", buf.Bytes())

	buf.Reset()
	renderPairs(&buf, gr, nil)
	assert.Equal(t, "No connected pairs\n", buf.String())

	buf.Reset()
	renderVerify(&buf, gr, engine.VerifyReport{
		Sources:    2,
		Checked:    10,
		Mismatches: []engine.Mismatch{{Src: anatomy, Dst: organ, Index: true, Traverse: false}},
	})
	g.Assert(t, "verify", buf.Bytes())
}
