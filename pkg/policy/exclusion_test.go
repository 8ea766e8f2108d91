package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SciGraph/SciGraph-sub002/pkg/graph"
)

func ontology(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.NewGraph()
	g.AddNode("http://x/organ", []string{"Class"}, map[string]interface{}{"label": "organ"})
	g.AddNode("http://x/heart", []string{"Class"}, map[string]interface{}{"label": "heart"})
	g.AddNode("http://x/old_heart", []string{"Class", "Deprecated"}, nil)
	g.AddNode("http://x/thing", []string{"Class"}, map[string]interface{}{"obsolete": true})
	g.AddTypedEdge("http://x/heart", "http://x/organ", graph.RelSubClassOf)
	g.AddTypedEdge("http://x/old_heart", "http://x/heart", graph.RelEquivalentTo)
	g.CloseAndWait()
	return g
}

func TestCompileExclusion_Labels(t *testing.T) {
	g := ontology(t)
	e, err := CompileExclusion("'Deprecated' in labels", nil)
	require.NoError(t, err)
	require.Equal(t, 1, e.Len())

	vis := e.Visibility(g)
	require.NotNil(t, vis)
	assert.True(t, vis(g.MustLookup("http://x/heart")))
	assert.False(t, vis(g.MustLookup("http://x/old_heart")))
	assert.False(t, vis(graph.NodeID(999)), "unknown ids are hidden")
}

func TestEngine_MultipleRules(t *testing.T) {
	g := ontology(t)
	e, err := NewEngine(nil)
	require.NoError(t, err)
	require.NoError(t, e.Compile([]ExclusionRule{
		{ID: "obsolete", Condition: "'obsolete' in props && props.obsolete == true"},
		{ID: "hubs", Condition: "degree >= 2"},
		{ID: "iri", Condition: "iri.endsWith('/organ')"},
	}))

	assert.Equal(t, "obsolete", e.Excludes(g.GetNode("http://x/thing"), 0))
	assert.Equal(t, "hubs", e.Excludes(g.GetNode("http://x/heart"), g.Degree(g.MustLookup("http://x/heart"))))
	assert.Equal(t, "iri", e.Excludes(g.GetNode("http://x/organ"), 1))
	assert.Equal(t, "", e.Excludes(g.GetNode("http://x/old_heart"), 1))

	ids := make([]string, 0, e.Len())
	for _, r := range e.Rules() {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"obsolete", "hubs", "iri"}, ids)
}

func TestEngine_EvaluationErrorKeepsNodeVisible(t *testing.T) {
	g := ontology(t)
	// props.label is missing on old_heart, so evaluation errors there.
	e, err := CompileExclusion("props.label == 'heart'", nil)
	require.NoError(t, err)

	assert.Equal(t, "exclude", e.Excludes(g.GetNode("http://x/heart"), 0))
	assert.Equal(t, "", e.Excludes(g.GetNode("http://x/old_heart"), 0))
}

func TestCompileExclusion_Invalid(t *testing.T) {
	_, err := CompileExclusion("labels +", nil)
	assert.Error(t, err)

	_, err = CompileExclusion("unknown_var == 1", nil)
	assert.Error(t, err)
}

func TestCompileExclusion_EmptyMeansAllVisible(t *testing.T) {
	e, err := CompileExclusion("", nil)
	require.NoError(t, err)
	assert.Nil(t, e.Visibility(ontology(t)))
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	doc := `
rules:
  - id: deprecated
    condition: "'Deprecated' in labels"
  - condition: "degree == 0"
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0600))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "deprecated", rules[0].ID)
	assert.Equal(t, "rule-1", rules[1].ID)

	require.NoError(t, os.WriteFile(path, []byte("rules:\n  - id: broken\n"), 0600))
	_, err = LoadRules(path)
	assert.Error(t, err)
}
