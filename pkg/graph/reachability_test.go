package graph

import (
	"testing"
)

func TestReachable(t *testing.T) {
	g := NewGraph()

	// a -> b, a -> c, c -> a, a -> e, e -> f, d isolated.
	for _, iri := range []string{"a", "b", "c", "d", "e", "f"} {
		g.AddNode(iri, []string{"Class"}, nil)
	}
	g.AddEdge("a", "b")
	g.AddEdge("a", "c")
	g.AddEdge("c", "a")
	g.AddEdge("a", "e")
	g.AddEdge("e", "f")
	g.CloseAndWait()

	a := g.MustLookup("a")
	reached := Reachable(g, a, nil)
	for _, iri := range []string{"a", "b", "c", "e", "f"} {
		if !reached[g.MustLookup(iri)] {
			t.Errorf("expected %s reachable from a", iri)
		}
	}
	if reached[g.MustLookup("d")] {
		t.Errorf("d is isolated and must not be reachable")
	}

	if PathExists(g, g.MustLookup("b"), a, nil) {
		t.Errorf("b has no outgoing edges")
	}
	if !PathExists(g, g.MustLookup("c"), g.MustLookup("b"), nil) {
		t.Errorf("c reaches b through a")
	}
}

func TestReachable_InvisibleNodesBlockTraversal(t *testing.T) {
	g := NewGraph()
	g.AddEdge("a", "e")
	g.AddEdge("e", "f")
	g.CloseAndWait()

	e := g.MustLookup("e")
	visible := func(id NodeID) bool { return id != e }

	if PathExists(g, g.MustLookup("a"), g.MustLookup("f"), visible) {
		t.Errorf("path through an invisible node must not count")
	}
	if len(Reachable(g, e, visible)) != 0 {
		t.Errorf("invisible start should reach nothing")
	}
}
