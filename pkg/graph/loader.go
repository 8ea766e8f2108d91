package graph

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Fixture is the on-disk YAML form of a graph.
//
//	nodes:
//	  - iri: http://purl.obolibrary.org/obo/UBERON_0002101
//	    labels: [Class]
//	    properties: {label: limb}
//	edges:
//	  - from: http://purl.obolibrary.org/obo/UBERON_0002101
//	    to: http://purl.obolibrary.org/obo/UBERON_0000026
//	    type: subClassOf
type Fixture struct {
	Nodes []FixtureNode `yaml:"nodes"`
	Edges []FixtureEdge `yaml:"edges"`
}

type FixtureNode struct {
	IRI        string                 `yaml:"iri"`
	Labels     []string               `yaml:"labels"`
	Properties map[string]interface{} `yaml:"properties"`
}

type FixtureEdge struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
	Type string `yaml:"type"`
}

// LoadFile reads a YAML fixture and returns the sealed graph.
func LoadFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open graph file: %w", err)
	}
	defer f.Close()

	g, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return g, nil
}

// Load decodes a YAML fixture and returns the sealed graph.
func Load(r io.Reader) (*Graph, error) {
	var fx Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse graph yaml: %w", err)
	}
	return fx.Build()
}

// Build validates the fixture and materializes it. Nodes are added in
// declaration order, so their ids follow the file.
func (fx Fixture) Build() (*Graph, error) {
	for i, n := range fx.Nodes {
		if n.IRI == "" {
			return nil, fmt.Errorf("node %d: missing iri", i)
		}
	}
	for i, e := range fx.Edges {
		if e.From == "" || e.To == "" {
			return nil, fmt.Errorf("edge %d: from and to are required", i)
		}
	}

	g := NewGraph()
	for _, n := range fx.Nodes {
		g.AddNode(n.IRI, n.Labels, n.Properties)
	}
	for _, e := range fx.Edges {
		edgeType := e.Type
		if edgeType == "" {
			edgeType = RelUnknown
		}
		g.AddTypedEdge(e.From, e.To, edgeType)
	}
	g.CloseAndWait()
	return g, nil
}
