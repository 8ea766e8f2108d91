package graph

import (
	"github.com/SciGraph/SciGraph-sub002/pkg/sys/intern"
)

// NodeID identifies a node. IDs are dense, assigned in insertion order and
// stable for the lifetime of a graph.
type NodeID int64

// Direction selects which adjacency a traversal follows.
type Direction int

const (
	// Forward follows outgoing relationships.
	Forward Direction = iota
	// Backward follows incoming relationships.
	Backward
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	default:
		return "unknown"
	}
}

// Common ontology relationship types.
const (
	RelSubClassOf    = "subClassOf"
	RelSubPropertyOf = "subPropertyOf"
	RelEquivalentTo  = "equivalentClass"
	RelPartOf        = "partOf"
	RelUnknown       = "related"
)

// Edge is one directed relationship as seen from its source (or, in the
// reverse adjacency, from its target).
type Edge struct {
	TargetID NodeID
	Type     uint32 // interned relationship type
}

// TypeStr returns the relationship type name.
func (e Edge) TypeStr() string {
	return intern.GetStr(e.Type)
}

// Node is an ontology entity (class, property, individual).
type Node struct {
	ID         NodeID
	IRI        string
	Labels     []string
	Properties map[string]interface{}
}

// HasLabel reports whether the node carries the given label.
func (n *Node) HasLabel(label string) bool {
	for _, l := range n.Labels {
		if l == label {
			return true
		}
	}
	return false
}
