package graph

import (
	"fmt"
	"sync"

	"github.com/SciGraph/SciGraph-sub002/pkg/sys/intern"
)

// LabelUnknown marks nodes that were only ever mentioned by an edge.
const LabelUnknown = "Unknown"

// GraphOp is one queued mutation for the builder goroutine.
type GraphOp struct {
	Kind     string // "Node" or "Edge"
	IRI      string
	Labels   []string
	Props    map[string]interface{}
	SourceID string
	TargetID string
	EdgeType string
}

// Graph is an ontology graph keyed by IRI. Mutations are funnelled through a
// single builder goroutine; after CloseAndWait the graph is immutable and
// safe for parallel reads.
type Graph struct {
	Mu    sync.RWMutex
	Store *MemoryStore
	idMap map[string]NodeID

	opChan    chan GraphOp
	buildDone chan struct{}
	closeOnce sync.Once
}

func NewGraph() *Graph {
	g := &Graph{
		Store:     NewMemoryStore(),
		idMap:     make(map[string]NodeID),
		opChan:    make(chan GraphOp, 10000),
		buildDone: make(chan struct{}),
	}
	g.StartBuilder()
	return g
}

func (g *Graph) StartBuilder() {
	go func() {
		defer close(g.buildDone)
		for op := range g.opChan {
			g.Mu.Lock()
			switch op.Kind {
			case "Node":
				g.unsafeAddNode(op.IRI, op.Labels, op.Props)
			case "Edge":
				g.unsafeAddEdge(op.SourceID, op.TargetID, op.EdgeType)
			}
			g.Mu.Unlock()
		}
	}()
}

// CloseAndWait seals the ingestion pipeline and waits for the builder to finish.
func (g *Graph) CloseAndWait() {
	g.closeOnce.Do(func() { close(g.opChan) })
	<-g.buildDone
}

// AddNode queues a node. Adding an IRI twice merges labels and properties.
func (g *Graph) AddNode(iri string, labels []string, props map[string]interface{}) {
	if iri == "" {
		return
	}
	g.opChan <- GraphOp{
		Kind:   "Node",
		IRI:    iri,
		Labels: labels,
		Props:  props,
	}
}

// AddEdge queues an untyped relationship.
func (g *Graph) AddEdge(sourceIRI, targetIRI string) {
	g.AddTypedEdge(sourceIRI, targetIRI, RelUnknown)
}

// AddTypedEdge queues a relationship of the given type.
func (g *Graph) AddTypedEdge(sourceIRI, targetIRI, edgeType string) {
	if sourceIRI == "" || targetIRI == "" {
		return
	}
	g.opChan <- GraphOp{
		Kind:     "Edge",
		SourceID: sourceIRI,
		TargetID: targetIRI,
		EdgeType: edgeType,
	}
}

func (g *Graph) unsafeAddNode(iri string, labels []string, props map[string]interface{}) NodeID {
	if id, exists := g.idMap[iri]; exists {
		node := g.Store.GetNode(id)
		for k, v := range props {
			if node.Properties == nil {
				node.Properties = make(map[string]interface{})
			}
			node.Properties[k] = v
		}
		for _, l := range labels {
			if !node.HasLabel(l) {
				node.Labels = append(node.Labels, l)
			}
		}
		if len(labels) > 0 {
			node.Labels = removeLabel(node.Labels, LabelUnknown)
		}
		return id
	}

	if props == nil {
		props = make(map[string]interface{})
	}
	id := g.Store.AddNode(&Node{
		IRI:        iri,
		Labels:     append([]string(nil), labels...),
		Properties: props,
	})
	g.idMap[iri] = id
	return id
}

// unsafeAddEdge auto-vivifies endpoints that have not been declared yet.
func (g *Graph) unsafeAddEdge(sourceIRI, targetIRI, edgeType string) {
	src, ok := g.idMap[sourceIRI]
	if !ok {
		src = g.unsafeAddNode(sourceIRI, []string{LabelUnknown}, nil)
	}
	dst, ok := g.idMap[targetIRI]
	if !ok {
		dst = g.unsafeAddNode(targetIRI, []string{LabelUnknown}, nil)
	}
	g.Store.AddEdge(src, Edge{TargetID: dst, Type: intern.Get(edgeType)})
}

// Lookup returns the id for an IRI.
func (g *Graph) Lookup(iri string) (NodeID, bool) {
	g.Mu.RLock()
	defer g.Mu.RUnlock()
	id, ok := g.idMap[iri]
	return id, ok
}

// MustLookup is Lookup for fixtures and tests; it panics on unknown IRIs.
func (g *Graph) MustLookup(iri string) NodeID {
	id, ok := g.Lookup(iri)
	if !ok {
		panic(fmt.Sprintf("graph: unknown IRI %q", iri))
	}
	return id
}

// GetNode returns the node for an IRI, or nil.
func (g *Graph) GetNode(iri string) *Node {
	id, ok := g.Lookup(iri)
	if !ok {
		return nil
	}
	return g.Store.GetNode(id)
}

// GetNodeByID returns the node for an id, or nil.
func (g *Graph) GetNodeByID(id NodeID) *Node {
	return g.Store.GetNode(id)
}

// GetNodes returns a snapshot of all current nodes.
func (g *Graph) GetNodes() []*Node {
	ids := g.Store.Nodes()
	nodes := make([]*Node, 0, len(ids))
	for _, id := range ids {
		nodes = append(nodes, g.Store.GetNode(id))
	}
	return nodes
}

// Topology implementation, delegated to the store.

func (g *Graph) Nodes() []NodeID                             { return g.Store.Nodes() }
func (g *Graph) Degree(id NodeID) int                        { return g.Store.Degree(id) }
func (g *Graph) Neighbors(id NodeID, dir Direction) []NodeID { return g.Store.Neighbors(id, dir) }

// GetDownstream returns the IRIs of direct successors.
func (g *Graph) GetDownstream(iri string) []string {
	return g.adjacentIRIs(iri, Forward)
}

// GetUpstream returns the IRIs of direct predecessors.
func (g *Graph) GetUpstream(iri string) []string {
	return g.adjacentIRIs(iri, Backward)
}

func (g *Graph) adjacentIRIs(iri string, dir Direction) []string {
	id, ok := g.Lookup(iri)
	if !ok {
		return nil
	}
	var out []string
	for _, n := range g.Store.Neighbors(id, dir) {
		if node := g.Store.GetNode(n); node != nil {
			out = append(out, node.IRI)
		}
	}
	return out
}

// EdgeCount returns the number of stored relationships.
func (g *Graph) EdgeCount() int {
	total := 0
	for _, id := range g.Store.Nodes() {
		total += len(g.Store.GetEdges(id))
	}
	return total
}

func (g *Graph) DumpStats() string {
	return fmt.Sprintf("Nodes: %d | Edges: %d", g.Store.NodeCount(), g.EdgeCount())
}

func removeLabel(labels []string, label string) []string {
	out := labels[:0]
	for _, l := range labels {
		if l != label {
			out = append(out, l)
		}
	}
	return out
}
