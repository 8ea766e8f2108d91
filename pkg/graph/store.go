package graph

// Topology is the read-only view of a graph that traversal code needs.
type Topology interface {
	// Nodes returns every node id in ascending order.
	Nodes() []NodeID
	// Degree counts incident relationships in both directions, any type.
	Degree(id NodeID) int
	// Neighbors returns the distinct nodes adjacent to id in the given
	// direction, ignoring relationship types.
	Neighbors(id NodeID, dir Direction) []NodeID
}

// GraphStore defines graph storage interface.
type GraphStore interface {
	Topology

	// Node operations.
	AddNode(node *Node) NodeID
	GetNode(id NodeID) *Node
	NodeCount() int

	// Edge operations.
	AddEdge(source NodeID, edge Edge)
	GetEdges(source NodeID) []Edge
	GetReverseEdges(target NodeID) []Edge
}
