// Package graph holds the immutable adjacency structure shared by every
// analysis in graphstats.
//
// A Graph is built once through a Builder and never mutated afterwards, so it
// can be handed to any number of goroutines without locking. Nodes keep the
// order in which the builder first saw them; that order is the graph's
// iteration order and is what "the first k nodes" refers to.
package graph

import "sort"

// NodeID identifies a node. Identifiers come from the dataset and are not
// guaranteed to be dense or sequential.
type NodeID uint32

// Graph is an undirected, unweighted adjacency structure stored in
// compressed sparse row form over a dense internal index.
//
// Neighbour sequences keep raw multiplicity: an edge declared twice appears
// twice in both endpoints' sequences.
type Graph struct {
	ids     []NodeID
	index   map[NodeID]int32
	offsets []int
	adj     []int32
}

// Info summarises the size of a graph.
type Info struct {
	Nodes     int `json:"nodes" yaml:"nodes"`
	Edges     int `json:"edges" yaml:"edges"`
	HalfEdges int `json:"half_edges" yaml:"half_edges"`
	Isolated  int `json:"isolated" yaml:"isolated"`
	MaxDegree int `json:"max_degree" yaml:"max_degree"`
}

// Empty returns a graph with no nodes.
func Empty() *Graph {
	return NewBuilder().Build()
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.ids)
}

// HalfEdgeCount returns the total length of all neighbour sequences.
func (g *Graph) HalfEdgeCount() int {
	return len(g.adj)
}

// EdgeCount returns the number of undirected edges, counted as half the
// number of stored half-edges.
func (g *Graph) EdgeCount() int {
	return len(g.adj) / 2
}

// Nodes returns all node identifiers in iteration order. The caller owns the
// returned slice.
func (g *Graph) Nodes() []NodeID {
	out := make([]NodeID, len(g.ids))
	copy(out, g.ids)
	return out
}

// Has reports whether id is a node of g.
func (g *Graph) Has(id NodeID) bool {
	_, ok := g.index[id]
	return ok
}

// Degree returns the length of id's neighbour sequence, or 0 if id is not in
// the graph.
func (g *Graph) Degree(id NodeID) int {
	i, ok := g.index[id]
	if !ok {
		return 0
	}
	return g.offsets[i+1] - g.offsets[i]
}

// Neighbors returns id's neighbour sequence in insertion order. The caller
// owns the returned slice.
func (g *Graph) Neighbors(id NodeID) []NodeID {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	row := g.adj[g.offsets[i]:g.offsets[i+1]]
	out := make([]NodeID, len(row))
	for k, j := range row {
		out[k] = g.ids[j]
	}
	return out
}

// Info computes the size summary of g.
func (g *Graph) Info() Info {
	info := Info{
		Nodes:     len(g.ids),
		Edges:     g.EdgeCount(),
		HalfEdges: len(g.adj),
	}
	for i := range g.ids {
		d := g.offsets[i+1] - g.offsets[i]
		if d == 0 {
			info.Isolated++
		}
		if d > info.MaxDegree {
			info.MaxDegree = d
		}
	}
	return info
}

// Dense index access. Algorithms address nodes by their position in
// iteration order to avoid hashing on hot paths. Slices returned here are
// shared with the graph and must not be modified.

// Len returns the number of nodes; valid dense indices are [0, Len()).
func (g *Graph) Len() int {
	return len(g.ids)
}

// IDAt returns the identifier of the node at dense index i.
func (g *Graph) IDAt(i int32) NodeID {
	return g.ids[i]
}

// IndexOf returns the dense index of id.
func (g *Graph) IndexOf(id NodeID) (int32, bool) {
	i, ok := g.index[id]
	return i, ok
}

// AdjacentAt returns the dense indices of the neighbours of node i.
func (g *Graph) AdjacentAt(i int32) []int32 {
	return g.adj[g.offsets[i]:g.offsets[i+1]]
}

// DegreeAt returns the degree of node i.
func (g *Graph) DegreeAt(i int32) int {
	return g.offsets[i+1] - g.offsets[i]
}

// FromAdjacency builds a graph from an explicit adjacency mapping. Keys are
// registered in ascending order, so iteration order is deterministic. The
// mapping is taken as-is: no symmetric insertion is performed.
func FromAdjacency(adjacency map[NodeID][]NodeID) *Graph {
	keys := make([]NodeID, 0, len(adjacency))
	for id := range adjacency {
		keys = append(keys, id)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	b := NewBuilder()
	for _, id := range keys {
		b.AddNode(id)
	}
	for _, id := range keys {
		b.AddNeighbors(id, adjacency[id]...)
	}
	return b.Build()
}

// FromEdges builds a graph by symmetric insertion of each edge, in order.
func FromEdges(edges [][2]NodeID) *Graph {
	b := NewBuilder()
	for _, e := range edges {
		b.AddEdge(e[0], e[1])
	}
	return b.Build()
}
