package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_SymmetricInsertion(t *testing.T) {
	g := FromEdges([][2]NodeID{{1, 2}, {2, 3}, {3, 4}, {4, 1}})

	require.Equal(t, 4, g.NodeCount())
	assert.Equal(t, 8, g.HalfEdgeCount())
	assert.Equal(t, 4, g.EdgeCount())
	assert.Equal(t, []NodeID{1, 2, 3, 4}, g.Nodes())
	assert.Equal(t, []NodeID{2, 4}, g.Neighbors(1))
	assert.Equal(t, []NodeID{1, 3}, g.Neighbors(2))
	assert.Contains(t, g.Neighbors(1), NodeID(2))
}

func TestBuilder_KeepsDuplicateEdges(t *testing.T) {
	g := FromEdges([][2]NodeID{{1, 2}, {1, 2}})

	assert.Equal(t, []NodeID{2, 2}, g.Neighbors(1))
	assert.Equal(t, 2, g.Degree(2))
	assert.Equal(t, 2, g.EdgeCount())
}

func TestBuilder_SelfLoop(t *testing.T) {
	g := FromEdges([][2]NodeID{{7, 7}})

	assert.Equal(t, 1, g.NodeCount())
	assert.Equal(t, []NodeID{7, 7}, g.Neighbors(7))
}

func TestBuilder_IsolatedNode(t *testing.T) {
	b := NewBuilder()
	b.AddNode(10)
	b.AddEdge(1, 2)
	b.AddNode(1)
	g := b.Build()

	assert.Equal(t, []NodeID{10, 1, 2}, g.Nodes())
	assert.Equal(t, 0, g.Degree(10))
	assert.Empty(t, g.Neighbors(10))
	assert.True(t, g.Has(10))
	assert.False(t, g.Has(99))
	assert.Nil(t, g.Neighbors(99))
	assert.Equal(t, 0, g.Degree(99))
}

func TestBuilder_DanglingNeighborBecomesNode(t *testing.T) {
	b := NewBuilder()
	b.AddNeighbors(1, 5)
	g := b.Build()

	assert.True(t, g.Has(5))
	assert.Equal(t, 0, g.Degree(5))
	assert.Equal(t, 1, g.HalfEdgeCount())
}

func TestFromAdjacency_Deterministic(t *testing.T) {
	adj := map[NodeID][]NodeID{
		30: {10},
		10: {20, 30},
		20: {10},
	}

	for i := 0; i < 5; i++ {
		g := FromAdjacency(adj)
		assert.Equal(t, []NodeID{10, 20, 30}, g.Nodes())
		assert.Equal(t, []NodeID{20, 30}, g.Neighbors(10))
	}
}

func TestGraph_DenseIndex(t *testing.T) {
	g := FromEdges([][2]NodeID{{100, 200}, {200, 300}})

	i, ok := g.IndexOf(200)
	require.True(t, ok)
	assert.Equal(t, NodeID(200), g.IDAt(i))
	assert.Equal(t, 2, g.DegreeAt(i))

	var ids []NodeID
	for _, j := range g.AdjacentAt(i) {
		ids = append(ids, g.IDAt(j))
	}
	assert.Equal(t, []NodeID{100, 300}, ids)

	_, ok = g.IndexOf(1)
	assert.False(t, ok)
}

func TestGraph_Info(t *testing.T) {
	b := NewBuilder()
	b.AddEdge(1, 2)
	b.AddEdge(1, 3)
	b.AddEdge(1, 4)
	b.AddNode(5)
	info := b.Build().Info()

	assert.Equal(t, Info{Nodes: 5, Edges: 3, HalfEdges: 6, Isolated: 1, MaxDegree: 3}, info)
}

func TestEmpty(t *testing.T) {
	g := Empty()

	assert.Equal(t, 0, g.NodeCount())
	assert.Equal(t, 0, g.EdgeCount())
	assert.Empty(t, g.Nodes())
	assert.Equal(t, Info{}, g.Info())
}

func TestNodes_ReturnsCopy(t *testing.T) {
	g := FromEdges([][2]NodeID{{1, 2}})

	nodes := g.Nodes()
	nodes[0] = 42

	assert.Equal(t, []NodeID{1, 2}, g.Nodes())
}
