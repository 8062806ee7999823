package algorithms

import (
	"math"
	"testing"

	"github.com/dd0wney/cluso-graphstats/pkg/graph"
)

const epsilon = 1e-9

// pathGraph builds 1-2-3-...-n.
func pathGraph(t *testing.T, n int) *graph.Graph {
	t.Helper()

	b := graph.NewBuilder()
	for i := 1; i < n; i++ {
		b.AddEdge(graph.NodeID(i), graph.NodeID(i+1))
	}
	return b.Build()
}

// ringGraph builds the cycle 1-2-...-n-1.
func ringGraph(t *testing.T, n int) *graph.Graph {
	t.Helper()

	b := graph.NewBuilder()
	for i := 1; i <= n; i++ {
		b.AddEdge(graph.NodeID(i), graph.NodeID(i%n+1))
	}
	return b.Build()
}

// starGraph builds a hub 0 connected to leaves 1..leaves.
func starGraph(t *testing.T, leaves int) *graph.Graph {
	t.Helper()

	b := graph.NewBuilder()
	for i := 1; i <= leaves; i++ {
		b.AddEdge(0, graph.NodeID(i))
	}
	return b.Build()
}

func assertScores(t *testing.T, name string, got, want map[graph.NodeID]float64) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("%s: got %d scores, want %d (%v)", name, len(got), len(want), got)
	}
	for id, w := range want {
		g, ok := got[id]
		if !ok {
			t.Errorf("%s: missing score for node %d", name, id)
			continue
		}
		if math.Abs(g-w) > epsilon {
			t.Errorf("%s: node %d = %f, want %f", name, id, g, w)
		}
	}
}

func TestDegreeCentrality_EmptyGraph(t *testing.T) {
	if result := DegreeCentrality(graph.Empty()); len(result) != 0 {
		t.Errorf("Expected 0 scores for empty graph, got %d", len(result))
	}
}

func TestDegreeCentrality_PathGraph(t *testing.T) {
	g := pathGraph(t, 4)

	assertScores(t, "degree", DegreeCentrality(g), map[graph.NodeID]float64{
		1: 1.0, 2: 2.0, 3: 2.0, 4: 1.0,
	})
}

func TestDegreeCentrality_MatchesNeighbourCount(t *testing.T) {
	b := graph.NewBuilder()
	b.AddEdge(1, 2)
	b.AddEdge(1, 2) // duplicate edge counts twice
	b.AddEdge(2, 3)
	b.AddEdge(4, 4) // self-loop appears twice in 4's sequence
	b.AddNode(5)
	g := b.Build()

	result := DegreeCentrality(g)
	for _, id := range g.Nodes() {
		if result[id] != float64(len(g.Neighbors(id))) {
			t.Errorf("node %d: degree %f, neighbours %d", id, result[id], len(g.Neighbors(id)))
		}
	}
	if result[1] != 2 || result[4] != 2 || result[5] != 0 {
		t.Errorf("Unexpected raw degrees %v", result)
	}
}

func TestDegreeCentrality_Idempotent(t *testing.T) {
	g := starGraph(t, 6)

	assertScores(t, "repeat", DegreeCentrality(g), DegreeCentrality(g))
}

func TestClosenessCentrality_PathGraph(t *testing.T) {
	g := pathGraph(t, 4)

	// Distances from 1: 1+2+3 = 6; from 2: 1+1+2 = 4
	assertScores(t, "closeness", ClosenessCentrality(g, 4), map[graph.NodeID]float64{
		1: 3.0 / 6.0, 2: 3.0 / 4.0, 3: 3.0 / 4.0, 4: 3.0 / 6.0,
	})
}

func TestClosenessCentrality_OnlySampledNodes(t *testing.T) {
	g := pathGraph(t, 10)

	result := ClosenessCentrality(g, 3)
	if len(result) != 3 {
		t.Fatalf("Expected 3 scores, got %d", len(result))
	}
	for _, id := range []graph.NodeID{1, 2, 3} {
		if _, ok := result[id]; !ok {
			t.Errorf("Expected first-k node %d to be scored", id)
		}
	}
}

func TestClosenessCentrality_ZeroIffIsolated(t *testing.T) {
	b := graph.NewBuilder()
	b.AddEdge(1, 2)
	b.AddEdge(2, 3)
	b.AddNode(9)
	g := b.Build()

	result := ClosenessCentrality(g, g.NodeCount())
	for id, score := range result {
		isolated := g.Degree(id) == 0
		if (score == 0) != isolated {
			t.Errorf("node %d: score %f, isolated %v", id, score, isolated)
		}
	}

	single := graph.FromAdjacency(map[graph.NodeID][]graph.NodeID{7: nil})
	if got := ClosenessCentrality(single, 1)[7]; got != 0 {
		t.Errorf("Single-node closeness = %f, want 0", got)
	}

	loop := graph.NewBuilder()
	loop.AddEdge(7, 7)
	if got := ClosenessCentrality(loop.Build(), 1)[7]; got != 0 {
		t.Errorf("Single node with self-loop closeness = %f, want 0", got)
	}
}

func TestClosenessCentrality_WorkerCountDoesNotChangeResult(t *testing.T) {
	g := ringGraph(t, 50)

	serial := ClosenessCentrality(g, 50, WithWorkers(1))
	for _, workers := range []int{2, 7, 64} {
		assertScores(t, "workers", ClosenessCentrality(g, 50, WithWorkers(workers)), serial)
	}
}

func TestClosenessCentrality_Idempotent(t *testing.T) {
	g := starGraph(t, 12)

	assertScores(t, "repeat", ClosenessCentrality(g, 5), ClosenessCentrality(g, 5))
}

func TestBetweennessCentrality_PathGraph(t *testing.T) {
	g := pathGraph(t, 4)

	assertScores(t, "betweenness", BetweennessCentrality(g, 4), map[graph.NodeID]float64{
		1: 0.0, 2: 1.0, 3: 1.0, 4: 0.0,
	})
}

func TestBetweennessCentrality_ClampsSampleSize(t *testing.T) {
	g := pathGraph(t, 4)

	assertScores(t, "clamped", BetweennessCentrality(g, 1000), BetweennessCentrality(g, 4))
}

func TestBetweennessCentrality_StarHub(t *testing.T) {
	g := starGraph(t, 4)

	// Every leaf-to-leaf path runs through the hub: 4 leaves x 3 targets,
	// plus nothing from the hub as source, over 5 sources.
	result := BetweennessCentrality(g, 5)
	if math.Abs(result[0]-12.0/5.0) > epsilon {
		t.Errorf("Hub betweenness = %f, want %f", result[0], 12.0/5.0)
	}
	for leaf := graph.NodeID(1); leaf <= 4; leaf++ {
		if result[leaf] != 0 {
			t.Errorf("Leaf %d betweenness = %f, want 0", leaf, result[leaf])
		}
	}
}

func TestBetweennessCentrality_SplitsEqualPaths(t *testing.T) {
	// Square 1-2-4, 1-3-4: two shortest paths from 1 to 4
	g := graph.FromEdges([][2]graph.NodeID{{1, 2}, {2, 4}, {1, 3}, {3, 4}})

	result := BetweennessCentrality(g, 1)
	if math.Abs(result[2]-0.5) > epsilon || math.Abs(result[3]-0.5) > epsilon {
		t.Errorf("Expected 0.5 on both middle nodes, got %v", result)
	}
}

func TestBetweennessCentrality_AllNodesScored(t *testing.T) {
	g := pathGraph(t, 20)

	result := BetweennessCentrality(g, 2)
	if len(result) != 20 {
		t.Errorf("Expected every node to carry a score, got %d", len(result))
	}
}

func TestSampledEstimators_NeutralValues(t *testing.T) {
	empty := graph.Empty()
	g := pathGraph(t, 5)

	tests := []struct {
		name string
		g    *graph.Graph
		k    int
	}{
		{"empty graph", empty, 10},
		{"zero sample", g, 0},
		{"negative sample", g, -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AverageShortestPath(tt.g, tt.k); got != 0 {
				t.Errorf("AverageShortestPath = %f, want 0", got)
			}
			if got := ClosenessCentrality(tt.g, tt.k); len(got) != 0 {
				t.Errorf("ClosenessCentrality = %v, want empty", got)
			}
			for id, score := range BetweennessCentrality(tt.g, tt.k) {
				if score != 0 {
					t.Errorf("Betweenness of %d = %f, want 0", id, score)
				}
			}
			if got := AverageClusteringCoefficient(tt.g, tt.k); got != 0 {
				t.Errorf("AverageClusteringCoefficient = %f, want 0", got)
			}
		})
	}
}

func TestClusteringCoefficient(t *testing.T) {
	// Triangle 1-2-3 with a pendant 4 on node 3
	b := graph.NewBuilder()
	b.AddEdge(1, 2)
	b.AddEdge(2, 3)
	b.AddEdge(3, 1)
	b.AddEdge(3, 4)
	b.AddEdge(3, 4) // duplicate ignored
	g := b.Build()

	assertScores(t, "clustering", ClusteringCoefficient(g, 4), map[graph.NodeID]float64{
		1: 1.0, 2: 1.0, 3: 1.0 / 3.0, 4: 0.0,
	})

	avg := AverageClusteringCoefficient(g, 4)
	if want := (1.0 + 1.0 + 1.0/3.0) / 4.0; math.Abs(avg-want) > epsilon {
		t.Errorf("AverageClusteringCoefficient = %f, want %f", avg, want)
	}
}
