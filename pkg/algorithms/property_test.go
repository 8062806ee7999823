package algorithms

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	gonumgraph "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"

	"github.com/dd0wney/cluso-graphstats/pkg/graph"
)

// buildPair zips two id slices into an edge list and builds both our graph
// and an equivalent gonum graph. Self-loops are left out of the gonum copy,
// which does not support them; they never change a BFS distance.
func buildPair(from, to []uint32) (*graph.Graph, *simple.UndirectedGraph) {
	b := graph.NewBuilder()
	ref := simple.NewUndirectedGraph()
	for i := 0; i < len(from) && i < len(to); i++ {
		u, v := graph.NodeID(from[i]), graph.NodeID(to[i])
		b.AddEdge(u, v)
		if ref.Node(int64(u)) == nil {
			ref.AddNode(simple.Node(u))
		}
		if ref.Node(int64(v)) == nil {
			ref.AddNode(simple.Node(v))
		}
		if u != v {
			ref.SetEdge(ref.NewEdge(simple.Node(u), simple.Node(v)))
		}
	}
	return b.Build(), ref
}

// referenceBFS computes hop counts with gonum's breadth-first walker.
func referenceBFS(ref *simple.UndirectedGraph, start graph.NodeID) map[graph.NodeID]int {
	dist := make(map[graph.NodeID]int)
	var walker traverse.BreadthFirst
	walker.Walk(ref, simple.Node(start), func(n gonumgraph.Node, depth int) bool {
		dist[graph.NodeID(n.ID())] = depth
		return false
	})
	return dist
}

func edgeGen() gopter.Gen {
	return gen.SliceOfN(40, gen.UInt32Range(1, 25))
}

func TestAnalysisInvariants(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping property-based test in short mode")
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("BFS agrees with gonum breadth-first walk", prop.ForAll(
		func(from, to []uint32) bool {
			g, ref := buildPair(from, to)
			for _, start := range g.Nodes() {
				got := BFS(g, start)
				want := referenceBFS(ref, start)
				if len(got) != len(want) {
					return false
				}
				for id, d := range want {
					if got[id] != d {
						return false
					}
				}
			}
			return true
		},
		edgeGen(), edgeGen(),
	))

	properties.Property("degree histogram weights sum to half-edge count", prop.ForAll(
		func(from, to []uint32) bool {
			g, _ := buildPair(from, to)
			weighted := 0
			for degree, count := range DegreeDistribution(g) {
				weighted += degree * count
			}
			return weighted == g.HalfEdgeCount()
		},
		edgeGen(), edgeGen(),
	))

	properties.Property("degree centrality equals neighbour count", prop.ForAll(
		func(from, to []uint32) bool {
			g, _ := buildPair(from, to)
			for id, score := range DegreeCentrality(g) {
				if score != float64(len(g.Neighbors(id))) {
					return false
				}
			}
			return true
		},
		edgeGen(), edgeGen(),
	))

	properties.Property("closeness is zero only for sources that reach nothing", prop.ForAll(
		func(from, to []uint32, k int) bool {
			g, _ := buildPair(from, to)
			for id, score := range ClosenessCentrality(g, k, WithWorkers(3)) {
				reachesOthers := len(BFS(g, id)) > 1
				if (score == 0) == reachesOthers || score < 0 || math.IsNaN(score) {
					return false
				}
			}
			return true
		},
		edgeGen(), edgeGen(), gen.IntRange(0, 30),
	))

	properties.Property("betweenness is non-negative and covers every node", prop.ForAll(
		func(from, to []uint32, k int) bool {
			g, _ := buildPair(from, to)
			scores := BetweennessCentrality(g, k, WithSampler(UniformSample{Seed: uint64(k)}))
			if len(scores) != g.NodeCount() {
				return false
			}
			for _, s := range scores {
				if s < 0 || math.IsNaN(s) {
					return false
				}
			}
			return true
		},
		edgeGen(), edgeGen(), gen.IntRange(0, 30),
	))

	properties.Property("community labels are existing node ids", prop.ForAll(
		func(from, to []uint32, seed uint64) bool {
			g, _ := buildPair(from, to)
			labels := DetectCommunities(g, DefaultCommunityRounds, seed)
			for _, label := range labels {
				if !g.Has(label) {
					return false
				}
			}
			return len(labels) == g.NodeCount()
		},
		edgeGen(), edgeGen(), gen.UInt64(),
	))

	properties.TestingRun(t)
}
