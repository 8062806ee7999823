package algorithms

import (
	"github.com/dd0wney/cluso-graphstats/pkg/graph"
	"github.com/dd0wney/cluso-graphstats/pkg/parallel"
)

// DegreeCentrality returns each node's raw neighbour count. Scores are not
// normalised by N-1.
func DegreeCentrality(g *graph.Graph) map[graph.NodeID]float64 {
	degree := make(map[graph.NodeID]float64, g.Len())
	for i := int32(0); int(i) < g.Len(); i++ {
		degree[g.IDAt(i)] = float64(g.DegreeAt(i))
	}
	return degree
}

// closenessScore is one sampled source's result.
type closenessScore struct {
	node  graph.NodeID
	score float64
}

// ClosenessCentrality scores sampleSize sampled sources as
// (N-1) / Σ distance to every node reachable from the source, where N is the
// node count of g. A source that reaches nothing scores 0. Only sampled
// sources appear in the result.
//
// Sources are split into one chunk per worker; each chunk runs on the pool
// with its own workspace, and the chunk results are merged afterwards.
func ClosenessCentrality(g *graph.Graph, sampleSize int, opts ...Option) map[graph.NodeID]float64 {
	o := applyOptions(opts)
	sources := sampleIndices(g, sampleSize, o.sampler)
	closeness := make(map[graph.NodeID]float64, len(sources))
	if len(sources) == 0 {
		return closeness
	}

	n := float64(g.Len())
	chunks := parallel.Chunk(sources, o.workers)
	results, err := parallel.Map(o.workers, chunks, func(chunk []int32) []closenessScore {
		ws := newWorkspace(g.Len())
		scores := make([]closenessScore, 0, len(chunk))
		for _, s := range chunk {
			var total int64
			for _, v := range ws.bfs(g, s) {
				total += int64(ws.dist[v])
			}
			ws.reset()

			score := 0.0
			if total > 0 {
				score = (n - 1) / float64(total)
			}
			scores = append(scores, closenessScore{node: g.IDAt(s), score: score})
		}
		return scores
	})
	if err != nil {
		// Tasks only read the graph; a panic here is a bug, not bad input.
		panic(err)
	}

	for _, chunk := range results {
		for _, cs := range chunk {
			closeness[cs.node] = cs.score
		}
	}
	return closeness
}

// BetweennessCentrality estimates betweenness with Brandes' algorithm run
// from sampleSize sampled sources. Every node starts at 0; each source adds
// its dependency values to every other node it reaches, and the totals are
// divided by the number of sources actually sampled.
//
// The estimator does not halve scores for undirected double counting: on the
// path 1-2-3-4 with all four nodes sampled it yields {0, 1, 1, 0}.
func BetweennessCentrality(g *graph.Graph, sampleSize int, opts ...Option) map[graph.NodeID]float64 {
	o := applyOptions(opts)
	sources := sampleIndices(g, sampleSize, o.sampler)

	scores := make([]float64, g.Len())
	if len(sources) > 0 {
		bw := newBrandesWorkspace(g.Len())
		for _, s := range sources {
			bw.accumulate(g, s, scores)
		}
		k := float64(len(sources))
		for i := range scores {
			scores[i] /= k
		}
	}

	betweenness := make(map[graph.NodeID]float64, g.Len())
	for i, score := range scores {
		betweenness[g.IDAt(int32(i))] = score
	}
	return betweenness
}

// brandesWorkspace holds the per-source state of Brandes' algorithm, reset
// in O(reached) between sources.
type brandesWorkspace struct {
	dist  []int32
	sigma []float64
	delta []float64
	preds [][]int32
	order []int32 // BFS queue; read backwards it is the finish-order stack
}

func newBrandesWorkspace(n int) *brandesWorkspace {
	bw := &brandesWorkspace{
		dist:  make([]int32, n),
		sigma: make([]float64, n),
		delta: make([]float64, n),
		preds: make([][]int32, n),
		order: make([]int32, 0, 64),
	}
	for i := range bw.dist {
		bw.dist[i] = -1
	}
	return bw
}

// accumulate runs one forward and backward Brandes pass from s and adds the
// dependency of every reached node other than s to scores.
func (bw *brandesWorkspace) accumulate(g *graph.Graph, s int32, scores []float64) {
	bw.dist[s] = 0
	bw.sigma[s] = 1
	bw.order = append(bw.order[:0], s)

	// Forward phase: shortest-path counts and predecessor lists. A neighbour
	// listed twice contributes twice, matching the raw multiplicity of the
	// adjacency.
	for head := 0; head < len(bw.order); head++ {
		v := bw.order[head]
		for _, w := range g.AdjacentAt(v) {
			if bw.dist[w] < 0 {
				bw.dist[w] = bw.dist[v] + 1
				bw.order = append(bw.order, w)
			}
			if bw.dist[w] == bw.dist[v]+1 {
				bw.sigma[w] += bw.sigma[v]
				bw.preds[w] = append(bw.preds[w], v)
			}
		}
	}

	// Backward phase in reverse finish order.
	for i := len(bw.order) - 1; i >= 0; i-- {
		w := bw.order[i]
		coeff := (1 + bw.delta[w]) / bw.sigma[w]
		for _, v := range bw.preds[w] {
			bw.delta[v] += bw.sigma[v] * coeff
		}
		if w != s {
			scores[w] += bw.delta[w]
		}
	}

	for _, v := range bw.order {
		bw.dist[v] = -1
		bw.sigma[v] = 0
		bw.delta[v] = 0
		bw.preds[v] = bw.preds[v][:0]
	}
	bw.order = bw.order[:0]
}
