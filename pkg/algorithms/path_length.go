package algorithms

import "github.com/dd0wney/cluso-graphstats/pkg/graph"

// AverageShortestPath estimates the mean shortest-path length of g by running
// a BFS from each of sampleSize sampled sources. Every node discovered from a
// source (the source itself excluded) contributes one pair and its hop
// count. Returns 0 when no pair was reached.
func AverageShortestPath(g *graph.Graph, sampleSize int, opts ...Option) float64 {
	total, pairs := PathLengthTotals(g, sampleSize, opts...)
	if pairs == 0 {
		return 0.0
	}
	return float64(total) / float64(pairs)
}

// PathLengthTotals returns the raw distance sum and pair count behind
// AverageShortestPath.
func PathLengthTotals(g *graph.Graph, sampleSize int, opts ...Option) (total, pairs int64) {
	o := applyOptions(opts)
	sources := sampleIndices(g, sampleSize, o.sampler)
	if len(sources) == 0 {
		return 0, 0
	}

	ws := newWorkspace(g.Len())
	for _, s := range sources {
		order := ws.bfs(g, s)
		for _, v := range order[1:] {
			total += int64(ws.dist[v])
		}
		pairs += int64(len(order) - 1)
		ws.reset()
	}
	return total, pairs
}
