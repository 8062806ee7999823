package algorithms

import "github.com/dd0wney/cluso-graphstats/pkg/graph"

// ClusteringCoefficient computes the local clustering coefficient of each of
// sampleSize sampled nodes: the fraction of pairs of distinct neighbours that
// are themselves adjacent. Duplicate edges and self-loops are ignored. Nodes
// with fewer than two distinct neighbours score 0.
func ClusteringCoefficient(g *graph.Graph, sampleSize int, opts ...Option) map[graph.NodeID]float64 {
	o := applyOptions(opts)
	sources := sampleIndices(g, sampleSize, o.sampler)
	coefficients := make(map[graph.NodeID]float64, len(sources))
	if len(sources) == 0 {
		return coefficients
	}

	// neighbourOf[w] == v marks w as a distinct neighbour of v; pairedWith[b]
	// == a marks b as already counted while scanning a's adjacency.
	neighbourOf := make([]int32, g.Len())
	pairedWith := make([]int32, g.Len())
	for i := range neighbourOf {
		neighbourOf[i] = -1
		pairedWith[i] = -1
	}
	distinct := make([]int32, 0, 16)

	for _, v := range sources {
		distinct = distinct[:0]
		for _, w := range g.AdjacentAt(v) {
			if w != v && neighbourOf[w] != v {
				neighbourOf[w] = v
				distinct = append(distinct, w)
			}
		}

		k := len(distinct)
		if k < 2 {
			coefficients[g.IDAt(v)] = 0.0
			continue
		}

		// Every closed pair is found once from each end.
		twice := 0
		for _, a := range distinct {
			for _, b := range g.AdjacentAt(a) {
				if b != a && neighbourOf[b] == v && pairedWith[b] != a {
					pairedWith[b] = a
					twice++
				}
			}
		}
		for _, a := range distinct {
			for _, b := range g.AdjacentAt(a) {
				pairedWith[b] = -1
			}
		}

		coefficients[g.IDAt(v)] = float64(twice/2) / float64(k*(k-1)/2)
	}
	return coefficients
}

// AverageClusteringCoefficient averages ClusteringCoefficient over the
// sampled nodes. Returns 0 when nothing was sampled.
func AverageClusteringCoefficient(g *graph.Graph, sampleSize int, opts ...Option) float64 {
	coefficients := ClusteringCoefficient(g, sampleSize, opts...)
	if len(coefficients) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, coef := range coefficients {
		sum += coef
	}
	return sum / float64(len(coefficients))
}
