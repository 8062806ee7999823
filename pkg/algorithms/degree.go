package algorithms

import "github.com/dd0wney/cluso-graphstats/pkg/graph"

// DegreeDistribution returns the number of nodes for each observed degree.
// Degrees are raw neighbour-sequence lengths, so duplicate edges count.
func DegreeDistribution(g *graph.Graph) map[int]int {
	dist := make(map[int]int)
	for i := 0; i < g.Len(); i++ {
		dist[g.DegreeAt(int32(i))]++
	}
	return dist
}
