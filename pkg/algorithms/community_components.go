package algorithms

import (
	"sort"

	"github.com/dd0wney/cluso-graphstats/pkg/graph"
)

// ComponentsResult describes the connected components of a graph.
type ComponentsResult struct {
	Count   int   // number of components
	Sizes   []int // component sizes, largest first
	Largest int   // size of the largest component
}

// ConnectedComponents finds all connected components in the graph by
// repeated BFS from every not-yet-visited node.
func ConnectedComponents(g *graph.Graph) *ComponentsResult {
	result := &ComponentsResult{Sizes: make([]int, 0)}
	if g.Len() == 0 {
		return result
	}

	ws := newWorkspace(g.Len())
	visited := make([]bool, g.Len())

	for start := int32(0); int(start) < g.Len(); start++ {
		if visited[start] {
			continue
		}

		order := ws.bfs(g, start)
		for _, v := range order {
			visited[v] = true
		}
		result.Sizes = append(result.Sizes, len(order))
		ws.reset()
	}

	sort.Sort(sort.Reverse(sort.IntSlice(result.Sizes)))
	result.Count = len(result.Sizes)
	result.Largest = result.Sizes[0]
	return result
}
