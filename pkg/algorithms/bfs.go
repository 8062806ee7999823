package algorithms

import "github.com/dd0wney/cluso-graphstats/pkg/graph"

// Traverse performs a breadth-first search from start and calls visit for
// every reachable node in dequeue order, with its hop count from start. The
// start node is visited first with distance 0, and distances are
// non-decreasing along the visit sequence.
//
// A start node that is not in the graph is visited alone.
func Traverse(g *graph.Graph, start graph.NodeID, visit func(id graph.NodeID, dist int)) {
	src, ok := g.IndexOf(start)
	if !ok {
		visit(start, 0)
		return
	}

	ws := newWorkspace(g.Len())
	for _, v := range ws.bfs(g, src) {
		visit(g.IDAt(v), int(ws.dist[v]))
	}
}

// BFS returns the shortest hop count from start to every node reachable from
// it. Unreachable nodes are absent from the result; the start node maps to 0.
func BFS(g *graph.Graph, start graph.NodeID) map[graph.NodeID]int {
	distances := make(map[graph.NodeID]int)
	Traverse(g, start, func(id graph.NodeID, dist int) {
		distances[id] = dist
	})
	return distances
}
