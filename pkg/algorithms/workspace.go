package algorithms

import "github.com/dd0wney/cluso-graphstats/pkg/graph"

// workspace is the private working state of one traversal task. It is sized
// to the graph once and reset in O(reached) between sources, so a task that
// runs many traversals pays the O(V) allocation only once.
//
// A workspace must never be shared between goroutines.
type workspace struct {
	dist  []int32 // -1 marks unvisited
	order []int32 // FIFO frontier; doubles as the visit order and the reset list
}

func newWorkspace(n int) *workspace {
	ws := &workspace{
		dist:  make([]int32, n),
		order: make([]int32, 0, 64),
	}
	for i := range ws.dist {
		ws.dist[i] = -1
	}
	return ws
}

// bfs runs a breadth-first search from src and returns the nodes in the order
// they were dequeued. Distances are left in ws.dist until reset is called.
//
// Every node is marked visited at the moment it is enqueued, so it is
// enqueued exactly once and its distance is final on discovery.
func (ws *workspace) bfs(g *graph.Graph, src int32) []int32 {
	ws.dist[src] = 0
	ws.order = append(ws.order[:0], src)

	for head := 0; head < len(ws.order); head++ {
		v := ws.order[head]
		next := ws.dist[v] + 1
		for _, w := range g.AdjacentAt(v) {
			if ws.dist[w] < 0 {
				ws.dist[w] = next
				ws.order = append(ws.order, w)
			}
		}
	}
	return ws.order
}

// reset clears every distance written by the last bfs call.
func (ws *workspace) reset() {
	for _, v := range ws.order {
		ws.dist[v] = -1
	}
	ws.order = ws.order[:0]
}
