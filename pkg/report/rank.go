package report

import (
	"container/heap"
	"sort"

	"github.com/dd0wney/cluso-graphstats/pkg/graph"
)

// RankedNode is a node with its score.
type RankedNode struct {
	Node  graph.NodeID `json:"node" yaml:"node"`
	Score float64      `json:"score" yaml:"score"`
}

// rankedNodeHeap keeps the weakest of the current top n at index 0. Equal
// scores rank the larger id as weaker so the result does not depend on map
// iteration order.
type rankedNodeHeap []RankedNode

func (h rankedNodeHeap) Len() int { return len(h) }
func (h rankedNodeHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score < h[j].Score
	}
	return h[i].Node > h[j].Node
}
func (h rankedNodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *rankedNodeHeap) Push(x any) {
	*h = append(*h, x.(RankedNode))
}

func (h *rankedNodeHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// beats reports whether a ranks above b.
func beats(a, b RankedNode) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Node < b.Node
}

// TopN returns the n highest scoring nodes, ordered by score descending and
// then by node id ascending.
func TopN(scores map[graph.NodeID]float64, n int) []RankedNode {
	if n <= 0 || len(scores) == 0 {
		return nil
	}

	h := make(rankedNodeHeap, 0, n)
	heap.Init(&h)

	for node, score := range scores {
		candidate := RankedNode{Node: node, Score: score}
		if h.Len() < n {
			heap.Push(&h, candidate)
		} else if beats(candidate, h[0]) {
			h[0] = candidate
			heap.Fix(&h, 0)
		}
	}

	result := []RankedNode(h)
	sort.Slice(result, func(i, j int) bool {
		return beats(result[i], result[j])
	})
	return result
}
