package algorithms

import "github.com/dd0wney/cluso-graphstats/pkg/graph"

// DefaultCommunityRounds is the number of label propagation rounds used when
// the caller has no preference.
const DefaultCommunityRounds = 10

// DetectCommunities runs asynchronous label propagation for a fixed number of
// rounds and returns each node's community label. Labels are always
// identifiers of nodes in g.
//
// Every node starts in its own community. Each round visits the nodes in a
// fresh random order drawn from seed; a visited node adopts the label held
// by the most of its neighbours, reading labels already updated earlier in
// the same round. When several labels share the highest tally, the one that
// occurs first in the node's neighbour sequence wins. Nodes without
// neighbours keep their label.
//
// There is no convergence check. The same graph and seed always produce the
// same labels; different seeds may not agree.
func DetectCommunities(g *graph.Graph, rounds int, seed uint64) map[graph.NodeID]graph.NodeID {
	n := g.Len()
	labels := make([]int32, n)
	for i := range labels {
		labels[i] = int32(i)
	}

	if n > 0 && rounds > 0 {
		r := newRand(seed)
		order := make([]int32, n)
		counts := make([]int32, n)

		for round := 0; round < rounds; round++ {
			for i := range order {
				order[i] = int32(i)
			}
			r.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })

			for _, v := range order {
				if best, ok := majorityLabel(g.AdjacentAt(v), labels, counts); ok {
					labels[v] = best
				}
			}
		}
	}

	out := make(map[graph.NodeID]graph.NodeID, n)
	for i, l := range labels {
		out[g.IDAt(int32(i))] = g.IDAt(l)
	}
	return out
}

// majorityLabel tallies the current labels of neighbors and returns the one
// with the highest count, preferring the earliest occurrence on ties. counts
// is scratch space indexed by label; it is left zeroed on return.
func majorityLabel(neighbors []int32, labels, counts []int32) (int32, bool) {
	if len(neighbors) == 0 {
		return 0, false
	}

	var top int32
	for _, w := range neighbors {
		l := labels[w]
		counts[l]++
		if counts[l] > top {
			top = counts[l]
		}
	}

	best := labels[neighbors[0]]
	for _, w := range neighbors {
		if counts[labels[w]] == top {
			best = labels[w]
			break
		}
	}
	for _, w := range neighbors {
		counts[labels[w]] = 0
	}
	return best, true
}
