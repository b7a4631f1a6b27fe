package hnsw

// Analyzer inspects the structural shape of a Graph: how many layers it
// has grown, how densely each is connected, and how many nodes populate
// each one. None of it feeds back into search or insertion; it exists
// purely to let a caller reason about graph health after a large batch
// of inserts and deletes.
type Analyzer struct {
	Graph *Graph
}

// Height returns the number of layers the graph currently spans,
// counting layer 0.
func (a *Analyzer) Height() int {
	return a.Graph.maxLayer + 1
}

// Connectivity returns the average out-degree of each non-empty layer,
// indexed from layer 0 upward.
func (a *Analyzer) Connectivity() []float64 {
	counts := make([]int, a.Graph.maxLayer+1)
	sums := make([]float64, a.Graph.maxLayer+1)

	for _, n := range a.Graph.nodes {
		for l, neighbors := range n.adjacency {
			counts[l]++
			sums[l] += float64(len(neighbors))
		}
	}

	var out []float64
	for l, c := range counts {
		if c == 0 {
			continue
		}
		out = append(out, sums[l]/float64(c))
	}
	return out
}

// Topography returns the number of nodes participating in each layer,
// indexed from layer 0 upward.
func (a *Analyzer) Topography() []int {
	topography := make([]int, a.Graph.maxLayer+1)
	for _, n := range a.Graph.nodes {
		for l := range n.adjacency {
			topography[l]++
		}
	}
	return topography
}
