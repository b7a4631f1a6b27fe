package hnsw

import (
	"fmt"
	"math"
	"math/rand"
	"slices"
	"time"

	"github.com/chewxy/math32"
	"golang.org/x/exp/maps"

	"github.com/edgevector/hnsw/heap"
)

// maxLayerCeiling is a hard ceiling on the number of layers a single
// node's layer assignment may reach, regardless of M or the size of the
// graph. It guards against pathological RNG draws producing an
// unbounded tower.
const maxLayerCeiling = 16

// candidate pairs a node ID with its distance to the query of an
// in-flight search. It implements heap.Interface so the same generic
// heap type serves both the min-ordered candidate queue and the
// max-ordered bounded result set in searchLayer.
type candidate struct {
	id   string
	dist float32
}

func (c candidate) Less(o candidate) bool {
	return c.dist < o.dist
}

// Result is one entry of a Search response: an item ID and its final
// distance (metric-adapted, ascending).
type Result struct {
	ID       string
	Distance float32
}

// Graph is a Hierarchical Navigable Small World graph over string-keyed
// vectors of fixed dimensionality. The zero value is not usable; build
// one with NewGraph. A Graph is not safe for concurrent mutation;
// concurrent reads are safe only when no mutation is in flight.
type Graph struct {
	// Rng is used for layer assignment. It may be replaced with a
	// deterministic source for reproducible tests. Note that a fixed
	// sequence degrades the layer distribution on monotone workloads —
	// see randomLevel.
	Rng *rand.Rand

	dims           int
	m              int
	efConstruction int
	metric         Metric
	ml             float64

	nodes      map[string]*node
	entryPoint string
	hasEntry   bool
	maxLayer   int
}

func defaultRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// NewGraph returns a new, empty graph with the given dimensionality,
// per-layer connection budget M, construction breadth, and metric.
func NewGraph(dims, m, efConstruction int, metric Metric) (*Graph, error) {
	g := &Graph{
		Rng:            defaultRand(),
		dims:           dims,
		m:              m,
		efConstruction: efConstruction,
		metric:         metric,
		nodes:          make(map[string]*node),
	}
	if m > 0 {
		g.ml = 1 / math.Log(float64(m))
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Validate checks the graph's scalar parameters.
func (g *Graph) Validate() error {
	if g.dims <= 0 {
		return fmt.Errorf("dimensionality must be greater than 0, got %d", g.dims)
	}
	if g.m <= 0 {
		return fmt.Errorf("M must be greater than 0, got %d", g.m)
	}
	if g.efConstruction <= 0 {
		return fmt.Errorf("ef_construction must be greater than 0, got %d", g.efConstruction)
	}
	if g.metric != Euclidean && g.metric != Cosine && g.metric != DotProduct {
		return fmt.Errorf("unknown metric %v", g.metric)
	}
	return nil
}

// Dims returns the graph's fixed vector dimensionality.
func (g *Graph) Dims() int { return g.dims }

// Size returns the number of live nodes in the graph.
func (g *Graph) Size() int { return len(g.nodes) }

// Has reports whether id is present in the graph.
func (g *Graph) Has(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// GetVector returns the vector stored for id, if present.
func (g *Graph) GetVector(id string) ([]float32, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, false
	}
	return n.vector, true
}

// ListIDs returns every live ID, in unspecified order.
func (g *Graph) ListIDs() []string {
	out := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		out = append(out, id)
	}
	return out
}

// capAt returns the degree cap for layer l: the base layer gets 2M,
// every layer above gets M.
func (g *Graph) capAt(l int) int {
	if l == 0 {
		return 2 * g.m
	}
	return g.m
}

// randomLevel draws this node's top layer per the standard HNSW
// exponential-decay assignment: floor(-ln(r) * ml), r uniform in (0,1],
// clamped to maxLayerCeiling. r is guarded away from exactly 0 to avoid
// taking the log of zero.
func (g *Graph) randomLevel() int {
	if g.Rng == nil {
		g.Rng = defaultRand()
	}
	r := g.Rng.Float64()
	for r <= 0 {
		r = g.Rng.Float64()
	}
	level := int(math32.Floor(float32(-math.Log(r) * g.ml)))
	if level > maxLayerCeiling {
		level = maxLayerCeiling
	}
	return level
}

// searchLayer is the workhorse best-first search within a single layer.
// It returns up to ef nodes, ordered ascending by internal distance to
// q. entries is the set of starting points; every entry is assumed
// present and participating in layer l.
func (g *Graph) searchLayer(q []float32, entries []string, ef, l int) []candidate {
	var (
		candidates heap.Heap[candidate]
		result     heap.Heap[candidate]
		visited    = make(map[string]bool, ef*2)
	)
	candidates.Init(make([]candidate, 0, ef))
	result.Init(make([]candidate, 0, ef))

	for _, e := range entries {
		n, ok := g.nodes[e]
		if !ok || visited[e] {
			continue
		}
		d := g.metric.internalDistance(q, n.vector)
		candidates.Push(candidate{id: e, dist: d})
		result.Push(candidate{id: e, dist: d})
		visited[e] = true
	}

	for candidates.Len() > 0 {
		cur := candidates.Pop()

		worst := float32(math32.Inf(1))
		if result.Len() > 0 {
			worst = result.Max().dist
		}
		if cur.dist > worst {
			break
		}

		n, ok := g.nodes[cur.id]
		if !ok || !n.hasLayer(l) {
			continue
		}

		// Iterate neighbor IDs in sorted order so that traversal, and
		// therefore tie-breaking within the heaps, is deterministic for
		// a given graph state.
		neighborIDs := maps.Keys(n.adjacency[l])
		slices.Sort(neighborIDs)

		for _, nb := range neighborIDs {
			if visited[nb] {
				continue
			}
			visited[nb] = true

			nn, ok := g.nodes[nb]
			var d float32
			if ok {
				d = g.metric.internalDistance(q, nn.vector)
			} else {
				// Invariant I2 rules this out; defensive only.
				d = float32(math32.Inf(1))
			}

			worst = float32(math32.Inf(1))
			if result.Len() > 0 {
				worst = result.Max().dist
			}
			if result.Len() < ef || d < worst {
				candidates.Push(candidate{id: nb, dist: d})
				result.Push(candidate{id: nb, dist: d})
				if result.Len() > ef {
					result.PopLast()
				}
			}
		}
	}

	return result.Slice()
}

func candidateIDs(cs []candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.id
	}
	return out
}

// selectNeighbors takes the closest `cap` candidates from an
// already-ascending-sorted candidate list. This is the simple selection
// heuristic from the original paper; the richer "extend then prune"
// heuristic is a permitted but unimplemented improvement.
func selectNeighbors(candidates []candidate, capL int) []candidate {
	if len(candidates) <= capL {
		return candidates
	}
	return candidates[:capL]
}

// Insert adds a new node with the given ID and vector. If the vector's
// length doesn't match the graph's dimensionality, Insert is a silent
// no-op — the core refuses to entangle its mutation path with
// validation; the host-facing wrapper is responsible for reporting that
// as an error.
//
// Insert does not check whether id already exists: inserting a
// duplicate ID corrupts the graph's invariants. Upsert semantics
// (delete-then-insert) belong to the host wrapper.
func (g *Graph) Insert(id string, v []float32) {
	if len(v) != g.dims {
		return
	}

	level := g.randomLevel()
	n := &node{
		id:        id,
		vector:    v,
		adjacency: make([]neighborSet, level+1),
	}
	for i := range n.adjacency {
		n.adjacency[i] = newNeighborSet(g.capAt(i))
	}

	if len(g.nodes) == 0 {
		g.nodes[id] = n
		g.entryPoint = id
		g.hasEntry = true
		g.maxLayer = level
		return
	}

	cur := []string{g.entryPoint}

	// Drill down to the new node's neighborhood without spending
	// ef_construction budget on layers above it.
	for l := g.maxLayer; l > level; l-- {
		cur = candidateIDs(g.searchLayer(v, cur, 1, l))
	}

	top := level
	if g.maxLayer < top {
		top = g.maxLayer
	}

	// The new node enters the table before its layers are connected, so
	// that prune ranks it by its real distance and, when it drops it,
	// removes the edge on the new node's side as well. No node links to
	// it yet at the layers still to be searched, so it is not reachable.
	g.nodes[id] = n

	for l := top; l >= 0; l-- {
		candidates := g.searchLayer(v, cur, g.efConstruction, l)
		capL := g.capAt(l)
		selected := selectNeighbors(candidates, capL)

		var toPrune []string
		for _, sc := range selected {
			n.adjacency[l].add(sc.id)

			sn, ok := g.nodes[sc.id]
			if !ok || !sn.hasLayer(l) {
				continue
			}
			sn.adjacency[l].add(id)
			if len(sn.adjacency[l]) > capL {
				toPrune = append(toPrune, sc.id)
			}
		}

		// Mutating a neighbor's adjacency while iterating the candidate
		// list would invalidate the distance judgement above, so
		// overflowed neighbors are collected and pruned only now.
		for _, pid := range toPrune {
			g.prune(pid, l, capL)
		}

		cur = candidateIDs(selected)
	}

	if level > g.maxLayer {
		g.maxLayer = level
		g.entryPoint = id
	}
}

// prune trims node id's adjacency at layer l down to its cap closest
// members. Dropped edges are removed on both sides when the other node
// also participates in layer l, preserving bidirectionality there (I3).
func (g *Graph) prune(id string, l, capL int) {
	n, ok := g.nodes[id]
	if !ok || !n.hasLayer(l) {
		return
	}

	neighbors := n.adjacency[l].ids()
	ranked := make([]candidate, 0, len(neighbors))
	for _, nb := range neighbors {
		var d float32
		if nn, ok := g.nodes[nb]; ok {
			d = g.metric.internalDistance(n.vector, nn.vector)
		} else {
			d = float32(math32.Inf(1))
		}
		ranked = append(ranked, candidate{id: nb, dist: d})
	}
	slices.SortFunc(ranked, func(a, b candidate) int {
		switch {
		case a.dist < b.dist:
			return -1
		case a.dist > b.dist:
			return 1
		default:
			return 0
		}
	})

	dropped := ranked
	if len(ranked) > capL {
		dropped = ranked[capL:]
		ranked = ranked[:capL]
	} else {
		dropped = nil
	}

	kept := newNeighborSet(len(ranked))
	for _, c := range ranked {
		kept.add(c.id)
	}
	n.adjacency[l] = kept

	for _, c := range dropped {
		if nn, ok := g.nodes[c.id]; ok && nn.hasLayer(l) {
			nn.adjacency[l].remove(id)
		}
	}
}

// Search returns up to k items nearest to q, ascending by final
// distance. ef controls the dynamic candidate list breadth at the base
// layer; larger ef trades search time for recall.
func (g *Graph) Search(q []float32, k, ef int) []Result {
	if len(g.nodes) == 0 || k <= 0 {
		return nil
	}

	cur := []string{g.entryPoint}
	for l := g.maxLayer; l >= 1; l-- {
		cur = candidateIDs(g.searchLayer(q, cur, 1, l))
	}

	breadth := ef
	if k > breadth {
		breadth = k
	}
	found := g.searchLayer(q, cur, breadth, 0)
	if len(found) > k {
		found = found[:k]
	}

	out := make([]Result, len(found))
	for i, c := range found {
		out[i] = Result{ID: c.id, Distance: g.metric.finalDistance(c.dist)}
	}
	return out
}

// Delete removes id from the graph, unlinking it from every neighbor
// that referenced it. It does not attempt to reconnect orphaned
// regions; repeated deletions can degrade recall, and a rebuild is the
// sanctioned remedy. Delete reports whether id was present.
func (g *Graph) Delete(id string) bool {
	n, ok := g.nodes[id]
	if !ok {
		return false
	}

	for l, neighbors := range n.adjacency {
		for _, nb := range neighbors.ids() {
			nn, ok := g.nodes[nb]
			if !ok || !nn.hasLayer(l) {
				continue
			}
			nn.adjacency[l].remove(id)
		}
	}

	delete(g.nodes, id)

	if g.hasEntry && g.entryPoint == id {
		g.pickNewEntryPoint()
	}

	return true
}

// pickNewEntryPoint re-elects an entry point after the current one is
// deleted: the surviving node with the largest top layer, ties broken
// arbitrarily. If no nodes survive, the graph reverts to its empty
// state.
func (g *Graph) pickNewEntryPoint() {
	best := ""
	bestLayer := -1
	for id, n := range g.nodes {
		if tl := n.topLayer(); tl > bestLayer {
			bestLayer = tl
			best = id
		}
	}
	if bestLayer < 0 {
		g.hasEntry = false
		g.entryPoint = ""
		g.maxLayer = 0
		return
	}
	g.entryPoint = best
	g.maxLayer = bestLayer
}
