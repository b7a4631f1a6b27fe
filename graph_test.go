package hnsw

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestGraph(t *testing.T) *Graph {
	t.Helper()
	g, err := NewGraph(1, 6, 20, Euclidean)
	require.NoError(t, err)
	g.Rng = rand.New(rand.NewSource(0))
	return g
}

func TestNewGraph_RejectsBadParameters(t *testing.T) {
	_, err := NewGraph(0, 6, 20, Euclidean)
	require.Error(t, err)

	_, err = NewGraph(4, 0, 20, Euclidean)
	require.Error(t, err)

	_, err = NewGraph(4, 6, 0, Euclidean)
	require.Error(t, err)

	_, err = NewGraph(4, 6, 20, Metric(99))
	require.Error(t, err)
}

func TestGraph_InsertSearch(t *testing.T) {
	g := newTestGraph(t)

	for i := 0; i < 128; i++ {
		g.Insert(fmt.Sprintf("n%d", i), []float32{float32(i)})
	}
	require.Equal(t, 128, g.Size())

	found := g.Search([]float32{64.5}, 4, 20)
	require.Len(t, found, 4)
	require.Contains(t, []string{"n64", "n65"}, found[0].ID)

	for i := 1; i < len(found); i++ {
		require.LessOrEqual(t, found[i-1].Distance, found[i].Distance)
	}
}

func TestGraph_InsertDimensionMismatchIsNoOp(t *testing.T) {
	g := newTestGraph(t)
	g.Insert("a", []float32{1})
	g.Insert("bad", []float32{1, 2})

	require.Equal(t, 1, g.Size())
	require.False(t, g.Has("bad"))
}

func TestGraph_SearchEmptyGraph(t *testing.T) {
	g := newTestGraph(t)
	require.Nil(t, g.Search([]float32{0}, 5, 20))
}

func TestGraph_SearchKZeroOrNegative(t *testing.T) {
	g := newTestGraph(t)
	g.Insert("a", []float32{1})
	require.Nil(t, g.Search([]float32{1}, 0, 20))
	require.Nil(t, g.Search([]float32{1}, -1, 20))
}

func TestGraph_SearchKClampedToSize(t *testing.T) {
	g := newTestGraph(t)
	for i := 0; i < 3; i++ {
		g.Insert(fmt.Sprintf("n%d", i), []float32{float32(i)})
	}
	found := g.Search([]float32{0}, 100, 20)
	require.Len(t, found, 3)
}

func TestGraph_Delete(t *testing.T) {
	g := newTestGraph(t)
	for i := 0; i < 64; i++ {
		g.Insert(fmt.Sprintf("n%d", i), []float32{float32(i)})
	}

	require.True(t, g.Delete("n10"))
	require.False(t, g.Has("n10"))
	require.Equal(t, 63, g.Size())

	found := g.Search([]float32{10}, 1, 20)
	require.Len(t, found, 1)
	require.NotEqual(t, "n10", found[0].ID)

	require.False(t, g.Delete("n10"))
}

func TestGraph_DeleteEntryPointReelects(t *testing.T) {
	g := newTestGraph(t)
	for i := 0; i < 32; i++ {
		g.Insert(fmt.Sprintf("n%d", i), []float32{float32(i)})
	}

	entry := g.entryPoint
	require.True(t, g.Delete(entry))
	require.NotEqual(t, entry, g.entryPoint)
	require.True(t, g.hasEntry)

	found := g.Search([]float32{0}, 5, 20)
	require.Len(t, found, 5)
}

func TestGraph_DeleteLastNodeEmptiesGraph(t *testing.T) {
	g := newTestGraph(t)
	g.Insert("only", []float32{1})
	require.True(t, g.Delete("only"))
	require.False(t, g.hasEntry)
	require.Equal(t, 0, g.Size())
	require.Nil(t, g.Search([]float32{1}, 1, 20))
}

func TestGraph_UpsertViaDeleteThenInsertChangesVector(t *testing.T) {
	g := newTestGraph(t)
	g.Insert("a", []float32{0})
	g.Insert("b", []float32{100})

	require.True(t, g.Delete("a"))
	g.Insert("a", []float32{100})

	v, ok := g.GetVector("a")
	require.True(t, ok)
	require.Equal(t, []float32{100}, v)
}

func TestGraph_NoDanglingAdjacencyAfterManyDeletes(t *testing.T) {
	g := newTestGraph(t)
	for i := 0; i < 80; i++ {
		g.Insert(fmt.Sprintf("n%d", i), []float32{float32(i)})
	}
	for i := 0; i < 80; i += 2 {
		g.Delete(fmt.Sprintf("n%d", i))
	}

	for _, n := range g.nodes {
		for l, neighbors := range n.adjacency {
			for _, nb := range neighbors.ids() {
				nn, ok := g.nodes[nb]
				require.True(t, ok, "neighbor %q of %q at layer %d does not exist", nb, n.id, l)
				require.NotEqual(t, n.id, nb, "node %q links to itself", n.id)
				require.True(t, nn.hasLayer(l))
			}
		}
	}
}

func TestGraph_BidirectionalAtSharedLayers(t *testing.T) {
	g := newTestGraph(t)
	for i := 0; i < 150; i++ {
		g.Insert(fmt.Sprintf("n%d", i), []float32{float32(i)})
	}

	for aID, a := range g.nodes {
		for l, neighbors := range a.adjacency {
			for _, bID := range neighbors.ids() {
				b := g.nodes[bID]
				if l < b.topLayer() {
					require.True(t, b.adjacency[l].has(aID),
						"edge %s->%s at layer %d should be reciprocated since layer is below %s's top layer", aID, bID, l, bID)
				}
			}
		}
	}
}

func TestGraph_DegreeCapRespected(t *testing.T) {
	g := newTestGraph(t)
	for i := 0; i < 200; i++ {
		g.Insert(fmt.Sprintf("n%d", i), []float32{float32(i)})
	}

	for _, n := range g.nodes {
		for l, neighbors := range n.adjacency {
			require.LessOrEqual(t, len(neighbors), g.capAt(l))
		}
	}
}

func TestGraph_ListIDs(t *testing.T) {
	g := newTestGraph(t)
	ids := map[string]bool{"a": true, "b": true, "c": true}
	for id := range ids {
		g.Insert(id, []float32{1})
	}
	for _, id := range g.ListIDs() {
		require.True(t, ids[id])
		delete(ids, id)
	}
	require.Empty(t, ids)
}

func TestGraph_CosineAndDotProductMetrics(t *testing.T) {
	for _, m := range []Metric{Cosine, DotProduct} {
		g, err := NewGraph(3, 6, 20, m)
		require.NoError(t, err)
		g.Rng = rand.New(rand.NewSource(1))

		g.Insert("aligned", []float32{1, 0, 0})
		g.Insert("opposite", []float32{-1, 0, 0})
		g.Insert("orthogonal", []float32{0, 1, 0})

		found := g.Search([]float32{1, 0, 0}, 1, 20)
		require.Len(t, found, 1)
		require.Equal(t, "aligned", found[0].ID)
	}
}
