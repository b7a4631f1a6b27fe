package hnsw

import (
	"fmt"
	"math/rand"
	"testing"
)

func generateRandomVector(dim int) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = rand.Float32()*2 - 1
	}
	return v
}

func BenchmarkInsert(b *testing.B) {
	dims := 128
	g, _ := NewGraph(dims, 16, 20, Euclidean)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g.Insert(fmt.Sprintf("n%d", i), generateRandomVector(dims))
	}
}

func BenchmarkSearch(b *testing.B) {
	dims := 128
	numNodes := 1000
	g, _ := NewGraph(dims, 16, 20, Euclidean)

	for i := 0; i < numNodes; i++ {
		g.Insert(fmt.Sprintf("n%d", i), generateRandomVector(dims))
	}
	query := generateRandomVector(dims)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g.Search(query, 10, 50)
	}
}

func BenchmarkDelete(b *testing.B) {
	dims := 64
	g, _ := NewGraph(dims, 16, 20, Euclidean)

	ids := make([]string, b.N)
	for i := 0; i < b.N; i++ {
		ids[i] = fmt.Sprintf("n%d", i)
		g.Insert(ids[i], generateRandomVector(dims))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g.Delete(ids[i])
	}
}
