package hnsw

import (
	"github.com/chewxy/math32"
	"github.com/viterin/vek/vek32"
)

// Dot computes the dot product of two equal-length vectors.
func Dot(a, b []float32) float32 {
	return vek32.Dot(a, b)
}

// Magnitude computes the Euclidean norm of v.
func Magnitude(v []float32) float32 {
	return math32.Sqrt(Dot(v, v))
}

// EuclideanSq computes the squared Euclidean distance between a and b.
// It is monotone with Euclidean and skips a square root, which matters
// on the hot path of graph search.
func EuclideanSq(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// Euclidean computes the Euclidean distance between a and b.
func Euclidean(a, b []float32) float32 {
	return math32.Sqrt(EuclideanSq(a, b))
}

// Manhattan computes the L1 distance between a and b.
func Manhattan(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += math32.Abs(a[i] - b[i])
	}
	return sum
}

// CosineSimilarity computes the cosine similarity between a and b. If
// either vector has zero magnitude the similarity is undefined under the
// usual definition; this returns 0 rather than NaN, which is specified
// behavior relied on by callers, not an oversight.
func CosineSimilarity(a, b []float32) float32 {
	magA := Magnitude(a)
	magB := Magnitude(b)
	if magA == 0 || magB == 0 {
		return 0
	}
	return Dot(a, b) / (magA * magB)
}

// CosineDistance is 1 - CosineSimilarity, in the range [0, 2].
func CosineDistance(a, b []float32) float32 {
	return 1 - CosineSimilarity(a, b)
}

// Normalize scales v to unit length in place. Vectors with zero
// magnitude are left unchanged.
func Normalize(v []float32) {
	mag := Magnitude(v)
	if mag == 0 {
		return
	}
	for i := range v {
		v[i] /= mag
	}
}
