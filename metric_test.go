package hnsw

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseMetric(t *testing.T) {
	m, err := ParseMetric("cosine")
	require.NoError(t, err)
	require.Equal(t, Cosine, m)

	m, err = ParseMetric("dotproduct")
	require.NoError(t, err)
	require.Equal(t, DotProduct, m)

	m, err = ParseMetric("dot_product")
	require.NoError(t, err)
	require.Equal(t, DotProduct, m)

	m, err = ParseMetric("euclidean")
	require.NoError(t, err)
	require.Equal(t, Euclidean, m)

	m, err = ParseMetric("")
	require.NoError(t, err)
	require.Equal(t, Euclidean, m)

	_, err = ParseMetric("garbage")
	require.Error(t, err)
}

func TestMetric_InternalAndFinalDistance(t *testing.T) {
	a := []float32{0, 0}
	b := []float32{3, 4}

	require.InDelta(t, 25.0, Euclidean.internalDistance(a, b), 1e-6)
	require.InDelta(t, 5.0, Euclidean.finalDistance(Euclidean.internalDistance(a, b)), 1e-6)

	cosInternal := Cosine.internalDistance(a, b)
	require.Equal(t, cosInternal, Cosine.finalDistance(cosInternal))

	dotInternal := DotProduct.internalDistance(a, b)
	require.Equal(t, float32(0), dotInternal)
	require.Equal(t, dotInternal, DotProduct.finalDistance(dotInternal))
}

func TestMetric_String(t *testing.T) {
	require.Equal(t, "euclidean", Euclidean.String())
	require.Equal(t, "cosine", Cosine.String())
	require.Equal(t, "dotproduct", DotProduct.String())
}
