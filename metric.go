package hnsw

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Metric selects the distance function used throughout graph search.
type Metric int

const (
	// Euclidean uses squared Euclidean distance internally and restores
	// the square root only on results returned to callers.
	Euclidean Metric = iota
	// Cosine uses cosine distance, identical internally and on return.
	Cosine
	// DotProduct uses the negated dot product internally, so that
	// "larger is more similar" becomes the "smaller is closer" every
	// graph search routine depends on.
	DotProduct
)

// String returns the canonical lowercase name of the metric.
func (m Metric) String() string {
	switch m {
	case Euclidean:
		return "euclidean"
	case Cosine:
		return "cosine"
	case DotProduct:
		return "dotproduct"
	default:
		return fmt.Sprintf("metric(%d)", int(m))
	}
}

// parseMetricName maps a metric name onto a Metric, reporting whether
// the name was recognized. An empty name is treated as the documented
// default, Euclidean.
func parseMetricName(name string) (Metric, bool) {
	switch name {
	case "", "euclidean":
		return Euclidean, true
	case "cosine":
		return Cosine, true
	case "dotproduct", "dot_product":
		return DotProduct, true
	default:
		return Euclidean, false
	}
}

// ParseMetric maps a host-supplied metric name onto a Metric, defaulting
// an empty name to Euclidean. Unrecognized names are rejected.
func ParseMetric(name string) (Metric, error) {
	m, ok := parseMetricName(name)
	if !ok {
		return 0, fmt.Errorf("unrecognized metric %q", name)
	}
	return m, nil
}

// internalDistance is the distance used throughout graph traversal,
// where smaller always means closer.
func (m Metric) internalDistance(a, b []float32) float32 {
	switch m {
	case Cosine:
		return CosineDistance(a, b)
	case DotProduct:
		return -Dot(a, b)
	default:
		return EuclideanSq(a, b)
	}
}

// finalDistance transforms an internal distance into the value returned
// to callers. Only Euclidean differs from its internal form.
func (m Metric) finalDistance(internal float32) float32 {
	if m == Euclidean {
		return math32.Sqrt(internal)
	}
	return internal
}
