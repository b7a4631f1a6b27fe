package hnsw

import (
	"encoding/json"
	"fmt"
	"math"
)

// VectorDB is the host-facing boundary surface around a Graph: it owns
// upsert semantics, input validation, the metadata side-table, and
// persistence of both together. The pure graph below never entangles
// its mutation path with identity semantics — repeated inserts of the
// same ID are this wrapper's job, not the core's.
type VectorDB struct {
	graph    *Graph
	metadata map[string]map[string]string
}

// NewVectorDB constructs an empty database with the given
// dimensionality, connection budget, construction breadth, and metric.
func NewVectorDB(dims, m, efConstruction int, metric Metric) (*VectorDB, error) {
	g, err := NewGraph(dims, m, efConstruction, metric)
	if err != nil {
		return nil, err
	}
	return &VectorDB{
		graph:    g,
		metadata: make(map[string]map[string]string),
	}, nil
}

// SearchResult is one entry of a Search response.
type SearchResult struct {
	ID       string
	Distance float32
	Metadata map[string]string
}

// GetResult is the payload returned by Get.
type GetResult struct {
	Vector   []float32
	Metadata map[string]string
}

func isFiniteVector(v []float32) bool {
	for _, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// Insert adds or replaces the item with the given ID. Re-inserting an
// existing ID is a delete-then-insert (upsert semantics); metadata
// replaces whatever was stored for the ID, or is cleared if nil.
func (db *VectorDB) Insert(id string, vector []float32, metadata map[string]string) error {
	if len(vector) != db.graph.dims {
		return fmt.Errorf("%w: expected %d components, got %d", ErrDimensionMismatch, db.graph.dims, len(vector))
	}
	if !isFiniteVector(vector) {
		return ErrInvalidComponent
	}

	if db.graph.Has(id) {
		db.graph.Delete(id)
	}
	db.graph.Insert(id, vector)

	if metadata != nil {
		db.metadata[id] = metadata
	} else {
		delete(db.metadata, id)
	}

	return nil
}

// Search returns up to k items nearest to query, ascending by final
// distance, each carrying whatever metadata was stored alongside it.
func (db *VectorDB) Search(query []float32, k, ef int) ([]SearchResult, error) {
	if len(query) != db.graph.dims {
		return nil, fmt.Errorf("%w: expected %d components, got %d", ErrDimensionMismatch, db.graph.dims, len(query))
	}
	if k <= 0 {
		return nil, nil
	}

	found := db.graph.Search(query, k, ef)
	out := make([]SearchResult, len(found))
	for i, r := range found {
		out[i] = SearchResult{
			ID:       r.ID,
			Distance: r.Distance,
			Metadata: db.metadata[r.ID],
		}
	}
	return out, nil
}

// Get returns the vector and metadata stored for id, if present.
func (db *VectorDB) Get(id string) (GetResult, bool) {
	v, ok := db.graph.GetVector(id)
	if !ok {
		return GetResult{}, false
	}
	return GetResult{Vector: v, Metadata: db.metadata[id]}, true
}

// Has reports whether id is present.
func (db *VectorDB) Has(id string) bool {
	return db.graph.Has(id)
}

// ListIDs returns every live ID, in unspecified order.
func (db *VectorDB) ListIDs() []string {
	return db.graph.ListIDs()
}

// Delete removes id, returning whether it was present.
func (db *VectorDB) Delete(id string) bool {
	delete(db.metadata, id)
	return db.graph.Delete(id)
}

// DeleteBatch removes every ID in ids, returning the count actually
// removed.
func (db *VectorDB) DeleteBatch(ids []string) int {
	var n int
	for _, id := range ids {
		if db.Delete(id) {
			n++
		}
	}
	return n
}

// Size returns the number of items currently stored.
func (db *VectorDB) Size() int {
	return db.graph.Size()
}

// Serialize produces the versioned persistence document for the full
// database: graph topology plus the metadata side-table.
func (db *VectorDB) Serialize() (string, error) {
	b, err := json.Marshal(buildDocument(db.graph, db.metadata))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return string(b), nil
}

// legacyDocument is the pre-versioning wire format: the graph's JSON
// nested as a string field alongside a parallel (and, even in the
// original implementation, unused) vector map. DeserializeVectorDB
// falls back to this shape only when the input has no recognizable
// version field.
type legacyDocument struct {
	Vectors   map[string][]float32          `json:"vectors"`
	Metadata  map[string]map[string]string  `json:"metadata"`
	HNSWState string                        `json:"hnsw_state"`
}

// DeserializeVectorDB parses a previously serialized document and
// reconstructs the database it describes. Unknown versions are
// rejected with ErrVersionUnsupported; malformed documents, or ones
// referencing IDs missing from their own node table, are rejected with
// ErrSerialization and no partial database is returned.
func DeserializeVectorDB(data string) (*VectorDB, error) {
	var doc document
	if err := json.Unmarshal([]byte(data), &doc); err == nil && doc.Version != 0 {
		if doc.Version != documentVersion {
			return nil, fmt.Errorf("%w: got version %d, want %d", ErrVersionUnsupported, doc.Version, documentVersion)
		}
		g, metadata, err := graphFromDocument(doc)
		if err != nil {
			return nil, err
		}
		if metadata == nil {
			metadata = make(map[string]map[string]string)
		}
		return &VectorDB{graph: g, metadata: metadata}, nil
	}

	var legacy legacyDocument
	if err := json.Unmarshal([]byte(data), &legacy); err != nil || legacy.HNSWState == "" {
		return nil, fmt.Errorf("%w: not a recognized persistence document", ErrSerialization)
	}

	var inner document
	if err := json.Unmarshal([]byte(legacy.HNSWState), &inner); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	inner.Version = documentVersion // the pre-versioned layout is otherwise identical to v1

	g, _, err := graphFromDocument(inner)
	if err != nil {
		return nil, err
	}
	metadata := legacy.Metadata
	if metadata == nil {
		metadata = make(map[string]map[string]string)
	}
	return &VectorDB{graph: g, metadata: metadata}, nil
}
