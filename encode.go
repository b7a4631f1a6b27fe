package hnsw

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/google/renameio"
)

// documentVersion is the current persistence format version. Graph.Export
// and VectorDB.Serialize both stamp their output with it; ImportGraph
// rejects any other version with ErrVersionUnsupported, and so does
// DeserializeVectorDB for any other non-zero version (a document with no
// version field goes to its legacy fallback instead).
const documentVersion = 1

// persistedNode is one node's wire representation: its adjacency is
// serialised as a slice of ID slices, one per layer, set semantics
// rebuilt on load.
type persistedNode struct {
	ID        string     `json:"id"`
	Vector    []float32  `json:"vector"`
	Adjacency [][]string `json:"adjacency"`
}

// document is the full self-describing persisted form of a graph, with
// an optional co-serialised metadata side-table for hosts that choose
// to persist it alongside the graph (VectorDB does; a bare Graph does
// not).
type document struct {
	Version        int                          `json:"version"`
	Dims           int                          `json:"dims"`
	M              int                          `json:"m"`
	EfConstruction int                          `json:"ef_construction"`
	Metric         string                       `json:"metric"`
	Ml             float64                      `json:"ml"`
	MaxLayer       int                          `json:"max_layer"`
	EntryPoint     string                       `json:"entry_point,omitempty"`
	HasEntry       bool                         `json:"has_entry"`
	Nodes          []persistedNode              `json:"nodes"`
	Metadata       map[string]map[string]string `json:"metadata,omitempty"`
}

// buildDocument snapshots g (and, optionally, a metadata side-table)
// into its wire form. Node and adjacency order is sorted so that
// serialising the same graph twice yields byte-identical output.
func buildDocument(g *Graph, metadata map[string]map[string]string) document {
	doc := document{
		Version:        documentVersion,
		Dims:           g.dims,
		M:              g.m,
		EfConstruction: g.efConstruction,
		Metric:         g.metric.String(),
		Ml:             g.ml,
		MaxLayer:       g.maxLayer,
		EntryPoint:     g.entryPoint,
		HasEntry:       g.hasEntry,
		Nodes:          make([]persistedNode, 0, len(g.nodes)),
		Metadata:       metadata,
	}

	for _, n := range g.nodes {
		adjacency := make([][]string, len(n.adjacency))
		for i, set := range n.adjacency {
			ids := set.ids()
			sort.Strings(ids)
			adjacency[i] = ids
		}
		doc.Nodes = append(doc.Nodes, persistedNode{
			ID:        n.id,
			Vector:    n.vector,
			Adjacency: adjacency,
		})
	}
	sort.Slice(doc.Nodes, func(i, j int) bool { return doc.Nodes[i].ID < doc.Nodes[j].ID })

	return doc
}

// graphFromDocument reconstructs a Graph from its wire form, validating
// as it goes: every vector must match the declared dimensionality (I1),
// and every adjacency reference must resolve to a node that is also
// present in the document (I2) and isn't the node itself (I6).
func graphFromDocument(doc document) (*Graph, map[string]map[string]string, error) {
	if doc.Version != documentVersion {
		return nil, nil, fmt.Errorf("%w: got version %d, want %d", ErrVersionUnsupported, doc.Version, documentVersion)
	}

	metric, ok := parseMetricName(doc.Metric)
	if !ok {
		return nil, nil, fmt.Errorf("%w: unrecognized metric %q", ErrSerialization, doc.Metric)
	}

	g := &Graph{
		Rng:            defaultRand(),
		dims:           doc.Dims,
		m:              doc.M,
		efConstruction: doc.EfConstruction,
		metric:         metric,
		ml:             doc.Ml,
		maxLayer:       doc.MaxLayer,
		entryPoint:     doc.EntryPoint,
		hasEntry:       doc.HasEntry,
		nodes:          make(map[string]*node, len(doc.Nodes)),
	}

	for _, pn := range doc.Nodes {
		if len(pn.Vector) != doc.Dims {
			return nil, nil, fmt.Errorf("%w: node %q has vector length %d, want %d", ErrSerialization, pn.ID, len(pn.Vector), doc.Dims)
		}
		adjacency := make([]neighborSet, len(pn.Adjacency))
		for i := range adjacency {
			adjacency[i] = newNeighborSet(len(pn.Adjacency[i]))
		}
		g.nodes[pn.ID] = &node{id: pn.ID, vector: pn.Vector, adjacency: adjacency}
	}

	for _, pn := range doc.Nodes {
		n := g.nodes[pn.ID]
		for layer, ids := range pn.Adjacency {
			for _, nb := range ids {
				if nb == pn.ID {
					return nil, nil, fmt.Errorf("%w: node %q links to itself", ErrSerialization, pn.ID)
				}
				if _, ok := g.nodes[nb]; !ok {
					return nil, nil, fmt.Errorf("%w: node %q references missing neighbor %q", ErrSerialization, pn.ID, nb)
				}
				n.adjacency[layer].add(nb)
			}
		}
	}

	if g.hasEntry {
		if _, ok := g.nodes[g.entryPoint]; !ok {
			return nil, nil, fmt.Errorf("%w: entry point %q is not present in the node table", ErrSerialization, g.entryPoint)
		}
	}

	return g, doc.Metadata, nil
}

// Export serialises the graph, without any metadata side-table, to the
// versioned JSON persistence document.
func (g *Graph) Export() (string, error) {
	b, err := json.Marshal(buildDocument(g, nil))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return string(b), nil
}

// ImportGraph parses a previously exported document and reconstructs
// the graph it describes.
func ImportGraph(data string) (*Graph, error) {
	var doc document
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	g, _, err := graphFromDocument(doc)
	return g, err
}

// SavedGraph wraps a Graph with a path on disk and persists it atomically
// on Save, following the same pattern as a database's WAL checkpoint: a
// full rewrite to a temp file, then an atomic rename into place so a
// crash mid-write never corrupts the previous generation.
type SavedGraph struct {
	*Graph
	Path string
}

// LoadSavedGraph opens path and reads a graph from it. If the file is
// empty or does not yet exist, a fresh graph with the given parameters
// is returned instead.
func LoadSavedGraph(path string, dims, m, efConstruction int, metric Metric) (*SavedGraph, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	if info.Size() == 0 {
		g, err := NewGraph(dims, m, efConstruction, metric)
		if err != nil {
			return nil, err
		}
		return &SavedGraph{Graph: g, Path: path}, nil
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	g, err := ImportGraph(string(data))
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	return &SavedGraph{Graph: g, Path: path}, nil
}

// Save atomically rewrites the graph's file with its current contents.
func (sg *SavedGraph) Save() error {
	data, err := sg.Export()
	if err != nil {
		return fmt.Errorf("exporting: %w", err)
	}

	tmp, err := renameio.TempFile("", sg.Path)
	if err != nil {
		return err
	}
	defer tmp.Cleanup()

	if _, err := tmp.Write([]byte(data)); err != nil {
		return fmt.Errorf("writing: %w", err)
	}

	if err := tmp.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("closing atomically: %w", err)
	}

	return nil
}
