package main

import (
	"fmt"
	"log"

	"github.com/edgevector/hnsw"
)

func main() {
	db, err := hnsw.NewVectorDB(3, 16, 20, hnsw.Euclidean)
	if err != nil {
		log.Fatalf("failed to create database: %v", err)
	}

	if err := db.Insert("1", []float32{1, 1, 1}, map[string]string{"label": "origin-ish"}); err != nil {
		log.Fatalf("failed to insert: %v", err)
	}
	if err := db.Insert("2", []float32{1, -1, 0.999}, nil); err != nil {
		log.Fatalf("failed to insert: %v", err)
	}
	if err := db.Insert("3", []float32{1, 0, -0.5}, nil); err != nil {
		log.Fatalf("failed to insert: %v", err)
	}

	results, err := db.Search([]float32{0.5, 0.5, 0.5}, 1, 20)
	if err != nil {
		log.Fatalf("failed to search: %v", err)
	}
	fmt.Printf("best match: %s (distance %.4f, %v)\n", results[0].ID, results[0].Distance, results[0].Metadata)

	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("batch-%d", i)
		v := []float32{float32(i) * 0.5, float32(i) * 0.5, float32(i) * 0.5}
		if err := db.Insert(id, v, nil); err != nil {
			log.Fatalf("failed to insert %s: %v", id, err)
		}
	}
	fmt.Printf("database size after batch insert: %d\n", db.Size())

	removed := db.DeleteBatch([]string{"batch-0", "batch-1", "does-not-exist"})
	fmt.Printf("removed %d of the requested ids\n", removed)

	data, err := db.Serialize()
	if err != nil {
		log.Fatalf("failed to serialize: %v", err)
	}

	restored, err := hnsw.DeserializeVectorDB(data)
	if err != nil {
		log.Fatalf("failed to deserialize: %v", err)
	}
	fmt.Printf("restored database holds %d items\n", restored.Size())
}
