package main

import (
	"fmt"
	"log"

	"github.com/edgevector/hnsw"
)

func main() {
	db, err := hnsw.NewVectorDB(4, 16, 20, hnsw.Cosine)
	if err != nil {
		log.Fatalf("failed to create database: %v", err)
	}

	vectors := map[string][]float32{
		"dog":     {1.0, 0.2, 0.1, 0.0},
		"puppy":   {0.9, 0.3, 0.2, 0.1},
		"canine":  {0.8, 0.3, 0.3, 0.0},
		"cat":     {0.1, 1.0, 0.2, 0.0},
		"kitten":  {0.2, 0.9, 0.3, 0.1},
		"feline":  {0.3, 0.8, 0.3, 0.0},
		"bird":    {0.1, 0.2, 1.0, 0.0},
		"sparrow": {0.2, 0.3, 0.9, 0.1},
		"avian":   {0.3, 0.3, 0.8, 0.0},
	}
	for id, v := range vectors {
		if err := db.Insert(id, v, nil); err != nil {
			log.Fatalf("failed to insert %s: %v", id, err)
		}
	}
	fmt.Printf("initial database size: %d\n", db.Size())

	fmt.Println("\ndelete a single id")
	fmt.Printf("deleted 'puppy': %v\n", db.Delete("puppy"))
	fmt.Printf("size after single delete: %d\n", db.Size())

	fmt.Println("\nbatch delete existing ids")
	n := db.DeleteBatch([]string{"dog", "cat", "bird"})
	fmt.Printf("removed %d ids; size now %d\n", n, db.Size())

	fmt.Println("\nbatch delete with a mix of existing and missing ids")
	n = db.DeleteBatch([]string{"canine", "unknown1", "kitten", "unknown2"})
	fmt.Printf("removed %d ids; size now %d\n", n, db.Size())

	fmt.Println("\nsearch after deletions")
	results, err := db.Search([]float32{0.3, 0.3, 0.8, 0.0}, 3, 20)
	if err != nil {
		log.Fatalf("failed to search: %v", err)
	}
	for i, r := range results {
		fmt.Printf("  %d. %s (distance %.4f)\n", i+1, r.ID, r.Distance)
	}

	fmt.Println("\ndelete all remaining ids")
	n = db.DeleteBatch([]string{"feline", "sparrow", "avian"})
	fmt.Printf("removed %d ids; final size %d\n", n, db.Size())
}
