package kclust_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/hupe1980/kclust"
	"github.com/hupe1980/kclust/blobstore"
	"github.com/hupe1980/kclust/model"
)

// Example_trainAndClassify demonstrates the full pipeline over an in-memory store.
func Example_trainAndClassify() {
	ctx := context.Background()
	store := kclust.NewModelStore(blobstore.NewMemoryStore())

	input := strings.NewReader("1;1;1;1;1;1;2;5\n" +
		"2;1;1;1;1;1;3;5\n" +
		"90;90;90;90;90;90;1;5\n")

	res, err := kclust.Train(ctx, input, 2, store, "model.bin", "clusters.bin")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("clusters:", res.Model.K())

	clf, err := kclust.OpenClassifier(ctx, store, "model.bin", "clusters.bin")
	if err != nil {
		log.Fatal(err)
	}
	if err := clf.Run(strings.NewReader("2;1;1;1;1;1;1\n"), os.Stdout); err != nil {
		log.Fatal(err)
	}
	// Output:
	// clusters: 2
	// 2;1;1;1;1;1;1
	// 1;1;1;1;1;1;1
	// Size: 2
}

// ExampleFit demonstrates in-memory clustering.
func ExampleFit() {
	data := model.Dataset{{0, 0}, {0, 2}, {10, 10}, {10, 12}}

	m, clusters, err := kclust.Fit(data, 2)
	if err != nil {
		log.Fatal(err)
	}
	for id, c := range m.Centroids {
		fmt.Println(id, c, clusters.Clusters[id].Rows.ToArray())
	}
	// Output:
	// 0 [0 1] [0 1]
	// 1 [10 11] [2 3]
}
