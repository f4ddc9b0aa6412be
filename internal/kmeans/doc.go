// Package kmeans implements k-means clustering with farthest-point seeding.
//
// Training is deterministic: seeds are chosen by a farthest-point sweep that
// starts at the first sample and breaks ties by lowest index, and assignment
// breaks ties by lowest centroid id.
package kmeans
