// Package model defines the core types shared by training and classification.
//
// # Data Types
//
//   - Sample: Fixed-length numeric feature vector
//   - Dataset: Ordered samples produced by ingestion
//   - Model: Trained centroids indexed by cluster id
//   - Cluster: Members of one cluster plus their dataset row indices
//   - ClusterStore: Cluster id to members mapping persisted next to a Model
//
// A Model and its ClusterStore are paired through Model.ID; a ClusterStore
// produced by one training run must never be combined with the Model of
// another.
package model
