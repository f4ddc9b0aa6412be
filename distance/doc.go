// Package distance provides the distance strategies used for clustering and
// classification.
//
// # Supported Metrics
//
//   - MetricL2: Squared Euclidean distance (default)
//   - MetricEuclidean: Euclidean distance
//
// Both metrics induce the same nearest-neighbour ordering; MetricL2 avoids the
// square root and is what the trainer uses for assignment.
//
// # Usage
//
//	fn, err := distance.Provider(distance.MetricL2)
//	d := fn(a, b)
package distance
