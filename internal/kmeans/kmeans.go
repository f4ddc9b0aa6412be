package kmeans

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/hupe1980/kclust/distance"
)

// DefaultMaxIterations bounds Lloyd refinement when no limit is configured.
const DefaultMaxIterations = 100

var (
	// ErrInvalidK is returned when k is not in [1, n].
	ErrInvalidK = errors.New("k must be between 1 and the number of samples")

	// ErrEmptyDataset is returned when there is nothing to cluster.
	ErrEmptyDataset = errors.New("empty dataset")

	// ErrDimensionMismatch is returned when samples differ in length.
	ErrDimensionMismatch = errors.New("dimension mismatch")
)

// Options configures training.
type Options struct {
	Metric        distance.Metric
	MaxIterations int
}

// Result holds the trained centroids and the final assignment of every sample.
type Result struct {
	Centroids   [][]float64
	Assignments []int
	// Iterations is the number of assignment/update rounds performed.
	Iterations int
	// Converged is false when MaxIterations was reached while assignments
	// were still changing.
	Converged bool
}

// Train clusters vectors into k groups using Lloyd's algorithm.
func Train(vectors [][]float64, k int, opts Options) (*Result, error) {
	n := len(vectors)
	if n == 0 {
		return nil, ErrEmptyDataset
	}
	if k <= 0 || k > n {
		return nil, fmt.Errorf("%w: k=%d, n=%d", ErrInvalidK, k, n)
	}

	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: sample %d has %d coordinates, expected %d", ErrDimensionMismatch, i, len(v), dim)
		}
	}

	distFunc, err := distance.Provider(opts.Metric)
	if err != nil {
		return nil, err
	}

	maxIter := opts.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	centroids := SeedFarthest(vectors, k, distFunc)

	assignments := make([]int, n)
	for i := range assignments {
		assignments[i] = -1
	}
	counts := make([]int, k)
	sums := make([][]float64, k)
	for j := range sums {
		sums[j] = make([]float64, dim)
	}

	res := &Result{}
	for iter := 0; iter < maxIter; iter++ {
		changed := false

		// Assignment step
		for i, vec := range vectors {
			best := Assign(vec, centroids, distFunc)
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}
		res.Iterations = iter + 1

		if !changed {
			res.Converged = true
			break
		}

		// Update step
		for j := range sums {
			floats.Scale(0, sums[j])
			counts[j] = 0
		}
		for i, vec := range vectors {
			c := assignments[i]
			floats.Add(sums[c], vec)
			counts[c]++
		}
		for j := range centroids {
			// An empty cluster keeps its previous centroid.
			if counts[j] > 0 {
				floats.ScaleTo(centroids[j], 1/float64(counts[j]), sums[j])
			}
		}
	}

	// Membership always reflects the final centroids.
	for i, vec := range vectors {
		assignments[i] = Assign(vec, centroids, distFunc)
	}

	res.Centroids = centroids
	res.Assignments = assignments
	return res, nil
}

// SeedFarthest picks k initial centroids: the first sample, then repeatedly
// the sample whose distance to its nearest chosen seed is largest. Ties go to
// the lowest sample index. The returned centroids are copies.
func SeedFarthest(vectors [][]float64, k int, distFunc distance.Func) [][]float64 {
	n := len(vectors)
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, clone(vectors[0]))

	// nearest[i] is the distance from sample i to its closest chosen seed.
	nearest := make([]float64, n)
	for i, v := range vectors {
		nearest[i] = distFunc(v, centroids[0])
	}

	for len(centroids) < k {
		idx := 0
		for i := 1; i < n; i++ {
			if nearest[i] > nearest[idx] {
				idx = i
			}
		}

		seed := clone(vectors[idx])
		centroids = append(centroids, seed)
		for i, v := range vectors {
			if d := distFunc(v, seed); d < nearest[i] {
				nearest[i] = d
			}
		}
	}

	return centroids
}

// Assign returns the index of the centroid closest to vec. Ties go to the
// lowest index, including when every distance overflows to +Inf.
// It returns -1 when there are no centroids.
func Assign(vec []float64, centroids [][]float64, distFunc distance.Func) int {
	if len(centroids) == 0 {
		return -1
	}
	best := 0
	minDist := distFunc(vec, centroids[0])
	for j := 1; j < len(centroids); j++ {
		if d := distFunc(vec, centroids[j]); d < minDist {
			minDist = d
			best = j
		}
	}
	return best
}

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
