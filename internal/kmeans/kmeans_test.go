package kmeans

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/kclust/distance"
	"github.com/hupe1980/kclust/internal/testutil"
)

func TestTrain(t *testing.T) {
	// 2 clusters: (0,0) and (10,10)
	vecs := [][]float64{
		{0, 0}, {0, 1}, {10, 10}, {10, 11},
	}

	res, err := Train(vecs, 2, Options{})
	require.NoError(t, err)
	require.Len(t, res.Centroids, 2)
	assert.True(t, res.Converged)

	assert.Equal(t, res.Assignments[0], res.Assignments[1])
	assert.Equal(t, res.Assignments[2], res.Assignments[3])
	assert.NotEqual(t, res.Assignments[0], res.Assignments[2])

	low := res.Centroids[res.Assignments[0]]
	high := res.Centroids[res.Assignments[2]]
	assert.InDeltaSlice(t, []float64{0, 0.5}, low, 1e-12)
	assert.InDeltaSlice(t, []float64{10, 10.5}, high, 1e-12)
}

func TestTrain_InvalidParameters(t *testing.T) {
	vecs := [][]float64{{0, 0}, {1, 1}}

	_, err := Train(nil, 1, Options{})
	assert.ErrorIs(t, err, ErrEmptyDataset)

	_, err = Train(vecs, 0, Options{})
	assert.ErrorIs(t, err, ErrInvalidK)

	_, err = Train(vecs, -1, Options{})
	assert.ErrorIs(t, err, ErrInvalidK)

	_, err = Train(vecs, 3, Options{})
	assert.ErrorIs(t, err, ErrInvalidK)

	_, err = Train([][]float64{{0, 0}, {1}}, 1, Options{})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = Train(vecs, 1, Options{Metric: distance.Metric(999)})
	assert.Error(t, err)
}

func TestTrain_Deterministic(t *testing.T) {
	vecs := testutil.NewRNG(7).UniformSamples(200, 3, 100).Vectors()

	a, err := Train(vecs, 5, Options{})
	require.NoError(t, err)
	b, err := Train(vecs, 5, Options{})
	require.NoError(t, err)

	assert.Equal(t, a.Centroids, b.Centroids)
	assert.Equal(t, a.Assignments, b.Assignments)
	assert.Equal(t, a.Iterations, b.Iterations)
}

func TestTrain_NearestAssignment(t *testing.T) {
	data, _ := testutil.NewRNG(42).ClusteredSamples(300, 2, 1, 5)
	vecs := data.Vectors()

	res, err := Train(vecs, 4, Options{MaxIterations: 3})
	require.NoError(t, err)

	for i, v := range vecs {
		own := distance.SquaredL2(v, res.Centroids[res.Assignments[i]])
		for j, c := range res.Centroids {
			assert.GreaterOrEqual(t, distance.SquaredL2(v, c), own, "sample %d closer to centroid %d", i, j)
		}
	}
}

func TestTrain_Coverage(t *testing.T) {
	vecs := testutil.NewRNG(3).UniformSamples(100, 2, 1).Vectors()

	k := 6
	res, err := Train(vecs, k, Options{})
	require.NoError(t, err)
	require.Len(t, res.Assignments, len(vecs))
	for _, a := range res.Assignments {
		assert.GreaterOrEqual(t, a, 0)
		assert.Less(t, a, k)
	}
}

func TestTrain_RecoversSeparatedClusters(t *testing.T) {
	data, labels := testutil.NewRNG(11).ClusteredSamples(400, 3, 4, 1)

	res, err := Train(data.Vectors(), 4, Options{})
	require.NoError(t, err)
	assert.True(t, res.Converged)

	// Every generated group must map onto exactly one trained cluster.
	mapping := map[int]int{}
	for i, a := range res.Assignments {
		if want, ok := mapping[labels[i]]; ok {
			assert.Equal(t, want, a, "sample %d", i)
			continue
		}
		mapping[labels[i]] = a
	}
	clusters := map[int]bool{}
	for _, a := range mapping {
		clusters[a] = true
	}
	assert.Len(t, clusters, 4)
}

func TestTrain_EmptyClusterKeepsCentroid(t *testing.T) {
	vecs := [][]float64{{3}, {3}, {3}}

	res, err := Train(vecs, 2, Options{})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{3}, {3}}, res.Centroids)
	assert.Equal(t, []int{0, 0, 0}, res.Assignments)
}

func TestTrain_KEqualsN(t *testing.T) {
	vecs := [][]float64{{0}, {5}, {9}}

	res, err := Train(vecs, 3, Options{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{0, 1, 2}, res.Assignments)
	for i, v := range vecs {
		assert.Equal(t, v, res.Centroids[res.Assignments[i]])
	}
}

func TestTrain_DoesNotMutateInput(t *testing.T) {
	vecs := [][]float64{{0, 0}, {0, 2}, {8, 8}}
	res, err := Train(vecs, 2, Options{})
	require.NoError(t, err)

	res.Centroids[0][0] = 100
	assert.Equal(t, [][]float64{{0, 0}, {0, 2}, {8, 8}}, vecs)
}

func TestSeedFarthest(t *testing.T) {
	vecs := [][]float64{{0}, {1}, {10}, {4}, {10}}

	seeds := SeedFarthest(vecs, 3, distance.SquaredL2)
	// 0 first, then 10 (lowest index among the two), then 4 (min dist 16 vs 1)
	assert.Equal(t, [][]float64{{0}, {10}, {4}}, seeds)
}

func TestAssign(t *testing.T) {
	centroids := [][]float64{
		{0, 0},
		{10, 10},
		{20, 20},
	}

	assert.Equal(t, 0, Assign([]float64{1, 1}, centroids, distance.SquaredL2))
	assert.Equal(t, 2, Assign([]float64{19, 19}, centroids, distance.SquaredL2))
	// Equidistant from 0 and 1: lowest id wins.
	assert.Equal(t, 0, Assign([]float64{5, 5}, centroids, distance.SquaredL2))

	// Every distance overflows to +Inf: still a tie, lowest id wins.
	assert.Equal(t, 0, Assign([]float64{1e200, 0}, [][]float64{{-1e200, 0}, {0, -1e200}}, distance.SquaredL2))
	assert.Equal(t, -1, Assign([]float64{1}, nil, distance.SquaredL2))
}

func TestTrain_OverflowingDistances(t *testing.T) {
	vecs := [][]float64{{0, 0}, {1e200, 0}}

	res, err := Train(vecs, 1, Options{})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0}, res.Assignments)

	res, err = Train(vecs, 2, Options{})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, res.Assignments)
}
