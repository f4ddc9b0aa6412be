// Package classify implements nearest-centroid lookup and proximity ranking
// of cluster members.
package classify

import (
	"math"
	"sort"

	"github.com/hupe1980/kclust/distance"
)

// Nearest returns the id of the centroid closest to q and its distance.
// Ties resolve to the lowest id, so a query whose distances all overflow
// to +Inf lands in cluster 0. It returns -1 when there are no centroids.
func Nearest(q []float64, centroids [][]float64, fn distance.Func) (int, float64) {
	if len(centroids) == 0 {
		return -1, math.Inf(1)
	}
	best, bestDist := 0, fn(q, centroids[0])
	for id := 1; id < len(centroids); id++ {
		if d := fn(q, centroids[id]); d < bestDist {
			best, bestDist = id, d
		}
	}
	return best, bestDist
}

// Ranked is a member together with its distance to the query.
type Ranked struct {
	// Index is the position of the member within its cluster.
	Index    int
	Member   []float64
	Distance float64
}

// Rank orders members by ascending distance to q. Equal distances keep their
// stored order. The members slice is not modified.
func Rank(q []float64, members [][]float64, fn distance.Func) []Ranked {
	ranked := make([]Ranked, len(members))
	for i, m := range members {
		ranked[i] = Ranked{Index: i, Member: m, Distance: fn(q, m)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Distance < ranked[j].Distance
	})
	return ranked
}
