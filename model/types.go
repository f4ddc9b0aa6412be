package model

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/google/uuid"

	"github.com/hupe1980/kclust/distance"
)

var (
	// ErrCoverage is returned when cluster membership does not partition the dataset.
	ErrCoverage = errors.New("cluster membership does not partition the dataset")

	// ErrUnknownCluster is returned when a cluster id is out of range.
	ErrUnknownCluster = errors.New("unknown cluster")
)

// Sample is a fixed-length numeric feature vector.
type Sample []float64

// Dim returns the number of coordinates.
func (s Sample) Dim() int { return len(s) }

// Clone returns a copy of the sample.
func (s Sample) Clone() Sample { return slices.Clone(s) }

// Equal reports whether both samples have identical coordinates.
func (s Sample) Equal(o Sample) bool { return slices.Equal(s, o) }

// Text renders the sample with the given separator using the shortest
// representation of each coordinate.
func (s Sample) Text(sep rune) string {
	var b strings.Builder
	for i, v := range s {
		if i > 0 {
			b.WriteRune(sep)
		}
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return b.String()
}

// Dataset is an ordered sequence of samples of equal dimension.
type Dataset []Sample

// Dim returns the dimension of the first sample, or 0 for an empty dataset.
func (d Dataset) Dim() int {
	if len(d) == 0 {
		return 0
	}
	return len(d[0])
}

// Vectors exposes the dataset as plain float slices without copying.
func (d Dataset) Vectors() [][]float64 {
	out := make([][]float64, len(d))
	for i, s := range d {
		out[i] = s
	}
	return out
}

// Model is the trained state needed to classify future samples.
type Model struct {
	ID         uuid.UUID
	Dim        int
	Metric     distance.Metric
	Centroids  []Sample
	Iterations int
	Converged  bool
	CreatedAt  time.Time
}

// K returns the number of clusters.
func (m *Model) K() int { return len(m.Centroids) }

// Centroid returns the centroid of cluster id.
func (m *Model) Centroid(id int) (Sample, error) {
	if id < 0 || id >= len(m.Centroids) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCluster, id)
	}
	return m.Centroids[id], nil
}

// Cluster owns the samples assigned to one cluster id.
type Cluster struct {
	ID      int
	Members []Sample
	// Rows holds the zero-based dataset row index of every member, in the
	// same order as Members when iterated ascending.
	Rows *roaring.Bitmap
}

// Len returns the number of members.
func (c *Cluster) Len() int { return len(c.Members) }

// ClusterStore maps cluster ids to their members.
type ClusterStore struct {
	ModelID  uuid.UUID
	Dim      int
	Clusters []Cluster
}

// NewClusterStore groups dataset rows by their cluster assignment.
func NewClusterStore(modelID uuid.UUID, data Dataset, assignments []int, k int) (*ClusterStore, error) {
	if len(assignments) != len(data) {
		return nil, fmt.Errorf("%w: %d assignments for %d samples", ErrCoverage, len(assignments), len(data))
	}

	clusters := make([]Cluster, k)
	for id := range clusters {
		clusters[id] = Cluster{ID: id, Rows: roaring.New()}
	}

	for row, id := range assignments {
		if id < 0 || id >= k {
			return nil, fmt.Errorf("%w: %d", ErrUnknownCluster, id)
		}
		clusters[id].Members = append(clusters[id].Members, data[row])
		clusters[id].Rows.Add(uint32(row))
	}

	return &ClusterStore{
		ModelID:  modelID,
		Dim:      data.Dim(),
		Clusters: clusters,
	}, nil
}

// Len returns the number of clusters.
func (s *ClusterStore) Len() int { return len(s.Clusters) }

// Members returns the members of cluster id. The returned slice must not be
// modified.
func (s *ClusterStore) Members(id int) ([]Sample, error) {
	if id < 0 || id >= len(s.Clusters) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCluster, id)
	}
	return s.Clusters[id].Members, nil
}

// Size returns the total number of members across all clusters.
func (s *ClusterStore) Size() int {
	n := 0
	for i := range s.Clusters {
		n += s.Clusters[i].Len()
	}
	return n
}

// Validate checks that the clusters partition rows 0..n-1: every row belongs
// to exactly one cluster and member counts agree with the row bitmaps.
func (s *ClusterStore) Validate(n int) error {
	union := roaring.New()
	var total uint64

	for i := range s.Clusters {
		c := &s.Clusters[i]
		if c.ID != i {
			return fmt.Errorf("%w: cluster at position %d has id %d", ErrCoverage, i, c.ID)
		}
		if c.Rows == nil {
			return fmt.Errorf("%w: cluster %d has no row index", ErrCoverage, i)
		}
		card := c.Rows.GetCardinality()
		if card != uint64(len(c.Members)) {
			return fmt.Errorf("%w: cluster %d has %d members but %d rows", ErrCoverage, i, len(c.Members), card)
		}
		if union.Intersects(c.Rows) {
			return fmt.Errorf("%w: cluster %d shares rows with another cluster", ErrCoverage, i)
		}
		union.Or(c.Rows)
		total += card
	}

	if total != uint64(n) {
		return fmt.Errorf("%w: %d rows assigned, expected %d", ErrCoverage, total, n)
	}
	if n > 0 && union.Maximum() != uint32(n-1) {
		return fmt.Errorf("%w: row index %d out of range", ErrCoverage, union.Maximum())
	}
	return nil
}
