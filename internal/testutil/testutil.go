package testutil

import (
	"math/rand"
	"strconv"
	"strings"
	"sync"

	"github.com/hupe1980/kclust/model"
)

// RNG wraps a seeded random source. It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// UniformSamples generates num samples with coordinates in [0, scale).
func (r *RNG) UniformSamples(num, dim int, scale float64) model.Dataset {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make(model.Dataset, num)
	for i := range data {
		s := make(model.Sample, dim)
		for j := range s {
			s[j] = r.rand.Float64() * scale
		}
		data[i] = s
	}
	return data
}

// ClusteredSamples generates samples with Gaussian noise around clusters
// well separated centers. Sample i belongs to center i%clusters; the center
// index of every sample is returned alongside the data.
func (r *RNG) ClusteredSamples(num, dim, clusters int, spread float64) (model.Dataset, []int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	centers := make([]model.Sample, clusters)
	for c := range centers {
		center := make(model.Sample, dim)
		for j := range center {
			// Centers sit on a coarse grid so that no two overlap.
			center[j] = float64(c*100) + r.rand.Float64()*10
		}
		centers[c] = center
	}

	data := make(model.Dataset, num)
	labels := make([]int, num)
	for i := range data {
		c := i % clusters
		s := make(model.Sample, dim)
		for j := range s {
			s[j] = centers[c][j] + r.rand.NormFloat64()*spread
		}
		data[i] = s
		labels[i] = c
	}
	return data, labels
}

// TrainingInput generates n semicolon-delimited training lines with six
// feature columns followed by floor and max floor. Each feature cell is
// left empty with probability missingRate.
func (r *RNG) TrainingInput(n int, missingRate float64) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var sb strings.Builder
	fields := make([]string, 8)
	for range n {
		for j := 0; j < 6; j++ {
			if r.rand.Float64() < missingRate {
				fields[j] = ""
				continue
			}
			fields[j] = strconv.FormatFloat(float64(r.rand.Intn(1000))/10, 'f', -1, 64)
		}
		maxFloor := 1 + r.rand.Intn(25)
		floor := 1 + r.rand.Intn(maxFloor)
		fields[6] = strconv.Itoa(floor)
		fields[7] = strconv.Itoa(maxFloor)

		sb.WriteString(strings.Join(fields, ";"))
		sb.WriteByte('\n')
	}
	return sb.String()
}
