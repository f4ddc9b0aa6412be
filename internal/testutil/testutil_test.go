package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRNG_Deterministic(t *testing.T) {
	a := NewRNG(5).UniformSamples(10, 3, 1)
	b := NewRNG(5).UniformSamples(10, 3, 1)
	assert.Equal(t, a, b)
	assert.Equal(t, int64(5), NewRNG(5).Seed())
}

func TestClusteredSamples(t *testing.T) {
	data, labels := NewRNG(1).ClusteredSamples(9, 2, 3, 0.1)
	require.Len(t, data, 9)
	require.Len(t, labels, 9)
	assert.Equal(t, 2, data.Dim())
	assert.Equal(t, []int{0, 1, 2, 0, 1, 2, 0, 1, 2}, labels)
}

func TestTrainingInput(t *testing.T) {
	input := NewRNG(2).TrainingInput(50, 0.2)
	lines := strings.Split(strings.TrimSuffix(input, "\n"), "\n")
	require.Len(t, lines, 50)

	empty := 0
	for _, line := range lines {
		fields := strings.Split(line, ";")
		require.Len(t, fields, 8)
		assert.NotEmpty(t, fields[6])
		assert.NotEmpty(t, fields[7])
		for _, f := range fields[:6] {
			if f == "" {
				empty++
			}
		}
	}
	assert.Positive(t, empty)
}
