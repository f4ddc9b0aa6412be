package persistence

import (
	"bytes"
	"encoding/binary"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/kclust/distance"
	"github.com/hupe1980/kclust/model"
)

var bitmapComparer = cmp.Comparer(func(a, b *roaring.Bitmap) bool {
	return a.Equals(b)
})

func testModel() *model.Model {
	return &model.Model{
		ID:         uuid.MustParse("6f1c2a4e-8d3b-4b7a-9c51-0e2f3a4b5c6d"),
		Dim:        3,
		Metric:     distance.MetricL2,
		Centroids:  []model.Sample{{0.1, 0.2, 1}, {math.Pi, -1e300, 0}},
		Iterations: 4,
		Converged:  true,
		CreatedAt:  time.Date(2024, 3, 1, 12, 0, 0, 123, time.UTC),
	}
}

func testClusters(id uuid.UUID) *model.ClusterStore {
	data := model.Dataset{{0, 0, 1}, {5, 5, 0}, {0.5, 0, 1}, {5, 6, 0}, {0, 1, 1}}
	s, err := model.NewClusterStore(id, data, []int{0, 1, 0, 1, 0}, 3)
	if err != nil {
		panic(err)
	}
	return s
}

func TestModelRoundTrip(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			m := testModel()

			var buf bytes.Buffer
			require.NoError(t, EncodeModel(&buf, m, c))

			got, err := DecodeModel(&buf)
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(m, got))
		})
	}
}

func TestClustersRoundTrip(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			s := testClusters(uuid.New())

			var buf bytes.Buffer
			require.NoError(t, EncodeClusters(&buf, s, c))

			got, err := DecodeClusters(&buf)
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(s, got, bitmapComparer))
			require.NoError(t, got.Validate(5))
		})
	}
}

func TestCompressionShrinksRepetitivePayload(t *testing.T) {
	m := testModel()
	m.Dim = 7
	m.Centroids = make([]model.Sample, 500)
	for i := range m.Centroids {
		m.Centroids[i] = model.Sample{1, 2, 3, 4, 5, 6, 0}
	}

	var plain, zstd bytes.Buffer
	require.NoError(t, EncodeModel(&plain, m, CompressionNone))
	require.NoError(t, EncodeModel(&zstd, m, CompressionZSTD))
	assert.Less(t, zstd.Len(), plain.Len())

	header, err := ReadHeader(bytes.NewReader(zstd.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, CompressionZSTD, header.Compression)
	assert.Equal(t, KindModel, header.Kind)
}

func TestIncompressibleFallsBackToNone(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	data := make([]byte, 256)
	rng.Read(data)

	for _, c := range []Compression{CompressionLZ4, CompressionZSTD} {
		stored, used, err := compress(data, c)
		require.NoError(t, err)
		assert.Equal(t, CompressionNone, used, c.String())
		assert.Equal(t, data, stored)

		raw, err := decompress(stored, used, uint64(len(data)))
		require.NoError(t, err)
		assert.Equal(t, data, raw)
	}
}

func TestDecode_Errors(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeModel(&buf, testModel(), CompressionNone))
	valid := buf.Bytes()

	t.Run("Empty", func(t *testing.T) {
		_, err := DecodeModel(bytes.NewReader(nil))
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("Magic", func(t *testing.T) {
		b := bytes.Clone(valid)
		b[0] ^= 0xff
		_, err := DecodeModel(bytes.NewReader(b))
		assert.ErrorIs(t, err, ErrInvalidMagic)
	})

	t.Run("Version", func(t *testing.T) {
		b := bytes.Clone(valid)
		binary.LittleEndian.PutUint16(b[4:], 99)
		_, err := DecodeModel(bytes.NewReader(b))
		assert.ErrorIs(t, err, ErrInvalidVersion)
	})

	t.Run("Kind", func(t *testing.T) {
		_, err := DecodeClusters(bytes.NewReader(valid))
		assert.ErrorIs(t, err, ErrKindMismatch)
	})

	t.Run("Checksum", func(t *testing.T) {
		b := bytes.Clone(valid)
		b[len(b)-1] ^= 0x01
		_, err := DecodeModel(bytes.NewReader(b))
		assert.ErrorIs(t, err, ErrChecksum)
		assert.True(t, IsChecksumMismatch(err))
	})

	t.Run("Truncated", func(t *testing.T) {
		_, err := DecodeModel(bytes.NewReader(valid[:len(valid)-3]))
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("TrailingData", func(t *testing.T) {
		b := append(bytes.Clone(valid), 0)
		_, err := DecodeModel(bytes.NewReader(b))
		assert.ErrorIs(t, err, ErrCorrupt)
	})
}

func TestEncodeModel_Validation(t *testing.T) {
	m := testModel()
	m.ID = uuid.Nil
	assert.Error(t, EncodeModel(&bytes.Buffer{}, m, CompressionNone))

	m = testModel()
	m.Centroids[1] = model.Sample{1}
	assert.Error(t, EncodeModel(&bytes.Buffer{}, m, CompressionNone))
}

func TestEncodeClusters_DimensionMismatch(t *testing.T) {
	s := testClusters(uuid.New())
	s.Clusters[0].Members[0] = model.Sample{1}
	assert.Error(t, EncodeClusters(&bytes.Buffer{}, s, CompressionNone))
}

func TestParseCompression(t *testing.T) {
	for in, want := range map[string]Compression{
		"":     CompressionNone,
		"none": CompressionNone,
		"LZ4":  CompressionLZ4,
		"zstd": CompressionZSTD,
	} {
		got, err := ParseCompression(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseCompression("gzip")
	assert.Error(t, err)
}

func TestChecksum(t *testing.T) {
	data := []byte("kclust")
	sum := ComputeChecksum(data)
	require.NoError(t, VerifyChecksum(data, sum))

	err := VerifyChecksum(data, sum+1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrChecksum)
	assert.Contains(t, err.Error(), "checksum mismatch")
}
