package minio

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/hupe1980/kclust/blobstore"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ blobstore.Store = (*Store)(nil)

func TestStore_Key(t *testing.T) {
	s := NewStore(nil, "bucket", "models/")
	assert.Equal(t, "models/run1/model.bin", s.key("run1/model.bin"))

	s = NewStore(nil, "bucket", "")
	assert.Equal(t, "model.bin", s.key("model.bin"))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(minio.ErrorResponse{Code: "NoSuchKey"}))
	assert.True(t, isNotFound(minio.ErrorResponse{Code: "NotFound"}))
	assert.False(t, isNotFound(minio.ErrorResponse{Code: "AccessDenied"}))
	assert.False(t, isNotFound(errors.New("network down")))
}

func TestDial_InvalidEndpoint(t *testing.T) {
	_, err := Dial(Config{Endpoint: "http://bad endpoint"})
	assert.Error(t, err)
}

// TestMinioStore_Integration requires a running MinIO instance.
// Skip if not available.
func TestMinioStore_Integration(t *testing.T) {
	bucket := "test-kclust"

	store, err := Dial(Config{
		Endpoint:  "localhost:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Bucket:    bucket,
		Prefix:    "it/",
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()

	// Check if MinIO is reachable
	if _, err := store.client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	exists, err := store.client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, store.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	_, err = store.Get(ctx, "missing.bin")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	require.NoError(t, store.Put(ctx, "model.bin", []byte("centroids")))

	rc, err := store.Get(ctx, "model.bin")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "centroids", string(data))

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, names, "model.bin")

	require.NoError(t, store.Delete(ctx, "model.bin"))
	require.NoError(t, store.Delete(ctx, "model.bin"))
}
