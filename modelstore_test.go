package kclust

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/kclust/blobstore"
	"github.com/hupe1980/kclust/internal/fs"
	"github.com/hupe1980/kclust/model"
)

func TestModelStore_SaveFailure(t *testing.T) {
	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule(".tmp-", fs.Fault{FailAfterBytes: -1, FailOnSync: true})
	metrics := &BasicMetricsCollector{}
	store := NewModelStore(blobstore.NewLocalStore(t.TempDir(), blobstore.WithFileSystem(ffs)), WithMetricsCollector(metrics))

	m, _, err := Fit(model.Dataset{{0, 0}, {1, 1}}, 1)
	require.NoError(t, err)

	err = store.SaveModel(context.Background(), "model.bin", m)
	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "save model", se.Op)
	assert.Equal(t, "model.bin", se.Name)
	assert.ErrorIs(t, err, fs.ErrInjected)
	assert.Equal(t, int64(1), metrics.GetStats().StorageErrors)
}

func TestModelStore_EncodeFailure(t *testing.T) {
	store := newMemoryModelStore()

	// Centroid dimension disagrees with the model.
	bad := &model.Model{Dim: 3, Centroids: []model.Sample{{1, 2}}}
	err := store.SaveModel(context.Background(), "bad.bin", bad)
	assert.ErrorIs(t, err, ErrStorage)

	names, err := store.Blobs().List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestModelStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	store := newMemoryModelStore()

	m, cs, err := Fit(model.Dataset{{0, 0}, {0, 1}, {5, 5}}, 2)
	require.NoError(t, err)

	require.NoError(t, store.SaveModel(ctx, "runs/1/model.bin", m))
	require.NoError(t, store.SaveClusters(ctx, "runs/1/clusters.bin", cs))

	gotModel, err := store.LoadModel(ctx, "runs/1/model.bin")
	require.NoError(t, err)
	assert.Equal(t, m.Centroids, gotModel.Centroids)
	assert.Equal(t, m.Iterations, gotModel.Iterations)

	gotClusters, err := store.LoadClusters(ctx, "runs/1/clusters.bin")
	require.NoError(t, err)
	require.NoError(t, gotClusters.Validate(3))
	assert.Equal(t, m.ID, gotClusters.ModelID)
}

func TestModelStore_LoadRejectsInconsistentClusters(t *testing.T) {
	ctx := context.Background()

	tests := map[string]func(cs *model.ClusterStore){
		"MemberWithoutRow": func(cs *model.ClusterStore) {
			cs.Clusters[0].Members = append(cs.Clusters[0].Members, model.Sample{9, 9})
		},
		"IDOutOfPosition": func(cs *model.ClusterStore) {
			cs.Clusters[0].ID, cs.Clusters[1].ID = cs.Clusters[1].ID, cs.Clusters[0].ID
		},
	}
	for name, corrupt := range tests {
		t.Run(name, func(t *testing.T) {
			store := newMemoryModelStore()
			m, cs, err := Fit(model.Dataset{{0, 0}, {0, 1}, {5, 5}}, 2)
			require.NoError(t, err)
			corrupt(cs)

			require.NoError(t, store.SaveModel(ctx, "model.bin", m))
			require.NoError(t, store.SaveClusters(ctx, "clusters.bin", cs))

			_, _, err = store.Load(ctx, "model.bin", "clusters.bin")
			var se *StorageError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, "clusters.bin", se.Name)
			assert.ErrorIs(t, err, model.ErrCoverage)

			_, err = OpenClassifier(ctx, store, "model.bin", "clusters.bin")
			assert.ErrorIs(t, err, ErrStorage)
		})
	}
}
