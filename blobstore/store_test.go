package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/kclust/internal/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, s Store, name string) []byte {
	t.Helper()
	rc, err := s.Get(context.Background(), name)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return data
}

func testStoreContract(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("GetMissing", func(t *testing.T) {
		_, err := s.Get(ctx, "missing.bin")
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("PutGet", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "model.bin", []byte("centroids")))
		assert.Equal(t, []byte("centroids"), readAll(t, s, "model.bin"))
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "model.bin", []byte("v2")))
		assert.Equal(t, []byte("v2"), readAll(t, s, "model.bin"))
	})

	t.Run("PutCopiesInput", func(t *testing.T) {
		buf := []byte("abc")
		require.NoError(t, s.Put(ctx, "copy.bin", buf))
		buf[0] = 'x'
		assert.Equal(t, []byte("abc"), readAll(t, s, "copy.bin"))
	})

	t.Run("List", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "runs/a.clusters", []byte("a")))
		require.NoError(t, s.Put(ctx, "runs/b.clusters", []byte("b")))

		names, err := s.List(ctx, "runs/")
		require.NoError(t, err)
		assert.Equal(t, []string{"runs/a.clusters", "runs/b.clusters"}, names)

		names, err = s.List(ctx, "nothing")
		require.NoError(t, err)
		assert.Empty(t, names)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, "copy.bin"))
		_, err := s.Get(ctx, "copy.bin")
		assert.ErrorIs(t, err, ErrNotFound)

		// Deleting twice is fine.
		require.NoError(t, s.Delete(ctx, "copy.bin"))
	})

	t.Run("CanceledContext", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		assert.ErrorIs(t, s.Put(cctx, "late.bin", []byte("x")), context.Canceled)
		_, err := s.Get(cctx, "model.bin")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestMemoryStore(t *testing.T) {
	testStoreContract(t, NewMemoryStore())
}

func TestLocalStore(t *testing.T) {
	testStoreContract(t, NewLocalStore(t.TempDir()))
}

func TestLocalStore_EmptyRootUsesPaths(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStore("")
	path := filepath.Join(dir, "nested", "model.bin")

	require.NoError(t, s.Put(context.Background(), path, []byte("data")))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), raw)
	assert.Equal(t, []byte("data"), readAll(t, s, path))
}

func TestLocalStore_ListMissingRoot(t *testing.T) {
	s := NewLocalStore(filepath.Join(t.TempDir(), "absent"))
	names, err := s.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestLocalStore_FailedWriteLeavesNoTrace(t *testing.T) {
	tests := []struct {
		name  string
		fault fs.Fault
	}{
		{"Write", fs.Fault{FailAfterBytes: 2}},
		{"Sync", fs.Fault{FailAfterBytes: -1, FailOnSync: true}},
		{"Close", fs.Fault{FailAfterBytes: -1, FailOnClose: true}},
		{"Open", fs.Fault{FailAfterBytes: -1, FailOnOpen: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			ffs := fs.NewFaultyFS(nil)
			ffs.AddRule(".tmp-", tt.fault)
			s := NewLocalStore(dir, WithFileSystem(ffs))

			err := s.Put(context.Background(), "model.bin", []byte("payload"))
			require.Error(t, err)
			assert.ErrorIs(t, err, fs.ErrInjected)
			assert.Equal(t, 0, ffs.OpenFiles())

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestLocalStore_FailedWriteKeepsPrevious(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	require.NoError(t, NewLocalStore(dir).Put(ctx, "model.bin", []byte("old")))

	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule(".tmp-", fs.Fault{FailAfterBytes: -1, FailOnSync: true})
	s := NewLocalStore(dir, WithFileSystem(ffs))

	require.Error(t, s.Put(ctx, "model.bin", []byte("new")))
	assert.Equal(t, []byte("old"), readAll(t, s, "model.bin"))
}
