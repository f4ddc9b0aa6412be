package blobstore

import (
	"bytes"
	"container/list"
	"context"
	"io"
	"sync"
	"sync/atomic"
)

// CachingStore wraps a Store and keeps recently read blobs in memory.
//
// Whole blobs are cached up to a byte capacity and evicted least recently
// used first. Put and Delete invalidate the cached copy before writing through.
type CachingStore struct {
	inner Store

	mu        sync.Mutex
	capacity  int64
	size      int64
	items     map[string]*list.Element
	evictList *list.List

	hits   atomic.Int64
	misses atomic.Int64
}

type cacheEntry struct {
	name  string
	value []byte
}

// NewCachingStore creates a CachingStore holding at most capacity bytes.
// A capacity <= 0 disables caching; every call passes through.
func NewCachingStore(inner Store, capacity int64) *CachingStore {
	return &CachingStore{
		inner:     inner,
		capacity:  capacity,
		items:     make(map[string]*list.Element),
		evictList: list.New(),
	}
}

// Get returns the cached blob or reads it from the wrapped store.
func (s *CachingStore) Get(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if data, ok := s.lookup(name); ok {
		s.hits.Add(1)
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	s.misses.Add(1)

	rc, err := s.inner.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	s.add(name, data)

	return io.NopCloser(bytes.NewReader(data)), nil
}

// Put invalidates the cached copy and writes through.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.invalidate(name)
	return s.inner.Put(ctx, name, data)
}

// Delete invalidates the cached copy and deletes from the wrapped store.
func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.invalidate(name)
	return s.inner.Delete(ctx, name)
}

// List is not cached.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// Stats returns the hit and miss counts.
func (s *CachingStore) Stats() (hits, misses int64) {
	return s.hits.Load(), s.misses.Load()
}

// Size returns the number of cached bytes.
func (s *CachingStore) Size() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

func (s *CachingStore) lookup(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.items[name]
	if !ok {
		return nil, false
	}
	s.evictList.MoveToFront(ent)
	return ent.Value.(*cacheEntry).value, true
}

func (s *CachingStore) add(name string, data []byte) {
	itemSize := int64(len(data))

	s.mu.Lock()
	defer s.mu.Unlock()

	// Blobs larger than the whole cache are never admitted.
	if itemSize > s.capacity {
		return
	}
	if ent, ok := s.items[name]; ok {
		s.removeElement(ent)
	}

	for s.size+itemSize > s.capacity {
		ent := s.evictList.Back()
		if ent == nil {
			break
		}
		s.removeElement(ent)
	}

	s.items[name] = s.evictList.PushFront(&cacheEntry{name: name, value: data})
	s.size += itemSize
}

func (s *CachingStore) invalidate(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ent, ok := s.items[name]; ok {
		s.removeElement(ent)
	}
}

func (s *CachingStore) removeElement(ent *list.Element) {
	s.evictList.Remove(ent)
	e := ent.Value.(*cacheEntry)
	delete(s.items, e.name)
	s.size -= int64(len(e.value))
}
