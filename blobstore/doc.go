// Package blobstore provides the storage abstraction for persisted kclust artifacts.
//
// Store is the interface for reading and writing named blobs (models, cluster stores).
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: Local filesystem with atomic temp-file writes
//   - MemoryStore: In-memory store for tests and pipelines
//   - minio.Store: MinIO and other S3-compatible storage
//   - s3.Store: Amazon S3
//
// # Custom Implementations
//
// Implement the Store interface to support custom storage backends:
//
//	type Store interface {
//	    Get(ctx, name) (io.ReadCloser, error) // Open for reading
//	    Put(ctx, name, data) error            // Atomic write
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
package blobstore
