// Package s3 provides an Amazon S3 implementation of the blobstore.Store interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("models/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	clf, err := kclust.OpenClassifier(ctx, store, "model.bin", "clusters.bin")
//
// The store talks to S3 through the narrow Client interface, so tests can
// substitute a mock for *s3.Client.
package s3
