// Package kclust provides offline k-means clustering and nearest-cluster
// classification of fixed-dimension numeric records.
//
// A run has two independent halves that only communicate through persisted
// artifacts: training writes a model and its cluster store, classification
// reads them back.
//
// # Quick Start
//
// Training from ';'-delimited records (six features, floor, max floor):
//
//	ctx := context.Background()
//	store := kclust.NewModelStore(blobstore.NewLocalStore("./data"))
//	res, _ := kclust.Train(ctx, os.Stdin, 4, store, "model.bin", "clusters.bin")
//	fmt.Println(res.Model.K(), res.Model.Converged)
//
// Classification of 7-field query records:
//
//	clf, _ := kclust.OpenClassifier(ctx, store, "model.bin", "clusters.bin")
//	_ = clf.Run(os.Stdin, os.Stdout) // members closest first, then "Size: <k>"
//
// # Ingestion
//
// Training records with an empty floor or max-floor field are skipped. The
// floor columns are folded into a single feature: 0 for the ground or top
// floor, 1 otherwise. Empty feature cells are imputed with the mean of the
// present values in that column.
//
// # Training
//
// Centroids are seeded deterministically by farthest-point selection starting
// at the first sample, then refined with Lloyd iterations until assignments
// stop changing or the iteration limit is reached:
//
//	m, clusters, _ := kclust.Fit(data, 3, kclust.WithMaxIterations(50))
//
// # Storage
//
// Artifacts go through a blobstore.Store: local files, memory, MinIO or S3.
// They carry a checksum and can be compressed:
//
//	s3Store, _ := s3.New(ctx, "my-bucket", s3.WithPrefix("runs/2024-06/"))
//	store := kclust.NewModelStore(s3Store, kclust.WithCompression(persistence.CompressionZSTD))
//
// # Errors
//
// Every failure is one of *FormatError, *InvalidParameterError or
// *StorageError and matches ErrFormat, ErrInvalidParameter or ErrStorage
// respectively with errors.Is.
//
// # Observability
//
// Structured logging and metrics are opt-in:
//
//	metrics := kclust.NewPrometheusCollector()
//	store := kclust.NewModelStore(blobs,
//	    kclust.WithLogger(kclust.NewJSONLogger(os.Stderr, slog.LevelInfo)),
//	    kclust.WithMetricsCollector(metrics),
//	)
package kclust
