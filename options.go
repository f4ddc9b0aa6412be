package kclust

import (
	"log/slog"
	"os"

	"github.com/hupe1980/kclust/distance"
	"github.com/hupe1980/kclust/ingest"
	"github.com/hupe1980/kclust/internal/kmeans"
	"github.com/hupe1980/kclust/persistence"
)

type options struct {
	schema           ingest.Schema
	metric           distance.Metric
	maxIterations    int
	compression      persistence.Compression
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures training, storage and classification behavior.
type Option func(*options)

// WithSchema configures the layout of training records.
//
// The default is 8 ';'-separated columns: six features, floor and max floor.
func WithSchema(schema ingest.Schema) Option {
	return func(o *options) {
		o.schema = schema
	}
}

// WithMetric configures the distance metric used for training and classification.
// Both Euclidean metrics produce the same clustering; MetricEuclidean only
// changes the reported distances.
func WithMetric(m distance.Metric) Option {
	return func(o *options) {
		o.metric = m
	}
}

// WithMaxIterations bounds the number of Lloyd iterations.
// Values <= 0 select kmeans.DefaultMaxIterations.
func WithMaxIterations(n int) Option {
	return func(o *options) {
		o.maxIterations = n
	}
}

// WithCompression configures how artifacts are compressed when saved.
// Payloads that do not shrink are stored uncompressed regardless.
func WithCompression(c persistence.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &kclust.BasicMetricsCollector{}
//	res, _ := kclust.Train(ctx, input, 4, store, "model.bin", "clusters.bin", kclust.WithMetricsCollector(metrics))
//	stats := metrics.GetStats()
//	fmt.Printf("Runs: %d, Iterations: %d\n", stats.TrainCount, stats.TrainIterations)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := kclust.NewJSONLogger(os.Stderr, slog.LevelInfo)
//	store := kclust.NewModelStore(blobs, kclust.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger on stderr with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(os.Stderr, level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(os.Stderr, level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		schema:           ingest.DefaultSchema(),
		metric:           distance.MetricL2,
		maxIterations:    kmeans.DefaultMaxIterations,
		compression:      persistence.CompressionNone,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.maxIterations <= 0 {
		o.maxIterations = kmeans.DefaultMaxIterations
	}
	return o
}
