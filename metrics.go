package kclust

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with other monitoring systems;
// PrometheusCollector covers Prometheus.
type MetricsCollector interface {
	// RecordTrain is called after each training run.
	// samples is the dataset size, iterations the number of Lloyd passes.
	RecordTrain(samples, k, iterations int, duration time.Duration, err error)

	// RecordClassify is called after each classified sample.
	RecordClassify(duration time.Duration, err error)

	// RecordStorage is called after each artifact save or load.
	// op is "save" or "load", bytes the encoded artifact size.
	RecordStorage(op string, bytes int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordTrain(int, int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordClassify(time.Duration, error)             {}
func (NoopMetricsCollector) RecordStorage(string, int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	TrainCount         atomic.Int64
	TrainErrors        atomic.Int64
	TrainIterations    atomic.Int64
	TrainTotalNanos    atomic.Int64
	ClassifyCount      atomic.Int64
	ClassifyErrors     atomic.Int64
	ClassifyTotalNanos atomic.Int64
	SaveCount          atomic.Int64
	LoadCount          atomic.Int64
	StorageErrors      atomic.Int64
	StorageBytes       atomic.Int64
}

// RecordTrain implements MetricsCollector.
func (b *BasicMetricsCollector) RecordTrain(_, _, iterations int, duration time.Duration, err error) {
	b.TrainCount.Add(1)
	b.TrainTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.TrainErrors.Add(1)
		return
	}
	b.TrainIterations.Add(int64(iterations))
}

// RecordClassify implements MetricsCollector.
func (b *BasicMetricsCollector) RecordClassify(duration time.Duration, err error) {
	b.ClassifyCount.Add(1)
	b.ClassifyTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ClassifyErrors.Add(1)
	}
}

// RecordStorage implements MetricsCollector.
func (b *BasicMetricsCollector) RecordStorage(op string, bytes int, _ time.Duration, err error) {
	switch op {
	case "save":
		b.SaveCount.Add(1)
	case "load":
		b.LoadCount.Add(1)
	}
	if err != nil {
		b.StorageErrors.Add(1)
		return
	}
	b.StorageBytes.Add(int64(bytes))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		TrainCount:       b.TrainCount.Load(),
		TrainErrors:      b.TrainErrors.Load(),
		TrainIterations:  b.TrainIterations.Load(),
		TrainAvgNanos:    avg(b.TrainTotalNanos.Load(), b.TrainCount.Load()),
		ClassifyCount:    b.ClassifyCount.Load(),
		ClassifyErrors:   b.ClassifyErrors.Load(),
		ClassifyAvgNanos: avg(b.ClassifyTotalNanos.Load(), b.ClassifyCount.Load()),
		SaveCount:        b.SaveCount.Load(),
		LoadCount:        b.LoadCount.Load(),
		StorageErrors:    b.StorageErrors.Load(),
		StorageBytes:     b.StorageBytes.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	TrainCount       int64
	TrainErrors      int64
	TrainIterations  int64
	TrainAvgNanos    int64
	ClassifyCount    int64
	ClassifyErrors   int64
	ClassifyAvgNanos int64
	SaveCount        int64
	LoadCount        int64
	StorageErrors    int64
	StorageBytes     int64
}

// PrometheusCollector exports metrics through a Prometheus registry.
type PrometheusCollector struct {
	registry      *prometheus.Registry
	opLatency     *prometheus.HistogramVec
	iterations    prometheus.Histogram
	samples       prometheus.Gauge
	clusters      prometheus.Gauge
	classified    *prometheus.CounterVec
	storageBytes  *prometheus.CounterVec
	storageErrors *prometheus.CounterVec
}

// NewPrometheusCollector creates a collector registered with its own registry.
func NewPrometheusCollector() *PrometheusCollector {
	p := &PrometheusCollector{
		registry: prometheus.NewRegistry(),
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kclust_operation_latency_seconds",
			Help:    "Latency of kclust operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"op", "status"}),
		iterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kclust_train_iterations",
			Help:    "Lloyd iterations per training run",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		}),
		samples: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kclust_train_samples",
			Help: "Samples in the most recent training run",
		}),
		clusters: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kclust_train_clusters",
			Help: "Cluster count of the most recent training run",
		}),
		classified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kclust_classified_total",
			Help: "Total samples classified",
		}, []string{"status"}),
		storageBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kclust_storage_bytes_total",
			Help: "Total artifact bytes saved or loaded",
		}, []string{"op"}),
		storageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kclust_storage_errors_total",
			Help: "Total failed artifact operations",
		}, []string{"op"}),
	}

	p.registry.MustRegister(
		p.opLatency,
		p.iterations,
		p.samples,
		p.clusters,
		p.classified,
		p.storageBytes,
		p.storageErrors,
	)
	return p
}

// Registry returns the registry holding the collector's metrics.
func (p *PrometheusCollector) Registry() *prometheus.Registry { return p.registry }

// WriteToTextfile writes the metrics in the node exporter textfile format.
func (p *PrometheusCollector) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, p.registry)
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordTrain implements MetricsCollector.
func (p *PrometheusCollector) RecordTrain(samples, k, iterations int, duration time.Duration, err error) {
	p.opLatency.WithLabelValues("train", status(err)).Observe(duration.Seconds())
	if err != nil {
		return
	}
	p.iterations.Observe(float64(iterations))
	p.samples.Set(float64(samples))
	p.clusters.Set(float64(k))
}

// RecordClassify implements MetricsCollector.
func (p *PrometheusCollector) RecordClassify(duration time.Duration, err error) {
	p.opLatency.WithLabelValues("classify", status(err)).Observe(duration.Seconds())
	p.classified.WithLabelValues(status(err)).Inc()
}

// RecordStorage implements MetricsCollector.
func (p *PrometheusCollector) RecordStorage(op string, bytes int, duration time.Duration, err error) {
	p.opLatency.WithLabelValues(op, status(err)).Observe(duration.Seconds())
	if err != nil {
		p.storageErrors.WithLabelValues(op).Inc()
		return
	}
	p.storageBytes.WithLabelValues(op).Add(float64(bytes))
}
