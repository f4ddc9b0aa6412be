// Package config loads command line configuration from flags, environment
// variables prefixed with KCLUST_ and an optional YAML file.
//
// Precedence, highest first: explicitly set flags, environment, config file,
// flag defaults.
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/hupe1980/kclust"
	"github.com/hupe1980/kclust/blobstore"
	"github.com/hupe1980/kclust/blobstore/minio"
	"github.com/hupe1980/kclust/blobstore/s3"
	"github.com/hupe1980/kclust/distance"
	"github.com/hupe1980/kclust/persistence"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "KCLUST"

// Flag and key names. Environment variables use the upper-cased key with
// dashes replaced by underscores, e.g. KCLUST_STORAGE_ROOT.
const (
	KeyConfig        = "config"
	KeyK             = "kmeans"
	KeyModel         = "model"
	KeyClusters      = "clust"
	KeyMaxIterations = "max-iterations"
	KeyMetric        = "metric"
	KeyCompression   = "compression"
	KeyStorage       = "storage"
	KeyStorageRoot   = "storage-root"
	KeyBucket        = "bucket"
	KeyPrefix        = "prefix"
	KeyEndpoint      = "endpoint"
	KeyRegion        = "region"
	KeyAccessKey     = "access-key"
	KeySecretKey     = "secret-key"
	KeySecure        = "secure"
	KeyPathStyle     = "path-style"
	KeyCacheSize     = "cache-size"
	KeyLogLevel      = "log-level"
	KeyLogFormat     = "log-format"
	KeyMetricsFile   = "metrics-file"
)

// Storage backends.
const (
	BackendLocal = "local"
	BackendMinio = "minio"
	BackendS3    = "s3"
)

// ErrMissing is returned when a required setting has no value.
var ErrMissing = errors.New("required setting not set")

// Storage selects and configures the blob store backend.
type Storage struct {
	Backend   string
	Root      string
	Bucket    string
	Prefix    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Secure    bool
	PathStyle bool
	CacheSize int64
}

// Log configures logging.
type Log struct {
	Level  string
	Format string
}

// Config is the resolved configuration of a command.
type Config struct {
	K             int
	Model         string
	Clusters      string
	MaxIterations int
	Metric        string
	Compression   string
	Storage       Storage
	Log           Log
	MetricsFile   string
}

// AddK registers the cluster count flag.
func AddK(fs *pflag.FlagSet) {
	fs.IntP(KeyK, "k", 0, "number of clusters for k-means algorithm")
}

// AddTraining registers flags tuning the trainer.
func AddTraining(fs *pflag.FlagSet) {
	fs.Int(KeyMaxIterations, 100, "maximum number of Lloyd iterations")
	fs.String(KeyMetric, "l2", "distance metric (l2, euclidean)")
}

// AddArtifacts registers the model and clusters artifact names.
func AddArtifacts(fs *pflag.FlagSet, verb string) {
	fs.StringP(KeyModel, "m", "", "name of "+verb+" model file")
	fs.StringP(KeyClusters, "c", "", "name of "+verb+" clusters data file")
}

// AddStorage registers the blob store flags.
func AddStorage(fs *pflag.FlagSet) {
	fs.String(KeyCompression, "none", "artifact compression (none, lz4, zstd)")
	fs.String(KeyStorage, BackendLocal, "storage backend (local, minio, s3)")
	fs.String(KeyStorageRoot, "", "root directory of the local backend (default: paths as given)")
	fs.String(KeyBucket, "", "bucket of the minio/s3 backend")
	fs.String(KeyPrefix, "", "key prefix of the minio/s3 backend")
	fs.String(KeyEndpoint, "", "endpoint of the minio backend, or a custom s3 endpoint")
	fs.String(KeyRegion, "", "region of the minio/s3 backend")
	fs.String(KeyAccessKey, "", "access key of the minio backend")
	fs.String(KeySecretKey, "", "secret key of the minio backend")
	fs.Bool(KeySecure, true, "use TLS for the minio backend")
	fs.Bool(KeyPathStyle, false, "use path-style addressing for the s3 backend")
	fs.Int64(KeyCacheSize, 0, "bytes of artifacts kept in an in-memory read cache (0 disables)")
}

// AddCommon registers flags shared by every command.
func AddCommon(fs *pflag.FlagSet) {
	fs.String(KeyConfig, "", "path to a YAML config file")
	fs.String(KeyLogLevel, "warn", "log level (debug, info, warn, error)")
	fs.String(KeyLogFormat, "text", "log format (text, json)")
	fs.String(KeyMetricsFile, "", "write Prometheus metrics to this textfile on exit")
}

// Load resolves the configuration for a parsed flag set.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}

	if path := v.GetString(KeyConfig); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	return &Config{
		K:             v.GetInt(KeyK),
		Model:         v.GetString(KeyModel),
		Clusters:      v.GetString(KeyClusters),
		MaxIterations: v.GetInt(KeyMaxIterations),
		Metric:        v.GetString(KeyMetric),
		Compression:   v.GetString(KeyCompression),
		Storage: Storage{
			Backend:   strings.ToLower(v.GetString(KeyStorage)),
			Root:      v.GetString(KeyStorageRoot),
			Bucket:    v.GetString(KeyBucket),
			Prefix:    v.GetString(KeyPrefix),
			Endpoint:  v.GetString(KeyEndpoint),
			Region:    v.GetString(KeyRegion),
			AccessKey: v.GetString(KeyAccessKey),
			SecretKey: v.GetString(KeySecretKey),
			Secure:    v.GetBool(KeySecure),
			PathStyle: v.GetBool(KeyPathStyle),
			CacheSize: v.GetInt64(KeyCacheSize),
		},
		Log: Log{
			Level:  v.GetString(KeyLogLevel),
			Format: v.GetString(KeyLogFormat),
		},
		MetricsFile: v.GetString(KeyMetricsFile),
	}, nil
}

// RequireK checks that a cluster count was given.
func (c *Config) RequireK() error {
	if c.K == 0 {
		return fmt.Errorf("%w: number of clusters (--%s)", ErrMissing, KeyK)
	}
	return nil
}

// RequireArtifacts checks that both artifact names were given.
func (c *Config) RequireArtifacts() error {
	if c.Model == "" {
		return fmt.Errorf("%w: model file (--%s)", ErrMissing, KeyModel)
	}
	if c.Clusters == "" {
		return fmt.Errorf("%w: clusters data file (--%s)", ErrMissing, KeyClusters)
	}
	return nil
}

// Logger builds the configured logger writing to w.
func (c *Config) Logger(w io.Writer) (*kclust.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	switch strings.ToLower(c.Log.Format) {
	case "", "text":
		return kclust.NewTextLogger(w, level), nil
	case "json":
		return kclust.NewJSONLogger(w, level), nil
	default:
		return nil, fmt.Errorf("unsupported log format %q", c.Log.Format)
	}
}

// BlobStore creates the configured blob store, wrapped in a read cache when
// a cache size is set.
func (c *Config) BlobStore(ctx context.Context) (blobstore.Store, error) {
	store, err := c.backend(ctx)
	if err != nil {
		return nil, err
	}
	if c.Storage.CacheSize > 0 {
		return blobstore.NewCachingStore(store, c.Storage.CacheSize), nil
	}
	return store, nil
}

func (c *Config) backend(ctx context.Context) (blobstore.Store, error) {
	st := c.Storage
	switch st.Backend {
	case "", BackendLocal:
		return blobstore.NewLocalStore(st.Root), nil
	case BackendMinio:
		if st.Endpoint == "" || st.Bucket == "" {
			return nil, fmt.Errorf("%w: minio backend needs --%s and --%s", ErrMissing, KeyEndpoint, KeyBucket)
		}
		store, err := minio.Dial(minio.Config{
			Endpoint:  st.Endpoint,
			AccessKey: st.AccessKey,
			SecretKey: st.SecretKey,
			Region:    st.Region,
			Secure:    st.Secure,
			Bucket:    st.Bucket,
			Prefix:    st.Prefix,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case BackendS3:
		if st.Bucket == "" {
			return nil, fmt.Errorf("%w: s3 backend needs --%s", ErrMissing, KeyBucket)
		}
		store, err := s3.New(ctx, st.Bucket,
			s3.WithPrefix(st.Prefix),
			s3.WithRegion(st.Region),
			s3.WithEndpoint(st.Endpoint),
			s3.WithPathStyle(st.PathStyle),
		)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", st.Backend)
	}
}

// Options translates the training and storage settings into library options.
func (c *Config) Options() ([]kclust.Option, error) {
	metric, err := distance.ParseMetric(c.Metric)
	if err != nil {
		return nil, err
	}
	compression, err := persistence.ParseCompression(c.Compression)
	if err != nil {
		return nil, err
	}
	return []kclust.Option{
		kclust.WithMetric(metric),
		kclust.WithMaxIterations(c.MaxIterations),
		kclust.WithCompression(compression),
	}, nil
}

// Metrics returns the collector to use and a function that flushes it.
// Without a metrics file the collector is a no-op and flush does nothing.
func (c *Config) Metrics() (kclust.MetricsCollector, func() error) {
	if c.MetricsFile == "" {
		return kclust.NoopMetricsCollector{}, func() error { return nil }
	}
	p := kclust.NewPrometheusCollector()
	return p, func() error { return p.WriteToTextfile(c.MetricsFile) }
}
