package kclust

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/kclust/blobstore"
	"github.com/hupe1980/kclust/model"
	"github.com/hupe1980/kclust/persistence"
)

// ModelStore saves and loads trained models and their cluster stores
// through a blob store.
type ModelStore struct {
	blobs blobstore.Store
	opts  options
}

// NewModelStore creates a ModelStore on top of blobs.
// Only WithCompression, WithLogger and WithMetricsCollector apply.
func NewModelStore(blobs blobstore.Store, optFns ...Option) *ModelStore {
	return &ModelStore{
		blobs: blobs,
		opts:  applyOptions(optFns),
	}
}

// Blobs returns the underlying blob store.
func (s *ModelStore) Blobs() blobstore.Store { return s.blobs }

// SaveModel encodes m and writes it under name.
func (s *ModelStore) SaveModel(ctx context.Context, name string, m *model.Model) error {
	return s.save(ctx, "save model", name, func(buf *bytes.Buffer) error {
		return persistence.EncodeModel(buf, m, s.opts.compression)
	})
}

// SaveClusters encodes cs and writes it under name.
func (s *ModelStore) SaveClusters(ctx context.Context, name string, cs *model.ClusterStore) error {
	return s.save(ctx, "save clusters", name, func(buf *bytes.Buffer) error {
		return persistence.EncodeClusters(buf, cs, s.opts.compression)
	})
}

// LoadModel reads the model stored under name.
func (s *ModelStore) LoadModel(ctx context.Context, name string) (*model.Model, error) {
	var m *model.Model
	err := s.load(ctx, "load model", name, func(buf *bytes.Reader) error {
		var err error
		m, err = persistence.DecodeModel(buf)
		return err
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// LoadClusters reads the cluster store stored under name.
func (s *ModelStore) LoadClusters(ctx context.Context, name string) (*model.ClusterStore, error) {
	var cs *model.ClusterStore
	err := s.load(ctx, "load clusters", name, func(buf *bytes.Reader) error {
		var err error
		cs, err = persistence.DecodeClusters(buf)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cs, nil
}

// Load reads a model and its cluster store and checks that they belong together.
func (s *ModelStore) Load(ctx context.Context, modelName, clustersName string) (*model.Model, *model.ClusterStore, error) {
	m, err := s.LoadModel(ctx, modelName)
	if err != nil {
		return nil, nil, err
	}
	cs, err := s.LoadClusters(ctx, clustersName)
	if err != nil {
		return nil, nil, err
	}

	switch {
	case cs.ModelID != m.ID:
		err = fmt.Errorf("%w: clusters reference model %s, loaded model is %s", ErrModelMismatch, cs.ModelID, m.ID)
	case cs.Dim != m.Dim:
		err = fmt.Errorf("%w: clusters have dimension %d, model has %d", ErrModelMismatch, cs.Dim, m.Dim)
	case cs.Len() != m.K():
		err = fmt.Errorf("%w: %d clusters for %d centroids", ErrModelMismatch, cs.Len(), m.K())
	default:
		// Members and row indexes must still partition the training rows.
		err = cs.Validate(cs.Size())
	}
	if err != nil {
		return nil, nil, &StorageError{Op: "load", Name: clustersName, Err: err}
	}
	return m, cs, nil
}

func (s *ModelStore) save(ctx context.Context, op, name string, encode func(*bytes.Buffer) error) error {
	start := time.Now()
	var buf bytes.Buffer

	err := encode(&buf)
	if err == nil {
		err = s.blobs.Put(ctx, name, buf.Bytes())
	}
	if err != nil {
		err = &StorageError{Op: op, Name: name, Err: err}
	}

	s.opts.metricsCollector.RecordStorage("save", buf.Len(), time.Since(start), err)
	s.opts.logger.LogSave(ctx, name, buf.Len(), err)
	return err
}

func (s *ModelStore) load(ctx context.Context, op, name string, decode func(*bytes.Reader) error) (err error) {
	start := time.Now()
	size := 0
	defer func() {
		if err != nil {
			err = &StorageError{Op: op, Name: name, Err: err}
		}
		s.opts.metricsCollector.RecordStorage("load", size, time.Since(start), err)
		s.opts.logger.LogLoad(ctx, name, err)
	}()

	rc, err := s.blobs.Get(ctx, name)
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	var buf bytes.Buffer
	if _, err = buf.ReadFrom(rc); err != nil {
		return err
	}
	size = buf.Len()

	return decode(bytes.NewReader(buf.Bytes()))
}
