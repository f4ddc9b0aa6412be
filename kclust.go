package kclust

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/kclust/distance"
	"github.com/hupe1980/kclust/ingest"
	"github.com/hupe1980/kclust/internal/classify"
	"github.com/hupe1980/kclust/internal/kmeans"
	"github.com/hupe1980/kclust/model"
)

// TrainResult describes a completed and persisted training run.
type TrainResult struct {
	Model    *model.Model
	Clusters *model.ClusterStore
	Report   *ingest.Report
}

// Fit clusters an in-memory dataset into k groups.
//
// The returned model and cluster store share a fresh model id. Every sample
// of data belongs to exactly one cluster.
func Fit(data model.Dataset, k int, optFns ...Option) (*model.Model, *model.ClusterStore, error) {
	o := applyOptions(optFns)
	return fit(context.Background(), data, k, o)
}

func fit(ctx context.Context, data model.Dataset, k int, o options) (m *model.Model, cs *model.ClusterStore, err error) {
	start := time.Now()
	iterations := 0
	defer func() {
		o.metricsCollector.RecordTrain(len(data), k, iterations, time.Since(start), err)
		if m != nil {
			o.logger.WithModel(m.ID).LogTrain(ctx, len(data), k, iterations, m.Converged, time.Since(start), err)
		} else {
			o.logger.LogTrain(ctx, len(data), k, iterations, false, time.Since(start), err)
		}
	}()

	res, err := kmeans.Train(data.Vectors(), k, kmeans.Options{
		Metric:        o.metric,
		MaxIterations: o.maxIterations,
	})
	if err != nil {
		return nil, nil, translateError(err)
	}
	iterations = res.Iterations

	centroids := make([]model.Sample, len(res.Centroids))
	for i, c := range res.Centroids {
		centroids[i] = c
	}

	mdl := &model.Model{
		ID:         uuid.New(),
		Dim:        data.Dim(),
		Metric:     o.metric,
		Centroids:  centroids,
		Iterations: res.Iterations,
		Converged:  res.Converged,
		CreatedAt:  time.Now().UTC().Round(0),
	}

	store, err := model.NewClusterStore(mdl.ID, data, res.Assignments, k)
	if err != nil {
		return nil, nil, err
	}
	if err := store.Validate(len(data)); err != nil {
		return nil, nil, err
	}
	return mdl, store, nil
}

// Train reads training records from r, clusters them into k groups and saves
// the model and the cluster store under the given names.
func Train(ctx context.Context, r io.Reader, k int, store *ModelStore, modelName, clustersName string, optFns ...Option) (*TrainResult, error) {
	o := applyOptions(optFns)

	in, err := ingest.New(o.schema)
	if err != nil {
		return nil, translateError(err)
	}
	data, report, err := in.Read(r)
	if err != nil {
		return nil, translateError(err)
	}
	o.logger.LogIngest(ctx, report.Rows, report.Skipped, imputedCells(report))

	m, cs, err := fit(ctx, data, k, o)
	if err != nil {
		return nil, err
	}

	if err := store.SaveModel(ctx, modelName, m); err != nil {
		return nil, err
	}
	if err := store.SaveClusters(ctx, clustersName, cs); err != nil {
		return nil, err
	}

	return &TrainResult{Model: m, Clusters: cs, Report: report}, nil
}

func imputedCells(r *ingest.Report) int {
	n := 0
	for _, c := range r.Imputed {
		n += c
	}
	return n
}

// Member is a cluster member ranked against a query.
type Member struct {
	Sample model.Sample
	// Row is the zero-based index of the member in the training set.
	Row      int
	Distance float64
}

// Classification is the result of classifying one sample.
type Classification struct {
	Cluster int
	// Distance is the distance between the query and the cluster centroid.
	Distance float64
	// Members holds the cluster members, closest first.
	Members []Member
}

// Classifier assigns samples to the clusters of a persisted model.
// It is read-only and safe for concurrent use.
type Classifier struct {
	model     *model.Model
	clusters  *model.ClusterStore
	centroids [][]float64
	distFunc  distance.Func
	ingestor  *ingest.Ingestor
	opts      options
}

// NewClassifier creates a Classifier from an already loaded model and cluster store.
func NewClassifier(m *model.Model, cs *model.ClusterStore, optFns ...Option) (*Classifier, error) {
	o := applyOptions(optFns)

	if cs.ModelID != m.ID || cs.Len() != m.K() || cs.Dim != m.Dim {
		return nil, fmt.Errorf("%w: model %s", ErrModelMismatch, m.ID)
	}

	distFunc, err := distance.Provider(m.Metric)
	if err != nil {
		return nil, translateError(err)
	}

	// Queries carry the model's coordinates directly.
	schema := o.schema
	schema.Columns = m.Dim + 1
	in, err := ingest.New(schema)
	if err != nil {
		return nil, translateError(err)
	}

	centroids := make([][]float64, len(m.Centroids))
	for i, c := range m.Centroids {
		centroids[i] = c
	}

	return &Classifier{
		model:     m,
		clusters:  cs,
		centroids: centroids,
		distFunc:  distFunc,
		ingestor:  in,
		opts:      o,
	}, nil
}

// OpenClassifier loads a model and its cluster store and creates a Classifier.
func OpenClassifier(ctx context.Context, store *ModelStore, modelName, clustersName string, optFns ...Option) (*Classifier, error) {
	m, cs, err := store.Load(ctx, modelName, clustersName)
	if err != nil {
		return nil, err
	}
	return NewClassifier(m, cs, optFns...)
}

// Model returns the loaded model.
func (c *Classifier) Model() *model.Model { return c.model }

// NumClusters returns the number of clusters loaded.
func (c *Classifier) NumClusters() int { return c.clusters.Len() }

// Classify assigns q to its nearest centroid and ranks that cluster's members
// by distance to q. Ties resolve to the lowest cluster id; equally distant
// members keep their stored order.
func (c *Classifier) Classify(q model.Sample) (*Classification, error) {
	start := time.Now()
	res, err := c.classify(q)
	c.opts.metricsCollector.RecordClassify(time.Since(start), err)
	if res != nil {
		c.opts.logger.LogClassify(context.Background(), res.Cluster, len(res.Members), err)
	} else {
		c.opts.logger.LogClassify(context.Background(), -1, 0, err)
	}
	return res, err
}

func (c *Classifier) classify(q model.Sample) (*Classification, error) {
	if len(q) != c.model.Dim {
		return nil, &FormatError{Err: fmt.Errorf("%w: expected %d coordinates, got %d", ErrDimensionMismatch, c.model.Dim, len(q))}
	}

	id, dist := classify.Nearest(q, c.centroids, c.distFunc)
	cluster := &c.clusters.Clusters[id]

	members := make([][]float64, len(cluster.Members))
	for i, s := range cluster.Members {
		members[i] = s
	}
	ranked := classify.Rank(q, members, c.distFunc)

	out := &Classification{
		Cluster:  id,
		Distance: dist,
		Members:  make([]Member, len(ranked)),
	}
	for i, r := range ranked {
		row := -1
		// Members are stored in ascending row order.
		if v, err := cluster.Rows.Select(uint32(r.Index)); err == nil {
			row = int(v)
		}
		out.Members[i] = Member{
			Sample:   cluster.Members[r.Index],
			Row:      row,
			Distance: r.Distance,
		}
	}
	return out, nil
}

// ClassifyLine parses a query record and classifies it.
func (c *Classifier) ClassifyLine(line string) (*Classification, error) {
	q, err := c.ingestor.ParseQuery(line)
	if err != nil {
		return nil, translateError(err)
	}
	return c.Classify(q)
}

// Run classifies every non-empty line of r and writes the members of each
// matched cluster to w, one per line and closest first. After the input is
// exhausted it writes a summary line with the number of clusters loaded.
func (c *Classifier) Run(r io.Reader, w io.Writer) error {
	sep := c.ingestor.Schema().Delimiter
	bw := bufio.NewWriter(w)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), ingest.MaxLineSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		res, err := c.ClassifyLine(line)
		if err != nil {
			var fe *FormatError
			if errors.As(err, &fe) && fe.Line == 0 {
				fe.Line = lineNo
			}
			_ = bw.Flush()
			return err
		}
		for _, m := range res.Members {
			if _, err := bw.WriteString(m.Sample.Text(sep) + "\n"); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		_ = bw.Flush()
		if errors.Is(err, bufio.ErrTooLong) {
			return &FormatError{Line: lineNo + 1, Err: ingest.TooLong()}
		}
		return fmt.Errorf("read input: %w", err)
	}

	if _, err := bw.WriteString("Size: " + strconv.Itoa(c.NumClusters()) + "\n"); err != nil {
		return err
	}
	return bw.Flush()
}
