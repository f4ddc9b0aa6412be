// Command rclss classifies ';'-delimited records from stdin against a model
// trained by rclst. For every record it prints the members of the nearest
// cluster, closest first, and finally the number of clusters.
//
// Usage:
//
//	rclss -m model.bin -c clusters.bin < queries.csv
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/hupe1980/kclust"
	"github.com/hupe1980/kclust/internal/config"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("rclss", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	config.AddArtifacts(fs, "input")
	config.AddStorage(fs)
	config.AddCommon(fs)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: rclss -m MODEL -c CLUSTERS < input")
		fmt.Fprintln(stderr, "Options:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 1
	}

	cfg, err := config.Load(fs)
	if err == nil {
		err = cfg.RequireArtifacts()
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		fs.Usage()
		return 1
	}

	if err := classify(ctx, cfg, stdin, stdout, stderr); err != nil {
		fmt.Fprintln(stderr, "rclss:", err)
		return 1
	}
	return 0
}

func classify(ctx context.Context, cfg *config.Config, stdin io.Reader, stdout, stderr io.Writer) (err error) {
	logger, err := cfg.Logger(stderr)
	if err != nil {
		return err
	}
	blobs, err := cfg.BlobStore(ctx)
	if err != nil {
		return err
	}

	metrics, flush := cfg.Metrics()
	defer func() {
		if ferr := flush(); ferr != nil && err == nil {
			err = ferr
		}
	}()

	opts := []kclust.Option{kclust.WithLogger(logger), kclust.WithMetricsCollector(metrics)}
	store := kclust.NewModelStore(blobs, opts...)

	clf, err := kclust.OpenClassifier(ctx, store, cfg.Model, cfg.Clusters, opts...)
	if err != nil {
		return err
	}
	return clf.Run(stdin, stdout)
}
