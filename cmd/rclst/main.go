// Command rclst trains a k-means model from ';'-delimited records on stdin
// and saves the model and the cluster membership.
//
// Usage:
//
//	rclst -k 4 -m model.bin -c clusters.bin < dataset.csv
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
	fs := pflag.NewFlagSet("rclst", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	config.AddK(fs)
	config.AddArtifacts(fs, "output")
	config.AddTraining(fs)
	config.AddStorage(fs)
	config.AddCommon(fs)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: rclst -k N -m MODEL -c CLUSTERS < input")
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
		err = errors.Join(cfg.RequireK(), cfg.RequireArtifacts())
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		fs.Usage()
		return 1
	}

	if err := train(ctx, cfg, stdin, stdout, stderr); err != nil {
		fmt.Fprintln(stderr, "rclst:", err)
		return 1
	}
	return 0
}

func train(ctx context.Context, cfg *config.Config, stdin io.Reader, stdout, stderr io.Writer) (err error) {
	logger, err := cfg.Logger(stderr)
	if err != nil {
		return err
	}
	opts, err := cfg.Options()
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

	opts = append(opts, kclust.WithLogger(logger), kclust.WithMetricsCollector(metrics))
	store := kclust.NewModelStore(blobs, opts...)

	if _, err := kclust.Train(ctx, stdin, cfg.K, store, cfg.Model, cfg.Clusters, opts...); err != nil {
		return err
	}

	fmt.Fprintln(stdout, "Save model to file:", cfg.Model)
	fmt.Fprintln(stdout, "Save clusters data to file:", cfg.Clusters)
	return nil
}
