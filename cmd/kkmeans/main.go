// Command kkmeans clusters 2-D points read from stdin, one "x;y" pair per
// line, and prints every point as "x;y;cluster".
//
// Usage:
//
//	kkmeans -k 3 < points.csv
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/hupe1980/kclust"
	"github.com/hupe1980/kclust/internal/config"
	"github.com/hupe1980/kclust/model"
	"github.com/hupe1980/kclust/split"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("kkmeans", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	config.AddK(fs)
	config.AddTraining(fs)
	config.AddCommon(fs)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: kkmeans -k N < points")
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
		err = cfg.RequireK()
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		fs.Usage()
		return 1
	}

	if err := cluster(ctx, cfg, stdin, stdout, stderr); err != nil {
		fmt.Fprintln(stderr, "kkmeans:", err)
		return 1
	}
	return 0
}

func cluster(ctx context.Context, cfg *config.Config, stdin io.Reader, stdout, stderr io.Writer) (err error) {
	logger, err := cfg.Logger(stderr)
	if err != nil {
		return err
	}
	opts, err := cfg.Options()
	if err != nil {
		return err
	}

	metrics, flush := cfg.Metrics()
	defer func() {
		if ferr := flush(); ferr != nil && err == nil {
			err = ferr
		}
	}()

	points, err := readPoints(stdin)
	if err != nil {
		return err
	}

	opts = append(opts, kclust.WithLogger(logger), kclust.WithMetricsCollector(metrics))
	_, clusters, err := kclust.Fit(points, cfg.K, opts...)
	if err != nil {
		return err
	}

	labels := make([]int, len(points))
	for id := range clusters.Clusters {
		it := clusters.Clusters[id].Rows.Iterator()
		for it.HasNext() {
			labels[it.Next()] = id
		}
	}

	w := bufio.NewWriter(stdout)
	for i, p := range points {
		fmt.Fprintf(w, "%s;%d\n", p.Text(split.DefaultDelimiter), labels[i])
	}
	logger.InfoContext(ctx, "points clustered", "points", len(points), "k", cfg.K)
	return w.Flush()
}

// readPoints reads whitespace separated "x;y" tokens.
func readPoints(r io.Reader) (model.Dataset, error) {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)

	var points model.Dataset
	for scanner.Scan() {
		token := scanner.Text()
		fields := split.Split(token, split.DefaultDelimiter)
		if len(fields) != 2 {
			return nil, &kclust.FormatError{Err: fmt.Errorf("point %d: expected x;y, got %q", len(points)+1, token)}
		}
		p := make(model.Sample, 2)
		for i, f := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, &kclust.FormatError{Err: fmt.Errorf("point %d: %w", len(points)+1, err)}
			}
			p[i] = v
		}
		points = append(points, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return points, nil
}
