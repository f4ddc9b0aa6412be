package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/kclust"
)

func TestRun(t *testing.T) {
	input := "0;0\n10;10 0;1\n\n10;11\n"

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-k", "2"}, strings.NewReader(input), &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	assert.Equal(t, "0;0;0\n10;10;1\n0;1;0\n10;11;1\n", stdout.String())
}

func TestRun_Usage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 1, run(context.Background(), nil, strings.NewReader("0;0\n"), &stdout, &stderr))
	assert.Contains(t, stderr.String(), "number of clusters")

	stderr.Reset()
	assert.Equal(t, 0, run(context.Background(), []string{"--help"}, strings.NewReader(""), &stdout, &stderr))
	assert.Contains(t, stderr.String(), "Usage: kkmeans")
}

func TestRun_Failures(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 1, run(context.Background(), []string{"-k", "3"}, strings.NewReader("0;0\n1;1\n"), &stdout, &stderr))
	assert.Contains(t, stderr.String(), "invalid parameter k")

	stderr.Reset()
	assert.Equal(t, 1, run(context.Background(), []string{"-k", "1"}, strings.NewReader("0;x\n"), &stdout, &stderr))
	assert.Contains(t, stderr.String(), "format error")
}

func TestReadPoints(t *testing.T) {
	points, err := readPoints(strings.NewReader("1.5;2\n-3;4e2\n"))
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, []float64{1.5, 2}, []float64(points[0]))
	assert.Equal(t, []float64{-3, 400}, []float64(points[1]))

	_, err = readPoints(strings.NewReader("1;2;3\n"))
	assert.ErrorIs(t, err, kclust.ErrFormat)
}
