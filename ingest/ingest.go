package ingest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/hupe1980/kclust/model"
	"github.com/hupe1980/kclust/split"
)

// DefaultColumns is the number of fields in a training record.
const DefaultColumns = 8

// MaxLineSize is the longest record line accepted, in bytes.
const MaxLineSize = 1 << 20

var (
	// ErrColumnCount is returned when a record has the wrong number of fields.
	ErrColumnCount = errors.New("wrong number of fields")

	// ErrEmptyField is returned when a required field is empty.
	ErrEmptyField = errors.New("empty field")

	// ErrInvalidNumber is returned when a field cannot be parsed as a number.
	ErrInvalidNumber = errors.New("invalid number")

	// ErrLineTooLong is returned for a record longer than MaxLineSize.
	ErrLineTooLong = errors.New("line too long")

	// ErrInvalidSchema is returned for schemas that cannot describe a record.
	ErrInvalidSchema = errors.New("invalid schema")
)

// LineError attaches the 1-based input line number to a parse failure.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// TooLong returns the error reported for a line exceeding MaxLineSize.
func TooLong() error {
	return fmt.Errorf("%w: more than %d bytes", ErrLineTooLong, MaxLineSize)
}

// Schema describes the layout of a training record.
type Schema struct {
	// Columns is the number of fields in a training record, including the
	// trailing floor and max-floor fields.
	Columns int
	// Delimiter separates fields.
	Delimiter rune
}

// DefaultSchema returns the 8-column, semicolon-delimited schema.
func DefaultSchema() Schema {
	return Schema{Columns: DefaultColumns, Delimiter: split.DefaultDelimiter}
}

// Dim returns the sample dimension produced by the schema.
func (s Schema) Dim() int { return s.Columns - 1 }

// Validate checks that the schema has the floor columns and a usable delimiter.
func (s Schema) Validate() error {
	if s.Columns < 2 {
		return fmt.Errorf("%w: need at least 2 columns, got %d", ErrInvalidSchema, s.Columns)
	}
	if s.Delimiter == 0 || s.Delimiter == '\n' || s.Delimiter == '\r' {
		return fmt.Errorf("%w: unusable delimiter %q", ErrInvalidSchema, s.Delimiter)
	}
	return nil
}

// Report summarizes an ingestion run.
type Report struct {
	// Lines is the number of non-empty input lines.
	Lines int
	// Rows is the number of samples produced.
	Rows int
	// Skipped counts lines dropped for an empty floor or max-floor field.
	Skipped int
	// Imputed maps a column index to the number of cells filled with the
	// column mean.
	Imputed map[int]int
	// Means maps each imputed column to the mean that was used.
	Means map[int]float64
}

// Ingestor parses records according to a Schema.
type Ingestor struct {
	schema Schema
}

// New creates an Ingestor for the given schema.
func New(schema Schema) (*Ingestor, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	return &Ingestor{schema: schema}, nil
}

// Schema returns the schema the ingestor was created with.
func (in *Ingestor) Schema() Schema { return in.schema }

// Read parses every training record from r and imputes missing cells.
// Any malformed record fails the whole read; no partial dataset is returned.
func (in *Ingestor) Read(r io.Reader) (model.Dataset, *Report, error) {
	var (
		data    model.Dataset
		missing = make(map[int][]int) // column -> rows
		report  = &Report{Imputed: map[int]int{}, Means: map[int]float64{}}
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		report.Lines++

		sample, empty, ok, err := in.parseRecord(line)
		if err != nil {
			return nil, nil, &LineError{Line: lineNo, Err: err}
		}
		if !ok {
			report.Skipped++
			continue
		}

		row := len(data)
		for _, col := range empty {
			missing[col] = append(missing[col], row)
		}
		data = append(data, sample)
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, nil, &LineError{Line: lineNo + 1, Err: TooLong()}
		}
		return nil, nil, fmt.Errorf("read input: %w", err)
	}

	impute(data, missing, report)
	report.Rows = len(data)

	return data, report, nil
}

// parseRecord returns the sample, the columns that were empty, and false if
// the record has to be skipped.
func (in *Ingestor) parseRecord(line string) (model.Sample, []int, bool, error) {
	fields := split.Split(line, in.schema.Delimiter)
	if len(fields) != in.schema.Columns {
		return nil, nil, false, fmt.Errorf("%w: expected %d, got %d", ErrColumnCount, in.schema.Columns, len(fields))
	}

	floorField := strings.TrimSpace(fields[in.schema.Columns-2])
	maxFloorField := strings.TrimSpace(fields[in.schema.Columns-1])
	if floorField == "" || maxFloorField == "" {
		return nil, nil, false, nil
	}

	features := in.schema.Columns - 2
	sample := make(model.Sample, in.schema.Dim())

	var empty []int
	for col := 0; col < features; col++ {
		f := strings.TrimSpace(fields[col])
		if f == "" {
			empty = append(empty, col)
			continue
		}
		v, err := parseFloat(f)
		if err != nil {
			return nil, nil, false, fmt.Errorf("column %d: %w", col, err)
		}
		sample[col] = v
	}

	floor, err := parseFloor(floorField)
	if err != nil {
		return nil, nil, false, fmt.Errorf("floor: %w", err)
	}
	maxFloor, err := parseFloor(maxFloorField)
	if err != nil {
		return nil, nil, false, fmt.Errorf("max floor: %w", err)
	}
	sample[features] = FloorFeature(floor, maxFloor)

	return sample, empty, true, nil
}

// FloorFeature encodes whether a flat is on the ground or top floor (0) or
// somewhere in between (1).
func FloorFeature(floor, maxFloor uint64) float64 {
	if floor == 1 || floor == maxFloor {
		return 0
	}
	return 1
}

// impute overwrites every missing cell with the mean of the present values in
// its column. A column without any present value is imputed with 0.
func impute(data model.Dataset, missing map[int][]int, report *Report) {
	cols := make([]int, 0, len(missing))
	for col := range missing {
		cols = append(cols, col)
	}
	sort.Ints(cols)

	for _, col := range cols {
		rows := missing[col]
		skip := make(map[int]struct{}, len(rows))
		for _, row := range rows {
			skip[row] = struct{}{}
		}

		present := make([]float64, 0, len(data)-len(rows))
		for row, s := range data {
			if _, ok := skip[row]; !ok {
				present = append(present, s[col])
			}
		}

		var mean float64
		if len(present) > 0 {
			mean = stat.Mean(present, nil)
		}
		for _, row := range rows {
			data[row][col] = mean
		}

		report.Imputed[col] = len(rows)
		report.Means[col] = mean
	}
}

// ParseQuery parses a classification record: Columns-1 numeric fields, none
// of them empty.
func (in *Ingestor) ParseQuery(line string) (model.Sample, error) {
	fields := split.Split(strings.TrimSuffix(line, "\r"), in.schema.Delimiter)
	dim := in.schema.Dim()
	if len(fields) != dim {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrColumnCount, dim, len(fields))
	}

	sample := make(model.Sample, dim)
	for i, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			return nil, fmt.Errorf("column %d: %w", i, ErrEmptyField)
		}
		v, err := parseFloat(f)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i, err)
		}
		sample[i] = v
	}
	return sample, nil
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	return v, nil
}

func parseFloor(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	return v, nil
}
