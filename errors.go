package kclust

import (
	"errors"
	"fmt"

	"github.com/hupe1980/kclust/distance"
	"github.com/hupe1980/kclust/ingest"
	"github.com/hupe1980/kclust/internal/kmeans"
)

var (
	// ErrFormat is matched by every *FormatError.
	ErrFormat = errors.New("format error")

	// ErrInvalidParameter is matched by every *InvalidParameterError.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrStorage is matched by every *StorageError.
	ErrStorage = errors.New("storage error")

	// ErrDimensionMismatch is returned when a sample does not have the model's dimension.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrModelMismatch is returned when a cluster store belongs to a different model.
	ErrModelMismatch = errors.New("cluster store does not belong to model")
)

// FormatError reports malformed input.
//
// Line is the 1-based input line, or 0 when the input was not line oriented.
// The underlying cause can be accessed via errors.Unwrap.
type FormatError struct {
	Line int
	Err  error
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("format error at line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("format error: %v", e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Is makes every FormatError match ErrFormat.
func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// InvalidParameterError reports an unusable training parameter.
type InvalidParameterError struct {
	Param string
	Err   error
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %v", e.Param, e.Err)
}

func (e *InvalidParameterError) Unwrap() error { return e.Err }

// Is makes every InvalidParameterError match ErrInvalidParameter.
func (e *InvalidParameterError) Is(target error) bool { return target == ErrInvalidParameter }

// StorageError reports a failure to save or load an artifact.
//
// Missing artifacts wrap blobstore.ErrNotFound; corrupt ones wrap the
// persistence error that detected the damage.
type StorageError struct {
	Op   string
	Name string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Name, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is makes every StorageError match ErrStorage.
func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// translateError maps errors from internal packages onto the public taxonomy.
// Errors that are already typed pass through unchanged.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var (
		fe *FormatError
		pe *InvalidParameterError
		se *StorageError
	)
	if errors.As(err, &fe) || errors.As(err, &pe) || errors.As(err, &se) {
		return err
	}

	// Input format normalization.
	var le *ingest.LineError
	if errors.As(err, &le) {
		return &FormatError{Line: le.Line, Err: le.Err}
	}
	if errors.Is(err, ingest.ErrColumnCount) ||
		errors.Is(err, ingest.ErrEmptyField) ||
		errors.Is(err, ingest.ErrInvalidNumber) ||
		errors.Is(err, ingest.ErrLineTooLong) ||
		errors.Is(err, kmeans.ErrDimensionMismatch) ||
		errors.Is(err, ErrDimensionMismatch) {
		return &FormatError{Err: err}
	}

	// Parameter normalization.
	switch {
	case errors.Is(err, kmeans.ErrInvalidK):
		return &InvalidParameterError{Param: "k", Err: err}
	case errors.Is(err, kmeans.ErrEmptyDataset):
		return &InvalidParameterError{Param: "dataset", Err: err}
	case errors.Is(err, ingest.ErrInvalidSchema):
		return &InvalidParameterError{Param: "schema", Err: err}
	case errors.Is(err, distance.ErrUnknownMetric):
		return &InvalidParameterError{Param: "metric", Err: err}
	}

	return err
}
