package persistence

import (
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Checksum utilities for artifact integrity verification.
//
// xxhash64 detects accidental corruption only; it is not a MAC and offers no
// protection against tampering.

// ErrChecksum matches every ChecksumMismatchError via errors.Is.
var ErrChecksum = errors.New("checksum mismatch")

// ComputeChecksum computes the xxhash64 checksum of data.
func ComputeChecksum(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// VerifyChecksum checks data against the expected checksum.
func VerifyChecksum(data []byte, expected uint64) error {
	if actual := ComputeChecksum(data); actual != expected {
		return &ChecksumMismatchError{Expected: expected, Actual: actual}
	}
	return nil
}

// ChecksumMismatchError is returned when checksum verification fails.
type ChecksumMismatchError struct {
	Expected uint64
	Actual   uint64
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch: expected 0x%016x, got 0x%016x", e.Expected, e.Actual)
}

// Is reports whether target is ErrChecksum.
func (e *ChecksumMismatchError) Is(target error) bool { return target == ErrChecksum }

// IsChecksumMismatch returns true if err is a checksum mismatch error.
func IsChecksumMismatch(err error) bool {
	var cm *ChecksumMismatchError
	return errors.As(err, &cm)
}
