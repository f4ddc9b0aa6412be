package persistence

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// MagicNumber identifies kclust artifacts (ASCII: "KCL1").
	MagicNumber = 0x4B434C31
	// Version is the current artifact format version.
	Version = 1

	headerSize = 40

	// maxRawLen bounds allocations driven by header fields.
	maxRawLen = 1 << 30
)

var (
	ErrInvalidMagic   = errors.New("invalid magic number")
	ErrInvalidVersion = errors.New("unsupported version")
	ErrKindMismatch   = errors.New("unexpected artifact kind")
	ErrCorrupt        = errors.New("corrupt artifact")
)

// Kind identifies what an artifact contains.
type Kind uint8

const (
	KindModel    Kind = 1
	KindClusters Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindModel:
		return "model"
	case KindClusters:
		return "clusters"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Compression defines the algorithm applied to the payload.
type Compression uint8

const (
	// CompressionNone stores the payload as is.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast).
	CompressionLZ4 Compression = 1
	// CompressionZSTD uses ZSTD (better ratio).
	CompressionZSTD Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("Compression(%d)", uint8(c))
	}
}

// ParseCompression parses a compression name as produced by String.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	default:
		return 0, fmt.Errorf("unsupported compression: %q", s)
	}
}

// FileHeader is the 40-byte header at the start of every artifact.
type FileHeader struct {
	Magic       uint32
	Version     uint16
	Kind        Kind
	Compression Compression
	RawLen      uint64
	PayloadLen  uint64
	Checksum    uint64
	Reserved    [8]byte
}
