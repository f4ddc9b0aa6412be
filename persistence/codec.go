package persistence

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/google/uuid"

	"github.com/hupe1980/kclust/distance"
	"github.com/hupe1980/kclust/model"
)

// EncodeModel writes m as a model artifact.
func EncodeModel(w io.Writer, m *model.Model, c Compression) error {
	if err := checkCentroids(m); err != nil {
		return err
	}

	p := &payloadWriter{buf: make([]byte, 0, 48+len(m.Centroids)*m.Dim*8)}
	p.bytes(m.ID[:])
	p.uint8(uint8(m.Metric))
	if m.Converged {
		p.uint8(1)
	} else {
		p.uint8(0)
	}
	p.uint32(uint32(m.Iterations))
	p.uint64(uint64(m.CreatedAt.UnixNano()))
	p.uint32(uint32(m.Dim))
	p.uint32(uint32(len(m.Centroids)))
	for _, c := range m.Centroids {
		p.float64s(c)
	}

	return writeArtifact(w, KindModel, p.buf, c)
}

// DecodeModel reads a model artifact.
func DecodeModel(r io.Reader) (*model.Model, error) {
	payload, err := readArtifact(r, KindModel)
	if err != nil {
		return nil, err
	}

	p := &payloadReader{buf: payload}
	m := &model.Model{}
	copy(m.ID[:], p.take(16))
	m.Metric = distance.Metric(p.uint8())
	m.Converged = p.uint8() == 1
	m.Iterations = int(p.uint32())
	m.CreatedAt = time.Unix(0, int64(p.uint64())).UTC()
	m.Dim = int(p.uint32())
	k := int(p.uint32())
	if p.err == nil && (m.Dim == 0 || k > p.remaining()/(m.Dim*8)) {
		return nil, fmt.Errorf("%w: %d centroids of dimension %d", ErrCorrupt, k, m.Dim)
	}

	m.Centroids = make([]model.Sample, k)
	for i := range m.Centroids {
		m.Centroids[i] = p.float64s(m.Dim)
	}
	if p.err != nil {
		return nil, p.err
	}
	if p.remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, p.remaining())
	}
	return m, nil
}

// EncodeClusters writes s as a clusters artifact.
func EncodeClusters(w io.Writer, s *model.ClusterStore, c Compression) error {
	p := &payloadWriter{}
	p.bytes(s.ModelID[:])
	p.uint32(uint32(s.Dim))
	p.uint32(uint32(len(s.Clusters)))

	for i := range s.Clusters {
		cl := &s.Clusters[i]
		p.uint32(uint32(cl.ID))
		p.uint32(uint32(len(cl.Members)))
		for _, m := range cl.Members {
			if len(m) != s.Dim {
				return fmt.Errorf("cluster %d: member has %d coordinates, expected %d", cl.ID, len(m), s.Dim)
			}
			p.float64s(m)
		}

		rows := cl.Rows
		if rows == nil {
			rows = roaring.New()
		}
		b, err := rows.ToBytes()
		if err != nil {
			return fmt.Errorf("cluster %d: encode rows: %w", cl.ID, err)
		}
		p.uint32(uint32(len(b)))
		p.bytes(b)
	}

	return writeArtifact(w, KindClusters, p.buf, c)
}

// DecodeClusters reads a clusters artifact.
func DecodeClusters(r io.Reader) (*model.ClusterStore, error) {
	payload, err := readArtifact(r, KindClusters)
	if err != nil {
		return nil, err
	}

	p := &payloadReader{buf: payload}
	s := &model.ClusterStore{}
	copy(s.ModelID[:], p.take(16))
	s.Dim = int(p.uint32())
	k := int(p.uint32())
	// Every cluster needs at least 12 bytes (id, count, bitmap length).
	if p.err == nil && k > p.remaining()/12 {
		return nil, fmt.Errorf("%w: %d clusters exceed payload", ErrCorrupt, k)
	}

	s.Clusters = make([]model.Cluster, k)
	for i := range s.Clusters {
		cl := &s.Clusters[i]
		cl.ID = int(p.uint32())
		count := int(p.uint32())
		if p.err == nil && count > 0 && (s.Dim == 0 || count > p.remaining()/(s.Dim*8)) {
			return nil, fmt.Errorf("%w: cluster %d claims %d members", ErrCorrupt, cl.ID, count)
		}
		if count > 0 {
			cl.Members = make([]model.Sample, count)
			for j := range cl.Members {
				cl.Members[j] = p.float64s(s.Dim)
			}
		}

		n := int(p.uint32())
		b := p.take(n)
		if p.err != nil {
			return nil, p.err
		}
		cl.Rows = roaring.New()
		if err := cl.Rows.UnmarshalBinary(b); err != nil {
			return nil, fmt.Errorf("%w: cluster %d rows: %v", ErrCorrupt, cl.ID, err)
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	if p.remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, p.remaining())
	}
	return s, nil
}

func checkCentroids(m *model.Model) error {
	if m.ID == uuid.Nil {
		return fmt.Errorf("model has no id")
	}
	for i, c := range m.Centroids {
		if len(c) != m.Dim {
			return fmt.Errorf("centroid %d has %d coordinates, expected %d", i, len(c), m.Dim)
		}
	}
	return nil
}

func writeArtifact(w io.Writer, kind Kind, raw []byte, c Compression) error {
	stored, used, err := compress(raw, c)
	if err != nil {
		return err
	}

	header := FileHeader{
		Magic:       MagicNumber,
		Version:     Version,
		Kind:        kind,
		Compression: used,
		RawLen:      uint64(len(raw)),
		PayloadLen:  uint64(len(stored)),
		Checksum:    ComputeChecksum(raw),
	}
	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := w.Write(stored); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}
	return nil
}

// ReadHeader reads and validates an artifact header.
func ReadHeader(r io.Reader) (*FileHeader, error) {
	var header FileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrCorrupt, err)
	}
	if header.Magic != MagicNumber {
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, header.Magic)
	}
	if header.Version != Version {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidVersion, header.Version)
	}
	if header.RawLen > maxRawLen || header.PayloadLen > maxRawLen {
		return nil, fmt.Errorf("%w: payload too large", ErrCorrupt)
	}
	return &header, nil
}

func readArtifact(r io.Reader, kind Kind) ([]byte, error) {
	header, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	if header.Kind != kind {
		return nil, fmt.Errorf("%w: got %v, expected %v", ErrKindMismatch, header.Kind, kind)
	}

	stored, err := io.ReadAll(io.LimitReader(r, int64(header.PayloadLen)+1))
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	if uint64(len(stored)) != header.PayloadLen {
		return nil, fmt.Errorf("%w: payload is %d bytes, header says %d", ErrCorrupt, len(stored), header.PayloadLen)
	}

	raw, err := decompress(stored, header.Compression, header.RawLen)
	if err != nil {
		return nil, err
	}
	if err := VerifyChecksum(raw, header.Checksum); err != nil {
		return nil, err
	}
	return raw, nil
}
