package persistence

import (
	"encoding/binary"
	"fmt"
	"math"
)

// payloadWriter appends little-endian values to a byte slice.
type payloadWriter struct {
	buf []byte
}

func (w *payloadWriter) uint8(v uint8)   { w.buf = append(w.buf, v) }
func (w *payloadWriter) uint32(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }
func (w *payloadWriter) uint64(v uint64) { w.buf = binary.LittleEndian.AppendUint64(w.buf, v) }
func (w *payloadWriter) bytes(b []byte)  { w.buf = append(w.buf, b...) }

func (w *payloadWriter) float64s(v []float64) {
	for _, f := range v {
		w.uint64(math.Float64bits(f))
	}
}

// payloadReader consumes little-endian values and records the first
// out-of-bounds read as an ErrCorrupt error.
type payloadReader struct {
	buf []byte
	off int
	err error
}

func (r *payloadReader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || len(r.buf)-r.off < n {
		r.err = fmt.Errorf("%w: truncated payload at offset %d", ErrCorrupt, r.off)
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *payloadReader) uint8() uint8 {
	if b := r.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (r *payloadReader) uint32() uint32 {
	if b := r.take(4); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func (r *payloadReader) uint64() uint64 {
	if b := r.take(8); b != nil {
		return binary.LittleEndian.Uint64(b)
	}
	return 0
}

// float64s reads n floats, refusing counts the remaining payload cannot hold.
func (r *payloadReader) float64s(n int) []float64 {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > (len(r.buf)-r.off)/8 {
		r.err = fmt.Errorf("%w: %d floats exceed payload at offset %d", ErrCorrupt, n, r.off)
		return nil
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Float64frombits(r.uint64())
	}
	return out
}

func (r *payloadReader) remaining() int { return len(r.buf) - r.off }
