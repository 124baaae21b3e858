package verispace

import (
	"fmt"
)

// Writer stamps the marker pattern into allocation units. The buffer is
// sector-aligned and reused across units; each write is a single
// exact-length transfer at the unit's offset.
type Writer struct {
	buf *AlignedBuffer
}

// NewWriter returns a Writer using buf as its transfer buffer.
func NewWriter(buf *AlignedBuffer) *Writer {
	return &Writer{buf: buf}
}

// WriteUnit zeroes the buffer, stamps Marker(index) at the quarter-point
// offsets, and writes the buffer once at the unit's offset. A write
// returning fewer bytes than requested is fatal: a device that silently
// truncates writes is the failure condition under test, so there is no
// partial-write retry.
func (w *Writer) WriteUnit(ref *UnitRef, index int64) error {
	w.buf.Zero()
	w.buf.Stamp(Marker(index))

	n, err := ref.Artifact.WriteAt(w.buf.Bytes(), ref.Offset)
	if err != nil {
		return fmt.Errorf("write unit %d @ offset %d: %w", index, ref.Offset, err)
	}
	if n != w.buf.Len() {
		return &ShortWriteError{Index: index, Offset: ref.Offset, Want: w.buf.Len(), Got: n}
	}
	return nil
}
