package verispace

import (
	"errors"
	"fmt"
	"io"
)

// Verifier re-reads allocation units and checks that every marker copy
// matches the value written for that position.
type Verifier struct {
	buf *AlignedBuffer
}

// NewVerifier returns a Verifier using buf as its transfer buffer.
func NewVerifier(buf *AlignedBuffer) *Verifier {
	return &Verifier{buf: buf}
}

// VerifyUnit reads the unit back and compares all four quarter-point
// marker copies against Marker(index). The buffer is reset to the 0xFF
// sentinel first so a read that silently no-ops cannot pass. A short
// read is fatal; a marker disagreement returns *Mismatch with the
// absolute byte offset of the failing copy.
func (v *Verifier) VerifyUnit(ref *UnitRef, index int64) error {
	v.buf.Sentinel()

	n, err := ref.Artifact.ReadAt(v.buf.Bytes(), ref.Offset)
	if n != v.buf.Len() {
		if err == nil || errors.Is(err, io.EOF) {
			return &ShortReadError{Index: index, Offset: ref.Offset, Want: v.buf.Len(), Got: n}
		}
		return fmt.Errorf("read unit %d @ offset %d: %w", index, ref.Offset, err)
	}

	expected := Marker(index)
	if off, observed, ok := v.buf.Check(expected); !ok {
		return &Mismatch{
			Index:    index,
			Offset:   ref.Offset + int64(off),
			Expected: expected,
			Observed: observed,
		}
	}
	return nil
}
