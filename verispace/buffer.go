package verispace

import (
	"encoding/binary"
	"fmt"
	"unsafe"
)

// markerCopies is the number of marker replicas per unit buffer, one at
// each quarter-point offset. A match requires four reads at widely
// separated device addresses to agree, so a controller that shadows a
// single small region in RAM still fails.
const markerCopies = 4

// AlignedBuffer is a unit-sized byte buffer whose backing array starts on
// an alignment boundary, as cache-bypassing I/O requires sector-aligned
// transfers. Alignment is achieved by over-allocating and slicing, so the
// buffer stays ordinary garbage-collected memory.
type AlignedBuffer struct {
	buf   []byte
	align int
}

// NewAlignedBuffer returns a zeroed buffer of size bytes aligned to
// align, which must be a power of two.
func NewAlignedBuffer(size, align int) (*AlignedBuffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("buffer size %d must be positive", size)
	}
	if align <= 0 || align&(align-1) != 0 {
		return nil, fmt.Errorf("alignment %d is not a power of two", align)
	}
	if size%align != 0 {
		return nil, fmt.Errorf("buffer size %d is not a multiple of alignment %d", size, align)
	}
	raw := make([]byte, size+align)
	off := 0
	if rem := int(uintptr(unsafe.Pointer(&raw[0])) & uintptr(align-1)); rem != 0 {
		off = align - rem
	}
	return &AlignedBuffer{buf: raw[off : off+size : off+size], align: align}, nil
}

// Bytes returns the aligned view. Callers must not re-slice past its
// length.
func (b *AlignedBuffer) Bytes() []byte { return b.buf }

// Len returns the buffer size in bytes.
func (b *AlignedBuffer) Len() int { return len(b.buf) }

// Alignment returns the boundary the buffer starts on.
func (b *AlignedBuffer) Alignment() int { return b.align }

// Zero clears the buffer to the pre-write state.
func (b *AlignedBuffer) Zero() {
	clear(b.buf)
}

// Sentinel fills the buffer with 0xFF before a read, chosen to differ
// maximally from both zero and any plausible marker so a read that
// silently no-ops cannot look like a match.
func (b *AlignedBuffer) Sentinel() {
	for i := range b.buf {
		b.buf[i] = 0xFF
	}
}

// quarter returns the byte offset of marker copy o within the buffer.
func (b *AlignedBuffer) quarter(o int) int {
	return o * (len(b.buf) / markerCopies)
}

// Stamp writes marker little-endian at the four quarter-point offsets.
func (b *AlignedBuffer) Stamp(marker uint64) {
	for o := 0; o < markerCopies; o++ {
		binary.LittleEndian.PutUint64(b.buf[b.quarter(o):], marker)
	}
}

// Check compares all four marker copies against expected. On
// disagreement it returns the in-buffer byte offset of the first bad
// copy and the value observed there.
func (b *AlignedBuffer) Check(expected uint64) (offset int, observed uint64, ok bool) {
	for o := 0; o < markerCopies; o++ {
		q := b.quarter(o)
		got := binary.LittleEndian.Uint64(b.buf[q:])
		if got != expected {
			return q, got, false
		}
	}
	return 0, expected, true
}
