package verispace

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memArtifact simulates a device region in memory.
type memArtifact struct {
	data []byte
}

func (m *memArtifact) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (m *memArtifact) WriteAt(p []byte, off int64) (int, error) {
	if off+int64(len(p)) > int64(len(m.data)) {
		return 0, io.ErrShortWrite
	}
	return copy(m.data[off:], p), nil
}

func (m *memArtifact) Close() error { return nil }

func roundTripBuf(t *testing.T) *AlignedBuffer {
	t.Helper()
	buf, err := NewAlignedBuffer(4096, 512)
	require.NoError(t, err)
	return buf
}

func TestWriteThenVerifyRoundTrip(t *testing.T) {
	buf := roundTripBuf(t)
	dev := &memArtifact{data: make([]byte, 16*4096)}
	w := NewWriter(buf)
	v := NewVerifier(buf)

	for i := int64(0); i < 4; i++ {
		ref := &UnitRef{Artifact: dev, Offset: i * 4096}
		require.NoError(t, w.WriteUnit(ref, i))
		require.NoError(t, v.VerifyUnit(ref, i))
	}
}

func TestVerifyCrossWiredUnit(t *testing.T) {
	// A device that serves unit X's data when queried at index Y must be
	// caught: the filename/offset says Y, the markers say X.
	buf := roundTripBuf(t)
	dev := &memArtifact{data: make([]byte, 4096)}
	ref := &UnitRef{Artifact: dev, Offset: 0}

	require.NoError(t, NewWriter(buf).WriteUnit(ref, 3))

	err := NewVerifier(buf).VerifyUnit(ref, 5)
	var mm *Mismatch
	require.ErrorAs(t, err, &mm)
	assert.Equal(t, int64(5), mm.Index)
	assert.Equal(t, Marker(5), mm.Expected)
	assert.Equal(t, Marker(3), mm.Observed)
}

func TestVerifySilentlyDroppedWrite(t *testing.T) {
	// An unwritten region reads back zero, which can never match the
	// 1-based marker of any unit, including unit 0.
	buf := roundTripBuf(t)
	dev := &memArtifact{data: make([]byte, 4096)}
	ref := &UnitRef{Artifact: dev, Offset: 0}

	err := NewVerifier(buf).VerifyUnit(ref, 0)
	var mm *Mismatch
	require.ErrorAs(t, err, &mm)
	assert.Equal(t, Marker(0), mm.Expected)
	assert.Equal(t, uint64(0), mm.Observed)
}

func TestVerifyShortRead(t *testing.T) {
	buf := roundTripBuf(t)
	dev := &memArtifact{data: make([]byte, 1024)} // smaller than the unit
	ref := &UnitRef{Artifact: dev, Offset: 0}

	err := NewVerifier(buf).VerifyUnit(ref, 0)
	var sr *ShortReadError
	require.ErrorAs(t, err, &sr)
	assert.Equal(t, 4096, sr.Want)
	assert.Equal(t, 1024, sr.Got)
}

func TestWriteShortWrite(t *testing.T) {
	buf := roundTripBuf(t)
	dev := &memArtifact{data: make([]byte, 1024)}
	ref := &UnitRef{Artifact: dev, Offset: 0}

	err := NewWriter(buf).WriteUnit(ref, 0)
	require.Error(t, err)
}

func TestMismatchOffsetIsAbsolute(t *testing.T) {
	buf := roundTripBuf(t)
	dev := &memArtifact{data: make([]byte, 8*4096)}
	ref := &UnitRef{Artifact: dev, Offset: 3 * 4096}

	// Written correctly, then the device "loses" the unit.
	require.NoError(t, NewWriter(buf).WriteUnit(ref, 3))
	clear(dev.data)

	err := NewVerifier(buf).VerifyUnit(ref, 3)
	var mm *Mismatch
	require.ErrorAs(t, err, &mm)
	assert.Equal(t, int64(3*4096), mm.Offset)
}
