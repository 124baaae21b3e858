package verispace

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAlignedBuffer(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		align   int
		wantErr bool
	}{
		{name: "sector sized", size: 512, align: 512},
		{name: "block sized", size: 64 * 1024, align: 4096},
		{name: "zero size", size: 0, align: 512, wantErr: true},
		{name: "alignment not power of two", size: 512, align: 500, wantErr: true},
		{name: "size not multiple of alignment", size: 700, align: 512, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := NewAlignedBuffer(tt.size, tt.align)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.size, buf.Len())
			assert.Equal(t, tt.align, buf.Alignment())
		})
	}
}

func TestStampAndCheck(t *testing.T) {
	buf, err := NewAlignedBuffer(4096, 512)
	require.NoError(t, err)

	buf.Zero()
	buf.Stamp(Marker(41))

	_, observed, ok := buf.Check(Marker(41))
	assert.True(t, ok)
	assert.Equal(t, uint64(42), observed)

	// The wrong marker must report the value actually present and the
	// offset of the first disagreeing copy.
	off, observed, ok := buf.Check(Marker(7))
	assert.False(t, ok)
	assert.Equal(t, 0, off)
	assert.Equal(t, uint64(42), observed)
}

func TestStampQuarterPoints(t *testing.T) {
	buf, err := NewAlignedBuffer(4096, 512)
	require.NoError(t, err)
	buf.Zero()
	buf.Stamp(0xABCD)

	raw := buf.Bytes()
	for o := 0; o < 4; o++ {
		q := o * (len(raw) / 4)
		assert.Equal(t, uint64(0xABCD), binary.LittleEndian.Uint64(raw[q:]), "copy %d", o)
	}

	// The marker must be pinned little-endian for cross-implementation
	// compatibility.
	assert.Equal(t, byte(0xCD), raw[0])
	assert.Equal(t, byte(0xAB), raw[1])
	assert.Equal(t, byte(0x00), raw[2])
}

func TestCheckDetectsSingleBadCopy(t *testing.T) {
	buf, err := NewAlignedBuffer(4096, 512)
	require.NoError(t, err)
	buf.Zero()
	buf.Stamp(5)

	// Corrupt the third copy only: a device shadowing a small region can
	// return one good copy while the rest never persisted.
	third := 2 * (buf.Len() / 4)
	binary.LittleEndian.PutUint64(buf.Bytes()[third:], 99)

	off, observed, ok := buf.Check(5)
	assert.False(t, ok)
	assert.Equal(t, third, off)
	assert.Equal(t, uint64(99), observed)
}

func TestSentinelDiffersFromZeroAndMarkers(t *testing.T) {
	buf, err := NewAlignedBuffer(512, 512)
	require.NoError(t, err)
	buf.Sentinel()
	_, observed, ok := buf.Check(Marker(0))
	assert.False(t, ok)
	assert.Equal(t, uint64(0xFFFFFFFFFFFFFFFF), observed)
}

func TestMarkerInjective(t *testing.T) {
	// marker(i) = i+1 is trivially injective; pin the 1-based offset so
	// an all-zero buffer can never match unit 0.
	assert.Equal(t, uint64(1), Marker(0))
	assert.Equal(t, uint64(10), Marker(9))
	seen := map[uint64]bool{}
	for i := int64(0); i < 1000; i++ {
		m := Marker(i)
		assert.False(t, seen[m], "marker %d repeated", m)
		seen[m] = true
	}
	assert.False(t, seen[0], "zero must never be a valid marker")
}
