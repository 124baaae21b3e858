package verispace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHuman(t *testing.T) {
	tests := []struct {
		in   int64
		n    int64
		unit string
	}{
		{512, 512, "bytes"},
		{KiB, 1, "KiB"},
		{10 * MiB, 10, "MiB"},
		{3 * GiB, 3, "GiB"},
		{2 * TiB, 2, "TiB"},
		{GiB + 500*MiB, 1, "GiB"},
	}
	for _, tt := range tests {
		n, unit := Human(tt.in)
		assert.Equal(t, tt.n, n, "Human(%d)", tt.in)
		assert.Equal(t, tt.unit, unit, "Human(%d)", tt.in)
	}
}

func TestConfigBlockSizeDefault(t *testing.T) {
	var cfg Config
	assert.Equal(t, DefaultBlockSize, cfg.blockSize())

	cfg.BlockSize = 64 * KiB
	assert.Equal(t, 64*KiB, cfg.blockSize())
}
