package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spacecheck/verispace"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"10m", 10 * verispace.MiB},
		{"64k", 64 * verispace.KiB},
		{"1g", verispace.GiB},
		{"512", 512},
		{"512b", 512},
		{"1.5m", verispace.MiB + 512*verispace.KiB},
		{" 2M ", 2 * verispace.MiB},
	}
	for _, tt := range tests {
		got, err := parseSize(tt.in)
		require.NoError(t, err, "parseSize(%q)", tt.in)
		assert.Equal(t, tt.want, got, "parseSize(%q)", tt.in)
	}

	for _, bad := range []string{"", "abc", "10x10m"} {
		_, err := parseSize(bad)
		assert.Error(t, err, "parseSize(%q)", bad)
	}
}

func TestHumanString(t *testing.T) {
	assert.Equal(t, "10 MiB", human(10*verispace.MiB))
	assert.Equal(t, "512 bytes", human(512))
}
