//go:build !windows

package verispace

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbeReportsPositiveCapacity(t *testing.T) {
	stats, err := Probe(t.TempDir())
	require.NoError(t, err)

	assert.Positive(t, stats.SectorSize)
	assert.Positive(t, stats.SectorsPerCluster)
	assert.Positive(t, stats.TotalBytes)
	assert.GreaterOrEqual(t, stats.TotalBytes, stats.FreeBytes)
}

func TestProbeRejectsNonDirectory(t *testing.T) {
	dir := t.TempDir()
	_, err := Probe(filepath.Join(dir, "missing"))
	require.ErrorIs(t, err, ErrProbe)
}
