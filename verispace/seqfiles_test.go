package verispace

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seqConfig(dir string, blockSize int64) Config {
	return Config{Path: dir, BlockSize: blockSize}
}

func TestParseIndex(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int64
		ok   bool
	}{
		{name: "first file", in: "sp000000.bin", want: 0, ok: true},
		{name: "hex digits", in: "sp0000ff.bin", want: 255, ok: true},
		{name: "uppercase hex accepted", in: "sp0000FF.bin", want: 255, ok: true},
		{name: "large index", in: "sp0fffff.bin", want: 0xfffff, ok: true},
		{name: "wrong prefix", in: "xx000001.bin", ok: false},
		{name: "wrong suffix", in: "sp000001.dat", ok: false},
		{name: "index too short", in: "sp001.bin", ok: false},
		{name: "index too long", in: "sp0000001.bin", ok: false},
		{name: "not hex", in: "spzzzzzz.bin", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseIndex(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestResumeIndex(t *testing.T) {
	dir := t.TempDir()
	s := NewFileSequence(seqConfig(dir, 64*KiB), 640*KiB)

	// Empty directory starts at unit 0.
	next, err := s.ResumeIndex()
	require.NoError(t, err)
	assert.Equal(t, int64(0), next)

	// Files 0..2 present: creation resumes at 3, never overwriting.
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, s.name(int64(i))), []byte("x"), 0o644))
	}
	next, err = s.ResumeIndex()
	require.NoError(t, err)
	assert.Equal(t, int64(3), next)

	// Unrelated files are ignored by the scan.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.bin"), []byte("x"), 0o644))
	next, err = s.ResumeIndex()
	require.NoError(t, err)
	assert.Equal(t, int64(3), next)
}

func TestResumeNeverRewrites(t *testing.T) {
	dir := t.TempDir()
	cfg := seqConfig(dir, 64*KiB)
	stats := DeviceStats{SectorSize: 512, SectorsPerCluster: 8, TotalBytes: GiB, FreeBytes: 640 * KiB}

	s := NewFileSequence(cfg, 640*KiB)
	runner, err := NewRunner(cfg, stats, s)
	require.NoError(t, err)

	// First pass writes all ten units.
	res := &Result{}
	require.NoError(t, runner.Allocate(context.Background()))
	require.NoError(t, runner.WritePass(context.Background(), res))
	assert.Equal(t, int64(10), res.Written)

	// Tag unit 2's file and re-run: prior files are skipped, so the tag
	// survives.
	tagged := filepath.Join(dir, s.name(2))
	fi, err := os.Stat(tagged)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(tagged, fi.Size()-1))

	res2 := &Result{}
	require.NoError(t, runner.WritePass(context.Background(), res2))
	assert.Equal(t, int64(0), res2.Written)

	fi, err = os.Stat(tagged)
	require.NoError(t, err)
	assert.Equal(t, 64*KiB-1, fi.Size())
}

func TestVerifyListNamingError(t *testing.T) {
	dir := t.TempDir()
	s := NewFileSequence(seqConfig(dir, 64*KiB), 640*KiB)

	require.NoError(t, os.WriteFile(filepath.Join(dir, s.name(0)), []byte("x"), 0o644))
	// A file that matches the scheme's shape but has no parseable index
	// marks a corrupted or foreign file and must halt verification.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "spbadbin.bin"), []byte("x"), 0o644))

	_, err := s.VerifyList()
	var ne *NamingError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "spbadbin.bin", ne.Name)
}

func TestCleanupRemovesOnlySequenceFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewFileSequence(seqConfig(dir, 64*KiB), 640*KiB)

	for i := 0; i < 4; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, s.name(int64(i))), []byte("x"), 0o644))
	}
	bystander := filepath.Join(dir, "keepme.txt")
	require.NoError(t, os.WriteFile(bystander, []byte("x"), 0o644))

	require.NoError(t, s.Cleanup())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "keepme.txt", entries[0].Name())
}
