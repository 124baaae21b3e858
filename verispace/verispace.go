// Package verispace implements the capacity-verification protocol: it
// reserves the reported free capacity of a target volume, writes a
// position-derived marker pattern across it with cache-bypassing I/O, and
// reads the markers back to prove every addressable range physically exists.
//
// Two allocation strategies share the protocol. SparseFile reserves one
// large pre-allocated file and probes it at block-sized intervals.
// FileSequence creates one fixed-size file per allocation unit, with the
// unit index embedded in the filename so a later run can resume or verify
// independently.
package verispace

// Size metrics e.g. KiB, GiB etc.
const (
	KiB int64 = 1024
	MiB       = KiB * 1024
	GiB       = MiB * 1024
	TiB       = GiB * 1024
)

// DefaultBlockSize is the allocation-unit granularity: the spacing of
// probes in the single-file variant and the size of each file in the
// multi-file variant.
const DefaultBlockSize = 10 * MiB

// SparseFileName is the artifact name used by the single-file variant.
const SparseFileName = "verifysp.bin"

// SeqFilePrefix and SeqFileSuffix bound the multi-file naming scheme
// "<prefix><6-hex-digit index><suffix>". The hex index is a contract:
// resumption and independent verification both recover unit ordering
// from it.
const (
	SeqFilePrefix = "sp"
	SeqFileSuffix = ".bin"
)

// Progress batch sizes of the two variants.
const (
	sparseBatch = 5
	seqBatch    = 10
)

// Marker derives the value stamped into allocation unit i. It is 1-based
// so an unwritten all-zero region can never pass for a legitimately
// written unit 0, and injective so cross-wired writes always surface as a
// mismatch at one of the two indices involved.
func Marker(index int64) uint64 {
	return uint64(index) + 1
}

// Config carries the resolved CLI options into the protocol core.
type Config struct {
	// Path is the target directory (volume root, typically) where test
	// artifacts are created.
	Path string

	// BlockSize is the allocation-unit size in bytes. Zero selects
	// DefaultBlockSize.
	BlockSize int64

	// Cached opens artifacts for verification through the filesystem
	// cache instead of bypassing it. Distinguishes "the OS cache lied"
	// from "the device lied".
	Cached bool

	// DirectIO bypasses the filesystem cache on writes. It is the
	// default for real devices; tests on temp filesystems disable it
	// since O_DIRECT is not universally supported there.
	DirectIO bool

	// NoReads skips the read-back after writing (write-only pass).
	NoReads bool

	// KeepGoing records mismatches and continues scanning instead of
	// aborting at the first failure, mapping out how much real capacity
	// exists.
	KeepGoing bool

	// Keep leaves test artifacts in place after the run.
	Keep bool

	// Progress receives batch completion events. Nil means no reporting.
	Progress Sink
}

func (c *Config) blockSize() int64 {
	if c.BlockSize <= 0 {
		return DefaultBlockSize
	}
	return c.BlockSize
}

// Human renders a byte count using the largest fitting size metric.
func Human(b int64) (int64, string) {
	sizes := []int64{TiB, GiB, MiB, KiB}
	names := []string{"TiB", "GiB", "MiB", "KiB"}
	for i, s := range sizes {
		if b >= s {
			return b / s, names[i]
		}
	}
	return b, "bytes"
}
