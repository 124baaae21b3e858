package verispace

import (
	"errors"
	"fmt"
)

// Category sentinels. Wrapped with context at the failure site so callers
// can test with errors.Is while messages keep the locating detail.
var (
	// ErrProbe indicates the OS capacity query failed or the target is
	// not a directly-addressable volume.
	ErrProbe = errors.New("device probe failed")

	// ErrCapacityOverflow indicates a probed capacity came back zero or
	// negative. Offset arithmetic downstream is signed, so this is fatal.
	ErrCapacityOverflow = errors.New("capacity computation overflowed")

	// ErrPrivilege indicates the durable-allocation capability could not
	// be acquired.
	ErrPrivilege = errors.New("privilege not acquired")

	// ErrAllocation indicates a filesystem operation failed while
	// reserving the test artifact.
	ErrAllocation = errors.New("allocation failed")

	// ErrCleanup indicates artifact removal failed. Hygiene only; it
	// never changes a verification verdict already reached.
	ErrCleanup = errors.New("cleanup failed")
)

// ShortWriteError reports a write that returned fewer bytes than
// requested. Never retried: a silently truncating device is exactly the
// failure condition under test.
type ShortWriteError struct {
	Index  int64
	Offset int64
	Want   int
	Got    int
}

func (e *ShortWriteError) Error() string {
	return fmt.Sprintf("short write at unit %d: wrote %d bytes, expected %d @ offset %d",
		e.Index, e.Got, e.Want, e.Offset)
}

// ShortReadError reports a read that returned fewer bytes than requested.
type ShortReadError struct {
	Index  int64
	Offset int64
	Want   int
	Got    int
}

func (e *ShortReadError) Error() string {
	return fmt.Sprintf("short read at unit %d: read %d bytes, expected %d @ offset %d",
		e.Index, e.Got, e.Want, e.Offset)
}

// Mismatch is a data-level finding, not a fault: the marker read back
// from a unit disagrees with the marker written there. Offset is the
// absolute byte offset of the failing marker copy within the test
// artifact set.
type Mismatch struct {
	Index    int64
	Offset   int64
	Expected uint64
	Observed uint64
}

func (m *Mismatch) Error() string {
	return fmt.Sprintf("unit %d: marker is 0x%X, should be 0x%X @ offset 0x%X",
		m.Index, m.Observed, m.Expected, m.Offset)
}

// NamingError reports a file in the target directory that matches the
// sequence naming scheme but carries no parseable index. It indicates a
// corrupted or foreign file and halts multi-file verification.
type NamingError struct {
	Name string
}

func (e *NamingError) Error() string {
	return fmt.Sprintf("no sequence number in filename %q", e.Name)
}
