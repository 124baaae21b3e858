//go:build linux

package verispace

import (
	"os"

	"golang.org/x/sys/unix"
)

// reserveSpan extends f to size bytes. Fallocate reserves the blocks up
// front so a full device fails here rather than mid-write; filesystems
// without fallocate support (NFS and friends) fall back to a plain
// truncate. Neither zero-fills the range.
func reserveSpan(f *os.File, size int64) error {
	fd := int(f.Fd())
	err := unix.Fallocate(fd, 0, 0, size)
	if err != nil && err != unix.EOPNOTSUPP && err != unix.ENOSYS {
		// ENOSPC and friends are real answers, not a cue to fall back.
		return err
	}
	return unix.Ftruncate(fd, size)
}
