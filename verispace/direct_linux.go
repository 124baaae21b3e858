//go:build linux

package verispace

import (
	"os"

	"golang.org/x/sys/unix"
)

// openDirect opens path with O_DIRECT|O_SYNC so transfers skip the page
// cache and land on the device before the write returns. Buffers and
// sizes must be sector-aligned.
func openDirect(path string, flag int, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(path, flag|unix.O_DIRECT|unix.O_SYNC, perm)
}
