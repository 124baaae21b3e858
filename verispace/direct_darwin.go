//go:build darwin

package verispace

import (
	"os"

	"golang.org/x/sys/unix"
)

// openDirect opens path and switches the descriptor to uncached I/O.
// Darwin has no O_DIRECT; F_NOCACHE after open is the equivalent.
func openDirect(path string, flag int, perm os.FileMode) (*os.File, error) {
	f, err := os.OpenFile(path, flag|unix.O_SYNC, perm)
	if err != nil {
		return nil, err
	}
	if _, err := unix.FcntlInt(f.Fd(), unix.F_NOCACHE, 1); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}
