//go:build !linux && !darwin && !windows

package verispace

import (
	"os"
	"syscall"
)

// openDirect falls back to synchronous writes where the platform offers
// no cache-bypass flag.
func openDirect(path string, flag int, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(path, flag|syscall.O_SYNC, perm)
}
