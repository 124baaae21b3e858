//go:build windows

package verispace

import (
	"fmt"
	"os"

	"golang.org/x/sys/windows"
)

const (
	fileFlagNoBuffering  = 0x20000000
	fileFlagWriteThrough = 0x80000000
)

// openDirect opens path with FILE_FLAG_NO_BUFFERING|FILE_FLAG_WRITE_THROUGH
// so requests bypass the file cache and reach the physical device.
func openDirect(path string, flag int, _ os.FileMode) (*os.File, error) {
	var access uint32
	switch flag & (os.O_RDONLY | os.O_WRONLY | os.O_RDWR) {
	case os.O_WRONLY:
		access = windows.GENERIC_WRITE
	case os.O_RDWR:
		access = windows.GENERIC_READ | windows.GENERIC_WRITE
	default:
		access = windows.GENERIC_READ
	}
	disposition := uint32(windows.OPEN_EXISTING)
	if flag&os.O_CREATE != 0 {
		disposition = windows.CREATE_ALWAYS
	}

	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, err
	}
	// No sharing: the test assumes exclusive access to its artifacts.
	h, err := windows.CreateFile(p, access, 0, nil, disposition,
		fileFlagNoBuffering|fileFlagWriteThrough, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	f := os.NewFile(uintptr(h), path)
	if f == nil {
		windows.CloseHandle(h)
		return nil, fmt.Errorf("open %s: invalid handle", path)
	}
	return f, nil
}
