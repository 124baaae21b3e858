//go:build windows

package verispace

import (
	"io"
	"os"

	"golang.org/x/sys/windows"
)

var procSetFileValidData = kernel32.NewProc("SetFileValidData")

// reserveSpan extends f to size bytes without zero-filling: move the file
// pointer past the end, mark end-of-file, then set the valid-data length
// over the whole range so Windows never writes zeroes into it. Needs
// SeManageVolumePrivilege on the process token.
func reserveSpan(f *os.File, size int64) error {
	h := windows.Handle(f.Fd())
	if _, err := windows.Seek(h, size, io.SeekStart); err != nil {
		return err
	}
	if err := windows.SetEndOfFile(h); err != nil {
		return err
	}
	r1, _, lastErr := procSetFileValidData.Call(uintptr(h), uintptr(size))
	if r1 == 0 {
		return lastErr
	}
	return nil
}
