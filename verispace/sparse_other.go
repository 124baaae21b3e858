//go:build !linux && !windows

package verispace

import "os"

// reserveSpan extends f to size bytes with a plain truncate, which leaves
// a hole rather than zero-filling.
func reserveSpan(f *os.File, size int64) error {
	return f.Truncate(size)
}
