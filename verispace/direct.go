package verispace

import "os"

// openUnit opens an artifact file, bypassing the filesystem cache when
// direct is set. The cache-bypass mechanics are per-OS; see the
// direct_*.go variants.
func openUnit(path string, flag int, direct bool) (*os.File, error) {
	if !direct {
		return os.OpenFile(path, flag, 0o644)
	}
	return openDirect(path, flag, 0o644)
}
