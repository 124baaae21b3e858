//go:build !windows

package verispace

// acquireDurableAllocation is a no-op on unix: ftruncate and fallocate
// extend a file without zero-filling and need no special capability.
func acquireDurableAllocation() error {
	return nil
}
