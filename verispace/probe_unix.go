//go:build !windows

package verispace

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// sectorSize is assumed on unix; Statfs reports the filesystem block
// size, which is a cluster in the stats output, not the device sector.
const sectorSize = 512

func probeDevice(path string) (DeviceStats, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return DeviceStats{}, fmt.Errorf("%w: %s: %v", ErrProbe, path, err)
	}
	if !fi.IsDir() {
		return DeviceStats{}, fmt.Errorf("%w: %s is not a mounted directory", ErrProbe, path)
	}

	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return DeviceStats{}, fmt.Errorf("%w: statfs %s: %v", ErrProbe, path, err)
	}

	bsize := int64(st.Bsize)
	// Accumulate in int64: block counts times block size can exceed
	// 32 bits long before the product is checked.
	total := bsize * int64(st.Blocks)
	free := bsize * int64(st.Bavail)

	spc := int(bsize / sectorSize)
	if spc < 1 {
		spc = 1
	}
	return DeviceStats{
		SectorSize:        sectorSize,
		SectorsPerCluster: spc,
		TotalBytes:        total,
		FreeBytes:         free,
	}, nil
}
