//go:build windows

package verispace

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Drive type codes from GetDriveTypeW.
const (
	driveRemovable = 2
	driveFixed     = 3
	driveRemote    = 4
	driveCDROM     = 5
	driveRAMDisk   = 6
)

var (
	kernel32             = windows.NewLazySystemDLL("kernel32.dll")
	procGetDriveTypeW    = kernel32.NewProc("GetDriveTypeW")
	procGetDiskFreeSpace = kernel32.NewProc("GetDiskFreeSpaceW")
)

func driveTypeString(t uint32) string {
	switch t {
	case driveRemovable:
		return "removable"
	case driveFixed:
		return "fixed"
	case driveRemote:
		return "network"
	case driveCDROM:
		return "cdrom"
	case driveRAMDisk:
		return "ramdisk"
	default:
		return "unknown"
	}
}

func probeDevice(path string) (DeviceStats, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return DeviceStats{}, fmt.Errorf("%w: %s: %v", ErrProbe, path, err)
	}

	r0, _, _ := procGetDriveTypeW.Call(uintptr(unsafe.Pointer(p)))
	switch uint32(r0) {
	case driveRemovable, driveFixed, driveRemote, driveRAMDisk:
		// Directly addressable; fine.
	default:
		return DeviceStats{}, fmt.Errorf("%w: %s is a %s drive", ErrProbe, path, driveTypeString(uint32(r0)))
	}

	var sectorsPerCluster, bytesPerSector, freeClusters, totalClusters uint32
	r1, _, lastErr := procGetDiskFreeSpace.Call(
		uintptr(unsafe.Pointer(p)),
		uintptr(unsafe.Pointer(&sectorsPerCluster)),
		uintptr(unsafe.Pointer(&bytesPerSector)),
		uintptr(unsafe.Pointer(&freeClusters)),
		uintptr(unsafe.Pointer(&totalClusters)),
	)
	if r1 == 0 {
		return DeviceStats{}, fmt.Errorf("%w: disk stats for %s: %v", ErrProbe, path, lastErr)
	}

	// Accumulate in int64: the cluster products overflow 32 bits on any
	// modern volume.
	free := int64(bytesPerSector)
	free *= int64(sectorsPerCluster)
	free *= int64(freeClusters)

	total := int64(bytesPerSector)
	total *= int64(sectorsPerCluster)
	total *= int64(totalClusters)

	return DeviceStats{
		SectorSize:        int(bytesPerSector),
		SectorsPerCluster: int(sectorsPerCluster),
		TotalBytes:        total,
		FreeBytes:         free,
	}, nil
}
