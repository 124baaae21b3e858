package verispace

import (
	"fmt"
)

// DeviceStats describes the target volume as the operating system reports
// it. TotalBytes and FreeBytes are the claims the protocol puts to the
// test; SectorSize is the device-native alignment unit for
// cache-bypassing I/O.
type DeviceStats struct {
	SectorSize        int
	SectorsPerCluster int
	TotalBytes        int64
	FreeBytes         int64
}

// Probe queries the volume holding path. It fails with ErrProbe when the
// OS query fails or the path is not a directly-addressable volume kind,
// and with ErrCapacityOverflow when a computed capacity is not strictly
// positive, since all later offset arithmetic is signed.
func Probe(path string) (DeviceStats, error) {
	st, err := probeDevice(path)
	if err != nil {
		return DeviceStats{}, err
	}
	if st.TotalBytes <= 0 || st.FreeBytes <= 0 {
		return DeviceStats{}, fmt.Errorf("%w: total %d, free %d for %s",
			ErrCapacityOverflow, st.TotalBytes, st.FreeBytes, path)
	}
	return st, nil
}
