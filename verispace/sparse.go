package verispace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"k8s.io/klog"
)

// SparseFile is the single-file strategy: one artifact pre-allocated to
// the full capacity under test without zero-filling, so the pattern
// writer's sector-sized probes at block-spaced intervals are the first
// physical writes to each region. Requires the durable-allocation
// capability (on Windows, SeManageVolumePrivilege).
type SparseFile struct {
	path       string
	blockSize  int64
	probeSize  int
	totalBytes int64

	// allocDirect governs the allocation handle; passDirect the shared
	// write+verify handle, which honours the cached-verification option.
	allocDirect bool
	passDirect  bool

	shared *os.File
}

// NewSparseFile configures the single-file strategy for totalBytes of
// capacity under cfg.Path. Probes are stats.SectorSize bytes each. The
// block size must be a multiple of the sector size: probes land at
// index*blockSize, and cache-bypassing writes at an unaligned offset
// fail with EINVAL mid-pass instead of here.
func NewSparseFile(cfg Config, stats DeviceStats, totalBytes int64) (*SparseFile, error) {
	blockSize := cfg.blockSize()
	if stats.SectorSize > 0 && blockSize%int64(stats.SectorSize) != 0 {
		return nil, fmt.Errorf("%w: block size %d is not a multiple of sector size %d",
			ErrAllocation, blockSize, stats.SectorSize)
	}
	return &SparseFile{
		path:        filepath.Join(cfg.Path, SparseFileName),
		blockSize:   blockSize,
		probeSize:   stats.SectorSize,
		totalBytes:  totalBytes,
		allocDirect: cfg.DirectIO,
		passDirect:  cfg.DirectIO && !cfg.Cached,
	}, nil
}

// Allocate creates the artifact and extends it to the full size by
// repositioning past the end and marking the whole range valid, skipping
// the zero-fill. On any failure the artifact is closed and removed before
// the error returns.
func (s *SparseFile) Allocate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := acquireDurableAllocation(); err != nil {
		return err
	}

	klog.V(1).Infof("creating %s, will be %d bytes", s.path, s.totalBytes)
	f, err := openUnit(s.path, os.O_CREATE|os.O_RDWR|os.O_TRUNC, s.allocDirect)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrAllocation, s.path, err)
	}
	if err := reserveSpan(f, s.totalBytes); err != nil {
		f.Close()
		os.Remove(s.path)
		return fmt.Errorf("%w: reserve %d bytes in %s: %v", ErrAllocation, s.totalBytes, s.path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(s.path)
		return fmt.Errorf("%w: close %s: %v", ErrAllocation, s.path, err)
	}
	return nil
}

// ResumeIndex implements Strategy. The sparse artifact records no
// progress, so a pass always starts at unit 0.
func (s *SparseFile) ResumeIndex() (int64, error) { return 0, nil }

// Units implements Strategy.
func (s *SparseFile) Units() int64 { return s.totalBytes / s.blockSize }

// ProbeSize implements Strategy: sector-sized probes at block-spaced
// intervals rather than filling every byte.
func (s *SparseFile) ProbeSize() int { return s.probeSize }

// Batch implements Strategy.
func (s *SparseFile) Batch() int64 { return sparseBatch }

func (s *SparseFile) open() (*os.File, error) {
	if s.shared != nil {
		return s.shared, nil
	}
	f, err := openUnit(s.path, os.O_RDWR, s.passDirect)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	s.shared = f
	return f, nil
}

// WriteRef implements Strategy. All units share one handle; the ref
// releases nothing.
func (s *SparseFile) WriteRef(index int64) (*UnitRef, error) {
	f, err := s.open()
	if err != nil {
		return nil, err
	}
	return &UnitRef{Artifact: f, Offset: index * s.blockSize}, nil
}

// VerifyList implements Strategy: every unit in capacity order.
func (s *SparseFile) VerifyList() ([]int64, error) {
	units := s.Units()
	list := make([]int64, units)
	for i := range list {
		list[i] = int64(i)
	}
	return list, nil
}

// VerifyRef implements Strategy. Read-after-write on the write handle:
// the same descriptor that wrote the unit reads it back, with caching
// decided once at open time.
func (s *SparseFile) VerifyRef(index int64) (*UnitRef, error) {
	return s.WriteRef(index)
}

// Close implements Strategy.
func (s *SparseFile) Close() error {
	if s.shared == nil {
		return nil
	}
	err := s.shared.Close()
	s.shared = nil
	return err
}

// Cleanup implements Strategy: removes the artifact.
func (s *SparseFile) Cleanup() error {
	s.Close()
	if err := os.Remove(s.path); err != nil {
		return fmt.Errorf("%w: %v", ErrCleanup, err)
	}
	return nil
}
