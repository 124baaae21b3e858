package verispace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"k8s.io/klog"
)

// FileSequence is the multi-file strategy: one fixed-size file per
// allocation unit, named "<prefix><6-hex-digit index><suffix>". The
// filename index is the durable record of which unit a file holds, so
// verification trusts it even across process restarts or reordered
// directory scans. That also means a renamed or copied artifact verifies
// against its embedded index, stale or not.
type FileSequence struct {
	dir        string
	blockSize  int64
	totalBytes int64

	writeDirect  bool
	verifyDirect bool
}

// NewFileSequence configures the multi-file strategy for totalBytes of
// capacity under cfg.Path.
func NewFileSequence(cfg Config, totalBytes int64) *FileSequence {
	return &FileSequence{
		dir:          cfg.Path,
		blockSize:    cfg.blockSize(),
		totalBytes:   totalBytes,
		writeDirect:  cfg.DirectIO,
		verifyDirect: cfg.DirectIO && !cfg.Cached,
	}
}

// name returns the filename carrying unit index.
func (s *FileSequence) name(index int64) string {
	return fmt.Sprintf("%s%06x%s", SeqFilePrefix, index, SeqFileSuffix)
}

// parseIndex recovers the unit index embedded in a sequence filename.
// The hex parse is case-insensitive; external tools rely on the same
// contract.
func parseIndex(name string) (int64, bool) {
	core, ok := strings.CutPrefix(name, SeqFilePrefix)
	if !ok {
		return 0, false
	}
	core, ok = strings.CutSuffix(core, SeqFileSuffix)
	if !ok || len(core) != 6 {
		return 0, false
	}
	n, err := strconv.ParseInt(core, 16, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// matches reports whether name belongs to the sequence naming scheme.
func matches(name string) bool {
	return strings.HasPrefix(name, SeqFilePrefix) && strings.HasSuffix(name, SeqFileSuffix)
}

// Allocate implements Strategy. The sequence reserves nothing up front;
// each file is created when its unit is written, which is what makes the
// create phase restartable.
func (s *FileSequence) Allocate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fi, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrAllocation, s.dir, err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrAllocation, s.dir)
	}
	return nil
}

// ResumeIndex scans the target directory for prior sequence files and
// returns the highest embedded index plus one, so a second run never
// rewrites already-written regions. Files matching the scheme but
// carrying no parseable index are skipped here; verification, not
// resumption, is where a foreign file must halt the run.
func (s *FileSequence) ResumeIndex() (int64, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("scan %s: %w", s.dir, err)
	}
	next := int64(0)
	for _, e := range entries {
		if e.IsDir() || !matches(e.Name()) {
			continue
		}
		idx, ok := parseIndex(e.Name())
		if !ok {
			continue
		}
		if idx+1 > next {
			next = idx + 1
		}
	}
	if next > 0 {
		klog.Infof("found prior files in %s, resuming at unit %d", s.dir, next)
	}
	return next, nil
}

// Units implements Strategy.
func (s *FileSequence) Units() int64 { return s.totalBytes / s.blockSize }

// ProbeSize implements Strategy: the sequence fills every byte of each
// unit's file.
func (s *FileSequence) ProbeSize() int { return int(s.blockSize) }

// Batch implements Strategy.
func (s *FileSequence) Batch() int64 { return seqBatch }

// WriteRef implements Strategy: creates the unit's file. The ref's
// release closes it so each file is written once and closed immediately.
func (s *FileSequence) WriteRef(index int64) (*UnitRef, error) {
	path := filepath.Join(s.dir, s.name(index))
	f, err := openUnit(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, s.writeDirect)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return &UnitRef{Artifact: f, Offset: 0, release: f.Close}, nil
}

// VerifyList enumerates the sequence files present in the target
// directory, in scan order, returning each file's embedded index. A file
// matching the naming scheme without a parseable index is a NamingError:
// a corrupted or foreign file that halts verification for this variant.
func (s *FileSequence) VerifyList() ([]int64, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", s.dir, err)
	}
	var list []int64
	for _, e := range entries {
		if e.IsDir() || !matches(e.Name()) {
			continue
		}
		idx, ok := parseIndex(e.Name())
		if !ok {
			return nil, &NamingError{Name: e.Name()}
		}
		list = append(list, idx)
	}
	return list, nil
}

// VerifyRef implements Strategy: reopens the unit's file for read-back.
func (s *FileSequence) VerifyRef(index int64) (*UnitRef, error) {
	path := filepath.Join(s.dir, s.name(index))
	f, err := openUnit(path, os.O_RDONLY, s.verifyDirect)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &UnitRef{Artifact: f, Offset: 0, release: f.Close}, nil
}

// Close implements Strategy; the sequence holds no shared handles.
func (s *FileSequence) Close() error { return nil }

// Cleanup removes every file matching the naming scheme. Per-file delete
// failures are collected rather than aborting the sweep.
func (s *FileSequence) Cleanup() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("%w: scan %s: %v", ErrCleanup, s.dir, err)
	}
	var failed []string
	var removed int64
	for _, e := range entries {
		if e.IsDir() || !matches(e.Name()) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
			klog.Warningf("unable to delete %s: %v", e.Name(), err)
			failed = append(failed, e.Name())
			continue
		}
		removed++
	}
	klog.V(1).Infof("deleted %d sequence files from %s", removed, s.dir)
	if len(failed) > 0 {
		return fmt.Errorf("%w: %d files not deleted (first: %s)", ErrCleanup, len(failed), failed[0])
	}
	return nil
}
