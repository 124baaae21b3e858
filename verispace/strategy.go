package verispace

import (
	"context"
	"io"
)

// Artifact is an open test file that positioned I/O runs against.
type Artifact interface {
	io.ReaderAt
	io.WriterAt
	Close() error
}

// UnitRef locates one allocation unit: the artifact holding it and the
// unit's byte offset within that artifact. Release returns any per-unit
// resources; strategies with a shared handle release nothing here.
type UnitRef struct {
	Artifact Artifact
	Offset   int64
	release  func() error
}

// Release closes per-unit resources. Safe to call once per ref.
func (u *UnitRef) Release() error {
	if u.release == nil {
		return nil
	}
	return u.release()
}

// Strategy is the allocation scheme shared by both test variants: how
// capacity-sized storage is reserved and how individual units are opened
// for writing and re-reading. The pattern writer and verifier are common
// to all strategies.
type Strategy interface {
	// Allocate reserves the capacity under test. No artifact is left
	// half-created on failure.
	Allocate(ctx context.Context) error

	// ResumeIndex reports the first unit index the write phase should
	// produce, recovering prior progress where the scheme persists it.
	ResumeIndex() (int64, error)

	// Units is the number of allocation units covered.
	Units() int64

	// ProbeSize is the bytes written and verified per unit.
	ProbeSize() int

	// Batch is the progress-reporting interval in units.
	Batch() int64

	// WriteRef opens unit index for writing.
	WriteRef(index int64) (*UnitRef, error)

	// VerifyList enumerates the unit indices to verify, in scan order.
	VerifyList() ([]int64, error)

	// VerifyRef opens unit index for read-back.
	VerifyRef(index int64) (*UnitRef, error)

	// Cleanup removes every artifact the scheme may have produced.
	Cleanup() error

	// Close releases shared handles without removing artifacts.
	Close() error
}
