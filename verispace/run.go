package verispace

import (
	"context"
	"errors"
	"fmt"

	"k8s.io/klog"
)

// Result accumulates the outcome of the write and verify passes.
// Mismatches are findings, not faults: a non-empty list means the device
// lied about some range, while the pass itself completed.
type Result struct {
	Written    int64
	Verified   int64
	Mismatches []*Mismatch
}

// OK reports whether every verified unit matched.
func (r *Result) OK() bool { return len(r.Mismatches) == 0 }

// Runner drives the protocol phases over one strategy: allocate, write,
// verify, cleanup. All I/O is synchronous and single-threaded; the
// context is consulted at every unit boundary, which is the smallest
// interruptible granularity.
type Runner struct {
	cfg   Config
	strat Strategy
	buf   *AlignedBuffer
}

// NewRunner builds a runner for the given strategy. The transfer buffer
// is aligned to the probed sector size and reused for every unit.
func NewRunner(cfg Config, stats DeviceStats, strat Strategy) (*Runner, error) {
	buf, err := NewAlignedBuffer(strat.ProbeSize(), stats.SectorSize)
	if err != nil {
		return nil, fmt.Errorf("unit buffer: %w", err)
	}
	return &Runner{cfg: cfg, strat: strat, buf: buf}, nil
}

// Allocate reserves the capacity under test.
func (r *Runner) Allocate(ctx context.Context) error {
	return r.strat.Allocate(ctx)
}

// WritePass writes the marker pattern into every unit from the
// strategy's resume index up, updating res.Written as it goes. The count
// of units already written survives in res even when the pass fails,
// for partial-progress reporting.
func (r *Runner) WritePass(ctx context.Context, res *Result) error {
	start, err := r.strat.ResumeIndex()
	if err != nil {
		return err
	}
	units := r.strat.Units()
	klog.Infof("write pass: units %d..%d, %d bytes each", start, units-1, r.buf.Len())

	w := NewWriter(r.buf)
	t := newBatchTimer(r.cfg.Progress, PhaseWrite, units, r.strat.Batch())
	t.done = start
	for i := start; i < units; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.writeOne(w, i); err != nil {
			return err
		}
		res.Written++
		t.tick()
	}
	t.finish()
	return nil
}

func (r *Runner) writeOne(w *Writer, index int64) error {
	ref, err := r.strat.WriteRef(index)
	if err != nil {
		return err
	}
	klog.V(2).Infof("write unit %d @ offset %d", index, ref.Offset)
	if err := w.WriteUnit(ref, index); err != nil {
		ref.Release()
		return err
	}
	if err := ref.Release(); err != nil {
		return fmt.Errorf("close unit %d: %w", index, err)
	}
	return nil
}

// VerifyPass re-reads the units the strategy enumerates and checks the
// markers. On a mismatch it either stops (default) or, with KeepGoing,
// records the finding and scans on, building a fuller map of which
// regions are bad.
func (r *Runner) VerifyPass(ctx context.Context, res *Result) error {
	list, err := r.strat.VerifyList()
	if err != nil {
		return err
	}
	klog.Infof("verify pass: %d units", len(list))

	v := NewVerifier(r.buf)
	t := newBatchTimer(r.cfg.Progress, PhaseVerify, int64(len(list)), r.strat.Batch())
	for _, index := range list {
		if err := ctx.Err(); err != nil {
			return err
		}
		ok, err := r.verifyOne(v, index, res)
		if err != nil {
			return err
		}
		if !ok {
			t.bad(index)
		}
		t.tick()
		if !ok && !r.cfg.KeepGoing {
			t.finish()
			return nil
		}
	}
	t.finish()
	return nil
}

// CheckPass is the interleaved variant used by the single-file test:
// each unit is written and immediately read back on the same handle,
// unless NoReads limits the pass to writes.
func (r *Runner) CheckPass(ctx context.Context, res *Result) error {
	start, err := r.strat.ResumeIndex()
	if err != nil {
		return err
	}
	units := r.strat.Units()
	klog.Infof("check pass: %d units of %d bytes", units, r.buf.Len())

	phase := PhaseCheck
	if r.cfg.NoReads {
		phase = PhaseWrite
	}
	w := NewWriter(r.buf)
	v := NewVerifier(r.buf)
	t := newBatchTimer(r.cfg.Progress, phase, units, r.strat.Batch())
	for i := start; i < units; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.writeOne(w, i); err != nil {
			return err
		}
		res.Written++
		if !r.cfg.NoReads {
			ok, err := r.verifyOne(v, i, res)
			if err != nil {
				return err
			}
			if !ok {
				t.bad(i)
			}
			if !ok && !r.cfg.KeepGoing {
				t.tick()
				t.finish()
				return nil
			}
		}
		t.tick()
	}
	t.finish()
	return nil
}

// verifyOne checks one unit. A mismatch is recorded in res and reported
// as ok=false; any other failure is an error.
func (r *Runner) verifyOne(v *Verifier, index int64, res *Result) (bool, error) {
	ref, err := r.strat.VerifyRef(index)
	if err != nil {
		return false, err
	}
	klog.V(2).Infof("verify unit %d @ offset %d", index, ref.Offset)
	verr := v.VerifyUnit(ref, index)
	if cerr := ref.Release(); cerr != nil && verr == nil {
		return false, fmt.Errorf("close unit %d: %w", index, cerr)
	}
	if verr == nil {
		res.Verified++
		return true, nil
	}
	var mm *Mismatch
	if errors.As(verr, &mm) {
		klog.Warningf("mismatch: %v", mm)
		res.Mismatches = append(res.Mismatches, mm)
		return false, nil
	}
	return false, verr
}

// Cleanup releases shared handles and removes the test artifacts, unless
// the configuration keeps them. A deletion failure is a hygiene problem,
// not a capacity finding: it never changes the verdict the verify pass
// reached.
func (r *Runner) Cleanup() error {
	if err := r.strat.Close(); err != nil {
		klog.Warningf("close strategy: %v", err)
	}
	if r.cfg.Keep {
		return nil
	}
	return r.strat.Cleanup()
}
