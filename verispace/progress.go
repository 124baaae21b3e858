package verispace

import "time"

// Event is one progress report. Events fire once per batch of units and
// once at phase end, never per byte.
type Event struct {
	Phase Phase
	// Done and Total count allocation units.
	Done  int64
	Total int64
	// BadUnits are the indices that mismatched since the previous event.
	BadUnits []int64
	// Batch is the time spent on the units since the previous event;
	// Elapsed is the running total for the phase.
	Batch   time.Duration
	Elapsed time.Duration
}

// Phase identifies which stage of the run an event belongs to.
type Phase int

// Run phases in execution order. PhaseCheck is the interleaved
// write-and-read-back pass of the single-file variant.
const (
	PhaseAllocate Phase = iota
	PhaseWrite
	PhaseVerify
	PhaseCheck
	PhaseCleanup
)

func (p Phase) String() string {
	switch p {
	case PhaseAllocate:
		return "allocate"
	case PhaseWrite:
		return "write"
	case PhaseVerify:
		return "verify"
	case PhaseCheck:
		return "check"
	case PhaseCleanup:
		return "cleanup"
	}
	return "unknown"
}

// Sink receives progress events. Implementations must not block for long;
// the I/O loop calls them synchronously between units.
type Sink interface {
	Report(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

// Report implements Sink.
func (f SinkFunc) Report(ev Event) { f(ev) }

// batchTimer drives batched progress reporting: it emits an event to the
// sink every interval units and a final event when the phase closes.
type batchTimer struct {
	sink     Sink
	phase    Phase
	total    int64
	interval int64
	done     int64
	badUnits []int64
	start    time.Time
	lap      time.Time
}

func newBatchTimer(sink Sink, phase Phase, total, interval int64) *batchTimer {
	now := time.Now()
	return &batchTimer{sink: sink, phase: phase, total: total, interval: interval, start: now, lap: now}
}

// tick records one completed unit and reports if a batch boundary was
// crossed.
func (t *batchTimer) tick() {
	t.done++
	if t.sink == nil || t.done%t.interval != 0 {
		return
	}
	t.emit()
}

// bad records a mismatched unit for the next event.
func (t *batchTimer) bad(index int64) {
	if t.sink == nil {
		return
	}
	t.badUnits = append(t.badUnits, index)
}

// finish reports the closing event for the phase. It fires whenever
// units or mismatches are still unreported.
func (t *batchTimer) finish() {
	if t.sink == nil || (t.done%t.interval == 0 && len(t.badUnits) == 0) {
		return
	}
	t.emit()
}

func (t *batchTimer) emit() {
	now := time.Now()
	t.sink.Report(Event{
		Phase:    t.phase,
		Done:     t.done,
		Total:    t.total,
		BadUnits: t.badUnits,
		Batch:    now.Sub(t.lap),
		Elapsed:  now.Sub(t.start),
	})
	t.badUnits = nil
	t.lap = now
}
