package engine

import "sync/atomic"

// Clock is a monotonic logical clock stamping evaluation cycles.
//
// Each completed cycle gets a strictly increasing seq number, giving
// traces and the history store a deterministic ordering that does not
// depend on wall time.
//
// Thread-safety: safe for concurrent use (atomic operations), though the
// run loop is the only caller in practice.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0; the first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock resuming from a specific sequence number,
// e.g. to continue numbering after a restart against an existing history
// store.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and advances the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the latest issued sequence number without advancing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
