package validator

import "sync/atomic"

// Clock is a monotonic logical clock stamping trace events.
//
// All trace rows carry a strictly increasing seq number from this clock,
// never a wall-clock timestamp: ordering must be deterministic and replay
// must produce the identical sequence.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations),
// though the validator's single-threaded loop only ever drives it from one
// goroutine.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0; the first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock resuming from a known position, used when
// replaying a stored trace.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
