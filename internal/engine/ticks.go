package engine

import "time"

// The millisecond tick counter wraps at 2^29. Elapsed-time math masks the
// subtraction so intervals spanning a rollover still come out right.
const (
	tickModulus = 1 << 29

	// TickMask is (2^29)-1, applied to every tick subtraction.
	TickMask uint32 = tickModulus - 1
)

// Elapsed returns the milliseconds between two wrapping tick values, t2
// taken after t1. The result is correct even when t2 < t1 because the
// counter rolled over in between.
func Elapsed(t1, t2 uint32) uint32 {
	return (t2 - t1) & TickMask
}

// SystemClock implements host.Clock over the monotonic wall clock.
type SystemClock struct {
	start time.Time
}

func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

// Ticks returns milliseconds since the clock was created, wrapped to the
// tick modulus.
func (c *SystemClock) Ticks() uint32 {
	return uint32(time.Since(c.start).Milliseconds()) & TickMask
}
