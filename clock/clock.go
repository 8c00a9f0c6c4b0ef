// Package clock provides the single-time-point clock used for deadline and
// throttle bookkeeping in acquisition loops.
package clock

import "time"

// Clock holds one stored time point. Init stores now; shifting the point
// forward turns the clock into a deadline. The zero value is not ready for
// use, call Init first.
type Clock struct {
	t time.Time
}

// Init stores the current time.
func (c *Clock) Init() {
	c.t = time.Now()
}

// Shift moves the stored time point by d, which may be negative.
func (c *Clock) Shift(d time.Duration) {
	c.t = c.t.Add(d)
}

// CmpNow compares the stored time point to now: negative while the stored
// point is still in the future, positive once it has passed, zero exactly
// at it. A deadline clock keeps returning negative until it expires.
func (c *Clock) CmpNow() int {
	switch d := time.Since(c.t); {
	case d < 0:
		return -1
	case d > 0:
		return 1
	}
	return 0
}

// Elapsed returns the time since the stored point. A negative result means
// the point has not been reached yet, so -Elapsed is the time remaining on
// a deadline clock.
func (c *Clock) Elapsed() time.Duration {
	return time.Since(c.t)
}

// Sleep blocks until d after the stored time point, so time already spent
// since Init counts against the pause. Sleep returns immediately if that
// moment has already passed.
func (c *Clock) Sleep(d time.Duration) {
	if rem := time.Until(c.t.Add(d)); rem > 0 {
		time.Sleep(rem)
	}
}
