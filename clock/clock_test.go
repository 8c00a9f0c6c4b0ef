package clock_test

import (
	"testing"
	"time"

	"github.com/acquirekit/sdk-go/clock"
)

func TestDeadline(t *testing.T) {
	var c clock.Clock
	c.Init()
	c.Shift(time.Minute)

	if got := c.CmpNow(); got >= 0 {
		t.Fatalf("deadline a minute out compared as %d, expected negative", got)
	}
	if e := c.Elapsed(); e >= 0 {
		t.Fatalf("elapsed %v for future deadline, expected negative", e)
	}

	c.Shift(-2 * time.Minute)
	if got := c.CmpNow(); got <= 0 {
		t.Fatalf("deadline a minute past compared as %d, expected positive", got)
	}
	if e := c.Elapsed(); e <= 0 {
		t.Fatalf("elapsed %v for passed deadline, expected positive", e)
	}
}

func TestSleepFromInit(t *testing.T) {
	var c clock.Clock
	start := time.Now()
	c.Init()
	c.Sleep(30 * time.Millisecond)
	if since := time.Since(start); since < 25*time.Millisecond {
		t.Fatalf("slept only %v, expected about 30ms", since)
	}
}

func TestSleepDeductsElapsed(t *testing.T) {
	var c clock.Clock
	c.Init()
	time.Sleep(50 * time.Millisecond)

	// The pause is relative to Init, which already passed.
	start := time.Now()
	c.Sleep(10 * time.Millisecond)
	if since := time.Since(start); since > 30*time.Millisecond {
		t.Fatalf("sleep took %v, expected immediate return", since)
	}
}
