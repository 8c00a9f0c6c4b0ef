package acquirekit

import (
	"time"

	"github.com/acquirekit/sdk-go/clock"
	"github.com/acquirekit/sdk-go/frame"
)

// Reference pacing for the acquisition loop.
const (
	DefaultTimeBudget = 20 * time.Second
	DefaultThrottle   = 100 * time.Millisecond
)

// LoopOpts control the acquisition loop's pacing and output.
type LoopOpts struct {
	// TimeBudget bounds the whole run. Reaching it while frames are still
	// outstanding fails the run; it is never a graceful stop. Defaults to
	// DefaultTimeBudget.
	TimeBudget time.Duration

	// Throttle is the pause between polling cycles, bounding CPU usage
	// while waiting for new frames. Defaults to DefaultThrottle.
	Throttle time.Duration

	// Reporter receives per-frame and per-cycle events. Defaults to
	// Discard.
	Reporter Reporter
}

// Acquire starts the configured stream and consumes it until the configured
// frame count is reached, returning the number of frames counted.
//
// Each cycle maps the currently available frame records, validates every
// frame's shape against the configured shape, releases exactly the walked
// byte span back to the runtime, and pauses for the throttle interval. The
// run fails if the deadline passes before the count is reached. Abort is
// issued on every exit path; on success the final count must equal the
// configured maximum exactly.
func Acquire(rt Runtime, opts *LoopOpts) (nframes uint64, rerr error) {
	if rt == nil {
		return 0, Failf(KindPrecondition, "no runtime")
	}
	var xopts LoopOpts
	if opts != nil {
		xopts = *opts
	}
	if xopts.TimeBudget == 0 {
		xopts.TimeBudget = DefaultTimeBudget
	}
	if xopts.Throttle == 0 {
		xopts.Throttle = DefaultThrottle
	}
	rep := xopts.Reporter
	if rep == nil {
		rep = Discard
	}

	props, err := rt.Configuration()
	if err != nil {
		return 0, Failf(KindRuntime, "fetching configuration: %v", err)
	}
	if len(props.Video) == 0 {
		return 0, Failf(KindPrecondition, "no stream configured")
	}
	shape := props.Video[0].Camera.Settings.Shape
	maxFrames := props.Video[0].MaxFrameCount

	var deadline clock.Clock
	deadline.Init()
	deadline.Shift(xopts.TimeBudget)

	if err := rt.Start(); err != nil {
		return 0, Failf(KindRuntime, "starting acquisition: %v", err)
	}

	// The runtime holds acquisition resources until told to stop, so abort
	// runs on every exit path. A failed abort never masks an earlier
	// failure.
	aborted := false
	defer func() {
		if aborted {
			return
		}
		if err := rt.Abort(); err != nil && rerr == nil {
			rerr = Failf(KindRuntime, "aborting acquisition: %v", err)
		}
	}()

	for nframes < maxFrames {
		var throttle clock.Clock
		throttle.Init()

		if deadline.CmpNow() >= 0 {
			return nframes, Failf(KindTimeout, "timeout at %v with %d of %d frames",
				xopts.TimeBudget+deadline.Elapsed(), nframes, maxFrames)
		}

		buf, err := rt.MapRead(0)
		if err != nil {
			return nframes, Failf(KindRuntime, "mapping frames: %v", err)
		}

		cur := frame.NewCursor(buf)
		for cur.More() {
			f, err := cur.Next()
			if err != nil {
				return nframes, Failf(KindContract, "walking mapped frames: %v", err)
			}
			Logf(rep, "stream %d counting frame w id %d", 0, f.ID)
			if f.Width != shape.X || f.Height != shape.Y {
				return nframes, Failf(KindContract, "frame %d shape %dx%d, configured %dx%d",
					f.ID, f.Width, f.Height, shape.X, shape.Y)
			}
			nframes++
		}

		n := cur.Consumed()
		if err := rt.UnmapRead(0, n); err != nil {
			return nframes, Failf(KindRuntime, "releasing %d consumed bytes: %v", n, err)
		}
		if n > 0 {
			Logf(rep, "stream %d consumed bytes %d", 0, n)
		}

		throttle.Sleep(xopts.Throttle)

		Logf(rep, "stream %d nframes %d. remaining time %v", 0, nframes, -deadline.Elapsed())
	}

	aborted = true
	if err := rt.Abort(); err != nil {
		return nframes, Failf(KindRuntime, "aborting acquisition: %v", err)
	}

	// Guards against the runtime delivering frames past the configured
	// maximum after the last counted cycle.
	if nframes != maxFrames {
		return nframes, Failf(KindContract, "counted %d frames, configured maximum is %d", nframes, maxFrames)
	}
	return nframes, nil
}
