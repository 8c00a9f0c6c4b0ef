package acquirekit_test

import (
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	acquirekit "github.com/acquirekit/sdk-go"
	"github.com/acquirekit/sdk-go/frame"
)

// scriptRuntime plays back pre-encoded mapped ranges and records the calls
// the loop makes against it.
type scriptRuntime struct {
	props  acquirekit.Configuration
	ranges [][]byte // successive MapRead results; empty once exhausted

	cameras  []acquirekit.DeviceIdentifier
	storages []acquirekit.DeviceIdentifier

	mapped   int
	released int
	starts   int
	aborts   int
	configs  int
	shutdown bool

	startErr error
	unmapErr error
}

var _ acquirekit.Runtime = (*scriptRuntime)(nil)

func (s *scriptRuntime) Configuration() (acquirekit.Configuration, error) {
	return s.props, nil
}

func (s *scriptRuntime) Configure(props acquirekit.Configuration) error {
	s.configs++
	s.props = props
	return nil
}

func (s *scriptRuntime) SelectDevice(kind acquirekit.DeviceKind, pattern string) (acquirekit.DeviceIdentifier, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return acquirekit.DeviceIdentifier{}, err
	}
	devs := s.cameras
	if kind == acquirekit.DeviceKindStorage {
		devs = s.storages
	}
	for _, d := range devs {
		if re.MatchString(d.Name) {
			return d, nil
		}
	}
	return acquirekit.DeviceIdentifier{}, fmt.Errorf("no %s device matching %q", kind, pattern)
}

func (s *scriptRuntime) Start() error {
	s.starts++
	return s.startErr
}

func (s *scriptRuntime) Abort() error {
	s.aborts++
	return nil
}

func (s *scriptRuntime) Shutdown() error {
	s.shutdown = true
	return nil
}

func (s *scriptRuntime) MapRead(stream int) ([]byte, error) {
	if len(s.ranges) == 0 {
		return nil, nil
	}
	buf := s.ranges[0]
	s.ranges = s.ranges[1:]
	s.mapped += len(buf)
	return buf, nil
}

func (s *scriptRuntime) UnmapRead(stream int, consumed int) error {
	if s.unmapErr != nil {
		return s.unmapErr
	}
	s.released += consumed
	return nil
}

// encodeFrames packs one frame per id into a single contiguous range.
func encodeFrames(t *testing.T, w, h uint32, ids ...uint64) []byte {
	t.Helper()
	var buf []byte
	for _, id := range ids {
		f := frame.Frame{
			ID:         id,
			Width:      w,
			Height:     h,
			SampleType: frame.SampleU16,
			Data:       make([]byte, int(w)*int(h)*2),
		}
		rec := make([]byte, f.BytesOfFrame())
		if _, err := frame.Encode(rec, &f); err != nil {
			t.Fatalf("encoding frame %d: %v", id, err)
		}
		buf = append(buf, rec...)
	}
	return buf
}

func streamProps(shape acquirekit.Shape, maxFrames uint64) acquirekit.Configuration {
	return acquirekit.Configuration{
		Video: []acquirekit.VideoStream{{
			Camera:        acquirekit.CameraConfig{Settings: acquirekit.CameraSettings{Shape: shape, PixelType: frame.SampleU16}},
			MaxFrameCount: maxFrames,
		}},
	}
}

func kindOf(t *testing.T, err error) acquirekit.Kind {
	t.Helper()
	var f *acquirekit.Failure
	if !errors.As(err, &f) {
		t.Fatalf("error %v is not a Failure", err)
	}
	return f.Kind
}

func TestAcquireCountsConfiguredFrames(t *testing.T) {
	rt := &scriptRuntime{
		props: streamProps(acquirekit.Shape{X: 4, Y: 4}, 5),
		ranges: [][]byte{
			encodeFrames(t, 4, 4, 0, 1),
			nil, // a cycle with nothing available is not an error
			encodeFrames(t, 4, 4, 2, 3, 4),
		},
	}

	n, err := acquirekit.Acquire(rt, &acquirekit.LoopOpts{
		TimeBudget: 10 * time.Second,
		Throttle:   time.Millisecond,
	})
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if n != 5 {
		t.Fatalf("counted %d frames, expected 5", n)
	}
	if rt.starts != 1 {
		t.Fatalf("start called %d times, expected 1", rt.starts)
	}
	if rt.aborts != 1 {
		t.Fatalf("abort called %d times, expected exactly 1", rt.aborts)
	}
	if rt.released != rt.mapped {
		t.Fatalf("released %d bytes of %d mapped", rt.released, rt.mapped)
	}
}

func TestAcquireTimeout(t *testing.T) {
	rt := &scriptRuntime{props: streamProps(acquirekit.Shape{X: 4, Y: 4}, 1)}

	start := time.Now()
	n, err := acquirekit.Acquire(rt, &acquirekit.LoopOpts{
		TimeBudget: 50 * time.Millisecond,
		Throttle:   5 * time.Millisecond,
	})
	if err == nil {
		t.Fatalf("missing timeout failure, counted %d frames", n)
	}
	if k := kindOf(t, err); k != acquirekit.KindTimeout {
		t.Fatalf("failure kind %v, expected timeout", k)
	}
	if since := time.Since(start); since > 2*time.Second {
		t.Fatalf("timeout surfaced after %v, expected near the 50ms budget", since)
	}
	if rt.aborts != 1 {
		t.Fatalf("abort called %d times after timeout, expected 1", rt.aborts)
	}
}

func TestAcquireShapeMismatch(t *testing.T) {
	// Second frame reports half the configured shape.
	bad := encodeFrames(t, 8, 8, 0)
	bad = append(bad, encodeFrames(t, 4, 4, 1)...)
	rt := &scriptRuntime{
		props:  streamProps(acquirekit.Shape{X: 8, Y: 8}, 3),
		ranges: [][]byte{bad},
	}

	n, err := acquirekit.Acquire(rt, &acquirekit.LoopOpts{
		TimeBudget: 10 * time.Second,
		Throttle:   time.Millisecond,
	})
	if err == nil {
		t.Fatalf("missing shape mismatch failure")
	}
	if k := kindOf(t, err); k != acquirekit.KindContract {
		t.Fatalf("failure kind %v, expected contract", k)
	}
	if n != 1 {
		t.Fatalf("counter is %d, expected 1: the mismatched frame must not count", n)
	}
	if rt.aborts != 1 {
		t.Fatalf("abort called %d times after mismatch, expected 1", rt.aborts)
	}
}

func TestAcquireOverdeliveryFails(t *testing.T) {
	rt := &scriptRuntime{
		props:  streamProps(acquirekit.Shape{X: 4, Y: 4}, 2),
		ranges: [][]byte{encodeFrames(t, 4, 4, 0, 1, 2)},
	}

	n, err := acquirekit.Acquire(rt, &acquirekit.LoopOpts{
		TimeBudget: 10 * time.Second,
		Throttle:   time.Millisecond,
	})
	if err == nil {
		t.Fatalf("missing failure for overdelivered frames")
	}
	if k := kindOf(t, err); k != acquirekit.KindContract {
		t.Fatalf("failure kind %v, expected contract", k)
	}
	if n != 3 {
		t.Fatalf("counted %d frames, expected 3", n)
	}
	// Abort still ran before the final count check.
	if rt.aborts != 1 {
		t.Fatalf("abort called %d times, expected 1", rt.aborts)
	}
}

func TestAcquireMalformedRecord(t *testing.T) {
	buf := encodeFrames(t, 4, 4, 0)
	rt := &scriptRuntime{
		props:  streamProps(acquirekit.Shape{X: 4, Y: 4}, 1),
		ranges: [][]byte{buf[:len(buf)-1]},
	}

	_, err := acquirekit.Acquire(rt, &acquirekit.LoopOpts{
		TimeBudget: 10 * time.Second,
		Throttle:   time.Millisecond,
	})
	if err == nil {
		t.Fatalf("missing failure for truncated record")
	}
	if k := kindOf(t, err); k != acquirekit.KindContract {
		t.Fatalf("failure kind %v, expected contract", k)
	}
}

func TestAcquireStartFailure(t *testing.T) {
	rt := &scriptRuntime{
		props:    streamProps(acquirekit.Shape{X: 4, Y: 4}, 1),
		startErr: fmt.Errorf("no such stream"),
	}
	_, err := acquirekit.Acquire(rt, nil)
	if err == nil {
		t.Fatalf("missing failure for failed start")
	}
	if k := kindOf(t, err); k != acquirekit.KindRuntime {
		t.Fatalf("failure kind %v, expected runtime", k)
	}
}

func TestAcquireZeroTarget(t *testing.T) {
	rt := &scriptRuntime{props: streamProps(acquirekit.Shape{X: 4, Y: 4}, 0)}
	n, err := acquirekit.Acquire(rt, &acquirekit.LoopOpts{TimeBudget: time.Second, Throttle: time.Millisecond})
	if err != nil {
		t.Fatalf("acquire with zero target: %v", err)
	}
	if n != 0 {
		t.Fatalf("counted %d frames, expected 0", n)
	}
	if rt.aborts != 1 {
		t.Fatalf("abort called %d times, expected 1", rt.aborts)
	}
}
