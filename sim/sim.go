// Package sim implements an in-process acquisition runtime with simulated
// cameras and storage writers, for driving acquisition loops without
// hardware attached.
package sim

import (
	"context"
	"errors"
	"regexp"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	acquirekit "github.com/acquirekit/sdk-go"
	"github.com/acquirekit/sdk-go/frame"
	"github.com/acquirekit/sdk-go/internal/ring"
)

type state int

const (
	stateIdle state = iota
	stateRunning
	stateShutdown
)

// DefaultRingFrames is the frame capacity of a stream's ring buffer.
const DefaultRingFrames = 16

// Opts configure the simulated runtime.
type Opts struct {
	// WatchDir, when set, registers a "watched folder" camera that
	// sources frames from image files dropped into the directory.
	WatchDir string

	// RingFrames is the stream ring capacity in frames. Defaults to
	// DefaultRingFrames.
	RingFrames int
}

type device struct {
	ident     acquirekit.DeviceIdentifier
	newSource sourceFactory
	newWriter writerFactory
}

// Runtime is a simulated acquisition runtime driving one video stream.
// Frame production runs on the runtime's own goroutine; callers own the
// configure-start-consume-abort sequence.
type Runtime struct {
	rep  acquirekit.Reporter
	opts Opts

	mu      sync.Mutex
	state   state
	devices []device
	props   acquirekit.Configuration

	ring   *ring.Ring
	src    source
	sink   writer
	cancel context.CancelFunc
	group  *errgroup.Group
}

var _ acquirekit.Runtime = (*Runtime)(nil)

// New returns an idle runtime reporting through rep. A nil rep discards all
// output.
func New(rep acquirekit.Reporter, opts *Opts) *Runtime {
	r := &Runtime{rep: rep}
	if rep == nil {
		r.rep = acquirekit.Discard
	}
	if opts != nil {
		r.opts = *opts
	}
	if r.opts.RingFrames <= 0 {
		r.opts.RingFrames = DefaultRingFrames
	}

	r.addCamera("simulated: uniform random", newUniformSource)
	r.addCamera("simulated: radial sin", newRadialSource)
	if dir := r.opts.WatchDir; dir != "" {
		r.addCamera("watched folder", func(cs acquirekit.CameraSettings) (source, error) {
			return newFolderSource(dir, cs)
		})
	}
	r.addStorage("raw", newRawWriter)
	r.addStorage("trash", newTrashWriter)

	r.props = acquirekit.Configuration{Video: make([]acquirekit.VideoStream, 1)}
	return r
}

func (r *Runtime) addCamera(name string, f sourceFactory) {
	r.devices = append(r.devices, device{
		ident:     acquirekit.DeviceIdentifier{Kind: acquirekit.DeviceKindCamera, ID: uuid.NewString(), Name: name},
		newSource: f,
	})
}

func (r *Runtime) addStorage(name string, f writerFactory) {
	r.devices = append(r.devices, device{
		ident:     acquirekit.DeviceIdentifier{Kind: acquirekit.DeviceKindStorage, ID: uuid.NewString(), Name: name},
		newWriter: f,
	})
}

// Devices returns the identifiers of every registered device.
func (r *Runtime) Devices() []acquirekit.DeviceIdentifier {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]acquirekit.DeviceIdentifier, len(r.devices))
	for i, d := range r.devices {
		ids[i] = d.ident
	}
	return ids
}

func (r *Runtime) lookup(ident acquirekit.DeviceIdentifier, kind acquirekit.DeviceKind) (device, bool) {
	for _, d := range r.devices {
		if d.ident.ID == ident.ID && d.ident.Kind == kind {
			return d, true
		}
	}
	return device{}, false
}

func errShutdown() error {
	return acquirekit.Failf(acquirekit.KindRuntime, "runtime already shut down")
}

// SelectDevice resolves the first device of kind whose name matches
// pattern, in registration order.
func (r *Runtime) SelectDevice(kind acquirekit.DeviceKind, pattern string) (acquirekit.DeviceIdentifier, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return acquirekit.DeviceIdentifier{}, acquirekit.Failf(acquirekit.KindPrecondition, "device pattern %q: %v", pattern, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == stateShutdown {
		return acquirekit.DeviceIdentifier{}, errShutdown()
	}
	for _, d := range r.devices {
		if d.ident.Kind == kind && re.MatchString(d.ident.Name) {
			return d.ident, nil
		}
	}
	return acquirekit.DeviceIdentifier{}, acquirekit.Failf(acquirekit.KindPrecondition, "no %s device matching %q", kind, pattern)
}

// Configuration returns a copy of the current stream configuration.
func (r *Runtime) Configuration() (acquirekit.Configuration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == stateShutdown {
		return acquirekit.Configuration{}, errShutdown()
	}
	return copyConfiguration(r.props), nil
}

func copyConfiguration(props acquirekit.Configuration) acquirekit.Configuration {
	out := props
	out.Video = append([]acquirekit.VideoStream(nil), props.Video...)
	for i := range out.Video {
		dims := out.Video[i].Storage.Settings.Dimensions
		out.Video[i].Storage.Settings.Dimensions = append([]acquirekit.Dimension(nil), dims...)
	}
	return out
}

// Configure validates and stores props. The submitted values read back from
// Configuration afterwards. Reconfiguring while acquisition is running is
// rejected.
func (r *Runtime) Configure(props acquirekit.Configuration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.state {
	case stateShutdown:
		return errShutdown()
	case stateRunning:
		return acquirekit.Failf(acquirekit.KindPrecondition, "cannot reconfigure while acquisition is running")
	}

	if len(props.Video) != 1 {
		return acquirekit.Failf(acquirekit.KindPrecondition, "runtime drives exactly one stream, got %d", len(props.Video))
	}
	video := props.Video[0]
	if _, ok := r.lookup(video.Camera.Identifier, acquirekit.DeviceKindCamera); !ok {
		return acquirekit.Failf(acquirekit.KindPrecondition, "unknown camera device %q", video.Camera.Identifier.ID)
	}
	if _, ok := r.lookup(video.Storage.Identifier, acquirekit.DeviceKindStorage); !ok {
		return acquirekit.Failf(acquirekit.KindPrecondition, "unknown storage device %q", video.Storage.Identifier.ID)
	}
	cs := video.Camera.Settings
	if cs.Shape.X == 0 || cs.Shape.Y == 0 {
		return acquirekit.Failf(acquirekit.KindPrecondition, "camera shape %dx%d", cs.Shape.X, cs.Shape.Y)
	}
	if !cs.PixelType.Valid() {
		return acquirekit.Failf(acquirekit.KindPrecondition, "unsupported pixel type %v", cs.PixelType)
	}
	if cs.Binning == 0 {
		return acquirekit.Failf(acquirekit.KindPrecondition, "binning must be at least 1")
	}
	if cs.ExposureTime <= 0 {
		return acquirekit.Failf(acquirekit.KindPrecondition, "exposure time %v", cs.ExposureTime)
	}

	r.props = copyConfiguration(props)
	return nil
}

// Start sizes the stream ring from the configured shape and begins frame
// production. Production stops by itself once the configured frame count
// has been produced; a zero count produces until Abort.
func (r *Runtime) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.state {
	case stateShutdown:
		return errShutdown()
	case stateRunning:
		return acquirekit.Failf(acquirekit.KindPrecondition, "acquisition already running")
	}

	video := r.props.Video[0]
	if video.Camera.Identifier.ID == "" {
		return acquirekit.Failf(acquirekit.KindPrecondition, "no configuration submitted")
	}
	camera, _ := r.lookup(video.Camera.Identifier, acquirekit.DeviceKindCamera)
	storage, _ := r.lookup(video.Storage.Identifier, acquirekit.DeviceKindStorage)

	cs := video.Camera.Settings
	rg, err := ring.New(frame.EncodedSize(cs.Shape.X, cs.Shape.Y, cs.PixelType), r.opts.RingFrames)
	if err != nil {
		return acquirekit.Failf(acquirekit.KindRuntime, "sizing stream ring: %v", err)
	}

	src, err := camera.newSource(cs)
	if err != nil {
		return acquirekit.Failf(acquirekit.KindRuntime, "opening camera %q: %v", camera.ident.Name, err)
	}
	sink, err := storage.newWriter(video.Storage.Settings)
	if err != nil {
		src.Close()
		return acquirekit.Failf(acquirekit.KindRuntime, "opening storage %q: %v", storage.ident.Name, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	group, gctx := errgroup.WithContext(ctx)
	r.ring, r.src, r.sink, r.cancel, r.group = rg, src, sink, cancel, group

	maxFrames := video.MaxFrameCount
	group.Go(func() error {
		return produce(gctx, rg, src, sink, cs, maxFrames)
	})

	r.state = stateRunning
	acquirekit.Logf(r.rep, "stream %d started: camera %q storage %q %s %dx%d",
		0, camera.ident.Name, storage.ident.Name, cs.PixelType, cs.Shape.X, cs.Shape.Y)
	return nil
}

// MapRead returns the currently available contiguous frame records of the
// stream, possibly empty. The range stays valid until the matching
// UnmapRead.
func (r *Runtime) MapRead(stream int) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkStream(stream); err != nil {
		return nil, err
	}
	return r.ring.Map(), nil
}

// UnmapRead releases consumed bytes of the mapped range back to the stream
// ring. Zero is valid and releases nothing.
func (r *Runtime) UnmapRead(stream int, consumed int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkStream(stream); err != nil {
		return err
	}
	if err := r.ring.Release(consumed); err != nil {
		return acquirekit.Failf(acquirekit.KindRuntime, "unmap stream %d: %v", stream, err)
	}
	return nil
}

func (r *Runtime) checkStream(stream int) error {
	if r.state == stateShutdown {
		return errShutdown()
	}
	if r.state != stateRunning {
		return acquirekit.Failf(acquirekit.KindRuntime, "stream %d is not running", stream)
	}
	if stream != 0 {
		return acquirekit.Failf(acquirekit.KindPrecondition, "no stream %d, this runtime drives stream 0 only", stream)
	}
	return nil
}

// Abort stops frame production and closes the stream's camera and storage
// writer. Aborting an idle runtime is a no-op.
func (r *Runtime) Abort() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == stateShutdown {
		return errShutdown()
	}
	return r.stopLocked()
}

func (r *Runtime) stopLocked() error {
	if r.state != stateRunning {
		return nil
	}
	r.cancel()
	err := r.group.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if cerr := r.src.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if cerr := r.sink.Close(); cerr != nil && err == nil {
		err = cerr
	}
	r.ring, r.src, r.sink, r.cancel, r.group = nil, nil, nil, nil, nil
	r.state = stateIdle
	if err != nil {
		return acquirekit.Failf(acquirekit.KindRuntime, "stopping stream: %v", err)
	}
	acquirekit.Logf(r.rep, "stream %d aborted", 0)
	return nil
}

// Shutdown stops any running acquisition and tears down the runtime. It is
// safe to call more than once; everything else fails afterwards.
func (r *Runtime) Shutdown() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == stateShutdown {
		return nil
	}
	err := r.stopLocked()
	r.state = stateShutdown
	return err
}
