package acquirekit

import (
	"time"

	"github.com/acquirekit/sdk-go/frame"
)

// StreamOpts select the devices and acquisition parameters for one stream.
type StreamOpts struct {
	// CameraPattern and StoragePattern are regular expressions matched
	// against device names by the runtime.
	CameraPattern  string
	StoragePattern string

	// Destination is the storage destination name, for example an output
	// filename. Its meaning belongs to the selected storage device.
	Destination string

	PixelType     frame.SampleType
	Shape         Shape
	Binning       uint8
	ExposureTime  time.Duration
	MaxFrameCount uint64
}

// Setup resolves the camera and storage devices for opts and submits the
// resulting single-stream configuration to the runtime.
//
// Any resolution or submission failure is fatal: Setup never retries or
// falls back to another device. Calling Setup again before Start resolves
// the same devices given unchanged device availability; calling it while
// acquisition is running is not supported.
func Setup(rt Runtime, opts StreamOpts) (Configuration, error) {
	if rt == nil {
		return Configuration{}, Failf(KindPrecondition, "no runtime")
	}

	props, err := rt.Configuration()
	if err != nil {
		return Configuration{}, Failf(KindRuntime, "fetching configuration: %v", err)
	}
	if len(props.Video) == 0 {
		props.Video = make([]VideoStream, 1)
	}

	camera, err := rt.SelectDevice(DeviceKindCamera, opts.CameraPattern)
	if err != nil {
		return Configuration{}, Failf(KindPrecondition, "selecting camera %q: %v", opts.CameraPattern, err)
	}
	storage, err := rt.SelectDevice(DeviceKindStorage, opts.StoragePattern)
	if err != nil {
		return Configuration{}, Failf(KindPrecondition, "selecting storage %q: %v", opts.StoragePattern, err)
	}

	video := &props.Video[0]
	video.Camera.Identifier = camera
	video.Camera.Settings = CameraSettings{
		Binning:      opts.Binning,
		PixelType:    opts.PixelType,
		Shape:        opts.Shape,
		ExposureTime: opts.ExposureTime,
	}
	video.Storage.Identifier = storage
	video.Storage.Settings = InitStorageSettings(opts.Destination, nil, ChunkShape{}, PixelScale{})
	video.MaxFrameCount = opts.MaxFrameCount

	if err := rt.Configure(props); err != nil {
		return Configuration{}, Failf(KindPrecondition, "submitting configuration: %v", err)
	}
	return props, nil
}
