// Package acquirekit drives streaming frame acquisition: it negotiates a
// camera/storage configuration with an acquisition runtime and runs the
// map-validate-unmap loop that consumes the stream's frames.
package acquirekit

import "fmt"

// DeviceKind distinguishes the device classes a runtime can resolve.
type DeviceKind int

// Device kinds.
const (
	DeviceKindCamera DeviceKind = iota
	DeviceKindStorage
)

func (k DeviceKind) String() string {
	switch k {
	case DeviceKindCamera:
		return "camera"
	case DeviceKindStorage:
		return "storage"
	}
	return fmt.Sprintf("DeviceKind(%d)", int(k))
}

// DeviceIdentifier names one resolved device. ID is assigned by the runtime
// and stable for the runtime's lifetime.
type DeviceIdentifier struct {
	Kind DeviceKind
	ID   string
	Name string
}

// Runtime is the acquisition runtime the loop drives. Implementations own
// frame production and the underlying frame buffer; callers own the
// configure-start-consume-abort sequence.
type Runtime interface {
	// Configuration returns the runtime's current stream configuration.
	// After a successful Configure, the fields acquisition depends on
	// (shape, max frame count) read back as submitted.
	Configuration() (Configuration, error)

	// Configure submits a stream configuration. Calling it while
	// acquisition is running is not supported.
	Configure(Configuration) error

	// SelectDevice resolves the first device of the given kind whose name
	// matches pattern, a regular expression.
	SelectDevice(kind DeviceKind, pattern string) (DeviceIdentifier, error)

	// Start begins producing frames for the configured stream.
	Start() error

	// Abort stops frame production and releases acquisition resources.
	// Aborting an idle runtime is a no-op.
	Abort() error

	// Shutdown tears down the runtime. Anything but another Shutdown
	// fails afterwards.
	Shutdown() error

	// MapRead returns a read-only lease over the currently available
	// contiguous frame records of the stream, possibly empty. The lease
	// and anything derived from it are valid only until the matching
	// UnmapRead.
	MapRead(stream int) ([]byte, error)

	// UnmapRead releases consumed bytes of the current lease back to the
	// runtime. Zero means no frames were consumed this cycle and is not
	// an error.
	UnmapRead(stream int, consumed int) error
}
