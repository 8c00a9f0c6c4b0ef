package acquirekit

import (
	"time"

	"github.com/acquirekit/sdk-go/frame"
)

// Shape is a frame's width and height in pixels.
type Shape struct {
	X uint32
	Y uint32
}

// ChunkShape is the storage chunking, in frames per chunk along each axis.
type ChunkShape struct {
	X uint32
	Y uint32
}

// PixelScale is the physical pixel size in micrometers per pixel. The zero
// value means unspecified.
type PixelScale struct {
	X float64
	Y float64
}

// Dimension is optional storage metadata describing one acquisition axis.
type Dimension struct {
	Name      string
	Kind      string
	ArraySize uint32
	ChunkSize uint32
}

// CameraSettings configure a camera for one stream.
type CameraSettings struct {
	Binning      uint8
	PixelType    frame.SampleType
	Shape        Shape
	ExposureTime time.Duration
}

// StorageSettings configure where and how acquired frames are written.
type StorageSettings struct {
	Destination string
	Dimensions  []Dimension
	Chunking    ChunkShape
	Scale       PixelScale
}

// InitStorageSettings returns storage settings for destination dest. Nil
// dims, a zero chunking, and a zero scale select the defaults: no dimension
// metadata, one-by-one chunking, unspecified pixel scale.
func InitStorageSettings(dest string, dims []Dimension, chunking ChunkShape, scale PixelScale) StorageSettings {
	if chunking == (ChunkShape{}) {
		chunking = ChunkShape{X: 1, Y: 1}
	}
	return StorageSettings{
		Destination: dest,
		Dimensions:  dims,
		Chunking:    chunking,
		Scale:       scale,
	}
}

// CameraConfig pairs a resolved camera device with its settings.
type CameraConfig struct {
	Identifier DeviceIdentifier
	Settings   CameraSettings
}

// StorageConfig pairs a resolved storage device with its settings.
type StorageConfig struct {
	Identifier DeviceIdentifier
	Settings   StorageSettings
}

// VideoStream is the full configuration of one logical stream: a camera, a
// storage destination, and the number of frames to acquire. A max frame
// count of zero leaves the stream unbounded; the runtime then produces
// until aborted.
type VideoStream struct {
	Camera        CameraConfig
	Storage       StorageConfig
	MaxFrameCount uint64
}

// Configuration is an immutable snapshot of the runtime's stream
// configuration. This design drives exactly one stream, Video[0].
type Configuration struct {
	Video []VideoStream
}
