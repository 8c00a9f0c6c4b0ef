package sim

import (
	"context"
	"encoding/binary"
	"math"
	"math/rand"

	acquirekit "github.com/acquirekit/sdk-go"
	"github.com/acquirekit/sdk-go/frame"
	"github.com/acquirekit/sdk-go/sim/filecam"
)

// source produces the pixel payload for successive frames of one stream.
type source interface {
	// Fill writes the payload of frame id into dst, blocking until pixel
	// data is available or ctx is done.
	Fill(ctx context.Context, id uint64, dst []byte) error
	Close() error
}

// sourceFactory builds a source for the configured camera settings.
type sourceFactory func(cs acquirekit.CameraSettings) (source, error)

// uniformSource fills frames with uniform random samples.
type uniformSource struct {
	rnd *rand.Rand
}

func newUniformSource(cs acquirekit.CameraSettings) (source, error) {
	return &uniformSource{rnd: rand.New(rand.NewSource(1))}, nil
}

func (s *uniformSource) Fill(ctx context.Context, id uint64, dst []byte) error {
	s.rnd.Read(dst)
	return nil
}

func (s *uniformSource) Close() error { return nil }

// radialSource renders concentric sine rings drifting with the frame id.
type radialSource struct {
	width  int
	height int
	st     frame.SampleType
}

func newRadialSource(cs acquirekit.CameraSettings) (source, error) {
	return &radialSource{int(cs.Shape.X), int(cs.Shape.Y), cs.PixelType}, nil
}

func (s *radialSource) Fill(ctx context.Context, id uint64, dst []byte) error {
	cx, cy := float64(s.width)/2, float64(s.height)/2
	phase := float64(id) * 0.2
	i := 0
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			r := math.Hypot(float64(x)-cx, float64(y)-cy)
			v := 0.5 + 0.5*math.Sin(r/4-phase)
			if s.st == frame.SampleU16 {
				binary.LittleEndian.PutUint16(dst[i:], uint16(v*math.MaxUint16))
				i += 2
			} else {
				dst[i] = byte(v * math.MaxUint8)
				i++
			}
		}
	}
	return nil
}

func (s *radialSource) Close() error { return nil }

// folderSource adapts a watched-folder camera to the producer.
type folderSource struct {
	cam *filecam.Camera
}

func newFolderSource(dir string, cs acquirekit.CameraSettings) (source, error) {
	cam, err := filecam.New(filecam.Opts{
		Dir:        dir,
		Width:      cs.Shape.X,
		Height:     cs.Shape.Y,
		SampleType: cs.PixelType,
	})
	if err != nil {
		return nil, err
	}
	return &folderSource{cam: cam}, nil
}

func (s *folderSource) Fill(ctx context.Context, id uint64, dst []byte) error {
	return s.cam.NextPayload(ctx, dst)
}

func (s *folderSource) Close() error { return s.cam.Close() }
