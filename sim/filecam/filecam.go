// Package filecam implements a camera that sources frames from image files
// dropped into a watched directory.
package filecam

import (
	"context"
	"encoding/binary"
	"fmt"
	"image"
	"image/draw"
	"os"
	"strings"

	// Registered for image.Decode.
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/fsnotify/fsnotify"

	"github.com/acquirekit/sdk-go/frame"
)

// Opts configure a watched-folder camera.
type Opts struct {
	Dir        string
	Width      uint32
	Height     uint32
	SampleType frame.SampleType
}

// Camera watches a directory and converts each image file created there
// into one frame payload. Files are removed after a successful decode;
// files that fail to decode (for example, still being written) are skipped.
// Write files elsewhere and rename them into the directory so they arrive
// complete.
type Camera struct {
	opts     Opts
	payloads chan []byte
	watcher  *fsnotify.Watcher
	done     chan struct{}
}

// New returns a camera watching opts.Dir.
func New(opts Opts) (*Camera, error) {
	if !opts.SampleType.Valid() {
		return nil, fmt.Errorf("unsupported sample type %v", opts.SampleType)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("new file change watcher: %v", err)
	}
	c := &Camera{
		opts:     opts,
		payloads: make(chan []byte, 1),
		watcher:  watcher,
		done:     make(chan struct{}),
	}
	go c.watch()
	if err := watcher.Add(opts.Dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %v", opts.Dir, err)
	}
	return c, nil
}

func (c *Camera) watch() {
	for {
		select {
		case <-c.done:
			return
		case ev, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if ev.Op != fsnotify.Create || !imageFile(ev.Name) {
				continue
			}
			payload, err := loadPayload(ev.Name, c.opts.Width, c.opts.Height, c.opts.SampleType)
			if err != nil {
				continue
			}
			os.Remove(ev.Name)
			select {
			case c.payloads <- payload:
			case <-c.done:
				return
			}
		case _, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func imageFile(name string) bool {
	return strings.HasSuffix(name, ".jpg") ||
		strings.HasSuffix(name, ".jpeg") ||
		strings.HasSuffix(name, ".png")
}

func loadPayload(name string, width, height uint32, st frame.SampleType) ([]byte, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return nil, err
	}
	return Payload(img, width, height, st), nil
}

// Payload converts img into a frame payload of the given shape and sample
// type: crop-filled to the shape, then reduced to grayscale samples.
func Payload(img image.Image, width, height uint32, st frame.SampleType) []byte {
	w, h := int(width), int(height)
	resized := imaging.Fill(img, w, h, imaging.Center, imaging.NearestNeighbor)

	gray := image.NewGray(resized.Bounds())
	draw.Draw(gray, gray.Bounds(), resized, resized.Bounds().Min, draw.Src)

	dst := make([]byte, w*h*st.Size())
	i := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := gray.GrayAt(x, y).Y
			if st == frame.SampleU16 {
				binary.LittleEndian.PutUint16(dst[i:], uint16(v)<<8)
				i += 2
			} else {
				dst[i] = v
				i++
			}
		}
	}
	return dst
}

// NextPayload copies the next file-derived payload into dst, blocking until
// a file arrives or ctx is done.
func (c *Camera) NextPayload(ctx context.Context, dst []byte) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case payload := <-c.payloads:
		if len(payload) != len(dst) {
			return fmt.Errorf("payload is %d bytes, frame needs %d", len(payload), len(dst))
		}
		copy(dst, payload)
		return nil
	}
}

// Close stops watching the directory. Files dropped afterwards are left in
// place.
func (c *Camera) Close() error {
	close(c.done)
	return c.watcher.Close()
}
