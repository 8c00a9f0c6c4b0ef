// Command acqstream configures a camera and storage pair on the simulated
// acquisition runtime and streams frames until the configured count is
// reached.
//
// Examples:
//
//	# List available devices and quit.
//	acqstream -listdevices
//
//	# Stream 100 frames of 3200x3200 u16 to out.raw.
//	acqstream -width 3200 -height 3200 -frames 100 -dest out.raw
//
//	# Stream frames decoded from images dropped into ./frames.
//	acqstream -watchdir ./frames -camera 'watched folder' -frames 10
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	acquirekit "github.com/acquirekit/sdk-go"
	"github.com/acquirekit/sdk-go/frame"
	"github.com/acquirekit/sdk-go/sim"
)

var (
	listDevices    bool
	cameraPattern  string
	storagePattern string
	dest           string
	width          uint
	height         uint
	pixelType      string
	binning        uint
	exposure       time.Duration
	frames         uint64
	budget         time.Duration
	throttle       time.Duration
	watchDir       string
	quiet          bool
)

func init() {
	flag.BoolVar(&listDevices, "listdevices", false, "if set, lists devices and exits")
	flag.StringVar(&cameraPattern, "camera", ".*radial.*", "camera selection pattern, a regular expression matched against camera names")
	flag.StringVar(&storagePattern, "storage", "raw", "storage selection pattern, a regular expression matched against storage names")
	flag.StringVar(&dest, "dest", "out.raw", "storage destination name")
	flag.UintVar(&width, "width", 3200, "frame width in pixels")
	flag.UintVar(&height, "height", 3200, "frame height in pixels")
	flag.StringVar(&pixelType, "pixel", "u16", "pixel sample type, u8 or u16")
	flag.UintVar(&binning, "binning", 1, "camera binning factor")
	flag.DurationVar(&exposure, "exposure", 10*time.Millisecond, "exposure time per frame")
	flag.Uint64Var(&frames, "frames", 100, "number of frames to acquire")
	flag.DurationVar(&budget, "budget", acquirekit.DefaultTimeBudget, "time budget for the whole run")
	flag.DurationVar(&throttle, "throttle", acquirekit.DefaultThrottle, "pause between polling cycles")
	flag.StringVar(&watchDir, "watchdir", "", "if set, registers a watched-folder camera sourcing frames from image files in the directory")
	flag.BoolVar(&quiet, "quiet", false, "suppress per-frame and per-cycle output")
}

func usage() {
	log.Println("usage: acqstream [flags]")
	flag.PrintDefaults()
	os.Exit(2)
}

func main() {
	log.SetFlags(0)
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() != 0 {
		usage()
	}
	os.Exit(main0())
}

func main0() int {
	pixel, err := frame.ParseSampleType(pixelType)
	if err != nil {
		log.Printf("bad -pixel: %v", err)
		return 1
	}

	var reporter acquirekit.Reporter = acquirekit.NewConsoleReporter()
	if quiet {
		reporter = acquirekit.Discard
	}

	rt := sim.New(reporter, &sim.Opts{WatchDir: watchDir})

	if listDevices {
		for _, dev := range rt.Devices() {
			fmt.Printf("%s: %s (%s)\n", dev.Kind, dev.Name, dev.ID)
		}
		rt.Shutdown()
		return 0
	}

	opts := acquirekit.StreamOpts{
		CameraPattern:  cameraPattern,
		StoragePattern: storagePattern,
		Destination:    dest,
		PixelType:      pixel,
		Shape:          acquirekit.Shape{X: uint32(width), Y: uint32(height)},
		Binning:        uint8(binning),
		ExposureTime:   exposure,
		MaxFrameCount:  frames,
	}
	if _, err := acquirekit.Setup(rt, opts); err != nil {
		acquirekit.Errorf(reporter, "setup: %v", err)
		rt.Shutdown()
		return 1
	}

	nframes, err := acquirekit.Acquire(rt, &acquirekit.LoopOpts{
		TimeBudget: budget,
		Throttle:   throttle,
		Reporter:   reporter,
	})
	if err != nil {
		acquirekit.Errorf(reporter, "acquire: %v", err)
		rt.Shutdown()
		return 1
	}

	if err := rt.Shutdown(); err != nil {
		acquirekit.Errorf(reporter, "shutdown: %v", err)
		return 1
	}
	acquirekit.Logf(reporter, "OK. acquired %d frames", nframes)
	return 0
}
