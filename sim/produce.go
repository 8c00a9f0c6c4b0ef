package sim

import (
	"context"
	"fmt"
	"time"

	acquirekit "github.com/acquirekit/sdk-go"
	"github.com/acquirekit/sdk-go/frame"
	"github.com/acquirekit/sdk-go/internal/ring"
)

// produce renders one frame per exposure interval, appending each record to
// the stream ring and its payload to the storage writer, until maxFrames
// have been produced or the producer is cancelled. A full ring backs off
// briefly and retries; frames are never dropped.
func produce(ctx context.Context, rg *ring.Ring, src source, sink writer, cs acquirekit.CameraSettings, maxFrames uint64) error {
	payload := make([]byte, int(cs.Shape.X)*int(cs.Shape.Y)*cs.PixelType.Size())
	ticker := time.NewTicker(cs.ExposureTime)
	defer ticker.Stop()

	for id := uint64(0); maxFrames == 0 || id < maxFrames; id++ {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		if err := src.Fill(ctx, id, payload); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("filling frame %d: %v", id, err)
		}

		var slot []byte
		for {
			s, ok := rg.Reserve()
			if ok {
				slot = s
				break
			}
			// The consumer is behind, retry shortly.
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Millisecond):
			}
		}

		f := frame.Frame{
			ID:          id,
			Width:       cs.Shape.X,
			Height:      cs.Shape.Y,
			SampleType:  cs.PixelType,
			TimestampNS: uint64(time.Now().UnixNano()),
			Data:        payload,
		}
		if _, err := frame.Encode(slot, &f); err != nil {
			return fmt.Errorf("encoding frame %d: %v", id, err)
		}
		rg.Commit()

		if err := sink.WriteFrame(payload); err != nil {
			return fmt.Errorf("writing frame %d to storage: %v", id, err)
		}
	}
	return nil
}
