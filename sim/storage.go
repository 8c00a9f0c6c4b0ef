package sim

import (
	"bufio"
	"fmt"
	"os"

	acquirekit "github.com/acquirekit/sdk-go"
)

// writer receives the payload of every produced frame.
type writer interface {
	WriteFrame(payload []byte) error
	Close() error
}

// writerFactory builds a writer for the configured storage settings.
type writerFactory func(ss acquirekit.StorageSettings) (writer, error)

// rawWriter appends bare frame payloads to the destination file.
type rawWriter struct {
	f *os.File
	w *bufio.Writer
}

func newRawWriter(ss acquirekit.StorageSettings) (writer, error) {
	if ss.Destination == "" {
		return nil, fmt.Errorf("raw storage needs a destination name")
	}
	f, err := os.Create(ss.Destination)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %v", ss.Destination, err)
	}
	return &rawWriter{f: f, w: bufio.NewWriter(f)}, nil
}

func (r *rawWriter) WriteFrame(payload []byte) error {
	_, err := r.w.Write(payload)
	return err
}

func (r *rawWriter) Close() error {
	if err := r.w.Flush(); err != nil {
		r.f.Close()
		return err
	}
	return r.f.Close()
}

// trashWriter discards frames, keeping only a count.
type trashWriter struct {
	frames uint64
}

func newTrashWriter(ss acquirekit.StorageSettings) (writer, error) {
	return &trashWriter{}, nil
}

func (w *trashWriter) WriteFrame(payload []byte) error {
	w.frames++
	return nil
}

func (w *trashWriter) Close() error { return nil }
