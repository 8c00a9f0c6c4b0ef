// Package ring implements the byte ring backing a stream's mapped reads.
package ring

import (
	"fmt"
	"sync"
)

// Ring is a single-producer single-consumer byte ring holding whole
// fixed-size records. Capacity is a record multiple, so a record never
// straddles the wrap and a mapped read is always a contiguous run of whole
// records.
type Ring struct {
	mu  sync.Mutex
	buf []byte
	rec int
	r   int64 // total bytes released by the consumer
	w   int64 // total bytes committed by the producer
}

// New returns a ring sized for n records of rec bytes each.
func New(rec, n int) (*Ring, error) {
	if rec <= 0 || n <= 0 {
		return nil, fmt.Errorf("ring needs a positive record size and count, got %d x %d", rec, n)
	}
	return &Ring{buf: make([]byte, rec*n), rec: rec}, nil
}

// Reserve returns the writable slot for the next record, or false when the
// ring is full. The slot belongs to the producer until Commit publishes it.
func (g *Ring) Reserve() ([]byte, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.w-g.r >= int64(len(g.buf)) {
		return nil, false
	}
	i := int(g.w % int64(len(g.buf)))
	return g.buf[i : i+g.rec : i+g.rec], true
}

// Commit publishes the record most recently reserved.
func (g *Ring) Commit() {
	g.mu.Lock()
	g.w += int64(g.rec)
	g.mu.Unlock()
}

// Map returns the contiguous readable run of whole records, possibly empty.
// The run stays valid until its bytes are passed to Release. Records
// committed after the wrap become readable on the Map following their
// release point.
func (g *Ring) Map() []byte {
	g.mu.Lock()
	defer g.mu.Unlock()
	avail := int(g.w - g.r)
	i := int(g.r % int64(len(g.buf)))
	if tail := len(g.buf) - i; avail > tail {
		avail = tail
	}
	return g.buf[i : i+avail : i+avail]
}

// Readable returns the number of committed, unreleased bytes, wrap
// included.
func (g *Ring) Readable() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return int(g.w - g.r)
}

// Release returns n consumed bytes to the producer. n must be a whole
// number of records no larger than the readable span; zero is a no-op.
func (g *Ring) Release(n int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if n == 0 {
		return nil
	}
	if n < 0 || n%g.rec != 0 {
		return fmt.Errorf("release of %d bytes is not a whole number of %d-byte records", n, g.rec)
	}
	if int64(n) > g.w-g.r {
		return fmt.Errorf("release of %d bytes exceeds %d readable", n, g.w-g.r)
	}
	g.r += int64(n)
	return nil
}
