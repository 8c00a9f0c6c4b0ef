package frame

import (
	"encoding/binary"
	"fmt"
)

// Cursor walks a mapped byte range of frame records. The range must begin
// at a record header; each record's self-reported size carries the cursor
// to the next header. A Cursor holds no state beyond its position, and owns
// nothing: the caller remains responsible for releasing the mapped range.
type Cursor struct {
	buf []byte
	off int
}

// NewCursor returns a cursor positioned at the start of buf.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// More reports whether any bytes remain to walk.
func (c *Cursor) More() bool {
	return c.off < len(c.buf)
}

// Next decodes the record at the cursor and advances past it. A record
// whose declared size is smaller than a header or runs past the mapped
// range is an error; the cursor does not advance over it.
func (c *Cursor) Next() (Frame, error) {
	rem := c.buf[c.off:]
	if len(rem) < HeaderSize {
		return Frame{}, fmt.Errorf("frame header at offset %d: %d bytes left, need %d", c.off, len(rem), HeaderSize)
	}
	size := int(binary.LittleEndian.Uint32(rem[0:]))
	if size < HeaderSize {
		return Frame{}, fmt.Errorf("frame at offset %d: declared size %d smaller than header", c.off, size)
	}
	if size > len(rem) {
		return Frame{}, fmt.Errorf("frame at offset %d: declared size %d runs past mapped range with %d bytes left", c.off, size, len(rem))
	}
	f := Frame{
		ID:          binary.LittleEndian.Uint64(rem[4:]),
		Width:       binary.LittleEndian.Uint32(rem[12:]),
		Height:      binary.LittleEndian.Uint32(rem[16:]),
		SampleType:  SampleType(rem[20]),
		TimestampNS: binary.LittleEndian.Uint64(rem[24:]),
		Data:        rem[HeaderSize:size:size],
	}
	c.off += size
	return f, nil
}

// Consumed returns the byte span walked so far, for release back to the
// producer.
func (c *Cursor) Consumed() int {
	return c.off
}
