// Package frame defines the wire layout of acquired video frames and a
// cursor for walking mapped frame data.
package frame

import (
	"encoding/binary"
	"fmt"
)

// SampleType is the pixel sample format of a frame.
type SampleType uint8

// Supported sample formats.
const (
	SampleU8 SampleType = iota
	SampleU16
)

func (s SampleType) String() string {
	switch s {
	case SampleU8:
		return "u8"
	case SampleU16:
		return "u16"
	}
	return fmt.Sprintf("SampleType(%d)", uint8(s))
}

// Size returns the number of bytes per sample.
func (s SampleType) Size() int {
	if s == SampleU16 {
		return 2
	}
	return 1
}

// Valid reports whether s is a supported sample format.
func (s SampleType) Valid() bool {
	return s == SampleU8 || s == SampleU16
}

// ParseSampleType parses a sample type name such as "u8" or "u16".
func ParseSampleType(s string) (SampleType, error) {
	switch s {
	case "u8":
		return SampleU8, nil
	case "u16":
		return SampleU16, nil
	}
	return 0, fmt.Errorf("unknown sample type %q", s)
}

// HeaderSize is the fixed size in bytes of an encoded frame header.
//
// Layout, little-endian: bytes-of-frame u32, frame id u64, width u32,
// height u32, sample type u8, 3 pad bytes, timestamp-ns u64. The pixel
// payload follows immediately, so bytes-of-frame is always at least
// HeaderSize.
const HeaderSize = 32

// Frame is one decoded frame record. Data aliases the mapped buffer the
// frame was decoded from and is only valid while that buffer stays mapped.
type Frame struct {
	ID          uint64
	Width       uint32
	Height      uint32
	SampleType  SampleType
	TimestampNS uint64
	Data        []byte
}

// BytesOfFrame returns the total encoded record size, header included.
func (f *Frame) BytesOfFrame() int {
	return HeaderSize + len(f.Data)
}

// EncodedSize returns the total record size for a frame of the given shape
// and sample type.
func EncodedSize(width, height uint32, st SampleType) int {
	return HeaderSize + int(width)*int(height)*st.Size()
}

// Encode writes f as one record into dst and returns the number of bytes
// written. dst must hold at least f.BytesOfFrame() bytes.
func Encode(dst []byte, f *Frame) (int, error) {
	n := f.BytesOfFrame()
	if len(dst) < n {
		return 0, fmt.Errorf("encoding frame %d: need %d bytes, have %d", f.ID, n, len(dst))
	}
	binary.LittleEndian.PutUint32(dst[0:], uint32(n))
	binary.LittleEndian.PutUint64(dst[4:], f.ID)
	binary.LittleEndian.PutUint32(dst[12:], f.Width)
	binary.LittleEndian.PutUint32(dst[16:], f.Height)
	dst[20] = byte(f.SampleType)
	dst[21], dst[22], dst[23] = 0, 0, 0
	binary.LittleEndian.PutUint64(dst[24:], f.TimestampNS)
	copy(dst[HeaderSize:n], f.Data)
	return n, nil
}
