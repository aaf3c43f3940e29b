// Package memchunk provides a bounds-checked, read-only view over ROM bytes.
//
// A Chunk borrows its data; it never copies or frees it. Every read first
// validates (offset, length) against the chunk size and a failed check never
// touches the underlying bytes. Multi-byte reads are big-endian regardless of
// host byte order.
package memchunk

import (
	"encoding/binary"

	"github.com/samcharles93/ratufa/internal/vmerr"
)

type Chunk struct {
	data []byte
}

// New wraps data without copying it.
func New(data []byte) *Chunk {
	return &Chunk{data: data}
}

// Size returns the number of addressable bytes, or 0 for a nil chunk.
func (c *Chunk) Size() int {
	if c == nil {
		return 0
	}
	return len(c.data)
}

// InBounds reports whether [off, off+length) lies within the chunk.
func (c *Chunk) InBounds(off, length int) bool {
	if c == nil || off < 0 || length < 0 {
		return false
	}
	// Compare against the remaining space so off+length is never computed.
	n := len(c.data)
	if off > n {
		return false
	}
	return length <= n-off
}

// CheckBounds is InBounds with a structured error.
func (c *Chunk) CheckBounds(off, length int) error {
	if c == nil {
		return vmerr.Of(vmerr.KindNullArgs, 0)
	}
	if !c.InBounds(off, length) {
		return vmerr.New(vmerr.KindOutOfBounds).Value(int64(off)).Build()
	}
	return nil
}

// Slice returns a zero-copy sub-view of the chunk.
// The caller must not retain it beyond the lifetime of the backing data.
func (c *Chunk) Slice(off, length int) ([]byte, error) {
	if err := c.CheckBounds(off, length); err != nil {
		return nil, err
	}
	return c.data[off : off+length : off+length], nil
}

// ReadUByte reads a single unsigned byte.
func (c *Chunk) ReadUByte(off int) (byte, error) {
	if err := c.CheckBounds(off, 1); err != nil {
		return 0, err
	}
	return c.data[off], nil
}

// ReadBigUShort reads an unsigned big-endian 16-bit value.
func (c *Chunk) ReadBigUShort(off int) (uint16, error) {
	if err := c.CheckBounds(off, 2); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(c.data[off:]), nil
}

// ReadBigShort reads a signed big-endian 16-bit value.
func (c *Chunk) ReadBigShort(off int) (int16, error) {
	v, err := c.ReadBigUShort(off)
	if err != nil {
		return 0, err
	}
	return int16(v), nil
}

// ReadBigInt reads a signed big-endian 32-bit value.
func (c *Chunk) ReadBigInt(off int) (int32, error) {
	if err := c.CheckBounds(off, 4); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(c.data[off:])), nil
}
