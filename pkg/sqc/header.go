package sqc

import (
	"fmt"

	"github.com/samcharles93/ratufa/internal/memchunk"
)

type Header struct {
	Magic         uint32
	Version       int16
	NumProperties int32
}

// Kind returns the container family named by the magic.
func (h *Header) Kind() Kind {
	return KindForMagic(h.Magic)
}

func (h *Header) Valid() bool {
	return h.Kind() != KindUnknown
}

func (h *Header) Compatible() bool {
	return h.Version == ClassVersion
}

// TableSize is the number of bytes the property table claims to occupy.
func (h *Header) TableSize() int64 {
	return int64(h.NumProperties) * PropertySize
}

// DecodeHeader reads the fixed header through a bounds-checked chunk.
// It does not validate magic or version; use Valid and Compatible.
func DecodeHeader(data []byte) (Header, error) {
	c := memchunk.New(data)
	magic, err := c.ReadBigInt(OffsetMagic)
	if err != nil {
		return Header{}, fmt.Errorf("%w: magic: %w", ErrCorruptFile, err)
	}
	version, err := c.ReadBigShort(OffsetClassVersion)
	if err != nil {
		return Header{}, fmt.Errorf("%w: class version: %w", ErrCorruptFile, err)
	}
	count, err := c.ReadBigShort(OffsetNumProperties)
	if err != nil {
		return Header{}, fmt.Errorf("%w: property count: %w", ErrCorruptFile, err)
	}
	return Header{
		Magic:         uint32(magic),
		Version:       version,
		NumProperties: int32(count) & 0xFFFF,
	}, nil
}

// ReadProperties eagerly decodes every property that fits in data.
// The second return is false when the table is truncated; the returned slice
// then holds only the properties that could be read.
func ReadProperties(data []byte, h Header) ([]int32, bool) {
	c := memchunk.New(data)
	out := make([]int32, 0, h.NumProperties)
	for i := range h.NumProperties {
		v, err := c.ReadBigInt(int(PropertyOffset(i)))
		if err != nil {
			return out, false
		}
		out = append(out, v)
	}
	return out, true
}
