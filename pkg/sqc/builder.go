package sqc

import (
	"encoding/binary"
	"os"
	"sync"
)

// Builder assembles an SQC container in memory.
//
// Property 0 is stamped with the class version on creation, matching what
// the pack writer produces. The property table grows to fit the highest
// index set.
type Builder struct {
	mu      sync.Mutex
	kind    Kind
	version int16
	props   []int32
}

// NewBuilder creates a builder for the given container kind.
func NewBuilder(kind Kind) *Builder {
	return &Builder{
		kind:    kind,
		version: ClassVersion,
		props:   []int32{int32(ClassVersion)},
	}
}

// SetVersion overrides the class version written to the header.
// Useful for producing containers a reader must reject.
func (b *Builder) SetVersion(v int16) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.version = v
	return b
}

// Set stores property i, growing the table if needed.
func (b *Builder) Set(i int, v int32) error {
	if i < 0 || i >= MaxProperties {
		return ErrTooManyProperties
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for len(b.props) <= i {
		b.props = append(b.props, 0)
	}
	b.props[i] = v
	return nil
}

// SetNumLibraries sets the table of contents count of a pack.
func (b *Builder) SetNumLibraries(n int32) error {
	return b.Set(PropertyTOCCount, n)
}

// Bytes encodes the container.
func (b *Builder) Bytes() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Encode(b.kind.Magic(), b.version, b.props)
}

// WriteFile encodes the container and writes it to path.
func (b *Builder) WriteFile(path string) error {
	data, err := b.Bytes()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Encode writes a raw container. No validation is applied to magic or
// version so that tests can build deliberately broken inputs.
func Encode(magic uint32, version int16, props []int32) ([]byte, error) {
	if len(props) > MaxProperties {
		return nil, ErrTooManyProperties
	}
	out := make([]byte, HeaderSize+len(props)*PropertySize)
	binary.BigEndian.PutUint32(out[OffsetMagic:], magic)
	binary.BigEndian.PutUint16(out[OffsetClassVersion:], uint16(version))
	binary.BigEndian.PutUint16(out[OffsetNumProperties:], uint16(len(props)))
	for i, v := range props {
		binary.BigEndian.PutUint32(out[OffsetProperties+i*PropertySize:], uint32(v))
	}
	return out, nil
}
