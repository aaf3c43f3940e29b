// Package sqcdriver is the format driver for SQC packs and libraries.
//
// Both families share the same header and property table; they differ only in
// the magic number and in packs interpreting property 1 as the library count.
// Init reads the header and nothing else. Properties are decoded on demand, so
// a damaged entry deep in a large table never blocks earlier ones.
package sqcdriver

import (
	"github.com/samcharles93/ratufa/internal/format"
	"github.com/samcharles93/ratufa/internal/memchunk"
	"github.com/samcharles93/ratufa/internal/vmerr"
	"github.com/samcharles93/ratufa/pkg/sqc"
)

const (
	PackName    = "sqc-pack"
	LibraryName = "sqc-library"
)

// Pack and Library are the driver values to register.
var (
	Pack    format.PackDriver    = packDriver{}
	Library format.LibraryDriver = libraryDriver{}
)

// state is the parsed header of one container. It keeps a reference to the
// owning instance's chunk and nothing else.
type state struct {
	chunk         *memchunk.Chunk
	classVersion  int16
	numProperties int32
}

func (s *state) Version() int16       { return s.classVersion }
func (s *state) NumProperties() int32 { return s.numProperties }

// Property reads property index with a bounds-checked big-endian load.
func (s *state) Property(index int32) (int32, error) {
	if s == nil {
		return 0, vmerr.Of(vmerr.KindNullArgs, 0)
	}
	if index < 0 || index >= s.numProperties {
		return 0, vmerr.Of(vmerr.KindOutOfBounds, int64(index))
	}
	return s.chunk.ReadBigInt(int(sqc.PropertyOffset(index)))
}

type packState struct {
	state
}

// NumLibraries reads the table of contents count. Negative counts are a
// format error, never a valid answer.
func (s *packState) NumLibraries() (int32, error) {
	value, err := s.Property(sqc.PropertyTOCCount)
	if err != nil {
		return -1, vmerr.New(vmerr.KindInvalidNumLibraries).Value(-1).Cause(err).Build()
	}
	if value < 0 {
		return -1, vmerr.Of(vmerr.KindInvalidNumLibraries, int64(value))
	}
	return value, nil
}

func detectMagic(data []byte, magic uint32) bool {
	v, err := memchunk.New(data).ReadBigInt(sqc.OffsetMagic)
	if err != nil {
		return false
	}
	return uint32(v) == magic
}

// parse validates the header of inst and returns the common state.
func parse(inst *format.Instance, magic uint32) (state, error) {
	c := inst.Chunk()
	if c == nil {
		return state{}, vmerr.Of(vmerr.KindNullArgs, 0)
	}

	got, err := c.ReadBigInt(sqc.OffsetMagic)
	if err != nil {
		return state{}, malformedHeader("magic", err)
	}
	if uint32(got) != magic {
		return state{}, vmerr.Of(vmerr.KindInvalidMagic, int64(uint32(got)))
	}

	classVersion, err := c.ReadBigShort(sqc.OffsetClassVersion)
	if err != nil {
		return state{}, malformedHeader("class version", err)
	}
	if classVersion != sqc.ClassVersion {
		return state{}, vmerr.Of(vmerr.KindInvalidClassVersion, int64(classVersion))
	}

	numProperties, err := c.ReadBigShort(sqc.OffsetNumProperties)
	if err != nil {
		return state{}, malformedHeader("property count", err)
	}

	return state{
		chunk:         c,
		classVersion:  classVersion,
		numProperties: int32(numProperties) & 0xFFFF,
	}, nil
}

func malformedHeader(field string, cause error) error {
	return vmerr.New(vmerr.KindMalformedHeader).Detail(field).Cause(cause).Build()
}

type packDriver struct{}

func (packDriver) Name() string { return PackName }

func (packDriver) Detect(data []byte) bool {
	return detectMagic(data, sqc.MagicPack)
}

func (packDriver) InitPack(inst *format.Instance) (format.PackState, error) {
	st, err := parse(inst, sqc.MagicPack)
	if err != nil {
		return nil, err
	}
	return &packState{state: st}, nil
}

type libraryDriver struct{}

func (libraryDriver) Name() string { return LibraryName }

func (libraryDriver) Detect(data []byte) bool {
	return detectMagic(data, sqc.MagicLibrary)
}

func (libraryDriver) InitLibrary(inst *format.Instance) (format.LibraryState, error) {
	st, err := parse(inst, sqc.MagicLibrary)
	if err != nil {
		return nil, err
	}
	return &st, nil
}
