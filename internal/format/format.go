// Package format defines the driver contract for ROM container formats and
// the registry that matches raw bytes against the registered drivers.
//
// A driver is a closed set of operations: Detect inspects only the magic and
// commits nothing, Init parses the header into a driver-owned State, and the
// State serves lazy, bounds-checked queries. Destruction is tied to the
// owning Pack or Library via Close.
package format

import (
	"github.com/samcharles93/ratufa/internal/memchunk"
)

// Instance is the raw, driver-independent half of a loaded container.
type Instance struct {
	chunk *memchunk.Chunk
}

// NewInstance wraps data in a chunk. The data is borrowed, not copied.
func NewInstance(data []byte) *Instance {
	return &Instance{chunk: memchunk.New(data)}
}

// Chunk returns the bounds-checked view over the container bytes.
func (i *Instance) Chunk() *memchunk.Chunk {
	if i == nil {
		return nil
	}
	return i.chunk
}

// State is the query surface every parsed container exposes.
type State interface {
	Version() int16
	NumProperties() int32
	Property(index int32) (int32, error)
}

// PackState adds the pack table of contents.
type PackState interface {
	State
	// NumLibraries returns the number of embedded libraries, or -1 with an
	// invalid_num_libraries error.
	NumLibraries() (int32, error)
}

// LibraryState is the state of a single library.
type LibraryState interface {
	State
}

// Detector is the part of a driver that recognises its format.
// Detect must not allocate and returns false on any bounds failure.
type Detector interface {
	Name() string
	Detect(data []byte) bool
}

type PackDriver interface {
	Detector
	InitPack(inst *Instance) (PackState, error)
}

type LibraryDriver interface {
	Detector
	InitLibrary(inst *Instance) (LibraryState, error)
}

// Kind is the container family of a loaded instance.
type Kind string

const (
	KindPack    Kind = "pack"
	KindLibrary Kind = "library"
)

// Container is a loaded pack or library.
type Container interface {
	Kind() Kind
	// Name is the caller supplied label, usually the ROM file name.
	Name() string
	// Driver is the name of the driver that owns the state.
	Driver() string
	Version() (int16, error)
	NumProperties() (int32, error)
	Property(index int32) (int32, error)
	// Valid reports whether the container is initialised and not yet closed.
	Valid() bool
	Close() error
}
