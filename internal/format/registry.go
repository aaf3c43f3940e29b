package format

import (
	"fmt"
	"strings"

	"github.com/samcharles93/ratufa/internal/vmerr"
)

// Registry is a read-only catalogue of drivers. Pack drivers are always
// tried before library drivers, each in registration order, and the first
// driver whose Detect accepts owns Init.
type Registry struct {
	packs     []PackDriver
	libraries []LibraryDriver
}

// NewRegistry composes a registry. The slices are copied; the registry is
// never mutated afterwards and needs no locking.
func NewRegistry(packs []PackDriver, libraries []LibraryDriver) *Registry {
	return &Registry{
		packs:     append([]PackDriver(nil), packs...),
		libraries: append([]LibraryDriver(nil), libraries...),
	}
}

// DriverInfo describes one registered driver.
type DriverInfo struct {
	Name string
	Kind Kind
}

// Drivers lists registered drivers in detection order.
func (r *Registry) Drivers() []DriverInfo {
	out := make([]DriverInfo, 0, len(r.packs)+len(r.libraries))
	for _, d := range r.packs {
		out = append(out, DriverInfo{Name: d.Name(), Kind: KindPack})
	}
	for _, d := range r.libraries {
		out = append(out, DriverInfo{Name: d.Name(), Kind: KindLibrary})
	}
	return out
}

// Load matches data against every driver.
//
// When no driver recognises the bytes the error kind is unknown_format. When
// a driver recognises them but Init fails, the error kind is malformed and
// wraps the driver's specific error; probing stops there so a corrupt file of
// a known family is never silently skipped.
func (r *Registry) Load(name string, data []byte) (Container, error) {
	if data == nil {
		return nil, vmerr.New(vmerr.KindNullArgs).Detail("rom data is nil").Build()
	}
	if p, ok, err := r.detectPack(name, data); ok {
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	if l, ok, err := r.detectLibrary(name, data); ok {
		if err != nil {
			return nil, err
		}
		return l, nil
	}
	return nil, unknownFormat(name)
}

// LoadPack tries only pack drivers.
func (r *Registry) LoadPack(name string, data []byte) (*Pack, error) {
	if data == nil {
		return nil, vmerr.New(vmerr.KindNullArgs).Detail("rom data is nil").Build()
	}
	p, ok, err := r.detectPack(name, data)
	if !ok {
		return nil, unknownFormat(name)
	}
	return p, err
}

// LoadLibrary tries only library drivers.
func (r *Registry) LoadLibrary(name string, data []byte) (*Library, error) {
	if data == nil {
		return nil, vmerr.New(vmerr.KindNullArgs).Detail("rom data is nil").Build()
	}
	l, ok, err := r.detectLibrary(name, data)
	if !ok {
		return nil, unknownFormat(name)
	}
	return l, err
}

func (r *Registry) detectPack(name string, data []byte) (*Pack, bool, error) {
	for _, d := range r.packs {
		if !d.Detect(data) {
			continue
		}
		inst := NewInstance(data)
		st, err := d.InitPack(inst)
		if err != nil {
			return nil, true, malformed(name, d.Name(), err)
		}
		return newPack(name, d.Name(), inst, st), true, nil
	}
	return nil, false, nil
}

func (r *Registry) detectLibrary(name string, data []byte) (*Library, bool, error) {
	for _, d := range r.libraries {
		if !d.Detect(data) {
			continue
		}
		inst := NewInstance(data)
		st, err := d.InitLibrary(inst)
		if err != nil {
			return nil, true, malformed(name, d.Name(), err)
		}
		return newLibrary(name, d.Name(), inst, st), true, nil
	}
	return nil, false, nil
}

func unknownFormat(name string) error {
	return vmerr.New(vmerr.KindUnknownFormat).Detail(fmt.Sprintf("%s: no driver recognises this rom", name)).Build()
}

func malformed(name, driver string, cause error) error {
	return vmerr.New(vmerr.KindMalformed).
		Detail(fmt.Sprintf("%s: %s driver rejected rom", name, driver)).
		Cause(cause).
		Build()
}

// ClassPath is an ordered sequence of loaded containers.
type ClassPath []Container

// Validate checks that the classpath is non-empty and every entry is live.
func (cp ClassPath) Validate() error {
	if len(cp) == 0 {
		return vmerr.New(vmerr.KindInvalidArgument).Detail("classpath is empty").Build()
	}
	for i, c := range cp {
		if c == nil {
			return vmerr.New(vmerr.KindNullArgs).Value(int64(i)).Detail("classpath entry is nil").Build()
		}
		if !c.Valid() {
			return vmerr.New(vmerr.KindInvalidFormatState).Value(int64(i)).
				Detail(fmt.Sprintf("classpath entry %q is not initialised", c.Name())).Build()
		}
	}
	return nil
}

// Names returns the entry names in order.
func (cp ClassPath) Names() []string {
	out := make([]string, len(cp))
	for i, c := range cp {
		if c != nil {
			out[i] = c.Name()
		}
	}
	return out
}

func (cp ClassPath) String() string {
	return strings.Join(cp.Names(), ":")
}
