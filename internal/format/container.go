package format

import (
	"sync"

	"github.com/samcharles93/ratufa/internal/vmerr"
)

// holder owns one driver state and guards it against use after Close.
type holder struct {
	mu     sync.RWMutex
	name   string
	driver string
	inst   *Instance
	state  State
}

func (h *holder) current() (State, error) {
	if h.state == nil {
		return nil, vmerr.Of(vmerr.KindInvalidFormatState, 0)
	}
	return h.state, nil
}

func (h *holder) Name() string   { return h.name }
func (h *holder) Driver() string { return h.driver }

func (h *holder) Version() (int16, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, err := h.current()
	if err != nil {
		return 0, err
	}
	return s.Version(), nil
}

func (h *holder) NumProperties() (int32, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, err := h.current()
	if err != nil {
		return 0, err
	}
	return s.NumProperties(), nil
}

func (h *holder) Property(index int32) (int32, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, err := h.current()
	if err != nil {
		return 0, err
	}
	return s.Property(index)
}

func (h *holder) Valid() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state != nil
}

// Close destroys the driver state. Closing twice, or closing a container that
// was never initialised, is an invalid_format_state error.
func (h *holder) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == nil {
		return vmerr.New(vmerr.KindInvalidFormatState).Detail("container already destroyed").Build()
	}
	h.state = nil
	h.inst = nil
	return nil
}

// Pack is a loaded pack archive.
type Pack struct {
	holder
	pack PackState
}

func newPack(name, driver string, inst *Instance, st PackState) *Pack {
	return &Pack{
		holder: holder{name: name, driver: driver, inst: inst, state: st},
		pack:   st,
	}
}

func (p *Pack) Kind() Kind { return KindPack }

// NumLibraries returns the number of libraries recorded in the pack's table
// of contents.
func (p *Pack) NumLibraries() (int32, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.state == nil {
		return -1, vmerr.Of(vmerr.KindInvalidFormatState, 0)
	}
	return p.pack.NumLibraries()
}

// Library is a single loaded library.
type Library struct {
	holder
}

func newLibrary(name, driver string, inst *Instance, st LibraryState) *Library {
	return &Library{holder: holder{name: name, driver: driver, inst: inst, state: st}}
}

func (l *Library) Kind() Kind { return KindLibrary }

var (
	_ Container = (*Pack)(nil)
	_ Container = (*Library)(nil)
)
