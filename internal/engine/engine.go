// Package engine ties the format registry, the scaffold catalogue and the
// task manager into the single state a host initialises and tears down.
package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sync"

	"github.com/samcharles93/ratufa/internal/format"
	"github.com/samcharles93/ratufa/internal/format/sqcdriver"
	"github.com/samcharles93/ratufa/internal/logger"
	"github.com/samcharles93/ratufa/internal/scaffold"
	"github.com/samcharles93/ratufa/internal/task"
	"github.com/samcharles93/ratufa/internal/vmerr"
	"github.com/samcharles93/ratufa/pkg/sqc"
)

// Drivers is every compiled-in ROM driver: the SQC pack driver, then the SQC
// library driver.
var Drivers = format.NewRegistry(
	[]format.PackDriver{sqcdriver.Pack},
	[]format.LibraryDriver{sqcdriver.Library},
)

// Config configures an Engine.
type Config struct {
	// Scaffold is the default backend for spawned tasks. Empty selects
	// scaffold.Default; unknown names fail New.
	Scaffold    string
	Terminal    task.Terminal
	Logger      logger.Logger
	BaseContext context.Context
}

// ROM is a loaded container plus the file image backing it, if any.
type ROM struct {
	Container format.Container
	image     *sqc.Image
}

// Mapped reports whether the ROM bytes are memory-mapped from disk.
func (r *ROM) Mapped() bool {
	return r.image != nil && r.image.Mapped()
}

// Engine is the top-level VM state.
type Engine struct {
	scaffold string
	drivers  *format.Registry
	tasks    *task.Manager
	log      logger.Logger

	mu     sync.RWMutex
	roms   []*ROM
	closed bool
}

// New initialises an engine.
func New(cfg Config) (*Engine, error) {
	name, err := scaffold.Normalize(cfg.Scaffold)
	if err != nil {
		return nil, err
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	e := &Engine{
		scaffold: name,
		drivers:  Drivers,
		log:      log.With("component", "engine"),
		tasks: task.NewManager(task.ManagerConfig{
			Terminal:    cfg.Terminal,
			Logger:      log,
			BaseContext: cfg.BaseContext,
		}),
	}
	e.log.Debug("engine initialised", "scaffold", name, "drivers", len(Drivers.Drivers()))
	return e, nil
}

// Scaffold returns the default backend name.
func (e *Engine) Scaffold() string { return e.scaffold }

// Drivers returns the registry the engine loads ROMs with.
func (e *Engine) Drivers() *format.Registry { return e.drivers }

func (e *Engine) live() error {
	if e.closed {
		return vmerr.New(vmerr.KindInvalidEngineState).Detail("engine is closed").Build()
	}
	return nil
}

// LoadROM detects and initialises data as a ROM called name. Names must be
// unique within the engine.
func (e *Engine) LoadROM(name string, data []byte) (format.Container, error) {
	return e.load(name, data, nil)
}

// OpenROM maps the file at path and loads it under its base name. The
// mapping lives until Close.
func (e *Engine) OpenROM(path string) (format.Container, error) {
	img, err := sqc.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rom %s: %w", path, err)
	}
	c, err := e.load(filepath.Base(path), img.Data, img)
	if err != nil {
		_ = img.Close()
		return nil, err
	}
	return c, nil
}

func (e *Engine) load(name string, data []byte, img *sqc.Image) (format.Container, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.live(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, vmerr.New(vmerr.KindInvalidArgument).Detail("rom name is empty").Build()
	}
	if e.findLocked(name) != nil {
		return nil, vmerr.New(vmerr.KindInvalidArgument).Detail(fmt.Sprintf("rom %q already loaded", name)).Build()
	}
	c, err := e.drivers.Load(name, data)
	if err != nil {
		return nil, err
	}
	e.roms = append(e.roms, &ROM{Container: c, image: img})
	e.log.Info("rom loaded", "name", name, "kind", string(c.Kind()), "driver", c.Driver(), "mapped", img != nil && img.Mapped())
	return c, nil
}

func (e *Engine) findLocked(name string) *ROM {
	for _, r := range e.roms {
		if r.Container.Name() == name {
			return r
		}
	}
	return nil
}

// ROMs lists loaded ROMs in load order.
func (e *Engine) ROMs() []*ROM {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.roms)
}

// ROM looks up a loaded ROM by name.
func (e *Engine) ROM(name string) (*ROM, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if r := e.findLocked(name); r != nil {
		return r, nil
	}
	return nil, vmerr.New(vmerr.KindNotFound).Detail("rom " + name).Build()
}

// ClassPath resolves loaded ROMs by name, in the given order.
func (e *Engine) ClassPath(names ...string) (format.ClassPath, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := e.live(); err != nil {
		return nil, err
	}
	cp := make(format.ClassPath, 0, len(names))
	for i, name := range names {
		r := e.findLocked(name)
		if r == nil {
			return nil, vmerr.New(vmerr.KindNotFound).Value(int64(i)).Detail("rom " + name).Build()
		}
		cp = append(cp, r.Container)
	}
	return cp, nil
}

// SpawnTask creates a task. An empty req.Scaffold uses the engine default.
func (e *Engine) SpawnTask(ctx context.Context, req task.Request) (*task.Task, *task.Thread, error) {
	e.mu.RLock()
	err := e.live()
	e.mu.RUnlock()
	if err != nil {
		return nil, nil, err
	}
	if req.Scaffold == "" {
		req.Scaffold = e.scaffold
	}
	return e.tasks.Spawn(ctx, req)
}

func (e *Engine) Tasks() []*task.Task { return e.tasks.Tasks() }

func (e *Engine) Task(id string) (*task.Task, error) { return e.tasks.Get(id) }

func (e *Engine) DestroyTask(id string) error { return e.tasks.Destroy(id) }

// Close tears down tasks, then containers, then file mappings. A second
// Close fails with invalid_engine_state.
func (e *Engine) Close() error {
	e.mu.Lock()
	if err := e.live(); err != nil {
		e.mu.Unlock()
		return err
	}
	e.closed = true
	roms := e.roms
	e.roms = nil
	e.mu.Unlock()

	var errs []error
	if err := e.tasks.Close(); err != nil {
		errs = append(errs, err)
	}
	for _, r := range roms {
		if err := r.Container.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close rom %s: %w", r.Container.Name(), err))
		}
	}
	for _, r := range roms {
		if r.image == nil {
			continue
		}
		if err := r.image.Close(); err != nil {
			errs = append(errs, fmt.Errorf("unmap rom %s: %w", r.Container.Name(), err))
		}
	}
	e.log.Debug("engine closed", "roms", len(roms))
	return errors.Join(errs...)
}
