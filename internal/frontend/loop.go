// Package frontend adapts the engine to a frame-driven host such as a
// retro-style emulator frontend.
package frontend

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/samcharles93/ratufa/internal/engine"
	"github.com/samcharles93/ratufa/internal/logger"
	"github.com/samcharles93/ratufa/internal/task"
	"github.com/samcharles93/ratufa/internal/vmerr"
)

// Host is the set of callbacks the frontend provides.
type Host interface {
	// Message shows a progress notice. A negative percent reports failure.
	Message(percent int, text string)
	Video(frame []byte, width, height, pitch int)
	PollInput()
	InhibitFastForward(inhibit bool)
}

// Config selects what a session boots.
type Config struct {
	// ROMs are file paths, in classpath order.
	ROMs      []string
	MainClass string
	MainArgs  []string
	Scaffold  string
	// Fork runs the main thread on its own goroutine instead of on frames.
	Fork     bool
	Terminal task.Terminal
	Logger   logger.Logger
}

// blankPitch is the byte width of the single 32-bit pixel in a blank frame.
const blankPitch = 4

// Loop owns at most one engine session at a time.
type Loop struct {
	host Host
	cfg  Config
	log  logger.Logger

	mu   sync.Mutex
	eng  *engine.Engine
	task *task.Task
}

// NewLoop creates a loop with no session.
func NewLoop(host Host, cfg Config) (*Loop, error) {
	if host == nil {
		return nil, vmerr.New(vmerr.KindNullArgs).Detail("frontend host is nil").Build()
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Loop{host: host, cfg: cfg, log: log.With("component", "frontend")}, nil
}

// Init brings up the first session.
func (l *Loop) Init(ctx context.Context) error {
	return l.Reset(ctx)
}

// Reset replaces any current session with a freshly booted one.
func (l *Loop) Reset(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.eng != nil {
		l.deinitLocked()
	}

	l.host.Message(0, "Initializing engine.")
	eng, tk, err := l.boot(ctx)
	if err != nil {
		l.log.Error("session configuration failed", "error", err)
		l.host.Message(-1, "Could not configure engine.")
		return err
	}
	l.host.Message(50, "Configuration complete.")
	l.eng, l.task = eng, tk
	l.host.Message(100, "Initialization complete.")
	return nil
}

func (l *Loop) boot(ctx context.Context) (eng *engine.Engine, tk *task.Task, err error) {
	eng, err = engine.New(engine.Config{
		Scaffold: l.cfg.Scaffold,
		Terminal: l.cfg.Terminal,
		Logger:   l.log,
	})
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, eng.Close())
		}
	}()

	names := make([]string, 0, len(l.cfg.ROMs))
	for _, path := range l.cfg.ROMs {
		c, err := eng.OpenROM(path)
		if err != nil {
			return nil, nil, err
		}
		names = append(names, c.Name())
	}
	cp, err := eng.ClassPath(names...)
	if err != nil {
		return nil, nil, err
	}
	tk, _, err = eng.SpawnTask(ctx, task.Request{
		ClassPath:  cp,
		MainClass:  l.cfg.MainClass,
		MainArgs:   l.cfg.MainArgs,
		StdOut:     task.RedirectTerminal,
		StdErr:     task.RedirectTerminal,
		ForkThread: l.cfg.Fork,
		RootVM:     true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("spawn %s: %w", l.cfg.MainClass, err)
	}
	return eng, tk, nil
}

// Deinit destroys the current session, if any.
func (l *Loop) Deinit() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.eng == nil {
		return nil
	}
	return l.deinitLocked()
}

func (l *Loop) deinitLocked() error {
	l.host.Message(0, "Destroying engine.")
	err := l.eng.Close()
	l.eng, l.task = nil, nil
	if err != nil {
		l.log.Warn("engine teardown reported errors", "error", err)
	}
	l.host.Message(100, "Engine destroyed.")
	return err
}

// Task returns the session's task, or nil without a session.
func (l *Loop) Task() *task.Task {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.task
}

// RunFrame advances the session by one host frame. Input is always polled
// first so the host menu stays reachable.
func (l *Loop) RunFrame(ctx context.Context) error {
	l.host.PollInput()

	l.mu.Lock()
	tk := l.task
	l.mu.Unlock()

	if tk == nil || tk.MainThread().State() == task.ThreadTerminated {
		l.host.InhibitFastForward(true)
		l.host.Video(make([]byte, blankPitch), 1, 1, blankPitch)
		return nil
	}

	th := tk.MainThread()
	if th.Policy() == task.Inline && th.State() == task.ThreadCreated {
		return th.Run(ctx)
	}
	return nil
}
