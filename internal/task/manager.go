// Package task owns guest tasks and the threads that run them.
package task

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/samcharles93/ratufa/internal/format"
	"github.com/samcharles93/ratufa/internal/logger"
	"github.com/samcharles93/ratufa/internal/scaffold"
	"github.com/samcharles93/ratufa/internal/vmerr"
)

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	// Terminal is the host stream set for root VM stdin and terminal output.
	// Missing streams read EOF or discard.
	Terminal Terminal
	Logger   logger.Logger
	// BaseContext is the parent of every thread's context. Close cancels it.
	BaseContext context.Context
}

// Request describes a task to spawn.
type Request struct {
	ClassPath        format.ClassPath
	MainClass        string
	MainArgs         []string
	SystemProperties map[string]string

	StdOut RedirectMode
	StdErr RedirectMode

	// ForkThread runs the main thread on its own goroutine. Otherwise the
	// caller drives it with Thread.Run.
	ForkThread bool
	// RootVM attaches the host terminal as stdin.
	RootVM bool
	// Stdin seeds a buffered task's input before its main thread can run.
	// It must be empty when RootVM is set.
	Stdin []byte
	// Scaffold names the backend; empty selects scaffold.Default.
	Scaffold string
}

// Manager tracks every live task.
type Manager struct {
	term Terminal
	log  logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	nextThread atomic.Uint64

	mu     sync.Mutex
	tasks  map[string]*Task
	order  []string
	closed bool
}

// NewManager creates a live Manager.
func NewManager(cfg ManagerConfig) *Manager {
	base := cfg.BaseContext
	if base == nil {
		base = context.Background()
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	ctx, cancel := context.WithCancel(base)
	return &Manager{
		term:   cfg.Terminal.withDefaults(),
		log:    log.With("component", "task"),
		ctx:    ctx,
		cancel: cancel,
		tasks:  make(map[string]*Task),
	}
}

var errAbandoned = errors.New("task destroyed before its main thread ran")

// Spawn creates a task and its main thread. Nothing is registered unless
// every step succeeds.
func (m *Manager) Spawn(ctx context.Context, req Request) (*Task, *Thread, error) {
	if m.isClosed() {
		return nil, nil, vmerr.New(vmerr.KindInvalidEngineState).Detail("task manager is closed").Build()
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if err := req.ClassPath.Validate(); err != nil {
		return nil, nil, vmerr.New(vmerr.KindInvalidArgument).Detail("classpath").Cause(err).Build()
	}
	if req.MainClass == "" {
		return nil, nil, vmerr.New(vmerr.KindInvalidArgument).Detail("main class is empty").Build()
	}
	if !req.StdOut.valid() {
		return nil, nil, vmerr.New(vmerr.KindInvalidArgument).Value(int64(req.StdOut)).Detail("unknown stdout redirect mode").Build()
	}
	if !req.StdErr.valid() {
		return nil, nil, vmerr.New(vmerr.KindInvalidArgument).Value(int64(req.StdErr)).Detail("unknown stderr redirect mode").Build()
	}
	if req.RootVM && len(req.Stdin) > 0 {
		return nil, nil, vmerr.New(vmerr.KindInvalidArgument).Detail("initial stdin cannot be queued for a root vm task").Build()
	}
	sc, err := scaffold.Lookup(req.Scaffold)
	if err != nil {
		return nil, nil, err
	}

	t := &Task{
		id:               uuid.NewString(),
		scaffold:         sc.Name(),
		mainClass:        req.MainClass,
		mainArgs:         slices.Clone(req.MainArgs),
		systemProperties: maps.Clone(req.SystemProperties),
		classPath:        slices.Clone(req.ClassPath),
		rootVM:           req.RootVM,
		created:          time.Now(),
	}
	if t.mainArgs == nil {
		t.mainArgs = []string{}
	}
	if t.systemProperties == nil {
		t.systemProperties = map[string]string{}
	}

	t.io = IOConfig{Stdout: req.StdOut, Stderr: req.StdErr}
	if req.RootVM {
		t.io.Stdin = StdinTerminal
		t.io.Interactive = m.term.Interactive()
		t.stdin = m.term.In
	} else {
		t.io.Stdin = StdinBuffer
		t.stdinBuf = &Buffer{}
		if len(req.Stdin) > 0 {
			_, _ = t.stdinBuf.Write(req.Stdin)
		}
		t.stdin = t.stdinBuf
	}
	if t.stdout, t.stdoutBuf, err = output(req.StdOut, m.term.Out); err != nil {
		return nil, nil, err
	}
	if t.stderr, t.stderrBuf, err = output(req.StdErr, m.term.Err); err != nil {
		return nil, nil, err
	}

	policy := Inline
	if req.ForkThread {
		policy = Forked
	}
	log := m.log.With("task", t.id, "scaffold", sc.Name())
	t.main = newThread(m.nextThread.Add(1), t, policy, func(ctx context.Context) (int, error) {
		runCtx, stop := context.WithCancel(ctx)
		defer stop()
		unhook := context.AfterFunc(m.ctx, stop)
		defer unhook()

		log.Debug("main thread started", "main", t.mainClass, "policy", policy.String())
		code, err := sc.Run(runCtx, &scaffold.Program{
			TaskID:           t.id,
			ClassPath:        t.classPath,
			MainClass:        t.mainClass,
			MainArgs:         slices.Clone(t.mainArgs),
			SystemProperties: maps.Clone(t.systemProperties),
			Stdin:            t.stdin,
			Stdout:           t.stdout,
			Stderr:           t.stderr,
		})
		if err != nil {
			log.Warn("main thread failed", "exit_code", code, "error", err)
		} else {
			log.Debug("main thread exited", "exit_code", code)
		}
		return code, err
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, nil, vmerr.New(vmerr.KindInvalidEngineState).Detail("task manager is closed").Build()
	}
	m.tasks[t.id] = t
	m.order = append(m.order, t.id)
	if policy == Forked {
		m.wg.Add(1)
		t.main.start(m.ctx, m.wg.Done)
	}
	log.Info("task spawned", "main", t.mainClass, "classpath", t.classPath.String(), "policy", policy.String())
	return t, t.main, nil
}

func (m *Manager) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Tasks returns live tasks in spawn order.
func (m *Manager) Tasks() []*Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Task, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.tasks[id])
	}
	return out
}

// Get looks up a task by id.
func (m *Manager) Get(id string) (*Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, vmerr.New(vmerr.KindNotFound).Detail("task " + id).Build()
	}
	return t, nil
}

// Destroy removes a task. A task whose main thread is running is refused;
// one that never started is terminated first.
func (m *Manager) Destroy(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return vmerr.New(vmerr.KindNotFound).Detail("task " + id).Build()
	}
	// abandon and Run race on the same CAS; only a thread that lost to
	// abandon or has already terminated may be dropped.
	if !t.main.abandon(errAbandoned) && t.main.State() != ThreadTerminated {
		return vmerr.New(vmerr.KindInvalidThreadState).Value(int64(ThreadRunning)).Detail("task " + id + " is still running").Build()
	}
	delete(m.tasks, id)
	m.order = slices.DeleteFunc(m.order, func(s string) bool { return s == id })
	m.log.Info("task destroyed", "task", id)
	return nil
}

// Close cancels every thread's context, waits for forked threads, and drops
// all tasks. A second Close fails with invalid_engine_state.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return vmerr.New(vmerr.KindInvalidEngineState).Detail("task manager already closed").Build()
	}
	m.closed = true
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tasks {
		t.main.abandon(errAbandoned)
	}
	n := len(m.tasks)
	clear(m.tasks)
	m.order = nil
	m.log.Debug("task manager closed", "tasks", n)
	return nil
}
