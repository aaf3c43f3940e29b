package task

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/samcharles93/ratufa/internal/vmerr"
)

// Policy is how a thread gets scheduled.
type Policy int

const (
	// Inline threads run synchronously on the caller when it calls Run.
	Inline Policy = iota
	// Forked threads run on their own goroutine, started by Spawn.
	Forked
)

func (p Policy) String() string {
	if p == Forked {
		return "forked"
	}
	return "inline"
}

// ThreadState is the lifecycle state of a thread.
type ThreadState int32

const (
	ThreadCreated ThreadState = iota
	ThreadRunning
	ThreadTerminated
)

func (s ThreadState) String() string {
	switch s {
	case ThreadCreated:
		return "created"
	case ThreadRunning:
		return "running"
	case ThreadTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

type entryFunc func(ctx context.Context) (int, error)

// Thread is the execution unit backing a task's main entry point.
type Thread struct {
	id     uint64
	task   *Task
	policy Policy
	entry  entryFunc

	state atomic.Int32
	done  chan struct{}

	mu       sync.Mutex
	exitCode int
	err      error
}

func newThread(id uint64, t *Task, policy Policy, entry entryFunc) *Thread {
	return &Thread{
		id:     id,
		task:   t,
		policy: policy,
		entry:  entry,
		done:   make(chan struct{}),
	}
}

func (t *Thread) ID() uint64 { return t.id }

// Task returns the owning task.
func (t *Thread) Task() *Task { return t.task }

func (t *Thread) Policy() Policy { return t.policy }

func (t *Thread) State() ThreadState { return ThreadState(t.state.Load()) }

// Done is closed once the thread has terminated.
func (t *Thread) Done() <-chan struct{} { return t.done }

// Run drives an inline thread to completion on the calling goroutine.
// Forked threads, and threads that already ran, are rejected.
func (t *Thread) Run(ctx context.Context) error {
	if t.policy != Inline {
		return vmerr.New(vmerr.KindInvalidThreadState).Detail("forked threads cannot be driven by the caller").Build()
	}
	if !t.state.CompareAndSwap(int32(ThreadCreated), int32(ThreadRunning)) {
		return vmerr.New(vmerr.KindInvalidThreadState).Value(int64(t.State())).Detail("thread already started").Build()
	}
	t.execute(ctx)
	_, err := t.Result()
	return err
}

// start launches a forked thread on its own goroutine. onExit runs after the
// thread has terminated.
func (t *Thread) start(ctx context.Context, onExit func()) {
	t.state.Store(int32(ThreadRunning))
	go func() {
		defer onExit()
		t.execute(ctx)
	}()
}

func (t *Thread) execute(ctx context.Context) {
	code, err := t.safeEntry(ctx)
	t.finish(code, err)
}

func (t *Thread) safeEntry(ctx context.Context) (code int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			code = -1
			err = fmt.Errorf("panic in thread %d: %v", t.id, rec)
		}
	}()
	return t.entry(ctx)
}

func (t *Thread) finish(code int, err error) {
	t.mu.Lock()
	t.exitCode = code
	t.err = err
	t.mu.Unlock()
	t.state.Store(int32(ThreadTerminated))
	close(t.done)
}

// abandon terminates a thread that never started. It reports whether the
// thread was in the created state.
func (t *Thread) abandon(reason error) bool {
	if !t.state.CompareAndSwap(int32(ThreadCreated), int32(ThreadRunning)) {
		return false
	}
	t.finish(-1, reason)
	return true
}

// Result returns the exit code and error of a terminated thread.
// Before termination it returns an invalid_thread_state error.
func (t *Thread) Result() (int, error) {
	if t.State() != ThreadTerminated {
		return 0, vmerr.New(vmerr.KindInvalidThreadState).Value(int64(t.State())).Detail("thread has not terminated").Build()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.exitCode, t.err
}

// Wait blocks until the thread terminates or ctx is done.
func (t *Thread) Wait(ctx context.Context) (int, error) {
	select {
	case <-t.done:
		return t.Result()
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}
