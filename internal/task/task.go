package task

import (
	"context"
	"io"
	"maps"
	"slices"
	"time"

	"github.com/samcharles93/ratufa/internal/format"
	"github.com/samcharles93/ratufa/internal/vmerr"
)

// Task is one guest program: its classpath, main entry point, standard
// streams and the thread that runs it.
type Task struct {
	id               string
	scaffold         string
	mainClass        string
	mainArgs         []string
	systemProperties map[string]string
	classPath        format.ClassPath
	rootVM           bool
	created          time.Time

	io IOConfig

	stdin     io.Reader
	stdinBuf  *Buffer
	stdout    io.Writer
	stdoutBuf *Buffer
	stderr    io.Writer
	stderrBuf *Buffer

	main *Thread
}

// Info is a point-in-time view of a task.
type Info struct {
	ID        string    `json:"id"`
	Scaffold  string    `json:"scaffold"`
	MainClass string    `json:"main_class"`
	MainArgs  []string  `json:"main_args"`
	ClassPath []string  `json:"classpath"`
	RootVM    bool      `json:"root_vm"`
	Stdin     string    `json:"stdin"`
	Stdout    string    `json:"stdout"`
	Stderr    string    `json:"stderr"`
	Policy    string    `json:"policy"`
	State     string    `json:"state"`
	ExitCode  *int      `json:"exit_code,omitempty"`
	Error     string    `json:"error,omitempty"`
	Created   time.Time `json:"created"`
}

func (t *Task) ID() string        { return t.id }
func (t *Task) Scaffold() string  { return t.scaffold }
func (t *Task) MainClass() string { return t.mainClass }
func (t *Task) RootVM() bool      { return t.rootVM }
func (t *Task) Created() time.Time {
	return t.created
}

// MainArgs returns a copy of the arguments passed to the main entry point.
func (t *Task) MainArgs() []string { return slices.Clone(t.mainArgs) }

func (t *Task) SystemProperties() map[string]string { return maps.Clone(t.systemProperties) }

func (t *Task) ClassPath() format.ClassPath { return slices.Clone(t.classPath) }

// IO reports how the task's standard streams are wired.
func (t *Task) IO() IOConfig { return t.io }

func (t *Task) MainThread() *Thread { return t.main }

// WriteInput appends p to a buffered stdin. Terminal-backed tasks read the
// host terminal directly and reject host writes.
func (t *Task) WriteInput(p []byte) (int, error) {
	if t.stdinBuf == nil {
		return 0, vmerr.New(vmerr.KindInvalidArgument).Detail("task stdin is attached to the terminal").Build()
	}
	return t.stdinBuf.Write(p)
}

// Stdout returns the buffered stdout, or nil when stdout is not buffered.
func (t *Task) Stdout() []byte {
	if t.stdoutBuf == nil {
		return nil
	}
	return t.stdoutBuf.Bytes()
}

// Stderr returns the buffered stderr, or nil when stderr is not buffered.
func (t *Task) Stderr() []byte {
	if t.stderrBuf == nil {
		return nil
	}
	return t.stderrBuf.Bytes()
}

// Wait blocks until the main thread terminates.
func (t *Task) Wait(ctx context.Context) (int, error) {
	return t.main.Wait(ctx)
}

// ExitCode returns the main thread's exit code and whether it has terminated.
func (t *Task) ExitCode() (int, bool) {
	if t.main.State() != ThreadTerminated {
		return 0, false
	}
	code, _ := t.main.Result()
	return code, true
}

func (t *Task) Info() Info {
	info := Info{
		ID:        t.id,
		Scaffold:  t.scaffold,
		MainClass: t.mainClass,
		MainArgs:  t.MainArgs(),
		ClassPath: t.classPath.Names(),
		RootVM:    t.rootVM,
		Stdin:     t.io.Stdin.String(),
		Stdout:    t.io.Stdout.String(),
		Stderr:    t.io.Stderr.String(),
		Policy:    t.main.Policy().String(),
		State:     t.main.State().String(),
		Created:   t.created,
	}
	if t.main.State() == ThreadTerminated {
		code, err := t.main.Result()
		info.ExitCode = &code
		if err != nil {
			info.Error = err.Error()
		}
	}
	return info
}
