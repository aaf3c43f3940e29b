package task

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"

	"github.com/samcharles93/ratufa/internal/vmerr"
)

// RedirectMode selects where a task's stdout or stderr goes.
type RedirectMode int

const (
	// RedirectDiscard drops all output.
	RedirectDiscard RedirectMode = iota
	// RedirectBuffer keeps output in memory for the host to collect.
	RedirectBuffer
	// RedirectTerminal passes output through to the host terminal.
	RedirectTerminal
)

func (m RedirectMode) String() string {
	switch m {
	case RedirectDiscard:
		return "discard"
	case RedirectBuffer:
		return "buffer"
	case RedirectTerminal:
		return "terminal"
	default:
		return fmt.Sprintf("redirect(%d)", int(m))
	}
}

func (m RedirectMode) valid() bool {
	return m >= RedirectDiscard && m <= RedirectTerminal
}

// ParseRedirectMode parses "discard", "buffer" or "terminal".
func ParseRedirectMode(s string) (RedirectMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "discard", "null", "none":
		return RedirectDiscard, nil
	case "buffer":
		return RedirectBuffer, nil
	case "terminal", "tty", "passthrough":
		return RedirectTerminal, nil
	default:
		return 0, vmerr.New(vmerr.KindInvalidArgument).
			Detail(fmt.Sprintf("unknown redirect mode %q (expected discard, buffer, or terminal)", s)).
			Build()
	}
}

// StdinKind reports how a task's standard input is wired.
type StdinKind int

const (
	StdinBuffer StdinKind = iota
	StdinTerminal
)

func (k StdinKind) String() string {
	if k == StdinTerminal {
		return "terminal"
	}
	return "buffer"
}

// IOConfig is the standard stream wiring a task was created with.
type IOConfig struct {
	Stdin  StdinKind
	Stdout RedirectMode
	Stderr RedirectMode
	// Interactive is true when stdin is terminal-backed and the host stream
	// is an actual TTY.
	Interactive bool
}

// Terminal is the host's interactive stream set. Root VM tasks read from In;
// RedirectTerminal output goes to Out and Err.
type Terminal struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// HostTerminal returns the process's own standard streams.
func HostTerminal() Terminal {
	return Terminal{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// Interactive reports whether In is a real TTY.
func (t Terminal) Interactive() bool {
	f, ok := t.In.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func (t Terminal) withDefaults() Terminal {
	if t.In == nil {
		t.In = eofReader{}
	}
	if t.Out == nil {
		t.Out = io.Discard
	}
	if t.Err == nil {
		t.Err = io.Discard
	}
	return t
}

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }

// Buffer is a goroutine-safe in-memory stream. Tasks use it for buffered
// stdin and for buffered stdout/stderr.
type Buffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// Read drains buffered bytes; it returns io.EOF when the buffer is empty.
func (b *Buffer) Read(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Read(p)
}

// Bytes returns a copy of the unread contents.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Clone(b.buf.Bytes())
}

func (b *Buffer) String() string {
	return string(b.Bytes())
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}

// output resolves a redirect mode to a writer. The returned buffer is nil
// unless mode is RedirectBuffer.
func output(mode RedirectMode, host io.Writer) (io.Writer, *Buffer, error) {
	switch mode {
	case RedirectDiscard:
		return io.Discard, nil, nil
	case RedirectBuffer:
		b := &Buffer{}
		return b, b, nil
	case RedirectTerminal:
		return host, nil, nil
	default:
		return nil, nil, vmerr.New(vmerr.KindInvalidArgument).Value(int64(mode)).Detail("unknown redirect mode").Build()
	}
}
