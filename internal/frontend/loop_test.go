package frontend

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samcharles93/ratufa/internal/task"
	"github.com/samcharles93/ratufa/internal/vmerr"
	"github.com/samcharles93/ratufa/pkg/sqc"
)

type frame struct {
	data                 []byte
	width, height, pitch int
}

type recordingHost struct {
	mu       sync.Mutex
	messages []int
	texts    []string
	frames   []frame
	polls    int
	inhibit  []bool
}

func (h *recordingHost) Message(percent int, text string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, percent)
	h.texts = append(h.texts, text)
}

func (h *recordingHost) Video(data []byte, width, height, pitch int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frames = append(h.frames, frame{data, width, height, pitch})
}

func (h *recordingHost) PollInput() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.polls++
}

func (h *recordingHost) InhibitFastForward(inhibit bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.inhibit = append(h.inhibit, inhibit)
}

func writeROM(t *testing.T, name string) string {
	t.Helper()
	data, err := sqc.NewBuilder(sqc.KindLibrary).Bytes()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestNewLoopRequiresHost(t *testing.T) {
	t.Parallel()

	_, err := NewLoop(nil, Config{})
	assert.ErrorIs(t, err, vmerr.ErrNullArgs)
}

func TestRunFrameWithoutSessionDrawsBlank(t *testing.T) {
	t.Parallel()

	h := &recordingHost{}
	l, err := NewLoop(h, Config{})
	require.NoError(t, err)

	require.NoError(t, l.RunFrame(context.Background()))
	assert.Equal(t, 1, h.polls)
	assert.Equal(t, []bool{true}, h.inhibit)
	require.Len(t, h.frames, 1)
	assert.Equal(t, frame{make([]byte, 4), 1, 1, 4}, h.frames[0])
}

func TestInlineSessionRunsOnFrames(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	h := &recordingHost{}
	l, err := NewLoop(h, Config{
		ROMs:      []string{writeROM(t, "app.sqc")},
		MainClass: "app.Main",
		Terminal:  task.Terminal{Out: &out},
	})
	require.NoError(t, err)

	require.NoError(t, l.Init(context.Background()))
	assert.Equal(t, []int{0, 50, 100}, h.messages)
	tk := l.Task()
	require.NotNil(t, tk)
	assert.Equal(t, task.StdinTerminal, tk.IO().Stdin)
	assert.Equal(t, task.ThreadCreated, tk.MainThread().State())

	require.NoError(t, l.RunFrame(context.Background()))
	assert.Equal(t, task.ThreadTerminated, tk.MainThread().State())
	assert.Contains(t, out.String(), "springcoat: app.Main")
	assert.Empty(t, h.frames)

	require.NoError(t, l.RunFrame(context.Background()))
	assert.Len(t, h.frames, 1)
	assert.Equal(t, 2, h.polls)

	require.NoError(t, l.Deinit())
	assert.Nil(t, l.Task())
	assert.Equal(t, []int{0, 50, 100, 0, 100}, h.messages)
	require.NoError(t, l.Deinit())
}

func TestForkedSessionIsLeftAlone(t *testing.T) {
	t.Parallel()

	h := &recordingHost{}
	l, err := NewLoop(h, Config{
		ROMs:      []string{writeROM(t, "app.sqc")},
		MainClass: "app.Main",
		Fork:      true,
	})
	require.NoError(t, err)
	require.NoError(t, l.Init(context.Background()))
	t.Cleanup(func() { _ = l.Deinit() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	code, err := l.Task().Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	require.NoError(t, l.RunFrame(context.Background()))
	assert.Len(t, h.frames, 1)
}

func TestResetReplacesSession(t *testing.T) {
	t.Parallel()

	h := &recordingHost{}
	l, err := NewLoop(h, Config{
		ROMs:      []string{writeROM(t, "app.sqc")},
		MainClass: "app.Main",
	})
	require.NoError(t, err)
	require.NoError(t, l.Init(context.Background()))
	first := l.Task()

	require.NoError(t, l.Reset(context.Background()))
	assert.NotSame(t, first, l.Task())
	assert.Equal(t, task.ThreadTerminated, first.MainThread().State())
	assert.Equal(t, []int{0, 50, 100, 0, 100, 0, 50, 100}, h.messages)
	require.NoError(t, l.Deinit())
}

func TestResetFailureLeavesNoSession(t *testing.T) {
	t.Parallel()

	h := &recordingHost{}
	l, err := NewLoop(h, Config{
		ROMs:      []string{filepath.Join(t.TempDir(), "missing.sqc")},
		MainClass: "app.Main",
	})
	require.NoError(t, err)

	require.Error(t, l.Init(context.Background()))
	assert.Nil(t, l.Task())
	assert.Equal(t, []int{0, -1}, h.messages)

	h2 := &recordingHost{}
	l2, err := NewLoop(h2, Config{ROMs: []string{writeROM(t, "app.sqc")}})
	require.NoError(t, err)
	err = l2.Init(context.Background())
	assert.ErrorIs(t, err, vmerr.ErrInvalidArgument)
	assert.Nil(t, l2.Task())
}
