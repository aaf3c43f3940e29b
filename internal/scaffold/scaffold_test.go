package scaffold

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samcharles93/ratufa/internal/format"
	"github.com/samcharles93/ratufa/internal/format/sqcdriver"
	"github.com/samcharles93/ratufa/internal/vmerr"
	"github.com/samcharles93/ratufa/pkg/sqc"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":              Default,
		"  ":            Default,
		"springcoat":    SpringCoat,
		" SpringCoat  ": SpringCoat,
	}
	for in, want := range cases {
		got, err := Normalize(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestUnknownScaffoldNeverFallsBack(t *testing.T) {
	t.Parallel()

	s, err := Lookup("summercoat")
	assert.Nil(t, s)
	require.ErrorIs(t, err, vmerr.ErrUnknownScaffold)
	assert.Contains(t, err.Error(), Available())
}

func TestCatalogue(t *testing.T) {
	t.Parallel()

	names := Names()
	require.NotEmpty(t, names)
	assert.Equal(t, SpringCoat, names[0])
	assert.True(t, Has(SpringCoat))
	assert.False(t, Has("auto"))

	s, err := Lookup(SpringCoat)
	require.NoError(t, err)
	assert.Equal(t, SpringCoat, s.Name())
}

func TestSpringCoatBootsClassPath(t *testing.T) {
	t.Parallel()

	data, err := sqc.Encode(sqc.MagicLibrary, sqc.ClassVersion, []int32{1})
	require.NoError(t, err)
	r := format.NewRegistry([]format.PackDriver{sqcdriver.Pack}, []format.LibraryDriver{sqcdriver.Library})
	lib, err := r.Load("app.sqc", data)
	require.NoError(t, err)

	var out bytes.Buffer
	p := &Program{
		ClassPath: format.ClassPath{lib},
		MainClass: "app.Main",
		MainArgs:  []string{"a", "b"},
		Stdout:    &out,
	}
	s, err := Lookup(SpringCoat)
	require.NoError(t, err)
	code, err := s.Run(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), "app.Main")
	assert.Contains(t, out.String(), "app.sqc")

	require.NoError(t, lib.Close())
	code, err = s.Run(context.Background(), p)
	assert.Equal(t, 1, code)
	assert.ErrorIs(t, err, vmerr.ErrInvalidFormatState)
}

func TestSpringCoatHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s, err := Lookup(SpringCoat)
	require.NoError(t, err)
	_, err = s.Run(ctx, &Program{})
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.Run(context.Background(), nil)
	assert.ErrorIs(t, err, vmerr.ErrNullArgs)
}
