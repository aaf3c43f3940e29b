package sqcdriver

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samcharles93/ratufa/internal/format"
	"github.com/samcharles93/ratufa/internal/vmerr"
	"github.com/samcharles93/ratufa/pkg/sqc"
)

// scenario bytes: library magic, version 1, two properties, 5 and -1.
var libraryScenario = []byte{
	0x00, 0x45, 0x26, 0x70,
	0x00, 0x01,
	0x00, 0x02,
	0x00, 0x00, 0x00, 0x05,
	0xFF, 0xFF, 0xFF, 0xFF,
}

func withMagic(data []byte, magic uint32) []byte {
	out := append([]byte(nil), data...)
	binary.BigEndian.PutUint32(out, magic)
	return out
}

func TestLibraryScenario(t *testing.T) {
	t.Parallel()

	require.True(t, Library.Detect(libraryScenario))
	require.False(t, Pack.Detect(libraryScenario))

	st, err := Library.InitLibrary(format.NewInstance(libraryScenario))
	require.NoError(t, err)
	assert.Equal(t, int16(1), st.Version())
	assert.Equal(t, int32(2), st.NumProperties())

	p0, err := st.Property(0)
	require.NoError(t, err)
	assert.Equal(t, int32(5), p0)

	p1, err := st.Property(1)
	require.NoError(t, err)
	assert.Equal(t, int32(-1), p1)
}

func TestPackScenarioRejectsNegativeLibraryCount(t *testing.T) {
	t.Parallel()

	data := withMagic(libraryScenario, sqc.MagicPack)
	require.True(t, Pack.Detect(data))
	require.False(t, Library.Detect(data))

	st, err := Pack.InitPack(format.NewInstance(data))
	require.NoError(t, err)

	n, err := st.NumLibraries()
	assert.Equal(t, int32(-1), n)
	require.ErrorIs(t, err, vmerr.ErrInvalidNumLibraries)
	v, _ := vmerr.ValueOf(err)
	assert.Equal(t, int64(-1), v)
}

func TestPackLibraryCount(t *testing.T) {
	t.Parallel()

	for _, want := range []int32{0, 1, 17, 1 << 20} {
		b := sqc.NewBuilder(sqc.KindPack)
		require.NoError(t, b.SetNumLibraries(want))
		data, err := b.Bytes()
		require.NoError(t, err)

		st, err := Pack.InitPack(format.NewInstance(data))
		require.NoError(t, err)
		got, err := st.NumLibraries()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestPackWithoutTOCSlot(t *testing.T) {
	t.Parallel()

	data, err := sqc.Encode(sqc.MagicPack, sqc.ClassVersion, []int32{1})
	require.NoError(t, err)
	st, err := Pack.InitPack(format.NewInstance(data))
	require.NoError(t, err)

	n, err := st.NumLibraries()
	assert.Equal(t, int32(-1), n)
	assert.ErrorIs(t, err, vmerr.ErrInvalidNumLibraries)
	assert.ErrorIs(t, err, vmerr.ErrOutOfBounds)
}

func TestPropertyRoundTrip(t *testing.T) {
	t.Parallel()

	values := []int32{1, -7, 0, 0x7FFFFFFF, -0x80000000, 0x01020304, -2}
	data, err := sqc.Encode(sqc.MagicLibrary, sqc.ClassVersion, values)
	require.NoError(t, err)

	st, err := Library.InitLibrary(format.NewInstance(data))
	require.NoError(t, err)

	for i, want := range values {
		got, err := st.Property(int32(i))
		require.NoError(t, err)
		assert.Equal(t, want, got, "property %d", i)
	}
	for _, idx := range []int32{-1, int32(len(values)), 1 << 30} {
		_, err := st.Property(idx)
		require.ErrorIs(t, err, vmerr.ErrOutOfBounds, "index %d", idx)
		v, _ := vmerr.ValueOf(err)
		assert.Equal(t, int64(idx), v)
	}
}

func TestLazyPropertiesSurviveTruncatedTable(t *testing.T) {
	t.Parallel()

	// Claims 0xFFFF properties but only carries two.
	data := append([]byte(nil), libraryScenario...)
	binary.BigEndian.PutUint16(data[sqc.OffsetNumProperties:], 0xFFFF)

	st, err := Library.InitLibrary(format.NewInstance(data))
	require.NoError(t, err)
	assert.Equal(t, int32(0xFFFF), st.NumProperties())

	p1, err := st.Property(1)
	require.NoError(t, err)
	assert.Equal(t, int32(-1), p1)

	_, err = st.Property(2)
	assert.ErrorIs(t, err, vmerr.ErrOutOfBounds)
}

func TestInitRejectsWrongVersion(t *testing.T) {
	t.Parallel()

	data := append([]byte(nil), libraryScenario...)
	binary.BigEndian.PutUint16(data[sqc.OffsetClassVersion:], 2)

	_, err := Library.InitLibrary(format.NewInstance(data))
	require.ErrorIs(t, err, vmerr.ErrInvalidClassVersion)
	v, _ := vmerr.ValueOf(err)
	assert.Equal(t, int64(2), v)
}

func TestInitWithoutDetectFails(t *testing.T) {
	t.Parallel()

	// Library bytes offered to the pack driver: detect says no, so init must
	// fail instead of silently parsing a header of the wrong family.
	require.False(t, Pack.Detect(libraryScenario))
	_, err := Pack.InitPack(format.NewInstance(libraryScenario))
	assert.ErrorIs(t, err, vmerr.ErrInvalidMagic)

	garbage := []byte{0xCA, 0xFE, 0xBA, 0xBE, 0x00, 0x01, 0x00, 0x00}
	require.False(t, Library.Detect(garbage))
	_, err = Library.InitLibrary(format.NewInstance(garbage))
	assert.ErrorIs(t, err, vmerr.ErrInvalidMagic)
}

func TestInitTruncatedHeader(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 3, 5, 7} {
		data := libraryScenario[:n]
		_, err := Library.InitLibrary(format.NewInstance(data))
		require.Error(t, err, "len %d", n)
		assert.ErrorIs(t, err, vmerr.ErrMalformedHeader, "len %d", n)
		assert.ErrorIs(t, err, vmerr.ErrOutOfBounds, "len %d", n)
	}
}

func TestDetectNeverPanicsOnShortInput(t *testing.T) {
	t.Parallel()

	for n := 0; n < 4; n++ {
		assert.False(t, Pack.Detect(make([]byte, n)))
		assert.False(t, Library.Detect(make([]byte, n)))
	}
	assert.False(t, Pack.Detect(nil))
}

func TestInitNilInstance(t *testing.T) {
	t.Parallel()

	_, err := Library.InitLibrary(nil)
	assert.ErrorIs(t, err, vmerr.ErrNullArgs)
}
