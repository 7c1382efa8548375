package strtab

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/bpx/container"
	"github.com/arloliu/bpx/errs"
	"github.com/arloliu/bpx/format"
	"github.com/arloliu/bpx/section"
)

func newStringContainer(t *testing.T) (*container.Container, *StringSection) {
	t.Helper()

	backend := section.NewAutoSectionData(section.DefaultMemoryThreshold)
	t.Cleanup(func() { backend.Close() })

	c, err := container.Create(backend)
	require.NoError(t, err)
	handle := c.Sections().Create(
		container.WithSectionType(format.SectionTypeStrings),
		container.WithCompression(format.CompressionZlib),
		container.WithChecksum(format.ChecksumWeak),
	)

	return c, New(handle)
}

func TestStringSection_PutGet(t *testing.T) {
	c, strings := newStringContainer(t)

	addr, err := strings.Put(c, "hello")
	require.NoError(t, err)
	require.Equal(t, uint32(0), addr)

	got, err := strings.Get(c, addr)
	require.NoError(t, err)
	require.Equal(t, "hello", got)
}

func TestStringSection_DistinctAddresses(t *testing.T) {
	c, strings := newStringContainer(t)

	first, err := strings.Put(c, "first")
	require.NoError(t, err)
	second, err := strings.Put(c, "second")
	require.NoError(t, err)

	require.NotEqual(t, first, second)
	// Addresses advance by string length plus the terminator.
	require.Equal(t, first+uint32(len("first"))+1, second)

	a, err := strings.Get(c, first)
	require.NoError(t, err)
	b, err := strings.Get(c, second)
	require.NoError(t, err)
	require.Equal(t, "first", a)
	require.Equal(t, "second", b)
}

func TestStringSection_RepeatedGet(t *testing.T) {
	c, strings := newStringContainer(t)

	addr, err := strings.Put(c, "stable")
	require.NoError(t, err)

	one, err := strings.Get(c, addr)
	require.NoError(t, err)
	two, err := strings.Get(c, addr)
	require.NoError(t, err)
	require.Equal(t, one, two)
}

func TestStringSection_UTF8(t *testing.T) {
	c, strings := newStringContainer(t)

	addr, err := strings.Put(c, "héllo 你好")
	require.NoError(t, err)

	got, err := strings.Get(c, addr)
	require.NoError(t, err)
	require.Equal(t, "héllo 你好", got)
}

func TestStringSection_SurvivesSave(t *testing.T) {
	backend := section.NewAutoSectionData(section.DefaultMemoryThreshold)
	defer backend.Close()

	c, err := container.Create(backend)
	require.NoError(t, err)
	handle := c.Sections().Create(
		container.WithSectionType(format.SectionTypeStrings),
		container.WithCompression(format.CompressionZlib),
		container.WithChecksum(format.ChecksumWeak),
	)
	strings := New(handle)

	addr, err := strings.Put(c, "persisted")
	require.NoError(t, err)
	require.NoError(t, c.Save())

	_, err = backend.Seek(0, io.SeekStart)
	require.NoError(t, err)
	reopened, err := container.Open(backend)
	require.NoError(t, err)

	stringsHandle, ok := reopened.Sections().FindByType(format.SectionTypeStrings)
	require.True(t, ok)
	fresh := New(stringsHandle)
	require.NoError(t, fresh.Load(reopened))

	got, err := fresh.Get(reopened, addr)
	require.NoError(t, err)
	require.Equal(t, "persisted", got)
}

func TestStringSection_Unterminated(t *testing.T) {
	c, strings := newStringContainer(t)

	_, err := strings.Put(c, "abc")
	require.NoError(t, err)

	// Chop the terminator off the end of the section.
	guard, err := c.Sections().Open(strings.Handle())
	require.NoError(t, err)
	_, err = guard.Truncate(1)
	require.NoError(t, err)
	require.NoError(t, guard.Close())

	// A fresh view has no cache and must hit the truncated data.
	fresh := New(strings.Handle())
	_, err = fresh.Get(c, 0)
	require.ErrorIs(t, err, errs.ErrEndOfSection)
}

func TestStringSection_GetWhileOpen(t *testing.T) {
	c, strings := newStringContainer(t)

	addr, err := strings.Put(c, "locked")
	require.NoError(t, err)

	guard, err := c.Sections().Open(strings.Handle())
	require.NoError(t, err)
	defer guard.Close()

	// The cache already knows the string, so no section access is needed.
	got, err := strings.Get(c, addr)
	require.NoError(t, err)
	require.Equal(t, "locked", got)
}
