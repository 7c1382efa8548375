package container

import (
	"bytes"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/bpx/errs"
	"github.com/arloliu/bpx/format"
	"github.com/arloliu/bpx/internal/iobits"
	"github.com/arloliu/bpx/section"
)

// memBackend is a minimal in-memory Backend for tests.
type memBackend struct {
	buf []byte
	pos int64
}

func (m *memBackend) Read(p []byte) (int, error) {
	if m.pos >= int64(len(m.buf)) {
		return 0, io.EOF
	}
	n := copy(p, m.buf[m.pos:])
	m.pos += int64(n)

	return n, nil
}

func (m *memBackend) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.buf)) {
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}
	copy(m.buf[m.pos:end], p)
	m.pos = end

	return len(p), nil
}

func (m *memBackend) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		m.pos = offset
	case io.SeekCurrent:
		m.pos += offset
	case io.SeekEnd:
		m.pos = int64(len(m.buf)) + offset
	}

	return m.pos, nil
}

func writeSection(t *testing.T, c *Container, handle Handle, payload []byte) {
	t.Helper()

	guard, err := c.Sections().Open(handle)
	require.NoError(t, err)
	_, err = guard.Write(payload)
	require.NoError(t, err)
	require.NoError(t, guard.Close())
}

func readSection(t *testing.T, c *Container, handle Handle) []byte {
	t.Helper()

	guard, err := c.Sections().Load(handle)
	require.NoError(t, err)
	defer guard.Close()

	_, err = guard.Seek(0, io.SeekStart)
	require.NoError(t, err)
	buf := make([]byte, guard.Size())
	n, err := iobits.ReadFill(guard, buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)

	return buf
}

func TestContainer_CreateSave(t *testing.T) {
	backend := &memBackend{}
	c, err := Create(backend, WithType('P'))
	require.NoError(t, err)
	require.NoError(t, c.Save())

	require.GreaterOrEqual(t, len(backend.buf), section.SizeMainHeader)
	require.Equal(t, []byte("BPX"), backend.buf[0:3])
	require.Equal(t, byte('P'), backend.buf[3])
}

func TestContainer_RoundTrip(t *testing.T) {
	compressions := []format.CompressionType{
		format.CompressionNone,
		format.CompressionZlib,
		format.CompressionXz,
	}
	checksums := []format.ChecksumType{
		format.ChecksumNone,
		format.ChecksumWeak,
		format.ChecksumCrc32,
	}

	for _, compression := range compressions {
		for _, chk := range checksums {
			name := fmt.Sprintf("%s_%s", compression, chk)
			t.Run(name, func(t *testing.T) {
				backend := &memBackend{}
				c, err := Create(backend, WithType('P'))
				require.NoError(t, err)

				payloads := [][]byte{
					[]byte("first section"),
					bytes.Repeat([]byte("abcdefgh"), 32768), // past the default threshold
					{},
				}
				for _, payload := range payloads {
					h := c.Sections().Create(
						WithSectionType(0x42),
						WithCompression(compression),
						WithChecksum(chk),
					)
					writeSection(t, c, h, payload)
				}
				require.NoError(t, c.Save())

				backend.pos = 0
				reopened, err := Open(backend)
				require.NoError(t, err)
				require.Equal(t, len(payloads), reopened.Sections().Len())
				require.Equal(t, uint32(len(payloads)), reopened.MainHeader().SectionCount)

				for i, h := range reopened.Sections().Handles() {
					header := reopened.Sections().Header(h)
					require.Equal(t, uint8(0x42), header.Type)
					require.Equal(t, payloads[i], readSection(t, reopened, h))
				}
			})
		}
	}
}

func TestContainer_ThresholdDiscipline(t *testing.T) {
	backend := &memBackend{}
	c, err := Create(backend)
	require.NoError(t, err)

	small := c.Sections().Create(
		WithCompression(format.CompressionZlib),
		WithThreshold(100),
	)
	big := c.Sections().Create(
		WithCompression(format.CompressionZlib),
		WithThreshold(100),
	)
	writeSection(t, c, small, bytes.Repeat([]byte{'a'}, 100)) // == threshold: raw
	writeSection(t, c, big, bytes.Repeat([]byte{'b'}, 101))   // > threshold: compressed

	require.NoError(t, c.Save())

	require.Zero(t, c.Sections().Header(small).Flags&format.FlagCompressZlib)
	require.NotZero(t, c.Sections().Header(big).Flags&format.FlagCompressZlib)
	require.Equal(t, c.Sections().Header(small).Size, c.Sections().Header(small).CompressedSize)
}

func TestContainer_HeaderCorruptionDetected(t *testing.T) {
	backend := &memBackend{}
	c, err := Create(backend)
	require.NoError(t, err)
	h := c.Sections().Create(WithSectionType(1))
	writeSection(t, c, h, []byte("payload"))
	require.NoError(t, c.Save())

	// Flip a bit inside the section header table.
	corrupt := &memBackend{buf: bytes.Clone(backend.buf)}
	corrupt.buf[section.SizeMainHeader+12] ^= 0x01

	_, err = Open(corrupt)
	require.ErrorIs(t, err, errs.ErrChecksumMismatch)

	// The skip flag turns the same container readable.
	corrupt.pos = 0
	_, err = Open(corrupt, WithSkipChecksumCheck())
	require.NoError(t, err)
}

func TestContainer_BodyCorruptionDetected(t *testing.T) {
	for _, chk := range []format.ChecksumType{format.ChecksumWeak, format.ChecksumCrc32} {
		t.Run(chk.String(), func(t *testing.T) {
			backend := &memBackend{}
			c, err := Create(backend)
			require.NoError(t, err)
			h := c.Sections().Create(WithChecksum(chk))
			writeSection(t, c, h, []byte("some section payload"))
			require.NoError(t, c.Save())

			pointer := c.Sections().Header(h).Pointer
			corrupt := &memBackend{buf: bytes.Clone(backend.buf)}
			corrupt.buf[pointer+3] ^= 0x40

			// Header chain is fine; only the body was flipped.
			reopened, err := Open(corrupt)
			require.NoError(t, err)

			handle, ok := reopened.Sections().FindByIndex(0)
			require.True(t, ok)
			_, err = reopened.Sections().Load(handle)
			require.ErrorIs(t, err, errs.ErrChecksumMismatch)
		})
	}
}

func TestContainer_BadSignature(t *testing.T) {
	backend := &memBackend{buf: bytes.Repeat([]byte{0xFF}, 512)}

	_, err := Open(backend)
	require.ErrorIs(t, err, errs.ErrBadSignature)
}

func TestContainer_SkipSignature(t *testing.T) {
	backend := &memBackend{}
	c, err := Create(backend, WithType('Q'))
	require.NoError(t, err)
	require.NoError(t, c.Save())

	backend.buf[0] = 'Z'
	backend.pos = 0
	_, err = Open(backend)
	require.ErrorIs(t, err, errs.ErrBadSignature)

	backend.pos = 0
	// Editing the signature byte also broke the header-chain checksum, and
	// the signature skip leaves the checksum check on, so disable both.
	reopened, err := Open(backend, WithSkipSignatureCheck(), WithSkipChecksumCheck())
	require.NoError(t, err)
	require.Equal(t, uint8('Q'), reopened.MainHeader().Type)
}

func TestContainer_ReadOnlyBackend(t *testing.T) {
	backend := &memBackend{}
	c, err := Create(backend)
	require.NoError(t, err)
	h := c.Sections().Create()
	writeSection(t, c, h, []byte("data"))
	require.NoError(t, c.Save())

	reopened, err := Open(ReadOnly(bytes.NewReader(backend.buf)))
	require.NoError(t, err)
	require.Equal(t, []byte("data"), readSection(t, reopened, reopened.Sections().Handles()[0]))

	// Any save against a read-only backend must fail.
	guard, err := reopened.Sections().Open(reopened.Sections().Handles()[0])
	require.NoError(t, err)
	_, err = guard.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, guard.Close())
	require.ErrorIs(t, reopened.Save(), errs.ErrReadOnly)
}

func TestSectionTable_OpenGuards(t *testing.T) {
	backend := &memBackend{}
	c, err := Create(backend)
	require.NoError(t, err)
	h := c.Sections().Create()

	guard, err := c.Sections().Open(h)
	require.NoError(t, err)

	_, err = c.Sections().Open(h)
	require.ErrorIs(t, err, errs.ErrSectionInUse)
	_, err = c.Sections().Load(h)
	require.ErrorIs(t, err, errs.ErrSectionInUse)

	require.NoError(t, guard.Close())
	guard2, err := c.Sections().Open(h)
	require.NoError(t, err)
	require.NoError(t, guard2.Close())
}

func TestSectionTable_OpenUnloaded(t *testing.T) {
	backend := &memBackend{}
	c, err := Create(backend)
	require.NoError(t, err)
	h := c.Sections().Create()
	writeSection(t, c, h, []byte("body"))
	require.NoError(t, c.Save())

	backend.pos = 0
	reopened, err := Open(backend)
	require.NoError(t, err)

	handle := reopened.Sections().Handles()[0]
	_, err = reopened.Sections().Open(handle)
	require.ErrorIs(t, err, errs.ErrSectionNotLoaded)

	guard, err := reopened.Sections().Load(handle)
	require.NoError(t, err)
	require.NoError(t, guard.Close())

	// Loaded now; Open succeeds.
	guard, err = reopened.Sections().Open(handle)
	require.NoError(t, err)
	require.NoError(t, guard.Close())
}

func TestSectionTable_Remove(t *testing.T) {
	backend := &memBackend{}
	c, err := Create(backend)
	require.NoError(t, err)

	a := c.Sections().Create(WithSectionType(1))
	b := c.Sections().Create(WithSectionType(2))
	d := c.Sections().Create(WithSectionType(3))
	writeSection(t, c, a, []byte("a"))
	writeSection(t, c, b, []byte("b"))
	writeSection(t, c, d, []byte("d"))
	require.NoError(t, c.Save())

	c.Sections().Remove(b)
	require.Equal(t, 2, c.Sections().Len())
	require.Equal(t, uint32(0), c.Sections().Index(a))
	require.Equal(t, uint32(1), c.Sections().Index(d))

	require.NoError(t, c.Save())

	backend.pos = 0
	reopened, err := Open(backend)
	require.NoError(t, err)
	require.Equal(t, 2, reopened.Sections().Len())

	types := []uint8{}
	for _, h := range reopened.Sections().Handles() {
		types = append(types, reopened.Sections().Header(h).Type)
	}
	require.Equal(t, []uint8{1, 3}, types)
}

func TestSectionTable_FindByType(t *testing.T) {
	backend := &memBackend{}
	c, err := Create(backend)
	require.NoError(t, err)

	c.Sections().Create(WithSectionType(0x10))
	second := c.Sections().Create(WithSectionType(0x20))
	c.Sections().Create(WithSectionType(0x20))

	h, ok := c.Sections().FindByType(0x20)
	require.True(t, ok)
	require.Equal(t, second, h)

	_, ok = c.Sections().FindByType(0x99)
	require.False(t, ok)
}

func TestContainer_LoadAndSave(t *testing.T) {
	backend := &memBackend{}
	c, err := Create(backend)
	require.NoError(t, err)
	a := c.Sections().Create(WithSectionType(1))
	b := c.Sections().Create(WithSectionType(2))
	writeSection(t, c, a, []byte("alpha"))
	writeSection(t, c, b, []byte("beta"))
	require.NoError(t, c.Save())

	backend.pos = 0
	reopened, err := Open(backend)
	require.NoError(t, err)

	// Force a regenerate without loading anything by hand.
	extra := reopened.Sections().Create(WithSectionType(3))
	writeSection(t, reopened, extra, []byte("gamma"))

	require.NoError(t, reopened.LoadAndSave())

	backend.pos = 0
	final, err := Open(backend)
	require.NoError(t, err)
	require.Equal(t, 3, final.Sections().Len())

	var bodies [][]byte
	for _, h := range final.Sections().Handles() {
		bodies = append(bodies, readSection(t, final, h))
	}
	require.Equal(t, [][]byte{[]byte("alpha"), []byte("beta"), []byte("gamma")}, bodies)
}

func TestContainer_SetMainHeader(t *testing.T) {
	backend := &memBackend{}
	c, err := Create(backend, WithType('P'))
	require.NoError(t, err)
	require.NoError(t, c.Save())

	header := c.MainHeader()
	header.TypeExt[5] = 0x99
	c.SetMainHeader(header)
	require.NoError(t, c.Save())

	backend.pos = 0
	reopened, err := Open(backend)
	require.NoError(t, err)
	require.Equal(t, uint8(0x99), reopened.MainHeader().TypeExt[5])
}
