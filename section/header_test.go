package section

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/bpx/checksum"
	"github.com/arloliu/bpx/errs"
	"github.com/arloliu/bpx/format"
)

func TestNewMainHeader(t *testing.T) {
	h := NewMainHeader()

	require.Equal(t, [3]byte{'B', 'P', 'X'}, h.Signature)
	require.Equal(t, uint64(SizeMainHeader), h.FileSize)
	require.Equal(t, format.CurrentVersion, h.Version)
	require.Equal(t, uint32(0), h.SectionCount)
}

func TestMainHeader_RoundTrip(t *testing.T) {
	original := NewMainHeader()
	original.Type = 'P'
	original.Checksum = 0xDEADBEEF
	original.FileSize = 123456
	original.SectionCount = 7
	original.TypeExt[0] = 0x42
	original.TypeExt[15] = 0x24

	data := original.Bytes()
	require.Len(t, data, SizeMainHeader)

	var parsed MainHeader
	require.NoError(t, parsed.Parse(data))
	require.Equal(t, original, parsed)
}

func TestMainHeader_Parse(t *testing.T) {
	t.Run("Too short", func(t *testing.T) {
		var h MainHeader
		err := h.Parse([]byte{1, 2, 3})
		require.ErrorIs(t, err, errs.ErrTruncated)
	})

	t.Run("Bad signature recoverable", func(t *testing.T) {
		original := NewMainHeader()
		original.Type = 'P'
		original.SectionCount = 3
		data := original.Bytes()
		data[0] = 'X'

		var parsed MainHeader
		err := parsed.Parse(data)
		require.ErrorIs(t, err, errs.ErrBadSignature)
		// The header is still fully populated for skip-signature callers.
		require.Equal(t, uint32(3), parsed.SectionCount)
		require.Equal(t, uint8('P'), parsed.Type)
	})

	t.Run("Bad version recoverable", func(t *testing.T) {
		original := NewMainHeader()
		original.Version = 99
		data := original.Bytes()

		var parsed MainHeader
		err := parsed.Parse(data)
		require.ErrorIs(t, err, errs.ErrBadVersion)
		require.Equal(t, uint32(99), parsed.Version)
	})

	t.Run("Version 1 accepted", func(t *testing.T) {
		original := NewMainHeader()
		original.Version = 1

		var parsed MainHeader
		require.NoError(t, parsed.Parse(original.Bytes()))
	})
}

func TestMainHeader_PushChecksum(t *testing.T) {
	h := NewMainHeader()
	h.Type = 'S'
	h.Checksum = 0

	base := checksum.NewWeak()
	h.PushChecksum(base)
	want := base.Finish()

	// The checksum field itself must not contribute to the digest.
	h.Checksum = 0xFFFFFFFF
	with := checksum.NewWeak()
	h.PushChecksum(with)
	require.Equal(t, want, with.Finish())
}

func TestReadMainHeader(t *testing.T) {
	h := NewMainHeader()
	h.Type = 'P'

	parsed, err := ReadMainHeader(bytes.NewReader(h.Bytes()))
	require.NoError(t, err)
	require.Equal(t, h, parsed)

	_, err = ReadMainHeader(bytes.NewReader(h.Bytes()[:10]))
	require.ErrorIs(t, err, errs.ErrTruncated)
}

func TestSectionHeader_RoundTrip(t *testing.T) {
	original := Header{
		Pointer:        0x123456789A,
		CompressedSize: 1000,
		Size:           4000,
		Checksum:       0xCAFEBABE,
		Type:           0xFF,
		Flags:          format.FlagCompressZlib | format.FlagCheckWeak,
	}

	data := original.Bytes()
	require.Len(t, data, SizeSectionHeader)
	require.Equal(t, byte(0), data[22])
	require.Equal(t, byte(0), data[23])

	var parsed Header
	require.NoError(t, parsed.Parse(data))
	require.Equal(t, original, parsed)
}

func TestSectionHeader_FlagAccessors(t *testing.T) {
	h := Header{Flags: format.FlagCompressXz | format.FlagCheckCrc32}
	require.Equal(t, format.CompressionXz, h.Compression())
	require.Equal(t, format.ChecksumCrc32, h.ChecksumKind())

	h.Flags = 0
	require.Equal(t, format.CompressionNone, h.Compression())
	require.Equal(t, format.ChecksumNone, h.ChecksumKind())
}

func TestSectionHeader_IsHuge(t *testing.T) {
	require.False(t, (&Header{Size: 100000000}).IsHuge())
	require.True(t, (&Header{Size: 100000001}).IsHuge())
}

func TestReadHeader_Truncated(t *testing.T) {
	_, err := ReadHeader(bytes.NewReader([]byte{1, 2, 3}))
	require.ErrorIs(t, err, errs.ErrTruncated)
}
