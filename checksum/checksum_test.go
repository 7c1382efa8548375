package checksum

import (
	"hash/crc32"
	"testing"

	"github.com/arloliu/bpx/format"
	"github.com/stretchr/testify/require"
)

func TestWeak_Sum(t *testing.T) {
	chk := NewWeak()
	chk.Push([]byte{1, 2, 3})
	require.Equal(t, uint32(6), chk.Finish())
}

func TestWeak_OrderIndependent(t *testing.T) {
	a := NewWeak()
	a.Push([]byte("abc"))
	a.Push([]byte("def"))

	b := NewWeak()
	b.Push([]byte("fedcba"))

	require.Equal(t, a.Finish(), b.Finish())
}

func TestWeak_Wraps(t *testing.T) {
	chk := NewWeak()
	block := make([]byte, 1<<16)
	for i := range block {
		block[i] = 0xFF
	}
	// 2^25 * 255 overflows u32; the digest must wrap silently.
	for range 512 {
		chk.Push(block)
	}
	require.Equal(t, uint32(512*len(block)*255), chk.Finish())
}

func TestCrc32_MatchesIEEE(t *testing.T) {
	data := []byte("123456789")

	chk := NewCrc32()
	chk.Push(data)
	require.Equal(t, crc32.ChecksumIEEE(data), chk.Finish())
	// Known check value for the reflected IEEE variant.
	require.Equal(t, uint32(0xCBF43926), crc32.ChecksumIEEE(data))
}

func TestCrc32_Streaming(t *testing.T) {
	one := NewCrc32()
	one.Push([]byte("hello "))
	one.Push([]byte("world"))

	all := NewCrc32()
	all.Push([]byte("hello world"))

	require.Equal(t, all.Finish(), one.Finish())
}

func TestCrc32_Empty(t *testing.T) {
	require.Equal(t, uint32(0), NewCrc32().Finish())
}

func TestNew(t *testing.T) {
	require.IsType(t, &Crc32{}, New(format.ChecksumCrc32))
	require.IsType(t, &Weak{}, New(format.ChecksumWeak))
	require.IsType(t, &Weak{}, New(format.ChecksumNone))
}
