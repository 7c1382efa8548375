// Package checksum provides the streaming digests used by BPX containers.
//
// Two digests exist: the weak additive sum used for the header chain and
// optional section integrity, and the reflected IEEE CRC-32 used for
// stronger section integrity. Both share the same streaming surface so the
// codec pipelines can feed bytes regardless of the selected algorithm.
package checksum

import (
	"hash/crc32"

	"github.com/arloliu/bpx/format"
)

// Checksum is a streaming u32 digest.
//
// Push appends bytes to the digest state; Finish returns the final value.
// A Checksum is single-use: Push after Finish is undefined.
type Checksum interface {
	Push(data []byte)
	Finish() uint32
}

// Weak is the order-independent additive digest: the sum of all bytes
// modulo 2^32. It digests the BPX header chain and optionally section data.
type Weak struct {
	sum uint32
}

// NewWeak creates a new weak additive digest.
func NewWeak() *Weak {
	return &Weak{}
}

func (w *Weak) Push(data []byte) {
	for _, b := range data {
		w.sum += uint32(b)
	}
}

func (w *Weak) Finish() uint32 {
	return w.sum
}

// Crc32 is the reflected IEEE CRC-32 digest (polynomial 0xEDB88320,
// initial state 0xFFFFFFFF, final xor 0xFFFFFFFF).
type Crc32 struct {
	state uint32
}

// NewCrc32 creates a new CRC-32 digest.
func NewCrc32() *Crc32 {
	return &Crc32{}
}

func (c *Crc32) Push(data []byte) {
	c.state = crc32.Update(c.state, crc32.IEEETable, data)
}

func (c *Crc32) Finish() uint32 {
	return c.state
}

// New creates a digest for the given checksum kind.
//
// ChecksumNone returns a weak digest whose result is discarded by callers;
// this keeps the codec pipelines free of nil checks.
func New(kind format.ChecksumType) Checksum {
	if kind == format.ChecksumCrc32 {
		return NewCrc32()
	}

	return NewWeak()
}
