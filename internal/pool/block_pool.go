// Package pool provides pooled block buffers for the codec and copy loops.
//
// Every read/write pipeline in bpx moves data in fixed-size blocks (8KiB for
// input and plain copies, 16KiB for zlib and xz inflate output). Pooling
// these blocks keeps the hot save/load paths allocation-free after warmup.
package pool

import "sync"

const (
	// BlockSize is the size of the input and copy blocks.
	BlockSize = 8192
	// InflateBlockSize is the size of the inflate-output blocks.
	InflateBlockSize = BlockSize * 2
)

var (
	blockPool = sync.Pool{
		New: func() any {
			b := make([]byte, BlockSize)
			return &b
		},
	}
	inflateBlockPool = sync.Pool{
		New: func() any {
			b := make([]byte, InflateBlockSize)
			return &b
		},
	}
)

// GetBlock retrieves an 8KiB block from the pool.
//
// The caller must call the returned cleanup function (typically with defer)
// to return the block to the pool.
func GetBlock() ([]byte, func()) {
	ptr, _ := blockPool.Get().(*[]byte)
	return *ptr, func() { blockPool.Put(ptr) }
}

// GetInflateBlock retrieves a 16KiB block from the pool.
//
// The caller must call the returned cleanup function (typically with defer)
// to return the block to the pool.
func GetInflateBlock() ([]byte, func()) {
	ptr, _ := inflateBlockPool.Get().(*[]byte)
	return *ptr, func() { inflateBlockPool.Put(ptr) }
}
