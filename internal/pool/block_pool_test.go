package pool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetBlock(t *testing.T) {
	block, cleanup := GetBlock()
	defer cleanup()

	require.Len(t, block, BlockSize)
}

func TestGetInflateBlock(t *testing.T) {
	block, cleanup := GetInflateBlock()
	defer cleanup()

	require.Len(t, block, InflateBlockSize)
}

func TestBlockReuse(t *testing.T) {
	block, cleanup := GetBlock()
	block[0] = 0xAB
	cleanup()

	// A reused block keeps its capacity; contents are unspecified.
	block2, cleanup2 := GetBlock()
	defer cleanup2()
	require.Len(t, block2, BlockSize)
}
