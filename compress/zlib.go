package compress

import (
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/arloliu/bpx/checksum"
	"github.com/arloliu/bpx/errs"
	"github.com/arloliu/bpx/internal/iobits"
	"github.com/arloliu/bpx/internal/pool"
)

// ZlibCodec compresses section data with the zlib (DEFLATE) stream format.
type ZlibCodec struct{}

func (ZlibCodec) Deflate(dst io.Writer, src io.Reader, size int, chk checksum.Checksum) (int, error) {
	counter := &countingWriter{w: dst}
	zw := zlib.NewWriter(counter)

	block, release := pool.GetBlock()
	defer release()

	count := 0
	for count < size {
		want := min(len(block), size-count)
		n, err := iobits.ReadFill(src, block[:want])
		if err != nil {
			return counter.n, err
		}
		if n == 0 {
			return counter.n, fmt.Errorf("section data ended %d bytes early: %w", size-count, errs.ErrTruncated)
		}
		chk.Push(block[:n])
		if _, err := zw.Write(block[:n]); err != nil {
			return counter.n, fmt.Errorf("zlib deflate failed: %w", err)
		}
		count += n
	}
	if err := zw.Close(); err != nil {
		return counter.n, fmt.Errorf("zlib deflate failed: %w", err)
	}

	return counter.n, nil
}

func (ZlibCodec) Inflate(dst io.Writer, src io.Reader, csize int, chk checksum.Checksum) error {
	zr, err := zlib.NewReader(io.LimitReader(src, int64(csize)))
	if err != nil {
		return fmt.Errorf("zlib inflate failed: %w", err)
	}
	defer zr.Close()

	block, release := pool.GetInflateBlock()
	defer release()

	for {
		n, err := zr.Read(block)
		if n > 0 {
			chk.Push(block[:n])
			if _, werr := dst.Write(block[:n]); werr != nil {
				return werr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("zlib inflate failed: %w", err)
		}
	}
}
