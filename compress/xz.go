package compress

import (
	"errors"
	"fmt"
	"io"

	"github.com/ulikunitz/xz"

	"github.com/arloliu/bpx/checksum"
	"github.com/arloliu/bpx/errs"
	"github.com/arloliu/bpx/internal/iobits"
	"github.com/arloliu/bpx/internal/pool"
)

// XzCodec compresses section data with the xz (LZMA2) stream format.
//
// The encoder is single-stream; the pure Go xz implementation has no
// multi-threaded mode, so large sections simply take longer to deflate.
type XzCodec struct{}

func (XzCodec) Deflate(dst io.Writer, src io.Reader, size int, chk checksum.Checksum) (int, error) {
	counter := &countingWriter{w: dst}
	xw, err := xz.NewWriter(counter)
	if err != nil {
		return 0, fmt.Errorf("xz deflate failed: %w", err)
	}

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
		if _, err := xw.Write(block[:n]); err != nil {
			return counter.n, fmt.Errorf("xz deflate failed: %w", err)
		}
		count += n
	}
	if err := xw.Close(); err != nil {
		return counter.n, fmt.Errorf("xz deflate failed: %w", err)
	}

	return counter.n, nil
}

func (XzCodec) Inflate(dst io.Writer, src io.Reader, csize int, chk checksum.Checksum) error {
	xr, err := xz.NewReader(io.LimitReader(src, int64(csize)))
	if err != nil {
		return fmt.Errorf("xz inflate failed: %w", err)
	}

	block, release := pool.GetInflateBlock()
	defer release()

	for {
		n, err := xr.Read(block)
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
			return fmt.Errorf("xz inflate failed: %w", err)
		}
	}
}
