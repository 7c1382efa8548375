package compress

import (
	"fmt"
	"io"

	"github.com/arloliu/bpx/checksum"
	"github.com/arloliu/bpx/errs"
	"github.com/arloliu/bpx/internal/iobits"
	"github.com/arloliu/bpx/internal/pool"
)

// NoopCodec copies section data verbatim while still feeding the checksum.
// On disk, the compressed and uncompressed sizes of such sections are equal.
type NoopCodec struct{}

func (NoopCodec) Deflate(dst io.Writer, src io.Reader, size int, chk checksum.Checksum) (int, error) {
	block, release := pool.GetBlock()
	defer release()

	count := 0
	for count < size {
		want := min(len(block), size-count)
		n, err := iobits.ReadFill(src, block[:want])
		if err != nil {
			return count, err
		}
		if n == 0 {
			return count, fmt.Errorf("section data ended %d bytes early: %w", size-count, errs.ErrTruncated)
		}
		if _, err := dst.Write(block[:n]); err != nil {
			return count, err
		}
		chk.Push(block[:n])
		count += n
	}

	return count, nil
}

func (NoopCodec) Inflate(dst io.Writer, src io.Reader, csize int, chk checksum.Checksum) error {
	block, release := pool.GetBlock()
	defer release()

	count := 0
	for count < csize {
		want := min(len(block), csize-count)
		n, err := iobits.ReadFill(src, block[:want])
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("section data ended %d bytes early: %w", csize-count, errs.ErrTruncated)
		}
		if _, err := dst.Write(block[:n]); err != nil {
			return err
		}
		chk.Push(block[:n])
		count += n
	}

	return nil
}
