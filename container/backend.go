package container

import (
	"io"

	"github.com/arloliu/bpx/errs"
)

// Backend is the IO surface a container reads from and writes to.
//
// A Container assumes exclusive ownership of its backend: no other writer
// may touch it for the lifetime of the container.
type Backend interface {
	io.Reader
	io.Writer
	io.Seeker
}

type readOnlyBackend struct {
	io.ReadSeeker
}

func (readOnlyBackend) Write([]byte) (int, error) {
	return 0, errs.ErrReadOnly
}

// ReadOnly adapts a read-only stream into a Backend whose writes fail with
// errs.ErrReadOnly. Use it to open containers from sources that cannot be
// written, such as a buffered file reader.
func ReadOnly(rs io.ReadSeeker) Backend {
	return readOnlyBackend{rs}
}
