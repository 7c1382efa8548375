package section

import (
	"io"
	"os"
)

const readAheadSize = 8192

// readAhead is the small look-ahead buffer in front of the temp file. It
// keeps byte-at-a-time readers (string scans) from hitting the OS on every
// call. Any write or seek invalidates it.
type readAhead struct {
	buf    [readAheadSize]byte
	length int
	cursor int
}

// read drains the buffer into p, calling fill to refetch a block from the
// underlying file whenever the buffer runs dry.
func (b *readAhead) read(p []byte, fill func([]byte) (int, error)) (int, error) {
	count := 0
	for count < len(p) {
		if b.cursor >= b.length {
			b.cursor = 0
			n, err := fill(b.buf[:])
			if err != nil {
				return count, err
			}
			b.length = n
		}
		if b.cursor >= b.length {
			break
		}
		n := copy(p[count:], b.buf[b.cursor:b.length])
		b.cursor += n
		count += n
	}

	return count, nil
}

func (b *readAhead) invalidate() {
	b.cursor = 0
	b.length = 0
}

// pending is the number of buffered bytes not yet handed to the caller;
// the logical cursor sits this many bytes behind the file position.
func (b *readAhead) pending() int64 {
	return int64(b.length - b.cursor)
}

// fileData is the temp-file section backend. The logical cursor is
// maintained separately from the file position because the read-ahead
// buffer reads ahead of the caller.
type fileData struct {
	file    *os.File
	buffer  readAhead
	filePos int64
	size    int
}

// newFileData creates a file-backed section over an unlinked temp file.
func newFileData() (*fileData, error) {
	f, err := os.CreateTemp("", "bpx-section-*")
	if err != nil {
		return nil, err
	}
	// Unlink immediately so the data vanishes with the last descriptor.
	name := f.Name()
	if err := os.Remove(name); err != nil {
		f.Close()
		return nil, err
	}

	return &fileData{file: f}, nil
}

func (f *fileData) Read(p []byte) (int, error) {
	n, err := f.buffer.read(p, func(block []byte) (int, error) {
		remaining := int64(f.size) - f.filePos
		if remaining <= 0 {
			return 0, nil
		}
		if int64(len(block)) > remaining {
			block = block[:remaining]
		}
		n, err := f.file.Read(block)
		if err != nil && err != io.EOF {
			return n, err
		}
		f.filePos += int64(n)

		return n, nil
	})
	if err != nil {
		return n, err
	}
	if n == 0 && len(p) > 0 {
		return 0, io.EOF
	}

	return n, nil
}

func (f *fileData) Write(p []byte) (int, error) {
	pos := f.position()
	if _, err := f.file.Seek(pos, io.SeekStart); err != nil {
		return 0, err
	}
	n, err := f.file.Write(p)
	f.filePos = pos + int64(n)
	if int(f.filePos) > f.size {
		f.size = int(f.filePos)
	}
	f.buffer.invalidate()

	return n, err
}

func (f *fileData) Seek(offset int64, whence int) (int64, error) {
	abs, err := resolveSeek(offset, whence, f.position(), int64(f.size))
	if err != nil {
		return 0, err
	}
	if _, err := f.file.Seek(abs, io.SeekStart); err != nil {
		return 0, err
	}
	f.filePos = abs
	f.buffer.invalidate()

	return abs, nil
}

// position returns the logical cursor: the file position minus whatever the
// read-ahead buffer is still holding.
func (f *fileData) position() int64 {
	return f.filePos - f.buffer.pending()
}

func (f *fileData) Size() int {
	return f.size
}

func (f *fileData) Truncate(n int) (int, error) {
	pos := f.position()
	f.size -= min(f.size, n)
	if pos > int64(f.size) {
		pos = int64(f.size)
	}
	// Drop any read-ahead bytes past the new end and realign the file
	// position with the logical cursor.
	if _, err := f.file.Seek(pos, io.SeekStart); err != nil {
		return f.size, err
	}
	f.filePos = pos
	f.buffer.invalidate()

	return f.size, nil
}

func (f *fileData) Flush() error {
	return f.file.Sync()
}

func (f *fileData) Close() error {
	return f.file.Close()
}
