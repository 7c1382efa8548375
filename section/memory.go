package section

import "io"

// memoryData is the in-memory section backend: a cursor over a growable
// byte buffer. Size tracks the high-water mark of writes rather than the
// buffer capacity.
type memoryData struct {
	buf  []byte
	pos  int64
	size int
}

func newMemoryData(capacity int) *memoryData {
	return &memoryData{buf: make([]byte, 0, capacity)}
}

func (m *memoryData) Read(p []byte) (int, error) {
	if m.pos >= int64(m.size) {
		return 0, io.EOF
	}
	n := copy(p, m.buf[m.pos:m.size])
	m.pos += int64(n)

	return n, nil
}

func (m *memoryData) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.buf)) {
		if end > int64(cap(m.buf)) {
			grown := make([]byte, end, max(end, int64(cap(m.buf))*2))
			copy(grown, m.buf)
			m.buf = grown
		} else {
			m.buf = m.buf[:end]
		}
	}
	copy(m.buf[m.pos:end], p)
	m.pos = end
	if m.pos > int64(m.size) {
		m.size = int(m.pos)
	}

	return len(p), nil
}

func (m *memoryData) Seek(offset int64, whence int) (int64, error) {
	abs, err := resolveSeek(offset, whence, m.pos, int64(m.size))
	if err != nil {
		return 0, err
	}
	m.pos = abs

	return abs, nil
}

func (m *memoryData) Size() int {
	return m.size
}

func (m *memoryData) Truncate(n int) (int, error) {
	m.size -= min(m.size, n)
	if m.pos > int64(m.size) {
		m.pos = int64(m.size)
	}

	return m.size, nil
}

func (m *memoryData) Flush() error {
	return nil
}
