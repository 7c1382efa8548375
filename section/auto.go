package section

import "io"

const initialBufferSize = 512

// AutoSectionData is the storage behind every loaded section.
//
// It starts as an in-memory buffer and transparently promotes itself to an
// unlinked temp file once its size reaches the memory threshold. The
// promotion copies the existing content and restores the logical cursor, so
// callers never observe the switch.
type AutoSectionData struct {
	mem             *memoryData
	file            *fileData
	memoryThreshold uint32
}

// NewAutoSectionData creates section data backed by a dynamically sized
// in-memory buffer.
func NewAutoSectionData(memoryThreshold uint32) *AutoSectionData {
	return &AutoSectionData{
		mem:             newMemoryData(initialBufferSize),
		memoryThreshold: memoryThreshold,
	}
}

// NewAutoSectionDataWithSize creates section data for a known size,
// starting directly on the file backend when size is at or above the
// memory threshold.
func NewAutoSectionDataWithSize(size, memoryThreshold uint32) (*AutoSectionData, error) {
	if size >= memoryThreshold {
		file, err := newFileData()
		if err != nil {
			return nil, err
		}

		return &AutoSectionData{file: file, memoryThreshold: memoryThreshold}, nil
	}

	return &AutoSectionData{
		mem:             newMemoryData(int(size)),
		memoryThreshold: memoryThreshold,
	}, nil
}

// inner returns the active backend.
func (a *AutoSectionData) inner() Data {
	if a.file != nil {
		return a.file
	}

	return a.mem
}

// promote moves the section from memory to a temp file, preserving content
// and cursor.
func (a *AutoSectionData) promote() error {
	file, err := newFileData()
	if err != nil {
		return err
	}
	cursor := a.mem.pos
	if _, err := a.mem.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return err
	}
	if _, err := io.Copy(file, a.mem); err != nil {
		file.Close()
		return err
	}
	if _, err := file.Seek(cursor, io.SeekStart); err != nil {
		file.Close()
		return err
	}
	a.mem = nil
	a.file = file

	return nil
}

func (a *AutoSectionData) Read(p []byte) (int, error) {
	return a.inner().Read(p)
}

func (a *AutoSectionData) Write(p []byte) (int, error) {
	n, err := a.inner().Write(p)
	if err != nil {
		return n, err
	}
	if a.file == nil && uint32(a.mem.size) >= a.memoryThreshold {
		if err := a.promote(); err != nil {
			return n, err
		}
	}

	return n, nil
}

func (a *AutoSectionData) Seek(offset int64, whence int) (int64, error) {
	return a.inner().Seek(offset, whence)
}

// Position returns the current cursor without moving it.
func (a *AutoSectionData) Position() (int64, error) {
	return a.inner().Seek(0, io.SeekCurrent)
}

func (a *AutoSectionData) Size() int {
	return a.inner().Size()
}

func (a *AutoSectionData) Truncate(n int) (int, error) {
	return a.inner().Truncate(n)
}

func (a *AutoSectionData) Flush() error {
	return a.inner().Flush()
}

// Shift moves the bytes between the cursor and the end of the section by n
// bytes in the given direction. The cursor is unchanged afterwards.
func (a *AutoSectionData) Shift(dir ShiftDir, n uint32) error {
	switch dir {
	case ShiftLeft:
		return shiftLeft(a, n)
	case ShiftRight:
		return shiftRight(a, int64(a.Size()), n)
	default:
		return errInvalidSeek
	}
}

// Clear resets the section to an empty in-memory buffer, releasing any
// temp file.
func (a *AutoSectionData) Clear() error {
	var err error
	if a.file != nil {
		err = a.file.Close()
	}
	a.file = nil
	a.mem = newMemoryData(initialBufferSize)

	return err
}

// Close releases the temp file when the section spilled to disk.
func (a *AutoSectionData) Close() error {
	if a.file != nil {
		return a.file.Close()
	}

	return nil
}
