package bpxp

import (
	"io"

	"github.com/arloliu/bpx/container"
	"github.com/arloliu/bpx/format"
	"github.com/arloliu/bpx/internal/iobits"
	"github.com/arloliu/bpx/internal/pool"
	"github.com/arloliu/bpx/strtab"
)

const (
	// minRemainingSize keeps at least one write buffer of headroom below
	// the data-section cap, so a block write never lands exactly on it.
	minRemainingSize = pool.BlockSize

	// maxDataSectionSize is the hard cap of one data section; an object
	// crossing it continues in the next data section. The cap stays far
	// below the 4GiB section limit so compressed sections never approach
	// it either.
	maxDataSectionSize = 200000000 - minRemainingSize
)

func dataSectionOptions() []container.SectionOption {
	return []container.SectionOption{
		container.WithSectionType(format.SectionTypeData),
		container.WithCompression(format.CompressionXz),
		container.WithChecksum(format.ChecksumCrc32),
	}
}

// ObjectTable is the list of objects in a package and the packer that
// writes their bytes into data sections.
type ObjectTable struct {
	container       *container.Container
	strings         *strtab.StringSection
	headers         []ObjectHeader
	lastDataSection container.Handle
	hasDataSection  bool
}

// Len returns the number of objects.
func (t *ObjectTable) Len() int {
	return len(t.headers)
}

// IsEmpty reports whether the package holds no object.
func (t *ObjectTable) IsEmpty() bool {
	return len(t.headers) == 0
}

// All returns the object headers in creation order.
func (t *ObjectTable) All() []ObjectHeader {
	headers := make([]ObjectHeader, len(t.headers))
	copy(headers, t.headers)

	return headers
}

// Get returns the object header at index i.
func (t *ObjectTable) Get(i int) ObjectHeader {
	return t.headers[i]
}

// Create packs a new named object from source into the data sections and
// returns its index. Objects are written end-to-end; when the current data
// section would grow past the cap, packing continues transparently in a
// fresh data section.
func (t *ObjectTable) Create(name string, source io.Reader) (int, error) {
	if !t.hasDataSection {
		t.lastDataSection = t.container.Sections().Create(dataSectionOptions()...)
		t.hasDataSection = true
	}
	dataSection := t.lastDataSection

	start := t.container.Sections().Index(dataSection)
	offset, err := t.sectionSize(dataSection)
	if err != nil {
		return 0, err
	}

	var objectSize uint64
	for {
		count, needSection, err := t.writeObjectChunk(source, dataSection)
		if err != nil {
			return 0, err
		}
		objectSize += uint64(count)
		if !needSection {
			break
		}
		dataSection = t.container.Sections().Create(dataSectionOptions()...)
	}

	address, err := t.strings.Put(t.container, name)
	if err != nil {
		return 0, err
	}
	t.headers = append(t.headers, ObjectHeader{
		Size:   objectSize,
		Name:   address,
		Start:  start,
		Offset: uint32(offset),
	})

	// Keep filling the final section unless this object topped it off.
	final, err := t.sectionSize(dataSection)
	if err != nil {
		return 0, err
	}
	if final > maxDataSectionSize {
		t.hasDataSection = false
	} else {
		t.lastDataSection = dataSection
		t.hasDataSection = true
	}

	return len(t.headers) - 1, nil
}

func (t *ObjectTable) sectionSize(handle container.Handle) (int, error) {
	guard, err := t.container.Sections().Open(handle)
	if err != nil {
		return 0, err
	}
	defer guard.Close()

	return guard.Size(), nil
}

// writeObjectChunk copies source into the data section until the source is
// exhausted or the section reaches its cap. It reports how many bytes were
// written and whether the object needs another section to continue.
func (t *ObjectTable) writeObjectChunk(source io.Reader, handle container.Handle) (int, bool, error) {
	guard, err := t.container.Sections().Open(handle)
	if err != nil {
		return 0, false, err
	}
	defer guard.Close()

	if _, err := guard.Seek(0, io.SeekEnd); err != nil {
		return 0, false, err
	}

	buf, release := pool.GetBlock()
	defer release()

	count := 0
	for {
		n, err := iobits.ReadFill(source, buf)
		if err != nil {
			return count, false, err
		}
		if n == 0 {
			return count, false, nil
		}
		if _, err := guard.Write(buf[:n]); err != nil {
			return count, false, err
		}
		count += n
		if guard.Size() >= maxDataSectionSize {
			// Split here to keep far away from the 4GiB section limit.
			return count, true, nil
		}
	}
}

// Remove drops the object at index i from the table. The object's bytes
// stay in their data sections until the next full rewrite reclaims them.
func (t *ObjectTable) Remove(i int) {
	t.headers = append(t.headers[:i], t.headers[i+1:]...)
}

// Load streams the object's bytes into out, walking data sections by
// ordinal from the recorded start and crossing section boundaries as
// needed. It returns the number of bytes written.
func (t *ObjectTable) Load(header ObjectHeader, out io.Writer) (uint64, error) {
	sectionIndex := header.Start
	offset := header.Offset
	remaining := header.Size

	for remaining > 0 {
		handle, ok := t.container.Sections().FindByIndex(sectionIndex)
		if !ok {
			break
		}
		n, err := t.loadFromSection(handle, offset, remaining, out)
		if err != nil {
			return header.Size - remaining, err
		}
		remaining -= n
		offset = 0
		sectionIndex++
	}

	return header.Size - remaining, nil
}

func (t *ObjectTable) loadFromSection(handle container.Handle, offset uint32, limit uint64, out io.Writer) (uint64, error) {
	guard, err := t.container.Sections().Load(handle)
	if err != nil {
		return 0, err
	}
	defer guard.Close()

	available := uint64(guard.Size()) - uint64(offset)
	want := min(available, limit)

	if _, err := guard.Seek(int64(offset), io.SeekStart); err != nil {
		return 0, err
	}

	buf, release := pool.GetBlock()
	defer release()

	var copied uint64
	for copied < want {
		step := min(uint64(len(buf)), want-copied)
		n, err := iobits.ReadFill(guard, buf[:step])
		if err != nil {
			return copied, err
		}
		if n == 0 {
			break
		}
		if _, err := out.Write(buf[:n]); err != nil {
			return copied, err
		}
		copied += uint64(n)
	}

	return copied, nil
}

// LoadName reads the object's name from the string section.
func (t *ObjectTable) LoadName(header ObjectHeader) (string, error) {
	if err := t.strings.Load(t.container); err != nil {
		return "", err
	}

	return t.strings.Get(t.container, header.Name)
}

// Find returns the first object with the given name.
func (t *ObjectTable) Find(name string) (ObjectHeader, bool, error) {
	for _, header := range t.headers {
		candidate, err := t.LoadName(header)
		if err != nil {
			return ObjectHeader{}, false, err
		}
		if candidate == name {
			return header, true, nil
		}
	}

	return ObjectHeader{}, false, nil
}
