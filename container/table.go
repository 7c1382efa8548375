package container

import (
	"fmt"
	"io"

	"github.com/arloliu/bpx/errs"
	"github.com/arloliu/bpx/format"
	"github.com/arloliu/bpx/internal/options"
	"github.com/arloliu/bpx/section"
)

// Handle is a stable identifier for a section within a container's
// lifetime. Handles are ordered container-wide, so iterating them yields
// sections in insertion order, which is also their on-disk order.
type Handle uint32

// sectionEntry is the in-memory state of one section: the effective on-disk
// header, the optionally loaded storage, the caller-requested flags and
// threshold captured at creation, a dirty flag and the current ordinal.
type sectionEntry struct {
	header    section.Header
	data      *section.AutoSectionData
	modified  bool
	inUse     bool
	index     uint32
	flags     uint8
	threshold uint32
}

// effectiveFlags combines the requested flags with the current size: the
// checksum bit is always carried, the compression bit only when the size
// strictly exceeds the section's threshold.
func (e *sectionEntry) effectiveFlags(size uint32) uint8 {
	var flags uint8
	if e.flags&format.FlagCheckWeak != 0 {
		flags |= format.FlagCheckWeak
	} else if e.flags&format.FlagCheckCrc32 != 0 {
		flags |= format.FlagCheckCrc32
	}
	if e.flags&format.FlagCompressXz != 0 && size > e.threshold {
		flags |= format.FlagCompressXz
	} else if e.flags&format.FlagCompressZlib != 0 && size > e.threshold {
		flags |= format.FlagCompressZlib
	}

	return flags
}

// expanded reports whether the loaded data no longer matches the on-disk
// uncompressed size.
func (e *sectionEntry) expanded() bool {
	return e.data != nil && e.data.Size() != int(e.header.Size)
}

// SectionTable is the indexed collection of a container's sections.
type SectionTable struct {
	backend              Backend
	sections             map[Handle]*sectionEntry
	order                []Handle
	modified             bool
	nextHandle           Handle
	skipChecksum         bool
	memoryThreshold      uint32
	compressionThreshold uint32
}

func (t *SectionTable) entry(handle Handle) *sectionEntry {
	entry, ok := t.sections[handle]
	if !ok {
		panic(fmt.Sprintf("invalid section handle %d", handle))
	}

	return entry
}

// Create adds a new section and returns its handle. The section starts
// loaded with empty storage and appears after every existing section on the
// next save.
func (t *SectionTable) Create(opts ...SectionOption) Handle {
	cfg := &SectionConfig{Threshold: t.compressionThreshold}
	// Section options cannot fail; Apply keeps the signature uniform.
	_ = options.Apply(cfg, opts...)

	t.modified = true
	handle := t.nextHandle
	t.nextHandle++

	t.sections[handle] = &sectionEntry{
		header: section.Header{
			Type:  cfg.Type,
			Flags: format.Flags(cfg.Compression, cfg.Checksum),
		},
		data:      section.NewAutoSectionData(t.memoryThreshold),
		index:     uint32(len(t.order)),
		flags:     format.Flags(cfg.Compression, cfg.Checksum),
		threshold: cfg.Threshold,
	}
	t.order = append(t.order, handle)

	return handle
}

// Remove deletes a section. Every later section's ordinal decreases by one
// and the next save regenerates the container.
func (t *SectionTable) Remove(handle Handle) {
	entry := t.entry(handle)
	if entry.data != nil {
		entry.data.Close()
	}
	delete(t.sections, handle)
	for i, h := range t.order {
		if h == handle {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	for i, h := range t.order {
		t.sections[h].index = uint32(i)
	}
	t.modified = true
}

// Open returns a guard over an already loaded section.
//
// The guard is the only mutation surface, so opening marks the section
// dirty. Opening fails with errs.ErrSectionInUse while another guard is
// active and with errs.ErrSectionNotLoaded when the data has not been
// loaded; call Load to read it from the backend first.
func (t *SectionTable) Open(handle Handle) (*Section, error) {
	entry := t.entry(handle)
	if entry.inUse {
		return nil, errs.ErrSectionInUse
	}
	if entry.data == nil {
		return nil, errs.ErrSectionNotLoaded
	}
	entry.inUse = true
	entry.modified = true

	return &Section{entry: entry}, nil
}

// Load reads, decompresses and verifies the section from the backend on
// first access, then opens it.
func (t *SectionTable) Load(handle Handle) (*Section, error) {
	entry := t.entry(handle)
	if entry.inUse {
		return nil, errs.ErrSectionInUse
	}
	if entry.data == nil {
		header := entry.header
		if t.skipChecksum {
			header.Flags &^= format.FlagCheckWeak | format.FlagCheckCrc32
		}
		data, err := loadSectionData(t.backend, &header, t.memoryThreshold)
		if err != nil {
			return nil, err
		}
		entry.data = data
	}
	entry.inUse = true
	entry.modified = true

	return &Section{entry: entry}, nil
}

// FindByType returns the first section with the given type byte.
func (t *SectionTable) FindByType(ty uint8) (Handle, bool) {
	for _, h := range t.order {
		if t.sections[h].header.Type == ty {
			return h, true
		}
	}

	return 0, false
}

// FindByIndex returns the section at the given ordinal.
func (t *SectionTable) FindByIndex(index uint32) (Handle, bool) {
	if index >= uint32(len(t.order)) {
		return 0, false
	}

	return t.order[index], true
}

// Header returns a copy of the section's current header.
func (t *SectionTable) Header(handle Handle) section.Header {
	return t.entry(handle).header
}

// Index returns the section's current ordinal.
func (t *SectionTable) Index(handle Handle) uint32 {
	return t.entry(handle).index
}

// Handles returns every section handle in ordinal order.
func (t *SectionTable) Handles() []Handle {
	handles := make([]Handle, len(t.order))
	copy(handles, t.order)

	return handles
}

// Len returns the number of sections.
func (t *SectionTable) Len() int {
	return len(t.order)
}

// IsEmpty reports whether the table contains no section.
func (t *SectionTable) IsEmpty() bool {
	return len(t.order) == 0
}

// Section is the scoped guard over a loaded section's storage. All reads
// and writes go through the section's logical cursor. Close releases the
// guard; using a closed guard panics.
type Section struct {
	entry *sectionEntry
}

func (s *Section) data() *section.AutoSectionData {
	if s.entry == nil || !s.entry.inUse {
		panic("use of closed section guard")
	}

	return s.entry.data
}

func (s *Section) Read(p []byte) (int, error) {
	return s.data().Read(p)
}

func (s *Section) Write(p []byte) (int, error) {
	return s.data().Write(p)
}

func (s *Section) Seek(offset int64, whence int) (int64, error) {
	return s.data().Seek(offset, whence)
}

// Position returns the current cursor without moving it.
func (s *Section) Position() (int64, error) {
	return s.data().Position()
}

// Size returns the current logical size of the section data.
func (s *Section) Size() int {
	return s.data().Size()
}

// Truncate removes n bytes from the end of the section and returns the new
// size.
func (s *Section) Truncate(n int) (int, error) {
	return s.data().Truncate(n)
}

// Shift moves the bytes between the cursor and the end of the section,
// preserving the cursor.
func (s *Section) Shift(dir section.ShiftDir, n uint32) error {
	return s.data().Shift(dir, n)
}

// Flush forces buffered state to the underlying storage.
func (s *Section) Flush() error {
	return s.data().Flush()
}

// Close releases the guard so the section can be opened again.
func (s *Section) Close() error {
	if s.entry == nil {
		return nil
	}
	s.entry.inUse = false
	s.entry = nil

	return nil
}

var _ io.ReadWriteSeeker = (*Section)(nil)
