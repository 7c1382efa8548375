package container

import (
	"errors"
	"fmt"
	"io"

	"github.com/arloliu/bpx/checksum"
	"github.com/arloliu/bpx/errs"
	"github.com/arloliu/bpx/section"
)

// Container is the public facade over one BPX file: the main header, the
// section table and the IO backend.
type Container struct {
	table               SectionTable
	mainHeader          section.MainHeader
	mainHeaderModified  bool
	revertOnSaveFailure bool
}

// Create builds a new empty container over the given backend. Nothing is
// written until Save.
func Create(backend Backend, opts ...Option) (*Container, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	header := section.NewMainHeader()
	header.Type = cfg.Type
	header.TypeExt = cfg.TypeExt

	return &Container{
		table: SectionTable{
			backend:              backend,
			sections:             make(map[Handle]*sectionEntry),
			modified:             true,
			memoryThreshold:      cfg.MemoryThreshold,
			compressionThreshold: cfg.CompressionThreshold,
		},
		mainHeader:          header,
		mainHeaderModified:  true,
		revertOnSaveFailure: cfg.RevertOnSaveFailure,
	}, nil
}

// Open loads an existing container from the backend: the main header, then
// the section header table, verifying the header-chain checksum. Section
// bodies stay on disk until loaded through the table.
func Open(backend Backend, opts ...Option) (*Container, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	header, err := section.ReadMainHeader(backend)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrBadSignature) && cfg.SkipSignatureCheck:
			// The parsed header is still usable.
		case errors.Is(err, errs.ErrBadVersion) && cfg.SkipVersionCheck:
		default:
			return nil, err
		}
	}

	chk := checksum.NewWeak()
	header.PushChecksum(chk)

	sections, order, err := readSectionHeaderTable(backend, &header, chk, cfg)
	if err != nil {
		return nil, err
	}

	if !cfg.SkipChecksumCheck {
		if actual := chk.Finish(); actual != header.Checksum {
			return nil, fmt.Errorf("header chain digest %08x does not match stored %08x: %w",
				actual, header.Checksum, errs.ErrChecksumMismatch)
		}
	}

	return &Container{
		table: SectionTable{
			backend:              backend,
			sections:             sections,
			order:                order,
			nextHandle:           Handle(header.SectionCount),
			skipChecksum:         cfg.SkipChecksumCheck,
			memoryThreshold:      cfg.MemoryThreshold,
			compressionThreshold: cfg.CompressionThreshold,
		},
		mainHeader:          header,
		revertOnSaveFailure: cfg.RevertOnSaveFailure,
	}, nil
}

// Sections returns the section table.
func (c *Container) Sections() *SectionTable {
	return &c.table
}

// MainHeader returns a copy of the current main header.
func (c *Container) MainHeader() section.MainHeader {
	return c.mainHeader
}

// SetMainHeader replaces the main header and marks it modified. Save
// recomputes the checksum on every write; a full rewrite also resets the
// file size and section count, and patch saves adjust the file size from
// its current value. The other fields, the signature included, are written
// as given.
func (c *Container) SetMainHeader(header section.MainHeader) {
	c.mainHeader = header
	c.mainHeaderModified = true
}

// Backend returns the underlying IO backend.
//
// The container still owns it; reading or writing it directly while the
// container is live invalidates the table state.
func (c *Container) Backend() Backend {
	return c.table.backend
}

// Close releases every loaded section's storage. The backend is left
// untouched.
func (c *Container) Close() error {
	var firstErr error
	for _, entry := range c.table.sections {
		if entry.data != nil {
			if err := entry.data.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
			entry.data = nil
		}
	}

	return firstErr
}

// Save writes all pending changes to the backend, choosing the cheapest
// safe rewrite for the current modification set.
func (c *Container) Save() error {
	return c.saveWithDecision(c.saveMode())
}

// LoadAndSave loads every section before saving when a full rewrite is
// needed, enabling saves on containers opened read/write without every
// section in memory.
func (c *Container) LoadAndSave() error {
	decision := c.saveMode()
	if decision.mode == SaveModeRegenerate {
		for _, handle := range c.table.order {
			entry := c.table.sections[handle]
			if entry.data != nil {
				continue
			}
			guard, err := c.table.Load(handle)
			if err != nil {
				return err
			}
			guard.Close()
		}
	}

	return c.saveWithDecision(decision)
}

func (c *Container) saveWithDecision(decision saveDecision) error {
	if c.revertOnSaveFailure {
		return c.saveIndirect(decision)
	}

	return c.saveDirect(c.table.backend, decision)
}

// saveDirect applies the chosen mode straight to the given backend,
// escalating to a full regeneration when a patch no longer fits its slot.
func (c *Container) saveDirect(backend Backend, decision saveDecision) error {
	var err error
	switch decision.mode {
	case SaveModeRegenerate:
		err = c.saveRegenerate(backend)
	case SaveModeMainHeaderOnly:
		if !c.mainHeaderModified {
			return nil
		}
		err = c.writeMainHeader(backend)
	case SaveModePatchSingle, SaveModePatchMultiple:
		err = c.savePatch(backend, decision.dirty)
		if errors.Is(err, errPatchOverflow) {
			err = c.saveRegenerate(backend)
		}
	}
	if err != nil {
		return err
	}

	c.clearModified()

	return nil
}

// saveIndirect stages the rewrite in scratch storage seeded with the
// current backend content and commits with a single copy, so any failure
// leaves the backend byte-for-byte unchanged.
func (c *Container) saveIndirect(decision saveDecision) error {
	scratch := section.NewAutoSectionData(c.table.memoryThreshold)
	defer scratch.Close()

	backend := c.table.backend
	if _, err := backend.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := io.Copy(scratch, backend); err != nil {
		return err
	}

	if err := c.saveDirect(scratch, decision); err != nil {
		return err
	}

	if _, err := backend.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := scratch.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := io.Copy(backend, scratch); err != nil {
		return err
	}

	return nil
}

func (c *Container) clearModified() {
	c.table.modified = false
	c.mainHeaderModified = false
	for _, entry := range c.table.sections {
		entry.modified = false
	}
}
