package container

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/arloliu/bpx/checksum"
	"github.com/arloliu/bpx/compress"
	"github.com/arloliu/bpx/errs"
	"github.com/arloliu/bpx/format"
	"github.com/arloliu/bpx/section"
)

// errPatchOverflow signals that a patched section no longer fits its
// original slot, so the save must escalate to a full regeneration.
var errPatchOverflow = errors.New("patched section exceeds its slot")

// writeSectionData streams one section body through the codec pipeline
// selected by flags and returns the compressed size and the data digest
// (zero when no checksum bit is set).
func writeSectionData(flags uint8, data *section.AutoSectionData, out io.Writer) (int, uint32, error) {
	chk := checksum.New(format.ChecksumOf(flags))
	codec := compress.ForFlags(flags)

	csize, err := codec.Deflate(out, data, data.Size(), chk)
	if err != nil {
		return csize, 0, err
	}
	if format.ChecksumOf(flags) == format.ChecksumNone {
		return csize, 0, nil
	}

	return csize, chk.Finish(), nil
}

// rewindForWrite saves the section cursor, rewinds to 0, runs fn over the
// data and restores the cursor afterwards.
func rewindForWrite(data *section.AutoSectionData, fn func() error) error {
	cursor, err := data.Position()
	if err != nil {
		return err
	}
	if _, err := data.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return err
	}
	if _, err := data.Seek(cursor, io.SeekStart); err != nil {
		return err
	}

	return nil
}

func checkCapacity(data *section.AutoSectionData) error {
	if uint64(data.Size()) > math.MaxUint32 {
		return fmt.Errorf("%w: %d bytes", errs.ErrCapacity, data.Size())
	}

	return nil
}

// writeSections rewrites every section body and header from scratch. Bodies
// land back to back after the header block; each header is patched into its
// table slot right after its body is written. Every header byte is fed into
// chk as written.
func (c *Container) writeSections(backend Backend, chk checksum.Checksum, fileStart uint64) (uint64, error) {
	ptr := fileStart
	for i, handle := range c.table.order {
		entry := c.table.sections[handle]
		if entry.data == nil {
			return 0, errs.ErrSectionNotLoaded
		}
		if err := checkCapacity(entry.data); err != nil {
			return 0, err
		}

		flags := entry.effectiveFlags(uint32(entry.data.Size()))
		var csize int
		var sum uint32
		err := rewindForWrite(entry.data, func() error {
			var werr error
			csize, sum, werr = writeSectionData(flags, entry.data, backend)
			return werr
		})
		if err != nil {
			return 0, err
		}

		entry.header.Pointer = ptr
		entry.header.CompressedSize = uint32(csize)
		entry.header.Size = uint32(entry.data.Size())
		entry.header.Checksum = sum
		entry.header.Flags = flags
		entry.index = uint32(i)

		ptr += uint64(csize)

		// Patch the header into its slot, then return to the end of the
		// last body.
		headerOffset := int64(section.SizeMainHeader) + int64(i)*int64(section.SizeSectionHeader)
		if _, err := backend.Seek(headerOffset, io.SeekStart); err != nil {
			return 0, err
		}
		if err := entry.header.Write(backend); err != nil {
			return 0, err
		}
		if _, err := backend.Seek(int64(ptr), io.SeekStart); err != nil {
			return 0, err
		}

		entry.header.PushChecksum(chk)
	}

	return ptr, nil
}

// saveRegenerate performs the full rewrite: all bodies, all section
// headers, then the main header carrying the fresh header-chain checksum.
func (c *Container) saveRegenerate(backend Backend) error {
	c.mainHeader.SectionCount = uint32(len(c.table.order))

	fileStart := uint64(section.SizeMainHeader) + uint64(c.mainHeader.SectionCount)*uint64(section.SizeSectionHeader)
	if _, err := backend.Seek(int64(fileStart), io.SeekStart); err != nil {
		return err
	}

	chk := checksum.NewWeak()
	end, err := c.writeSections(backend, chk, fileStart)
	if err != nil {
		return err
	}

	c.mainHeader.FileSize = end
	c.mainHeader.PushChecksum(chk)
	c.mainHeader.Checksum = chk.Finish()

	if _, err := backend.Seek(0, io.SeekStart); err != nil {
		return err
	}

	return c.mainHeader.Write(backend)
}

// recomputeHeaderChecksum rebuilds the main-header weak checksum from every
// section header plus the main header itself (minus its own checksum
// field).
func (c *Container) recomputeHeaderChecksum() {
	chk := checksum.NewWeak()
	for _, handle := range c.table.order {
		c.table.sections[handle].header.PushChecksum(chk)
	}
	c.mainHeader.PushChecksum(chk)
	c.mainHeader.Checksum = chk.Finish()
}

// patchSectionBody compresses one dirty section into scratch storage,
// verifies it still fits its slot (unless it is the last section, which may
// grow or shrink freely) and copies it over the original body. It returns
// the change in compressed size.
func (c *Container) patchSectionBody(backend Backend, handle Handle) (int64, error) {
	entry := c.table.sections[handle]
	if entry.data == nil {
		return 0, errs.ErrSectionNotLoaded
	}
	if err := checkCapacity(entry.data); err != nil {
		return 0, err
	}

	last := entry.index == uint32(len(c.table.order)-1)
	flags := entry.effectiveFlags(uint32(entry.data.Size()))

	scratch := section.NewAutoSectionData(c.table.memoryThreshold)
	defer scratch.Close()

	var csize int
	var sum uint32
	err := rewindForWrite(entry.data, func() error {
		var werr error
		csize, sum, werr = writeSectionData(flags, entry.data, scratch)
		return werr
	})
	if err != nil {
		return 0, err
	}

	if !last && uint32(csize) > entry.header.CompressedSize {
		// The new body would overflow into the next section.
		return 0, errPatchOverflow
	}

	if _, err := backend.Seek(int64(entry.header.Pointer), io.SeekStart); err != nil {
		return 0, err
	}
	if _, err := scratch.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	if _, err := io.Copy(backend, scratch); err != nil {
		return 0, err
	}

	// Only the last section moves the end of the file; a non-last body
	// merely leaves slack in its slot.
	var diff int64
	if last {
		diff = int64(csize) - int64(entry.header.CompressedSize)
	}
	entry.header.CompressedSize = uint32(csize)
	entry.header.Size = uint32(entry.data.Size())
	entry.header.Checksum = sum
	entry.header.Flags = flags

	return diff, nil
}

// writeSectionHeader patches one section header into its table slot.
func (c *Container) writeSectionHeader(backend Backend, handle Handle) error {
	entry := c.table.sections[handle]
	offset := int64(section.SizeMainHeader) + int64(entry.index)*int64(section.SizeSectionHeader)
	if _, err := backend.Seek(offset, io.SeekStart); err != nil {
		return err
	}

	return entry.header.Write(backend)
}

// writeMainHeader recomputes the header-chain checksum and writes the main
// header at offset 0.
func (c *Container) writeMainHeader(backend Backend) error {
	c.recomputeHeaderChecksum()
	if _, err := backend.Seek(0, io.SeekStart); err != nil {
		return err
	}

	return c.mainHeader.Write(backend)
}

// savePatch rewrites the dirty sections in place and patches the affected
// headers. It fails with errPatchOverflow when any non-last section no
// longer fits its slot.
func (c *Container) savePatch(backend Backend, handles []Handle) error {
	var totalDiff int64
	for _, handle := range handles {
		diff, err := c.patchSectionBody(backend, handle)
		if err != nil {
			return err
		}
		totalDiff += diff
	}

	for _, handle := range handles {
		if err := c.writeSectionHeader(backend, handle); err != nil {
			return err
		}
	}

	if totalDiff < 0 {
		c.mainHeader.FileSize -= uint64(-totalDiff)
	} else {
		c.mainHeader.FileSize += uint64(totalDiff)
	}

	return c.writeMainHeader(backend)
}
