package container

import (
	"fmt"
	"io"

	"github.com/arloliu/bpx/checksum"
	"github.com/arloliu/bpx/compress"
	"github.com/arloliu/bpx/errs"
	"github.com/arloliu/bpx/format"
	"github.com/arloliu/bpx/section"
)

// readSectionHeaderTable reads SectionCount section headers from the
// backend, feeding every header byte into chk, and builds the initial
// table entries with empty data slots.
func readSectionHeaderTable(backend Backend, mainHeader *section.MainHeader, chk checksum.Checksum, cfg *Config) (map[Handle]*sectionEntry, []Handle, error) {
	sections := make(map[Handle]*sectionEntry, mainHeader.SectionCount)
	order := make([]Handle, 0, mainHeader.SectionCount)

	for i := uint32(0); i < mainHeader.SectionCount; i++ {
		header, err := section.ReadHeader(backend)
		if err != nil {
			return nil, nil, err
		}
		header.PushChecksum(chk)

		handle := Handle(i)
		sections[handle] = &sectionEntry{
			header:    header,
			index:     i,
			flags:     header.Flags,
			threshold: cfg.CompressionThreshold,
		}
		order = append(order, handle)
	}

	return sections, order, nil
}

// loadSectionData reads one section body from the backend into fresh
// storage, decompressing and verifying it according to the header flags.
// The returned data is rewound to offset 0.
func loadSectionData(backend Backend, header *section.Header, memoryThreshold uint32) (*section.AutoSectionData, error) {
	data, err := section.NewAutoSectionDataWithSize(header.Size, memoryThreshold)
	if err != nil {
		return nil, err
	}

	if _, err := backend.Seek(int64(header.Pointer), io.SeekStart); err != nil {
		data.Close()
		return nil, err
	}

	chk := checksum.New(header.ChecksumKind())
	codec := compress.ForFlags(header.Flags)
	if err := codec.Inflate(data, backend, int(header.CompressedSize), chk); err != nil {
		data.Close()
		return nil, err
	}

	if header.ChecksumKind() != format.ChecksumNone {
		if actual := chk.Finish(); actual != header.Checksum {
			data.Close()
			return nil, fmt.Errorf("section data digest %08x does not match stored %08x: %w",
				actual, header.Checksum, errs.ErrChecksumMismatch)
		}
	}

	if _, err := data.Seek(0, io.SeekStart); err != nil {
		data.Close()
		return nil, err
	}

	return data, nil
}
