package section

import (
	"fmt"
	"io"

	"github.com/arloliu/bpx/checksum"
	"github.com/arloliu/bpx/endian"
	"github.com/arloliu/bpx/errs"
	"github.com/arloliu/bpx/format"
	"github.com/arloliu/bpx/internal/iobits"
)

// Header is the 24-byte BPX section header.
type Header struct {
	// Pointer is the absolute file offset of the section data. Byte offset 0-7.
	Pointer uint64
	// CompressedSize is the stored size in bytes after compression.
	// Byte offset 8-11.
	CompressedSize uint32
	// Size is the size in bytes before compression. Byte offset 12-15.
	Size uint32
	// Checksum is the digest of the uncompressed section data. Byte offset 16-19.
	Checksum uint32
	// Type is the section type byte. Byte offset 20.
	Type uint8
	// Flags holds the compression and checksum flag bits. Byte offset 21.
	Flags uint8
}

// Parse parses the header from a byte slice of exactly SizeSectionHeader
// bytes.
func (h *Header) Parse(data []byte) error {
	if len(data) != SizeSectionHeader {
		return fmt.Errorf("section header requires %d bytes, got %d: %w", SizeSectionHeader, len(data), errs.ErrTruncated)
	}

	engine := endian.GetLittleEndianEngine()

	h.Pointer = engine.Uint64(data[0:8])
	h.CompressedSize = engine.Uint32(data[8:12])
	h.Size = engine.Uint32(data[12:16])
	h.Checksum = engine.Uint32(data[16:20])
	h.Type = data[20]
	h.Flags = data[21]

	return nil
}

// Bytes serializes the section header into a byte slice. The two reserved
// trailing bytes are written as zero.
func (h *Header) Bytes() []byte {
	b := make([]byte, SizeSectionHeader)

	engine := endian.GetLittleEndianEngine()

	engine.PutUint64(b[0:8], h.Pointer)
	engine.PutUint32(b[8:12], h.CompressedSize)
	engine.PutUint32(b[12:16], h.Size)
	engine.PutUint32(b[16:20], h.Checksum)
	b[20] = h.Type
	b[21] = h.Flags

	return b
}

// Write serializes the section header to w.
func (h *Header) Write(w io.Writer) error {
	_, err := w.Write(h.Bytes())
	return err
}

// PushChecksum feeds every header byte into chk.
func (h *Header) PushChecksum(chk checksum.Checksum) {
	chk.Push(h.Bytes())
}

// Compression returns the compression kind selected by the flag byte.
func (h *Header) Compression() format.CompressionType {
	return format.CompressionOf(h.Flags)
}

// ChecksumKind returns the checksum kind selected by the flag byte.
func (h *Header) ChecksumKind() format.ChecksumType {
	return format.ChecksumOf(h.Flags)
}

// IsHuge reports whether the uncompressed section exceeds 100MB.
func (h *Header) IsHuge() bool {
	return h.Size > 100000000
}

// ReadHeader reads and parses a section header from r.
func ReadHeader(r io.Reader) (Header, error) {
	var buf [SizeSectionHeader]byte
	n, err := iobits.ReadFill(r, buf[:])
	if err != nil {
		return Header{}, err
	}
	if n != SizeSectionHeader {
		return Header{}, fmt.Errorf("section header requires %d bytes, got %d: %w", SizeSectionHeader, n, errs.ErrTruncated)
	}

	var h Header
	err = h.Parse(buf[:])

	return h, err
}
