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

// MainHeader is the 40-byte BPX main header.
type MainHeader struct {
	// Signature is the "BPX" magic. Byte offset 0-2.
	Signature [3]byte
	// Type is the variant discriminator, e.g. 'P' or 'S'. Byte offset 3.
	Type uint8
	// Checksum is the weak checksum of all headers, excluding this field
	// itself. Byte offset 4-7.
	Checksum uint32
	// FileSize is the total container size in bytes, header included.
	// Byte offset 8-15.
	FileSize uint64
	// SectionCount is the number of sections. Byte offset 16-19.
	SectionCount uint32
	// Version is the BPX format version. Byte offset 20-23.
	Version uint32
	// TypeExt is the variant-specific extended type block. Byte offset 24-39.
	TypeExt [16]byte
}

// NewMainHeader creates a main header for an empty container of the current
// version.
func NewMainHeader() MainHeader {
	return MainHeader{
		Signature: [3]byte{'B', 'P', 'X'},
		FileSize:  SizeMainHeader,
		Version:   format.CurrentVersion,
	}
}

// Parse parses the header from a byte slice of exactly SizeMainHeader bytes.
//
// Parsing is recoverable: on ErrBadSignature or ErrBadVersion the receiver
// is still fully populated, so callers that skip those checks can continue
// with the parsed value.
func (h *MainHeader) Parse(data []byte) error {
	if len(data) != SizeMainHeader {
		return fmt.Errorf("main header requires %d bytes, got %d: %w", SizeMainHeader, len(data), errs.ErrTruncated)
	}

	engine := endian.GetLittleEndianEngine()

	copy(h.Signature[:], data[0:3])
	h.Type = data[3]
	h.Checksum = engine.Uint32(data[4:8])
	h.FileSize = engine.Uint64(data[8:16])
	h.SectionCount = engine.Uint32(data[16:20])
	h.Version = engine.Uint32(data[20:24])
	copy(h.TypeExt[:], data[24:40])

	if h.Signature != [3]byte{'B', 'P', 'X'} {
		return fmt.Errorf("%w: %q", errs.ErrBadSignature, h.Signature[:])
	}
	if !format.IsKnownVersion(h.Version) {
		return fmt.Errorf("%w: %d", errs.ErrBadVersion, h.Version)
	}

	return nil
}

// Bytes serializes the main header into a byte slice.
func (h *MainHeader) Bytes() []byte {
	b := make([]byte, SizeMainHeader)

	engine := endian.GetLittleEndianEngine()

	copy(b[0:3], h.Signature[:])
	b[3] = h.Type
	engine.PutUint32(b[4:8], h.Checksum)
	engine.PutUint64(b[8:16], h.FileSize)
	engine.PutUint32(b[16:20], h.SectionCount)
	engine.PutUint32(b[20:24], h.Version)
	copy(b[24:40], h.TypeExt[:])

	return b
}

// Write serializes the main header to w.
func (h *MainHeader) Write(w io.Writer) error {
	_, err := w.Write(h.Bytes())
	return err
}

// PushChecksum feeds the header bytes into chk, excluding the checksum
// field itself (bytes 4..8).
func (h *MainHeader) PushChecksum(chk checksum.Checksum) {
	b := h.Bytes()
	chk.Push(b[:4])
	chk.Push(b[8:])
}

// ReadMainHeader reads and parses a main header from r.
//
// Like Parse, the returned header is fully populated even when the error is
// ErrBadSignature or ErrBadVersion.
func ReadMainHeader(r io.Reader) (MainHeader, error) {
	var buf [SizeMainHeader]byte
	n, err := iobits.ReadFill(r, buf[:])
	if err != nil {
		return MainHeader{}, err
	}
	if n != SizeMainHeader {
		return MainHeader{}, fmt.Errorf("main header requires %d bytes, got %d: %w", SizeMainHeader, n, errs.ErrTruncated)
	}

	var h MainHeader
	err = h.Parse(buf[:])

	return h, err
}
