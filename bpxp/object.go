package bpxp

import (
	"fmt"
	"io"

	"github.com/arloliu/bpx/endian"
	"github.com/arloliu/bpx/errs"
	"github.com/arloliu/bpx/internal/iobits"
)

// SizeObjectHeader is the size in bytes of one object table entry.
const SizeObjectHeader = 20

// ObjectHeader locates one named object inside the package's data
// sections.
type ObjectHeader struct {
	// Size is the object length in bytes. Byte offset 0-7.
	Size uint64
	// Name is the string address of the object name. Byte offset 8-11.
	Name uint32
	// Start is the ordinal of the first data section holding the object.
	// Byte offset 12-15.
	Start uint32
	// Offset is the byte offset into the start section where the object
	// begins. Byte offset 16-19.
	Offset uint32
}

// Parse parses the header from a byte slice of exactly SizeObjectHeader
// bytes.
func (h *ObjectHeader) Parse(data []byte) error {
	if len(data) != SizeObjectHeader {
		return fmt.Errorf("object header requires %d bytes, got %d: %w", SizeObjectHeader, len(data), errs.ErrTruncated)
	}

	engine := endian.GetLittleEndianEngine()

	h.Size = engine.Uint64(data[0:8])
	h.Name = engine.Uint32(data[8:12])
	h.Start = engine.Uint32(data[12:16])
	h.Offset = engine.Uint32(data[16:20])

	return nil
}

// Bytes serializes the object header into a byte slice.
func (h *ObjectHeader) Bytes() []byte {
	b := make([]byte, SizeObjectHeader)

	engine := endian.GetLittleEndianEngine()

	engine.PutUint64(b[0:8], h.Size)
	engine.PutUint32(b[8:12], h.Name)
	engine.PutUint32(b[12:16], h.Start)
	engine.PutUint32(b[16:20], h.Offset)

	return b
}

// Write serializes the object header to w.
func (h *ObjectHeader) Write(w io.Writer) error {
	_, err := w.Write(h.Bytes())
	return err
}

// ReadObjectHeader reads and parses one object header from r.
func ReadObjectHeader(r io.Reader) (ObjectHeader, error) {
	var buf [SizeObjectHeader]byte
	n, err := iobits.ReadFill(r, buf[:])
	if err != nil {
		return ObjectHeader{}, err
	}
	if n != SizeObjectHeader {
		return ObjectHeader{}, fmt.Errorf("object header requires %d bytes, got %d: %w", SizeObjectHeader, n, errs.ErrTruncated)
	}

	var h ObjectHeader
	err = h.Parse(buf[:])

	return h, err
}
