// Package bpxs implements the BPX Shader Pack variant (type byte 'S'):
// shader bytecode blobs with a typed symbol table, a string section and an
// optional extended-data section of structured-data objects.
package bpxs

import (
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"

	"github.com/arloliu/bpx/endian"
	"github.com/arloliu/bpx/errs"
	"github.com/arloliu/bpx/internal/iobits"
)

// Symbol flag bits. Stage and provenance bits are independent and may
// combine.
const (
	FlagVertexStage   uint16 = 0x1
	FlagHullStage     uint16 = 0x2
	FlagDomainStage   uint16 = 0x4
	FlagGeometryStage uint16 = 0x8
	FlagPixelStage    uint16 = 0x10
	FlagAssembly      uint16 = 0x20
	FlagExternal      uint16 = 0x40
	FlagInternal      uint16 = 0x80
	FlagExtendedData  uint16 = 0x100
	FlagRegister      uint16 = 0x200
)

// SizeSymbol is the size in bytes of one symbol table entry.
const SizeSymbol = 12

// NoExtendedData is the extended-data address of a symbol without extended
// data.
const NoExtendedData uint32 = 0xFFFFFF

// SymbolType classifies a symbol.
type SymbolType uint8

const (
	SymbolTexture SymbolType = iota
	SymbolSampler
	SymbolConstantBuffer
	SymbolConstant
	SymbolVertexFormat
	SymbolPipeline
)

func (t SymbolType) String() string {
	switch t {
	case SymbolTexture:
		return "texture"
	case SymbolSampler:
		return "sampler"
	case SymbolConstantBuffer:
		return "constant buffer"
	case SymbolConstant:
		return "constant"
	case SymbolVertexFormat:
		return "vertex format"
	case SymbolPipeline:
		return "pipeline"
	default:
		return "unknown"
	}
}

func symbolTypeFromCode(code uint8) (SymbolType, error) {
	if code > uint8(SymbolPipeline) {
		return 0, fmt.Errorf("symbol type code 0x%X: %w", code, errs.ErrInvalidCode)
	}

	return SymbolType(code), nil
}

// Symbol is one 12-byte symbol table entry.
type Symbol struct {
	// Name is the string address of the symbol name.
	Name uint32
	// ExtendedData is the byte offset of the symbol's structured data
	// inside the extended-data section, or NoExtendedData.
	ExtendedData uint32
	// Flags holds the Flag* bits.
	Flags uint16
	// Type classifies the symbol.
	Type SymbolType
	// Register is the register number, meaningful when FlagRegister is
	// set.
	Register uint8
}

// Parse parses the symbol from a byte slice of exactly SizeSymbol bytes.
func (s *Symbol) Parse(data []byte) error {
	if len(data) != SizeSymbol {
		return fmt.Errorf("symbol requires %d bytes, got %d: %w", SizeSymbol, len(data), errs.ErrTruncated)
	}

	engine := endian.GetLittleEndianEngine()

	s.Name = engine.Uint32(data[0:4])
	s.ExtendedData = engine.Uint32(data[4:8])
	s.Flags = engine.Uint16(data[8:10])
	ty, err := symbolTypeFromCode(data[10])
	if err != nil {
		return err
	}
	s.Type = ty
	s.Register = data[11]

	return nil
}

// Bytes serializes the symbol into a byte slice.
func (s *Symbol) Bytes() []byte {
	b := make([]byte, SizeSymbol)

	engine := endian.GetLittleEndianEngine()

	engine.PutUint32(b[0:4], s.Name)
	engine.PutUint32(b[4:8], s.ExtendedData)
	engine.PutUint16(b[8:10], s.Flags)
	b[10] = uint8(s.Type)
	b[11] = s.Register

	return b
}

// Write serializes the symbol to w.
func (s *Symbol) Write(w io.Writer) error {
	_, err := w.Write(s.Bytes())
	return err
}

// ReadSymbol reads and parses one symbol from r.
func ReadSymbol(r io.Reader) (Symbol, error) {
	var buf [SizeSymbol]byte
	n, err := iobits.ReadFill(r, buf[:])
	if err != nil {
		return Symbol{}, err
	}
	if n != SizeSymbol {
		return Symbol{}, fmt.Errorf("symbol requires %d bytes, got %d: %w", SizeSymbol, n, errs.ErrTruncated)
	}

	var s Symbol
	err = s.Parse(buf[:])

	return s, err
}

// AssemblyHash computes the 64-bit hash identifying a shader assembly by
// name, stored in the main header's extended type block.
func AssemblyHash(name string) uint64 {
	return xxhash.Sum64String(name)
}
