package bpxs

import (
	"fmt"
	"io"

	"github.com/arloliu/bpx/container"
	"github.com/arloliu/bpx/endian"
	"github.com/arloliu/bpx/errs"
	"github.com/arloliu/bpx/format"
	"github.com/arloliu/bpx/internal/iobits"
	"github.com/arloliu/bpx/sd"
	"github.com/arloliu/bpx/strtab"
)

// SymbolOptions describes one symbol to create.
type SymbolOptions struct {
	Name         string
	Type         SymbolType
	Flags        uint16
	Register     uint8
	ExtendedData *sd.Object
}

// SymbolTable is the list of symbols of a shader pack together with the
// extended-data section storing their structured data.
type SymbolTable struct {
	container       *container.Container
	strings         *strtab.StringSection
	symbols         []Symbol
	extendedData    container.Handle
	hasExtendedData bool
	extCache        map[uint32]*sd.Object
	maxDepth        int
}

// Len returns the number of symbols.
func (t *SymbolTable) Len() int {
	return len(t.symbols)
}

// IsEmpty reports whether the pack holds no symbol.
func (t *SymbolTable) IsEmpty() bool {
	return len(t.symbols) == 0
}

// All returns the symbols in creation order.
func (t *SymbolTable) All() []Symbol {
	symbols := make([]Symbol, len(t.symbols))
	copy(symbols, t.symbols)

	return symbols
}

// Get returns the symbol at index i.
func (t *SymbolTable) Get(i int) Symbol {
	return t.symbols[i]
}

// Create adds a symbol, writing its name into the string section and its
// extended data, if any, into the extended-data section. The symbol count
// in the main header's extended type block is updated. Returns the symbol
// index.
func (t *SymbolTable) Create(opts SymbolOptions) (int, error) {
	address, err := t.strings.Put(t.container, opts.Name)
	if err != nil {
		return 0, err
	}

	flags := opts.Flags
	extendedData := NoExtendedData
	if opts.ExtendedData != nil {
		extendedData, err = t.writeExtendedData(opts.ExtendedData)
		if err != nil {
			return 0, err
		}
		flags |= FlagExtendedData
	}

	t.symbols = append(t.symbols, Symbol{
		Name:         address,
		ExtendedData: extendedData,
		Flags:        flags,
		Type:         opts.Type,
		Register:     opts.Register,
	})
	t.patchSymbolCount()

	return len(t.symbols) - 1, nil
}

// writeExtendedData appends one structured-data object at the end of the
// extended-data section, creating the section on first use, and returns
// the object's byte offset.
func (t *SymbolTable) writeExtendedData(obj *sd.Object) (uint32, error) {
	if !t.hasExtendedData {
		handle, ok := t.container.Sections().FindByType(format.SectionTypeExtendedData)
		if !ok {
			handle = t.container.Sections().Create(
				container.WithSectionType(format.SectionTypeExtendedData),
				container.WithCompression(format.CompressionZlib),
				container.WithChecksum(format.ChecksumCrc32),
			)
		}
		t.extendedData = handle
		t.hasExtendedData = true
	}

	guard, err := t.container.Sections().Load(t.extendedData)
	if err != nil {
		return 0, err
	}
	defer guard.Close()

	offset, err := guard.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if err := sd.WriteObject(guard, obj, t.maxDepth); err != nil {
		return 0, err
	}
	t.extCache[uint32(offset)] = obj

	return uint32(offset), nil
}

// patchSymbolCount updates the u16 symbol count in type_ext[8..10].
func (t *SymbolTable) patchSymbolCount() {
	header := t.container.MainHeader()
	endian.GetLittleEndianEngine().PutUint16(header.TypeExt[8:10], uint16(len(t.symbols)))
	t.container.SetMainHeader(header)
}

// Remove drops the symbol at index i. Its extended data stays in the
// extended-data section until a full rewrite reclaims it.
func (t *SymbolTable) Remove(i int) {
	t.symbols = append(t.symbols[:i], t.symbols[i+1:]...)
	t.patchSymbolCount()
}

// LoadName reads the symbol's name from the string section.
func (t *SymbolTable) LoadName(sym Symbol) (string, error) {
	if err := t.strings.Load(t.container); err != nil {
		return "", err
	}

	return t.strings.Get(t.container, sym.Name)
}

// LoadExtendedData decodes the structured data attached to the symbol.
// Symbols without the extended-data flag fail with errs.ErrMissingSection.
func (t *SymbolTable) LoadExtendedData(sym Symbol) (*sd.Object, error) {
	if sym.Flags&FlagExtendedData == 0 {
		return nil, fmt.Errorf("symbol has no extended data: %w", errs.ErrMissingSection)
	}
	if cached, ok := t.extCache[sym.ExtendedData]; ok {
		return cached, nil
	}

	if !t.hasExtendedData {
		handle, ok := t.container.Sections().FindByType(format.SectionTypeExtendedData)
		if !ok {
			return nil, fmt.Errorf("%w: extended data", errs.ErrMissingSection)
		}
		t.extendedData = handle
		t.hasExtendedData = true
	}

	guard, err := t.container.Sections().Load(t.extendedData)
	if err != nil {
		return nil, err
	}
	defer guard.Close()

	if _, err := guard.Seek(int64(sym.ExtendedData), io.SeekStart); err != nil {
		return nil, err
	}
	obj, err := sd.ReadObject(guard, t.maxDepth)
	if err != nil {
		return nil, err
	}
	t.extCache[sym.ExtendedData] = obj

	return obj, nil
}

// Find returns the first symbol with the given name.
func (t *SymbolTable) Find(name string) (Symbol, bool, error) {
	for _, sym := range t.symbols {
		candidate, err := t.LoadName(sym)
		if err != nil {
			return Symbol{}, false, err
		}
		if candidate == name {
			return sym, true, nil
		}
	}

	return Symbol{}, false, nil
}

// ShaderTable manages the shader sections of a pack: one section per
// shader, holding the stage code byte followed by the opaque bytecode.
type ShaderTable struct {
	container *container.Container
}

// Handles returns the shader section handles in ordinal order.
func (t *ShaderTable) Handles() []container.Handle {
	var handles []container.Handle
	for _, handle := range t.container.Sections().Handles() {
		if t.container.Sections().Header(handle).Type == format.SectionTypeShader {
			handles = append(handles, handle)
		}
	}

	return handles
}

// Len returns the number of shader sections.
func (t *ShaderTable) Len() int {
	return len(t.Handles())
}

// Create writes a shader into a fresh shader section and returns its
// handle.
func (t *ShaderTable) Create(shader Shader) (container.Handle, error) {
	handle := t.container.Sections().Create(
		container.WithSectionType(format.SectionTypeShader),
		container.WithCompression(format.CompressionXz),
		container.WithChecksum(format.ChecksumCrc32),
	)

	guard, err := t.container.Sections().Open(handle)
	if err != nil {
		return 0, err
	}
	defer guard.Close()

	if _, err := guard.Write([]byte{uint8(shader.Stage)}); err != nil {
		return 0, err
	}
	if _, err := guard.Write(shader.Data); err != nil {
		return 0, err
	}

	return handle, nil
}

// Load reads a shader back from its section, parsing the stage code.
func (t *ShaderTable) Load(handle container.Handle) (Shader, error) {
	guard, err := t.container.Sections().Load(handle)
	if err != nil {
		return Shader{}, err
	}
	defer guard.Close()

	if _, err := guard.Seek(0, io.SeekStart); err != nil {
		return Shader{}, err
	}

	var code [1]byte
	n, err := iobits.ReadFill(guard, code[:])
	if err != nil {
		return Shader{}, err
	}
	if n != 1 {
		return Shader{}, fmt.Errorf("shader section is empty: %w", errs.ErrTruncated)
	}
	stage, err := stageFromCode(code[0])
	if err != nil {
		return Shader{}, err
	}

	data := make([]byte, guard.Size()-1)
	if _, err := iobits.ReadFill(guard, data); err != nil {
		return Shader{}, err
	}

	return Shader{Stage: stage, Data: data}, nil
}

// Remove deletes a shader section from the container.
func (t *ShaderTable) Remove(handle container.Handle) {
	t.container.Sections().Remove(handle)
}
