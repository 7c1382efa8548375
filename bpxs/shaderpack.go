package bpxs

import (
	"fmt"
	"io"

	"github.com/arloliu/bpx/container"
	"github.com/arloliu/bpx/endian"
	"github.com/arloliu/bpx/errs"
	"github.com/arloliu/bpx/format"
	"github.com/arloliu/bpx/sd"
	"github.com/arloliu/bpx/strtab"
)

// ShaderPack is a BPXS container: shader bytecode sections plus a typed
// symbol table with optional per-symbol structured data.
type ShaderPack struct {
	container   *container.Container
	settings    Settings
	strings     *strtab.StringSection
	symbolTable container.Handle
	symbols     *SymbolTable
	shaders     *ShaderTable
	maxDepth    int
}

func typeExtOf(settings Settings) [16]byte {
	var typeExt [16]byte
	endian.GetLittleEndianEngine().PutUint64(typeExt[0:8], settings.AssemblyHash)
	typeExt[10] = uint8(settings.Target)
	typeExt[11] = uint8(settings.Type)

	return typeExt
}

// Create builds a new shader pack over the given backend with its standard
// sections: the string section and the symbol table.
func Create(backend container.Backend, opts ...Option) (*ShaderPack, error) {
	cfg, err := newShaderConfig(opts...)
	if err != nil {
		return nil, err
	}

	containerOpts := append([]container.Option{
		container.WithType(format.TypeShaderPack),
		container.WithTypeExt(typeExtOf(cfg.settings)),
	}, cfg.containerOpts...)
	c, err := container.Create(backend, containerOpts...)
	if err != nil {
		return nil, err
	}

	stringSection := c.Sections().Create(
		container.WithSectionType(format.SectionTypeStrings),
		container.WithCompression(format.CompressionZlib),
		container.WithChecksum(format.ChecksumWeak),
	)
	symbolTable := c.Sections().Create(
		container.WithSectionType(format.SectionTypeSymbolTable),
		container.WithCompression(format.CompressionZlib),
		container.WithChecksum(format.ChecksumWeak),
	)
	strings := strtab.New(stringSection)

	pack := &ShaderPack{
		container:   c,
		settings:    cfg.settings,
		strings:     strings,
		symbolTable: symbolTable,
		maxDepth:    cfg.maxDepth,
	}
	pack.symbols = &SymbolTable{
		container: c,
		strings:   strings,
		extCache:  make(map[uint32]*sd.Object),
		maxDepth:  cfg.maxDepth,
	}
	pack.shaders = &ShaderTable{container: c}

	return pack, nil
}

// Open loads an existing shader pack, validating the variant discriminator
// and the target and type codes.
func Open(backend container.Backend, opts ...Option) (*ShaderPack, error) {
	cfg, err := newShaderConfig(opts...)
	if err != nil {
		return nil, err
	}

	c, err := container.Open(backend, cfg.containerOpts...)
	if err != nil {
		return nil, err
	}

	header := c.MainHeader()
	if header.Type != format.TypeShaderPack {
		return nil, fmt.Errorf("expected type %q, got %q: %w", format.TypeShaderPack, header.Type, errs.ErrBadType)
	}
	if header.Version != format.CurrentVersion {
		return nil, fmt.Errorf("%w: %d", errs.ErrBadVersion, header.Version)
	}

	target, err := targetFromCode(header.TypeExt[10])
	if err != nil {
		return nil, err
	}
	ty, err := typeFromCode(header.TypeExt[11])
	if err != nil {
		return nil, err
	}

	stringSection, ok := c.Sections().FindByType(format.SectionTypeStrings)
	if !ok {
		return nil, fmt.Errorf("%w: strings", errs.ErrMissingSection)
	}
	symbolTable, ok := c.Sections().FindByType(format.SectionTypeSymbolTable)
	if !ok {
		return nil, fmt.Errorf("%w: symbol table", errs.ErrMissingSection)
	}

	strings := strtab.New(stringSection)
	pack := &ShaderPack{
		container: c,
		settings: Settings{
			Target:       target,
			Type:         ty,
			AssemblyHash: endian.GetLittleEndianEngine().Uint64(header.TypeExt[0:8]),
		},
		strings:     strings,
		symbolTable: symbolTable,
		maxDepth:    cfg.maxDepth,
	}
	pack.shaders = &ShaderTable{container: c}

	return pack, nil
}

// Settings returns the shader pack settings read from the main header.
func (p *ShaderPack) Settings() Settings {
	return p.settings
}

// SetSettings replaces the target, type and assembly hash recorded in the
// main header. The symbol count bytes are owned by the symbol table and
// left untouched.
func (p *ShaderPack) SetSettings(settings Settings) {
	p.settings = settings

	header := p.container.MainHeader()
	endian.GetLittleEndianEngine().PutUint64(header.TypeExt[0:8], settings.AssemblyHash)
	header.TypeExt[10] = uint8(settings.Target)
	header.TypeExt[11] = uint8(settings.Type)
	p.container.SetMainHeader(header)
}

// SymbolCount returns the symbol count recorded in the main header.
func (p *ShaderPack) SymbolCount() uint16 {
	header := p.container.MainHeader()
	return endian.GetLittleEndianEngine().Uint16(header.TypeExt[8:10])
}

// Container returns the underlying BPX container.
func (p *ShaderPack) Container() *container.Container {
	return p.container
}

// Shaders returns the shader table.
func (p *ShaderPack) Shaders() *ShaderTable {
	return p.shaders
}

// Symbols returns the symbol table, reading it from the container on first
// access.
func (p *ShaderPack) Symbols() (*SymbolTable, error) {
	if p.symbols != nil {
		return p.symbols, nil
	}

	guard, err := p.container.Sections().Load(p.symbolTable)
	if err != nil {
		return nil, err
	}
	defer guard.Close()

	if _, err := guard.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	count := guard.Size() / SizeSymbol
	symbols := make([]Symbol, 0, count)
	for range count {
		sym, err := ReadSymbol(guard)
		if err != nil {
			return nil, err
		}
		symbols = append(symbols, sym)
	}

	p.symbols = &SymbolTable{
		container: p.container,
		strings:   p.strings,
		symbols:   symbols,
		extCache:  make(map[uint32]*sd.Object),
		maxDepth:  p.maxDepth,
	}

	return p.symbols, nil
}

// flushSymbolTable rewrites the symbol table section from offset 0 and
// chops leftovers from removed symbols.
func (p *ShaderPack) flushSymbolTable() error {
	if p.symbols == nil {
		return nil
	}

	guard, err := p.container.Sections().Open(p.symbolTable)
	if err != nil {
		return err
	}
	defer guard.Close()

	if _, err := guard.Seek(0, io.SeekStart); err != nil {
		return err
	}
	for _, sym := range p.symbols.symbols {
		if err := sym.Write(guard); err != nil {
			return err
		}
	}
	want := len(p.symbols.symbols) * SizeSymbol
	if guard.Size() > want {
		if _, err := guard.Truncate(guard.Size() - want); err != nil {
			return err
		}
	}

	return nil
}

// Save rewrites the symbol table section and persists the container.
func (p *ShaderPack) Save() error {
	if err := p.flushSymbolTable(); err != nil {
		return err
	}

	return p.container.Save()
}

// LoadAndSave loads every section before saving when the save needs a full
// rewrite; use it on packs opened read/write.
func (p *ShaderPack) LoadAndSave() error {
	if err := p.flushSymbolTable(); err != nil {
		return err
	}

	return p.container.LoadAndSave()
}

// Close releases the loaded section storage of the underlying container.
func (p *ShaderPack) Close() error {
	return p.container.Close()
}
