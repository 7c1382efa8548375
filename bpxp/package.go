package bpxp

import (
	"fmt"
	"io"

	"github.com/arloliu/bpx/container"
	"github.com/arloliu/bpx/errs"
	"github.com/arloliu/bpx/format"
	"github.com/arloliu/bpx/sd"
	"github.com/arloliu/bpx/strtab"
)

// Package is a BPXP container: named byte objects packed into data
// sections, addressed by an object table and a string section.
type Package struct {
	container   *container.Container
	settings    Settings
	strings     *strtab.StringSection
	objectTable container.Handle
	objects     *ObjectTable
	maxDepth    int
}

// Create builds a new package over the given backend with its standard
// sections: the object table, the string section and, when metadata is
// configured, a structured-data section.
func Create(backend container.Backend, opts ...Option) (*Package, error) {
	cfg, err := newPackageConfig(opts...)
	if err != nil {
		return nil, err
	}

	var typeExt [16]byte
	typeExt[0] = uint8(cfg.settings.Architecture)
	typeExt[1] = uint8(cfg.settings.Platform)
	typeExt[2] = cfg.settings.TypeCode[0]
	typeExt[3] = cfg.settings.TypeCode[1]

	containerOpts := append([]container.Option{
		container.WithType(format.TypePackage),
		container.WithTypeExt(typeExt),
	}, cfg.containerOpts...)
	c, err := container.Create(backend, containerOpts...)
	if err != nil {
		return nil, err
	}

	objectTable := c.Sections().Create(
		container.WithSectionType(format.SectionTypeObjectTable),
		container.WithCompression(format.CompressionZlib),
		container.WithChecksum(format.ChecksumWeak),
	)
	stringSection := c.Sections().Create(
		container.WithSectionType(format.SectionTypeStrings),
		container.WithCompression(format.CompressionZlib),
		container.WithChecksum(format.ChecksumWeak),
	)
	strings := strtab.New(stringSection)

	if cfg.settings.Metadata != nil {
		metadataSection := c.Sections().Create(
			container.WithSectionType(format.SectionTypeStructuredData),
			container.WithCompression(format.CompressionZlib),
			container.WithChecksum(format.ChecksumWeak),
		)
		guard, err := c.Sections().Open(metadataSection)
		if err != nil {
			return nil, err
		}
		if err := sd.WriteObject(guard, cfg.settings.Metadata, cfg.maxDepth); err != nil {
			guard.Close()
			return nil, err
		}
		if err := guard.Close(); err != nil {
			return nil, err
		}
	}

	pkg := &Package{
		container:   c,
		settings:    cfg.settings,
		strings:     strings,
		objectTable: objectTable,
		maxDepth:    cfg.maxDepth,
	}
	pkg.objects = &ObjectTable{container: c, strings: strings}

	return pkg, nil
}

// Open loads an existing package, validating the variant discriminator and
// the architecture and platform codes.
func Open(backend container.Backend, opts ...Option) (*Package, error) {
	cfg, err := newPackageConfig(opts...)
	if err != nil {
		return nil, err
	}

	c, err := container.Open(backend, cfg.containerOpts...)
	if err != nil {
		return nil, err
	}

	header := c.MainHeader()
	if header.Type != format.TypePackage {
		return nil, fmt.Errorf("expected type %q, got %q: %w", format.TypePackage, header.Type, errs.ErrBadType)
	}
	if header.Version != format.CurrentVersion {
		return nil, fmt.Errorf("%w: %d", errs.ErrBadVersion, header.Version)
	}

	arch, err := architectureFromCode(header.TypeExt[0])
	if err != nil {
		return nil, err
	}
	platform, err := platformFromCode(header.TypeExt[1])
	if err != nil {
		return nil, err
	}

	stringSection, ok := c.Sections().FindByType(format.SectionTypeStrings)
	if !ok {
		return nil, fmt.Errorf("%w: strings", errs.ErrMissingSection)
	}
	objectTable, ok := c.Sections().FindByType(format.SectionTypeObjectTable)
	if !ok {
		return nil, fmt.Errorf("%w: object table", errs.ErrMissingSection)
	}

	strings := strtab.New(stringSection)
	pkg := &Package{
		container: c,
		settings: Settings{
			Architecture: arch,
			Platform:     platform,
			TypeCode:     [2]byte{header.TypeExt[2], header.TypeExt[3]},
		},
		strings:     strings,
		objectTable: objectTable,
		maxDepth:    cfg.maxDepth,
	}

	return pkg, nil
}

// Settings returns the package settings read from the main header.
func (p *Package) Settings() Settings {
	return p.settings
}

// SetSettings replaces the architecture, platform and type code recorded in
// the main header. The metadata section is fixed at creation and not
// affected.
func (p *Package) SetSettings(settings Settings) {
	p.settings = settings

	header := p.container.MainHeader()
	header.TypeExt[0] = uint8(settings.Architecture)
	header.TypeExt[1] = uint8(settings.Platform)
	header.TypeExt[2] = settings.TypeCode[0]
	header.TypeExt[3] = settings.TypeCode[1]
	p.container.SetMainHeader(header)
}

// Container returns the underlying BPX container.
func (p *Package) Container() *container.Container {
	return p.container
}

// Objects returns the object table, reading it from the container on first
// access.
func (p *Package) Objects() (*ObjectTable, error) {
	if p.objects != nil {
		return p.objects, nil
	}

	guard, err := p.container.Sections().Load(p.objectTable)
	if err != nil {
		return nil, err
	}
	defer guard.Close()

	if _, err := guard.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	count := guard.Size() / SizeObjectHeader
	headers := make([]ObjectHeader, 0, count)
	for range count {
		header, err := ReadObjectHeader(guard)
		if err != nil {
			return nil, err
		}
		headers = append(headers, header)
	}

	p.objects = &ObjectTable{
		container: p.container,
		strings:   p.strings,
		headers:   headers,
	}

	return p.objects, nil
}

// LoadMetadata decodes the package metadata from its structured-data
// section. Packages without metadata fail with errs.ErrMissingSection.
func (p *Package) LoadMetadata() (*sd.Object, error) {
	handle, ok := p.container.Sections().FindByType(format.SectionTypeStructuredData)
	if !ok {
		return nil, fmt.Errorf("%w: metadata", errs.ErrMissingSection)
	}

	guard, err := p.container.Sections().Load(handle)
	if err != nil {
		return nil, err
	}
	defer guard.Close()

	if _, err := guard.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	return sd.ReadObject(guard, p.maxDepth)
}

// flushObjectTable rewrites the object table section from offset 0 and
// chops leftovers from removed objects.
func (p *Package) flushObjectTable() error {
	if p.objects == nil {
		return nil
	}

	guard, err := p.container.Sections().Open(p.objectTable)
	if err != nil {
		return err
	}
	defer guard.Close()

	if _, err := guard.Seek(0, io.SeekStart); err != nil {
		return err
	}
	for _, header := range p.objects.headers {
		if err := header.Write(guard); err != nil {
			return err
		}
	}
	want := len(p.objects.headers) * SizeObjectHeader
	if guard.Size() > want {
		if _, err := guard.Truncate(guard.Size() - want); err != nil {
			return err
		}
	}

	return nil
}

// Save rewrites the object table section and persists the container.
func (p *Package) Save() error {
	if err := p.flushObjectTable(); err != nil {
		return err
	}

	return p.container.Save()
}

// LoadAndSave loads every section before saving when the save needs a full
// rewrite; use it on packages opened read/write.
func (p *Package) LoadAndSave() error {
	if err := p.flushObjectTable(); err != nil {
		return err
	}

	return p.container.LoadAndSave()
}

// Close releases the loaded section storage of the underlying container.
func (p *Package) Close() error {
	return p.container.Close()
}
