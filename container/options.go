package container

import (
	"github.com/arloliu/bpx/format"
	"github.com/arloliu/bpx/internal/options"
	"github.com/arloliu/bpx/section"
)

// Config collects the tunables of Create and Open.
//
// Create ignores the Skip* fields; Open ignores Type and TypeExt.
type Config struct {
	// MemoryThreshold is the section size at which storage spills to a
	// temp file.
	MemoryThreshold uint32

	// CompressionThreshold is the default uncompressed size a section must
	// exceed to be compressed on save.
	CompressionThreshold uint32

	// RevertOnSaveFailure stages every save in scratch storage and commits
	// only on success, leaving the backend untouched when a save fails.
	RevertOnSaveFailure bool

	// SkipSignatureCheck accepts containers whose signature is not "BPX".
	SkipSignatureCheck bool

	// SkipVersionCheck accepts containers with unknown version numbers.
	SkipVersionCheck bool

	// SkipChecksumCheck disables the header-chain verification on open and
	// the section-data verification on load.
	SkipChecksumCheck bool

	// Type is the variant discriminator byte of a created container.
	Type uint8

	// TypeExt is the variant-specific extension block of a created
	// container.
	TypeExt [16]byte
}

// Option configures Create or Open.
type Option = options.Option[*Config]

func newConfig(opts ...Option) (*Config, error) {
	cfg := &Config{
		MemoryThreshold:      section.DefaultMemoryThreshold,
		CompressionThreshold: section.DefaultCompressionThreshold,
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return cfg, nil
}

// WithMemoryThreshold sets the in-memory size at which section storage
// spills to a temp file.
func WithMemoryThreshold(threshold uint32) Option {
	return options.NoError(func(cfg *Config) {
		cfg.MemoryThreshold = threshold
	})
}

// WithCompressionThreshold sets the default uncompressed size a section
// must exceed to be compressed on save.
func WithCompressionThreshold(threshold uint32) Option {
	return options.NoError(func(cfg *Config) {
		cfg.CompressionThreshold = threshold
	})
}

// WithRevertOnSaveFailure stages saves in scratch storage so a failed save
// leaves the backend byte-for-byte unchanged.
func WithRevertOnSaveFailure() Option {
	return options.NoError(func(cfg *Config) {
		cfg.RevertOnSaveFailure = true
	})
}

// WithSkipSignatureCheck lets Open continue on a bad signature.
func WithSkipSignatureCheck() Option {
	return options.NoError(func(cfg *Config) {
		cfg.SkipSignatureCheck = true
	})
}

// WithSkipVersionCheck lets Open continue on an unknown version.
func WithSkipVersionCheck() Option {
	return options.NoError(func(cfg *Config) {
		cfg.SkipVersionCheck = true
	})
}

// WithSkipChecksumCheck disables checksum verification on open and load.
func WithSkipChecksumCheck() Option {
	return options.NoError(func(cfg *Config) {
		cfg.SkipChecksumCheck = true
	})
}

// WithType sets the variant discriminator byte of a created container.
func WithType(ty uint8) Option {
	return options.NoError(func(cfg *Config) {
		cfg.Type = ty
	})
}

// WithTypeExt sets the extended type block of a created container.
func WithTypeExt(ext [16]byte) Option {
	return options.NoError(func(cfg *Config) {
		cfg.TypeExt = ext
	})
}

// SectionConfig collects the per-section settings captured at creation.
//
// The requested compression and checksum are preserved beside the on-disk
// header so every save can recompute the effective flag byte from the
// section's current size.
type SectionConfig struct {
	// Type is the section type byte.
	Type uint8

	// Compression selects the compression method applied when the section
	// size exceeds Threshold.
	Compression format.CompressionType

	// Checksum selects the integrity digest of the section data.
	Checksum format.ChecksumType

	// Threshold overrides the container's compression threshold for this
	// section. Left unset, it inherits the container's threshold; an
	// explicit zero is kept as a threshold of 0.
	Threshold uint32
}

// SectionOption configures SectionTable.Create.
type SectionOption = options.Option[*SectionConfig]

// WithSectionType sets the type byte of a new section.
func WithSectionType(ty uint8) SectionOption {
	return options.NoError(func(cfg *SectionConfig) {
		cfg.Type = ty
	})
}

// WithCompression selects the compression method of a new section.
func WithCompression(compression format.CompressionType) SectionOption {
	return options.NoError(func(cfg *SectionConfig) {
		cfg.Compression = compression
	})
}

// WithChecksum selects the integrity digest of a new section.
func WithChecksum(chk format.ChecksumType) SectionOption {
	return options.NoError(func(cfg *SectionConfig) {
		cfg.Checksum = chk
	})
}

// WithThreshold overrides the compression threshold of a new section.
func WithThreshold(threshold uint32) SectionOption {
	return options.NoError(func(cfg *SectionConfig) {
		cfg.Threshold = threshold
	})
}
