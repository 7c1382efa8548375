// Package bpxp implements the BPX Package variant (type byte 'P'): named
// byte objects packed end-to-end into data sections, addressed through an
// object table and a string section, with optional structured-data
// metadata.
package bpxp

import (
	"fmt"

	"github.com/arloliu/bpx/container"
	"github.com/arloliu/bpx/errs"
	"github.com/arloliu/bpx/internal/options"
	"github.com/arloliu/bpx/sd"
)

// Architecture is the CPU architecture a package targets.
type Architecture uint8

const (
	ArchX86_64 Architecture = iota
	ArchAArch64
	ArchX86
	ArchArmV7HL
	ArchAny
)

func (a Architecture) String() string {
	switch a {
	case ArchX86_64:
		return "x86_64"
	case ArchAArch64:
		return "aarch64"
	case ArchX86:
		return "x86"
	case ArchArmV7HL:
		return "armv7hl"
	case ArchAny:
		return "any"
	default:
		return "unknown"
	}
}

// Platform is the operating system a package targets.
type Platform uint8

const (
	PlatformLinux Platform = iota
	PlatformMac
	PlatformWindows
	PlatformAndroid
	PlatformAny
)

func (p Platform) String() string {
	switch p {
	case PlatformLinux:
		return "linux"
	case PlatformMac:
		return "mac"
	case PlatformWindows:
		return "windows"
	case PlatformAndroid:
		return "android"
	case PlatformAny:
		return "any"
	default:
		return "unknown"
	}
}

func architectureFromCode(code uint8) (Architecture, error) {
	if code > uint8(ArchAny) {
		return 0, fmt.Errorf("architecture code 0x%X: %w", code, errs.ErrInvalidCode)
	}

	return Architecture(code), nil
}

func platformFromCode(code uint8) (Platform, error) {
	if code > uint8(PlatformAny) {
		return 0, fmt.Errorf("platform code 0x%X: %w", code, errs.ErrInvalidCode)
	}

	return Platform(code), nil
}

// Settings describes a package: the target architecture and platform, two
// free-form variant bytes and optional metadata written at creation.
type Settings struct {
	Architecture Architecture
	Platform     Platform
	TypeCode     [2]byte
	Metadata     *sd.Object
}

type config struct {
	settings      Settings
	maxDepth      int
	containerOpts []container.Option
}

// Option configures Create and Open.
type Option = options.Option[*config]

func newPackageConfig(opts ...Option) (*config, error) {
	cfg := &config{
		settings: Settings{Architecture: ArchAny, Platform: PlatformAny},
		maxDepth: sd.DefaultMaxDepth,
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return cfg, nil
}

// WithArchitecture sets the CPU architecture the package targets.
func WithArchitecture(arch Architecture) Option {
	return options.NoError(func(cfg *config) {
		cfg.settings.Architecture = arch
	})
}

// WithPlatform sets the platform the package targets.
func WithPlatform(platform Platform) Option {
	return options.NoError(func(cfg *config) {
		cfg.settings.Platform = platform
	})
}

// WithTypeCode sets the two free-form variant bytes of the package.
func WithTypeCode(code [2]byte) Option {
	return options.NoError(func(cfg *config) {
		cfg.settings.TypeCode = code
	})
}

// WithMetadata attaches a structured-data object written into a metadata
// section at creation.
func WithMetadata(metadata *sd.Object) Option {
	return options.NoError(func(cfg *config) {
		cfg.settings.Metadata = metadata
	})
}

// WithMaxDepth bounds the nesting of the metadata object.
func WithMaxDepth(maxDepth int) Option {
	return options.NoError(func(cfg *config) {
		cfg.maxDepth = maxDepth
	})
}

// WithContainerOptions forwards options to the underlying container.
func WithContainerOptions(opts ...container.Option) Option {
	return options.NoError(func(cfg *config) {
		cfg.containerOpts = append(cfg.containerOpts, opts...)
	})
}
