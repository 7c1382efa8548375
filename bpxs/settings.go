package bpxs

import (
	"fmt"

	"github.com/arloliu/bpx/container"
	"github.com/arloliu/bpx/errs"
	"github.com/arloliu/bpx/internal/options"
	"github.com/arloliu/bpx/sd"
)

// Stage is a shader pipeline stage. Its code is the first byte of every
// shader section body.
type Stage uint8

const (
	StageVertex Stage = iota
	StageHull
	StageDomain
	StageGeometry
	StagePixel
)

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageHull:
		return "hull"
	case StageDomain:
		return "domain"
	case StageGeometry:
		return "geometry"
	case StagePixel:
		return "pixel"
	default:
		return "unknown"
	}
}

func stageFromCode(code uint8) (Stage, error) {
	if code > uint8(StagePixel) {
		return 0, fmt.Errorf("stage code 0x%X: %w", code, errs.ErrInvalidCode)
	}

	return Stage(code), nil
}

// Target is the rendering API a shader pack targets.
type Target uint8

const (
	TargetDX11  Target = 0x1
	TargetDX12  Target = 0x2
	TargetGL33  Target = 0x3
	TargetGL40  Target = 0x4
	TargetGL41  Target = 0x5
	TargetGL42  Target = 0x6
	TargetGL43  Target = 0x7
	TargetGL44  Target = 0x8
	TargetGL45  Target = 0x9
	TargetGL46  Target = 0xA
	TargetES30  Target = 0xB
	TargetES31  Target = 0xC
	TargetES32  Target = 0xD
	TargetVK10  Target = 0xE
	TargetVK11  Target = 0xF
	TargetVK12  Target = 0x10
	TargetMetal Target = 0x11
	TargetAny   Target = 0xFF
)

func targetFromCode(code uint8) (Target, error) {
	if (code >= uint8(TargetDX11) && code <= uint8(TargetMetal)) || code == uint8(TargetAny) {
		return Target(code), nil
	}

	return 0, fmt.Errorf("target code 0x%X: %w", code, errs.ErrInvalidCode)
}

// Type distinguishes shader assemblies from pipelines/programs.
type Type uint8

const (
	TypeAssembly Type = 'A'
	TypePipeline Type = 'P'
)

func typeFromCode(code uint8) (Type, error) {
	switch Type(code) {
	case TypeAssembly, TypePipeline:
		return Type(code), nil
	default:
		return 0, fmt.Errorf("shader pack type code 0x%X: %w", code, errs.ErrInvalidCode)
	}
}

// Shader is one shader blob: a stage and its opaque bytecode.
type Shader struct {
	Stage Stage
	Data  []byte
}

// Settings describes a shader pack: the target API, the pack type and the
// hash of the assembly a pipeline links against.
type Settings struct {
	Target       Target
	Type         Type
	AssemblyHash uint64
}

type config struct {
	settings      Settings
	maxDepth      int
	containerOpts []container.Option
}

// Option configures Create and Open.
type Option = options.Option[*config]

func newShaderConfig(opts ...Option) (*config, error) {
	cfg := &config{
		settings: Settings{Target: TargetAny, Type: TypePipeline},
		maxDepth: sd.DefaultMaxDepth,
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return cfg, nil
}

// WithTarget sets the rendering API the pack targets.
func WithTarget(target Target) Option {
	return options.NoError(func(cfg *config) {
		cfg.settings.Target = target
	})
}

// WithShaderType sets the pack type (assembly or pipeline).
func WithShaderType(ty Type) Option {
	return options.NoError(func(cfg *config) {
		cfg.settings.Type = ty
	})
}

// WithAssemblyHash records the hash of the assembly this pack links
// against; see AssemblyHash.
func WithAssemblyHash(hash uint64) Option {
	return options.NoError(func(cfg *config) {
		cfg.settings.AssemblyHash = hash
	})
}

// WithMaxDepth bounds the nesting of extended-data objects.
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
