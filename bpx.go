// Package bpx implements BPX, a general-purpose binary container format
// organized as a sequence of independently compressed, checksummed, typed
// sections.
//
// On top of the core container, two higher-level variants are provided:
// the Package variant (BPXP, type byte 'P') storing named byte objects,
// and the Shader Pack variant (BPXS, type byte 'S') storing shader
// bytecode with a typed symbol table. A small structured-data language
// (BPXSD) serves as the metadata and extended symbol data format.
//
// # Core Features
//
//   - Fixed little-endian headers with a weak additive checksum over the
//     whole header chain
//   - Per-section codec pipelines composing compression (none, zlib, xz)
//     with integrity digests (none, weak, CRC-32)
//   - Section storage that transparently spills from memory to a temp
//     file above a configurable threshold
//   - A save-mode optimizer that picks the cheapest safe rewrite: full
//     regeneration, header-only, or patch-in-place
//   - An optional fail-safe save that stages the rewrite in scratch
//     storage and leaves the backend untouched on failure
//
// # Basic Usage
//
// Creating a package and packing an object:
//
//	backend := section.NewAutoSectionData(section.DefaultMemoryThreshold)
//	pkg, _ := bpx.CreatePackage(backend)
//	objects, _ := pkg.Objects()
//	objects.Create("hello.txt", strings.NewReader("hello"))
//	pkg.Save()
//
// Reading it back:
//
//	pkg, _ := bpx.OpenPackage(backend)
//	objects, _ := pkg.Objects()
//	header := objects.Get(0)
//	name, _ := objects.LoadName(header)
//	var body bytes.Buffer
//	objects.Load(header, &body)
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the
// container, bpxp and bpxs packages, simplifying the most common use
// cases. For fine-grained control (custom section types, skip flags,
// thresholds), use those packages directly.
package bpx

import (
	"github.com/arloliu/bpx/bpxp"
	"github.com/arloliu/bpx/bpxs"
	"github.com/arloliu/bpx/container"
)

// CreateContainer creates a new raw BPX container over backend.
func CreateContainer(backend container.Backend, opts ...container.Option) (*container.Container, error) {
	return container.Create(backend, opts...)
}

// OpenContainer opens an existing raw BPX container from backend.
func OpenContainer(backend container.Backend, opts ...container.Option) (*container.Container, error) {
	return container.Open(backend, opts...)
}

// CreatePackage creates a new BPXP package over backend.
func CreatePackage(backend container.Backend, opts ...bpxp.Option) (*bpxp.Package, error) {
	return bpxp.Create(backend, opts...)
}

// OpenPackage opens an existing BPXP package from backend.
func OpenPackage(backend container.Backend, opts ...bpxp.Option) (*bpxp.Package, error) {
	return bpxp.Open(backend, opts...)
}

// CreateShaderPack creates a new BPXS shader pack over backend.
func CreateShaderPack(backend container.Backend, opts ...bpxs.Option) (*bpxs.ShaderPack, error) {
	return bpxs.Create(backend, opts...)
}

// OpenShaderPack opens an existing BPXS shader pack from backend.
func OpenShaderPack(backend container.Backend, opts ...bpxs.Option) (*bpxs.ShaderPack, error) {
	return bpxs.Open(backend, opts...)
}
