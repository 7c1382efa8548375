// Package errs defines the sentinel error values shared by all bpx packages.
//
// Call sites wrap these sentinels with fmt.Errorf("...: %w", err) to attach
// contextual fields (expected/actual checksums, offending codes, sizes), so
// callers can match on the kind with errors.Is while still getting a
// human-readable message.
package errs

import "errors"

// Container level errors.
var (
	// ErrBadSignature indicates the main header signature is not "BPX".
	// Recoverable at open time when the signature check is skipped.
	ErrBadSignature = errors.New("unknown BPX signature")

	// ErrBadVersion indicates the main header carries an unsupported version.
	// Recoverable at open time when the version check is skipped.
	ErrBadVersion = errors.New("unsupported BPX version")

	// ErrChecksumMismatch indicates a header chain or section data digest
	// did not match the stored checksum.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrTruncated indicates a header or structure ended before enough
	// bytes could be read.
	ErrTruncated = errors.New("truncated data")

	// ErrBadType indicates a variant discriminator mismatch.
	ErrBadType = errors.New("unknown BPX type")

	// ErrCapacity indicates a section exceeds the 2^32-1 size limit.
	ErrCapacity = errors.New("section size exceeds capacity")

	// ErrSectionInUse indicates an attempt to open a section already opened.
	ErrSectionInUse = errors.New("section already in use")

	// ErrSectionNotLoaded indicates an attempt to open a section whose data
	// has not been loaded from the backend.
	ErrSectionNotLoaded = errors.New("section not loaded")

	// ErrSectionNotFound indicates an invalid section handle or index.
	ErrSectionNotFound = errors.New("section not found")

	// ErrMissingSection indicates a variant layer failed to locate one of
	// its required sections.
	ErrMissingSection = errors.New("missing required section")

	// ErrInvalidCode indicates a variant enum byte is out of range.
	ErrInvalidCode = errors.New("invalid code")

	// ErrReadOnly indicates a write on a read-only backend.
	ErrReadOnly = errors.New("backend is read-only")
)

// Structured data (BPXSD) errors.
var (
	// ErrBadTypeCode indicates an unknown BPXSD value type code.
	ErrBadTypeCode = errors.New("unknown value type code")

	// ErrCapacityExceeded indicates a BPXSD collection holds more than 255
	// entries.
	ErrCapacityExceeded = errors.New("collection capacity exceeded")

	// ErrMaxDepthExceeded indicates a BPXSD tree is nested deeper than the
	// configured maximum depth.
	ErrMaxDepthExceeded = errors.New("max recursion depth exceeded")

	// ErrTruncatedValue indicates a BPXSD value ended before its full
	// payload could be read.
	ErrTruncatedValue = errors.New("truncated value")
)

// String section errors.
var (
	// ErrInvalidUTF8 indicates decoded bytes are not valid UTF-8.
	ErrInvalidUTF8 = errors.New("invalid utf-8 sequence")

	// ErrEndOfSection indicates a string ran past the end of its section
	// without a null terminator.
	ErrEndOfSection = errors.New("unexpected end of section")
)
