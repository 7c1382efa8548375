// Package strtab implements the BPX string section: an append-only pool of
// null-terminated UTF-8 strings addressed by their byte offset.
//
// Writes return the pre-write offset as the string's address. Reads scan
// forward to the terminator and validate UTF-8. Decoded strings are cached
// per address for the lifetime of the section, and writes populate the
// cache eagerly, so repeated lookups never touch the section twice.
package strtab

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/arloliu/bpx/container"
	"github.com/arloliu/bpx/errs"
)

// StringSection is the address-keyed view over one strings section of a
// container.
type StringSection struct {
	handle container.Handle
	cache  map[uint32]string
}

// New creates a string section view over the section behind handle.
func New(handle container.Handle) *StringSection {
	return &StringSection{
		handle: handle,
		cache:  make(map[uint32]string),
	}
}

// Handle returns the underlying section handle.
func (s *StringSection) Handle() container.Handle {
	return s.handle
}

// Load reads the strings section from the backend if it is not already in
// memory.
func (s *StringSection) Load(c *container.Container) error {
	guard, err := c.Sections().Load(s.handle)
	if err != nil {
		return err
	}

	return guard.Close()
}

// Get reads the string at the given address.
func (s *StringSection) Get(c *container.Container, address uint32) (string, error) {
	if cached, ok := s.cache[address]; ok {
		return cached, nil
	}

	guard, err := c.Sections().Load(s.handle)
	if err != nil {
		return "", err
	}
	defer guard.Close()

	value, err := readString(guard, address)
	if err != nil {
		return "", err
	}
	s.cache[address] = value

	return value, nil
}

// Put appends a string and returns its address.
func (s *StringSection) Put(c *container.Container, value string) (uint32, error) {
	guard, err := c.Sections().Load(s.handle)
	if err != nil {
		return 0, err
	}
	defer guard.Close()

	address, err := writeString(guard, value)
	if err != nil {
		return 0, err
	}
	s.cache[address] = value

	return address, nil
}

// readString scans from the address to the null terminator.
func readString(section *container.Section, address uint32) (string, error) {
	if _, err := section.Seek(int64(address), io.SeekStart); err != nil {
		return "", err
	}

	var raw []byte
	var chr [1]byte
	for {
		n, err := section.Read(chr[:])
		if err == io.EOF || n != 1 {
			return "", fmt.Errorf("string at address %d is unterminated: %w", address, errs.ErrEndOfSection)
		}
		if err != nil {
			return "", err
		}
		if chr[0] == 0x0 {
			break
		}
		raw = append(raw, chr[0])
	}

	if !utf8.Valid(raw) {
		return "", fmt.Errorf("string at address %d: %w", address, errs.ErrInvalidUTF8)
	}

	return string(raw), nil
}

// writeString appends value followed by a null terminator at the end of
// the section and returns the pre-write offset.
func writeString(section *container.Section, value string) (uint32, error) {
	address, err := section.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := section.Write(append([]byte(value), 0x0)); err != nil {
		return 0, err
	}

	return uint32(address), nil
}
