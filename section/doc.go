// Package section implements the fixed-layout BPX headers and the section
// data storage backends.
//
// Headers are little-endian byte structures with Parse/Bytes round-trip
// methods: the 40-byte main header and the 24-byte section header. The main
// header's weak checksum covers every header byte except its own checksum
// field (bytes 4..8).
//
// Section data lives behind the Data interface, a uniform
// read/write/seek/truncate surface over two backends: an in-memory buffer
// and an unlinked temp file with a small read-ahead buffer. AutoSectionData
// starts in memory and spills to the file backend once its size reaches the
// configured memory threshold; the promotion is invisible to the caller's
// cursor.
package section
