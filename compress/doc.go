// Package compress implements the per-section codec pipelines of BPX.
//
// A pipeline composes one compression method (none, zlib or xz) with one
// streaming checksum. On the write path, Deflate consumes exactly the
// uncompressed size from the source, feeds every uncompressed byte into the
// checksum and emits the compressed stream. On the read path, Inflate
// consumes exactly the compressed size from the source, feeds every
// decompressed byte into the checksum and emits the original data. The
// "none" method is a plain copy loop that still feeds the checksum, so the
// caller never special-cases uncompressed sections.
//
// Data moves in pooled blocks: every deflate reads its input in 8KiB
// blocks, the "none" inflate copies in 8KiB blocks, and the zlib and xz
// inflates decompress into 16KiB blocks. The zlib and xz deflates write the
// compressed stream straight to the destination, without a pooled output
// block.
package compress
