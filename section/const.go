package section

const (
	// SizeMainHeader is the size in bytes of the BPX main header.
	SizeMainHeader = 40

	// SizeSectionHeader is the size in bytes of a BPX section header.
	SizeSectionHeader = 24

	// DefaultCompressionThreshold is the uncompressed size below which a
	// compressible section is stored raw.
	DefaultCompressionThreshold uint32 = 65536

	// DefaultMemoryThreshold is the in-memory size at which an auto
	// section spills to a temp file.
	DefaultMemoryThreshold uint32 = 100000000
)
