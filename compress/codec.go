package compress

import (
	"fmt"
	"io"

	"github.com/arloliu/bpx/checksum"
	"github.com/arloliu/bpx/format"
)

// Deflater compresses section data on the save path.
type Deflater interface {
	// Deflate reads exactly size uncompressed bytes from src, pushes them
	// into chk, writes the compressed stream to dst and returns the number
	// of compressed bytes written.
	Deflate(dst io.Writer, src io.Reader, size int, chk checksum.Checksum) (int, error)
}

// Inflater decompresses section data on the load path.
type Inflater interface {
	// Inflate reads exactly csize compressed bytes from src, writes the
	// decompressed stream to dst and pushes every decompressed byte into
	// chk.
	Inflate(dst io.Writer, src io.Reader, csize int, chk checksum.Checksum) error
}

// Codec combines both directions of one compression method.
type Codec interface {
	Deflater
	Inflater
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NoopCodec{},
	format.CompressionZlib: ZlibCodec{},
	format.CompressionXz:   XzCodec{},
}

// GetCodec retrieves the built-in Codec for the specified compression type.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression type: %s", compressionType)
}

// ForFlags retrieves the Codec selected by a section header flag byte.
func ForFlags(flags uint8) Codec {
	codec, _ := GetCodec(format.CompressionOf(flags))
	return codec
}

// countingWriter counts the bytes passed through to the underlying writer.
type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n

	return n, err
}
