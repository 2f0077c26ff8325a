// Package compression provides the codecs used to store post bodies.
package compression

import "github.com/pkg/errors"

type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// New returns the compressor registered under name ("zstd" or "gzip").
func New(name string) (Compressor, error) {
	switch name {
	case "zstd", "":
		return ZstdCompressor{}, nil
	case "gzip":
		return GzipCompressor{}, nil
	default:
		return nil, errors.Errorf("unknown compressor %q", name)
	}
}
