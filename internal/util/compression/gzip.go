package compression

import (
	"bytes"
	"compress/gzip"
	"io"

	"github.com/pkg/errors"
)

type GzipCompressor struct{}

func (GzipCompressor) Compress(data []byte) ([]byte, error) {
	var b bytes.Buffer
	writer := gzip.NewWriter(&b)
	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return nil, errors.Wrap(err, "gzip write")
	}
	if err := writer.Close(); err != nil {
		return nil, errors.Wrap(err, "gzip close")
	}
	return b.Bytes(), nil
}

func (GzipCompressor) Decompress(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "gzip header")
	}
	defer reader.Close()

	out, err := io.ReadAll(reader)
	return out, errors.Wrap(err, "gzip read")
}
