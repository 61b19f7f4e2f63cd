package filter

import (
	"compress/zlib"
	"io"
)

// NewFlateReader returns a reader implementing FlateDecode (zlib-wrapped
// DEFLATE) over src.
func NewFlateReader(src io.Reader) (io.Reader, error) {
	zr, err := zlib.NewReader(src)
	if err != nil {
		return nil, err
	}
	return zr, nil
}
