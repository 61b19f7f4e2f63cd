package filter

import (
	"bufio"
	"encoding/ascii85"
	"io"
)

// alphaReader strips whitespace from src and stops at the ASCII85
// terminator "~>", presenting exactly the symbol stream encoding/ascii85
// expects (including the 'z' sentinel for an all-zero group, which the
// standard library decoder already understands).
type alphaReader struct {
	src  *bufio.Reader
	done bool
}

func newAlphaReader(src io.Reader) *alphaReader {
	return &alphaReader{src: bufio.NewReader(src)}
}

func (r *alphaReader) Read(p []byte) (int, error) {
	if r.done {
		return 0, io.EOF
	}
	n := 0
	for n < len(p) {
		b, err := r.src.ReadByte()
		if err != nil {
			if err == io.EOF {
				r.done = true
				if n == 0 {
					return 0, io.EOF
				}
				return n, nil
			}
			return n, err
		}
		if isSpace(b) {
			continue
		}
		if b == '~' {
			nb, err := r.src.ReadByte()
			if err == nil && nb != '>' {
				r.src.UnreadByte()
			}
			r.done = true
			if n == 0 {
				return 0, io.EOF
			}
			return n, nil
		}
		p[n] = b
		n++
	}
	return n, nil
}

// NewASCII85Reader returns a reader implementing ASCII85Decode over src.
func NewASCII85Reader(src io.Reader) io.Reader {
	return ascii85.NewDecoder(newAlphaReader(src))
}
