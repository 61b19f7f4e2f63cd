package filter

import (
	"bufio"
	"io"
)

// runLengthReader implements RunLengthDecode: a length byte L in 0-127
// copies the following L+1 literal bytes; L in 129-255 repeats the single
// following byte 257-L times; L == 128 terminates the stream.
type runLengthReader struct {
	src     *bufio.Reader
	pending []byte
	done    bool
}

// NewRunLengthReader returns a reader implementing RunLengthDecode over src.
func NewRunLengthReader(src io.Reader) io.Reader {
	return &runLengthReader{src: bufio.NewReader(src)}
}

func (r *runLengthReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(r.pending) > 0 {
			c := copy(p[n:], r.pending)
			r.pending = r.pending[c:]
			n += c
			continue
		}
		if r.done {
			if n > 0 {
				return n, nil
			}
			return 0, io.EOF
		}
		l, err := r.src.ReadByte()
		if err != nil {
			if err == io.EOF {
				r.done = true
				if n > 0 {
					return n, nil
				}
				return 0, io.EOF
			}
			return n, err
		}
		switch {
		case l == 128:
			r.done = true
		case l < 128:
			buf := make([]byte, int(l)+1)
			if _, err := io.ReadFull(r.src, buf); err != nil {
				return n, &FilterError{Filter: "RunLengthDecode", Err: err}
			}
			r.pending = buf
		default: // 129-255
			b, err := r.src.ReadByte()
			if err != nil {
				return n, &FilterError{Filter: "RunLengthDecode", Err: err}
			}
			count := 257 - int(l)
			buf := make([]byte, count)
			for i := range buf {
				buf[i] = b
			}
			r.pending = buf
		}
	}
	return n, nil
}
