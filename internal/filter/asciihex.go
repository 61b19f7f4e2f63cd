package filter

import (
	"bufio"
	"io"
)

// asciiHexReader implements ASCIIHexDecode: each pair of case-insensitive
// hex digits becomes one byte, whitespace is ignored, and the stream ends at
// the first '>'. A trailing unpaired digit is padded with a trailing zero
// nibble rather than treated as an error.
type asciiHexReader struct {
	src  *bufio.Reader
	done bool
}

// NewASCIIHexReader returns a reader implementing ASCIIHexDecode over src.
func NewASCIIHexReader(src io.Reader) io.Reader {
	return &asciiHexReader{src: bufio.NewReader(src)}
}

func (r *asciiHexReader) Read(p []byte) (int, error) {
	if r.done {
		return 0, io.EOF
	}
	n := 0
	for n < len(p) {
		c1, ok, err := r.nextHexDigit()
		if err != nil {
			return n, err
		}
		if !ok {
			r.done = true
			if n == 0 {
				return 0, io.EOF
			}
			return n, nil
		}
		c2, ok, err := r.nextHexDigit()
		if err != nil {
			return n, err
		}
		if !ok {
			p[n] = byte(c1 << 4)
			n++
			r.done = true
			return n, nil
		}
		p[n] = byte(c1<<4 | c2)
		n++
	}
	return n, nil
}

// nextHexDigit returns the next hex nibble, skipping whitespace. ok is false
// at the terminating '>'.
func (r *asciiHexReader) nextHexDigit() (int, bool, error) {
	for {
		b, err := r.src.ReadByte()
		if err != nil {
			if err == io.EOF {
				return 0, false, nil
			}
			return 0, false, err
		}
		if isSpace(b) {
			continue
		}
		if b == '>' {
			return 0, false, nil
		}
		x := unhex(b)
		if x < 0 {
			return 0, false, &FilterError{Filter: "ASCIIHexDecode", Err: errInvalidByte(b)}
		}
		return x, true, nil
	}
}

type errInvalidByte byte

func (e errInvalidByte) Error() string {
	return "invalid byte " + string(rune(e)) + " in ASCIIHexDecode stream"
}

func isSpace(b byte) bool {
	switch b {
	case 0x00, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func unhex(b byte) int {
	switch {
	case '0' <= b && b <= '9':
		return int(b - '0')
	case 'a' <= b && b <= 'f':
		return int(b-'a') + 10
	case 'A' <= b && b <= 'F':
		return int(b-'A') + 10
	}
	return -1
}
