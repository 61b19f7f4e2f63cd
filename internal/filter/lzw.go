package filter

import (
	"bufio"
	"errors"
	"io"
)

// LZWDecode implements the variable-width LZW variant PDF uses: 9-to-12-bit
// codes, clear code 256, end-of-data code 257, and an optional "early
// change" quirk where the code width grows one code early. Go's standard
// compress/lzw reads codes least-significant-bit first and lacks the
// early-change behavior, so neither applies here; this is a from-scratch
// MSB-first decoder instead.
const (
	lzwLitWidth = 8
	lzwMaxWidth = 12

	lzwClear   = 1 << lzwLitWidth // 256
	lzwEOD     = lzwClear + 1     // 257
	lzwFlushAt = 1 << lzwMaxWidth
	lzwNone    = 0xffff
)

type lzwReader struct {
	src  io.ByteReader
	bits uint32
	nbit uint
	width uint
	err  error

	hi, overflow, prev uint16

	suffix [1 << lzwMaxWidth]uint8
	prefix [1 << lzwMaxWidth]uint16

	out    [2 * (1 << lzwMaxWidth)]byte
	outLen int
	toRead []byte

	earlyChange uint16
}

// NewLZWReader returns a reader implementing LZWDecode over src.
// earlyChange matches the stream dictionary's /EarlyChange entry (default
// true per the PDF specification).
func NewLZWReader(src io.Reader, earlyChange bool) io.Reader {
	br, ok := src.(io.ByteReader)
	if !ok {
		br = bufio.NewReader(src)
	}
	r := &lzwReader{
		src:      br,
		width:    lzwLitWidth + 1,
		hi:       lzwEOD,
		overflow: 1 << (lzwLitWidth + 1),
		prev:     lzwNone,
	}
	if earlyChange {
		r.earlyChange = 1
	}
	return r
}

func (r *lzwReader) nextCode() (uint16, error) {
	for r.nbit < r.width {
		b, err := r.src.ReadByte()
		if err != nil {
			return 0, err
		}
		r.bits |= uint32(b) << (24 - r.nbit)
		r.nbit += 8
	}
	code := uint16(r.bits >> (32 - r.width))
	r.bits <<= r.width
	r.nbit -= r.width
	return code, nil
}

func (r *lzwReader) Read(p []byte) (int, error) {
	for {
		if len(r.toRead) > 0 {
			n := copy(p, r.toRead)
			r.toRead = r.toRead[n:]
			return n, nil
		}
		if r.err != nil {
			if r.err == io.EOF {
				return 0, io.EOF
			}
			return 0, r.err
		}
		r.decodeChunk()
	}
}

func (r *lzwReader) decodeChunk() {
	for {
		code, err := r.nextCode()
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			r.err = err
			break
		}

		switch {
		case code < lzwClear:
			r.out[r.outLen] = uint8(code)
			r.outLen++
			if r.prev != lzwNone {
				r.suffix[r.hi] = uint8(code)
				r.prefix[r.hi] = r.prev
			}

		case code == lzwClear:
			r.width = lzwLitWidth + 1
			r.hi = lzwEOD
			r.overflow = 1 << r.width
			r.prev = lzwNone
			continue

		case code == lzwEOD:
			r.err = io.EOF

		case code <= r.hi:
			c, i := code, len(r.out)-1
			if code == r.hi && r.prev != lzwNone {
				c = r.prev
				for c >= lzwClear {
					c = r.prefix[c]
				}
				r.out[i] = uint8(c)
				i--
				c = r.prev
			}
			for c >= lzwClear {
				r.out[i] = r.suffix[c]
				i--
				c = r.prefix[c]
			}
			r.out[i] = uint8(c)
			r.outLen += copy(r.out[r.outLen:], r.out[i:])
			if r.prev != lzwNone {
				r.suffix[r.hi] = uint8(c)
				r.prefix[r.hi] = r.prev
			}

		default:
			r.err = errors.New("lzw: invalid code")
		}

		if r.err != nil {
			break
		}

		r.prev, r.hi = code, r.hi+1
		if r.hi+r.earlyChange >= r.overflow {
			if r.width >= lzwMaxWidth {
				r.prev = lzwNone
				r.hi--
			} else {
				r.width++
				r.overflow = 1 << r.width
			}
		}
		if r.outLen >= lzwFlushAt {
			break
		}
	}
	r.toRead = r.out[:r.outLen]
	r.outLen = 0
}
