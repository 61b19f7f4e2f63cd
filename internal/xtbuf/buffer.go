// Package xtbuf implements the byte-level reader and object-level tokenizer
// used to parse one PDF value starting at an arbitrary file offset.
package xtbuf

import (
	"fmt"
	"io"
)

// SyntaxError is raised (via panic) by a Buffer when the byte stream does not
// conform to PDF object syntax. Callers at the package boundary recover and
// translate it into a typed parsing error.
type SyntaxError struct {
	Offset int64
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("pdf syntax error at offset %d: %s", e.Offset, e.Msg)
}

func (b *Buffer) fail(format string, args ...interface{}) {
	panic(&SyntaxError{Offset: b.ReadOffset(), Msg: fmt.Sprintf(format, args...)})
}

// Buffer is a forward-only cursor layering token-level helpers over a plain
// byte stream. It wraps a single io.Reader; callers that need a second,
// independently-positioned cursor over the same file construct a new Buffer
// over a fresh io.SectionReader on the shared io.ReaderAt, which is how the
// document resolver reads a second object mid-parse (e.g. chasing an
// indirect /Length while a stream header is still being assembled).
type Buffer struct {
	r      io.Reader
	buf    []byte
	pos    int
	offset int64
	tmp    []byte
	unread []interface{}

	eof bool

	// AllowEOF permits readByte to report a synthetic EOF instead of
	// failing when the underlying reader is exhausted.
	AllowEOF bool
	// AllowObjptr enables lookahead for "id gen R" / "id gen obj" after an
	// integer token, producing ObjPtr / ObjDef values from readObject.
	AllowObjptr bool
	// AllowStream enables recognizing "stream" immediately after a
	// dictionary's closing ">>", producing a Stream value from readObject.
	AllowStream bool

	objptr ObjPtr
}

// NewBuffer returns a Buffer reading from r, whose first byte is located at
// the given absolute file offset.
func NewBuffer(r io.Reader, offset int64) *Buffer {
	return &Buffer{
		r:           r,
		offset:      offset,
		buf:         make([]byte, 0, 4096),
		AllowObjptr: true,
		AllowStream: true,
	}
}

// Seek repositions the buffer to read starting at the given absolute offset,
// discarding buffered bytes and any unread tokens.
func (b *Buffer) Seek(offset int64) {
	b.offset = offset
	b.buf = b.buf[:0]
	b.pos = 0
	b.unread = b.unread[:0]
	b.eof = false
}

// SeekForward advances the cursor to the given absolute offset, which must
// not precede the current position; it only reads and discards bytes, never
// rewinds the underlying reader.
func (b *Buffer) SeekForward(offset int64) {
	for b.offset < offset {
		if !b.reload() {
			return
		}
	}
	b.pos = len(b.buf) - int(b.offset-offset)
}

// ReadOffset returns the absolute file offset of the next byte readByte
// would return.
func (b *Buffer) ReadOffset() int64 {
	return b.offset - int64(len(b.buf)) + int64(b.pos)
}

func (b *Buffer) reload() bool {
	n := cap(b.buf) - int(b.offset%int64(cap(b.buf)))
	if n <= 0 {
		n = cap(b.buf)
	}
	n, err := b.r.Read(b.buf[:n])
	if n == 0 && err != nil {
		b.buf = b.buf[:0]
		b.pos = 0
		if b.AllowEOF && err == io.EOF {
			b.eof = true
			return false
		}
		b.fail("reading at offset %d: %v", b.offset, err)
		return false
	}
	b.offset += int64(n)
	b.buf = b.buf[:n]
	b.pos = 0
	return true
}

// readByte returns the next byte in the stream. Past genuine EOF with
// AllowEOF set, it returns a synthetic line-feed so that callers scanning
// for a line terminator always make progress; callers that care distinguish
// this case via b.eof.
func (b *Buffer) readByte() byte {
	if b.pos >= len(b.buf) {
		b.reload()
		if b.pos >= len(b.buf) {
			return '\n'
		}
	}
	c := b.buf[b.pos]
	b.pos++
	return c
}

func (b *Buffer) unreadByte() {
	if b.pos > 0 {
		b.pos--
	}
}

// AtEOF reports whether the underlying reader has been exhausted. Only
// meaningful when AllowEOF is set.
func (b *Buffer) AtEOF() bool {
	return b.eof
}

func isSpace(c byte) bool {
	switch c {
	case 0x00, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isDelim(c byte) bool {
	switch c {
	case '<', '>', '(', ')', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func unhex(c byte) int {
	switch {
	case '0' <= c && c <= '9':
		return int(c - '0')
	case 'a' <= c && c <= 'f':
		return int(c-'a') + 10
	case 'A' <= c && c <= 'F':
		return int(c-'A') + 10
	}
	return -1
}
