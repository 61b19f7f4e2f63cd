// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Package xtract reads the structure of a PDF file: its cross-reference
// table, object graph, and page tree. A PDF is a graph of Values, each of
// which has a Kind: KindNull, KindBool, KindInt, KindReal, KindName,
// KindLiteralString, KindHexString, KindArray, KindDict, KindContentStream,
// KindBinaryStream, KindObjectStream, or KindComment. A KindBinaryStream
// Value carries a further StreamTag (XRef, Image, or Metadata) naming the
// dictionary key that produced the classification. Indirect references are
// resolved transparently as the graph is navigated, so callers never see a
// bare reference.
//
// Accessors come in two forms. AsX() (T, error) reports a *TypeError when
// the Value is not of the expected Kind. The zero-value-safe convenience
// form X() T returns the same value, discarding the error, which makes it
// possible to walk a dictionary or array without threading error checks
// through every step; mistakes of this kind surface as a zero value rather
// than a panic.
//
// A single Document is not safe for concurrent use; open one Document per
// goroutine, or use a BatchOpener to open many files concurrently.
package xtract

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/sassoftware/pdf-xtract/internal/filter"
	"github.com/sassoftware/pdf-xtract/internal/xtbuf"
	"github.com/sassoftware/pdf-xtract/logger"
)

// xrefEntry records where one indirect object lives: either a byte offset
// in the file (an uncompressed entry) or the (ObjPtr, index) of the object
// stream that contains it (a compressed entry).
type xrefEntry struct {
	ptr      xtbuf.ObjPtr
	inStream bool
	stream   xtbuf.ObjPtr
	offset   int64
}

// Document is a single PDF file open for reading.
type Document struct {
	f          io.ReaderAt
	end        int64
	xref       []xrefEntry
	trailer    xtbuf.Dict
	trailerPtr ObjectId

	mu       sync.Mutex
	cache    map[uint32]interface{}
	inflight map[uint32]bool

	// lenient enables scanForObject repair of xref entries whose declared
	// offset does not land on an object header, instead of failing
	// outright. Set by OpenWithConfig when Config.ParsingMode == ModeLenient.
	lenient bool
}

// Open opens the named file and parses its cross-reference section and
// trailer under the default, strict parsing mode: a malformed
// cross-reference section or trailer fails the open, and each entry's
// offset is used as declared, so an entry that does not lead to its object
// fails only when that object is resolved. The returned
// *os.File must be closed by the caller once the Document and any Values
// derived from it are no longer needed.
func Open(path string) (*os.File, *Document, error) {
	return OpenWithConfig(path, NewDefaultConfig())
}

// OpenWithConfig opens path as Open does, but honors cfg.ParsingMode: in
// ModeLenient, a cross-reference entry whose declared offset does not
// land on an object header is repaired during the open by a bounded scan
// of the surrounding bytes; an entry the scan cannot place is kept as
// declared.
func OpenWithConfig(path string, cfg *Config) (*os.File, *Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, &IOError{Path: path, Err: err}
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, &IOError{Path: path, Err: err}
	}
	logger.Debug(fmt.Sprintf("document: file:%s -- opened (size=%d)", path, fi.Size()), true)
	doc, err := newDocument(f, fi.Size(), cfg != nil && cfg.ParsingMode == ModeLenient)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return f, doc, nil
}

// NewDocument parses the cross-reference section and trailer of a PDF
// already open as f, which spans size bytes, under the default strict
// parsing mode.
func NewDocument(f io.ReaderAt, size int64) (*Document, error) {
	return newDocument(f, size, false)
}

func newDocument(f io.ReaderAt, size int64, lenient bool) (doc *Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, panicToError(r)
		}
	}()

	if err := checkHeader(f); err != nil {
		return nil, err
	}
	if err := validateEOFMarker(f, size); err != nil {
		return nil, err
	}
	startxref, err := findStartXref(f, size)
	if err != nil {
		return nil, err
	}

	d := &Document{
		f:        f,
		end:      size,
		cache:    make(map[uint32]interface{}),
		inflight: make(map[uint32]bool),
		lenient:  lenient,
	}
	b := xtbuf.NewBuffer(io.NewSectionReader(f, startxref, size-startxref), startxref)
	xref, trailerPtr, trailer, err := readXref(d, b)
	if err != nil {
		return nil, err
	}
	d.xref = xref
	d.trailer = trailer
	d.trailerPtr = trailerPtr

	if d.lenient {
		d.repairXref()
	}
	return d, nil
}

// repairXref attempts to fix up uncompressed xref entries whose declared
// offset does not land on a "N G obj" header by scanning a bounded window
// around the stale offset, tolerating producers that rewrote a file
// without updating every cross-reference offset.
func (d *Document) repairXref() {
	for i, ent := range d.xref {
		if ent.ptr == (xtbuf.ObjPtr{}) || ent.inStream || ent.offset == 0 {
			continue
		}
		if d.looksLikeObjectAt(ent.offset) {
			continue
		}
		if found := d.scanForObject(ent.ptr.ID, ent.ptr.Gen, ent.offset, 2048); found >= 0 {
			d.xref[i].offset = found
			logger.Debug(fmt.Sprintf("repaired xref entry for object %d: offset %d -> %d", ent.ptr.ID, ent.offset, found), true)
		}
	}
}

// panicToError converts a panic recovered at the public API boundary into a
// typed error. The internal tokenizer (xtbuf) panics with *SyntaxError for
// malformed input, which comes from file bytes rather than internal
// invariant violations, so recovering here is safe and complete; the
// filter package returns its errors rather than panicking.
func panicToError(r interface{}) error {
	switch e := r.(type) {
	case *xtbuf.SyntaxError:
		return &ParsingError{Offset: e.Offset, Msg: e.Msg, Err: e}
	case *filter.FilterError:
		return &FilterError{Filter: e.Filter, Err: e.Err}
	case error:
		return &ParsingError{Msg: e.Error(), Err: e}
	default:
		return &ParsingError{Msg: fmt.Sprint(r)}
	}
}

// checkHeader validates that f begins with a "%PDF-x.y" header naming a
// supported version (1.0 through 1.7, or 2.0).
func checkHeader(f io.ReaderAt) error {
	buf := make([]byte, 16)
	n, err := f.ReadAt(buf, 0)
	if err != nil && err != io.EOF {
		return &IOError{Path: "<reader>", Err: err}
	}
	buf = buf[:n]
	p := bytes.Index(buf, []byte("%PDF-"))
	if p < 0 {
		return &MalformedTrailerError{Msg: "missing %PDF- header"}
	}
	line := buf[p:]
	if end := bytes.IndexAny(line, "\r\n"); end >= 0 {
		line = line[:end]
	}
	line = bytes.TrimRight(line, " \t\x00")
	var major, minor int
	if _, err := fmt.Sscanf(string(line), "%%PDF-%d.%d", &major, &minor); err != nil {
		return &MalformedTrailerError{Msg: "malformed PDF version string", Err: err}
	}
	if !((major == 1 && minor >= 0 && minor <= 7) || (major == 2 && minor == 0)) {
		return &MalformedTrailerError{Msg: fmt.Sprintf("unsupported PDF version %d.%d", major, minor)}
	}
	return nil
}

// validateEOFMarker checks that the tail of the file ends with %%EOF,
// tolerating trailing whitespace.
func validateEOFMarker(f io.ReaderAt, size int64) error {
	const tail = 1024
	start := size - tail
	if start < 0 {
		start = 0
	}
	buf := make([]byte, size-start)
	if _, err := f.ReadAt(buf, start); err != nil && err != io.EOF {
		return &IOError{Path: "<reader>", Err: err}
	}
	buf = bytes.TrimRight(buf, "\r\n\t \x00")
	if !bytes.HasSuffix(buf, []byte("%%EOF")) {
		return &MalformedTrailerError{Msg: "missing trailing %%EOF marker"}
	}
	return nil
}

// findStartXref locates and parses the final "startxref" pointer near the
// end of the file, returning the byte offset of the cross-reference
// section it names.
func findStartXref(f io.ReaderAt, size int64) (int64, error) {
	const tail = 1024
	start := size - tail
	if start < 0 {
		start = 0
	}
	buf := make([]byte, size-start)
	if _, err := f.ReadAt(buf, start); err != nil && err != io.EOF {
		return 0, &IOError{Path: "<reader>", Err: err}
	}
	i := findLastKeyword(buf, "startxref")
	if i < 0 {
		return 0, &MalformedTrailerError{Msg: "missing startxref keyword"}
	}
	pos := start + int64(i)
	b := xtbuf.NewBuffer(io.NewSectionReader(f, pos, size-pos), pos)
	if tok := b.ReadToken(); tok != xtbuf.Keyword("startxref") {
		return 0, &MalformedTrailerError{Msg: fmt.Sprintf("expected startxref, found %#v", tok)}
	}
	off, ok := b.ReadToken().(int64)
	if !ok {
		return 0, &MalformedTrailerError{Msg: "startxref not followed by an integer offset"}
	}
	return off, nil
}

// findLastKeyword returns the offset of the last occurrence of s in buf
// that is followed by an end-of-line marker (after skipping PDF
// whitespace), matching the grammar's requirement that startxref begin its
// own line.
func findLastKeyword(buf []byte, s string) int {
	bs := []byte(s)
	last := -1
	for i := 0; ; {
		j := bytes.Index(buf[i:], bs)
		if j < 0 {
			break
		}
		pos := i + j
		k := pos + len(bs)
		for k < len(buf) && isPDFWhitespace(buf[k]) && buf[k] != '\r' && buf[k] != '\n' {
			k++
		}
		if k < len(buf) && (buf[k] == '\r' || buf[k] == '\n') {
			last = pos
		}
		i = pos + 1
	}
	return last
}

func isPDFWhitespace(b byte) bool {
	switch b {
	case 0x00, 0x09, 0x0A, 0x0C, 0x0D, 0x20:
		return true
	}
	return false
}

// Trailer returns the file's trailer dictionary as a Value.
func (d *Document) Trailer() Value {
	return Value{d, d.trailerPtr, d.trailer}
}

// Get resolves the indirect object named by id, or a *ReferenceError if id
// is not present in the cross-reference table.
func (d *Document) Get(id ObjectId) (Value, error) {
	if int(id.Number) >= len(d.xref) {
		return Value{}, &ReferenceError{ID: id, Msg: "object number out of range"}
	}
	ent := d.xref[id.Number]
	if ent.ptr.ID != id.Number {
		return Value{}, &ReferenceError{ID: id, Msg: "no such object"}
	}
	if ent.ptr.Gen != id.Generation {
		return Value{}, &ReferenceError{ID: id, Msg: "generation mismatch"}
	}
	return d.resolve(ObjectId{}, xtbuf.ObjPtr{ID: id.Number, Gen: id.Generation})
}

// resolve dereferences x, which may be a raw scalar/Array/Dict/Stream
// already read from the file, or an xtbuf.ObjPtr naming an indirect
// object still to be loaded. parent is the ObjectId that x was read from,
// used as the resulting Value's identity when x is not itself a
// reference (so that further navigation from a dict/array value can still
// locate its containing object for inheritance lookups).
func (d *Document) resolve(parent ObjectId, x interface{}) (v Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = Value{}, panicToError(r)
		}
	}()

	ptr, isRef := x.(xtbuf.ObjPtr)
	if !isRef {
		switch x.(type) {
		case nil, bool, int64, float64, xtbuf.Name, xtbuf.LiteralString, xtbuf.HexString, xtbuf.Dict, xtbuf.Array, xtbuf.Stream, xtbuf.Comment:
			return Value{d, parent, x}, nil
		default:
			return Value{}, fmt.Errorf("unexpected internal value type %T", x)
		}
	}

	id := ObjectId{Number: ptr.ID, Generation: ptr.Gen}
	obj, err := d.loadObject(id, ptr)
	if err != nil {
		return Value{}, err
	}
	return Value{d, id, obj}, nil
}

// loadObject returns the decoded object body for ptr, using a single
// cache entry per object number and detecting resolution cycles. The
// discipline mirrors a borrow-then-drop pattern: the cache is consulted
// and released before any recursive parse, and only re-acquired to store
// the result, so a cycle reached through that recursive parse is detected
// via the in-flight set rather than deadlocking on a held lock.
func (d *Document) loadObject(id ObjectId, ptr xtbuf.ObjPtr) (interface{}, error) {
	d.mu.Lock()
	if obj, ok := d.cache[id.Number]; ok {
		d.mu.Unlock()
		return obj, nil
	}
	if d.inflight[id.Number] {
		d.mu.Unlock()
		return nil, &ReferenceError{ID: id, Msg: "cyclic object reference"}
	}
	d.inflight[id.Number] = true
	d.mu.Unlock()

	obj, err := d.parseObject(id, ptr)

	d.mu.Lock()
	delete(d.inflight, id.Number)
	if err == nil {
		d.cache[id.Number] = obj
	}
	d.mu.Unlock()

	return obj, err
}

func (d *Document) parseObject(id ObjectId, ptr xtbuf.ObjPtr) (interface{}, error) {
	if int(ptr.ID) >= len(d.xref) {
		return nil, &ReferenceError{ID: id, Msg: "object number out of range"}
	}
	ent := d.xref[ptr.ID]
	if ent.ptr != ptr && !ent.inStream {
		return nil, &ReferenceError{ID: id, Msg: "generation mismatch"}
	}

	if ent.inStream {
		return d.parseObjectInStream(id, ent)
	}
	if ent.offset == 0 {
		return nil, &ReferenceError{ID: id, Msg: "unresolved object"}
	}

	b := xtbuf.NewBuffer(io.NewSectionReader(d.f, ent.offset, d.end-ent.offset), ent.offset)
	obj := b.ReadObject()
	def, ok := obj.(xtbuf.ObjDef)
	if !ok {
		return nil, &ReferenceError{ID: id, Msg: fmt.Sprintf("expected an indirect object definition, found %T", obj)}
	}
	if def.Ptr != ptr {
		return nil, &ReferenceError{ID: id, Msg: fmt.Sprintf("object at offset %d is %d %d, not %d %d", ent.offset, def.Ptr.ID, def.Ptr.Gen, ptr.ID, ptr.Gen)}
	}
	return def.Obj, nil
}

func (d *Document) parseObjectInStream(id ObjectId, ent xrefEntry) (interface{}, error) {
	strmVal, err := d.resolve(ObjectId{}, ent.stream)
	if err != nil {
		return nil, err
	}
	for {
		if !strmVal.IsStream() {
			return nil, &ReferenceError{ID: id, Msg: "compressed object's container is not a stream"}
		}
		if strmVal.Kind() != KindObjectStream {
			return nil, &ReferenceError{ID: id, Msg: "compressed object's container is not an ObjStm"}
		}
		n := int(strmVal.Key("N").Int())
		first := strmVal.Key("First").Int()
		if first == 0 {
			return nil, &ReferenceError{ID: id, Msg: "object stream missing /First"}
		}
		body, err := d.streamBytes(strmVal)
		if err != nil {
			return nil, err
		}
		b := xtbuf.NewBuffer(bytes.NewReader(body), 0)
		b.AllowEOF = true
		for i := 0; i < n; i++ {
			num, _ := b.ReadToken().(int64)
			off, _ := b.ReadToken().(int64)
			if uint32(num) == ent.ptr.ID {
				b.SeekForward(first + off)
				return b.ReadObject(), nil
			}
		}
		ext, err := strmVal.AsKey("Extends")
		if err != nil || ext.Kind() != KindObjectStream {
			return nil, &ReferenceError{ID: id, Msg: "object not found in stream or its /Extends chain"}
		}
		strmVal = ext
	}
}

// streamBytes returns the fully decoded payload of the stream v, resolving
// /Length (which may itself be an indirect reference) and applying every
// filter named in /Filter in order, consulting /DecodeParms for each.
func (d *Document) streamBytes(v Value) ([]byte, error) {
	strm, ok := v.data.(xtbuf.Stream)
	if !ok {
		return nil, v.typeError(KindContentStream)
	}

	length, err := v.AsKey("Length")
	if err != nil {
		return nil, err
	}
	n, err := length.AsInt()
	if err != nil {
		return nil, &FilterError{Filter: "(length)", Err: err}
	}

	var rd io.Reader = io.NewSectionReader(d.f, strm.Offset, n)

	filterVal, err := v.AsKey("Filter")
	if err != nil {
		return nil, err
	}
	parmVal, err := v.AsKey("DecodeParms")
	if err != nil {
		return nil, err
	}

	switch filterVal.Kind() {
	case KindNull:
		// no filters
	case KindName:
		rd, err = d.applyFilter(rd, filterVal.Name(), parmVal)
		if err != nil {
			return nil, err
		}
	case KindArray:
		for i := 0; i < filterVal.Len(); i++ {
			rd, err = d.applyFilter(rd, filterVal.Index(i).Name(), parmVal.Index(i))
			if err != nil {
				return nil, err
			}
		}
	default:
		return nil, &FilterError{Filter: "(unknown)", Err: fmt.Errorf("/Filter has unexpected kind %s", filterVal.Kind())}
	}

	out, err := io.ReadAll(rd)
	if err != nil {
		return nil, &FilterError{Filter: filterVal.Name(), Err: err}
	}
	return out, nil
}

func (d *Document) applyFilter(rd io.Reader, name string, parm Value) (io.Reader, error) {
	if filter.IsOpaque(name) {
		// CCITTFax/JBIG2/DCT/JPX/Crypt are image or encryption codecs this
		// package does not decode; their payload is returned as-is so a
		// caller can still retrieve the raw stream bytes.
		return rd, nil
	}
	params := filter.Params{}
	if parm.Kind() == KindDict {
		if pv, err := parm.AsKey("Predictor"); err == nil && pv.Kind() == KindInt {
			params.Predictor = int(pv.Int())
		}
		if cv, err := parm.AsKey("Colors"); err == nil && cv.Kind() == KindInt {
			params.Colors = int(cv.Int())
		}
		if bv, err := parm.AsKey("BitsPerComponent"); err == nil && bv.Kind() == KindInt {
			params.BitsPerComponent = int(bv.Int())
		}
		if colv, err := parm.AsKey("Columns"); err == nil && colv.Kind() == KindInt {
			params.Columns = int(colv.Int())
		}
		if ev, err := parm.AsKey("EarlyChange"); err == nil && ev.Kind() == KindInt {
			params.EarlyChange = ev.Int() != 0
			params.EarlyChangeSet = true
		}
	}
	out, err := filter.Apply(name, params, rd)
	if err != nil {
		return nil, &FilterError{Filter: name, Err: err}
	}
	return out, nil
}

// scanForObject performs a bounded, lenient-mode-only search for "<id>
// <gen> obj" around an offset that failed to validate, used to recover a
// cross-reference table whose declared offsets have drifted.
func (d *Document) scanForObject(id uint32, gen uint16, approx int64, window int64) int64 {
	start := approx - window
	if start < 0 {
		start = 0
	}
	end := approx + window
	if end > d.end {
		end = d.end
	}
	if end <= start {
		return -1
	}
	buf := make([]byte, end-start)
	n, err := d.f.ReadAt(buf, start)
	if err != nil && err != io.EOF {
		return -1
	}
	buf = buf[:n]
	re := regexp.MustCompile(fmt.Sprintf(`\b%d\s+%d\s+obj\b`, id, gen))
	loc := re.FindIndex(buf)
	if loc == nil {
		return -1
	}
	return start + int64(loc[0])
}

func (d *Document) looksLikeObjectAt(off int64) bool {
	if off < 0 || off >= d.end {
		return false
	}
	buf := make([]byte, 32)
	n, err := d.f.ReadAt(buf, off)
	if err != nil && err != io.EOF {
		return false
	}
	s := strings.TrimLeft(string(buf[:n]), " \t\r\n\x00")
	return regexp.MustCompile(`^\d+\s+\d+\s+obj\b`).MatchString(s)
}
