// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"fmt"
	"io"

	"github.com/sassoftware/pdf-xtract/internal/xtbuf"
	"github.com/sassoftware/pdf-xtract/logger"
)

// readXref parses the cross-reference section located at b's current
// position, which is either a classical "xref" table or, in a PDF 1.5+
// file, an xref stream object beginning directly with its object number.
func readXref(d *Document, b *xtbuf.Buffer) ([]xrefEntry, ObjectId, xtbuf.Dict, error) {
	tok := b.ReadToken()
	if tok == xtbuf.Keyword("xref") {
		logger.Debug("found xref table", true)
		return readXrefTable(d, b)
	}
	if _, ok := tok.(int64); ok {
		b.UnreadToken(tok)
		logger.Debug("found xref stream", true)
		return readXrefStream(d, b)
	}
	return nil, ObjectId{}, nil, &MalformedXrefError{Msg: fmt.Sprintf("expected xref table or stream, found %#v", tok)}
}

// --- xref streams (PDF 1.5+) -------------------------------------------------

func readXrefStream(d *Document, b *xtbuf.Buffer) ([]xrefEntry, ObjectId, xtbuf.Dict, error) {
	ptr, strm, err := parseXrefStreamObject(b)
	if err != nil {
		return nil, ObjectId{}, nil, err
	}
	size, ok := strm.Hdr["Size"].(int64)
	if !ok {
		return nil, ObjectId{}, nil, &MalformedXrefError{Msg: "xref stream missing /Size"}
	}
	table := make([]xrefEntry, size)
	table, err = readXrefStreamData(d, strm, table, size)
	if err != nil {
		return nil, ObjectId{}, nil, err
	}
	table, err = mergePrevXrefStreams(d, strm, table, size)
	if err != nil {
		return nil, ObjectId{}, nil, err
	}
	id := ObjectId{Number: ptr.ID, Generation: ptr.Gen}
	return table, id, strm.Hdr, nil
}

// parseXrefStreamObject reads one indirect object from b and verifies it
// is a stream whose /Type is /XRef.
func parseXrefStreamObject(b *xtbuf.Buffer) (xtbuf.ObjPtr, xtbuf.Stream, error) {
	obj := b.ReadObject()
	def, ok := obj.(xtbuf.ObjDef)
	if !ok {
		return xtbuf.ObjPtr{}, xtbuf.Stream{}, &MalformedXrefError{Msg: fmt.Sprintf("expected an indirect object, found %T", obj)}
	}
	strm, ok := def.Obj.(xtbuf.Stream)
	if !ok {
		return xtbuf.ObjPtr{}, xtbuf.Stream{}, &MalformedXrefError{Msg: "cross-reference stream object is not a stream"}
	}
	if strm.Hdr["Type"] != xtbuf.Name("XRef") {
		return xtbuf.ObjPtr{}, xtbuf.Stream{}, &MalformedXrefError{Msg: "xref stream missing /Type /XRef"}
	}
	return def.Ptr, strm, nil
}

// mergePrevXrefStreams walks the /Prev chain of cross-reference streams,
// merging each older table's entries underneath the entries already
// present (the newest table's entries always win).
func mergePrevXrefStreams(d *Document, cur xtbuf.Stream, table []xrefEntry, maxSize int64) ([]xrefEntry, error) {
	for prevOff := cur.Hdr["Prev"]; prevOff != nil; {
		off, ok := prevOff.(int64)
		if !ok {
			return nil, &MalformedXrefError{Msg: "xref /Prev is not an integer"}
		}
		b := xtbuf.NewBuffer(io.NewSectionReader(d.f, off, d.end-off), off)
		_, prevStrm, err := parseXrefStreamObject(b)
		if err != nil {
			return nil, err
		}
		prevOff = prevStrm.Hdr["Prev"]

		psize, ok := prevStrm.Hdr["Size"].(int64)
		if !ok {
			return nil, &MalformedXrefError{Msg: "xref /Prev stream missing /Size"}
		}
		if psize > maxSize {
			psize = maxSize
		}
		table, err = readXrefStreamData(d, prevStrm, table, psize)
		if err != nil {
			return nil, err
		}
	}
	return table, nil
}

func readXrefStreamData(d *Document, strm xtbuf.Stream, table []xrefEntry, size int64) ([]xrefEntry, error) {
	ww, ok := strm.Hdr["W"].(xtbuf.Array)
	if !ok || len(ww) < 3 {
		return nil, &MalformedXrefError{Msg: "xref stream missing valid /W array"}
	}
	var w [3]int
	for i := 0; i < 3; i++ {
		x, ok := ww[i].(int64)
		if !ok || x < 0 {
			return nil, &MalformedXrefError{Msg: "xref stream /W entry is not a non-negative integer"}
		}
		w[i] = int(x)
	}

	index, _ := strm.Hdr["Index"].(xtbuf.Array)
	if index == nil {
		index = xtbuf.Array{int64(0), size}
	}
	if len(index)%2 != 0 {
		return nil, &MalformedXrefError{Msg: "xref stream /Index has odd length"}
	}

	strmVal := Value{d, ObjectId{}, strm}
	body, err := d.streamBytes(strmVal)
	if err != nil {
		return nil, err
	}

	wtotal := w[0] + w[1] + w[2]
	if wtotal == 0 {
		return nil, &MalformedXrefError{Msg: "xref stream /W entries are all zero"}
	}

	pos := 0
	for len(index) > 0 {
		start, ok1 := index[0].(int64)
		count, ok2 := index[1].(int64)
		if !ok1 || !ok2 {
			return nil, &MalformedXrefError{Msg: "malformed xref stream /Index pair"}
		}
		index = index[2:]
		for i := int64(0); i < count; i++ {
			if pos+wtotal > len(body) {
				return nil, &MalformedXrefError{Msg: "xref stream body shorter than /Index declares"}
			}
			row := body[pos : pos+wtotal]
			pos += wtotal

			f1 := decodeXrefInt(row[0:w[0]])
			if w[0] == 0 {
				f1 = 1
			}
			f2 := decodeXrefInt(row[w[0] : w[0]+w[1]])
			f3 := decodeXrefInt(row[w[0]+w[1] : w[0]+w[1]+w[2]])

			x := int(start) + int(i)
			for len(table) <= x {
				table = append(table, xrefEntry{})
			}
			if table[x].ptr != (xtbuf.ObjPtr{}) {
				continue
			}
			switch f1 {
			case 0:
				table[x] = xrefEntry{ptr: xtbuf.ObjPtr{ID: 0, Gen: 65535}}
			case 1:
				table[x] = xrefEntry{ptr: xtbuf.ObjPtr{ID: uint32(x), Gen: uint16(f3)}, offset: int64(f2)}
			case 2:
				table[x] = xrefEntry{ptr: xtbuf.ObjPtr{ID: uint32(x), Gen: 0}, inStream: true, stream: xtbuf.ObjPtr{ID: uint32(f2), Gen: 0}, offset: int64(f3)}
			default:
				logger.Debug(fmt.Sprintf("xref stream: unknown entry type %d for object %d, skipped", f1, x))
			}
		}
	}
	return table, nil
}

func decodeXrefInt(b []byte) int64 {
	var x int64
	for _, c := range b {
		x = x<<8 | int64(c)
	}
	return x
}

// --- classical xref tables ---------------------------------------------------

func readXrefTable(d *Document, b *xtbuf.Buffer) ([]xrefEntry, ObjectId, xtbuf.Dict, error) {
	table, trailer, err := parseXrefTableAndTrailer(b, nil)
	if err != nil {
		return nil, ObjectId{}, nil, err
	}

	table, trailer, err = handleHybridXRefStm(d, table, trailer)
	if err != nil {
		return nil, ObjectId{}, nil, err
	}

	table, trailer, err = resolvePrevXrefTables(d, trailer, table)
	if err != nil {
		return nil, ObjectId{}, nil, err
	}

	size, ok := trailer[xtbuf.Name("Size")].(int64)
	if !ok {
		return nil, ObjectId{}, nil, &MalformedTrailerError{Msg: "trailer missing /Size"}
	}
	if size < int64(len(table)) {
		table = table[:size]
	}

	return table, ObjectId{}, trailer, nil
}

func parseXrefTableAndTrailer(b *xtbuf.Buffer, table []xrefEntry) ([]xrefEntry, xtbuf.Dict, error) {
	table, err := readXrefTableData(b, table)
	if err != nil {
		return nil, nil, err
	}
	trailer, ok := b.ReadObject().(xtbuf.Dict)
	if !ok {
		return nil, nil, &MalformedTrailerError{Msg: "xref table not followed by a trailer dictionary"}
	}
	return table, trailer, nil
}

func readXrefTableData(b *xtbuf.Buffer, table []xrefEntry) ([]xrefEntry, error) {
	for {
		tok := b.ReadToken()
		if tok == xtbuf.Keyword("trailer") {
			break
		}
		start, ok1 := tok.(int64)
		count, ok2 := b.ReadToken().(int64)
		if !ok1 || !ok2 || start < 0 || count < 0 {
			return nil, &MalformedXrefError{Msg: "malformed xref subsection header"}
		}
		for i := int64(0); i < count; i++ {
			offTok, genTok, kindTok := b.ReadToken(), b.ReadToken(), b.ReadToken()
			off, okOff := offTok.(int64)
			gen, okGen := genTok.(int64)
			kind, okKind := kindTok.(xtbuf.Keyword)
			if !okOff || !okGen || !okKind {
				return nil, &MalformedXrefError{Msg: fmt.Sprintf("malformed xref entry in subsection starting at %d", start)}
			}
			idx := int(start + i)
			for len(table) <= idx {
				table = append(table, xrefEntry{})
			}
			switch kind {
			case xtbuf.Keyword("n"):
				if table[idx].ptr == (xtbuf.ObjPtr{}) {
					table[idx] = xrefEntry{ptr: xtbuf.ObjPtr{ID: uint32(idx), Gen: uint16(gen)}, offset: off}
				}
			case xtbuf.Keyword("f"):
				// free entry: slot already defaulted to the zero entry
			default:
				return nil, &MalformedXrefError{Msg: fmt.Sprintf("unexpected xref allocation marker %q", kind)}
			}
		}
	}
	return table, nil
}

func resolvePrevXrefTables(d *Document, trailer xtbuf.Dict, table []xrefEntry) ([]xrefEntry, xtbuf.Dict, error) {
	seen := map[int64]bool{}
	for prevOff := trailer[xtbuf.Name("Prev")]; prevOff != nil; {
		off, ok := prevOff.(int64)
		if !ok {
			return nil, nil, &MalformedXrefError{Msg: "xref /Prev is not an integer"}
		}
		if seen[off] {
			return nil, nil, &MalformedXrefError{Msg: "xref /Prev chain loops back on itself"}
		}
		seen[off] = true

		b := xtbuf.NewBuffer(io.NewSectionReader(d.f, off, d.end-off), off)
		tok := b.ReadToken()
		if tok != xtbuf.Keyword("xref") {
			return nil, nil, &MalformedXrefError{Msg: "xref /Prev does not point at an xref table"}
		}
		var err error
		table, trailer, err = parseXrefTableAndTrailer(b, table)
		if err != nil {
			return nil, nil, err
		}
		table, trailer, err = handleHybridXRefStm(d, table, trailer)
		if err != nil {
			return nil, nil, err
		}
		prevOff = trailer[xtbuf.Name("Prev")]
	}
	return table, trailer, nil
}

// handleHybridXRefStm merges the table named by a hybrid-reference file's
// /XRefStm entry (a classical table whose trailer also names a
// cross-reference stream carrying the compressed-object entries the
// table's own producer couldn't express) into table.
func handleHybridXRefStm(d *Document, table []xrefEntry, trailer xtbuf.Dict) ([]xrefEntry, xtbuf.Dict, error) {
	xrefstm := trailer[xtbuf.Name("XRefStm")]
	if xrefstm == nil {
		return table, trailer, nil
	}
	off, ok := xrefstm.(int64)
	if !ok {
		return nil, nil, &MalformedXrefError{Msg: "/XRefStm is not an integer"}
	}
	b := xtbuf.NewBuffer(io.NewSectionReader(d.f, off, d.end-off), off)
	streamTable, _, _, err := readXrefStream(d, b)
	if err != nil {
		return nil, nil, err
	}
	return mergeXrefTables(table, streamTable), trailer, nil
}

// mergeXrefTables overlays src on top of dest: an empty dest slot takes
// src's entry, and a dest slot already holding an in-use entry is left
// untouched (the classical table it came from is the more specific,
// newer source for hybrid files).
func mergeXrefTables(dest, src []xrefEntry) []xrefEntry {
	if len(src) > len(dest) {
		grown := make([]xrefEntry, len(src))
		copy(grown, dest)
		dest = grown
	}
	for i, s := range src {
		if s.ptr == (xtbuf.ObjPtr{}) {
			continue
		}
		if dest[i].ptr == (xtbuf.ObjPtr{}) {
			dest[i] = s
		}
	}
	return dest
}
