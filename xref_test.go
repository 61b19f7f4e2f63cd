// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bigEndianField encodes val into a width-byte big-endian field, as used by
// cross-reference stream rows.
func bigEndianField(width int, val int64) []byte {
	out := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		out[i] = byte(val & 0xff)
		val >>= 8
	}
	return out
}

// xrefStreamPDF builds a PDF 1.5-style file whose cross-reference section
// is a stream, with one page compressed inside an object stream:
//
//	1: Catalog
//	2: Pages (Kids [3], Count 1)
//	3: Page (compressed in object stream 4, index 0)
//	4: ObjStm containing object 3
//	5: content stream for the page
//	6: the cross-reference stream itself, self-referencing
func xrefStreamPDF(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n")
	offsets := make(map[int]int64)

	offsets[1] = int64(buf.Len())
	buf.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	offsets[2] = int64(buf.Len())
	buf.WriteString("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")

	pairs := "3 0 "
	pageDict := "<< /Type /Page /Parent 2 0 R /Contents 5 0 R /Resources << >> >>"
	objStmBody := pairs + pageDict
	offsets[4] = int64(buf.Len())
	fmt.Fprintf(&buf, "4 0 obj\n<< /Type /ObjStm /N 1 /First %d /Length %d >>\nstream\n", len(pairs), len(objStmBody))
	buf.WriteString(objStmBody)
	buf.WriteString("\nendstream\nendobj\n")

	content := "BT ET"
	offsets[5] = int64(buf.Len())
	fmt.Fprintf(&buf, "5 0 obj\n<< /Length %d >>\nstream\n", len(content))
	buf.WriteString(content)
	buf.WriteString("\nendstream\nendobj\n")

	offsets[6] = int64(buf.Len())

	const size = 7
	w := [3]int{1, 4, 2}
	var rows bytes.Buffer
	// object 0: free list head
	rows.Write(bigEndianField(w[0], 0))
	rows.Write(bigEndianField(w[1], 0))
	rows.Write(bigEndianField(w[2], 65535))
	// object 1, 2: in use, uncompressed
	for _, id := range []int{1, 2} {
		rows.Write(bigEndianField(w[0], 1))
		rows.Write(bigEndianField(w[1], offsets[id]))
		rows.Write(bigEndianField(w[2], 0))
	}
	// object 3: compressed, inside object 4 at index 0
	rows.Write(bigEndianField(w[0], 2))
	rows.Write(bigEndianField(w[1], 4))
	rows.Write(bigEndianField(w[2], 0))
	// object 4, 5: in use, uncompressed
	for _, id := range []int{4, 5} {
		rows.Write(bigEndianField(w[0], 1))
		rows.Write(bigEndianField(w[1], offsets[id]))
		rows.Write(bigEndianField(w[2], 0))
	}
	// object 6: the xref stream itself, self-referencing
	rows.Write(bigEndianField(w[0], 1))
	rows.Write(bigEndianField(w[1], offsets[6]))
	rows.Write(bigEndianField(w[2], 0))

	fmt.Fprintf(&buf, "6 0 obj\n<< /Type /XRef /Size %d /W [%d %d %d] /Root 1 0 R /Length %d >>\nstream\n",
		size, w[0], w[1], w[2], rows.Len())
	buf.Write(rows.Bytes())
	buf.WriteString("\nendstream\nendobj\n")

	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", offsets[6])
	return buf.Bytes()
}

func TestXrefStreamWithCompressedObject(t *testing.T) {
	data := xrefStreamPDF(t)
	doc, err := NewDocument(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	assert.Equal(t, 1, doc.PageCount())
	page := doc.Page(1)
	require.False(t, page.V.IsNull())
	assert.Equal(t, "Page", page.V.Key("Type").Name())

	content, err := page.ContentBytes()
	require.NoError(t, err)
	assert.Equal(t, "BT ET", string(content))
}

func TestPrevChainMerge(t *testing.T) {
	// First revision: objects 1 (Catalog), 2 (Pages) and 3 (Page) with a
	// classical xref table.
	b := newPDFBuilder()
	b.Obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.Obj(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.Obj(3, "<< /Type /Page /Parent 2 0 R /Resources << >> >>")
	firstXrefOffset := int64(b.buf.Len())
	size := b.maxID + 1
	fmt.Fprintf(&b.buf, "xref\n0 %d\n", size)
	b.buf.WriteString("0000000000 65535 f \n")
	for id := 1; id < size; id++ {
		fmt.Fprintf(&b.buf, "%010d 00000 n \n", b.offsets[id])
	}
	fmt.Fprintf(&b.buf, "trailer\n<< /Size %d /Root 1 0 R >>\n", size)
	fmt.Fprintf(&b.buf, "startxref\n%d\n%%%%EOF\n", firstXrefOffset)

	// Second revision: only object 3 is rewritten (a new /Rotate key), and
	// the new xref table's trailer points back at the first via /Prev.
	b.Obj(3, "<< /Type /Page /Parent 2 0 R /Resources << >> /Rotate 90 >>")
	secondXrefOffset := int64(b.buf.Len())
	fmt.Fprintf(&b.buf, "xref\n3 1\n%010d 00000 n \n", b.offsets[3])
	fmt.Fprintf(&b.buf, "trailer\n<< /Size %d /Root 1 0 R /Prev %d >>\n", size, firstXrefOffset)
	fmt.Fprintf(&b.buf, "startxref\n%d\n%%%%EOF\n", secondXrefOffset)

	data := b.buf.Bytes()
	doc, err := NewDocument(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	page := doc.Page(1)
	require.False(t, page.V.IsNull())
	assert.Equal(t, int64(90), page.V.Key("Rotate").Int())

	// Object 1 and 2 only exist in the older revision and must still
	// resolve through the merged /Prev chain.
	root := doc.Trailer().Key("Root")
	assert.Equal(t, "Catalog", root.Key("Type").Name())
}

func TestPrevChainCycleDetected(t *testing.T) {
	b := newPDFBuilder()
	b.Obj(1, "<< /Type /Catalog /Pages 1 0 R >>")
	firstXrefOffset := int64(b.buf.Len())
	size := b.maxID + 1
	fmt.Fprintf(&b.buf, "xref\n0 %d\n", size)
	b.buf.WriteString("0000000000 65535 f \n")
	fmt.Fprintf(&b.buf, "%010d 00000 n \n", b.offsets[1])
	// A trailer whose /Prev points at itself: an obviously corrupt file
	// that must be rejected rather than looped over forever.
	fmt.Fprintf(&b.buf, "trailer\n<< /Size %d /Root 1 0 R /Prev %d >>\n", size, firstXrefOffset)
	fmt.Fprintf(&b.buf, "startxref\n%d\n%%%%EOF\n", firstXrefOffset)

	data := b.buf.Bytes()
	_, err := NewDocument(bytes.NewReader(data), int64(len(data)))
	require.Error(t, err)
	var mxe *MalformedXrefError
	require.ErrorAs(t, err, &mxe)
	assert.Contains(t, mxe.Msg, "loops back")
}
