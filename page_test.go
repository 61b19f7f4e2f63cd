// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageCount(t *testing.T) {
	data := twoPagePDFWithInheritedMediaBox()
	doc, err := NewDocument(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, 2, doc.PageCount())
}

func TestPageOutOfRange(t *testing.T) {
	data := minimalOnePagePDF()
	doc, err := NewDocument(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	assert.True(t, doc.Page(0).V.IsNull())
	assert.True(t, doc.Page(2).V.IsNull())
}

func TestPageWalksSecondKid(t *testing.T) {
	data := twoPagePDFWithInheritedMediaBox()
	doc, err := NewDocument(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	p1 := doc.Page(1)
	p2 := doc.Page(2)
	require.False(t, p1.V.IsNull())
	require.False(t, p2.V.IsNull())
	assert.Equal(t, "Page", p1.V.Key("Type").Name())
	assert.Equal(t, "Page", p2.V.Key("Type").Name())
}

func TestMediaBoxInheritedFromPagesNode(t *testing.T) {
	data := twoPagePDFWithInheritedMediaBox()
	doc, err := NewDocument(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	page := doc.Page(1)
	box := page.MediaBox()
	require.False(t, box.IsNull())
	assert.Equal(t, 4, box.Len())
	assert.Equal(t, 200.0, box.Index(2).Real())
}

func TestAttributeNotFoundAnywhereInChain(t *testing.T) {
	data := twoPagePDFWithInheritedMediaBox()
	doc, err := NewDocument(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	page := doc.Page(1)
	_, ok := page.Attribute("Rotate")
	assert.False(t, ok)
}

func TestContentBytesArrayOfStreams(t *testing.T) {
	b := newPDFBuilder()
	b.Obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.Obj(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.Obj(3, "<< /Type /Page /Parent 2 0 R /Contents [4 0 R 5 0 R] /Resources << >> >>")
	b.Stream(4, "", []byte("BT"))
	b.Stream(5, "", []byte("ET"))
	data := b.Finish(1)

	doc, err := NewDocument(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	content, err := doc.Page(1).ContentBytes()
	require.NoError(t, err)
	assert.Equal(t, "BT\nET", string(content))
}

func TestContentBytesNoContents(t *testing.T) {
	b := newPDFBuilder()
	b.Obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.Obj(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.Obj(3, "<< /Type /Page /Parent 2 0 R /Resources << >> >>")
	data := b.Finish(1)

	doc, err := NewDocument(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	content, err := doc.Page(1).ContentBytes()
	require.NoError(t, err)
	assert.Nil(t, content)
}
