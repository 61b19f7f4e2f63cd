// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogValid(t *testing.T) {
	data := minimalOnePagePDF()
	doc, err := NewDocument(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	cat, err := doc.Catalog()
	require.NoError(t, err)
	assert.Equal(t, "Catalog", cat.Key("Type").Name())

	tree, err := doc.PageTree()
	require.NoError(t, err)
	assert.Equal(t, "Pages", tree.Key("Type").Name())
}

func TestCatalogMissingRoot(t *testing.T) {
	b := newPDFBuilder()
	b.Obj(1, "<< /Foo /Bar >>")
	data := b.Finish(2) // /Root 2 0 R names an object that was never written
	doc, err := NewDocument(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	_, err = doc.Catalog()
	require.Error(t, err)
	var mce *MalformedCatalogError
	require.ErrorAs(t, err, &mce)

	assert.Equal(t, 0, doc.PageCount())
	assert.True(t, doc.Page(1).V.IsNull())
}

func TestCatalogWrongType(t *testing.T) {
	b := newPDFBuilder()
	b.Obj(1, "<< /Type /NotACatalog /Pages 2 0 R >>")
	b.Obj(2, "<< /Type /Pages /Kids [] /Count 0 >>")
	data := b.Finish(1)
	doc, err := NewDocument(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	_, err = doc.Catalog()
	require.Error(t, err)
	var mce *MalformedCatalogError
	require.ErrorAs(t, err, &mce)
	assert.Equal(t, 0, doc.PageCount())
}

func TestPageTreeMissingPages(t *testing.T) {
	b := newPDFBuilder()
	b.Obj(1, "<< /Type /Catalog >>")
	data := b.Finish(1)
	doc, err := NewDocument(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	_, err = doc.PageTree()
	require.Error(t, err)
	var mce *MalformedCatalogError
	require.ErrorAs(t, err, &mce)
	assert.Equal(t, 0, doc.PageCount())
}

func TestPageTreeWrongType(t *testing.T) {
	b := newPDFBuilder()
	b.Obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.Obj(2, "<< /Type /NotPages /Kids [] /Count 0 >>")
	data := b.Finish(1)
	doc, err := NewDocument(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	_, err = doc.PageTree()
	require.Error(t, err)
	var mce *MalformedCatalogError
	require.ErrorAs(t, err, &mce)
}
