// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindString(t *testing.T) {
	assert.Equal(t, "integer", KindInt.String())
	assert.Equal(t, "dictionary", KindDict.String())
	assert.Equal(t, "unknown", Kind(99).String())
}

func TestValueZeroIsNull(t *testing.T) {
	var v Value
	assert.True(t, v.IsNull())
	assert.Equal(t, KindNull, v.Kind())
}

func TestAsIntTypeMismatch(t *testing.T) {
	data := minimalOnePagePDF()
	doc, err := NewDocument(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	root := doc.Trailer().Key("Root")
	_, err = root.AsInt()
	require.Error(t, err)
	var te *TypeError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, KindInt, te.Want)
	assert.Equal(t, KindDict, te.Got)

	// The zero-value-safe form swallows the same mismatch.
	assert.Equal(t, int64(0), root.Int())
}

func TestAsRealAcceptsInteger(t *testing.T) {
	data := minimalOnePagePDF()
	doc, err := NewDocument(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	count := doc.Trailer().Key("Root").Key("Pages").Key("Count")
	r, err := count.AsReal()
	require.NoError(t, err)
	assert.Equal(t, 1.0, r)
}

func TestIndexOutOfRange(t *testing.T) {
	data := twoPagePDFWithInheritedMediaBox()
	doc, err := NewDocument(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	kids := doc.Trailer().Key("Root").Key("Pages").Key("Kids")
	require.Equal(t, 2, kids.Len())

	_, err = kids.AsIndex(5)
	require.Error(t, err)
	var re *ReferenceError
	assert.ErrorAs(t, err, &re)
	assert.Equal(t, Value{}, kids.Index(5))
}

func TestKeyOnMissingReturnsNull(t *testing.T) {
	data := minimalOnePagePDF()
	doc, err := NewDocument(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	root := doc.Trailer().Key("Root")
	v, err := root.AsKey("NoSuchKey")
	require.NoError(t, err)
	assert.True(t, v.IsNull())
}

func TestKeysSorted(t *testing.T) {
	data := minimalOnePagePDF()
	doc, err := NewDocument(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	page := doc.Page(1)
	keys := page.V.Keys()
	assert.Contains(t, keys, "Type")
	assert.Contains(t, keys, "Parent")
	assert.Contains(t, keys, "MediaBox")
	assert.IsIncreasing(t, keys)
}

func TestContentBytesTypeError(t *testing.T) {
	data := minimalOnePagePDF()
	doc, err := NewDocument(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	root := doc.Trailer().Key("Root")
	_, err = root.ContentBytes()
	require.Error(t, err)
	var te *TypeError
	assert.ErrorAs(t, err, &te)
}
