// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"bytes"
	"fmt"

	"github.com/sassoftware/pdf-xtract/logger"
)

// Page represents a single page in a PDF file: a dictionary with /Type
// /Page found by walking the document's page tree.
type Page struct {
	V Value
}

// Catalog returns the document's /Root catalog dictionary, or a
// *MalformedCatalogError if the trailer's /Root is missing, is not a
// dictionary, or carries a /Type other than /Catalog. A /Root with no
// /Type entry is accepted.
func (d *Document) Catalog() (Value, error) {
	root := d.Trailer().Key("Root")
	if root.Kind() != KindDict {
		return Value{}, &MalformedCatalogError{Msg: "trailer /Root is missing or not a dictionary"}
	}
	if t := root.Key("Type").Name(); t != "" && t != "Catalog" {
		return Value{}, &MalformedCatalogError{Msg: fmt.Sprintf("trailer /Root has /Type %q, not /Catalog", t)}
	}
	return root, nil
}

// PageTree returns the root node of the document's page tree (the
// catalog's /Pages entry), or a *MalformedCatalogError if the catalog
// itself is malformed or /Pages is missing, is not a dictionary, or does
// not carry /Type /Pages.
func (d *Document) PageTree() (Value, error) {
	cat, err := d.Catalog()
	if err != nil {
		return Value{}, err
	}
	pages := cat.Key("Pages")
	if pages.Kind() != KindDict {
		return Value{}, &MalformedCatalogError{Msg: "catalog /Pages is missing or not a dictionary"}
	}
	if t := pages.Key("Type").Name(); t != "Pages" {
		return Value{}, &MalformedCatalogError{Msg: fmt.Sprintf("catalog /Pages has /Type %q, not /Pages", t)}
	}
	return pages, nil
}

// PageCount returns the number of pages in the document, taken from the
// /Count of the root of the page tree, or 0 if the catalog is malformed.
// Callers that need to distinguish a malformed catalog from a genuinely
// empty document should call PageTree directly.
func (d *Document) PageCount() int {
	root, err := d.PageTree()
	if err != nil {
		return 0
	}
	return int(root.Key("Count").Int())
}

// Page returns the num'th page, numbered from 1. If num is out of range or
// the catalog is malformed, it returns a Page whose V.IsNull() is true.
//
// The page tree is walked using each intermediate node's /Count, skipping
// whole subtrees that cannot contain the target page rather than
// flattening the tree up front.
func (d *Document) Page(num int) Page {
	logger.Debug("reading page", true)
	if num < 1 {
		return Page{}
	}
	remaining := num - 1 // convert to 0-indexed offset within the tree
	node, err := d.PageTree()
	if err != nil {
		return Page{}
	}

	for node.Key("Type").Name() == "Pages" {
		count := int(node.Key("Count").Int())
		if remaining >= count {
			return Page{}
		}
		kids := node.Key("Kids")
		advanced := false
		for i := 0; i < kids.Len(); i++ {
			kid := kids.Index(i)
			switch kid.Key("Type").Name() {
			case "Pages":
				c := int(kid.Key("Count").Int())
				if remaining < c {
					node = kid
					advanced = true
				} else {
					remaining -= c
				}
			case "Page":
				if remaining == 0 {
					return Page{kid}
				}
				remaining--
			}
			if advanced {
				break
			}
		}
		if !advanced {
			return Page{}
		}
	}
	return Page{}
}

// Attribute looks up key in the page dictionary and, when the page does not
// set it, in each ancestor reached through /Parent in turn. Every key is
// looked up this way, not only the attributes the PDF grammar marks as
// inheritable. It reports false if the key is absent from the page and
// every ancestor.
func (p Page) Attribute(key string) (Value, bool) {
	for v := p.V; !v.IsNull(); v = v.Key("Parent") {
		if r := v.Key(key); !r.IsNull() {
			return r, true
		}
	}
	return Value{}, false
}

// Resources returns the page's /Resources dictionary, following /Parent
// inheritance if the page itself does not set one.
func (p Page) Resources() Value {
	v, _ := p.Attribute("Resources")
	return v
}

// MediaBox returns the page's /MediaBox array, following /Parent
// inheritance if the page itself does not set one.
func (p Page) MediaBox() Value {
	v, _ := p.Attribute("MediaBox")
	return v
}

// ContentBytes returns the page's decoded content stream bytes. A page's
// /Contents may be a single stream or an array of streams; per the PDF
// grammar the array form is logically one stream, so its members are
// decoded individually and concatenated with an interleaving whitespace
// byte (each stream's own tokens are otherwise self-terminating, but nothing
// guarantees a trailing delimiter at a stream boundary).
func (p Page) ContentBytes() ([]byte, error) {
	contents := p.V.Key("Contents")
	switch {
	case contents.Kind() == KindNull:
		return nil, nil
	case contents.IsStream():
		return contents.ContentBytes()
	case contents.Kind() == KindArray:
		var buf bytes.Buffer
		for i := 0; i < contents.Len(); i++ {
			b, err := contents.Index(i).ContentBytes()
			if err != nil {
				return nil, err
			}
			if i > 0 {
				buf.WriteByte('\n')
			}
			buf.Write(b)
		}
		return buf.Bytes(), nil
	default:
		return nil, &TypeError{Want: KindContentStream, Got: contents.Kind()}
	}
}
