// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import "github.com/sassoftware/pdf-xtract/logger"

// Meta is the document metadata recorded in the trailer's /Info
// dictionary. XMP metadata streams, access-permission flags, and
// encryption details are out of scope; see DESIGN.md.
type Meta struct {
	Title        string
	Author       string
	Subject      string
	Keywords     string
	Creator      string
	Producer     string
	CreationDate string
	ModDate      string
}

// InfoDict returns the trailer's /Info dictionary as a Value, which is
// null if the file has none.
func (d *Document) InfoDict() Value {
	return d.Trailer().Key("Info")
}

// Metadata returns the document metadata recorded in /Info. Any field not
// present in the dictionary is left as the empty string.
func (d *Document) Metadata() Meta {
	logger.Debug("reading /Info metadata", true)
	info := d.InfoDict()
	return Meta{
		Title:        info.Key("Title").RawString(),
		Author:       info.Key("Author").RawString(),
		Subject:      info.Key("Subject").RawString(),
		Keywords:     info.Key("Keywords").RawString(),
		Creator:      info.Key("Creator").RawString(),
		Producer:     info.Key("Producer").RawString(),
		CreationDate: info.Key("CreationDate").RawString(),
		ModDate:      info.Key("ModDate").RawString(),
	}
}
