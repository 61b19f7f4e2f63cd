// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/sassoftware/pdf-xtract/internal/xtbuf"
)

// ObjectId identifies an indirect object by object number and generation.
type ObjectId struct {
	Number     uint32
	Generation uint16
}

func (id ObjectId) String() string {
	return fmt.Sprintf("%d %d R", id.Number, id.Generation)
}

// Kind identifies the underlying representation of a Value. PDF's literal
// "(...)" and hexadecimal "<...>" strings are kept as distinct Kinds rather
// than merged into one String kind: they differ in source syntax and, for
// strings carrying binary data, a caller inspecting Kind can tell which
// convention produced the bytes.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindReal
	KindName
	KindLiteralString
	KindHexString
	KindArray
	KindDict
	KindContentStream
	KindBinaryStream
	KindObjectStream
	KindComment
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindInt:
		return "integer"
	case KindReal:
		return "real"
	case KindName:
		return "name"
	case KindLiteralString:
		return "literal string"
	case KindHexString:
		return "hex string"
	case KindArray:
		return "array"
	case KindDict:
		return "dictionary"
	case KindContentStream:
		return "content stream"
	case KindBinaryStream:
		return "binary stream"
	case KindObjectStream:
		return "object stream"
	case KindComment:
		return "comment"
	}
	return "unknown"
}

// StreamTag further classifies a KindBinaryStream Value by the dictionary
// key that produced the classification. It is StreamTagNone for any other
// Kind, including KindContentStream and KindObjectStream, which carry no
// further sub-classification.
type StreamTag int

const (
	StreamTagNone StreamTag = iota
	StreamTagXRef
	StreamTagImage
	StreamTagMetadata
)

func (t StreamTag) String() string {
	switch t {
	case StreamTagXRef:
		return "XRef"
	case StreamTagImage:
		return "Image"
	case StreamTagMetadata:
		return "Metadata"
	}
	return ""
}

// classifyStream implements the stream classification rule: a stream whose
// dictionary names it /Type /ObjStm is an ObjectStream; /Type /XRef,
// /Type /Metadata, or /Subtype /Image produce a BinaryStream tagged
// accordingly; anything else is a ContentStream. The check is purely
// structural (it does not resolve indirect /Type or /Subtype values), since
// every producer that intends a stream to be classified writes these keys
// directly.
func classifyStream(hdr xtbuf.Dict) (Kind, StreamTag) {
	if n, ok := hdr[xtbuf.Name("Type")].(xtbuf.Name); ok {
		switch n {
		case "XRef":
			return KindBinaryStream, StreamTagXRef
		case "ObjStm":
			return KindObjectStream, StreamTagNone
		case "Metadata":
			return KindBinaryStream, StreamTagMetadata
		}
	}
	if n, ok := hdr[xtbuf.Name("Subtype")].(xtbuf.Name); ok && n == "Image" {
		return KindBinaryStream, StreamTagImage
	}
	return KindContentStream, StreamTagNone
}

// Value is a single resolved PDF value: a scalar, a name, a string, an
// array, a dictionary, or a stream. The zero Value is a PDF null.
//
// Any xtbuf.ObjPtr (indirect reference) encountered while navigating into a
// Value is resolved transparently before the result is wrapped, so Kind
// and the accessors below never observe a reference directly.
type Value struct {
	doc  *Document
	ptr  ObjectId
	data interface{}
}

// IsNull reports whether v is a PDF null. Equivalent to Kind() == KindNull.
func (v Value) IsNull() bool {
	return v.data == nil
}

// Kind reports the kind of value underlying v.
func (v Value) Kind() Kind {
	switch x := v.data.(type) {
	case bool:
		return KindBool
	case int64:
		return KindInt
	case float64:
		return KindReal
	case xtbuf.Name:
		return KindName
	case xtbuf.LiteralString:
		return KindLiteralString
	case xtbuf.HexString:
		return KindHexString
	case xtbuf.Array:
		return KindArray
	case xtbuf.Dict:
		return KindDict
	case xtbuf.Stream:
		k, _ := classifyStream(x.Hdr)
		return k
	case xtbuf.Comment:
		return KindComment
	}
	return KindNull
}

// IsStream reports whether v is any of the three stream Kinds
// (KindContentStream, KindBinaryStream, or KindObjectStream).
func (v Value) IsStream() bool {
	switch v.Kind() {
	case KindContentStream, KindBinaryStream, KindObjectStream:
		return true
	}
	return false
}

// StreamTag reports the sub-classification of a KindBinaryStream Value
// (StreamTagXRef, StreamTagImage, or StreamTagMetadata), or StreamTagNone
// for any other Value, including the other two stream Kinds.
func (v Value) StreamTag() StreamTag {
	strm, ok := v.data.(xtbuf.Stream)
	if !ok {
		return StreamTagNone
	}
	_, tag := classifyStream(strm.Hdr)
	return tag
}

// AsComment returns the text of a free-standing top-level comment (without
// its leading %), or a *TypeError if v.Kind() != KindComment.
func (v Value) AsComment() (string, error) {
	x, ok := v.data.(xtbuf.Comment)
	if !ok {
		return "", v.typeError(KindComment)
	}
	return string(x), nil
}

// Comment returns v's comment text, or the empty string if
// v.Kind() != KindComment.
func (v Value) Comment() string {
	x, _ := v.AsComment()
	return x
}

func (v Value) typeError(want Kind) error {
	return &TypeError{Want: want, Got: v.Kind()}
}

// AsBool returns v's boolean value, or a *TypeError if v.Kind() != KindBool.
func (v Value) AsBool() (bool, error) {
	x, ok := v.data.(bool)
	if !ok {
		return false, v.typeError(KindBool)
	}
	return x, nil
}

// Bool returns v's boolean value, or false if v.Kind() != KindBool.
func (v Value) Bool() bool {
	x, _ := v.AsBool()
	return x
}

// AsInt returns v's integer value, or a *TypeError if v.Kind() != KindInt.
func (v Value) AsInt() (int64, error) {
	x, ok := v.data.(int64)
	if !ok {
		return 0, v.typeError(KindInt)
	}
	return x, nil
}

// Int returns v's integer value, or 0 if v.Kind() != KindInt.
func (v Value) Int() int64 {
	x, _ := v.AsInt()
	return x
}

// AsReal returns v's numeric value as a float64, accepting either a real or
// an integer (per the PDF grammar, an integer is a valid "number" anywhere
// a real is expected). It returns a *TypeError for any other Kind.
func (v Value) AsReal() (float64, error) {
	switch x := v.data.(type) {
	case float64:
		return x, nil
	case int64:
		return float64(x), nil
	}
	return 0, v.typeError(KindReal)
}

// Real returns v's numeric value as a float64, or 0 if v is not a number.
func (v Value) Real() float64 {
	x, _ := v.AsReal()
	return x
}

// AsName returns v's name value (without the leading slash), or a
// *TypeError if v.Kind() != KindName.
func (v Value) AsName() (string, error) {
	x, ok := v.data.(xtbuf.Name)
	if !ok {
		return "", v.typeError(KindName)
	}
	return string(x), nil
}

// Name returns v's name value, or the empty string if v.Kind() != KindName.
func (v Value) Name() string {
	x, _ := v.AsName()
	return x
}

// AsLiteralString returns the decoded payload of a literal "(...)" string,
// or a *TypeError if v.Kind() != KindLiteralString.
func (v Value) AsLiteralString() (string, error) {
	x, ok := v.data.(xtbuf.LiteralString)
	if !ok {
		return "", v.typeError(KindLiteralString)
	}
	return string(x), nil
}

// AsHexString returns the decoded payload of a hexadecimal "<...>" string,
// or a *TypeError if v.Kind() != KindHexString.
func (v Value) AsHexString() (string, error) {
	x, ok := v.data.(xtbuf.HexString)
	if !ok {
		return "", v.typeError(KindHexString)
	}
	return string(x), nil
}

// RawString returns the decoded byte payload of v regardless of whether it
// was written as a literal or hex string, or the empty string if v is
// neither.
func (v Value) RawString() string {
	switch x := v.data.(type) {
	case xtbuf.LiteralString:
		return string(x)
	case xtbuf.HexString:
		return string(x)
	}
	return ""
}

// IsString reports whether v is a literal or hex string.
func (v Value) IsString() bool {
	k := v.Kind()
	return k == KindLiteralString || k == KindHexString
}

// Len returns the length of the array v, or 0 if v.Kind() != KindArray.
func (v Value) Len() int {
	x, ok := v.data.(xtbuf.Array)
	if !ok {
		return 0
	}
	return len(x)
}

// AsIndex returns the i'th element of the array v, resolving any indirect
// reference. It returns a *TypeError if v.Kind() != KindArray, or a
// *ReferenceError if i is out of range.
func (v Value) AsIndex(i int) (Value, error) {
	x, ok := v.data.(xtbuf.Array)
	if !ok {
		return Value{}, v.typeError(KindArray)
	}
	if i < 0 || i >= len(x) {
		return Value{}, &ReferenceError{ID: v.ptr, Msg: fmt.Sprintf("array index %d out of range (len %d)", i, len(x))}
	}
	return v.doc.resolve(v.ptr, x[i])
}

// Index returns the i'th element of the array v, or a null Value if
// v.Kind() != KindArray or i is out of range.
func (v Value) Index(i int) Value {
	r, err := v.AsIndex(i)
	if err != nil {
		return Value{}
	}
	return r
}

func (v Value) dictLike() (xtbuf.Dict, bool) {
	switch x := v.data.(type) {
	case xtbuf.Dict:
		return x, true
	case xtbuf.Stream:
		return x.Hdr, true
	}
	return nil, false
}

// AsKey returns the value associated with key in the dictionary v (or in
// the header dictionary of the stream v), resolving any indirect
// reference. It returns a *TypeError if v is neither a dictionary nor a
// stream. A missing key is not an error: it returns a null Value, nil.
func (v Value) AsKey(key string) (Value, error) {
	d, ok := v.dictLike()
	if !ok {
		return Value{}, v.typeError(KindDict)
	}
	return v.doc.resolve(v.ptr, d[xtbuf.Name(key)])
}

// Key returns the value associated with key, or a null Value if v is
// neither a dictionary nor a stream.
func (v Value) Key(key string) Value {
	r, err := v.AsKey(key)
	if err != nil {
		return Value{}
	}
	return r
}

// Keys returns the sorted list of keys in the dictionary v (or in the
// header dictionary of the stream v), or nil if v is neither.
func (v Value) Keys() []string {
	d, ok := v.dictLike()
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	return keys
}

// ContentBytes returns the fully decoded byte content of the stream v,
// applying every filter named in /Filter (and /DecodeParms) in order. It
// returns a *TypeError if v is not one of the stream Kinds (KindContentStream,
// KindBinaryStream, or KindObjectStream), or a *FilterError if an
// unsupported filter is named or a decoder rejects the data.
func (v Value) ContentBytes() ([]byte, error) {
	if !v.IsStream() {
		return nil, v.typeError(KindContentStream)
	}
	return v.doc.streamBytes(v)
}

// String returns a short textual rendering of v, for diagnostics only.
func (v Value) String() string {
	switch x := v.data.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case xtbuf.Name:
		return "/" + string(x)
	case xtbuf.LiteralString:
		return strconv.Quote(string(x))
	case xtbuf.HexString:
		return "<" + strconv.Quote(string(x)) + ">"
	case xtbuf.Array:
		return fmt.Sprintf("array[%d]", len(x))
	case xtbuf.Dict:
		return fmt.Sprintf("dict[%d]", len(x))
	case xtbuf.Stream:
		k, tag := classifyStream(x.Hdr)
		if tag != StreamTagNone {
			return fmt.Sprintf("%s(%s)@%d", k, tag, x.Offset)
		}
		return fmt.Sprintf("%s@%d", k, x.Offset)
	case xtbuf.Comment:
		return "%" + string(x)
	}
	return "null"
}
