// Package filter implements the PDF stream-filter pipeline: per-filter
// decoders and the shared row-predictor post-processing stage used by LZW
// and Flate.
package filter

import (
	"fmt"
	"io"
)

// Params carries the subset of a stream's /DecodeParms dictionary the
// filters in this package consult. Zero values mean "not present"; callers
// are responsible for resolving indirect references before filling this in.
type Params struct {
	Predictor        int // default 1 (none)
	Colors           int // default 1
	BitsPerComponent int // default 8
	Columns          int // default 1
	EarlyChange      bool
	EarlyChangeSet   bool // true if /EarlyChange was present; default is true
}

func (p Params) colors() int {
	if p.Colors <= 0 {
		return 1
	}
	return p.Colors
}

func (p Params) bitsPerComponent() int {
	if p.BitsPerComponent <= 0 {
		return 8
	}
	return p.BitsPerComponent
}

func (p Params) columns() int {
	if p.Columns <= 0 {
		return 1
	}
	return p.Columns
}

func (p Params) earlyChange() bool {
	if !p.EarlyChangeSet {
		return true
	}
	return p.EarlyChange
}

// UnsupportedFilterError reports a /Filter name this package does not know.
type UnsupportedFilterError struct {
	Name string
}

func (e *UnsupportedFilterError) Error() string {
	return fmt.Sprintf("unsupported filter %q", e.Name)
}

// IsOpaque reports whether name is one of the image or encryption filters
// (CCITTFax, JBIG2, DCT, JPX, Crypt) that this package does not decode.
// Apply rejects them; the caller passes such a stream's bytes through
// undecoded, and the stream is not re-classified or tagged with the
// filter name.
func IsOpaque(name string) bool {
	switch name {
	case "CCITTFaxDecode", "JBIG2Decode", "DCTDecode", "JPXDecode", "Crypt":
		return true
	}
	return false
}

// Apply returns a reader producing the decoded bytes of src for the named
// filter, applying predictor post-processing when params.Predictor calls
// for it. IsOpaque names must be handled by the caller before reaching
// here; Apply returns UnsupportedFilterError for them.
func Apply(name string, params Params, src io.Reader) (io.Reader, error) {
	switch name {
	case "ASCIIHexDecode":
		return NewASCIIHexReader(src), nil
	case "ASCII85Decode":
		return NewASCII85Reader(src), nil
	case "RunLengthDecode":
		return NewRunLengthReader(src), nil
	case "LZWDecode":
		r := NewLZWReader(src, params.earlyChange())
		return wrapPredictor(r, params)
	case "FlateDecode":
		r, err := NewFlateReader(src)
		if err != nil {
			return nil, &FilterError{Filter: name, Err: err}
		}
		return wrapPredictor(r, params)
	}
	return nil, &UnsupportedFilterError{Name: name}
}

func wrapPredictor(r io.Reader, params Params) (io.Reader, error) {
	if params.Predictor <= 1 {
		return r, nil
	}
	return NewPredictorReader(r, params.Predictor, params.columns(), params.colors(), params.bitsPerComponent())
}

// FilterError wraps a decoder-rejected input from a specific filter.
type FilterError struct {
	Filter string
	Err    error
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("filter %s: %v", e.Filter, e.Err)
}

func (e *FilterError) Unwrap() error { return e.Err }
