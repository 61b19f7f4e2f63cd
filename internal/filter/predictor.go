package filter

import (
	"bytes"
	"fmt"
	"io"
)

// PNG row-filter types, selected per row by that row's leading byte.
const (
	pngNone = iota
	pngSub
	pngUp
	pngAverage
	pngPaeth
)

// NewPredictorReader applies the Predictor post-processing stage (TIFF
// predictor 2, or the PNG family selected by predictor values 10-15, one of
// which is declared per row via each row's leading byte) to the fully
// decompressed bytes read from r. The whole input is buffered because each
// row's reconstruction depends on the previous reconstructed row.
func NewPredictorReader(r io.Reader, predictor, columns, colors, bitsPerComponent int) (io.Reader, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	stride := colors * bitsPerComponent / 8
	if stride < 1 {
		stride = 1
	}
	rowBytes := (columns*colors*bitsPerComponent + 7) / 8
	if rowBytes < 1 {
		rowBytes = 1
	}

	var out []byte
	if predictor == 2 {
		out, err = decodeTIFFPredictor(data, rowBytes, stride)
	} else {
		out, err = decodePNGPredictor(data, rowBytes, stride)
	}
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(out), nil
}

func decodeTIFFPredictor(data []byte, rowBytes, stride int) ([]byte, error) {
	if rowBytes == 0 || len(data)%rowBytes != 0 {
		return nil, &FilterError{Filter: "Predictor", Err: fmt.Errorf("TIFF predictor: data length %d not a multiple of row length %d", len(data), rowBytes)}
	}
	out := make([]byte, len(data))
	copy(out, data)
	rows := len(data) / rowBytes
	for row := 0; row < rows; row++ {
		base := row * rowBytes
		for i := stride; i < rowBytes; i++ {
			out[base+i] = out[base+i] + out[base+i-stride]
		}
	}
	return out, nil
}

func decodePNGPredictor(data []byte, rowBytes, stride int) ([]byte, error) {
	lineLen := rowBytes + 1
	if len(data)%lineLen != 0 {
		return nil, &FilterError{Filter: "Predictor", Err: fmt.Errorf("PNG predictor: data length %d not a multiple of line length %d", len(data), lineLen)}
	}
	rows := len(data) / lineLen
	out := make([]byte, rows*rowBytes)
	prior := make([]byte, rowBytes)

	for row := 0; row < rows; row++ {
		in := data[row*lineLen : row*lineLen+lineLen]
		ft := in[0]
		cur := in[1:]
		dst := out[row*rowBytes : row*rowBytes+rowBytes]

		switch ft {
		case pngNone:
			copy(dst, cur)
		case pngSub:
			for i := 0; i < rowBytes; i++ {
				var left byte
				if i >= stride {
					left = dst[i-stride]
				}
				dst[i] = cur[i] + left
			}
		case pngUp:
			for i := 0; i < rowBytes; i++ {
				dst[i] = cur[i] + prior[i]
			}
		case pngAverage:
			for i := 0; i < rowBytes; i++ {
				var left int
				if i >= stride {
					left = int(dst[i-stride])
				}
				avg := (left + int(prior[i])) / 2
				dst[i] = cur[i] + byte(avg)
			}
		case pngPaeth:
			for i := 0; i < rowBytes; i++ {
				var left, upLeft int
				if i >= stride {
					left = int(dst[i-stride])
					upLeft = int(prior[i-stride])
				}
				dst[i] = cur[i] + paeth(left, int(prior[i]), upLeft)
			}
		default:
			return nil, &FilterError{Filter: "Predictor", Err: fmt.Errorf("unknown PNG row filter type %d", ft)}
		}

		prior = dst
	}
	return out, nil
}

func paeth(a, b, c int) byte {
	p := a + b - c
	pa, pb, pc := abs(p-a), abs(p-b), abs(p-c)
	switch {
	case pa <= pb && pa <= pc:
		return byte(a)
	case pb <= pc:
		return byte(b)
	default:
		return byte(c)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
