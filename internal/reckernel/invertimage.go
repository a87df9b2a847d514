package reckernel

import (
	"fmt"
	"math"

	"github.com/ismrmrd-go/mrdstream/internal/reccodec"
)

// InvertImageName identifies this kernel in logs and pipeline registrations.
const InvertImageName = "invert-image"

// InvertImage rescales an already-reconstructed Image to the int16 range
// and inverts its contrast. Unlike KFFT, which inverts a k-space group it
// just reconstructed, this kernel operates directly on an Image envelope
// received from the client, transposing the array before re-wrapping it —
// a quirk of this code path confirmed against the reference behaviour this
// module was built from, not shared with the KFFT-driven invertcontrast
// path.
func InvertImage(img *reccodec.Image) (*reccodec.Image, error) {
	values, rows, cols, err := realValues(img)
	if err != nil {
		return nil, err
	}

	const maxInt16 = 32767
	max := 0.0
	for _, v := range values {
		if a := math.Abs(v); a > max {
			max = a
		}
	}

	inverted := make([]int16, len(values))
	if max != 0 {
		scale := maxInt16 / max
		for i, v := range values {
			x := int16(math.Round(v * scale))
			inverted[i] = int16(math.Abs(float64(maxInt16 - x)))
		}
	}

	transposed := transposeInt16(inverted, rows, cols)

	out := &reccodec.Image{
		Header:    img.Header,
		Attribute: img.Attribute,
	}
	out.Header.DataType = reccodec.DataTypeShort
	out.Int16Data = transposed

	return out, nil
}

func realValues(img *reccodec.Image) ([]float64, int, int, error) {
	rows := int(img.Header.MatrixX)
	cols := int(img.Header.MatrixY) * int(img.Header.MatrixZ) * int(img.Header.Channels)

	switch img.Header.DataType {
	case reccodec.DataTypeShort, reccodec.DataTypeUShort:
		out := make([]float64, len(img.Int16Data))
		for i, v := range img.Int16Data {
			out[i] = float64(v)
		}
		return out, rows, cols, nil
	case reccodec.DataTypeFloat:
		out := make([]float64, len(img.Float32Data))
		for i, v := range img.Float32Data {
			out[i] = float64(v)
		}
		return out, rows, cols, nil
	default:
		return nil, 0, 0, fmt.Errorf("reckernel: unsupported image data type %d for inversion", img.Header.DataType)
	}
}

// transposeInt16 treats data as a row-major [rows][cols] matrix and returns
// its transpose, flattened row-major as [cols][rows].
func transposeInt16(data []int16, rows, cols int) []int16 {
	if rows == 0 || cols == 0 {
		return nil
	}
	out := make([]int16, len(data))
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out[c*rows+r] = data[r*cols+c]
		}
	}
	return out
}
