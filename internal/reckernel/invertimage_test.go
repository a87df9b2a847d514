package reckernel

import (
	"testing"

	"github.com/ismrmrd-go/mrdstream/internal/reccodec"
)

func TestInvertImageMatchesSpecExample(t *testing.T) {
	img := &reccodec.Image{
		Header: reccodec.ImageHeader{
			DataType: reccodec.DataTypeShort,
			Channels: 1,
			MatrixX:  1,
			MatrixY:  3,
			MatrixZ:  1,
		},
		Attribute: "",
		Int16Data: []int16{0, 1000, 32767},
	}

	out, err := InvertImage(img)
	if err != nil {
		t.Fatalf("InvertImage: %v", err)
	}
	want := []int16{32767, 31767, 0}
	if len(out.Int16Data) != len(want) {
		t.Fatalf("got %d samples, want %d", len(out.Int16Data), len(want))
	}
	for i, v := range want {
		if out.Int16Data[i] != v {
			t.Fatalf("sample %d = %d, want %d", i, out.Int16Data[i], v)
		}
	}
	if out.Header.DataType != reccodec.DataTypeShort {
		t.Fatalf("data type = %v, want Short", out.Header.DataType)
	}
}

func TestInvertImageZeroMaxYieldsZeroImageNoError(t *testing.T) {
	img := &reccodec.Image{
		Header: reccodec.ImageHeader{
			DataType: reccodec.DataTypeShort,
			Channels: 1,
			MatrixX:  2,
			MatrixY:  2,
			MatrixZ:  1,
		},
		Int16Data: []int16{0, 0, 0, 0},
	}

	out, err := InvertImage(img)
	if err != nil {
		t.Fatalf("InvertImage: %v", err)
	}
	for i, v := range out.Int16Data {
		if v != 0 {
			t.Fatalf("sample %d = %d, want 0 for an all-zero input", i, v)
		}
	}
}

func TestInvertImageFloatInput(t *testing.T) {
	img := &reccodec.Image{
		Header: reccodec.ImageHeader{
			DataType:    reccodec.DataTypeFloat,
			Channels:    1,
			MatrixX:     1,
			MatrixY:     3,
			MatrixZ:     1,
		},
		Float32Data: []float32{0, 1000, 32767},
	}

	out, err := InvertImage(img)
	if err != nil {
		t.Fatalf("InvertImage: %v", err)
	}
	want := []int16{32767, 31767, 0}
	if len(out.Int16Data) != len(want) {
		t.Fatalf("got %d samples, want %d", len(out.Int16Data), len(want))
	}
	for i, v := range want {
		if out.Int16Data[i] != v {
			t.Fatalf("sample %d = %d, want %d", i, out.Int16Data[i], v)
		}
	}
	if out.Header.DataType != reccodec.DataTypeShort {
		t.Fatalf("data type = %v, want Short (float input is still rescaled to int16)", out.Header.DataType)
	}
}

// TestInvertImageTransposesMultiRowMatrix pins down the row/column swap
// InvertImage performs: a 2x2 input must come back with [col][row] order,
// not merely scaled in place.
func TestInvertImageTransposesMultiRowMatrix(t *testing.T) {
	img := &reccodec.Image{
		Header: reccodec.ImageHeader{
			DataType: reccodec.DataTypeShort,
			Channels: 1,
			MatrixX:  2, // rows
			MatrixY:  2, // cols
			MatrixZ:  1,
		},
		// Row-major [rows][cols]: row0 = [0, 16383], row1 = [32767, 8192].
		Int16Data: []int16{0, 16383, 32767, 8192},
	}

	out, err := InvertImage(img)
	if err != nil {
		t.Fatalf("InvertImage: %v", err)
	}

	// max(|v|) = 32767, so scale = 1 and inverted = |32767 - v|:
	// row-major inverted (pre-transpose) = [32767, 16384, 0, 24575].
	// Transposed to [cols][rows] flattened row-major:
	want := []int16{32767, 0, 16384, 24575}
	if len(out.Int16Data) != len(want) {
		t.Fatalf("got %d samples, want %d", len(out.Int16Data), len(want))
	}
	for i, v := range want {
		if out.Int16Data[i] != v {
			t.Fatalf("sample %d = %d, want %d (transpose mismatch)", i, out.Int16Data[i], v)
		}
	}
}
