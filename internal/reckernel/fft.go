package reckernel

import "gonum.org/v1/gonum/dsp/fourier"

// tensor3 is a [channels][readout][phaseEncode] complex cube, row-major
// within each channel plane.
type tensor3 struct {
	channels, readout, phase int
	data                     [][][]complex128
}

func newTensor3(channels, readout, phase int) *tensor3 {
	data := make([][][]complex128, channels)
	for c := range data {
		data[c] = make([][]complex128, readout)
		for r := range data[c] {
			data[c][r] = make([]complex128, phase)
		}
	}
	return &tensor3{channels: channels, readout: readout, phase: phase, data: data}
}

// ifft2ShiftCentered applies ifftshift -> 2D inverse FFT -> fftshift across
// the (readout, phase) axes of each channel plane, in place. The centred
// convention keeps k-space origin at the array centre both before and
// after the transform.
func ifft2ShiftCentered(t *tensor3) {
	rowFFT := fourier.NewCmplxFFT(t.phase)
	colFFT := fourier.NewCmplxFFT(t.readout)

	for c := 0; c < t.channels; c++ {
		plane := t.data[c]
		shifted := ifftshift2(plane, t.readout, t.phase)

		// inverse FFT along phase-encode axis (rows)
		for r := 0; r < t.readout; r++ {
			shifted[r] = rowFFT.Sequence(nil, shifted[r])
		}
		// inverse FFT along readout axis (columns)
		col := make([]complex128, t.readout)
		for p := 0; p < t.phase; p++ {
			for r := 0; r < t.readout; r++ {
				col[r] = shifted[r][p]
			}
			col = colFFT.Sequence(col, col)
			for r := 0; r < t.readout; r++ {
				shifted[r][p] = col[r]
			}
		}

		t.data[c] = fftshift2(shifted, t.readout, t.phase)
	}
}

func ifftshift2(plane [][]complex128, rows, cols int) [][]complex128 {
	return rotate2(plane, rows, cols, -(rows / 2), -(cols / 2))
}

func fftshift2(plane [][]complex128, rows, cols int) [][]complex128 {
	return rotate2(plane, rows, cols, rows/2, cols/2)
}

// rotate2 cyclically shifts plane by (dr, dc), the building block for
// fftshift/ifftshift on an even or odd-sized axis.
func rotate2(plane [][]complex128, rows, cols, dr, dc int) [][]complex128 {
	out := make([][]complex128, rows)
	for r := 0; r < rows; r++ {
		out[r] = make([]complex128, cols)
		srcR := mod(r-dr, rows)
		for c := 0; c < cols; c++ {
			srcC := mod(c-dc, cols)
			out[r][c] = plane[srcR][srcC]
		}
	}
	return out
}

func mod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}
