package reckernel

import (
	"fmt"
	"math"
	"sort"

	"github.com/ismrmrd-go/mrdstream/internal/reccodec"
)

// KFFTName identifies this kernel in logs and pipeline registrations.
const KFFTName = "k-fft"

// KFFT reconstructs one group of acquisitions into a single magnitude
// image: stable sort by phase-encode index, stack into a [C,R,N] complex
// tensor, centred 2-D inverse FFT, sum-of-squares coil combination, scale
// to int16, optional contrast inversion, crop of readout oversampling.
//
// An empty group yields (nil, nil): the caller must treat that as "skip,
// no image emitted" rather than an error.
func KFFT(acquisitions []*reccodec.Acquisition, invertContrast bool) (*reccodec.Image, error) {
	if len(acquisitions) == 0 {
		return nil, nil
	}

	sorted := make([]*reccodec.Acquisition, len(acquisitions))
	copy(sorted, acquisitions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Header.Idx.KspaceEncodeStep1 < sorted[j].Header.Idx.KspaceEncodeStep1
	})

	channels := int(sorted[0].Header.ActiveChannels)
	readout := int(sorted[0].Header.NumberOfSamples)
	phase := len(sorted)

	t := newTensor3(channels, readout, phase)
	for n, acq := range sorted {
		if int(acq.Header.ActiveChannels) != channels || int(acq.Header.NumberOfSamples) != readout {
			return nil, fmt.Errorf("reckernel: acquisition %d shape (%d,%d) does not match group shape (%d,%d)",
				n, acq.Header.ActiveChannels, acq.Header.NumberOfSamples, channels, readout)
		}
		for c := 0; c < channels; c++ {
			for r := 0; r < readout; r++ {
				t.data[c][r][n] = complex128(acq.Sample(c, r))
			}
		}
	}

	ifft2ShiftCentered(t)

	// Sum-of-squares coil combination over channels.
	combined := make([][]float64, readout)
	for r := range combined {
		combined[r] = make([]float64, phase)
	}
	for c := 0; c < channels; c++ {
		for r := 0; r < readout; r++ {
			for n := 0; n < phase; n++ {
				v := t.data[c][r][n]
				combined[r][n] += real(v)*real(v) + imag(v)*imag(v)
			}
		}
	}
	for r := range combined {
		for n := range combined[r] {
			combined[r][n] = math.Sqrt(combined[r][n])
		}
	}

	scaled := scaleToInt16(combined, invertContrast)
	cropped := cropReadoutOversampling(scaled, readout, phase)

	header := sorted[0].Header
	img := &reccodec.Image{
		Header: reccodec.ImageHeader{
			Version:              header.Version,
			DataType:             reccodec.DataTypeShort,
			MeasurementUID:       header.MeasurementUID,
			Channels:             1,
			MatrixX:              uint16(len(cropped)),
			MatrixY:              uint16(phase),
			MatrixZ:              1,
			ImageIndex:           1,
			AcquisitionTimeStamp: header.AcquisitionTimeStamp,
			Idx:                  header.Idx,
		},
	}
	img.Int16Data = flattenInt16(cropped)

	history := []string{"FIRE", "PYTHON"}
	attrs, err := DefaultMeta(history...).Serialize()
	if err != nil {
		return nil, fmt.Errorf("reckernel: serialize meta attributes: %w", err)
	}
	img.Attribute = attrs

	return img, nil
}

// scaleToInt16 maps a non-negative real-valued image to the int16 range by
// multiplying by 32767/max and rounding. A max of zero yields an
// all-zero image of the same shape rather than dividing by zero.
// invert applies y = |32767 - x| afterward, matching invertcontrast.
func scaleToInt16(img [][]float64, invert bool) [][]int16 {
	const maxInt16 = 32767

	max := 0.0
	for _, row := range img {
		for _, v := range row {
			if v > max {
				max = v
			}
		}
	}

	out := make([][]int16, len(img))
	for r, row := range img {
		out[r] = make([]int16, len(row))
		if max == 0 {
			continue
		}
		scale := maxInt16 / max
		for c, v := range row {
			x := int16(math.Round(v * scale))
			if invert {
				x = int16(math.Abs(float64(maxInt16 - x)))
			}
			out[r][c] = x
		}
	}
	return out
}

// cropReadoutOversampling keeps rows [readout/4, 3*readout/4), the
// conventional removal of 2x readout oversampling.
func cropReadoutOversampling(img [][]int16, readout, phase int) [][]int16 {
	lo, hi := readout/4, (3*readout)/4
	if lo < 0 {
		lo = 0
	}
	if hi > len(img) {
		hi = len(img)
	}
	if hi <= lo {
		return nil
	}
	cropped := make([][]int16, hi-lo)
	copy(cropped, img[lo:hi])
	return cropped
}

func flattenInt16(img [][]int16) []int16 {
	if len(img) == 0 {
		return nil
	}
	rows, cols := len(img), len(img[0])
	out := make([]int16, 0, rows*cols)
	for _, row := range img {
		out = append(out, row...)
	}
	return out
}
