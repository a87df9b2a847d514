package reckernel

import (
	"testing"

	"github.com/ismrmrd-go/mrdstream/internal/reccodec"
)

func TestKFFTEmptyGroupYieldsNoImage(t *testing.T) {
	img, err := KFFT(nil, false)
	if err != nil {
		t.Fatalf("KFFT: %v", err)
	}
	if img != nil {
		t.Fatalf("expected nil image for empty group, got %+v", img)
	}
}

func TestKFFTSingleAcquisitionProducesShapedImage(t *testing.T) {
	const channels, readout = 1, 8
	acq := &reccodec.Acquisition{
		Header: reccodec.AcquisitionHeader{
			ActiveChannels:  channels,
			NumberOfSamples: readout,
		},
		Data: make([]complex64, channels*readout),
	}
	acq.Header.SetFlag(reccodec.AcqLastInSlice)
	for i := range acq.Data {
		acq.Data[i] = complex(float32(i+1), 0)
	}

	img, err := KFFT([]*reccodec.Acquisition{acq}, false)
	if err != nil {
		t.Fatalf("KFFT: %v", err)
	}
	if img == nil {
		t.Fatal("expected a reconstructed image")
	}
	if img.Header.DataType != reccodec.DataTypeShort {
		t.Fatalf("data type = %v, want Short", img.Header.DataType)
	}
	wantRows := (3 * readout / 4) - (readout / 4)
	if int(img.Header.MatrixX) != wantRows {
		t.Fatalf("MatrixX = %d, want %d (cropped readout)", img.Header.MatrixX, wantRows)
	}
	if int(img.Header.MatrixY) != 1 {
		t.Fatalf("MatrixY = %d, want 1 (one acquisition = one phase-encode line)", img.Header.MatrixY)
	}
	if len(img.Int16Data) != wantRows*1 {
		t.Fatalf("Int16Data length = %d, want %d", len(img.Int16Data), wantRows)
	}
}

func TestKFFTMultiAcquisitionUsesFirstAcquisitionHeader(t *testing.T) {
	const channels, readout = 1, 8

	newAcq := func(step uint16, uid uint32) *reccodec.Acquisition {
		acq := &reccodec.Acquisition{
			Header: reccodec.AcquisitionHeader{
				ActiveChannels:  channels,
				NumberOfSamples: readout,
				MeasurementUID:  uid,
			},
			Data: make([]complex64, channels*readout),
		}
		acq.Header.Idx.KspaceEncodeStep1 = step
		for i := range acq.Data {
			acq.Data[i] = complex(float32(i+1), 0)
		}
		return acq
	}

	// Built out of order; KFFT sorts by KspaceEncodeStep1 before picking a
	// header, so the first acquisition in sorted order (step 0, UID 100) is
	// the one whose header should end up on the emitted image, not the last
	// one appended here (step 1, UID 200).
	last := newAcq(1, 200)
	last.Header.SetFlag(reccodec.AcqLastInSlice)
	first := newAcq(0, 100)

	img, err := KFFT([]*reccodec.Acquisition{last, first}, false)
	if err != nil {
		t.Fatalf("KFFT: %v", err)
	}
	if img == nil {
		t.Fatal("expected a reconstructed image")
	}
	if img.Header.MeasurementUID != 100 {
		t.Fatalf("MeasurementUID = %d, want 100 (first acquisition in sorted order)", img.Header.MeasurementUID)
	}
	if int(img.Header.MatrixY) != 2 {
		t.Fatalf("MatrixY = %d, want 2 (two phase-encode lines)", img.Header.MatrixY)
	}
}

func TestScaleToInt16ZeroMaxYieldsZeroImage(t *testing.T) {
	img := [][]float64{{0, 0}, {0, 0}}
	out := scaleToInt16(img, false)
	for _, row := range out {
		for _, v := range row {
			if v != 0 {
				t.Fatalf("expected all-zero output for a zero-max image, got %d", v)
			}
		}
	}
}

func TestScaleToInt16Inversion(t *testing.T) {
	img := [][]float64{{0, 1000, 32767}}
	out := scaleToInt16(img, true)
	want := []int16{32767, 31767, 0}
	for i, v := range want {
		if out[0][i] != v {
			t.Fatalf("out[0][%d] = %d, want %d", i, out[0][i], v)
		}
	}
}
