package reccodec

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ismrmrd-go/mrdstream/internal/wire"
)

// Codec encodes and decodes Acquisition, Waveform and Image payload bodies
// (the fields after the envelope identifier). Connection trusts the codec's
// declared sizes and does not second-guess them; a malformed body surfaces
// as a decode error that terminates the session.
type Codec interface {
	WriteAcquisition(w io.Writer, acq *Acquisition) error
	ReadAcquisition(r io.Reader) (*Acquisition, error)
	WriteWaveform(w io.Writer, wf *Waveform) error
	ReadWaveform(r io.Reader) (*Waveform, error)
	WriteImage(w io.Writer, img *Image) error
	ReadImage(r io.Reader) (*Image, error)
}

// Reference is the default Codec implementation, matching the published
// MRD field layout closely enough to round-trip every field the core
// inspects.
type Reference struct{}

var _ Codec = Reference{}

func (Reference) WriteAcquisition(w io.Writer, acq *Acquisition) error {
	if err := binary.Write(w, binary.LittleEndian, &acq.Header); err != nil {
		return fmt.Errorf("reccodec: write acquisition header: %w", err)
	}
	wantTraj := int(acq.Header.TrajectoryDimensions) * int(acq.Header.NumberOfSamples)
	if len(acq.Trajectory) != wantTraj {
		return fmt.Errorf("reccodec: trajectory length %d does not match header (want %d)", len(acq.Trajectory), wantTraj)
	}
	if err := binary.Write(w, binary.LittleEndian, acq.Trajectory); err != nil {
		return fmt.Errorf("reccodec: write trajectory: %w", err)
	}
	wantData := int(acq.Header.ActiveChannels) * int(acq.Header.NumberOfSamples)
	if len(acq.Data) != wantData {
		return fmt.Errorf("reccodec: sample length %d does not match header (want %d)", len(acq.Data), wantData)
	}
	if err := writeComplex64(w, acq.Data); err != nil {
		return fmt.Errorf("reccodec: write samples: %w", err)
	}
	return nil
}

func (Reference) ReadAcquisition(r io.Reader) (*Acquisition, error) {
	acq := &Acquisition{}
	if err := binary.Read(r, binary.LittleEndian, &acq.Header); err != nil {
		return nil, fmt.Errorf("reccodec: read acquisition header: %w", err)
	}
	ntraj := int(acq.Header.TrajectoryDimensions) * int(acq.Header.NumberOfSamples)
	if ntraj > 0 {
		acq.Trajectory = make([]float32, ntraj)
		if err := binary.Read(r, binary.LittleEndian, acq.Trajectory); err != nil {
			return nil, fmt.Errorf("reccodec: read trajectory: %w", err)
		}
	}
	ndata := int(acq.Header.ActiveChannels) * int(acq.Header.NumberOfSamples)
	data, err := readComplex64(r, ndata)
	if err != nil {
		return nil, fmt.Errorf("reccodec: read samples: %w", err)
	}
	acq.Data = data
	return acq, nil
}

func (Reference) WriteWaveform(w io.Writer, wf *Waveform) error {
	if err := binary.Write(w, binary.LittleEndian, &wf.Header); err != nil {
		return fmt.Errorf("reccodec: write waveform header: %w", err)
	}
	want := int(wf.Header.ChannelCount) * int(wf.Header.NumberOfSamples)
	if len(wf.Data) != want {
		return fmt.Errorf("reccodec: waveform sample length %d does not match header (want %d)", len(wf.Data), want)
	}
	if err := binary.Write(w, binary.LittleEndian, wf.Data); err != nil {
		return fmt.Errorf("reccodec: write waveform samples: %w", err)
	}
	return nil
}

func (Reference) ReadWaveform(r io.Reader) (*Waveform, error) {
	wf := &Waveform{}
	if err := binary.Read(r, binary.LittleEndian, &wf.Header); err != nil {
		return nil, fmt.Errorf("reccodec: read waveform header: %w", err)
	}
	n := int(wf.Header.ChannelCount) * int(wf.Header.NumberOfSamples)
	wf.Data = make([]uint32, n)
	if n > 0 {
		if err := binary.Read(r, binary.LittleEndian, wf.Data); err != nil {
			return nil, fmt.Errorf("reccodec: read waveform samples: %w", err)
		}
	}
	return wf, nil
}

func (Reference) WriteImage(w io.Writer, img *Image) error {
	if err := binary.Write(w, binary.LittleEndian, &img.Header); err != nil {
		return fmt.Errorf("reccodec: write image header: %w", err)
	}
	if err := wire.WriteImageAttributes(w, img.Attribute); err != nil {
		return fmt.Errorf("reccodec: write image attributes: %w", err)
	}
	n := int(img.Header.Channels) * int(img.Header.MatrixX) * int(img.Header.MatrixY) * int(img.Header.MatrixZ)
	switch img.Header.DataType {
	case DataTypeShort, DataTypeUShort:
		if len(img.Int16Data) != n {
			return fmt.Errorf("reccodec: image data length %d does not match header (want %d)", len(img.Int16Data), n)
		}
		if err := binary.Write(w, binary.LittleEndian, img.Int16Data); err != nil {
			return fmt.Errorf("reccodec: write image samples: %w", err)
		}
	case DataTypeFloat:
		if len(img.Float32Data) != n {
			return fmt.Errorf("reccodec: image data length %d does not match header (want %d)", len(img.Float32Data), n)
		}
		if err := binary.Write(w, binary.LittleEndian, img.Float32Data); err != nil {
			return fmt.Errorf("reccodec: write image samples: %w", err)
		}
	default:
		return fmt.Errorf("reccodec: unsupported image data type %d", img.Header.DataType)
	}
	return nil
}

func (Reference) ReadImage(r io.Reader) (*Image, error) {
	img := &Image{}
	if err := binary.Read(r, binary.LittleEndian, &img.Header); err != nil {
		return nil, fmt.Errorf("reccodec: read image header: %w", err)
	}
	attrs, err := wire.ReadImageAttributes(r)
	if err != nil {
		return nil, fmt.Errorf("reccodec: read image attributes: %w", err)
	}
	img.Attribute = attrs

	n := int(img.Header.Channels) * int(img.Header.MatrixX) * int(img.Header.MatrixY) * int(img.Header.MatrixZ)
	switch img.Header.DataType {
	case DataTypeShort, DataTypeUShort:
		img.Int16Data = make([]int16, n)
		if n > 0 {
			if err := binary.Read(r, binary.LittleEndian, img.Int16Data); err != nil {
				return nil, fmt.Errorf("reccodec: read image samples: %w", err)
			}
		}
	case DataTypeFloat:
		img.Float32Data = make([]float32, n)
		if n > 0 {
			if err := binary.Read(r, binary.LittleEndian, img.Float32Data); err != nil {
				return nil, fmt.Errorf("reccodec: read image samples: %w", err)
			}
		}
	default:
		return nil, fmt.Errorf("reccodec: unsupported image data type %d", img.Header.DataType)
	}
	return img, nil
}

func writeComplex64(w io.Writer, data []complex64) error {
	flat := make([]float32, 0, len(data)*2)
	for _, c := range data {
		flat = append(flat, real(c), imag(c))
	}
	return binary.Write(w, binary.LittleEndian, flat)
}

func readComplex64(r io.Reader, n int) ([]complex64, error) {
	if n == 0 {
		return nil, nil
	}
	flat := make([]float32, n*2)
	if err := binary.Read(r, binary.LittleEndian, flat); err != nil {
		return nil, err
	}
	out := make([]complex64, n)
	for i := range out {
		out[i] = complex(flat[2*i], flat[2*i+1])
	}
	return out, nil
}
