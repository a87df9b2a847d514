// Package reccodec is the codec collaborator the core protocol delegates
// to for the byte layout of Acquisition, Waveform and Image payloads (the
// envelope framing itself lives in package wire). Field names and flag bit
// positions follow the published ISMRMRD layout.
package reccodec

// AcquisitionFlag is a single bit in an Acquisition header's flags field.
// Bit numbering matches the ISMRMRD flag enumeration (1-indexed).
type AcquisitionFlag uint64

const (
	AcqFirstInSlice       AcquisitionFlag = 1 << (7 - 1)
	AcqLastInSlice        AcquisitionFlag = 1 << (8 - 1)
	AcqIsNoiseMeasurement AcquisitionFlag = 1 << (19 - 1)
	AcqIsPhasecorrData    AcquisitionFlag = 1 << (24 - 1)
	AcqLastInMeasurement  AcquisitionFlag = 1 << (25 - 1)
)

// EncodingCounters identifies an acquisition's position within the
// k-space encoding scheme. Only KspaceEncodeStep1 is consulted by the
// core (for sort order within a group); the rest round-trip opaquely.
type EncodingCounters struct {
	KspaceEncodeStep1 uint16
	KspaceEncodeStep2 uint16
	Average           uint16
	Slice             uint16
	Contrast          uint16
	Phase             uint16
	Repetition        uint16
	Set               uint16
	Segment           uint16
	User              [8]uint16
}

// AcquisitionHeader carries the fixed-size fields of an Acquisition record.
type AcquisitionHeader struct {
	Version              uint16
	Flags                uint64
	MeasurementUID       uint32
	ScanCounter          uint32
	AcquisitionTimeStamp uint32
	NumberOfSamples      uint16
	AvailableChannels    uint16
	ActiveChannels       uint16
	DiscardPre           uint16
	DiscardPost          uint16
	CenterSample         uint16
	EncodingSpaceRef     uint16
	TrajectoryDimensions uint16
	SampleTimeUs         float32
	Idx                  EncodingCounters
}

// HasFlag reports whether f is set in h.Flags.
func (h *AcquisitionHeader) HasFlag(f AcquisitionFlag) bool {
	return h.Flags&uint64(f) != 0
}

// SetFlag sets f in h.Flags.
func (h *AcquisitionHeader) SetFlag(f AcquisitionFlag) {
	h.Flags |= uint64(f)
}

// Acquisition is one readout line of k-space: a header plus a trajectory
// array (TrajectoryDimensions x NumberOfSamples float32) and a complex
// sample array (ActiveChannels x NumberOfSamples complex64).
type Acquisition struct {
	Header     AcquisitionHeader
	Trajectory []float32
	Data       []complex64 // row-major [ActiveChannels][NumberOfSamples]
}

// Sample returns the complex sample for channel c, readout index r.
func (a *Acquisition) Sample(c, r int) complex64 {
	return a.Data[c*int(a.Header.NumberOfSamples)+r]
}

// WaveformHeader carries the fixed-size fields of a Waveform record.
type WaveformHeader struct {
	Version         uint16
	Flags           uint64
	MeasurementUID  uint32
	ScanCounter     uint32
	TimeStamp       uint32
	NumberOfSamples uint32
	ChannelCount    uint16
	SampleTimeUs    float32
}

// Waveform is an auxiliary physiological/scanner signal record, passed
// through the core without interpretation.
type Waveform struct {
	Header WaveformHeader
	Data   []uint32 // ChannelCount x NumberOfSamples
}

// DataType identifies the element type of an Image's dense sample array.
type DataType uint16

const (
	DataTypeUnknown DataType = 0
	DataTypeUShort  DataType = 1
	DataTypeShort   DataType = 2
	DataTypeUInt    DataType = 3
	DataTypeInt     DataType = 4
	DataTypeFloat   DataType = 5
	DataTypeDouble  DataType = 6
	DataTypeCxFloat DataType = 7
	DataTypeCxDbl   DataType = 8
)

// BytesPerElement returns the wire size of one element of the given type.
func (d DataType) BytesPerElement() int {
	switch d {
	case DataTypeUShort, DataTypeShort:
		return 2
	case DataTypeUInt, DataTypeInt, DataTypeFloat:
		return 4
	case DataTypeDouble, DataTypeCxFloat:
		return 8
	case DataTypeCxDbl:
		return 16
	default:
		return 0
	}
}

// ImageHeader carries the fixed-size fields of an Image record.
type ImageHeader struct {
	Version              uint16
	DataType             DataType
	Flags                uint64
	MeasurementUID       uint32
	Channels             uint16
	MatrixX              uint16
	MatrixY              uint16
	MatrixZ              uint16
	ImageIndex           uint16
	ImageSeries          uint16
	AcquisitionTimeStamp uint32
	Idx                  EncodingCounters
}

// Image is a reconstructed image: a header, an XML attribute string and a
// dense numeric array of shape Channels x MatrixX x MatrixY x MatrixZ.
type Image struct {
	Header    ImageHeader
	Attribute string
	// Data holds the sample values in the type implied by Header.DataType.
	// Exactly one of these is populated.
	Int16Data   []int16
	Float32Data []float32
}
