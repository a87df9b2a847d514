// Package wire implements the framed message envelope used between an MRD
// client and server: the 2-byte identifier, the 8-byte length prefix, and
// the handful of fixed/length-prefixed records that make up a session.
package wire

import (
	"encoding/binary"
	"fmt"
)

// Kind identifies the type of a framed envelope on the wire. Values match
// the MRD streaming message identifiers; they are not sequential because
// they mirror the ISMRMRD message numbering scheme the format was derived
// from.
type Kind uint16

const (
	KindUnknown         Kind = 0
	KindConfigFile      Kind = 1
	KindConfigScript    Kind = 2
	KindParameterScript Kind = 3
	KindClose           Kind = 4
	KindAcquisition     Kind = 1008
	KindImage           Kind = 1022
	KindWaveform        Kind = 1026
)

func (k Kind) String() string {
	switch k {
	case KindConfigFile:
		return "ConfigFile"
	case KindConfigScript:
		return "ConfigScript"
	case KindParameterScript:
		return "ParameterScript"
	case KindClose:
		return "Close"
	case KindAcquisition:
		return "Acquisition"
	case KindImage:
		return "Image"
	case KindWaveform:
		return "Waveform"
	default:
		return fmt.Sprintf("Unknown(%d)", uint16(k))
	}
}

// SizeIdentifier is the wire size, in bytes, of an envelope identifier.
const SizeIdentifier = 2

// SizeLength is the wire size, in bytes, of a length prefix.
const SizeLength = 8

// SizeConfigFile is the fixed, NUL-padded width of a ConfigFile payload.
const SizeConfigFile = 1024

// EncodeIdentifier writes kind as a little-endian uint16.
func EncodeIdentifier(k Kind) [SizeIdentifier]byte {
	var b [SizeIdentifier]byte
	binary.LittleEndian.PutUint16(b[:], uint16(k))
	return b
}

// DecodeIdentifier reads a little-endian uint16 identifier. Unrecognized
// values are returned as KindUnknown together with the raw value so callers
// can still report it.
func DecodeIdentifier(b []byte) (Kind, error) {
	if len(b) < SizeIdentifier {
		return KindUnknown, fmt.Errorf("wire: short identifier (%d bytes)", len(b))
	}
	v := binary.LittleEndian.Uint16(b)
	k := Kind(v)
	switch k {
	case KindConfigFile, KindConfigScript, KindParameterScript, KindClose,
		KindAcquisition, KindImage, KindWaveform:
		return k, nil
	default:
		return KindUnknown, &UnknownKindError{Value: v}
	}
}

// UnknownKindError reports an identifier that does not match any known Kind.
// The framing has no generic skip length, so receiving one is unrecoverable
// for the session.
type UnknownKindError struct {
	Value uint16
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("wire: unknown message identifier %d", e.Value)
}

// EncodeLength writes n as a little-endian uint64.
func EncodeLength(n uint64) [SizeLength]byte {
	var b [SizeLength]byte
	binary.LittleEndian.PutUint64(b[:], n)
	return b
}

// DecodeLength reads a little-endian uint64 length.
func DecodeLength(b []byte) (uint64, error) {
	if len(b) < SizeLength {
		return 0, fmt.Errorf("wire: short length field (%d bytes)", len(b))
	}
	return binary.LittleEndian.Uint64(b), nil
}
