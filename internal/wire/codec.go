package wire

import (
	"bytes"
	"fmt"
	"io"
)

// ErrValueTooLong is returned by EncodeConfigFile when the token does not
// fit in the fixed-size ConfigFile block.
type ErrValueTooLong struct {
	Len, Max int
}

func (e *ErrValueTooLong) Error() string {
	return fmt.Sprintf("wire: value length %d exceeds maximum %d", e.Len, e.Max)
}

// EncodeConfigFile renders token as a NUL-padded, fixed SizeConfigFile block.
// A token of SizeConfigFile bytes or longer cannot be NUL-terminated inside
// the block and is rejected.
func EncodeConfigFile(token string) ([SizeConfigFile]byte, error) {
	var b [SizeConfigFile]byte
	if len(token) >= SizeConfigFile {
		return b, &ErrValueTooLong{Len: len(token), Max: SizeConfigFile - 1}
	}
	copy(b[:], token)
	return b, nil
}

// DecodeConfigFile extracts the NUL-terminated token from a ConfigFile block.
func DecodeConfigFile(b []byte) (string, error) {
	if len(b) != SizeConfigFile {
		return "", fmt.Errorf("wire: config file block is %d bytes, want %d", len(b), SizeConfigFile)
	}
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i]), nil
	}
	return string(b), nil
}

// WriteLengthPrefixed writes an 8-byte little-endian length followed by
// payload, used for ConfigScript and ParameterScript bodies.
func WriteLengthPrefixed(w io.Writer, payload []byte) error {
	lb := EncodeLength(uint64(len(payload)))
	if _, err := w.Write(lb[:]); err != nil {
		return fmt.Errorf("wire: write length: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("wire: write payload: %w", err)
	}
	return nil
}

// ReadLengthPrefixed reads an 8-byte little-endian length followed by that
// many bytes.
func ReadLengthPrefixed(r io.Reader) ([]byte, error) {
	var lb [SizeLength]byte
	if _, err := io.ReadFull(r, lb[:]); err != nil {
		return nil, fmt.Errorf("wire: read length: %w", err)
	}
	n, err := DecodeLength(lb[:])
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("wire: read payload (%d bytes): %w", n, err)
	}
	return buf, nil
}

// WriteImageAttributes writes the Image attribute string using the format
// this wire protocol diverges from the generic length-prefixed-string
// convention: the declared length equals len(attrs)+1 and a trailing NUL
// byte follows the string content. This asymmetry is the canonical wire
// format and must be preserved bit-for-bit for compatibility with other
// MRD streaming implementations.
func WriteImageAttributes(w io.Writer, attrs string) error {
	lb := EncodeLength(uint64(len(attrs)) + 1)
	if _, err := w.Write(lb[:]); err != nil {
		return fmt.Errorf("wire: write attribute length: %w", err)
	}
	if _, err := io.WriteString(w, attrs); err != nil {
		return fmt.Errorf("wire: write attribute string: %w", err)
	}
	if _, err := w.Write([]byte{0}); err != nil {
		return fmt.Errorf("wire: write attribute terminator: %w", err)
	}
	return nil
}

// ReadImageAttributes reads an Image attribute string framed per
// WriteImageAttributes, stripping the trailing NUL that is included inside
// the declared length.
func ReadImageAttributes(r io.Reader) (string, error) {
	var lb [SizeLength]byte
	if _, err := io.ReadFull(r, lb[:]); err != nil {
		return "", fmt.Errorf("wire: read attribute length: %w", err)
	}
	n, err := DecodeLength(lb[:])
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", fmt.Errorf("wire: attribute length 0 is invalid (must include trailing NUL)")
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("wire: read attribute string (%d bytes): %w", n, err)
	}
	// The trailing byte is the NUL included in the declared length.
	return string(buf[:n-1]), nil
}
