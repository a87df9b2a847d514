package wire

import (
	"fmt"
	"io"
)

// Envelope is one framed unit read off the wire: an identifier plus a
// kind-specific payload. Acquisition, Waveform and Image bodies are left
// encoded (Raw) because their byte layout is the reccodec collaborator's
// concern, not this package's; ConfigFile/ConfigScript/ParameterScript
// bodies are decoded here since their framing is part of the core protocol.
type Envelope struct {
	Kind Kind

	// ConfigToken is populated for ConfigFile and ConfigScript envelopes.
	ConfigToken string

	// Metadata is populated for ParameterScript envelopes.
	Metadata string

	// Raw holds the still-encoded body for Acquisition, Waveform and Image
	// envelopes, ready to be handed to a reccodec.Codec.
	Raw io.Reader
}

// ReadEnvelope reads one framed envelope from r. Acquisition, Waveform and
// Image bodies are not consumed here; callers must read exactly the body
// a reccodec.Codec expects immediately after this call returns one of those
// kinds, before reading the next envelope.
func ReadEnvelope(r io.Reader) (Envelope, error) {
	var idBuf [SizeIdentifier]byte
	if _, err := io.ReadFull(r, idBuf[:]); err != nil {
		return Envelope{}, err
	}
	kind, err := DecodeIdentifier(idBuf[:])
	if err != nil {
		return Envelope{}, err
	}

	switch kind {
	case KindClose:
		return Envelope{Kind: kind}, nil
	case KindConfigFile:
		var buf [SizeConfigFile]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return Envelope{}, fmt.Errorf("wire: read config file: %w", err)
		}
		token, err := DecodeConfigFile(buf[:])
		if err != nil {
			return Envelope{}, err
		}
		return Envelope{Kind: kind, ConfigToken: token}, nil
	case KindConfigScript:
		payload, err := ReadLengthPrefixed(r)
		if err != nil {
			return Envelope{}, fmt.Errorf("wire: read config script: %w", err)
		}
		return Envelope{Kind: kind, ConfigToken: string(payload)}, nil
	case KindParameterScript:
		payload, err := ReadLengthPrefixed(r)
		if err != nil {
			return Envelope{}, fmt.Errorf("wire: read parameter script: %w", err)
		}
		return Envelope{Kind: kind, Metadata: string(payload)}, nil
	case KindAcquisition, KindWaveform, KindImage:
		return Envelope{Kind: kind, Raw: r}, nil
	default:
		return Envelope{}, &UnknownKindError{Value: uint16(kind)}
	}
}

// WriteConfigFile writes a ConfigFile envelope.
func WriteConfigFile(w io.Writer, token string) error {
	id := EncodeIdentifier(KindConfigFile)
	if _, err := w.Write(id[:]); err != nil {
		return fmt.Errorf("wire: write config file identifier: %w", err)
	}
	b, err := EncodeConfigFile(token)
	if err != nil {
		return err
	}
	if _, err := w.Write(b[:]); err != nil {
		return fmt.Errorf("wire: write config file body: %w", err)
	}
	return nil
}

// WriteConfigScript writes a ConfigScript envelope.
func WriteConfigScript(w io.Writer, token string) error {
	id := EncodeIdentifier(KindConfigScript)
	if _, err := w.Write(id[:]); err != nil {
		return fmt.Errorf("wire: write config script identifier: %w", err)
	}
	return WriteLengthPrefixed(w, []byte(token))
}

// WriteParameterScript writes a ParameterScript envelope.
func WriteParameterScript(w io.Writer, xml string) error {
	id := EncodeIdentifier(KindParameterScript)
	if _, err := w.Write(id[:]); err != nil {
		return fmt.Errorf("wire: write parameter script identifier: %w", err)
	}
	return WriteLengthPrefixed(w, []byte(xml))
}

// WriteClose writes a Close envelope (identifier only, no payload).
func WriteClose(w io.Writer) error {
	id := EncodeIdentifier(KindClose)
	if _, err := w.Write(id[:]); err != nil {
		return fmt.Errorf("wire: write close: %w", err)
	}
	return nil
}

// WriteBodyIdentifier writes the identifier preceding an Acquisition,
// Waveform or Image body. The body itself is written by a reccodec.Codec
// immediately afterward.
func WriteBodyIdentifier(w io.Writer, kind Kind) error {
	id := EncodeIdentifier(kind)
	if _, err := w.Write(id[:]); err != nil {
		return fmt.Errorf("wire: write %s identifier: %w", kind, err)
	}
	return nil
}
