package capture

import (
	"bytes"
	"encoding/binary"
)

// writeBuffer is a bytes.Buffer with a couple of fixed-width helpers,
// letting encodeEnvelope mix reccodec.Codec output with a small trailer
// without introducing a second serialization convention.
type writeBuffer struct {
	bytes.Buffer
}

func (b *writeBuffer) writeUint16(v uint16) error {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	_, err := b.Write(tmp[:])
	return err
}

func (b *writeBuffer) writeInt64(v int64) error {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], uint64(v))
	_, err := b.Write(tmp[:])
	return err
}
