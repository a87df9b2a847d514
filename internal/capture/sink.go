// Package capture provides the reference CaptureSink implementation: an
// ordered, best-effort persistence layer for received session envelopes,
// backed by BadgerDB. When the server's savedata option is on, the sink is
// constructed lazily on the first body record, so such sessions with no body
// records never create a database directory. The savedataonly pipeline
// creates its sink as soon as it starts, even if no body record follows.
package capture

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/ismrmrd-go/mrdstream/internal/logger"
	"github.com/ismrmrd-go/mrdstream/internal/reccodec"
	"github.com/ismrmrd-go/mrdstream/internal/streamconn"
	"github.com/ismrmrd-go/mrdstream/internal/wire"
)

// Sink persists every captured envelope under a monotonically increasing
// key, preserving receive order. One Sink owns one on-disk database
// directory and is not meant to be shared across sessions.
type Sink struct {
	db  *badger.DB
	seq atomic.Uint64
}

// Open creates (or reuses) dir and opens a BadgerDB database inside it. A
// pre-existing directory is not an error: concurrent sessions writing to a
// shared capture root is expected.
func Open(dir string) (*Sink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil && !os.IsExist(err) {
		return nil, fmt.Errorf("capture: create directory %s: %w", dir, err)
	}

	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("capture: open database %s: %w", dir, err)
	}
	return &Sink{db: db}, nil
}

// NewSessionSink opens a Sink in a subdirectory named after sessionID under
// root, the shape the server-side savedata pipelines use.
func NewSessionSink(root, sessionID string) (*Sink, error) {
	dir := filepath.Join(root, sessionID)
	return Open(dir)
}

// Close releases the underlying database handle.
func (s *Sink) Close() error {
	return s.db.Close()
}

var _ streamconn.CaptureSink = (*Sink)(nil)

// Capture persists env keyed by an internal sequence number, so iteration
// over the store yields envelopes in receive order. A write failure is
// returned as-is; callers (Connection) treat it as a logged, non-fatal
// error unless wrapped in a streamconn.FatalSinkError.
func (s *Sink) Capture(env *streamconn.Envelope) error {
	seq := s.seq.Add(1) - 1
	payload, err := encodeEnvelope(env)
	if err != nil {
		return fmt.Errorf("capture: encode envelope: %w", err)
	}

	key := sequenceKey(seq)
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, payload)
	})
	if err != nil {
		return fmt.Errorf("capture: write envelope %d: %w", seq, err)
	}
	logger.Debug("capture: stored envelope", logger.Kind(env.Kind.String()), logger.PayloadSize(len(payload)))
	return nil
}

// Count returns the number of envelopes persisted so far.
func (s *Sink) Count() uint64 {
	return s.seq.Load()
}

func sequenceKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

func encodeEnvelope(env *streamconn.Envelope) ([]byte, error) {
	var buf writeBuffer
	codec := reccodec.Reference{}

	if err := buf.writeUint16(uint16(env.Kind)); err != nil {
		return nil, err
	}

	switch env.Kind {
	case wire.KindAcquisition:
		if err := codec.WriteAcquisition(&buf, env.Acquisition); err != nil {
			return nil, err
		}
	case wire.KindWaveform:
		if err := codec.WriteWaveform(&buf, env.Waveform); err != nil {
			return nil, err
		}
	case wire.KindImage:
		if err := codec.WriteImage(&buf, env.Image); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("capture: unsupported envelope kind %s", env.Kind)
	}

	capturedAt := time.Now().UnixNano()
	if err := buf.writeInt64(capturedAt); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
