// Package streamconn implements the per-session framing state machine
// shared by the server and the client: one Connection wraps a stream
// direction (inbound, outbound, or both over the same socket) and enforces
// the Start -> AwaitMetadata -> Streaming -> Exhausted/Faulted sequence.
package streamconn

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ismrmrd-go/mrdstream/internal/logger"
	"github.com/ismrmrd-go/mrdstream/internal/reccodec"
	"github.com/ismrmrd-go/mrdstream/internal/wire"
)

// Connection owns the inbound and/or outbound side of one session's wire
// traffic. A single net.Conn may back two Connections (one per direction)
// for the client's two-connection-over-one-socket pattern; the server uses
// one Connection for both directions.
type Connection struct {
	r io.Reader
	w io.Writer

	codec reccodec.Codec

	sessionID string

	stateMu sync.Mutex
	state   State

	writeMu sync.Mutex

	sink        CaptureSink
	sinkFactory SinkFactory
	sinkOnce    sync.Once
	sinkErr     error
}

// Option configures a Connection at construction time.
type Option func(*Connection)

// WithSessionID sets the identifier used in log lines emitted by this
// Connection.
func WithSessionID(id string) Option {
	return func(c *Connection) { c.sessionID = id }
}

// WithCaptureSink installs an already-constructed CaptureSink.
func WithCaptureSink(sink CaptureSink) Option {
	return func(c *Connection) { c.sink = sink }
}

// WithCaptureSinkFactory installs a sink constructed lazily on the first
// body record, so that sessions with no body records never materialize a
// capture artefact.
func WithCaptureSinkFactory(factory SinkFactory) Option {
	return func(c *Connection) { c.sinkFactory = factory }
}

// WithInitialState overrides the state a Connection starts in. The
// client's inbound Connection uses this to start at StateStreaming: the
// server's outbound traffic is body records and Close only, never the
// ConfigFile/ConfigScript/ParameterScript preamble the inbound default
// (StateStart) expects.
func WithInitialState(s State) Option {
	return func(c *Connection) { c.state = s }
}

// New wraps rw for both inbound and outbound use.
func New(rw io.ReadWriter, codec reccodec.Codec, opts ...Option) *Connection {
	return newConnection(rw, rw, codec, opts...)
}

// NewInbound wraps r for inbound-only use. Send* methods panic if called.
func NewInbound(r io.Reader, codec reccodec.Codec, opts ...Option) *Connection {
	return newConnection(r, nil, codec, opts...)
}

// NewOutbound wraps w for outbound-only use. Next panics if called.
func NewOutbound(w io.Writer, codec reccodec.Codec, opts ...Option) *Connection {
	return newConnection(nil, w, codec, opts...)
}

func newConnection(r io.Reader, w io.Writer, codec reccodec.Codec, opts ...Option) *Connection {
	c := &Connection{r: r, w: w, codec: codec, state: StateStart}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State reports the connection's current inbound state.
func (c *Connection) State() State {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.state
}

func (c *Connection) setState(s State) {
	c.stateMu.Lock()
	c.state = s
	c.stateMu.Unlock()
}

// Next blocks until a full inbound envelope is read, returning ErrExhausted
// once Close has been received (latched: subsequent calls also return
// ErrExhausted without touching the stream again).
func (c *Connection) Next() (*Envelope, error) {
	if c.r == nil {
		panic("streamconn: Next called on an outbound-only Connection")
	}

	state := c.State()
	if state == StateExhausted {
		return nil, ErrExhausted
	}
	if state == StateFaulted {
		return nil, fmt.Errorf("streamconn: connection is faulted")
	}

	raw, err := wire.ReadEnvelope(c.r)
	if err != nil {
		c.setState(StateFaulted)
		logger.Warn("streamconn: read failed", logger.SessionID(c.sessionID), logger.State(state.String()), logger.Err(err))
		return nil, err
	}

	env, err := c.decode(raw)
	if err != nil {
		c.setState(StateFaulted)
		return nil, err
	}

	if err := c.transition(state, env.Kind); err != nil {
		c.setState(StateFaulted)
		return nil, err
	}

	if env.Kind == wire.KindClose {
		c.setState(StateExhausted)
		return nil, ErrExhausted
	}

	if isBodyKind(env.Kind) {
		if err := c.captureIfEnabled(env); err != nil {
			c.setState(StateFaulted)
			return nil, err
		}
	}

	return env, nil
}

// transition validates kind against state and advances state on success.
// Start and AwaitMetadata take exactly one envelope each; Streaming accepts
// any number of body records plus Close.
func (c *Connection) transition(state State, kind wire.Kind) error {
	switch state {
	case StateStart:
		if kind != wire.KindConfigFile && kind != wire.KindConfigScript {
			return &ProtocolError{State: state, Kind: kind}
		}
		c.setState(StateAwaitMetadata)
		return nil
	case StateAwaitMetadata:
		if kind != wire.KindParameterScript {
			return &ProtocolError{State: state, Kind: kind}
		}
		c.setState(StateStreaming)
		return nil
	case StateStreaming:
		if !isBodyKind(kind) && kind != wire.KindClose {
			return &ProtocolError{State: state, Kind: kind}
		}
		return nil
	default:
		return &ProtocolError{State: state, Kind: kind}
	}
}

func isBodyKind(k wire.Kind) bool {
	return k == wire.KindAcquisition || k == wire.KindWaveform || k == wire.KindImage
}

func (c *Connection) decode(raw wire.Envelope) (*Envelope, error) {
	env := &Envelope{Kind: raw.Kind, ConfigToken: raw.ConfigToken, Metadata: raw.Metadata}
	switch raw.Kind {
	case wire.KindAcquisition:
		acq, err := c.codec.ReadAcquisition(raw.Raw)
		if err != nil {
			return nil, fmt.Errorf("streamconn: decode acquisition: %w", err)
		}
		env.Acquisition = acq
	case wire.KindWaveform:
		wf, err := c.codec.ReadWaveform(raw.Raw)
		if err != nil {
			return nil, fmt.Errorf("streamconn: decode waveform: %w", err)
		}
		env.Waveform = wf
	case wire.KindImage:
		img, err := c.codec.ReadImage(raw.Raw)
		if err != nil {
			return nil, fmt.Errorf("streamconn: decode image: %w", err)
		}
		env.Image = img
	}
	return env, nil
}

func (c *Connection) captureIfEnabled(env *Envelope) error {
	sink, err := c.resolveSink()
	if err != nil {
		return err
	}
	if sink == nil {
		return nil
	}
	if err := sink.Capture(env); err != nil {
		var fatal *FatalSinkError
		if errors.As(err, &fatal) {
			return fatal
		}
		logger.Warn("streamconn: capture sink error", logger.SessionID(c.sessionID), logger.Kind(env.Kind.String()), logger.Err(err))
	}
	return nil
}

func (c *Connection) resolveSink() (CaptureSink, error) {
	if c.sink != nil {
		return c.sink, nil
	}
	if c.sinkFactory == nil {
		return nil, nil
	}
	c.sinkOnce.Do(func() {
		c.sink, c.sinkErr = c.sinkFactory()
	})
	return c.sink, c.sinkErr
}

// EnsureCaptureSink forces sink resolution now rather than waiting for the
// first body record, installing fallback as the Connection's factory first
// if none was configured at construction. Pipelines whose entire purpose is
// capture (rather than reconstruction) use this so that a session with zero
// body records still produces an artefact.
func (c *Connection) EnsureCaptureSink(fallback SinkFactory) (CaptureSink, error) {
	if c.sink == nil && c.sinkFactory == nil {
		c.sinkFactory = fallback
	}
	return c.resolveSink()
}

// SendConfigFile writes a fixed-width ConfigFile envelope.
func (c *Connection) SendConfigFile(token string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return wire.WriteConfigFile(c.w, token)
}

// SendConfigScript writes a length-prefixed ConfigScript envelope.
func (c *Connection) SendConfigScript(token string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return wire.WriteConfigScript(c.w, token)
}

// SendMetadata writes a ParameterScript envelope.
func (c *Connection) SendMetadata(xml string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return wire.WriteParameterScript(c.w, xml)
}

// SendAcquisition writes a complete Acquisition envelope atomically under
// the write mutex.
func (c *Connection) SendAcquisition(acq *reccodec.Acquisition) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := wire.WriteBodyIdentifier(c.w, wire.KindAcquisition); err != nil {
		return err
	}
	return c.codec.WriteAcquisition(c.w, acq)
}

// SendWaveform writes a complete Waveform envelope atomically.
func (c *Connection) SendWaveform(wf *reccodec.Waveform) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := wire.WriteBodyIdentifier(c.w, wire.KindWaveform); err != nil {
		return err
	}
	return c.codec.WriteWaveform(c.w, wf)
}

// SendImage writes a complete Image envelope atomically.
func (c *Connection) SendImage(img *reccodec.Image) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := wire.WriteBodyIdentifier(c.w, wire.KindImage); err != nil {
		return err
	}
	return c.codec.WriteImage(c.w, img)
}

// SendClose writes the terminal Close envelope.
func (c *Connection) SendClose() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return wire.WriteClose(c.w)
}
