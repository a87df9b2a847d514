package streamconn

// CaptureSink is the out-of-scope collaborator a Connection delegates to
// when capture is enabled. Capture is ordered (called in receive order) and
// best-effort: a returned error is logged and the session continues, unless
// it is (or wraps) a FatalSinkError, in which case the session terminates.
type CaptureSink interface {
	Capture(env *Envelope) error
}

// SinkFactory lazily constructs a CaptureSink on first use, so that empty
// sessions never materialize capture artefacts.
type SinkFactory func() (CaptureSink, error)
