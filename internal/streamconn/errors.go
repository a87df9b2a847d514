package streamconn

import (
	"errors"
	"fmt"

	"github.com/ismrmrd-go/mrdstream/internal/wire"
)

// ErrExhausted is returned by Next once a session's Close envelope has been
// received or a previous call already observed exhaustion. It is the
// terminal, non-error end of a session.
var ErrExhausted = errors.New("streamconn: session exhausted")

// ProtocolError reports an envelope received out of turn for the current
// state: a body record before metadata, a second ConfigSelector, and so on.
// Nothing after a Close is read (Next returns ErrExhausted instead). The
// framing has no generic skip length, so a ProtocolError always terminates
// the session.
type ProtocolError struct {
	State State
	Kind  wire.Kind
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("streamconn: unexpected %s envelope in state %s", e.Kind, e.State)
}

// FatalSinkError wraps an error a CaptureSink declares unrecoverable. Unlike
// an ordinary sink failure (logged and ignored), a FatalSinkError terminates
// the session the same way a stream fault would.
type FatalSinkError struct {
	Err error
}

func (e *FatalSinkError) Error() string {
	return fmt.Sprintf("streamconn: capture sink fatal error: %v", e.Err)
}

func (e *FatalSinkError) Unwrap() error {
	return e.Err
}
