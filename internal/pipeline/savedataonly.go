package pipeline

import (
	"fmt"

	"github.com/ismrmrd-go/mrdstream/internal/capture"
	"github.com/ismrmrd-go/mrdstream/internal/streamconn"
)

// SaveDataOnly ensures a CaptureSink is attached to the session, creating
// one rooted at ctx.CaptureDir if the connection was not already given one,
// then drains the inbound stream and sends Close. No reconstruction kernel
// runs; every body record is simply persisted by the capture sink as it
// passes through Connection.Next.
func SaveDataOnly(ctx *Context) error {
	dir := ctx.CaptureDir
	if dir == "" {
		dir = "savedata"
	}
	sessionID := ctx.SessionID
	if sessionID == "" {
		sessionID = "session"
	}

	fallback := func() (streamconn.CaptureSink, error) {
		return capture.NewSessionSink(dir, sessionID)
	}

	if _, err := ctx.Conn.EnsureCaptureSink(fallback); err != nil {
		return fmt.Errorf("pipeline: ensure capture sink: %w", err)
	}

	return drain(ctx)
}
