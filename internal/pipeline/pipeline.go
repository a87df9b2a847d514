// Package pipeline implements the immutable, process-wide registry mapping
// ConfigSelector tokens to reconstruction behaviours.
package pipeline

import (
	"github.com/ismrmrd-go/mrdstream/internal/group"
	"github.com/ismrmrd-go/mrdstream/internal/logger"
	"github.com/ismrmrd-go/mrdstream/internal/metricsrv"
	"github.com/ismrmrd-go/mrdstream/internal/streamconn"
)

// Context carries everything a Pipeline needs to run one session. The
// server constructs one per accepted connection; the fields it sets stay
// fixed for the pipeline's whole run.
type Context struct {
	// Conn serves both inbound and outbound traffic for the session.
	Conn *streamconn.Connection

	ConfigSelector string
	Metadata       string

	// CaptureDir is the server-configured capture artefact root. Empty
	// means "savedata" relative to the process working directory.
	CaptureDir string

	// SessionID identifies this session in log lines and capture artefact
	// paths.
	SessionID string

	// Metrics receives group/kernel counters as the pipeline runs. Nil is
	// safe: every Metrics method is a no-op on a nil receiver.
	Metrics *metricsrv.Metrics
}

// Pipeline processes one session's body-record stream to completion,
// including sending the terminal Close downstream.
type Pipeline func(ctx *Context) error

// Registry is an immutable token -> Pipeline map built once at startup.
type Registry struct {
	entries map[string]Pipeline
}

// NewRegistry builds the standard registry.
func NewRegistry() *Registry {
	return &Registry{entries: map[string]Pipeline{
		"simplefft":      SimpleFFT,
		"invertcontrast": InvertContrast,
		"null":           Null,
		"savedataonly":   SaveDataOnly,
	}}
}

// Resolve looks up token, falling back to InvertContrast with a logged
// warning for any token the registry does not recognize.
func (r *Registry) Resolve(token string) Pipeline {
	if p, ok := r.entries[token]; ok {
		return p
	}
	logger.Warn("pipeline: unrecognized config selector, falling back to invertcontrast", logger.Pipeline(token))
	return InvertContrast
}

// drain consumes the remainder of the inbound stream, discarding every
// group it builds, and sends Close downstream on exit. Used by Null and
// SaveDataOnly, whose job is capture (or nothing) rather than
// reconstruction.
func drain(ctx *Context) error {
	return group.Run(ctx.Conn, ctx.Conn, group.Default(), func(group.Group) error { return nil })
}
