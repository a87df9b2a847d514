// Package group implements the streaming windowed aggregator that turns an
// inbound sequence of Acquisition/Waveform/Image envelopes into a sequence
// of reconstruction-ready Groups.
package group

import (
	"errors"
	"fmt"

	"github.com/ismrmrd-go/mrdstream/internal/logger"
	"github.com/ismrmrd-go/mrdstream/internal/reccodec"
	"github.com/ismrmrd-go/mrdstream/internal/streamconn"
)

// Predicate reports whether an acquisition matches some condition.
type Predicate func(acq *reccodec.Acquisition) bool

// NotPhaseCorrection is the default accept predicate: an acquisition is
// appended to the current group unless it carries phase-correction data.
func NotPhaseCorrection(acq *reccodec.Acquisition) bool {
	return !acq.Header.HasFlag(reccodec.AcqIsPhasecorrData)
}

// LastInSlice is the default finish predicate: a group closes on the
// acquisition marking the end of a slice.
func LastInSlice(acq *reccodec.Acquisition) bool {
	return acq.Header.HasFlag(reccodec.AcqLastInSlice)
}

// Operator parameterizes the grouping behaviour. The zero value is not
// usable; construct with Default or set both fields explicitly.
type Operator struct {
	Accept Predicate
	Finish Predicate
}

// Default returns the operator described by spec: accept acquisitions that
// are not phase-correction data, finish a group on ACQ_LAST_IN_SLICE.
func Default() Operator {
	return Operator{Accept: NotPhaseCorrection, Finish: LastInSlice}
}

// Group is one reconstruction unit: either a run of accumulated
// acquisitions, or a single pass-through image.
type Group struct {
	Acquisitions []*reccodec.Acquisition
	Image        *reccodec.Image
}

// YieldFunc receives each completed group as it closes.
type YieldFunc func(Group) error

// Run drains in, applying op to build Groups and invoking yield for each
// one as it completes. A partial group open at end of stream is discarded
// rather than flushed. Run always attempts to send
// a Close downstream on exit, whether it returns because the inbound
// stream was exhausted, a read/decode error occurred, or yield returned an
// error; the first non-nil error among those is what Run returns.
func Run(in *streamconn.Connection, out *streamconn.Connection, op Operator, yield YieldFunc) error {
	var current []*reccodec.Acquisition
	var runErr error

loop:
	for {
		env, err := in.Next()
		if err != nil {
			if !errors.Is(err, streamconn.ErrExhausted) {
				runErr = err
			}
			break loop
		}

		switch {
		case env.Acquisition != nil:
			acq := env.Acquisition
			if op.Accept(acq) {
				current = append(current, acq)
			}
			if op.Finish(acq) {
				if err := yield(Group{Acquisitions: current}); err != nil {
					runErr = err
					break loop
				}
				current = nil
			}
		case env.Image != nil:
			if err := yield(Group{Image: env.Image}); err != nil {
				runErr = err
				break loop
			}
		case env.Waveform != nil:
			logger.Debug("group: skipping waveform record")
		default:
			logger.Debug("group: skipping non-body envelope", logger.Kind(env.Kind.String()))
		}
	}

	if closeErr := out.SendClose(); closeErr != nil && runErr == nil {
		runErr = fmt.Errorf("group: send close: %w", closeErr)
	}
	return runErr
}
