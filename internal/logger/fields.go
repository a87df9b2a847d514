package logger

import (
	"fmt"
	"log/slog"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements for log aggregation and querying.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Session & Connection
	// ========================================================================
	KeySessionID  = "session_id"  // server-assigned connection identifier
	KeyClientIP   = "client_ip"   // client IP address
	KeyClientPort = "client_port" // client source port
	KeyState      = "state"       // connection state machine state
	KeyDurationMs = "duration_ms" // operation/session duration in milliseconds

	// ========================================================================
	// Envelope & Wire
	// ========================================================================
	KeyKind        = "kind"         // envelope identifier (acquisition, image, waveform, ...)
	KeyKindValue   = "kind_value"   // raw numeric envelope identifier
	KeyPayloadSize = "payload_size" // envelope payload size in bytes

	// ========================================================================
	// Pipeline & Reconstruction
	// ========================================================================
	KeyPipeline    = "pipeline"     // selected pipeline token
	KeyKernel      = "kernel"       // reconstruction kernel name
	KeyGroupSize   = "group_size"   // acquisitions accumulated in a group
	KeyImageIndex  = "image_index"  // emitted image index
	KeySeriesIndex = "series_index" // emitted image series index
	KeyMatrixShape = "matrix_shape" // reconstructed matrix dimensions

	// ========================================================================
	// Dataset & Storage
	// ========================================================================
	KeyDatasetPath  = "dataset_path"  // dataset filesystem path or URI
	KeyBucket       = "bucket"        // S3 bucket name
	KeyObjectKey    = "object_key"    // S3 object key
	KeyGroupName    = "group_name"    // HDF5-style group name within a dataset
	KeyBytesRead    = "bytes_read"    // actual bytes read
	KeyBytesWritten = "bytes_written" // actual bytes written

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyError     = "error"      // error message
	KeyErrorCode = "error_code" // numeric/categorical error code
	KeyOperation = "operation"  // sub-operation type for complex operations
	KeyAttempt   = "attempt"    // retry attempt number
)

// ----------------------------------------------------------------------------
// Distributed Tracing
// ----------------------------------------------------------------------------

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// ----------------------------------------------------------------------------
// Session & Connection
// ----------------------------------------------------------------------------

// SessionID returns a slog.Attr for the connection identifier
func SessionID(id string) slog.Attr {
	return slog.String(KeySessionID, id)
}

// ClientIP returns a slog.Attr for client IP address
func ClientIP(addr string) slog.Attr {
	return slog.String(KeyClientIP, addr)
}

// ClientPort returns a slog.Attr for client source port
func ClientPort(port int) slog.Attr {
	return slog.Int(KeyClientPort, port)
}

// State returns a slog.Attr for the connection state
func State(state string) slog.Attr {
	return slog.String(KeyState, state)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// ----------------------------------------------------------------------------
// Envelope & Wire
// ----------------------------------------------------------------------------

// Kind returns a slog.Attr for an envelope identifier's name
func Kind(name string) slog.Attr {
	return slog.String(KeyKind, name)
}

// KindValue returns a slog.Attr for the raw numeric envelope identifier
func KindValue(v uint16) slog.Attr {
	return slog.Any(KeyKindValue, v)
}

// PayloadSize returns a slog.Attr for an envelope payload size
func PayloadSize(n int) slog.Attr {
	return slog.Int(KeyPayloadSize, n)
}

// ----------------------------------------------------------------------------
// Pipeline & Reconstruction
// ----------------------------------------------------------------------------

// Pipeline returns a slog.Attr for the selected pipeline token
func Pipeline(token string) slog.Attr {
	return slog.String(KeyPipeline, token)
}

// Kernel returns a slog.Attr for the reconstruction kernel name
func Kernel(name string) slog.Attr {
	return slog.String(KeyKernel, name)
}

// GroupSize returns a slog.Attr for the number of acquisitions in a group
func GroupSize(n int) slog.Attr {
	return slog.Int(KeyGroupSize, n)
}

// ImageIndex returns a slog.Attr for an emitted image index
func ImageIndex(n uint16) slog.Attr {
	return slog.Any(KeyImageIndex, n)
}

// SeriesIndex returns a slog.Attr for an emitted image series index
func SeriesIndex(n uint16) slog.Attr {
	return slog.Any(KeySeriesIndex, n)
}

// MatrixShape returns a slog.Attr for a reconstructed matrix's dimensions
func MatrixShape(x, y, z int) slog.Attr {
	return slog.String(KeyMatrixShape, fmt.Sprintf("%dx%dx%d", x, y, z))
}

// ----------------------------------------------------------------------------
// Dataset & Storage
// ----------------------------------------------------------------------------

// DatasetPath returns a slog.Attr for a dataset filesystem path or URI
func DatasetPath(p string) slog.Attr {
	return slog.String(KeyDatasetPath, p)
}

// Bucket returns a slog.Attr for an S3 bucket name
func Bucket(name string) slog.Attr {
	return slog.String(KeyBucket, name)
}

// ObjectKey returns a slog.Attr for an S3 object key
func ObjectKey(key string) slog.Attr {
	return slog.String(KeyObjectKey, key)
}

// GroupName returns a slog.Attr for a dataset group name
func GroupName(name string) slog.Attr {
	return slog.String(KeyGroupName, name)
}

// BytesRead returns a slog.Attr for actual bytes read
func BytesRead(n int) slog.Attr {
	return slog.Int(KeyBytesRead, n)
}

// BytesWritten returns a slog.Attr for actual bytes written
func BytesWritten(n int) slog.Attr {
	return slog.Int(KeyBytesWritten, n)
}

// ----------------------------------------------------------------------------
// Operation Metadata
// ----------------------------------------------------------------------------

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for a numeric/categorical error code
func ErrorCode(code string) slog.Attr {
	return slog.String(KeyErrorCode, code)
}

// Operation returns a slog.Attr for sub-operation type
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Attempt returns a slog.Attr for retry attempt number
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}
