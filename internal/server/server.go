// Package server implements the MRD streaming TCP server: a bind/accept
// loop that spawns one isolated, daemonized worker per connection.
package server

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ismrmrd-go/mrdstream/internal/capture"
	"github.com/ismrmrd-go/mrdstream/internal/config"
	"github.com/ismrmrd-go/mrdstream/internal/logger"
	"github.com/ismrmrd-go/mrdstream/internal/metricsrv"
	"github.com/ismrmrd-go/mrdstream/internal/pipeline"
	"github.com/ismrmrd-go/mrdstream/internal/reccodec"
	"github.com/ismrmrd-go/mrdstream/internal/streamconn"
	"github.com/ismrmrd-go/mrdstream/internal/telemetry"
)

// Server accepts MRD streaming sessions over TCP and dispatches each to a
// Pipeline resolved from the session's ConfigSelector.
type Server struct {
	cfg      *config.ServerConfig
	registry *pipeline.Registry
	metrics  *metricsrv.Metrics

	listenerMu sync.RWMutex
	listener   net.Listener

	activeConns sync.WaitGroup

	shutdownOnce sync.Once
	shutdown     chan struct{}

	ready chan struct{}
}

// New builds a Server bound to cfg, dispatching through registry. Metrics
// are disabled (nil-safe no-ops) unless WithMetrics is also passed.
func New(cfg *config.ServerConfig, registry *pipeline.Registry, opts ...Option) *Server {
	s := &Server{cfg: cfg, registry: registry, shutdown: make(chan struct{}), ready: make(chan struct{})}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Option configures optional Server behaviour.
type Option func(*Server)

// WithMetrics attaches a metricsrv.Metrics instance the server records
// session and pipeline counters to.
func WithMetrics(m *metricsrv.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// Addr blocks until the listener is bound and returns its address. Used by
// tests and by callers that bind to port 0 and need the resolved port.
func (s *Server) Addr() string {
	<-s.ready
	s.listenerMu.RLock()
	defer s.listenerMu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// ListenAndServe binds the configured host:port and runs the accept loop
// until ctx is cancelled, spawning one daemon worker per accepted
// connection. Each worker's panic is recovered so it cannot take the
// acceptor down: each connection is its own fault domain.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	lc := net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen on %s: %w", addr, err)
	}

	s.listenerMu.Lock()
	s.listener = listener
	s.listenerMu.Unlock()
	close(s.ready)

	logger.Info("mrdserver listening", "address", listener.Addr().String())

	go func() {
		<-ctx.Done()
		s.initiateShutdown()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				return s.waitForWorkers()
			default:
				logger.Warn("server: accept failed", logger.Err(err))
				continue
			}
		}

		if tcp, ok := conn.(*net.TCPConn); ok {
			_ = tcp.SetNoDelay(true)
		}

		sessionID := uuid.NewString()
		logger.Info("session accepted", logger.SessionID(sessionID), logger.ClientIP(conn.RemoteAddr().String()))

		s.activeConns.Add(1)
		go s.serveConnection(conn, sessionID)
	}
}

// Stop initiates shutdown: the accept loop stops taking new connections,
// but in-flight workers are left to finish their sessions on their own.
func (s *Server) Stop() {
	s.initiateShutdown()
}

func (s *Server) initiateShutdown() {
	s.shutdownOnce.Do(func() {
		close(s.shutdown)
		s.listenerMu.RLock()
		defer s.listenerMu.RUnlock()
		if s.listener != nil {
			_ = s.listener.Close()
		}
	})
}

func (s *Server) waitForWorkers() error {
	s.activeConns.Wait()
	return nil
}

// serveConnection is the per-connection worker: it owns the isolated fault
// domain via the deferred recover, constructs a Connection, reads the
// session header (ConfigSelector + metadata), dispatches to the resolved
// Pipeline, and finally shuts down the socket, swallowing close errors.
func (s *Server) serveConnection(netConn net.Conn, sessionID string) {
	defer s.activeConns.Done()
	s.metrics.SessionStarted()
	succeeded := false
	defer func() {
		if succeeded {
			s.metrics.SessionCompleted()
		} else {
			s.metrics.SessionFailed()
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("session worker panicked", logger.SessionID(sessionID), logger.Err(fmt.Errorf("%v", r)))
		}
	}()
	defer closeConnection(netConn, sessionID)

	_, span := telemetry.StartSpan(context.Background(), "mrdstream.session",
		trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	var opts []streamconn.Option
	opts = append(opts, streamconn.WithSessionID(sessionID))
	if s.cfg.SaveData {
		dir := s.cfg.SaveDataFolder
		opts = append(opts, streamconn.WithCaptureSinkFactory(func() (streamconn.CaptureSink, error) {
			return capture.NewSessionSink(dir, sessionID)
		}))
	}

	conn := streamconn.New(netConn, reccodec.Reference{}, opts...)

	configEnv, err := conn.Next()
	if err != nil {
		logger.Warn("session: failed to read config selector", logger.SessionID(sessionID), logger.Err(err))
		span.RecordError(err)
		return
	}
	metaEnv, err := conn.Next()
	if err != nil {
		logger.Warn("session: failed to read metadata", logger.SessionID(sessionID), logger.Err(err))
		span.RecordError(err)
		return
	}

	token := configEnv.ConfigToken
	p := s.registry.Resolve(token)
	span.SetAttributes(attribute.String("mrdstream.pipeline", token))

	logger.Info("session dispatching", logger.SessionID(sessionID), logger.Pipeline(token))

	pctx := &pipeline.Context{
		Conn:           conn,
		ConfigSelector: token,
		Metadata:       metaEnv.Metadata,
		CaptureDir:     s.cfg.SaveDataFolder,
		SessionID:      sessionID,
		Metrics:        s.metrics,
	}
	if err := p(pctx); err != nil {
		logger.Warn("session: pipeline returned an error", logger.SessionID(sessionID), logger.Err(err))
		s.metrics.PipelineError(token)
		span.RecordError(err)
		return
	}

	succeeded = true
	logger.Info("session completed", logger.SessionID(sessionID))
}

func closeConnection(conn net.Conn, sessionID string) {
	if tcp, ok := conn.(*net.TCPConn); ok {
		if err := tcp.CloseWrite(); err != nil {
			logger.Debug("session: CloseWrite failed", logger.SessionID(sessionID), logger.Err(err))
		}
	}
	if err := conn.Close(); err != nil {
		logger.Debug("session: close failed", logger.SessionID(sessionID), logger.Err(err))
	}
}
