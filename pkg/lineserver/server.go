package lineserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultShutdownGrace is how long Serve lets handlers finish on their own
// after its context is cancelled before cancelling theirs.
const DefaultShutdownGrace = 2 * time.Second

// acceptRetryDelay is the pause after a transient accept error.
var acceptRetryDelay = 50 * time.Millisecond

// ErrNilHandler is returned when Serve is called without a handler.
var ErrNilHandler = errors.New("lineserver: connection handler required")

// Handler serves one accepted connection. identity is unique for the lifetime
// of the server. The connection is closed after the handler returns.
type Handler func(ctx context.Context, conn net.Conn, identity string)

// Server wraps the TCP listener lifecycle.
type Server struct {
	Addr          string
	ShutdownGrace time.Duration

	logger *slog.Logger

	mu       sync.Mutex
	listener net.Listener
}

// New creates a Server for addr.
func New(addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		Addr:          addr,
		ShutdownGrace: DefaultShutdownGrace,
		logger:        logger,
	}
}

// ListenAndServe binds Addr and serves connections until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, handler Handler) error {
	if handler == nil {
		return ErrNilHandler
	}

	listener, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("lineserver: listen %q: %w", s.Addr, err)
	}

	return s.Serve(ctx, listener, handler)
}

// Serve accepts connections on listener until ctx is cancelled. It returns
// ctx.Err() once every handler has returned.
func (s *Server) Serve(ctx context.Context, listener net.Listener, handler Handler) error {
	if handler == nil {
		return ErrNilHandler
	}
	defer listener.Close()

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	connCtx, cancelConns := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelConns()

	var handlers sync.WaitGroup

	shutdown := make(chan struct{})
	defer close(shutdown)

	go func() {
		select {
		case <-ctx.Done():
			if err := listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
				s.logger.Warn("listener close error", "error", err)
			}
		case <-shutdown:
		}
	}()

	s.logger.Info("listening", "addr", listener.Addr().String())

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				s.drain(&handlers, cancelConns)
				return ctx.Err()
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				s.drain(&handlers, cancelConns)
				return fmt.Errorf("lineserver: accept: %w", err)
			}
			s.logger.Warn("accept error", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(acceptRetryDelay):
			}
			continue
		}

		handlers.Add(1)
		go func() {
			defer handlers.Done()
			s.handleConn(connCtx, conn, handler)
		}()
	}
}

// ListenerAddr reports the bound listener address, or nil before Serve starts.
func (s *Server) ListenerAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// drain waits for handlers to finish, cancelling their context once the
// shutdown grace period has elapsed.
func (s *Server) drain(handlers *sync.WaitGroup, cancelConns context.CancelFunc) {
	done := make(chan struct{})
	go func() {
		handlers.Wait()
		close(done)
	}()

	select {
	case <-done:
		return
	case <-time.After(s.ShutdownGrace):
		s.logger.Info("shutdown grace elapsed, closing remaining connections")
		cancelConns()
	}
	<-done
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn, handler Handler) {
	identity := uuid.NewString()
	remote := conn.RemoteAddr().String()
	log := s.logger.With("identity", identity, "remote", remote)

	defer func() {
		if r := recover(); r != nil {
			log.Error("handler panic", "panic", r)
		}
		_ = conn.Close()
		log.Debug("connection closed")
	}()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	log.Info("new connection")
	handler(ctx, conn, identity)
}
