package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/redflake/redflake/snowflake"
)

// DrainTimeout bounds how long Serve waits for in-flight sessions to
// finish after shutdown is requested before returning anyway.
const DrainTimeout = 10 * time.Second

// Logger is the minimal structured-logging surface Server needs. It is
// satisfied directly by *logrus.Logger, so callers need no adapter.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...any) {}
func (noopLogger) Infof(string, ...any)  {}
func (noopLogger) Warnf(string, ...any)  {}
func (noopLogger) Errorf(string, ...any) {}

// Options configures a new Server.
type Options struct {
	// Machine is the fixed machine identifier stamped into every ID this
	// server issues.
	Machine byte
	// MaxClients bounds the number of concurrently open connections.
	// Defaults to 1024 when zero or negative.
	MaxClients int64
	// Metrics, if non-nil, is updated as connections open/close and
	// commands are processed. Nil disables metrics entirely.
	Metrics *Metrics
	// Log receives structured session lifecycle and error messages. Nil
	// discards them.
	Log Logger
}

// Server accepts RESP2/RESP3 connections, gates admission with a
// configured client cap, and coordinates graceful shutdown across every
// live session.
type Server struct {
	listener net.Listener
	gen      *snowflake.Generator
	sem      *semaphore.Weighted
	metrics  *Metrics
	log      Logger
	wg       sync.WaitGroup
}

// New binds a TCP listener on addr (e.g. ":6380") and returns a Server
// ready to Serve.
func New(addr string, opts Options) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("server: listen: %w", err)
	}
	if opts.MaxClients <= 0 {
		opts.MaxClients = 1024
	}
	log := opts.Log
	if log == nil {
		log = noopLogger{}
	}
	return &Server{
		listener: ln,
		gen:      snowflake.New(opts.Machine),
		sem:      semaphore.NewWeighted(opts.MaxClients),
		metrics:  opts.Metrics,
		log:      log,
	}, nil
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve runs the accept loop until ctx is cancelled, then closes the
// listener, broadcasts shutdown to every live session via ctx, and waits
// up to DrainTimeout for them to finish before returning.
func (s *Server) Serve(ctx context.Context) error {
	acceptErr := make(chan error, 1)
	go func() {
		acceptErr <- s.acceptLoop(ctx)
	}()

	select {
	case <-ctx.Done():
	case err := <-acceptErr:
		if err != nil {
			return err
		}
	}

	_ = s.listener.Close()

	drained := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
	case <-time.After(DrainTimeout):
		s.log.Warnf("shutdown: forcing exit after %s drain timeout", DrainTimeout)
	}

	return nil
}

func (s *Server) acceptLoop(ctx context.Context) error {
	for {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			return nil
		}

		conn, err := s.listener.Accept()
		if err != nil {
			s.sem.Release(1)
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("server: accept: %w", err)
		}

		if s.metrics != nil {
			s.metrics.connectionsTotal.Inc()
			s.metrics.connectionsActive.Inc()
		}

		s.wg.Add(1)
		go s.handle(ctx, conn)
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer s.wg.Done()
	defer s.sem.Release(1)
	defer func() {
		_ = conn.Close()
		if s.metrics != nil {
			s.metrics.connectionsActive.Dec()
		}
	}()

	sess := newSession(conn, s.gen, s.metrics, s.log)
	s.log.Debugf("session started: %s", sess.addr)

	err := sess.serve(ctx)
	switch {
	case err == nil, errors.Is(err, ErrShutdown):
		s.log.Debugf("session ended: %s", sess.addr)
	default:
		s.log.Errorf("session %s terminated: %v", sess.addr, err)
	}
}
