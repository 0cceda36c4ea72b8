package server

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"

	"github.com/redflake/redflake/resp"
	"github.com/redflake/redflake/snowflake"
)

// initialBufferSize is the read buffer's starting capacity and also the
// ceiling on how large the unparsed portion may grow before a session is
// treated as malformed: a peer that never completes a frame within this
// many bytes is not making progress.
const initialBufferSize = 128

type protocolVersion int

const (
	protocolRESP2 protocolVersion = 2
	protocolRESP3 protocolVersion = 3
)

// session holds the per-connection state: the buffered writer, the
// unparsed read buffer (compacted in place as frames are consumed), and
// the negotiated protocol version.
type session struct {
	conn     net.Conn
	addr     net.Addr
	writer   *bufio.Writer
	buf      []byte
	protocol protocolVersion
	gen      *snowflake.Generator
	metrics  *Metrics
	log      Logger
}

func newSession(conn net.Conn, gen *snowflake.Generator, metrics *Metrics, log Logger) *session {
	return &session{
		conn:     conn,
		addr:     conn.RemoteAddr(),
		writer:   bufio.NewWriter(conn),
		buf:      make([]byte, 0, initialBufferSize),
		protocol: protocolRESP2,
		gen:      gen,
		metrics:  metrics,
		log:      log,
	}
}

// serve reads and replies to frames until the connection ends, a
// protocol error occurs, or ctx is cancelled. It never returns an error
// for a clean EOF with no unparsed bytes left behind.
func (s *session) serve(ctx context.Context) error {
	for {
		frame, err := s.readFrame(ctx)
		if err != nil {
			return err
		}
		if frame == nil {
			return nil
		}

		reply := dispatch(frame, s)
		if _, err := s.writer.Write(reply.Append(nil)); err != nil {
			return err
		}
		if err := s.writer.Flush(); err != nil {
			return err
		}
	}
}

// readFrame returns the next complete frame, nil on a clean EOF with no
// bytes left buffered, or an error: ErrConnectionReset on EOF mid-frame,
// ErrShutdown on a cancelled read, or a *resp.MalformedError from the
// codec (including the buffer-ceiling guard below).
func (s *session) readFrame(ctx context.Context) (resp.Frame, error) {
	for {
		frame, n, err := resp.Parse(s.buf)
		switch {
		case err == nil:
			s.buf = append(s.buf[:0], s.buf[n:]...)
			return frame, nil
		case errors.Is(err, resp.ErrIncomplete):
		default:
			return nil, err
		}

		if len(s.buf) >= initialBufferSize {
			return nil, errBufferOverflow
		}

		n, err := s.readMore(ctx)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			if len(s.buf) == 0 {
				return nil, nil
			}
			return nil, ErrConnectionReset
		}
	}
}

// readMore performs one cancellable read, appending whatever arrives to
// s.buf. A shutdown cancellation closes the connection to unblock the
// in-flight read and discards any bytes it returns, per the session
// model: cancellation never leaves a session holding a half-buffered
// frame to resume later.
func (s *session) readMore(ctx context.Context) (int, error) {
	type result struct {
		n   int
		err error
	}
	done := make(chan result, 1)
	scratch := make([]byte, initialBufferSize)

	go func() {
		n, err := s.conn.Read(scratch)
		done <- result{n, err}
	}()

	select {
	case <-ctx.Done():
		_ = s.conn.Close()
		<-done
		return 0, ErrShutdown
	case r := <-done:
		if r.err != nil {
			if errors.Is(r.err, io.EOF) {
				return 0, nil
			}
			return 0, r.err
		}
		s.log.Debugf("read %d bytes from %s", r.n, s.addr)
		s.buf = append(s.buf, scratch[:r.n]...)
		return r.n, nil
	}
}
