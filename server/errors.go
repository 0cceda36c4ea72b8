package server

import (
	"errors"

	"github.com/redflake/redflake/resp"
)

// ErrConnectionReset indicates the peer's connection was closed with
// bytes still buffered and unconsumed — an abrupt disconnect mid-frame,
// per the §4.C EOF-with-partial-buffer case.
var ErrConnectionReset = errors.New("server: connection reset by peer")

// ErrShutdown indicates a session's read was cancelled by the shutdown
// broadcast rather than completing or failing on its own.
var ErrShutdown = errors.New("server: shutdown requested")

// errBufferOverflow is returned when the unparsed read buffer reaches the
// initial-capacity ceiling without yielding a complete frame — protection
// against a peer sending bytes that will never form one.
var errBufferOverflow = &resp.MalformedError{Reason: "unparsed buffer exceeds ceiling"}
