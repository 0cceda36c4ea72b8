package server

import (
	"strings"

	"github.com/redflake/redflake/internal/buildinfo"
	"github.com/redflake/redflake/resp"
)

// dispatch interprets a parsed frame as a command and returns the reply
// frame to send back. Every path returns a reply; dispatch never signals
// a connection-terminating error — that distinction belongs to the codec
// and read loop below it, not the command layer.
func dispatch(frame resp.Frame, s *session) resp.Frame {
	arr, ok := frame.(resp.Array)
	if !ok {
		return errorReply("Protocol error: expected array")
	}
	if len(arr) == 0 {
		return errorReply("Protocol error: empty command")
	}

	verbBulk, ok := arr[0].(resp.BulkString)
	if !ok {
		return unknownCommand()
	}
	verb, err := resp.Text(verbBulk)
	if err != nil {
		return unknownCommand()
	}

	switch {
	case strings.EqualFold(verb, "auth"), strings.EqualFold(verb, "client"), strings.EqualFold(verb, "select"):
		return resp.SimpleString("OK")
	case strings.EqualFold(verb, "hello"):
		return handleHello(arr[1:], s)
	case strings.EqualFold(verb, "next"):
		return handleNext(s)
	default:
		return unknownCommand()
	}
}

func unknownCommand() resp.Frame {
	return resp.SimpleError("ERR Unknown command")
}

func errorReply(reason string) resp.Frame {
	return resp.SimpleError("ERR " + reason)
}

func handleNext(s *session) resp.Frame {
	id, err := s.gen.Next()
	if err != nil {
		if s.metrics != nil {
			s.metrics.commandErrors.WithLabelValues("next").Inc()
		}
		return errorReply(err.Error())
	}
	if s.metrics != nil {
		s.metrics.idsIssued.Inc()
	}
	return resp.Integer(id)
}

// handleHello negotiates the protocol version and replies with the
// server's identity. A version argument is optional; when present it
// must be the literal integer 2 or 3, with the exact error text the
// original implementation used for the two ways it can be rejected.
func handleHello(args []resp.Frame, s *session) resp.Frame {
	if len(args) > 0 {
		bulk, ok := args[0].(resp.BulkString)
		if !ok {
			if s.metrics != nil {
				s.metrics.commandErrors.WithLabelValues("hello").Inc()
			}
			return resp.SimpleError("Protocol version is not an integer or out of range")
		}
		version, err := resp.Uint8(bulk)
		if err != nil {
			if s.metrics != nil {
				s.metrics.commandErrors.WithLabelValues("hello").Inc()
			}
			return resp.SimpleError("Protocol version is not an integer or out of range")
		}
		switch version {
		case 2:
			s.protocol = protocolRESP2
		case 3:
			s.protocol = protocolRESP3
		default:
			if s.metrics != nil {
				s.metrics.commandErrors.WithLabelValues("hello").Inc()
			}
			return resp.SimpleError("Unsupported protocol version")
		}
	}

	if s.protocol == protocolRESP3 {
		return resp.Map{
			{Key: resp.SimpleString("server"), Value: resp.SimpleString(buildinfo.Name)},
			{Key: resp.SimpleString("version"), Value: resp.SimpleString(buildinfo.Version)},
			{Key: resp.SimpleString("proto"), Value: resp.Integer(3)},
		}
	}
	return resp.Array{
		resp.SimpleString("server"), resp.SimpleString(buildinfo.Name),
		resp.SimpleString("version"), resp.SimpleString(buildinfo.Version),
		resp.SimpleString("proto"), resp.Integer(2),
	}
}
