package server

import (
	"testing"

	"github.com/redflake/redflake/resp"
	"github.com/redflake/redflake/snowflake"
)

func newTestSession() *session {
	return &session{
		protocol: protocolRESP2,
		gen:      snowflake.New(1),
		log:      noopLogger{},
	}
}

func command(verb string, args ...string) resp.Frame {
	elems := make(resp.Array, 0, len(args)+1)
	elems = append(elems, resp.BulkString(verb))
	for _, a := range args {
		elems = append(elems, resp.BulkString(a))
	}
	return elems
}

func TestDispatch_UnknownVerb(t *testing.T) {
	s := newTestSession()
	got := dispatch(command("PING"), s)
	want := resp.SimpleError("ERR Unknown command")
	if got != want {
		t.Errorf("dispatch(PING) = %#v, want %#v", got, want)
	}
}

func TestDispatch_NoOps(t *testing.T) {
	s := newTestSession()
	for _, verb := range []string{"AUTH", "auth", "CLIENT", "SELECT"} {
		got := dispatch(command(verb), s)
		want := resp.SimpleString("OK")
		if got != want {
			t.Errorf("dispatch(%s) = %#v, want %#v", verb, got, want)
		}
	}
}

func TestDispatch_Next(t *testing.T) {
	s := newTestSession()
	got := dispatch(command("NEXT"), s)
	id, ok := got.(resp.Integer)
	if !ok {
		t.Fatalf("dispatch(NEXT) = %#v, want resp.Integer", got)
	}
	if id <= 0 {
		t.Errorf("dispatch(NEXT) = %d, want positive", id)
	}

	got2 := dispatch(command("NEXT"), s)
	id2 := got2.(resp.Integer)
	if id2 <= id {
		t.Errorf("second NEXT = %d, want greater than first %d", id2, id)
	}
}

func TestDispatch_HelloDefaultsToResp2(t *testing.T) {
	s := newTestSession()
	got := dispatch(command("HELLO"), s)
	arr, ok := got.(resp.Array)
	if !ok {
		t.Fatalf("dispatch(HELLO) = %#v, want resp.Array", got)
	}
	if len(arr) != 6 {
		t.Fatalf("dispatch(HELLO) array len = %d, want 6", len(arr))
	}
	if s.protocol != protocolRESP2 {
		t.Errorf("protocol = %d, want RESP2", s.protocol)
	}
}

func TestDispatch_HelloSwitchesToResp3(t *testing.T) {
	s := newTestSession()
	got := dispatch(command("HELLO", "3"), s)
	if s.protocol != protocolRESP3 {
		t.Fatalf("protocol = %d, want RESP3", s.protocol)
	}
	m, ok := got.(resp.Map)
	if !ok {
		t.Fatalf("dispatch(HELLO 3) = %#v, want resp.Map", got)
	}
	if len(m) != 3 {
		t.Errorf("dispatch(HELLO 3) map len = %d, want 3", len(m))
	}
}

func TestDispatch_HelloBadVersionText(t *testing.T) {
	s := newTestSession()
	got := dispatch(command("HELLO", "nope"), s)
	want := resp.SimpleError("Protocol version is not an integer or out of range")
	if got != want {
		t.Errorf("dispatch(HELLO nope) = %#v, want %#v", got, want)
	}
}

func TestDispatch_HelloUnsupportedVersion(t *testing.T) {
	s := newTestSession()
	got := dispatch(command("HELLO", "4"), s)
	want := resp.SimpleError("Unsupported protocol version")
	if got != want {
		t.Errorf("dispatch(HELLO 4) = %#v, want %#v", got, want)
	}
}

func TestDispatch_NonArrayFrame(t *testing.T) {
	s := newTestSession()
	got := dispatch(resp.SimpleString("not a command"), s)
	se, ok := got.(resp.SimpleError)
	if !ok {
		t.Fatalf("dispatch(non-array) = %#v, want resp.SimpleError", got)
	}
	if se != "ERR Protocol error: expected array" {
		t.Errorf("dispatch(non-array) = %q", se)
	}
}

func TestDispatch_EmptyArray(t *testing.T) {
	s := newTestSession()
	got := dispatch(resp.Array{}, s)
	if _, ok := got.(resp.SimpleError); !ok {
		t.Fatalf("dispatch(empty array) = %#v, want resp.SimpleError", got)
	}
}

func TestDispatch_NonBulkStringVerb(t *testing.T) {
	s := newTestSession()
	got := dispatch(resp.Array{resp.Integer(1)}, s)
	want := resp.SimpleError("ERR Unknown command")
	if got != want {
		t.Errorf("dispatch([Integer]) = %#v, want %#v", got, want)
	}
}
