// Package snowflake implements a lock-free, process-wide allocator of
// monotone 64-bit identifiers in the Twitter Snowflake tradition: a
// millisecond timestamp, a configured machine identifier, and a
// per-millisecond sequence, packed into a single int64 and advanced with a
// compare-and-swap loop.
package snowflake

import (
	"errors"
	"runtime"
	"sync/atomic"
	"time"
)

// epochMillis is 2000-01-01T00:00:00Z expressed as milliseconds since the
// Unix epoch — the fixed reference point for the 44-bit timestamp field.
const epochMillis = 946684800000

// maxSequence is the largest value the 12-bit sequence field can hold.
const maxSequence = 0xfff

// ErrClockMovedBackwards is returned by Next when the wall clock observes
// a time earlier than the last-emitted ID's timestamp.
var ErrClockMovedBackwards = errors.New("Clock moved backwards")

// Generator emits strictly increasing 64-bit IDs for a single configured
// machine. The zero value is not usable; construct with New.
type Generator struct {
	machine byte
	last    atomic.Int64
}

// New returns a Generator for the given machine identifier (0..255). The
// machine field is fixed for the lifetime of the Generator — set once at
// construction, read-only thereafter, per the concurrency model: no
// synchronization is needed to read it from concurrent callers.
func New(machine byte) *Generator {
	return &Generator{machine: machine}
}

// Machine returns the configured machine identifier.
func (g *Generator) Machine() byte {
	return g.machine
}

// Next returns the next ID, or ErrClockMovedBackwards if the wall clock
// regressed relative to the last-emitted ID. Safe for concurrent use by
// any number of callers; never blocks on a mutex, but may spin briefly
// under contention or sequence exhaustion within the same millisecond.
func (g *Generator) Next() (int64, error) {
	for {
		last := g.last.Load()
		lastTS, _, lastSeq := decompose(last)

		now := nowMillis()

		var seq uint16
		switch {
		case now < lastTS:
			return 0, ErrClockMovedBackwards
		case now == lastTS:
			seq = lastSeq + 1
			if seq > maxSequence {
				runtime.Gosched()
				continue
			}
		default:
			seq = 0
		}

		candidate := compose(now, g.machine, seq)
		if g.last.CompareAndSwap(last, candidate) {
			return candidate, nil
		}
		runtime.Gosched()
	}
}

func nowMillis() int64 {
	return time.Now().UnixMilli() - epochMillis
}

// Decompose splits a packed ID back into its timestamp (milliseconds since
// the Unix epoch, not the Snowflake epoch), machine, and sequence fields.
// Exported for observability and tests.
func Decompose(id int64) (timestampMillis int64, machine byte, sequence uint16) {
	ts, m, seq := decompose(id)
	return ts + epochMillis, m, seq
}

func decompose(packed int64) (timestamp int64, machine byte, sequence uint16) {
	timestamp = packed >> 20
	machine = byte(packed >> 12)
	sequence = uint16(packed) & maxSequence
	return
}

func compose(timestamp int64, machine byte, sequence uint16) int64 {
	return timestamp<<20 | int64(machine)<<12 | int64(sequence)
}
