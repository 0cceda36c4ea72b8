package resp

import (
	"strconv"
	"unicode/utf8"
)

// Text validates b as UTF-8 and returns it as a string. Used wherever a
// BulkString is being interpreted as a command verb or other text
// argument — the codec itself does not require BulkString payloads to be
// UTF-8 (they may carry arbitrary bytes), but the command layer does.
func Text(b BulkString) (string, error) {
	if !utf8.Valid(b) {
		return "", malformed("non-UTF-8 text")
	}
	return string(b), nil
}

// Uint8 parses b as a base-10 unsigned 8-bit integer, as required when
// extracting a BulkString being interpreted as a numeric argument (e.g.
// HELLO's protocol version).
func Uint8(b BulkString) (uint8, error) {
	s, err := Text(b)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, malformed("invalid numeric argument: %v", err)
	}
	return uint8(v), nil
}
