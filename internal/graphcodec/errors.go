package graphcodec

import "errors"

// Sentinel errors, one per taxonomy entry in the format's error handling
// design. Call sites wrap these with fmt.Errorf("...: %w", ...) so callers
// can classify failures with errors.Is while still getting a useful
// diagnostic string.
var (
	ErrParse            = errors.New("parse error")
	ErrOverflow         = errors.New("integer overflow")
	ErrBadHeader        = errors.New("bad header")
	ErrUnexpectedEOF    = errors.New("unexpected end of binary input")
	ErrMalformedVarint  = errors.New("malformed varint")
	ErrCorruptAdjacency = errors.New("corrupt adjacency section")
	ErrCorruptLoops     = errors.New("corrupt loop section")
	ErrHostEndianness   = errors.New("host is not little-endian")
	ErrInternal         = errors.New("internal invariant violation")
	ErrTrailingBytes    = errors.New("trailing bytes after loop section")
)

// malformedKind maps an error to a metrics.Kind* label by matching it
// against the taxonomy above, innermost (most specific) first.
func malformedKind(err error) string {
	switch {
	case errors.Is(err, ErrOverflow):
		return "overflow"
	case errors.Is(err, ErrMalformedVarint):
		return "malformed_varint"
	case errors.Is(err, ErrCorruptAdjacency):
		return "corrupt_adjacency"
	case errors.Is(err, ErrCorruptLoops):
		return "corrupt_loops"
	case errors.Is(err, ErrBadHeader):
		return "bad_header"
	case errors.Is(err, ErrUnexpectedEOF):
		return "unexpected_eof"
	case errors.Is(err, ErrParse):
		return "parse"
	default:
		return "other"
	}
}
