// Package varint implements unsigned LEB128 variable-length integer
// encoding, the building block for every delta-coded field in the graph
// binary format.
package varint

import (
	"errors"
	"io"
)

// ErrMalformed is returned when a varint carries more continuation groups
// than a 64-bit value can hold.
var ErrMalformed = errors.New("varint: malformed (exceeds 64 bits)")

// MaxBytes is the longest a 64-bit unsigned varint can be (10 groups of 7
// bits cover 70 bits, the last of which must fit in a single data bit).
const MaxBytes = 10

// Append encodes x as unsigned LEB128 and appends it to dst.
func Append(dst []byte, x uint64) []byte {
	for x >= 0x80 {
		dst = append(dst, byte(x)|0x80)
		x >>= 7
	}
	return append(dst, byte(x))
}

// Len returns the number of bytes Append(nil, x) would produce.
func Len(x uint64) int {
	n := 1
	for x >= 0x80 {
		n++
		x >>= 7
	}
	return n
}

// Decode reads one unsigned varint from src, returning the value and the
// number of bytes consumed. If src ends before a terminating byte is
// found, it returns (0, 0, io.ErrUnexpectedEOF). If the varint would
// require more than 64 bits, it returns (0, n, ErrMalformed).
func Decode(src []byte) (x uint64, n int, err error) {
	var shift uint
	for n = 0; n < len(src); n++ {
		if n == MaxBytes {
			return 0, n, ErrMalformed
		}
		b := src[n]
		if n == MaxBytes-1 && b > 1 {
			return 0, n + 1, ErrMalformed
		}
		x |= uint64(b&0x7f) << shift
		if b < 0x80 {
			return x, n + 1, nil
		}
		shift += 7
	}
	return 0, 0, io.ErrUnexpectedEOF
}

// Reader decodes a sequence of varints from an underlying byte reader,
// one ReadByte call at a time. It is the streaming counterpart to Decode;
// the deserializer does not use it (it decodes in place from a slice via
// Decode).
type Reader struct {
	r io.ByteReader
}

// NewReader wraps r for sequential varint decoding.
func NewReader(r io.ByteReader) *Reader { return &Reader{r: r} }

// ReadUvarint decodes the next unsigned varint from the stream.
func (d *Reader) ReadUvarint() (uint64, error) {
	var x uint64
	var shift uint
	for i := 0; ; i++ {
		if i == MaxBytes {
			return 0, ErrMalformed
		}
		b, err := d.r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) && i > 0 {
				return 0, io.ErrUnexpectedEOF
			}
			return 0, err
		}
		if i == MaxBytes-1 && b > 1 {
			return 0, ErrMalformed
		}
		x |= uint64(b&0x7f) << shift
		if b < 0x80 {
			return x, nil
		}
		shift += 7
	}
}
