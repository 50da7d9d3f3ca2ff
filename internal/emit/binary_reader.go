package emit

import (
	"encoding/binary"
	"io"

	"github.com/kstaniek/grph/internal/varint"
)

// BinaryReader is a forward-only cursor over an in-memory binary blob.
// The deserializer makes a single pass, so there is no buffering layer
// beyond the backing byte slice itself (which is typically a memory-mapped
// file, see internal/mmapio).
type BinaryReader struct {
	data []byte
	pos  int
}

// NewBinaryReader wraps data for sequential decoding.
func NewBinaryReader(data []byte) *BinaryReader {
	return &BinaryReader{data: data}
}

// Pos returns the current read offset.
func (br *BinaryReader) Pos() int { return br.pos }

// Remaining returns the number of unread bytes.
func (br *BinaryReader) Remaining() int { return len(br.data) - br.pos }

// Bytes reads exactly n raw bytes.
func (br *BinaryReader) Bytes(n int) ([]byte, error) {
	if br.Remaining() < n {
		return nil, io.ErrUnexpectedEOF
	}
	b := br.data[br.pos : br.pos+n]
	br.pos += n
	return b, nil
}

// Byte reads a single byte.
func (br *BinaryReader) Byte() (byte, error) {
	if br.Remaining() < 1 {
		return 0, io.ErrUnexpectedEOF
	}
	b := br.data[br.pos]
	br.pos++
	return b, nil
}

// ReadByte implements io.ByteReader so BinaryReader can back a varint.Reader
// directly, though in practice Varu below is used instead to avoid an
// extra allocation.
func (br *BinaryReader) ReadByte() (byte, error) {
	if br.Remaining() < 1 {
		return 0, io.EOF
	}
	b := br.data[br.pos]
	br.pos++
	return b, nil
}

// Uint32LE reads a 4-byte little-endian unsigned integer.
func (br *BinaryReader) Uint32LE() (uint32, error) {
	b, err := br.Bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Uint64LE reads an 8-byte little-endian unsigned integer.
func (br *BinaryReader) Uint64LE() (uint64, error) {
	b, err := br.Bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// Varu reads one unsigned LEB128 varint.
func (br *BinaryReader) Varu() (uint64, error) {
	x, n, err := varint.Decode(br.data[br.pos:])
	if err != nil {
		return 0, err
	}
	br.pos += n
	return x, nil
}
