// Package emit provides the buffered binary and text output sinks used by
// the serializer and deserializer. Both wrap bufio with a generous buffer
// so the codec's three-pass, line-at-a-time writes do not turn into a
// syscall per field.
package emit

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/kstaniek/grph/internal/varint"
)

// MinBufferSize is the minimum buffer size for BinaryWriter and TextWriter,
// per the format's resource model (section 4.5: "buffered, ≥ 64 KiB").
const MinBufferSize = 64 * 1024

// BinaryWriter buffers little-endian fixed-width and varint output.
type BinaryWriter struct {
	w       *bufio.Writer
	u32     [4]byte
	u64     [8]byte
	written int64
}

// NewBinaryWriter wraps w with a buffer of at least MinBufferSize.
func NewBinaryWriter(w io.Writer) *BinaryWriter {
	return &BinaryWriter{w: bufio.NewWriterSize(w, MinBufferSize)}
}

// Written returns the number of bytes accepted so far (buffered or not).
func (bw *BinaryWriter) Written() int64 { return bw.written }

// Bytes writes b verbatim.
func (bw *BinaryWriter) Bytes(b []byte) error {
	n, err := bw.w.Write(b)
	bw.written += int64(n)
	return err
}

// Byte writes a single byte.
func (bw *BinaryWriter) Byte(b byte) error {
	err := bw.w.WriteByte(b)
	if err == nil {
		bw.written++
	}
	return err
}

// Uint32LE writes x as 4 little-endian bytes.
func (bw *BinaryWriter) Uint32LE(x uint32) error {
	binary.LittleEndian.PutUint32(bw.u32[:], x)
	n, err := bw.w.Write(bw.u32[:])
	bw.written += int64(n)
	return err
}

// Uint64LE writes x as 8 little-endian bytes.
func (bw *BinaryWriter) Uint64LE(x uint64) error {
	binary.LittleEndian.PutUint64(bw.u64[:], x)
	n, err := bw.w.Write(bw.u64[:])
	bw.written += int64(n)
	return err
}

// Varu writes x as unsigned LEB128.
func (bw *BinaryWriter) Varu(x uint64) error {
	var tmp [varint.MaxBytes]byte
	enc := varint.Append(tmp[:0], x)
	n, err := bw.w.Write(enc)
	bw.written += int64(n)
	return err
}

// Flush flushes the underlying buffer. Callers must call Flush before
// relying on all bytes having reached the wrapped writer.
func (bw *BinaryWriter) Flush() error {
	return bw.w.Flush()
}
