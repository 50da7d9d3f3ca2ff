package graphcodec

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/kstaniek/grph/internal/emit"
	"github.com/kstaniek/grph/internal/logging"
	"github.com/kstaniek/grph/internal/metrics"
)

// Deserializer reconstructs the original edge-list text from the compact
// binary format in a single forward pass, as described in the format's
// deserializer design.
type Deserializer struct {
	metrics       bool
	logger        *slog.Logger
	strictTrailer bool
}

// NewDeserializer constructs a Deserializer. It accepts either header
// version produced by a Serializer.
func NewDeserializer(opts ...DeserializerOption) *Deserializer {
	d := &Deserializer{logger: logging.L()}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Deserialize decodes the binary input and writes the reconstructed TSV
// edge list to w.
func (d *Deserializer) Deserialize(input []byte, w io.Writer) error {
	if !isLittleEndianHost() {
		return ErrHostEndianness
	}
	err := d.deserialize(input, w)
	if err != nil && d.metrics {
		metrics.IncMalformed(malformedKind(err))
	}
	return err
}

func (d *Deserializer) deserialize(input []byte, w io.Writer) error {
	br := emit.NewBinaryReader(input)

	version, err := d.readHeader(br)
	if err != nil {
		return err
	}

	n, _, err := d.readCounts(br, version)
	if err != nil {
		return err
	}

	orig, err := d.readMapping(br, version, n)
	if err != nil {
		return err
	}

	tw := emit.NewTextWriter(w)
	lines, err := d.readAdjacency(br, orig, tw)
	if err != nil {
		return err
	}
	loopLines, err := d.readLoops(br, orig, tw)
	if err != nil {
		return err
	}
	lines += loopLines

	if d.strictTrailer && br.Remaining() > 0 {
		return fmt.Errorf("%w: %d bytes remain at offset %d", ErrTrailingBytes, br.Remaining(), br.Pos())
	}

	if d.metrics {
		metrics.AddTextLines(lines)
		metrics.AddBytesWritten(int(tw.Written()))
	}
	return tw.Flush()
}

func (d *Deserializer) readHeader(br *emit.BinaryReader) (int, error) {
	got, err := br.Bytes(4)
	if err != nil {
		return 0, fmt.Errorf("%w: reading magic: %v", ErrBadHeader, err)
	}
	if string(got) != string(magic[:]) {
		return 0, fmt.Errorf("%w: bad magic %q", ErrBadHeader, got)
	}
	version, err := br.Byte()
	if err != nil {
		return 0, fmt.Errorf("%w: reading version: %v", ErrBadHeader, err)
	}
	if version != VersionFixed && version != VersionVarint {
		return 0, fmt.Errorf("%w: unsupported version %d", ErrBadHeader, version)
	}
	endian, err := br.Byte()
	if err != nil {
		return 0, fmt.Errorf("%w: reading endian marker: %v", ErrBadHeader, err)
	}
	if endian != endianMarker {
		return 0, fmt.Errorf("%w: bad endian marker %d", ErrBadHeader, endian)
	}
	return int(version), nil
}

func (d *Deserializer) readCounts(br *emit.BinaryReader, version int) (n uint32, m uint64, err error) {
	if version == VersionFixed {
		n, err = br.Uint32LE()
		if err != nil {
			return 0, 0, fmt.Errorf("%w: reading N: %v", ErrUnexpectedEOF, err)
		}
		m, err = br.Uint64LE()
		if err != nil {
			return 0, 0, fmt.Errorf("%w: reading M: %v", ErrUnexpectedEOF, err)
		}
		return n, m, nil
	}
	n64, err := readVaru(br)
	if err != nil {
		return 0, 0, err
	}
	if n64 > maxVertexID {
		return 0, 0, fmt.Errorf("%w: N %d exceeds u32 range", ErrBadHeader, n64)
	}
	m, err = readVaru(br)
	if err != nil {
		return 0, 0, err
	}
	return uint32(n64), m, nil
}

func (d *Deserializer) readMapping(br *emit.BinaryReader, version int, n uint32) ([]uint32, error) {
	orig := make([]uint32, n)
	if n == 0 {
		return orig, nil
	}
	if version == VersionFixed {
		for i := range orig {
			v, err := br.Uint32LE()
			if err != nil {
				return nil, fmt.Errorf("%w: reading mapping entry %d: %v", ErrUnexpectedEOF, i, err)
			}
			orig[i] = v
		}
		return orig, nil
	}
	first, err := br.Uint32LE()
	if err != nil {
		return nil, fmt.Errorf("%w: reading mapping first: %v", ErrUnexpectedEOF, err)
	}
	orig[0] = first
	for i := 1; i < len(orig); i++ {
		delta, err := readVaru(br)
		if err != nil {
			return nil, err
		}
		orig[i] = orig[i-1] + uint32(delta)
	}
	return orig, nil
}

// readAdjacency decodes section B and writes one text line per
// upper-adjacency entry.
func (d *Deserializer) readAdjacency(br *emit.BinaryReader, orig []uint32, tw *emit.TextWriter) (int, error) {
	n := uint32(len(orig))
	var lines int
	for i := uint32(0); i < n; i++ {
		deg, err := readVaru(br)
		if err != nil {
			return 0, err
		}
		prev := i
		for k := uint64(0); k < deg; k++ {
			gap, err := readVaru(br)
			if err != nil {
				return 0, err
			}
			j := uint64(prev) + gap
			if j >= uint64(n) {
				return 0, fmt.Errorf("%w: neighbor index %d >= N (%d)", ErrCorruptAdjacency, j, n)
			}
			w, err := br.Byte()
			if err != nil {
				return 0, fmt.Errorf("%w: reading weight: %v", ErrUnexpectedEOF, err)
			}
			if err := tw.Edge(orig[i], orig[j], w); err != nil {
				return 0, fmt.Errorf("write edge line: %w", err)
			}
			lines++
			prev = uint32(j)
		}
	}
	return lines, nil
}

// readLoops decodes section C and writes one text line per self-loop.
func (d *Deserializer) readLoops(br *emit.BinaryReader, orig []uint32, tw *emit.TextWriter) (int, error) {
	n := uint32(len(orig))
	if n == 0 && br.Remaining() == 0 {
		// Matches the empty-input short circuit on the write side: no
		// loop section was emitted at all, not even L=0.
		return 0, nil
	}
	l, err := readVaru(br)
	if err != nil {
		return 0, err
	}
	var acc uint32
	var lines int
	for k := uint64(0); k < l; k++ {
		delta, err := readVaru(br)
		if err != nil {
			return 0, err
		}
		v := uint64(acc) + delta
		if v >= uint64(n) {
			return 0, fmt.Errorf("%w: loop vertex %d >= N (%d)", ErrCorruptLoops, v, n)
		}
		w, err := br.Byte()
		if err != nil {
			return 0, fmt.Errorf("%w: reading loop weight: %v", ErrUnexpectedEOF, err)
		}
		if err := tw.Edge(orig[v], orig[v], w); err != nil {
			return 0, fmt.Errorf("write loop line: %w", err)
		}
		lines++
		acc = uint32(v)
	}
	return lines, nil
}

// readVaru decodes one varint, translating the varint package's own
// errors into the codec's taxonomy.
func readVaru(br *emit.BinaryReader) (uint64, error) {
	x, err := br.Varu()
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, fmt.Errorf("%w: %v", ErrUnexpectedEOF, err)
		}
		return 0, fmt.Errorf("%w: %v", ErrMalformedVarint, err)
	}
	return x, nil
}
