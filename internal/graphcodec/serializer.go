package graphcodec

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/kstaniek/grph/internal/emit"
	"github.com/kstaniek/grph/internal/logging"
	"github.com/kstaniek/grph/internal/metrics"
	"github.com/kstaniek/grph/internal/tsv"
)

// Serializer turns a TSV edge list into the compact binary format via the
// three-pass pipeline described in the format's component design: collect
// endpoints, sort-unique them into a mapping and count degrees, then fill
// and emit the CSR adjacency and loop sections.
type Serializer struct {
	version int
	metrics bool
	logger  *slog.Logger
}

// NewSerializer constructs a Serializer with version 2 (varint header) as
// the default emitted format.
func NewSerializer(opts ...SerializerOption) *Serializer {
	s := &Serializer{
		version: VersionVarint,
		logger:  logging.L(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type loopEntry struct {
	vertex uint32
	weight uint8
}

// Serialize reads the TSV edge list in input and writes the binary
// encoding to w.
func (s *Serializer) Serialize(input []byte, w io.Writer) error {
	if !isLittleEndianHost() {
		return ErrHostEndianness
	}
	err := s.serialize(input, w)
	if err != nil && s.metrics {
		metrics.IncMalformed(malformedKind(err))
	}
	return err
}

func (s *Serializer) serialize(input []byte, w io.Writer) error {
	lineCount, orig, err := s.collectAndCompact(input)
	if err != nil {
		return err
	}
	n := len(orig)

	bw := emit.NewBinaryWriter(w)
	if n == 0 {
		// Empty-input short circuit: header only, no mapping, no
		// adjacency, no loop section at all.
		if err := s.emitHeader(bw, 0, 0); err != nil {
			return err
		}
		if s.metrics {
			metrics.SetVertices(0)
			metrics.SetEdges(0)
			metrics.SetLoops(0)
			metrics.AddBytesWritten(int(bw.Written()))
		}
		return bw.Flush()
	}

	degPlus, loopCount, err := s.countPass(input, orig)
	if err != nil {
		return err
	}

	off := make([]uint32, n+1)
	for i := 0; i < n; i++ {
		off[i+1] = off[i] + degPlus[i]
	}
	nei := make([]uint32, off[n])
	wts := make([]uint8, off[n])
	loops := make([]loopEntry, 0, loopCount)
	cursor := make([]uint32, n)
	copy(cursor, off[:n])

	loops, err = s.fillPass(input, orig, off, nei, wts, cursor, loops)
	if err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		lo, hi := off[i], off[i+1]
		if hi-lo > 1 {
			sortAdjacency(nei[lo:hi], wts[lo:hi])
		}
	}
	sort.Slice(loops, func(i, j int) bool { return loops[i].vertex < loops[j].vertex })

	if err := s.emitHeader(bw, uint32(n), uint64(lineCount)); err != nil {
		return err
	}
	if err := s.emitMapping(bw, orig); err != nil {
		return err
	}
	if err := s.emitAdjacency(bw, off, nei, wts); err != nil {
		return err
	}
	if err := s.emitLoops(bw, loops); err != nil {
		return err
	}

	if s.metrics {
		metrics.SetVertices(n)
		metrics.SetEdges(int(off[n]))
		metrics.SetLoops(len(loops))
		metrics.AddBytesWritten(int(bw.Written()))
	}
	return bw.Flush()
}

// collectAndCompact runs pass 1: gather every endpoint, then sort and
// dedupe to produce the newId -> originalId mapping.
func (s *Serializer) collectAndCompact(input []byte) (lineCount int, orig []uint32, err error) {
	sc := tsv.New(input)
	var endpoints []uint32
	for {
		e, ok, scanErr := sc.Next()
		if scanErr != nil {
			return 0, nil, classifyScanErr(scanErr)
		}
		if !ok {
			break
		}
		endpoints = append(endpoints, e.U, e.V)
		lineCount++
	}
	if s.metrics {
		metrics.AddLinesScanned(lineCount)
	}
	if lineCount == 0 {
		return 0, nil, nil
	}

	sort.Slice(endpoints, func(i, j int) bool { return endpoints[i] < endpoints[j] })
	orig = endpoints[:0]
	for i, v := range endpoints {
		if i == 0 || v != orig[len(orig)-1] {
			orig = append(orig, v)
		}
	}
	return lineCount, orig, nil
}

// phi looks up the compact index of an original identifier via binary
// search over the sorted, deduplicated mapping. By construction every
// endpoint scanned in pass 1 appears in orig, so a miss is a bug, not a
// malformed-input condition.
func phi(orig []uint32, id uint32) (uint32, error) {
	i := sort.Search(len(orig), func(i int) bool { return orig[i] >= id })
	if i >= len(orig) || orig[i] != id {
		return 0, fmt.Errorf("%w: identifier %d missing from compacted mapping", ErrInternal, id)
	}
	return uint32(i), nil
}

// countPass runs pass 2: count the upper-degree of every vertex and the
// number of self-loops.
func (s *Serializer) countPass(input []byte, orig []uint32) (degPlus []uint32, loopCount int, err error) {
	degPlus = make([]uint32, len(orig))
	sc := tsv.New(input)
	for {
		e, ok, scanErr := sc.Next()
		if scanErr != nil {
			return nil, 0, classifyScanErr(scanErr)
		}
		if !ok {
			break
		}
		ia, err := phi(orig, e.U)
		if err != nil {
			return nil, 0, err
		}
		ib, err := phi(orig, e.V)
		if err != nil {
			return nil, 0, err
		}
		if ia == ib {
			loopCount++
		} else {
			if ia > ib {
				ia = ib
			}
			degPlus[ia]++
		}
	}
	return degPlus, loopCount, nil
}

// fillPass runs pass 3: place each edge into the preallocated CSR arrays
// or the loop slice.
func (s *Serializer) fillPass(input []byte, orig []uint32, off, nei []uint32, wts []uint8, cursor []uint32, loops []loopEntry) ([]loopEntry, error) {
	sc := tsv.New(input)
	for {
		e, ok, scanErr := sc.Next()
		if scanErr != nil {
			return nil, classifyScanErr(scanErr)
		}
		if !ok {
			break
		}
		ia, err := phi(orig, e.U)
		if err != nil {
			return nil, err
		}
		ib, err := phi(orig, e.V)
		if err != nil {
			return nil, err
		}
		if ia == ib {
			loops = append(loops, loopEntry{vertex: ia, weight: e.W})
			continue
		}
		u, v := ia, ib
		if u > v {
			u, v = v, u
		}
		idx := cursor[u]
		nei[idx] = v
		wts[idx] = e.W
		cursor[u]++
	}
	return loops, nil
}

// sortAdjacency sorts nei[lo:hi] ascending, permuting wts in lockstep.
// Stability among duplicate neighbor indices is not required.
func sortAdjacency(nei []uint32, wts []uint8) {
	sort.Sort(&adjacencySlice{nei: nei, wts: wts})
}

type adjacencySlice struct {
	nei []uint32
	wts []uint8
}

func (a *adjacencySlice) Len() int           { return len(a.nei) }
func (a *adjacencySlice) Less(i, j int) bool { return a.nei[i] < a.nei[j] }
func (a *adjacencySlice) Swap(i, j int) {
	a.nei[i], a.nei[j] = a.nei[j], a.nei[i]
	a.wts[i], a.wts[j] = a.wts[j], a.wts[i]
}

func (s *Serializer) emitHeader(bw *emit.BinaryWriter, n uint32, m uint64) error {
	if err := bw.Bytes(magic[:]); err != nil {
		return fmt.Errorf("write magic: %w", err)
	}
	if err := bw.Byte(byte(s.version)); err != nil {
		return fmt.Errorf("write version: %w", err)
	}
	if err := bw.Byte(endianMarker); err != nil {
		return fmt.Errorf("write endian marker: %w", err)
	}
	if s.version == VersionFixed {
		if err := bw.Uint32LE(n); err != nil {
			return fmt.Errorf("write N: %w", err)
		}
		if err := bw.Uint64LE(m); err != nil {
			return fmt.Errorf("write M: %w", err)
		}
		return nil
	}
	if err := bw.Varu(uint64(n)); err != nil {
		return fmt.Errorf("write N: %w", err)
	}
	if err := bw.Varu(m); err != nil {
		return fmt.Errorf("write M: %w", err)
	}
	return nil
}

func (s *Serializer) emitMapping(bw *emit.BinaryWriter, orig []uint32) error {
	if s.version == VersionFixed {
		for _, id := range orig {
			if err := bw.Uint32LE(id); err != nil {
				return fmt.Errorf("write mapping entry: %w", err)
			}
		}
		return nil
	}
	if err := bw.Uint32LE(orig[0]); err != nil {
		return fmt.Errorf("write mapping first: %w", err)
	}
	for i := 1; i < len(orig); i++ {
		if err := bw.Varu(uint64(orig[i] - orig[i-1])); err != nil {
			return fmt.Errorf("write mapping delta: %w", err)
		}
	}
	return nil
}

func (s *Serializer) emitAdjacency(bw *emit.BinaryWriter, off, nei []uint32, wts []uint8) error {
	n := len(off) - 1
	for i := 0; i < n; i++ {
		lo, hi := off[i], off[i+1]
		if err := bw.Varu(uint64(hi - lo)); err != nil {
			return fmt.Errorf("write degree: %w", err)
		}
		prev := uint32(i)
		for k := lo; k < hi; k++ {
			j := nei[k]
			if err := bw.Varu(uint64(j - prev)); err != nil {
				return fmt.Errorf("write gap: %w", err)
			}
			if err := bw.Byte(wts[k]); err != nil {
				return fmt.Errorf("write weight: %w", err)
			}
			prev = j
		}
	}
	return nil
}

func (s *Serializer) emitLoops(bw *emit.BinaryWriter, loops []loopEntry) error {
	if err := bw.Varu(uint64(len(loops))); err != nil {
		return fmt.Errorf("write loop count: %w", err)
	}
	var acc uint32
	for _, l := range loops {
		if err := bw.Varu(uint64(l.vertex - acc)); err != nil {
			return fmt.Errorf("write loop delta: %w", err)
		}
		if err := bw.Byte(l.weight); err != nil {
			return fmt.Errorf("write loop weight: %w", err)
		}
		acc = l.vertex
	}
	return nil
}

// classifyScanErr maps a tsv.Scanner error into the codec's error
// taxonomy, wrapping the original for context.
func classifyScanErr(err error) error {
	if errors.Is(err, tsv.ErrOverflow) {
		return fmt.Errorf("%w: %v", ErrOverflow, err)
	}
	return fmt.Errorf("%w: %v", ErrParse, err)
}
