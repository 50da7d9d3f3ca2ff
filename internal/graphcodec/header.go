package graphcodec

import (
	"encoding/binary"
	"math"
)

// magic is the 4-byte ASCII tag at offset 0 of every binary file.
var magic = [4]byte{'G', 'R', 'P', 'H'}

const (
	// endianMarker is the single byte asserting little-endian layout.
	endianMarker byte = 1

	// VersionFixed is the version-1 header: fixed-width u32 N and u64 M,
	// and an N*u32 mapping table.
	VersionFixed = 1

	// VersionVarint is the version-2 header: varint N and M, and a
	// first-plus-deltas mapping table. This is the version the
	// serializer emits by default.
	VersionVarint = 2
)

// headerSize is the byte length of the fixed portion common to both
// versions (magic + version + endian byte).
const headerSize = 6

// isLittleEndianHost reports whether the running process is little-endian.
// The format declares little-endian only; a portable build may still
// byte-swap on the fly, but this reference implementation refuses to run
// on a big-endian host rather than silently mis-encode.
func isLittleEndianHost() bool {
	var x uint16 = 1
	var b [2]byte
	binary.NativeEndian.PutUint16(b[:], x)
	return b[0] == 1
}

// maxVertexID is the largest representable original vertex identifier,
// matching the u32 range named throughout the spec.
const maxVertexID = math.MaxUint32
