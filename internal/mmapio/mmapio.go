// Package mmapio acquires the read-only byte range the codec operates
// over. On Linux it memory-maps the input file (MAP_PRIVATE, read-only)
// so the serializer's three passes re-read page-cache-resident memory
// instead of re-issuing syscalls; elsewhere it falls back to a single
// buffered read into a plain byte slice.
package mmapio

import "os"

// Mapping is a read-only view over a file's contents plus the means to
// release it.
type Mapping struct {
	Data  []byte
	close func() error
}

// Close releases the mapping (or, on the fallback path, is a no-op).
func (m *Mapping) Close() error {
	if m.close == nil {
		return nil
	}
	return m.close()
}

// openFallback reads the whole file into memory. Used on platforms
// without a mmap implementation here, and automatically when the file is
// empty (mmap of a zero-length file is invalid on every platform).
func openFallback(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &Mapping{Data: data}, nil
}
