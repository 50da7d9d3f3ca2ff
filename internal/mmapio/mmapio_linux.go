//go:build linux

package mmapio

import (
	"os"

	"golang.org/x/sys/unix"
)

// Open memory-maps path read-only (MAP_PRIVATE) and returns the mapped
// bytes. The caller must call Close when done to unmap the pages.
func Open(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if st.Size() == 0 {
		return openFallback(path)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(st.Size()), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return openFallback(path)
	}
	return &Mapping{
		Data:  data,
		close: func() error { return unix.Munmap(data) },
	}, nil
}
