//go:build linux || darwin || freebsd

package mmfile

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Map maps the file at path into memory read-only and returns its contents.
func Map(path string) ([]byte, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close() // safe before return; mapping keeps pages alive

	info, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}
	size := info.Size()
	if size == 0 {
		return []byte{}, func() error { return nil }, nil
	}
	if size > int64(^uint(0)>>1) {
		return nil, nil, fmt.Errorf("mmfile: file too large to map (%d bytes)", size)
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() error {
		err := unix.Munmap(data)
		if errors.Is(err, unix.EINVAL) {
			// Treat double-unmap as no-op for callers.
			return nil
		}
		return err
	}
	return data, cleanup, nil
}

// Mapping is a read/write shared mapping of a whole file.
type Mapping struct {
	f    *os.File
	data []byte
}

// Create creates or truncates the file at path, sizes it to size bytes and
// maps it read/write. The file is sparse until pages are touched.
func Create(path string, size int) (*Mapping, error) {
	if size <= 0 {
		return nil, fmt.Errorf("mmfile: invalid mapping size %d", size)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		return nil, fmt.Errorf("mmfile: size %s: %w", path, err)
	}
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmfile: map %s: %w", path, err)
	}
	return &Mapping{f: f, data: data}, nil
}

// Bytes returns the mapped file contents.
func (m *Mapping) Bytes() []byte { return m.data }

// Sync flushes the first n mapped bytes to the file.
func (m *Mapping) Sync(n int) error {
	if m.data == nil {
		return os.ErrClosed
	}
	n = min(n, len(m.data))
	if n <= 0 {
		return nil
	}
	return unix.Msync(m.data[:n], unix.MS_SYNC)
}

// Close flushes, unmaps and truncates the file to keep bytes.
func (m *Mapping) Close(keep int) error {
	if m.data == nil {
		return os.ErrClosed
	}
	err := m.Sync(keep)
	if uerr := unix.Munmap(m.data); err == nil {
		err = uerr
	}
	m.data = nil
	if terr := m.f.Truncate(int64(max(keep, 0))); err == nil {
		err = terr
	}
	if cerr := m.f.Close(); err == nil {
		err = cerr
	}
	return err
}
