//go:build !linux && !darwin && !freebsd

package mmfile

import (
	"fmt"
	"os"
)

// Map reads the entire file when mmap is not available.
func Map(path string) ([]byte, func() error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, func() error { return nil }, err
	}
	return data, func() error { return nil }, nil
}

// Mapping holds the file contents in memory and writes them back on Sync.
type Mapping struct {
	f    *os.File
	data []byte
}

// Create creates or truncates the file at path and returns a size-byte buffer
// that Sync and Close write back to it.
func Create(path string, size int) (*Mapping, error) {
	if size <= 0 {
		return nil, fmt.Errorf("mmfile: invalid mapping size %d", size)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	return &Mapping{f: f, data: make([]byte, size)}, nil
}

// Bytes returns the buffered file contents.
func (m *Mapping) Bytes() []byte { return m.data }

// Sync writes the first n bytes to the file.
func (m *Mapping) Sync(n int) error {
	if m.data == nil {
		return os.ErrClosed
	}
	n = min(n, len(m.data))
	if n <= 0 {
		return nil
	}
	if _, err := m.f.WriteAt(m.data[:n], 0); err != nil {
		return err
	}
	return m.f.Sync()
}

// Close writes back keep bytes, truncates the file to that length and closes it.
func (m *Mapping) Close(keep int) error {
	if m.data == nil {
		return os.ErrClosed
	}
	err := m.Sync(keep)
	m.data = nil
	if terr := m.f.Truncate(int64(max(keep, 0))); err == nil {
		err = terr
	}
	if cerr := m.f.Close(); err == nil {
		err = cerr
	}
	return err
}
