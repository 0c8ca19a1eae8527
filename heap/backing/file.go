package backing

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"

	"github.com/joshuapare/heapkit/internal/format"
	"github.com/joshuapare/heapkit/internal/mmfile"
)

// File is a Source backed by a shared read/write mapping of a file.
//
// The whole limit is mapped at construction over a sparse file. Release
// flushes the acquired span and truncates the file to it, so the arena and
// its in-band headers stay on disk for offline inspection.
//
// A File holds an exclusive lock on <path>.lock until Release, so a second
// writer in this or another process fails with ErrLocked instead of sharing
// the mapping.
type File struct {
	lock *flock.Flock
	m    *mmfile.Mapping
	data []byte
	path string
	brk  int
}

// NewFile creates (or truncates) the file at path and maps limit bytes of it.
// A limit of 0 selects DefaultLimit.
func NewFile(path string, limit int) (*File, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty file path", ErrInvalidSize)
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit %d", ErrInvalidSize, limit)
	}

	lock := flock.New(LockPath(path))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("backing: lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}

	m, err := mmfile.Create(path, format.AlignPage(limit))
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("backing: %w", err)
	}
	return &File{lock: lock, m: m, data: m.Bytes(), path: path}, nil
}

// LockPath returns the lock file guarding the arena file at path.
func LockPath(path string) string { return path + ".lock" }

// Acquire extends the break by n bytes.
func (f *File) Acquire(n int) ([]byte, error) {
	if f.data == nil {
		return nil, ErrReleased
	}
	if err := checkAcquire(n, f.brk, len(f.data)); err != nil {
		return nil, err
	}
	end := f.brk + n
	region := f.data[f.brk:end:end]
	f.brk = end
	return region, nil
}

// Bytes returns the acquired span.
func (f *File) Bytes() []byte {
	return f.data[:f.brk:f.brk]
}

// Acquired reports the current break.
func (f *File) Acquired() int { return f.brk }

// Limit reports the mapped size (page aligned).
func (f *File) Limit() int { return len(f.data) }

// Path returns the backing file path.
func (f *File) Path() string { return f.path }

// Sync flushes the acquired span to the file.
func (f *File) Sync() error {
	if f.data == nil {
		return ErrReleased
	}
	return f.m.Sync(f.brk)
}

// Release flushes the acquired span, unmaps the file and truncates it to the
// acquired length.
func (f *File) Release() error {
	if f.data == nil {
		return ErrReleased
	}
	err := errors.Join(f.m.Close(f.brk), f.lock.Unlock())
	f.data = nil
	f.brk = 0
	if err != nil {
		return fmt.Errorf("backing: release %s: %w", f.path, err)
	}
	return nil
}
