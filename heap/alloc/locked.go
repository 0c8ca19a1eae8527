package alloc

import (
	"fmt"
	"sync"

	"github.com/joshuapare/heapkit/internal/buf"
)

// Locked is a mutex-protected wrapper around Allocator for concurrent access.
// Every operation, introspection included, runs under the same lock.
type Locked struct {
	mu sync.Mutex
	a  *Allocator
}

// NewLocked wraps a. The caller must not use a directly afterwards.
func NewLocked(a *Allocator) *Locked {
	return &Locked{a: a}
}

// Init thread-safely initializes the arena.
func (l *Locked) Init(capacity int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.Init(capacity)
}

// Alloc thread-safely allocates size bytes.
func (l *Locked) Alloc(size int, p Policy) (Handle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	h, _, err := l.a.Alloc(size, p)
	return h, err
}

// AllocZeroed thread-safely allocates count*size zeroed bytes.
func (l *Locked) AllocZeroed(count, size int, p Policy) (Handle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	h, _, err := l.a.AllocZeroed(count, size, p)
	return h, err
}

// Free thread-safely frees h.
func (l *Locked) Free(h Handle) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.Free(h)
}

// Resize thread-safely resizes h.
func (l *Locked) Resize(h Handle, newSize int) (Handle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	nh, _, err := l.a.Resize(h, newSize)
	return nh, err
}

// Write copies data into the allocation at off under the lock.
func (l *Locked) Write(h Handle, off int, data []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	region, err := l.a.Bytes(h)
	if err != nil {
		return 0, err
	}
	if !buf.Has(region, off, 0) {
		return 0, fmt.Errorf("%w: offset %d of %d-byte block", ErrInvalidSize, off, len(region))
	}
	return copy(region[off:], data), nil
}

// Read copies the allocation's bytes starting at off into dst under the lock.
func (l *Locked) Read(h Handle, off int, dst []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	region, err := l.a.Bytes(h)
	if err != nil {
		return 0, err
	}
	if !buf.Has(region, off, 0) {
		return 0, fmt.Errorf("%w: offset %d of %d-byte block", ErrInvalidSize, off, len(region))
	}
	return copy(dst, region[off:]), nil
}

// Addr thread-safely returns the data offset of h.
func (l *Locked) Addr(h Handle) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.Addr(h)
}

// Snapshot thread-safely returns every block in address order.
func (l *Locked) Snapshot() []BlockInfo {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.Snapshot()
}

// Stats thread-safely returns allocator statistics.
func (l *Locked) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.Stats()
}

// TotalBlocks thread-safely counts blocks.
func (l *Locked) TotalBlocks() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.TotalBlocks()
}

// TotalManagedBytes thread-safely sums managed bytes.
func (l *Locked) TotalManagedBytes() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.TotalManagedBytes()
}

// Verify thread-safely checks heap invariants.
func (l *Locked) Verify() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.Verify()
}

// Reset thread-safely drops all bookkeeping.
func (l *Locked) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.a.Reset()
}

// Close thread-safely tears the arena down.
func (l *Locked) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.Close()
}

// Do runs fn with exclusive access to the underlying allocator, for compound
// operations that must not interleave with other callers.
func (l *Locked) Do(fn func(a *Allocator) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(l.a)
}
