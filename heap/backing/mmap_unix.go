//go:build linux || darwin || freebsd

package backing

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/joshuapare/heapkit/internal/format"
)

// Mmap is a Source backed by an anonymous memory mapping.
//
// The full limit is reserved PROT_NONE at construction; Acquire commits the
// pages under the new break read/write. The kernel zero-fills committed pages.
type Mmap struct {
	mem       []byte
	brk       int
	committed int // page-aligned high-water mark of RW pages
}

// NewMmap reserves limit bytes of address space. A limit of 0 selects DefaultLimit.
func NewMmap(limit int) (*Mmap, error) {
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit %d", ErrInvalidSize, limit)
	}
	limit = format.AlignPage(limit)

	mem, err := unix.Mmap(-1, 0, limit, unix.PROT_NONE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("backing: mmap reserve %d bytes: %w", limit, err)
	}
	return &Mmap{mem: mem}, nil
}

// Acquire commits the pages covering [brk, brk+n) and advances the break.
func (m *Mmap) Acquire(n int) ([]byte, error) {
	if m.mem == nil {
		return nil, ErrReleased
	}
	if err := checkAcquire(n, m.brk, len(m.mem)); err != nil {
		return nil, err
	}

	end := m.brk + n
	if end > m.committed {
		commitEnd := min(format.AlignPage(end), len(m.mem))
		if err := unix.Mprotect(m.mem[m.committed:commitEnd], unix.PROT_READ|unix.PROT_WRITE); err != nil {
			return nil, fmt.Errorf("%w: mprotect: %w", ErrExhausted, err)
		}
		m.committed = commitEnd
	}

	region := m.mem[m.brk:end:end]
	m.brk = end
	return region, nil
}

// Bytes returns the acquired span.
func (m *Mmap) Bytes() []byte {
	return m.mem[:m.brk:m.brk]
}

// Acquired reports the current break.
func (m *Mmap) Acquired() int { return m.brk }

// Limit reports the reservation size (page aligned).
func (m *Mmap) Limit() int { return len(m.mem) }

// Release unmaps the reservation.
func (m *Mmap) Release() error {
	if m.mem == nil {
		return ErrReleased
	}
	err := unix.Munmap(m.mem)
	m.mem = nil
	m.brk = 0
	m.committed = 0
	if err != nil {
		return fmt.Errorf("backing: munmap: %w", err)
	}
	return nil
}
