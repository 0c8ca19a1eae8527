package backing

import "fmt"

// Heap is a Source backed by one Go byte slice reserved up front.
// The runtime hands large slices out as zero pages, so an untouched tail of
// the reservation costs address space rather than resident memory.
type Heap struct {
	buf []byte
	brk int
}

// NewHeap reserves limit bytes. A limit of 0 selects DefaultLimit.
func NewHeap(limit int) (*Heap, error) {
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit %d", ErrInvalidSize, limit)
	}
	return &Heap{buf: make([]byte, limit)}, nil
}

// Acquire extends the break by n bytes.
func (h *Heap) Acquire(n int) ([]byte, error) {
	if h.buf == nil {
		return nil, ErrReleased
	}
	if err := checkAcquire(n, h.brk, len(h.buf)); err != nil {
		return nil, err
	}
	region := h.buf[h.brk : h.brk+n : h.brk+n]
	h.brk += n
	return region, nil
}

// Bytes returns the acquired span.
func (h *Heap) Bytes() []byte {
	return h.buf[:h.brk:h.brk]
}

// Acquired reports the current break.
func (h *Heap) Acquired() int { return h.brk }

// Limit reports the reservation size.
func (h *Heap) Limit() int { return len(h.buf) }

// Release drops the reservation.
func (h *Heap) Release() error {
	if h.buf == nil {
		return ErrReleased
	}
	h.buf = nil
	h.brk = 0
	return nil
}
