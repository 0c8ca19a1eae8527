package alloc

import (
	"fmt"
	"math"

	"github.com/joshuapare/heapkit/internal/buf"
	"github.com/joshuapare/heapkit/internal/format"
)

// alignRequest rounds a request up to the alignment unit.
func alignRequest(size int) (int, error) {
	if size < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	need, ok := format.AlignUp(size, format.Alignment)
	if !ok || need > math.MaxInt-headerSize {
		return 0, fmt.Errorf("%w: %d bytes", ErrSizeOverflow, size)
	}
	return need, nil
}

// Alloc returns a block of at least size bytes chosen by policy p, together
// with its usable data region. A zero size returns Nil and no error.
//
// The arena is created on first use. When no free block fits, the arena grows
// once and the search is retried; a refused growth fails the call with
// ErrOutOfBackingMemory and leaves the heap untouched.
func (a *Allocator) Alloc(size int, p Policy) (Handle, []byte, error) {
	if a.closed {
		return Nil, nil, ErrClosed
	}
	if !p.Valid() {
		return Nil, nil, fmt.Errorf("%w: %s", ErrInvalidPolicy, p)
	}
	need, err := alignRequest(size)
	if err != nil {
		return Nil, nil, err
	}
	a.stats.AllocCalls++
	if need == 0 {
		return Nil, nil, nil
	}

	if a.head == nilSlot {
		if err := a.Init(0); err != nil {
			return Nil, nil, err
		}
	}

	idx := a.findFit(need, p)
	if idx == nilSlot {
		if err := a.grow(need + headerSize); err != nil {
			return Nil, nil, err
		}
		a.stats.AllocSlowPath++

		idx = a.findFit(need, p)
		if idx == nilSlot {
			return Nil, nil, fmt.Errorf("%w: no fit for %d bytes after grow", ErrOutOfBackingMemory, need)
		}
	}

	a.split(idx, need)
	a.blocks[idx].free = false
	a.writeHeader(idx)

	return a.handle(idx), a.data(idx), nil
}

// AllocZeroed allocates count*size bytes and zero-fills the whole usable
// region. A product that overflows fails with ErrSizeOverflow.
func (a *Allocator) AllocZeroed(count, size int, p Policy) (Handle, []byte, error) {
	if count < 0 || size < 0 {
		return Nil, nil, fmt.Errorf("%w: %d x %d", ErrInvalidSize, count, size)
	}
	total, ok := buf.MulOverflowSafe(count, size)
	if !ok {
		return Nil, nil, fmt.Errorf("%w: %d x %d", ErrSizeOverflow, count, size)
	}

	h, data, err := a.Alloc(total, p)
	if err != nil || h.IsNil() {
		return h, data, err
	}
	clear(data)
	return h, data, nil
}

// Free returns a block to the heap and coalesces it with free neighbors.
// Freeing Nil is a no-op. A handle that is not currently allocated fails with
// ErrInvalidHandle and nothing is modified.
func (a *Allocator) Free(h Handle) error {
	if a.closed {
		return ErrClosed
	}
	if h.IsNil() {
		a.stats.FreeCalls++
		return nil
	}
	idx, err := a.lookup(h)
	if err != nil {
		return err
	}
	a.stats.FreeCalls++
	a.release(idx)
	return nil
}

// release marks a used block free, invalidates its handles, and coalesces.
func (a *Allocator) release(idx int32) {
	b := &a.blocks[idx]
	b.free = true
	b.gen = nextGen(b.gen)
	a.coalesce(idx)
}

// Resize changes the size of an allocation.
//
//   - Nil behaves as Alloc(newSize, FirstFit).
//   - newSize 0 frees h and returns Nil.
//   - If the block already holds newSize it is split in place and h is returned.
//   - If the free successor makes up the difference it is absorbed, the result
//     is split, and h is returned. Data is not moved.
//   - Otherwise a new FirstFit block is allocated, the old bytes are copied,
//     and h is freed.
//
// When the fallback allocation fails the original block and its data are left
// untouched and remain owned by the caller.
func (a *Allocator) Resize(h Handle, newSize int) (Handle, []byte, error) {
	if a.closed {
		return Nil, nil, ErrClosed
	}
	if h.IsNil() {
		if _, err := alignRequest(newSize); err != nil {
			return Nil, nil, err
		}
		a.stats.ResizeCalls++
		return a.Alloc(newSize, FirstFit)
	}
	idx, err := a.lookup(h)
	if err != nil {
		return Nil, nil, err
	}
	need, err := alignRequest(newSize)
	if err != nil {
		return Nil, nil, err
	}
	a.stats.ResizeCalls++
	if need == 0 {
		a.release(idx)
		return Nil, nil, nil
	}

	b := &a.blocks[idx]
	if b.size >= need {
		a.shrink(idx, need)
		a.stats.ResizeInPlace++
		return h, a.data(idx), nil
	}

	if n := b.next; n != nilSlot && a.blocks[n].free && b.size+headerSize+a.blocks[n].size >= need {
		// Only the successor is absorbed; the predecessor is left alone.
		a.absorbNext(idx)
		a.stats.CoalesceForward++
		a.shrink(idx, need)
		a.stats.ResizeInPlace++
		return h, a.data(idx), nil
	}

	oldSize := b.size
	nh, data, err := a.Alloc(newSize, FirstFit)
	if err != nil {
		return Nil, nil, err
	}
	copy(data, a.data(idx)[:oldSize])
	a.release(idx)
	a.stats.ResizeMoved++
	return nh, data, nil
}

// shrink splits a used block down to need bytes and merges the freed tail
// with a free successor so no two free blocks end up adjacent.
func (a *Allocator) shrink(idx int32, need int) {
	if r := a.split(idx, need); r != nilSlot {
		a.coalesce(r)
	}
	a.writeHeader(idx)
}

// Bytes returns the usable data region of a live allocation. The slice stays
// valid until the block is freed or moved by Resize.
func (a *Allocator) Bytes(h Handle) ([]byte, error) {
	if a.closed {
		return nil, ErrClosed
	}
	idx, err := a.lookup(h)
	if err != nil {
		return nil, err
	}
	return a.data(idx), nil
}

// Addr returns the offset of a live allocation's data region within the
// backing span. Two handles with the same Addr refer to the same bytes.
func (a *Allocator) Addr(h Handle) (int, error) {
	if a.closed {
		return 0, ErrClosed
	}
	idx, err := a.lookup(h)
	if err != nil {
		return 0, err
	}
	return a.blocks[idx].off + headerSize, nil
}

// Size returns the usable size of a live allocation.
func (a *Allocator) Size(h Handle) (int, error) {
	if a.closed {
		return 0, ErrClosed
	}
	idx, err := a.lookup(h)
	if err != nil {
		return 0, err
	}
	return a.blocks[idx].size, nil
}
