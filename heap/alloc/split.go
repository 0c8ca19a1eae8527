package alloc

import "github.com/joshuapare/heapkit/internal/format"

// split shrinks idx to exactly need bytes and links the leftover tail in right
// after it as a free block. The tail must hold a header plus MinPayload;
// otherwise the block keeps its size and split returns nilSlot.
func (a *Allocator) split(idx int32, need int) int32 {
	rem := a.blocks[idx].size - need - headerSize
	if rem < format.MinPayload {
		return nilSlot
	}

	r := a.newSlot() // may grow a.blocks; take pointers afterwards
	b := &a.blocks[idx]
	rb := &a.blocks[r]

	rb.off = b.off + headerSize + need
	rb.size = rem
	rb.free = true
	rb.prev = idx
	rb.next = b.next
	if b.next != nilSlot {
		a.blocks[b.next].prev = r
	} else {
		a.tail = r
	}
	b.next = r
	b.size = need

	a.stats.Splits++
	a.writeHeader(idx)
	a.writeHeader(r)
	return r
}
