package alloc

// coalesce merges a free block with a free successor, then lets a free
// predecessor absorb the result. Returns the slot that survives.
func (a *Allocator) coalesce(idx int32) int32 {
	if n := a.blocks[idx].next; n != nilSlot && a.blocks[n].free {
		a.absorbNext(idx)
		a.stats.CoalesceForward++
	}
	if p := a.blocks[idx].prev; p != nilSlot && a.blocks[p].free {
		a.absorbNext(p)
		a.stats.CoalesceBackward++
		idx = p
	}
	a.writeHeader(idx)
	return idx
}

// absorbNext folds the successor of idx (its header and data) into idx and
// retires the successor's slot.
func (a *Allocator) absorbNext(idx int32) {
	b := &a.blocks[idx]
	n := b.next
	nb := &a.blocks[n]

	b.size += headerSize + nb.size
	b.next = nb.next
	if nb.next != nilSlot {
		a.blocks[nb.next].prev = idx
	} else {
		a.tail = idx
	}
	a.retire(n)
}
