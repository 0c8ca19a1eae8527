package alloc

// findFit walks the list in address order and returns the block chosen by
// policy, or nilSlot when no free block holds need bytes.
//
// FirstFit stops at the first match. BestFit and WorstFit always scan the
// whole list; strict comparisons keep the lowest address on ties.
func (a *Allocator) findFit(need int, p Policy) int32 {
	best := nilSlot
	for i := a.head; i != nilSlot; i = a.blocks[i].next {
		b := &a.blocks[i]
		if !b.free || b.size < need {
			continue
		}
		switch p {
		case FirstFit:
			return i
		case BestFit:
			if best == nilSlot || b.size < a.blocks[best].size {
				best = i
			}
		case WorstFit:
			if best == nilSlot || b.size > a.blocks[best].size {
				best = i
			}
		}
	}
	return best
}
