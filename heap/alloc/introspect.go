package alloc

import (
	"fmt"
	"iter"

	"github.com/joshuapare/heapkit/internal/format"
)

// Stats is a point-in-time summary of the heap and the running counters.
type Stats struct {
	// Call counters (reset by Reset). Rejected calls are not counted.
	AllocCalls       int `json:"alloc_calls"`       // Total Alloc calls, including those made by AllocZeroed and Resize
	AllocSlowPath    int `json:"alloc_slow_path"`   // Allocations that required growth
	FreeCalls        int `json:"free_calls"`        // Total Free calls
	ResizeCalls      int `json:"resize_calls"`      // Total Resize calls
	ResizeInPlace    int `json:"resize_in_place"`   // Resizes that kept the handle
	ResizeMoved      int `json:"resize_moved"`      // Resizes that copied into a new block
	GrowCalls        int `json:"grow_calls"`        // Arena growths
	GrowBytes        int `json:"grow_bytes"`        // Bytes acquired by growth
	Splits           int `json:"splits"`            // Block splits
	CoalesceForward  int `json:"coalesce_forward"`  // Merges with a successor
	CoalesceBackward int `json:"coalesce_backward"` // Merges into a predecessor

	// Heap shape
	Regions      int `json:"regions"` // Backing regions in the current arena
	Blocks       int `json:"blocks"`  // Blocks in the list
	FreeBlocks   int `json:"free_blocks"`
	UsedBlocks   int `json:"used_blocks"`
	FreeBytes    int `json:"free_bytes"`    // Usable bytes in free blocks
	UsedBytes    int `json:"used_bytes"`    // Usable bytes in used blocks
	ManagedBytes int `json:"managed_bytes"` // Headers plus data of every block
	LargestFree  int `json:"largest_free"`  // Largest free block

	// Fragmentation is 1 - LargestFree/FreeBytes: 0 when all free space is one
	// block, approaching 1 as it scatters into small pieces.
	Fragmentation float64 `json:"fragmentation"`
}

// Blocks iterates the block list in address order.
func (a *Allocator) Blocks() iter.Seq[BlockInfo] {
	return func(yield func(BlockInfo) bool) {
		for i := a.head; i != nilSlot; i = a.blocks[i].next {
			b := &a.blocks[i]
			if !yield(BlockInfo{Addr: b.off + headerSize, Size: b.size, Free: b.free}) {
				return
			}
		}
	}
}

// Snapshot returns every block in address order.
func (a *Allocator) Snapshot() []BlockInfo {
	out := make([]BlockInfo, 0, len(a.blocks)-len(a.spare))
	for bi := range a.Blocks() {
		out = append(out, bi)
	}
	return out
}

// TotalBlocks returns the number of blocks in the list.
func (a *Allocator) TotalBlocks() int {
	n := 0
	for i := a.head; i != nilSlot; i = a.blocks[i].next {
		n++
	}
	return n
}

// TotalManagedBytes returns the sum of header and data bytes over all blocks,
// which equals the bytes acquired for the current arena.
func (a *Allocator) TotalManagedBytes() int {
	total := 0
	for i := a.head; i != nilSlot; i = a.blocks[i].next {
		total += headerSize + a.blocks[i].size
	}
	return total
}

// Stats returns counters and heap shape.
func (a *Allocator) Stats() Stats {
	s := Stats{
		AllocCalls:       a.stats.AllocCalls,
		AllocSlowPath:    a.stats.AllocSlowPath,
		FreeCalls:        a.stats.FreeCalls,
		ResizeCalls:      a.stats.ResizeCalls,
		ResizeInPlace:    a.stats.ResizeInPlace,
		ResizeMoved:      a.stats.ResizeMoved,
		GrowCalls:        a.stats.GrowCalls,
		GrowBytes:        a.stats.GrowBytes,
		Splits:           a.stats.Splits,
		CoalesceForward:  a.stats.CoalesceForward,
		CoalesceBackward: a.stats.CoalesceBackward,
		Regions:          len(a.regions),
	}
	for bi := range a.Blocks() {
		s.Blocks++
		s.ManagedBytes += headerSize + bi.Size
		if bi.Free {
			s.FreeBlocks++
			s.FreeBytes += bi.Size
			s.LargestFree = max(s.LargestFree, bi.Size)
		} else {
			s.UsedBlocks++
			s.UsedBytes += bi.Size
		}
	}
	if s.FreeBytes > 0 {
		s.Fragmentation = 1 - float64(s.LargestFree)/float64(s.FreeBytes)
	}
	return s
}

// Verify walks the block list and checks every structural invariant:
// address order and contiguity, link symmetry, alignment, eager coalescing,
// byte conservation against the backing span, and the in-band headers.
// The first violation is returned wrapped in ErrCorrupt.
func (a *Allocator) Verify() error {
	if a.closed {
		return ErrClosed
	}
	if a.head == nilSlot {
		if a.tail != nilSlot {
			return fmt.Errorf("%w: empty list with tail %d", ErrCorrupt, a.tail)
		}
		return nil
	}

	span := a.src.Bytes()
	expectOff := a.base
	prev := nilSlot
	prevFree := false
	walked := 0
	total := 0

	for i := a.head; i != nilSlot; i = a.blocks[i].next {
		if int(i) >= len(a.blocks) {
			return fmt.Errorf("%w: slot %d out of range", ErrCorrupt, i)
		}
		b := &a.blocks[i]
		walked++
		if walked > len(a.blocks) {
			return fmt.Errorf("%w: cycle in block list", ErrCorrupt)
		}
		if !b.live {
			return fmt.Errorf("%w: retired slot %d is linked", ErrCorrupt, i)
		}
		if b.prev != prev {
			return fmt.Errorf("%w: slot %d prev=%d, want %d", ErrCorrupt, i, b.prev, prev)
		}
		if b.off != expectOff {
			return fmt.Errorf("%w: slot %d at %#x, want %#x", ErrCorrupt, i, b.off, expectOff)
		}
		if !format.IsAligned8(b.size) || b.size <= 0 {
			return fmt.Errorf("%w: slot %d size %d not aligned", ErrCorrupt, i, b.size)
		}
		if b.free && prevFree {
			return fmt.Errorf("%w: adjacent free blocks at %#x", ErrCorrupt, b.off)
		}

		hdr, err := format.ReadHeader(span, b.off)
		if err != nil {
			return fmt.Errorf("%w: slot %d: %w", ErrCorrupt, i, err)
		}
		if hdr.Size != uint64(b.size) || hdr.Free != b.free || hdr.Slot != uint32(i) || hdr.Gen != b.gen {
			return fmt.Errorf("%w: slot %d header %+v disagrees with table", ErrCorrupt, i, hdr)
		}

		total += headerSize + b.size
		expectOff = b.off + headerSize + b.size
		prevFree = b.free
		prev = i
	}

	if a.tail != prev {
		return fmt.Errorf("%w: tail=%d, last block=%d", ErrCorrupt, a.tail, prev)
	}
	if live := len(a.blocks) - len(a.spare); live != walked {
		return fmt.Errorf("%w: %d live slots, %d linked", ErrCorrupt, live, walked)
	}
	if managed := a.src.Acquired() - a.base; total != managed {
		return fmt.Errorf("%w: blocks cover %d bytes, arena holds %d", ErrCorrupt, total, managed)
	}
	return nil
}
