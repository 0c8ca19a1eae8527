// Package alloc implements a free-list heap allocator over a single growable arena.
//
// # Overview
//
// The allocator manages one contiguous arena obtained from a backing.Source
// and services Alloc/Free/Resize requests with a choice of placement policy.
// Every managed region is a block: a 32-byte header followed by its data.
// Blocks form an address-ordered doubly linked list that threads through the
// whole arena, including every region added by growth.
//
// Block metadata lives in a slot table indexed by int32; next/prev are slot
// indices, never raw addresses. The header bytes in the arena mirror the
// table so Verify can catch payload overruns that clobber a neighbor.
//
// # Placement Policies
//
//   - FirstFit: first free block (address order) that is large enough
//   - BestFit:  smallest free block that is large enough, lowest address on ties
//   - WorstFit: largest free block that is large enough, lowest address on ties
//
// # Usage Example
//
//	src, err := backing.NewHeap(1 << 20)
//	if err != nil {
//	    return err
//	}
//	a := alloc.New(src, nil)
//	defer a.Close()
//
//	h, buf, err := a.Alloc(100, alloc.FirstFit)
//	if err != nil {
//	    return err
//	}
//	copy(buf, payload)
//
//	h, buf, err = a.Resize(h, 200)
//	...
//	err = a.Free(h)
//
// # Splitting and Coalescing
//
// A chosen free block is split when the tail left over after the request can
// hold a header plus one alignment unit; otherwise the whole block is handed
// out. Freed blocks merge eagerly with a free successor and then with a free
// predecessor, so no two list-adjacent blocks are ever both free.
//
// # Growth
//
// When no block fits, the arena grows by (need + header) rounded up to
// Config.GrowthUnit. The new region is appended as a free block at the tail
// and immediately coalesced with a free tail block.
//
// # Handles
//
// A Handle is an opaque {slot, generation, epoch} token. Freeing a block bumps
// its generation and Reset bumps the epoch, so stale, double-freed, or forged
// handles fail with ErrInvalidHandle instead of corrupting the list.
//
// # Alignment Requirements
//
// All block sizes are multiples of 8 bytes. The header itself is not counted
// in the rounding.
//
// # Thread Safety
//
// Allocator instances are not thread-safe. Wrap one in Locked when it is
// shared between goroutines; introspection goes through the same lock.
//
// # Related Packages
//
//   - github.com/joshuapare/heapkit/heap/backing: memory sources
//   - github.com/joshuapare/heapkit/heap/printer: heap reports
//   - github.com/joshuapare/heapkit/internal/format: header layout
package alloc
