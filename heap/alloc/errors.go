package alloc

import "errors"

var (
	// ErrOutOfBackingMemory indicates the backing source refused an acquisition
	// during initialization or growth.
	ErrOutOfBackingMemory = errors.New("alloc: out of backing memory")

	// ErrInvalidHandle indicates a handle that is not currently allocated:
	// nil where one is required, already freed, stale after Reset, or forged.
	ErrInvalidHandle = errors.New("alloc: invalid handle")

	// ErrSizeOverflow indicates a size computation overflowed.
	ErrSizeOverflow = errors.New("alloc: size overflow")

	// ErrInvalidSize indicates a negative size or a capacity too small for one block.
	ErrInvalidSize = errors.New("alloc: invalid size")

	// ErrInvalidPolicy indicates an unknown placement policy.
	ErrInvalidPolicy = errors.New("alloc: invalid fit policy")

	// ErrInitialized indicates Init was called on an initialized arena.
	ErrInitialized = errors.New("alloc: arena already initialized")

	// ErrClosed indicates use of the allocator after Close.
	ErrClosed = errors.New("alloc: allocator closed")

	// ErrCorrupt indicates Verify found a broken invariant.
	ErrCorrupt = errors.New("alloc: heap corrupt")
)
