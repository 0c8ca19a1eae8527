package backing

import (
	"fmt"
	"strings"
)

// DefaultLimit is the reservation size used when a constructor gets 0 (64 MiB).
const DefaultLimit = 64 << 20

// Source is the memory capability a host environment offers the allocator.
type Source interface {
	// Acquire extends the break by n bytes and returns the new region.
	// The region starts exactly where the previous acquisition ended.
	Acquire(n int) ([]byte, error)

	// Bytes returns the contiguous span of every region acquired so far.
	// Slices previously returned stay valid; the span only grows.
	Bytes() []byte

	// Acquired reports the current break (total bytes handed out).
	Acquired() int

	// Limit reports the maximum break the source can reach.
	Limit() int

	// Release returns all memory to the host. The source is unusable afterwards.
	Release() error
}

// Kind names a Source implementation for configuration surfaces. File
// sources carry their path: "file:/tmp/arena.bin".
type Kind string

const (
	KindHeap Kind = "heap"
	KindMmap Kind = "mmap"
	KindFile Kind = "file"
)

// FileKind returns the Kind that opens a file source at path.
func FileKind(path string) Kind {
	return KindFile + ":" + Kind(path)
}

// Open constructs a source by kind.
func Open(kind Kind, limit int) (Source, error) {
	switch kind {
	case KindHeap, "":
		return NewHeap(limit)
	case KindMmap:
		return NewMmap(limit)
	}
	if path, ok := strings.CutPrefix(string(kind), string(KindFile)+":"); ok {
		return NewFile(path, limit)
	}
	return nil, fmt.Errorf("backing: unknown source kind %q", kind)
}

// checkAcquire validates a request against the current break and limit.
func checkAcquire(n, brk, limit int) error {
	if n <= 0 {
		return fmt.Errorf("%w: acquire %d bytes", ErrInvalidSize, n)
	}
	if n > limit-brk {
		return fmt.Errorf("%w: need %d bytes, %d of %d in use", ErrExhausted, n, brk, limit)
	}
	return nil
}
