//go:build !linux && !darwin && !freebsd

package backing

// Mmap falls back to a heap reservation where anonymous mappings are not wired up.
type Mmap = Heap

// NewMmap returns a heap-backed source on this platform.
func NewMmap(limit int) (*Mmap, error) {
	return NewHeap(limit)
}
