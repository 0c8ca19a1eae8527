package alloc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap/backing"
	"github.com/joshuapare/heapkit/internal/format"
)

// newTestAllocator builds an allocator over a Heap source of limit bytes.
func newTestAllocator(t testing.TB, cfg *Config, limit int) (*Allocator, *backing.Heap) {
	t.Helper()
	src, err := backing.NewHeap(limit)
	require.NoError(t, err)
	a := New(src, cfg)
	t.Cleanup(func() { _ = a.Close() })
	return a, src
}

// newVisualAllocator builds a 640-byte arena with a 64 KiB reservation.
func newVisualAllocator(t testing.TB) (*Allocator, *backing.Heap) {
	t.Helper()
	return newTestAllocator(t, &VisualConfig, 64<<10)
}

// mustAlloc allocates and fails the test on error.
func mustAlloc(t testing.TB, a *Allocator, size int, p Policy) Handle {
	t.Helper()
	h, buf, err := a.Alloc(size, p)
	require.NoError(t, err, "Alloc(%d, %s)", size, p)
	require.False(t, h.IsNil())
	require.GreaterOrEqual(t, len(buf), size)
	return h
}

// mustAddr returns the data offset of h.
func mustAddr(t testing.TB, a *Allocator, h Handle) int {
	t.Helper()
	addr, err := a.Addr(h)
	require.NoError(t, err)
	return addr
}

// assertInvariants checks the heap from the outside (via Snapshot) and from
// the inside (via Verify).
func assertInvariants(t testing.TB, a *Allocator) {
	t.Helper()
	require.NoError(t, a.Verify())

	snap := a.Snapshot()
	total := 0
	for i, b := range snap {
		require.True(t, format.IsAligned8(b.Addr), "block %d addr %#x not aligned", i, b.Addr)
		require.True(t, format.IsAligned8(b.Size), "block %d size %d not aligned", i, b.Size)
		require.GreaterOrEqual(t, b.Size, format.MinPayload, "block %d too small", i)
		if i > 0 {
			prev := snap[i-1]
			require.Equal(t, prev.End(), b.Header(), "block %d not contiguous with its predecessor", i)
			require.False(t, prev.Free && b.Free, "blocks %d and %d are adjacent and free", i-1, i)
		}
		total += format.HeaderSize + b.Size
	}
	require.Equal(t, total, a.TotalManagedBytes())
	if len(snap) > 0 {
		require.Equal(t, a.src.Acquired()-a.base, total, "blocks must cover the arena exactly")
	}
}

// fill writes v over buf.
func fill(buf []byte, v byte) {
	for i := range buf {
		buf[i] = v
	}
}
