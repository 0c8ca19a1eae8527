package alloc

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocked_ConcurrentAllocFree(t *testing.T) {
	a, _ := newTestAllocator(t, &Config{Capacity: 4096, GrowthUnit: 4096}, 16<<20)
	l := NewLocked(a)

	const workers = 8
	const rounds = 200

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pattern := []byte{byte(w + 1)}
			var live []Handle
			for i := range rounds {
				h, err := l.Alloc(16+(i%13)*8, Policy(i%3))
				if err != nil {
					errs <- err
					return
				}
				if _, err := l.Write(h, 0, pattern); err != nil {
					errs <- err
					return
				}
				live = append(live, h)
				if i%3 == 2 {
					victim := live[0]
					live = live[1:]
					got := make([]byte, 1)
					if _, err := l.Read(victim, 0, got); err != nil {
						errs <- err
						return
					}
					if got[0] != pattern[0] {
						errs <- assert.AnError
						return
					}
					if err := l.Free(victim); err != nil {
						errs <- err
						return
					}
				}
			}
			for _, h := range live {
				if err := l.Free(h); err != nil {
					errs <- err
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	require.NoError(t, l.Verify())
	snap := l.Snapshot()
	require.Len(t, snap, 1, "everything was freed; the heap should be one block")
	assert.True(t, snap[0].Free)
	assert.Equal(t, workers*rounds, l.Stats().AllocCalls)
}

func TestLocked_Do(t *testing.T) {
	a, _ := newVisualAllocator(t)
	l := NewLocked(a)

	var h Handle
	err := l.Do(func(a *Allocator) error {
		var err error
		h, _, err = a.Alloc(32, BestFit)
		return err
	})
	require.NoError(t, err)

	addr, err := l.Addr(h)
	require.NoError(t, err)
	assert.Equal(t, headerSize, addr)
	assert.Equal(t, 2, l.TotalBlocks())
	assert.Equal(t, 640, l.TotalManagedBytes())

	_, err = l.Write(h, 64, []byte{1})
	require.ErrorIs(t, err, ErrInvalidSize)

	h, err = l.Resize(h, 64)
	require.NoError(t, err)
	z, err := l.AllocZeroed(2, 8, FirstFit)
	require.NoError(t, err)
	require.NoError(t, l.Free(z))
	require.NoError(t, l.Free(h))

	l.Reset()
	require.NoError(t, l.Init(0))
	require.NoError(t, l.Close())
}

func TestLocked_ReadWriteBounds(t *testing.T) {
	a, _ := newVisualAllocator(t)
	l := NewLocked(a)
	h, err := l.Alloc(16, FirstFit)
	require.NoError(t, err)

	n, err := l.Write(h, 12, []byte("abcdefgh"))
	require.NoError(t, err)
	assert.Equal(t, 4, n, "writes past the block end are truncated")

	got := make([]byte, 8)
	n, err = l.Read(h, 12, got)
	require.NoError(t, err)
	assert.Equal(t, []byte("abcd"), got[:n])

	n, err = l.Read(h, 16, got)
	require.NoError(t, err)
	assert.Zero(t, n, "offset at the block end reads nothing")

	for _, off := range []int{-1, 17} {
		_, err = l.Write(h, off, []byte{1})
		require.ErrorIs(t, err, ErrInvalidSize, "write at %d", off)
		_, err = l.Read(h, off, got)
		require.ErrorIs(t, err, ErrInvalidSize, "read at %d", off)
	}
}
