package backing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeap_AcquireIsContiguous(t *testing.T) {
	h, err := NewHeap(4096)
	require.NoError(t, err)

	a, err := h.Acquire(640)
	require.NoError(t, err)
	b, err := h.Acquire(1280)
	require.NoError(t, err)

	assert.Len(t, a, 640)
	assert.Len(t, b, 1280)
	assert.Equal(t, 1920, h.Acquired())

	// Writes through the regions are visible in the combined span.
	a[639] = 0x11
	b[0] = 0x22
	span := h.Bytes()
	require.Len(t, span, 1920)
	assert.Equal(t, byte(0x11), span[639])
	assert.Equal(t, byte(0x22), span[640])
}

func TestHeap_Exhausted(t *testing.T) {
	h, err := NewHeap(1024)
	require.NoError(t, err)

	_, err = h.Acquire(1000)
	require.NoError(t, err)

	_, err = h.Acquire(100)
	require.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, 1000, h.Acquired(), "failed acquire must not move the break")

	_, err = h.Acquire(24)
	require.NoError(t, err)
	assert.Equal(t, h.Limit(), h.Acquired())
}

func TestHeap_InvalidSizes(t *testing.T) {
	_, err := NewHeap(-1)
	require.ErrorIs(t, err, ErrInvalidSize)

	h, err := NewHeap(0)
	require.NoError(t, err)
	assert.Equal(t, DefaultLimit, h.Limit())

	_, err = h.Acquire(0)
	require.ErrorIs(t, err, ErrInvalidSize)
}

func TestHeap_Release(t *testing.T) {
	h, err := NewHeap(1024)
	require.NoError(t, err)
	_, err = h.Acquire(64)
	require.NoError(t, err)

	require.NoError(t, h.Release())
	assert.Equal(t, 0, h.Acquired())

	_, err = h.Acquire(64)
	require.ErrorIs(t, err, ErrReleased)
	require.ErrorIs(t, h.Release(), ErrReleased)
}

func TestOpen(t *testing.T) {
	for _, kind := range []Kind{"", KindHeap, KindMmap} {
		src, err := Open(kind, 1<<16)
		require.NoError(t, err, "kind %q", kind)
		_, err = src.Acquire(128)
		require.NoError(t, err)
		require.NoError(t, src.Release())
	}

	_, err := Open("tape", 1024)
	require.Error(t, err)
}
