//go:build linux || darwin || freebsd

package backing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/internal/format"
)

func TestMmap_CommitsAcrossPages(t *testing.T) {
	m, err := NewMmap(4 * format.PageSize)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Release() })

	// Unaligned increments must keep committing the right pages.
	a, err := m.Acquire(640)
	require.NoError(t, err)
	b, err := m.Acquire(format.PageSize)
	require.NoError(t, err)

	for i := range a {
		assert.Zero(t, a[i])
	}
	// Touch the last byte of the second region (in the second page).
	b[len(b)-1] = 0x5A
	a[0] = 0xA5

	span := m.Bytes()
	require.Len(t, span, 640+format.PageSize)
	assert.Equal(t, byte(0xA5), span[0])
	assert.Equal(t, byte(0x5A), span[len(span)-1])
	assert.Equal(t, 2*format.PageSize, m.committed)
}

func TestMmap_LimitIsPageAligned(t *testing.T) {
	m, err := NewMmap(100)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Release() })

	assert.Equal(t, format.PageSize, m.Limit())
	_, err = m.Acquire(format.PageSize + 1)
	require.ErrorIs(t, err, ErrExhausted)
}

func TestMmap_Release(t *testing.T) {
	m, err := NewMmap(format.PageSize)
	require.NoError(t, err)
	require.NoError(t, m.Release())

	_, err = m.Acquire(8)
	require.ErrorIs(t, err, ErrReleased)
}
