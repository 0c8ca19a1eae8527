// Package testutil holds fixtures shared by tests that need an arena image
// on disk.
package testutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/backing"
)

// ImageLimit is the file size reserved for fixture arenas.
const ImageLimit = 1 << 16

// SetupFileArena creates an allocator over a file in a temporary directory.
// Returns the allocator and the file path. The allocator is closed when the
// test finishes unless the test closed it first.
//
// Example:
//
//	a, path := testutil.SetupFileArena(t, &alloc.VisualConfig)
//	h, _, err := a.Alloc(100, alloc.FirstFit)
func SetupFileArena(t *testing.T, cfg *alloc.Config) (*alloc.Allocator, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "arena.bin")
	src, err := backing.NewFile(path, ImageLimit)
	if err != nil {
		t.Fatalf("Failed to create file arena: %v", err)
	}
	a := alloc.New(src, cfg)
	t.Cleanup(func() {
		if closeErr := a.Close(); closeErr != nil && !errors.Is(closeErr, alloc.ErrClosed) {
			t.Errorf("Failed to close file arena: %v", closeErr)
		}
	})
	return a, path
}

// WriteArenaImage allocates sizes in order under p, closes the allocator and
// returns the image path together with the final block list.
func WriteArenaImage(t *testing.T, p alloc.Policy, sizes ...int) (string, []alloc.BlockInfo) {
	t.Helper()

	a, path := SetupFileArena(t, &alloc.VisualConfig)
	for _, n := range sizes {
		if _, _, err := a.Alloc(n, p); err != nil {
			t.Fatalf("Failed to allocate %d bytes: %v", n, err)
		}
	}
	blocks := a.Snapshot()
	if err := a.Close(); err != nil {
		t.Fatalf("Failed to close file arena: %v", err)
	}
	return path, blocks
}

// DamageImage overwrites one byte of the image at path.
func DamageImage(t *testing.T, path string, off int, b byte) {
	t.Helper()

	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("Failed to open image: %v", err)
	}
	defer f.Close()

	if _, err := f.WriteAt([]byte{b}, int64(off)); err != nil {
		t.Fatalf("Failed to damage image: %v", err)
	}
}
