package main

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/internal/testutil"
)

func TestInspect_Text(t *testing.T) {
	path, _ := testutil.WriteArenaImage(t, alloc.FirstFit, 100, 200)

	out, err := runCmd(t, "inspect", path)
	require.NoError(t, err)
	assert.Contains(t, out, "--- Heap Stats ---")
	assert.Contains(t, out, "Block 0: [USED] Size: 104 bytes")
	assert.Contains(t, out, "Block 1: [USED] Size: 200 bytes")
	assert.Contains(t, out, "Block 2: [FREE]")
	assert.Contains(t, out, "Total Blocks: 3")
}

func TestInspect_JSON(t *testing.T) {
	path, want := testutil.WriteArenaImage(t, alloc.FirstFit, 100, 200)

	out, err := runCmd(t, "inspect", path, "--json")
	require.NoError(t, err)

	var got struct {
		Blocks []struct {
			Addr   int  `json:"addr"`
			Size   int  `json:"size"`
			IsFree bool `json:"is_free"`
		} `json:"blocks"`
		TotalBlocks int `json:"total_blocks"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, len(want), got.TotalBlocks)
	for i, b := range want {
		assert.Equal(t, b.Addr, got.Blocks[i].Addr)
		assert.Equal(t, b.Size, got.Blocks[i].Size)
		assert.Equal(t, b.Free, got.Blocks[i].IsFree)
	}
}

func TestInspect_Damaged(t *testing.T) {
	path, want := testutil.WriteArenaImage(t, alloc.FirstFit, 100, 200)
	testutil.DamageImage(t, path, want[1].Header(), 0)

	out, err := runCmd(t, "inspect", path)
	require.ErrorIs(t, err, alloc.ErrCorrupt)
	assert.Contains(t, out, "Total Blocks: 1", "blocks before the damage are still listed")
}

func TestInspect_MissingFile(t *testing.T) {
	_, err := runCmd(t, "inspect", filepath.Join(t.TempDir(), "none.bin"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestScenario_FileBacking(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pool.bin")
	_, err := runCmd(t, "scenario", "--policy", "first", "--backing", "file:"+path)
	require.NoError(t, err)

	out, err := runCmd(t, "inspect", path)
	require.NoError(t, err)
	assert.Contains(t, out, "--- Heap Stats ---")
}

func TestInspect_BaseAfterReset(t *testing.T) {
	a, path := testutil.SetupFileArena(t, &alloc.VisualConfig)
	_, _, err := a.Alloc(100, alloc.FirstFit)
	require.NoError(t, err)

	a.Reset()
	_, _, err = a.Alloc(64, alloc.FirstFit)
	require.NoError(t, err)
	base := a.Regions()[0].Off
	require.Positive(t, base)
	require.NoError(t, a.Close())

	out, err := runCmd(t, "inspect", path, "--base", strconv.Itoa(base))
	require.NoError(t, err)
	assert.Contains(t, out, "Block 0: [USED] Size: 64 bytes")
	assert.Contains(t, out, "Total Blocks: 2")
}
