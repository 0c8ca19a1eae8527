package bench

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap/alloc"
)

func smallPhased() Config {
	cfg := DefaultPhasedConfig()
	cfg.Initial, cfg.Frees, cfg.Second = 100, 50, 50
	cfg.Capacity, cfg.GrowthUnit = 4096, 4096
	cfg.Limit = 1 << 20
	return cfg
}

func TestPhased_AllPolicies(t *testing.T) {
	results, err := Run(smallPhased())
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, p := range alloc.Policies() {
		r := results[i]
		assert.Equal(t, p.String(), r.Name)
		assert.Equal(t, ModePhased, r.Mode)
		assert.Equal(t, 50, r.Ops)
		assert.GreaterOrEqual(t, r.Seconds, 0.0)
		// 100 used blocks plus whatever holes and tail remain.
		assert.GreaterOrEqual(t, r.TotalBlocks, 100)
		assert.Equal(t, r.TotalBlocks-100, r.FreeBlocks)
		assert.GreaterOrEqual(t, r.ManagedBytes, 100*(32+32))
	}
}

func TestPhased_Deterministic(t *testing.T) {
	a, err := Phased(smallPhased(), alloc.BestFit)
	require.NoError(t, err)
	b, err := Phased(smallPhased(), alloc.BestFit)
	require.NoError(t, err)

	a.Seconds, b.Seconds = 0, 0
	assert.Equal(t, a, b)
}

func TestRandom(t *testing.T) {
	cfg := DefaultRandomConfig()
	cfg.Ops = 2000
	cfg.Capacity, cfg.Limit = 4<<20, 4<<20

	results, err := Run(cfg, alloc.FirstFit, alloc.WorstFit)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, ModeRandom, r.Mode)
		assert.Equal(t, 2000, r.Ops)
		assert.Zero(t, r.Failed, "4 MiB holds the live set of 2000 ops")
		assert.Equal(t, 4<<20, r.ManagedBytes)
		assert.GreaterOrEqual(t, r.FreeBlocks, 1)
	}
}

func TestRandom_CountsFailures(t *testing.T) {
	cfg := DefaultRandomConfig()
	cfg.Ops = 500
	cfg.AllocPercent = 100
	cfg.Capacity, cfg.Limit = 8192, 8192

	r, err := Random(cfg, alloc.FirstFit)
	require.NoError(t, err)
	assert.Positive(t, r.Failed, "a fixed 8 KiB arena cannot hold 500 allocations")
	assert.Equal(t, 8192, r.ManagedBytes)
}

func TestConfigValidation(t *testing.T) {
	cfg := smallPhased()
	cfg.Frees = cfg.Initial + 1
	_, err := Phased(cfg, alloc.FirstFit)
	require.Error(t, err)

	cfg = DefaultRandomConfig()
	cfg.MaxSize = 0
	_, err = Random(cfg, alloc.FirstFit)
	require.Error(t, err)

	_, err = ParseMode("soak")
	require.Error(t, err)
	m, err := ParseMode("random")
	require.NoError(t, err)
	assert.Equal(t, ModeRandom, m)
	assert.Equal(t, ModeRandom, DefaultConfig(ModeRandom).Mode)
}

func TestResults_RoundTrip(t *testing.T) {
	in := []Result{
		{Name: "FIRST_FIT", Mode: ModePhased, Seconds: 0.0012, Ops: 500, TotalBlocks: 1210, FreeBlocks: 210},
		{Name: "BEST_FIT", Mode: ModePhased, Seconds: 0.0031, Ops: 500, TotalBlocks: 1187, FreeBlocks: 187},
	}

	path := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, WriteFile(path, in))
	out, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestReadResults_ClassicFormat(t *testing.T) {
	classic := `[
  {"name": "FIRST_FIT", "time": 0.000412, "total_blocks": 1012},
  {"name": "BEST_FIT", "time": 0.000893, "total_blocks": 1004},
  {"name": "Worst Fit", "time": 0.001200, "free_blocks": 77}
]`
	results, err := ReadResults(strings.NewReader(classic))
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, 1012, results[0].TotalBlocks)
	assert.InDelta(t, 0.000893, results[1].Seconds, 1e-9)
	assert.Equal(t, 77, results[2].FreeBlocks)

	_, err = ReadResults(strings.NewReader("{"))
	require.Error(t, err)
}

func TestWriteResults_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteResults(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}
