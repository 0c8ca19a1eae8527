package main

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/bench"
	"github.com/joshuapare/heapkit/heap/trace"
)

func TestDemo_Text(t *testing.T) {
	out, err := runCmd(t, "demo", "--policy", "first")
	require.NoError(t, err)

	assert.Contains(t, out, "TESTING ALGORITHM (Visual): FIRST_FIT")
	assert.NotContains(t, out, "BEST_FIT")
	assert.Contains(t, out, "--- Heap Stats ---")
	assert.Contains(t, out, "Visual Test FIRST_FIT Completed.")
}

func TestDemo_Trace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heap_history.jsonl")
	out, err := runCmd(t, "demo", "--trace", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Heap history written to "+path)

	steps, err := trace.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, steps, 3*21, "one walkthrough per policy")
	assert.Equal(t, "FIRST_FIT", steps[0].Algo)
	assert.Equal(t, "WORST_FIT", steps[len(steps)-1].Algo)
}

func TestDemo_JSON(t *testing.T) {
	out, err := runCmd(t, "demo", "--json", "--policy", "best")
	require.NoError(t, err)

	var got []struct {
		Policy string `json:"policy"`
		Sizes  []int  `json:"sizes"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "BEST_FIT", got[0].Policy)
	assert.Len(t, got[0].Sizes, 15)
}

func TestDemo_BadFlags(t *testing.T) {
	_, err := runCmd(t, "demo", "--policy", "next")
	require.ErrorIs(t, err, alloc.ErrInvalidPolicy)

	_, err = runCmd(t, "demo", "--format", "reg")
	require.Error(t, err)

	_, err = runCmd(t, "demo", "--backing", "tape")
	require.Error(t, err)
}

func TestScenario(t *testing.T) {
	out, err := runCmd(t, "scenario", "--json")
	require.NoError(t, err)

	var got []struct {
		Policy     string `json:"policy"`
		ReusedHole bool   `json:"reused_hole"`
		Landed     string `json:"landed"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 3)

	want := map[string]string{"FIRST_FIT": "large", "BEST_FIT": "small", "WORST_FIT": "tail"}
	for _, r := range got {
		assert.True(t, r.ReusedHole, r.Policy)
		assert.Equal(t, want[r.Policy], r.Landed, r.Policy)
	}
}

func TestScenario_Table(t *testing.T) {
	out, err := runCmd(t, "scenario", "--policy", "worst")
	require.NoError(t, err)
	assert.Contains(t, out, "Holes available")
	assert.Contains(t, out, "WORST_FIT  true         tail")
}

func TestBench_WritesResults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	out, err := runCmd(t, "bench", "--mode", "random", "--ops", "500", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "POLICY")
	assert.Contains(t, out, "WORST_FIT")
	assert.Contains(t, out, "Benchmark results written to "+path)

	results, err := bench.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, bench.ModeRandom, r.Mode)
		assert.Equal(t, 500, r.Ops)
	}
}

func TestBench_JSON(t *testing.T) {
	out, err := runCmd(t, "bench", "--policy", "first,best", "--json")
	require.NoError(t, err)

	var results []bench.Result
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	assert.Equal(t, "FIRST_FIT", results[0].Name)
	assert.Equal(t, "BEST_FIT", results[1].Name)
	assert.Equal(t, 500, results[0].Ops)
}

func TestBench_Quiet(t *testing.T) {
	out, err := runCmd(t, "bench", "-q", "--mode", "random", "--ops", "100")
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(out))
}

func TestVersion(t *testing.T) {
	out, err := runCmd(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "heapctl dev")

	_, err = runCmd(t, "version", "--check", ">= 0.1.0")
	require.Error(t, err, "dev builds never satisfy a constraint")

	orig := version
	version = "0.3.1"
	t.Cleanup(func() { version = orig })

	out, err = runCmd(t, "version", "--check", ">= 0.2, < 1.0")
	require.NoError(t, err)
	assert.Contains(t, out, "satisfies")

	_, err = runCmd(t, "version", "--check", "< 0.3")
	require.Error(t, err)

	_, err = runCmd(t, "version", "--check", "not a constraint")
	require.Error(t, err)
}

func TestLogLevel(t *testing.T) {
	_, err := runCmd(t, "version", "--log-level", "loud")
	require.Error(t, err)

	// Leave the shared logger discarding for other tests.
	_, err = runCmd(t, "version")
	require.NoError(t, err)
}

func TestParsePolicies(t *testing.T) {
	ps, err := parsePolicies("all")
	require.NoError(t, err)
	assert.Equal(t, alloc.Policies(), ps)

	ps, err = parsePolicies("best,worst")
	require.NoError(t, err)
	assert.Equal(t, []alloc.Policy{alloc.BestFit, alloc.WorstFit}, ps)

	_, err = parsePolicies("best,next")
	require.Error(t, err)
}
