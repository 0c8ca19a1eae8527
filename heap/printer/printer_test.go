package printer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/joshuapare/heapkit/heap/alloc"
)

var sample = []alloc.BlockInfo{
	{Addr: 0x20, Size: 104, Free: false},
	{Addr: 0xa8, Size: 472, Free: true},
}

func TestPrintHeap_Text(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, DefaultOptions())

	require.NoError(t, p.PrintHeap(sample, NoHighlight))

	want := strings.Join([]string{
		"--- Heap Stats ---",
		"Block 0: [USED] Size: 104 bytes (Addr: 0x20)",
		"Block 1: [FREE] Size: 472 bytes (Addr: 0xa8)",
		"Total Blocks: 2",
		"Total Size: 576 Bytes",
		"------------------",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestPrintHeap_Highlight(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, Options{Format: FormatText})

	require.NoError(t, p.PrintHeap(sample, 0xa8))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, rule, lines[2])
	assert.Contains(t, lines[3], "Block 1: [FREE]")
	assert.Equal(t, rule, lines[4])
	assert.NotContains(t, buf.String(), "Total Size", "ShowTotalSize is off")
}

func TestPrintHeap_GroupDigits(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.GroupDigits = true
	p := New(&buf, opts)

	require.NoError(t, p.PrintHeap([]alloc.BlockInfo{{Addr: 0x20, Size: 65504, Free: true}}, NoHighlight))
	assert.Contains(t, buf.String(), "Size: 65,504 bytes")
	assert.Contains(t, buf.String(), "Total Size: 63.97 KB")
}

func TestPrintHeap_GroupDigitsLanguage(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.GroupDigits = true
	opts.Language = language.German
	p := New(&buf, opts)

	require.NoError(t, p.PrintHeap([]alloc.BlockInfo{{Addr: 0x20, Size: 1048544}}, NoHighlight))
	assert.Contains(t, buf.String(), "Size: 1.048.544 bytes")
}

func TestPrintHeap_JSON(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, Options{Format: FormatJSON})

	require.NoError(t, p.PrintHeap(sample, 0x20))
	assert.JSONEq(t, `{
		"blocks": [
			{"addr": 32, "size": 104, "is_free": false, "highlighted": true},
			{"addr": 168, "size": 472, "is_free": true}
		],
		"total_blocks": 2,
		"total_bytes": 576
	}`, buf.String())
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}

func TestPrintStats(t *testing.T) {
	st := alloc.Stats{Blocks: 3, FreeBlocks: 2, FreeBytes: 400, LargestFree: 300, Fragmentation: 0.25}

	var buf bytes.Buffer
	require.NoError(t, New(&buf, DefaultOptions()).PrintStats(st))
	assert.Contains(t, buf.String(), "Free bytes:      400")
	assert.Contains(t, buf.String(), "Fragmentation:   25.0%")

	buf.Reset()
	require.NoError(t, New(&buf, Options{Format: FormatJSON, Indent: true}).PrintStats(st))
	assert.Contains(t, buf.String(), `"largest_free": 300`)
}

func TestHumanSize(t *testing.T) {
	assert.Equal(t, "0 Bytes", HumanSize(0))
	assert.Equal(t, "1023 Bytes", HumanSize(1023))
	assert.Equal(t, "1.00 KB", HumanSize(1024))
	assert.Equal(t, "1.50 KB", HumanSize(1536))
	assert.Equal(t, "10.00 MB", HumanSize(10<<20))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("json")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	_, err = ParseFormat("reg")
	require.Error(t, err)
}
