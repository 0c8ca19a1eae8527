package main

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/joshuapare/heapkit/heap/trace"
	"github.com/stretchr/testify/assert"
)

func TestRenderMemoryMap(t *testing.T) {
	st := fixtureSteps()[1]

	out := renderMemoryMap(st, 80)
	rows := strings.Split(out, "\n")

	// 104 of 576 bytes at 160 cells is 29 cells; the 472-byte block wraps.
	assert.Len(t, rows, 2)
	assert.Contains(t, rows[0], "[104]")
	assert.Contains(t, rows[1], "472")
	assert.NotContains(t, rows[1], "[")
}

func TestRenderMemoryMapSmallBlocksKeepMinimumWidth(t *testing.T) {
	st := trace.Step{Blocks: []trace.Block{
		{Addr: 32, Size: 8},
		{Addr: 72, Size: 10000, IsFree: true},
	}}

	out := renderMemoryMap(st, 40)
	rows := strings.Split(out, "\n")
	assert.Len(t, rows, 2)
	assert.Equal(t, 4, lipgloss.Width(rows[0]))
	assert.Equal(t, 40, lipgloss.Width(rows[1]))
}

func TestRenderMemoryMapEmpty(t *testing.T) {
	assert.Empty(t, renderMemoryMap(trace.Step{}, 80))
	assert.Empty(t, renderMemoryMap(fixtureSteps()[0], 0))
}

func TestDistribution(t *testing.T) {
	st := trace.Step{Blocks: []trace.Block{
		{Size: 8}, {Size: 24}, {Size: 32}, {Size: 100}, {Size: 128}, {Size: 500},
	}}
	assert.Equal(t, sizeDist{Small: 2, Medium: 2, Large: 2}, distribution(st))
}

func TestBar(t *testing.T) {
	assert.Empty(t, bar(0, 10, 10))
	assert.Empty(t, bar(5, 0, 10))
	assert.Equal(t, 5, utf8.RuneCountInString(bar(5, 10, 10)))
	assert.Equal(t, 10, utf8.RuneCountInString(bar(10, 10, 10)))
	assert.Equal(t, 1, utf8.RuneCountInString(bar(1, 1000, 10)), "nonzero values stay visible")
}

func TestFormatHighlight(t *testing.T) {
	assert.Equal(t, "none", formatHighlight(0))
	assert.Equal(t, "0xa8", formatHighlight(168))
}
