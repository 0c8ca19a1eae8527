package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joshuapare/heapkit/heap/bench"
	"github.com/joshuapare/heapkit/heap/trace"
	overlay "github.com/rmhubbert/bubbletea-overlay"
)

// Block size classes for the distribution pane
const (
	SmallBlockLimit  = 32
	MediumBlockLimit = 128
)

// View renders the entire UI
func (m Model) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if m.showHelp {
		helpOverlay := overlay.New(
			helpView{keys: m.keys},
			mainView{model: &m},
			overlay.Center,
			overlay.Center,
			0,
			0,
		)
		return helpOverlay.View()
	}

	return m.renderMain()
}

func (m Model) renderMain() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		m.renderMap(),
		m.renderStats(),
		m.renderStatus(),
	)
}

// renderHeader renders the step banner
func (m Model) renderHeader() string {
	title := titleStyle.Render("Heap Explorer")
	st := m.CurrentStep()
	if st == nil {
		return headerStyle.Render(title + "  no steps recorded")
	}

	line := fmt.Sprintf(" Algorithm: %s | Step: %d | Op: %s | Highlight: %s ",
		st.Algo, st.Step, st.Op, formatHighlight(st.Highlight))
	return headerStyle.Render(title + " " + line)
}

func formatHighlight(addr int) string {
	if addr == 0 {
		return "none"
	}
	return fmt.Sprintf("%#x", addr)
}

func (m Model) renderMap() string {
	title := paneTitleStyle.Render("Memory Map")
	body := m.memMap.View()
	if m.CurrentStep() == nil {
		body = "No steps recorded"
	}
	return mapPaneStyle.Width(max(m.width-2, 10)).Render(title + "\n" + body)
}

// renderMemoryMap lays the blocks out left to right, wrapping at width. Each
// block gets a share of two rows proportional to its size, with a floor so
// small blocks stay visible.
func renderMemoryMap(st trace.Step, width int) string {
	total := 0
	for _, b := range st.Blocks {
		total += b.Size
	}
	if total == 0 || width <= 0 {
		return ""
	}

	var rows []string
	var row strings.Builder
	used := 0
	for _, b := range st.Blocks {
		w := int(math.Round(float64(b.Size) / float64(total) * float64(width*2)))
		w = max(w, 4)
		if used+w > width && used > 0 {
			rows = append(rows, row.String())
			row.Reset()
			used = 0
		}
		w = min(w, width-used)

		highlighted := st.Highlight != 0 && b.Addr == st.Highlight
		row.WriteString(renderBlockCell(b, w, highlighted))
		used += w
	}
	if used > 0 {
		rows = append(rows, row.String())
	}
	return strings.Join(rows, "\n")
}

func renderBlockCell(b trace.Block, w int, highlighted bool) string {
	label := strconv.Itoa(b.Size)
	if highlighted {
		label = "[" + label + "]"
	}
	if len(label) > w {
		label = ""
	}

	style := usedBlockStyle
	if b.IsFree {
		style = freeBlockStyle
	}
	if highlighted {
		style = style.Inherit(highlightBlockStyle)
	}
	return style.Width(w).Align(lipgloss.Center).Render(label)
}

// sizeDist counts blocks per size class.
type sizeDist struct {
	Small  int
	Medium int
	Large  int
}

func distribution(st trace.Step) sizeDist {
	var d sizeDist
	for _, b := range st.Blocks {
		switch {
		case b.Size < SmallBlockLimit:
			d.Small++
		case b.Size < MediumBlockLimit:
			d.Medium++
		default:
			d.Large++
		}
	}
	return d
}

func (m Model) renderStats() string {
	paneWidth := max(m.width/2-2, 20)
	left := distPaneStyle.Width(paneWidth).Height(StatsHeight - 2).Render(m.renderCurrentStats(paneWidth - 2))
	right := benchPaneStyle.Width(paneWidth).Height(StatsHeight - 2).Render(renderBenchmarks(m.results, paneWidth-2))
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func (m Model) renderCurrentStats(width int) string {
	var b strings.Builder
	b.WriteString(paneTitleStyle.Render("Block Size Dist"))
	b.WriteString("\n")

	st := m.CurrentStep()
	if st == nil {
		return b.String()
	}

	const labelWidth = 13
	barWidth := max(width-labelWidth-8, 5)

	d := distribution(*st)
	most := max(d.Small, d.Medium, d.Large)
	fmt.Fprintf(&b, "%-*s %5d %s\n", labelWidth, "Small (<32)", d.Small, distBarStyle.Render(bar(d.Small, most, barWidth)))
	fmt.Fprintf(&b, "%-*s %5d %s\n", labelWidth, "Med (32-128)", d.Medium, distBarStyle.Render(bar(d.Medium, most, barWidth)))
	fmt.Fprintf(&b, "%-*s %5d %s\n", labelWidth, "Large (>128)", d.Large, distBarStyle.Render(bar(d.Large, most, barWidth)))

	b.WriteString("\n")
	b.WriteString(paneTitleStyle.Render("Memory Usage"))
	b.WriteString("\n")

	usedBytes, freeBytes := st.UsedBytes(), st.FreeBytes()
	most = max(usedBytes, freeBytes)
	fmt.Fprintf(&b, "%-*s %5d %s\n", labelWidth, "Used", usedBytes, usedBarStyle.Render(bar(usedBytes, most, barWidth)))
	fmt.Fprintf(&b, "%-*s %5d %s", labelWidth, "Free", freeBytes, freeBarStyle.Render(bar(freeBytes, most, barWidth)))
	return b.String()
}

func renderBenchmarks(results []bench.Result, width int) string {
	var b strings.Builder
	b.WriteString(paneTitleStyle.Render("Benchmarks"))
	b.WriteString("\n")

	if len(results) == 0 {
		b.WriteString("No benchmark results")
		return b.String()
	}

	const labelWidth = 10
	barWidth := max(width-labelWidth-12, 5)

	var slowest float64
	mostBlocks := 0
	for _, r := range results {
		slowest = math.Max(slowest, r.Seconds)
		mostBlocks = max(mostBlocks, r.TotalBlocks)
	}

	b.WriteString("Execution Time (ms)\n")
	for _, r := range results {
		fmt.Fprintf(&b, "%-*s %9.2f %s\n", labelWidth, r.Name, r.Seconds*1000,
			timeBarStyle.Render(bar(int(r.Seconds*1e6), int(slowest*1e6), barWidth)))
	}

	b.WriteString("Total Blocks (Frag)\n")
	for i, r := range results {
		fmt.Fprintf(&b, "%-*s %9d %s", labelWidth, r.Name, r.TotalBlocks,
			blockBarStyle.Render(bar(r.TotalBlocks, mostBlocks, barWidth)))
		if i < len(results)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// bar draws v scaled against limit in at most width cells.
func bar(v, limit, width int) string {
	if limit <= 0 || v <= 0 {
		return ""
	}
	n := int(math.Round(float64(v) / float64(limit) * float64(width)))
	return strings.Repeat("█", max(n, 1))
}

func (m Model) renderStatus() string {
	if m.statusMessage != "" {
		return statusMessageStyle.Render(m.statusMessage)
	}
	pos := fmt.Sprintf("%d/%d", min(m.index+1, len(m.steps)), len(m.steps))
	follow := ""
	if m.watcher != nil {
		follow = " | following"
	}
	return statusStyle.Render(pos + follow + " | " + m.help.View(m.keys))
}

// mainView wraps the main UI for use as the overlay background.
type mainView struct {
	model *Model
}

func (v mainView) Init() tea.Cmd                       { return nil }
func (v mainView) Update(tea.Msg) (tea.Model, tea.Cmd) { return v, nil }
func (v mainView) View() string                        { return v.model.renderMain() }

// helpView renders the keyboard shortcuts modal.
type helpView struct {
	keys KeyMap
}

func (v helpView) Init() tea.Cmd                       { return nil }
func (v helpView) Update(tea.Msg) (tea.Model, tea.Cmd) { return v, nil }

func (v helpView) View() string {
	var b strings.Builder
	b.WriteString(helpTitleStyle.Render("Keyboard Shortcuts"))
	b.WriteString("\n")

	const keyWidth = 10
	for i, group := range v.keys.FullHelp() {
		if i > 0 {
			b.WriteString("\n")
		}
		for _, kb := range group {
			h := kb.Help()
			b.WriteString(helpKeyStyle.Width(keyWidth).Render(h.Key))
			b.WriteString("  ")
			b.WriteString(helpDescStyle.Render(h.Desc))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(helpDescStyle.Render("Press ? or esc to close"))
	return modalStyle.Render(b.String())
}
