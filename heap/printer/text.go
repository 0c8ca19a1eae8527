package printer

import (
	"github.com/joshuapare/heapkit/heap/alloc"
)

const rule = "----------------------------------------"

// printHeapText prints the classic block listing.
func (p *Printer) printHeapText(blocks []alloc.BlockInfo, highlight int) error {
	w := p.writer
	if _, err := p.msg.Fprintln(w, "--- Heap Stats ---"); err != nil {
		return err
	}

	for i, b := range blocks {
		marked := highlight != NoHighlight && b.Addr == highlight
		if marked {
			p.msg.Fprintln(w, rule)
		}
		state := "USED"
		if b.Free {
			state = "FREE"
		}
		p.msg.Fprintf(w, "Block %d: [%s] Size: %d bytes (Addr: %#x)\n", i, state, b.Size, b.Addr)
		if marked {
			p.msg.Fprintln(w, rule)
		}
	}

	p.msg.Fprintf(w, "Total Blocks: %d\n", len(blocks))
	if p.opts.ShowTotalSize {
		p.msg.Fprintf(w, "Total Size: %s\n", HumanSize(TotalSize(blocks)))
	}
	_, err := p.msg.Fprintln(w, "------------------")
	return err
}

// printStatsText prints one labeled line per statistic.
func (p *Printer) printStatsText(st alloc.Stats) error {
	w := p.writer
	lines := []struct {
		label string
		value any
	}{
		{"Regions", st.Regions},
		{"Managed bytes", st.ManagedBytes},
		{"Blocks", st.Blocks},
		{"Used blocks", st.UsedBlocks},
		{"Used bytes", st.UsedBytes},
		{"Free blocks", st.FreeBlocks},
		{"Free bytes", st.FreeBytes},
		{"Largest free", st.LargestFree},
		{"Allocations", st.AllocCalls},
		{"Frees", st.FreeCalls},
		{"Resizes", st.ResizeCalls},
		{"  in place", st.ResizeInPlace},
		{"  moved", st.ResizeMoved},
		{"Growths", st.GrowCalls},
		{"Grown bytes", st.GrowBytes},
		{"Splits", st.Splits},
		{"Merges forward", st.CoalesceForward},
		{"Merges backward", st.CoalesceBackward},
	}

	p.msg.Fprintln(w, "--- Allocator Stats ---")
	for _, l := range lines {
		p.msg.Fprintf(w, "%-16s %d\n", l.label+":", l.value)
	}
	_, err := p.msg.Fprintf(w, "%-16s %.1f%%\n", "Fragmentation:", st.Fragmentation*100)
	return err
}
