// Package printer renders heap snapshots and statistics for humans and tools.
package printer

import (
	"fmt"
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/heapkit/heap/alloc"
)

// Format specifies the output format for printing.
type Format string

const (
	// FormatText outputs the human-readable block listing.
	FormatText Format = "text"

	// FormatJSON outputs one JSON document per call.
	FormatJSON Format = "json"
)

// ParseFormat accepts "text" and "json".
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatText, "":
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("printer: unknown format %q", s)
}

// NoHighlight marks no block; data offsets are never 0.
const NoHighlight = 0

// Options controls printing behavior.
type Options struct {
	// Format specifies output format (text, json).
	// Default: FormatText
	Format Format

	// GroupDigits formats numbers in text output with the separators of
	// Language ("65,536" for English).
	// Default: false (matches the classic dump)
	GroupDigits bool

	// Language selects the separators used when GroupDigits is set.
	// Default: language.English
	Language language.Tag

	// ShowTotalSize appends the "Total Size" line after the block listing.
	// Default: true
	ShowTotalSize bool

	// Indent pretty-prints JSON output.
	// Default: false
	Indent bool
}

// DefaultOptions returns the classic dump layout.
func DefaultOptions() Options {
	return Options{
		Format:        FormatText,
		Language:      language.English,
		ShowTotalSize: true,
	}
}

// Printer writes heap snapshots and stats to an io.Writer.
type Printer struct {
	opts   Options
	writer io.Writer
	msg    fprinter
}

// fprinter is the subset of message.Printer used by the text output.
type fprinter interface {
	Fprintf(w io.Writer, format string, a ...any) (int, error)
	Fprintln(w io.Writer, a ...any) (int, error)
}

// plain formats like package fmt.
type plain struct{}

func (plain) Fprintf(w io.Writer, format string, a ...any) (int, error) {
	return fmt.Fprintf(w, format, a...)
}

func (plain) Fprintln(w io.Writer, a ...any) (int, error) {
	return fmt.Fprintln(w, a...)
}

// localized formats through x/text with locale digit grouping.
type localized struct{ p *message.Printer }

func (l localized) Fprintf(w io.Writer, format string, a ...any) (int, error) {
	return l.p.Fprintf(w, format, a...)
}

func (l localized) Fprintln(w io.Writer, a ...any) (int, error) {
	return l.p.Fprintln(w, a...)
}

// New creates a new Printer.
//
// Example:
//
//	p := printer.New(os.Stdout, printer.DefaultOptions())
//	p.PrintHeap(a.Snapshot(), addr)
func New(w io.Writer, opts Options) *Printer {
	if opts.Format == "" {
		opts.Format = FormatText
	}
	var msg fprinter = plain{}
	if opts.GroupDigits {
		tag := opts.Language
		if tag == language.Und {
			tag = language.English
		}
		msg = localized{message.NewPrinter(tag)}
	}
	return &Printer{
		opts:   opts,
		writer: w,
		msg:    msg,
	}
}

// PrintHeap prints every block of a snapshot. The block whose data offset
// equals highlight is framed in text output and flagged in JSON output.
func (p *Printer) PrintHeap(blocks []alloc.BlockInfo, highlight int) error {
	if p.opts.Format == FormatJSON {
		return p.printHeapJSON(blocks, highlight)
	}
	return p.printHeapText(blocks, highlight)
}

// PrintStats prints allocator statistics.
func (p *Printer) PrintStats(st alloc.Stats) error {
	if p.opts.Format == FormatJSON {
		return p.writeJSON(st)
	}
	return p.printStatsText(st)
}

// TotalSize sums the usable sizes of blocks (headers excluded).
func TotalSize(blocks []alloc.BlockInfo) int {
	total := 0
	for _, b := range blocks {
		total += b.Size
	}
	return total
}

// HumanSize renders n as Bytes below 1 KiB, KB below 1 MiB, and MB above,
// with two decimals for the scaled units.
func HumanSize(n int) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d Bytes", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.2f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.2f MB", float64(n)/(1024*1024))
	}
}
