// Package demo drives the allocator through the two scripted walkthroughs
// used to show the placement policies at work.
//
// Walkthrough is the visual test: ten seeded allocations, five random frees,
// then five re-allocations into the freed slots, dumping the heap after each
// re-allocation with the new block highlighted.
//
// Scenario is the host-module script: acquire a 1 MiB pool, show that a
// first-fit request reuses a freed hole, then free a large and a small hole
// and watch where a 400-byte request lands under the chosen policy.
package demo

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/backing"
	"github.com/joshuapare/heapkit/heap/printer"
	"github.com/joshuapare/heapkit/heap/trace"
)

const (
	banner = "========================================"
	rule   = "----------------------------------------"
)

// Options configures both drivers.
type Options struct {
	// Out receives narration and heap dumps. Default: io.Discard
	Out io.Writer

	// Trace, when set, receives a JSON-lines history of every step.
	Trace io.Writer

	// Printer controls dump formatting.
	Printer printer.Options

	// Seed drives sizes and free order in Walkthrough.
	Seed uint64

	Initial int // blocks allocated in step 1
	Frees   int // blocks freed in step 2
	Second  int // blocks re-allocated in step 3
	MinSize int
	MaxSize int

	// Arena used by Walkthrough. Default: alloc.VisualConfig
	Arena alloc.Config

	// Backing source kind and reservation for both drivers.
	Backing backing.Kind
	Limit   int

	Logger *slog.Logger
}

// DefaultOptions returns the classic 10/5/5 walkthrough writing to out.
func DefaultOptions(out io.Writer) Options {
	return Options{
		Out:     out,
		Printer: printer.DefaultOptions(),
		Seed:    12345,
		Initial: 10,
		Frees:   5,
		Second:  5,
		MinSize: 32,
		MaxSize: 512,
		Arena:   alloc.VisualConfig,
		Backing: backing.KindHeap,
		Limit:   1 << 20,
	}
}

// session bundles the per-run allocator, printer and recorder.
type session struct {
	opts Options
	out  io.Writer
	a    *alloc.Allocator
	pr   *printer.Printer
	rec  *trace.Recorder
	log  *slog.Logger
}

func newSession(opts Options, cfg alloc.Config, label string) (*session, error) {
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	cfg.Logger = logger

	src, err := backing.Open(opts.Backing, opts.Limit)
	if err != nil {
		return nil, err
	}
	s := &session{
		opts: opts,
		out:  out,
		a:    alloc.New(src, &cfg),
		pr:   printer.New(out, opts.Printer),
		log:  logger.With("policy", label),
	}
	if opts.Trace != nil {
		s.rec = trace.NewRecorder(opts.Trace, s.a, label)
	}
	return s, nil
}

func (s *session) close() error { return s.a.Close() }

func (s *session) say(format string, args ...any) {
	fmt.Fprintf(s.out, format+"\n", args...)
}

// record appends a trace step when tracing is on.
func (s *session) record(op string, h alloc.Handle) error {
	if s.rec == nil {
		return nil
	}
	return s.rec.Record(op, s.addr(h))
}

// addr returns the data offset of h, or NoHighlight for Nil.
func (s *session) addr(h alloc.Handle) int {
	if h.IsNil() {
		return printer.NoHighlight
	}
	addr, err := s.a.Addr(h)
	if err != nil {
		return printer.NoHighlight
	}
	return addr
}

// dump prints the heap with h highlighted.
func (s *session) dump(h alloc.Handle) error {
	return s.pr.PrintHeap(s.a.Snapshot(), s.addr(h))
}

func (s *session) alloc(size int, p alloc.Policy) (alloc.Handle, error) {
	h, _, err := s.a.Alloc(size, p)
	if err != nil {
		return alloc.Nil, err
	}
	s.log.Debug("alloc", "size", size, "addr", s.addr(h))
	return h, nil
}

func (s *session) free(h alloc.Handle) error {
	s.log.Debug("free", "addr", s.addr(h))
	return s.a.Free(h)
}
