// Package trace records the step-by-step history of a heap as JSON lines and
// reads it back. Each line is one Step:
//
//	{"step":3,"algo":"BEST_FIT","op":"alloc 120","highlight":200,"blocks":[{"addr":32,"size":104,"is_free":false},...]}
//
// highlight is the data offset of the block the operation touched and is
// omitted when no block is involved.
package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/joshuapare/heapkit/heap/alloc"
)

var json = jsoniter.Config{
	EscapeHTML:             false,
	ValidateJsonRawMessage: true,
}.Froze()

// ErrMalformed is returned when a history line cannot be decoded.
var ErrMalformed = errors.New("trace: malformed history line")

// Block is one block of a recorded snapshot.
type Block struct {
	Addr   int  `json:"addr"`
	Size   int  `json:"size"`
	IsFree bool `json:"is_free"`
}

// Step is one recorded heap state.
type Step struct {
	Step      int     `json:"step"`
	Algo      string  `json:"algo"`
	Op        string  `json:"op"`
	Highlight int     `json:"highlight,omitempty"`
	Blocks    []Block `json:"blocks"`
}

// UsedBytes sums the sizes of used blocks.
func (s Step) UsedBytes() int {
	n := 0
	for _, b := range s.Blocks {
		if !b.IsFree {
			n += b.Size
		}
	}
	return n
}

// FreeBytes sums the sizes of free blocks.
func (s Step) FreeBytes() int {
	n := 0
	for _, b := range s.Blocks {
		if b.IsFree {
			n += b.Size
		}
	}
	return n
}

// Snapshotter is anything that can list its blocks in address order.
// Both *alloc.Allocator and *alloc.Locked satisfy it.
type Snapshotter interface {
	Snapshot() []alloc.BlockInfo
}

// Recorder appends steps for one allocator to a writer.
type Recorder struct {
	w    *bufio.Writer
	src  Snapshotter
	algo string
	step int
}

// NewRecorder creates a recorder labeled with algo (usually a Policy name).
// Step numbers start at 0.
func NewRecorder(w io.Writer, src Snapshotter, algo string) *Recorder {
	return &Recorder{
		w:    bufio.NewWriter(w),
		src:  src,
		algo: algo,
	}
}

// Record writes the current snapshot as the next step and flushes it.
func (r *Recorder) Record(op string, highlight int) error {
	st := Step{
		Step:      r.step,
		Algo:      r.algo,
		Op:        op,
		Highlight: highlight,
		Blocks:    FromSnapshot(r.src.Snapshot()),
	}
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("trace: encode step %d: %w", r.step, err)
	}
	r.step++

	if _, err := r.w.Write(data); err != nil {
		return err
	}
	if err := r.w.WriteByte('\n'); err != nil {
		return err
	}
	return r.w.Flush()
}

// Steps reports how many steps have been recorded.
func (r *Recorder) Steps() int { return r.step }

// FromSnapshot converts allocator blocks to trace blocks.
func FromSnapshot(blocks []alloc.BlockInfo) []Block {
	out := make([]Block, len(blocks))
	for i, b := range blocks {
		out[i] = Block{Addr: b.Addr, Size: b.Size, IsFree: b.Free}
	}
	return out
}

// ReadAll parses a whole history. Blank lines are skipped.
func ReadAll(r io.Reader) ([]Step, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16<<20)

	var steps []Step
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var st Step
		if err := json.Unmarshal(raw, &st); err != nil {
			return steps, fmt.Errorf("%w: line %d: %w", ErrMalformed, line, err)
		}
		steps = append(steps, st)
	}
	if err := sc.Err(); err != nil {
		return steps, fmt.Errorf("trace: read history: %w", err)
	}
	return steps, nil
}

// ReadFile parses the history stored at path.
func ReadFile(path string) ([]Step, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadAll(f)
}
