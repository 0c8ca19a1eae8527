package printer

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/joshuapare/heapkit/heap/alloc"
)

var json = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
}.Froze()

// jsonBlock is one block in JSON output.
type jsonBlock struct {
	Addr        int  `json:"addr"`
	Size        int  `json:"size"`
	IsFree      bool `json:"is_free"`
	Highlighted bool `json:"highlighted,omitempty"`
}

// jsonHeap is a whole snapshot in JSON output.
type jsonHeap struct {
	Blocks      []jsonBlock `json:"blocks"`
	TotalBlocks int         `json:"total_blocks"`
	TotalBytes  int         `json:"total_bytes"`
}

func (p *Printer) printHeapJSON(blocks []alloc.BlockInfo, highlight int) error {
	out := jsonHeap{
		Blocks:      make([]jsonBlock, 0, len(blocks)),
		TotalBlocks: len(blocks),
		TotalBytes:  TotalSize(blocks),
	}
	for _, b := range blocks {
		out.Blocks = append(out.Blocks, jsonBlock{
			Addr:        b.Addr,
			Size:        b.Size,
			IsFree:      b.Free,
			Highlighted: highlight != NoHighlight && b.Addr == highlight,
		})
	}
	return p.writeJSON(out)
}

// writeJSON encodes v followed by a newline.
func (p *Printer) writeJSON(v any) error {
	stream := json.BorrowStream(p.writer)
	defer json.ReturnStream(stream)

	if p.opts.Indent {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		stream.WriteRaw(string(data))
	} else {
		stream.WriteVal(v)
		if stream.Error != nil {
			return stream.Error
		}
	}
	stream.WriteRaw("\n")
	return stream.Flush()
}
