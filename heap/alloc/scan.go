package alloc

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/buf"
	"github.com/joshuapare/heapkit/internal/format"
)

// ScanArena decodes the in-band headers of a raw arena image, such as a file
// left behind by a file-backed source, without an allocator. The walk starts
// at base and follows header+size offsets to the end of span.
//
// Headers of blocks absorbed by coalescing stay behind as stale bytes inside
// the surviving block's data and are skipped. A header that does not decode
// or does not fit stops the scan with a wrapped ErrCorrupt; the blocks decoded
// up to that point are returned with it.
func ScanArena(span []byte, base int) ([]BlockInfo, error) {
	if base < 0 || base > len(span) {
		return nil, fmt.Errorf("%w: base %#x outside %d-byte image", ErrCorrupt, base, len(span))
	}

	var out []BlockInfo
	for off := base; off < len(span); {
		hdr, err := format.ReadHeader(span, off)
		if err != nil {
			return out, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if hdr.Size > uint64(len(span)) {
			return out, fmt.Errorf("%w: block at %#x claims %d bytes", ErrCorrupt, off, hdr.Size)
		}
		size := int(hdr.Size)
		if size < format.MinPayload || !format.IsAligned8(size) {
			return out, fmt.Errorf("%w: block at %#x has size %d", ErrCorrupt, off, size)
		}
		end, err := buf.CheckSpan(len(span), off, headerSize+size)
		if err != nil {
			return out, fmt.Errorf("%w: block at %#x: %w", ErrCorrupt, off, err)
		}

		out = append(out, BlockInfo{Addr: off + headerSize, Size: size, Free: hdr.Free})
		off = end
	}
	return out, nil
}
