// Package format houses the low-level layout of the heap arena: the in-band
// block header record, alignment rules, and little-endian helpers. It has no
// knowledge of free lists or placement policy so the allocator and the
// diagnostic tools can share one definition of the bytes.
package format

var (
	// BlockMagic is the four-byte signature at the start of every block header.
	// Layout:
	//   0x00  'b' 'l' 'k' 0x00
	BlockMagic = []byte{'b', 'l', 'k', 0}
)

const (
	// HeaderSize is the size of the in-band block header in bytes. It matches
	// the footprint of a {size, is_free, next, prev} record on a 64-bit host.
	HeaderSize = 0x20

	// Alignment is the boundary every block size is rounded up to
	// (the platform pointer alignment).
	Alignment = 8

	// AlignmentMask is Alignment - 1, used for fast round-up.
	AlignmentMask = Alignment - 1

	// MinPayload is the smallest data region a split remainder may have.
	// Anything smaller stays inside the original block as internal fragmentation.
	MinPayload = Alignment

	// MinBlockSize is the smallest footprint of a standalone block.
	MinBlockSize = HeaderSize + MinPayload

	// PageSize is the commit granularity used by page-backed sources.
	PageSize = 0x1000

	// PageAlignmentMask is PageSize - 1.
	PageAlignmentMask = PageSize - 1
)

// Header field offsets.
const (
	HeaderMagicOffset = 0x00
	HeaderFlagsOffset = 0x04
	HeaderSizeOffset  = 0x08
	HeaderSlotOffset  = 0x10
	HeaderGenOffset   = 0x14
)

// Header flag bits.
const (
	FlagFree uint32 = 1 << 0
)
