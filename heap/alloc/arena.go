package alloc

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/joshuapare/heapkit/heap/backing"
	"github.com/joshuapare/heapkit/internal/format"
)

const (
	headerSize = format.HeaderSize

	// nilSlot terminates the block list.
	nilSlot int32 = -1
)

// block is one entry of the slot table.
type block struct {
	off  int // header offset within the backing span
	size int // usable bytes after the header
	free bool
	live bool // slot is threaded into the list
	next int32
	prev int32
	gen  uint32
}

// Region records one acquisition from the backing source.
type Region struct {
	Off int // offset within the backing span
	Len int
}

// counters are the running totals behind Stats.
type counters struct {
	AllocCalls       int
	AllocSlowPath    int
	FreeCalls        int
	ResizeCalls      int
	ResizeInPlace    int
	ResizeMoved      int
	GrowCalls        int
	GrowBytes        int
	Splits           int
	CoalesceForward  int
	CoalesceBackward int
}

// Allocator manages the block list over a backing source.
type Allocator struct {
	src backing.Source
	cfg Config
	log *slog.Logger

	blocks []block
	spare  []int32 // retired slots, reused LIFO
	head   int32
	tail   int32

	base    int // span offset of the first block of the current arena
	regions []Region
	epoch   uint32

	stats  counters
	closed bool
}

// New creates an allocator over src. A nil config selects DefaultConfig; zero
// fields take their defaults. The arena itself is created lazily on the first
// Alloc, or explicitly with Init.
func New(src backing.Source, cfg *Config) *Allocator {
	if cfg == nil {
		cfg = &DefaultConfig
	}
	c := *cfg
	if c.Capacity <= 0 {
		c.Capacity = DefaultCapacity
	}
	if c.GrowthUnit <= 0 {
		c.GrowthUnit = DefaultGrowthUnit
	}
	c.GrowthUnit = max(format.Align8(c.GrowthUnit), format.MinBlockSize)

	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Allocator{
		src:   src,
		cfg:   c,
		log:   logger,
		head:  nilSlot,
		tail:  nilSlot,
		epoch: 1,
	}
}

// Config returns the effective configuration.
func (a *Allocator) Config() Config { return a.cfg }

// Initialized reports whether the arena has been created.
func (a *Allocator) Initialized() bool { return a.head != nilSlot }

// Regions returns the backing regions of the current arena in address order.
func (a *Allocator) Regions() []Region {
	out := make([]Region, len(a.regions))
	copy(out, a.regions)
	return out
}

// Init acquires a region of at least capacity bytes and formats it as one free
// block. A capacity of 0 uses Config.Capacity.
func (a *Allocator) Init(capacity int) error {
	if a.closed {
		return ErrClosed
	}
	if a.head != nilSlot {
		return ErrInitialized
	}
	if capacity == 0 {
		capacity = a.cfg.Capacity
	}
	if capacity < 0 {
		return fmt.Errorf("%w: capacity %d", ErrInvalidSize, capacity)
	}
	capacity, ok := format.AlignUp(capacity, format.Alignment)
	if !ok {
		return fmt.Errorf("%w: capacity", ErrSizeOverflow)
	}
	if capacity < format.MinBlockSize {
		return fmt.Errorf("%w: capacity %d below minimum %d", ErrInvalidSize, capacity, format.MinBlockSize)
	}

	off := a.src.Acquired()
	if err := a.acquire(capacity); err != nil {
		return err
	}

	idx := a.newSlot()
	b := &a.blocks[idx]
	b.off = off
	b.size = capacity - headerSize
	b.free = true

	a.head, a.tail = idx, idx
	a.base = off
	a.writeHeader(idx)

	a.log.Debug("arena initialized", "offset", off, "capacity", capacity)
	return nil
}

// grow appends a free block of at least minimum bytes (header included),
// rounded up to the growth unit, then coalesces it with a free tail.
func (a *Allocator) grow(minimum int) error {
	size, ok := format.AlignUp(minimum, a.cfg.GrowthUnit)
	if !ok {
		return fmt.Errorf("%w: grow %d bytes", ErrSizeOverflow, minimum)
	}

	off := a.src.Acquired()
	if err := a.acquire(size); err != nil {
		return err
	}
	a.stats.GrowCalls++
	a.stats.GrowBytes += size

	idx := a.newSlot()
	b := &a.blocks[idx]
	b.off = off
	b.size = size - headerSize
	b.free = true
	b.prev = a.tail
	if a.tail != nilSlot {
		a.blocks[a.tail].next = idx
	} else {
		a.head = idx
	}
	a.tail = idx
	a.writeHeader(idx)

	a.log.Debug("arena grown",
		"need", minimum,
		"bytes", size,
		"regions", len(a.regions),
		"managed", a.src.Acquired()-a.base,
	)

	a.coalesce(idx)
	return nil
}

// acquire extends the backing span and records the region.
func (a *Allocator) acquire(n int) error {
	off := a.src.Acquired()
	if _, err := a.src.Acquire(n); err != nil {
		return fmt.Errorf("%w: %w", ErrOutOfBackingMemory, err)
	}
	a.regions = append(a.regions, Region{Off: off, Len: n})
	return nil
}

// Reset drops all bookkeeping without releasing backing memory. Every
// outstanding handle becomes invalid. The next Alloc or Init starts a fresh
// arena after the retired regions; they are returned to the host on Close.
func (a *Allocator) Reset() {
	a.blocks = nil
	a.spare = nil
	a.head, a.tail = nilSlot, nilSlot
	a.base = 0
	a.regions = nil
	a.stats = counters{}
	a.epoch++
	if a.epoch == 0 {
		a.epoch = 1
	}
	a.log.Debug("arena reset", "epoch", a.epoch)
}

// Close tears the arena down and releases all backing memory to the host.
// Every outstanding handle and every slice returned by the allocator is invalid afterwards.
func (a *Allocator) Close() error {
	if a.closed {
		return ErrClosed
	}
	a.Reset()
	a.closed = true
	if err := a.src.Release(); err != nil {
		return fmt.Errorf("alloc: release backing: %w", err)
	}
	a.log.Debug("arena released")
	return nil
}

// ============================================================================
// Slot table
// ============================================================================

// newSlot returns a live, unlinked slot. Reused slots keep counting their
// generation so handles to the retired block never match again.
func (a *Allocator) newSlot() int32 {
	if n := len(a.spare); n > 0 {
		idx := a.spare[n-1]
		a.spare = a.spare[:n-1]
		gen := nextGen(a.blocks[idx].gen)
		a.blocks[idx] = block{live: true, next: nilSlot, prev: nilSlot, gen: gen}
		return idx
	}
	a.blocks = append(a.blocks, block{live: true, next: nilSlot, prev: nilSlot, gen: 1})
	return int32(len(a.blocks) - 1)
}

// retire takes a slot out of the list for reuse.
func (a *Allocator) retire(idx int32) {
	a.blocks[idx].live = false
	a.spare = append(a.spare, idx)
}

func nextGen(g uint32) uint32 {
	g++
	if g == 0 {
		g = 1
	}
	return g
}

// handle issues the handle for a used block.
func (a *Allocator) handle(idx int32) Handle {
	return Handle{slot: uint32(idx), gen: a.blocks[idx].gen, epoch: a.epoch}
}

// lookup resolves h to the slot of a live, used block.
func (a *Allocator) lookup(h Handle) (int32, error) {
	if h.IsNil() || h.epoch != a.epoch || int(h.slot) >= len(a.blocks) {
		return nilSlot, fmt.Errorf("%w: %s", ErrInvalidHandle, h)
	}
	b := &a.blocks[h.slot]
	if !b.live || b.free || b.gen != h.gen {
		return nilSlot, fmt.Errorf("%w: %s", ErrInvalidHandle, h)
	}
	return int32(h.slot), nil
}

// data returns the usable region of a block.
func (a *Allocator) data(idx int32) []byte {
	b := &a.blocks[idx]
	start := b.off + headerSize
	end := start + b.size
	return a.src.Bytes()[start:end:end]
}

// writeHeader mirrors the slot into the in-band header record.
func (a *Allocator) writeHeader(idx int32) {
	b := &a.blocks[idx]
	// Bounds hold by construction: every block lies inside the acquired span.
	_ = format.PutHeader(a.src.Bytes(), b.off, format.Header{
		Size: uint64(b.size),
		Free: b.free,
		Slot: uint32(idx),
		Gen:  b.gen,
	})
}
