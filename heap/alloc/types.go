package alloc

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// Policy selects how a free block is chosen for a request.
type Policy uint8

const (
	FirstFit Policy = iota
	BestFit
	WorstFit
)

var policyNames = [...]string{
	FirstFit: "FIRST_FIT",
	BestFit:  "BEST_FIT",
	WorstFit: "WORST_FIT",
}

// Policies returns every policy in declaration order.
func Policies() []Policy {
	return []Policy{FirstFit, BestFit, WorstFit}
}

// Valid reports whether p is one of the declared policies.
func (p Policy) Valid() bool {
	return int(p) < len(policyNames)
}

func (p Policy) String() string {
	if !p.Valid() {
		return fmt.Sprintf("Policy(%d)", uint8(p))
	}
	return policyNames[p]
}

// ParsePolicy accepts "first", "first-fit", "first_fit", "FIRST_FIT" and the
// same spellings for best and worst.
func ParsePolicy(s string) (Policy, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "", "_", "", " ", "").Replace(norm)
	switch norm {
	case "first", "firstfit", "ff":
		return FirstFit, nil
	case "best", "bestfit", "bf":
		return BestFit, nil
	case "worst", "worstfit", "wf":
		return WorstFit, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
}

// Handle is an opaque reference to a live allocation.
// The zero value is Nil and never refers to a block.
type Handle struct {
	slot  uint32
	gen   uint32
	epoch uint32
}

// Nil is the null handle returned for zero-size requests.
var Nil Handle

// IsNil reports whether h is the null handle.
func (h Handle) IsNil() bool { return h.gen == 0 }

// String renders h as "slot-gen-epoch" in hex, the form ParseHandle accepts.
func (h Handle) String() string {
	if h.IsNil() {
		return "nil"
	}
	return fmt.Sprintf("%x-%x-%x", h.slot, h.gen, h.epoch)
}

// MarshalText implements encoding.TextMarshaler.
func (h Handle) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Handle) UnmarshalText(b []byte) error {
	parsed, err := ParseHandle(string(b))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ParseHandle parses the String form of a handle. Parsing only checks syntax;
// the allocator decides whether the handle is live.
func ParseHandle(s string) (Handle, error) {
	if s == "nil" || s == "" {
		return Nil, nil
	}
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return Nil, fmt.Errorf("%w: malformed %q", ErrInvalidHandle, s)
	}
	var vals [3]uint32
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 16, 32)
		if err != nil {
			return Nil, fmt.Errorf("%w: malformed %q", ErrInvalidHandle, s)
		}
		vals[i] = uint32(v)
	}
	return Handle{slot: vals[0], gen: vals[1], epoch: vals[2]}, nil
}

// BlockInfo is one entry of a heap snapshot.
type BlockInfo struct {
	Addr int  // offset of the data region within the backing span
	Size int  // usable bytes, header excluded
	Free bool // available for allocation
}

// Header returns the offset of the block header.
func (b BlockInfo) Header() int { return b.Addr - headerSize }

// End returns the offset one past the block's data region.
func (b BlockInfo) End() int { return b.Addr + b.Size }

// Config tunes arena sizing.
type Config struct {
	// Capacity is the size of the first backing region, header included.
	// Default: 64 KiB
	Capacity int

	// GrowthUnit is the granularity of every later acquisition.
	// Default: 64 KiB
	GrowthUnit int

	// Logger receives Debug-level arena lifecycle events.
	// Default: discard
	Logger *slog.Logger
}

const (
	DefaultCapacity   = 64 << 10
	DefaultGrowthUnit = 64 << 10
)

// DefaultConfig is used when New receives nil.
var DefaultConfig = Config{
	Capacity:   DefaultCapacity,
	GrowthUnit: DefaultGrowthUnit,
}

// VisualConfig is a 640-byte arena that grows in 640-byte units. Small enough
// for a heap dump to fit on one screen.
var VisualConfig = Config{
	Capacity:   640,
	GrowthUnit: 640,
}
