// Package bench compares the placement policies on reproducible workloads.
//
// # Modes
//
// Phased fills the heap with Initial random-size blocks, frees Frees of them
// at random, then times the re-allocation of Second blocks into the freed
// slots. Only the third phase is timed; it is the one that exercises the
// free-block search.
//
// Random runs Ops operations against a fixed arena: AllocPercent of them
// allocate 1..MaxSize bytes, the rest free a random live block. The whole run
// is timed. Allocations that do not fit are counted, not fatal.
//
// Every policy is run with the same seed, so all three see the same request
// stream up to the point where their heaps diverge.
package bench

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/backing"
)

// Mode selects a workload.
type Mode string

const (
	ModePhased Mode = "phased"
	ModeRandom Mode = "random"
)

// ParseMode accepts "phased" and "random".
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModePhased, "":
		return ModePhased, nil
	case ModeRandom:
		return ModeRandom, nil
	}
	return "", fmt.Errorf("bench: unknown mode %q", s)
}

// Config describes a workload.
type Config struct {
	Mode Mode
	Seed uint64

	// Phased
	Initial int // blocks allocated in phase 1
	Frees   int // blocks freed in phase 2
	Second  int // blocks re-allocated (and timed) in phase 3

	// Random
	Ops          int // total operations
	AllocPercent int // share of operations that allocate

	MinSize int
	MaxSize int

	// Arena
	Capacity   int
	GrowthUnit int
	Limit      int // backing reservation; 0 = backing.DefaultLimit
	Backing    backing.Kind

	Logger *slog.Logger
}

// DefaultPhasedConfig mirrors the classic 1000/500/500 benchmark over a
// 64 KiB arena that grows on demand.
func DefaultPhasedConfig() Config {
	return Config{
		Mode:       ModePhased,
		Seed:       12345,
		Initial:    1000,
		Frees:      500,
		Second:     500,
		MinSize:    32,
		MaxSize:    512,
		Capacity:   alloc.DefaultCapacity,
		GrowthUnit: alloc.DefaultGrowthUnit,
		Backing:    backing.KindHeap,
	}
}

// DefaultRandomConfig is 10,000 operations (60% alloc) against a fixed 10 MiB
// arena.
func DefaultRandomConfig() Config {
	return Config{
		Mode:         ModeRandom,
		Seed:         12345,
		Ops:          10000,
		AllocPercent: 60,
		MinSize:      1,
		MaxSize:      1024,
		Capacity:     10 << 20,
		GrowthUnit:   alloc.DefaultGrowthUnit,
		Limit:        10 << 20,
		Backing:      backing.KindHeap,
	}
}

// DefaultConfig returns the default configuration for mode.
func DefaultConfig(mode Mode) Config {
	if mode == ModeRandom {
		return DefaultRandomConfig()
	}
	return DefaultPhasedConfig()
}

func (c Config) validate() error {
	if c.MinSize <= 0 || c.MaxSize < c.MinSize {
		return fmt.Errorf("bench: invalid size range %d..%d", c.MinSize, c.MaxSize)
	}
	switch c.Mode {
	case ModePhased:
		if c.Initial <= 0 || c.Frees < 0 || c.Frees > c.Initial || c.Second < 0 {
			return fmt.Errorf("bench: invalid phases %d/%d/%d", c.Initial, c.Frees, c.Second)
		}
	case ModeRandom:
		if c.Ops <= 0 || c.AllocPercent < 0 || c.AllocPercent > 100 {
			return fmt.Errorf("bench: invalid random workload ops=%d alloc=%d%%", c.Ops, c.AllocPercent)
		}
	default:
		return fmt.Errorf("bench: unknown mode %q", c.Mode)
	}
	return nil
}

// Result is one policy's outcome. The JSON names of Name, Seconds and
// TotalBlocks match the classic results.json.
type Result struct {
	Name          string  `json:"name"`
	Mode          Mode    `json:"mode"`
	Seconds       float64 `json:"time"`
	Ops           int     `json:"ops"`
	Failed        int     `json:"failed,omitempty"`
	TotalBlocks   int     `json:"total_blocks"`
	FreeBlocks    int     `json:"free_blocks"`
	FreeBytes     int     `json:"free_bytes"`
	LargestFree   int     `json:"largest_free"`
	ManagedBytes  int     `json:"managed_bytes"`
	Fragmentation float64 `json:"fragmentation"`
}

// Run executes cfg once per policy, in order.
func Run(cfg Config, policies ...alloc.Policy) ([]Result, error) {
	if len(policies) == 0 {
		policies = alloc.Policies()
	}
	results := make([]Result, 0, len(policies))
	for _, p := range policies {
		var (
			r   Result
			err error
		)
		switch cfg.Mode {
		case ModeRandom:
			r, err = Random(cfg, p)
		default:
			r, err = Phased(cfg, p)
		}
		if err != nil {
			return results, fmt.Errorf("bench: %s: %w", p, err)
		}
		results = append(results, r)
	}
	return results, nil
}

// newAllocator opens the backing source and allocator for one run.
func newAllocator(cfg Config) (*alloc.Allocator, error) {
	src, err := backing.Open(cfg.Backing, cfg.Limit)
	if err != nil {
		return nil, err
	}
	a := alloc.New(src, &alloc.Config{
		Capacity:   cfg.Capacity,
		GrowthUnit: cfg.GrowthUnit,
		Logger:     cfg.Logger,
	})
	if err := a.Init(0); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func randSize(rng *rand.Rand, lo, hi int) int {
	return lo + rng.IntN(hi-lo+1)
}

// Phased runs the three-phase workload for one policy.
func Phased(cfg Config, p alloc.Policy) (Result, error) {
	cfg.Mode = ModePhased
	if err := cfg.validate(); err != nil {
		return Result{}, err
	}
	a, err := newAllocator(cfg)
	if err != nil {
		return Result{}, err
	}
	defer a.Close()

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
	slots := make([]alloc.Handle, cfg.Initial)

	for i := range slots {
		h, _, err := a.Alloc(randSize(rng, cfg.MinSize, cfg.MaxSize), p)
		if err != nil {
			return Result{}, fmt.Errorf("phase 1 alloc %d: %w", i, err)
		}
		slots[i] = h
	}

	for freed := 0; freed < cfg.Frees; {
		i := rng.IntN(len(slots))
		if slots[i].IsNil() {
			continue
		}
		if err := a.Free(slots[i]); err != nil {
			return Result{}, fmt.Errorf("phase 2 free %d: %w", i, err)
		}
		slots[i] = alloc.Nil
		freed++
	}

	start := time.Now()
	done := 0
	for i := 0; i < len(slots) && done < cfg.Second; i++ {
		if !slots[i].IsNil() {
			continue
		}
		h, _, err := a.Alloc(randSize(rng, cfg.MinSize, cfg.MaxSize), p)
		if err != nil {
			return Result{}, fmt.Errorf("phase 3 alloc %d: %w", i, err)
		}
		slots[i] = h
		done++
	}
	elapsed := time.Since(start)

	r := summarize(a, p, ModePhased, elapsed)
	r.Ops = done
	return r, nil
}

// Random runs the mixed alloc/free workload for one policy.
func Random(cfg Config, p alloc.Policy) (Result, error) {
	cfg.Mode = ModeRandom
	if err := cfg.validate(); err != nil {
		return Result{}, err
	}
	a, err := newAllocator(cfg)
	if err != nil {
		return Result{}, err
	}
	defer a.Close()

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
	live := make([]alloc.Handle, 0, cfg.Ops)
	failed := 0

	start := time.Now()
	for range cfg.Ops {
		if rng.IntN(100) < cfg.AllocPercent {
			h, _, err := a.Alloc(randSize(rng, cfg.MinSize, cfg.MaxSize), p)
			switch {
			case errors.Is(err, alloc.ErrOutOfBackingMemory):
				failed++
			case err != nil:
				return Result{}, err
			default:
				live = append(live, h)
			}
			continue
		}
		if len(live) == 0 {
			continue
		}
		i := rng.IntN(len(live))
		if err := a.Free(live[i]); err != nil {
			return Result{}, err
		}
		live[i] = live[len(live)-1]
		live = live[:len(live)-1]
	}
	elapsed := time.Since(start)

	r := summarize(a, p, ModeRandom, elapsed)
	r.Ops = cfg.Ops
	r.Failed = failed
	return r, nil
}

func summarize(a *alloc.Allocator, p alloc.Policy, mode Mode, elapsed time.Duration) Result {
	st := a.Stats()
	return Result{
		Name:          p.String(),
		Mode:          mode,
		Seconds:       elapsed.Seconds(),
		TotalBlocks:   st.Blocks,
		FreeBlocks:    st.FreeBlocks,
		FreeBytes:     st.FreeBytes,
		LargestFree:   st.LargestFree,
		ManagedBytes:  st.ManagedBytes,
		Fragmentation: st.Fragmentation,
	}
}
