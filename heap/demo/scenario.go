package demo

import (
	"fmt"

	"github.com/joshuapare/heapkit/heap/alloc"
)

// ScenarioPool is the pool acquired for Scenario (1 MiB).
const ScenarioPool = 1 << 20

// Hole names where the 400-byte request of Scenario landed.
type Hole string

const (
	HoleLarge Hole = "large" // the freed 2000-byte block
	HoleSmall Hole = "small" // the freed 500-byte block
	HoleTail  Hole = "tail"  // the untouched rest of the pool
)

// ScenarioResult reports the placements Scenario observed.
type ScenarioResult struct {
	Policy alloc.Policy

	// ReusedHole is true when the 300-byte first-fit request took the
	// address of the freed 500-byte block.
	ReusedHole bool

	// Landed is where the 400-byte request was placed.
	Landed Hole

	// Final is the heap after cleanup; it is a single free block.
	Final []alloc.BlockInfo
}

// Scenario runs the host-module script. The first half always uses FirstFit;
// the hole-selection half uses p.
func Scenario(opts Options, p alloc.Policy) (ScenarioResult, error) {
	res := ScenarioResult{Policy: p}

	if opts.Limit < ScenarioPool {
		opts.Limit = ScenarioPool
	}
	s, err := newSession(opts, alloc.Config{Capacity: ScenarioPool, GrowthUnit: ScenarioPool}, p.String())
	if err != nil {
		return res, err
	}

	s.log.Info("module loaded")
	if err := s.a.Init(ScenarioPool); err != nil {
		s.log.Error("failed to acquire pool", "bytes", ScenarioPool, "error", err)
		_ = s.close()
		return res, err
	}
	if err := s.record("init", alloc.Nil); err != nil {
		_ = s.close()
		return res, err
	}

	if err := scenarioReuse(s, &res); err != nil {
		_ = s.close()
		return res, err
	}
	if err := scenarioHoles(s, p, &res); err != nil {
		_ = s.close()
		return res, err
	}

	res.Final = s.a.Snapshot()
	if err := s.a.Verify(); err != nil {
		_ = s.close()
		return res, err
	}
	if err := s.close(); err != nil {
		return res, err
	}
	s.log.Info("heap pool freed", "bytes", ScenarioPool)
	s.say("Demo Complete.")
	return res, nil
}

// scenarioReuse allocates 100/500/200, frees the 500 and shows that 300 bytes
// land in its hole under FirstFit.
func scenarioReuse(s *session, res *ScenarioResult) error {
	s.say("--- First Fit: hole reuse ---")
	s.say("Allocating 3 pointers (100, 500, 200 bytes)...")
	hs, err := s.allocAll(alloc.FirstFit, 100, 500, 200)
	if err != nil {
		return err
	}
	if err := s.dump(alloc.Nil); err != nil {
		return err
	}

	holeAddr := s.addr(hs[1])
	s.say("Freeing p2 (500 bytes)...")
	if err := s.free(hs[1]); err != nil {
		return err
	}
	if err := s.record("free 500", alloc.Nil); err != nil {
		return err
	}
	if err := s.dump(alloc.Nil); err != nil {
		return err
	}

	s.say("Allocating p4 (300 bytes), should fit in p2's hole with First Fit")
	p4, err := s.alloc(300, alloc.FirstFit)
	if err != nil {
		return err
	}
	if err := s.record("alloc 300", p4); err != nil {
		return err
	}
	if err := s.dump(p4); err != nil {
		return err
	}
	res.ReusedHole = s.addr(p4) == holeAddr

	return s.freeAll(hs[0], hs[2], p4)
}

// scenarioHoles lays out 100/2000/100/500/100, frees the 2000 and the 500 and
// places 400 bytes under p.
func scenarioHoles(s *session, p alloc.Policy, res *ScenarioResult) error {
	s.say("--- Switching to %s ---", p)
	hs, err := s.allocAll(p, 100, 2000, 100, 500, 100)
	if err != nil {
		return err
	}
	large, small := s.addr(hs[1]), s.addr(hs[3])
	if err := s.freeAll(hs[1], hs[3]); err != nil {
		return err
	}

	s.say("Holes available: ~2000 and ~500. Allocating 400.")
	f, err := s.alloc(400, p)
	if err != nil {
		return err
	}
	if err := s.record("alloc 400", f); err != nil {
		return err
	}
	if err := s.dump(f); err != nil {
		return err
	}

	switch s.addr(f) {
	case large:
		res.Landed = HoleLarge
	case small:
		res.Landed = HoleSmall
	default:
		res.Landed = HoleTail
	}
	s.say("%s placed 400 bytes in the %s hole", p, res.Landed)

	return s.freeAll(hs[0], hs[2], hs[4], f)
}

func (s *session) allocAll(p alloc.Policy, sizes ...int) ([]alloc.Handle, error) {
	hs := make([]alloc.Handle, 0, len(sizes))
	for _, n := range sizes {
		h, err := s.alloc(n, p)
		if err != nil {
			return nil, err
		}
		if err := s.record(fmt.Sprintf("alloc %d", n), h); err != nil {
			return nil, err
		}
		hs = append(hs, h)
	}
	return hs, nil
}

func (s *session) freeAll(hs ...alloc.Handle) error {
	for _, h := range hs {
		if err := s.free(h); err != nil {
			return err
		}
		if err := s.record("free", alloc.Nil); err != nil {
			return err
		}
	}
	return nil
}
