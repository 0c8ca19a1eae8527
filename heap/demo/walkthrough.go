package demo

import (
	"fmt"
	"math/rand/v2"

	"github.com/joshuapare/heapkit/heap/alloc"
)

// WalkthroughResult summarizes one walkthrough run.
type WalkthroughResult struct {
	Policy alloc.Policy
	Sizes  []int // requested sizes in allocation order
	Freed  []int // slot indexes freed in step 2
	Final  []alloc.BlockInfo
}

// Walkthrough runs the visual test for one policy.
func Walkthrough(opts Options, p alloc.Policy) (WalkthroughResult, error) {
	res := WalkthroughResult{Policy: p}
	if opts.Initial <= 0 || opts.Frees > opts.Initial || opts.MinSize <= 0 || opts.MaxSize < opts.MinSize {
		return res, fmt.Errorf("demo: invalid walkthrough options %d/%d/%d sizes %d..%d",
			opts.Initial, opts.Frees, opts.Second, opts.MinSize, opts.MaxSize)
	}

	s, err := newSession(opts, opts.Arena, p.String())
	if err != nil {
		return res, err
	}
	defer s.close()

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed))
	size := func() int { return opts.MinSize + rng.IntN(opts.MaxSize-opts.MinSize+1) }

	s.say(banner)
	s.say("TESTING ALGORITHM (Visual): %s", p)
	s.say(banner)

	if err := s.a.Init(0); err != nil {
		return res, err
	}
	if err := s.record("init", alloc.Nil); err != nil {
		return res, err
	}

	slots := make([]alloc.Handle, opts.Initial)

	s.say("Step 1: Allocating %d blocks...", opts.Initial)
	for i := range slots {
		n := size()
		res.Sizes = append(res.Sizes, n)
		s.say("Allocating [%d]: Size %d", i, n)
		h, err := s.alloc(n, p)
		if err != nil {
			return res, err
		}
		slots[i] = h
		if err := s.record(fmt.Sprintf("alloc [%d] %d", i, n), h); err != nil {
			return res, err
		}
	}
	if err := s.dump(alloc.Nil); err != nil {
		return res, err
	}

	s.say("Step 2: Freeing %d blocks...", opts.Frees)
	for freed := 0; freed < opts.Frees; {
		i := rng.IntN(len(slots))
		if slots[i].IsNil() {
			continue
		}
		s.say("Freeing slot [%d]", i)
		if err := s.free(slots[i]); err != nil {
			return res, err
		}
		slots[i] = alloc.Nil
		res.Freed = append(res.Freed, i)
		freed++
		if err := s.record(fmt.Sprintf("free [%d]", i), alloc.Nil); err != nil {
			return res, err
		}
	}
	if err := s.dump(alloc.Nil); err != nil {
		return res, err
	}

	s.say("Step 3: Allocating %d new blocks...", opts.Second)
	done := 0
	for i := 0; i < len(slots) && done < opts.Second; i++ {
		if !slots[i].IsNil() {
			continue
		}
		n := size()
		res.Sizes = append(res.Sizes, n)
		s.say(rule)
		s.say("Re-allocating slot [%d]: Size %d", i, n)
		h, err := s.alloc(n, p)
		if err != nil {
			return res, err
		}
		slots[i] = h
		done++
		if err := s.record(fmt.Sprintf("realloc [%d] %d", i, n), h); err != nil {
			return res, err
		}
		if err := s.dump(h); err != nil {
			return res, err
		}
		s.say(rule)
	}

	if err := s.dump(alloc.Nil); err != nil {
		return res, err
	}
	s.say("Visual Test %s Completed.", p)
	s.say("")

	res.Final = s.a.Snapshot()
	return res, s.a.Verify()
}
