package alloc

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestRandomOps_InvariantsHold drives a seeded mix of alloc, free and resize
// and checks every invariant after each step, plus that live data survives
// neighboring operations.
func TestRandomOps_InvariantsHold(t *testing.T) {
	for _, p := range Policies() {
		t.Run(p.String(), func(t *testing.T) {
			a, _ := newTestAllocator(t, &VisualConfig, 1<<20)
			rng := rand.New(rand.NewPCG(12345, uint64(p)))

			type live struct {
				h    Handle
				size int
				tag  byte
			}
			var objs []live
			tag := byte(0)

			check := func(o live) {
				buf, err := a.Bytes(o.h)
				require.NoError(t, err)
				for i := range o.size {
					require.Equal(t, o.tag, buf[i], "tag %d byte %d", o.tag, i)
				}
			}

			for step := range 400 {
				switch op := rng.IntN(10); {
				case op < 5 || len(objs) == 0:
					size := 1 + rng.IntN(512)
					h, buf, err := a.Alloc(size, p)
					require.NoError(t, err, "step %d", step)
					tag++
					fill(buf[:size], tag)
					objs = append(objs, live{h, size, tag})

				case op < 8:
					i := rng.IntN(len(objs))
					check(objs[i])
					require.NoError(t, a.Free(objs[i].h), "step %d", step)
					objs = append(objs[:i], objs[i+1:]...)

				default:
					i := rng.IntN(len(objs))
					o := objs[i]
					check(o)
					size := 1 + rng.IntN(768)
					h, buf, err := a.Resize(o.h, size)
					require.NoError(t, err, "step %d", step)
					keep := min(o.size, size)
					for j := range keep {
						require.Equal(t, o.tag, buf[j], "step %d: resize lost byte %d", step, j)
					}
					fill(buf[:size], o.tag)
					objs[i] = live{h, size, o.tag}
				}
				assertInvariants(t, a)
			}

			for _, o := range objs {
				check(o)
				require.NoError(t, a.Free(o.h))
			}
			require.Equal(t, 1, a.TotalBlocks())
			assertInvariants(t, a)
		})
	}
}
