package diagram

import (
	"math/bits"
)

// reeHooverTable holds the Ree-Hoover factor of every labelled graph on N points:
//
//	a(F) = Σ (-1)^(|F|-|D|) over D ⊆ F with D in the selected class
//
// computed with one subset-sum transform over the 2^(N(N-1)/2) bond masks.
type reeHooverTable struct {
	n      int
	coeffs []int32
}

func newReeHooverTable(opts *GenerateOpts) *reeHooverTable {
	n := opts.N
	m := NumPairs(n)
	size := 1 << uint(m)

	g := make([]int32, size)
	adj := make([]uint16, n)
	for mask := 0; mask < size; mask++ {
		Code(mask).fillAdjacency(n, adj)
		if opts.accepts(adj) {
			if bits.OnesCount(uint(mask))&1 == 0 {
				g[mask] = 1
			} else {
				g[mask] = -1
			}
		}
	}

	for b := 0; b < m; b++ {
		bit := 1 << uint(b)
		for mask := 0; mask < size; mask++ {
			if mask&bit != 0 {
				g[mask] += g[mask^bit]
			}
		}
	}

	// a(F) = (-1)^|F| Σ_{D⊆F} (-1)^|D| [D in class]
	for mask := 0; mask < size; mask++ {
		if bits.OnesCount(uint(mask))&1 != 0 {
			g[mask] = -g[mask]
		}
	}

	return &reeHooverTable{
		n:      n,
		coeffs: g,
	}
}

func (rh *reeHooverTable) factor(code Code) int64 {
	return int64(rh.coeffs[code])
}
