package cluster

import (
	"math"
	"math/bits"

	"github.com/fine-structures/virial/virial"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/combin"
)

// OneMinusExp returns 1 - exp(-x).  Below |x| < 1e-8 it uses x - x²/2.
func OneMinusExp(x float64) float64 {
	if math.Abs(x) < 1e-8 {
		return x - x*x/2
	}
	return -math.Expm1(-x)
}

// split is a value kept as base + delta, where delta holds every term with a non-additive factor.
type split struct {
	b, d float64
}

func (x split) add(y split) split {
	return split{x.b + y.b, x.d + y.d}
}

func (x split) sub(y split) split {
	return split{x.b - y.b, x.d - y.d}
}

func (x split) mul(y split) split {
	return split{x.b * y.b, x.b*y.d + x.d*y.b + x.d*y.d}
}

var splitOne = split{b: 1}

// Polarizable adds the non-additive (many-body polarization) correction to a pair diagram sum.
//
// For every subset S the Boltzmann factor is W(S) = G(S)·(1 - D_S), where G is the product of pair
// e-bonds and D_S = 1 - exp(-βΔu_S).  The correction is (1-n)/n! times the delta part of the
// 2-connected hypergraph sum over all n points.  Subsets larger than MaxOrder take Δu_S as the sum of
// the irreducible parts of order <= MaxOrder.  Subsets with G(S) = 0 are never sent to the oracle.
type Polarizable struct {
	sum      *Sum
	oracle   virial.PolarizationOracle
	maxOrder int
	weight   float64
	cache    ring
	gen      uint64
	calls    int64

	g     []float64
	du    []float64
	phi   []float64
	w     []split
	c     []split
	p     []split
	b     []split
	h0    []split
	h1    []split
	pairU []float64
	pairK []bool
	idx   []int
}

// NewPolarizable wraps a pair diagram sum with the correction for subsets up to maxOrder points.
func NewPolarizable(sum *Sum, oracle virial.PolarizationOracle, maxOrder int) (*Polarizable, error) {
	n := sum.NumPoints()
	if maxOrder > n {
		maxOrder = n
	}
	if n >= 3 && maxOrder < 3 {
		return nil, errors.Wrapf(virial.ErrBadOptions, "polarization order %d < 3", maxOrder)
	}
	size := 1 << uint(n)
	nFact := combin.NumPermutations(n, n)
	return &Polarizable{
		sum:      sum,
		oracle:   oracle,
		maxOrder: maxOrder,
		weight:   float64(1-n) / float64(nFact),
		gen:      sum.Generation(),
		g:        make([]float64, size),
		du:       make([]float64, size),
		phi:      make([]float64, size),
		w:        make([]split, size),
		c:        make([]split, size),
		p:        make([]split, size),
		b:        make([]split, size),
		h0:       make([]split, size),
		h1:       make([]split, size),
		pairU:    make([]float64, n*n),
		pairK:    make([]bool, n*n),
		idx:      make([]int, 0, n),
	}, nil
}

func (pol *Polarizable) NumPoints() int {
	return pol.sum.NumPoints()
}

func (pol *Polarizable) Value(box virial.Box) float64 {
	if gen := pol.sum.Generation(); gen != pol.gen {
		pol.cache.invalidate()
		pol.gen = gen
	}
	id := box.ID()
	if val, hit := pol.cache.lookup(id); hit {
		return val
	}
	val := pol.sum.Value(box) + pol.Correction(box)
	pol.cache.store(id, val)
	return val
}

func (pol *Polarizable) SetTemperature(T float64) {
	pol.sum.SetTemperature(T)
	pol.cache.invalidate()
}

func (pol *Polarizable) Generation() uint64 {
	return pol.sum.Generation()
}

// OracleCalls returns how many times the polarization oracle has been consulted.
func (pol *Polarizable) OracleCalls() int64 {
	return pol.calls
}

// Correction returns the weighted non-additive correction for the current state of box.
func (pol *Polarizable) Correction(box virial.Box) float64 {
	n := pol.sum.NumPoints()
	if n < 3 {
		return 0
	}
	table := pol.sum.Table()
	table.Update(box)
	beta := table.Beta()
	full := uint(1)<<uint(n) - 1

	for k := range pol.pairK {
		pol.pairK[k] = false
	}

	// G(S) and the subset Boltzmann factors
	pol.g[0] = 1
	for S := uint(1); S <= full; S++ {
		top := bits.Len(S) - 1
		rest := S &^ (1 << uint(top))
		G := pol.g[rest]
		for m := rest; m != 0 && G != 0; m &= m - 1 {
			G *= table.E(bits.TrailingZeros(m), top)
		}
		pol.g[S] = G

		size := bits.OnesCount(S)
		pol.du[S] = 0
		pol.phi[S] = 0
		if size < 3 || G == 0 {
			pol.w[S] = split{b: G}
			continue
		}

		var du float64
		if size <= pol.maxOrder {
			du = pol.subsetEnergy(S, box) - pol.pairSum(S, box)

			// irreducible part of S
			phi := 0.0
			for T := S; T != 0; T = (T - 1) & S {
				if bits.OnesCount(T) >= 3 {
					if (size-bits.OnesCount(T))&1 == 0 {
						phi += pol.duOf(T, S, du)
					} else {
						phi -= pol.duOf(T, S, du)
					}
				}
			}
			pol.phi[S] = phi
		} else {
			for T := (S - 1) & S; T != 0; T = (T - 1) & S {
				if c := bits.OnesCount(T); c >= 3 && c <= pol.maxOrder {
					du += pol.phi[T]
				}
			}
		}
		pol.du[S] = du
		pol.w[S] = split{b: G, d: -G * OneMinusExp(beta*du)}
	}

	// Connected parts: W(S) = Σ_{T ∋ min S} C(T)·W(S\T)
	for S := uint(1); S <= full; S++ {
		low := S & -S
		rest := S &^ low
		c := pol.w[S]
		if rest != 0 {
			for sub := (rest - 1) & rest; ; sub = (sub - 1) & rest {
				T := low | sub
				c = c.sub(pol.c[T].mul(pol.w[S&^T]))
				if sub == 0 {
					break
				}
			}
		}
		pol.c[S] = c
	}

	// P(S): connected with min S not an articulation point; B(S): 2-connected
	for S := uint(3); S <= full; S++ {
		if bits.OnesCount(S) < 2 {
			continue
		}
		r := S & -S
		U := S &^ r
		s2 := U & -U
		Urest := U &^ s2

		p := pol.c[S]
		if Urest != 0 {
			for sub := (Urest - 1) & Urest; ; sub = (sub - 1) & Urest {
				T := s2 | sub
				p = p.sub(pol.p[T|r].mul(pol.c[S&^T]))
				if sub == 0 {
					break
				}
			}
		}
		pol.p[S] = p

		b := p
		for sub := (U - 1) & U; sub != 0; sub = (sub - 1) & U {
			D := r | sub
			b = b.sub(pol.b[D].mul(pol.hang(sub, S&^D)))
		}
		pol.b[S] = b
	}

	return pol.weight * pol.b[full].d
}

// duOf returns Δu of T ⊆ S, where Δu of S itself is still being computed.
func (pol *Polarizable) duOf(T, S uint, du float64) float64 {
	if T == S {
		return du
	}
	return pol.du[T]
}

// hang returns Σ over assignments of the points in R to the points in A of Π_a C({a} ∪ R_a).
func (pol *Polarizable) hang(A, R uint) split {
	if R == 0 {
		return splitOne
	}
	h, next := pol.h0, pol.h1
	for X := R; ; X = (X - 1) & R {
		h[X] = split{}
		if X == 0 {
			break
		}
	}
	h[0] = splitOne

	for as := A; as != 0; as &= as - 1 {
		a := as & -as
		for X := R; ; X = (X - 1) & R {
			sum := split{}
			for Y := X; ; Y = (Y - 1) & X {
				if hv := h[X&^Y]; hv != (split{}) {
					sum = sum.add(hv.mul(pol.c[a|Y]))
				}
				if Y == 0 {
					break
				}
			}
			next[X] = sum
			if X == 0 {
				break
			}
		}
		h, next = next, h
	}
	return h[R]
}

func (pol *Polarizable) indices(S uint) []int {
	pol.idx = pol.idx[:0]
	for m := S; m != 0; m &= m - 1 {
		pol.idx = append(pol.idx, bits.TrailingZeros(m))
	}
	return pol.idx
}

func (pol *Polarizable) subsetEnergy(S uint, box virial.Box) float64 {
	pol.calls++
	return pol.oracle.PolarizationEnergy(pol.indices(S), box)
}

// pairSum returns Σ U_pol over the pairs in S, asking the oracle once per pair per configuration.
func (pol *Polarizable) pairSum(S uint, box virial.Box) float64 {
	n := pol.sum.NumPoints()
	sum := 0.0
	for mj := S; mj != 0; mj &= mj - 1 {
		j := bits.TrailingZeros(mj)
		for mi := S & (1<<uint(j) - 1); mi != 0; mi &= mi - 1 {
			i := bits.TrailingZeros(mi)
			k := i*n + j
			if !pol.pairK[k] {
				pol.calls++
				pol.pairU[k] = pol.oracle.PolarizationEnergy([]int{i, j}, box)
				pol.pairK[k] = true
			}
			sum += pol.pairU[k]
		}
	}
	return sum
}
