package diagram

import (
	"math/big"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/sets/hashset"
	"github.com/emirpasic/gods/utils"
	"github.com/fine-structures/virial/virial"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/combin"
)

// orderly enumerates graphs on n points up to isomorphism.
//
// A code is only ever extended by setting pairs after its last set pair, and a child is kept
// only if it is canonical (maximal over all relabellings).  Dropping the last pair of a canonical
// code leaves a canonical code, so every isomorphism class is reached from exactly one parent.
type orderly struct {
	n       int
	m       int
	pairs   []Bond // pair at each code position
	adj     [virial.MaxPoints]uint16
	perm    [virial.MaxPoints]int
	colOrig [virial.MaxPoints]uint64
	used    uint16
	aut     int64
	onGraph func(code Code, adj []uint16, aut int64)
}

func newOrderly(n int) *orderly {
	gen := &orderly{
		n: n,
		m: NumPairs(n),
	}
	for j := 1; j < n; j++ {
		for i := 0; i < j; i++ {
			gen.pairs = append(gen.pairs, Bond{i, j})
		}
	}
	return gen
}

func (gen *orderly) run() {
	gen.extend(0, -1)
}

func (gen *orderly) extend(code Code, last int) {
	for p := last + 1; p < gen.m; p++ {
		b := gen.pairs[p]
		gen.adj[b.A] |= 1 << uint(b.B)
		gen.adj[b.B] |= 1 << uint(b.A)

		if isCanon, aut := gen.canon(); isCanon {
			child := code | Code(1)<<uint(gen.m-1-p)
			gen.onGraph(child, gen.adj[:gen.n], aut)
			gen.extend(child, p)
		}

		gen.adj[b.A] &^= 1 << uint(b.B)
		gen.adj[b.B] &^= 1 << uint(b.A)
	}
}

// canon reports if the current graph is canonical and, if so, its automorphism count.
func (gen *orderly) canon() (bool, int64) {
	for j := 0; j < gen.n; j++ {
		col := uint64(0)
		for i := 0; i < j; i++ {
			col = col<<1 | uint64(gen.adj[j]>>uint(i)&1)
		}
		gen.colOrig[j] = col
	}
	gen.used = 0
	gen.aut = 0
	if !gen.place(0) {
		return false, 0
	}
	return true, gen.aut
}

// place assigns each unused point to new label j and compares column j of the relabelled
// graph with the original.  It returns false as soon as a larger relabelling is found.
func (gen *orderly) place(j int) bool {
	if j == gen.n {
		gen.aut++
		return true
	}
	orig := gen.colOrig[j]
	for v := 0; v < gen.n; v++ {
		if gen.used>>uint(v)&1 != 0 {
			continue
		}
		av := gen.adj[v]
		col := uint64(0)
		for i := 0; i < j; i++ {
			col = col<<1 | uint64(av>>uint(gen.perm[i])&1)
		}
		if col > orig {
			return false
		}
		if col < orig {
			continue
		}
		gen.perm[j] = v
		gen.used |= 1 << uint(v)
		ok := gen.place(j + 1)
		gen.used &^= 1 << uint(v)
		if !ok {
			return false
		}
	}
	return true
}

// Generate returns the diagrams selected by opts, one per isomorphism class in increasing Code order
// (or every distinct labelling of each class when opts.AllPermutations is set).
func Generate(opts GenerateOpts) ([]*Diagram, error) {
	n := opts.N
	if n < 2 || n > virial.MaxPoints {
		return nil, errors.Wrapf(virial.ErrBadPointCount, "N = %d", n)
	}

	if opts.ExcludeNodalPoints && !opts.AllPermutations {
		return nil, errors.Wrap(virial.ErrBadOptions, "nodal points are defined only for labelled diagrams")
	}

	reeHoover := opts.ReeHoover && n >= 4
	if reeHoover && n > virial.MaxReeHooverPoints {
		return nil, errors.Wrapf(virial.ErrBadReeHooverOrder, "N = %d", n)
	}

	classes := treemap.NewWith(utils.UInt64Comparator)
	gen := newOrderly(n)
	gen.onGraph = func(code Code, adj []uint16, aut int64) {
		if !opts.accepts(adj) {
			return
		}
		if _, exists := classes.Get(uint64(code)); exists {
			panic("diagram: canonical code generated twice (orderly check failed)")
		}
		classes.Put(uint64(code), aut)
	}
	gen.run()

	var rh *reeHooverTable
	if reeHoover {
		rh = newReeHooverTable(&opts)
	}

	nFact := int64(combin.NumPermutations(n, n))
	diagrams := make([]*Diagram, 0, classes.Size())

	for it := classes.Iterator(); it.Next(); {
		code := Code(it.Key().(uint64))
		aut := it.Value().(int64)
		if nFact%aut != 0 {
			panic("diagram: automorphism count does not divide N! (symmetry check failed)")
		}

		factor := int64(1)
		if rh != nil {
			factor = rh.factor(code)
			if factor == 0 {
				continue
			}
		}

		d := newDiagram(n, code, rh != nil)
		d.Automorphisms = aut
		d.ReeHoover = factor

		if opts.AllPermutations {
			diagrams = appendLabellings(diagrams, d, nFact, opts.ExcludeNodalPoints)
		} else {
			d.PermCount = nFact / aut
			d.Weight = big.NewRat(int64(1-n)*d.PermCount*factor, nFact)
			diagrams = append(diagrams, d)
		}
	}

	return diagrams, nil
}

// newDiagram fills in bonds and adjacency for the given code; weights are left to the caller.
func newDiagram(n int, code Code, withEBonds bool) *Diagram {
	d := &Diagram{
		N:         n,
		Code:      code,
		FBonds:    code.Bonds(n),
		Adj:       code.Adjacency(n),
		ReeHoover: 1,
	}
	if withEBonds {
		d.EBonds = code.Complement(n).Bonds(n)
		if len(d.FBonds)+len(d.EBonds) != NumPairs(n) {
			panic("diagram: f-bonds and e-bonds do not cover all pairs (bond count check failed)")
		}
	}
	return d
}

// appendLabellings appends every distinct labelling of d, each with weight (1-n)/n! times its Ree-Hoover factor.
// With noNodal set, labellings in which a field point separates points 0 and 1 are skipped.
func appendLabellings(dst []*Diagram, d *Diagram, nFact int64, noNodal bool) []*Diagram {
	n := d.N
	seen := hashset.New()
	perm := make([]int, n)
	weight := big.NewRat(int64(1-n)*d.ReeHoover, nFact)

	for perms := combin.NewPermutationGenerator(n, n); perms.Next(); {
		perms.Permutation(perm)
		code := d.Code.Relabel(n, perm)
		if seen.Contains(uint64(code)) {
			continue
		}
		seen.Add(uint64(code))

		label := newDiagram(n, code, len(d.EBonds) > 0)
		if noNodal && hasNodalPoint(label.Adj, n) {
			continue
		}
		label.Automorphisms = d.Automorphisms
		label.ReeHoover = d.ReeHoover
		label.PermCount = 1
		label.Weight = weight
		dst = append(dst, label)
	}

	if int64(seen.Size())*d.Automorphisms != nFact {
		panic("diagram: labelling count does not match automorphisms (labelling check failed)")
	}
	return dst
}

// Labellings returns the codes of every distinct labelling of d.
func (d *Diagram) Labellings() []Code {
	n := d.N
	seen := hashset.New()
	perm := make([]int, n)
	codes := make([]Code, 0, d.PermCount)
	for perms := combin.NewPermutationGenerator(n, n); perms.Next(); {
		perms.Permutation(perm)
		code := d.Code.Relabel(n, perm)
		if !seen.Contains(uint64(code)) {
			seen.Add(uint64(code))
			codes = append(codes, code)
		}
	}
	return codes
}

// CountAutomorphisms returns the number of relabellings that leave the given code unchanged.
func CountAutomorphisms(n int, code Code) int64 {
	gen := newOrderly(n)
	code.fillAdjacency(n, gen.adj[:n])
	for j := 0; j < n; j++ {
		col := uint64(0)
		for i := 0; i < j; i++ {
			col = col<<1 | uint64(gen.adj[j]>>uint(i)&1)
		}
		gen.colOrig[j] = col
	}
	gen.fix(0)
	return gen.aut
}

func (gen *orderly) fix(j int) {
	if j == gen.n {
		gen.aut++
		return
	}
	for v := 0; v < gen.n; v++ {
		if gen.used>>uint(v)&1 != 0 {
			continue
		}
		col := uint64(0)
		for i := 0; i < j; i++ {
			col = col<<1 | uint64(gen.adj[v]>>uint(gen.perm[i])&1)
		}
		if col != gen.colOrig[j] {
			continue
		}
		gen.perm[j] = v
		gen.used |= 1 << uint(v)
		gen.fix(j + 1)
		gen.used &^= 1 << uint(v)
	}
}

// Canonical returns the largest code over all relabellings of the given code.
func Canonical(n int, code Code) Code {
	best := code
	perm := make([]int, n)
	for perms := combin.NewPermutationGenerator(n, n); perms.Next(); {
		perms.Permutation(perm)
		if c := code.Relabel(n, perm); c > best {
			best = c
		}
	}
	return best
}
