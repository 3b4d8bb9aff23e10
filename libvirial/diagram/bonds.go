package diagram

import (
	"math/big"

	"gonum.org/v1/gonum/stat/combin"
)

// BondSet is one labelling of a diagram as f-bond and e-bond index lists.
type BondSet struct {
	F []Bond
	E []Bond
}

// ClusterBonds is the evaluation form of one diagram.
//
// With UsePermutations the bond product is summed over every distinct labelling and the
// weight is divided by the labelling count, which leaves the integral unchanged.
type ClusterBonds struct {
	N               int
	Weight          float64
	Sets            []BondSet
	UsePermutations bool
}

// NewClusterBonds converts a diagram into its evaluation form.
func NewClusterBonds(d *Diagram, usePermutations bool) *ClusterBonds {
	cb := &ClusterBonds{
		N:               d.N,
		UsePermutations: usePermutations,
	}
	withEBonds := len(d.EBonds) > 0

	if !usePermutations {
		cb.Weight = d.WeightFloat()
		cb.Sets = []BondSet{{F: d.FBonds, E: d.EBonds}}
	} else {
		codes := d.Labellings()
		if int64(len(codes))*d.Automorphisms != int64(combin.NumPermutations(d.N, d.N)) {
			panic("diagram: labelling count does not match automorphisms (labelling check failed)")
		}
		w := new(big.Rat).Quo(d.Weight, big.NewRat(int64(len(codes)), 1))
		cb.Weight, _ = w.Float64()
		cb.Sets = make([]BondSet, len(codes))
		for i, code := range codes {
			cb.Sets[i].F = code.Bonds(d.N)
			if withEBonds {
				cb.Sets[i].E = code.Complement(d.N).Bonds(d.N)
			}
		}
	}

	if withEBonds {
		for _, set := range cb.Sets {
			if len(set.F)+len(set.E) != NumPairs(d.N) {
				panic("diagram: f-bonds and e-bonds do not cover all pairs (bond count check failed)")
			}
		}
	}
	return cb
}

// BondsFor converts a diagram list into evaluation form.
func BondsFor(diagrams []*Diagram, usePermutations bool) []*ClusterBonds {
	out := make([]*ClusterBonds, len(diagrams))
	for i, d := range diagrams {
		out[i] = NewClusterBonds(d, usePermutations)
	}
	return out
}

// Product returns Σ over labellings of Π f · Π e, without the weight.
func (cb *ClusterBonds) Product(tbl BondTable) float64 {
	sum := 0.0
	for _, set := range cb.Sets {
		p := 1.0
		for _, b := range set.F {
			p *= tbl.F(b.A, b.B)
			if p == 0 {
				break
			}
		}
		if p != 0 {
			for _, b := range set.E {
				p *= tbl.E(b.A, b.B)
				if p == 0 {
					break
				}
			}
		}
		sum += p
	}
	return sum
}

// Value returns Weight · Product(tbl).
func (cb *ClusterBonds) Value(tbl BondTable) float64 {
	return cb.Weight * cb.Product(tbl)
}
