package diagram

import (
	"math/big"
)

// GenerateOpts selects which diagrams Generate produces.
type GenerateOpts struct {
	N                         int  // Cluster order (number of points)
	ExcludeArticulationPoints bool // Keep only 2-connected diagrams
	ExcludeArticulationPairs  bool // Also drop diagrams that a pair of points separates
	ReeHoover                 bool // Decorate with e-bonds and Ree-Hoover factors (N >= 4)
	AllPermutations           bool // Emit every distinct labelling rather than one per isomorphism class
	ExcludeNodalPoints        bool // With AllPermutations, drop labellings where one point separates roots 0 and 1
}

// Bond is an unordered pair of points, stored with A < B.
type Bond struct {
	A, B int
}

// BondTable supplies f-bond and e-bond values for point pairs i < j.
type BondTable interface {
	F(i, j int) float64
	E(i, j int) float64
}

// Diagram is a labelled graph on N points contributing a weighted Mayer-bond product.
//
// A Diagram is immutable once returned from this package.
type Diagram struct {
	N      int
	Code   Code   // connection code of the f-bonds
	FBonds []Bond // f-bonds in code order
	EBonds []Bond // e-bonds (Ree-Hoover complement), otherwise empty
	Adj    []uint16

	// Automorphisms is the size of the automorphism group of the f-bond graph.
	Automorphisms int64

	// PermCount is the number of distinct labellings this diagram stands for.
	PermCount int64

	// ReeHoover is the Ree-Hoover multiplicity (1 for plain f-bond diagrams).
	ReeHoover int64

	// Weight is (1-N)·PermCount/N! · ReeHoover
	Weight *big.Rat
}

// WeightFloat returns Weight as a float64.
func (d *Diagram) WeightFloat() float64 {
	w, _ := d.Weight.Float64()
	return w
}

// NumPairs returns the number of point pairs, n(n-1)/2.
func NumPairs(n int) int {
	return n * (n - 1) / 2
}
