package mayer

import (
	"github.com/fine-structures/virial/virial"
)

// Function evaluates the Mayer f-bond, exp(-βu) - 1, of points i < j.
//
// The implementations in this package are HardSphere, Spherical, General and Product.
type Function interface {
	F(box virial.Box, i, j int, beta float64) float64
}

// Potential is a spherically symmetric pair potential of the squared separation.
// A hard-core overlap returns +Inf.
type Potential interface {
	U(r2 float64) float64
}
