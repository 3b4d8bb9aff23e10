package mayer

import (
	"math"

	"github.com/fine-structures/virial/virial"
)

// HardSphere is -1 for overlapping spheres of diameter Sigma and 0 otherwise, at any temperature.
type HardSphere struct {
	Sigma float64
}

func (hs HardSphere) F(box virial.Box, i, j int, beta float64) float64 {
	if box.R2(i, j) < hs.Sigma*hs.Sigma {
		return -1
	}
	return 0
}

// Spherical is the Mayer function of a spherically symmetric potential.
type Spherical struct {
	Potential Potential
}

func (s Spherical) F(box virial.Box, i, j int, beta float64) float64 {
	return boltzmannBond(beta * s.Potential.U(box.R2(i, j)))
}

// General is the Mayer function of an arbitrary pair energy.
type General struct {
	Oracle virial.EnergyOracle
}

func (g General) F(box virial.Box, i, j int, beta float64) float64 {
	return boltzmannBond(beta * g.Oracle.PairEnergy(i, j, box))
}

// Product is the Mayer function of a sum of potentials: e = Π e_k.
type Product []Function

func (p Product) F(box virial.Box, i, j int, beta float64) float64 {
	e := 1.0
	for _, fn := range p {
		e *= 1 + fn.F(box, i, j, beta)
		if e == 0 {
			break
		}
	}
	return e - 1
}

// boltzmannBond returns exp(-x) - 1 without cancellation for small x.
func boltzmannBond(x float64) float64 {
	if math.IsInf(x, 1) {
		return -1
	}
	return math.Expm1(-x)
}
