package mayer

import (
	"math"

	"github.com/fine-structures/virial/virial"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"
)

// HardCore is +Inf inside Sigma and 0 outside.
type HardCore struct {
	Sigma float64
}

func (p HardCore) U(r2 float64) float64 {
	if r2 < p.Sigma*p.Sigma {
		return math.Inf(1)
	}
	return 0
}

// LennardJones is 4ε((σ/r)^12 - (σ/r)^6).
type LennardJones struct {
	Sigma   float64
	Epsilon float64
}

func (p LennardJones) U(r2 float64) float64 {
	if r2 == 0 {
		return math.Inf(1)
	}
	s6 := p.Sigma * p.Sigma / r2
	s6 = s6 * s6 * s6
	return 4 * p.Epsilon * (s6*s6 - s6)
}

// SquareWell is a hard core of diameter Sigma with a well of depth Epsilon out to Lambda·Sigma.
type SquareWell struct {
	Sigma   float64
	Epsilon float64
	Lambda  float64
}

func (p SquareWell) U(r2 float64) float64 {
	s2 := p.Sigma * p.Sigma
	switch {
	case r2 < s2:
		return math.Inf(1)
	case r2 < p.Lambda*p.Lambda*s2:
		return -p.Epsilon
	}
	return 0
}

// Induction is the energy of dipoles induced on polarizable point charges by the other charges.
//
// The field at i is E_i = Σ_j q·r_ij/|r_ij|³ and the energy of a subset is -α/2 Σ_i |E_i|².
// Mutual induction between dipoles is neglected.
type Induction struct {
	Charge float64
	Alpha  float64
}

// U is the pair energy -α·q²/r⁴.
func (p Induction) U(r2 float64) float64 {
	return -p.Alpha * p.Charge * p.Charge / (r2 * r2)
}

func (p Induction) PolarizationEnergy(indices []int, box virial.Box) float64 {
	sum := 0.0
	for _, i := range indices {
		pi := box.Position(i)
		var field r3.Vec
		for _, j := range indices {
			if j == i {
				continue
			}
			d := r3.Sub(pi, box.Position(j))
			r2 := r3.Norm2(d)
			field = r3.Add(field, r3.Scale(p.Charge/(r2*math.Sqrt(r2)), d))
		}
		sum += r3.Norm2(field)
	}
	return -0.5 * p.Alpha * sum
}

// ForSystem returns the Mayer function of the target system described by sys.
// A polarizable system adds the pair induction energy after the core, so an overlap
// never evaluates the singular induction term.
func ForSystem(sys *virial.SystemConfig) (Function, error) {
	var fn Function
	switch sys.Potential {
	case virial.PotentialHardSphere:
		fn = HardSphere{Sigma: sys.Sigma}
	case virial.PotentialLennardJones:
		fn = Spherical{Potential: LennardJones{Sigma: sys.Sigma, Epsilon: sys.Epsilon}}
	case virial.PotentialSquareWell:
		fn = Spherical{Potential: SquareWell{Sigma: sys.Sigma, Epsilon: sys.Epsilon, Lambda: sys.Lambda}}
	default:
		return nil, errors.Wrapf(virial.ErrBadConfig, "unknown potential %q", sys.Potential)
	}
	if pol := sys.Polarization; pol != nil {
		fn = Product{fn, Spherical{Potential: InductionFor(pol)}}
	}
	return fn, nil
}

// InductionFor returns the induction model of pol.
func InductionFor(pol *virial.PolarizationConfig) Induction {
	return Induction{Charge: pol.Charge, Alpha: pol.Alpha}
}
