package mc

import (
	"math"
	"math/rand"

	"github.com/fine-structures/virial/libvirial/box"
	"gonum.org/v1/gonum/spatial/r3"
)

// Move proposes a configuration change.  The caller brackets Propose with Box.Trial and
// Box.Recompute, then calls Box.Accept or Box.Reject.
type Move interface {
	Propose(b *box.Box, rng *rand.Rand)
	StepSize() float64
	SetStepSize(step float64)
}

// Translate displaces one of points 1..n-1 uniformly within a cube of half width Step.
// Point 0 stays at the origin.
type Translate struct {
	Step float64
}

func (m *Translate) Propose(b *box.Box, rng *rand.Rand) {
	i := 1 + rng.Intn(b.NumPoints()-1)
	b.Displace(i, r3.Vec{
		X: m.Step * (2*rng.Float64() - 1),
		Y: m.Step * (2*rng.Float64() - 1),
		Z: m.Step * (2*rng.Float64() - 1),
	})
}

func (m *Translate) StepSize() float64 {
	return m.Step
}

func (m *Translate) SetStepSize(step float64) {
	m.Step = step
}

// TranslateAll displaces every one of points 1..n-1 at once, each by its own uniform vector within
// a cube of half width Step.  Point 0 stays at the origin.
//
// A single-point move cannot cross a region where the sampled value is zero for every
// intermediate, as between the full star and the ring of a hard-sphere Ree-Hoover sum.
type TranslateAll struct {
	Step float64
}

func (m *TranslateAll) Propose(b *box.Box, rng *rand.Rand) {
	for i := 1; i < b.NumPoints(); i++ {
		b.Displace(i, r3.Vec{
			X: m.Step * (2*rng.Float64() - 1),
			Y: m.Step * (2*rng.Float64() - 1),
			Z: m.Step * (2*rng.Float64() - 1),
		})
	}
}

func (m *TranslateAll) StepSize() float64 {
	return m.Step
}

func (m *TranslateAll) SetStepSize(step float64) {
	m.Step = step
}

// Initialize places the points of b evenly on a ring of the given radius about the origin,
// with point 0 at the origin, so that every pair is closer than 2·radius.
func Initialize(b *box.Box, radius float64) {
	n := b.NumPoints()
	b.SetPosition(0, r3.Vec{})
	for i := 1; i < n; i++ {
		phi := 2 * math.Pi * float64(i) / float64(n)
		b.SetPosition(i, r3.Vec{
			X: radius * (math.Cos(phi) - 1),
			Y: radius * math.Sin(phi),
		})
	}
	b.Recompute()
}
