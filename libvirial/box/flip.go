package box

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// FlipAverage returns the mean of eval over all 2^(n-1) combinations of reflecting points 1..n-1
// through the centroid.  Point 0 stays fixed.  Positions, separations and ID are restored afterwards.
func (b *Box) FlipAverage(eval func() float64) float64 {
	if b.dirty {
		panic("box: FlipAverage before Recompute (configuration check failed)")
	}
	copy(b.flipPos, b.pos)
	copy(b.flipR2, b.r2)
	id := b.id

	c2 := r3.Scale(2, b.Centroid())
	combos := 1 << uint(b.n-1)

	sum := eval()
	for mask := 1; mask < combos; mask++ {
		for k := 1; k < b.n; k++ {
			p := b.flipPos[k]
			if mask>>uint(k-1)&1 != 0 {
				p = r3.Sub(c2, p)
			}
			b.pos[k] = p
		}
		b.Recompute()
		sum += eval()
	}

	copy(b.pos, b.flipPos)
	copy(b.r2, b.flipR2)
	b.id = id
	return sum / float64(combos)
}
