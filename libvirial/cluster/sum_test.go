package cluster

import (
	"math"
	"math/rand"
	"testing"

	"github.com/fine-structures/virial/libvirial/box"
	"github.com/fine-structures/virial/libvirial/diagram"
	"github.com/fine-structures/virial/libvirial/mayer"
	"github.com/fine-structures/virial/virial"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func newSum(t *testing.T, opts diagram.GenerateOpts, fn mayer.Function) *Sum {
	ds, err := diagram.Generate(opts)
	require.NoError(t, err)
	s, err := NewSum(diagram.BondsFor(ds, false), fn, 1)
	require.NoError(t, err)
	return s
}

func randomBox(n int, scale float64, rng *rand.Rand) *box.Box {
	b := box.New(n)
	for i := 1; i < n; i++ {
		b.SetPosition(i, r3.Vec{
			X: scale * (rng.Float64() - 0.5),
			Y: scale * (rng.Float64() - 0.5),
			Z: scale * (rng.Float64() - 0.5),
		})
	}
	b.Recompute()
	return b
}

func TestRing(t *testing.T) {
	var r ring
	_, hit := r.lookup(1)
	require.False(t, hit)

	r.store(1, 10)
	r.store(2, 20)
	v, hit := r.lookup(1)
	require.True(t, hit)
	assert.Equal(t, 10.0, v)

	// 1 is current again, so 3 overwrites 2
	r.store(3, 30)
	_, hit = r.lookup(2)
	assert.False(t, hit)
	v, _ = r.lookup(1)
	assert.Equal(t, 10.0, v)
	v, _ = r.lookup(3)
	assert.Equal(t, 30.0, v)

	r.invalidate()
	_, hit = r.lookup(3)
	assert.False(t, hit)
}

func TestTotalOverlap(t *testing.T) {
	for n := 2; n <= 6; n++ {
		opts := diagram.GenerateOpts{N: n, ExcludeArticulationPoints: true}
		s := newSum(t, opts, mayer.HardSphere{Sigma: 1})
		assert.InDelta(t, 1/float64(n), s.Value(box.New(n)), 1e-12, "n=%d", n)

		if n >= 4 {
			opts.ReeHoover = true
			s = newSum(t, opts, mayer.HardSphere{Sigma: 1})
			assert.InDelta(t, 1/float64(n), s.Value(box.New(n)), 1e-12, "Ree-Hoover n=%d", n)
		}
	}
}

func TestSecondCoefficient(t *testing.T) {
	s := newSum(t, diagram.GenerateOpts{N: 2}, mayer.HardSphere{Sigma: 1})
	b := box.New(2)
	b.SetPosition(1, r3.Vec{X: 0.5})
	b.Recompute()
	assert.Equal(t, 0.5, s.Value(b))

	b.SetPosition(1, r3.Vec{X: 1.5})
	b.Recompute()
	assert.Equal(t, 0.0, s.Value(b))
}

func TestValueIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	fn := mayer.Spherical{Potential: mayer.LennardJones{Sigma: 1, Epsilon: 1}}
	s := newSum(t, diagram.GenerateOpts{N: 5, ExcludeArticulationPoints: true}, fn)
	b := randomBox(5, 2, rng)

	v1 := s.Value(b)
	evals := s.Table().Evaluations()
	v2 := s.Value(b)
	assert.Equal(t, math.Float64bits(v1), math.Float64bits(v2))
	assert.Equal(t, evals, s.Table().Evaluations())
	assert.Equal(t, int64(1), s.Evaluations())
}

func TestRejectRestoresValue(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	fn := mayer.Spherical{Potential: mayer.SquareWell{Sigma: 1, Epsilon: 1, Lambda: 1.5}}
	s := newSum(t, diagram.GenerateOpts{N: 4, ExcludeArticulationPoints: true}, fn)
	b := randomBox(4, 1.5, rng)

	before := s.Value(b)
	id := b.ID()

	b.Trial()
	b.Displace(2, r3.Vec{X: 0.7, Y: -0.2})
	b.Recompute()
	s.Value(b)
	b.Reject()

	evals := s.Evaluations()
	assert.Equal(t, id, b.ID())
	assert.Equal(t, math.Float64bits(before), math.Float64bits(s.Value(b)))
	assert.Equal(t, evals, s.Evaluations())
}

func TestSetTemperature(t *testing.T) {
	fn := mayer.Spherical{Potential: mayer.SquareWell{Sigma: 1, Epsilon: 1, Lambda: 2}}
	s := newSum(t, diagram.GenerateOpts{N: 2}, fn)
	b := box.New(2)
	b.SetPosition(1, r3.Vec{X: 1.5})
	b.Recompute()

	assert.InDelta(t, -0.5*(math.E-1), s.Value(b), 1e-12)
	s.SetTemperature(0.5)
	assert.InDelta(t, -0.5*(math.Exp(2)-1), s.Value(b), 1e-12)
}

func TestMismatchedOrder(t *testing.T) {
	ds, _ := diagram.Generate(diagram.GenerateOpts{N: 3})
	_, err := NewSumWithTable(diagram.BondsFor(ds, false), mayer.NewTable(4, mayer.HardSphere{Sigma: 1}, 1))
	assert.Equal(t, virial.ErrMismatchedOrder, errors.Cause(err))

	_, err = NewSum(nil, mayer.HardSphere{Sigma: 1}, 1)
	assert.Equal(t, virial.ErrBadOptions, errors.Cause(err))
}

func TestFlipped(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	fn := mayer.Spherical{Potential: mayer.LennardJones{Sigma: 1, Epsilon: 1}}
	s := newSum(t, diagram.GenerateOpts{N: 3, ExcludeArticulationPoints: true}, fn)
	flipped := NewFlipped(s)
	b := randomBox(3, 2, rng)
	id := b.ID()

	// reference: evaluate each reflection by hand
	c2 := r3.Scale(2, b.Centroid())
	orig := []r3.Vec{b.Position(0), b.Position(1), b.Position(2)}
	ref := newSum(t, diagram.GenerateOpts{N: 3, ExcludeArticulationPoints: true}, fn)
	want := 0.0
	for mask := 0; mask < 4; mask++ {
		hb := box.New(3)
		for k := 1; k < 3; k++ {
			p := orig[k]
			if mask>>uint(k-1)&1 != 0 {
				p = r3.Sub(c2, p)
			}
			hb.SetPosition(k, p)
		}
		hb.Recompute()
		want += ref.Value(hb) / 4
	}

	got := flipped.Value(b)
	assert.InDelta(t, want, got, 1e-12)
	assert.Equal(t, id, b.ID())
	assert.Equal(t, 3, flipped.NumPoints())

	evals := s.Evaluations()
	assert.Equal(t, got, flipped.Value(b))
	assert.Equal(t, evals, s.Evaluations())
}

func TestValueAcrossBoxes(t *testing.T) {
	fn := mayer.Spherical{Potential: mayer.LennardJones{Sigma: 1, Epsilon: 1}}
	s := newSum(t, diagram.GenerateOpts{N: 3, ExcludeArticulationPoints: true}, fn)
	fresh := func(b *box.Box) float64 {
		return newSum(t, diagram.GenerateOpts{N: 3, ExcludeArticulationPoints: true}, fn).Value(b)
	}

	b1 := box.New(3)
	b1.SetPosition(1, r3.Vec{X: 1.1})
	b1.SetPosition(2, r3.Vec{Y: 1.2})
	b1.Recompute()

	b2 := box.New(3)
	b2.SetPosition(1, r3.Vec{X: 0.95})
	b2.SetPosition(2, r3.Vec{X: 0.5, Y: 0.9})
	b2.Recompute()

	v1 := s.Value(b1)
	v2 := s.Value(b2)
	assert.NotEqual(t, v1, v2)
	assert.Equal(t, fresh(b1), v1)
	assert.Equal(t, fresh(b2), v2)
	assert.Equal(t, v1, s.Value(b1))

	flipped := NewFlipped(s)
	f1 := flipped.Value(b1)
	assert.Equal(t, NewFlipped(newSum(t, diagram.GenerateOpts{N: 3, ExcludeArticulationPoints: true}, fn)).Value(b2), flipped.Value(b2))
	assert.Equal(t, f1, flipped.Value(b1))
}

func TestSharedTableTemperature(t *testing.T) {
	fn := mayer.Spherical{Potential: mayer.SquareWell{Sigma: 1, Epsilon: 1, Lambda: 2}}
	ds, err := diagram.Generate(diagram.GenerateOpts{N: 2})
	require.NoError(t, err)
	table := mayer.NewTable(2, fn, 1)
	s1, err := NewSumWithTable(diagram.BondsFor(ds, false), table)
	require.NoError(t, err)
	s2, err := NewSumWithTable(diagram.BondsFor(ds, false), table)
	require.NoError(t, err)
	flipped := NewFlipped(s2)

	b := box.New(2)
	b.SetPosition(1, r3.Vec{X: 1.5})
	b.Recompute()

	assert.InDelta(t, -0.5*(math.E-1), s1.Value(b), 1e-12)
	assert.InDelta(t, -0.5*(math.E-1), s2.Value(b), 1e-12)
	// the reflected point lands on the origin, inside the hard core
	assert.InDelta(t, (-0.5*(math.E-1)+0.5)/2, flipped.Value(b), 1e-12)

	// s2 and its wrapper see the new temperature even though only s1 was told
	s1.SetTemperature(0.5)
	assert.Equal(t, uint64(1), table.Generation())
	assert.InDelta(t, -0.5*(math.Exp(2)-1), s2.Value(b), 1e-12)
	assert.InDelta(t, (-0.5*(math.Exp(2)-1)+0.5)/2, flipped.Value(b), 1e-12)
	assert.InDelta(t, -0.5*(math.Exp(2)-1), s1.Value(b), 1e-12)
}
